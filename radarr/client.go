// Package radarr exports favorite movies into a Radarr library.
package radarr

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golift.io/starr"
	"golift.io/starr/radarr"
)

var (
	// ErrNoRootFolder is returned when Radarr has no root folder configured
	ErrNoRootFolder = errors.New("radarr has no root folder configured")
	// ErrNoQualityProfile is returned when Radarr has no quality profile
	ErrNoQualityProfile = errors.New("radarr has no quality profile configured")
)

// Client wraps the starr Radarr client
type Client struct {
	api    RadarrAPI
	logger zerolog.Logger
}

// NewClient creates a Radarr client and verifies the connection
func NewClient(url, apiKey string, logger zerolog.Logger) (*Client, error) {
	config := starr.New(apiKey, url, 30*time.Second)
	radarrClient := radarr.New(config)

	if err := radarrClient.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to Radarr: %w", err)
	}

	return NewClientWithAPI(radarrClient, logger), nil
}

// NewClientWithAPI creates a client over an existing API implementation
func NewClientWithAPI(api RadarrAPI, logger zerolog.Logger) *Client {
	return &Client{
		api:    api,
		logger: logger,
	}
}

// GetAllMovies retrieves all movies from Radarr
func (c *Client) GetAllMovies(ctx context.Context) ([]*radarr.Movie, error) {
	movies, err := c.api.GetMovieContext(ctx, &radarr.GetMovie{})
	if err != nil {
		return nil, fmt.Errorf("failed to get movies: %w", err)
	}

	c.logger.Debug().Msgf("Retrieved %d movies from Radarr", len(movies))
	return movies, nil
}

// DefaultRootFolder returns the first configured root folder path
func (c *Client) DefaultRootFolder(ctx context.Context) (string, error) {
	folders, err := c.api.GetRootFoldersContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get root folders: %w", err)
	}
	for _, f := range folders {
		if f != nil && f.Path != "" {
			return f.Path, nil
		}
	}
	return "", ErrNoRootFolder
}

// DefaultQualityProfile returns the first configured quality profile ID
func (c *Client) DefaultQualityProfile(ctx context.Context) (int64, error) {
	profiles, err := c.api.GetQualityProfilesContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get quality profiles: %w", err)
	}
	for _, p := range profiles {
		if p != nil && p.ID > 0 {
			return p.ID, nil
		}
	}
	return 0, ErrNoQualityProfile
}

// AddMovie adds a movie to Radarr
func (c *Client) AddMovie(ctx context.Context, input *radarr.AddMovieInput) (*radarr.Movie, error) {
	movie, err := c.api.AddMovieContext(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to add movie %s (TMDB %d): %w", input.Title, input.TmdbID, err)
	}

	c.logger.Info().
		Str("title", input.Title).
		Int64("tmdb_id", input.TmdbID).
		Msg("Added movie to Radarr")
	return movie, nil
}
