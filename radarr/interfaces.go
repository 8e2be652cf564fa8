package radarr

import (
	"context"

	"golift.io/starr/radarr"
)

// RadarrAPI is the subset of the starr Radarr client used for exports
type RadarrAPI interface {
	GetMovieContext(ctx context.Context, params *radarr.GetMovie) ([]*radarr.Movie, error)
	AddMovieContext(ctx context.Context, movie *radarr.AddMovieInput) (*radarr.Movie, error)
	GetRootFoldersContext(ctx context.Context) ([]*radarr.RootFolder, error)
	GetQualityProfilesContext(ctx context.Context) ([]*radarr.QualityProfile, error)

	// Health check
	Ping() error
}
