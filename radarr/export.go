package radarr

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"
	"golift.io/starr/radarr"

	"github.com/s0up4200/cinedex/tmdb"
)

// DefaultConcurrency bounds concurrent add requests
const DefaultConcurrency = 5

// ExportOptions controls an export. Zero values are resolved from Radarr.
type ExportOptions struct {
	RootFolder       string
	QualityProfileID int64
	SearchOnAdd      bool
	DryRun           bool
	Concurrency      int
}

// ExportResult contains the results of an export
type ExportResult struct {
	Requested      int
	Added          []tmdb.Movie
	AlreadyPresent []tmdb.Movie
	// Planned lists the movies a dry run would have added.
	Planned []tmdb.Movie
	Failed  []AddError
}

// AddError contains information about a failed add
type AddError struct {
	Movie tmdb.Movie
	Err   error
}

// Error implements the error interface
func (e AddError) Error() string {
	return fmt.Sprintf("failed to add movie %s (TMDB: %d): %v", e.Movie.Title, e.Movie.ID, e.Err)
}

// Unwrap returns the underlying error
func (e AddError) Unwrap() error {
	return e.Err
}

// Export adds every movie missing from the Radarr library. Movies already
// present (matched by TMDB ID) are left alone. Individual add failures are
// collected in the result rather than aborting the export.
func (c *Client) Export(ctx context.Context, movies []tmdb.Movie, opts ExportOptions) (ExportResult, error) {
	result := ExportResult{Requested: len(movies)}
	if len(movies) == 0 {
		return result, nil
	}

	existing, err := c.GetAllMovies(ctx)
	if err != nil {
		return result, err
	}
	inLibrary := make(map[int64]struct{}, len(existing))
	for _, m := range existing {
		inLibrary[m.TmdbID] = struct{}{}
	}

	var missing []tmdb.Movie
	for _, m := range movies {
		if _, ok := inLibrary[int64(m.ID)]; ok {
			result.AlreadyPresent = append(result.AlreadyPresent, m)
			continue
		}
		missing = append(missing, m)
	}

	if opts.DryRun || len(missing) == 0 {
		result.Planned = missing
		return result, nil
	}

	if err := c.resolveDefaults(ctx, &opts); err != nil {
		return result, err
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	// index-addressed so the result keeps favorites order
	added := make([]bool, len(missing))
	failures := make([]error, len(missing))

	for i, movie := range missing {
		g.Go(func() error {
			_, err := c.AddMovie(ctx, addInput(movie, opts))
			if err != nil {
				failures[i] = err
				return nil // keep going with the rest
			}
			added[i] = true
			return nil
		})
	}
	g.Wait()

	for i, movie := range missing {
		if added[i] {
			result.Added = append(result.Added, movie)
		} else {
			result.Failed = append(result.Failed, AddError{Movie: movie, Err: failures[i]})
		}
	}

	c.logger.Info().
		Int("requested", result.Requested).
		Int("added", len(result.Added)).
		Int("present", len(result.AlreadyPresent)).
		Int("failed", len(result.Failed)).
		Msg("Radarr export finished")

	return result, nil
}

func (c *Client) resolveDefaults(ctx context.Context, opts *ExportOptions) error {
	if opts.RootFolder == "" {
		folder, err := c.DefaultRootFolder(ctx)
		if err != nil {
			return err
		}
		opts.RootFolder = folder
	}
	if opts.QualityProfileID <= 0 {
		id, err := c.DefaultQualityProfile(ctx)
		if err != nil {
			return err
		}
		opts.QualityProfileID = id
	}
	return nil
}

func addInput(movie tmdb.Movie, opts ExportOptions) *radarr.AddMovieInput {
	year, _ := strconv.Atoi(movie.ReleaseYear())
	return &radarr.AddMovieInput{
		Title:            movie.Title,
		TmdbID:           int64(movie.ID),
		Year:             year,
		QualityProfileID: opts.QualityProfileID,
		RootFolderPath:   opts.RootFolder,
		Monitored:        true,
		AddOptions: &radarr.AddMovieOptions{
			SearchForMovie: opts.SearchOnAdd,
		},
	}
}
