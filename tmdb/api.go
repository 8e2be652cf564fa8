package tmdb

import (
	"context"
)

// Catalog defines the read operations the rest of cinedex needs from TMDB
type Catalog interface {
	// SearchMovies performs a free text search, optionally scoped to a year
	SearchMovies(ctx context.Context, params SearchParams) (*Page, error)

	// DiscoverByYear lists a year's movies sorted by rating
	DiscoverByYear(ctx context.Context, params DiscoverParams) (*Page, error)

	// Trending lists trending movies
	Trending(ctx context.Context, window TrendingWindow, page int) (*Page, error)

	// GetMovie fetches a single movie
	GetMovie(ctx context.Context, id int) (*Movie, error)
}

var _ Catalog = (*Client)(nil)
