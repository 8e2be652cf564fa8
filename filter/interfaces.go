package filter

import (
	"context"

	"github.com/s0up4200/cinedex/tmdb"
)

// Filter decides whether a movie matches
type Filter interface {
	Evaluate(movie tmdb.Movie) bool
}

// CompiledFilter represents a pre-compiled filter ready for evaluation
type CompiledFilter interface {
	Filter

	// Expression returns the original filter expression
	Expression() string
}

// Compiler compiles filter expressions into executable filters
type Compiler interface {
	Compile(expression string) (CompiledFilter, error)
}

// CachingCompiler provides caching for compiled filters
type CachingCompiler interface {
	Compiler

	// Clear removes all cached filters
	Clear()

	// Size returns the number of cached filters
	Size() int
}

// Evaluator applies a filter to a list of movies, preserving order
type Evaluator interface {
	Evaluate(ctx context.Context, filter CompiledFilter, movies []tmdb.Movie) ([]tmdb.Movie, error)
}
