package filter

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/cinedex/tmdb"
)

// EvaluatorOption configures an evaluator
type EvaluatorOption func(*ConcurrentEvaluator)

// WithWorkers sets the number of worker goroutines
func WithWorkers(workers int) EvaluatorOption {
	return func(e *ConcurrentEvaluator) {
		if workers > 0 {
			e.workerCount = workers
		}
	}
}

// WithBatchSize sets the batch size for chunked processing
func WithBatchSize(size int) EvaluatorOption {
	return func(e *ConcurrentEvaluator) {
		if size > 0 {
			e.batchSize = size
		}
	}
}

// ConcurrentEvaluator evaluates large lists in ordered chunks
type ConcurrentEvaluator struct {
	workerCount int
	batchSize   int
}

// NewConcurrentEvaluator creates a new concurrent evaluator
func NewConcurrentEvaluator(opts ...EvaluatorOption) *ConcurrentEvaluator {
	e := &ConcurrentEvaluator{
		workerCount: runtime.GOMAXPROCS(0),
		batchSize:   100,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Evaluate returns the movies matching filter in their original order
func (e *ConcurrentEvaluator) Evaluate(ctx context.Context, filter CompiledFilter, movies []tmdb.Movie) ([]tmdb.Movie, error) {
	if len(movies) == 0 {
		return []tmdb.Movie{}, nil
	}

	if len(movies) < e.batchSize {
		return evaluateChunk(filter, movies), ctx.Err()
	}

	return e.evaluateConcurrent(ctx, filter, movies)
}

func (e *ConcurrentEvaluator) evaluateConcurrent(ctx context.Context, filter CompiledFilter, movies []tmdb.Movie) ([]tmdb.Movie, error) {
	chunkSize := max(len(movies)/e.workerCount, e.batchSize)
	chunks := make([][]tmdb.Movie, (len(movies)+chunkSize-1)/chunkSize)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workerCount)

	for i := range chunks {
		start := i * chunkSize
		end := min(start+chunkSize, len(movies))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			chunks[i] = evaluateChunk(filter, movies[start:end])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	matches := make([]tmdb.Movie, 0, total)
	for _, c := range chunks {
		matches = append(matches, c...)
	}
	return matches, nil
}

func evaluateChunk(filter CompiledFilter, movies []tmdb.Movie) []tmdb.Movie {
	matches := make([]tmdb.Movie, 0, len(movies)/4)
	for _, movie := range movies {
		if filter.Evaluate(movie) {
			matches = append(matches, movie)
		}
	}
	return matches
}
