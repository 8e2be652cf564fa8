package filter

import (
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/s0up4200/cinedex/tmdb"
)

// exprFilter implements CompiledFilter using the expr language
type exprFilter struct {
	expression string
	program    *vm.Program
}

// ExprCompilerOption configures an expr compiler
type ExprCompilerOption func(*exprCompiler)

// WithCache enables filter caching with the specified size
func WithCache(size int) ExprCompilerOption {
	return func(c *exprCompiler) {
		if size > 0 {
			c.cache = newLRUCache(size)
		}
	}
}

// WithCustomFunctions adds custom helper functions
func WithCustomFunctions(funcs map[string]any) ExprCompilerOption {
	return func(c *exprCompiler) {
		maps.Copy(c.helperFuncs, funcs)
	}
}

// NewExprCompiler creates a new expr-based filter compiler
func NewExprCompiler(opts ...ExprCompilerOption) CachingCompiler {
	c := &exprCompiler{
		helperFuncs: createHelperFunctions(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

var defaultCompiler = NewExprCompiler(WithCache(100))

// CompileFilter compiles expression with the shared caching compiler
func CompileFilter(expression string) (CompiledFilter, error) {
	return defaultCompiler.Compile(expression)
}

// exprCompiler implements Compiler for expr-based filters
type exprCompiler struct {
	helperFuncs map[string]any
	cache       *lruCache
}

// Compile compiles an expression into an executable filter
func (c *exprCompiler) Compile(expression string) (CompiledFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	program, err := expr.Compile(expression,
		expr.Env(c.helperFuncs),
		expr.AllowUndefinedVariables(), // movie fields are bound at run time
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	filter := &exprFilter{
		expression: expression,
		program:    program,
	}

	if c.cache != nil {
		c.cache.Put(expression, filter)
	}

	return filter, nil
}

// Clear removes all cached filters
func (c *exprCompiler) Clear() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Size returns the number of cached filters
func (c *exprCompiler) Size() int {
	if c.cache != nil {
		return c.cache.Size()
	}
	return 0
}

// Evaluate runs the filter against a movie. Runtime errors count as no match.
func (f *exprFilter) Evaluate(movie tmdb.Movie) bool {
	result, err := expr.Run(f.program, createRuntimeEnvironment(movie))
	if err != nil {
		return false
	}
	return result.(bool)
}

// Expression returns the original expression
func (f *exprFilter) Expression() string {
	return f.expression
}

// createHelperFunctions creates the static helper functions used during compilation
func createHelperFunctions() map[string]any {
	funcs := make(map[string]any, 16)
	addHelperFunctions(funcs)
	return funcs
}

func addHelperFunctions(env map[string]any) {
	// Date helpers
	env["daysSince"] = func(t time.Time) int {
		return int(time.Since(t).Hours() / 24)
	}
	env["daysAgo"] = func(days int) time.Time {
		return time.Now().AddDate(0, 0, -days)
	}
	env["monthsAgo"] = func(months int) time.Time {
		return time.Now().AddDate(0, -months, 0)
	}
	env["yearsAgo"] = func(years int) time.Time {
		return time.Now().AddDate(-years, 0, 0)
	}
	env["parseDate"] = func(dateStr string) time.Time {
		t, _ := time.Parse("2006-01-02", dateStr)
		return t
	}
	// String helpers
	env["contains"] = func(str, substr string) bool {
		return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
	}
	env["startsWith"] = func(str, prefix string) bool {
		return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
	}
	env["endsWith"] = func(str, suffix string) bool {
		return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
	}
	env["lower"] = strings.ToLower
	env["upper"] = strings.ToUpper
	env["now"] = time.Now
}

// createRuntimeEnvironment binds a movie's fields and movie-specific helpers
func createRuntimeEnvironment(movie tmdb.Movie) map[string]any {
	env := make(map[string]any, 40)
	addHelperFunctions(env)

	genres := movie.GenreNames()
	released, hasDate := movie.Released()
	year, _ := strconv.Atoi(movie.ReleaseYear())

	env["Movie"] = movie
	env["hasGenre"] = createHasGenreFunc(genres)
	env["releasedWithin"] = func(days int) bool {
		return hasDate && !released.After(time.Now()) && time.Since(released) <= time.Duration(days)*24*time.Hour
	}

	env["ID"] = movie.ID
	env["Title"] = movie.Title
	env["OriginalTitle"] = movie.OriginalTitle
	env["Overview"] = movie.Overview
	env["Year"] = year
	env["ReleaseDate"] = released
	env["HasReleaseDate"] = hasDate
	env["Rating"] = movie.VoteAverage
	env["Votes"] = movie.VoteCount
	env["Popularity"] = movie.Popularity
	env["Language"] = movie.OriginalLanguage
	env["Adult"] = movie.Adult
	env["Genres"] = genres
	env["GenreIDs"] = movie.GenreIDs
	env["HasPoster"] = movie.PosterPath != nil && *movie.PosterPath != ""

	return env
}

func createHasGenreFunc(genres []string) func(string) bool {
	lower := make([]string, len(genres))
	for i, g := range genres {
		lower[i] = strings.ToLower(g)
	}
	return func(genre string) bool {
		return slices.Contains(lower, strings.ToLower(genre))
	}
}
