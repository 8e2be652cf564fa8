// Package browse drives paginated catalog listings.
//
// A Controller is either browsing the current year's catalog or searching for
// a query. Mode switches start a fresh session that replaces the accumulated
// results; scrolling near the bottom loads the next page and appends it.
//
// Every fetch runs on its own goroutine and reports exactly once through the
// channel returned by the call that started it. Fetches are tagged with the
// session generation they were issued under; a completion from a superseded
// session is reported as stale and never touches controller state.
package browse

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/s0up4200/cinedex/tmdb"
)

// DefaultScrollThreshold is the scrolled fraction that triggers a load-more
const DefaultScrollThreshold = 0.8

// ErrNonMonotonicPage is reported when the server answers a load-more with a
// page other than the one requested. The session stops paginating.
var ErrNonMonotonicPage = errors.New("server returned an unexpected page")

// Mode is the kind of listing a controller shows
type Mode int

const (
	// ModeBrowsing lists the configured year's movies by rating
	ModeBrowsing Mode = iota
	// ModeSearching lists the results of a text query
	ModeSearching
)

func (m Mode) String() string {
	switch m {
	case ModeBrowsing:
		return "browsing"
	case ModeSearching:
		return "searching"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// FetchKind distinguishes a fresh session fetch from a load-more
type FetchKind int

const (
	// FetchFresh loads page 1 and replaces the results
	FetchFresh FetchKind = iota
	// FetchMore loads the next page and appends it
	FetchMore
)

func (k FetchKind) String() string {
	if k == FetchMore {
		return "load-more"
	}
	return "fresh"
}

// Outcome is the single result of a fetch
type Outcome struct {
	Kind       FetchKind
	Generation uint64
	// Page is the page that was requested.
	Page int
	// Results is a snapshot of the accumulated results after the fetch was applied.
	Results []tmdb.Movie
	// Appended is the number of results this fetch contributed.
	Appended int
	HasMore  bool
	// Stale is set when the session changed while the fetch was in flight.
	Stale bool
	Err   error
}

// State is a snapshot of the pagination state
type State struct {
	Mode        Mode
	Query       string
	Year        int
	Page        int
	HasMore     bool
	Loading     bool
	LoadingMore bool
	Generation  uint64
	Count       int
}

// Controller owns the pagination state of one listing screen
type Controller struct {
	catalog  tmdb.Catalog
	logger   zerolog.Logger
	observer Observer

	year             int
	searchYearFilter bool
	threshold        float64

	// notifyMu orders observer callbacks; it is taken before mu, never after
	notifyMu sync.Mutex

	mu          sync.Mutex
	mode        Mode
	query       string
	page        int
	hasMore     bool
	loading     bool
	loadingMore bool
	results     []tmdb.Movie
	generation  uint64
	closed      bool
}

// Option configures a Controller
type Option func(*Controller)

// WithYear sets the year used for browsing and for the search year filter
func WithYear(year int) Option {
	return func(c *Controller) {
		if year > 0 {
			c.year = year
		}
	}
}

// WithSearchYearFilter restricts searches to the browse year when enabled
func WithSearchYearFilter(enabled bool) Option {
	return func(c *Controller) {
		c.searchYearFilter = enabled
	}
}

// WithScrollThreshold sets the scrolled fraction that triggers a load-more
func WithScrollThreshold(threshold float64) Option {
	return func(c *Controller) {
		if threshold > 0 && threshold <= 1 {
			c.threshold = threshold
		}
	}
}

// WithObserver registers callbacks for loading, results and errors
func WithObserver(observer Observer) Option {
	return func(c *Controller) {
		if observer != nil {
			c.observer = observer
		}
	}
}

// New creates a controller over catalog. It does nothing until Start is called.
func New(catalog tmdb.Catalog, logger zerolog.Logger, opts ...Option) *Controller {
	c := &Controller{
		catalog:          catalog,
		logger:           logger,
		observer:         NoOpObserver{},
		year:             time.Now().Year(),
		searchYearFilter: true,
		threshold:        DefaultScrollThreshold,
		page:             1,
		hasMore:          true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// request captures what to fetch at the moment a fetch is issued
type request struct {
	mode  Mode
	query string
	year  int
	page  int
}

// Start begins browsing the configured year
func (c *Controller) Start(ctx context.Context) <-chan Outcome {
	return c.fresh(ctx, ModeBrowsing, "")
}

// SubmitQuery starts a search session. Blank queries are ignored and return nil.
func (c *Controller) SubmitQuery(ctx context.Context, text string) <-chan Outcome {
	query := strings.TrimSpace(text)
	if query == "" {
		return nil
	}
	return c.fresh(ctx, ModeSearching, query)
}

// ClearQuery returns to browsing and reloads page 1
func (c *Controller) ClearQuery(ctx context.Context) <-chan Outcome {
	return c.fresh(ctx, ModeBrowsing, "")
}

// Refresh restarts the current session from page 1
func (c *Controller) Refresh(ctx context.Context) <-chan Outcome {
	c.mu.Lock()
	mode, query := c.mode, c.query
	c.mu.Unlock()
	return c.fresh(ctx, mode, query)
}

// NotifyScrolledNear reports the scrolled fraction of the list. Reaching the
// threshold loads the next page; otherwise it returns nil.
func (c *Controller) NotifyScrolledNear(ctx context.Context, fraction float64) <-chan Outcome {
	if fraction < c.threshold {
		return nil
	}
	return c.LoadMore(ctx)
}

// LoadMore fetches the next page of the current session. It returns nil when
// a fetch is already in flight or no more pages remain.
func (c *Controller) LoadMore(ctx context.Context) <-chan Outcome {
	c.mu.Lock()
	if c.closed || c.loading || c.loadingMore || !c.hasMore {
		c.mu.Unlock()
		return nil
	}
	c.page++
	c.loadingMore = true
	gen := c.generation
	req := c.requestLocked(c.page)
	c.mu.Unlock()

	c.logger.Debug().
		Str("mode", req.mode.String()).
		Str("query", req.query).
		Int("page", req.page).
		Msg("Loading more")

	c.deliver(gen, func(o Observer) { o.OnLoading(FetchMore) })
	return c.run(ctx, gen, FetchMore, req)
}

// Results returns a copy of the accumulated results
func (c *Controller) Results() []tmdb.Movie {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// State returns a snapshot of the pagination state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Mode:        c.mode,
		Query:       c.query,
		Year:        c.year,
		Page:        c.page,
		HasMore:     c.hasMore,
		Loading:     c.loading,
		LoadingMore: c.loadingMore,
		Generation:  c.generation,
		Count:       len(c.results),
	}
}

// Close invalidates in-flight fetches and refuses new ones
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.generation++
	c.loading = false
	c.loadingMore = false
}

func (c *Controller) fresh(ctx context.Context, mode Mode, query string) <-chan Outcome {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.generation++
	gen := c.generation
	c.mode = mode
	c.query = query
	c.page = 1
	c.hasMore = true
	c.results = nil
	c.loading = true
	c.loadingMore = false
	req := c.requestLocked(1)
	c.mu.Unlock()

	c.logger.Debug().
		Str("mode", mode.String()).
		Str("query", query).
		Uint64("generation", gen).
		Msg("Starting session")

	c.deliver(gen, func(o Observer) { o.OnLoading(FetchFresh) })
	return c.run(ctx, gen, FetchFresh, req)
}

func (c *Controller) requestLocked(page int) request {
	return request{mode: c.mode, query: c.query, year: c.year, page: page}
}

func (c *Controller) run(ctx context.Context, gen uint64, kind FetchKind, req request) <-chan Outcome {
	out := make(chan Outcome, 1)
	go func() {
		defer close(out)
		page, err := c.fetch(ctx, req)
		outcome := c.apply(gen, kind, req, page, err)
		c.notify(outcome)
		out <- outcome
	}()
	return out
}

func (c *Controller) fetch(ctx context.Context, req request) (*tmdb.Page, error) {
	switch req.mode {
	case ModeSearching:
		params := tmdb.SearchParams{Query: req.query, Page: req.page}
		if c.searchYearFilter {
			params.Year = req.year
		}
		return c.catalog.SearchMovies(ctx, params)
	default:
		return c.catalog.DiscoverByYear(ctx, tmdb.DiscoverParams{Year: req.year, Page: req.page})
	}
}

// apply folds a completed fetch into the state when its generation is current
func (c *Controller) apply(gen uint64, kind FetchKind, req request, page *tmdb.Page, err error) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	outcome := Outcome{Kind: kind, Generation: gen, Page: req.page}

	if gen != c.generation {
		c.logger.Debug().
			Uint64("generation", gen).
			Uint64("current", c.generation).
			Str("kind", kind.String()).
			Msg("Dropping stale completion")
		outcome.Stale = true
		outcome.Err = err
		return outcome
	}

	if kind == FetchFresh {
		c.applyFreshLocked(page, err, &outcome)
	} else {
		c.applyMoreLocked(req, page, err, &outcome)
	}

	outcome.Results = c.snapshotLocked()
	outcome.HasMore = c.hasMore
	return outcome
}

func (c *Controller) applyFreshLocked(page *tmdb.Page, err error, outcome *Outcome) {
	c.loading = false

	if err != nil {
		// Nothing to paginate from until the session is restarted.
		c.hasMore = false
		outcome.Err = err
		return
	}

	c.results = append([]tmdb.Movie(nil), page.Results...)
	c.hasMore = page.HasMorePages()
	outcome.Appended = len(page.Results)
}

func (c *Controller) applyMoreLocked(req request, page *tmdb.Page, err error, outcome *Outcome) {
	c.loadingMore = false

	if err != nil {
		c.page--
		outcome.Err = err
		return
	}

	if page.Page != req.page {
		c.logger.Warn().
			Int("requested", req.page).
			Int("returned", page.Page).
			Msg("Stopping pagination on unexpected page")
		c.hasMore = false
		outcome.Err = fmt.Errorf("%w: requested %d, got %d", ErrNonMonotonicPage, req.page, page.Page)
		return
	}

	if page.Page >= page.TotalPages {
		c.hasMore = false
		return
	}

	c.results = append(c.results, page.Results...)
	outcome.Appended = len(page.Results)
}

func (c *Controller) snapshotLocked() []tmdb.Movie {
	out := make([]tmdb.Movie, len(c.results))
	copy(out, c.results)
	return out
}

func (c *Controller) notify(outcome Outcome) {
	if outcome.Stale {
		return
	}

	if outcome.Err != nil {
		c.logger.Error().
			Err(outcome.Err).
			Str("kind", outcome.Kind.String()).
			Int("page", outcome.Page).
			Msg("Fetch failed")
	}

	c.deliver(outcome.Generation, func(o Observer) {
		if outcome.Err != nil {
			o.OnError(outcome.Err)
			return
		}
		o.OnResults(outcome.Results, outcome.HasMore)
	})
}

// deliver runs fn against the observer only while gen is the current generation
func (c *Controller) deliver(gen uint64, fn func(Observer)) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	current := gen == c.generation
	c.mu.Unlock()

	if current {
		fn(c.observer)
	}
}
