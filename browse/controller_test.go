package browse

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/cinedex/tmdb"
)

// call records one catalog request
type call struct {
	search bool
	query  string
	year   int
	page   int
}

// fakeCatalog answers requests through respond and records every call
type fakeCatalog struct {
	mu      sync.Mutex
	calls   []call
	respond func(call) (*tmdb.Page, error)
}

func (f *fakeCatalog) record(c call) (*tmdb.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	respond := f.respond
	f.mu.Unlock()
	return respond(c)
}

func (f *fakeCatalog) SearchMovies(_ context.Context, p tmdb.SearchParams) (*tmdb.Page, error) {
	return f.record(call{search: true, query: p.Query, year: p.Year, page: p.Page})
}

func (f *fakeCatalog) DiscoverByYear(_ context.Context, p tmdb.DiscoverParams) (*tmdb.Page, error) {
	return f.record(call{year: p.Year, page: p.Page})
}

func (f *fakeCatalog) Trending(context.Context, tmdb.TrendingWindow, int) (*tmdb.Page, error) {
	return nil, errors.New("not used")
}

func (f *fakeCatalog) GetMovie(context.Context, int) (*tmdb.Movie, error) {
	return nil, errors.New("not used")
}

func (f *fakeCatalog) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func (f *fakeCatalog) lastCall() call {
	calls := f.Calls()
	return calls[len(calls)-1]
}

// makePage builds page number of total with n results whose IDs start at base
func makePage(number, total, n, base int) *tmdb.Page {
	results := make([]tmdb.Movie, 0, n)
	for i := range n {
		id := base + i
		results = append(results, tmdb.Movie{ID: id, Title: fmt.Sprintf("Movie %d", id)})
	}
	return &tmdb.Page{Results: results, Page: number, TotalPages: total, TotalResults: total * n}
}

// pagedCatalog serves total pages of 20 results for any request
func pagedCatalog(total int) *fakeCatalog {
	return &fakeCatalog{respond: func(c call) (*tmdb.Page, error) {
		base := c.page * 100
		if c.search {
			base += 10000
		}
		return makePage(c.page, total, 20, base), nil
	}}
}

func await(t *testing.T, ch <-chan Outcome) Outcome {
	t.Helper()
	require.NotNil(t, ch, "expected a fetch to be started")
	select {
	case outcome, ok := <-ch:
		require.True(t, ok, "outcome channel closed without a value")
		return outcome
	case <-time.After(5 * time.Second):
		t.Fatal("fetch did not complete")
		return Outcome{}
	}
}

func ids(movies []tmdb.Movie) []int {
	out := make([]int, 0, len(movies))
	for _, m := range movies {
		out = append(out, m.ID)
	}
	return out
}

func newController(catalog tmdb.Catalog, opts ...Option) *Controller {
	return New(catalog, zerolog.Nop(), append([]Option{WithYear(2024)}, opts...)...)
}

func TestFreshFetchReplacesResults(t *testing.T) {
	catalog := pagedCatalog(5)
	c := newController(catalog)
	ctx := context.Background()

	await(t, c.Start(ctx))
	await(t, c.LoadMore(ctx))
	require.Len(t, c.Results(), 40)

	outcome := await(t, c.SubmitQuery(ctx, "alien"))
	require.NoError(t, outcome.Err)

	expected := makePage(1, 5, 20, 10100)
	assert.Equal(t, ids(expected.Results), ids(c.Results()))
	assert.Equal(t, ids(expected.Results), ids(outcome.Results))

	state := c.State()
	assert.Equal(t, ModeSearching, state.Mode)
	assert.Equal(t, "alien", state.Query)
	assert.Equal(t, 1, state.Page)
	assert.True(t, state.HasMore)
	assert.False(t, state.Loading)
}

func TestLoadMoreAppendsInServerOrder(t *testing.T) {
	c := newController(pagedCatalog(4))
	ctx := context.Background()

	await(t, c.Start(ctx))
	before := c.Results()

	outcome := await(t, c.LoadMore(ctx))
	require.NoError(t, outcome.Err)
	assert.Equal(t, 20, outcome.Appended)

	expected := append(ids(before), ids(makePage(2, 4, 20, 200).Results)...)
	assert.Equal(t, expected, ids(c.Results()))
	assert.Equal(t, 2, c.State().Page)
	assert.True(t, c.State().HasMore)
}

func TestFinalPageStopsPagination(t *testing.T) {
	t.Run("load-more reaching total pages", func(t *testing.T) {
		c := newController(pagedCatalog(2))
		ctx := context.Background()

		await(t, c.Start(ctx))
		before := c.Results()

		outcome := await(t, c.LoadMore(ctx))
		require.NoError(t, outcome.Err)
		assert.False(t, outcome.HasMore)
		assert.Zero(t, outcome.Appended)
		assert.Equal(t, ids(before), ids(c.Results()))
		assert.Nil(t, c.LoadMore(ctx), "no fetch once pages are exhausted")
	})

	t.Run("single page fresh fetch", func(t *testing.T) {
		c := newController(pagedCatalog(1))
		outcome := await(t, c.Start(context.Background()))

		require.NoError(t, outcome.Err)
		assert.Len(t, outcome.Results, 20)
		assert.False(t, c.State().HasMore)
		assert.Nil(t, c.NotifyScrolledNear(context.Background(), 1))
	})

	t.Run("empty search", func(t *testing.T) {
		catalog := &fakeCatalog{respond: func(call) (*tmdb.Page, error) {
			return &tmdb.Page{Page: 1, TotalPages: 0}, nil
		}}
		c := newController(catalog)
		outcome := await(t, c.SubmitQuery(context.Background(), "zzzzzz"))

		require.NoError(t, outcome.Err)
		assert.Empty(t, c.Results())
		assert.False(t, c.State().HasMore)
	})
}

func TestFailedLoadMoreRollsBack(t *testing.T) {
	catalog := pagedCatalog(5)
	c := newController(catalog)
	ctx := context.Background()

	await(t, c.Start(ctx))
	await(t, c.LoadMore(ctx))

	beforeResults := c.Results()
	beforePage := c.State().Page

	boom := &tmdb.APIError{StatusCode: 500}
	catalog.mu.Lock()
	catalog.respond = func(call) (*tmdb.Page, error) { return nil, boom }
	catalog.mu.Unlock()

	outcome := await(t, c.LoadMore(ctx))
	require.Error(t, outcome.Err)
	assert.ErrorAs(t, outcome.Err, new(*tmdb.APIError))
	assert.Equal(t, beforePage, c.State().Page)
	assert.Equal(t, ids(beforeResults), ids(c.Results()))
	assert.Equal(t, 3, catalog.lastCall().page)

	// retry asks for the same page again
	catalog.mu.Lock()
	catalog.respond = pagedCatalog(5).respond
	catalog.mu.Unlock()

	outcome = await(t, c.LoadMore(ctx))
	require.NoError(t, outcome.Err)
	assert.Equal(t, 3, catalog.lastCall().page)
	assert.Len(t, c.Results(), 60)
}

func TestFailedFreshFetch(t *testing.T) {
	observer := &recordingObserver{}
	catalog := &fakeCatalog{respond: func(call) (*tmdb.Page, error) {
		return nil, fmt.Errorf("%w: connection refused", tmdb.ErrTransport)
	}}
	c := newController(catalog, WithObserver(observer))

	outcome := await(t, c.Start(context.Background()))
	require.ErrorIs(t, outcome.Err, tmdb.ErrTransport)
	assert.Empty(t, c.Results())
	assert.False(t, c.State().Loading)
	assert.Nil(t, c.LoadMore(context.Background()))

	loading, results, errs := observer.counts()
	assert.Equal(t, 1, loading)
	assert.Zero(t, results)
	assert.Equal(t, 1, errs)

	// resubmitting retries from page 1
	catalog.mu.Lock()
	catalog.respond = pagedCatalog(3).respond
	catalog.mu.Unlock()
	outcome = await(t, c.Refresh(context.Background()))
	require.NoError(t, outcome.Err)
	assert.Len(t, c.Results(), 20)
}

func TestNonMonotonicPageIsTerminal(t *testing.T) {
	catalog := &fakeCatalog{respond: func(c call) (*tmdb.Page, error) {
		// always answers with page 1
		return makePage(1, 10, 20, 100), nil
	}}
	c := newController(catalog)
	ctx := context.Background()

	await(t, c.Start(ctx))
	before := c.Results()

	outcome := await(t, c.LoadMore(ctx))
	assert.ErrorIs(t, outcome.Err, ErrNonMonotonicPage)
	assert.False(t, c.State().HasMore)
	assert.Equal(t, ids(before), ids(c.Results()))
	assert.Nil(t, c.LoadMore(ctx))
}

func TestLoadMoreGuards(t *testing.T) {
	release := make(chan struct{})
	catalog := &fakeCatalog{respond: func(c call) (*tmdb.Page, error) {
		if c.page > 1 {
			<-release
		}
		return makePage(c.page, 5, 20, c.page*100), nil
	}}
	c := newController(catalog)
	ctx := context.Background()

	await(t, c.Start(ctx))

	inflight := c.LoadMore(ctx)
	require.NotNil(t, inflight)
	assert.True(t, c.State().LoadingMore)
	assert.Nil(t, c.LoadMore(ctx), "second load-more while one is in flight")
	assert.Nil(t, c.NotifyScrolledNear(ctx, 0.95))

	close(release)
	await(t, inflight)

	assert.Len(t, catalog.Calls(), 2)
	assert.Len(t, c.Results(), 40)
}

func TestLoadMoreRefusedDuringFreshFetch(t *testing.T) {
	release := make(chan struct{})
	catalog := &fakeCatalog{respond: func(c call) (*tmdb.Page, error) {
		<-release
		return makePage(c.page, 5, 20, 100), nil
	}}
	c := newController(catalog)
	ctx := context.Background()

	pending := c.Start(ctx)
	assert.True(t, c.State().Loading)
	assert.Nil(t, c.LoadMore(ctx))

	close(release)
	await(t, pending)
}

func TestBlankQueryIsIgnored(t *testing.T) {
	catalog := pagedCatalog(3)
	c := newController(catalog)
	ctx := context.Background()
	await(t, c.Start(ctx))

	for _, q := range []string{"", "   ", "\t\n"} {
		assert.Nil(t, c.SubmitQuery(ctx, q))
	}

	assert.Len(t, catalog.Calls(), 1)
	assert.Equal(t, ModeBrowsing, c.State().Mode)
}

func TestQueryIsTrimmed(t *testing.T) {
	catalog := pagedCatalog(3)
	c := newController(catalog)

	await(t, c.SubmitQuery(context.Background(), "  the matrix  "))
	assert.Equal(t, "the matrix", catalog.lastCall().query)
	assert.Equal(t, "the matrix", c.State().Query)
}

func TestSearchYearFilter(t *testing.T) {
	tests := []struct {
		name     string
		enabled  bool
		wantYear int
	}{
		{name: "enabled", enabled: true, wantYear: 2024},
		{name: "disabled", enabled: false, wantYear: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := pagedCatalog(2)
			c := newController(catalog, WithSearchYearFilter(tt.enabled))

			await(t, c.SubmitQuery(context.Background(), "dune"))
			got := catalog.lastCall()
			assert.True(t, got.search)
			assert.Equal(t, tt.wantYear, got.year)
		})
	}
}

func TestScrollThreshold(t *testing.T) {
	catalog := pagedCatalog(5)
	c := newController(catalog)
	ctx := context.Background()
	await(t, c.Start(ctx))

	assert.Nil(t, c.NotifyScrolledNear(ctx, 0.5))
	assert.Nil(t, c.NotifyScrolledNear(ctx, 0.79))
	await(t, c.NotifyScrolledNear(ctx, 0.8))
	assert.Equal(t, 2, catalog.lastCall().page)

	custom := newController(pagedCatalog(5), WithScrollThreshold(0.5))
	await(t, custom.Start(ctx))
	await(t, custom.NotifyScrolledNear(ctx, 0.5))
}

func TestBatmanScenario(t *testing.T) {
	catalog := pagedCatalog(3)
	c := newController(catalog)
	ctx := context.Background()

	outcome := await(t, c.SubmitQuery(ctx, "batman"))
	require.NoError(t, outcome.Err)
	assert.Equal(t, call{search: true, query: "batman", year: 2024, page: 1}, catalog.lastCall())
	assert.Len(t, c.Results(), 20)
	assert.True(t, c.State().HasMore)

	outcome = await(t, c.NotifyScrolledNear(ctx, 0.9))
	require.NoError(t, outcome.Err)
	assert.Equal(t, 2, catalog.lastCall().page)
	assert.Len(t, c.Results(), 40)

	outcome = await(t, c.ClearQuery(ctx))
	require.NoError(t, outcome.Err)
	assert.Equal(t, call{year: 2024, page: 1}, catalog.lastCall())
	assert.Equal(t, ids(makePage(1, 3, 20, 100).Results), ids(c.Results()))

	state := c.State()
	assert.Equal(t, ModeBrowsing, state.Mode)
	assert.Equal(t, 1, state.Page)
	assert.Empty(t, state.Query)
}

func TestStaleFreshCompletionIsDropped(t *testing.T) {
	releaseBrowse := make(chan struct{})
	catalog := &fakeCatalog{respond: func(c call) (*tmdb.Page, error) {
		if !c.search {
			<-releaseBrowse
			return makePage(1, 9, 20, 100), nil
		}
		return makePage(c.page, 3, 5, 5000), nil
	}}
	c := newController(catalog)
	ctx := context.Background()

	slow := c.Start(ctx)
	fast := await(t, c.SubmitQuery(ctx, "heat"))
	require.NoError(t, fast.Err)

	close(releaseBrowse)
	late := await(t, slow)

	assert.True(t, late.Stale)
	assert.Nil(t, late.Results)
	assert.Equal(t, ids(fast.Results), ids(c.Results()))
	assert.Equal(t, ModeSearching, c.State().Mode)
}

func TestStaleLoadMoreIsDropped(t *testing.T) {
	releaseMore := make(chan struct{})
	catalog := &fakeCatalog{respond: func(c call) (*tmdb.Page, error) {
		if c.page == 2 && !c.search {
			<-releaseMore
		}
		base := 100
		if c.search {
			base = 9000
		}
		return makePage(c.page, 5, 20, base+c.page*20), nil
	}}
	c := newController(catalog)
	ctx := context.Background()

	await(t, c.Start(ctx))
	pendingMore := c.LoadMore(ctx)
	require.NotNil(t, pendingMore)

	search := await(t, c.SubmitQuery(ctx, "ronin"))
	require.NoError(t, search.Err)

	close(releaseMore)
	late := await(t, pendingMore)
	assert.True(t, late.Stale)

	state := c.State()
	assert.Equal(t, 1, state.Page)
	assert.False(t, state.LoadingMore)
	assert.Equal(t, ids(search.Results), ids(c.Results()))

	// the new session can paginate normally
	outcome := await(t, c.LoadMore(ctx))
	require.NoError(t, outcome.Err)
	assert.Len(t, c.Results(), 40)
}

func TestCloseInvalidatesInFlightFetches(t *testing.T) {
	release := make(chan struct{})
	observer := &recordingObserver{}
	catalog := &fakeCatalog{respond: func(c call) (*tmdb.Page, error) {
		<-release
		return makePage(1, 3, 20, 100), nil
	}}
	c := newController(catalog, WithObserver(observer))
	ctx := context.Background()

	pending := c.Start(ctx)
	c.Close()
	close(release)

	outcome := await(t, pending)
	assert.True(t, outcome.Stale)
	assert.Empty(t, c.Results())
	assert.Nil(t, c.SubmitQuery(ctx, "anything"))
	assert.Nil(t, c.LoadMore(ctx))

	_, results, errs := observer.counts()
	assert.Zero(t, results)
	assert.Zero(t, errs)
}

func TestObserverReceivesResults(t *testing.T) {
	observer := &recordingObserver{}
	c := newController(pagedCatalog(3), WithObserver(observer))
	ctx := context.Background()

	await(t, c.Start(ctx))
	await(t, c.LoadMore(ctx))

	loading, results, errs := observer.counts()
	assert.Equal(t, 2, loading)
	assert.Equal(t, 2, results)
	assert.Zero(t, errs)
	assert.Len(t, observer.lastResults(), 40)
}

func TestSupersededCompletionIsNotDelivered(t *testing.T) {
	observer := &recordingObserver{}
	c := newController(pagedCatalog(3), WithObserver(observer))
	ctx := context.Background()

	first := await(t, c.Start(ctx))
	require.False(t, first.Stale)
	await(t, c.SubmitQuery(ctx, "heat"))

	loading, results, _ := observer.counts()
	require.Equal(t, 2, loading)
	require.Equal(t, 2, results)

	// the first session's results arriving after the search started
	c.notify(first)
	c.notify(Outcome{Kind: FetchMore, Generation: first.Generation, Err: errors.New("late")})

	loading, results, errs := observer.counts()
	assert.Equal(t, 2, loading)
	assert.Equal(t, 2, results)
	assert.Zero(t, errs)
	assert.Equal(t, "heat", c.State().Query)
}

func TestObserverMayReadStateFromCallback(t *testing.T) {
	observer := &stateReadingObserver{}
	c := newController(pagedCatalog(3), WithObserver(observer))
	observer.c = c

	await(t, c.Start(context.Background()))

	observer.mu.Lock()
	defer observer.mu.Unlock()
	assert.Equal(t, []int{0, 20}, observer.counts)
}

// stateReadingObserver records the result count seen from each callback
type stateReadingObserver struct {
	NoOpObserver
	c      *Controller
	mu     sync.Mutex
	counts []int
}

func (o *stateReadingObserver) record() {
	n := len(o.c.Results())
	o.mu.Lock()
	defer o.mu.Unlock()
	o.counts = append(o.counts, n)
}

func (o *stateReadingObserver) OnLoading(FetchKind)          { o.record() }
func (o *stateReadingObserver) OnResults([]tmdb.Movie, bool) { o.record() }

func TestModeString(t *testing.T) {
	assert.Equal(t, "browsing", ModeBrowsing.String())
	assert.Equal(t, "searching", ModeSearching.String())
	assert.Equal(t, "mode(7)", Mode(7).String())
	assert.Equal(t, "load-more", FetchMore.String())
	assert.Equal(t, "fresh", FetchFresh.String())
}

// recordingObserver counts callbacks
type recordingObserver struct {
	mu      sync.Mutex
	loading int
	results int
	errs    int
	last    []tmdb.Movie
}

func (o *recordingObserver) OnLoading(FetchKind) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.loading++
}

func (o *recordingObserver) OnResults(results []tmdb.Movie, _ bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results++
	o.last = results
}

func (o *recordingObserver) OnError(error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errs++
}

func (o *recordingObserver) counts() (int, int, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.loading, o.results, o.errs
}

func (o *recordingObserver) lastResults() []tmdb.Movie {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}
