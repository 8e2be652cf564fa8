package browse

import (
	"github.com/s0up4200/cinedex/tmdb"
)

// Observer receives presentation callbacks. Callbacks are serialized and
// only delivered for the current session: once a new session has started,
// results or errors of the previous one are never reported. They run without
// the state lock held, so State and Results may be called from a callback,
// but starting a fetch from inside one deadlocks.
type Observer interface {
	OnLoading(kind FetchKind)
	OnResults(results []tmdb.Movie, hasMore bool)
	OnError(err error)
}

// NoOpObserver ignores every callback
type NoOpObserver struct{}

func (NoOpObserver) OnLoading(FetchKind)          {}
func (NoOpObserver) OnResults([]tmdb.Movie, bool) {}
func (NoOpObserver) OnError(error)                {}
