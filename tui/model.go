// Package tui is the interactive terminal front end: a paginated movie list
// with search, a detail screen, the favorites list and an about screen.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/s0up4200/cinedex/browse"
	"github.com/s0up4200/cinedex/favorites"
	"github.com/s0up4200/cinedex/imagecache"
	"github.com/s0up4200/cinedex/tmdb"
)

type screen int

const (
	screenList screen = iota
	screenDetail
	screenFavorites
	screenAbout
)

// Messages
type (
	outcomeMsg browse.Outcome
	posterMsg  imagecache.Result

	favoriteMsg struct {
		movie    tmdb.Movie
		favorite bool
		err      error
	}
)

// poster tracks the image of the movie on the detail screen
type poster struct {
	url     string
	loading bool
	ok      bool
	width   int
	height  int
}

// Config carries the components the browser drives
type Config struct {
	Controller *browse.Controller
	Store      *favorites.Store
	// Images is optional; without it posters are not loaded.
	Images       *imagecache.Cache
	ImageBaseURL string
	Logger       zerolog.Logger
	Version      string
}

// Model is the bubbletea model of the browser
type Model struct {
	ctx        context.Context
	controller *browse.Controller
	store      *favorites.Store
	images     *imagecache.Cache
	imageBase  string
	logger     zerolog.Logger
	version    string

	screen   screen
	previous screen
	input    textinput.Model
	spinner  spinner.Model

	results     []tmdb.Movie
	cursor      int
	favorites   []tmdb.Movie
	favCursor   int
	favoriteIDs map[int]bool
	selected    tmdb.Movie
	poster      poster

	loading     bool
	loadingMore bool
	status      string
	err         string

	width  int
	height int
}

// New creates the model. The controller must not have been started.
func New(ctx context.Context, cfg Config) Model {
	ti := textinput.New()
	ti.Placeholder = "Search movies..."
	ti.CharLimit = 100
	ti.Width = 40

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(primaryColor)

	m := Model{
		ctx:        ctx,
		controller: cfg.Controller,
		store:      cfg.Store,
		images:     cfg.Images,
		imageBase:  cfg.ImageBaseURL,
		logger:     cfg.Logger,
		version:    cfg.Version,
		input:      ti,
		spinner:    sp,
		width:      80,
		height:     24,
	}
	m.reloadFavorites()
	return m
}

// Init starts the initial browse fetch
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		waitForOutcome(m.controller.Start(m.ctx)),
	)
}

// Update handles messages and user input
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case outcomeMsg:
		return m.handleOutcome(browse.Outcome(msg)), nil

	case posterMsg:
		if msg.URL == m.poster.url {
			m.poster.loading = false
			m.poster.ok = msg.OK
			if msg.OK {
				b := msg.Image.Bounds()
				m.poster.width, m.poster.height = b.Dx(), b.Dy()
			}
		}
		return m, nil

	case favoriteMsg:
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, nil
		}
		m.reloadFavorites()
		if msg.favorite {
			m.status = fmt.Sprintf("Added %s to favorites", msg.movie.Title)
		} else {
			m.status = fmt.Sprintf("Removed %s from favorites", msg.movie.Title)
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.input.Focused() {
			return m.updateInput(msg)
		}
		switch m.screen {
		case screenDetail:
			return m.updateDetail(msg)
		case screenFavorites:
			return m.updateFavorites(msg)
		case screenAbout:
			return m.updateAbout(msg)
		default:
			return m.updateList(msg)
		}
	}

	return m, nil
}

func (m Model) handleOutcome(outcome browse.Outcome) Model {
	if outcome.Stale {
		return m
	}
	m.syncState()

	if outcome.Err != nil {
		m.logger.Debug().Err(outcome.Err).Str("kind", outcome.Kind.String()).Int("page", outcome.Page).Msg("Fetch failed")
		m.err = errorMessage(outcome.Err)
		if outcome.Kind == browse.FetchFresh {
			m.results = nil
			m.cursor = 0
		}
		return m
	}

	m.err = ""
	m.results = outcome.Results
	if m.cursor >= len(m.results) {
		m.cursor = max(0, len(m.results)-1)
	}
	m.status = fmt.Sprintf("%d movies", len(m.results))
	if !outcome.HasMore && len(m.results) > 0 {
		m.status += " · end of list"
	}
	return m
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.input.Blur()
		if strings.TrimSpace(m.input.Value()) == "" {
			if m.controller.State().Mode == browse.ModeSearching {
				return m.startFresh(m.controller.ClearQuery(m.ctx))
			}
			return m, nil
		}
		return m.startFresh(m.controller.SubmitQuery(m.ctx, m.input.Value()))
	case "esc":
		m.input.Blur()
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	// emptying the field goes back to browsing
	if before != "" && m.input.Value() == "" && m.controller.State().Mode == browse.ModeSearching {
		next, fetch := m.startFresh(m.controller.ClearQuery(m.ctx))
		return next, tea.Batch(cmd, fetch)
	}
	return m, cmd
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "/":
		m.input.Focus()
		return m, textinput.Blink
	case "esc":
		if m.controller.State().Mode == browse.ModeSearching {
			m.input.SetValue("")
			return m.startFresh(m.controller.ClearQuery(m.ctx))
		}
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		return m.moveDown(1)
	case "pgdown":
		return m.moveDown(10)
	case "pgup":
		m.cursor = max(0, m.cursor-10)
	case "enter":
		if len(m.results) > 0 {
			return m.openDetail(m.results[m.cursor], screenList)
		}
	case "f":
		if len(m.results) > 0 {
			return m, toggleFavorite(m.store, m.results[m.cursor])
		}
	case "r":
		return m.startFresh(m.controller.Refresh(m.ctx))
	case "v":
		m.reloadFavorites()
		m.screen = screenFavorites
		m.favCursor = 0
	case "a":
		m.screen = screenAbout
	}
	return m, nil
}

func (m Model) moveDown(n int) (tea.Model, tea.Cmd) {
	if len(m.results) == 0 {
		return m, nil
	}
	m.cursor = min(m.cursor+n, len(m.results)-1)

	fraction := float64(m.cursor+1) / float64(len(m.results))
	ch := m.controller.NotifyScrolledNear(m.ctx, fraction)
	if ch == nil {
		return m, nil
	}
	m.syncState()
	return m, tea.Batch(m.spinner.Tick, waitForOutcome(ch))
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc", "backspace":
		m.screen = m.previous
		if m.screen == screenFavorites {
			m.reloadFavorites()
		}
	case "f":
		return m, toggleFavorite(m.store, m.selected)
	}
	return m, nil
}

func (m Model) updateFavorites(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc", "v":
		m.screen = screenList
	case "up", "k":
		if m.favCursor > 0 {
			m.favCursor--
		}
	case "down", "j":
		if m.favCursor < len(m.favorites)-1 {
			m.favCursor++
		}
	case "enter":
		if len(m.favorites) > 0 {
			return m.openDetail(m.favorites[m.favCursor], screenFavorites)
		}
	case "d", "x", "f":
		if len(m.favorites) > 0 {
			return m, toggleFavorite(m.store, m.favorites[m.favCursor])
		}
	}
	return m, nil
}

func (m Model) updateAbout(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "q" {
		return m, tea.Quit
	}
	m.screen = screenList
	return m, nil
}

func (m Model) openDetail(movie tmdb.Movie, from screen) (tea.Model, tea.Cmd) {
	m.selected = movie
	m.previous = from
	m.screen = screenDetail
	m.poster = poster{url: movie.PosterURLAt(m.imageBase)}

	if m.poster.url == "" || m.images == nil {
		return m, nil
	}
	m.poster.loading = true
	return m, loadPoster(m.ctx, m.images, m.poster.url)
}

func (m Model) startFresh(ch <-chan browse.Outcome) (tea.Model, tea.Cmd) {
	if ch == nil {
		return m, nil
	}
	m.results = nil
	m.cursor = 0
	m.err = ""
	m.syncState()
	return m, tea.Batch(m.spinner.Tick, waitForOutcome(ch))
}

func (m *Model) syncState() {
	st := m.controller.State()
	m.loading = st.Loading
	m.loadingMore = st.LoadingMore
}

func (m *Model) reloadFavorites() {
	if m.store == nil {
		return
	}
	m.favorites = m.store.List()
	m.favoriteIDs = make(map[int]bool, len(m.favorites))
	for _, f := range m.favorites {
		m.favoriteIDs[f.ID] = true
	}
	if m.favCursor >= len(m.favorites) {
		m.favCursor = max(0, len(m.favorites)-1)
	}
}

func waitForOutcome(ch <-chan browse.Outcome) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		return outcomeMsg(<-ch)
	}
}

func loadPoster(ctx context.Context, images *imagecache.Cache, url string) tea.Cmd {
	return func() tea.Msg {
		return posterMsg(<-images.LoadAsync(ctx, url))
	}
}

func toggleFavorite(store *favorites.Store, movie tmdb.Movie) tea.Cmd {
	return func() tea.Msg {
		favorite, err := store.Toggle(movie)
		return favoriteMsg{movie: movie, favorite: favorite, err: err}
	}
}

func errorMessage(err error) string {
	if errors.Is(err, browse.ErrNonMonotonicPage) {
		return "The movie database returned pages out of order. Pagination stopped."
	}
	return tmdb.UserMessage(err)
}
