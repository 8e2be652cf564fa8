package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/s0up4200/cinedex/browse"
	"github.com/s0up4200/cinedex/tmdb"
)

// View renders the current screen
func (m Model) View() string {
	switch m.screen {
	case screenDetail:
		return m.detailView()
	case screenFavorites:
		return m.favoritesView()
	case screenAbout:
		return m.aboutView()
	default:
		return m.listView()
	}
}

func (m Model) listView() string {
	var b strings.Builder

	st := m.controller.State()
	b.WriteString(titleStyle.Render(m.heading(st)))
	b.WriteString("\n")
	b.WriteString(inputStyle.Render(m.input.View()))
	b.WriteString("\n\n")

	switch {
	case m.loading && len(m.results) == 0:
		b.WriteString(m.spinner.View() + " Loading...\n")
	case len(m.results) == 0 && m.err == "":
		b.WriteString(dimStyle.Render("No movies found") + "\n")
	default:
		start, end := m.window(len(m.results), m.cursor)
		for i := start; i < end; i++ {
			b.WriteString(m.row(m.results[i], i == m.cursor))
			b.WriteString("\n")
		}
	}

	if m.loadingMore {
		b.WriteString(m.spinner.View() + " Loading more...\n")
	}

	b.WriteString("\n")
	b.WriteString(m.footer("/ search • enter details • f favorite • v favorites • r refresh • a about • q quit"))
	return b.String()
}

func (m Model) heading(st browse.State) string {
	if st.Mode == browse.ModeSearching {
		return fmt.Sprintf("Search: %q", st.Query)
	}
	return fmt.Sprintf("Top rated movies of %d", st.Year)
}

func (m Model) row(movie tmdb.Movie, selected bool) string {
	marker := "  "
	if m.favoriteIDs[movie.ID] {
		marker = favoriteStyle.Render("★ ")
	}

	year := movie.ReleaseYear()
	if year == "" {
		year = "----"
	}
	title := truncate(movie.Title, max(10, m.width-24))
	line := fmt.Sprintf("%s  %s  %.1f", title, year, movie.VoteAverage)

	if selected {
		return "> " + marker + selectedStyle.Render(line)
	}
	return "  " + marker + line
}

// window returns the visible slice bounds keeping cursor on screen
func (m Model) window(total, cursor int) (int, int) {
	visible := max(5, m.height-10)
	if total <= visible {
		return 0, total
	}
	start := max(0, cursor-visible/2)
	end := start + visible
	if end > total {
		end = total
		start = end - visible
	}
	return start, end
}

func (m Model) detailView() string {
	movie := m.selected
	var b strings.Builder

	title := movie.Title
	if m.favoriteIDs[movie.ID] {
		title += favoriteStyle.Render(" ★")
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")

	b.WriteString(labelStyle.Render("Poster"))
	b.WriteString(m.posterStatus())
	b.WriteString("\n")

	for _, f := range DetailFields(movie) {
		b.WriteString(labelStyle.Render(f.Label))
		b.WriteString(f.Value)
		b.WriteString("\n")
	}

	width := max(20, m.width-8)
	b.WriteString("\n")
	b.WriteString(panelStyle.Width(width).Render(FormatOverview(movie.Overview)))
	b.WriteString("\n\n")

	b.WriteString(m.footer("f toggle favorite • esc back • q quit"))
	return b.String()
}

func (m Model) posterStatus() string {
	switch {
	case m.poster.url == "":
		return dimStyle.Render("none")
	case m.poster.loading:
		return m.spinner.View() + " loading"
	case m.poster.ok:
		return fmt.Sprintf("%dx%d %s", m.poster.width, m.poster.height, dimStyle.Render(m.poster.url))
	default:
		return dimStyle.Render("unavailable")
	}
}

func (m Model) favoritesView() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Favorites (%d)", len(m.favorites))))
	b.WriteString("\n")

	if len(m.favorites) == 0 {
		b.WriteString(dimStyle.Render("No favorites yet. Press f on a movie to add it."))
		b.WriteString("\n")
	} else {
		start, end := m.window(len(m.favorites), m.favCursor)
		for i := start; i < end; i++ {
			b.WriteString(m.row(m.favorites[i], i == m.favCursor))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.footer("enter details • d remove • esc back • q quit"))
	return b.String()
}

func (m Model) aboutView() string {
	body := panelStyle.Render(About(m.version))
	return lipgloss.JoinVertical(lipgloss.Left, body, "", m.footer("any key to return"))
}

func (m Model) footer(help string) string {
	var lines []string
	if m.err != "" {
		lines = append(lines, errorStyle.Render(m.err))
	} else if m.status != "" {
		lines = append(lines, headerStyle.Render(m.status))
	}
	lines = append(lines, dimStyle.Render(help))
	return strings.Join(lines, "\n")
}
