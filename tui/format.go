package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/s0up4200/cinedex/tmdb"
)

// AboutText is shown on the about screen
const AboutText = `Movie Explorer
Version %s

Discover trending movies and build your personal favorites collection.

Data provided by The Movie Database (TMDB)`

// About renders the about text for version
func About(version string) string {
	if version == "" {
		version = "1.0"
	}
	return fmt.Sprintf(AboutText, version)
}

// FormatReleaseDate renders YYYY-MM-DD as DD.MM.YYYY. Other non-empty values
// are returned as is.
func FormatReleaseDate(date string) string {
	if date == "" {
		return "Unknown"
	}
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Format("02.01.2006")
}

// FormatRating renders a vote average out of ten
func FormatRating(vote float64) string {
	return fmt.Sprintf("%.1f out of 10.0", vote)
}

// FormatAdult renders the adult flag
func FormatAdult(adult bool) string {
	if adult {
		return "Yes"
	}
	return "No"
}

// FormatOverview substitutes a placeholder for a blank overview
func FormatOverview(overview string) string {
	if strings.TrimSpace(overview) == "" {
		return "No description available"
	}
	return overview
}

// Field is one labelled line of the detail view
type Field struct {
	Label string
	Value string
}

// DetailFields lists the detail view lines for movie
func DetailFields(movie tmdb.Movie) []Field {
	fields := []Field{
		{Label: "Release Date", Value: FormatReleaseDate(movie.ReleaseDate)},
		{Label: "Rating", Value: FormatRating(movie.VoteAverage)},
		{Label: "Votes", Value: fmt.Sprintf("%d", movie.VoteCount)},
		{Label: "Original Title", Value: movie.OriginalTitle},
		{Label: "Language", Value: strings.ToUpper(movie.OriginalLanguage)},
		{Label: "Adult", Value: FormatAdult(movie.Adult)},
	}
	if genres := movie.GenreNames(); len(genres) > 0 {
		fields = append(fields, Field{Label: "Genres", Value: strings.Join(genres, ", ")})
	}
	return fields
}

// truncate shortens s to at most width runes, marking the cut with an ellipsis
func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}
