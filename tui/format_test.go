package tui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/s0up4200/cinedex/tmdb"
)

func TestFormatReleaseDate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "iso date", in: "2008-07-16", want: "16.07.2008"},
		{name: "empty", in: "", want: "Unknown"},
		{name: "unparseable", in: "sometime in 1999", want: "sometime in 1999"},
		{name: "year only", in: "1999", want: "1999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatReleaseDate(tt.in))
		})
	}
}

func TestFormatScalars(t *testing.T) {
	assert.Equal(t, "8.5 out of 10.0", FormatRating(8.512))
	assert.Equal(t, "0.0 out of 10.0", FormatRating(0))
	assert.Equal(t, "Yes", FormatAdult(true))
	assert.Equal(t, "No", FormatAdult(false))
	assert.Equal(t, "No description available", FormatOverview("  "))
	assert.Equal(t, "A heist.", FormatOverview("A heist."))
}

func TestAbout(t *testing.T) {
	text := About("")
	assert.True(t, strings.HasPrefix(text, "Movie Explorer\nVersion 1.0"))
	assert.Contains(t, text, "Data provided by The Movie Database (TMDB)")
	assert.Contains(t, About("2.3.0"), "Version 2.3.0")
}

func TestDetailFields(t *testing.T) {
	movie := tmdb.Movie{
		ID:               155,
		Title:            "The Dark Knight",
		OriginalTitle:    "The Dark Knight",
		ReleaseDate:      "2008-07-16",
		VoteAverage:      8.5,
		VoteCount:        30000,
		OriginalLanguage: "en",
		GenreIDs:         []int{28, 80},
	}

	fields := DetailFields(movie)
	values := make(map[string]string, len(fields))
	for _, f := range fields {
		values[f.Label] = f.Value
	}

	assert.Equal(t, "16.07.2008", values["Release Date"])
	assert.Equal(t, "8.5 out of 10.0", values["Rating"])
	assert.Equal(t, "30000", values["Votes"])
	assert.Equal(t, "EN", values["Language"])
	assert.Equal(t, "No", values["Adult"])
	assert.Equal(t, "Action, Crime", values["Genres"])

	movie.GenreIDs = nil
	for _, f := range DetailFields(movie) {
		assert.NotEqual(t, "Genres", f.Label)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Amél…", truncate("Amélie Poulain", 5))
	assert.Equal(t, "…", truncate("abc", 1))
	assert.Equal(t, "abc", truncate("abc", 0))
}
