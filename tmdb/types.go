package tmdb

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultImageBaseURL is the TMDB image CDN root used for posters and backdrops
	DefaultImageBaseURL = "https://image.tmdb.org/t/p"

	posterSize   = "w500"
	backdropSize = "w1280"
)

// Movie is a single catalog record as returned by list endpoints.
// Two movies are the same favorite when their IDs match.
type Movie struct {
	ID               int     `json:"id" validate:"required,gt=0"`
	Title            string  `json:"title" validate:"required"`
	OriginalTitle    string  `json:"original_title"`
	Overview         string  `json:"overview"`
	ReleaseDate      string  `json:"release_date"`
	PosterPath       *string `json:"poster_path"`
	BackdropPath     *string `json:"backdrop_path"`
	VoteAverage      float64 `json:"vote_average" validate:"gte=0,lte=10"`
	VoteCount        int     `json:"vote_count" validate:"gte=0"`
	Popularity       float64 `json:"popularity"`
	OriginalLanguage string  `json:"original_language"`
	Adult            bool    `json:"adult"`
	Video            bool    `json:"video"`
	GenreIDs         []int   `json:"genre_ids"`
}

// ReleaseYear returns the year part of the release date, or "" when unknown
func (m Movie) ReleaseYear() string {
	if len(m.ReleaseDate) < 4 {
		return ""
	}
	return m.ReleaseDate[:4]
}

// Released parses the release date. ok is false for empty or malformed dates.
func (m Movie) Released() (time.Time, bool) {
	t, err := time.Parse("2006-01-02", m.ReleaseDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// PosterURL returns the absolute w500 poster URL or "" when the movie has no poster
func (m Movie) PosterURL() string {
	return m.PosterURLAt(DefaultImageBaseURL)
}

// PosterURLAt is PosterURL against another image host. An empty base falls
// back to DefaultImageBaseURL.
func (m Movie) PosterURLAt(base string) string {
	if base == "" {
		base = DefaultImageBaseURL
	}
	return imageURL(strings.TrimSuffix(base, "/"), posterSize, m.PosterPath)
}

// BackdropURL returns the absolute w1280 backdrop URL or "" when the movie has no backdrop
func (m Movie) BackdropURL() string {
	return imageURL(DefaultImageBaseURL, backdropSize, m.BackdropPath)
}

// String renders the movie as "Title (Year)"
func (m Movie) String() string {
	if year := m.ReleaseYear(); year != "" {
		return fmt.Sprintf("%s (%s)", m.Title, year)
	}
	return m.Title
}

func imageURL(base, size string, path *string) string {
	if path == nil || *path == "" {
		return ""
	}
	return base + "/" + size + *path
}

// Page is the envelope every list endpoint returns
type Page struct {
	Results      []Movie `json:"results"`
	Page         int     `json:"page"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// HasMorePages reports whether a page after this one exists
func (p *Page) HasMorePages() bool {
	return p.Page < p.TotalPages
}

// NextPage returns the next page number
func (p *Page) NextPage() (int, error) {
	if !p.HasMorePages() {
		return 0, fmt.Errorf("no more pages: at page %d of %d", p.Page, p.TotalPages)
	}
	return p.Page + 1, nil
}

// TrendingWindow selects the time window for trending listings
type TrendingWindow string

const (
	// TrendingDay lists movies trending today
	TrendingDay TrendingWindow = "day"
	// TrendingWeek lists movies trending this week
	TrendingWeek TrendingWindow = "week"
)

// Valid reports whether the window is one TMDB accepts
func (w TrendingWindow) Valid() bool {
	return w == TrendingDay || w == TrendingWeek
}

// SearchParams describes a text search request
type SearchParams struct {
	Query string
	// Year filters by release year; 0 disables the filter.
	Year int
	Page int
}

// DiscoverParams describes a year-scoped discovery request
type DiscoverParams struct {
	Year int
	Page int
}

// genre is the detail endpoint's expanded genre shape
type genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// movieDetail is the /movie/{id} payload. It carries genres as objects
// rather than the genre_ids list used by list endpoints.
type movieDetail struct {
	Movie
	Genres []genre `json:"genres"`
}

func (d movieDetail) toMovie() Movie {
	m := d.Movie
	if len(m.GenreIDs) == 0 && len(d.Genres) > 0 {
		m.GenreIDs = make([]int, 0, len(d.Genres))
		for _, g := range d.Genres {
			m.GenreIDs = append(m.GenreIDs, g.ID)
		}
	}
	return m
}
