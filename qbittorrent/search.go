package qbittorrent

import (
	"context"
	"slices"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/s0up4200/cinedex/tmdb"
)

const (
	minTitleMatchThreshold   = 0.6
	defaultMaxTorrentMatches = 5
)

// FindTorrents returns the torrents most likely to contain movie, best first.
// Names are compared against both the title and the original title.
func (c *Client) FindTorrents(ctx context.Context, movie tmdb.Movie) ([]*TorrentMatch, error) {
	titles := candidateTitles(movie)
	if len(titles) == 0 {
		return nil, ErrNoTitle
	}
	year, _ := strconv.Atoi(movie.ReleaseYear())

	torrents, err := c.GetAllTorrents(ctx)
	if err != nil {
		return nil, err
	}

	matches := rankTorrents(torrents, titles, year)
	if len(matches) > c.maxMatches {
		matches = matches[:c.maxMatches]
	}

	c.logger.Debug().
		Str("movie", movie.String()).
		Int("titles", len(titles)).
		Int("torrents", len(torrents)).
		Int("candidates", len(matches)).
		Msg("Searched torrents")

	return matches, nil
}

// candidateTitles tokenizes the distinct titles a release may be named after
func candidateTitles(movie tmdb.Movie) [][]string {
	var titles [][]string
	for _, title := range []string{movie.Title, movie.OriginalTitle} {
		tokens := tokenizeTitle(title)
		if len(tokens) == 0 {
			continue
		}
		if slices.ContainsFunc(titles, func(t []string) bool { return slices.Equal(t, tokens) }) {
			continue
		}
		titles = append(titles, tokens)
	}
	return titles
}

// rankTorrents keeps each torrent's best match over titles, highest score first
func rankTorrents(torrents []*TorrentInfo, titles [][]string, year int) []*TorrentMatch {
	matches := make([]*TorrentMatch, 0, len(torrents))
	for _, torrent := range torrents {
		if torrent == nil || torrent.Name == "" {
			continue
		}

		var best *TorrentMatch
		for _, tokens := range titles {
			match := evaluateTorrentMatch(torrent, tokens, year)
			if match != nil && (best == nil || match.Score > best.Score) {
				best = match
			}
		}
		if best != nil {
			matches = append(matches, best)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].Torrent.Name < matches[j].Torrent.Name
		}
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// evaluateTorrentMatch returns a TorrentMatch when the torrent is similar enough to the desired movie.
func evaluateTorrentMatch(torrent *TorrentInfo, desiredTokens []string, targetYear int) *TorrentMatch {
	if len(desiredTokens) == 0 {
		return nil
	}

	tokens := tokenizeTitle(torrent.Name)
	if len(tokens) == 0 {
		return nil
	}

	titleMatch := computeTokenMatch(desiredTokens, tokens)
	if titleMatch < minTitleMatchThreshold {
		return nil
	}

	score := titleMatch
	hasTargetYear := false

	if targetYear > 0 {
		for _, yr := range extractYearTokens(tokens) {
			if yr != targetYear && !titleContainsYear(desiredTokens, yr) {
				// Another distinct year in the torrent name usually implies a different movie.
				return nil
			}
			if yr == targetYear {
				hasTargetYear = true
			}
		}
		if hasTargetYear {
			score += 0.07
		} else {
			score -= 0.15
		}
	}

	if torrent.IsSeeding {
		score += 0.05
	}

	if torrent.IsComplete() {
		score += 0.05
	} else if torrent.Progress < 0.9 {
		score -= 0.15
	}

	score = min(max(score, 0), 1)

	return &TorrentMatch{
		Torrent:     torrent,
		Score:       score,
		TitleMatch:  titleMatch,
		YearMatched: hasTargetYear,
	}
}

// titleContainsYear reports whether year is itself part of the title, as in "Blade Runner 2049"
func titleContainsYear(tokens []string, year int) bool {
	return slices.Contains(tokens, strconv.Itoa(year))
}

// tokenizeTitle splits a title or torrent name into normalized tokens for comparison.
func tokenizeTitle(input string) []string {
	clean := normalizeTitle(input)
	if clean == "" {
		return nil
	}
	return strings.Fields(clean)
}

// normalizeTitle converts a title into a lowercase string with only alphanumeric tokens separated by spaces.
func normalizeTitle(input string) string {
	var b strings.Builder
	lastSpace := true

	for _, r := range strings.ToLower(input) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}

	return strings.TrimSpace(b.String())
}

func extractYearTokens(tokens []string) []int {
	var years []int
	for _, token := range tokens {
		if len(token) != 4 {
			continue
		}
		year, err := strconv.Atoi(token)
		if err != nil {
			continue
		}
		if year >= 1900 && year <= 2100 {
			years = append(years, year)
		}
	}
	return years
}

// computeTokenMatch returns intersection proportion of desired tokens in candidate tokens.
func computeTokenMatch(desired, candidate []string) float64 {
	if len(desired) == 0 || len(candidate) == 0 {
		return 0
	}

	candidateSet := make(map[string]struct{}, len(candidate))
	for _, token := range candidate {
		candidateSet[token] = struct{}{}
	}

	var matches int
	for _, token := range desired {
		if _, ok := candidateSet[token]; ok {
			matches++
		}
	}

	return float64(matches) / float64(len(desired))
}
