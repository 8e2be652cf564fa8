package cmd

import (
	"fmt"
	"strings"

	"github.com/s0up4200/cinedex/qbittorrent"
	"github.com/s0up4200/cinedex/tmdb"
	"github.com/s0up4200/cinedex/tui"
)

// listOptions controls formatMovieList output
type listOptions struct {
	Heading   string
	Page      *tmdb.Page
	Favorites map[int]bool
	Details   bool
}

// formatMovieList renders movies as a tree
func formatMovieList(movies []tmdb.Movie, opts listOptions) string {
	if len(movies) == 0 {
		return "No movies found\n"
	}

	var sb strings.Builder

	heading := opts.Heading
	if heading == "" {
		heading = "Movies"
	}
	fmt.Fprintf(&sb, "\n%s (%d)", heading, len(movies))
	if opts.Page != nil {
		fmt.Fprintf(&sb, " · page %d of %d, %d total", opts.Page.Page, opts.Page.TotalPages, opts.Page.TotalResults)
	}
	sb.WriteString(":\n\n")

	for i, movie := range movies {
		isLast := i == len(movies)-1
		prefix := "├"
		if isLast {
			prefix = "╰"
		}

		marker := ""
		if opts.Favorites[movie.ID] {
			marker = " ★"
		}
		fmt.Fprintf(&sb, "%s── %s%s\n", prefix, movie, marker)

		indent := "│   "
		if isLast {
			indent = "    "
		}

		fmt.Fprintf(&sb, "%sID: %d | Rating: %.1f (%d votes)\n", indent, movie.ID, movie.VoteAverage, movie.VoteCount)
		if opts.Details {
			if genres := movie.GenreNames(); len(genres) > 0 {
				fmt.Fprintf(&sb, "%sGenres: %s\n", indent, strings.Join(genres, ", "))
			}
			fmt.Fprintf(&sb, "%sReleased: %s\n", indent, tui.FormatReleaseDate(movie.ReleaseDate))
		}

		if !isLast {
			sb.WriteString("│\n")
		}
	}

	if opts.Page != nil {
		if next, err := opts.Page.NextPage(); err == nil {
			fmt.Fprintf(&sb, "\nMore results: --page %d\n", next)
		}
	}

	sb.WriteString("\n")
	return sb.String()
}

// formatMovieDetail renders one movie with every detail field
func formatMovieDetail(movie tmdb.Movie, favorite bool, imageBase string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "\n%s", movie)
	if favorite {
		sb.WriteString(" ★")
	}
	sb.WriteString("\n\n")

	fields := tui.DetailFields(movie)
	fields = append(fields, tui.Field{Label: "Favorite", Value: tui.FormatAdult(favorite)})
	if poster := movie.PosterURLAt(imageBase); poster != "" {
		fields = append(fields, tui.Field{Label: "Poster", Value: poster})
	}

	for _, f := range fields {
		fmt.Fprintf(&sb, "├── %-15s %s\n", f.Label+":", f.Value)
	}
	fmt.Fprintf(&sb, "╰── %s\n\n", tui.FormatOverview(movie.Overview))

	return sb.String()
}

// formatTorrentMatches renders the torrent candidates found for each favorite
func formatTorrentMatches(movies []tmdb.Movie, matches map[int][]*qbittorrent.TorrentMatch) string {
	var sb strings.Builder

	for _, movie := range movies {
		found := matches[movie.ID]
		fmt.Fprintf(&sb, "\n%s (%d):\n", movie, len(found))
		if len(found) == 0 {
			sb.WriteString("╰── no torrents\n")
			continue
		}

		for i, match := range found {
			isLast := i == len(found)-1
			prefix := "├"
			if isLast {
				prefix = "╰"
			}
			fmt.Fprintf(&sb, "%s── %s [%.0f%%]\n", prefix, match.Torrent.Name, match.Score*100)

			indent := "│   "
			if isLast {
				indent = "    "
			}

			var status []string
			if match.Torrent.IsComplete() {
				status = append(status, "complete")
			} else {
				status = append(status, fmt.Sprintf("%.0f%% done", match.Torrent.Progress*100))
			}
			if match.Torrent.IsActivelySeeding() {
				status = append(status, "seeding")
			}
			if match.YearMatched {
				status = append(status, "year matched")
			}
			fmt.Fprintf(&sb, "%s%s\n", indent, strings.Join(status, " | "))
			if path := match.Torrent.GetFullPath(); path != "" {
				fmt.Fprintf(&sb, "%sPath: %s\n", indent, path)
			}
		}
	}

	return sb.String()
}
