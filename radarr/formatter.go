package radarr

import (
	"fmt"
	"strings"

	"github.com/s0up4200/cinedex/tmdb"
)

// FormatExportResult renders an export result as a tree for the console
func FormatExportResult(result ExportResult, dryRun bool) string {
	var sb strings.Builder

	if dryRun {
		writeSection(&sb, "Would add", result.Planned, nil)
	} else {
		writeSection(&sb, "Added", result.Added, nil)
	}
	writeSection(&sb, "Already in Radarr", result.AlreadyPresent, nil)

	if len(result.Failed) > 0 {
		movies := make([]tmdb.Movie, len(result.Failed))
		reasons := make([]string, len(result.Failed))
		for i, f := range result.Failed {
			movies[i] = f.Movie
			reasons[i] = f.Err.Error()
		}
		writeSection(&sb, "Failed", movies, reasons)
	}

	if sb.Len() == 0 {
		return "No favorites to export\n"
	}
	return sb.String()
}

func writeSection(sb *strings.Builder, title string, movies []tmdb.Movie, reasons []string) {
	if len(movies) == 0 {
		return
	}

	fmt.Fprintf(sb, "\n%s (%d):\n", title, len(movies))
	for i, movie := range movies {
		isLast := i == len(movies)-1
		prefix := "├"
		if isLast {
			prefix = "╰"
		}
		fmt.Fprintf(sb, "%s── %s\n", prefix, movie)

		if reasons != nil {
			indent := "│   "
			if isLast {
				indent = "    "
			}
			fmt.Fprintf(sb, "%s╰── %s\n", indent, reasons[i])
		}
	}
}
