package cmd

import (
	"github.com/spf13/cobra"

	"github.com/s0up4200/cinedex/browse"
	"github.com/s0up4200/cinedex/tui"
)

// browseCmd opens the interactive browser
var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse and search movies interactively",
	Long: `Open the interactive browser on the best rated movies of the year.

Keys:
  /        search (an empty search returns to browsing)
  j/k      move; nearing the end of the list loads the next page
  enter    movie details
  f        toggle favorite
  v        favorites
  r        reload
  a        about
  q        quit

Logs are written to ~/.cinedex/cinedex.log while the browser is open.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationInteractive: "true"},
	RunE:        runBrowse,
}

func init() {
	browseCmd.Flags().IntVar(&yearFlag, "year", 0, "browse this year (default current year)")
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	opts := []browse.Option{
		browse.WithSearchYearFilter(cfg.Browse.SearchYearFilter),
		browse.WithScrollThreshold(cfg.Browse.ScrollThreshold),
	}
	if yearFlag != 0 {
		opts = append(opts, browse.WithYear(yearFlag))
	}

	controller := browse.New(catalog, logger, opts...)

	return tui.Run(cmd.Context(), tui.Config{
		Controller:   controller,
		Store:        store,
		Images:       images,
		ImageBaseURL: cfg.TMDB.ImageBaseURL,
		Logger:       logger,
		Version:      version,
	})
}
