package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/s0up4200/cinedex/tmdb"
)

// fetchConcurrency bounds parallel catalog and poster requests
const fetchConcurrency = 4

var (
	yearFlag     int
	pageFlag     int
	windowFlag   string
	detailsFlag  bool
	prefetchFlag bool
	noYearFilter bool
)

// discoverCmd lists the best rated movies of a year
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List the best rated movies of a year",
	Long: `List one page of movies released in a year, sorted by rating.

Movies with fewer votes than tmdb.min_vote_count are left out.`,
	Args: cobra.NoArgs,
	RunE: runDiscover,
}

// searchCmd searches the catalog by title
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search movies by title",
	Long: `Search the catalog by title.

Results are limited to the current year unless --year is given, --no-year-filter
is set or browse.search_year_filter is false.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

// trendingCmd lists trending movies
var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "List trending movies",
	Args:  cobra.NoArgs,
	RunE:  runTrending,
}

// showCmd prints every detail of one movie
var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show details for a movie",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	for _, c := range []*cobra.Command{discoverCmd, searchCmd, trendingCmd} {
		c.Flags().IntVar(&pageFlag, "page", 1, "page number")
		c.Flags().BoolVar(&detailsFlag, "details", false, "show genres and release dates")
		c.Flags().BoolVar(&prefetchFlag, "posters", false, "download the posters of the listed movies into the image cache")
	}
	discoverCmd.Flags().IntVar(&yearFlag, "year", 0, "release year (default current year)")
	searchCmd.Flags().IntVar(&yearFlag, "year", 0, "release year (default current year)")
	searchCmd.Flags().BoolVar(&noYearFilter, "no-year-filter", false, "search every year")
	trendingCmd.Flags().StringVar(&windowFlag, "window", string(tmdb.TrendingWeek), "trending window (day or week)")

	rootCmd.AddCommand(discoverCmd, searchCmd, trendingCmd, showCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	year := yearFlag
	if year == 0 {
		year = time.Now().Year()
	}

	page, err := catalog.DiscoverByYear(cmd.Context(), tmdb.DiscoverParams{Year: year, Page: pageFlag})
	if err != nil {
		return catalogError(err)
	}

	return printPage(cmd, page, fmt.Sprintf("Top rated movies of %d", year))
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return fmt.Errorf("search query is empty")
	}

	params := tmdb.SearchParams{Query: query, Page: pageFlag}
	switch {
	case yearFlag != 0:
		params.Year = yearFlag
	case cfg.Browse.SearchYearFilter && !noYearFilter:
		params.Year = time.Now().Year()
	}

	page, err := catalog.SearchMovies(cmd.Context(), params)
	if err != nil {
		return catalogError(err)
	}

	heading := fmt.Sprintf("Results for %q", query)
	if params.Year != 0 {
		heading += fmt.Sprintf(" in %d", params.Year)
	}
	return printPage(cmd, page, heading)
}

func runTrending(cmd *cobra.Command, args []string) error {
	window := tmdb.TrendingWindow(windowFlag)
	if !window.Valid() {
		return fmt.Errorf("invalid window %q (must be 'day' or 'week')", windowFlag)
	}

	page, err := catalog.Trending(cmd.Context(), window, pageFlag)
	if err != nil {
		return catalogError(err)
	}

	return printPage(cmd, page, fmt.Sprintf("Trending this %s", window))
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := parseMovieID(args[0])
	if err != nil {
		return err
	}

	movie, err := catalog.GetMovie(cmd.Context(), id)
	if err != nil {
		return catalogError(err)
	}

	fmt.Fprint(cmd.OutOrStdout(), formatMovieDetail(*movie, store.IsFavorite(movie.ID), cfg.TMDB.ImageBaseURL))
	return nil
}

func printPage(cmd *cobra.Command, page *tmdb.Page, heading string) error {
	fmt.Fprint(cmd.OutOrStdout(), formatMovieList(page.Results, listOptions{
		Heading:   heading,
		Page:      page,
		Favorites: favoriteIDs(),
		Details:   detailsFlag,
	}))

	if prefetchFlag {
		urls := make([]string, 0, len(page.Results))
		for _, m := range page.Results {
			urls = append(urls, m.PosterURLAt(cfg.TMDB.ImageBaseURL))
		}
		loaded := images.Prefetch(cmd.Context(), urls, fetchConcurrency)
		logger.Info().
			Int("loaded", loaded).
			Int("requested", len(urls)).
			Int64("bytes", images.Bytes()).
			Msg("Prefetched posters")
	}

	return nil
}

func favoriteIDs() map[int]bool {
	ids := make(map[int]bool)
	for _, m := range store.List() {
		ids[m.ID] = true
	}
	return ids
}

func parseMovieID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid movie id %q", arg)
	}
	return id, nil
}

// catalogError keeps the wrapped error but leads with a readable message
func catalogError(err error) error {
	msg := tmdb.UserMessage(err)
	if msg == err.Error() {
		return err
	}
	return fmt.Errorf("%s: %w", msg, err)
}
