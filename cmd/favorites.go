package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/cinedex/filter"
	"github.com/s0up4200/cinedex/qbittorrent"
	"github.com/s0up4200/cinedex/radarr"
	"github.com/s0up4200/cinedex/tmdb"
)

var (
	filterExpr  string
	presetName  string
	dryRun      bool
	searchOnAdd bool
)

// favoritesCmd groups the favorites subcommands
var favoritesCmd = &cobra.Command{
	Use:     "favorites",
	Aliases: []string{"fav"},
	Short:   "Manage favorite movies",
	RunE:    runFavoritesList,
}

var favoritesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List favorites, optionally filtered",
	Long: `List favorite movies.

Filter expressions use expr syntax over these fields:
  ID, Title, OriginalTitle, Overview, Year, ReleaseDate, HasReleaseDate,
  Rating, Votes, Popularity, Language, Adult, Genres, GenreIDs, HasPoster

plus the helpers hasGenre("Drama") and releasedWithin(days). Examples:
  cinedex favorites list --filter 'Rating >= 7.5 and hasGenre("Crime")'
  cinedex favorites list --preset classics`,
	Args: cobra.NoArgs,
	RunE: runFavoritesList,
}

var favoritesPresetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the available filter presets",
	Args:  cobra.NoArgs,
	RunE:  runFavoritesPresets,
}

var favoritesAddCmd = &cobra.Command{
	Use:   "add <id>...",
	Short: "Add movies to favorites by TMDB id",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFavoritesAdd,
}

var favoritesRemoveCmd = &cobra.Command{
	Use:     "remove <id>...",
	Aliases: []string{"rm"},
	Short:   "Remove movies from favorites",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runFavoritesRemove,
}

var favoritesToggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Add a movie when absent, remove it when present",
	Args:  cobra.ExactArgs(1),
	RunE:  runFavoritesToggle,
}

var favoritesExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write favorites as JSON (to stdout without a file)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFavoritesExport,
}

var favoritesImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Merge favorites from a JSON file",
	Long: `Merge favorites from a JSON array of movies, as written by export.

Records without an id or title, or with a rating outside 0-10, are skipped.
Movies already in favorites are kept as they are.`,
	Args: cobra.ExactArgs(1),
	RunE: runFavoritesImport,
}

var favoritesRadarrCmd = &cobra.Command{
	Use:   "export-radarr",
	Short: "Add favorites missing from Radarr",
	Args:  cobra.NoArgs,
	RunE:  runFavoritesRadarr,
}

var favoritesTorrentsCmd = &cobra.Command{
	Use:   "torrents [id...]",
	Short: "Find qBittorrent torrents for favorites",
	RunE:  runFavoritesTorrents,
}

func init() {
	for _, c := range []*cobra.Command{favoritesCmd, favoritesListCmd} {
		c.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")
		c.Flags().StringVarP(&presetName, "preset", "p", "", "use a named filter preset")
		c.Flags().BoolVar(&detailsFlag, "details", false, "show genres and release dates")
	}
	favoritesRadarrCmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "show what would be added without changing Radarr")
	favoritesRadarrCmd.Flags().BoolVar(&searchOnAdd, "search", false, "search for added movies (overrides radarr.search_on_add)")

	favoritesCmd.AddCommand(
		favoritesListCmd,
		favoritesPresetsCmd,
		favoritesAddCmd,
		favoritesRemoveCmd,
		favoritesToggleCmd,
		favoritesExportCmd,
		favoritesImportCmd,
		favoritesRadarrCmd,
		favoritesTorrentsCmd,
	)
	rootCmd.AddCommand(favoritesCmd)
}

// newFilterManager returns a manager with the builtin and configured presets
func newFilterManager() (*filter.Manager, error) {
	manager := filter.NewManager()

	presets := make([]filter.Preset, 0, len(cfg.Filter.Presets))
	for name, p := range cfg.Filter.Presets {
		presets = append(presets, filter.Preset{Name: name, Expression: p.Expression, Description: p.Description})
	}
	if err := manager.RegisterAll(presets); err != nil {
		return nil, err
	}
	return manager, nil
}

func runFavoritesList(cmd *cobra.Command, args []string) error {
	if filterExpr != "" && presetName != "" {
		return fmt.Errorf("--filter and --preset are mutually exclusive")
	}

	movies := store.List()
	heading := "Favorites"

	if filterExpr != "" || presetName != "" {
		manager, err := newFilterManager()
		if err != nil {
			return err
		}

		if presetName != "" {
			movies, err = manager.ApplyPreset(cmd.Context(), presetName, movies)
			heading = fmt.Sprintf("Favorites matching preset %s", presetName)
		} else {
			movies, err = manager.Apply(cmd.Context(), filterExpr, movies)
			heading = "Favorites matching filter"
		}
		if err != nil {
			return fmt.Errorf("invalid filter: %w", err)
		}
		logger.Debug().Int("matched", len(movies)).Msg("Filtered favorites")
	}

	if len(movies) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No favorites found")
		return nil
	}

	fmt.Fprint(cmd.OutOrStdout(), formatMovieList(movies, listOptions{Heading: heading, Details: detailsFlag}))
	return nil
}

func runFavoritesPresets(cmd *cobra.Command, args []string) error {
	manager, err := newFilterManager()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	presets := manager.Presets()
	fmt.Fprintf(out, "\nPresets (%d):\n\n", len(presets))
	for i, p := range presets {
		prefix := "├"
		indent := "│   "
		if i == len(presets)-1 {
			prefix = "╰"
			indent = "    "
		}
		fmt.Fprintf(out, "%s── %s: %s\n", prefix, p.Name, p.Description)
		fmt.Fprintf(out, "%s%s\n", indent, p.Expression)
	}
	return nil
}

func runFavoritesAdd(cmd *cobra.Command, args []string) error {
	ids, err := parseMovieIDs(args)
	if err != nil {
		return err
	}

	movies, err := fetchMovies(cmd, ids)
	if err != nil {
		return err
	}

	for _, movie := range movies {
		if store.IsFavorite(movie.ID) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s is already a favorite\n", movie)
			continue
		}
		if err := store.Add(movie); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", movie)
	}
	return nil
}

func runFavoritesRemove(cmd *cobra.Command, args []string) error {
	ids, err := parseMovieIDs(args)
	if err != nil {
		return err
	}

	for _, id := range ids {
		movie, ok := store.Get(id)
		if !ok {
			fmt.Fprintf(cmd.OutOrStdout(), "%d is not a favorite\n", id)
			continue
		}
		if err := store.Remove(id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", movie)
	}
	return nil
}

func runFavoritesToggle(cmd *cobra.Command, args []string) error {
	id, err := parseMovieID(args[0])
	if err != nil {
		return err
	}

	// a stored record avoids a lookup when removing
	movie, ok := store.Get(id)
	if !ok {
		fetched, err := catalog.GetMovie(cmd.Context(), id)
		if err != nil {
			return catalogError(err)
		}
		movie = *fetched
	}

	favorite, err := store.Toggle(movie)
	if err != nil {
		return err
	}

	if favorite {
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", movie)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", movie)
	}
	return nil
}

func runFavoritesExport(cmd *cobra.Command, args []string) error {
	if len(args) == 0 || args[0] == "-" {
		return store.ExportJSON(cmd.OutOrStdout())
	}

	f, err := os.Create(args[0])
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := store.ExportJSON(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write export file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}

	logger.Info().Str("file", args[0]).Int("count", len(store.List())).Msg("Exported favorites")
	return nil
}

func runFavoritesImport(cmd *cobra.Command, args []string) error {
	var r io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open import file: %w", err)
		}
		defer f.Close()
		r = f
	}

	result, err := store.ImportJSON(r)
	if err != nil {
		return err
	}

	for _, invalid := range result.Invalid {
		logger.Warn().Err(invalid.Err).Int("index", invalid.Index).Int("id", invalid.ID).Msg("Skipped invalid record")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d, skipped %d already present, %d invalid\n",
		result.Added, result.Skipped, len(result.Invalid))
	return nil
}

func runFavoritesRadarr(cmd *cobra.Command, args []string) error {
	if !cfg.Radarr.Enabled() {
		return fmt.Errorf("radarr is not configured. Please set radarr.url and radarr.api_key in config")
	}

	client, err := radarr.NewClient(cfg.Radarr.URL, cfg.Radarr.APIKey, logger)
	if err != nil {
		return fmt.Errorf("failed to create Radarr client: %w", err)
	}

	opts := radarr.ExportOptions{
		RootFolder:       cfg.Radarr.RootFolder,
		QualityProfileID: cfg.Radarr.QualityProfileID,
		SearchOnAdd:      cfg.Radarr.SearchOnAdd,
		DryRun:           dryRun,
	}
	if cmd.Flags().Changed("search") {
		opts.SearchOnAdd = searchOnAdd
	}

	result, err := client.Export(cmd.Context(), store.List(), opts)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), radarr.FormatExportResult(result, dryRun))

	if len(result.Failed) > 0 {
		errs := make([]error, 0, len(result.Failed))
		for _, f := range result.Failed {
			errs = append(errs, f)
		}
		return fmt.Errorf("%d of %d movies failed: %w", len(result.Failed), result.Requested, errors.Join(errs...))
	}
	return nil
}

func runFavoritesTorrents(cmd *cobra.Command, args []string) error {
	if !cfg.QBittorrent.Enabled() {
		return fmt.Errorf("qbittorrent is not configured. Please set qbittorrent.url in config")
	}

	movies := store.List()
	if len(args) > 0 {
		ids, err := parseMovieIDs(args)
		if err != nil {
			return err
		}
		movies = slices.DeleteFunc(movies, func(m tmdb.Movie) bool {
			return !slices.Contains(ids, m.ID)
		})
	}
	if len(movies) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No favorites found")
		return nil
	}

	client, err := qbittorrent.NewClient(cfg.QBittorrent.URL, cfg.QBittorrent.Username, cfg.QBittorrent.Password, logger)
	if err != nil {
		return err
	}

	matches := make(map[int][]*qbittorrent.TorrentMatch, len(movies))
	for _, movie := range movies {
		found, err := client.FindTorrents(cmd.Context(), movie)
		if errors.Is(err, qbittorrent.ErrNoTitle) {
			continue
		}
		if err != nil {
			return err
		}
		matches[movie.ID] = found
	}

	fmt.Fprint(cmd.OutOrStdout(), formatTorrentMatches(movies, matches))
	return nil
}

func parseMovieIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := parseMovieID(arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// fetchMovies looks up ids concurrently, preserving order
func fetchMovies(cmd *cobra.Command, ids []int) ([]tmdb.Movie, error) {
	movies := make([]tmdb.Movie, len(ids))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(fetchConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			movie, err := catalog.GetMovie(ctx, id)
			if err != nil {
				return fmt.Errorf("movie %d: %w", id, catalogError(err))
			}
			movies[i] = *movie
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return movies, nil
}
