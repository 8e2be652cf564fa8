package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/cinedex/config"
	"github.com/s0up4200/cinedex/favorites"
	"github.com/s0up4200/cinedex/imagecache"
	"github.com/s0up4200/cinedex/tmdb"
)

// Command annotations read by initializeApp
const (
	// annotationStandalone marks commands that run without configuration
	annotationStandalone = "cinedex/standalone"
	// annotationInteractive marks commands that own the terminal; logs go to a file
	annotationInteractive = "cinedex/interactive"
)

var (
	cfgFile  string
	cfg      *config.Config
	logger   zerolog.Logger
	catalog  *tmdb.Client
	store    *favorites.Store
	images   *imagecache.Cache
	closers  []io.Closer
	logLevel string

	version   = "dev"
	buildTime = "unknown"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "cinedex",
	Short: "Browse TMDB movies and keep a list of favorites",
	Long: `cinedex is a terminal movie explorer backed by The Movie Database (TMDB).

It lists the best rated movies of a year, searches the catalog, shows
movie details and keeps a local list of favorites that can be filtered,
exported to JSON or sent to Radarr.`,
	SilenceUsage:       true,
	PersistentPreRunE:  initializeApp,
	PersistentPostRunE: shutdownApp,
}

// SetVersion records the build version reported by version and used by update
func SetVersion(v, built string) {
	version = v
	buildTime = built
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml or ~/.cinedex/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")
}

// initializeApp initializes the configuration and clients
func initializeApp(cmd *cobra.Command, args []string) (err error) {
	if cmd.Annotations[annotationStandalone] == "true" {
		logger = setupLogger(config.LoggingConfig{Level: "info", Format: "console", Color: true}, os.Stderr)
		return nil
	}

	// cobra skips PersistentPostRunE when this fails
	defer func() {
		if err != nil {
			closeResources()
		}
	}()

	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	var out io.Writer = os.Stderr
	if cmd.Annotations[annotationInteractive] == "true" {
		f, err := openLogFile()
		if err != nil {
			return err
		}
		closers = append(closers, f)
		out = f
	}
	logger = setupLogger(cfg.Logging, out)

	opts := []tmdb.Option{
		tmdb.WithTimeout(cfg.TMDB.Timeout),
		tmdb.WithLanguage(cfg.TMDB.Language),
		tmdb.WithMinVoteCount(cfg.TMDB.MinVoteCount),
		tmdb.WithRateLimit(cfg.TMDB.RateLimit, max(1, int(cfg.TMDB.RateLimit))),
	}
	if cfg.TMDB.ReadToken != "" {
		opts = append(opts, tmdb.WithBearerToken(cfg.TMDB.ReadToken))
	}
	if cfg.Cache.RedisURL != "" {
		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		pages, err := tmdb.NewRedisPageCache(ctx, cfg.Cache.RedisURL)
		cancel()
		if err != nil {
			logger.Warn().Err(err).Msg("Page cache unavailable, continuing without it")
		} else {
			closers = append(closers, pages)
			opts = append(opts, tmdb.WithPageCache(pages, cfg.Cache.PageTTL))
			logger.Debug().Dur("ttl", cfg.Cache.PageTTL).Msg("Page cache enabled")
		}
	}

	catalog, err = tmdb.NewClient(cfg.TMDB.BaseURL, cfg.TMDB.APIKey, logger, opts...)
	if err != nil {
		return fmt.Errorf("failed to create TMDB client: %w", err)
	}

	backend, err := favorites.OpenBolt(cfg.Favorites.Path)
	if err != nil {
		return fmt.Errorf("failed to open favorites: %w", err)
	}
	closers = append(closers, backend)
	store = favorites.NewStore(backend, logger)

	images = imagecache.New(cfg.Cache.ImageMaxBytes, logger,
		imagecache.WithHTTPClient(&http.Client{Timeout: 2 * cfg.TMDB.Timeout}))

	logger.Debug().
		Str("favorites", cfg.Favorites.Path).
		Str("language", cfg.TMDB.Language).
		Msg("Initialized")

	return nil
}

// shutdownApp releases what initializeApp opened
func shutdownApp(cmd *cobra.Command, args []string) error {
	closeResources()
	return nil
}

// closeResources closes the opened resources in reverse order
func closeResources() {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close resource")
		}
	}
	closers = nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(out).With().Timestamp().Logger()
	}

	// Console format
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isTerminal(out),
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// openLogFile opens ~/.cinedex/cinedex.log for appending
func openLogFile() (*os.File, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, fmt.Errorf("failed to locate log directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "cinedex.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}
