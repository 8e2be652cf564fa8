package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. CINEDEX_TMDB_API_KEY
const EnvPrefix = "CINEDEX"

// Load loads the configuration from file and environment. A missing config
// file is not an error; the API key may come from TMDB_API_KEY alone.
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	v := viper.New()

	// Set default values
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("tmdb.api_key", EnvPrefix+"_TMDB_API_KEY", "TMDB_API_KEY"); err != nil {
		return nil, fmt.Errorf("error binding environment: %w", err)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		if dir, err := Dir(); err == nil {
			v.AddConfigPath(dir)
		}

		v.AddConfigPath("/etc/cinedex/")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.Favorites.Path = expandHome(cfg.Favorites.Path)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Dir returns the per-user configuration directory, ~/.cinedex
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cinedex"), nil
}

// loadDotEnv reads ./.env into the process environment when present.
// Variables already set win.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error reading .env: %w", err)
	}
	return nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// TMDB defaults
	v.SetDefault("tmdb.api_key", "")
	v.SetDefault("tmdb.read_token", "")
	v.SetDefault("tmdb.base_url", "https://api.themoviedb.org/3")
	v.SetDefault("tmdb.image_base_url", "https://image.tmdb.org/t/p")
	v.SetDefault("tmdb.timeout", 15*time.Second)
	v.SetDefault("tmdb.min_vote_count", 100)
	v.SetDefault("tmdb.rate_limit", 0)
	v.SetDefault("tmdb.language", "en-US")

	// Browse defaults
	v.SetDefault("browse.search_year_filter", true)
	v.SetDefault("browse.scroll_threshold", 0.8)

	// Cache defaults
	v.SetDefault("cache.image_max_bytes", 64<<20)
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.page_ttl", 10*time.Minute)

	v.SetDefault("favorites.path", "~/.cinedex/favorites.db")

	// Radarr defaults
	v.SetDefault("radarr.url", "")
	v.SetDefault("radarr.api_key", "")
	v.SetDefault("radarr.root_folder", "")
	v.SetDefault("radarr.quality_profile_id", 0)
	v.SetDefault("radarr.search_on_add", false)

	v.SetDefault("qbittorrent.url", "")
	v.SetDefault("qbittorrent.username", "")
	v.SetDefault("qbittorrent.password", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.TMDB.APIKey == "" && cfg.TMDB.ReadToken == "" {
		return fmt.Errorf("tmdb.api_key (or TMDB_API_KEY) is required")
	}
	if cfg.TMDB.APIKey == "your-api-key-here" {
		return fmt.Errorf("tmdb.api_key must be set to a valid API key")
	}

	for key, raw := range map[string]string{
		"tmdb.base_url":       cfg.TMDB.BaseURL,
		"tmdb.image_base_url": cfg.TMDB.ImageBaseURL,
	} {
		if err := validateURL(raw); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}

	if cfg.TMDB.Timeout <= 0 {
		return fmt.Errorf("tmdb.timeout must be positive")
	}
	if cfg.TMDB.MinVoteCount < 0 {
		return fmt.Errorf("tmdb.min_vote_count must not be negative")
	}
	if cfg.TMDB.RateLimit < 0 {
		return fmt.Errorf("tmdb.rate_limit must not be negative")
	}

	if cfg.Browse.ScrollThreshold <= 0 || cfg.Browse.ScrollThreshold > 1 {
		return fmt.Errorf("browse.scroll_threshold must be in (0, 1], got %v", cfg.Browse.ScrollThreshold)
	}

	if cfg.Cache.ImageMaxBytes <= 0 {
		return fmt.Errorf("cache.image_max_bytes must be positive")
	}

	if cfg.Favorites.Path == "" {
		return fmt.Errorf("favorites.path is required")
	}

	for name, preset := range cfg.Filter.Presets {
		if strings.TrimSpace(preset.Expression) == "" {
			return fmt.Errorf("filter preset %q has no expression", name)
		}
	}

	if cfg.Radarr.URL != "" && cfg.Radarr.APIKey == "" {
		return fmt.Errorf("radarr.api_key is required when radarr.url is set")
	}

	// Validate logging level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
