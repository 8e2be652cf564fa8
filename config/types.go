package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	TMDB        TMDBConfig        `mapstructure:"tmdb"`
	Browse      BrowseConfig      `mapstructure:"browse"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Favorites   FavoritesConfig   `mapstructure:"favorites"`
	Filter      FilterConfig      `mapstructure:"filter"`
	Radarr      RadarrConfig      `mapstructure:"radarr"`
	QBittorrent QBittorrentConfig `mapstructure:"qbittorrent"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// TMDBConfig holds the movie database connection details
type TMDBConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	ReadToken    string        `mapstructure:"read_token"`
	BaseURL      string        `mapstructure:"base_url"`
	ImageBaseURL string        `mapstructure:"image_base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MinVoteCount int           `mapstructure:"min_vote_count"`
	// RateLimit is requests per second; 0 disables throttling
	RateLimit float64 `mapstructure:"rate_limit"`
	Language  string  `mapstructure:"language"`
}

// BrowseConfig tunes the browse and search session
type BrowseConfig struct {
	SearchYearFilter bool    `mapstructure:"search_year_filter"`
	ScrollThreshold  float64 `mapstructure:"scroll_threshold"`
}

// CacheConfig sizes the image cache and the optional page cache
type CacheConfig struct {
	ImageMaxBytes int64         `mapstructure:"image_max_bytes"`
	RedisURL      string        `mapstructure:"redis_url"`
	PageTTL       time.Duration `mapstructure:"page_ttl"`
}

// FavoritesConfig locates the favorites database
type FavoritesConfig struct {
	Path string `mapstructure:"path"`
}

// FilterConfig contains named filter presets
type FilterConfig struct {
	Presets map[string]PresetConfig `mapstructure:"presets"`
}

// PresetConfig is one user defined filter
type PresetConfig struct {
	Expression  string `mapstructure:"expression"`
	Description string `mapstructure:"description"`
}

// RadarrConfig holds Radarr API connection details and add defaults
type RadarrConfig struct {
	URL              string `mapstructure:"url"`
	APIKey           string `mapstructure:"api_key"`
	RootFolder       string `mapstructure:"root_folder"`
	QualityProfileID int64  `mapstructure:"quality_profile_id"`
	SearchOnAdd      bool   `mapstructure:"search_on_add"`
}

// Enabled reports whether Radarr export is configured
func (r RadarrConfig) Enabled() bool {
	return r.URL != "" && r.APIKey != ""
}

// QBittorrentConfig holds qBittorrent Web UI credentials
type QBittorrentConfig struct {
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// Enabled reports whether torrent lookup is configured
func (q QBittorrentConfig) Enabled() bool {
	return q.URL != ""
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
