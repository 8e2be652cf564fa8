package qbittorrent

import "time"

// Option configures a Client.
type Option func(*clientOptions)

// clientOptions holds configuration options for the Client.
type clientOptions struct {
	timeout    time.Duration
	skipVerify bool
	maxMatches int
}

func defaultOptions() clientOptions {
	return clientOptions{
		timeout:    30 * time.Second,
		maxMatches: defaultMaxTorrentMatches,
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithInsecureSkipVerify disables certificate verification.
// Use with caution and only for development/testing.
func WithInsecureSkipVerify() Option {
	return func(o *clientOptions) {
		o.skipVerify = true
	}
}

// WithMaxMatches limits how many candidates FindTorrents returns.
func WithMaxMatches(n int) Option {
	return func(o *clientOptions) {
		if n > 0 {
			o.maxMatches = n
		}
	}
}
