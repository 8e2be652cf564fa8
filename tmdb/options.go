package tmdb

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBearerToken authenticates with a v4 read access token instead of the
// api_key query parameter.
func WithBearerToken(token string) Option {
	return func(c *Client) {
		c.bearerToken = token
	}
}

// WithLanguage sets the language parameter sent with every request.
func WithLanguage(language string) Option {
	return func(c *Client) {
		c.language = language
	}
}

// WithMinVoteCount sets the vote_count.gte filter used by year discovery.
func WithMinVoteCount(count int) Option {
	return func(c *Client) {
		if count >= 0 {
			c.minVoteCount = count
		}
	}
}

// WithRateLimit throttles outgoing requests to perSecond with the given burst.
// A non-positive rate disables throttling.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithPageCache caches decoded list pages for ttl.
func WithPageCache(cache PageCache, ttl time.Duration) Option {
	return func(c *Client) {
		c.pageCache = cache
		c.pageTTL = ttl
	}
}
