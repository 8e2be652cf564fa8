package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the TMDB v3 API root
	DefaultBaseURL = "https://api.themoviedb.org/3"
	// DefaultMinVoteCount keeps barely-rated titles out of year discovery
	DefaultMinVoteCount = 100

	maxErrorBody    = 512
	maxResponseBody = 8 << 20
)

// Client represents a TMDB API client
type Client struct {
	baseURL      string
	apiKey       string
	bearerToken  string
	language     string
	minVoteCount int
	httpClient   *http.Client
	limiter      *rate.Limiter
	pageCache    PageCache
	pageTTL      time.Duration
	logger       zerolog.Logger
}

// NewClient creates a new TMDB client. Either apiKey or a bearer token
// supplied through WithBearerToken is required.
func NewClient(baseURL, apiKey string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("%w: tmdb base URL %q: %v", ErrInvalidConfig, baseURL, err)
	}

	client := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		minVoteCount: DefaultMinVoteCount,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.apiKey == "" && client.bearerToken == "" {
		return nil, fmt.Errorf("%w: tmdb API key is required", ErrInvalidConfig)
	}

	return client, nil
}

// buildURL joins the endpoint onto the base URL and attaches query params
func (c *Client) buildURL(endpoint string, params url.Values) (string, error) {
	u, err := url.Parse(c.baseURL + endpoint)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	q := u.Query()
	for key, values := range params {
		for _, v := range values {
			q.Add(key, v)
		}
	}
	if c.language != "" && q.Get("language") == "" {
		q.Set("language", c.language)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// doRequest performs an authenticated GET and returns the body of a 2xx response
func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	target, err := c.buildURL(endpoint, params)
	if err != nil {
		return nil, err
	}
	return c.get(ctx, endpoint, target)
}

// get performs the request for a URL produced by buildURL
func (c *Client) get(ctx context.Context, endpoint, target string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %v", ErrTransport, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	// The key is appended after buildURL so it never reaches logs or cache keys.
	if c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	} else {
		q := req.URL.Query()
		q.Set("api_key", c.apiKey)
		req.URL.RawQuery = q.Encode()
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("url", target).
		Msg("Making TMDB API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", ErrTransport, err)
	}
	if len(body) > maxResponseBody {
		return nil, fmt.Errorf("%w: response body exceeds %d bytes", ErrTransport, maxResponseBody)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp.StatusCode, body)
	}

	return body, nil
}

// newAPIError extracts TMDB's status_message when the error body carries one
func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var payload struct {
		StatusMessage string `json:"status_message"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.StatusMessage != "" {
		apiErr.Message = payload.StatusMessage
	}

	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	apiErr.Body = string(body)

	return apiErr
}

// getPage fetches and decodes a list endpoint, consulting the page cache first
func (c *Client) getPage(ctx context.Context, endpoint string, params url.Values) (*Page, error) {
	target, err := c.buildURL(endpoint, params)
	if err != nil {
		return nil, err
	}
	cacheKey := pageCacheKey(target)

	if c.pageCache != nil {
		var cached Page
		err := c.pageCache.Get(ctx, cacheKey, &cached)
		switch {
		case err == nil:
			c.logger.Debug().Str("key", cacheKey).Msg("Page served from cache")
			return &cached, nil
		case !errors.Is(err, ErrCacheMiss):
			c.logger.Warn().Err(err).Str("key", cacheKey).Msg("Page cache read failed")
		}
	}

	body, err := c.get(ctx, endpoint, target)
	if err != nil {
		return nil, err
	}

	var page Page
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Int("page", page.Page).
		Int("total_pages", page.TotalPages).
		Int("count", len(page.Results)).
		Msg("Retrieved page from TMDB")

	if c.pageCache != nil {
		if err := c.pageCache.Set(ctx, cacheKey, &page, c.pageTTL); err != nil {
			c.logger.Warn().Err(err).Str("key", cacheKey).Msg("Page cache write failed")
		}
	}

	return &page, nil
}

// TestConnection verifies the API key by requesting the API configuration
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.doRequest(ctx, "/configuration", nil)
	return err
}

// SearchMovies performs a free text search
func (c *Client) SearchMovies(ctx context.Context, params SearchParams) (*Page, error) {
	query := strings.TrimSpace(params.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", ErrInvalidRequest)
	}

	values := url.Values{}
	values.Set("query", query)
	values.Set("page", strconv.Itoa(normalizePage(params.Page)))
	if params.Year > 0 {
		values.Set("year", strconv.Itoa(params.Year))
	}

	return c.getPage(ctx, "/search/movie", values)
}

// DiscoverByYear lists movies released in a year, best rated first
func (c *Client) DiscoverByYear(ctx context.Context, params DiscoverParams) (*Page, error) {
	if params.Year <= 0 {
		return nil, fmt.Errorf("%w: invalid year %d", ErrInvalidRequest, params.Year)
	}

	values := url.Values{}
	values.Set("primary_release_year", strconv.Itoa(params.Year))
	values.Set("sort_by", "vote_average.desc")
	values.Set("vote_count.gte", strconv.Itoa(c.minVoteCount))
	values.Set("include_adult", "false")
	values.Set("page", strconv.Itoa(normalizePage(params.Page)))

	return c.getPage(ctx, "/discover/movie", values)
}

// Trending lists trending movies for the window
func (c *Client) Trending(ctx context.Context, window TrendingWindow, page int) (*Page, error) {
	if window == "" {
		window = TrendingDay
	}
	if !window.Valid() {
		return nil, fmt.Errorf("%w: trending window %q", ErrInvalidRequest, window)
	}

	values := url.Values{}
	values.Set("page", strconv.Itoa(normalizePage(page)))

	return c.getPage(ctx, "/trending/movie/"+string(window), values)
}

// GetMovie fetches a single movie by its TMDB ID
func (c *Client) GetMovie(ctx context.Context, id int) (*Movie, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid movie id %d", ErrInvalidRequest, id)
	}

	body, err := c.doRequest(ctx, "/movie/"+strconv.Itoa(id), nil)
	if err != nil {
		return nil, err
	}

	var detail movieDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	movie := detail.toMovie()
	return &movie, nil
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
