package tmdb

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors
var (
	// ErrInvalidConfig indicates invalid client configuration
	ErrInvalidConfig = errors.New("invalid tmdb configuration")
	// ErrInvalidRequest indicates a request that could not be built
	ErrInvalidRequest = errors.New("invalid tmdb request")
	// ErrTransport indicates the request never produced an HTTP response
	ErrTransport = errors.New("tmdb request failed")
	// ErrDecode indicates a response body that is not a valid payload
	ErrDecode = errors.New("failed to decode tmdb response")
)

// APIError represents a non-success TMDB response
type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("tmdb API error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("tmdb API error: status %d: %s", e.StatusCode, e.Message)
}

// IsNotFound checks if the error indicates a not found response
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized checks if the error indicates an authentication failure
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsRateLimited checks if TMDB rejected the request for exceeding its rate limit
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// UserMessage turns any catalog error into a short message suitable for display
func UserMessage(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr) && apiErr.IsUnauthorized():
		return "The movie database rejected the API key. Check tmdb.api_key in your config."
	case errors.As(err, &apiErr) && apiErr.IsRateLimited():
		return "Too many requests. Wait a moment and try again."
	case errors.As(err, &apiErr):
		return fmt.Sprintf("The movie database returned an error (status %d).", apiErr.StatusCode)
	case errors.Is(err, ErrInvalidRequest):
		return "The request could not be built."
	case errors.Is(err, ErrDecode):
		return "The movie database sent a response that could not be read."
	case errors.Is(err, ErrTransport):
		return "Could not reach the movie database. Check your connection."
	default:
		return err.Error()
	}
}
