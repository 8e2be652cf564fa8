// Package tmdb provides a client for the read-only parts of The Movie Database
// (TMDB) v3 API that cinedex uses.
//
// # Usage
//
//	logger := zerolog.New(os.Stderr)
//	client, err := tmdb.NewClient(
//		tmdb.DefaultBaseURL,
//		"your-api-key",
//		logger,
//		tmdb.WithTimeout(10*time.Second),
//		tmdb.WithRateLimit(20, 5),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	page, err := client.SearchMovies(ctx, tmdb.SearchParams{Query: "batman", Page: 1})
//
// # Error Handling
//
// Every failure belongs to exactly one kind:
//
//   - ErrInvalidRequest: the request could not be built (bad URL, empty query)
//   - ErrTransport: no HTTP response was received
//   - APIError: a non-2xx response, carrying the status code
//   - ErrDecode: the body was not the expected JSON
//
// Use errors.Is for the sentinels and errors.As for APIError:
//
//	var apiErr *tmdb.APIError
//	if errors.As(err, &apiErr) && apiErr.IsUnauthorized() {
//		// Handle auth failure
//	}
//
// UserMessage maps any of them to a short text for display.
package tmdb
