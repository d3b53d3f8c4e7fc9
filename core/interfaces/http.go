package interfaces

import (
	"context"
)

// FetchResult is the outcome of a page fetch that reached the server.
// A non-2xx response is reported with OK=false rather than as an error.
type FetchResult struct {
	// OK is true for 2xx responses
	OK bool

	// StatusCode is the HTTP status code
	StatusCode int

	// StatusText is the HTTP status line text, e.g. "404 Not Found"
	StatusText string

	// ContentType is the response Content-Type header
	ContentType string

	// Body is the decoded page markup
	Body string
}

// PageFetcher retrieves the raw markup of a web page.
// Transport failures are returned as errors; HTTP failures come back in
// FetchResult so callers can surface the status text.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}
