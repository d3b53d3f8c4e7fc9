// ABOUTME: Standard HTTP page fetcher with optional retry and charset decoding
// ABOUTME: Returns decoded markup for 2xx responses and the status line otherwise

package standard

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"readaloud-api/core/interfaces"

	"golang.org/x/net/html/charset"
)

const (
	userAgent = "ReadAloudAPI/1.0 (+https://github.com/readaloud)"

	// DefaultMaxBodyBytes caps how much of a page is read
	DefaultMaxBodyBytes = 10 << 20
)

// Options configures the page fetcher
type Options struct {
	// Timeout bounds a single HTTP exchange
	Timeout time.Duration

	// Attempts is the number of tries for transport errors and 5xx responses.
	// Values below 1 mean a single try.
	Attempts int

	// MaxBodyBytes caps the body size; zero means DefaultMaxBodyBytes
	MaxBodyBytes int64
}

// StandardHTTPClient implements interfaces.PageFetcher using the standard library
type StandardHTTPClient struct {
	client   *http.Client
	attempts int
	maxBody  int64
}

// NewStandardHTTPClient creates a new page fetcher
func NewStandardHTTPClient(opts Options) *StandardHTTPClient {
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &StandardHTTPClient{
		client: &http.Client{
			Timeout: opts.Timeout,
		},
		attempts: opts.Attempts,
		maxBody:  opts.MaxBodyBytes,
	}
}

// Fetch performs a GET and decodes the body to UTF-8
func (c *StandardHTTPClient) Fetch(ctx context.Context, url string) (*interfaces.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt < c.attempts; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 100ms, 200ms, 400ms
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		resp, err = c.client.Do(req)
		if err != nil {
			resp = nil
			lastErr = err
			continue
		}

		// Don't retry on success or 4xx errors
		if resp.StatusCode < 500 || attempt == c.attempts-1 {
			break
		}

		resp.Body.Close()
		lastErr = fmt.Errorf("server returned %d", resp.StatusCode)
		resp = nil
	}

	if resp == nil {
		return nil, lastErr
	}
	defer resp.Body.Close()

	result := &interfaces.FetchResult{
		OK:          resp.StatusCode >= 200 && resp.StatusCode < 300,
		StatusCode:  resp.StatusCode,
		StatusText:  statusText(resp),
		ContentType: resp.Header.Get("Content-Type"),
	}
	if !result.OK {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return result, nil
	}

	body, err := c.decodeBody(resp)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	result.Body = body
	return result, nil
}

func (c *StandardHTTPClient) decodeBody(resp *http.Response) (string, error) {
	limited := io.LimitReader(resp.Body, c.maxBody)

	reader, err := charset.NewReader(limited, resp.Header.Get("Content-Type"))
	if err != nil {
		// unknown charset: fall back to the raw bytes
		reader = limited
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// statusText returns the status line text, e.g. "404 Not Found"
func statusText(resp *http.Response) string {
	if s := strings.TrimSpace(resp.Status); s != "" {
		return s
	}
	return fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}
