// Package client provides the HTTP transport used to talk to the wiki API and
// its image CDN.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultUserAgent identifies the tool to the remote API.
	DefaultUserAgent = "BrawlStarsAssetFetcher/1.0 (educational use)"

	// DefaultTimeout bounds a single request, including reading the body.
	DefaultTimeout = 20 * time.Second

	// DefaultMaxBytes caps how much of a response body is read.
	DefaultMaxBytes int64 = 32 << 20
)

// ErrTooLarge is wrapped by TransportError when a body exceeds the size cap.
var ErrTooLarge = errors.New("response body exceeds size limit")

// TransportError describes a failed GET: a network fault, a non-2xx status, or
// an oversized body. StatusCode is 0 when no response was received.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("GET %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("GET %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Options configures a Client. Zero values fall back to the package defaults.
type Options struct {
	UserAgent string
	Timeout   time.Duration
	MaxBytes  int64
}

// Client performs bounded GET requests with a fixed User-Agent.
type Client struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
}

// New creates a Client.
func New(opts Options) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		userAgent: opts.UserAgent,
		maxBytes:  opts.MaxBytes,
	}
}

// Fetch GETs rawURL and returns the response body. Any failure is returned as
// a *TransportError. Requests are never retried.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little of the body so the error carries the server's reason.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &TransportError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s: %s", resp.Status, string(snippet)),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, &TransportError{URL: rawURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}
	if int64(len(body)) > c.maxBytes {
		return nil, &TransportError{URL: rawURL, StatusCode: resp.StatusCode, Err: ErrTooLarge}
	}

	return body, nil
}
