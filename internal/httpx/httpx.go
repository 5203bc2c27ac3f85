// Package httpx provides the retrying HTTP client shared by link
// resolution, image lookups and fallback feed fetching.
package httpx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Transient HTTP status codes worth another attempt. Everything else
// fails immediately.
var retryStatusCodes = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// RetryConfig controls attempt count and backoff growth.
type RetryConfig struct {
	MaxAttempts int
	Delay       time.Duration
	Backoff     bool
}

// WithRetry runs fn up to MaxAttempts times, sleeping between attempts.
func WithRetry(ctx context.Context, config RetryConfig, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if err := fn(); err != nil {
			lastErr = err

			if attempt == config.MaxAttempts {
				return fmt.Errorf("failed after %d attempts: %w", config.MaxAttempts, err)
			}

			delay := config.Delay
			if config.Backoff {
				delay = time.Duration(attempt) * config.Delay
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				continue
			}
		}
		return nil
	}

	return lastErr
}

// Client wraps http.Client with bounded retries on transient statuses.
type Client struct {
	httpClient *http.Client
	retry      RetryConfig
	userAgent  string
}

// NewClient builds a client with the given per-request timeout.
func NewClient(timeout time.Duration, retry RetryConfig) *Client {
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = 1
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		retry:      retry,
		userAgent:  defaultUserAgent,
	}
}

type statusError struct {
	code int
	url  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.code, e.url)
}

// Get fetches url and returns the body. Transient statuses are retried
// with backoff, everything else fails on the first response.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := c.retry.Delay
			if c.retry.Backoff {
				delay = time.Duration(attempt-1) * c.retry.Delay
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		body, err := c.getOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if statusErr, ok := err.(*statusError); ok && !retryStatusCodes[statusErr.code] {
			return nil, err
		}
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", c.retry.MaxAttempts, lastErr)
}

func (c *Client) getOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{code: resp.StatusCode, url: url}
	}
	return io.ReadAll(resp.Body)
}

// PostJSON sends a JSON payload and returns the response body.
// Used by the LeetCode GraphQL endpoint.
func (c *Client) PostJSON(ctx context.Context, url string, payload io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{code: resp.StatusCode, url: url}
	}
	return io.ReadAll(resp.Body)
}
