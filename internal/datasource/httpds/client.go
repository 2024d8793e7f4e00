// Package httpds fetches pipeline inputs over HTTP with retry and
// exponential backoff, so a flaky upstream export does not abort a run.
package httpds

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Config controls request and retry behavior. Zero values get defaults:
// 30s request timeout, no retries, 200ms initial backoff capped at 5s.
type Config struct {
	// Timeout is the per-request timeout applied at the http.Client level.
	Timeout time.Duration

	// MaxRetries is the number of retry attempts after the initial request.
	MaxRetries int

	// InitialBackoff is the wait before the first retry. Each subsequent
	// retry doubles the wait up to MaxBackoff.
	InitialBackoff time.Duration

	// MaxBackoff caps the exponential backoff duration.
	MaxBackoff time.Duration

	// Transport is an optional custom RoundTripper, mainly for tests.
	Transport http.RoundTripper
}

// Client issues GETs with retry and backoff on transient failures.
type Client struct {
	httpClient     *http.Client
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration

	// sleep is swapped out in tests to keep them fast.
	sleep func(context.Context, time.Duration) error
}

// NewClient constructs a Client from cfg, applying defaults for zero values.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		sleep:          sleepCtx,
	}
}

// Get fetches url, retrying transport errors and retryable statuses (5xx and
// 429) with exponential backoff. The caller must close the response body.
// A non-retryable status is returned as a response, not an error; sources
// layered on top decide which statuses they accept.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	if url == "" {
		return nil, fmt.Errorf("httpds: url must not be empty")
	}

	attempts := c.maxRetries + 1
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("httpds: build request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err == nil {
			if !isRetryableStatus(resp.StatusCode) {
				return resp, nil
			}
			_ = resp.Body.Close()
			err = fmt.Errorf("httpds: retryable status %d from GET %s", resp.StatusCode, url)
		}
		lastErr = err

		if attempt+1 >= attempts {
			break
		}
		if err := c.sleep(ctx, backoffDuration(c.initialBackoff, attempt, c.maxBackoff)); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// isRetryableStatus reports whether code should trigger a retry. 5xx and 429
// are transient; everything else is final.
func isRetryableStatus(code int) bool {
	if code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

// backoffDuration returns the wait for the given 0-based retry index,
// doubling from initial and clamped to max.
func backoffDuration(initial time.Duration, attempt int, max time.Duration) time.Duration {
	d := initial
	if attempt > 0 {
		d = initial << attempt
	}
	if d > max {
		return max
	}
	return d
}

// sleepCtx waits for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
