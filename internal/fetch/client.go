// Package fetch performs single-endpoint HTTP requests with bounded
// exponential retry and explicit cancellation. It is the only component that
// talks to the REST backend; everything above it consumes normalized entity
// collections.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultMaxRetries is the number of additional attempts after the first
// failure.
const DefaultMaxRetries = 3

// Client wraps an http.Client with the retry policy. The zero value is not
// usable; construct with New.
type Client struct {
	httpClient *http.Client

	// retryInterval is the delay before the first retry; subsequent delays
	// double (2^attempt * retryInterval, no jitter). Tests shrink it.
	retryInterval time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryInterval overrides the base retry delay.
func WithRetryInterval(d time.Duration) Option {
	return func(c *Client) { c.retryInterval = d }
}

// New creates a fetch client with a 10 second per-request timeout and a
// 1 second base retry delay.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		retryInterval: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchWithRetry performs one HTTP request, retrying transport failures and
// 5xx responses up to maxRetries additional times with exponential backoff.
// 4xx responses are deterministic failures and are not retried. On
// exhaustion the last observed failure is returned, as *HTTPError for status
// failures.
//
// Cancelling ctx aborts the in-flight request and any pending backoff wait;
// the returned error then satisfies IsAborted and callers must treat it as
// "no result", not as an error.
func (c *Client) FetchWithRetry(ctx context.Context, method, url string, body []byte, maxRetries int) ([]byte, error) {
	if maxRetries < 0 {
		maxRetries = 0
	}

	var result []byte

	attempt := func() error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(fmt.Errorf("%w: %v", ErrAborted, ctx.Err()))
			}
			// Transport failure: retryable.
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(fmt.Errorf("%w: %v", ErrAborted, ctx.Err()))
			}
			return fmt.Errorf("failed to read response body: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			httpErr := &HTTPError{Status: resp.StatusCode, Message: statusMessage(resp.StatusCode, data)}
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				// Client errors will not get better on retry.
				return backoff.Permanent(httpErr)
			}
			return httpErr
		}

		result = data
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryInterval
	policy.Multiplier = 2
	policy.RandomizationFactor = 0
	policy.MaxInterval = 5 * time.Minute
	policy.MaxElapsedTime = 0

	err := backoff.Retry(attempt, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(maxRetries)), ctx))
	if err != nil {
		if ctx.Err() != nil && !IsAborted(err) {
			return nil, fmt.Errorf("%w: %v", ErrAborted, ctx.Err())
		}
		return nil, err
	}

	return result, nil
}

// GetCollection fetches a resource endpoint and normalizes its envelope into
// an entity slice.
func (c *Client) GetCollection(ctx context.Context, url string, maxRetries int) ([]Entity, error) {
	data, err := c.FetchWithRetry(ctx, http.MethodGet, url, nil, maxRetries)
	if err != nil {
		return nil, err
	}
	return DecodeCollection(data)
}

// statusMessage prefers the server's error envelope text over the generic
// status text.
func statusMessage(status int, body []byte) string {
	var env objectEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != "" {
		return env.Error
	}
	return http.StatusText(status)
}
