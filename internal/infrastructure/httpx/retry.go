package httpx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultMaxRetries = 2
	defaultBaseDelay  = 500 * time.Millisecond
)

// SleepFunc suspends for the given duration, returning early with the
// context error if the context is cancelled first.
type SleepFunc func(ctx context.Context, d time.Duration) error

func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Client wraps an http.Client with bounded exponential-backoff retry on
// transient failures (status >= 500 or 429). Any other non-success status is
// returned as-is for the caller to inspect. Every outbound call to an
// external API goes through this client.
type Client struct {
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
	sleep      SleepFunc
}

type Option func(*Client)

func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

func WithBaseDelay(d time.Duration) Option {
	return func(c *Client) { c.baseDelay = d }
}

func WithSleep(sleep SleepFunc) Option {
	return func(c *Client) { c.sleep = sleep }
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		sleep:      Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do issues the request, retrying on 5xx/429 with baseDelay << attempt
// between tries, up to maxRetries retries. Expressed as a bounded loop, not
// recursion, so the retry ceiling is structural.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)

	for attempt := 0; ; attempt++ {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
		}

		if !retryable(resp.StatusCode) || attempt >= c.maxRetries {
			return resp, nil
		}

		// A retry needs a fresh body; without one the response stands.
		if req.Body != nil && req.GetBody == nil {
			return resp, nil
		}

		// Drain so the underlying connection can be reused.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if err := c.sleep(ctx, c.baseDelay<<attempt); err != nil {
			return nil, err
		}

		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("rewind request body: %w", err)
			}
			req.Body = body
		}
	}
}

func retryable(status int) bool {
	return status >= http.StatusInternalServerError || status == http.StatusTooManyRequests
}
