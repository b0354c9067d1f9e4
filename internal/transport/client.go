// Package transport provides the HTTP client shared by the remote catalog and
// listing adapters: timeouts, a user agent, bounded retries of transient
// failures and JSON decoding into typed errors.
package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/agentstation/promise/pkg/constants"
	"github.com/agentstation/promise/pkg/errors"
	"github.com/agentstation/promise/pkg/logging"
)

// Client performs GET requests against one remote service.
type Client struct {
	http       *http.Client
	service    string
	userAgent  string
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithMaxRetries sets how many times a transient failure is retried.
// Zero disables retries.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(base, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.baseDelay = base
		c.maxDelay = maxDelay
	}
}

// WithSleeper overrides how retry waits are performed (useful for tests).
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// New creates a client for the named service.
func New(service string, opts ...Option) *Client {
	c := &Client{
		http:       &http.Client{Timeout: constants.DefaultHTTPTimeout},
		service:    service,
		userAgent:  constants.DefaultUserAgent,
		maxRetries: constants.MaxRetries,
		baseDelay:  constants.RetryBackoff,
		maxDelay:   constants.MaxRetryBackoff,
		sleep:      sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Service returns the service name used in errors and logs.
func (c *Client) Service() string {
	return c.service
}

// Get performs a GET request. Network errors and 429/5xx responses are
// retried with exponential backoff; the final response is returned whatever
// its status, so callers decide what a status means.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	delay := c.baseDelay
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, errors.WrapResource("create", "request", "GET "+url, err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.http.Do(req)
		retryable := false
		var cause error
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, errors.WrapCanceled("GET "+url, ctxErr)
			}
			retryable = true
			cause = errors.WrapTransport(c.service, url, err)
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
			retryable = true
			cause = errors.NewTransportError(c.service, resp.StatusCode, http.StatusText(resp.StatusCode))
		}

		if !retryable {
			return resp, nil
		}
		if attempt >= c.maxRetries {
			if err != nil {
				return nil, cause
			}
			return resp, nil
		}
		if resp != nil {
			_ = resp.Body.Close()
		}

		logging.FromContext(ctx).Warn().
			Err(cause).
			Str("service", c.service).
			Int("attempt", attempt+1).
			Int("max_retries", c.maxRetries).
			Dur("delay", delay).
			Msg("Request failed, retrying")

		if err := c.sleep(ctx, delay); err != nil {
			return nil, errors.WrapCanceled("GET "+url, err)
		}
		delay *= 2
		if c.maxDelay > 0 && delay > c.maxDelay {
			delay = c.maxDelay
		}
	}
}

// GetJSON performs a GET request and decodes a 200 response into target.
func (c *Client) GetJSON(ctx context.Context, url string, target any) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	return DecodeResponse(resp, c.service, url, target)
}

func sleep(ctx context.Context, d time.Duration) error {
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
