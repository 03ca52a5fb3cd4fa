package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// ClientOptions holds options for creating a new Client
type ClientOptions struct {
	Timeout         time.Duration
	RequestsPerSec  int
	MaxRetries      int // 0 = bounded by MaxRetryTimeout only
	MaxRetryTimeout time.Duration
}

// Client sends requests through a shared rate limiter and retries transient
// failures with exponential backoff
type Client struct {
	http       *http.Client
	limiter    *rate.Limiter
	maxRetries int
	maxElapsed time.Duration
	logger     zerolog.Logger
}

// NewClient creates a new HTTP client with rate limiting
func NewClient(opts ClientOptions) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerSec == 0 {
		opts.RequestsPerSec = 5
	}
	if opts.MaxRetryTimeout == 0 {
		opts.MaxRetryTimeout = 30 * time.Second
	}

	return &Client{
		http:       &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSec), opts.RequestsPerSec),
		maxRetries: opts.MaxRetries,
		maxElapsed: opts.MaxRetryTimeout,
		logger:     log.With().Str("component", "http_client").Logger(),
	}
}

// DoRequest sends req until it gets a 200, a permanent failure or ctx ends.
// Only 429 and 5xx responses are retried. The caller closes the body.
func (c *Client) DoRequest(ctx context.Context, req *http.Request) (*http.Response, error) {
	notify := func(err error, wait time.Duration) {
		c.logger.Warn().
			Err(err).
			Str("path", req.URL.Path).
			Dur("retry_in", wait).
			Msg("Request failed, retrying")
	}

	return backoff.RetryNotifyWithData(func() (*http.Response, error) {
		return c.attempt(ctx, req)
	}, c.retryPolicy(ctx), notify)
}

func (c *Client) attempt(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, backoff.Permanent(err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	if resp.StatusCode == http.StatusOK {
		return resp, nil
	}

	resp.Body.Close()
	statusErr := &HTTPStatusError{StatusCode: resp.StatusCode, Path: req.URL.Path}
	if !statusErr.Retryable() {
		return nil, backoff.Permanent(statusErr)
	}
	return nil, statusErr
}

func (c *Client) retryPolicy(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.MaxElapsedTime = c.maxElapsed

	var policy backoff.BackOff = exp
	if c.maxRetries > 0 {
		policy = backoff.WithMaxRetries(policy, uint64(c.maxRetries))
	}
	return backoff.WithContext(policy, ctx)
}

// HTTPStatusError is returned for any non-200 response
type HTTPStatusError struct {
	StatusCode int
	Path       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d %s", e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// Retryable reports whether the status is worth another attempt
func (e *HTTPStatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}
