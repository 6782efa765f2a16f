// Package httpx performs outbound HTTP requests with retries, exponential
// backoff and a circuit breaker.
package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BackoffConfig controls exponential backoff behaviour.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultBackoff is used by callers that have no reason to tune retries.
var DefaultBackoff = BackoffConfig{
	MaxRetries:      3,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     5 * time.Second,
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client  *http.Client
	Backoff BackoffConfig
}

var (
	ErrRateLimited   = errors.New("rate limited")
	ErrServerError   = errors.New("server error")
	ErrCircuitOpen   = errors.New("circuit breaker open")
	ErrNoHTTPClient  = errors.New("http client not configured")
	ErrInvalidConfig = errors.New("invalid backoff configuration")
)

// StatusError reports a client error (4xx other than 429). It is not
// retried and does not trip the breaker.
type StatusError struct {
	Code int
	Body []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.Code)
}

const maxErrorBody = 64 << 10

// Client executes requests for one upstream, guarded by its own breaker.
type Client struct {
	cfg     HTTPClientConfig
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// New creates a Client. The breaker name shows up in logs.
func New(name string, cfg HTTPClientConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("upstream", name))

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		// Cancelled or timed-out callers do not count as upstream failures.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{cfg: cfg, breaker: cb, logger: logger}
}

// Do executes the request built by buildRequest, retrying transport errors,
// 429 and 5xx responses with exponential backoff. buildRequest is called once
// per attempt so request bodies can be recreated. On success the caller owns
// the response body.
func (c *Client) Do(ctx context.Context, buildRequest func() (*http.Request, error)) (*http.Response, error) {
	if c.cfg.Client == nil {
		return nil, ErrNoHTTPClient
	}
	if c.cfg.Backoff.MaxRetries < 0 || c.cfg.Backoff.InitialInterval <= 0 {
		return nil, ErrInvalidConfig
	}

	var attempt int

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := buildRequest()
		if err != nil {
			return nil, err
		}

		// Ensure the request obeys context cancellation.
		req = req.WithContext(ctx)

		result, err := c.breaker.Execute(func() (interface{}, error) {
			resp, execErr := c.cfg.Client.Do(req)
			if execErr != nil {
				return nil, execErr
			}

			switch {
			case resp.StatusCode == http.StatusTooManyRequests:
				drain(resp)
				return nil, ErrRateLimited
			case resp.StatusCode >= 500:
				drain(resp)
				return nil, fmt.Errorf("%w: %d", ErrServerError, resp.StatusCode)
			}
			return resp, nil
		})

		if err == nil {
			resp, ok := result.(*http.Response)
			if !ok {
				return nil, fmt.Errorf("unexpected result type from circuit breaker")
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
				resp.Body.Close()
				return nil, &StatusError{Code: resp.StatusCode, Body: body}
			}
			return resp, nil
		}

		// If circuit is open, propagate immediately.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}

		if attempt >= c.cfg.Backoff.MaxRetries {
			return nil, err
		}

		delay := c.cfg.Backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > c.cfg.Backoff.MaxInterval && c.cfg.Backoff.MaxInterval > 0 {
			delay = c.cfg.Backoff.MaxInterval
		}

		c.logger.Debug("retrying request",
			zap.String("url", req.URL.Redacted()),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
}
