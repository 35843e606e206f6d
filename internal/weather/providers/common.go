package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/coast-to-coast/internal/weather"
)

// BackoffConfig controls exponential backoff behaviour. MaxRetries of zero
// disables retries.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client  *http.Client
	Backoff BackoffConfig
}

var (
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
)

func newCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		// Client errors such as an unknown point say nothing about upstream health.
		IsSuccessful: func(err error) bool {
			return err == nil || !retryable(err)
		},
	})
}

// retryable reports whether a failure is transient: rate limiting, a server
// error, or a transport failure that was not a cancellation.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var e *weather.Error
	if !errors.As(err, &e) {
		return false
	}
	if errors.Is(e, weather.ErrUpstreamUnavailable) {
		return e.Status == http.StatusTooManyRequests || e.Status >= 500
	}
	return errors.Is(e, weather.ErrUnexpectedFailure)
}

// doRequestWithResilience executes the HTTP request, behind cb when it is not
// nil, retrying transient failures with exponential backoff. Failures are returned
// as *weather.Error tagged with stage; non-2xx responses carry their status.
func doRequestWithResilience(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	stage weather.Stage,
	buildRequest func() (*http.Request, error),
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, weather.Unexpected(stage, errNoHTTPClient)
	}
	if cfg.Backoff.MaxRetries < 0 || (cfg.Backoff.MaxRetries > 0 && cfg.Backoff.InitialInterval <= 0) {
		return nil, weather.Unexpected(stage, errInvalidConfig)
	}

	var attempt int

	for {
		if ctx.Err() != nil {
			return nil, weather.Unexpected(stage, ctx.Err())
		}

		req, err := buildRequest()
		if err != nil {
			return nil, weather.Unexpected(stage, err)
		}

		// Ensure the request obeys context cancellation.
		req = req.WithContext(ctx)

		call := func() (interface{}, error) {
			resp, execErr := cfg.Client.Do(req)
			if execErr != nil {
				return nil, weather.Unexpected(stage, execErr)
			}

			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
				resp.Body.Close()
				return nil, weather.Unavailable(stage, resp.StatusCode, nil)
			}

			return resp, nil
		}

		var result interface{}
		if cb != nil {
			result, err = cb.Execute(call)
		} else {
			result, err = call()
		}

		if err == nil {
			resp, ok := result.(*http.Response)
			if !ok {
				return nil, weather.Unexpected(stage, fmt.Errorf("unexpected result type %T", result))
			}
			return resp, nil
		}

		// If circuit is open, propagate immediately.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, weather.Unavailable(stage, 0, err)
		}

		if !retryable(err) || attempt >= cfg.Backoff.MaxRetries {
			return nil, err
		}

		delay := cfg.Backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > cfg.Backoff.MaxInterval && cfg.Backoff.MaxInterval > 0 {
			delay = cfg.Backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, weather.Unexpected(stage, ctx.Err())
		case <-timer.C:
			// continue to next attempt
		}

		attempt++
	}
}
