// Package netutil contains the HTTP plumbing shared by the backend client:
// a retrying round tripper, size-limited body reads, endpoint URL helpers
// and the TLS baseline.
package netutil

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryTransport wraps an http.RoundTripper and retries transient failures
// (network errors, 429 and 502-504) with exponential backoff. Retry-After
// headers take precedence over the computed delay.
type RetryTransport struct {
	// Base is the underlying transport.
	// Default: http.DefaultTransport if nil.
	Base http.RoundTripper

	// OnRetry is called before each retry attempt with the 1-based attempt
	// number, the wait duration and the status code (0 for network errors).
	OnRetry func(attempt int, wait time.Duration, statusCode int)

	// MaxRetries is the number of retries after the first attempt.
	// Zero disables retrying.
	MaxRetries int

	// InitialBackoff is the first retry delay. Default: 500ms.
	InitialBackoff time.Duration

	// MaxBackoff caps every delay, Retry-After included. Default: 10s.
	MaxBackoff time.Duration
}

// RoundTrip implements http.RoundTripper.
func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	schedule := t.newBackOff()
	ctx := req.Context()

	for attempt := 0; ; attempt++ {
		attemptReq := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			attemptReq.Body = body
		}

		resp, err := base.RoundTrip(attemptReq)
		if err == nil && !IsRetryableStatus(resp.StatusCode) {
			return resp, nil
		}
		if attempt >= t.MaxRetries {
			return resp, err
		}

		wait := schedule.NextBackOff()
		status := 0
		if resp != nil {
			status = resp.StatusCode
			if d, ok := retryAfter(resp, schedule.MaxInterval); ok {
				wait = d
			}
			_ = resp.Body.Close()
		}
		if wait == backoff.Stop {
			wait = schedule.MaxInterval
		}
		if t.OnRetry != nil {
			t.OnRetry(attempt+1, wait, status)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (t *RetryTransport) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = t.InitialBackoff
	if b.InitialInterval == 0 {
		b.InitialInterval = 500 * time.Millisecond
	}
	b.MaxInterval = t.MaxBackoff
	if b.MaxInterval == 0 {
		b.MaxInterval = 10 * time.Second
	}
	b.Multiplier = 2
	b.RandomizationFactor = 0
	// Attempts are bounded by MaxRetries, not by elapsed time.
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// retryAfter parses a Retry-After header given in seconds or as an HTTP date.
func retryAfter(resp *http.Response, maxWait time.Duration) (time.Duration, bool) {
	if resp.Header == nil {
		return 0, false
	}
	value := resp.Header.Get("Retry-After")
	if value == "" {
		return 0, false
	}

	var d time.Duration
	if seconds, err := strconv.Atoi(value); err == nil {
		d = time.Duration(seconds) * time.Second
	} else if at, err := http.ParseTime(value); err == nil {
		d = time.Until(at)
	} else {
		return 0, false
	}

	if d < 0 {
		d = 0
	}
	if d > maxWait {
		d = maxWait
	}
	return d, true
}

// IsRetryableStatus reports whether statusCode indicates a transient error.
func IsRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests, // 429
		http.StatusBadGateway,         // 502
		http.StatusServiceUnavailable, // 503
		http.StatusGatewayTimeout:     // 504
		return true
	default:
		return false
	}
}
