package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryableError wraps a provider error that Retry should retry: network
// failures, 429, 5xx, and provider-specific transient codes (Anthropic 529).
// Call NewRetryableError from a provider adapter's error-classification path.
type RetryableError struct {
	Err        error
	RetryAfter time.Duration // zero means "no provider hint; use backoff's delay"
	// RateLimited marks this attempt as rejected specifically for rate
	// limiting (HTTP 429 or a provider's throttling exception), as opposed
	// to a generic 5xx or network failure. Retry surfaces ErrRateLimited
	// when retries are exhausted on a RateLimited error, so callers like
	// AdaptiveRateLimiter can tell the two apart.
	RateLimited bool
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// NewRetryableError marks err as transient, optionally honoring a
// Retry-After duration parsed from the response.
func NewRetryableError(err error, retryAfter time.Duration) *RetryableError {
	return &RetryableError{Err: err, RetryAfter: retryAfter}
}

// NewRateLimitedError marks err as transient and specifically rate-limited.
func NewRateLimitedError(err error, retryAfter time.Duration) *RetryableError {
	return &RetryableError{Err: err, RetryAfter: retryAfter, RateLimited: true}
}

// RetryConfig bounds the retry/backoff policy shared by every provider.
type RetryConfig struct {
	// MaxRetries is the number of retries after the initial attempt.
	// Default 2, giving max_retries+1 = 3 total attempts.
	MaxRetries int
	// InitialInterval is the starting backoff delay. Default 1s, doubling
	// on each subsequent attempt.
	InitialInterval time.Duration
}

// DefaultRetryConfig allows up to max_retries+1 attempts (3 total) with
// exponential backoff starting at 1s and doubling on each retry.
var DefaultRetryConfig = RetryConfig{MaxRetries: 2, InitialInterval: time.Second}

// Retry runs call under exponential backoff per cfg, retrying only errors
// classified as *RetryableError. A RetryableError with a non-zero RetryAfter
// overrides the computed backoff delay for that attempt (honoring a
// provider's Retry-After header). Each attempt re-invokes call so a signing
// adapter can refresh its timestamp on every retry.
func Retry[T any](ctx context.Context, cfg RetryConfig, call func(ctx context.Context) (T, error)) (T, error) {
	if cfg.MaxRetries <= 0 && cfg.InitialInterval <= 0 {
		cfg = DefaultRetryConfig
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.InitialInterval
	bo.Multiplier = 2
	bo.MaxElapsedTime = 0 // bounded by MaxRetries instead of wall-clock
	boWithCtx := backoff.WithContext(bo, ctx)

	var result T
	attempt := 0
	op := func() error {
		attempt++
		r, err := call(ctx)
		result = r
		if err == nil {
			return nil
		}
		var retryable *RetryableError
		if !errors.As(err, &retryable) {
			return backoff.Permanent(err)
		}
		if attempt > cfg.MaxRetries {
			if retryable.RateLimited {
				return backoff.Permanent(fmt.Errorf("%w: %w", ErrRateLimited, retryable.Err))
			}
			return backoff.Permanent(retryable.Err)
		}
		return retryable
	}

	notify := func(err error, next time.Duration) {
		var retryable *RetryableError
		if errors.As(err, &retryable) && retryable.RetryAfter > 0 {
			// A provider-supplied Retry-After overrides the computed delay by
			// blocking the extra duration here; backoff has no first-class hook
			// for per-attempt delay override.
			select {
			case <-ctx.Done():
			case <-time.After(retryable.RetryAfter - next):
			}
		}
	}

	if err := backoff.RetryNotify(op, boWithCtx, notify); err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// IsTransientHTTPStatus reports whether status is one of the codes every
// provider retries: 429, any 5xx, or Anthropic's overloaded 529.
func IsTransientHTTPStatus(status int) bool {
	return status == http.StatusTooManyRequests || status == 529 || status >= 500
}

// ParseRetryAfter parses an HTTP Retry-After header value (seconds or an
// HTTP-date) into a duration. Returns zero if header is empty or unparsable.
func ParseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil {
		return time.Duration(secs) * time.Second
	}
	if when, err := http.ParseTime(header); err == nil {
		if d := time.Until(when); d > 0 {
			return d
		}
	}
	return 0
}
