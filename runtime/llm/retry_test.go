package llm_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewforge/orchestrator/runtime/llm"
)

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	cfg := llm.RetryConfig{MaxRetries: 2, InitialInterval: time.Millisecond}
	result, err := llm.Retry(context.Background(), cfg, func(context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", llm.NewRetryableError(errors.New("transient"), 0)
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, attempts)
}

func TestRetryDoesNotRetryPermanentErrors(t *testing.T) {
	attempts := 0
	cfg := llm.RetryConfig{MaxRetries: 2, InitialInterval: time.Millisecond}
	permanent := errors.New("bad request")
	_, err := llm.Retry(context.Background(), cfg, func(context.Context) (string, error) {
		attempts++
		return "", permanent
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.ErrorIs(t, err, permanent)
}

func TestRetryExhaustsMaxRetries(t *testing.T) {
	attempts := 0
	cfg := llm.RetryConfig{MaxRetries: 1, InitialInterval: time.Millisecond}
	transient := errors.New("still failing")
	_, err := llm.Retry(context.Background(), cfg, func(context.Context) (string, error) {
		attempts++
		return "", llm.NewRetryableError(transient, 0)
	})
	require.Error(t, err)
	assert.Equal(t, 2, attempts) // initial attempt + 1 retry
	assert.ErrorIs(t, err, transient)
}

func TestRetryExhaustedRateLimitSurfacesErrRateLimited(t *testing.T) {
	cfg := llm.RetryConfig{MaxRetries: 0, InitialInterval: time.Millisecond}
	_, err := llm.Retry(context.Background(), cfg, func(context.Context) (string, error) {
		return "", llm.NewRateLimitedError(errors.New("429"), 0)
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrRateLimited)
}

func TestIsTransientHTTPStatus(t *testing.T) {
	assert.True(t, llm.IsTransientHTTPStatus(429))
	assert.True(t, llm.IsTransientHTTPStatus(529))
	assert.True(t, llm.IsTransientHTTPStatus(500))
	assert.True(t, llm.IsTransientHTTPStatus(503))
	assert.False(t, llm.IsTransientHTTPStatus(400))
	assert.False(t, llm.IsTransientHTTPStatus(404))
}

func TestParseRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 5*time.Second, llm.ParseRetryAfter("5"))
}

func TestParseRetryAfterEmptyIsZero(t *testing.T) {
	assert.Equal(t, time.Duration(0), llm.ParseRetryAfter(""))
}

func TestParseRetryAfterHTTPDate(t *testing.T) {
	future := time.Now().Add(2 * time.Minute).UTC().Format(http.TimeFormat)
	d := llm.ParseRetryAfter(future)
	assert.Greater(t, d, time.Duration(0))
	assert.LessOrEqual(t, d, 2*time.Minute+time.Second)
}
