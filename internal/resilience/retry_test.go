package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrySucceedsAfterTransientFailure(t *testing.T) {
	config := StoreRetryConfig()
	config.InitialDelay = time.Millisecond
	config.JitterEnabled = false

	calls := 0
	err := RetryWithConfig(context.Background(), config, func() error {
		calls++
		if calls < 3 {
			return errors.New("database is locked")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryStopsOnNonRetryableError(t *testing.T) {
	config := StoreRetryConfig()
	config.InitialDelay = time.Millisecond

	calls := 0
	permanent := errors.New("constraint failed")
	err := RetryWithConfig(context.Background(), config, func() error {
		calls++
		return permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls, "non-retryable errors fail immediately")
}

func TestRetryExhaustsAttempts(t *testing.T) {
	config := StoreRetryConfig()
	config.MaxAttempts = 2
	config.InitialDelay = time.Millisecond
	config.JitterEnabled = false

	calls := 0
	err := RetryWithConfig(context.Background(), config, func() error {
		calls++
		return errors.New("database is locked")
	})

	assert.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetryRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, func() error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCalculateDelayCapsAtMax(t *testing.T) {
	config := RetryConfig{
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 10,
	}

	assert.Equal(t, 100*time.Millisecond, calculateDelay(config, 0))
	assert.Equal(t, time.Second, calculateDelay(config, 1))
	assert.Equal(t, time.Second, calculateDelay(config, 5))
}
