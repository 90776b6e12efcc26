// Package resilience provides retry with exponential backoff for the two
// collaborators that can transiently fail: the shared SQLite store and the
// embedding service.
package resilience

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/mileshq/miles-brain/internal/errors"
)

// RetryConfig holds configuration for retry behavior
type RetryConfig struct {
	MaxAttempts     int              `json:"max_attempts"`
	InitialDelay    time.Duration    `json:"initial_delay"`
	MaxDelay        time.Duration    `json:"max_delay"`
	BackoffFactor   float64          `json:"backoff_factor"`
	JitterEnabled   bool             `json:"jitter_enabled"`
	RetryableErrors func(error) bool `json:"-"`
}

// DefaultRetryConfig returns sensible defaults for retry behavior
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2.0,
		JitterEnabled: true,
		RetryableErrors: func(err error) bool {
			return errors.IsRetryableError(err)
		},
	}
}

// StoreRetryConfig retries short SQLite contention windows on top of the
// default retryable set.
func StoreRetryConfig() RetryConfig {
	config := DefaultRetryConfig()
	config.MaxDelay = 2 * time.Second
	config.RetryableErrors = func(err error) bool {
		if err == nil {
			return false
		}
		msg := err.Error()
		if strings.Contains(msg, "database is locked") || strings.Contains(msg, "database table is locked") {
			return true
		}
		return errors.IsRetryableError(err)
	}
	return config
}

// RetryableFunc represents a function that can be retried
type RetryableFunc func() error

// RetryWithConfig executes a function with retry logic using custom configuration
func RetryWithConfig(ctx context.Context, config RetryConfig, fn RetryableFunc) error {
	var lastErr error

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if !config.RetryableErrors(err) {
			break
		}

		if attempt == config.MaxAttempts-1 {
			break
		}

		delay := calculateDelay(config, attempt)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return lastErr
}

// Retry executes a function with retry logic using default configuration
func Retry(ctx context.Context, fn RetryableFunc) error {
	return RetryWithConfig(ctx, DefaultRetryConfig(), fn)
}

// calculateDelay computes the delay for the next retry attempt
func calculateDelay(config RetryConfig, attempt int) time.Duration {
	delay := time.Duration(float64(config.InitialDelay) * math.Pow(config.BackoffFactor, float64(attempt)))

	if delay > config.MaxDelay {
		delay = config.MaxDelay
	}

	// Jitter prevents synchronized retries across callers
	if config.JitterEnabled && delay >= 10 {
		jitter := time.Duration(rand.Int63n(int64(delay / 10)))
		delay += jitter
	}

	return delay
}
