package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mileshq/miles-brain/internal/monitoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFallbackLimiter(config Config) *RateLimiter {
	redisClient := &RedisClient{enabled: false}
	return NewRateLimiter(redisClient, config, monitoring.NewMetrics())
}

func TestAllowIPFallbackMode(t *testing.T) {
	limiter := newFallbackLimiter(Config{IPLimitPerMin: 3, BurstMultiplier: 1})
	ctx := context.Background()

	allowed := 0
	for i := 0; i < 20; i++ {
		result, err := limiter.AllowIP(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, 3, result.Limit)
		if result.Allowed {
			allowed++
		}
	}

	// Token bucket enforces a floor burst of 5
	assert.GreaterOrEqual(t, allowed, 3)
	assert.LessOrEqual(t, allowed, 6)
}

func TestAllowIPBlockedSetsRetryAfter(t *testing.T) {
	limiter := newFallbackLimiter(Config{IPLimitPerMin: 1, BurstMultiplier: 1})
	ctx := context.Background()

	var blocked *Result
	for i := 0; i < 10; i++ {
		result, err := limiter.AllowIP(ctx, "10.0.0.2")
		require.NoError(t, err)
		if !result.Allowed {
			blocked = result
			break
		}
	}

	require.NotNil(t, blocked, "limit of 1/min must block within 10 requests")
	assert.Greater(t, blocked.RetryAfter, time.Duration(0))
}

func TestAllowIPIndependentPerIP(t *testing.T) {
	limiter := newFallbackLimiter(Config{IPLimitPerMin: 1, BurstMultiplier: 1})
	ctx := context.Background()

	for _, ip := range []string{"10.0.0.3", "10.0.0.4", "10.0.0.5"} {
		result, err := limiter.AllowIP(ctx, ip)
		require.NoError(t, err)
		assert.True(t, result.Allowed, "first request for %s should pass", ip)
	}
}

func TestRateLimiterStats(t *testing.T) {
	limiter := newFallbackLimiter(DefaultConfig())
	ctx := context.Background()

	_, err := limiter.AllowIP(ctx, "10.0.0.6")
	require.NoError(t, err)

	stats := limiter.GetStats()
	assert.False(t, stats["redis_enabled"].(bool))
	assert.Equal(t, 1, stats["fallback_limiters"].(int))
}

func TestRateLimiterConcurrency(t *testing.T) {
	limiter := newFallbackLimiter(DefaultConfig())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_, err := limiter.AllowIP(ctx, "10.0.0.7")
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
}
