package ratelimit

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// IPRateLimitMiddleware creates middleware for IP-based rate limiting
func (rl *RateLimiter) IPRateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ip := c.ClientIP()

		result, err := rl.AllowIP(ctx, ip)
		if err != nil {
			// Never block a request on a limiter failure
			slog.Error("Rate limit check failed", "ip", ip, "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			if rl.metrics != nil {
				rl.metrics.IncrementRateLimitIPBlock()
			}

			c.Header("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded for IP",
				"message":     fmt.Sprintf("You have exceeded the rate limit of %d requests per minute", result.Limit),
				"retry_after": int(result.RetryAfter.Seconds()),
				"reset_at":    result.ResetAt.Unix(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// EndpointRateLimitMiddleware creates middleware with a custom per-minute
// limit for one endpoint. Feedback submissions get a tighter limit than
// read-only suggestion calls.
func (rl *RateLimiter) EndpointRateLimitMiddleware(endpoint string, limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ip := c.ClientIP()

		key := fmt.Sprintf("ratelimit:endpoint:%s:%s", endpoint, ip)

		result, err := rl.allow(ctx, key, limit, time.Minute)
		if err != nil {
			slog.Error("Endpoint rate limit check failed", "endpoint", endpoint, "ip", ip, "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Endpoint-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Endpoint-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			if rl.metrics != nil {
				rl.metrics.IncrementRateLimitIPBlock()
			}

			c.Header("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("rate limit exceeded for endpoint: %s", endpoint),
				"message":     fmt.Sprintf("You have exceeded the rate limit of %d requests per minute for this endpoint", result.Limit),
				"retry_after": int(result.RetryAfter.Seconds()),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
