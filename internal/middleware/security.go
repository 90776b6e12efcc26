// Package middleware holds the HTTP hardening applied in front of every
// route: security headers, a request deadline, and a content type gate for
// mutating requests.
package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// DefaultRequestTimeout bounds handler work per request. Selection and
// feedback are in-process computations plus a handful of SQLite queries, so
// anything slower indicates a stuck store.
const DefaultRequestTimeout = 15 * time.Second

// SecurityHeaders sets conservative response headers. The service is a
// JSON API with no browser frontend, so framing and sniffing are denied
// outright.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}

// RequestTimeout attaches a deadline to the request context so slow store
// operations abort instead of piling up.
func RequestTimeout(timeout time.Duration) gin.HandlerFunc {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireJSON rejects mutating requests whose body is not JSON. GET
// requests and empty bodies pass through.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.ContentLength == 0 {
			c.Next()
			return
		}
		contentType := c.GetHeader("Content-Type")
		if !strings.Contains(strings.ToLower(contentType), "application/json") {
			c.JSON(http.StatusUnsupportedMediaType, gin.H{
				"error": "content type must be application/json",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
