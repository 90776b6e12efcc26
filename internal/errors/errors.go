package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gin-gonic/gin"
)

// ErrorCategory defines the type of error for proper handling
type ErrorCategory string

const (
	CategoryValidation        ErrorCategory = "validation"
	CategoryNotFound          ErrorCategory = "not_found"
	CategoryMissingData       ErrorCategory = "missing_data"
	CategoryDimensionMismatch ErrorCategory = "dimension_mismatch"
	CategoryModelFit          ErrorCategory = "model_fit"
	CategoryUpstream          ErrorCategory = "upstream"
	CategoryRateLimit         ErrorCategory = "rate_limit"
	CategoryInternal          ErrorCategory = "internal"
)

// AppError wraps an errbuilder error with the category and HTTP status the
// handlers need to render it.
type AppError struct {
	*errbuilder.ErrBuilder
	Category   ErrorCategory `json:"category"`
	HTTPStatus int           `json:"http_status"`
	Timestamp  time.Time     `json:"timestamp"`
	RequestID  string        `json:"request_id,omitempty"`
	StackTrace string        `json:"stack_trace,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", strings.ToUpper(string(e.Category)), e.ErrBuilder.Msg)
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.ErrBuilder.Unwrap()
}

// NewAppError creates an AppError from errbuilder with additional context
func NewAppError(builder *errbuilder.ErrBuilder, category ErrorCategory, httpStatus int) *AppError {
	return &AppError{
		ErrBuilder: builder,
		Category:   category,
		HTTPStatus: httpStatus,
		Timestamp:  time.Now(),
	}
}

// NewValidationError creates a validation error for malformed requests
func NewValidationError(message string, details ...interface{}) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(message)

	if len(details) > 0 {
		errorMap := errbuilder.ErrorMap{}
		errorMap.Set("validation_details", fmt.Errorf("%v", details[0]))
		builder = builder.WithDetails(errbuilder.NewErrDetails(errorMap))
	}

	return NewAppError(builder, CategoryValidation, http.StatusBadRequest)
}

// NewNotFoundError creates an error for a missing entity
func NewNotFoundError(entity, id string) *AppError {
	errorMap := errbuilder.ErrorMap{}
	errorMap.Set("entity", errors.New(entity))
	errorMap.Set("id", errors.New(id))

	builder := errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("%s not found", entity)).
		WithDetails(errbuilder.NewErrDetails(errorMap))

	return NewAppError(builder, CategoryNotFound, http.StatusNotFound)
}

// NewMissingDataError flags incomplete candidate or task data. These are
// recoverable: the pipeline substitutes defaults and continues.
func NewMissingDataError(field string, cause error) *AppError {
	errorMap := errbuilder.ErrorMap{}
	errorMap.Set("field", errors.New(field))

	builder := errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(fmt.Sprintf("missing data for %s", field)).
		WithDetails(errbuilder.NewErrDetails(errorMap))

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryMissingData, http.StatusUnprocessableEntity)
}

// NewDimensionMismatchError flags embedding or context vectors of the
// wrong length
func NewDimensionMismatchError(expected, got int) *AppError {
	errorMap := errbuilder.ErrorMap{}
	errorMap.Set("expected", fmt.Errorf("%d", expected))
	errorMap.Set("got", fmt.Errorf("%d", got))

	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg("vector dimension mismatch").
		WithDetails(errbuilder.NewErrDetails(errorMap))

	return NewAppError(builder, CategoryDimensionMismatch, http.StatusUnprocessableEntity)
}

// NewModelFitError flags a failed classifier refit. Selection falls back
// to the previous model or cold-start scoring, so this never fails a
// request on its own.
func NewModelFitError(candidateID string, cause error) *AppError {
	errorMap := errbuilder.ErrorMap{}
	errorMap.Set("candidate_id", errors.New(candidateID))

	builder := errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("model fit failed").
		WithDetails(errbuilder.NewErrDetails(errorMap))

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryModelFit, http.StatusInternalServerError)
}

// NewUpstreamError creates an error for an unavailable collaborator such
// as the embedding service or the shared store
func NewUpstreamError(serviceName string, cause error) *AppError {
	errorMap := errbuilder.ErrorMap{}
	errorMap.Set("service", errors.New(serviceName))

	builder := errbuilder.New().
		WithCode(errbuilder.CodeUnavailable).
		WithMsg(fmt.Sprintf("%s unavailable", serviceName)).
		WithDetails(errbuilder.NewErrDetails(errorMap))

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryUpstream, http.StatusBadGateway)
}

// NewRateLimitError creates a rate limit error
func NewRateLimitError(retryAfter string) *AppError {
	errorMap := errbuilder.ErrorMap{}
	errorMap.Set("retry_after", errors.New(retryAfter))

	builder := errbuilder.New().
		WithCode(errbuilder.CodeResourceExhausted).
		WithMsg("Rate limit exceeded").
		WithDetails(errbuilder.NewErrDetails(errorMap))

	return NewAppError(builder, CategoryRateLimit, http.StatusTooManyRequests)
}

// NewInternalError creates an internal server error
func NewInternalError(message string, cause error) *AppError {
	errorMap := errbuilder.ErrorMap{}
	errorMap.Set("internal_details", errors.New(message))

	builder := errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("Internal server error").
		WithDetails(errbuilder.NewErrDetails(errorMap))

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	appErr := NewAppError(builder, CategoryInternal, http.StatusInternalServerError)

	if gin.Mode() == gin.DebugMode || gin.Mode() == gin.TestMode {
		appErr.StackTrace = captureStackTrace()
	}

	return appErr
}

func captureStackTrace() string {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// ErrorHandler is a Gin middleware that provides centralized error handling
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last().Err
			appErr := ToAppError(err)

			LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}
	}
}

// RecoveryHandler provides panic recovery with structured error responses
func RecoveryHandler() gin.HandlerFunc {
	return gin.RecoveryWithWriter(nil, func(c *gin.Context, err interface{}) {
		appErr := NewInternalError(
			fmt.Sprintf("Panic recovered: %v", err),
			fmt.Errorf("%v", err),
		)
		appErr.StackTrace = captureStackTrace()

		LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
	})
}

// ToAppError converts any error to an AppError
func ToAppError(err error) *AppError {
	if err == nil {
		return nil
	}

	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	if ebErr, ok := err.(*errbuilder.ErrBuilder); ok {
		return NewAppError(ebErr, CategoryInternal, http.StatusInternalServerError)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return NewUpstreamError("request context", err)
	}

	errMsg := err.Error()
	if strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "no such host") ||
		strings.Contains(errMsg, "network is unreachable") ||
		strings.Contains(errMsg, "timeout") {
		return NewUpstreamError("network", err)
	}

	return NewInternalError("An unexpected error occurred", err)
}

// LogError logs an error with appropriate level and context
func LogError(c *gin.Context, err *AppError) {
	logEntry := slog.With(
		"error_category", err.Category,
		"error_code", err.ErrBuilder.ErrCode(),
		"http_status", err.HTTPStatus,
		"ip", c.ClientIP(),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"request_id", c.GetHeader("X-Request-ID"),
	)

	msg := err.ErrBuilder.Msg
	cause := err.ErrBuilder.Unwrap()

	switch err.Category {
	case CategoryValidation, CategoryNotFound, CategoryRateLimit:
		logEntry.Warn(msg)
	case CategoryMissingData, CategoryDimensionMismatch:
		logEntry.Warn(msg, "cause", cause)
	case CategoryUpstream, CategoryModelFit:
		logEntry.Info(msg, "cause", cause)
	default:
		logEntry.Error(msg, "cause", cause)
	}

	if err.StackTrace != "" && (gin.Mode() == gin.DebugMode || gin.Mode() == gin.TestMode) {
		logEntry.Debug("stack_trace", "trace", err.StackTrace)
	}
}

// IsRetryableError checks if an error should trigger a retry
func IsRetryableError(err error) bool {
	appErr := ToAppError(err)

	switch appErr.Category {
	case CategoryUpstream, CategoryRateLimit:
		return true
	default:
		return false
	}
}

// GetRetryDelay returns appropriate retry delay based on error type
func GetRetryDelay(err error, attempt int) time.Duration {
	appErr := ToAppError(err)

	baseDelay := time.Duration(100*attempt) * time.Millisecond

	switch appErr.Category {
	case CategoryRateLimit:
		return time.Duration(attempt*attempt) * time.Second
	case CategoryUpstream:
		return baseDelay * time.Duration(1<<attempt)
	default:
		return baseDelay
	}
}

// WrapError wraps an error with additional context
func WrapError(err error, message string, args ...interface{}) error {
	if err == nil {
		return nil
	}

	contextMsg := fmt.Sprintf(message, args...)
	return fmt.Errorf("%s: %w", contextMsg, err)
}

// SafeClose safely closes a resource and logs any errors
func SafeClose(closer interface{ Close() error }, resourceName string) {
	if closer == nil {
		return
	}

	if err := closer.Close(); err != nil {
		slog.Warn("Failed to close resource",
			"resource", resourceName,
			"error", err)
	}
}
