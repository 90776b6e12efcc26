package monitoring

import (
	"log/slog"
	"os"
	"time"
)

// Logger provides enhanced structured logging with context
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new JSON logger at the given level
func NewLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})

	return &Logger{
		Logger: slog.New(handler),
	}
}

// ParseLevel maps a config string to a slog level, defaulting to info
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// RequestLogger logs HTTP request details
func (l *Logger) RequestLogger(method, path, ip, userAgent string, statusCode int, duration time.Duration) {
	l.Info("HTTP Request",
		"method", method,
		"path", path,
		"ip", ip,
		"user_agent", userAgent,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// SelectionLogger logs one bandit selection
func (l *Logger) SelectionLogger(taskID, candidateID string, score float64, exploratory, coldStart bool, pool int) {
	l.Info("Candidate Selected",
		"task_id", taskID,
		"candidate_id", candidateID,
		"score", score,
		"exploratory", exploratory,
		"cold_start", coldStart,
		"pool_size", pool,
	)
}

// FeedbackLogger logs a processed assignment outcome
func (l *Logger) FeedbackLogger(assignmentID, candidateID string, rawReward, clippedReward, productivity float64) {
	l.Info("Feedback Processed",
		"assignment_id", assignmentID,
		"candidate_id", candidateID,
		"raw_reward", rawReward,
		"clipped_reward", clippedReward,
		"productivity", productivity,
	)
}

// ModelFitLogger logs the outcome of a classifier refit
func (l *Logger) ModelFitLogger(candidateID string, samples int, err error) {
	if err != nil {
		l.Warn("Model Fit Failed",
			"candidate_id", candidateID,
			"samples", samples,
			"error", err.Error(),
		)
		return
	}
	l.Debug("Model Fit Completed",
		"candidate_id", candidateID,
		"samples", samples,
	)
}

// UpstreamLogger logs calls to external collaborators
func (l *Logger) UpstreamLogger(service, operation string, duration time.Duration, err error) {
	if err != nil {
		l.Warn("Upstream Call Failed",
			"service", service,
			"operation", operation,
			"duration_ms", duration.Milliseconds(),
			"error", err.Error(),
		)
		return
	}
	l.Debug("Upstream Call",
		"service", service,
		"operation", operation,
		"duration_ms", duration.Milliseconds(),
	)
}

// SystemLogger logs system-level events
func (l *Logger) SystemLogger(event, details string) {
	l.Info("System Event",
		"event", event,
		"details", details,
		"uptime", time.Since(startTime).String(),
	)
}

var startTime = time.Now()
