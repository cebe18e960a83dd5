package pandora

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with pipeline-specific context.
// This provides structured logging with consistent field names.
//
// The numeric core (codebook, aggregate, projection, sample) never logs;
// only batch orchestration does.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithJob adds a job field to the logger.
func (l *Logger) WithJob(job string) *Logger {
	return &Logger{
		Logger: l.Logger.With("job", job),
	}
}

// LogConfig logs one configuration attribute at startup.
func (l *Logger) LogConfig(ctx context.Context, key string, value any) {
	l.InfoContext(ctx, "configuration", "key", key, "value", value)
}

// LogProgress logs batch progress as a percentage.
func (l *Logger) LogProgress(ctx context.Context, done, total int) {
	if total <= 0 {
		return
	}
	l.InfoContext(ctx, "progress",
		"done", done,
		"total", total,
		"percent", done*100/total,
	)
}

// LogItem logs a single processed item.
func (l *Logger) LogItem(ctx context.Context, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "item failed",
			"name", name,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "item completed",
			"name", name,
		)
	}
}

// LogSummary logs the outcome of a batch run.
func (l *Logger) LogSummary(ctx context.Context, count, failed int, elapsed time.Duration) {
	if failed > 0 {
		l.WarnContext(ctx, "batch completed with failures",
			"total", count,
			"failed", failed,
			"success", count-failed,
			"elapsed", elapsed,
		)
	} else {
		l.InfoContext(ctx, "batch completed",
			"count", count,
			"elapsed", elapsed,
		)
	}
}
