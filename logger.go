package vecand

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger is the engine's structured logger. Every record about a prepared
// query carries the same "query" attribute, so one query's rebinds and runs
// can be followed across a busy log.
type Logger struct {
	*slog.Logger
}

// NewLogger wraps handler. A nil handler logs text at info level to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger logs human-readable lines at level and above to w.
func NewTextLogger(w io.Writer, level slog.Leveler) *Logger {
	return NewLogger(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewJSONLogger logs one JSON object per record at level and above to w.
func NewJSONLogger(w io.Writer, level slog.Leveler) *Logger {
	return NewLogger(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// NoopLogger discards everything.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithQueryID tags the logger with a prepared query's id.
func (l *Logger) WithQueryID(id uint64) *Logger {
	return &Logger{Logger: l.With(slog.Uint64("query", id))}
}

// LogQuery records the outcome of one execution.
func (l *Logger) LogQuery(ctx context.Context, rows uint64, duration time.Duration, err error) {
	l.outcome(ctx, slog.LevelDebug, "query", err,
		slog.Uint64("rows", rows),
		slog.Duration("duration", duration),
	)
}

// LogRescan records a parameter rebind. params is the changed set.
func (l *Logger) LogRescan(ctx context.Context, params string, err error) {
	l.outcome(ctx, slog.LevelDebug, "rescan", err, slog.String("params", params))
}

// LogSnapshot records a snapshot write.
func (l *Logger) LogSnapshot(ctx context.Context, version uint64, indexes int, err error) {
	if err != nil {
		l.outcome(ctx, slog.LevelInfo, "snapshot", err)
		return
	}
	l.outcome(ctx, slog.LevelInfo, "snapshot", nil,
		slog.Uint64("version", version),
		slog.Int("indexes", indexes),
	)
}

// outcome logs "<op> failed" at error level, or "<op> completed" at level.
func (l *Logger) outcome(ctx context.Context, level slog.Level, op string, err error, attrs ...slog.Attr) {
	if err != nil {
		l.LogAttrs(ctx, slog.LevelError, op+" failed", append(attrs, slog.Any("error", err))...)
		return
	}
	l.LogAttrs(ctx, level, op+" completed", attrs...)
}
