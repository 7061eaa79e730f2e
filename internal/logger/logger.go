// Package logger provides structured logging setup using slog.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// requestIDKey is the context key for request/correlation IDs.
type requestIDKey struct{}

// New creates a structured JSON logger writing to stdout at the given level.
func New(level string) (*slog.Logger, error) {
	return NewWithWriter(os.Stdout, level)
}

// NewWithWriter creates a structured JSON logger writing to w.
func NewWithWriter(w io.Writer, level string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: lvl,
	})), nil
}

// ParseLevel converts debug, info, warn or error into a slog level.
// An empty string means info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// WithRequestID returns a new context with the given request ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext extracts the request ID from the context.
func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// FromContext returns a logger with context fields (request ID, etc.) attached.
func FromContext(ctx context.Context, base *slog.Logger) *slog.Logger {
	if reqID := RequestIDFromContext(ctx); reqID != "" {
		return base.With("request_id", reqID)
	}
	return base
}
