package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

type contextKey struct{}

// ContextWithLogger returns a derived context that carries the provided logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext extracts a logger previously attached to the context.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(contextKey{}).(*slog.Logger)
	return logger
}

// New builds the process logger. format is "json" or "text"; level is any
// value accepted by slog.Level.UnmarshalText. Unknown values fall back to
// JSON at info level.
func New(w io.Writer, format, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if strings.EqualFold(strings.TrimSpace(format), "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// ParseLevel converts a textual level to slog.Level, defaulting to info.
func ParseLevel(value string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return slog.LevelInfo
	}
	return level
}
