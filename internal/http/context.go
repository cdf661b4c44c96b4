package http

import (
	"context"
	"log/slog"

	"github.com/example/drivingschool/internal/application"
	"github.com/example/drivingschool/internal/logging"
)

type contextKey string

const (
	principalContextKey contextKey = "principal"
	requestIDContextKey contextKey = "request_id"
)

// ContextWithPrincipal returns a derived context containing the authenticated principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithRequestID stores the identifier assigned to the current request.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}

// RequestIDFromContext returns the request identifier, or "" when none was assigned.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}

// ContextWithLogger attaches a request scoped logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext returns the request scoped logger, if any.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}
