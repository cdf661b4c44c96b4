package http

import (
	"context"
	"net/http"
)

// RouterConfig wires handlers and middleware into the API router.
type RouterConfig struct {
	Meetings    *MeetingHandler
	Attendances *AttendanceHandler
	// Authenticate guards every API route. Nil leaves them open, which is only
	// useful in tests.
	Authenticate func(http.Handler) http.Handler
	// Health reports storage readiness for GET /healthz. Nil always answers ok.
	Health func(ctx context.Context) error
	// Middleware wraps the whole router, health check included.
	Middleware []func(http.Handler) http.Handler
}

// NewRouter builds the API handler.
func NewRouter(cfg RouterConfig) http.Handler {
	api := http.NewServeMux()

	if cfg.Meetings != nil {
		api.HandleFunc("POST /meetings", cfg.Meetings.Create)
		api.HandleFunc("GET /meetings", cfg.Meetings.List)
		api.HandleFunc("GET /meetings/active", cfg.Meetings.Active)
		api.HandleFunc("GET /meetings/{id}", cfg.Meetings.Get)
		api.HandleFunc("PATCH /meetings/{id}/state", cfg.Meetings.UpdateState)
		api.HandleFunc("GET /attendance-links/{token}", cfg.Meetings.ResolveLink)
	}

	if cfg.Attendances != nil {
		api.HandleFunc("POST /attendances", cfg.Attendances.Submit)
		api.HandleFunc("GET /meetings/{id}/attendances", cfg.Attendances.List)
		api.HandleFunc("GET /meetings/{id}/attendees-export", cfg.Attendances.Export)
	}

	var protected http.Handler = api
	if cfg.Authenticate != nil {
		protected = cfg.Authenticate(api)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if cfg.Health != nil {
			if err := cfg.Health(r.Context()); err != nil {
				handlerLogger(r.Context(), nil, "Router", "Health").WarnContext(r.Context(), "health check failed", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("unavailable"))
				return
			}
		}
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/", protected)

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}
	return handler
}
