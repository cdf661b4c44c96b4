package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/example/drivingschool/internal/application"
	"github.com/example/drivingschool/internal/auth"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

const tracerName = "github.com/example/drivingschool/internal/http"

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// Authenticate resolves the bearer token into an application.Principal and
// rejects the request with 401 when it is missing or invalid.
func Authenticate(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := bearerToken(r)
			if token == "" || verifier == nil {
				responder.writeError(ctx, w, http.StatusUnauthorized, msgUnauthenticated)
				return
			}

			identity, err := verifier.Verify(token)
			if err != nil {
				responder.loggerFor(ctx).WarnContext(ctx, "rejected bearer token", "error", err)
				responder.writeError(ctx, w, http.StatusUnauthorized, msgUnauthenticated)
				return
			}

			principal := application.Principal{
				DocumentID: identity.DocumentID,
				Name:       identity.Name,
				Role:       application.Role(identity.Role),
			}
			if principal.DocumentID == "" || !principal.Role.Valid() {
				responder.loggerFor(ctx).WarnContext(ctx, "token carries an unusable principal", "role", identity.Role)
				responder.writeError(ctx, w, http.StatusUnauthorized, msgUnauthenticated)
				return
			}

			if l := LoggerFromContext(ctx); l != nil {
				ctx = ContextWithLogger(ctx, l.With("principal_id", principal.DocumentID))
			}
			ctx = ContextWithPrincipal(ctx, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequestLogger assigns a request id, opens a server span and attaches a
// request scoped logger carrying both ids.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	base = defaultLogger(base)
	tracer := otel.Tracer(tracerName)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, id)

			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.request.method", r.Method),
					attribute.String("url.path", r.URL.Path),
				),
			)
			defer span.End()

			attrs := []any{
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			}
			if sc := span.SpanContext(); sc.HasTraceID() {
				attrs = append(attrs, "trace_id", sc.TraceID().String())
			}
			logger := base.With(attrs...)

			ctx = ContextWithRequestID(ctx, id)
			ctx = ContextWithLogger(ctx, logger)
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(rec, r.WithContext(ctx))

			span.SetAttributes(attribute.Int("http.response.status_code", rec.status))
			if rec.status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(rec.status))
			}
			logger.InfoContext(ctx, "request completed", "status", rec.status, "duration", time.Since(start))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}
