package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/example/drivingschool/internal/application"
)

// Level classifies every response for the UI toast.
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

const (
	msgBadRequestBody    = "La solicitud no tiene un formato válido."
	msgValidation        = "Revise los datos ingresados."
	msgNotFound          = "No se encontró el recurso solicitado."
	msgForbidden         = "No tiene permisos para realizar esta acción."
	msgUnauthenticated   = "Debe iniciar sesión para continuar."
	msgInvalidTransition = "La reunión ya no está programada y no admite este cambio."
	msgPersistence       = "No fue posible completar la operación. Intente nuevamente."
	msgUnavailable       = "La solicitud fue interrumpida. Intente nuevamente."
	msgInternal          = "Ocurrió un error inesperado en el servidor."
)

type envelope struct {
	Level   Level             `json:"level"`
	Message string            `json:"message"`
	Data    any               `json:"data"`
	Errors  map[string]string `json:"errors,omitempty"`
}

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	return responder{logger: defaultLogger(logger)}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) success(ctx context.Context, w http.ResponseWriter, status int, message string, data any) {
	r.writeJSON(ctx, w, status, envelope{Level: LevelSuccess, Message: message, Data: data})
}

func (r responder) warning(ctx context.Context, w http.ResponseWriter, status int, message string, data any) {
	r.writeJSON(ctx, w, status, envelope{Level: LevelWarning, Message: message, Data: data})
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	r.writeJSON(ctx, w, status, envelope{Level: LevelError, Message: message})
}

func (r responder) writeValidation(ctx context.Context, w http.ResponseWriter, fields map[string]string) {
	r.writeJSON(ctx, w, http.StatusBadRequest, envelope{Level: LevelWarning, Message: msgValidation, Errors: fields})
}

// handleServiceError maps application errors to a status and envelope.
// Persistence detail stays in the logs.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	var vErr *application.ValidationError
	switch {
	case err == nil:
		r.writeError(ctx, w, http.StatusInternalServerError, msgInternal)
	case errors.As(err, &vErr):
		r.writeValidation(ctx, w, vErr.FieldErrors)
	case errors.Is(err, application.ErrNotFound):
		r.writeError(ctx, w, http.StatusNotFound, msgNotFound)
	case errors.Is(err, application.ErrUnauthorized):
		r.writeError(ctx, w, http.StatusForbidden, msgForbidden)
	case errors.Is(err, application.ErrInvalidTransition):
		r.writeJSON(ctx, w, http.StatusBadRequest, envelope{Level: LevelWarning, Message: msgInvalidTransition})
	case errors.Is(err, application.ErrPersistence):
		r.writeError(ctx, w, http.StatusBadRequest, msgPersistence)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		r.writeError(ctx, w, http.StatusServiceUnavailable, msgUnavailable)
	default:
		r.loggerFor(ctx).ErrorContext(ctx, "unmapped service error", "error", err)
		r.writeError(ctx, w, http.StatusInternalServerError, msgInternal)
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}
