package application

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested meeting or attendance link does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrInvalidTransition is returned when a meeting is no longer in the state an operation requires.
	ErrInvalidTransition = errors.New("application: invalid state transition")
	// ErrPersistence wraps record store failures. Callers should show a generic message
	// and log the wrapped detail.
	ErrPersistence = errors.New("application: persistence failure")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error. The first message per field wins.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	if _, exists := v.FieldErrors[field]; exists {
		return
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}
