package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a write collides with a unique constraint.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrStateConflict is returned when a conditional state update finds the
	// record in a different state than expected.
	ErrStateConflict = errors.New("persistence: state conflict")
	// ErrConstraintViolation is returned when a write breaks a CHECK or foreign key constraint.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
)
