package migration

import (
	"errors"
	"fmt"
)

var (
	// ErrMigrationFailed indicates that a migration execution failed
	ErrMigrationFailed = errors.New("migration execution failed")

	// ErrInvalidMigrationFile indicates that a migration file is malformed or invalid
	ErrInvalidMigrationFile = errors.New("invalid migration file format")

	// ErrInvalidVersion indicates that a migration version is invalid or malformed
	ErrInvalidVersion = errors.New("invalid migration version")

	// ErrDuplicateVersion indicates that multiple migrations have the same version
	ErrDuplicateVersion = errors.New("duplicate migration version")

	// ErrVersionConflict indicates a gap in the sequence or an applied version without a file
	ErrVersionConflict = errors.New("migration version conflict")

	// ErrChecksumMismatch indicates that an applied migration file was edited afterwards
	ErrChecksumMismatch = errors.New("migration checksum mismatch")
)

// MigrationError wraps migration-specific errors with additional context
type MigrationError struct {
	Version   string
	FilePath  string
	Operation string
	Err       error
}

// Error implements the error interface
func (e *MigrationError) Error() string {
	if e.Version != "" {
		return fmt.Sprintf("migration %s (%s): %s: %v", e.Version, e.FilePath, e.Operation, e.Err)
	}
	return fmt.Sprintf("migration error (%s): %s: %v", e.FilePath, e.Operation, e.Err)
}

// Unwrap returns the underlying error for error unwrapping
func (e *MigrationError) Unwrap() error {
	return e.Err
}

// NewMigrationError creates a new MigrationError with context
func NewMigrationError(version, filePath, operation string, err error) *MigrationError {
	return &MigrationError{
		Version:   version,
		FilePath:  filePath,
		Operation: operation,
		Err:       err,
	}
}

// DatabaseError wraps database-related errors during migration operations
type DatabaseError struct {
	Version   string
	Query     string
	Operation string
	Err       error
}

// Error implements the error interface
func (e *DatabaseError) Error() string {
	if e.Version != "" {
		return fmt.Sprintf("database error in migration %s during %s: %v", e.Version, e.Operation, e.Err)
	}
	return fmt.Sprintf("database error during %s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error
func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// NewDatabaseError creates a new DatabaseError
func NewDatabaseError(version, query, operation string, err error) *DatabaseError {
	return &DatabaseError{
		Version:   version,
		Query:     query,
		Operation: operation,
		Err:       err,
	}
}
