package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/example/drivingschool/internal/persistence"
)

// errBusy marks transient lock contention worth retrying.
var errBusy = errors.New("sqlstore: database busy")

// ErrorMapper maps driver errors to persistence layer errors.
type ErrorMapper struct{}

// NewErrorMapper creates a new error mapper
func NewErrorMapper() *ErrorMapper {
	return &ErrorMapper{}
}

// MapError maps SQLite and PostgreSQL specific errors to persistence sentinels.
// The original error stays in the chain for logging.
func (em *ErrorMapper) MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return persistence.ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "unique_violation":
			return fmt.Errorf("%w: %w", persistence.ErrDuplicate, err)
		case "foreign_key_violation", "check_violation", "not_null_violation":
			return fmt.Errorf("%w: %w", persistence.ErrConstraintViolation, err)
		case "lock_not_available", "serialization_failure", "deadlock_detected":
			return fmt.Errorf("%w: %w", errBusy, err)
		}
		return err
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %w", persistence.ErrDuplicate, err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"),
		strings.Contains(msg, "CHECK constraint failed"),
		strings.Contains(msg, "NOT NULL constraint failed"):
		return fmt.Errorf("%w: %w", persistence.ErrConstraintViolation, err)
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "SQLITE_BUSY"):
		return fmt.Errorf("%w: %w", errBusy, err)
	}

	return err
}

// RetryConfig configures retry behavior for database operations
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig returns the retry configuration used by Store.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  50 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2.0,
	}
}

// RetryHelper retries operations that fail with lock contention.
type RetryHelper struct {
	config RetryConfig
	mapper *ErrorMapper
}

// NewRetryHelper creates a new retry helper
func NewRetryHelper(config RetryConfig) *RetryHelper {
	return &RetryHelper{config: config, mapper: NewErrorMapper()}
}

// WithRetry runs fn and retries it with exponential backoff while it reports
// a busy database. The returned error is already mapped.
func (rh *RetryHelper) WithRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	delay := rh.config.InitialDelay

	for attempt := 0; attempt <= rh.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * rh.config.BackoffFactor)
				if delay > rh.config.MaxDelay {
					delay = rh.config.MaxDelay
				}
			}
		}

		err := fn()
		if err == nil {
			return nil
		}

		lastErr = rh.mapper.MapError(err)
		if !errors.Is(lastErr, errBusy) {
			return lastErr
		}
	}

	return fmt.Errorf("operation failed after %d retries: %w", rh.config.MaxRetries, lastErr)
}
