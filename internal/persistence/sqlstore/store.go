// Package sqlstore implements the persistence repositories on top of sqlx.
//
// Two drivers are supported: "sqlite" (modernc.org/sqlite, the default and
// the one used in tests) and "postgres" (github.com/lib/pq) for hosted
// databases. Queries are written with ? placeholders and rebound per driver.
package sqlstore

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/example/drivingschool/internal/persistence/sqlstore/migration"
)

const (
	// DriverSQLite selects the embedded SQLite driver.
	DriverSQLite = "sqlite"
	// DriverPostgres selects the PostgreSQL driver.
	DriverPostgres = "postgres"

	// timestampLayout is fixed width so stored instants order lexically.
	timestampLayout = "2006-01-02T15:04:05.000000Z"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Config describes how to reach the database.
type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Store owns the connection pool shared by every repository.
type Store struct {
	db     *sqlx.DB
	mapper *ErrorMapper
	retry  *RetryHelper
	logger *slog.Logger
}

// Open connects to the configured database and verifies the connection.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Driver == "" {
		cfg.Driver = DriverSQLite
	}
	if cfg.Driver != DriverSQLite && cfg.Driver != DriverPostgres {
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", cfg.Driver)
	}

	db, err := sqlx.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", cfg.Driver, err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlstore: ping %s: %w", cfg.Driver, err)
	}

	return &Store{
		db:     db,
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
		logger: logger.With("component", "sqlstore", "driver", cfg.Driver),
	}, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping tests the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate applies the embedded schema migrations and returns how many ran.
func (s *Store) Migrate(ctx context.Context) (int, error) {
	manager := migration.NewManager(
		migration.NewFileScanner(),
		migration.NewSQLExecutor(s.db),
		migrationFiles,
		"migrations",
		s.logger,
	)
	return manager.RunMigrations(ctx)
}

// WithTransaction executes fn within a transaction. The transaction is rolled
// back when fn returns an error or panics and committed otherwise.
func (s *Store) WithTransaction(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed (rollback error: %v): %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(value string) (time.Time, error) {
	parsed, err := time.Parse(timestampLayout, value)
	if err != nil {
		return time.Parse(time.RFC3339Nano, value)
	}
	return parsed, nil
}
