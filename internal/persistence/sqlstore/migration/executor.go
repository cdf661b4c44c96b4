package migration

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQLExecutor implements Executor over any sqlx-supported driver.
type SQLExecutor struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewSQLExecutor creates a new migration executor
func NewSQLExecutor(db *sqlx.DB) *SQLExecutor {
	return &SQLExecutor{db: db, now: time.Now}
}

// ExecuteMigration runs a single migration within a transaction
func (e *SQLExecutor) ExecuteMigration(ctx context.Context, migration Migration) (err error) {
	statements := splitStatements(migration.SQL)
	if len(statements) == 0 {
		return NewMigrationError(migration.Version, migration.FilePath, "parse SQL",
			fmt.Errorf("%w: no SQL statements found in migration", ErrInvalidMigrationFile))
	}

	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return NewDatabaseError(migration.Version, "", "begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i, stmt := range statements {
		if _, execErr := tx.ExecContext(ctx, stmt); execErr != nil {
			err = NewDatabaseError(migration.Version, stmt, fmt.Sprintf("execute statement %d", i+1), execErr)
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		err = NewDatabaseError(migration.Version, "", "commit transaction", err)
		return err
	}

	return nil
}

// InitializeVersionTable creates the schema_migrations table if it doesn't exist
func (e *SQLExecutor) InitializeVersionTable(ctx context.Context) error {
	createTableSQL := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL,
			checksum TEXT,
			execution_time_ms INTEGER
		)
	`

	if _, err := e.db.ExecContext(ctx, createTableSQL); err != nil {
		return NewDatabaseError("", createTableSQL, "create schema_migrations table", err)
	}

	return nil
}

// RecordMigration records a successful migration in the version tracking table
func (e *SQLExecutor) RecordMigration(ctx context.Context, migration Migration, executionTime time.Duration) error {
	insertSQL := e.db.Rebind(`
		INSERT INTO schema_migrations (version, applied_at, checksum, execution_time_ms)
		VALUES (?, ?, ?, ?)
	`)

	appliedAt := e.now().UTC().Format(time.RFC3339)
	if _, err := e.db.ExecContext(ctx, insertSQL, migration.Version, appliedAt, migration.Checksum, executionTime.Milliseconds()); err != nil {
		return NewDatabaseError(migration.Version, insertSQL, "record migration", err)
	}

	return nil
}

type appliedRow struct {
	Version         string `db:"version"`
	AppliedAt       string `db:"applied_at"`
	ExecutionTimeMs int64  `db:"execution_time_ms"`
	Checksum        string `db:"checksum"`
}

// GetAppliedVersions returns all applied migration versions with timestamps
func (e *SQLExecutor) GetAppliedVersions(ctx context.Context) ([]AppliedMigration, error) {
	querySQL := `
		SELECT version, applied_at, COALESCE(execution_time_ms, 0) AS execution_time_ms, COALESCE(checksum, '') AS checksum
		FROM schema_migrations
		ORDER BY version ASC
	`

	var rows []appliedRow
	if err := e.db.SelectContext(ctx, &rows, querySQL); err != nil {
		return nil, NewDatabaseError("", querySQL, "get applied versions", err)
	}

	applied := make([]AppliedMigration, 0, len(rows))
	for _, row := range rows {
		appliedAt, parseErr := time.Parse(time.RFC3339, row.AppliedAt)
		if parseErr != nil {
			return nil, NewDatabaseError(row.Version, querySQL, "parse applied_at", parseErr)
		}
		applied = append(applied, AppliedMigration{
			Version:       row.Version,
			AppliedAt:     appliedAt,
			ExecutionTime: time.Duration(row.ExecutionTimeMs) * time.Millisecond,
			Checksum:      row.Checksum,
		})
	}

	return applied, nil
}

// splitStatements splits SQL content on semicolons and drops comment-only lines.
func splitStatements(sql string) []string {
	var statements []string
	for _, raw := range strings.Split(sql, ";") {
		var lines []string
		for _, line := range strings.Split(raw, "\n") {
			line = strings.TrimSpace(line)
			if line != "" && !strings.HasPrefix(line, "--") {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			statements = append(statements, strings.Join(lines, "\n"))
		}
	}
	return statements
}
