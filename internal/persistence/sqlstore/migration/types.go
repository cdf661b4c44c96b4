package migration

import (
	"context"
	"io/fs"
	"time"
)

// Migration represents a database migration with its metadata and SQL content
type Migration struct {
	Version     string // Version identifier (e.g., "001", "002")
	Description string // Human-readable description of the migration
	SQL         string // SQL statements to execute
	FilePath    string // Path of the migration inside its file system
	Checksum    string // SHA256 of the SQL content
}

// AppliedMigration represents a migration that has been successfully applied
type AppliedMigration struct {
	Version       string
	AppliedAt     time.Time
	ExecutionTime time.Duration
	Checksum      string
}

// Status provides information about the current migration state
type Status struct {
	CurrentVersion    string
	PendingCount      int
	AppliedMigrations []AppliedMigration
	PendingMigrations []Migration
}

// FileScanner reads and parses migration files
type FileScanner interface {
	// ScanMigrations returns the migrations found in dir ordered by version
	ScanMigrations(fsys fs.FS, dir string) ([]Migration, error)

	// ValidateFileName checks if migration file follows naming convention
	ValidateFileName(filename string) error
}

// Executor handles the actual execution of migrations against the database
type Executor interface {
	ExecuteMigration(ctx context.Context, migration Migration) error
	InitializeVersionTable(ctx context.Context) error
	RecordMigration(ctx context.Context, migration Migration, executionTime time.Duration) error
	GetAppliedVersions(ctx context.Context) ([]AppliedMigration, error)
}
