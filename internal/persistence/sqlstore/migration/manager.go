package migration

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"time"
)

// Manager orchestrates scanning, validating and applying migrations.
type Manager struct {
	scanner  FileScanner
	executor Executor
	fsys     fs.FS
	dir      string
	logger   *slog.Logger
}

// NewManager creates a Manager reading migrations from dir inside fsys.
func NewManager(scanner FileScanner, executor Executor, fsys fs.FS, dir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		scanner:  scanner,
		executor: executor,
		fsys:     fsys,
		dir:      dir,
		logger:   logger.With("component", "migration"),
	}
}

// RunMigrations executes all pending migrations in sequential order and
// returns the number of migrations applied.
func (m *Manager) RunMigrations(ctx context.Context) (int, error) {
	startTime := time.Now()

	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		m.logger.ErrorContext(ctx, "failed to initialize schema_migrations table", "error", err)
		return 0, fmt.Errorf("failed to initialize version table: %w", err)
	}

	status, err := m.Status(ctx)
	if err != nil {
		return 0, err
	}

	m.logger.InfoContext(ctx, "schema version checked",
		"current_version", status.CurrentVersion,
		"pending_count", status.PendingCount,
	)

	if status.PendingCount == 0 {
		return 0, nil
	}

	for i, migration := range status.PendingMigrations {
		logger := m.logger.With(
			"version", migration.Version,
			"description", migration.Description,
			"file", migration.FilePath,
			"checksum", migration.Checksum,
		)
		logger.InfoContext(ctx, "executing migration", "position", i+1, "total", status.PendingCount)

		migrationStart := time.Now()
		if err := m.executor.ExecuteMigration(ctx, migration); err != nil {
			logger.ErrorContext(ctx, "migration failed", "error", err)
			return i, NewMigrationError(migration.Version, migration.FilePath,
				"execute migration", fmt.Errorf("%w: %w", ErrMigrationFailed, err))
		}

		executionTime := time.Since(migrationStart)
		if err := m.executor.RecordMigration(ctx, migration, executionTime); err != nil {
			logger.ErrorContext(ctx, "failed to record migration", "error", err)
			return i, NewMigrationError(migration.Version, migration.FilePath,
				"record migration", fmt.Errorf("failed to record migration: %w", err))
		}

		logger.InfoContext(ctx, "migration applied", "duration", executionTime)
	}

	m.logger.InfoContext(ctx, "all migrations applied",
		"count", status.PendingCount,
		"duration", time.Since(startTime),
	)

	return status.PendingCount, nil
}

// Status reports applied and pending migrations after validating that the
// files on disk agree with the version table.
func (m *Manager) Status(ctx context.Context) (*Status, error) {
	available, err := m.scanner.ScanMigrations(m.fsys, m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan migrations: %w", err)
	}

	applied, err := m.executor.GetAppliedVersions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied versions: %w", err)
	}

	if err := validateSequence(available, applied); err != nil {
		return nil, fmt.Errorf("migration sequence validation failed: %w", err)
	}

	appliedSet := make(map[int]bool, len(applied))
	status := &Status{AppliedMigrations: applied}
	maxVersion := -1
	for _, a := range applied {
		number := versionNumber(a.Version)
		appliedSet[number] = true
		if number > maxVersion {
			maxVersion = number
			status.CurrentVersion = a.Version
		}
	}

	for _, migration := range available {
		if !appliedSet[versionNumber(migration.Version)] {
			status.PendingMigrations = append(status.PendingMigrations, migration)
		}
	}
	status.PendingCount = len(status.PendingMigrations)

	return status, nil
}

// validateSequence ensures there are no gaps in the available versions, that
// every applied version still has a file and that applied files were not edited.
func validateSequence(available []Migration, applied []AppliedMigration) error {
	byVersion := make(map[int]Migration, len(available))
	for _, migration := range available {
		byVersion[versionNumber(migration.Version)] = migration
	}

	if len(available) > 0 {
		first := versionNumber(available[0].Version)
		last := versionNumber(available[len(available)-1].Version)
		for version := first; version <= last; version++ {
			if _, ok := byVersion[version]; !ok {
				return fmt.Errorf("%w: missing migration version %03d in sequence", ErrVersionConflict, version)
			}
		}
	}

	for _, a := range applied {
		migration, ok := byVersion[versionNumber(a.Version)]
		if !ok {
			return fmt.Errorf("%w: applied migration %s not found in available migrations", ErrVersionConflict, a.Version)
		}
		if a.Checksum != "" && a.Checksum != migration.Checksum {
			return NewMigrationError(a.Version, migration.FilePath, "verify checksum", ErrChecksumMismatch)
		}
	}

	return nil
}
