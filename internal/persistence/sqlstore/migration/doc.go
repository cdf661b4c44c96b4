// Package migration applies versioned SQL schema migrations.
//
// Migration files follow the {version}_{description}.sql naming convention
// and are read from an fs.FS, usually an embed.FS compiled into the binary.
// Each file runs inside its own transaction and is recorded in the
// schema_migrations table together with its checksum and execution time.
//
// Statements are written in the subset of SQL shared by SQLite and
// PostgreSQL; placeholders are rebound for the active driver.
package migration
