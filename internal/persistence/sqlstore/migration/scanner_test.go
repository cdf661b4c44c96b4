package migration

import (
	"errors"
	"testing"
	"testing/fstest"
)

func TestScanMigrationsOrdersByVersion(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"migrations/010_add_index.sql":    {Data: []byte("CREATE INDEX idx ON t (a);")},
		"migrations/002_create_table.sql": {Data: []byte("-- Description: Create the table\nCREATE TABLE t (a TEXT);")},
		"migrations/README.md":            {Data: []byte("ignored")},
	}

	migrations, err := NewFileScanner().ScanMigrations(fsys, "migrations")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(migrations))
	}
	if migrations[0].Version != "002" || migrations[1].Version != "010" {
		t.Fatalf("unexpected order: %s, %s", migrations[0].Version, migrations[1].Version)
	}
	if migrations[0].Description != "Create the table" {
		t.Fatalf("expected description from header comment, got %q", migrations[0].Description)
	}
	if migrations[1].Description != "add index" {
		t.Fatalf("expected description from filename, got %q", migrations[1].Description)
	}
	if migrations[0].Checksum == "" || migrations[0].FilePath != "migrations/002_create_table.sql" {
		t.Fatalf("unexpected metadata: %+v", migrations[0])
	}
}

func TestScanMigrationsRejectsInvalidFiles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fsys fstest.MapFS
		want error
	}{
		{
			name: "bad filename",
			fsys: fstest.MapFS{"m/create.sql": {Data: []byte("SELECT 1;")}},
			want: ErrInvalidMigrationFile,
		},
		{
			name: "duplicate version",
			fsys: fstest.MapFS{
				"m/001_a.sql":  {Data: []byte("SELECT 1;")},
				"m/0001_b.sql": {Data: []byte("SELECT 2;")},
			},
			want: ErrDuplicateVersion,
		},
		{
			name: "empty file",
			fsys: fstest.MapFS{"m/001_empty.sql": {Data: []byte("  \n")}},
			want: ErrInvalidMigrationFile,
		},
		{
			name: "comments only",
			fsys: fstest.MapFS{"m/001_comment.sql": {Data: []byte("-- nothing here\n")}},
			want: ErrInvalidMigrationFile,
		},
		{
			name: "unbalanced parenthesis",
			fsys: fstest.MapFS{"m/001_broken.sql": {Data: []byte("CREATE TABLE t (a TEXT;")}},
			want: ErrInvalidMigrationFile,
		},
		{
			name: "unterminated string",
			fsys: fstest.MapFS{"m/001_quote.sql": {Data: []byte("INSERT INTO t VALUES ('a);")}},
			want: ErrInvalidMigrationFile,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewFileScanner().ScanMigrations(tc.fsys, "m")
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestSplitStatements(t *testing.T) {
	t.Parallel()

	statements := splitStatements("-- header\nCREATE TABLE a (x TEXT);\n\n-- second\nCREATE INDEX i ON a (x);\n")
	if len(statements) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(statements), statements)
	}
	if statements[1] != "CREATE INDEX i ON a (x)" {
		t.Fatalf("unexpected statement %q", statements[1])
	}
}
