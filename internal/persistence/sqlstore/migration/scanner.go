package migration

import (
	"crypto/sha256"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

type fileScanner struct {
	// pattern matches {version}_{description}.sql
	pattern *regexp.Regexp
}

// NewFileScanner creates a new FileScanner implementation
func NewFileScanner() FileScanner {
	return &fileScanner{
		pattern: regexp.MustCompile(`^(\d+)_([a-zA-Z0-9_-]+)\.sql$`),
	}
}

// ScanMigrations scans dir inside fsys for migration files
func (s *fileScanner) ScanMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, NewMigrationError("", dir, "read directory", err)
	}

	var migrations []Migration
	versions := make(map[int]string)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		if err := s.ValidateFileName(entry.Name()); err != nil {
			return nil, NewMigrationError("", entry.Name(), "validate filename", err)
		}

		filePath := path.Join(dir, entry.Name())
		migration, err := s.parseMigrationFile(fsys, filePath)
		if err != nil {
			return nil, err
		}

		number, _ := strconv.Atoi(migration.Version)
		if existing, ok := versions[number]; ok {
			return nil, NewMigrationError(migration.Version, entry.Name(), "check duplicates",
				fmt.Errorf("%w: version %s found in both %s and %s",
					ErrDuplicateVersion, migration.Version, existing, entry.Name()))
		}
		versions[number] = entry.Name()

		migrations = append(migrations, migration)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return versionNumber(migrations[i].Version) < versionNumber(migrations[j].Version)
	})

	return migrations, nil
}

// ValidateFileName checks if migration file follows naming convention
func (s *fileScanner) ValidateFileName(filename string) error {
	matches := s.pattern.FindStringSubmatch(filename)
	if len(matches) != 3 {
		return fmt.Errorf("%w: filename '%s' does not match pattern '{version}_{description}.sql'",
			ErrInvalidMigrationFile, filename)
	}
	if _, err := strconv.Atoi(matches[1]); err != nil {
		return fmt.Errorf("%w: version '%s' in filename '%s' is not a valid number",
			ErrInvalidVersion, matches[1], filename)
	}
	return nil
}

func (s *fileScanner) parseMigrationFile(fsys fs.FS, filePath string) (Migration, error) {
	matches := s.pattern.FindStringSubmatch(path.Base(filePath))
	version := matches[1]

	content, err := fs.ReadFile(fsys, filePath)
	if err != nil {
		return Migration{}, NewMigrationError(version, filePath, "read file", err)
	}

	sql := string(content)
	if strings.TrimSpace(sql) == "" {
		return Migration{}, NewMigrationError(version, filePath, "validate content",
			fmt.Errorf("%w: migration file is empty", ErrInvalidMigrationFile))
	}

	if err := validateSQLSyntax(sql); err != nil {
		return Migration{}, NewMigrationError(version, filePath, "validate SQL syntax", err)
	}

	description := descriptionFromContent(sql)
	if description == "" {
		description = strings.ReplaceAll(matches[2], "_", " ")
	}

	return Migration{
		Version:     version,
		Description: description,
		SQL:         sql,
		FilePath:    filePath,
		Checksum:    fmt.Sprintf("%x", sha256.Sum256(content)),
	}, nil
}

func validateSQLSyntax(sql string) error {
	clean := stripComments(sql)
	if strings.TrimSpace(clean) == "" {
		return fmt.Errorf("%w: no SQL statements found after removing comments", ErrInvalidMigrationFile)
	}

	depth := 0
	for _, char := range clean {
		switch char {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return fmt.Errorf("%w: unmatched closing parenthesis", ErrInvalidMigrationFile)
			}
		}
	}
	if depth != 0 {
		return fmt.Errorf("%w: unmatched opening parenthesis", ErrInvalidMigrationFile)
	}

	if strings.Count(clean, "'")%2 != 0 {
		return fmt.Errorf("%w: unterminated string literal", ErrInvalidMigrationFile)
	}

	return nil
}

func stripComments(sql string) string {
	lines := strings.Split(sql, "\n")
	clean := make([]string, 0, len(lines))
	for _, line := range lines {
		if idx := strings.Index(line, "--"); idx != -1 {
			line = line[:idx]
		}
		if line = strings.TrimSpace(line); line != "" {
			clean = append(clean, line)
		}
	}
	return strings.Join(clean, "\n")
}

// descriptionFromContent reads a leading "-- Description: ..." comment.
func descriptionFromContent(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "--") {
			break
		}
		if rest, ok := strings.CutPrefix(line, "-- Description:"); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

func versionNumber(version string) int {
	n, _ := strconv.Atoi(version)
	return n
}
