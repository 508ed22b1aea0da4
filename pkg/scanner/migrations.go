// SPDX-License-Identifier: Apache-2.0

// Package scanner implements the filesystem walk that turns a `migrations/`
// directory and a `code/` directory into the raw inputs the planner diffs
// against state (spec.md §4.4), grounded on the teacher's
// pkg/roll/roll.go's UnappliedMigrations: fs.Glob plus lexicographic
// ordering by filename, generalized from a single migrations directory to
// pgmg's two (migrations/ for append-only SQL, code/ for declarative
// objects).
package scanner

import (
	"fmt"
	"io/fs"
	"sort"
)

// MigrationFile is one append-only SQL script discovered under migrations/.
type MigrationFile struct {
	Name string
	SQL  string
}

// ScanMigrations lists *.sql files directly under dir (non-recursive),
// sorted lexicographically by name (spec.md §4.4).
func ScanMigrations(dir fs.FS) ([]MigrationFile, error) {
	names, err := fs.Glob(dir, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("scan migrations: %w", err)
	}
	sort.Strings(names)

	files := make([]MigrationFile, 0, len(names))
	for _, name := range names {
		content, err := fs.ReadFile(dir, name)
		if err != nil {
			return nil, fmt.Errorf("read migration %q: %w", name, err)
		}
		files = append(files, MigrationFile{Name: name, SQL: string(content)})
	}
	return files, nil
}
