// SPDX-License-Identifier: Apache-2.0

package scanner

import (
	"fmt"
	"io/fs"
	"strings"

	"github.com/ZakSingh/pgmg/pkg/fingerprint"
	"github.com/ZakSingh/pgmg/pkg/pgmgerrs"
	"github.com/ZakSingh/pgmg/pkg/pgmglog"
	"github.com/ZakSingh/pgmg/pkg/pgobj"
	"github.com/ZakSingh/pgmg/pkg/sqlfront"
)

// ScanCode recursively walks dir, parses every .sql file through the SQL
// front-end, and returns the combined list of recognized objects (spec.md
// §4.4). Files whose name contains ".test." are skipped — these hold
// fixture SQL for a package's own tests, not declarative objects pgmg
// manages. Statements the front-end doesn't recognize are logged at warn
// level with their file, line span, and an 80-character preview; they never
// fail the scan. A file the parser rejects fails the scan with a
// SqlParseError spanning the whole file. The same (kind, key) appearing in
// two source locations also fails the scan; triggers and comments are
// compared by their composite keys, so same-named ones attached to
// different parents are not duplicates.
func ScanCode(dir fs.FS, log pgmglog.Logger) ([]*pgobj.SqlObject, error) {
	var objects []*pgobj.SqlObject
	seen := make(map[pgobj.Key]pgobj.Location)

	err := fs.WalkDir(dir, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".sql") || strings.Contains(d.Name(), ".test.") {
			return nil
		}

		content, err := fs.ReadFile(dir, path)
		if err != nil {
			return fmt.Errorf("read %q: %w", path, err)
		}

		stmts, err := sqlfront.Split(string(content))
		if err != nil {
			return pgmgerrs.SqlParseError{
				Location: pgobj.Location{File: path, StartLine: 1, EndLine: strings.Count(string(content), "\n") + 1},
				Preview:  sqlfront.Preview(string(content)),
				Err:      err,
			}
		}

		for _, stmt := range stmts {
			obj, err := sqlfront.Identify(stmt.SQL)
			if err != nil || obj == nil {
				log.LogScanWarning(path, stmt.StartLine, stmt.EndLine, sqlfront.Preview(stmt.SQL))
				continue
			}

			obj.Location = pgobj.Location{File: path, StartLine: stmt.StartLine, EndLine: stmt.EndLine}
			fingerprint.Fingerprint(obj)

			key := obj.Key()
			if prior, dup := seen[key]; dup {
				log.LogDuplicateObject(key.Kind.String(), key.QualifiedName.String(), prior.File, prior.StartLine, obj.Location.File, obj.Location.StartLine)
				return pgmgerrs.DuplicateObjectError{
					Key:       key,
					FirstLoc:  prior,
					SecondLoc: obj.Location,
				}
			}
			seen[key] = obj.Location
			objects = append(objects, obj)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return objects, nil
}
