// SPDX-License-Identifier: Apache-2.0

// Package pgmgerrs collects the typed error kinds pgmg surfaces to callers
// (spec.md §7). Each kind is a distinct struct rather than a bare
// fmt.Errorf, following the teacher's per-kind error convention in
// pkg/migrations/errors.go (TableAlreadyExistsError, ColumnDoesNotExistError, ...).
package pgmgerrs

import (
	"fmt"

	"github.com/ZakSingh/pgmg/pkg/pgobj"
)

// ConfigurationError signals a missing connection string, invalid URL, or
// malformed TLS mode. Fatal; surfaced before any DB work.
type ConfigurationError struct {
	Reason string
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// SqlParseError signals that the parser rejected a statement.
type SqlParseError struct {
	Location pgobj.Location
	Preview  string
	Err      error
}

func (e SqlParseError) Error() string {
	return fmt.Sprintf("sql parse error in %s:%d-%d: %v (near %q)",
		e.Location.File, e.Location.StartLine, e.Location.EndLine, e.Err, e.Preview)
}

func (e SqlParseError) Unwrap() error { return e.Err }

// DuplicateObjectError signals that two source locations define the same
// (kind, key).
type DuplicateObjectError struct {
	Key       pgobj.Key
	FirstLoc  pgobj.Location
	SecondLoc pgobj.Location
}

func (e DuplicateObjectError) Error() string {
	return fmt.Sprintf("duplicate object %s defined at %s:%d and %s:%d",
		e.Key, e.FirstLoc.File, e.FirstLoc.StartLine, e.SecondLoc.File, e.SecondLoc.StartLine)
}

// CircularDependencyError signals a cycle found by the dependency resolver.
type CircularDependencyError struct {
	Members []pgobj.Key
}

func (e CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency among %d objects: %v", len(e.Members), e.Members)
}

// AdvisoryLockTimeoutError signals that the advisory lock could not be
// acquired within the configured timeout.
type AdvisoryLockTimeoutError struct {
	TimeoutSeconds float64
}

func (e AdvisoryLockTimeoutError) Error() string {
	return fmt.Sprintf("timed out after %.0fs waiting for the pgmg advisory lock; another apply may be running", e.TimeoutSeconds)
}

// MigrationFailedError signals a DB error inside a migration. The enclosing
// transaction is rolled back.
type MigrationFailedError struct {
	Name            string
	StatementIndex  int
	ServerMessage   string
	Err             error
}

func (e MigrationFailedError) Error() string {
	return fmt.Sprintf("migration %q failed at statement %d: %s: %v",
		e.Name, e.StatementIndex, e.ServerMessage, e.Err)
}

func (e MigrationFailedError) Unwrap() error { return e.Err }

// ObjectApplyFailedError signals a DB error while creating, updating, or
// dropping a managed object. The enclosing transaction is rolled back.
type ObjectApplyFailedError struct {
	Key           pgobj.Key
	ServerMessage string
	Err           error
}

func (e ObjectApplyFailedError) Error() string {
	return fmt.Sprintf("applying object %s failed: %s: %v", e.Key, e.ServerMessage, e.Err)
}

func (e ObjectApplyFailedError) Unwrap() error { return e.Err }

// FileReadError wraps an I/O failure while scanning the filesystem.
type FileReadError struct {
	Path string
	Err  error
}

func (e FileReadError) Error() string {
	return fmt.Sprintf("reading %q: %v", e.Path, e.Err)
}

func (e FileReadError) Unwrap() error { return e.Err }

// PlpgsqlFinding is a single static-analysis finding surfaced post-commit;
// it never rolls back the apply.
type PlpgsqlFinding struct {
	Object   pgobj.Key
	SqlState string
	Level    string // "error" | "warning" | "notice"
	Message  string
	Detail   string
	Hint     string
	File     string
	Line     int
}

func (f PlpgsqlFinding) String() string {
	return fmt.Sprintf("%s %s:%d [%s] %s (%s)", f.Level, f.File, f.Line, f.SqlState, f.Message, f.Object)
}

// NotificationOversizeError is a non-fatal, logged condition: the
// notification payload exceeded the channel's size budget and was dropped.
type NotificationOversizeError struct {
	Object pgobj.Key
	Bytes  int
}

func (e NotificationOversizeError) Error() string {
	return fmt.Sprintf("notification for %s dropped: payload is %d bytes, exceeds 7900 byte budget", e.Object, e.Bytes)
}

// MissingDependencyWarning is a non-fatal planning warning: a reference
// resolves to neither the scan nor the built-in catalog. Apply may still
// succeed if the database already supplies the object.
type MissingDependencyWarning struct {
	From pgobj.Key
	To   pgobj.Key
}

func (w MissingDependencyWarning) String() string {
	return fmt.Sprintf("%s references %s, which is neither scanned nor built-in; assuming it pre-exists", w.From, w.To)
}
