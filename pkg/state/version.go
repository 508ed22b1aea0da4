// SPDX-License-Identifier: Apache-2.0

package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"golang.org/x/mod/semver"
)

// VersionCompatibility mirrors the teacher's pkg/state/version.go result
// type, adapted to pgmg's single pgmg_meta row (no migration history of
// schema versions to walk back through).
type VersionCompatibility int

const (
	VersionCompatNotInitialized VersionCompatibility = iota
	VersionCompatCheckSkipped
	VersionCompatSchemaOlder
	VersionCompatSchemaEqual
	VersionCompatSchemaNewer
)

// RecordVersion stamps the catalog with the engine version that
// initialized it. Init calls it on every run, inside the same transaction
// as its schema creation; it inserts a row only when pgmg_meta is still
// empty.
func (s *State) RecordVersion(ctx context.Context, tx *sql.Tx, engineVersion string) error {
	existsQuery := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s.pgmg_meta)", pq.QuoteIdentifier(s.schema))
	var exists bool
	if err := tx.QueryRowContext(ctx, existsQuery).Scan(&exists); err != nil {
		return fmt.Errorf("check pgmg_meta: %w", err)
	}
	if exists {
		return nil
	}

	insertQuery := fmt.Sprintf("INSERT INTO %s.pgmg_meta (engine_version) VALUES ($1)", pq.QuoteIdentifier(s.schema))
	_, err := tx.ExecContext(ctx, insertQuery, engineVersion)
	return err
}

// SchemaVersion retrieves the engine version stamped into pgmg_meta at
// catalog creation time.
func (s *State) SchemaVersion(ctx context.Context) (string, error) {
	query := fmt.Sprintf("SELECT engine_version FROM %s.pgmg_meta ORDER BY initialized_at DESC LIMIT 1", pq.QuoteIdentifier(s.schema))
	var version string
	err := s.db.QueryRowContext(ctx, query).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return version, err
}

// VersionCompatibility compares the running engine's version against the
// version that initialized the catalog, following the teacher's
// semver-via-x/mod comparison exactly (same ensureVPrefix/Canonical/Compare
// sequence), substituted onto pgmg's single-row pgmg_meta instead of a
// dedicated pgroll_version table.
func (s *State) VersionCompatibility(ctx context.Context, engineVersion string) (VersionCompatibility, error) {
	if engineVersion == "development" {
		return VersionCompatCheckSkipped, nil
	}

	schemaVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return VersionCompatNotInitialized, fmt.Errorf("get schema version: %w", err)
	}
	if schemaVersion == "" {
		return VersionCompatNotInitialized, nil
	}
	if schemaVersion == "development" {
		return VersionCompatCheckSkipped, nil
	}

	schemaVersion = ensureVPrefix(schemaVersion)
	engineVersion = ensureVPrefix(engineVersion)

	if !semver.IsValid(schemaVersion) || !semver.IsValid(engineVersion) {
		return VersionCompatCheckSkipped, nil
	}

	schemaVersion = semver.Canonical(schemaVersion)
	engineVersion = semver.Canonical(engineVersion)

	switch semver.Compare(schemaVersion, engineVersion) {
	case -1:
		return VersionCompatSchemaOlder, nil
	case 1:
		return VersionCompatSchemaNewer, nil
	default:
		return VersionCompatSchemaEqual, nil
	}
}

func ensureVPrefix(version string) string {
	if len(version) > 0 && version[0] != 'v' {
		return "v" + version
	}
	return version
}
