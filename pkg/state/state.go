// SPDX-License-Identifier: Apache-2.0

// Package state manages the two-table persisted catalog — applied
// migrations and object fingerprints — that the planner diffs scanned
// state against (spec.md §4.3). It is grounded on the teacher's
// pkg/state/state.go: a single large CREATE SCHEMA/TABLE IF NOT EXISTS
// blob, applied inside a pg_advisory_xact_lock-guarded transaction so
// concurrent first-run callers never race to create the schema twice.
package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/ZakSingh/pgmg/pkg/pgobj"
)

// catalogLockKey is the advisory lock pgmg uses to serialize catalog
// initialization, distinct from the per-database lock applyengine takes
// for the apply itself (spec.md §5).
const catalogLockKey int64 = 0x70676d67_696e6974

// State wraps the catalog schema inside the target database.
type State struct {
	db            *sql.DB
	schema        string
	engineVersion string
}

// New opens a State bound to the given catalog schema. The caller retains
// ownership of db (pgmg shares one connection across C3/C7/C9, unlike the
// teacher's State which opens its own). engineVersion defaults to
// "development" (compatibility checks are skipped for it, spec.md §4.1-4.10)
// unless overridden with WithEngineVersion.
func New(db *sql.DB, catalogSchema string, opts ...StateOpt) *State {
	s := &State{db: db, schema: catalogSchema, engineVersion: "development"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schema returns the catalog schema name.
func (s *State) Schema() string {
	return s.schema
}

// Init creates the catalog schema and tables if they don't already exist,
// guarded by an advisory lock so two pgmg processes racing on first run
// don't both attempt the DDL concurrently.
func (s *State) Init(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin catalog init: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", catalogLockKey); err != nil {
		return fmt.Errorf("acquire catalog init lock: %w", err)
	}

	stmt := fmt.Sprintf(sqlInit, pq.QuoteIdentifier(s.schema))
	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("initialize catalog schema: %w", err)
	}

	if err := s.RecordVersion(ctx, tx, s.engineVersion); err != nil {
		return fmt.Errorf("stamp catalog version: %w", err)
	}

	return tx.Commit()
}

// AppliedMigrations returns the set of migration file names already
// recorded in pgmg_migrations.
func (s *State) AppliedMigrations(ctx context.Context) (map[string]bool, error) {
	query := fmt.Sprintf("SELECT name FROM %s.pgmg_migrations", pq.QuoteIdentifier(s.schema))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		applied[name] = true
	}
	return applied, rows.Err()
}

// RecordMigration marks a migration file as applied, inside the caller's
// transaction (spec.md §4.3: "all writes to the catalog occur inside the
// same transaction as the DDL they describe").
func (s *State) RecordMigration(ctx context.Context, tx *sql.Tx, name string) error {
	query := fmt.Sprintf("INSERT INTO %s.pgmg_migrations (name) VALUES ($1)", pq.QuoteIdentifier(s.schema))
	_, err := tx.ExecContext(ctx, query, name)
	return err
}

// RowKey identifies a pgmg_state row the way the table itself does: kind
// plus the canonical object_name encoding, not the full structured Key
// (Extra is already folded into ObjectName by Key.CatalogName).
type RowKey struct {
	Kind       pgobj.Kind
	ObjectName string
}

// RowKeyOf derives the catalog row key for a resolved object key.
func RowKeyOf(k pgobj.Key) RowKey {
	return RowKey{Kind: k.Kind, ObjectName: k.CatalogName()}
}

// ObjectRecord is a single pgmg_state row (spec.md §3 ObjectRecord).
type ObjectRecord struct {
	Kind        pgobj.Kind
	ObjectName  string
	DDLHash     string
	LastApplied time.Time
}

// LoadObjects reads every row currently in pgmg_state.
func (s *State) LoadObjects(ctx context.Context) (map[RowKey]ObjectRecord, error) {
	query := fmt.Sprintf("SELECT object_type, object_name, ddl_hash, last_applied FROM %s.pgmg_state", pq.QuoteIdentifier(s.schema))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query object state: %w", err)
	}
	defer rows.Close()

	out := make(map[RowKey]ObjectRecord)
	for rows.Next() {
		var kindStr string
		var rec ObjectRecord
		if err := rows.Scan(&kindStr, &rec.ObjectName, &rec.DDLHash, &rec.LastApplied); err != nil {
			return nil, err
		}
		rec.Kind = pgobj.KindFromString(kindStr)
		out[RowKey{Kind: rec.Kind, ObjectName: rec.ObjectName}] = rec
	}
	return out, rows.Err()
}

// UpsertObject records an object's current fingerprint, inside the
// caller's apply transaction.
func (s *State) UpsertObject(ctx context.Context, tx *sql.Tx, key pgobj.Key, ddlHash string) error {
	query := fmt.Sprintf(`
		INSERT INTO %[1]s.pgmg_state (object_type, object_name, ddl_hash, last_applied)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (object_type, object_name)
		DO UPDATE SET ddl_hash = EXCLUDED.ddl_hash, last_applied = EXCLUDED.last_applied`,
		pq.QuoteIdentifier(s.schema))
	_, err := tx.ExecContext(ctx, query, key.Kind.String(), key.CatalogName(), ddlHash)
	return err
}

// DeleteObject removes a pgmg_state row, inside the caller's apply
// transaction.
func (s *State) DeleteObject(ctx context.Context, tx *sql.Tx, key pgobj.Key) error {
	query := fmt.Sprintf("DELETE FROM %s.pgmg_state WHERE object_type = $1 AND object_name = $2", pq.QuoteIdentifier(s.schema))
	_, err := tx.ExecContext(ctx, query, key.Kind.String(), key.CatalogName())
	return err
}
