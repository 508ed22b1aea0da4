// SPDX-License-Identifier: Apache-2.0

// Package db wraps the target database connection, grounded on the
// teacher's pkg/db/db.go (RDB wrapping *sql.DB). The applier needs the
// advisory lock, the apply transaction, and the lock's eventual release to
// all share one dedicated *sql.Conn rather than the pool, so RDB's job here
// is narrowed to opening that connection: spec.md §4.7 is explicit that the
// applier is a one-shot with no retries, so unlike the teacher's RDB this
// one does not wrap calls in a lock_timeout backoff loop.
package db

import (
	"context"
	"database/sql"
)

// RDB wraps a *sql.DB for the connection pool pgmg's Plan/Apply entry
// points open against the target database.
type RDB struct {
	DB *sql.DB
}

// Open connects to dsn and wraps the resulting *sql.DB.
func Open(dsn string) (*RDB, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	return &RDB{DB: conn}, nil
}

// QueryRowContext delegates directly to *sql.DB, used by pkg/plpgsqlcheck's
// extension presence check.
func (db *RDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.DB.QueryRowContext(ctx, query, args...)
}

// Raw returns the underlying *sql.DB, for callers that need BeginTx or a
// dedicated Conn (applyengine.Apply).
func (db *RDB) Raw() *sql.DB {
	return db.DB
}

func (db *RDB) Close() error {
	return db.DB.Close()
}
