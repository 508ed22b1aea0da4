// SPDX-License-Identifier: Apache-2.0

// Package applyengine executes a Plan against a target database inside a
// single transaction, guarded by a cluster-wide advisory lock (spec.md
// §4.7). Grounded on the teacher's pkg/migrations/execute.go: a sequential
// driver issuing one blocking DB call after another over a single
// connection, never fanning work out across goroutines (spec.md §9
// "Coroutine-free execution").
package applyengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ZakSingh/pgmg/pkg/db"
	"github.com/ZakSingh/pgmg/pkg/notifyemit"
	"github.com/ZakSingh/pgmg/pkg/pgmgerrs"
	"github.com/ZakSingh/pgmg/pkg/pgmglog"
	"github.com/ZakSingh/pgmg/pkg/pgobj"
	"github.com/ZakSingh/pgmg/pkg/planner"
	"github.com/ZakSingh/pgmg/pkg/plpgsqlcheck"
	"github.com/ZakSingh/pgmg/pkg/sqlfront"
	"github.com/ZakSingh/pgmg/pkg/state"
)

// ApplyResult reports everything a run changed (spec.md §6 ApplyResult).
type ApplyResult struct {
	MigrationsApplied    []string
	ObjectsCreated       []string
	ObjectsUpdated       []string
	ObjectsDeleted       []string
	PlpgsqlErrorsFound   int
	PlpgsqlWarningsFound int
	Errors               []string
}

// Options configures a single Apply run.
type Options struct {
	ConnectionString    string
	CatalogSchema       string
	AdvisoryLockTimeout time.Duration
	DevelopmentMode     bool
	EmitNotifyEvents    bool
	CheckPlpgsql        bool
}

// Apply runs plan against the database rdb points at, all inside one
// transaction on a single dedicated connection (spec.md §4.7 Step 1-6): the
// advisory lock, the transaction, and its eventual release all share that
// connection, never the pool, since the lock is connection-scoped.
func Apply(ctx context.Context, rdb *db.RDB, st *state.State, plan *planner.Plan, opts Options, log pgmglog.Logger) (*ApplyResult, error) {
	result := &ApplyResult{}

	runID := uuid.NewString()
	started := time.Now()
	log.LogApplyStart(runID)

	conn, err := rdb.Raw().Conn(ctx)
	if err != nil {
		log.LogApplyFailed(runID, err)
		return nil, fmt.Errorf("acquiring dedicated connection: %w", err)
	}
	defer conn.Close()

	lockHash, err := acquireAdvisoryLock(ctx, conn, opts.ConnectionString, opts.AdvisoryLockTimeout, log)
	if err != nil {
		log.LogApplyFailed(runID, err)
		return nil, err
	}
	defer releaseAdvisoryLock(context.Background(), conn, lockHash)

	if err := st.Init(ctx); err != nil {
		log.LogApplyFailed(runID, err)
		return nil, fmt.Errorf("initializing state catalog: %w", err)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		log.LogApplyFailed(runID, err)
		return nil, fmt.Errorf("beginning apply transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	var touched []*pgobj.SqlObject

	for _, op := range plan.Operations {
		switch op.Kind {
		case planner.OpApplyMigration:
			if err := applyMigration(ctx, tx, st, op); err != nil {
				log.LogApplyFailed(runID, err)
				return nil, err
			}
			result.MigrationsApplied = append(result.MigrationsApplied, op.MigrationName)
			log.LogMigrationApplied(op.MigrationName)

		case planner.OpCreateObject, planner.OpUpdateObject:
			if err := applyObject(ctx, tx, st, op, opts, log); err != nil {
				log.LogApplyFailed(runID, err)
				return nil, err
			}
			name := op.Object.QualifiedName.String()
			if op.Kind == planner.OpCreateObject {
				result.ObjectsCreated = append(result.ObjectsCreated, name)
				log.LogObjectApplied("created", op.Object.Kind.String(), name)
			} else {
				result.ObjectsUpdated = append(result.ObjectsUpdated, name)
				log.LogObjectApplied("updated", op.Object.Kind.String(), name)
			}
			touched = append(touched, op.Object)

		case planner.OpDeleteObject:
			if err := applyDelete(ctx, tx, st, op); err != nil {
				log.LogApplyFailed(runID, err)
				return nil, err
			}
			if !op.PreDrop {
				result.ObjectsDeleted = append(result.ObjectsDeleted, op.DeleteKey.QualifiedName.String())
			}
			log.LogObjectApplied("deleted", op.DeleteKey.Kind.String(), op.DeleteKey.QualifiedName.String())
		}
	}

	if err := tx.Commit(); err != nil {
		log.LogApplyFailed(runID, err)
		return nil, fmt.Errorf("committing apply transaction: %w", err)
	}
	committed = true
	log.LogApplyComplete(runID, time.Since(started))

	if opts.CheckPlpgsql && len(touched) > 0 {
		findings, err := plpgsqlcheck.Check(ctx, rdb, touched, log)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
		}
		for _, f := range findings {
			if f.Level == "error" {
				result.PlpgsqlErrorsFound++
			} else {
				result.PlpgsqlWarningsFound++
			}
		}
	}

	return result, nil
}

// applyMigration executes a migration file one top-level statement at a
// time, rather than as a single batched Exec, so a failure can be attributed
// to the statement that caused it (spec.md §7 MigrationFailed: "name +
// statement index + server message"). Statements still run inside the
// caller's single apply transaction, so a failure partway through still
// rolls back everything the migration had already done.
func applyMigration(ctx context.Context, tx *sql.Tx, st *state.State, op planner.Operation) error {
	stmts, err := sqlfront.Split(op.MigrationSQL)
	if err != nil || len(stmts) == 0 {
		// Content the front-end's splitter can't parse as a statement
		// sequence is executed verbatim as a single batch, same as before
		// splitting existed; the index just can't be more precise than "1".
		if _, err := tx.ExecContext(ctx, op.MigrationSQL); err != nil {
			return pgmgerrs.MigrationFailedError{
				Name:           op.MigrationName,
				StatementIndex: 1,
				ServerMessage:  serverMessage(err),
				Err:            err,
			}
		}
	} else {
		for _, s := range stmts {
			if _, err := tx.ExecContext(ctx, s.SQL); err != nil {
				return pgmgerrs.MigrationFailedError{
					Name:           op.MigrationName,
					StatementIndex: s.Index + 1,
					ServerMessage:  serverMessage(err),
					Err:            err,
				}
			}
		}
	}

	if err := st.RecordMigration(ctx, tx, op.MigrationName); err != nil {
		return pgmgerrs.MigrationFailedError{Name: op.MigrationName, ServerMessage: serverMessage(err), Err: err}
	}
	return nil
}

func applyObject(ctx context.Context, tx *sql.Tx, st *state.State, op planner.Operation, opts Options, log pgmglog.Logger) error {
	o := op.Object
	key := o.Key()

	if op.OverloadCascade {
		if err := dropObject(ctx, tx, pgobj.Key{Kind: o.Kind, QualifiedName: o.QualifiedName}); err != nil {
			return pgmgerrs.ObjectApplyFailedError{Key: key, ServerMessage: serverMessage(err), Err: err}
		}
	}

	if _, err := tx.ExecContext(ctx, o.NormalizedDDL); err != nil {
		return pgmgerrs.ObjectApplyFailedError{Key: key, ServerMessage: serverMessage(err), Err: err}
	}

	if err := st.UpsertObject(ctx, tx, key, o.Fingerprint); err != nil {
		return pgmgerrs.ObjectApplyFailedError{Key: key, ServerMessage: serverMessage(err), Err: err}
	}

	if opts.DevelopmentMode && opts.EmitNotifyEvents {
		if err := notifyemit.Emit(ctx, tx, o, log); err != nil {
			var oversize pgmgerrs.NotificationOversizeError
			if !errors.As(err, &oversize) {
				log.Warn("notification emit failed", "object", key.String(), "error", err.Error())
			}
		}
	}

	return nil
}

func applyDelete(ctx context.Context, tx *sql.Tx, st *state.State, op planner.Operation) error {
	if err := dropObject(ctx, tx, op.DeleteKey); err != nil {
		return pgmgerrs.ObjectApplyFailedError{Key: op.DeleteKey, ServerMessage: serverMessage(err), Err: err}
	}
	if err := st.DeleteObject(ctx, tx, op.DeleteKey); err != nil {
		return pgmgerrs.ObjectApplyFailedError{Key: op.DeleteKey, ServerMessage: serverMessage(err), Err: err}
	}
	return nil
}

func serverMessage(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Message
	}
	return err.Error()
}
