// SPDX-License-Identifier: Apache-2.0

package applyengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/ZakSingh/pgmg/pkg/pgobj"
)

// undefinedObjectErrorCode is Postgres's SQLSTATE for "the thing you asked
// to drop/comment-on doesn't exist" — tolerated for Comment deletion when
// the parent was itself structurally removed by a migration (spec.md §4.7
// Step 4, "Comment–parent coupling").
const undefinedObjectErrorCode pq.ErrorCode = "42704"

func quoteQualified(qn pgobj.QualifiedName) string {
	return pq.QuoteIdentifier(qn.Schema) + "." + pq.QuoteIdentifier(qn.Name)
}

// dropObject executes the DROP form appropriate to key.Kind (spec.md §4.7
// Step 4, DeleteObject). Every managed kind re-creates rather than alters,
// so every drop is unconditionally CASCADE: whatever else falls with it is
// expected to already be scheduled for re-creation by the planner's
// reverse-reachability pass.
func dropObject(ctx context.Context, tx *sql.Tx, key pgobj.Key) error {
	switch key.Kind {
	case pgobj.KindFunction:
		return dropOverloads(ctx, tx, "FUNCTION", "f", key.QualifiedName)
	case pgobj.KindProcedure:
		return dropOverloads(ctx, tx, "PROCEDURE", "p", key.QualifiedName)
	case pgobj.KindAggregate:
		return dropOverloads(ctx, tx, "AGGREGATE", "a", key.QualifiedName)
	case pgobj.KindView:
		return execf(ctx, tx, "DROP VIEW IF EXISTS %s CASCADE", quoteQualified(key.QualifiedName))
	case pgobj.KindMaterializedView:
		return execf(ctx, tx, "DROP MATERIALIZED VIEW IF EXISTS %s CASCADE", quoteQualified(key.QualifiedName))
	case pgobj.KindIndex:
		return execf(ctx, tx, "DROP INDEX IF EXISTS %s CASCADE", quoteQualified(key.QualifiedName))
	case pgobj.KindType:
		return execf(ctx, tx, "DROP TYPE IF EXISTS %s CASCADE", quoteQualified(key.QualifiedName))
	case pgobj.KindDomain:
		return execf(ctx, tx, "DROP DOMAIN IF EXISTS %s CASCADE", quoteQualified(key.QualifiedName))
	case pgobj.KindTrigger:
		return dropTrigger(ctx, tx, key)
	case pgobj.KindOperator:
		return dropOperator(ctx, tx, key)
	case pgobj.KindCronJob:
		_, err := tx.ExecContext(ctx, "SELECT cron.unschedule($1)", key.Name)
		return err
	case pgobj.KindComment:
		return dropComment(ctx, tx, key)
	default:
		return fmt.Errorf("no drop form for kind %s", key.Kind)
	}
}

func execf(ctx context.Context, tx *sql.Tx, format string, args ...any) error {
	_, err := tx.ExecContext(ctx, fmt.Sprintf(format, args...))
	return err
}

// dropOverloads enumerates every overload of (schema, simpleName) among
// routines of the given pg_proc.prokind and drops each by its exact
// signature — Postgres requires the full argument list whenever more than
// one overload shares a name, so a blind `DROP FUNCTION name CASCADE` fails
// precisely in the case this exists to handle (spec.md §4.7 Step 4, the
// Function/Procedure overload cascade).
func dropOverloads(ctx context.Context, tx *sql.Tx, keyword, prokind string, qn pgobj.QualifiedName) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT pg_get_function_identity_arguments(p.oid)
		FROM pg_proc p
		JOIN pg_namespace n ON n.oid = p.pronamespace
		WHERE n.nspname = $1 AND p.proname = $2 AND p.prokind = $3`,
		qn.Schema, qn.Name, prokind)
	if err != nil {
		return fmt.Errorf("enumerating %s overloads: %w", strings.ToLower(keyword), err)
	}
	defer rows.Close()

	var signatures []string
	for rows.Next() {
		var args string
		if err := rows.Scan(&args); err != nil {
			return err
		}
		signatures = append(signatures, args)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, args := range signatures {
		stmt := fmt.Sprintf("DROP %s IF EXISTS %s(%s) CASCADE", keyword, quoteQualified(qn), args)
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("dropping %s %s(%s): %w", strings.ToLower(keyword), qn, args, err)
		}
	}
	return nil
}

func dropTrigger(ctx context.Context, tx *sql.Tx, key pgobj.Key) error {
	table := tableFromExtra(key.Extra)
	return execf(ctx, tx, "DROP TRIGGER IF EXISTS %s ON %s CASCADE", pq.QuoteIdentifier(key.Name), quoteQualified(table))
}

func tableFromExtra(extra string) pgobj.QualifiedName {
	i := strings.LastIndex(extra, ".")
	if i == -1 {
		return pgobj.NewQualifiedName("", extra)
	}
	return pgobj.NewQualifiedName(extra[:i], extra[i+1:])
}

// dropOperator parses the "symbol(leftarg,rightarg)" key.Extra encoding
// OperatorKey produces, since DROP OPERATOR requires the explicit operand
// types whenever the symbol is overloaded.
func dropOperator(ctx context.Context, tx *sql.Tx, key pgobj.Key) error {
	open := strings.Index(key.Extra, "(")
	closeIdx := strings.LastIndex(key.Extra, ")")
	if open == -1 || closeIdx == -1 || closeIdx < open {
		return fmt.Errorf("malformed operator key %q", key.Extra)
	}
	args := key.Extra[open+1 : closeIdx]
	return execf(ctx, tx, "DROP OPERATOR IF EXISTS %s.%s(%s) CASCADE", pq.QuoteIdentifier(key.Schema), key.Name, args)
}

// dropComment implements the "parent missing" tolerance spec.md §4.7 Step 4
// requires: the COMMENT ... IS NULL statement itself still needs the
// parent to exist for most object types, so an undefined-object error is
// swallowed rather than propagated.
func dropComment(ctx context.Context, tx *sql.Tx, key pgobj.Key) error {
	parentKind, column := key.CommentTarget()
	stmt, err := commentNullStatement(parentKind, key.QualifiedName, column)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, stmt)
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == undefinedObjectErrorCode {
		return nil
	}
	return err
}

func commentNullStatement(parentKind pgobj.Kind, parent pgobj.QualifiedName, column string) (string, error) {
	target := quoteQualified(parent)
	switch parentKind {
	case pgobj.KindTable:
		if column != "" {
			return fmt.Sprintf("COMMENT ON COLUMN %s.%s IS NULL", target, pq.QuoteIdentifier(column)), nil
		}
		return fmt.Sprintf("COMMENT ON TABLE %s IS NULL", target), nil
	case pgobj.KindView:
		return fmt.Sprintf("COMMENT ON VIEW %s IS NULL", target), nil
	case pgobj.KindMaterializedView:
		return fmt.Sprintf("COMMENT ON MATERIALIZED VIEW %s IS NULL", target), nil
	case pgobj.KindIndex:
		return fmt.Sprintf("COMMENT ON INDEX %s IS NULL", target), nil
	case pgobj.KindFunction:
		return fmt.Sprintf("COMMENT ON FUNCTION %s IS NULL", target), nil
	case pgobj.KindProcedure:
		return fmt.Sprintf("COMMENT ON PROCEDURE %s IS NULL", target), nil
	case pgobj.KindType:
		return fmt.Sprintf("COMMENT ON TYPE %s IS NULL", target), nil
	case pgobj.KindDomain:
		return fmt.Sprintf("COMMENT ON DOMAIN %s IS NULL", target), nil
	case pgobj.KindTrigger:
		return fmt.Sprintf("COMMENT ON TRIGGER %s ON %s IS NULL", pq.QuoteIdentifier(parent.Name), quoteQualified(parent)), nil
	case pgobj.KindAggregate:
		return fmt.Sprintf("COMMENT ON AGGREGATE %s IS NULL", target), nil
	default:
		return "", fmt.Errorf("no COMMENT ... IS NULL form for parent kind %s", parentKind)
	}
}
