// SPDX-License-Identifier: Apache-2.0

// Package plpgsqlcheck invokes the plpgsql_check extension over every
// Function/Procedure an apply created or updated (spec.md §4.8). No teacher
// file calls plpgsql_check_function — pgroll has no procedural-code static
// analysis step — so the JSON decoding shape here follows pgroll's general
// pattern of decoding a Postgres-side JSON function result into a Go struct
// (pkg/state/state.go's read_schema() callers), applied to plpgsql_check's
// own report schema instead.
package plpgsqlcheck

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ZakSingh/pgmg/pkg/db"
	"github.com/ZakSingh/pgmg/pkg/pgmgerrs"
	"github.com/ZakSingh/pgmg/pkg/pgmglog"
	"github.com/ZakSingh/pgmg/pkg/pgobj"
)

// report mirrors the subset of plpgsql_check's `format => 'json'` output
// this package reads: one function's issues, each with the fields spec.md
// §4.8 names (sqlstate, message, detail, hint, level, lineno).
type report struct {
	Issues []struct {
		Level     string `json:"level"`
		SqlState  string `json:"sqlState"`
		Message   string `json:"message"`
		Detail    string `json:"detail"`
		Hint      string `json:"hint"`
		Statement struct {
			LineNumber int `json:"lineNumber"`
		} `json:"statement"`
	} `json:"issues"`
}

// Check runs plpgsql_check_function over every Function/Procedure in
// objects, each in its own short-lived transaction so one object that
// chokes the checker doesn't prevent the others from being checked. Returns
// nil, nil (and logs once) if the extension isn't installed.
func Check(ctx context.Context, rdb *db.RDB, objects []*pgobj.SqlObject, log pgmglog.Logger) ([]pgmgerrs.PlpgsqlFinding, error) {
	installed, err := extensionInstalled(ctx, rdb)
	if err != nil {
		return nil, fmt.Errorf("checking for plpgsql_check: %w", err)
	}
	if !installed {
		log.Warn("plpgsql_check extension not installed, skipping static analysis")
		return nil, nil
	}

	var findings []pgmgerrs.PlpgsqlFinding
	for _, obj := range objects {
		if obj.Kind != pgobj.KindFunction && obj.Kind != pgobj.KindProcedure {
			continue
		}
		objFindings, err := checkOne(ctx, rdb, obj)
		if err != nil {
			log.Warn("plpgsql_check failed for object", "object", obj.QualifiedName.String(), "error", err.Error())
			continue
		}
		for _, f := range objFindings {
			log.LogPlpgsqlFinding(obj.QualifiedName.String(), f.Level, f.Message)
		}
		findings = append(findings, objFindings...)
	}
	return findings, nil
}

func extensionInstalled(ctx context.Context, rdb *db.RDB) (bool, error) {
	var exists bool
	row := rdb.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM pg_proc WHERE proname = 'plpgsql_check_function')")
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func checkOne(ctx context.Context, rdb *db.RDB, obj *pgobj.SqlObject) ([]pgmgerrs.PlpgsqlFinding, error) {
	tx, err := rdb.Raw().BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	oid, err := functionOID(ctx, tx, obj)
	if err != nil {
		return nil, err
	}
	if oid == 0 {
		return nil, nil
	}

	rows, err := tx.QueryContext(ctx, "SELECT plpgsql_check_function($1, format => 'json')", oid)
	if err != nil {
		return nil, fmt.Errorf("invoking plpgsql_check_function: %w", err)
	}
	defer rows.Close()

	var findings []pgmgerrs.PlpgsqlFinding
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var rep report
		if err := json.Unmarshal([]byte(raw), &rep); err != nil {
			continue
		}
		for _, issue := range rep.Issues {
			if issue.Level != "error" && issue.Level != "warning" {
				continue
			}
			findings = append(findings, pgmgerrs.PlpgsqlFinding{
				Object:   obj.Key(),
				SqlState: issue.SqlState,
				Level:    issue.Level,
				Message:  issue.Message,
				Detail:   issue.Detail,
				Hint:     issue.Hint,
				File:     obj.Location.File,
				Line:     obj.Location.StartLine + (issue.Statement.LineNumber - 1),
			})
		}
	}
	return findings, rows.Err()
}

// functionOID resolves obj to a single pg_proc oid. Functions the engine
// tracks are keyed by simple name, not full signature, so an overloaded
// function resolves to whichever overload pg_proc returns first — a known
// limitation noted in DESIGN.md.
func functionOID(ctx context.Context, tx *sql.Tx, obj *pgobj.SqlObject) (int, error) {
	prokind := "f"
	if obj.Kind == pgobj.KindProcedure {
		prokind = "p"
	}

	var oid int
	row := tx.QueryRowContext(ctx, `
		SELECT p.oid
		FROM pg_proc p
		JOIN pg_namespace n ON n.oid = p.pronamespace
		WHERE n.nspname = $1 AND p.proname = $2 AND p.prokind = $3
		LIMIT 1`,
		obj.Schema, obj.Name, prokind)
	if err := row.Scan(&oid); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, err
	}
	return oid, nil
}
