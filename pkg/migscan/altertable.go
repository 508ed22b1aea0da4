// SPDX-License-Identifier: Apache-2.0

// Package migscan extracts the ALTER TABLE targets of a pending migration
// script, used by the planner to derive pre-drops for managed objects that
// depend on a table about to change shape (spec.md §4.10). Grounded on the
// teacher's pkg/sql2pgroll/alter_table.go, which walks the same
// *pg_query.AlterTableStmt/AlterTableCmd node shape to convert ALTER TABLE
// into versioned operations; here the walk only needs the statement's
// target relation, not its individual subcommands.
package migscan

import (
	"fmt"

	pgq "github.com/xataio/pg_query_go/v6"

	"github.com/ZakSingh/pgmg/pkg/pgobj"
)

// AlteredTables parses migrationSQL and returns the set of QualifiedName
// targets of its ALTER TABLE statements. Every other statement kind
// (CREATE, DROP, DML, ...) is ignored.
func AlteredTables(migrationSQL string) (map[pgobj.QualifiedName]bool, error) {
	result, err := pgq.Parse(migrationSQL)
	if err != nil {
		return nil, fmt.Errorf("parsing migration: %w", err)
	}

	targets := make(map[pgobj.QualifiedName]bool)
	for _, raw := range result.GetStmts() {
		stmt := raw.GetStmt().GetAlterTableStmt()
		if stmt == nil || stmt.GetObjtype() != pgq.ObjectType_OBJECT_TABLE {
			continue
		}
		rel := stmt.GetRelation()
		if rel == nil {
			continue
		}
		targets[pgobj.NewQualifiedName(rel.GetSchemaname(), rel.GetRelname())] = true
	}
	return targets, nil
}
