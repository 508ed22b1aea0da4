// SPDX-License-Identifier: Apache-2.0

package sqlfront

import (
	pgq "github.com/xataio/pg_query_go/v6"

	"github.com/ZakSingh/pgmg/pkg/pgobj"
)

// identifyTrigger classifies a CREATE TRIGGER statement. Triggers are keyed
// on (name, table) rather than on (kind, qualified-name) alone, because the
// same trigger name may legally be attached to different tables (spec.md
// §3). Dependencies are the trigger function and the target relation.
func identifyTrigger(stmt *pgq.CreateTrigStmt) (*pgobj.SqlObject, error) {
	rel := stmt.GetRelation()
	if rel == nil || stmt.GetTrigname() == "" {
		return nil, nil
	}

	table := pgobj.NewQualifiedName(rel.GetSchemaname(), rel.GetRelname())
	funcSchema, funcName := splitAnyName(stmt.GetFuncname())

	deps := []pgobj.DependencyRef{
		{KindHint: pgobj.KindTable, Schema: table.Schema, Name: table.Name},
	}
	if funcName != "" {
		deps = append(deps, pgobj.DependencyRef{KindHint: pgobj.KindFunction, Schema: funcSchema, Name: funcName})
	}

	return &pgobj.SqlObject{
		Kind:            pgobj.KindTrigger,
		QualifiedName:   pgobj.NewQualifiedName(table.Schema, stmt.GetTrigname()),
		TriggerTable:    table,
		RawDependencies: deps,
	}, nil
}
