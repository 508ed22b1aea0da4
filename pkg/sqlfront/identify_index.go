// SPDX-License-Identifier: Apache-2.0

package sqlfront

import (
	pgq "github.com/xataio/pg_query_go/v6"

	"github.com/ZakSingh/pgmg/pkg/pgobj"
)

// identifyIndex classifies a CREATE INDEX statement. Dependency is the
// indexed relation; expression indexes add referenced functions (spec.md
// §4.1).
func identifyIndex(stmt *pgq.IndexStmt) (*pgobj.SqlObject, error) {
	rel := stmt.GetRelation()
	if rel == nil || stmt.GetIdxname() == "" {
		return nil, nil
	}

	deps := []pgobj.DependencyRef{
		{KindHint: pgobj.KindTable, Schema: rel.GetSchemaname(), Name: rel.GetRelname()},
	}
	for _, param := range stmt.GetIndexParams() {
		if expr := param.GetIndexElem().GetExpr(); expr != nil {
			deps = append(deps, collectFuncRefs(expr)...)
		}
	}
	if where := stmt.GetWhereClause(); where != nil {
		deps = append(deps, collectFuncRefs(where)...)
	}

	return &pgobj.SqlObject{
		Kind:            pgobj.KindIndex,
		QualifiedName:   pgobj.NewQualifiedName(rel.GetSchemaname(), stmt.GetIdxname()),
		RawDependencies: mergeRefs(deps),
	}, nil
}
