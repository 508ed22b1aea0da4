// SPDX-License-Identifier: Apache-2.0

package sqlfront

import (
	pgq "github.com/xataio/pg_query_go/v6"

	"github.com/ZakSingh/pgmg/pkg/pgobj"
)

// identifyView classifies a CREATE [OR REPLACE] VIEW statement. Dependencies
// are every relation and function referenced in the select expression
// (spec.md §4.1).
func identifyView(stmt *pgq.ViewStmt) (*pgobj.SqlObject, error) {
	rel := stmt.GetView()
	if rel == nil {
		return nil, nil
	}

	query := stmt.GetQuery()
	deps := mergeRefs(
		collectRelationRefs(query),
		collectFuncRefs(query),
	)

	return &pgobj.SqlObject{
		Kind:            pgobj.KindView,
		QualifiedName:   pgobj.NewQualifiedName(rel.GetSchemaname(), rel.GetRelname()),
		RawDependencies: deps,
	}, nil
}

// identifyMaterializedView classifies a CREATE MATERIALIZED VIEW statement
// (modeled as CreateTableAsStmt with Relkind == OBJECT_MATVIEW).
func identifyMaterializedView(stmt *pgq.CreateTableAsStmt) (*pgobj.SqlObject, error) {
	into := stmt.GetInto()
	if into == nil || into.GetRel() == nil {
		return nil, nil
	}
	rel := into.GetRel()

	query := stmt.GetQuery()
	deps := mergeRefs(
		collectRelationRefs(query),
		collectFuncRefs(query),
	)

	return &pgobj.SqlObject{
		Kind:            pgobj.KindMaterializedView,
		QualifiedName:   pgobj.NewQualifiedName(rel.GetSchemaname(), rel.GetRelname()),
		RawDependencies: deps,
	}, nil
}
