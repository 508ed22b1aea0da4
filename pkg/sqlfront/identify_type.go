// SPDX-License-Identifier: Apache-2.0

package sqlfront

import (
	pgq "github.com/xataio/pg_query_go/v6"

	"github.com/ZakSingh/pgmg/pkg/pgobj"
)

// identifyCompositeType classifies a CREATE TYPE ... AS (...) statement.
// Dependencies are the types of its member columns (spec.md §4.1).
func identifyCompositeType(stmt *pgq.CompositeTypeStmt) (*pgobj.SqlObject, error) {
	rel := stmt.GetTypevar()
	if rel == nil {
		return nil, nil
	}

	var deps []pgobj.DependencyRef
	for _, elt := range stmt.GetColdeflist() {
		col := elt.GetColumnDef()
		if col == nil {
			continue
		}
		deps = append(deps, collectTypeRefs(&pgq.Node{Node: &pgq.Node_TypeName{TypeName: col.GetTypeName()}})...)
	}

	return &pgobj.SqlObject{
		Kind:            pgobj.KindType,
		QualifiedName:   pgobj.NewQualifiedName(rel.GetSchemaname(), rel.GetRelname()),
		RawDependencies: mergeRefs(deps),
	}, nil
}

// identifyEnumType classifies a CREATE TYPE ... AS ENUM (...) statement. An
// enum has no dependencies of its own: its members are string labels, not
// references to other objects.
func identifyEnumType(stmt *pgq.CreateEnumStmt) (*pgobj.SqlObject, error) {
	schema, name := splitAnyName(stmt.GetTypeName())
	if name == "" {
		return nil, nil
	}
	return &pgobj.SqlObject{
		Kind:          pgobj.KindType,
		QualifiedName: pgobj.NewQualifiedName(schema, name),
	}, nil
}

// identifyDomain classifies a CREATE DOMAIN statement. Dependencies are the
// base type and any functions referenced by CHECK constraints (spec.md
// §4.1).
func identifyDomain(stmt *pgq.CreateDomainStmt) (*pgobj.SqlObject, error) {
	schema, name := splitAnyName(stmt.GetDomainname())
	if name == "" {
		return nil, nil
	}

	deps := collectTypeRefs(&pgq.Node{Node: &pgq.Node_TypeName{TypeName: stmt.GetTypeName()}})
	for _, c := range stmt.GetConstraints() {
		deps = append(deps, constraintRefs(c.GetConstraint())...)
	}

	return &pgobj.SqlObject{
		Kind:            pgobj.KindDomain,
		QualifiedName:   pgobj.NewQualifiedName(schema, name),
		RawDependencies: mergeRefs(deps),
	}, nil
}
