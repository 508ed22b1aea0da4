// SPDX-License-Identifier: Apache-2.0

package sqlfront

import (
	pgq "github.com/xataio/pg_query_go/v6"

	"github.com/ZakSingh/pgmg/pkg/pgobj"
)

// identifyCreateTable classifies a CREATE TABLE statement. Tables are
// tracked only as dependency targets: the engine never creates, updates, or
// drops them declaratively (spec.md §3).
func identifyCreateTable(stmt *pgq.CreateStmt) (*pgobj.SqlObject, error) {
	rel := stmt.GetRelation()
	if rel == nil {
		return nil, nil
	}

	var deps []pgobj.DependencyRef
	for _, elt := range stmt.GetTableElts() {
		switch {
		case elt.GetColumnDef() != nil:
			col := elt.GetColumnDef()
			deps = append(deps, collectTypeRefs(&pgq.Node{Node: &pgq.Node_TypeName{TypeName: col.GetTypeName()}})...)
			for _, c := range col.GetConstraints() {
				deps = append(deps, constraintRefs(c.GetConstraint())...)
			}
		case elt.GetConstraint() != nil:
			deps = append(deps, constraintRefs(elt.GetConstraint())...)
		}
	}

	return &pgobj.SqlObject{
		Kind:            pgobj.KindTable,
		QualifiedName:   pgobj.NewQualifiedName(rel.GetSchemaname(), rel.GetRelname()),
		RawDependencies: mergeRefs(deps),
	}, nil
}

// constraintRefs extracts the foreign-key target table and check-constraint
// referenced types/functions from a table or column constraint.
func constraintRefs(c *pgq.Constraint) []pgobj.DependencyRef {
	if c == nil {
		return nil
	}
	var refs []pgobj.DependencyRef
	if c.GetContype() == pgq.ConstrType_CONSTR_FOREIGN && c.GetPktable() != nil {
		pk := c.GetPktable()
		if !isBuiltinSchema(pk.GetSchemaname()) {
			refs = append(refs, pgobj.DependencyRef{KindHint: pgobj.KindTable, Schema: pk.GetSchemaname(), Name: pk.GetRelname()})
		}
	}
	if c.GetContype() == pgq.ConstrType_CONSTR_CHECK && c.GetRawExpr() != nil {
		refs = append(refs, collectFuncRefs(c.GetRawExpr())...)
		refs = append(refs, collectTypeRefs(c.GetRawExpr())...)
	}
	return refs
}
