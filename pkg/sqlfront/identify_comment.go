// SPDX-License-Identifier: Apache-2.0

package sqlfront

import (
	pgq "github.com/xataio/pg_query_go/v6"

	"github.com/ZakSingh/pgmg/pkg/pgobj"
)

// commentKindByObjtype maps the subset of COMMENT ON object types the engine
// models to the Kind that carries the comment (spec.md §4.1: "COMMENT ON …
// → Comment; dependency is the commented-on object, identified
// structurally").
var commentKindByObjtype = map[pgq.ObjectType]pgobj.Kind{
	pgq.ObjectType_OBJECT_TABLE:     pgobj.KindTable,
	pgq.ObjectType_OBJECT_COLUMN:    pgobj.KindTable,
	pgq.ObjectType_OBJECT_VIEW:      pgobj.KindView,
	pgq.ObjectType_OBJECT_MATVIEW:   pgobj.KindMaterializedView,
	pgq.ObjectType_OBJECT_INDEX:     pgobj.KindIndex,
	pgq.ObjectType_OBJECT_FUNCTION:  pgobj.KindFunction,
	pgq.ObjectType_OBJECT_PROCEDURE: pgobj.KindProcedure,
	pgq.ObjectType_OBJECT_TYPE:      pgobj.KindType,
	pgq.ObjectType_OBJECT_DOMAIN:    pgobj.KindDomain,
	pgq.ObjectType_OBJECT_TRIGGER:   pgobj.KindTrigger,
	pgq.ObjectType_OBJECT_AGGREGATE: pgobj.KindAggregate,
}

// identifyComment classifies a COMMENT ON statement. Only object types the
// engine otherwise models are recognized; comments on unmodeled object
// types (ROLE, DATABASE, EXTENSION, ...) are reported as unrecognized by
// Identify, same as any other out-of-scope statement.
func identifyComment(stmt *pgq.CommentStmt) (*pgobj.SqlObject, error) {
	kind, ok := commentKindByObjtype[stmt.GetObjtype()]
	if !ok {
		return nil, nil
	}

	schema, name, column := commentTarget(stmt)
	if name == "" {
		return nil, nil
	}

	dep := pgobj.DependencyRef{KindHint: kind, Schema: schema, Name: name}

	return &pgobj.SqlObject{
		Kind:              pgobj.KindComment,
		QualifiedName:     pgobj.NewQualifiedName(schema, name),
		Column:            column,
		CommentParentKind: kind,
		RawDependencies:   []pgobj.DependencyRef{dep},
	}, nil
}

// commentTarget extracts the schema, object name, and (for column comments)
// column name that a COMMENT ON statement's Object node names. Column
// comments encode "schema.table.column" as a dotted any-name list; every
// other modeled object type encodes a plain "schema.object" any-name list or
// an ObjectWithArgs for routines.
func commentTarget(stmt *pgq.CommentStmt) (schema, name, column string) {
	obj := stmt.GetObject()
	if obj == nil {
		return "", "", ""
	}

	if owa := obj.GetObjectWithArgs(); owa != nil {
		schema, name = splitAnyName(owa.GetObjname())
		return schema, name, ""
	}

	if list := obj.GetList(); list != nil {
		parts := list.GetItems()
		if stmt.GetObjtype() == pgq.ObjectType_OBJECT_COLUMN && len(parts) >= 1 {
			col := parts[len(parts)-1].GetString_().GetSval()
			schema, name = splitAnyName(parts[:len(parts)-1])
			return schema, name, col
		}
		schema, name = splitAnyName(parts)
		return schema, name, ""
	}

	if tn := obj.GetTypeName(); tn != nil {
		schema, name = splitAnyName(tn.GetNames())
		return schema, name, ""
	}

	if rv := obj.GetString_(); rv != nil {
		return "", rv.GetSval(), ""
	}

	return "", "", ""
}
