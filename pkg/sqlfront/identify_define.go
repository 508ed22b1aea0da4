// SPDX-License-Identifier: Apache-2.0

package sqlfront

import (
	pgq "github.com/xataio/pg_query_go/v6"

	"github.com/ZakSingh/pgmg/pkg/pgobj"
)

// identifyDefine classifies a DefineStmt — the grammar production shared by
// CREATE AGGREGATE, CREATE OPERATOR, and a handful of object types pgmg
// doesn't model (CREATE COLLATION, CREATE TEXT SEARCH ...). Only the two
// kinds named in spec.md §4.1 are recognized; everything else falls through
// as unmodeled.
func identifyDefine(stmt *pgq.DefineStmt) (*pgobj.SqlObject, error) {
	switch stmt.GetKind() {
	case pgq.ObjectType_OBJECT_AGGREGATE:
		return identifyAggregate(stmt)
	case pgq.ObjectType_OBJECT_OPERATOR:
		return identifyOperator(stmt)
	default:
		return nil, nil
	}
}

// identifyAggregate classifies a CREATE AGGREGATE statement. Dependencies
// are its state-transition function, final function, and state type
// (spec.md §4.1: "CREATE AGGREGATE → Aggregate; dependencies: sfunc, ffunc,
// stype").
func identifyAggregate(stmt *pgq.DefineStmt) (*pgobj.SqlObject, error) {
	schema, name := splitAnyName(stmt.GetDefnames())
	if name == "" {
		return nil, nil
	}

	var deps []pgobj.DependencyRef
	for _, item := range stmt.GetDefinition() {
		def := item.GetDefElem()
		if def == nil {
			continue
		}
		switch def.GetDefname() {
		case "sfunc", "finalfunc", "msfunc", "minvfunc", "mfinalfunc":
			if fs, fn := splitAnyName(defArgNameList(def)); fn != "" {
				deps = append(deps, pgobj.DependencyRef{KindHint: pgobj.KindFunction, Schema: fs, Name: fn})
			}
		case "stype", "mstype":
			deps = append(deps, collectTypeRefs(def.GetArg())...)
		}
	}

	return &pgobj.SqlObject{
		Kind:            pgobj.KindAggregate,
		QualifiedName:   pgobj.NewQualifiedName(schema, name),
		RawDependencies: mergeRefs(deps),
	}, nil
}

// identifyOperator classifies a CREATE OPERATOR statement. It is keyed by
// (symbol, leftarg, rightarg) rather than by name alone, since the same
// symbol may be overloaded across operand type pairs (spec.md §4.1).
// Dependencies are the operand types and the implementing function.
func identifyOperator(stmt *pgq.DefineStmt) (*pgobj.SqlObject, error) {
	schema, symbol := splitAnyName(stmt.GetDefnames())
	if symbol == "" {
		return nil, nil
	}

	var leftArg, rightArg string
	var deps []pgobj.DependencyRef
	for _, item := range stmt.GetDefinition() {
		def := item.GetDefElem()
		if def == nil {
			continue
		}
		switch def.GetDefname() {
		case "leftarg":
			_, leftArg = splitAnyName(defTypeNameList(def))
			deps = append(deps, collectTypeRefs(def.GetArg())...)
		case "rightarg":
			_, rightArg = splitAnyName(defTypeNameList(def))
			deps = append(deps, collectTypeRefs(def.GetArg())...)
		case "procedure":
			if fs, fn := splitAnyName(defArgNameList(def)); fn != "" {
				deps = append(deps, pgobj.DependencyRef{KindHint: pgobj.KindFunction, Schema: fs, Name: fn})
			}
		}
	}

	return &pgobj.SqlObject{
		Kind:             pgobj.KindOperator,
		QualifiedName:    pgobj.NewQualifiedName(schema, symbol),
		OperatorLeftArg:  leftArg,
		OperatorRightArg: rightArg,
		RawDependencies:  mergeRefs(deps),
	}, nil
}

// defArgNameList recovers the dotted-name parts of a DefElem's argument when
// it names a function or other "any name" value.
func defArgNameList(def *pgq.DefElem) []*pgq.Node {
	arg := def.GetArg()
	if arg == nil {
		return nil
	}
	if list := arg.GetList(); list != nil {
		return list.GetItems()
	}
	if tn := arg.GetTypeName(); tn != nil {
		return tn.GetNames()
	}
	if s := arg.GetString_(); s != nil {
		return []*pgq.Node{arg}
	}
	return nil
}

// defTypeNameList recovers the dotted-name parts of a DefElem's argument
// when it names a type (leftarg/rightarg).
func defTypeNameList(def *pgq.DefElem) []*pgq.Node {
	arg := def.GetArg()
	if arg == nil {
		return nil
	}
	if tn := arg.GetTypeName(); tn != nil {
		return tn.GetNames()
	}
	if list := arg.GetList(); list != nil {
		return list.GetItems()
	}
	return nil
}
