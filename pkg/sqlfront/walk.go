// SPDX-License-Identifier: Apache-2.0

package sqlfront

import (
	"reflect"

	pgq "github.com/xataio/pg_query_go/v6"
)

// walk performs a generic depth-first traversal of a parse tree rooted at n,
// invoking visit on every *pgq.Node encountered (including n itself). The
// protobuf-generated node types expose their children only through a oneof
// wrapper (Node.Node), so we unwrap that by reflection on the concrete
// submessage rather than hand-writing a traversal case for every one of
// libpg_query's ~300 node types — only the handful of cases the callers
// care about (RangeVar, FuncCall, TypeName, ...) need explicit handling,
// and those are handled in refs.go via visit's own type switch.
func walk(n *pgq.Node, visit func(*pgq.Node)) {
	if n == nil {
		return
	}
	visit(n)

	inner := reflect.ValueOf(n.GetNode())
	if !inner.IsValid() || inner.Kind() != reflect.Ptr || inner.IsNil() {
		return
	}
	walkValue(inner.Elem(), visit)
}

// walkValue recurses into v's fields, descending into anything that is a
// *pgq.Node, a slice of *pgq.Node, or a nested struct/pointer/slice that
// might transitively contain one.
func walkValue(v reflect.Value, visit func(*pgq.Node)) {
	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			return
		}
		if node, ok := v.Interface().(*pgq.Node); ok {
			walk(node, visit)
			return
		}
		walkValue(v.Elem(), visit)
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			f := v.Field(i)
			if !f.CanInterface() {
				continue
			}
			walkValue(f, visit)
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			walkValue(v.Index(i), visit)
		}
	default:
		// scalars, strings, enums: nothing to descend into
	}
}
