// SPDX-License-Identifier: Apache-2.0

package sqlfront

import (
	"strings"

	pgq "github.com/xataio/pg_query_go/v6"

	"github.com/ZakSingh/pgmg/pkg/pgobj"
)

// collectRelationRefs walks node and returns every table/view reference
// (RangeVar) it contains, dropping references into built-in schemas.
func collectRelationRefs(node *pgq.Node) []pgobj.DependencyRef {
	var refs []pgobj.DependencyRef
	walk(node, func(n *pgq.Node) {
		rv := n.GetRangeVar()
		if rv == nil {
			return
		}
		if isBuiltinSchema(rv.GetSchemaname()) {
			return
		}
		refs = append(refs, pgobj.DependencyRef{KindHint: pgobj.KindTable, Schema: rv.GetSchemaname(), Name: rv.GetRelname()})
	})
	return refs
}

// collectFuncRefs walks node and returns every function call (FuncCall) it
// contains, dropping references to built-in functions.
func collectFuncRefs(node *pgq.Node) []pgobj.DependencyRef {
	var refs []pgobj.DependencyRef
	walk(node, func(n *pgq.Node) {
		fc := n.GetFuncCall()
		if fc == nil {
			return
		}
		schema, name := splitAnyName(fc.GetFuncname())
		if name == "" {
			return
		}
		if schema == "" && isBuiltinFunc(name) {
			return
		}
		if isBuiltinSchema(schema) {
			return
		}
		refs = append(refs, pgobj.DependencyRef{KindHint: pgobj.KindFunction, Schema: schema, Name: name})
	})
	return refs
}

// collectTypeRefs walks node and returns every named type (TypeName) it
// contains, dropping references to built-in types.
func collectTypeRefs(node *pgq.Node) []pgobj.DependencyRef {
	var refs []pgobj.DependencyRef
	walk(node, func(n *pgq.Node) {
		tn := n.GetTypeName()
		if tn == nil {
			return
		}
		schema, name := splitAnyName(tn.GetNames())
		if name == "" {
			return
		}
		if schema == "" && isBuiltinType(name) {
			return
		}
		if isBuiltinSchema(schema) {
			return
		}
		refs = append(refs, pgobj.DependencyRef{KindHint: pgobj.KindType, Schema: schema, Name: name})
	})
	return refs
}

// splitAnyName splits a dotted identifier list (as produced for function
// names, type names, and similar "any name" productions) into an optional
// schema and a required final name component.
func splitAnyName(parts []*pgq.Node) (schema, name string) {
	var parts2 []string
	for _, p := range parts {
		if s := p.GetString_(); s != nil {
			parts2 = append(parts2, s.GetSval())
		}
	}
	switch len(parts2) {
	case 0:
		return "", ""
	case 1:
		return "", parts2[0]
	default:
		return strings.Join(parts2[:len(parts2)-1], "."), parts2[len(parts2)-1]
	}
}

// dedupeRefs removes duplicate (schema, name, kind-hint) triples, preserving
// first-seen order.
func dedupeRefs(refs []pgobj.DependencyRef) []pgobj.DependencyRef {
	seen := make(map[pgobj.DependencyRef]bool, len(refs))
	out := make([]pgobj.DependencyRef, 0, len(refs))
	for _, r := range refs {
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

// mergeRefs concatenates and dedupes ref slices.
func mergeRefs(groups ...[]pgobj.DependencyRef) []pgobj.DependencyRef {
	var all []pgobj.DependencyRef
	for _, g := range groups {
		all = append(all, g...)
	}
	return dedupeRefs(all)
}
