// SPDX-License-Identifier: Apache-2.0

package pgobj

// Location is a source file position, 1-based and inclusive, as returned by
// the SQL front-end's statement splitter.
type Location struct {
	File      string
	StartLine int
	EndLine   int
}

// SqlObject is the typed record produced for every recognized statement in a
// scanned `code/` file (spec.md §3). Polymorphism over "how to DROP" / "what
// this depends on" / "how to encode its state key" is realized by
// pattern-matching on Kind, not by a class hierarchy (spec.md §9).
type SqlObject struct {
	Kind Kind
	QualifiedName
	// Column is set only for column-level comments; it participates in the
	// comment's composite key but not in its QualifiedName.
	Column string

	// CommentParentKind is set only on Comment objects: the kind of the
	// object the comment documents.
	CommentParentKind Kind

	// TriggerTable is set only on Trigger objects: the relation the trigger
	// is defined on. QualifiedName.Name holds the trigger's own name, so this
	// cannot reuse QualifiedName itself (spec.md §3: triggers are keyed by
	// (trigger_name, target_table), and the two names are independent).
	TriggerTable QualifiedName

	// OperatorLeftArg and OperatorRightArg are set only on Operator objects:
	// the operand type names that, together with the symbol, form the
	// composite key (spec.md §4.1: operators are keyed by (symbol, leftarg,
	// rightarg) since the same symbol may be overloaded).
	OperatorLeftArg  string
	OperatorRightArg string

	NormalizedDDL string
	Fingerprint   string

	Location Location

	// RawDependencies is the set of unresolved references extracted from
	// this object's definition by the SQL front-end (C1): a name plus a
	// best-guess kind (which may be wrong — a relation reference might
	// resolve to a View rather than a Table). The dependency resolver (C5)
	// matches these by name against the full scanned object set, preferring
	// a candidate of the guessed kind and otherwise taking the first object
	// of that name; built-in schemas/functions/types are filtered out before
	// this point.
	RawDependencies []DependencyRef

	// Dependencies is the set of (kind, QualifiedName) references, resolved
	// against the set of all SqlObjects in the scan (spec.md §3). No package
	// assigns it: the dependency resolver (pkg/depgraph) keeps resolved
	// edges in its own graph instead of writing them back here.
	Dependencies []Key
}

// DependencyRef is an unresolved reference to another object, extracted
// from a parse tree before the full object set is known.
type DependencyRef struct {
	KindHint Kind
	Schema   string
	Name     string
}

// Key returns this object's canonical (kind, key) identity.
func (o *SqlObject) Key() Key {
	switch o.Kind {
	case KindTrigger:
		return TriggerKey(o.Name, o.TriggerTable)
	case KindComment:
		return CommentKey(o.parentKindHint(), o.QualifiedName, o.Column)
	case KindOperator:
		return OperatorKey(o.Schema, o.Name, o.OperatorLeftArg, o.OperatorRightArg)
	default:
		return Key{Kind: o.Kind, QualifiedName: o.QualifiedName}
	}
}

// parentKindHint recovers the parent kind encoded on a comment object. The
// SQL front-end (pkg/sqlfront) stores it directly on CommentParentKind when
// it identifies a COMMENT statement.
func (o *SqlObject) parentKindHint() Kind {
	return o.CommentParentKind
}
