// SPDX-License-Identifier: Apache-2.0

package pgobj

import (
	"fmt"
	"strings"
)

// DefaultSchema is the schema an unqualified name canonicalizes to. This
// resolves the Open Question in spec.md §9: the source treats unqualified
// schemas inconsistently; pgmg picks "public" and applies it everywhere a
// QualifiedName is constructed, so every downstream hash and comparison
// already sees the canonical form.
const DefaultSchema = "public"

// QualifiedName is a schema-qualified object name. The parser preserves
// quoted identifiers verbatim and lowercases unquoted ones before a
// QualifiedName is ever constructed, so comparisons here are always
// case-sensitive on the stored form.
type QualifiedName struct {
	Schema string
	Name   string
}

// NewQualifiedName builds a QualifiedName, canonicalizing an empty schema to
// DefaultSchema.
func NewQualifiedName(schema, name string) QualifiedName {
	if schema == "" {
		schema = DefaultSchema
	}
	return QualifiedName{Schema: schema, Name: name}
}

func (q QualifiedName) String() string {
	return fmt.Sprintf("%s.%s", q.Schema, q.Name)
}

// Key is the canonical (kind, QualifiedName) map key pgmg uses to detect
// duplicates and to resolve dependency references (spec.md §3).
type Key struct {
	Kind Kind
	QualifiedName
	// Extra disambiguates kinds keyed on more than (kind, qualified name):
	// triggers are keyed by (trigger_name, target_table), comments by parent
	// identity, operators by (symbol, leftarg, rightarg).
	Extra string
}

func (k Key) String() string {
	if k.Extra == "" {
		return fmt.Sprintf("%s:%s", k.Kind, k.QualifiedName)
	}
	return fmt.Sprintf("%s:%s:%s", k.Kind, k.QualifiedName, k.Extra)
}

// CatalogName renders the canonical object_name encoding the state catalog
// persists alongside a separate object_type column (spec.md §4.3): plain
// "schema.name" for most kinds, "name:table" for triggers, and the
// "parent-kind:parent-name[.column]" form for comments.
func (k Key) CatalogName() string {
	switch k.Kind {
	case KindTrigger:
		return k.Name + ":" + k.Extra
	case KindComment:
		return k.Extra
	default:
		if k.Extra != "" {
			return k.QualifiedName.String() + ":" + k.Extra
		}
		return k.QualifiedName.String()
	}
}

// CommentTarget decodes a Comment key's parent kind and column. QualifiedName
// already holds the parent's own (schema, name) — CommentKey built Extra as
// "<parent-kind>:<parent-qualified-name>[.<column>]" with that same parent,
// so only the kind and the optional column need pulling back out of Extra.
func (k Key) CommentTarget() (parentKind Kind, column string) {
	parentKindStr, rest, _ := strings.Cut(k.Extra, ":")
	parentKind = KindFromString(parentKindStr)
	prefix := k.QualifiedName.String() + "."
	if strings.HasPrefix(rest, prefix) {
		column = rest[len(prefix):]
	}
	return parentKind, column
}

// ParseCatalogName reconstructs the Key a state catalog row encodes, given
// the object_type and object_name columns — the inverse of CatalogName. The
// planner needs this for an object that only exists as a state row (no
// surviving scanned SqlObject to read a Key off of): an orphaned comment or
// trigger row still has to resolve to the same composite key its original
// CatalogName() produced, so the drop targets the right row.
func ParseCatalogName(kind Kind, objectName string) Key {
	switch kind {
	case KindTrigger:
		name, table, _ := strings.Cut(objectName, ":")
		schema, tableName := splitLastDot(table)
		return Key{Kind: KindTrigger, QualifiedName: NewQualifiedName(schema, name), Extra: NewQualifiedName(schema, tableName).String()}
	case KindComment:
		parentKindStr, rest, _ := strings.Cut(objectName, ":")
		parts := strings.Split(rest, ".")
		var schema, name, column string
		switch len(parts) {
		case 3:
			schema, name, column = parts[0], parts[1], parts[2]
		case 2:
			schema, name = parts[0], parts[1]
		default:
			name = rest
		}
		return CommentKey(KindFromString(parentKindStr), NewQualifiedName(schema, name), column)
	case KindOperator:
		qnPart, extra, _ := strings.Cut(objectName, ":")
		schema, symbol := splitLastDot(qnPart)
		return Key{Kind: KindOperator, QualifiedName: NewQualifiedName(schema, symbol), Extra: extra}
	default:
		schema, name := splitLastDot(objectName)
		return Key{Kind: kind, QualifiedName: NewQualifiedName(schema, name)}
	}
}

func splitLastDot(s string) (before, after string) {
	i := strings.LastIndex(s, ".")
	if i == -1 {
		return "", s
	}
	return s[:i], s[i+1:]
}

// TriggerKey builds the composite key for a trigger: (trigger_name, target_table).
func TriggerKey(name string, table QualifiedName) Key {
	return Key{Kind: KindTrigger, QualifiedName: NewQualifiedName(table.Schema, name), Extra: table.String()}
}

// CommentKey builds the composite key for a comment, encoded per spec.md §6
// as "<parent-kind>:<parent-qualified-name>[.<column>]".
func CommentKey(parentKind Kind, parent QualifiedName, column string) Key {
	extra := parentKind.String() + ":" + parent.String()
	if column != "" {
		extra += "." + column
	}
	return Key{Kind: KindComment, QualifiedName: parent, Extra: extra}
}

// OperatorKey builds the composite key for an operator: (symbol, leftarg, rightarg).
func OperatorKey(schema, symbol, leftArg, rightArg string) Key {
	extra := fmt.Sprintf("%s(%s,%s)", symbol, leftArg, rightArg)
	return Key{Kind: KindOperator, QualifiedName: NewQualifiedName(schema, symbol), Extra: extra}
}
