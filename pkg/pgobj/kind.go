// SPDX-License-Identifier: Apache-2.0

// Package pgobj defines the tagged-variant object model that every other
// pgmg package speaks: qualified names, object kinds, and the SqlObject
// record produced by the SQL front-end and consumed by the planner.
package pgobj

// Kind identifies the kind of SQL object a statement declares.
type Kind int

const (
	KindUnknown Kind = iota
	KindTable
	KindView
	KindMaterializedView
	KindFunction
	KindProcedure
	KindType
	KindDomain
	KindIndex
	KindTrigger
	KindComment
	KindCronJob
	KindAggregate
	KindOperator
)

func (k Kind) String() string {
	switch k {
	case KindTable:
		return "table"
	case KindView:
		return "view"
	case KindMaterializedView:
		return "materialized_view"
	case KindFunction:
		return "function"
	case KindProcedure:
		return "procedure"
	case KindType:
		return "type"
	case KindDomain:
		return "domain"
	case KindIndex:
		return "index"
	case KindTrigger:
		return "trigger"
	case KindComment:
		return "comment"
	case KindCronJob:
		return "cron_job"
	case KindAggregate:
		return "aggregate"
	case KindOperator:
		return "operator"
	default:
		return "unknown"
	}
}

// KindFromString parses the Kind.String() encoding stored in the catalog's
// object_type column, back into a Kind.
func KindFromString(s string) Kind {
	for k := KindTable; k <= KindOperator; k++ {
		if k.String() == s {
			return k
		}
	}
	return KindUnknown
}

// Managed reports whether the engine manages the lifecycle of objects of
// this kind declaratively. Tables are the sole exception: their structure is
// the exclusive province of migrations, so the engine never creates,
// updates, or drops them.
func (k Kind) Managed() bool {
	return k != KindTable && k != KindUnknown
}

// rank orders object kinds so that producers are visited before consumers
// when topological order needs a deterministic tiebreak (spec.md §4.5).
var rank = map[Kind]int{
	KindType:             0,
	KindDomain:           1,
	KindTable:            2,
	KindFunction:         3,
	KindProcedure:        3,
	KindView:             4,
	KindMaterializedView: 5,
	KindIndex:            6,
	KindTrigger:          7,
	KindAggregate:        8,
	KindOperator:         9,
	KindComment:          10,
	KindCronJob:          11,
}

// Rank returns this kind's position in the deterministic tiebreak ordering.
func (k Kind) Rank() int {
	return rank[k]
}
