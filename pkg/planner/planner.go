// SPDX-License-Identifier: Apache-2.0

// Package planner diffs the scanned migrations and declarative objects
// against the persisted state catalog and emits an ordered Plan (spec.md
// §4.6). Grounded on the teacher's pkg/roll/unapplied.go and missing.go —
// the ordered diff of "migrations present locally but not yet applied" —
// generalized from a single append-only list into the full five-phase
// migration-plus-object plan pgmg's declarative layer requires.
package planner

import (
	"fmt"
	"sort"

	"github.com/ZakSingh/pgmg/pkg/depgraph"
	"github.com/ZakSingh/pgmg/pkg/migscan"
	"github.com/ZakSingh/pgmg/pkg/pgmgerrs"
	"github.com/ZakSingh/pgmg/pkg/pgmglog"
	"github.com/ZakSingh/pgmg/pkg/pgobj"
	"github.com/ZakSingh/pgmg/pkg/scanner"
	"github.com/ZakSingh/pgmg/pkg/state"
)

// OpKind identifies the kind of change a single Operation performs.
type OpKind int

const (
	OpApplyMigration OpKind = iota
	OpCreateObject
	OpUpdateObject
	OpDeleteObject
)

func (k OpKind) String() string {
	switch k {
	case OpApplyMigration:
		return "apply_migration"
	case OpCreateObject:
		return "create"
	case OpUpdateObject:
		return "update"
	case OpDeleteObject:
		return "delete"
	default:
		return "unknown"
	}
}

// Operation is a single step of the plan (spec.md §3 ChangeOperation).
type Operation struct {
	Kind OpKind

	// MigrationName/MigrationSQL are set only for OpApplyMigration.
	MigrationName string
	MigrationSQL  string

	// Object carries the current scanned definition for OpCreateObject and
	// OpUpdateObject — its NormalizedDDL is what gets executed.
	Object *pgobj.SqlObject

	// DeleteKey identifies the object to drop for OpDeleteObject. It may
	// name an object that no longer has a surviving SqlObject (an orphaned
	// state row), reconstructed via pgobj.ParseCatalogName.
	DeleteKey pgobj.Key

	// PreDrop marks an OpDeleteObject emitted solely because a pending
	// migration alters a table this object transitively depends on — the
	// object is expected to be re-created later in the same plan, and its
	// absence from the database in between is not itself a failure.
	PreDrop bool

	// OverloadCascade marks an OpUpdateObject on a Function/Procedure that
	// must be preceded by a DROP ... CASCADE of every overload sharing its
	// simple name in its schema (spec.md §4.7, §4.11 "overload cascade").
	OverloadCascade bool
}

// Plan is the ordered list of operations the applier executes inside a
// single transaction, plus any non-fatal warnings surfaced during planning.
type Plan struct {
	Operations []Operation
	Warnings   []pgmgerrs.MissingDependencyWarning
}

// Plan computes the reconciliation plan for a scanned repository against
// the persisted state catalog (spec.md §4.6).
func Plan(
	migrations []scanner.MigrationFile,
	objects []*pgobj.SqlObject,
	applied map[string]bool,
	stateObjects map[state.RowKey]state.ObjectRecord,
	log pgmglog.Logger,
) (*Plan, error) {
	log.LogPlanStart()

	pending := pendingMigrations(migrations, applied)

	graph := depgraph.Build(objects)
	forward, err := graph.TopoSort()
	if err != nil {
		return nil, err
	}
	reverse := make([]*pgobj.SqlObject, len(forward))
	for i, o := range forward {
		reverse[len(forward)-1-i] = o
	}

	managedByKey := make(map[pgobj.Key]*pgobj.SqlObject)
	managedRowKeys := make(map[state.RowKey]bool)
	for _, o := range objects {
		if o.Kind.Managed() {
			key := o.Key()
			managedByKey[key] = o
			managedRowKeys[state.RowKeyOf(key)] = true
		}
	}

	// Step 2: object diff.
	creates := make(map[pgobj.Key]bool)
	updates := make(map[pgobj.Key]bool)
	for key, obj := range managedByKey {
		rec, ok := stateObjects[state.RowKeyOf(key)]
		switch {
		case !ok:
			creates[key] = true
		case rec.DDLHash != obj.Fingerprint:
			updates[key] = true
		}
	}

	deletes := make(map[pgobj.Key]bool)
	for rowKey, rec := range stateObjects {
		if managedRowKeys[rowKey] {
			continue
		}
		deletes[pgobj.ParseCatalogName(rowKey.Kind, rec.ObjectName)] = true
	}

	// Step 3: pre-drop derivation.
	preDrops, forcedUpdates, err := derivePreDrops(pending, graph, managedByKey, stateObjects, deletes)
	if err != nil {
		return nil, err
	}
	for k := range forcedUpdates {
		if !creates[k] {
			updates[k] = true
		}
	}

	var warnings []pgmgerrs.MissingDependencyWarning
	for _, ref := range graph.UnresolvedReferences() {
		if _, tracked := stateObjects[state.RowKeyOf(ref.Key)]; tracked {
			continue
		}
		for _, dependent := range ref.Dependents {
			w := pgmgerrs.MissingDependencyWarning{From: dependent, To: ref.Key}
			warnings = append(warnings, w)
			log.Warn(w.String())
		}
	}

	// Step 4: ordering.
	var ops []Operation

	// Phase 1: pre-drops, reverse topological.
	for _, o := range reverse {
		if preDrops[o.Key()] {
			log.LogPreDrop(o.Kind.String(), o.QualifiedName.String())
			ops = append(ops, Operation{Kind: OpDeleteObject, DeleteKey: o.Key(), PreDrop: true})
		}
	}

	// Phase 2: Step-2 deletions. Deletions whose key is a scanned graph
	// object would be emitted in reverse topological order, but a deletion
	// is by construction a state row with no scanned object, so the first
	// loop matches none and every deletion is appended by the second loop in
	// key-string order. That order does not follow dependencies between the
	// deleted objects.
	remaining := make(map[pgobj.Key]bool, len(deletes))
	for k := range deletes {
		remaining[k] = true
	}
	for _, o := range reverse {
		key := o.Key()
		if remaining[key] {
			ops = append(ops, Operation{Kind: OpDeleteObject, DeleteKey: key})
			delete(remaining, key)
		}
	}
	var orphaned []pgobj.Key
	for k := range remaining {
		orphaned = append(orphaned, k)
	}
	sort.Slice(orphaned, func(i, j int) bool { return orphaned[i].String() < orphaned[j].String() })
	for _, k := range orphaned {
		ops = append(ops, Operation{Kind: OpDeleteObject, DeleteKey: k})
	}

	// Phase 3: migrations, in name order (already the scan order).
	for _, m := range pending {
		ops = append(ops, Operation{Kind: OpApplyMigration, MigrationName: m.Name, MigrationSQL: m.SQL})
	}

	// Phase 4 + 5: creations/updates, forward topological, with a
	// Comment's create/update immediately following its parent's.
	commentsByParent := make(map[pgobj.Key][]*pgobj.SqlObject)
	for _, o := range forward {
		if o.Kind != pgobj.KindComment {
			continue
		}
		parentKey := pgobj.Key{Kind: o.CommentParentKind, QualifiedName: o.QualifiedName}
		commentsByParent[parentKey] = append(commentsByParent[parentKey], o)
	}

	for _, o := range forward {
		if o.Kind == pgobj.KindComment {
			continue
		}
		if op, ok := creationOp(o, creates, updates); ok {
			ops = append(ops, op)
		}
		for _, c := range commentsByParent[o.Key()] {
			if op, ok := creationOp(c, creates, updates); ok {
				ops = append(ops, op)
			}
		}
	}

	createCount, updateCount, deleteCount := 0, 0, 0
	for _, op := range ops {
		switch op.Kind {
		case OpCreateObject:
			createCount++
		case OpUpdateObject:
			updateCount++
		case OpDeleteObject:
			deleteCount++
		}
	}
	log.LogPlanComplete(len(pending), createCount, updateCount, deleteCount)

	return &Plan{Operations: ops, Warnings: warnings}, nil
}

func pendingMigrations(migrations []scanner.MigrationFile, applied map[string]bool) []scanner.MigrationFile {
	var pending []scanner.MigrationFile
	for _, m := range migrations {
		if !applied[m.Name] {
			pending = append(pending, m)
		}
	}
	return pending
}

// creationOp decides whether o needs a Create or Update operation, and
// whether a Function/Procedure Update needs its overload-cascade flag.
func creationOp(o *pgobj.SqlObject, creates, updates map[pgobj.Key]bool) (Operation, bool) {
	key := o.Key()
	switch {
	case creates[key]:
		return Operation{Kind: OpCreateObject, Object: o}, true
	case updates[key]:
		cascade := o.Kind == pgobj.KindFunction || o.Kind == pgobj.KindProcedure
		return Operation{Kind: OpUpdateObject, Object: o, OverloadCascade: cascade}, true
	default:
		return Operation{}, false
	}
}

// derivePreDrops implements Step 3 of spec.md §4.6: tables a pending
// migration alters force the removal (and later re-materialization) of
// every currently-tracked object that transitively depends on them.
func derivePreDrops(
	pending []scanner.MigrationFile,
	graph *depgraph.Graph,
	managedByKey map[pgobj.Key]*pgobj.SqlObject,
	stateObjects map[state.RowKey]state.ObjectRecord,
	deletes map[pgobj.Key]bool,
) (preDrops map[pgobj.Key]bool, forcedUpdates map[pgobj.Key]bool, err error) {
	preDrops = make(map[pgobj.Key]bool)
	forcedUpdates = make(map[pgobj.Key]bool)

	tables := make(map[pgobj.QualifiedName]bool)
	for _, m := range pending {
		altered, aerr := migscan.AlteredTables(m.SQL)
		if aerr != nil {
			return nil, nil, fmt.Errorf("scanning migration %q for altered tables: %w", m.Name, aerr)
		}
		for t := range altered {
			tables[t] = true
		}
	}
	if len(tables) == 0 {
		return preDrops, forcedUpdates, nil
	}

	seeds := make([]pgobj.Key, 0, len(tables))
	for t := range tables {
		seeds = append(seeds, pgobj.Key{Kind: pgobj.KindTable, QualifiedName: t})
	}

	for _, dependent := range graph.ObjectsDependingOn(seeds) {
		if !dependent.Kind.Managed() {
			continue
		}
		key := dependent.Key()
		if deletes[key] {
			continue
		}
		if _, tracked := stateObjects[state.RowKeyOf(key)]; !tracked {
			continue
		}
		preDrops[key] = true
		if _, stillScanned := managedByKey[key]; stillScanned {
			forcedUpdates[key] = true
		}
	}
	return preDrops, forcedUpdates, nil
}
