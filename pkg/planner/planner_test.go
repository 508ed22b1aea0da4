// SPDX-License-Identifier: Apache-2.0

package planner_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZakSingh/pgmg/pkg/pgmglog"
	"github.com/ZakSingh/pgmg/pkg/pgobj"
	"github.com/ZakSingh/pgmg/pkg/planner"
	"github.com/ZakSingh/pgmg/pkg/scanner"
	"github.com/ZakSingh/pgmg/pkg/state"
)

func obj(kind pgobj.Kind, schema, name, fingerprint string, deps ...pgobj.DependencyRef) *pgobj.SqlObject {
	return &pgobj.SqlObject{
		Kind:            kind,
		QualifiedName:   pgobj.NewQualifiedName(schema, name),
		NormalizedDDL:   "-- " + name,
		Fingerprint:     fingerprint,
		RawDependencies: deps,
	}
}

func dep(kind pgobj.Kind, schema, name string) pgobj.DependencyRef {
	return pgobj.DependencyRef{KindHint: kind, Schema: schema, Name: name}
}

func record(kind pgobj.Kind, objectName, ddlHash string) state.ObjectRecord {
	return state.ObjectRecord{Kind: kind, ObjectName: objectName, DDLHash: ddlHash, LastApplied: time.Now()}
}

func TestPlanOrdersNewObjectCreationsAfterDependencies(t *testing.T) {
	view := obj(pgobj.KindView, "public", "active_users", "fp-view", dep(pgobj.KindTable, "public", "users"))
	idx := obj(pgobj.KindIndex, "public", "active_users_idx", "fp-idx", dep(pgobj.KindView, "public", "active_users"))

	p, err := planner.Plan(nil, []*pgobj.SqlObject{idx, view}, map[string]bool{}, map[state.RowKey]state.ObjectRecord{}, pgmglog.NewNoop())
	require.NoError(t, err)

	var order []string
	for _, op := range p.Operations {
		require.Equal(t, planner.OpCreateObject, op.Kind)
		order = append(order, op.Object.Name)
	}
	assert.Equal(t, []string{"active_users", "active_users_idx"}, order)
}

func TestPlanEmitsDeleteForObjectRemovedFromScan(t *testing.T) {
	existing := map[state.RowKey]state.ObjectRecord{
		{Kind: pgobj.KindView, ObjectName: "public.stale_view"}: record(pgobj.KindView, "public.stale_view", "fp-old"),
	}

	p, err := planner.Plan(nil, nil, map[string]bool{}, existing, pgmglog.NewNoop())
	require.NoError(t, err)
	require.Len(t, p.Operations, 1)
	assert.Equal(t, planner.OpDeleteObject, p.Operations[0].Kind)
	assert.Equal(t, pgobj.KindView, p.Operations[0].DeleteKey.Kind)
	assert.Equal(t, "public.stale_view", p.Operations[0].DeleteKey.QualifiedName.String())
}

func TestPlanMarksFunctionUpdateWithOverloadCascade(t *testing.T) {
	fn := obj(pgobj.KindFunction, "public", "process", "fp-new")
	existing := map[state.RowKey]state.ObjectRecord{
		state.RowKeyOf(fn.Key()): record(pgobj.KindFunction, "public.process", "fp-old"),
	}

	p, err := planner.Plan(nil, []*pgobj.SqlObject{fn}, map[string]bool{}, existing, pgmglog.NewNoop())
	require.NoError(t, err)
	require.Len(t, p.Operations, 1)
	assert.Equal(t, planner.OpUpdateObject, p.Operations[0].Kind)
	assert.True(t, p.Operations[0].OverloadCascade)
}

func TestPlanSkipsUnchangedObjects(t *testing.T) {
	view := obj(pgobj.KindView, "public", "active_users", "fp-same")
	existing := map[state.RowKey]state.ObjectRecord{
		state.RowKeyOf(view.Key()): record(pgobj.KindView, "public.active_users", "fp-same"),
	}

	p, err := planner.Plan(nil, []*pgobj.SqlObject{view}, map[string]bool{}, existing, pgmglog.NewNoop())
	require.NoError(t, err)
	assert.Empty(t, p.Operations)
}

func TestPlanSkipsAlreadyAppliedMigrations(t *testing.T) {
	migrations := []scanner.MigrationFile{
		{Name: "001_init.sql", SQL: "CREATE TABLE public.users (id int);"},
		{Name: "002_add_col.sql", SQL: "ALTER TABLE public.users ADD COLUMN name text;"},
	}
	applied := map[string]bool{"001_init.sql": true}

	p, err := planner.Plan(migrations, nil, applied, map[state.RowKey]state.ObjectRecord{}, pgmglog.NewNoop())
	require.NoError(t, err)
	require.Len(t, p.Operations, 1)
	assert.Equal(t, planner.OpApplyMigration, p.Operations[0].Kind)
	assert.Equal(t, "002_add_col.sql", p.Operations[0].MigrationName)
}

func TestPlanDerivesPreDropForAlteredTableDependency(t *testing.T) {
	view := obj(pgobj.KindView, "public", "user_view", "fp-view", dep(pgobj.KindTable, "public", "users"))
	migrations := []scanner.MigrationFile{
		{Name: "002_drop_username.sql", SQL: "ALTER TABLE public.users DROP COLUMN username;"},
	}
	existing := map[state.RowKey]state.ObjectRecord{
		state.RowKeyOf(view.Key()): record(pgobj.KindView, "public.user_view", "fp-view"),
	}

	p, err := planner.Plan(migrations, []*pgobj.SqlObject{view}, map[string]bool{}, existing, pgmglog.NewNoop())
	require.NoError(t, err)

	var kinds []planner.OpKind
	for _, op := range p.Operations {
		kinds = append(kinds, op.Kind)
	}
	// pre-drop, then the migration, then the re-creation.
	require.Len(t, kinds, 3)
	assert.Equal(t, planner.OpDeleteObject, kinds[0])
	assert.True(t, p.Operations[0].PreDrop)
	assert.Equal(t, planner.OpApplyMigration, kinds[1])
	assert.Equal(t, planner.OpUpdateObject, kinds[2])
}
