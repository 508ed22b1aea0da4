// SPDX-License-Identifier: Apache-2.0

package depgraph_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZakSingh/pgmg/pkg/depgraph"
	"github.com/ZakSingh/pgmg/pkg/pgmgerrs"
	"github.com/ZakSingh/pgmg/pkg/pgobj"
)

func obj(kind pgobj.Kind, schema, name string, deps ...pgobj.DependencyRef) *pgobj.SqlObject {
	return &pgobj.SqlObject{
		Kind:            kind,
		QualifiedName:   pgobj.NewQualifiedName(schema, name),
		RawDependencies: deps,
	}
}

func dep(kind pgobj.Kind, schema, name string) pgobj.DependencyRef {
	return pgobj.DependencyRef{KindHint: kind, Schema: schema, Name: name}
}

func TestTopoSortOrdersProducersBeforeConsumers(t *testing.T) {
	view := obj(pgobj.KindView, "public", "active_users", dep(pgobj.KindTable, "public", "users"))
	idx := obj(pgobj.KindIndex, "public", "active_users_idx", dep(pgobj.KindView, "public", "active_users"))

	g := depgraph.Build([]*pgobj.SqlObject{idx, view})
	order, err := g.TopoSort()
	require.NoError(t, err)
	require.Len(t, order, 2)
	assert.Equal(t, "active_users", order[0].Name)
	assert.Equal(t, "active_users_idx", order[1].Name)
}

func TestTopoSortDetectsSelfLoop(t *testing.T) {
	fn := obj(pgobj.KindFunction, "public", "recurse", dep(pgobj.KindFunction, "public", "recurse"))

	g := depgraph.Build([]*pgobj.SqlObject{fn})
	_, err := g.TopoSort()
	require.Error(t, err)
	var cycleErr pgmgerrs.CircularDependencyError
	require.ErrorAs(t, err, &cycleErr)
}

func TestTopoSortDetectsMutualCycle(t *testing.T) {
	a := obj(pgobj.KindFunction, "public", "a", dep(pgobj.KindFunction, "public", "b"))
	b := obj(pgobj.KindFunction, "public", "b", dep(pgobj.KindFunction, "public", "a"))

	g := depgraph.Build([]*pgobj.SqlObject{a, b})
	_, err := g.TopoSort()
	require.Error(t, err)
}

func TestObjectsDependingOnReturnsTransitiveClosure(t *testing.T) {
	view := obj(pgobj.KindView, "public", "v1", dep(pgobj.KindTable, "public", "t1"))
	idx := obj(pgobj.KindIndex, "public", "v1_idx", dep(pgobj.KindView, "public", "v1"))
	unrelated := obj(pgobj.KindView, "public", "v2", dep(pgobj.KindTable, "public", "t2"))

	g := depgraph.Build([]*pgobj.SqlObject{view, idx, unrelated})
	dependents := g.ObjectsDependingOn([]pgobj.Key{{Kind: pgobj.KindTable, QualifiedName: pgobj.NewQualifiedName("public", "t1")}})

	names := make([]string, len(dependents))
	for i, d := range dependents {
		names[i] = d.Name
	}
	assert.ElementsMatch(t, []string{"v1", "v1_idx"}, names)
}

func TestDeterministicTiebreakByKindRankThenName(t *testing.T) {
	typ := obj(pgobj.KindType, "public", "zzz_type")
	domain := obj(pgobj.KindDomain, "public", "aaa_domain")
	table := obj(pgobj.KindTable, "public", "mmm_table")

	g := depgraph.Build([]*pgobj.SqlObject{table, typ, domain})
	order, err := g.TopoSort()
	require.NoError(t, err)
	require.Len(t, order, 3)
	assert.Equal(t, "zzz_type", order[0].Name)
	assert.Equal(t, "aaa_domain", order[1].Name)
	assert.Equal(t, "mmm_table", order[2].Name)
}

func TestWriteDOTMarksUnresolvedReferencesDashed(t *testing.T) {
	view := obj(pgobj.KindView, "public", "v1", dep(pgobj.KindTable, "public", "missing_table"))

	g := depgraph.Build([]*pgobj.SqlObject{view})

	var buf strings.Builder
	require.NoError(t, g.WriteDOT(&buf))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "digraph pgmg {"))
	assert.Contains(t, out, `"view:public.v1"`)
	assert.Contains(t, out, "style=dashed")
	assert.Contains(t, out, "->")
}
