// SPDX-License-Identifier: Apache-2.0

// Package depgraph builds the dependency DAG over a scanned object set and
// answers topological-order and reverse-reachability queries (spec.md
// §4.5). There is no teacher file to ground the shape on directly — pgroll
// has no dependency graph of its own, since its versioned migrations are
// applied in the single order the user wrote them. The arena-of-indices
// representation instead follows spec.md §9's explicit design note: objects
// are addressed by small integer indices into an immutable slice built at
// scan time, and edges are index pairs, never pointers — this sidesteps the
// cyclic-ownership problem between a dependent and its dependency and makes
// reverse-reachability a plain adjacency-list walk.
package depgraph

import (
	"fmt"
	"io"
	"sort"

	"github.com/ZakSingh/pgmg/pkg/pgmgerrs"
	"github.com/ZakSingh/pgmg/pkg/pgobj"
)

// node is one arena slot. External nodes have no backing SqlObject — they
// stand in for a reference that didn't resolve against the scanned set and
// isn't a built-in (spec.md §4.5: "treated as pre-existing").
type node struct {
	key      pgobj.Key
	obj      *pgobj.SqlObject
	external bool
}

// Graph is the dependency DAG over a scanned object set.
type Graph struct {
	nodes  []node
	index  map[pgobj.Key]int
	edges  [][]int // edges[i] = indices this node depends on
	redges [][]int // redges[i] = indices that depend on this node
}

// Build resolves every object's RawDependencies against the object set by
// (kind, QualifiedName), retaining every reference — resolved or not — as a
// graph vertex (spec.md §4.5). References into built-in schemas never reach
// Build: the SQL front-end drops them while extracting RawDependencies.
func Build(objects []*pgobj.SqlObject) *Graph {
	g := &Graph{index: make(map[pgobj.Key]int, len(objects))}

	byQualifiedName := make(map[pgobj.QualifiedName][]int)
	for _, obj := range objects {
		idx := g.addNode(node{key: obj.Key(), obj: obj})
		// Comments share their parent's QualifiedName (spec.md §4.1: a
		// comment's key carries the parent's identity). Nothing ever depends
		// on "a comment" by name, so indexing them here would let another
		// object's reference to the parent resolve to the comment instead,
		// depending on scan order.
		if obj.Kind == pgobj.KindComment {
			continue
		}
		byQualifiedName[obj.QualifiedName] = append(byQualifiedName[obj.QualifiedName], idx)
	}

	for i, obj := range objects {
		for _, ref := range obj.RawDependencies {
			qn := pgobj.NewQualifiedName(ref.Schema, ref.Name)
			toIdx, ok := g.resolveRef(byQualifiedName, qn, ref.KindHint)
			if !ok {
				toIdx = g.addExternal(pgobj.Key{Kind: ref.KindHint, QualifiedName: qn})
			}
			g.addEdge(i, toIdx)
		}
	}

	return g
}

// resolveRef finds a candidate at qn, preferring an exact kind match over
// the front-end's best-guess KindHint (a relation reference might resolve
// to a View rather than a Table).
func (g *Graph) resolveRef(byName map[pgobj.QualifiedName][]int, qn pgobj.QualifiedName, hint pgobj.Kind) (int, bool) {
	candidates, ok := byName[qn]
	if !ok || len(candidates) == 0 {
		return 0, false
	}
	for _, idx := range candidates {
		if g.nodes[idx].key.Kind == hint {
			return idx, true
		}
	}
	return candidates[0], true
}

func (g *Graph) addNode(n node) int {
	idx := len(g.nodes)
	g.nodes = append(g.nodes, n)
	g.index[n.key] = idx
	g.edges = append(g.edges, nil)
	g.redges = append(g.redges, nil)
	return idx
}

func (g *Graph) addExternal(key pgobj.Key) int {
	if idx, ok := g.index[key]; ok {
		return idx
	}
	return g.addNode(node{key: key, external: true})
}

func (g *Graph) addEdge(from, to int) {
	g.edges[from] = append(g.edges[from], to)
	g.redges[to] = append(g.redges[to], from)
}

// Objects returns every non-external object in the graph, the full scanned
// set Build was constructed from.
func (g *Graph) Objects() []*pgobj.SqlObject {
	out := make([]*pgobj.SqlObject, 0, len(g.nodes))
	for _, n := range g.nodes {
		if !n.external {
			out = append(out, n.obj)
		}
	}
	return out
}

// TopoSort returns the objects in dependency order — a dependency always
// precedes its dependents — with deterministic tiebreaking by
// (kind-rank, qualified-name) (spec.md §4.5). External nodes are omitted
// from the result; they have no DDL of their own to apply.
//
// Detects cycles via strongly-connected-components (Tarjan); any SCC with
// more than one member, or a self-loop, is a hard error naming the member
// keys. The Tarjan pass is recursive, one call frame per node along the
// deepest dependency chain; it is not an iterative implementation.
func (g *Graph) TopoSort() ([]*pgobj.SqlObject, error) {
	sccs := g.stronglyConnectedComponents()
	for _, scc := range sccs {
		if len(scc) > 1 {
			return nil, cycleError(g, scc)
		}
		if len(scc) == 1 && g.hasSelfLoop(scc[0]) {
			return nil, cycleError(g, scc)
		}
	}

	// Kahn's algorithm over the condensation (trivial here since every SCC
	// is a single node after the check above), breaking ties deterministically.
	indegree := make([]int, len(g.nodes))
	for i, tos := range g.edges {
		indegree[i] = len(tos)
	}

	var ready []int
	for i := range g.nodes {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	var order []int
	for len(ready) > 0 {
		sort.Slice(ready, func(a, b int) bool { return lessNode(g.nodes[ready[a]], g.nodes[ready[b]]) })
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		for _, from := range g.redges[next] {
			indegree[from]--
			if indegree[from] == 0 {
				ready = append(ready, from)
			}
		}
	}

	result := make([]*pgobj.SqlObject, 0, len(order))
	for _, idx := range order {
		if !g.nodes[idx].external {
			result = append(result, g.nodes[idx].obj)
		}
	}
	return result, nil
}

func lessNode(a, b node) bool {
	if a.key.Kind.Rank() != b.key.Kind.Rank() {
		return a.key.Kind.Rank() < b.key.Kind.Rank()
	}
	return a.key.QualifiedName.String() < b.key.QualifiedName.String()
}

func cycleError(g *Graph, members []int) error {
	keys := make([]pgobj.Key, len(members))
	for i, idx := range members {
		keys[i] = g.nodes[idx].key
	}
	return pgmgerrs.CircularDependencyError{Members: keys}
}

// tarjanState carries the working arrays of Tarjan's SCC algorithm across
// the recursive visits.
type tarjanState struct {
	index   []int
	lowlink []int
	onStack []bool
	stack   []int
	counter int
	sccs    [][]int
}

// stronglyConnectedComponents partitions the graph's nodes into strongly
// connected components via Tarjan's algorithm. A DAG yields one
// single-member component per node; any larger component, or a
// single-member component with a self-loop, denotes a cycle.
func (g *Graph) stronglyConnectedComponents() [][]int {
	st := &tarjanState{
		index:   make([]int, len(g.nodes)),
		lowlink: make([]int, len(g.nodes)),
		onStack: make([]bool, len(g.nodes)),
	}
	for i := range st.index {
		st.index[i] = -1
	}

	for v := range g.nodes {
		if st.index[v] == -1 {
			g.tarjanVisit(v, st)
		}
	}
	return st.sccs
}

func (g *Graph) tarjanVisit(v int, st *tarjanState) {
	st.index[v] = st.counter
	st.lowlink[v] = st.counter
	st.counter++
	st.stack = append(st.stack, v)
	st.onStack[v] = true

	for _, w := range g.edges[v] {
		switch {
		case st.index[w] == -1:
			g.tarjanVisit(w, st)
			if st.lowlink[w] < st.lowlink[v] {
				st.lowlink[v] = st.lowlink[w]
			}
		case st.onStack[w]:
			if st.index[w] < st.lowlink[v] {
				st.lowlink[v] = st.index[w]
			}
		}
	}

	if st.lowlink[v] != st.index[v] {
		return
	}

	var scc []int
	for {
		n := len(st.stack) - 1
		w := st.stack[n]
		st.stack = st.stack[:n]
		st.onStack[w] = false
		scc = append(scc, w)
		if w == v {
			break
		}
	}
	st.sccs = append(st.sccs, scc)
}

func (g *Graph) hasSelfLoop(idx int) bool {
	for _, to := range g.edges[idx] {
		if to == idx {
			return true
		}
	}
	return false
}

// UnresolvedRef is a reference that didn't resolve against the scanned
// object set, together with the scanned objects that reference it.
type UnresolvedRef struct {
	Key        pgobj.Key
	Dependents []pgobj.Key
}

// UnresolvedReferences returns every external node the graph retained —
// candidates for the planner's missing-dependency warning (spec.md §4.6):
// a reference that is neither in the scan nor a built-in, which the
// front-end has already filtered out before Build ever sees it.
func (g *Graph) UnresolvedReferences() []UnresolvedRef {
	var out []UnresolvedRef
	for idx, n := range g.nodes {
		if !n.external {
			continue
		}
		var deps []pgobj.Key
		for _, from := range g.redges[idx] {
			if !g.nodes[from].external {
				deps = append(deps, g.nodes[from].key)
			}
		}
		if len(deps) == 0 {
			continue
		}
		sort.Slice(deps, func(i, j int) bool {
			return lessNode(node{key: deps[i]}, node{key: deps[j]})
		})
		out = append(out, UnresolvedRef{Key: n.key, Dependents: deps})
	}
	sort.Slice(out, func(i, j int) bool {
		return lessNode(node{key: out[i].Key}, node{key: out[j].Key})
	})
	return out
}

// WriteDOT renders the dependency graph in Graphviz DOT format, a pure
// side-output the planner may optionally emit alongside a Plan (spec.md
// §4.6 last paragraph). External nodes are drawn dashed, since they denote
// a reference the graph never resolved against the scan.
func (g *Graph) WriteDOT(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "digraph pgmg {"); err != nil {
		return err
	}
	for idx, n := range g.nodes {
		label := n.key.String()
		style := ""
		if n.external {
			style = ` [style=dashed]`
		}
		if _, err := fmt.Fprintf(w, "  n%d [label=%q]%s;\n", idx, label, style); err != nil {
			return err
		}
	}
	for from, tos := range g.edges {
		for _, to := range tos {
			if _, err := fmt.Fprintf(w, "  n%d -> n%d;\n", from, to); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}

// ObjectsDependingOn returns the transitive closure of everything that
// (directly or indirectly) depends on any key in seeds — reverse
// reachability, used by the planner to derive pre-drops (spec.md §4.5).
func (g *Graph) ObjectsDependingOn(seeds []pgobj.Key) []*pgobj.SqlObject {
	visited := make(map[int]bool)
	var stack []int
	for _, k := range seeds {
		if idx, ok := g.index[k]; ok {
			stack = append(stack, idx)
		}
	}

	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, from := range g.redges[idx] {
			if !visited[from] {
				visited[from] = true
				stack = append(stack, from)
			}
		}
	}

	var out []*pgobj.SqlObject
	for idx := range visited {
		if !g.nodes[idx].external {
			out = append(out, g.nodes[idx].obj)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return lessNode(node{key: out[i].Key()}, node{key: out[j].Key()})
	})
	return out
}
