package slotgraph

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func build(t *testing.T, names []string, edges [][2]string) *Graph {
	t.Helper()
	g := New()
	for _, name := range names {
		g.Add(name)
	}
	for _, e := range edges {
		from, ok := g.Lookup(e[0])
		if !ok {
			t.Fatalf("unregistered node %q", e[0])
		}
		to, ok := g.Lookup(e[1])
		if !ok {
			t.Fatalf("unregistered node %q", e[1])
		}
		g.AddEdge(from, to)
	}
	return g
}

func TestAddDeduplicates(t *testing.T) {
	g := New()
	a1, fresh := g.Add("a")
	if !fresh {
		t.Error("first Add(a) fresh = false")
	}
	a2, fresh := g.Add("a")
	if fresh {
		t.Error("second Add(a) fresh = true")
	}
	if a1 != a2 {
		t.Errorf("Add(a) twice gave indices %d and %d", a1, a2)
	}
	if g.Len() != 1 {
		t.Errorf("Len() = %d, want 1", g.Len())
	}
}

func TestSortRespectsEdges(t *testing.T) {
	tests := []struct {
		name  string
		nodes []string
		edges [][2]string
		want  []string
	}{
		{
			name:  "chain",
			nodes: []string{"c", "b", "a"},
			edges: [][2]string{{"a", "b"}, {"b", "c"}},
			want:  []string{"a", "b", "c"},
		},
		{
			name:  "diamond keeps registration tie-break",
			nodes: []string{"top", "right", "left", "bottom"},
			edges: [][2]string{{"top", "left"}, {"top", "right"}, {"left", "bottom"}, {"right", "bottom"}},
			want:  []string{"top", "right", "left", "bottom"},
		},
		{
			name:  "no edges keeps registration order",
			nodes: []string{"z", "m", "a"},
			want:  []string{"z", "m", "a"},
		},
		{
			name:  "parallel edges collapse",
			nodes: []string{"b", "a"},
			edges: [][2]string{{"a", "b"}, {"a", "b"}, {"a", "b"}},
			want:  []string{"a", "b"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(t, tt.nodes, tt.edges)
			ids, ok := g.Sort()
			if !ok {
				t.Fatal("Sort() reported a cycle in an acyclic graph")
			}
			if len(ids) != len(tt.want) {
				t.Fatalf("Sort() returned %d nodes, want %d", len(ids), len(tt.want))
			}
			for i, id := range ids {
				if g.Name(id) != tt.want[i] {
					t.Fatalf("Sort()[%d] = %q, want %q (full order %v)",
						i, g.Name(id), tt.want[i], names(g, ids))
				}
			}
		})
	}
}

func names(g *Graph, ids []int) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = g.Name(id)
	}
	return out
}

func TestFindCycle(t *testing.T) {
	tests := []struct {
		name     string
		nodes    []string
		edges    [][2]string
		wantFrom string
		wantTo   string
	}{
		{
			name:     "self loop",
			nodes:    []string{"a"},
			edges:    [][2]string{{"a", "a"}},
			wantFrom: "a",
			wantTo:   "a",
		},
		{
			name:     "two node cycle",
			nodes:    []string{"a", "b"},
			edges:    [][2]string{{"a", "b"}, {"b", "a"}},
			wantFrom: "b",
			wantTo:   "a",
		},
		{
			name:     "cycle behind a tail",
			nodes:    []string{"entry", "x", "y", "z"},
			edges:    [][2]string{{"entry", "x"}, {"x", "y"}, {"y", "z"}, {"z", "x"}},
			wantFrom: "z",
			wantTo:   "x",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(t, tt.nodes, tt.edges)
			from, to, found := g.FindCycle()
			if !found {
				t.Fatal("FindCycle() found = false, want true")
			}
			if g.Name(from) != tt.wantFrom || g.Name(to) != tt.wantTo {
				t.Errorf("FindCycle() = %s→%s, want %s→%s",
					g.Name(from), g.Name(to), tt.wantFrom, tt.wantTo)
			}
			if _, ok := g.Sort(); ok {
				t.Error("Sort() succeeded on a cyclic graph")
			}
		})
	}
}

func TestFindCycleAcyclic(t *testing.T) {
	g := build(t,
		[]string{"a", "b", "c", "d"},
		[][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}})
	if _, _, found := g.FindCycle(); found {
		t.Error("FindCycle() found a cycle in a DAG")
	}
}

// TestSortIsTopological checks, over random DAGs, that Sort returns a
// permutation of all nodes in which every edge points forward. Random
// graphs only ever add edges from lower to higher index, so they are
// acyclic by construction.
func TestSortIsTopological(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("every edge points forward", prop.ForAll(
		func(n int, rawEdges []int) bool {
			g := New()
			for i := 0; i < n; i++ {
				g.Add(string(rune('a' + i%26)) + string(rune('0'+i/26)))
			}
			for i := 0; i+1 < len(rawEdges); i += 2 {
				from := rawEdges[i] % n
				to := rawEdges[i+1] % n
				if from < to {
					g.AddEdge(from, to)
				}
			}

			ids, ok := g.Sort()
			if !ok || len(ids) != n {
				return false
			}
			pos := make([]int, n)
			for i, id := range ids {
				pos[id] = i
			}
			for edge := range g.edges {
				if pos[edge[0]] >= pos[edge[1]] {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 40),
		gen.SliceOf(gen.IntRange(0, 1<<20)),
	))

	properties.TestingRun(t)
}
