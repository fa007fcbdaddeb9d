// Package slotgraph implements the arena-indexed dependency graph behind
// sub-graph validation: node registration in stable insertion order,
// node-level dependency edges, depth-first cycle detection, and a
// deterministic topological sort.
//
// Nodes are addressed by dense integer index rather than pointer, which
// keeps traversal allocation-light and makes the insertion-order
// tie-break trivial. The package deals in indices only; callers translate
// back to names when reporting errors.
package slotgraph

// Graph is a directed graph over an arena of named nodes. The zero index
// is the first node registered; indices are dense and never reused.
//
// Graph is not safe for concurrent use. Builders populate it on one
// goroutine and discard it after sorting.
type Graph struct {
	names []string
	index map[string]int
	out   [][]int
	edges map[[2]int]bool
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		index: make(map[string]int),
		edges: make(map[[2]int]bool),
	}
}

// Add registers a node and returns its index. The second result is false
// when the name was already present; the existing index is returned.
func (g *Graph) Add(name string) (int, bool) {
	if id, ok := g.index[name]; ok {
		return id, false
	}
	id := len(g.names)
	g.names = append(g.names, name)
	g.out = append(g.out, nil)
	g.index[name] = id
	return id, true
}

// Lookup returns the index of a registered node.
func (g *Graph) Lookup(name string) (int, bool) {
	id, ok := g.index[name]
	return id, ok
}

// Name returns the name of the node at the given index.
func (g *Graph) Name(id int) string { return g.names[id] }

// Len returns the number of registered nodes.
func (g *Graph) Len() int { return len(g.names) }

// AddEdge records a dependency edge from → to (to depends on from).
// Parallel edges collapse to one; both endpoints must be registered.
func (g *Graph) AddEdge(from, to int) {
	key := [2]int{from, to}
	if g.edges[key] {
		return
	}
	g.edges[key] = true
	g.out[from] = append(g.out[from], to)
}

// dfs colors for cycle detection.
const (
	colorWhite = iota // unvisited
	colorGray         // on the recursion stack
	colorBlack        // fully explored
)

// FindCycle runs a depth-first traversal with a recursion-stack marker
// and returns the first back-edge found, in node registration order of
// the traversal roots. ok is false when the graph is acyclic.
func (g *Graph) FindCycle() (from, to int, ok bool) {
	color := make([]int, len(g.names))
	for root := range g.names {
		if color[root] != colorWhite {
			continue
		}
		if f, t, found := g.findCycleFrom(root, color); found {
			return f, t, true
		}
	}
	return 0, 0, false
}

func (g *Graph) findCycleFrom(node int, color []int) (int, int, bool) {
	color[node] = colorGray
	for _, next := range g.out[node] {
		switch color[next] {
		case colorGray:
			// Back-edge into the recursion stack: a cycle closes here.
			return node, next, true
		case colorWhite:
			if f, t, found := g.findCycleFrom(next, color); found {
				return f, t, true
			}
		}
	}
	color[node] = colorBlack
	return 0, 0, false
}

// Sort returns a topological order of all nodes. Among nodes with no
// remaining unsatisfied dependency the earliest-registered one is taken
// first, so dispatch order is deterministic across otherwise-equivalent
// graphs. The second result is false when the graph contains a cycle;
// use [Graph.FindCycle] to identify it.
func (g *Graph) Sort() ([]int, bool) {
	n := len(g.names)
	indegree := make([]int, n)
	for edge := range g.edges {
		indegree[edge[1]]++
	}

	ready := make([]bool, n)
	for id := 0; id < n; id++ {
		if indegree[id] == 0 {
			ready[id] = true
		}
	}

	order := make([]int, 0, n)
	for len(order) < n {
		// Smallest ready index = earliest registered node.
		next := -1
		for id := 0; id < n; id++ {
			if ready[id] {
				next = id
				break
			}
		}
		if next == -1 {
			return nil, false
		}
		ready[next] = false
		order = append(order, next)
		for _, succ := range g.out[next] {
			indegree[succ]--
			if indegree[succ] == 0 {
				ready[succ] = true
			}
		}
	}
	return order, true
}
