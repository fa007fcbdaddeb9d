package plumber

import (
	"fmt"

	"github.com/gogpu/plumber/internal/slotgraph"
)

// NodeEdge is a pure ordering dependency between two nodes: To must not
// be dispatched before From has run.
type NodeEdge struct {
	From string
	To   string
}

// SlotEdge declares that the named output slot of one node feeds the
// named input slot of another. A slot edge implies the node-level
// dependency From → To.
type SlotEdge struct {
	From     string
	FromSlot string
	To       string
	ToSlot   string
}

// SubGraphBuilder accumulates nodes, providers, edges, and a trigger,
// and compiles them into an immutable [SubGraphDefinition].
//
// Edges are recorded eagerly but validated only at Build time, so a
// builder session may reference nodes declared later in the same
// session. All validation failures are aggregated into a single
// [BuildError].
type SubGraphBuilder struct {
	name      string
	nodeNames []string // insertion order
	nodes     map[string]*NodeDescriptor
	providers []providerRef
	nodeEdges []NodeEdge
	slotEdges []SlotEdge
	trigger   Trigger
	errs      []error
}

// NewSubGraph starts building a sub-graph with the given name.
func NewSubGraph(name string) *SubGraphBuilder {
	return &SubGraphBuilder{
		name:  name,
		nodes: make(map[string]*NodeDescriptor),
	}
}

// AddNode registers a concrete node under the given name. Registering a
// second node or provider under the same name fails the build with
// [ErrDuplicateNodeName].
func (b *SubGraphBuilder) AddNode(name string, desc *NodeDescriptor) *SubGraphBuilder {
	if b.recordName(name) {
		b.nodes[name] = desc
	}
	return b
}

// AddNodeProvider registers a deferred node owned by a host entity. The
// provider is resolved into a concrete descriptor during Build; a
// provider that is not ready by then fails the build with
// [ErrUnresolvedProvider].
func (b *SubGraphBuilder) AddNodeProvider(name string, owner Entity, p Provider) *SubGraphBuilder {
	if b.recordName(name) {
		b.providers = append(b.providers, providerRef{name: name, owner: owner, provider: p})
	}
	return b
}

// recordName claims a node name, recording a duplicate-name failure and
// returning false on collision.
func (b *SubGraphBuilder) recordName(name string) bool {
	for _, existing := range b.nodeNames {
		if existing == name {
			b.errs = append(b.errs, fmt.Errorf("node %q: %w", name, ErrDuplicateNodeName))
			return false
		}
	}
	b.nodeNames = append(b.nodeNames, name)
	return true
}

// AddNodeEdge records an ordering dependency from → to. Endpoints are
// validated at Build time; [GraphInputNode] is allowed as from.
func (b *SubGraphBuilder) AddNodeEdge(from, to string) *SubGraphBuilder {
	b.nodeEdges = append(b.nodeEdges, NodeEdge{From: from, To: to})
	return b
}

// AddSlotEdge records a data-flow edge from one node's output slot to
// another node's input slot. Endpoints, slot existence, and slot kind
// compatibility are validated at Build time; [GraphInputNode] is allowed
// as the from node, in which case the from slot names an external input.
func (b *SubGraphBuilder) AddSlotEdge(fromNode, fromSlot, toNode, toSlot string) *SubGraphBuilder {
	b.slotEdges = append(b.slotEdges, SlotEdge{
		From: fromNode, FromSlot: fromSlot, To: toNode, ToSlot: toSlot,
	})
	return b
}

// Trigger sets the sub-graph's trigger gate. When unset, the sub-graph
// runs on every invocation ([Always]).
func (b *SubGraphBuilder) Trigger(t Trigger) *SubGraphBuilder {
	b.trigger = t
	return b
}

// Build resolves providers, validates every edge, and freezes the result
// into an immutable SubGraphDefinition with a deterministic topological
// order. On failure it returns a [BuildError] aggregating every problem
// found; no partial definition is ever returned.
func (b *SubGraphBuilder) Build() (*SubGraphDefinition, error) {
	errs := append([]error(nil), b.errs...)

	if b.name == "" {
		errs = append(errs, ErrMissingGraphName)
	}

	// (a) Resolve pending providers into concrete descriptors.
	nodes := make(map[string]*NodeDescriptor, len(b.nodeNames))
	for name, desc := range b.nodes {
		nodes[name] = desc
	}
	for _, ref := range b.providers {
		switch ref.provider.State() {
		case ProviderReady:
			desc, err := ref.provider.Descriptor()
			if err != nil {
				errs = append(errs, fmt.Errorf("provider %q (%s): %w: %w",
					ref.name, ref.owner, ErrUnresolvedProvider, err))
				continue
			}
			nodes[ref.name] = desc
		case ProviderFailed:
			_, err := ref.provider.Descriptor()
			errs = append(errs, fmt.Errorf("provider %q (%s) failed: %w: %w",
				ref.name, ref.owner, ErrUnresolvedProvider, err))
		default:
			errs = append(errs, fmt.Errorf("provider %q (%s) not ready: %w",
				ref.name, ref.owner, ErrUnresolvedProvider))
		}
	}

	// (b) Validate edge endpoints; (c) slot kinds where determinable.
	graph := slotgraph.New()
	graph.Add(GraphInputNode)
	for _, name := range b.nodeNames {
		graph.Add(name)
	}

	nodeExists := func(name string) bool {
		if name == GraphInputNode {
			return true
		}
		_, ok := nodes[name]
		return ok
	}

	for _, e := range b.nodeEdges {
		if e.To == GraphInputNode {
			errs = append(errs, fmt.Errorf("node edge %s→%s: graph input cannot be a destination: %w",
				e.From, e.To, ErrUnknownNodeReference))
			continue
		}
		ok := true
		for _, name := range []string{e.From, e.To} {
			if !nodeExists(name) {
				errs = append(errs, fmt.Errorf("node edge %s→%s: node %q: %w",
					e.From, e.To, name, ErrUnknownNodeReference))
				ok = false
			}
		}
		if !ok {
			continue
		}
		from, _ := graph.Lookup(e.From)
		to, _ := graph.Lookup(e.To)
		graph.AddEdge(from, to)
	}

	for _, e := range b.slotEdges {
		if err := b.validateSlotEdge(e, nodes); err != nil {
			errs = append(errs, err)
			continue
		}
		from, _ := graph.Lookup(e.From)
		to, _ := graph.Lookup(e.To)
		graph.AddEdge(from, to)
	}

	// (d) Topological order over node edges plus the node-level
	// projection of slot edges.
	if from, to, found := graph.FindCycle(); found {
		errs = append(errs, fmt.Errorf("back-edge %s→%s: %w",
			graph.Name(from), graph.Name(to), ErrCyclicGraph))
	}

	if err := buildError(errs); err != nil {
		return nil, err
	}

	ids, ok := graph.Sort()
	if !ok {
		// FindCycle above already caught every cyclic graph.
		return nil, &BuildError{Errs: []error{ErrCyclicGraph}}
	}
	order := make([]string, 0, len(ids))
	for _, id := range ids {
		name := graph.Name(id)
		if name == GraphInputNode {
			continue
		}
		order = append(order, name)
	}

	trigger := b.trigger
	if trigger == nil {
		trigger = Always()
	}

	// (e) Freeze.
	def := &SubGraphDefinition{
		name:      b.name,
		nodeNames: append([]string(nil), b.nodeNames...),
		nodes:     nodes,
		nodeEdges: append([]NodeEdge(nil), b.nodeEdges...),
		slotEdges: append([]SlotEdge(nil), b.slotEdges...),
		order:     order,
		trigger:   trigger,
	}
	Logger().Debug("sub-graph built",
		"graph", def.name,
		"nodes", len(def.nodes),
		"order", order)
	return def, nil
}

// validateSlotEdge checks both endpoints and, where both slots are
// declared, their kind compatibility.
func (b *SubGraphBuilder) validateSlotEdge(e SlotEdge, nodes map[string]*NodeDescriptor) error {
	if e.To == GraphInputNode {
		return fmt.Errorf("slot edge %s.%s→%s.%s: graph input cannot be a destination: %w",
			e.From, e.FromSlot, e.To, e.ToSlot, ErrUnknownNodeReference)
	}

	toDesc, ok := nodes[e.To]
	if !ok {
		return fmt.Errorf("slot edge %s.%s→%s.%s: node %q: %w",
			e.From, e.FromSlot, e.To, e.ToSlot, e.To, ErrUnknownNodeReference)
	}
	toBinding, ok := toDesc.Binding(e.ToSlot)
	if !ok || !toBinding.IsInput() {
		return fmt.Errorf("slot edge %s.%s→%s.%s: input slot %q: %w",
			e.From, e.FromSlot, e.To, e.ToSlot, e.ToSlot, ErrUnknownSlotReference)
	}

	if e.From == GraphInputNode {
		// External input: the slot kind on the far side is unknown to the
		// core, so compatibility is not determinable here.
		return nil
	}

	fromDesc, ok := nodes[e.From]
	if !ok {
		return fmt.Errorf("slot edge %s.%s→%s.%s: node %q: %w",
			e.From, e.FromSlot, e.To, e.ToSlot, e.From, ErrUnknownNodeReference)
	}
	fromBinding, ok := fromDesc.Binding(e.FromSlot)
	if !ok || !fromBinding.IsOutput() {
		return fmt.Errorf("slot edge %s.%s→%s.%s: output slot %q: %w",
			e.From, e.FromSlot, e.To, e.ToSlot, e.FromSlot, ErrUnknownSlotReference)
	}

	if fromBinding.Kind != toBinding.Kind {
		return fmt.Errorf("slot edge %s.%s→%s.%s: %s feeds %s: %w",
			e.From, e.FromSlot, e.To, e.ToSlot,
			fromBinding.Kind, toBinding.Kind, ErrSlotKindMismatch)
	}
	return nil
}
