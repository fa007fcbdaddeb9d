package plumber

// SubGraphDefinition is the composed, validated artifact a successful
// [SubGraphBuilder.Build] produces: nodes, edges, a deterministic
// topological order, and a trigger gate. It is immutable; per-invocation
// work (trigger evaluation, size and workgroup resolution) reads it but
// never writes.
type SubGraphDefinition struct {
	name      string
	nodeNames []string
	nodes     map[string]*NodeDescriptor
	nodeEdges []NodeEdge
	slotEdges []SlotEdge
	order     []string
	trigger   Trigger
}

// Name returns the sub-graph name.
func (d *SubGraphDefinition) Name() string { return d.name }

// Node returns the descriptor registered under the given name.
func (d *SubGraphDefinition) Node(name string) (*NodeDescriptor, bool) {
	n, ok := d.nodes[name]
	return n, ok
}

// Nodes returns the node names in registration order.
func (d *SubGraphDefinition) Nodes() []string {
	return append([]string(nil), d.nodeNames...)
}

// Order returns the node names in topological dispatch order.
func (d *SubGraphDefinition) Order() []string {
	return append([]string(nil), d.order...)
}

// NodeEdges returns the declared ordering edges.
func (d *SubGraphDefinition) NodeEdges() []NodeEdge {
	return append([]NodeEdge(nil), d.nodeEdges...)
}

// SlotEdges returns the declared data-flow edges.
func (d *SubGraphDefinition) SlotEdges() []SlotEdge {
	return append([]SlotEdge(nil), d.slotEdges...)
}

// Trigger returns the sub-graph's trigger gate.
func (d *SubGraphDefinition) Trigger() Trigger { return d.trigger }

// feeder returns the slot that feeds the given input slot of a node, if
// a slot edge declares one.
func (d *SubGraphDefinition) feeder(node, slot string) (SlotRef, bool) {
	for _, e := range d.slotEdges {
		if e.To == node && e.ToSlot == slot {
			return SlotRef{Node: e.From, Slot: e.FromSlot}, true
		}
	}
	return SlotRef{}, false
}
