package plumber

// ResolvedSlot is one slot of a node after per-invocation resolution.
type ResolvedSlot struct {
	// Binding is the node's declaration for this slot.
	Binding ResourceBinding

	// Size is the resolved byte size. Meaningful only when Present.
	Size uint64

	// Present reports whether a backing resource was resolved this
	// invocation. An unfed input slot, or anything downstream of one,
	// is not present.
	Present bool

	// Source is the slot that owns the backing resource. For inputs it
	// is the feeding slot (possibly on [GraphInputNode]); for outputs it
	// is the slot itself, except input-output slots, whose resource is
	// the one feeding them.
	Source SlotRef
}

// NodeDispatch is the execution-ready resolution of one node: the
// workgroup counts its dispatch strategy produced and the resolved
// bindings the GPU layer needs to create the node's bind group.
type NodeDispatch struct {
	// Name is the node name.
	Name string

	// Workgroups holds the (x, y, z) counts. Any zero dimension makes
	// the dispatch a no-op; the execution layer skips the pass.
	Workgroups [3]uint32

	// Inputs and Outputs list the node's resolved slots in declaration
	// order. An InputOutput binding appears in both.
	Inputs  []ResolvedSlot
	Outputs []ResolvedSlot
}

// NoOp reports whether this node dispatches zero workgroups.
func (d *NodeDispatch) NoOp() bool {
	return d.Workgroups[0] == 0 || d.Workgroups[1] == 0 || d.Workgroups[2] == 0
}

// DispatchPlan is the product of one resolution pass: every node of a
// sub-graph in topological order with concrete sizes and workgroup
// counts for this invocation. The plan borrows nothing from the live
// graph; it is a plain value handed to the execution layer.
type DispatchPlan struct {
	// Graph is the sub-graph name.
	Graph string

	// Nodes lists the resolved nodes in dispatch order.
	Nodes []NodeDispatch
}

// Resolver evaluates a sub-graph definition against live resource state
// immediately before each execution. It holds no cross-invocation state:
// every Resolve call starts from the current external input sizes and
// re-evaluates every strategy.
type Resolver struct {
	def *SubGraphDefinition
}

// NewResolver returns a resolver over the given definition.
func NewResolver(def *SubGraphDefinition) *Resolver {
	return &Resolver{def: def}
}

// Resolve performs one invocation's resolution pass. inputs maps the
// sub-graph's external input slot names (slots of [GraphInputNode]) to
// their current byte sizes.
//
// The trigger gate is consulted exactly once, first: when it is closed,
// Resolve returns (nil, false) without evaluating any dispatch strategy
// or touching any slot. Otherwise each node is resolved in topological
// order: input slot sizes are read from whatever resource feeds them,
// the dispatch strategy is evaluated against a context restricted to the
// node's already-resolved upstream slots, and declared output sizes are
// propagated downstream.
//
// Resolution never mutates the definition.
func (r *Resolver) Resolve(inputs map[string]uint64) (*DispatchPlan, bool) {
	def := r.def

	gateCtx := newGraphContext(inputs)
	if !def.trigger.Open(gateCtx) {
		Logger().Debug("trigger gate closed, skipping sub-graph", "graph", def.name)
		return nil, false
	}

	resolved := make(map[SlotRef]uint64, len(inputs))
	for name, size := range inputs {
		resolved[SlotRef{Node: GraphInputNode, Slot: name}] = size
	}

	plan := &DispatchPlan{
		Graph: def.name,
		Nodes: make([]NodeDispatch, 0, len(def.order)),
	}

	for _, nodeName := range def.order {
		desc := def.nodes[nodeName]

		// (a) Resolve input slot sizes from feeding resources.
		ctxSizes := make(map[string]uint64)
		var inSlots []ResolvedSlot
		inSources := make(map[string]ResolvedSlot)
		for _, binding := range desc.Bindings() {
			if !binding.IsInput() {
				continue
			}
			slot := ResolvedSlot{Binding: binding}
			if src, fed := def.feeder(nodeName, binding.Name); fed {
				slot.Source = src
				if size, ok := resolved[src]; ok {
					slot.Size = size
					slot.Present = true
					ctxSizes[binding.Name] = size
				}
			}
			inSlots = append(inSlots, slot)
			inSources[binding.Name] = slot
		}

		// (b) Evaluate the dispatch strategy against the restricted view.
		nodeCtx := newGraphContext(ctxSizes)
		x, y, z := desc.Dispatch().Workgroups(nodeCtx)

		// (c) Propagate declared output sizes downstream.
		var outSlots []ResolvedSlot
		for _, binding := range desc.Bindings() {
			if !binding.IsOutput() {
				continue
			}
			slot := ResolvedSlot{
				Binding: binding,
				Source:  SlotRef{Node: nodeName, Slot: binding.Name},
			}
			if binding.Direction == BindingInputOutput {
				// The resource flows through: same identity, same size.
				in := inSources[binding.Name]
				slot.Size = in.Size
				slot.Present = in.Present
				slot.Source = in.Source
			} else {
				slot.Size = binding.Size.ByteSize(nodeCtx)
				slot.Present = true
			}
			if slot.Present {
				resolved[SlotRef{Node: nodeName, Slot: binding.Name}] = slot.Size
			}
			outSlots = append(outSlots, slot)
		}

		plan.Nodes = append(plan.Nodes, NodeDispatch{
			Name:       nodeName,
			Workgroups: [3]uint32{x, y, z},
			Inputs:     inSlots,
			Outputs:    outSlots,
		})
		Logger().Debug("node resolved",
			"graph", def.name,
			"node", nodeName,
			"workgroups", [3]uint32{x, y, z})
	}

	return plan, true
}
