package plumber

// GraphInputNode is the reserved node name denoting the host graph's own
// input boundary. It may appear as the from-node of an edge, letting a
// sub-graph consume resources produced outside it. It can never be a
// destination.
const GraphInputNode = "<graph input>"

// SlotRef identifies a slot by its owning node and slot name.
type SlotRef struct {
	Node string
	Slot string
}

// String returns "node.slot" for diagnostics.
func (r SlotRef) String() string { return r.Node + "." + r.Slot }

// GraphContext is the read-only view a dispatch or size strategy sees
// during resolution. It exposes the byte sizes of the slots visible to
// one node: its input slots, resolved from whatever resource feeds each
// of them this invocation. Slots not yet produced are not visible, which
// prevents accidental forward reads.
//
// A GraphContext is valid only for the duration of one strategy
// evaluation and must not be retained.
type GraphContext struct {
	sizes map[string]uint64
}

// SlotSize returns the resolved byte size of the named slot and whether
// the slot is visible. A visible slot of size zero is a legal state (an
// empty upstream buffer), distinct from an absent slot: strategies decide
// for themselves what either means. The resolver never substitutes a
// default.
func (c *GraphContext) SlotSize(slot string) (uint64, bool) {
	if c == nil {
		return 0, false
	}
	size, ok := c.sizes[slot]
	return size, ok
}

// HasSlot reports whether the named slot is visible in this context.
func (c *GraphContext) HasSlot(slot string) bool {
	_, ok := c.SlotSize(slot)
	return ok
}

// Slots returns the number of visible slots.
func (c *GraphContext) Slots() int {
	if c == nil {
		return 0
	}
	return len(c.sizes)
}

// newGraphContext builds a context over the given slot sizes. The map is
// taken by reference; the resolver owns it and never mutates it while a
// strategy runs.
func newGraphContext(sizes map[string]uint64) *GraphContext {
	return &GraphContext{sizes: sizes}
}
