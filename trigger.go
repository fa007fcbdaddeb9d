package plumber

import "sync/atomic"

// Trigger is the per-invocation gate deciding whether a sub-graph
// executes. The gate is consulted exactly once per invocation, before
// any dispatch strategy is evaluated: a closed gate short-circuits all
// per-node work for that tick. Triggers hold no memory of prior
// invocations beyond what their own cell state implies.
type Trigger interface {
	// Open reports whether the sub-graph should execute this invocation.
	// The context exposes the sub-graph's external input slot sizes
	// (slots of [GraphInputNode]); nothing node-local is visible.
	Open(ctx *GraphContext) bool
}

// alwaysTrigger opens for every invocation.
type alwaysTrigger struct{}

// Always returns a trigger that opens for every invocation. It is the
// default when a sub-graph declares no trigger.
func Always() Trigger { return alwaysTrigger{} }

func (alwaysTrigger) Open(*GraphContext) bool { return true }

// ManualTrigger is a shared boolean cell flipped by an external owner.
// Ownership is shared between the sub-graph (which only reads) and any
// number of writers. Arming is consumed by the read: one Arm call yields
// exactly one open invocation, after which the gate closes again until
// re-armed.
type ManualTrigger struct {
	armed atomic.Bool
}

// NewManualTrigger returns a closed manual trigger.
func NewManualTrigger() *ManualTrigger { return &ManualTrigger{} }

// Arm opens the gate for the next invocation.
func (t *ManualTrigger) Arm() { t.armed.Store(true) }

// Armed reports whether the gate would open, without consuming it.
func (t *ManualTrigger) Armed() bool { return t.armed.Load() }

// Open consumes the armed state: it returns true at most once per Arm.
func (t *ManualTrigger) Open(*GraphContext) bool {
	return t.armed.Swap(false)
}

// condTrigger evaluates an external predicate over the graph context.
type condTrigger struct {
	pred func(ctx *GraphContext) bool
}

// Conditional returns a trigger that opens when the supplied predicate
// returns true for the current invocation's context. The predicate is
// evaluated once per invocation and must be pure.
func Conditional(pred func(ctx *GraphContext) bool) Trigger {
	return condTrigger{pred: pred}
}

func (t condTrigger) Open(ctx *GraphContext) bool { return t.pred(ctx) }
