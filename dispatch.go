package plumber

// DispatchStrategy computes the workgroup counts for a compute node.
// Strategies are evaluated lazily, once per invocation, immediately
// before dispatch, and never cached across invocations. Evaluation must
// not mutate anything: a strategy is a pure function of the context view
// it receives.
type DispatchStrategy interface {
	// Workgroups returns the (x, y, z) workgroup counts for this
	// invocation. All-zero is a legal result meaning "dispatch nothing".
	Workgroups(ctx *GraphContext) (x, y, z uint32)
}

// SizeStrategy computes the byte size of an output resource at
// resolution time. Like [DispatchStrategy], it is evaluated once per
// invocation against the node's context view and must be pure.
type SizeStrategy interface {
	// ByteSize returns the output resource size in bytes for this
	// invocation.
	ByteSize(ctx *GraphContext) uint64
}

// validator is implemented by strategies that can be checked at node
// build time.
type validator interface {
	validate() error
}

// fixedDispatch is a constant workgroup triple.
type fixedDispatch struct {
	x, y, z uint32
}

// FixedWorkgroups returns a strategy that always dispatches the given
// workgroup counts regardless of graph context. All three dimensions
// must be positive; [NodeBuilder.Build] fails with
// [ErrZeroFixedWorkgroups] otherwise.
func FixedWorkgroups(x, y, z uint32) DispatchStrategy {
	return fixedDispatch{x: x, y: y, z: z}
}

func (d fixedDispatch) Workgroups(*GraphContext) (uint32, uint32, uint32) {
	return d.x, d.y, d.z
}

func (d fixedDispatch) validate() error {
	if d.x == 0 || d.y == 0 || d.z == 0 {
		return ErrZeroFixedWorkgroups
	}
	return nil
}

// contextDispatch evaluates a user function against the context view.
type contextDispatch struct {
	fn func(ctx *GraphContext) (x, y, z uint32)
}

// WorkgroupsFromContext returns a strategy that computes workgroup counts
// from the node's resolved input slots. The function must be pure: it
// receives a read-only view restricted to the already-resolved upstream
// slots of the node and must not capture or mutate graph-external state.
//
// When fn observes an absent or zero-size slot it must still produce a
// result; returning zero workgroups is the idiomatic "nothing to do"
// outcome and is dispatched as a no-op.
func WorkgroupsFromContext(fn func(ctx *GraphContext) (x, y, z uint32)) DispatchStrategy {
	return contextDispatch{fn: fn}
}

func (d contextDispatch) Workgroups(ctx *GraphContext) (uint32, uint32, uint32) {
	return d.fn(ctx)
}

// fixedSize is a constant byte size.
type fixedSize uint64

// FixedSize returns a size strategy with a constant byte size.
func FixedSize(bytes uint64) SizeStrategy { return fixedSize(bytes) }

func (s fixedSize) ByteSize(*GraphContext) uint64 { return uint64(s) }

// contextSize evaluates a user function against the context view.
type contextSize struct {
	fn func(ctx *GraphContext) uint64
}

// SizeFromContext returns a size strategy computed from the node's
// resolved input slots, with the same purity contract as
// [WorkgroupsFromContext]. Zero is a legal size.
func SizeFromContext(fn func(ctx *GraphContext) uint64) SizeStrategy {
	return contextSize{fn: fn}
}

func (s contextSize) ByteSize(ctx *GraphContext) uint64 { return s.fn(ctx) }
