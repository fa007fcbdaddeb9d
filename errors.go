package plumber

import (
	"errors"
	"fmt"
	"strings"
)

// Build and resolution errors. Every failure surfaced by a builder or the
// resolver wraps one of these sentinels, so callers can classify with
// errors.Is while the wrapped message carries the offending node, slot,
// or edge names.
var (
	// ErrDuplicateNodeName is returned when two nodes or providers are
	// registered under the same name in one sub-graph.
	ErrDuplicateNodeName = errors.New("plumber: duplicate node name")

	// ErrDuplicateBindingName is returned when two bindings on one node
	// share a name.
	ErrDuplicateBindingName = errors.New("plumber: duplicate binding name")

	// ErrDuplicateBindingIndex is returned when two bindings on one node
	// share a binding index.
	ErrDuplicateBindingIndex = errors.New("plumber: duplicate binding index")

	// ErrUnknownNodeReference is returned when an edge names a node absent
	// from the graph.
	ErrUnknownNodeReference = errors.New("plumber: unknown node reference")

	// ErrUnknownSlotReference is returned when a slot edge names a slot
	// absent from its node.
	ErrUnknownSlotReference = errors.New("plumber: unknown slot reference")

	// ErrSlotKindMismatch is returned when a slot edge connects a buffer
	// slot to a texture slot or vice versa.
	ErrSlotKindMismatch = errors.New("plumber: slot kind mismatch")

	// ErrCyclicGraph is returned when no topological order exists.
	ErrCyclicGraph = errors.New("plumber: cyclic graph")

	// ErrUnresolvedProvider is returned when a node provider's backing
	// descriptor is not ready at build time.
	ErrUnresolvedProvider = errors.New("plumber: unresolved node provider")

	// ErrMissingShader is returned when a node descriptor has no shader
	// reference at build time.
	ErrMissingShader = errors.New("plumber: missing shader")

	// ErrMissingEntryPoint is returned when a node descriptor has no entry
	// point at build time.
	ErrMissingEntryPoint = errors.New("plumber: missing entry point")

	// ErrMissingDispatch is returned when a node descriptor has no
	// dispatch strategy at build time.
	ErrMissingDispatch = errors.New("plumber: missing dispatch strategy")

	// ErrMissingGraphName is returned when a sub-graph is built without
	// a name.
	ErrMissingGraphName = errors.New("plumber: missing sub-graph name")

	// ErrZeroFixedWorkgroups is returned when a fixed dispatch strategy
	// declares a zero dimension. A zero-workgroup dispatch is only
	// meaningful when computed from context.
	ErrZeroFixedWorkgroups = errors.New("plumber: fixed workgroup count must be positive")

	// ErrMissingOutputSize is returned when an output binding declares no
	// size strategy.
	ErrMissingOutputSize = errors.New("plumber: output binding missing size strategy")
)

// BuildError aggregates every failure found during a single Build call.
// Builders validate as much as possible before giving up, so one failed
// build reports all diagnosable problems at once. BuildError unwraps to
// the individual errors, making errors.Is work against the sentinels
// above.
type BuildError struct {
	// Errs holds the individual failures in detection order.
	Errs []error
}

// Error returns all aggregated messages joined on "; ".
func (e *BuildError) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("plumber: build failed: %s", strings.Join(msgs, "; "))
}

// Unwrap exposes the aggregated errors for errors.Is / errors.As.
func (e *BuildError) Unwrap() []error { return e.Errs }

// buildError returns nil when errs is empty, otherwise a *BuildError.
func buildError(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return &BuildError{Errs: errs}
}
