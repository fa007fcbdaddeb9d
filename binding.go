package plumber

import "fmt"

// SlotKind identifies the resource kind a slot carries.
type SlotKind int

const (
	// SlotBuffer is a GPU buffer slot.
	SlotBuffer SlotKind = iota

	// SlotTexture is a GPU texture slot.
	SlotTexture
)

// String returns the string representation of SlotKind.
func (k SlotKind) String() string {
	switch k {
	case SlotBuffer:
		return "Buffer"
	case SlotTexture:
		return "Texture"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// BindingDirection describes how a shader accesses a bound resource.
type BindingDirection int

const (
	// BindingInput is a resource read by the shader; the backing resource
	// is produced upstream (another node's output or an external input).
	BindingInput BindingDirection = iota

	// BindingOutput is a resource written by the shader and created by the
	// execution layer from the binding's size strategy.
	BindingOutput

	// BindingInputOutput is read and written in place; the resource flows
	// through unchanged in identity and size.
	BindingInputOutput
)

// String returns the string representation of BindingDirection.
func (d BindingDirection) String() string {
	switch d {
	case BindingInput:
		return "Input"
	case BindingOutput:
		return "Output"
	case BindingInputOutput:
		return "InputOutput"
	default:
		return fmt.Sprintf("Unknown(%d)", int(d))
	}
}

// ResourceBinding describes one shader binding of a compute node: its slot
// name, binding index within the node's bind group, access direction, and
// resource kind. Name and Index must each be unique within a node; both
// invariants are enforced by [NodeBuilder.Build].
//
// A ResourceBinding is a plain value and is never mutated once attached to
// a [NodeDescriptor].
type ResourceBinding struct {
	// Name is the slot name, unique within the node. Slot edges reference
	// bindings by this name.
	Name string

	// Index is the shader binding index, unique within the node. Bindings
	// map onto the shader's declared binding indices as given; the shader
	// side is not validated here (a mismatch surfaces as a device error
	// from the GPU layer).
	Index uint32

	// Direction is the shader's access direction for this binding.
	Direction BindingDirection

	// Kind is the resource kind this slot carries.
	Kind SlotKind

	// Size declares how the byte size of an output resource is computed
	// at resolution time. Required when Direction is BindingOutput,
	// ignored otherwise: input sizes come from the feeding resource, and
	// input-output slots propagate their input size.
	Size SizeStrategy
}

// IsInput reports whether the binding reads an upstream resource.
func (b ResourceBinding) IsInput() bool {
	return b.Direction == BindingInput || b.Direction == BindingInputOutput
}

// IsOutput reports whether the binding exposes a downstream slot.
func (b ResourceBinding) IsOutput() bool {
	return b.Direction == BindingOutput || b.Direction == BindingInputOutput
}
