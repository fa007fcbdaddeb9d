package plumber

import "fmt"

// ShaderSource references a compute shader. Exactly one field is
// normally set: WGSL holds inline shader source, Path is an opaque
// reference resolved by the host's asset layer. The core never loads or
// parses shaders; it only carries the reference to the execution layer.
type ShaderSource struct {
	// WGSL is inline WGSL source.
	WGSL string

	// Path is an asset-layer shader reference (file path, asset id).
	Path string
}

// IsZero reports whether no shader is referenced.
func (s ShaderSource) IsZero() bool { return s.WGSL == "" && s.Path == "" }

// NodeDescriptor is the unit of compute work: a shader, an entry point,
// an ordered list of resource bindings, and a dispatch strategy. It is
// built once with [NodeBuilder], then treated as immutable; the sub-graph
// shares it by reference.
type NodeDescriptor struct {
	name       string
	shader     ShaderSource
	entryPoint string
	bindings   []ResourceBinding
	dispatch   DispatchStrategy
}

// Name returns the node name.
func (n *NodeDescriptor) Name() string { return n.name }

// Shader returns the shader reference.
func (n *NodeDescriptor) Shader() ShaderSource { return n.shader }

// EntryPoint returns the shader entry point name.
func (n *NodeDescriptor) EntryPoint() string { return n.entryPoint }

// Dispatch returns the node's dispatch strategy.
func (n *NodeDescriptor) Dispatch() DispatchStrategy { return n.dispatch }

// Bindings returns the node's resource bindings in declaration order.
// The returned slice is shared; callers must not modify it.
func (n *NodeDescriptor) Bindings() []ResourceBinding { return n.bindings }

// Binding returns the binding with the given slot name.
func (n *NodeDescriptor) Binding(name string) (ResourceBinding, bool) {
	for _, b := range n.bindings {
		if b.Name == name {
			return b, true
		}
	}
	return ResourceBinding{}, false
}

// InputSlots returns the bindings readable as input slots
// (Input and InputOutput directions), in declaration order.
func (n *NodeDescriptor) InputSlots() []ResourceBinding {
	var slots []ResourceBinding
	for _, b := range n.bindings {
		if b.IsInput() {
			slots = append(slots, b)
		}
	}
	return slots
}

// OutputSlots returns the bindings exposed as output slots
// (Output and InputOutput directions), in declaration order.
func (n *NodeDescriptor) OutputSlots() []ResourceBinding {
	var slots []ResourceBinding
	for _, b := range n.bindings {
		if b.IsOutput() {
			slots = append(slots, b)
		}
	}
	return slots
}

// NodeBuilder accumulates a node descriptor through a fluent declaration
// sequence. No GPU resource is touched at this stage; Build only
// validates and produces an immutable value.
type NodeBuilder struct {
	name       string
	shader     ShaderSource
	entryPoint string
	bindings   []ResourceBinding
	dispatch   DispatchStrategy
}

// NewNode starts building a node descriptor with the given name.
func NewNode(name string) *NodeBuilder {
	return &NodeBuilder{name: name}
}

// Shader sets the shader reference.
func (b *NodeBuilder) Shader(src ShaderSource) *NodeBuilder {
	b.shader = src
	return b
}

// EntryPoint sets the shader entry point name.
func (b *NodeBuilder) EntryPoint(name string) *NodeBuilder {
	b.entryPoint = name
	return b
}

// Dispatch sets the dispatch strategy.
func (b *NodeBuilder) Dispatch(s DispatchStrategy) *NodeBuilder {
	b.dispatch = s
	return b
}

// Input appends an input binding: a slot fed by an upstream resource.
func (b *NodeBuilder) Input(name string, index uint32, kind SlotKind) *NodeBuilder {
	b.bindings = append(b.bindings, ResourceBinding{
		Name: name, Index: index, Direction: BindingInput, Kind: kind,
	})
	return b
}

// Output appends an output binding: a slot whose backing resource is
// created at execution time with a size computed by the given strategy.
func (b *NodeBuilder) Output(name string, index uint32, kind SlotKind, size SizeStrategy) *NodeBuilder {
	b.bindings = append(b.bindings, ResourceBinding{
		Name: name, Index: index, Direction: BindingOutput, Kind: kind, Size: size,
	})
	return b
}

// InputOutput appends a binding that is read and written in place. The
// slot is visible both as an input and as an output; its resource and
// size flow through unchanged.
func (b *NodeBuilder) InputOutput(name string, index uint32, kind SlotKind) *NodeBuilder {
	b.bindings = append(b.bindings, ResourceBinding{
		Name: name, Index: index, Direction: BindingInputOutput, Kind: kind,
	})
	return b
}

// Binding appends a fully specified resource binding.
func (b *NodeBuilder) Binding(rb ResourceBinding) *NodeBuilder {
	b.bindings = append(b.bindings, rb)
	return b
}

// Build validates the accumulated declaration and returns an immutable
// NodeDescriptor. All failures are aggregated into one error:
// [ErrMissingShader], [ErrMissingEntryPoint], [ErrMissingDispatch],
// [ErrDuplicateBindingName], [ErrDuplicateBindingIndex],
// [ErrMissingOutputSize], [ErrZeroFixedWorkgroups].
func (b *NodeBuilder) Build() (*NodeDescriptor, error) {
	var errs []error

	if b.shader.IsZero() {
		errs = append(errs, fmt.Errorf("node %q: %w", b.name, ErrMissingShader))
	}
	if b.entryPoint == "" {
		errs = append(errs, fmt.Errorf("node %q: %w", b.name, ErrMissingEntryPoint))
	}
	if b.dispatch == nil {
		errs = append(errs, fmt.Errorf("node %q: %w", b.name, ErrMissingDispatch))
	} else if v, ok := b.dispatch.(validator); ok {
		if err := v.validate(); err != nil {
			errs = append(errs, fmt.Errorf("node %q: %w", b.name, err))
		}
	}

	seenNames := make(map[string]bool, len(b.bindings))
	seenIndices := make(map[uint32]bool, len(b.bindings))
	for _, rb := range b.bindings {
		if seenNames[rb.Name] {
			errs = append(errs, fmt.Errorf("node %q binding %q: %w", b.name, rb.Name, ErrDuplicateBindingName))
		}
		seenNames[rb.Name] = true

		if seenIndices[rb.Index] {
			errs = append(errs, fmt.Errorf("node %q binding index %d: %w", b.name, rb.Index, ErrDuplicateBindingIndex))
		}
		seenIndices[rb.Index] = true

		if rb.Direction == BindingOutput && rb.Size == nil {
			errs = append(errs, fmt.Errorf("node %q binding %q: %w", b.name, rb.Name, ErrMissingOutputSize))
		}
	}

	if err := buildError(errs); err != nil {
		return nil, err
	}

	bindings := make([]ResourceBinding, len(b.bindings))
	copy(bindings, b.bindings)

	return &NodeDescriptor{
		name:       b.name,
		shader:     b.shader,
		entryPoint: b.entryPoint,
		bindings:   bindings,
		dispatch:   b.dispatch,
	}, nil
}
