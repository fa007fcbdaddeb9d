package plumber

import (
	"errors"
	"testing"
)

const testShader = `
@group(0) @binding(0) var<storage, read> in: array<u32>;
@group(0) @binding(1) var<storage, read_write> out: array<u32>;

@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
    out[id.x] = in[id.x] * 2u;
}
`

func validNode(t *testing.T, name string) *NodeDescriptor {
	t.Helper()
	desc, err := NewNode(name).
		Shader(ShaderSource{WGSL: testShader}).
		EntryPoint("main").
		Dispatch(FixedWorkgroups(1, 1, 1)).
		Input("in", 0, SlotBuffer).
		Output("out", 1, SlotBuffer, FixedSize(256)).
		Build()
	if err != nil {
		t.Fatalf("Build() of valid node %q: %v", name, err)
	}
	return desc
}

func TestNodeBuilderValid(t *testing.T) {
	desc := validNode(t, "double")

	if desc.Name() != "double" {
		t.Errorf("Name() = %q, want %q", desc.Name(), "double")
	}
	if desc.EntryPoint() != "main" {
		t.Errorf("EntryPoint() = %q, want %q", desc.EntryPoint(), "main")
	}
	if got := len(desc.Bindings()); got != 2 {
		t.Fatalf("len(Bindings()) = %d, want 2", got)
	}
	if got := len(desc.InputSlots()); got != 1 {
		t.Errorf("len(InputSlots()) = %d, want 1", got)
	}
	if got := len(desc.OutputSlots()); got != 1 {
		t.Errorf("len(OutputSlots()) = %d, want 1", got)
	}
	if _, ok := desc.Binding("in"); !ok {
		t.Error("Binding(in) not found")
	}
	if _, ok := desc.Binding("missing"); ok {
		t.Error("Binding(missing) found, want absent")
	}
}

func TestNodeBuilderInputOutputSlot(t *testing.T) {
	desc, err := NewNode("inplace").
		Shader(ShaderSource{WGSL: testShader}).
		EntryPoint("main").
		Dispatch(FixedWorkgroups(1, 1, 1)).
		InputOutput("data", 0, SlotBuffer).
		Build()
	if err != nil {
		t.Fatalf("Build(): %v", err)
	}

	// An in-place slot is visible on both sides and needs no size.
	if got := len(desc.InputSlots()); got != 1 {
		t.Errorf("len(InputSlots()) = %d, want 1", got)
	}
	if got := len(desc.OutputSlots()); got != 1 {
		t.Errorf("len(OutputSlots()) = %d, want 1", got)
	}
}

func TestNodeBuilderErrors(t *testing.T) {
	tests := []struct {
		name    string
		builder *NodeBuilder
		want    []error
	}{
		{
			name:    "missing everything",
			builder: NewNode("empty"),
			want:    []error{ErrMissingShader, ErrMissingEntryPoint, ErrMissingDispatch},
		},
		{
			name: "missing entry point",
			builder: NewNode("n").
				Shader(ShaderSource{WGSL: testShader}).
				Dispatch(FixedWorkgroups(1, 1, 1)),
			want: []error{ErrMissingEntryPoint},
		},
		{
			name: "zero fixed workgroups",
			builder: NewNode("n").
				Shader(ShaderSource{WGSL: testShader}).
				EntryPoint("main").
				Dispatch(FixedWorkgroups(4, 0, 1)),
			want: []error{ErrZeroFixedWorkgroups},
		},
		{
			name: "duplicate binding name",
			builder: NewNode("n").
				Shader(ShaderSource{WGSL: testShader}).
				EntryPoint("main").
				Dispatch(FixedWorkgroups(1, 1, 1)).
				Input("data", 0, SlotBuffer).
				Output("data", 1, SlotBuffer, FixedSize(64)),
			want: []error{ErrDuplicateBindingName},
		},
		{
			name: "duplicate binding index",
			builder: NewNode("n").
				Shader(ShaderSource{WGSL: testShader}).
				EntryPoint("main").
				Dispatch(FixedWorkgroups(1, 1, 1)).
				Input("a", 0, SlotBuffer).
				Input("b", 0, SlotBuffer),
			want: []error{ErrDuplicateBindingIndex},
		},
		{
			name: "output without size",
			builder: NewNode("n").
				Shader(ShaderSource{WGSL: testShader}).
				EntryPoint("main").
				Dispatch(FixedWorkgroups(1, 1, 1)).
				Output("out", 0, SlotBuffer, nil),
			want: []error{ErrMissingOutputSize},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc, err := tt.builder.Build()
			if err == nil {
				t.Fatal("Build() succeeded, want error")
			}
			if desc != nil {
				t.Error("Build() returned a descriptor alongside an error")
			}
			for _, want := range tt.want {
				if !errors.Is(err, want) {
					t.Errorf("Build() error %v does not wrap %v", err, want)
				}
			}
		})
	}
}

func TestNodeBuilderAggregatesErrors(t *testing.T) {
	_, err := NewNode("broken").
		Dispatch(FixedWorkgroups(0, 0, 0)).
		Input("a", 0, SlotBuffer).
		Input("a", 0, SlotBuffer).
		Build()
	if err == nil {
		t.Fatal("Build() succeeded, want error")
	}

	var buildErr *BuildError
	if !errors.As(err, &buildErr) {
		t.Fatalf("Build() error %T, want *BuildError", err)
	}
	// shader, entry point, zero workgroups, dup name, dup index.
	if got := len(buildErr.Errs); got != 5 {
		t.Errorf("len(Errs) = %d, want 5: %v", got, buildErr)
	}
}
