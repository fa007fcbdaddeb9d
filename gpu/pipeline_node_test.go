package gpu

import (
	"errors"
	"testing"

	"github.com/gogpu/plumber"
)

func pathNode(t *testing.T) *plumber.NodeDescriptor {
	t.Helper()
	desc, err := plumber.NewNode("stage").
		Shader(plumber.ShaderSource{Path: "shaders/stage.wgsl"}).
		EntryPoint("main").
		Dispatch(plumber.FixedWorkgroups(1, 1, 1)).
		Input("src", 0, plumber.SlotBuffer).
		Output("dst", 1, plumber.SlotBuffer, plumber.FixedSize(64)).
		Build()
	if err != nil {
		t.Fatalf("node: %v", err)
	}
	return desc
}

func TestPipelineNodeLatchesFailure(t *testing.T) {
	// A path shader with no loader fails before any device call, so a
	// zero Device is safe here.
	p := NewPipelineNode(&Device{}, pathNode(t), nil)

	if got := p.State(); got != plumber.ProviderPreparing {
		t.Fatalf("State() = %v before Update, want Preparing", got)
	}

	p.Update()
	if got := p.State(); got != plumber.ProviderFailed {
		t.Fatalf("State() = %v, want Failed", got)
	}
	if _, err := p.Descriptor(); !errors.Is(err, ErrNoShaderSource) {
		t.Errorf("Descriptor() err = %v, want ErrNoShaderSource", err)
	}

	// Failure is latched; further pumps do not resurrect the provider.
	p.Update()
	if got := p.State(); got != plumber.ProviderFailed {
		t.Errorf("State() after re-Update = %v, want Failed", got)
	}
}

// TestPipelineNodeGatesBuild builds a pipeline on real hardware and
// feeds the validated descriptor through a graph build.
func TestPipelineNodeGatesBuild(t *testing.T) {
	dev, err := Open()
	if err != nil {
		t.Skipf("GPU not available: %v", err)
	}
	defer dev.Close()

	desc, err := plumber.NewNode("double").
		Shader(plumber.ShaderSource{WGSL: doubleWGSL}).
		EntryPoint("main").
		Dispatch(plumber.FixedWorkgroups(1, 1, 1)).
		Input("src", 0, plumber.SlotBuffer).
		Output("dst", 1, plumber.SlotBuffer, plumber.FixedSize(64)).
		Build()
	if err != nil {
		t.Fatalf("node: %v", err)
	}

	p := NewPipelineNode(dev, desc, nil)

	builder := plumber.NewSubGraph("gated").
		AddNodeProvider("double", 1, p).
		AddSlotEdge(plumber.GraphInputNode, "values", "double", "src")

	// Before the provider progressed, the build must report it pending.
	if _, err := builder.Build(); !errors.Is(err, plumber.ErrUnresolvedProvider) {
		t.Fatalf("Build() before Update = %v, want ErrUnresolvedProvider", err)
	}

	p.Update()
	if got := p.State(); got != plumber.ProviderReady {
		t.Fatalf("State() = %v after Update, want Ready", got)
	}
	got, err := p.Descriptor()
	if err != nil || got != desc {
		t.Fatalf("Descriptor() = (%v, %v), want original descriptor", got, err)
	}

	if _, err := builder.Build(); err != nil {
		t.Fatalf("Build() after Update: %v", err)
	}
}
