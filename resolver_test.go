package plumber

import "testing"

// dataGraph wires <graph input>.frame → scale.in, scale.out → reduce.in.
// scale doubles its input size, reduce collapses to a fixed 16 bytes.
func dataGraph(t *testing.T, trigger Trigger) *SubGraphDefinition {
	t.Helper()

	scale, err := NewNode("scale").
		Shader(ShaderSource{WGSL: testShader}).
		EntryPoint("main").
		Dispatch(WorkgroupsFromContext(func(ctx *GraphContext) (uint32, uint32, uint32) {
			size, _ := ctx.SlotSize("in")
			return uint32(size / 4), 1, 1
		})).
		Input("in", 0, SlotBuffer).
		Output("out", 1, SlotBuffer, SizeFromContext(func(ctx *GraphContext) uint64 {
			size, _ := ctx.SlotSize("in")
			return size * 2
		})).
		Build()
	if err != nil {
		t.Fatalf("scale node: %v", err)
	}

	reduce, err := NewNode("reduce").
		Shader(ShaderSource{WGSL: testShader}).
		EntryPoint("main").
		Dispatch(FixedWorkgroups(1, 1, 1)).
		Input("in", 0, SlotBuffer).
		Output("out", 1, SlotBuffer, FixedSize(16)).
		Build()
	if err != nil {
		t.Fatalf("reduce node: %v", err)
	}

	b := NewSubGraph("pipeline").
		AddNode("scale", scale).
		AddNode("reduce", reduce).
		AddSlotEdge(GraphInputNode, "frame", "scale", "in").
		AddSlotEdge("scale", "out", "reduce", "in")
	if trigger != nil {
		b.Trigger(trigger)
	}
	def, err := b.Build()
	if err != nil {
		t.Fatalf("Build(): %v", err)
	}
	return def
}

func TestResolverPropagatesSizes(t *testing.T) {
	r := NewResolver(dataGraph(t, nil))

	plan, ran := r.Resolve(map[string]uint64{"frame": 256})
	if !ran {
		t.Fatal("Resolve() ran = false, want true")
	}
	if plan.Graph != "pipeline" {
		t.Errorf("Graph = %q, want %q", plan.Graph, "pipeline")
	}
	if len(plan.Nodes) != 2 {
		t.Fatalf("len(Nodes) = %d, want 2", len(plan.Nodes))
	}

	scale := plan.Nodes[0]
	if scale.Name != "scale" {
		t.Fatalf("Nodes[0].Name = %q, want scale", scale.Name)
	}
	if scale.Workgroups != [3]uint32{64, 1, 1} {
		t.Errorf("scale Workgroups = %v, want [64 1 1]", scale.Workgroups)
	}
	if got := scale.Inputs[0]; !got.Present || got.Size != 256 {
		t.Errorf("scale input = %+v, want present size 256", got)
	}
	if got := scale.Inputs[0].Source; got.Node != GraphInputNode || got.Slot != "frame" {
		t.Errorf("scale input source = %v, want graph input frame", got)
	}
	if got := scale.Outputs[0]; !got.Present || got.Size != 512 {
		t.Errorf("scale output = %+v, want present size 512", got)
	}

	reduce := plan.Nodes[1]
	if got := reduce.Inputs[0]; !got.Present || got.Size != 512 {
		t.Errorf("reduce input = %+v, want present size 512", got)
	}
	if got := reduce.Inputs[0].Source; got.Node != "scale" || got.Slot != "out" {
		t.Errorf("reduce input source = %v, want scale.out", got)
	}
	if got := reduce.Outputs[0]; !got.Present || got.Size != 16 {
		t.Errorf("reduce output = %+v, want present size 16", got)
	}
}

func TestResolverReactsToSizeChange(t *testing.T) {
	// Strategies are re-evaluated per invocation, never cached.
	r := NewResolver(dataGraph(t, nil))

	first, _ := r.Resolve(map[string]uint64{"frame": 64})
	second, _ := r.Resolve(map[string]uint64{"frame": 1024})

	if got := first.Nodes[0].Workgroups[0]; got != 16 {
		t.Errorf("first scale workgroups = %d, want 16", got)
	}
	if got := second.Nodes[0].Workgroups[0]; got != 256 {
		t.Errorf("second scale workgroups = %d, want 256", got)
	}
	if got := second.Nodes[1].Inputs[0].Size; got != 2048 {
		t.Errorf("second reduce input size = %d, want 2048", got)
	}
}

func TestResolverZeroWorkgroupsNoOp(t *testing.T) {
	r := NewResolver(dataGraph(t, nil))

	// Empty external input: scale computes zero workgroups but the plan
	// still resolves downstream sizes.
	plan, ran := r.Resolve(map[string]uint64{"frame": 0})
	if !ran {
		t.Fatal("Resolve() ran = false, want true")
	}
	scale := plan.Nodes[0]
	if !scale.NoOp() {
		t.Errorf("scale NoOp() = false with workgroups %v", scale.Workgroups)
	}
	if got := plan.Nodes[1].Inputs[0]; !got.Present || got.Size != 0 {
		t.Errorf("reduce input = %+v, want present size 0", got)
	}
}

func TestResolverAbsentInput(t *testing.T) {
	r := NewResolver(dataGraph(t, nil))

	// No external input at all: the fed slot never resolves and the
	// strategy sees an absent slot, not a zero-size one.
	plan, ran := r.Resolve(nil)
	if !ran {
		t.Fatal("Resolve() ran = false, want true")
	}
	if got := plan.Nodes[0].Inputs[0]; got.Present {
		t.Errorf("scale input = %+v, want absent", got)
	}
	if !plan.Nodes[0].NoOp() {
		t.Error("scale with absent input should resolve to a no-op")
	}
}

func TestResolverClosedGate(t *testing.T) {
	tr := NewManualTrigger()
	r := NewResolver(dataGraph(t, tr))

	if plan, ran := r.Resolve(map[string]uint64{"frame": 256}); ran || plan != nil {
		t.Errorf("Resolve() with closed gate = (%v, %v), want (nil, false)", plan, ran)
	}

	tr.Arm()
	if _, ran := r.Resolve(map[string]uint64{"frame": 256}); !ran {
		t.Error("Resolve() with armed gate ran = false, want true")
	}
	if _, ran := r.Resolve(map[string]uint64{"frame": 256}); ran {
		t.Error("Resolve() re-ran after arm was consumed")
	}
}

func TestResolverClosedGateEvaluatesNoStrategies(t *testing.T) {
	evals := make(map[string]int)
	countingNode := func(name string) *NodeDescriptor {
		desc, err := NewNode(name).
			Shader(ShaderSource{WGSL: testShader}).
			EntryPoint("main").
			Dispatch(WorkgroupsFromContext(func(ctx *GraphContext) (uint32, uint32, uint32) {
				evals[name]++
				return 1, 1, 1
			})).
			Input("src", 0, SlotBuffer).
			Output("dst", 1, SlotBuffer, FixedSize(16)).
			Build()
		if err != nil {
			t.Fatalf("node %s: %v", name, err)
		}
		return desc
	}

	tr := NewManualTrigger()
	def, err := NewSubGraph("counted").
		AddNode("first", countingNode("first")).
		AddNode("second", countingNode("second")).
		AddSlotEdge(GraphInputNode, "frame", "first", "src").
		AddSlotEdge("first", "dst", "second", "src").
		Trigger(tr).
		Build()
	if err != nil {
		t.Fatalf("Build(): %v", err)
	}
	r := NewResolver(def)
	inputs := map[string]uint64{"frame": 64}

	if _, ran := r.Resolve(inputs); ran {
		t.Fatal("Resolve() ran with a closed gate")
	}
	if len(evals) != 0 {
		t.Errorf("strategies evaluated behind a closed gate: %v", evals)
	}

	tr.Arm()
	if _, ran := r.Resolve(inputs); !ran {
		t.Fatal("Resolve() did not run after arming")
	}
	for _, name := range []string{"first", "second"} {
		if evals[name] != 1 {
			t.Errorf("node %s evaluated %d times, want exactly 1", name, evals[name])
		}
	}

	// The arm was consumed; another closed tick leaves the counts alone.
	if _, ran := r.Resolve(inputs); ran {
		t.Fatal("Resolve() re-ran after arm was consumed")
	}
	for _, name := range []string{"first", "second"} {
		if evals[name] != 1 {
			t.Errorf("node %s evaluated %d times after closed tick, want 1", name, evals[name])
		}
	}
}

func TestResolverGateSeesExternalInputs(t *testing.T) {
	tr := Conditional(func(ctx *GraphContext) bool {
		size, ok := ctx.SlotSize("frame")
		return ok && size > 0
	})
	r := NewResolver(dataGraph(t, tr))

	if _, ran := r.Resolve(map[string]uint64{"frame": 0}); ran {
		t.Error("gate opened on empty input")
	}
	if _, ran := r.Resolve(map[string]uint64{"frame": 128}); !ran {
		t.Error("gate stayed closed on pending input")
	}
}

func TestResolverInputOutputFlowsThrough(t *testing.T) {
	inplace, err := NewNode("inplace").
		Shader(ShaderSource{WGSL: testShader}).
		EntryPoint("main").
		Dispatch(FixedWorkgroups(1, 1, 1)).
		InputOutput("data", 0, SlotBuffer).
		Build()
	if err != nil {
		t.Fatalf("inplace node: %v", err)
	}
	sink, err := NewNode("sink").
		Shader(ShaderSource{WGSL: testShader}).
		EntryPoint("main").
		Dispatch(FixedWorkgroups(1, 1, 1)).
		Input("in", 0, SlotBuffer).
		Output("out", 1, SlotBuffer, FixedSize(4)).
		Build()
	if err != nil {
		t.Fatalf("sink node: %v", err)
	}

	def, err := NewSubGraph("flow").
		AddNode("inplace", inplace).
		AddNode("sink", sink).
		AddSlotEdge(GraphInputNode, "src", "inplace", "data").
		AddSlotEdge("inplace", "data", "sink", "in").
		Build()
	if err != nil {
		t.Fatalf("Build(): %v", err)
	}

	plan, ran := NewResolver(def).Resolve(map[string]uint64{"src": 96})
	if !ran {
		t.Fatal("Resolve() ran = false")
	}

	// The in-place slot keeps the upstream identity and size.
	out := plan.Nodes[0].Outputs[0]
	if !out.Present || out.Size != 96 {
		t.Errorf("inplace output = %+v, want present size 96", out)
	}
	if out.Source.Node != GraphInputNode || out.Source.Slot != "src" {
		t.Errorf("inplace output source = %v, want graph input src", out.Source)
	}

	in := plan.Nodes[1].Inputs[0]
	if !in.Present || in.Size != 96 {
		t.Errorf("sink input = %+v, want present size 96", in)
	}
}
