// Package plumber assembles GPU compute pipelines as reusable,
// runtime-configurable sub-graphs of a host frame-execution graph.
//
// # Overview
//
// A sub-graph is a set of compute nodes (shader + entry point + resource
// bindings + dispatch policy) connected by slot-level data-flow edges.
// The builder validates the graph once — endpoint existence, slot kind
// compatibility, acyclicity — and freezes it into an immutable
// [SubGraphDefinition] with a deterministic topological order. Buffer
// sizes and workgroup counts are not fixed at build time: a [Resolver]
// recomputes them on every invocation from the live sizes of upstream
// resources, so a sub-graph tracks resized inputs without ever being
// rebuilt.
//
// # Quick Start
//
//	node, err := plumber.NewNode("double").
//	    Shader(plumber.ShaderSource{WGSL: src}).
//	    EntryPoint("main").
//	    Input("values", 0, plumber.SlotBuffer).
//	    Output("result", 1, plumber.SlotBuffer, plumber.SizeFromContext(
//	        func(ctx *plumber.GraphContext) uint64 {
//	            n, _ := ctx.SlotSize("values")
//	            return n
//	        })).
//	    Dispatch(plumber.WorkgroupsFromContext(
//	        func(ctx *plumber.GraphContext) (uint32, uint32, uint32) {
//	            n, _ := ctx.SlotSize("values")
//	            return uint32(n / 4), 1, 1
//	        })).
//	    Build()
//
//	def, err := plumber.NewSubGraph("post_process").
//	    AddNode("double", node).
//	    AddSlotEdge(plumber.GraphInputNode, "data", "double", "values").
//	    Trigger(trigger).
//	    Build()
//
// Each host tick, resolve and hand the plan to the GPU layer:
//
//	plan, ran := plumber.NewResolver(def).Resolve(inputs)
//
// # Architecture
//
// The library is organized into:
//   - Public API: descriptors, builders, triggers, resolver (this package)
//   - internal/slotgraph: arena-indexed dependency graph and ordering
//   - graphcfg: declarative HCL sub-graph definitions
//   - gpu: WebGPU execution backend via gogpu/wgpu
//
// The package never owns GPU resources. Pipeline and buffer creation live
// in the gpu sub-package (or any host-provided backend) behind the plan
// produced by the resolver.
package plumber
