package gpu

import (
	"fmt"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/plumber"
)

// NodeState tracks how far a node has progressed toward a runnable
// pipeline. Pipelines are created lazily on the node's first dispatch
// and cached for the executor's lifetime.
type NodeState int

const (
	// NodeStateCreating means the pipeline has not been built yet.
	NodeStateCreating NodeState = iota

	// NodeStateReady means the pipeline is cached and runnable.
	NodeStateReady

	// NodeStateFailed means pipeline creation failed; the cause is
	// latched and every subsequent dispatch of the node reports it.
	NodeStateFailed
)

// String returns the string representation of NodeState.
func (s NodeState) String() string {
	switch s {
	case NodeStateCreating:
		return "Creating"
	case NodeStateReady:
		return "Ready"
	case NodeStateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// nodePipeline is the cached GPU state of one node: shader module,
// bind group layout for group 0, pipeline layout, and compute pipeline.
type nodePipeline struct {
	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline
}

// buildNodePipeline compiles a node's shader and assembles its pipeline.
func buildNodePipeline(device hal.Device, desc *plumber.NodeDescriptor, loader ShaderLoader) (*nodePipeline, error) {
	name := desc.Name()

	entries, err := layoutEntries(name, desc.Bindings())
	if err != nil {
		return nil, err
	}

	shader, err := createShaderModule(device, name+"_shader", desc.Shader(), loader)
	if err != nil {
		return nil, fmt.Errorf("node %q: %w", name, err)
	}

	np := &nodePipeline{shader: shader}

	np.bindLayout, err = device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   name + "_bind_layout",
		Entries: entries,
	})
	if err != nil {
		np.destroy(device)
		return nil, fmt.Errorf("node %q: create bind group layout: %w", name, err)
	}

	np.pipeLayout, err = device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            name + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{np.bindLayout},
	})
	if err != nil {
		np.destroy(device)
		return nil, fmt.Errorf("node %q: create pipeline layout: %w", name, err)
	}

	np.pipeline, err = device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:   name + "_pipeline",
		Layout:  np.pipeLayout,
		Compute: hal.ComputeState{Module: np.shader, EntryPoint: desc.EntryPoint()},
	})
	if err != nil {
		np.destroy(device)
		return nil, fmt.Errorf("node %q: create compute pipeline: %w", name, err)
	}

	return np, nil
}

// destroy releases the pipeline's GPU objects in reverse creation order.
func (np *nodePipeline) destroy(device hal.Device) {
	if np.pipeline != nil {
		device.DestroyComputePipeline(np.pipeline)
		np.pipeline = nil
	}
	if np.pipeLayout != nil {
		device.DestroyPipelineLayout(np.pipeLayout)
		np.pipeLayout = nil
	}
	if np.bindLayout != nil {
		device.DestroyBindGroupLayout(np.bindLayout)
		np.bindLayout = nil
	}
	if np.shader != nil {
		device.DestroyShaderModule(np.shader)
		np.shader = nil
	}
}
