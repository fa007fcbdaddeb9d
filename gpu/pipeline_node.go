package gpu

import (
	"sync"

	"github.com/gogpu/plumber"
)

// PipelineNode is a [plumber.Provider] that gates a node descriptor on
// its pipeline actually building. The authoring side creates one per
// deferred node and pumps Update; the descriptor becomes available to
// [plumber.SubGraphBuilder.Build] only once the shader compiled and the
// pipeline was assembled on the device, so a broken shader fails the
// graph build instead of the first dispatch.
//
// The compiled pipeline is torn down again after validation; executors
// rebuild their own (shader compilation is served from the process
// cache, so the repeat costs little). State and Descriptor may be read
// from a different goroutine than Update runs on.
type PipelineNode struct {
	dev    *Device
	desc   *plumber.NodeDescriptor
	loader ShaderLoader

	mu    sync.Mutex
	state plumber.ProviderState
	err   error
}

// NewPipelineNode returns a provider in Preparing state for the given
// descriptor. loader may be nil when the shader is inline WGSL.
func NewPipelineNode(dev *Device, desc *plumber.NodeDescriptor, loader ShaderLoader) *PipelineNode {
	return &PipelineNode{dev: dev, desc: desc, loader: loader}
}

// Update advances the provider: on first call it builds the node's
// pipeline and latches Ready or Failed. Later calls are no-ops.
func (p *PipelineNode) Update() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != plumber.ProviderPreparing {
		return
	}

	np, err := buildNodePipeline(p.dev.device, p.desc, p.loader)
	if err != nil {
		p.err = err
		p.state = plumber.ProviderFailed
		slogger().Debug("pipeline node failed", "node", p.desc.Name(), "err", err)
		return
	}
	np.destroy(p.dev.device)
	p.state = plumber.ProviderReady
	slogger().Debug("pipeline node ready", "node", p.desc.Name())
}

// State reports the provider's readiness.
func (p *PipelineNode) State() plumber.ProviderState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Descriptor returns the validated descriptor, or the build failure.
func (p *PipelineNode) Descriptor() (*plumber.NodeDescriptor, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	return p.desc, nil
}
