package gpu

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/plumber"
)

// Executor errors.
var (
	// ErrUnknownInputSlot is returned when BindInput names a slot no
	// slot edge consumes from the graph input boundary.
	ErrUnknownInputSlot = errors.New("gpu: no slot edge consumes this graph input")

	// ErrNotAnOutputSlot is returned when CaptureOutput names a slot
	// that is not an output of its node.
	ErrNotAnOutputSlot = errors.New("gpu: slot is not a node output")

	// ErrGPUTimeout is returned when a submission does not complete
	// within the fence deadline.
	ErrGPUTimeout = errors.New("gpu: timed out waiting for submission")
)

// fenceTimeout bounds how long Tick blocks on a submission.
const fenceTimeout = 5 * time.Second

// Executor runs one sub-graph on a device, tick by tick. Each Tick
// uploads dirty inputs, resolves the graph through its trigger gate,
// encodes one compute pass per dispatching node, and services readbacks.
//
// Node pipelines are compiled lazily on first dispatch and cached;
// output storage buffers persist across ticks and are recreated only on
// size changes. A node whose pipeline fails to build is latched failed
// and fails every subsequent tick that dispatches it.
//
// Executor methods must be called from one goroutine; the input and
// output endpoints it hands out are individually thread-safe.
type Executor struct {
	mu     sync.Mutex
	dev    *Device
	def    *plumber.SubGraphDefinition
	res    *plumber.Resolver
	loader ShaderLoader

	pipelines map[string]*nodePipeline
	nodeErr   map[string]error
	pool      *bufferPool
	inputs    map[string]*InputBuffer
	outputs   map[plumber.SlotRef]*OutputBuffer
	ticks     uint64
}

// Option configures an Executor.
type Option func(*Executor)

// WithShaderLoader installs the resolver for path-referenced shaders.
func WithShaderLoader(l ShaderLoader) Option {
	return func(e *Executor) { e.loader = l }
}

// NewExecutor creates an executor for one sub-graph definition. Nothing
// touches the device until the first Tick.
func NewExecutor(dev *Device, def *plumber.SubGraphDefinition, opts ...Option) *Executor {
	e := &Executor{
		dev:       dev,
		def:       def,
		res:       plumber.NewResolver(def),
		pipelines: make(map[string]*nodePipeline),
		nodeErr:   make(map[string]error),
		pool:      newBufferPool(dev.device),
		inputs:    make(map[string]*InputBuffer),
		outputs:   make(map[plumber.SlotRef]*OutputBuffer),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BindInput attaches an input buffer to a graph-input slot. The slot
// must be consumed by some slot edge from the graph input boundary.
func (e *Executor) BindInput(slot string, in *InputBuffer) error {
	used := false
	for _, edge := range e.def.SlotEdges() {
		if edge.From == plumber.GraphInputNode && edge.FromSlot == slot {
			used = true
			break
		}
	}
	if !used {
		return fmt.Errorf("%w: %q", ErrUnknownInputSlot, slot)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inputs[slot] = in
	return nil
}

// CaptureOutput attaches a readback endpoint to a node's output slot.
// Repeated calls for the same slot return the same endpoint.
func (e *Executor) CaptureOutput(node, slot string) (*OutputBuffer, error) {
	desc, ok := e.def.Node(node)
	if !ok {
		return nil, fmt.Errorf("gpu: node %q: %w", node, plumber.ErrUnknownNodeReference)
	}
	binding, ok := desc.Binding(slot)
	if !ok || !binding.IsOutput() {
		return nil, fmt.Errorf("%w: %s.%s", ErrNotAnOutputSlot, node, slot)
	}

	ref := plumber.SlotRef{Node: node, Slot: slot}
	e.mu.Lock()
	defer e.mu.Unlock()
	if out, ok := e.outputs[ref]; ok {
		return out, nil
	}
	out := &OutputBuffer{source: ref}
	e.outputs[ref] = out
	return out, nil
}

// NodeState reports a node's pipeline state.
func (e *Executor) NodeState(name string) NodeState {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.nodeErr[name] != nil {
		return NodeStateFailed
	}
	if _, ok := e.pipelines[name]; ok {
		return NodeStateReady
	}
	return NodeStateCreating
}

// pipeline returns the cached pipeline for a node, building it on first
// use. Failures latch. Caller holds e.mu.
func (e *Executor) pipeline(name string) (*nodePipeline, error) {
	if err := e.nodeErr[name]; err != nil {
		return nil, err
	}
	if np, ok := e.pipelines[name]; ok {
		return np, nil
	}
	desc, _ := e.def.Node(name)
	np, err := buildNodePipeline(e.dev.device, desc, e.loader)
	if err != nil {
		e.nodeErr[name] = err
		return nil, err
	}
	e.pipelines[name] = np
	slogger().Debug("pipeline built", "graph", e.def.Name(), "node", name)
	return np, nil
}

// Tick runs one invocation. It returns false with a nil error when the
// trigger gate is closed; true when the graph ran. A node whose inputs
// did not resolve this tick is skipped, not failed.
func (e *Executor) Tick() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// 1. Upload dirty inputs and collect external sizes.
	inputBufs := make(map[string]hal.Buffer, len(e.inputs))
	sizes := make(map[string]uint64, len(e.inputs))
	for slot, in := range e.inputs {
		buf, size, err := in.upload(e.dev.device, e.dev.queue, "input_"+slot)
		if err != nil {
			return false, fmt.Errorf("gpu: upload input %q: %w", slot, err)
		}
		inputBufs[slot] = buf
		sizes[slot] = size
	}

	// 2. Resolve through the trigger gate.
	plan, ran := e.res.Resolve(sizes)
	if !ran {
		return false, nil
	}
	e.ticks++

	// 3. Materialize output buffers and collect resource identities.
	// alias maps each producing slot to the slot owning its resource;
	// in-place slots point upstream.
	alias := make(map[plumber.SlotRef]plumber.SlotRef)
	slotSizes := make(map[plumber.SlotRef]uint64, len(sizes))
	for slot, size := range sizes {
		slotSizes[plumber.SlotRef{Node: plumber.GraphInputNode, Slot: slot}] = size
	}
	for _, node := range plan.Nodes {
		for _, out := range node.Outputs {
			if !out.Present {
				continue
			}
			own := plumber.SlotRef{Node: node.Name, Slot: out.Binding.Name}
			alias[own] = out.Source
			slotSizes[own] = out.Size
			if out.Source == own {
				if _, err := e.pool.ensure(own, out.Size); err != nil {
					return false, err
				}
			}
		}
	}

	resolveBuffer := func(ref plumber.SlotRef) (hal.Buffer, bool) {
		for {
			next, ok := alias[ref]
			if !ok || next == ref {
				break
			}
			ref = next
		}
		if ref.Node == plumber.GraphInputNode {
			buf, ok := inputBufs[ref.Slot]
			return buf, ok
		}
		return e.pool.lookup(ref)
	}

	// 4. Encode one compute pass per dispatching node.
	encoder, err := e.dev.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: e.def.Name() + "_encoder",
	})
	if err != nil {
		return false, fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(e.def.Name()); err != nil {
		return false, fmt.Errorf("gpu: begin encoding: %w", err)
	}

	var bindGroups []hal.BindGroup
	defer func() {
		for _, bg := range bindGroups {
			e.dev.device.DestroyBindGroup(bg)
		}
	}()

	// Encoding failures are collected rather than returned so the
	// encoder is always ended and its command buffer freed.
	var encodeErr error
	encoded := 0
	for _, node := range plan.Nodes {
		if node.NoOp() {
			slogger().Debug("node skipped: zero workgroups", "graph", plan.Graph, "node", node.Name)
			continue
		}
		entries, ok := e.bindGroupEntries(node, resolveBuffer)
		if !ok {
			slogger().Debug("node skipped: unresolved input", "graph", plan.Graph, "node", node.Name)
			continue
		}
		np, err := e.pipeline(node.Name)
		if err != nil {
			encodeErr = err
			break
		}
		bg, err := e.dev.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:   node.Name + "_bindings",
			Layout:  np.bindLayout,
			Entries: entries,
		})
		if err != nil {
			encodeErr = fmt.Errorf("gpu: node %q: create bind group: %w", node.Name, err)
			break
		}
		bindGroups = append(bindGroups, bg)

		pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: node.Name + "_pass"})
		pass.SetPipeline(np.pipeline)
		pass.SetBindGroup(0, bg, nil)
		pass.Dispatch(node.Workgroups[0], node.Workgroups[1], node.Workgroups[2])
		pass.End()
		encoded++
	}

	// 5. Encode readback copies for captured slots that resolved.
	copies := 0
	if encodeErr == nil {
		for ref, out := range e.outputs {
			size, resolved := slotSizes[ref]
			if !resolved {
				continue
			}
			src, ok := resolveBuffer(ref)
			if !ok {
				continue
			}
			if err := out.encodeCopy(e.dev.device, encoder, src, size); err != nil {
				encodeErr = err
				break
			}
			copies++
		}
	}

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return false, fmt.Errorf("gpu: end encoding: %w", err)
	}
	defer e.dev.device.FreeCommandBuffer(cmdBuf)

	if encodeErr != nil {
		return false, encodeErr
	}
	if encoded == 0 && copies == 0 {
		// Nothing recorded this tick; the gate still counted as open.
		return true, nil
	}

	// 6. Submit and wait.
	fence, err := e.dev.device.CreateFence()
	if err != nil {
		return false, fmt.Errorf("gpu: create fence: %w", err)
	}
	defer e.dev.device.DestroyFence(fence)

	if err := e.dev.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return false, fmt.Errorf("gpu: submit: %w", err)
	}
	fenceOK, err := e.dev.device.Wait(fence, 1, fenceTimeout)
	if err != nil {
		return false, fmt.Errorf("gpu: wait: %w", err)
	}
	if !fenceOK {
		return false, ErrGPUTimeout
	}

	// 7. Service readbacks.
	for _, out := range e.outputs {
		if err := out.download(e.dev.queue); err != nil {
			return false, err
		}
	}

	slogger().Debug("tick complete",
		"graph", plan.Graph, "tick", e.ticks, "passes", encoded, "readbacks", copies)
	return true, nil
}

// mergedSlots returns a node's resolved slots in binding-index order,
// with in-place slots (which appear in both Inputs and Outputs) listed
// once. The order is stable across ticks so bind group entries are
// reproducible.
func mergedSlots(node plumber.NodeDispatch) []plumber.ResolvedSlot {
	slots := make([]plumber.ResolvedSlot, 0, len(node.Inputs)+len(node.Outputs))
	seen := make(map[string]bool, len(node.Inputs))
	for _, s := range node.Inputs {
		slots = append(slots, s)
		seen[s.Binding.Name] = true
	}
	for _, s := range node.Outputs {
		if seen[s.Binding.Name] {
			continue
		}
		slots = append(slots, s)
	}
	sort.Slice(slots, func(i, j int) bool {
		return slots[i].Binding.Index < slots[j].Binding.Index
	})
	return slots
}

// bindGroupEntries assembles the group-0 entries for one dispatching
// node. It returns ok=false when any binding's resource did not resolve
// this tick.
func (e *Executor) bindGroupEntries(node plumber.NodeDispatch, resolve func(plumber.SlotRef) (hal.Buffer, bool)) ([]gputypes.BindGroupEntry, bool) {
	slots := mergedSlots(node)
	entries := make([]gputypes.BindGroupEntry, 0, len(slots))
	for _, slot := range slots {
		if !slot.Present {
			return nil, false
		}
		buf, ok := resolve(slot.Source)
		if !ok {
			return nil, false
		}
		bindSize := slot.Size
		if bindSize == 0 {
			bindSize = 4 // minimal backing allocation
		}
		entries = append(entries, gputypes.BindGroupEntry{
			Binding: slot.Binding.Index,
			Resource: gputypes.BufferBinding{
				Buffer: buf.NativeHandle(),
				Offset: 0,
				Size:   bindSize,
			},
		})
	}
	return entries, true
}

// Close releases every GPU object the executor created. The device
// itself is left to its owner.
func (e *Executor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for name, np := range e.pipelines {
		np.destroy(e.dev.device)
		delete(e.pipelines, name)
	}
	e.pool.destroy()
	for _, in := range e.inputs {
		in.destroy(e.dev.device)
	}
	for _, out := range e.outputs {
		out.destroy(e.dev.device)
	}
}
