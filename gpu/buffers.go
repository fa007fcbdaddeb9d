package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/plumber"
)

// bufferPool caches the storage buffers backing node output slots,
// keyed by the slot that owns each resource. Buffers persist across
// invocations and are recreated only when the resolved size changes, so
// steady-state graphs allocate nothing per tick.
type bufferPool struct {
	device  hal.Device
	buffers map[plumber.SlotRef]*pooledBuffer
}

type pooledBuffer struct {
	buf  hal.Buffer
	size uint64
}

func newBufferPool(device hal.Device) *bufferPool {
	return &bufferPool{
		device:  device,
		buffers: make(map[plumber.SlotRef]*pooledBuffer),
	}
}

// ensure returns the buffer for a slot, creating or resizing it to the
// given byte size. Zero-size slots still get a minimal buffer so bind
// groups stay valid.
func (p *bufferPool) ensure(ref plumber.SlotRef, size uint64) (hal.Buffer, error) {
	alloc := size
	if alloc == 0 {
		alloc = 4
	}

	if pb, ok := p.buffers[ref]; ok {
		if pb.size == alloc {
			return pb.buf, nil
		}
		p.device.DestroyBuffer(pb.buf)
		delete(p.buffers, ref)
	}

	buf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: ref.String(),
		Size:  alloc,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create buffer for %s: %w", ref, err)
	}
	p.buffers[ref] = &pooledBuffer{buf: buf, size: alloc}
	return buf, nil
}

// lookup returns the cached buffer for a slot without creating one.
func (p *bufferPool) lookup(ref plumber.SlotRef) (hal.Buffer, bool) {
	pb, ok := p.buffers[ref]
	if !ok {
		return nil, false
	}
	return pb.buf, true
}

// destroy releases every pooled buffer.
func (p *bufferPool) destroy() {
	for ref, pb := range p.buffers {
		p.device.DestroyBuffer(pb.buf)
		delete(p.buffers, ref)
	}
}
