package gpu

import (
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// InputBuffer feeds CPU-produced bytes into a graph-input slot. The
// producing side calls SetBytes whenever it has new data; the executor
// uploads the bytes to a storage buffer at the start of the next tick.
//
// InputBuffer is safe for concurrent use: the producer and the executor
// may live on different goroutines.
type InputBuffer struct {
	mu    sync.Mutex
	data  []byte
	dirty bool

	buf     hal.Buffer
	bufSize uint64
}

// NewInputBuffer returns an empty input buffer.
func NewInputBuffer() *InputBuffer { return &InputBuffer{} }

// SetBytes replaces the buffer contents. The slice is copied, so the
// caller may reuse it immediately.
func (b *InputBuffer) SetBytes(data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = append(b.data[:0], data...)
	b.dirty = true
}

// Len returns the current byte size of the pending contents.
func (b *InputBuffer) Len() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return uint64(len(b.data))
}

// upload pushes pending bytes to the GPU, growing the storage buffer
// when the size changed, and returns the buffer plus its current size.
// Without pending changes it returns the previously uploaded state.
func (b *InputBuffer) upload(device hal.Device, queue hal.Queue, label string) (hal.Buffer, uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	size := uint64(len(b.data))
	if !b.dirty && b.buf != nil {
		return b.buf, size, nil
	}

	alloc := size
	if alloc == 0 {
		alloc = 4
	}
	if b.buf == nil || b.bufSize != alloc {
		if b.buf != nil {
			device.DestroyBuffer(b.buf)
			b.buf = nil
		}
		buf, err := device.CreateBuffer(&hal.BufferDescriptor{
			Label: label,
			Size:  alloc,
			Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return nil, 0, err
		}
		b.buf = buf
		b.bufSize = alloc
	}

	if size > 0 {
		queue.WriteBuffer(b.buf, 0, b.data)
	}
	b.dirty = false
	return b.buf, size, nil
}

// destroy releases the GPU buffer. CPU-side bytes are kept.
func (b *InputBuffer) destroy(device hal.Device) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.buf != nil {
		device.DestroyBuffer(b.buf)
		b.buf = nil
		b.bufSize = 0
	}
	b.dirty = true // re-upload on next use
}
