package gpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/plumber"
)

// ReadbackState tracks an output buffer through one readback round trip.
type ReadbackState int

const (
	// ReadbackIdle means no result is pending or available.
	ReadbackIdle ReadbackState = iota

	// ReadbackPending means a copy into the staging buffer was encoded
	// this tick; bytes arrive once the submission completes.
	ReadbackPending

	// ReadbackReady means bytes are available via TakeBytes.
	ReadbackReady
)

// String returns the string representation of ReadbackState.
func (s ReadbackState) String() string {
	switch s {
	case ReadbackIdle:
		return "Idle"
	case ReadbackPending:
		return "Pending"
	case ReadbackReady:
		return "Ready"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// OutputBuffer reads one slot's contents back to the CPU. Attach it to a
// producing slot with [Executor.CaptureOutput]; after each tick in which
// the slot resolved, the executor copies the slot's buffer into a
// staging buffer and downloads it, and TakeBytes hands the result to the
// consumer exactly once.
//
// OutputBuffer is safe for concurrent use.
type OutputBuffer struct {
	source plumber.SlotRef

	mu      sync.Mutex
	state   ReadbackState
	bytes   []byte
	staging hal.Buffer
	stgSize uint64
}

// Source returns the captured slot.
func (o *OutputBuffer) Source() plumber.SlotRef { return o.source }

// State returns the current readback state.
func (o *OutputBuffer) State() ReadbackState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// TakeBytes returns the most recent readback and resets the buffer to
// idle. The second result is false while no new result is available;
// each result is delivered at most once.
func (o *OutputBuffer) TakeBytes() ([]byte, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != ReadbackReady {
		return nil, false
	}
	bytes := o.bytes
	o.bytes = nil
	o.state = ReadbackIdle
	return bytes, true
}

// encodeCopy sizes the staging buffer and records the device copy from
// the slot's storage buffer. Called by the executor while encoding.
func (o *OutputBuffer) encodeCopy(device hal.Device, encoder hal.CommandEncoder, src hal.Buffer, size uint64) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	alloc := size
	if alloc == 0 {
		alloc = 4
	}
	if o.staging == nil || o.stgSize != alloc {
		if o.staging != nil {
			device.DestroyBuffer(o.staging)
			o.staging = nil
		}
		staging, err := device.CreateBuffer(&hal.BufferDescriptor{
			Label: o.source.String() + "_staging",
			Size:  alloc,
			Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("gpu: create staging buffer for %s: %w", o.source, err)
		}
		o.staging = staging
		o.stgSize = alloc
	}

	if size > 0 {
		encoder.CopyBufferToBuffer(src, o.staging, []hal.BufferCopy{
			{SrcOffset: 0, DstOffset: 0, Size: size},
		})
	}
	o.state = ReadbackPending
	o.bytes = o.bytes[:0]
	if cap(o.bytes) < int(size) {
		o.bytes = make([]byte, size)
	} else {
		o.bytes = o.bytes[:size]
	}
	return nil
}

// download reads the staging buffer after the submission completed.
func (o *OutputBuffer) download(queue hal.Queue) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != ReadbackPending {
		return nil
	}
	if len(o.bytes) > 0 {
		if err := queue.ReadBuffer(o.staging, 0, o.bytes); err != nil {
			o.state = ReadbackIdle
			return fmt.Errorf("gpu: readback %s: %w", o.source, err)
		}
	}
	o.state = ReadbackReady
	return nil
}

// destroy releases the staging buffer.
func (o *OutputBuffer) destroy(device hal.Device) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.staging != nil {
		device.DestroyBuffer(o.staging)
		o.staging = nil
		o.stgSize = 0
	}
	o.state = ReadbackIdle
	o.bytes = nil
}
