package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/plumber"
)

// ErrTextureBindingUnsupported is returned when an executed node binds a
// texture slot. Texture slots pass graph validation but this execution
// layer only materializes buffers.
var ErrTextureBindingUnsupported = errors.New("gpu: texture bindings not supported by the executor")

// layoutEntries translates a node's resource bindings into bind group
// layout entries for group 0. Inputs become read-only storage; outputs
// and in-place slots become read-write storage.
func layoutEntries(node string, bindings []plumber.ResourceBinding) ([]gputypes.BindGroupLayoutEntry, error) {
	entries := make([]gputypes.BindGroupLayoutEntry, 0, len(bindings))
	for _, b := range bindings {
		if b.Kind != plumber.SlotBuffer {
			return nil, fmt.Errorf("node %q slot %q: %w", node, b.Name, ErrTextureBindingUnsupported)
		}
		bufType := gputypes.BufferBindingTypeStorage
		if b.Direction == plumber.BindingInput {
			bufType = gputypes.BufferBindingTypeReadOnlyStorage
		}
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    b.Index,
			Visibility: gputypes.ShaderStageCompute,
			Buffer:     &gputypes.BufferBindingLayout{Type: bufType},
		})
	}
	return entries, nil
}
