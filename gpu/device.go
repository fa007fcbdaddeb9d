package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Device errors.
var (
	// ErrNoAdapter is returned when no usable GPU adapter is found.
	ErrNoAdapter = errors.New("gpu: no discrete or integrated GPU adapter found")

	// ErrNilProvider is returned when FromProvider is called with nil.
	ErrNilProvider = errors.New("gpu: nil device provider")
)

// Device bundles the HAL handles an executor needs. It either owns the
// underlying device (Open) or borrows it from a host context
// (FromProvider); Close only destroys what it owns.
type Device struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	owned    bool
}

// Open creates a standalone device on the Vulkan backend, preferring a
// discrete GPU over an integrated one.
func Open() (*Device, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("gpu: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("gpu: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU {
			selected = &adapters[i]
			break
		}
		if selected == nil && adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
		}
	}
	if selected == nil {
		instance.Destroy()
		return nil, ErrNoAdapter
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("gpu: open adapter: %w", err)
	}

	return &Device{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
		owned:    true,
	}, nil
}

// FromProvider borrows the device of a host context. The provider must
// expose HalDevice() any and HalQueue() any returning hal.Device and
// hal.Queue; gpucontext.DeviceProvider implementations backed by a HAL
// device satisfy this.
func FromProvider(provider any) (*Device, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("gpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("gpu: provider HalQueue is not hal.Queue")
	}
	return &Device{device: device, queue: queue}, nil
}

// FromDeviceProvider borrows the device of a gpucontext host, e.g. a
// windowed application that already opened one for rendering. The
// provider must expose its HAL handles (HalDevice/HalQueue); providers
// backed by software rendering cannot run compute graphs.
func FromDeviceProvider(p gpucontext.DeviceProvider) (*Device, error) {
	if p == nil {
		return nil, ErrNilProvider
	}
	return FromProvider(p)
}

// Close releases the device when owned. Borrowed devices are only
// detached; the host context keeps ownership.
func (d *Device) Close() {
	if d.owned {
		if d.device != nil {
			d.device.Destroy()
		}
		if d.instance != nil {
			d.instance.Destroy()
		}
	}
	d.device = nil
	d.queue = nil
	d.instance = nil
	d.owned = false
}
