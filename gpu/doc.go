// Package gpu executes resolved sub-graph plans on a WebGPU device.
//
// The core package (plumber) validates graphs and resolves per-invocation
// dispatch plans without touching the GPU; this package turns those plans
// into compute passes. An [Executor] owns the per-node pipelines, a pool
// of slot-keyed storage buffers, and the external endpoints of a graph:
// [InputBuffer] for CPU-produced data entering at the graph boundary and
// [OutputBuffer] for reading results back.
//
// Buffer slots only: a graph whose executed nodes bind texture slots is
// rejected at pipeline creation with [ErrTextureBindingUnsupported].
//
// The device comes either from a shared host context (FromProvider, for
// embedding in an application that already owns a device) or from a
// directly opened backend (Open, for standalone and test use).
package gpu
