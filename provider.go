package plumber

import (
	"fmt"
	"sync"
)

// Entity is an opaque reference to a host-managed entity. The core never
// creates or destroys entities; it only records which entity owns a node
// provider so failures can be attributed.
type Entity uint64

// String returns the entity id for diagnostics.
func (e Entity) String() string { return fmt.Sprintf("entity(%d)", uint64(e)) }

// ProviderState reports how far a node provider has progressed toward a
// usable descriptor.
type ProviderState int

const (
	// ProviderPreparing means the backing descriptor is not ready yet,
	// e.g. its pipeline is still compiling on the authoring side.
	ProviderPreparing ProviderState = iota

	// ProviderReady means Descriptor will return a concrete node.
	ProviderReady

	// ProviderFailed means the provider can never become ready;
	// Descriptor returns the underlying cause.
	ProviderFailed
)

// String returns the string representation of ProviderState.
func (s ProviderState) String() string {
	switch s {
	case ProviderPreparing:
		return "Preparing"
	case ProviderReady:
		return "Ready"
	case ProviderFailed:
		return "Failed"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Provider is a deferred reference to a node descriptor that lives
// outside the graph builder, typically on a host entity. Providers are
// authored on the main side and resolved exactly once, during
// [SubGraphBuilder.Build] on the execution side; after a successful
// build the provider is no longer consulted.
//
// A provider that is not [ProviderReady] at build time fails the build
// with [ErrUnresolvedProvider]; the host may legitimately retry on a
// later tick once the provider has progressed.
type Provider interface {
	// State reports the provider's readiness.
	State() ProviderState

	// Descriptor returns the concrete node descriptor. It is called only
	// when State reports ProviderReady, or to retrieve the failure cause
	// after ProviderFailed.
	Descriptor() (*NodeDescriptor, error)
}

// DescriptorProvider wraps an already-built descriptor as an
// immediately-ready Provider.
type DescriptorProvider struct {
	desc *NodeDescriptor
}

// NewDescriptorProvider returns a Provider that is ready from creation.
func NewDescriptorProvider(desc *NodeDescriptor) *DescriptorProvider {
	return &DescriptorProvider{desc: desc}
}

// State always reports ProviderReady.
func (p *DescriptorProvider) State() ProviderState { return ProviderReady }

// Descriptor returns the wrapped descriptor.
func (p *DescriptorProvider) Descriptor() (*NodeDescriptor, error) {
	return p.desc, nil
}

// SharedProvider is a synchronized provider cell for descriptors
// authored on the main side and consumed on the execution side. The
// authoring side calls Set or Fail when its descriptor becomes
// available; the execution side reads State/Descriptor during build.
// Every access is a scoped, mutually exclusive acquisition, so neither
// side can observe a half-written descriptor.
//
// The zero value is a provider in [ProviderPreparing] state.
type SharedProvider struct {
	mu    sync.Mutex
	state ProviderState
	desc  *NodeDescriptor
	err   error
}

// NewSharedProvider returns an empty provider in Preparing state.
func NewSharedProvider() *SharedProvider { return &SharedProvider{} }

// Set publishes the descriptor and moves the provider to Ready.
func (p *SharedProvider) Set(desc *NodeDescriptor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.desc = desc
	p.err = nil
	p.state = ProviderReady
}

// Fail latches the provider in Failed state with the given cause.
func (p *SharedProvider) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
	p.state = ProviderFailed
}

// State reports the provider's readiness.
func (p *SharedProvider) State() ProviderState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Descriptor returns the published descriptor, or the failure cause.
func (p *SharedProvider) Descriptor() (*NodeDescriptor, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	return p.desc, nil
}

// providerRef pairs a registered provider with its owning entity and the
// node name it will occupy in the graph.
type providerRef struct {
	name     string
	owner    Entity
	provider Provider
}
