package bind_group_provider

import (
	"cmp"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/eyengine/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/eyengine/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	mu sync.Mutex

	label string
	group uint32

	// declared records what the provider promises at each binding. It is what ValidateSupplied
	// sees, independent of whether the GPU handles exist yet.
	declared map[uint32]pipeline.SuppliedResource

	// The following fields are GPU allocated resources populated by the Renderer and must be
	// released when no longer needed.

	bindGroup       *wgpu.BindGroup
	bindGroupLayout *wgpu.BindGroupLayout
	buffers         map[uint32]*wgpu.Buffer
	textureViews    map[uint32]*wgpu.TextureView
	samplers        map[uint32]*wgpu.Sampler
}

// BindGroupProvider owns the resources of one bind group: what it supplies at each binding, and
// the GPU objects behind them once the Renderer has created them.
//
// Usage pattern:
//  1. Create a provider for a group index and declare its bindings
//  2. Check the declarations against a pipeline with Descriptor.ValidateSupplied(provider.Supplied())
//  3. Let the Renderer create the buffers, textures, samplers and the bind group
//  4. Write uniform data through the Renderer each frame and bind BindGroup() at Group()
type BindGroupProvider interface {
	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// Group returns the bind group index this provider is bound at.
	//
	// Returns:
	//   - uint32: the group index
	Group() uint32

	// Declare records that the provider supplies a resource of the given kind at binding.
	// Declaring a binding twice replaces the earlier declaration.
	//
	// Parameters:
	//   - binding: the binding index within the group
	//   - kind: the resource kind
	//   - visibility: the stages the resource is visible to
	Declare(binding uint32, kind shader.ResourceKind, visibility wgpu.ShaderStage)

	// Supplied lists the declared resources in binding order.
	//
	// Returns:
	//   - []pipeline.SuppliedResource: one entry per declared binding
	Supplied() []pipeline.SuppliedResource

	// BindGroup returns the bind group, nil until the Renderer creates it.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group or nil
	BindGroup() *wgpu.BindGroup

	// BindGroupLayout returns the layout the bind group was created with.
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the bind group layout or nil
	BindGroupLayout() *wgpu.BindGroupLayout

	// Buffer returns the buffer at binding, nil if none.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(binding uint32) *wgpu.Buffer

	// TextureView returns the texture view at binding, nil if none.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.TextureView: the texture view or nil
	TextureView(binding uint32) *wgpu.TextureView

	// Sampler returns the sampler at binding, nil if none.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Sampler: the sampler or nil
	Sampler(binding uint32) *wgpu.Sampler

	// Entries builds the bind group entries from the GPU handles, in binding order.
	//
	// Returns:
	//   - []wgpu.BindGroupEntry: one entry per handle
	Entries() []wgpu.BindGroupEntry

	// SetBindGroup stores the bind group and the layout it was created with.
	//
	// Parameters:
	//   - bg: the bind group
	//   - bgl: the layout
	SetBindGroup(bg *wgpu.BindGroup, bgl *wgpu.BindGroupLayout)

	// SetBuffer stores a buffer at binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the GPU buffer
	SetBuffer(binding uint32, buf *wgpu.Buffer)

	// SetTextureView stores a texture view at binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - tv: the texture view
	SetTextureView(binding uint32, tv *wgpu.TextureView)

	// SetSampler stores a sampler at binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - s: the sampler
	SetSampler(binding uint32, s *wgpu.Sampler)

	// Release releases every GPU object held by the provider. Declarations are kept so the
	// provider can be initialized again.
	Release()
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates an empty provider for a bind group index.
//
// Parameters:
//   - label: debug label, also used for the GPU objects the Renderer creates
//   - group: the bind group index
//   - options: BindGroupProviderOption values
//
// Returns:
//   - BindGroupProvider: the provider
func NewBindGroupProvider(label string, group uint32, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:        label,
		group:        group,
		declared:     make(map[uint32]pipeline.SuppliedResource),
		buffers:      make(map[uint32]*wgpu.Buffer),
		textureViews: make(map[uint32]*wgpu.TextureView),
		samplers:     make(map[uint32]*wgpu.Sampler),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) Group() uint32 {
	return p.group
}

func (p *bindGroupProvider) Declare(binding uint32, kind shader.ResourceKind, visibility wgpu.ShaderStage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.declared[binding] = pipeline.SuppliedResource{
		Group:      p.group,
		Binding:    binding,
		Kind:       kind,
		Visibility: visibility,
	}
}

func (p *bindGroupProvider) Supplied() []pipeline.SuppliedResource {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]pipeline.SuppliedResource, 0, len(p.declared))
	for _, s := range p.declared {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b pipeline.SuppliedResource) int { return cmp.Compare(a.Binding, b.Binding) })
	return out
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bindGroup
}

func (p *bindGroupProvider) BindGroupLayout() *wgpu.BindGroupLayout {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bindGroupLayout
}

func (p *bindGroupProvider) Buffer(binding uint32) *wgpu.Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buffers[binding]
}

func (p *bindGroupProvider) TextureView(binding uint32) *wgpu.TextureView {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.textureViews[binding]
}

func (p *bindGroupProvider) Sampler(binding uint32) *wgpu.Sampler {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.samplers[binding]
}

func (p *bindGroupProvider) Entries() []wgpu.BindGroupEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	var entries []wgpu.BindGroupEntry
	for b, buf := range p.buffers {
		entries = append(entries, wgpu.BindGroupEntry{Binding: b, Buffer: buf, Size: wgpu.WholeSize})
	}
	for b, tv := range p.textureViews {
		entries = append(entries, wgpu.BindGroupEntry{Binding: b, TextureView: tv})
	}
	for b, s := range p.samplers {
		entries = append(entries, wgpu.BindGroupEntry{Binding: b, Sampler: s})
	}
	slices.SortFunc(entries, func(a, b wgpu.BindGroupEntry) int { return cmp.Compare(a.Binding, b.Binding) })
	return entries
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup, bgl *wgpu.BindGroupLayout) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bindGroup = bg
	p.bindGroupLayout = bgl
}

func (p *bindGroupProvider) SetBuffer(binding uint32, buf *wgpu.Buffer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if old, ok := p.buffers[binding]; ok && old != nil && old != buf {
		old.Release()
	}
	p.buffers[binding] = buf
}

func (p *bindGroupProvider) SetTextureView(binding uint32, tv *wgpu.TextureView) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if old, ok := p.textureViews[binding]; ok && old != nil && old != tv {
		old.Release()
	}
	p.textureViews[binding] = tv
}

func (p *bindGroupProvider) SetSampler(binding uint32, s *wgpu.Sampler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if old, ok := p.samplers[binding]; ok && old != nil && old != s {
		old.Release()
	}
	p.samplers[binding] = s
}

func (p *bindGroupProvider) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	if p.bindGroupLayout != nil {
		p.bindGroupLayout.Release()
		p.bindGroupLayout = nil
	}
	for b, buf := range p.buffers {
		if buf != nil {
			buf.Release()
		}
		delete(p.buffers, b)
	}
	for b, tv := range p.textureViews {
		if tv != nil {
			tv.Release()
		}
		delete(p.textureViews, b)
	}
	for b, s := range p.samplers {
		if s != nil {
			s.Release()
		}
		delete(p.samplers, b)
	}
}
