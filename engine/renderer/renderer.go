package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/eyengine/common"
	"github.com/Carmen-Shannon/eyengine/engine/model"
	"github.com/Carmen-Shannon/eyengine/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/eyengine/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/eyengine/engine/renderer/shader"
	"github.com/Carmen-Shannon/eyengine/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline

	backendType RendererBackendType
	backend     RendererBackend

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingMSAA          *MSAASampleCount
	pendingClearColor    *wgpu.Color
}

// Renderer turns validated pipeline descriptors into GPU pipelines and records frames with them.
//
// Nothing reaches the GPU without going through a pipeline.Descriptor: vertex buffer layouts come
// from Descriptor.WGPUVertexLayouts, bind group layouts from Descriptor.BindGroupLayouts, so a
// pipeline that registers is one whose shader interface the host has already agreed to.
type Renderer interface {
	// Pipeline retrieves the registered Pipeline for key, nil if none.
	//
	// Parameters:
	//   - key: the pipeline key
	//
	// Returns:
	//   - pipeline.Pipeline: the pipeline or nil
	Pipeline(key string) pipeline.Pipeline

	// Pipelines returns a copy of the registered pipelines keyed by pipeline key.
	//
	// Returns:
	//   - map[string]pipeline.Pipeline: the registered pipelines
	Pipelines() map[string]pipeline.Pipeline

	// RegisterPipelines creates the GPU render pipeline of each Pipeline and caches it by key.
	// Keys that are already registered are skipped. Compute pipelines and pipelines with a GLSL
	// stage are rejected: the first has no dispatch path here, the second has no GPU module.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	//
	// Returns:
	//   - error: the first registration failure
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// Resize reconfigures the surface and its depth and MSAA targets.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	Resize(width, height int)

	// SetPresentMode changes the present mode; it applies on the next Resize.
	//
	// Parameters:
	//   - mode: the present mode
	SetPresentMode(mode PresentMode)

	// SetClearColor sets the colour the frame is cleared to.
	//
	// Parameters:
	//   - c: the clear colour
	SetClearColor(c wgpu.Color)

	// InitMesh uploads the vertex and index data of m and stores the buffers on it.
	//
	// Parameters:
	//   - m: the model to upload
	//
	// Returns:
	//   - error: error if buffer creation fails
	InitMesh(m model.Model) error

	// InitInstanceBuffer uploads per-instance data into a vertex buffer.
	//
	// Parameters:
	//   - label: debug label for the buffer
	//   - data: the instance bytes, see model.MarshalInstances
	//
	// Returns:
	//   - *wgpu.Buffer: the instance buffer
	//   - error: error if data is empty or buffer creation fails
	InitInstanceBuffer(label string, data []byte) (*wgpu.Buffer, error)

	// InitTexturePair creates a texture from staging data and its sampler, and stores both on
	// provider. The sampler clamps to edge, magnifies linearly and minifies nearest.
	//
	// Parameters:
	//   - provider: the provider the texture and sampler belong to
	//   - textureBinding: the binding of the texture
	//   - samplerBinding: the binding of the sampler
	//   - staging: the RGBA8 pixels
	//
	// Returns:
	//   - error: error if texture or sampler creation fails
	InitTexturePair(provider bind_group_provider.BindGroupProvider, textureBinding, samplerBinding uint32, staging common.TextureStagingData) error

	// InitBindGroup creates the bind group of provider against the layout the pipeline declares
	// for provider.Group(). Uniform and storage buffers missing on the provider are created at
	// the declared size; textures and samplers must already be set with InitTexturePair.
	//
	// Parameters:
	//   - provider: the provider to create the bind group for
	//   - p: the pipeline whose layout the bind group must match
	//
	// Returns:
	//   - error: error if the pipeline does not declare the group or a resource is missing
	InitBindGroup(provider bind_group_provider.BindGroupProvider, p pipeline.Pipeline) error

	// WriteBuffers writes data into provider buffers.
	//
	// Parameters:
	//   - writes: the buffer writes
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginFrame acquires the surface texture and begins the render pass.
	//
	// Returns:
	//   - error: error if the surface texture cannot be acquired
	BeginFrame() error

	// DrawCall records an indexed draw. Slot 0 takes the model's vertex buffer, slot 1 the
	// instance buffer when one is given, and each provider is bound at its own group index.
	//
	// Parameters:
	//   - pipelineKey: the registered pipeline to draw with
	//   - m: the mesh
	//   - instances: the instance buffer, nil for none
	//   - instanceCount: the number of instances, at least 1
	//   - bindGroups: the bind group providers
	//
	// Returns:
	//   - error: error if the pipeline is unknown or the mesh has not been uploaded
	DrawCall(pipelineKey string, m model.Model, instances *wgpu.Buffer, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error

	// EndFrame ends the render pass and submits the frame.
	EndFrame()

	// Present presents the surface texture acquired by BeginFrame.
	Present()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer drawing into window's surface.
//
// Parameters:
//   - backendType: the backend to create
//   - window: the window to draw into
//   - options: RendererBuilderOption values
//
// Returns:
//   - Renderer: the renderer
func NewRenderer(backendType RendererBackendType, window window.Window, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:            &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		backendType:   backendType,
	}

	for _, opt := range options {
		opt(r)
	}

	msaa := MSAA4x
	if r.pendingMSAA != nil {
		msaa = *r.pendingMSAA
	}

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend = newWGPURendererBackend(window.SurfaceDescriptor(), r.forceFallbackAdapter, msaa)
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	if r.pendingClearColor != nil {
		r.backend.SetClearColor(*r.pendingClearColor)
	}

	r.backend.ConfigureSurface(window.Width(), window.Height())
	return r
}

func (r *renderer) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) SetClearColor(c wgpu.Color) {
	r.backend.SetClearColor(c)
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) Pipelines() map[string]pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make(map[string]pipeline.Pipeline, len(r.pipelineCache))
	for k, v := range r.pipelineCache {
		cp[k] = v
	}
	return cp
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, exists := r.pipelineCache[key]; exists {
			continue
		}
		if err := registrable(p); err != nil {
			return err
		}
		if err := r.backend.RegisterRenderPipeline(p); err != nil {
			return fmt.Errorf("pipeline %q: %w", key, err)
		}
		common.Logger().Info("pipeline registered", "pipeline", key,
			"buffers", len(p.Descriptor().VertexBuffers()), "groups", len(p.Descriptor().BindGroupLayouts()))
		r.pipelineCache[key] = p
	}
	return nil
}

func (r *renderer) InitMesh(m model.Model) error {
	return r.backend.InitMesh(m)
}

func (r *renderer) InitInstanceBuffer(label string, data []byte) (*wgpu.Buffer, error) {
	if len(data) == 0 {
		return nil, errors.New("instance data is empty")
	}
	return r.backend.InitVertexBuffer(label+" Instance Buffer", data)
}

func (r *renderer) InitTexturePair(provider bind_group_provider.BindGroupProvider, textureBinding, samplerBinding uint32, staging common.TextureStagingData) error {
	if staging.Width == 0 || staging.Height == 0 || len(staging.Pixels) < int(staging.Width*staging.Height*4) {
		return fmt.Errorf("texture for %s is %dx%d with %d bytes", provider.Label(), staging.Width, staging.Height, len(staging.Pixels))
	}
	if err := r.backend.InitTextureView(provider, textureBinding, staging); err != nil {
		return err
	}
	return r.backend.InitSampler(provider, samplerBinding, common.DiffuseSamplerStagingData)
}

func (r *renderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, p pipeline.Pipeline) error {
	layouts := p.Descriptor().BindGroupLayouts()
	group := provider.Group()
	if int(group) >= len(layouts) || len(layouts[group].Entries) == 0 {
		return fmt.Errorf("pipeline %q declares nothing in group %d", p.PipelineKey(), group)
	}
	return r.backend.InitBindGroup(provider, layouts[group])
}

func (r *renderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	r.backend.WriteBuffers(writes)
}

func (r *renderer) BeginFrame() error {
	return r.backend.BeginFrame()
}

func (r *renderer) DrawCall(pipelineKey string, m model.Model, instances *wgpu.Buffer, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error {
	r.mu.Lock()
	p, exists := r.pipelineCache[pipelineKey]
	r.mu.Unlock()

	if !exists {
		return fmt.Errorf("render pipeline %q not found in cache", pipelineKey)
	}
	if m.VertexBuffer() == nil {
		return fmt.Errorf("model %q has not been uploaded", m.Name())
	}
	if len(p.Descriptor().VertexBuffers()) > 1 && instances == nil {
		return fmt.Errorf("pipeline %q needs an instance buffer", pipelineKey)
	}

	r.backend.DrawCall(p, m, instances, max(instanceCount, 1), bindGroups)
	return nil
}

func (r *renderer) EndFrame() {
	r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

// registrable reports why p cannot become a GPU render pipeline.
func registrable(p pipeline.Pipeline) error {
	if p.Type() != pipeline.PipelineTypeRender {
		return fmt.Errorf("pipeline %q is a %s pipeline, only render pipelines can be registered", p.PipelineKey(), p.Type())
	}
	for _, stage := range []shader.ShaderType{shader.ShaderTypeVertex, shader.ShaderTypeFragment} {
		s := p.Shader(stage)
		if s == nil {
			return fmt.Errorf("pipeline %q has no %s shader", p.PipelineKey(), stage)
		}
		if s.Module() == nil {
			return fmt.Errorf("pipeline %q: %s shader %s is %s and has no GPU module", p.PipelineKey(), stage, s.Key(), s.Language())
		}
	}
	return nil
}
