package pipeline

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/eyengine/common"
	"github.com/Carmen-Shannon/eyengine/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrInvalidDescriptor is wrapped when a descriptor is missing the shaders its type needs.
var ErrInvalidDescriptor = errors.New("invalid pipeline descriptor")

// PipelineType identifies whether a pipeline is a compute pipeline or a render pipeline.
type PipelineType int

const (
	// PipelineTypeCompute indicates a compute pipeline with a single compute shader entry point.
	PipelineTypeCompute PipelineType = iota

	// PipelineTypeRender indicates a render pipeline with vertex and fragment shader entry points.
	PipelineTypeRender
)

func (t PipelineType) String() string {
	if t == PipelineTypeCompute {
		return "compute"
	}
	return "render"
}

// descriptor is the implementation of the Descriptor interface. Every field is written once by
// NewDescriptor and only read afterwards.
type descriptor struct {
	key          string
	pipelineType PipelineType

	vertexShader, fragmentShader, computeShader shader.Shader

	buffers     []VertexBufferLayout
	supplied    []SuppliedResource
	hasSupplied bool

	assignments []Assignment
	resources   []shader.ResourceDeclaration
	camera      CameraBinding
	hasCamera   bool
}

// Descriptor is the validated interface contract of one pipeline: the vertex buffers that feed
// the vertex stage, the resources every stage reads, and where the camera uniform lives.
// A Descriptor never changes. A new layout means a new Descriptor.
type Descriptor interface {
	// Key returns the unique pipeline key.
	//
	// Returns:
	//   - string: the key given to NewDescriptor
	Key() string

	// Type reports whether this describes a render or a compute pipeline.
	//
	// Returns:
	//   - PipelineType: PipelineTypeRender or PipelineTypeCompute
	Type() PipelineType

	// Shader retrieves the shader for a stage, nil if the stage is unused.
	//
	// Parameters:
	//   - shaderType: the stage to look up
	//
	// Returns:
	//   - shader.Shader: the shader for that stage
	Shader(shaderType shader.ShaderType) shader.Shader

	// VertexBuffers returns copies of the buffer layouts in slot order.
	//
	// Returns:
	//   - []VertexBufferLayout: the per-vertex buffer first, then the per-instance buffer if any
	VertexBuffers() []VertexBufferLayout

	// Assignments returns which attribute feeds each vertex shader input.
	//
	// Returns:
	//   - []Assignment: one entry per vertex input, in location order
	Assignments() []Assignment

	// StepModeFor reports how the attribute at a vertex input location advances.
	//
	// Parameters:
	//   - location: the vertex input location
	//
	// Returns:
	//   - wgpu.VertexStepMode: per vertex or per instance
	//   - bool: false if the vertex stage reads nothing at location
	StepModeFor(location uint32) (wgpu.VertexStepMode, bool)

	// Resources returns the resources declared by all stages, merged by slot.
	//
	// Returns:
	//   - []shader.ResourceDeclaration: declarations in (group, binding) order
	Resources() []shader.ResourceDeclaration

	// Camera returns the view-projection uniform slot.
	//
	// Returns:
	//   - CameraBinding: the camera slot
	//   - bool: false if no stage reads a camera
	Camera() (CameraBinding, bool)

	// ValidateSupplied checks resources a host is about to bind against Resources.
	//
	// Parameters:
	//   - supplied: the resources to bind
	//
	// Returns:
	//   - error: nil, or joined *BindingMismatchError values
	ValidateSupplied(supplied []SuppliedResource) error

	// WGPUVertexLayouts converts the buffer layouts for wgpu.VertexState.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: one layout per buffer slot
	WGPUVertexLayouts() []wgpu.VertexBufferLayout

	// BindGroupLayouts builds one layout descriptor per group index from 0 to the highest group
	// used. Groups with no declarations get an empty layout so indices stay aligned.
	//
	// Returns:
	//   - []wgpu.BindGroupLayoutDescriptor: layouts indexed by group
	BindGroupLayouts() []wgpu.BindGroupLayoutDescriptor
}

var _ Descriptor = &descriptor{}

// NewDescriptor validates shaders against buffer layouts and supplied resources and returns the
// resulting immutable contract. A compute shader makes a compute descriptor. Otherwise a vertex
// and a fragment shader are required.
//
// Validation runs in order: stage link, vertex layout, instance composition, resource merge,
// camera, supplied bindings. Each step reports every mismatch it finds, joined. The first
// failing step ends construction.
//
// Parameters:
//   - key: the unique pipeline key
//   - opts: DescriptorBuilderOption values
//
// Returns:
//   - Descriptor: the validated descriptor
//   - error: ErrInvalidDescriptor, or joined *LayoutMismatchError or *BindingMismatchError values
func NewDescriptor(key string, opts ...DescriptorBuilderOption) (Descriptor, error) {
	d := &descriptor{key: key, pipelineType: PipelineTypeRender}
	for _, opt := range opts {
		opt(d)
	}
	if err := d.build(); err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", key, err)
	}
	common.Logger().Info("pipeline descriptor built",
		"key", d.key, "type", d.pipelineType, "buffers", len(d.buffers),
		"inputs", len(d.assignments), "resources", len(d.resources), "camera", d.hasCamera)
	return d, nil
}

func (d *descriptor) build() error {
	var sigs []shader.Signature
	var decls []shader.Annotation

	if d.computeShader != nil {
		if d.vertexShader != nil || d.fragmentShader != nil {
			return fmt.Errorf("%w: a compute shader cannot be combined with render stages", ErrInvalidDescriptor)
		}
		if err := expectStage(d.computeShader, shader.ShaderTypeCompute); err != nil {
			return err
		}
		d.pipelineType = PipelineTypeCompute
		sigs = append(sigs, d.computeShader.Signature())
		decls = d.computeShader.Declarations()
	} else {
		if d.vertexShader == nil || d.fragmentShader == nil {
			return fmt.Errorf("%w: a render pipeline needs a vertex and a fragment shader", ErrInvalidDescriptor)
		}
		if err := expectStage(d.vertexShader, shader.ShaderTypeVertex); err != nil {
			return err
		}
		if err := expectStage(d.fragmentShader, shader.ShaderTypeFragment); err != nil {
			return err
		}
		vs, fs := d.vertexShader.Signature(), d.fragmentShader.Signature()
		if err := ValidateStageLink(vs, fs); err != nil {
			return err
		}
		assignments, err := ValidateVertexLayout(vs, d.buffers)
		if err != nil {
			return err
		}
		d.assignments = assignments
		for i := 1; i < len(d.buffers); i++ {
			if err := ComposeInstanced(d.buffers[0], d.buffers[i]); err != nil {
				return err
			}
		}
		sigs = append(sigs, vs, fs)
		decls = append(slices.Clone(d.vertexShader.Declarations()), d.fragmentShader.Declarations()...)
	}

	resources, err := MergeResources(sigs...)
	if err != nil {
		return err
	}
	d.resources = resources

	d.camera, d.hasCamera, err = ResolveCamera(resources, decls)
	if err != nil {
		return err
	}

	if d.hasSupplied {
		if err := ValidateBindings(resources, d.supplied); err != nil {
			return err
		}
	}
	return nil
}

func expectStage(s shader.Shader, want shader.ShaderType) error {
	if s.ShaderType() != want {
		return fmt.Errorf("%w: shader %s is a %s shader, want %s", ErrInvalidDescriptor, s.Key(), s.ShaderType(), want)
	}
	return nil
}

func (d *descriptor) Key() string {
	return d.key
}

func (d *descriptor) Type() PipelineType {
	return d.pipelineType
}

func (d *descriptor) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return d.vertexShader
	case shader.ShaderTypeFragment:
		return d.fragmentShader
	case shader.ShaderTypeCompute:
		return d.computeShader
	default:
		return nil
	}
}

func (d *descriptor) VertexBuffers() []VertexBufferLayout {
	out := make([]VertexBufferLayout, len(d.buffers))
	for i, b := range d.buffers {
		out[i] = b.Clone()
	}
	return out
}

func (d *descriptor) Assignments() []Assignment {
	return slices.Clone(d.assignments)
}

func (d *descriptor) StepModeFor(location uint32) (wgpu.VertexStepMode, bool) {
	for _, a := range d.assignments {
		if a.Input.Location == location {
			return a.StepMode, true
		}
	}
	return wgpu.VertexStepModeVertex, false
}

func (d *descriptor) Resources() []shader.ResourceDeclaration {
	out := make([]shader.ResourceDeclaration, len(d.resources))
	for i, r := range d.resources {
		r.Members = slices.Clone(r.Members)
		out[i] = r
	}
	return out
}

func (d *descriptor) Camera() (CameraBinding, bool) {
	return d.camera, d.hasCamera
}

func (d *descriptor) ValidateSupplied(supplied []SuppliedResource) error {
	if err := ValidateBindings(d.resources, supplied); err != nil {
		return fmt.Errorf("pipeline %s: %w", d.key, err)
	}
	return nil
}

func (d *descriptor) WGPUVertexLayouts() []wgpu.VertexBufferLayout {
	out := make([]wgpu.VertexBufferLayout, len(d.buffers))
	for i, b := range d.buffers {
		out[i] = b.ToWGPU()
	}
	return out
}

func (d *descriptor) BindGroupLayouts() []wgpu.BindGroupLayoutDescriptor {
	if len(d.resources) == 0 {
		return nil
	}
	groups := int(d.resources[len(d.resources)-1].Group) + 1
	out := make([]wgpu.BindGroupLayoutDescriptor, groups)
	for g := range out {
		out[g].Label = fmt.Sprintf("%s group %d", d.key, g)
	}
	for _, r := range d.resources {
		entry := r.Entry
		entry.Binding = r.Binding
		entry.Visibility = r.Visibility
		out[r.Group].Entries = append(out[r.Group].Entries, entry)
	}
	return out
}
