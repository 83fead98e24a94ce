package pipeline

import (
	"github.com/Carmen-Shannon/eyengine/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// pipeline is the implementation of the Pipeline interface.
// It pairs a validated Descriptor with the fixed-function state and the GPU objects built from it.
type pipeline struct {
	desc Descriptor

	renderPipeline  *wgpu.RenderPipeline
	computePipeline *wgpu.ComputePipeline

	// Fixed-function state, only read for render pipelines.

	depthTestEnabled  bool
	depthWriteEnabled bool
	depthCompare      wgpu.CompareFunction
	blendEnabled      bool
	cullMode          wgpu.CullMode
	topology          wgpu.PrimitiveTopology
	frontFace         wgpu.FrontFace
	writeMask         wgpu.ColorWriteMask
	blendState        *wgpu.BlendState
}

// Pipeline is a GPU pipeline built from a Descriptor. The descriptor fixes the interface, the
// builder options fix depth, blend, cull and topology state.
type Pipeline interface {
	// Descriptor returns the validated interface contract.
	//
	// Returns:
	//   - Descriptor: the descriptor given to NewPipeline
	Descriptor() Descriptor

	// Type reports whether this is a render or a compute pipeline.
	//
	// Returns:
	//   - PipelineType: the descriptor's type
	Type() PipelineType

	// PipelineKey returns the key shared with the descriptor, used for caching and lookups.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Shader retrieves the shader for a stage, nil if the stage is unused.
	//
	// Parameters:
	//   - shaderType: the stage to look up
	//
	// Returns:
	//   - shader.Shader: the shader for that stage
	Shader(shaderType shader.ShaderType) shader.Shader

	// Pipeline returns *wgpu.RenderPipeline or *wgpu.ComputePipeline depending on Type, nil
	// until the renderer has created it.
	//
	// Returns:
	//   - any: the underlying pipeline object
	Pipeline() any

	// DepthTestEnabled reports whether a depth attachment is used.
	//
	// Returns:
	//   - bool: true if depth testing is enabled
	DepthTestEnabled() bool

	// DepthWriteEnabled reports whether fragments write depth.
	//
	// Returns:
	//   - bool: true if depth writing is enabled
	DepthWriteEnabled() bool

	// DepthCompare returns the depth comparison function.
	//
	// Returns:
	//   - wgpu.CompareFunction: wgpu.CompareFunctionLessEqual unless overridden
	DepthCompare() wgpu.CompareFunction

	// BlendEnabled reports whether BlendState applies to the colour target.
	//
	// Returns:
	//   - bool: true if blending is enabled
	BlendEnabled() bool

	// CullMode returns which faces are culled.
	//
	// Returns:
	//   - wgpu.CullMode: the cull mode
	CullMode() wgpu.CullMode

	// Topology returns how vertices assemble into primitives.
	//
	// Returns:
	//   - wgpu.PrimitiveTopology: the primitive topology
	Topology() wgpu.PrimitiveTopology

	// FrontFace returns the winding order of front faces.
	//
	// Returns:
	//   - wgpu.FrontFace: the front face winding
	FrontFace() wgpu.FrontFace

	// WriteMask returns the colour channels written.
	//
	// Returns:
	//   - wgpu.ColorWriteMask: the colour write mask
	WriteMask() wgpu.ColorWriteMask

	// BlendState returns the blend equation used when BlendEnabled is true.
	//
	// Returns:
	//   - *wgpu.BlendState: the blend state
	BlendState() *wgpu.BlendState

	// SetRenderPipeline stores the render pipeline created by the renderer.
	//
	// Parameters:
	//   - p: the WebGPU render pipeline
	SetRenderPipeline(p *wgpu.RenderPipeline)

	// SetComputePipeline stores the compute pipeline created by the renderer.
	//
	// Parameters:
	//   - p: the WebGPU compute pipeline
	SetComputePipeline(p *wgpu.ComputePipeline)
}

var _ Pipeline = &pipeline{}

// NewPipeline wraps a validated descriptor with fixed-function state. Defaults follow the
// sandbox: depth test and write on with LessEqual, no culling, triangle lists, CCW front faces
// and alpha blending available but off.
//
// Parameters:
//   - desc: the descriptor from NewDescriptor
//   - opts: PipelineBuilderOption values overriding the defaults
//
// Returns:
//   - Pipeline: the pipeline, without GPU objects until the renderer registers it
func NewPipeline(desc Descriptor, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		desc:              desc,
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		depthCompare:      wgpu.CompareFunctionLessEqual,
		cullMode:          wgpu.CullModeNone,
		topology:          wgpu.PrimitiveTopologyTriangleList,
		frontFace:         wgpu.FrontFaceCCW,
		writeMask:         wgpu.ColorWriteMaskAll,
		blendState: &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) Descriptor() Descriptor {
	return p.desc
}

func (p *pipeline) Type() PipelineType {
	return p.desc.Type()
}

func (p *pipeline) PipelineKey() string {
	return p.desc.Key()
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	return p.desc.Shader(shaderType)
}

func (p *pipeline) Pipeline() any {
	if p.desc.Type() == PipelineTypeCompute {
		return p.computePipeline
	}
	return p.renderPipeline
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) DepthCompare() wgpu.CompareFunction {
	return p.depthCompare
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) {
	p.renderPipeline = rp
}

func (p *pipeline) SetComputePipeline(cp *wgpu.ComputePipeline) {
	p.computePipeline = cp
}
