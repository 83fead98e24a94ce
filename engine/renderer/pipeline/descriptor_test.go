package pipeline_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/eyengine/engine/camera"
	"github.com/Carmen-Shannon/eyengine/engine/model"
	"github.com/Carmen-Shannon/eyengine/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/eyengine/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shaderDir = "../../../assets/shaders"

func sandboxPreProcessor() shader.PreProcessor {
	return shader.NewPreProcessor(append(model.Includes(), camera.Include())...)
}

// loadStages reads the vertex and fragment stage of a sandbox shader in either language.
func loadStages(t *testing.T, name string, lang shader.Language) (shader.Shader, shader.Shader) {
	t.Helper()
	vsPath := filepath.Join(shaderDir, name+".wgsl")
	fsPath := vsPath
	if lang == shader.LanguageGLSL {
		vsPath = filepath.Join(shaderDir, name+".vert")
		fsPath = filepath.Join(shaderDir, name+".frag")
	}
	vs, err := shader.NewShader(name+"_vs", shader.ShaderTypeVertex, vsPath, shader.WithPreProcessor(sandboxPreProcessor()))
	require.NoError(t, err)
	fs, err := shader.NewShader(name+"_fs", shader.ShaderTypeFragment, fsPath, shader.WithPreProcessor(sandboxPreProcessor()))
	require.NoError(t, err)
	return vs, fs
}

var languages = []shader.Language{shader.LanguageWGSL, shader.LanguageGLSL}

func texturePair(group uint32) []pipeline.SuppliedResource {
	return []pipeline.SuppliedResource{
		{Group: group, Binding: 0, Kind: shader.ResourceKindSampledTexture, Visibility: wgpu.ShaderStageFragment},
		{Group: group, Binding: 1, Kind: shader.ResourceKindSampler, Visibility: wgpu.ShaderStageFragment},
	}
}

func TestTrianglePositionOnly(t *testing.T) {
	for _, lang := range languages {
		t.Run(lang.String(), func(t *testing.T) {
			vs, fs := loadStages(t, "triangle", lang)
			desc, err := pipeline.NewDescriptor("triangle",
				pipeline.WithVertexShader(vs),
				pipeline.WithFragmentShader(fs),
				pipeline.WithVertexBuffer(model.GPUPositionVertexLayout()),
				pipeline.WithSuppliedResources(),
			)
			require.NoError(t, err)

			assert.Equal(t, pipeline.PipelineTypeRender, desc.Type())
			require.Len(t, desc.Assignments(), 1)
			a := desc.Assignments()[0]
			assert.Equal(t, uint32(0), a.Input.Location)
			assert.Equal(t, wgpu.VertexFormatFloat32x3, a.Attribute.Format)
			assert.Equal(t, pipeline.VertexRolePosition, a.Attribute.Role)
			assert.Empty(t, desc.Resources())
			assert.Nil(t, desc.BindGroupLayouts())
			_, ok := desc.Camera()
			assert.False(t, ok)

			layouts := desc.WGPUVertexLayouts()
			require.Len(t, layouts, 1)
			assert.Equal(t, uint64(12), layouts[0].ArrayStride)
			assert.Equal(t, wgpu.VertexStepModeVertex, layouts[0].StepMode)
		})
	}
}

func TestTexturedPairRequired(t *testing.T) {
	for _, lang := range languages {
		t.Run(lang.String(), func(t *testing.T) {
			vs, fs := loadStages(t, "textured", lang)
			opts := []pipeline.DescriptorBuilderOption{
				pipeline.WithVertexShader(vs),
				pipeline.WithFragmentShader(fs),
				pipeline.WithVertexBuffer(model.GPUVertexLayout()),
			}

			desc, err := pipeline.NewDescriptor("textured", append(opts, pipeline.WithSuppliedResources(texturePair(0)...))...)
			require.NoError(t, err)
			assert.Len(t, desc.Assignments(), 2)
			require.Len(t, desc.Resources(), 2)
			assert.Equal(t, shader.ResourceKindSampledTexture, desc.Resources()[0].Kind)
			assert.Equal(t, shader.ResourceKindSampler, desc.Resources()[1].Kind)

			groups := desc.BindGroupLayouts()
			require.Len(t, groups, 1)
			assert.Len(t, groups[0].Entries, 2)
			assert.Equal(t, "textured group 0", groups[0].Label)

			_, err = pipeline.NewDescriptor("textured", append(opts, pipeline.WithSuppliedResources(texturePair(0)[0]))...)
			require.Error(t, err)
			assert.ErrorIs(t, err, pipeline.ErrBindingMismatch)
			var bm *pipeline.BindingMismatchError
			require.ErrorAs(t, err, &bm)
			assert.Equal(t, uint32(0), bm.Group)
			assert.Equal(t, uint32(1), bm.Binding)
			assert.Equal(t, pipeline.BindingReasonUnpaired, bm.Reason)

			err = desc.ValidateSupplied(texturePair(0)[1:])
			require.ErrorAs(t, err, &bm)
			assert.Equal(t, uint32(0), bm.Binding)
			assert.Equal(t, pipeline.BindingReasonUnpaired, bm.Reason)

			assert.NoError(t, desc.ValidateSupplied(texturePair(0)))
		})
	}
}

const modelMatrixWGSL = `
struct VertexOutput {
    @builtin(position) clip_position: vec4<f32>,
    @location(0) tex_coords: vec2<f32>,
};

@group(0) @binding(0) var t_diffuse: texture_2d<f32>;
@group(0) @binding(1) var s_diffuse: sampler;
@group(0) @binding(2) var<uniform> model_matrix: mat4x4<f32>;

@vertex
fn vs_main(@location(0) position: vec3<f32>, @location(1) tex_coords: vec2<f32>) -> VertexOutput {
    var out: VertexOutput;
    out.tex_coords = tex_coords;
    out.clip_position = model_matrix * vec4<f32>(position, 1.0);
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return textureSample(t_diffuse, s_diffuse, in.tex_coords);
}
`

func TestMatrixBesideTextureIsNotCamera(t *testing.T) {
	vs, err := shader.NewShaderFromSource("model_vs", shader.ShaderTypeVertex, modelMatrixWGSL)
	require.NoError(t, err)
	fs, err := shader.NewShaderFromSource("model_fs", shader.ShaderTypeFragment, modelMatrixWGSL)
	require.NoError(t, err)

	supplied := append(texturePair(0), pipeline.SuppliedResource{
		Group: 0, Binding: 2, Kind: shader.ResourceKindUniform, Visibility: wgpu.ShaderStageVertex,
	})
	desc, err := pipeline.NewDescriptor("model_matrix",
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithVertexBuffer(model.GPUVertexLayout()),
		pipeline.WithSuppliedResources(supplied...),
	)
	require.NoError(t, err)
	assert.Len(t, desc.Resources(), 3)
	_, ok := desc.Camera()
	assert.False(t, ok)
}

func TestInstancedStepModes(t *testing.T) {
	for _, lang := range languages {
		t.Run(lang.String(), func(t *testing.T) {
			vs, fs := loadStages(t, "instanced", lang)
			cam := pipeline.SuppliedResource{Group: 1, Binding: 0, Kind: shader.ResourceKindUniform, Visibility: wgpu.ShaderStageVertex}
			desc, err := pipeline.NewDescriptor("instanced",
				pipeline.WithVertexShader(vs),
				pipeline.WithFragmentShader(fs),
				pipeline.WithVertexBuffer(model.GPUVertexLayout()),
				pipeline.WithInstanceBuffer(model.GPUInstanceLayout()),
				pipeline.WithSuppliedResources(append(texturePair(0), cam)...),
			)
			require.NoError(t, err)
			assert.Len(t, desc.Assignments(), 6)

			for _, loc := range []uint32{0, 1} {
				mode, ok := desc.StepModeFor(loc)
				require.True(t, ok)
				assert.Equal(t, wgpu.VertexStepModeVertex, mode, "location %d", loc)
			}
			for loc := uint32(5); loc <= 8; loc++ {
				mode, ok := desc.StepModeFor(loc)
				require.True(t, ok)
				assert.Equal(t, wgpu.VertexStepModeInstance, mode, "location %d", loc)
			}
			_, ok := desc.StepModeFor(2)
			assert.False(t, ok)

			binding, ok := desc.Camera()
			require.True(t, ok)
			assert.Equal(t, pipeline.CameraBinding{Group: 1, Binding: 0, Visibility: wgpu.ShaderStageVertex}, binding)
			assert.Len(t, desc.BindGroupLayouts(), 2)

			layouts := desc.WGPUVertexLayouts()
			require.Len(t, layouts, 2)
			assert.Equal(t, uint64(64), layouts[1].ArrayStride)
			assert.Equal(t, wgpu.VertexStepModeInstance, layouts[1].StepMode)
		})
	}
}

func TestInstancedCameraMissing(t *testing.T) {
	vs, fs := loadStages(t, "instanced", shader.LanguageWGSL)
	_, err := pipeline.NewDescriptor("instanced",
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithVertexBuffer(model.GPUVertexLayout()),
		pipeline.WithInstanceBuffer(model.GPUInstanceLayout()),
		pipeline.WithSuppliedResources(texturePair(0)...),
	)
	var bm *pipeline.BindingMismatchError
	require.ErrorAs(t, err, &bm)
	assert.Equal(t, pipeline.BindingReasonMissing, bm.Reason)
	assert.Equal(t, uint32(1), bm.Group)
}

func TestMissingInstanceBuffer(t *testing.T) {
	vs, fs := loadStages(t, "instanced", shader.LanguageWGSL)
	_, err := pipeline.NewDescriptor("instanced",
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithVertexBuffer(model.GPUVertexLayout()),
	)
	require.Error(t, err)
	mismatches := pipeline.Mismatches(err)
	require.Len(t, mismatches, 4)
	for i, m := range mismatches {
		lm, ok := m.(*pipeline.LayoutMismatchError)
		require.True(t, ok)
		assert.Equal(t, uint32(5+i), lm.Location)
		assert.Equal(t, pipeline.LayoutReasonMissing, lm.Reason)
	}
}

func TestInstanceLocationCollision(t *testing.T) {
	vs, fs := loadStages(t, "textured", shader.LanguageWGSL)
	_, err := pipeline.NewDescriptor("collide",
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithVertexBuffer(model.GPUVertexLayout()),
		pipeline.WithInstanceBuffer(pipeline.InstanceTransformLayout(1)),
	)
	require.ErrorIs(t, err, pipeline.ErrLayoutMismatch)
	var lm *pipeline.LayoutMismatchError
	require.ErrorAs(t, err, &lm)
	assert.Equal(t, uint32(1), lm.Location)
	assert.Equal(t, pipeline.LayoutReasonDuplicate, lm.Reason)
}

func TestDescriptorShape(t *testing.T) {
	vs, fs := loadStages(t, "colored", shader.LanguageWGSL)

	_, err := pipeline.NewDescriptor("no_fragment", pipeline.WithVertexShader(vs))
	assert.ErrorIs(t, err, pipeline.ErrInvalidDescriptor)

	_, err = pipeline.NewDescriptor("swapped", pipeline.WithVertexShader(fs), pipeline.WithFragmentShader(vs))
	assert.ErrorIs(t, err, pipeline.ErrInvalidDescriptor)

	desc, err := pipeline.NewDescriptor("colored",
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithVertexBuffer(model.GPUColoredVertexLayout()),
	)
	require.NoError(t, err)
	assert.Equal(t, "colored", desc.Key())
	assert.Same(t, vs, desc.Shader(shader.ShaderTypeVertex))
	assert.Nil(t, desc.Shader(shader.ShaderTypeCompute))

	// Descriptors hand out copies.
	bufs := desc.VertexBuffers()
	bufs[0].Attributes[0].Location = 9
	assert.Equal(t, uint32(0), desc.VertexBuffers()[0].Attributes[0].Location)
}

func TestComputeDescriptor(t *testing.T) {
	src := `
@group(0) @binding(0) var<storage, read_write> values: array<f32>;

@compute @workgroup_size(64)
fn cs_main(@builtin(global_invocation_id) id: vec3<u32>) {
    values[id.x] = values[id.x] * 2.0;
}
`
	cs, err := shader.NewShaderFromSource("double", shader.ShaderTypeCompute, src)
	require.NoError(t, err)

	desc, err := pipeline.NewDescriptor("double", pipeline.WithComputeShader(cs))
	require.NoError(t, err)
	assert.Equal(t, pipeline.PipelineTypeCompute, desc.Type())
	require.Len(t, desc.Resources(), 1)
	assert.Equal(t, shader.ResourceKindStorage, desc.Resources()[0].Kind)

	err = desc.ValidateSupplied([]pipeline.SuppliedResource{{Group: 0, Binding: 0, Kind: shader.ResourceKindStorage, Visibility: wgpu.ShaderStageVertex}})
	var bm *pipeline.BindingMismatchError
	require.ErrorAs(t, err, &bm)
	assert.Equal(t, pipeline.BindingReasonVisibility, bm.Reason)

	vs, _ := loadStages(t, "triangle", shader.LanguageWGSL)
	_, err = pipeline.NewDescriptor("mixed", pipeline.WithComputeShader(cs), pipeline.WithVertexShader(vs))
	assert.ErrorIs(t, err, pipeline.ErrInvalidDescriptor)
}

func TestPipelineDefaults(t *testing.T) {
	vs, fs := loadStages(t, "triangle", shader.LanguageWGSL)
	desc, err := pipeline.NewDescriptor("triangle",
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithVertexBuffer(model.GPUPositionVertexLayout()),
	)
	require.NoError(t, err)

	p := pipeline.NewPipeline(desc)
	assert.Equal(t, "triangle", p.PipelineKey())
	assert.Equal(t, pipeline.PipelineTypeRender, p.Type())
	assert.Equal(t, wgpu.CompareFunctionLessEqual, p.DepthCompare())
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, p.Topology())
	assert.Nil(t, p.Pipeline())

	p = pipeline.NewPipeline(desc, pipeline.WithCullMode(wgpu.CullModeBack), pipeline.WithDepth(false, false))
	assert.Equal(t, wgpu.CullModeBack, p.CullMode())
	assert.False(t, p.DepthTestEnabled())
	assert.False(t, p.DepthWriteEnabled())
}

func TestMismatchesUnwrapsWrapped(t *testing.T) {
	inner := errors.Join(&pipeline.LayoutMismatchError{Location: 1}, &pipeline.BindingMismatchError{Group: 2})
	assert.Len(t, pipeline.Mismatches(errors.Join(errors.New("context"), inner)), 2)
	assert.Nil(t, pipeline.Mismatches(nil))
}
