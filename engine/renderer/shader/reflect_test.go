package shader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const texturedWGSL = `
struct VertexInput {
    @location(0) position: vec3<f32>,
    @location(1) tex_coords: vec2<f32>,
};

struct VertexOutput {
    @builtin(position) clip_position: vec4<f32>,
    @location(0) tex_coords: vec2<f32>,
};

struct CameraUniform {
    view_proj: mat4x4<f32>,
};
@group(1) @binding(0) var<uniform> camera: CameraUniform;

@vertex
fn vs_main(model: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.tex_coords = model.tex_coords;
    out.clip_position = camera.view_proj * vec4<f32>(model.position, 1.0);
    return out;
}

@group(0) @binding(0) var t_diffuse: texture_2d<f32>;
@group(0) @binding(1) var s_diffuse: sampler;

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return textureSample(t_diffuse, s_diffuse, in.tex_coords);
}
`

const texturedVert = `#version 450
layout(location = 0) in vec3 a_position;
layout(location = 1) in vec2 a_tex_coords;
layout(location = 0) out vec2 v_tex_coords;

layout(set = 1, binding = 0) uniform CameraUniform {
    mat4 view_proj;
} camera;

void main() {
    v_tex_coords = a_tex_coords;
    gl_Position = camera.view_proj * vec4(a_position, 1.0);
}
`

const texturedFrag = `#version 450
layout(location = 0) in vec2 v_tex_coords;
layout(location = 0) out vec4 f_color;

layout(set = 0, binding = 0) uniform texture2D t_diffuse;
layout(set = 0, binding = 1) uniform sampler s_diffuse;

void main() {
    f_color = texture(sampler2D(t_diffuse, s_diffuse), v_tex_coords);
}
`

func TestReflectWGSLVertex(t *testing.T) {
	sig, err := ReflectWGSL(texturedWGSL, ShaderTypeVertex, "")
	require.NoError(t, err)
	assert.Equal(t, "vs_main", sig.EntryPoint)
	assert.True(t, sig.HasClipPosition)
	assert.Equal(t, []StageVariable{
		{Name: "position", Location: 0, Type: ValueTypeVec3F32},
		{Name: "tex_coords", Location: 1, Type: ValueTypeVec2F32},
	}, sig.Inputs)
	assert.Equal(t, []StageVariable{{Name: "tex_coords", Location: 0, Type: ValueTypeVec2F32}}, sig.Outputs)

	// Only the camera is reachable from vs_main.
	require.Len(t, sig.Resources, 1)
	cam := sig.Resources[0]
	assert.Equal(t, uint32(1), cam.Group)
	assert.Equal(t, ResourceKindUniform, cam.Kind)
	assert.Equal(t, uint64(64), cam.Size)
	assert.Equal(t, "CameraUniform", cam.TypeName)
	assert.Equal(t, []BlockMember{{Name: "view_proj", Type: ValueTypeMat4x4F32}}, cam.Members)
	assert.Equal(t, wgpu.ShaderStageVertex, cam.Visibility)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, cam.Entry.Buffer.Type)
	assert.NoError(t, sig.Validate())
}

func TestReflectWGSLFragment(t *testing.T) {
	sig, err := ReflectWGSL(texturedWGSL, ShaderTypeFragment, "fs_main")
	require.NoError(t, err)
	assert.Equal(t, []StageVariable{{Name: "tex_coords", Location: 0, Type: ValueTypeVec2F32}}, sig.Inputs)
	require.Len(t, sig.Outputs, 1)
	assert.Equal(t, ValueTypeVec4F32, sig.Outputs[0].Type)

	require.Len(t, sig.Resources, 2)
	assert.Equal(t, ResourceKindSampledTexture, sig.Resources[0].Kind)
	assert.Equal(t, wgpu.TextureViewDimension2D, sig.Resources[0].Entry.Texture.ViewDimension)
	assert.Equal(t, ResourceKindSampler, sig.Resources[1].Kind)
	assert.Equal(t, uint32(1), sig.Resources[1].Binding)

	_, ok := sig.Resource(1, 0)
	assert.False(t, ok)
	res, ok := sig.Resource(0, 1)
	require.True(t, ok)
	assert.Equal(t, "s_diffuse", res.Name)
}

func TestReflectWGSLMissingEntryPoint(t *testing.T) {
	_, err := ReflectWGSL(texturedWGSL, ShaderTypeCompute, "")
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Msg, "@compute")

	_, err = ReflectWGSL(texturedWGSL, ShaderTypeVertex, "main")
	require.ErrorAs(t, err, &pe)

	assert.Equal(t, map[ShaderType][]string{
		ShaderTypeVertex:   {"vs_main"},
		ShaderTypeFragment: {"fs_main"},
	}, WGSLEntryPoints(texturedWGSL))
}

func TestReflectGLSLMatchesWGSL(t *testing.T) {
	wv, err := ReflectWGSL(texturedWGSL, ShaderTypeVertex, "")
	require.NoError(t, err)
	gv, err := ReflectGLSL(texturedVert, ShaderTypeVertex)
	require.NoError(t, err)
	assert.Equal(t, "main", gv.EntryPoint)
	assert.True(t, gv.HasClipPosition)
	assertSameInterface(t, wv, gv)

	cam := gv.Resources[0]
	assert.Equal(t, "camera", cam.Name)
	assert.Equal(t, "CameraUniform", cam.TypeName)
	assert.Equal(t, uint64(64), cam.Size)

	wf, err := ReflectWGSL(texturedWGSL, ShaderTypeFragment, "")
	require.NoError(t, err)
	gf, err := ReflectGLSL(texturedFrag, ShaderTypeFragment)
	require.NoError(t, err)
	assertSameInterface(t, wf, gf)
}

func TestReflectGLSLErrors(t *testing.T) {
	cases := map[string]struct {
		src  string
		line int
	}{
		"combined sampler": {"#version 450\nlayout(set = 0, binding = 0) uniform sampler2D tex;\nvoid main() {}\n", 2},
		"no location":      {"#version 450\n\nin vec3 a_position;\nvoid main() {}\n", 3},
		"no binding":       {"#version 450\nuniform texture2D tex;\nvoid main() {}\n", 2},
		"matrix input":     {"#version 450\nlayout(location = 0) in mat4 m;\nvoid main() {}\n", 2},
		"no main":          {"#version 450\nlayout(location = 0) in vec3 p;\n", 0},
		"block output":     {"#version 450\nlayout(location = 0) out Block {\n    vec3 c;\n} o;\nvoid main() {}\n", 2},
		"unsized array":    {"#version 450\nlayout(location = 0) in vec3 a[];\nvoid main() {}\n", 2},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReflectGLSL(tc.src, ShaderTypeVertex)
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tc.line, pe.Line)
		})
	}
}

func TestReflectGLSLQualifiersAndArrays(t *testing.T) {
	src := `#version 450
layout(location = 0) in vec3 a_position;
layout(location = 1) in highp vec3 a_color;
layout(location = 2) in vec2 a_uv[2];
layout(location = 0) flat out mediump vec3 v_color;

layout(local_size_x = 1) in;

void main() {
    v_color = a_color;
    gl_Position = vec4(a_position, 1.0);
}
`
	sig, err := ReflectGLSL(src, ShaderTypeVertex)
	require.NoError(t, err)
	assert.Equal(t, []StageVariable{
		{Name: "a_position", Location: 0, Type: ValueTypeVec3F32},
		{Name: "a_color", Location: 1, Type: ValueTypeVec3F32},
		{Name: "a_uv_0", Location: 2, Type: ValueTypeVec2F32},
		{Name: "a_uv_1", Location: 3, Type: ValueTypeVec2F32},
	}, sig.Inputs)
	assert.Equal(t, []StageVariable{{Name: "v_color", Location: 0, Type: ValueTypeVec3F32}}, sig.Outputs)

	bare, err := ReflectGLSL("#version 450\nin highp vec3 a_color;\nvoid main() {}\n", ShaderTypeVertex)
	var pe *ParseError
	require.ErrorAs(t, err, &pe, "%+v", bare)
	assert.Equal(t, 2, pe.Line)
}

func TestSignatureValidate(t *testing.T) {
	sig := Signature{Stage: ShaderTypeVertex, EntryPoint: "vs_main"}
	assert.ErrorIs(t, sig.Validate(), ErrInvalidSignature)

	sig.HasClipPosition = true
	sig.Inputs = []StageVariable{{Name: "a", Location: 0, Type: ValueTypeF32}, {Name: "b", Location: 0, Type: ValueTypeF32}}
	assert.ErrorIs(t, sig.Validate(), ErrInvalidSignature)

	sig.Inputs = sig.Inputs[:1]
	assert.NoError(t, sig.Validate())

	frag := Signature{Stage: ShaderTypeFragment, EntryPoint: "fs_main"}
	assert.ErrorIs(t, frag.Validate(), ErrInvalidSignature)

	clone := sig.Clone()
	clone.Inputs[0].Location = 4
	assert.Equal(t, uint32(0), sig.Inputs[0].Location)
}

func TestStageFromPath(t *testing.T) {
	stage, lang, err := StageFromPath("shaders/textured.frag")
	require.NoError(t, err)
	assert.Equal(t, ShaderTypeFragment, stage)
	assert.Equal(t, LanguageGLSL, lang)

	_, lang, err = StageFromPath("shaders/textured.WGSL")
	require.NoError(t, err)
	assert.Equal(t, LanguageWGSL, lang)

	_, _, err = StageFromPath("shaders/textured.hlsl")
	assert.Error(t, err)
}

func TestNewShaderStampsPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.vert")
	require.NoError(t, os.WriteFile(path, []byte("#version 450\nlayout(set = 0, binding = 0) uniform sampler2D tex;\nvoid main() { gl_Position = vec4(0.0); }\n"), 0o644))

	_, err := NewShader("broken", ShaderTypeVertex, path)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, path, pe.Path)
	assert.Equal(t, 2, pe.Line)
	assert.Contains(t, err.Error(), path+":2:")

	_, err = NewShaderFromSource("inline", ShaderTypeVertex, "fn helper() {}")
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "inline", pe.Path)

	_, err = NewShader("missing", ShaderTypeVertex, filepath.Join(dir, "missing.wgsl"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewShaderModule(t *testing.T) {
	s, err := NewShaderFromSource("textured", ShaderTypeFragment, texturedWGSL)
	require.NoError(t, err)
	assert.Equal(t, "fs_main", s.EntryPoint())
	require.NotNil(t, s.Module())
	assert.Equal(t, "textured", s.Module().Label)

	g, err := NewShaderFromSource("textured", ShaderTypeFragment, texturedFrag, WithLanguage(LanguageGLSL))
	require.NoError(t, err)
	assert.Nil(t, g.Module())
	assert.Equal(t, LanguageGLSL, g.Language())
}

func assertSameInterface(t *testing.T, a, b Signature) {
	t.Helper()
	assert.Equal(t, a.HasClipPosition, b.HasClipPosition)
	assert.Equal(t, locationTypes(a.Inputs), locationTypes(b.Inputs))
	assert.Equal(t, locationTypes(a.Outputs), locationTypes(b.Outputs))
	require.Len(t, b.Resources, len(a.Resources))
	for i := range a.Resources {
		ra, rb := a.Resources[i], b.Resources[i]
		assert.Equal(t, [2]uint32{ra.Group, ra.Binding}, [2]uint32{rb.Group, rb.Binding})
		assert.Equal(t, ra.Kind, rb.Kind)
		assert.Equal(t, ra.Size, rb.Size)
		assert.Equal(t, ra.Visibility, rb.Visibility)
	}
}

func locationTypes(vars []StageVariable) map[uint32]ValueType {
	out := make(map[uint32]ValueType, len(vars))
	for _, v := range vars {
		out[v.Location] = v.Type
	}
	return out
}
