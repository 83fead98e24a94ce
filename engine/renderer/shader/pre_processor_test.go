package shader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cameraInclude = Include{
	Key:   AnnotationArgCamera,
	Type:  "CameraUniform",
	WGSL:  "struct CameraUniform {\n    view_proj: mat4x4<f32>,\n};",
	GLSL:  "    mat4 view_proj;",
	Block: true,
}

var vertexInclude = Include{
	Key:  "vertex",
	Type: "VertexInput",
	WGSL: "struct VertexInput {\n    @location(0) position: vec3<f32>,\n};",
	GLSL: "layout(location = 0) in vec3 a_position;",
}

func TestProcessWGSL(t *testing.T) {
	pp := NewPreProcessor(cameraInclude, vertexInclude)
	src := `//@eye:include camera
//@eye:include vertex
//@eye:group 1 0 uniform camera camera

@vertex
fn vs_main(model: VertexInput) -> @builtin(position) vec4<f32> {
    return camera.view_proj * vec4<f32>(model.position, 1.0);
}
`
	out, err := pp.Process(src, LanguageWGSL)
	require.NoError(t, err)
	assert.Contains(t, out, "struct CameraUniform {")
	assert.Contains(t, out, "struct VertexInput {")
	assert.Contains(t, out, "@group(1) @binding(0) var<uniform> camera: CameraUniform;")

	decls := pp.Declarations()
	require.Len(t, decls, 1)
	assert.Equal(t, AnnotationTypeBindingGroup, decls[0].Type)
	assert.Equal(t, 3, decls[0].Line)
	assert.Equal(t, "//@eye:group 1 0 uniform camera camera", decls[0].String())

	sig, err := ReflectWGSL(out, ShaderTypeVertex, "")
	require.NoError(t, err)
	require.Len(t, sig.Resources, 1)
	assert.Equal(t, uint64(64), sig.Resources[0].Size)
}

func TestProcessGLSL(t *testing.T) {
	pp := NewPreProcessor(cameraInclude, vertexInclude)
	src := `#version 450
//@eye:include vertex
//@eye:group 1 0 uniform camera camera
void main() { gl_Position = camera.view_proj * vec4(a_position, 1.0); }
`
	out, err := pp.Process(src, LanguageGLSL)
	require.NoError(t, err)
	assert.Contains(t, out, "layout(location = 0) in vec3 a_position;")
	assert.Contains(t, out, "layout(set = 1, binding = 0) uniform CameraUniform {\n    mat4 view_proj;\n} camera;")

	sig, err := ReflectGLSL(out, ShaderTypeVertex)
	require.NoError(t, err)
	require.Len(t, sig.Inputs, 1)
	require.Len(t, sig.Resources, 1)
	assert.Equal(t, uint64(64), sig.Resources[0].Size)
	assert.Equal(t, "camera", sig.Resources[0].Name)
}

func TestProcessErrors(t *testing.T) {
	pp := NewPreProcessor(cameraInclude, vertexInclude)
	cases := map[string]struct {
		src  string
		lang Language
		line int
	}{
		"unknown include":       {"\n//@eye:include lights", LanguageWGSL, 2},
		"block include in glsl": {"//@eye:include camera", LanguageGLSL, 1},
		"group on non-block":    {"//@eye:group 0 0 uniform v vertex", LanguageWGSL, 1},
		"bad address space":     {"//@eye:group 0 0 private camera camera", LanguageWGSL, 1},
		"negative binding":      {"//@eye:group 0 -1 uniform camera camera", LanguageWGSL, 1},
		"unknown provider":      {"\n\n//@eye:provider 0 0 normal_map", LanguageWGSL, 3},
		"unknown annotation":    {"//@eye:define X", LanguageWGSL, 1},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := pp.Process(tc.src, tc.lang)
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tc.line, pe.Line)
		})
	}
}

func TestDeclarationsResetAndFind(t *testing.T) {
	pp := NewPreProcessor(cameraInclude)
	_, err := pp.Process("//@eye:provider 0 0 diffuse_texture\n//@eye:provider 0 1 diffuse_sampler\n", LanguageWGSL)
	require.NoError(t, err)
	require.Len(t, pp.Declarations(), 2)

	tex, ok := FindDeclaration(pp.Declarations(), AnnotationArgDiffuseTexture)
	require.True(t, ok)
	assert.Equal(t, 0, *tex.Binding)
	smp, ok := FindDeclaration(pp.Declarations(), AnnotationArgDiffuseSampler)
	require.True(t, ok)
	assert.Equal(t, 1, *smp.Binding)
	_, ok = FindDeclaration(pp.Declarations(), AnnotationArgCamera)
	assert.False(t, ok)

	_, err = pp.Process("// plain comment\n", LanguageWGSL)
	require.NoError(t, err)
	assert.Empty(t, pp.Declarations())
}

func TestDeclarationsAreCopies(t *testing.T) {
	src := "//@eye:provider 0 0 diffuse_texture\n//@eye:provider 0 1 diffuse_sampler\n" + texturedWGSL
	s, err := NewShaderFromSource("textured", ShaderTypeFragment, src)
	require.NoError(t, err)

	decls := s.Declarations()
	require.Len(t, decls, 2)
	*decls[0].Group = 7
	*decls[0].Binding = 9
	decls[0].Args[0] = AnnotationArgCamera
	decls[1] = Annotation{}

	again := s.Declarations()
	require.Len(t, again, 2)
	assert.Equal(t, 0, *again[0].Group)
	assert.Equal(t, 0, *again[0].Binding)
	assert.Equal(t, AnnotationArgDiffuseTexture, again[0].Args[0])
	assert.Equal(t, 1, *again[1].Binding)

	pp := NewPreProcessor()
	_, err = pp.Process("//@eye:provider 2 3 diffuse_texture\n", LanguageWGSL)
	require.NoError(t, err)
	*pp.Declarations()[0].Group = 5
	assert.Equal(t, 2, *pp.Declarations()[0].Group)
}
