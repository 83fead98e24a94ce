package shader

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitWGSLRoundTrip(t *testing.T) {
	for _, stage := range []ShaderType{ShaderTypeVertex, ShaderTypeFragment} {
		t.Run(stage.String(), func(t *testing.T) {
			sig, err := ReflectWGSL(texturedWGSL, stage, "")
			require.NoError(t, err)

			src, err := EmitWGSL(sig)
			require.NoError(t, err)
			back, err := ReflectWGSL(src, stage, "")
			require.NoError(t, err, src)

			assert.Equal(t, sig.EntryPoint, back.EntryPoint)
			assert.Equal(t, sig.Inputs, back.Inputs)
			assert.Equal(t, sig.Outputs, back.Outputs)
			assertSameInterface(t, sig, back)
		})
	}
}

func TestEmitGLSLRoundTrip(t *testing.T) {
	for _, stage := range []ShaderType{ShaderTypeVertex, ShaderTypeFragment} {
		t.Run(stage.String(), func(t *testing.T) {
			sig, err := ReflectWGSL(texturedWGSL, stage, "")
			require.NoError(t, err)

			src, err := EmitGLSL(sig)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(src, "#version 450\n"))

			back, err := ReflectGLSL(src, stage)
			require.NoError(t, err, src)
			assertSameInterface(t, sig, back)

			// And back to WGSL again.
			wgsl, err := EmitWGSL(back)
			require.NoError(t, err)
			again, err := ReflectWGSL(wgsl, stage, "")
			require.NoError(t, err, wgsl)
			assertSameInterface(t, sig, again)
		})
	}
}

func TestEmitGLSLRenamesClashingOutputs(t *testing.T) {
	sig, err := ReflectWGSL(texturedWGSL, ShaderTypeVertex, "")
	require.NoError(t, err)
	src, err := EmitGLSL(sig)
	require.NoError(t, err)
	assert.Contains(t, src, "layout(location = 1) in vec2 tex_coords;")
	assert.Contains(t, src, "layout(location = 0) out vec2 v_tex_coords;")
	assert.Contains(t, src, "gl_Position = vec4(0.0);")
}

func TestEmitRejectsUnexpressible(t *testing.T) {
	sig := Signature{
		Stage:     ShaderTypeCompute,
		Resources: []ResourceDeclaration{{Name: "img", Kind: ResourceKindStorageTexture}},
	}
	_, err := EmitGLSL(sig)
	assert.Error(t, err)
	_, err = EmitWGSL(sig)
	assert.Error(t, err)

	sig.Resources[0].Entry.StorageTexture = wgpu.StorageTextureBindingLayout{
		Access:        wgpu.StorageTextureAccessWriteOnly,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		ViewDimension: wgpu.TextureViewDimension2D,
	}
	src, err := EmitWGSL(sig)
	require.NoError(t, err)
	assert.Contains(t, src, "texture_storage_2d<rgba8unorm, write>")

	_, err = EmitWGSL(Signature{Stage: ShaderTypeVertex, Inputs: []StageVariable{{Name: "x"}}})
	assert.Error(t, err)
}

func TestVerifyAgreesWithCompiler(t *testing.T) {
	for _, stage := range []ShaderType{ShaderTypeVertex, ShaderTypeFragment} {
		assert.NoError(t, Verify(texturedWGSL, stage, ""), stage)
	}

	compiled, err := ReflectNaga(texturedWGSL, ShaderTypeFragment, "fs_main")
	require.NoError(t, err)
	require.Len(t, compiled.Resources, 2)
	assert.Equal(t, ResourceKindSampledTexture, compiled.Resources[0].Kind)
	assert.Equal(t, ResourceKindSampler, compiled.Resources[1].Kind)
}

func TestCompileSPIRV(t *testing.T) {
	spv, err := CompileSPIRV(texturedWGSL)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(spv), 20)
	assert.Equal(t, uint32(0x07230203), binary.LittleEndian.Uint32(spv))

	_, err = CompileSPIRV("fn broken( {")
	assert.Error(t, err)
}

func TestTranslateGLSL(t *testing.T) {
	out, err := TranslateGLSL(texturedWGSL, "vs_main")
	require.NoError(t, err)
	assert.Contains(t, out, "void main()")
	assert.Contains(t, out, "#version 430")
}
