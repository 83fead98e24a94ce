package bind_group_provider

import (
	"testing"

	"github.com/Carmen-Shannon/eyengine/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/eyengine/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuppliedIsSortedAndStampedWithGroup(t *testing.T) {
	p := NewBindGroupProvider("diffuse", 2, WithTexturePair(0, 1, wgpu.ShaderStageFragment))
	p.Declare(3, shader.ResourceKindUniform, wgpu.ShaderStageVertex)

	got := p.Supplied()
	require.Len(t, got, 3)
	assert.Equal(t, []pipeline.SuppliedResource{
		{Group: 2, Binding: 0, Kind: shader.ResourceKindSampledTexture, Visibility: wgpu.ShaderStageFragment},
		{Group: 2, Binding: 1, Kind: shader.ResourceKindSampler, Visibility: wgpu.ShaderStageFragment},
		{Group: 2, Binding: 3, Kind: shader.ResourceKindUniform, Visibility: wgpu.ShaderStageVertex},
	}, got)
	assert.Equal(t, "diffuse", p.Label())
	assert.Equal(t, uint32(2), p.Group())
}

func TestDeclareReplaces(t *testing.T) {
	p := NewBindGroupProvider("camera", 1, WithUniform(0, wgpu.ShaderStageVertex))
	p.Declare(0, shader.ResourceKindUniform, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment)
	got := p.Supplied()
	require.Len(t, got, 1)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, got[0].Visibility)
}

func TestProvidersSatisfyDeclaredBindings(t *testing.T) {
	mat := shader.BlockMember{Name: "view_proj", Type: shader.ValueTypeMat4x4F32}
	declared := []shader.ResourceDeclaration{
		{Group: 0, Binding: 0, Kind: shader.ResourceKindSampledTexture, Visibility: wgpu.ShaderStageFragment},
		{Group: 0, Binding: 1, Kind: shader.ResourceKindSampler, Visibility: wgpu.ShaderStageFragment},
		{Group: 1, Binding: 0, Kind: shader.ResourceKindUniform, Members: []shader.BlockMember{mat}, Size: 64, Visibility: wgpu.ShaderStageVertex},
	}
	texture := NewBindGroupProvider("diffuse", 0, WithTexturePair(0, 1, wgpu.ShaderStageFragment))
	cam := NewBindGroupProvider("camera", 1, WithUniform(0, wgpu.ShaderStageVertex))

	all := append(texture.Supplied(), cam.Supplied()...)
	assert.NoError(t, pipeline.ValidateBindings(declared, all))

	err := pipeline.ValidateBindings(declared, texture.Supplied())
	var bm *pipeline.BindingMismatchError
	require.ErrorAs(t, err, &bm)
	assert.Equal(t, uint32(1), bm.Group)
	assert.Equal(t, pipeline.BindingReasonMissing, bm.Reason)
}

func TestEntriesWithoutDevice(t *testing.T) {
	p := NewBindGroupProvider("camera", 1, WithBuffer(0, nil))
	entries := p.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, uint32(0), entries[0].Binding)
	assert.Equal(t, uint64(wgpu.WholeSize), entries[0].Size)
	assert.Nil(t, p.Buffer(0))
	assert.Nil(t, p.BindGroup())

	p.Release()
	assert.Empty(t, p.Entries())
}
