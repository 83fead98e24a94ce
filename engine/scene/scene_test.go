package scene

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Carmen-Shannon/eyengine/assets"
	"github.com/Carmen-Shannon/eyengine/engine/camera"
	"github.com/Carmen-Shannon/eyengine/engine/loader"
	"github.com/Carmen-Shannon/eyengine/engine/model"
	"github.com/Carmen-Shannon/eyengine/engine/renderer"
	"github.com/Carmen-Shannon/eyengine/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/eyengine/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/eyengine/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRenderer records draws and buffer writes. Methods it does not override panic through the
// nil embedded interface.
type fakeRenderer struct {
	renderer.Renderer

	pipelines map[string]pipeline.Pipeline
	draws     []string
	writes    []bind_group_provider.BufferWrite
}

func (f *fakeRenderer) Pipeline(key string) pipeline.Pipeline {
	return f.pipelines[key]
}

func (f *fakeRenderer) DrawCall(key string, m model.Model, _ *wgpu.Buffer, count uint32, _ []bind_group_provider.BindGroupProvider) error {
	if f.pipelines[key] == nil {
		return fmt.Errorf("render pipeline %q not found in cache", key)
	}
	f.draws = append(f.draws, fmt.Sprintf("%s:%s:%d", key, m.Name(), count))
	return nil
}

func (f *fakeRenderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	f.writes = append(f.writes, writes...)
}

// newFakeRenderer registers the sandbox pipelines plus triangle_colored, the position-only
// shaders over the coloured vertex layout.
func newFakeRenderer(t *testing.T) *fakeRenderer {
	t.Helper()
	l := loader.NewLoader()
	t.Cleanup(l.Close)
	m, err := l.LoadFS(assets.FS, assets.SandboxManifest)
	require.NoError(t, err)

	f := &fakeRenderer{pipelines: make(map[string]pipeline.Pipeline)}
	for _, res := range l.Validate(m) {
		require.NoError(t, res.Err, res.Key)
		f.pipelines[res.Key] = pipeline.NewPipeline(res.Descriptor)
	}

	tri := f.pipelines["triangle"].Descriptor()
	desc, err := pipeline.NewDescriptor("triangle_colored",
		pipeline.WithVertexShader(tri.Shader(shader.ShaderTypeVertex)),
		pipeline.WithFragmentShader(tri.Shader(shader.ShaderTypeFragment)),
		pipeline.WithVertexBuffer(model.GPUColoredVertexLayout()),
		pipeline.WithSuppliedResources(),
	)
	require.NoError(t, err)
	f.pipelines["triangle_colored"] = pipeline.NewPipeline(desc)
	return f
}

func diffuseProvider() bind_group_provider.BindGroupProvider {
	return bind_group_provider.NewBindGroupProvider("diffuse", 0,
		bind_group_provider.WithTexturePair(0, 1, wgpu.ShaderStageFragment))
}

func TestAddChecksModelLayout(t *testing.T) {
	r := newFakeRenderer(t)
	s, err := NewScene("sandbox", r)
	require.NoError(t, err)

	require.NoError(t, s.Add(DrawItem{Key: "pentagon", Pipeline: "colored", Model: model.ColoredPentagon()}))

	err = s.Add(DrawItem{Key: "triangle", Pipeline: "colored", Model: model.Triangle()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrLayoutMismatch))
	mismatches := pipeline.Mismatches(err)
	require.Len(t, mismatches, 1)
	var lm *pipeline.LayoutMismatchError
	require.ErrorAs(t, mismatches[0], &lm)
	assert.Equal(t, uint32(1), lm.Location)
	assert.Equal(t, pipeline.LayoutReasonMissing, lm.Reason)

	err = s.Add(DrawItem{Key: "x", Pipeline: "nope", Model: model.Triangle()})
	assert.EqualError(t, err, `pipeline "nope" is not registered`)
	assert.Equal(t, 1, s.Count())
}

func TestAddReplacesByKey(t *testing.T) {
	s, err := NewScene("sandbox", newFakeRenderer(t))
	require.NoError(t, err)

	require.NoError(t, s.Add(DrawItem{Key: "mesh", Pipeline: "triangle", Model: model.Triangle()}))
	require.NoError(t, s.Add(DrawItem{Key: "mesh", Pipeline: "colored", Model: model.ColoredPentagon()}))
	require.Len(t, s.Items(), 1)
	assert.Equal(t, "colored", s.Items()[0].Pipeline)

	s.Remove("mesh")
	assert.Zero(t, s.Count())
}

func TestPipelineOverride(t *testing.T) {
	r := newFakeRenderer(t)
	s, err := NewScene("sandbox", r, WithItems(DrawItem{Key: "pentagon", Pipeline: "colored", Model: model.ColoredPentagon()}))
	require.NoError(t, err)

	// The position-only pipeline was built with a 12 byte stride.
	err = s.SetPipelineOverride("triangle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model stride 24, pipeline stride 12")
	assert.Empty(t, s.PipelineOverride())

	require.NoError(t, s.SetPipelineOverride("triangle_colored"))
	require.NoError(t, s.DrawCalls())
	require.NoError(t, s.SetPipelineOverride(""))
	require.NoError(t, s.DrawCalls())
	assert.Equal(t, []string{"triangle_colored:colored_pentagon:0", "colored:colored_pentagon:0"}, r.draws)

	// Items added under an override must satisfy it too.
	require.NoError(t, s.SetPipelineOverride("triangle_colored"))
	assert.Error(t, s.Add(DrawItem{Key: "tri", Pipeline: "triangle", Model: model.Triangle()}))
}

func TestTexturedNeedsPair(t *testing.T) {
	s, err := NewScene("sandbox", newFakeRenderer(t))
	require.NoError(t, err)

	err = s.Add(DrawItem{Key: "quad", Pipeline: "textured", Model: model.TexturedPentagon()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrBindingMismatch))

	require.NoError(t, s.Add(DrawItem{
		Key:        "quad",
		Pipeline:   "textured",
		Model:      model.TexturedPentagon(),
		BindGroups: []bind_group_provider.BindGroupProvider{diffuseProvider()},
	}))
}

func TestInstancedUploadsCamera(t *testing.T) {
	r := newFakeRenderer(t)
	camProvider := bind_group_provider.NewBindGroupProvider("camera", 1,
		bind_group_provider.WithUniform(0, wgpu.ShaderStageVertex))
	cam := camera.NewCamera(camera.WithBindGroupProvider(camProvider))

	s, err := NewScene("instanced", r, WithCamera(cam))
	require.NoError(t, err)

	item := DrawItem{
		Key:           "grid",
		Pipeline:      "instanced",
		Model:         model.TexturedPentagon(),
		InstanceCount: 100,
		BindGroups:    []bind_group_provider.BindGroupProvider{diffuseProvider(), camProvider},
	}
	err = s.Add(item)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs an instance buffer")

	item.Instances = &wgpu.Buffer{}
	require.NoError(t, s.Add(item))

	s.Update()
	require.Len(t, r.writes, 1)
	assert.Equal(t, uint32(0), r.writes[0].Binding)
	assert.Len(t, r.writes[0].Data, camera.GPUCameraUniformSize)

	require.NoError(t, s.DrawCalls())
	assert.Equal(t, []string{"instanced:textured_pentagon:100"}, r.draws)
}
