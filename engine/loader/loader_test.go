package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/eyengine/assets"
	"github.com/Carmen-Shannon/eyengine/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoader(t *testing.T, options ...LoaderBuilderOption) Loader {
	t.Helper()
	l := NewLoader(options...)
	t.Cleanup(l.Close)
	return l
}

func TestSandboxManifestValidates(t *testing.T) {
	l := newTestLoader(t)
	m, err := l.LoadFS(assets.FS, assets.SandboxManifest)
	require.NoError(t, err)
	require.Len(t, m.Pipelines, 8)

	results := l.Validate(m)
	require.Len(t, results, 8)
	for i, r := range results {
		assert.Equal(t, m.Pipelines[i].Key, r.Key)
		assert.NoError(t, r.Err, r.Key)
	}
	assert.Len(t, l.Descriptors(), 8)

	inst := l.Get("instanced")
	require.NotNil(t, inst)
	cam, ok := inst.Camera()
	require.True(t, ok)
	assert.Equal(t, pipeline.CameraBinding{Group: 1, Binding: 0, Visibility: wgpu.ShaderStageVertex}, cam)
	mode, ok := inst.StepModeFor(6)
	require.True(t, ok)
	assert.Equal(t, wgpu.VertexStepModeInstance, mode)

	colored := l.Get("colored")
	require.NotNil(t, colored)
	assert.Equal(t, uint64(24), colored.VertexBuffers()[0].Stride)

	// Both surfaces describe the same contract.
	for _, key := range []string{"triangle", "colored", "textured", "instanced"} {
		w, g := l.Get(key), l.Get(key+"_glsl")
		require.NotNil(t, g, key)
		assert.Equal(t, len(w.Assignments()), len(g.Assignments()), key)
		assert.Equal(t, len(w.Resources()), len(g.Resources()), key)
		assert.Equal(t, w.WGPUVertexLayouts(), g.WGPUVertexLayouts(), key)
	}
}

func TestBrokenManifestReportsMismatches(t *testing.T) {
	l := newTestLoader(t, WithWorkers(2))
	m, err := l.LoadFS(assets.FS, "manifests/broken.yaml")
	require.NoError(t, err)

	results := l.Validate(m)
	require.Len(t, results, 3)
	for _, r := range results {
		require.Error(t, r.Err, r.Key)
		assert.Nil(t, r.Descriptor)
	}
	assert.Empty(t, l.Descriptors())

	assert.ErrorIs(t, results[0].Err, pipeline.ErrBindingMismatch)
	bm := pipeline.Mismatches(results[0].Err)
	require.NotEmpty(t, bm)
	first := bm[0].(*pipeline.BindingMismatchError)
	assert.Equal(t, [2]uint32{0, 1}, [2]uint32{first.Group, first.Binding})
	assert.Equal(t, pipeline.BindingReasonUnpaired, first.Reason)

	missing := pipeline.Mismatches(results[1].Err)
	require.Len(t, missing, 4)
	for i, e := range missing {
		lm := e.(*pipeline.LayoutMismatchError)
		assert.Equal(t, uint32(5+i), lm.Location)
		assert.Equal(t, pipeline.LayoutReasonMissing, lm.Reason)
	}

	wrong := pipeline.Mismatches(results[2].Err)
	require.Len(t, wrong, 1)
	lm := wrong[0].(*pipeline.LayoutMismatchError)
	assert.Equal(t, uint32(1), lm.Location)
	assert.Equal(t, pipeline.LayoutReasonType, lm.Reason)
}

func TestBuildCachesAndInvalidates(t *testing.T) {
	l := newTestLoader(t)
	m, err := l.LoadFS(assets.FS, assets.SandboxManifest)
	require.NoError(t, err)

	d, err := l.Build(m, "textured")
	require.NoError(t, err)
	again, err := l.Build(m, "textured")
	require.NoError(t, err)
	assert.Same(t, d, again)

	l.Invalidate("textured")
	assert.Nil(t, l.Get("textured"))

	_, err = l.Build(m, "nope")
	assert.Error(t, err)

	pre := newTestLoader(t, WithDescriptor(d))
	assert.Same(t, d, pre.Get("textured"))
}

func TestManifestDecodeErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
		return p
	}
	l := newTestLoader(t)

	_, err := l.Load(write("unknown.toml", "[[pipeline]]\nkey = \"a\"\nshader = \"x.wgsl\"\n"))
	assert.Error(t, err)

	_, err = l.Load(write("dupe.yaml", "pipelines:\n  - key: a\n  - key: a\n"))
	assert.ErrorContains(t, err, "used twice")

	_, err = l.Load(write("nokey.yml", "pipelines:\n  - vertex: a.wgsl\n"))
	assert.ErrorContains(t, err, "no key")

	_, err = l.Load(write("m.json", "{}"))
	assert.ErrorContains(t, err, "unsupported manifest format")

	_, err = l.Load(filepath.Join(dir, "absent.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBufferSpecLayouts(t *testing.T) {
	named, err := BufferSpec{Layout: "instance"}.layout()
	require.NoError(t, err)
	assert.Equal(t, wgpu.VertexStepModeInstance, named.StepMode)
	assert.Equal(t, uint64(64), named.Stride)

	explicit, err := BufferSpec{StepMode: "instance", Attributes: []AttributeSpec{
		{Location: 3, Format: "float32x4", Role: "model_row"},
		{Location: 4, Format: "float32x2"},
	}}.layout()
	require.NoError(t, err)
	assert.Equal(t, uint64(24), explicit.Stride)
	assert.Equal(t, uint64(16), explicit.Attributes[1].Offset)
	assert.Equal(t, pipeline.VertexRoleInstanceModelRow, explicit.Attributes[0].Role)

	for _, bad := range []BufferSpec{
		{Layout: "skinned"},
		{Layout: "textured", StepMode: "vertex"},
		{StepMode: "sideways"},
		{Attributes: []AttributeSpec{{Format: "float64"}}},
		{Attributes: []AttributeSpec{{Format: "float32", Role: "bone_weight"}}},
	} {
		_, err := bad.layout()
		assert.Error(t, err, bad)
	}

	s, err := ResourceSpec{Group: 1, Kind: "uniform", Visibility: []string{"vertex", "fragment"}}.supplied()
	require.NoError(t, err)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, s.Visibility)
	_, err = ResourceSpec{Kind: "image"}.supplied()
	assert.Error(t, err)
	_, err = ResourceSpec{Kind: "sampler", Visibility: []string{"geometry"}}.supplied()
	assert.Error(t, err)
}

func TestManifestPaths(t *testing.T) {
	l := newTestLoader(t)
	m, err := l.LoadFS(assets.FS, assets.SandboxManifest)
	require.NoError(t, err)
	assert.False(t, m.OnDisk())
	assert.Equal(t, "shaders/triangle.wgsl", m.Resolve("../shaders/triangle.wgsl"))

	files := m.ShaderFiles()
	assert.Contains(t, files, "shaders/instanced.vert")
	assert.Len(t, files, 12)

	err = Watch(context.Background(), l, m, func(*Manifest, []Result, error) {})
	assert.Error(t, err)
}

func TestWatchRevalidatesOnShaderChange(t *testing.T) {
	dir := t.TempDir()
	shaderDir := filepath.Join(dir, "shaders")
	require.NoError(t, os.Mkdir(shaderDir, 0o755))
	src, err := assets.FS.ReadFile("shaders/triangle.wgsl")
	require.NoError(t, err)
	shaderPath := filepath.Join(shaderDir, "triangle.wgsl")
	require.NoError(t, os.WriteFile(shaderPath, src, 0o644))
	manifestPath := filepath.Join(dir, "m.toml")
	require.NoError(t, os.WriteFile(manifestPath, []byte(
		"[[pipeline]]\nkey = \"triangle\"\nvertex = \"shaders/triangle.wgsl\"\nfragment = \"shaders/triangle.wgsl\"\n\n  [[pipeline.buffer]]\n  layout = \"position\"\n"), 0o644))

	l := newTestLoader(t)
	m, err := l.Load(manifestPath)
	require.NoError(t, err)
	require.NoError(t, l.Validate(m)[0].Err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := make(chan []Result, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, l, m, func(_ *Manifest, results []Result, err error) {
			if err == nil {
				changes <- results
			}
		})
	}()

	// Give the watcher time to register before editing.
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(shaderPath, []byte("fn nothing() {}\n"), 0o644))

	select {
	case results := <-changes:
		require.Len(t, results, 1)
		assert.Error(t, results[0].Err)
	case <-time.After(5 * time.Second):
		t.Fatal("no revalidation after shader change")
	}

	cancel()
	assert.NoError(t, <-done)
}
