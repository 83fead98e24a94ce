package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/eyengine/assets"
	"github.com/Carmen-Shannon/eyengine/engine/loader"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunExitCodes(t *testing.T) {
	assert.Equal(t, 0, run(nil))
	assert.Equal(t, 1, run([]string{"-manifest", "../../assets/manifests/broken.yaml"}))
	assert.Equal(t, 1, run([]string{"-manifest", "missing.toml"}))
	assert.Equal(t, 2, run([]string{"-log-level", "loud"}))
}

func TestSPIRVUsageNamesWGSLOnly(t *testing.T) {
	fset, _ := newFlagSet()
	var buf bytes.Buffer
	fset.SetOutput(&buf)
	fset.PrintDefaults()
	assert.Contains(t, buf.String(), "WGSL only; GLSL shaders are skipped")
	assert.Equal(t, spirvUsage, fset.Lookup("spirv").Usage)
}

func TestReportPointsAtShaderLines(t *testing.T) {
	l := loader.NewLoader()
	defer l.Close()
	m, err := l.LoadFS(assets.FS, "manifests/broken.yaml")
	require.NoError(t, err)

	var buf bytes.Buffer
	rep := newReporter(termenv.NewOutput(&buf, termenv.WithProfile(termenv.Ascii)), m)
	assert.Equal(t, 3, rep.report(l.Validate(m)))

	out := buf.String()
	assert.Contains(t, out, "FAIL textured_missing_sampler")
	assert.Contains(t, out, "FAIL instanced_without_instances")
	assert.Contains(t, out, "@group(0) @binding(1) var s_diffuse: sampler;")
	assert.Contains(t, out, "@location(1) color: vec3<f32>,")
	assert.Contains(t, out, "shaders/colored.wgsl")
	assert.Contains(t, out, "3 pipelines, 3 failed")
}

func TestReportPass(t *testing.T) {
	l := loader.NewLoader()
	defer l.Close()
	m, err := l.LoadFS(assets.FS, assets.SandboxManifest)
	require.NoError(t, err)

	var buf bytes.Buffer
	rep := newReporter(termenv.NewOutput(&buf, termenv.WithProfile(termenv.Ascii)), m)
	assert.Zero(t, rep.report(l.Validate(m)))
	assert.Contains(t, buf.String(), "PASS instanced (render, 6 inputs, 3 resources, camera at 1/0)")
	assert.Contains(t, buf.String(), "PASS triangle (render, 1 inputs, 0 resources)")
}

func TestFindLine(t *testing.T) {
	src := "#version 450\nlayout(location = 0) in vec3 a_position;\nlayout(set = 1, binding = 0) uniform CameraUniform {\n"
	assert.Equal(t, 2, findLine(src, locationPattern(0)))
	assert.Equal(t, 0, findLine(src, locationPattern(10)))
	assert.Equal(t, 3, findLine(src, bindingPattern(1, 0)))
	assert.Equal(t, 1, findLine("//@eye:group 1 0 uniform camera camera", bindingPattern(1, 0)))
	assert.Equal(t, 1, findLine("@group(0) @binding(1) var s: sampler;", bindingPattern(0, 1)))
}

func TestHighlightLinesPlain(t *testing.T) {
	lines := highlightLines("a.wgsl", "fn a() {}\nfn b() {}\n", false)
	assert.Equal(t, []string{"fn a() {}", "fn b() {}"}, lines)
	assert.Len(t, highlightLines("a.vert", "void main() {}\nint x;\n", true), 2)
}

func TestWriteSPIRV(t *testing.T) {
	l := loader.NewLoader()
	defer l.Close()
	m, err := l.LoadFS(assets.FS, assets.SandboxManifest)
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "spv")
	written, skipped, err := writeSPIRV(m, dir, loader.DefaultIncludes())
	require.NoError(t, err)
	require.Len(t, written, 4)
	assert.Len(t, skipped, 8, "every GLSL stage is skipped")
	for _, f := range skipped {
		assert.NotEqual(t, ".wgsl", filepath.Ext(f), f)
	}
	assert.Equal(t, filepath.Join(dir, "triangle.spv"), written[0])

	for _, f := range written {
		data, err := os.ReadFile(f)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(data), 4)
		assert.Equal(t, uint32(0x07230203), binary.LittleEndian.Uint32(data), f)
	}
}
