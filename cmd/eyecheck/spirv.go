package main

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/eyengine/common"
	"github.com/Carmen-Shannon/eyengine/engine/loader"
	"github.com/Carmen-Shannon/eyengine/engine/renderer/shader"
)

// writeSPIRV compiles every WGSL shader of m into dir as <name>.spv. GLSL shaders are skipped
// and returned in skipped. It returns the files written before any error.
func writeSPIRV(m *loader.Manifest, dir string, includes []shader.Include) (written, skipped []string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, err
	}
	for _, f := range m.ShaderFiles() {
		_, lang, err := shader.StageFromPath(f)
		if err != nil {
			return written, skipped, err
		}
		if lang != shader.LanguageWGSL {
			common.Logger().Debug("spirv skipped", "file", f, "language", lang)
			skipped = append(skipped, f)
			continue
		}
		data, err := m.ReadResolved(f)
		if err != nil {
			return written, skipped, err
		}
		src, err := shader.NewPreProcessor(includes...).Process(string(data), shader.LanguageWGSL)
		if err != nil {
			return written, skipped, err
		}
		spv, err := shader.CompileSPIRV(src)
		if err != nil {
			return written, skipped, fmt.Errorf("%s: %w", f, err)
		}
		base := path.Base(filepath.ToSlash(f))
		name := filepath.Join(dir, strings.TrimSuffix(base, path.Ext(base))+".spv")
		if err := os.WriteFile(name, spv, 0o644); err != nil {
			return written, skipped, err
		}
		written = append(written, name)
	}
	return written, skipped, nil
}

// verifyResults re-checks every WGSL stage of the passing pipelines with the naga front end and
// turns disagreements into failures.
func verifyResults(results []loader.Result) {
	for i, res := range results {
		if res.Err != nil {
			continue
		}
		for _, stage := range []shader.ShaderType{shader.ShaderTypeVertex, shader.ShaderTypeFragment, shader.ShaderTypeCompute} {
			s := res.Descriptor.Shader(stage)
			if s == nil || s.Language() != shader.LanguageWGSL {
				continue
			}
			if err := shader.Verify(s.Source(), stage, s.EntryPoint()); err != nil {
				results[i].Err = fmt.Errorf("%s: %w", s.Key(), err)
				results[i].Descriptor = nil
				break
			}
		}
	}
}
