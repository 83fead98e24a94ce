package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/eyengine/engine/model"
	"github.com/Carmen-Shannon/eyengine/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/eyengine/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// namedLayouts are the layouts a buffer may refer to by name.
var namedLayouts = map[string]func() pipeline.VertexBufferLayout{
	"position": model.GPUPositionVertexLayout,
	"colored":  model.GPUColoredVertexLayout,
	"textured": model.GPUVertexLayout,
	"instance": model.GPUInstanceLayout,
}

var stepModes = map[string]wgpu.VertexStepMode{
	"":         wgpu.VertexStepModeVertex,
	"vertex":   wgpu.VertexStepModeVertex,
	"instance": wgpu.VertexStepModeInstance,
}

var stageNames = map[string]wgpu.ShaderStage{
	"vertex":   wgpu.ShaderStageVertex,
	"fragment": wgpu.ShaderStageFragment,
	"compute":  wgpu.ShaderStageCompute,
}

func (b BufferSpec) layout() (pipeline.VertexBufferLayout, error) {
	if b.Layout != "" {
		if len(b.Attributes) > 0 || b.StepMode != "" {
			return pipeline.VertexBufferLayout{}, fmt.Errorf("buffer layout %q cannot also list a step mode or attributes", b.Layout)
		}
		named, ok := namedLayouts[b.Layout]
		if !ok {
			return pipeline.VertexBufferLayout{}, fmt.Errorf("unknown buffer layout %q", b.Layout)
		}
		return named(), nil
	}

	stepMode, ok := stepModes[b.StepMode]
	if !ok {
		return pipeline.VertexBufferLayout{}, fmt.Errorf("unknown step mode %q", b.StepMode)
	}
	attrs := make([]pipeline.VertexAttribute, len(b.Attributes))
	for i, a := range b.Attributes {
		format, err := pipeline.ParseFormat(a.Format)
		if err != nil {
			return pipeline.VertexBufferLayout{}, err
		}
		role, err := pipeline.ParseVertexRole(a.Role)
		if err != nil {
			return pipeline.VertexBufferLayout{}, err
		}
		attrs[i] = pipeline.VertexAttribute{Role: role, Format: format, Location: a.Location}
	}
	return pipeline.NewVertexBufferLayout(stepMode, attrs...), nil
}

func (r ResourceSpec) supplied() (pipeline.SuppliedResource, error) {
	kind, ok := shader.ParseResourceKind(r.Kind)
	if !ok {
		return pipeline.SuppliedResource{}, fmt.Errorf("resource (%d, %d): unknown kind %q", r.Group, r.Binding, r.Kind)
	}
	var vis wgpu.ShaderStage
	for _, name := range r.Visibility {
		stage, ok := stageNames[name]
		if !ok {
			return pipeline.SuppliedResource{}, fmt.Errorf("resource (%d, %d): unknown stage %q", r.Group, r.Binding, name)
		}
		vis |= stage
	}
	return pipeline.SuppliedResource{Group: r.Group, Binding: r.Binding, Kind: kind, Visibility: vis}, nil
}

// buildDescriptor reflects the shaders of p and validates them against its buffers and
// resources. The resource list is taken as the complete set the host binds.
func (l *loader) buildDescriptor(m *Manifest, p PipelineSpec) (pipeline.Descriptor, error) {
	var opts []pipeline.DescriptorBuilderOption

	stages := []struct {
		rel, entry string
		stage      shader.ShaderType
		with       func(shader.Shader) pipeline.DescriptorBuilderOption
	}{
		{p.Vertex, p.VertexEntry, shader.ShaderTypeVertex, pipeline.WithVertexShader},
		{p.Fragment, p.FragmentEntry, shader.ShaderTypeFragment, pipeline.WithFragmentShader},
		{p.Compute, p.ComputeEntry, shader.ShaderTypeCompute, pipeline.WithComputeShader},
	}
	for _, st := range stages {
		if st.rel == "" {
			continue
		}
		s, err := l.loadShader(m, p.Key, st.rel, st.entry, st.stage)
		if err != nil {
			return nil, err
		}
		opts = append(opts, st.with(s))
	}

	for i, b := range p.Buffers {
		layout, err := b.layout()
		if err != nil {
			return nil, fmt.Errorf("pipeline %s buffer %d: %w", p.Key, i, err)
		}
		if i == 0 {
			opts = append(opts, pipeline.WithVertexBuffer(layout))
		} else {
			opts = append(opts, pipeline.WithInstanceBuffer(layout))
		}
	}

	supplied := make([]pipeline.SuppliedResource, len(p.Resources))
	for i, r := range p.Resources {
		s, err := r.supplied()
		if err != nil {
			return nil, fmt.Errorf("pipeline %s: %w", p.Key, err)
		}
		supplied[i] = s
	}
	opts = append(opts, pipeline.WithSuppliedResources(supplied...))

	return pipeline.NewDescriptor(p.Key, opts...)
}

// loadShader gives every shader its own PreProcessor so pipelines can build concurrently.
func (l *loader) loadShader(m *Manifest, key, rel, entry string, stage shader.ShaderType) (shader.Shader, error) {
	data, err := m.ReadFile(rel)
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", key, err)
	}
	opts := []shader.ShaderBuilderOption{
		shader.WithPreProcessor(shader.NewPreProcessor(l.includes...)),
		shader.WithSourcePath(m.Resolve(rel)),
	}
	if entry != "" {
		opts = append(opts, shader.WithEntryPoint(entry))
	}
	return shader.NewShaderFromSource(fmt.Sprintf("%s/%s", key, stage), stage, string(data), opts...)
}
