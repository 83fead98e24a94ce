package pipeline

import (
	"slices"

	"github.com/Carmen-Shannon/eyengine/engine/renderer/shader"
)

// DescriptorBuilderOption is a functional option used to configure a Descriptor during construction.
type DescriptorBuilderOption func(*descriptor)

// WithVertexShader sets the vertex stage.
//
// Parameters:
//   - s: a shader whose ShaderType is ShaderTypeVertex
//
// Returns:
//   - DescriptorBuilderOption: a function that sets the vertex shader
func WithVertexShader(s shader.Shader) DescriptorBuilderOption {
	return func(d *descriptor) {
		d.vertexShader = s
	}
}

// WithFragmentShader sets the fragment stage.
//
// Parameters:
//   - s: a shader whose ShaderType is ShaderTypeFragment
//
// Returns:
//   - DescriptorBuilderOption: a function that sets the fragment shader
func WithFragmentShader(s shader.Shader) DescriptorBuilderOption {
	return func(d *descriptor) {
		d.fragmentShader = s
	}
}

// WithComputeShader makes the descriptor a compute descriptor. Only bindings are validated.
//
// Parameters:
//   - s: a shader whose ShaderType is ShaderTypeCompute
//
// Returns:
//   - DescriptorBuilderOption: a function that sets the compute shader
func WithComputeShader(s shader.Shader) DescriptorBuilderOption {
	return func(d *descriptor) {
		d.computeShader = s
	}
}

// WithVertexBuffer sets the per-vertex buffer in slot 0.
//
// Parameters:
//   - layout: the per-vertex buffer layout
//
// Returns:
//   - DescriptorBuilderOption: a function that sets the vertex buffer
func WithVertexBuffer(layout VertexBufferLayout) DescriptorBuilderOption {
	return func(d *descriptor) {
		if len(d.buffers) == 0 {
			d.buffers = append(d.buffers, layout.Clone())
			return
		}
		d.buffers[0] = layout.Clone()
	}
}

// WithInstanceBuffer appends a per-instance buffer after the vertex buffer.
//
// Parameters:
//   - layout: the per-instance buffer layout, usually InstanceTransformLayout(5)
//
// Returns:
//   - DescriptorBuilderOption: a function that adds the instance buffer
func WithInstanceBuffer(layout VertexBufferLayout) DescriptorBuilderOption {
	return func(d *descriptor) {
		if len(d.buffers) == 0 {
			d.buffers = append(d.buffers, VertexBufferLayout{})
		}
		d.buffers = append(d.buffers, layout.Clone())
	}
}

// WithSuppliedResources declares the resources the host binds, so NewDescriptor checks them.
// Without it binding validation waits for Descriptor.ValidateSupplied.
//
// Parameters:
//   - supplied: the resources the host binds
//
// Returns:
//   - DescriptorBuilderOption: a function that records the supplied resources
func WithSuppliedResources(supplied ...SuppliedResource) DescriptorBuilderOption {
	return func(d *descriptor) {
		d.supplied = append(d.supplied, slices.Clone(supplied)...)
		d.hasSupplied = true
	}
}
