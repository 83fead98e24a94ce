package bind_group_provider

import (
	"github.com/Carmen-Shannon/eyengine/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// BindGroupProviderOption is a functional option for configuring a BindGroupProvider.
type BindGroupProviderOption func(*bindGroupProvider)

// WithUniform declares a uniform buffer at binding.
//
// Parameters:
//   - binding: the binding index
//   - visibility: the stages that read the uniform
//
// Returns:
//   - BindGroupProviderOption: a function that declares the uniform
func WithUniform(binding uint32, visibility wgpu.ShaderStage) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.declared[binding] = supplied(p.group, binding, shader.ResourceKindUniform, visibility)
	}
}

// WithTexturePair declares a sampled texture and its sampler together, the only way a texture
// is meant to be bound.
//
// Parameters:
//   - textureBinding: the binding of the texture (0 in the sandbox shaders)
//   - samplerBinding: the binding of the sampler (1 in the sandbox shaders)
//   - visibility: the stages that sample the texture
//
// Returns:
//   - BindGroupProviderOption: a function that declares both bindings
func WithTexturePair(textureBinding, samplerBinding uint32, visibility wgpu.ShaderStage) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.declared[textureBinding] = supplied(p.group, textureBinding, shader.ResourceKindSampledTexture, visibility)
		p.declared[samplerBinding] = supplied(p.group, samplerBinding, shader.ResourceKindSampler, visibility)
	}
}

// WithBuffer stores an existing GPU buffer at binding.
//
// Parameters:
//   - binding: the binding index
//   - buf: the GPU buffer
//
// Returns:
//   - BindGroupProviderOption: a function that stores the buffer
func WithBuffer(binding uint32, buf *wgpu.Buffer) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.buffers[binding] = buf
	}
}
