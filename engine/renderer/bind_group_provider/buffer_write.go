package bind_group_provider

import (
	"github.com/Carmen-Shannon/eyengine/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/eyengine/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// BufferWrite describes a single GPU buffer write operation targeting a specific binding
// on a BindGroupProvider at a given byte offset.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  uint32
	Offset   uint64
	Data     []byte
}

func supplied(group, binding uint32, kind shader.ResourceKind, visibility wgpu.ShaderStage) pipeline.SuppliedResource {
	return pipeline.SuppliedResource{Group: group, Binding: binding, Kind: kind, Visibility: visibility}
}
