package model

import (
	_ "embed"

	"github.com/Carmen-Shannon/eyengine/common"
	"github.com/Carmen-Shannon/eyengine/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/eyengine/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// InstanceFirstLocation is the location of the first model matrix row in every instanced shader.
const InstanceFirstLocation = 5

// GPUVertexSource is the WGSL definition of the VertexInput struct for textured meshes.
// Matches GPUVertex layout exactly (20 bytes).
//
//go:embed assets/vertex.wgsl
var GPUVertexSource string

// gpuVertexGLSL declares the same inputs as GPUVertexSource for GLSL vertex shaders.
const gpuVertexGLSL = `layout(location = 0) in vec3 a_position;
layout(location = 1) in vec2 a_tex_coords;`

// GPUVertex is one vertex of a textured mesh: position at location 0, texture coordinates at 1.
// Size: 20 bytes.
type GPUVertex struct {
	Position  [3]float32 // offset  0
	TexCoords [2]float32 // offset 12
}

// Size returns the size of the GPUVertex struct in bytes.
//
// Returns:
//   - int: 20
func (g *GPUVertex) Size() int {
	return 20
}

// Marshal serializes the vertex for upload.
//
// Returns:
//   - []byte: 20 little-endian bytes
func (g *GPUVertex) Marshal() []byte {
	buf := make([]byte, g.Size())
	off := common.PutFloat32s(buf, 0, g.Position[:]...)
	common.PutFloat32s(buf, off, g.TexCoords[:]...)
	return buf
}

// GPUVertexLayout is the per-vertex buffer layout matching GPUVertex.
//
// Returns:
//   - pipeline.VertexBufferLayout: position float32x3 at 0, tex_coords float32x2 at 1, stride 20
func GPUVertexLayout() pipeline.VertexBufferLayout {
	return pipeline.NewVertexBufferLayout(wgpu.VertexStepModeVertex,
		pipeline.VertexAttribute{Role: pipeline.VertexRolePosition, Format: wgpu.VertexFormatFloat32x3, Location: 0},
		pipeline.VertexAttribute{Role: pipeline.VertexRoleTexCoords, Format: wgpu.VertexFormatFloat32x2, Location: 1},
	)
}

// GPUColoredVertex is one vertex of a vertex-coloured mesh: position at 0, RGB colour at 1.
// Size: 24 bytes.
type GPUColoredVertex struct {
	Position [3]float32 // offset  0
	Color    [3]float32 // offset 12
}

// Size returns the size of the GPUColoredVertex struct in bytes.
//
// Returns:
//   - int: 24
func (g *GPUColoredVertex) Size() int {
	return 24
}

// Marshal serializes the vertex for upload.
//
// Returns:
//   - []byte: 24 little-endian bytes
func (g *GPUColoredVertex) Marshal() []byte {
	buf := make([]byte, g.Size())
	off := common.PutFloat32s(buf, 0, g.Position[:]...)
	common.PutFloat32s(buf, off, g.Color[:]...)
	return buf
}

// GPUColoredVertexLayout is the per-vertex buffer layout matching GPUColoredVertex.
//
// Returns:
//   - pipeline.VertexBufferLayout: position float32x3 at 0, color float32x3 at 1, stride 24
func GPUColoredVertexLayout() pipeline.VertexBufferLayout {
	return pipeline.NewVertexBufferLayout(wgpu.VertexStepModeVertex,
		pipeline.VertexAttribute{Role: pipeline.VertexRolePosition, Format: wgpu.VertexFormatFloat32x3, Location: 0},
		pipeline.VertexAttribute{Role: pipeline.VertexRoleColor, Format: wgpu.VertexFormatFloat32x3, Location: 1},
	)
}

// GPUPositionVertex is a position-only vertex. Size: 12 bytes.
type GPUPositionVertex struct {
	Position [3]float32
}

// Size returns the size of the GPUPositionVertex struct in bytes.
//
// Returns:
//   - int: 12
func (g *GPUPositionVertex) Size() int {
	return 12
}

// Marshal serializes the vertex for upload.
//
// Returns:
//   - []byte: 12 little-endian bytes
func (g *GPUPositionVertex) Marshal() []byte {
	buf := make([]byte, g.Size())
	common.PutFloat32s(buf, 0, g.Position[:]...)
	return buf
}

// GPUPositionVertexLayout is the per-vertex buffer layout matching GPUPositionVertex.
//
// Returns:
//   - pipeline.VertexBufferLayout: position float32x3 at 0, stride 12
func GPUPositionVertexLayout() pipeline.VertexBufferLayout {
	return pipeline.NewVertexBufferLayout(wgpu.VertexStepModeVertex,
		pipeline.VertexAttribute{Role: pipeline.VertexRolePosition, Format: wgpu.VertexFormatFloat32x3, Location: 0},
	)
}

// GPUInstanceSource is the WGSL definition of the InstanceInput struct: the model matrix split
// into four rows at locations 5 to 8.
//
//go:embed assets/instance.wgsl
var GPUInstanceSource string

// gpuInstanceGLSL declares the same inputs as GPUInstanceSource for GLSL vertex shaders.
const gpuInstanceGLSL = `layout(location = 5) in vec4 model_matrix_0;
layout(location = 6) in vec4 model_matrix_1;
layout(location = 7) in vec4 model_matrix_2;
layout(location = 8) in vec4 model_matrix_3;`

// GPUInstance is the per-instance model matrix, uploaded column by column so that column i
// arrives in the shader as model_matrix_i. Size: 64 bytes.
type GPUInstance struct {
	Model mgl32.Mat4
}

// Size returns the size of the GPUInstance struct in bytes.
//
// Returns:
//   - int: 64
func (g *GPUInstance) Size() int {
	return 64
}

// Marshal serializes the instance for upload.
//
// Returns:
//   - []byte: 64 little-endian bytes
func (g *GPUInstance) Marshal() []byte {
	return common.MarshalMat4(g.Model)
}

// GPUInstanceLayout is the per-instance buffer layout matching GPUInstance.
//
// Returns:
//   - pipeline.VertexBufferLayout: four float32x4 rows at 5 to 8, stride 64, per instance
func GPUInstanceLayout() pipeline.VertexBufferLayout {
	return pipeline.InstanceTransformLayout(InstanceFirstLocation)
}

// Includes returns the pre-processor registrations for the vertex and instance inputs:
// //@eye:include vertex and //@eye:include instance.
//
// Returns:
//   - []shader.Include: the vertex and instance includes
func Includes() []shader.Include {
	return []shader.Include{
		{Key: "vertex", Type: "VertexInput", WGSL: GPUVertexSource, GLSL: gpuVertexGLSL},
		{Key: "instance", Type: "InstanceInput", WGSL: GPUInstanceSource, GLSL: gpuInstanceGLSL},
	}
}
