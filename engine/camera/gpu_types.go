package camera

import (
	_ "embed"

	"github.com/Carmen-Shannon/eyengine/common"
	"github.com/Carmen-Shannon/eyengine/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

// GPUCameraUniformSource is the WGSL definition of the CameraUniform struct.
// Matches GPUCameraUniform layout exactly (64 bytes).
//
//go:embed assets/camera_uniform.wgsl
var GPUCameraUniformSource string

// gpuCameraUniformGLSL is the member list of the GLSL CameraUniform block.
const gpuCameraUniformGLSL = "    mat4 view_proj;"

// GPUCameraUniformSize is the byte size of the camera uniform buffer.
const GPUCameraUniformSize = 64

// GPUCameraUniform is the GPU-aligned representation of the camera uniform buffer: a single
// column-major view-projection matrix already corrected to WebGPU clip space.
type GPUCameraUniform struct {
	ViewProj mgl32.Mat4
}

// Size returns the size of the GPUCameraUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (64)
func (g *GPUCameraUniform) Size() int {
	return GPUCameraUniformSize
}

// Marshal serializes the uniform for upload with Queue.WriteBuffer.
//
// Returns:
//   - []byte: 64 little-endian bytes
func (g *GPUCameraUniform) Marshal() []byte {
	return common.MarshalMat4(g.ViewProj)
}

// Include is the pre-processor registration of the camera uniform. WGSL shaders pull the struct
// in with //@eye:include camera, both languages declare the buffer with
// //@eye:group <g> <b> uniform <var> camera.
//
// Returns:
//   - shader.Include: the camera include
func Include() shader.Include {
	return shader.Include{
		Key:   shader.AnnotationArgCamera,
		Type:  "CameraUniform",
		WGSL:  GPUCameraUniformSource,
		GLSL:  gpuCameraUniformGLSL,
		Block: true,
	}
}
