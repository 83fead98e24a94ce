package common

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// OpenGLToWGPU remaps OpenGL clip-space depth [-1, 1] to the WebGPU range [0, 1].
// Projection matrices built with mgl32 must be pre-multiplied by it before upload.
// Stored column-major like every mgl32.Mat4.
var OpenGLToWGPU = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// CopyBufferAlignment is the byte alignment the GPU queue requires for buffer writes.
const CopyBufferAlignment = 4

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), int(size)*len(data))
}

// PutFloat32s writes the values little-endian into buf starting at offset.
//
// Parameters:
//   - buf: destination buffer, must hold offset+4*len(values) bytes
//   - offset: byte offset of the first value
//   - values: the floats to write
//
// Returns:
//   - int: the offset just past the last written value
func PutFloat32s(buf []byte, offset int, values ...float32) int {
	for _, v := range values {
		binary.LittleEndian.PutUint32(buf[offset:], math.Float32bits(v))
		offset += 4
	}
	return offset
}

// Float32At reads one little-endian float32 from buf at offset.
func Float32At(buf []byte, offset int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[offset:]))
}

// MarshalMat4 serializes a matrix column by column, the layout WGSL expects for mat4x4<f32>.
//
// Parameters:
//   - m: the matrix to serialize
//
// Returns:
//   - []byte: 64 bytes of little-endian floats
func MarshalMat4(m mgl32.Mat4) []byte {
	buf := make([]byte, 64)
	PutFloat32s(buf, 0, m[:]...)
	return buf
}

// AlignUp rounds size up to the next multiple of alignment. Alignment must be a power of two.
//
// Parameters:
//   - size: the value to round
//   - alignment: the power of two to align to
//
// Returns:
//   - int: the aligned size
func AlignUp(size, alignment int) int {
	if alignment <= 0 {
		return size
	}
	return (size + alignment - 1) &^ (alignment - 1)
}
