package model

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Instance places one copy of a mesh in the world.
type Instance struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
}

// ToRaw builds the GPU form of the instance: translation times rotation.
//
// Returns:
//   - GPUInstance: the model matrix ready for upload
func (i Instance) ToRaw() GPUInstance {
	return GPUInstance{Model: mgl32.Translate3D(i.Position.X(), i.Position.Y(), i.Position.Z()).Mul4(i.Rotation.Mat4())}
}

// SplitRows splits a model matrix into the four vec4 attributes the instance buffer carries.
// Row i of the attribute layout is column i of the matrix, which is how a column-major
// mat4x4 constructor in the shader reassembles it.
//
// Parameters:
//   - m: the model matrix
//
// Returns:
//   - [4]mgl32.Vec4: the values for locations 5, 6, 7 and 8
func SplitRows(m mgl32.Mat4) [4]mgl32.Vec4 {
	return [4]mgl32.Vec4{m.Col(0), m.Col(1), m.Col(2), m.Col(3)}
}

// AssembleRows is the inverse of SplitRows, the same operation the vertex shader performs.
//
// Parameters:
//   - rows: the four instance attributes
//
// Returns:
//   - mgl32.Mat4: the model matrix
func AssembleRows(rows [4]mgl32.Vec4) mgl32.Mat4 {
	return mgl32.Mat4FromCols(rows[0], rows[1], rows[2], rows[3])
}

// InstanceGrid lays out perRow x perRow instances on the XZ plane, centred on the origin with
// unit spacing. Each instance is turned 45 degrees about the axis from the origin to its
// position. The one at the origin is not rotated.
//
// Parameters:
//   - perRow: instances per row and per column (10 in the sandbox)
//
// Returns:
//   - []Instance: perRow*perRow instances in row-major order
func InstanceGrid(perRow int) []Instance {
	if perRow <= 0 {
		return nil
	}
	half := float32(perRow) * 0.5
	angle := math32.Pi / 4

	out := make([]Instance, 0, perRow*perRow)
	for z := range perRow {
		for x := range perRow {
			pos := mgl32.Vec3{float32(x) - half, 0, float32(z) - half}
			rot := mgl32.QuatIdent()
			if length := pos.Len(); length > 1e-6 {
				rot = mgl32.QuatRotate(angle, pos.Mul(1/length))
			}
			out = append(out, Instance{Position: pos, Rotation: rot})
		}
	}
	return out
}

// MarshalInstances serializes instances into one instance buffer.
//
// Parameters:
//   - instances: the instances in draw order
//
// Returns:
//   - []byte: 64 bytes per instance
func MarshalInstances(instances []Instance) []byte {
	buf := make([]byte, 0, len(instances)*64)
	for _, inst := range instances {
		raw := inst.ToRaw()
		buf = append(buf, raw.Marshal()...)
	}
	return buf
}
