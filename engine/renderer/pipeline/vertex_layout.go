package pipeline

import (
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/eyengine/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// VertexRole is the semantic meaning of a vertex attribute. The role never changes validation
// of a location, it documents intent and lets ComposeInstanced find the model matrix rows.
type VertexRole int

const (
	VertexRoleGeneric VertexRole = iota
	VertexRolePosition
	VertexRoleColor
	VertexRoleTexCoords
	VertexRoleNormal
	VertexRoleInstanceModelRow
)

var vertexRoleNames = map[VertexRole]string{
	VertexRoleGeneric:          "generic",
	VertexRolePosition:         "position",
	VertexRoleColor:            "color",
	VertexRoleTexCoords:        "tex_coords",
	VertexRoleNormal:           "normal",
	VertexRoleInstanceModelRow: "model_row",
}

func (r VertexRole) String() string {
	if s, ok := vertexRoleNames[r]; ok {
		return s
	}
	return fmt.Sprintf("VertexRole(%d)", int(r))
}

// ParseVertexRole is the inverse of VertexRole.String. An empty name is VertexRoleGeneric.
//
// Parameters:
//   - s: the role name used in manifests
//
// Returns:
//   - VertexRole: the matching role
//   - error: an error if s names no role
func ParseVertexRole(s string) (VertexRole, error) {
	if s == "" {
		return VertexRoleGeneric, nil
	}
	for r, name := range vertexRoleNames {
		if name == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("pipeline: unknown vertex role %q", s)
}

// formatInfo is the shape of a vertex format as the vertex shader sees it.
type formatInfo struct {
	name       string
	scalar     shader.ScalarKind
	components int
	size       uint64
}

// Normalized formats arrive in the shader as floats.
var vertexFormatTable = map[wgpu.VertexFormat]formatInfo{
	wgpu.VertexFormatUint8x2:   {"uint8x2", shader.ScalarKindUint, 2, 2},
	wgpu.VertexFormatUint8x4:   {"uint8x4", shader.ScalarKindUint, 4, 4},
	wgpu.VertexFormatSint8x2:   {"sint8x2", shader.ScalarKindSint, 2, 2},
	wgpu.VertexFormatSint8x4:   {"sint8x4", shader.ScalarKindSint, 4, 4},
	wgpu.VertexFormatUnorm8x2:  {"unorm8x2", shader.ScalarKindFloat, 2, 2},
	wgpu.VertexFormatUnorm8x4:  {"unorm8x4", shader.ScalarKindFloat, 4, 4},
	wgpu.VertexFormatSnorm8x2:  {"snorm8x2", shader.ScalarKindFloat, 2, 2},
	wgpu.VertexFormatSnorm8x4:  {"snorm8x4", shader.ScalarKindFloat, 4, 4},
	wgpu.VertexFormatUint16x2:  {"uint16x2", shader.ScalarKindUint, 2, 4},
	wgpu.VertexFormatUint16x4:  {"uint16x4", shader.ScalarKindUint, 4, 8},
	wgpu.VertexFormatSint16x2:  {"sint16x2", shader.ScalarKindSint, 2, 4},
	wgpu.VertexFormatSint16x4:  {"sint16x4", shader.ScalarKindSint, 4, 8},
	wgpu.VertexFormatUnorm16x2: {"unorm16x2", shader.ScalarKindFloat, 2, 4},
	wgpu.VertexFormatUnorm16x4: {"unorm16x4", shader.ScalarKindFloat, 4, 8},
	wgpu.VertexFormatSnorm16x2: {"snorm16x2", shader.ScalarKindFloat, 2, 4},
	wgpu.VertexFormatSnorm16x4: {"snorm16x4", shader.ScalarKindFloat, 4, 8},
	wgpu.VertexFormatFloat16x2: {"float16x2", shader.ScalarKindFloat, 2, 4},
	wgpu.VertexFormatFloat16x4: {"float16x4", shader.ScalarKindFloat, 4, 8},
	wgpu.VertexFormatFloat32:   {"float32", shader.ScalarKindFloat, 1, 4},
	wgpu.VertexFormatFloat32x2: {"float32x2", shader.ScalarKindFloat, 2, 8},
	wgpu.VertexFormatFloat32x3: {"float32x3", shader.ScalarKindFloat, 3, 12},
	wgpu.VertexFormatFloat32x4: {"float32x4", shader.ScalarKindFloat, 4, 16},
	wgpu.VertexFormatUint32:    {"uint32", shader.ScalarKindUint, 1, 4},
	wgpu.VertexFormatUint32x2:  {"uint32x2", shader.ScalarKindUint, 2, 8},
	wgpu.VertexFormatUint32x3:  {"uint32x3", shader.ScalarKindUint, 3, 12},
	wgpu.VertexFormatUint32x4:  {"uint32x4", shader.ScalarKindUint, 4, 16},
	wgpu.VertexFormatSint32:    {"sint32", shader.ScalarKindSint, 1, 4},
	wgpu.VertexFormatSint32x2:  {"sint32x2", shader.ScalarKindSint, 2, 8},
	wgpu.VertexFormatSint32x3:  {"sint32x3", shader.ScalarKindSint, 3, 12},
	wgpu.VertexFormatSint32x4:  {"sint32x4", shader.ScalarKindSint, 4, 16},
}

// FormatSize returns the byte size of a vertex format, 0 for formats this package does not know.
func FormatSize(f wgpu.VertexFormat) uint64 { return vertexFormatTable[f].size }

// FormatName returns the lowercase WebGPU spelling of a vertex format (e.g. "float32x3").
func FormatName(f wgpu.VertexFormat) string {
	if info, ok := vertexFormatTable[f]; ok {
		return info.name
	}
	return fmt.Sprintf("VertexFormat(%d)", int(f))
}

// ParseFormat resolves a lowercase WebGPU vertex format name.
//
// Parameters:
//   - s: the format name, e.g. "float32x2"
//
// Returns:
//   - wgpu.VertexFormat: the matching format
//   - error: an error if s names no supported format
func ParseFormat(s string) (wgpu.VertexFormat, error) {
	for f, info := range vertexFormatTable {
		if info.name == s {
			return f, nil
		}
	}
	return wgpu.VertexFormatUndefined, fmt.Errorf("pipeline: unknown vertex format %q", s)
}

// formatCompatible reports whether a buffer attribute of format f can feed a shader input of
// type t: the scalar kinds must agree and so must the component counts.
func formatCompatible(f wgpu.VertexFormat, t shader.ValueType) bool {
	info, ok := vertexFormatTable[f]
	if !ok || t.IsMatrix() {
		return false
	}
	return info.scalar == t.Scalar() && info.components == t.Components()
}

// VertexAttribute is one field of a vertex buffer element.
type VertexAttribute struct {
	Role     VertexRole
	Format   wgpu.VertexFormat
	Location uint32

	// Offset is the byte offset of the field within one buffer element.
	Offset uint64
}

// VertexBufferLayout describes the elements of one vertex buffer.
type VertexBufferLayout struct {
	Stride     uint64
	StepMode   wgpu.VertexStepMode
	Attributes []VertexAttribute
}

// NewVertexBufferLayout packs attributes in order, computing offsets and the stride from the
// format sizes. Only the Role, Format and Location of each attribute are read.
//
// Parameters:
//   - stepMode: wgpu.VertexStepModeVertex or wgpu.VertexStepModeInstance
//   - attrs: the attributes in buffer order
//
// Returns:
//   - VertexBufferLayout: the packed layout
func NewVertexBufferLayout(stepMode wgpu.VertexStepMode, attrs ...VertexAttribute) VertexBufferLayout {
	layout := VertexBufferLayout{StepMode: stepMode, Attributes: make([]VertexAttribute, len(attrs))}
	for i, a := range attrs {
		a.Offset = layout.Stride
		layout.Attributes[i] = a
		layout.Stride += FormatSize(a.Format)
	}
	return layout
}

// InstanceTransformLayout is the per-instance layout of a 4x4 model matrix: four float32x4 rows
// at consecutive locations starting at firstLocation, 64 bytes per instance.
//
// Parameters:
//   - firstLocation: the location of row 0 (5 in the sandbox shaders)
//
// Returns:
//   - VertexBufferLayout: the instance buffer layout
func InstanceTransformLayout(firstLocation uint32) VertexBufferLayout {
	rows := make([]VertexAttribute, 4)
	for i := range rows {
		rows[i] = VertexAttribute{
			Role:     VertexRoleInstanceModelRow,
			Format:   wgpu.VertexFormatFloat32x4,
			Location: firstLocation + uint32(i),
		}
	}
	return NewVertexBufferLayout(wgpu.VertexStepModeInstance, rows...)
}

// Locations returns the attribute locations in ascending order.
func (l VertexBufferLayout) Locations() []uint32 {
	out := make([]uint32, len(l.Attributes))
	for i, a := range l.Attributes {
		out[i] = a.Location
	}
	slices.Sort(out)
	return out
}

// Clone returns a copy that shares no slice with l.
func (l VertexBufferLayout) Clone() VertexBufferLayout {
	l.Attributes = slices.Clone(l.Attributes)
	return l
}

// ToWGPU converts the layout into the form wgpu.RenderPipelineDescriptor expects.
func (l VertexBufferLayout) ToWGPU() wgpu.VertexBufferLayout {
	attrs := make([]wgpu.VertexAttribute, len(l.Attributes))
	for i, a := range l.Attributes {
		attrs[i] = wgpu.VertexAttribute{
			Format:         a.Format,
			Offset:         a.Offset,
			ShaderLocation: a.Location,
		}
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: l.Stride,
		StepMode:    l.StepMode,
		Attributes:  attrs,
	}
}
