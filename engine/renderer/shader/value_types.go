package shader

import "github.com/cogentcore/webgpu/wgpu"

// ValueType is the language-neutral numeric type of a stage variable or uniform block member.
// Both the WGSL and the GLSL front ends reduce their type spellings to a ValueType, so two
// shaders written in different languages compare equal when their interfaces agree.
type ValueType int

const (
	ValueTypeUnknown ValueType = iota
	ValueTypeF32
	ValueTypeVec2F32
	ValueTypeVec3F32
	ValueTypeVec4F32
	ValueTypeI32
	ValueTypeVec2I32
	ValueTypeVec3I32
	ValueTypeVec4I32
	ValueTypeU32
	ValueTypeVec2U32
	ValueTypeVec3U32
	ValueTypeVec4U32
	ValueTypeMat2x2F32
	ValueTypeMat3x3F32
	ValueTypeMat4x4F32
)

// ScalarKind is the component type of a ValueType.
type ScalarKind int

const (
	ScalarKindFloat ScalarKind = iota
	ScalarKindSint
	ScalarKindUint
)

// String returns the WGSL-style spelling of the scalar kind.
func (k ScalarKind) String() string {
	switch k {
	case ScalarKindSint:
		return "i32"
	case ScalarKindUint:
		return "u32"
	default:
		return "f32"
	}
}

// valueTypeInfo carries the per-language spellings and memory layouts of a ValueType.
type valueTypeInfo struct {
	wgsl        string
	wgslAliases []string
	glsl        string
	format      wgpu.VertexFormat
	components  int
	scalar      ScalarKind
	layout      typeLayout
	std140      typeLayout
}

var valueTypeTable = map[ValueType]valueTypeInfo{
	ValueTypeF32:     {"f32", nil, "float", wgpu.VertexFormatFloat32, 1, ScalarKindFloat, typeLayout{4, 4}, typeLayout{4, 4}},
	ValueTypeVec2F32: {"vec2<f32>", []string{"vec2f"}, "vec2", wgpu.VertexFormatFloat32x2, 2, ScalarKindFloat, typeLayout{8, 8}, typeLayout{8, 8}},
	ValueTypeVec3F32: {"vec3<f32>", []string{"vec3f"}, "vec3", wgpu.VertexFormatFloat32x3, 3, ScalarKindFloat, typeLayout{12, 16}, typeLayout{12, 16}},
	ValueTypeVec4F32: {"vec4<f32>", []string{"vec4f"}, "vec4", wgpu.VertexFormatFloat32x4, 4, ScalarKindFloat, typeLayout{16, 16}, typeLayout{16, 16}},
	ValueTypeI32:     {"i32", nil, "int", wgpu.VertexFormatSint32, 1, ScalarKindSint, typeLayout{4, 4}, typeLayout{4, 4}},
	ValueTypeVec2I32: {"vec2<i32>", []string{"vec2i"}, "ivec2", wgpu.VertexFormatSint32x2, 2, ScalarKindSint, typeLayout{8, 8}, typeLayout{8, 8}},
	ValueTypeVec3I32: {"vec3<i32>", []string{"vec3i"}, "ivec3", wgpu.VertexFormatSint32x3, 3, ScalarKindSint, typeLayout{12, 16}, typeLayout{12, 16}},
	ValueTypeVec4I32: {"vec4<i32>", []string{"vec4i"}, "ivec4", wgpu.VertexFormatSint32x4, 4, ScalarKindSint, typeLayout{16, 16}, typeLayout{16, 16}},
	ValueTypeU32:     {"u32", nil, "uint", wgpu.VertexFormatUint32, 1, ScalarKindUint, typeLayout{4, 4}, typeLayout{4, 4}},
	ValueTypeVec2U32: {"vec2<u32>", []string{"vec2u"}, "uvec2", wgpu.VertexFormatUint32x2, 2, ScalarKindUint, typeLayout{8, 8}, typeLayout{8, 8}},
	ValueTypeVec3U32: {"vec3<u32>", []string{"vec3u"}, "uvec3", wgpu.VertexFormatUint32x3, 3, ScalarKindUint, typeLayout{12, 16}, typeLayout{12, 16}},
	ValueTypeVec4U32: {"vec4<u32>", []string{"vec4u"}, "uvec4", wgpu.VertexFormatUint32x4, 4, ScalarKindUint, typeLayout{16, 16}, typeLayout{16, 16}},
	// std140 pads every matrix column to a vec4.
	ValueTypeMat2x2F32: {"mat2x2<f32>", []string{"mat2x2f"}, "mat2", wgpu.VertexFormatUndefined, 4, ScalarKindFloat, typeLayout{16, 8}, typeLayout{32, 16}},
	ValueTypeMat3x3F32: {"mat3x3<f32>", []string{"mat3x3f"}, "mat3", wgpu.VertexFormatUndefined, 9, ScalarKindFloat, typeLayout{48, 16}, typeLayout{48, 16}},
	ValueTypeMat4x4F32: {"mat4x4<f32>", []string{"mat4x4f"}, "mat4", wgpu.VertexFormatUndefined, 16, ScalarKindFloat, typeLayout{64, 16}, typeLayout{64, 16}},
}

var (
	wgslValueTypes = map[string]ValueType{}
	glslValueTypes = map[string]ValueType{}
)

func init() {
	for vt, info := range valueTypeTable {
		wgslValueTypes[info.wgsl] = vt
		for _, alias := range info.wgslAliases {
			wgslValueTypes[alias] = vt
		}
		glslValueTypes[info.glsl] = vt
	}
}

// ValueTypeFromWGSL resolves a WGSL type spelling (e.g. "vec3<f32>", "vec3f") to its ValueType.
func ValueTypeFromWGSL(name string) ValueType {
	return wgslValueTypes[normalizeTypeName(name)]
}

// ValueTypeFromGLSL resolves a GLSL type spelling (e.g. "vec3", "mat4") to its ValueType.
func ValueTypeFromGLSL(name string) ValueType {
	return glslValueTypes[name]
}

// WGSL returns the canonical WGSL spelling, or an empty string for ValueTypeUnknown.
func (t ValueType) WGSL() string { return valueTypeTable[t].wgsl }

// GLSL returns the GLSL spelling, or an empty string for ValueTypeUnknown.
func (t ValueType) GLSL() string { return valueTypeTable[t].glsl }

// String implements fmt.Stringer using the WGSL spelling.
func (t ValueType) String() string {
	if s := t.WGSL(); s != "" {
		return s
	}
	return "unknown"
}

// Components returns the number of scalar components (16 for a 4x4 matrix).
func (t ValueType) Components() int { return valueTypeTable[t].components }

// Scalar returns the component type.
func (t ValueType) Scalar() ScalarKind { return valueTypeTable[t].scalar }

// VertexFormat returns the vertex attribute format that feeds this type, or
// wgpu.VertexFormatUndefined for matrices, which cannot be vertex inputs.
func (t ValueType) VertexFormat() wgpu.VertexFormat { return valueTypeTable[t].format }

// IsMatrix reports whether the type is one of the square float matrices.
func (t ValueType) IsMatrix() bool {
	return t == ValueTypeMat2x2F32 || t == ValueTypeMat3x3F32 || t == ValueTypeMat4x4F32
}

// normalizeTypeName removes whitespace so "vec3< f32 >" and "vec3<f32>" resolve identically.
func normalizeTypeName(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		switch name[i] {
		case ' ', '\t', '\n', '\r':
			continue
		}
		out = append(out, name[i])
	}
	return string(out)
}
