package shader

import "github.com/cogentcore/webgpu/wgpu"

// sampledTextureInfo holds the view dimension and multisampled flag for a sampled texture type
type sampledTextureInfo struct {
	viewDimension wgpu.TextureViewDimension
	multisampled  bool
}

// typeLayout holds the byte size and alignment of a host-shareable type.
// WGSL values follow the WGSL uniform layout rules, GLSL values follow std140.
type typeLayout struct {
	size  uint64
	align uint64
}

// parsedField represents a single struct member or function parameter extracted during parsing
type parsedField struct {
	name      string
	typeName  string
	location  int
	builtin   string
	arrayLen  int
	sourceRow int
}

// parsedStruct represents a struct or uniform block extracted during parsing
type parsedStruct struct {
	name   string
	fields []parsedField
}

// parsedFunction is a WGSL function header with the byte ranges of its parameter list and body.
type parsedFunction struct {
	name       string
	stage      ShaderType
	params     string
	returnDecl string
	body       string
	line       int
}
