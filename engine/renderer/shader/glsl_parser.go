package shader

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// glslTextureInfo describes a separate (non-combined) GLSL texture type.
type glslTextureInfo struct {
	sampleType    wgpu.TextureSampleType
	viewDimension wgpu.TextureViewDimension
	multisampled  bool
}

// glslTextureMap maps Vulkan-style separate texture types to their layout fields.
var glslTextureMap = map[string]glslTextureInfo{
	"texture1D":        {wgpu.TextureSampleTypeFloat, wgpu.TextureViewDimension1D, false},
	"texture2D":        {wgpu.TextureSampleTypeFloat, wgpu.TextureViewDimension2D, false},
	"texture2DArray":   {wgpu.TextureSampleTypeFloat, wgpu.TextureViewDimension2DArray, false},
	"texture2DMS":      {wgpu.TextureSampleTypeFloat, wgpu.TextureViewDimension2D, true},
	"texture3D":        {wgpu.TextureSampleTypeFloat, wgpu.TextureViewDimension3D, false},
	"textureCube":      {wgpu.TextureSampleTypeFloat, wgpu.TextureViewDimensionCube, false},
	"textureCubeArray": {wgpu.TextureSampleTypeFloat, wgpu.TextureViewDimensionCubeArray, false},
	"itexture2D":       {wgpu.TextureSampleTypeSint, wgpu.TextureViewDimension2D, false},
	"utexture2D":       {wgpu.TextureSampleTypeUint, wgpu.TextureViewDimension2D, false},
}

// glslSamplerMap maps separate sampler types to their binding type.
var glslSamplerMap = map[string]wgpu.SamplerBindingType{
	"sampler":       wgpu.SamplerBindingTypeFiltering,
	"samplerShadow": wgpu.SamplerBindingTypeComparison,
}

// glslVarQualifiers matches any run of interpolation, auxiliary and precision qualifiers.
const glslVarQualifiers = `(?:(?:flat|smooth|noperspective|centroid|sample|invariant|highp|mediump|lowp)\s+)*`

var (
	// glslStageVarRegex captures the layout qualifiers, direction, type, name and optional array
	// length of a located stage variable: layout(location=0) in highp vec3 a_position;
	glslStageVarRegex = regexp.MustCompile(`layout\s*\(([^)]*)\)\s*` + glslVarQualifiers + `(in|out)\s+` + glslVarQualifiers + `(\w+)\s+(\w+)\s*(?:\[\s*(\d+)\s*\])?\s*;`)

	// glslBareStageVarRegex matches stage variables declared without a layout qualifier
	glslBareStageVarRegex = regexp.MustCompile(`(?m)^[ \t]*` + glslVarQualifiers + `(in|out)\s+` + glslVarQualifiers + `(\w+)\s+(\w+)\s*(?:\[\s*\d+\s*\])?\s*;`)

	// glslLayoutStageVarRegex matches the start of any located in/out declaration. Compute
	// workgroup declarations (layout(local_size_x = 8) in;) are not stage variables.
	glslLayoutStageVarRegex = regexp.MustCompile(`layout\s*\([^)]*\)\s*` + glslVarQualifiers + `(in|out)\s+[^;\s]`)

	// glslBlockRegex captures the qualifiers, storage keyword, block name, body and optional
	// instance name of a uniform or buffer block
	glslBlockRegex = regexp.MustCompile(`layout\s*\(([^)]*)\)\s*((?:readonly\s+|writeonly\s+|restrict\s+)*(?:uniform|buffer))\s+(\w+)\s*\{([^}]*)\}\s*(\w+)?\s*;`)

	// glslOpaqueRegex captures the qualifiers, type and name of an opaque uniform
	glslOpaqueRegex = regexp.MustCompile(`layout\s*\(([^)]*)\)\s*uniform\s+(?:(?:highp|mediump|lowp)\s+)?(\w+)\s+(\w+)\s*;`)

	// glslBareUniformRegex matches opaque uniforms declared without a layout qualifier
	glslBareUniformRegex = regexp.MustCompile(`(?m)^[ \t]*uniform\s+(?:(?:highp|mediump|lowp)\s+)?(\w+)\s+(\w+)\s*;`)

	// glslMemberRegex captures the type, name and optional array length of a block member
	glslMemberRegex = regexp.MustCompile(`^(?:(?:highp|mediump|lowp|layout\s*\([^)]*\))\s+)*(\w+)\s+(\w+)\s*(?:\[\s*(\d+)\s*\])?$`)

	// glslQualifierRegex captures one key = value pair inside layout(...)
	glslQualifierRegex = regexp.MustCompile(`(\w+)\s*=\s*(\d+)`)

	// glslMainRegex matches the entry point definition
	glslMainRegex = regexp.MustCompile(`\bvoid\s+main\s*\(\s*(?:void\s*)?\)`)

	// glslClipPositionRegex matches a write to the clip position builtin
	glslClipPositionRegex = regexp.MustCompile(`\bgl_Position\s*=`)
)

// ReflectGLSL extracts the interface of a Vulkan-style GLSL shader (separate textures and
// samplers, explicit set and binding qualifiers). One GLSL file holds one stage whose entry
// point is always main. Combined image samplers such as sampler2D are rejected because the
// descriptor model keeps the texture and its sampler as two bindings.
//
// Parameters:
//   - source: the GLSL source, already pre-processed
//   - stage: the stage the file implements, usually from StageFromPath
//
// Returns:
//   - Signature: the reflected interface, sorted canonically
//   - error: a *ParseError describing the first unsupported declaration
func ReflectGLSL(source string, stage ShaderType) (Signature, error) {
	cleaned := stripComments(source)
	lineAt := func(idx int) int { return strings.Count(cleaned[:idx], "\n") + 1 }

	if !glslMainRegex.MatchString(cleaned) {
		return Signature{}, parseErrorf(0, "no main function")
	}

	sig := Signature{Stage: stage, EntryPoint: "main"}
	visibility := stageVisibility(stage)

	for _, m := range glslStageVarRegex.FindAllStringSubmatchIndex(cleaned, -1) {
		line := lineAt(m[0])
		quals := parseLayoutQualifiers(cleaned[m[2]:m[3]])
		dir, typeName, name := cleaned[m[4]:m[5]], cleaned[m[6]:m[7]], cleaned[m[8]:m[9]]

		loc, ok := quals["location"]
		if !ok {
			return Signature{}, parseErrorf(line, "%s variable %q has no location qualifier", dir, name)
		}
		vt := ValueTypeFromGLSL(typeName)
		if vt == ValueTypeUnknown || vt.IsMatrix() {
			return Signature{}, parseErrorf(line, "unsupported type %q at location %d", typeName, loc)
		}
		vars := []StageVariable{{Name: name, Location: uint32(loc), Type: vt}}
		if m[10] >= 0 {
			// Each array element takes the next location.
			n, _ := strconv.Atoi(cleaned[m[10]:m[11]])
			if n <= 0 {
				return Signature{}, parseErrorf(line, "%s array %q has length %d", dir, name, n)
			}
			vars = vars[:0]
			for i := range n {
				vars = append(vars, StageVariable{Name: name + "_" + strconv.Itoa(i), Location: uint32(loc + i), Type: vt})
			}
		}
		if dir == "in" {
			sig.Inputs = append(sig.Inputs, vars...)
		} else {
			sig.Outputs = append(sig.Outputs, vars...)
		}
	}
	unmatched := maskMatches(cleaned, glslStageVarRegex)
	if m := glslLayoutStageVarRegex.FindStringSubmatchIndex(unmatched); m != nil {
		return Signature{}, parseErrorf(lineAt(m[0]), "cannot parse %s declaration %q", cleaned[m[2]:m[3]], firstStatement(cleaned[m[0]:]))
	}
	if m := glslBareStageVarRegex.FindStringSubmatchIndex(unmatched); m != nil {
		return Signature{}, parseErrorf(lineAt(m[0]), "%s variable %q has no layout(location) qualifier", cleaned[m[2]:m[3]], cleaned[m[6]:m[7]])
	}

	for _, m := range glslBlockRegex.FindAllStringSubmatchIndex(cleaned, -1) {
		line := lineAt(m[0])
		decl, err := parseGLSLBlock(cleaned, m, visibility)
		if err != nil {
			err.Line = line
			return Signature{}, err
		}
		sig.Resources = append(sig.Resources, decl)
	}

	for _, m := range glslOpaqueRegex.FindAllStringSubmatchIndex(cleaned, -1) {
		line := lineAt(m[0])
		quals := parseLayoutQualifiers(cleaned[m[2]:m[3]])
		typeName, name := cleaned[m[4]:m[5]], cleaned[m[6]:m[7]]
		decl, err := classifyGLSLOpaque(quals, typeName, name, visibility)
		if err != nil {
			err.Line = line
			return Signature{}, err
		}
		sig.Resources = append(sig.Resources, decl)
	}
	if m := glslBareUniformRegex.FindStringSubmatchIndex(maskMatches(cleaned, glslBlockRegex, glslOpaqueRegex)); m != nil {
		return Signature{}, parseErrorf(lineAt(m[0]), "uniform %q has no layout(set, binding) qualifier", cleaned[m[4]:m[5]])
	}

	if stage == ShaderTypeVertex {
		sig.HasClipPosition = glslClipPositionRegex.MatchString(cleaned)
	}

	sortSignature(&sig)
	return sig, nil
}

// parseGLSLBlock converts a uniform or buffer block match into a ResourceDeclaration with its
// std140 size.
func parseGLSLBlock(cleaned string, m []int, visibility wgpu.ShaderStage) (ResourceDeclaration, *ParseError) {
	quals := parseLayoutQualifiers(cleaned[m[2]:m[3]])
	storage := strings.Fields(cleaned[m[4]:m[5]])
	blockName := cleaned[m[6]:m[7]]
	body := cleaned[m[8]:m[9]]
	instance := blockName
	if m[10] >= 0 {
		instance = cleaned[m[10]:m[11]]
	}

	binding, ok := quals["binding"]
	if !ok {
		return ResourceDeclaration{}, parseErrorf(0, "block %q has no binding qualifier", blockName)
	}

	var fields []parsedField
	for _, stmt := range strings.Split(body, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		mm := glslMemberRegex.FindStringSubmatch(stmt)
		if mm == nil {
			return ResourceDeclaration{}, parseErrorf(0, "cannot parse member %q of block %q", stmt, blockName)
		}
		f := parsedField{typeName: mm[1], name: mm[2], location: -1}
		if mm[3] != "" {
			f.arrayLen, _ = strconv.Atoi(mm[3])
		}
		fields = append(fields, f)
	}

	entry := wgpu.BindGroupLayoutEntry{Binding: uint32(binding), Visibility: visibility}
	kind := ResourceKindUniform
	switch {
	case storage[len(storage)-1] == "uniform":
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
	case len(storage) > 1 && storage[0] == "readonly":
		entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		kind = ResourceKindStorage
	default:
		entry.Buffer.Type = wgpu.BufferBindingTypeStorage
		kind = ResourceKindStorage
	}

	size, ok := std140BlockSize(fields)
	if !ok {
		return ResourceDeclaration{}, parseErrorf(0, "block %q has a member of unsupported type", blockName)
	}
	entry.Buffer.MinBindingSize = size

	return ResourceDeclaration{
		Group:      uint32(quals["set"]),
		Binding:    uint32(binding),
		Name:       instance,
		Kind:       kind,
		TypeName:   blockName,
		Members:    blockMembers(fields, ValueTypeFromGLSL),
		Size:       size,
		Visibility: visibility,
		Entry:      entry,
	}, nil
}

// classifyGLSLOpaque converts an opaque uniform (texture or sampler) into a ResourceDeclaration.
func classifyGLSLOpaque(quals map[string]int, typeName, name string, visibility wgpu.ShaderStage) (ResourceDeclaration, *ParseError) {
	binding, ok := quals["binding"]
	if !ok {
		return ResourceDeclaration{}, parseErrorf(0, "uniform %q has no binding qualifier", name)
	}
	entry := wgpu.BindGroupLayoutEntry{Binding: uint32(binding), Visibility: visibility}

	if info, ok := glslTextureMap[typeName]; ok {
		entry.Texture.SampleType = info.sampleType
		entry.Texture.ViewDimension = info.viewDimension
		entry.Texture.Multisampled = info.multisampled
	} else if st, ok := glslSamplerMap[typeName]; ok {
		entry.Sampler.Type = st
	} else if strings.HasPrefix(typeName, "sampler") {
		return ResourceDeclaration{}, parseErrorf(0, "combined image sampler %s %q is not supported, declare a separate texture and sampler", typeName, name)
	} else {
		return ResourceDeclaration{}, parseErrorf(0, "unsupported uniform type %q for %q", typeName, name)
	}

	return ResourceDeclaration{
		Group:      uint32(quals["set"]),
		Binding:    uint32(binding),
		Name:       name,
		Kind:       kindOfEntry(entry),
		Visibility: visibility,
		Entry:      entry,
	}, nil
}

// maskMatches blanks every match of the given expressions, keeping newlines so that
// offsets and line numbers in the result still line up with source.
func maskMatches(source string, exprs ...*regexp.Regexp) string {
	buf := []byte(source)
	for _, re := range exprs {
		for _, loc := range re.FindAllStringIndex(source, -1) {
			for i := loc[0]; i < loc[1]; i++ {
				if buf[i] != '\n' {
					buf[i] = ' '
				}
			}
		}
	}
	return string(buf)
}

// firstStatement returns text up to and including its first semicolon, or the first line.
func firstStatement(text string) string {
	if i := strings.IndexByte(text, ';'); i >= 0 {
		text = text[:i+1]
	}
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}

// parseLayoutQualifiers turns "set = 1, binding = 0" into {"set": 1, "binding": 0}.
func parseLayoutQualifiers(text string) map[string]int {
	out := make(map[string]int)
	for _, m := range glslQualifierRegex.FindAllStringSubmatch(text, -1) {
		if v, err := strconv.Atoi(m[2]); err == nil {
			out[m[1]] = v
		}
	}
	return out
}

// std140BlockSize computes the std140 size of a block: array elements are padded to 16 bytes
// and the block is rounded up to 16 bytes.
func std140BlockSize(fields []parsedField) (uint64, bool) {
	var offset uint64
	for _, f := range fields {
		vt := ValueTypeFromGLSL(f.typeName)
		if vt == ValueTypeUnknown {
			return 0, false
		}
		layout := valueTypeTable[vt].std140
		if f.arrayLen > 0 {
			stride := roundUpAlign(16, layout.size)
			layout = typeLayout{stride * uint64(f.arrayLen), 16}
		}
		offset = roundUpAlign(layout.align, offset) + layout.size
	}
	return roundUpAlign(16, offset), true
}
