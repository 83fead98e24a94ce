package shader

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// wgslSampledTextureMap maps WGSL sampled texture base names to their view dimension and multisampled flag
var wgslSampledTextureMap = map[string]sampledTextureInfo{
	"texture_1d":                    {wgpu.TextureViewDimension1D, false},
	"texture_2d":                    {wgpu.TextureViewDimension2D, false},
	"texture_2d_array":              {wgpu.TextureViewDimension2DArray, false},
	"texture_3d":                    {wgpu.TextureViewDimension3D, false},
	"texture_cube":                  {wgpu.TextureViewDimensionCube, false},
	"texture_cube_array":            {wgpu.TextureViewDimensionCubeArray, false},
	"texture_multisampled_2d":       {wgpu.TextureViewDimension2D, true},
	"texture_depth_2d":              {wgpu.TextureViewDimension2D, false},
	"texture_depth_2d_array":        {wgpu.TextureViewDimension2DArray, false},
	"texture_depth_cube":            {wgpu.TextureViewDimensionCube, false},
	"texture_depth_cube_array":      {wgpu.TextureViewDimensionCubeArray, false},
	"texture_depth_multisampled_2d": {wgpu.TextureViewDimension2D, true},
}

// wgslStorageTextureDimMap maps WGSL storage texture base names to their view dimension
var wgslStorageTextureDimMap = map[string]wgpu.TextureViewDimension{
	"texture_storage_1d":       wgpu.TextureViewDimension1D,
	"texture_storage_2d":       wgpu.TextureViewDimension2D,
	"texture_storage_2d_array": wgpu.TextureViewDimension2DArray,
	"texture_storage_3d":       wgpu.TextureViewDimension3D,
}

// wgslSampleTypeMap maps WGSL scalar type parameters to their wgpu texture sample type
var wgslSampleTypeMap = map[string]wgpu.TextureSampleType{
	"f32": wgpu.TextureSampleTypeFloat,
	"i32": wgpu.TextureSampleTypeSint,
	"u32": wgpu.TextureSampleTypeUint,
}

// wgslStorageAccessMap maps WGSL access mode keywords to their wgpu storage texture access
var wgslStorageAccessMap = map[string]wgpu.StorageTextureAccess{
	"write":      wgpu.StorageTextureAccessWriteOnly,
	"read":       wgpu.StorageTextureAccessReadOnly,
	"read_write": wgpu.StorageTextureAccessReadWrite,
}

// wgslTexelFormatMap maps WGSL texel format strings to the storage texture formats they name.
var wgslTexelFormatMap = map[string]wgpu.TextureFormat{
	"rgba8unorm":  wgpu.TextureFormatRGBA8Unorm,
	"rgba8snorm":  wgpu.TextureFormatRGBA8Snorm,
	"rgba8uint":   wgpu.TextureFormatRGBA8Uint,
	"rgba8sint":   wgpu.TextureFormatRGBA8Sint,
	"rgba16uint":  wgpu.TextureFormatRGBA16Uint,
	"rgba16sint":  wgpu.TextureFormatRGBA16Sint,
	"rgba16float": wgpu.TextureFormatRGBA16Float,
	"r32uint":     wgpu.TextureFormatR32Uint,
	"r32sint":     wgpu.TextureFormatR32Sint,
	"r32float":    wgpu.TextureFormatR32Float,
	"rg32uint":    wgpu.TextureFormatRG32Uint,
	"rg32sint":    wgpu.TextureFormatRG32Sint,
	"rg32float":   wgpu.TextureFormatRG32Float,
	"rgba32uint":  wgpu.TextureFormatRGBA32Uint,
	"rgba32sint":  wgpu.TextureFormatRGBA32Sint,
	"rgba32float": wgpu.TextureFormatRGBA32Float,
	"bgra8unorm":  wgpu.TextureFormatBGRA8Unorm,
}

var (
	// structBlockRegex matches struct declarations and captures the name and body
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// locationRegex matches @location(N) attributes
	locationRegex = regexp.MustCompile(`@location\(\s*(\d+)\s*\)`)

	// builtinRegex matches @builtin(name) attributes and captures the builtin name
	builtinRegex = regexp.MustCompile(`@builtin\(\s*(\w+)\s*\)`)

	// fieldRegex matches a struct member or parameter: optional attributes, name, colon, type.
	// The type capture (.+) is greedy to handle parameterized types like array<T, N>.
	fieldRegex = regexp.MustCompile(`^(?:@\w+(?:\([^)]*\))?\s*)*(\w+)\s*:\s*(.+)$`)

	// functionHeaderRegex matches a function header with any preceding attributes and captures
	// the attributes and the function name. The parameter list starts at the end of the match.
	functionHeaderRegex = regexp.MustCompile(`((?:@\w+(?:\([^)]*\))?\s*)*)\bfn\s+(\w+)\s*\(`)

	// attributeRegex matches a single attribute with optional arguments
	attributeRegex = regexp.MustCompile(`@\w+(?:\([^)]*\))?`)

	// stageAttributeRegex captures the stage attribute of an entry point
	stageAttributeRegex = regexp.MustCompile(`@(vertex|fragment|compute)\b`)

	// bindGroupDeclRegex captures group, binding, optional address space, variable name, and type
	// from declarations like: @group(1) @binding(0) var<uniform> camera: CameraUniform;
	// or handle types: @group(0) @binding(0) var t_diffuse: texture_2d<f32>;
	bindGroupDeclRegex = regexp.MustCompile(`@group\(\s*(\d+)\s*\)\s*@binding\(\s*(\d+)\s*\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// ReflectWGSL extracts the interface of one entry point from WGSL source. Only resources
// referenced by the entry point or by functions it calls are reported, so a module holding
// both stages yields per-stage resource lists.
//
// Parameters:
//   - source: the WGSL source, already pre-processed
//   - stage: the stage of the entry point to reflect
//   - entryPoint: the entry point name, or empty for the first entry point of that stage
//
// Returns:
//   - Signature: the reflected interface, sorted canonically
//   - error: a *ParseError if no such entry point exists or a located type is unsupported
func ReflectWGSL(source string, stage ShaderType, entryPoint string) (Signature, error) {
	cleaned := stripComments(source)
	structs := parseStructBlocks(cleaned)
	structByName := make(map[string]parsedStruct, len(structs))
	for _, ps := range structs {
		structByName[ps.name] = ps
	}

	funcs := parseFunctions(cleaned)
	entry, ok := findEntryPoint(funcs, stage, entryPoint)
	if !ok {
		if entryPoint != "" {
			return Signature{}, parseErrorf(0, "no @%s entry point named %q", stage, entryPoint)
		}
		return Signature{}, parseErrorf(0, "no @%s entry point", stage)
	}

	sig := Signature{Stage: stage, EntryPoint: entry.name}

	for _, param := range splitAtTopLevelCommas(entry.params) {
		field, ok := parseField(param)
		if !ok {
			continue
		}
		if err := collectStageVariables(&sig, &sig.Inputs, field, structByName, entry.line, false); err != nil {
			return Signature{}, err
		}
	}

	if ret := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(entry.returnDecl), "->")); ret != "" {
		field := parseReturnField(ret)
		if err := collectStageVariables(&sig, &sig.Outputs, field, structByName, entry.line, stage == ShaderTypeVertex); err != nil {
			return Signature{}, err
		}
	}

	sig.Resources = parseResourceDeclarations(cleaned, stageVisibility(stage), computeStructSizes(structs), structByName, reachableBodies(funcs, entry))
	sortSignature(&sig)
	return sig, nil
}

// WGSLEntryPoints lists every entry point declared in the source, in source order.
//
// Parameters:
//   - source: the WGSL source
//
// Returns:
//   - map[ShaderType][]string: entry point names keyed by stage
func WGSLEntryPoints(source string) map[ShaderType][]string {
	out := make(map[ShaderType][]string)
	for _, fn := range parseFunctions(stripComments(source)) {
		if fn.stage < 0 {
			continue
		}
		out[fn.stage] = append(out[fn.stage], fn.name)
	}
	return out
}

// collectStageVariables appends the located members of field to vars. A struct-typed field
// contributes each of its located members. A vertex output @builtin(position) sets
// HasClipPosition, other builtins are not part of the located interface.
func collectStageVariables(sig *Signature, vars *[]StageVariable, field parsedField, structs map[string]parsedStruct, line int, clipOutput bool) error {
	if field.builtin != "" {
		if clipOutput && field.builtin == "position" {
			sig.HasClipPosition = true
		}
		return nil
	}
	if field.location >= 0 {
		vt := ValueTypeFromWGSL(field.typeName)
		if vt == ValueTypeUnknown || vt.IsMatrix() {
			return parseErrorf(line, "unsupported type %q at location %d", field.typeName, field.location)
		}
		*vars = append(*vars, StageVariable{Name: field.name, Location: uint32(field.location), Type: vt})
		return nil
	}

	ps, ok := structs[field.typeName]
	if !ok {
		return parseErrorf(line, "parameter %q has neither a @location nor a @builtin and %q is not a struct", field.name, field.typeName)
	}
	for _, member := range ps.fields {
		if member.location < 0 && member.builtin == "" {
			return parseErrorf(line, "member %s.%s of an entry point struct needs a @location or @builtin", ps.name, member.name)
		}
		if err := collectStageVariables(sig, vars, member, structs, line, clipOutput); err != nil {
			return err
		}
	}
	return nil
}

// parseResourceDeclarations extracts the @group/@binding declarations whose variable is
// referenced in one of the given function bodies.
func parseResourceDeclarations(cleaned string, visibility wgpu.ShaderStage, sizes map[string]typeLayout, structs map[string]parsedStruct, bodies []string) []ResourceDeclaration {
	var out []ResourceDeclaration
	for _, match := range bindGroupDeclRegex.FindAllStringSubmatch(cleaned, -1) {
		group, _ := strconv.Atoi(match[1])
		binding, _ := strconv.Atoi(match[2])
		addressSpace := strings.TrimSpace(match[3])
		varName := strings.TrimSpace(match[4])
		typeName := normalizeTypeName(match[5])

		if !referencedIn(varName, bodies) {
			continue
		}

		entry := classifyResource(uint32(binding), visibility, addressSpace, typeName)
		decl := ResourceDeclaration{
			Group:      uint32(group),
			Binding:    uint32(binding),
			Name:       varName,
			Kind:       kindOfEntry(entry),
			Visibility: visibility,
		}

		if entry.Buffer.Type != wgpu.BufferBindingTypeUndefined {
			decl.TypeName = typeName
			if layout, ok := resolveTypeLayout(typeName, sizes); ok && layout.size > 0 {
				entry.Buffer.MinBindingSize = layout.size
				decl.Size = layout.size
			}
			if ps, ok := structs[typeName]; ok {
				decl.Members = blockMembers(ps.fields, ValueTypeFromWGSL)
			}
		}
		decl.Entry = entry
		out = append(out, decl)
	}
	return out
}

// parseStructBlocks finds all struct { ... } blocks in the cleaned WGSL source
// and parses their fields including @location and @builtin attributes
//
// Parameters:
//   - source: WGSL source with comments already stripped
//
// Returns:
//   - []parsedStruct: all struct blocks found in the source
func parseStructBlocks(source string) []parsedStruct {
	matches := structBlockRegex.FindAllStringSubmatch(source, -1)
	structs := make([]parsedStruct, 0, len(matches))

	for _, match := range matches {
		var fields []parsedField
		for _, part := range splitAtTopLevelCommas(match[2]) {
			if f, ok := parseField(part); ok {
				fields = append(fields, f)
			}
		}
		structs = append(structs, parsedStruct{name: match[1], fields: fields})
	}

	return structs
}

// parseField parses a struct member or function parameter such as
// "@location(1) tex_coords: vec2<f32>". It returns false for blank input.
func parseField(text string) (parsedField, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return parsedField{}, false
	}

	field := parsedField{location: -1}
	if m := builtinRegex.FindStringSubmatch(text); m != nil {
		field.builtin = m[1]
	}
	if m := locationRegex.FindStringSubmatch(text); m != nil {
		if loc, err := strconv.Atoi(m[1]); err == nil {
			field.location = loc
		}
	}

	fm := fieldRegex.FindStringSubmatch(text)
	if fm == nil {
		return parsedField{}, false
	}
	field.name = fm[1]
	field.typeName = normalizeTypeName(fm[2])
	return field, true
}

// parseReturnField parses the part of an entry point header after "->", e.g.
// "@location(0) vec4<f32>" or "VertexOutput".
func parseReturnField(ret string) parsedField {
	field := parsedField{location: -1, name: "out"}
	if m := builtinRegex.FindStringSubmatch(ret); m != nil {
		field.builtin = m[1]
	}
	if m := locationRegex.FindStringSubmatch(ret); m != nil {
		if loc, err := strconv.Atoi(m[1]); err == nil {
			field.location = loc
		}
	}
	typeText := attributeRegex.ReplaceAllString(ret, "")
	field.typeName = normalizeTypeName(typeText)
	return field
}

// parseFunctions finds every function in the cleaned source together with its stage,
// parameter list, return clause and body. Functions without a stage attribute get stage -1.
func parseFunctions(cleaned string) []parsedFunction {
	var out []parsedFunction
	for _, loc := range functionHeaderRegex.FindAllStringSubmatchIndex(cleaned, -1) {
		attrs := cleaned[loc[2]:loc[3]]
		name := cleaned[loc[4]:loc[5]]
		paramsStart := loc[1]

		paramsEnd := matchClosing(cleaned, paramsStart-1, '(', ')')
		if paramsEnd < 0 {
			continue
		}
		bodyStart := strings.IndexByte(cleaned[paramsEnd:], '{')
		if bodyStart < 0 {
			continue
		}
		bodyStart += paramsEnd
		bodyEnd := matchClosing(cleaned, bodyStart, '{', '}')
		if bodyEnd < 0 {
			bodyEnd = len(cleaned) - 1
		}

		fn := parsedFunction{
			name:       name,
			stage:      -1,
			params:     cleaned[paramsStart:paramsEnd],
			returnDecl: cleaned[paramsEnd+1 : bodyStart],
			body:       cleaned[bodyStart : bodyEnd+1],
			line:       strings.Count(cleaned[:loc[0]], "\n") + 1,
		}
		if m := stageAttributeRegex.FindStringSubmatch(attrs); m != nil {
			fn.stage = shaderTypeFromAttribute(m[1])
		}
		out = append(out, fn)
	}
	return out
}

func findEntryPoint(funcs []parsedFunction, stage ShaderType, name string) (parsedFunction, bool) {
	for _, fn := range funcs {
		if fn.stage == stage && (name == "" || fn.name == name) {
			return fn, true
		}
	}
	return parsedFunction{}, false
}

// reachableBodies returns the bodies of entry and every function it transitively calls.
func reachableBodies(funcs []parsedFunction, entry parsedFunction) []string {
	byName := make(map[string]parsedFunction, len(funcs))
	for _, fn := range funcs {
		byName[fn.name] = fn
	}

	visited := map[string]bool{entry.name: true}
	queue := []parsedFunction{entry}
	var bodies []string
	for len(queue) > 0 {
		fn := queue[0]
		queue = queue[1:]
		bodies = append(bodies, fn.body)
		for name, callee := range byName {
			if visited[name] || callee.stage >= 0 {
				continue
			}
			if regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\s*\(`).MatchString(fn.body) {
				visited[name] = true
				queue = append(queue, callee)
			}
		}
	}
	return bodies
}

func referencedIn(name string, bodies []string) bool {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
	for _, body := range bodies {
		if re.MatchString(body) {
			return true
		}
	}
	return false
}

func shaderTypeFromAttribute(attr string) ShaderType {
	switch attr {
	case "vertex":
		return ShaderTypeVertex
	case "fragment":
		return ShaderTypeFragment
	default:
		return ShaderTypeCompute
	}
}
