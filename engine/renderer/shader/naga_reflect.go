package shader

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/eyengine/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/glsl"
	"github.com/gogpu/naga/ir"
)

// ErrReflectionMismatch is returned by Verify when the regex reflection and the compiler's view
// of a WGSL entry point disagree.
var ErrReflectionMismatch = errors.New("reflection mismatch")

// nagaStorageFormats maps compiler storage formats to the formats the WGSL parser knows.
var nagaStorageFormats = map[ir.StorageFormat]wgpu.TextureFormat{
	ir.StorageFormatRgba8Unorm:  wgpu.TextureFormatRGBA8Unorm,
	ir.StorageFormatRgba8Snorm:  wgpu.TextureFormatRGBA8Snorm,
	ir.StorageFormatRgba8Uint:   wgpu.TextureFormatRGBA8Uint,
	ir.StorageFormatRgba8Sint:   wgpu.TextureFormatRGBA8Sint,
	ir.StorageFormatRgba16Uint:  wgpu.TextureFormatRGBA16Uint,
	ir.StorageFormatRgba16Sint:  wgpu.TextureFormatRGBA16Sint,
	ir.StorageFormatRgba16Float: wgpu.TextureFormatRGBA16Float,
	ir.StorageFormatR32Uint:     wgpu.TextureFormatR32Uint,
	ir.StorageFormatR32Sint:     wgpu.TextureFormatR32Sint,
	ir.StorageFormatR32Float:    wgpu.TextureFormatR32Float,
	ir.StorageFormatRg32Uint:    wgpu.TextureFormatRG32Uint,
	ir.StorageFormatRg32Sint:    wgpu.TextureFormatRG32Sint,
	ir.StorageFormatRg32Float:   wgpu.TextureFormatRG32Float,
	ir.StorageFormatRgba32Uint:  wgpu.TextureFormatRGBA32Uint,
	ir.StorageFormatRgba32Sint:  wgpu.TextureFormatRGBA32Sint,
	ir.StorageFormatRgba32Float: wgpu.TextureFormatRGBA32Float,
	ir.StorageFormatBgra8Unorm:  wgpu.TextureFormatBGRA8Unorm,
}

var nagaStorageAccess = map[ir.StorageAccess]wgpu.StorageTextureAccess{
	ir.StorageAccessRead:      wgpu.StorageTextureAccessReadOnly,
	ir.StorageAccessWrite:     wgpu.StorageTextureAccessWriteOnly,
	ir.StorageAccessReadWrite: wgpu.StorageTextureAccessReadWrite,
}

// lowerWGSL parses and lowers WGSL to the compiler IR.
func lowerWGSL(source string) (*ir.Module, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, &ParseError{Msg: err.Error()}
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, &ParseError{Msg: err.Error()}
	}
	return module, nil
}

// ReflectNaga derives the signature of a WGSL entry point from the naga IR instead of the
// source text. Resources are those reachable from the entry point through expressions and
// function calls. Block members are not reported.
//
// Parameters:
//   - source: the WGSL source, already pre-processed
//   - stage: the stage of the entry point
//   - entryPoint: the entry point name, or empty for the first of that stage
//
// Returns:
//   - Signature: the reflected interface, sorted canonically
//   - error: a *ParseError if the compiler rejects the source or the entry point is missing
func ReflectNaga(source string, stage ShaderType, entryPoint string) (Signature, error) {
	module, err := lowerWGSL(source)
	if err != nil {
		return Signature{}, err
	}

	var ep *ir.EntryPoint
	for i := range module.EntryPoints {
		candidate := &module.EntryPoints[i]
		if nagaStage(candidate.Stage) == stage && (entryPoint == "" || candidate.Name == entryPoint) {
			ep = candidate
			break
		}
	}
	if ep == nil {
		return Signature{}, parseErrorf(0, "no @%s entry point %q in compiled module", stage, entryPoint)
	}

	sig := Signature{Stage: stage, EntryPoint: ep.Name}
	for _, arg := range ep.Function.Arguments {
		if err := nagaStageVariables(module, &sig, &sig.Inputs, arg.Name, arg.Type, arg.Binding, false); err != nil {
			return Signature{}, err
		}
	}
	if res := ep.Function.Result; res != nil {
		if err := nagaStageVariables(module, &sig, &sig.Outputs, "out", res.Type, res.Binding, stage == ShaderTypeVertex); err != nil {
			return Signature{}, err
		}
	}

	visibility := stageVisibility(stage)
	for handle := range usedGlobals(module, &ep.Function) {
		gv := module.GlobalVariables[handle]
		if gv.Binding == nil {
			continue
		}
		decl, ok := nagaResource(module, gv, visibility)
		if ok {
			sig.Resources = append(sig.Resources, decl)
		}
	}

	sortSignature(&sig)
	return sig, nil
}

// nagaStageVariables appends the located values of an argument or result. Struct types
// contribute their members.
func nagaStageVariables(module *ir.Module, sig *Signature, vars *[]StageVariable, name string, th ir.TypeHandle, binding *ir.Binding, clipOutput bool) error {
	if binding != nil {
		switch b := (*binding).(type) {
		case ir.BuiltinBinding:
			if clipOutput && b.Builtin == ir.BuiltinPosition {
				sig.HasClipPosition = true
			}
			return nil
		case ir.LocationBinding:
			vt := nagaValueType(module.Types[th].Inner)
			if vt == ValueTypeUnknown {
				return parseErrorf(0, "unsupported type at location %d", b.Location)
			}
			*vars = append(*vars, StageVariable{Name: name, Location: b.Location, Type: vt})
			return nil
		}
	}
	st, ok := module.Types[th].Inner.(ir.StructType)
	if !ok {
		return parseErrorf(0, "entry point value %q has no binding", name)
	}
	for _, m := range st.Members {
		if err := nagaStageVariables(module, sig, vars, m.Name, m.Type, m.Binding, clipOutput); err != nil {
			return err
		}
	}
	return nil
}

// usedGlobals collects the global variables referenced by fn and every function it calls.
func usedGlobals(module *ir.Module, fn *ir.Function) map[ir.GlobalVariableHandle]struct{} {
	used := make(map[ir.GlobalVariableHandle]struct{})
	visited := make(map[ir.FunctionHandle]bool)

	var visit func(f *ir.Function)
	visit = func(f *ir.Function) {
		for _, expr := range f.Expressions {
			if g, ok := expr.Kind.(ir.ExprGlobalVariable); ok {
				used[g.Variable] = struct{}{}
			}
		}
		for _, callee := range calledFunctions(f.Body) {
			if visited[callee] || int(callee) >= len(module.Functions) {
				continue
			}
			visited[callee] = true
			visit(&module.Functions[callee])
		}
	}
	visit(fn)
	return used
}

// calledFunctions walks a statement tree and returns the targets of every call.
func calledFunctions(block []ir.Statement) []ir.FunctionHandle {
	var out []ir.FunctionHandle
	for _, stmt := range block {
		switch s := stmt.Kind.(type) {
		case ir.StmtCall:
			out = append(out, s.Function)
		case ir.StmtBlock:
			out = append(out, calledFunctions(s.Block)...)
		case ir.StmtIf:
			out = append(out, calledFunctions(s.Accept)...)
			out = append(out, calledFunctions(s.Reject)...)
		case ir.StmtLoop:
			out = append(out, calledFunctions(s.Body)...)
			out = append(out, calledFunctions(s.Continuing)...)
		case ir.StmtSwitch:
			for _, c := range s.Cases {
				out = append(out, calledFunctions(c.Body)...)
			}
		}
	}
	return out
}

// nagaResource converts a bound global variable into a ResourceDeclaration.
func nagaResource(module *ir.Module, gv ir.GlobalVariable, visibility wgpu.ShaderStage) (ResourceDeclaration, bool) {
	entry := wgpu.BindGroupLayoutEntry{Binding: gv.Binding.Binding, Visibility: visibility}
	decl := ResourceDeclaration{
		Group:      gv.Binding.Group,
		Binding:    gv.Binding.Binding,
		Name:       gv.Name,
		Visibility: visibility,
	}
	typ := module.Types[gv.Type]

	switch gv.Space {
	case ir.SpaceUniform:
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
	case ir.SpaceStorage:
		entry.Buffer.Type = wgpu.BufferBindingTypeStorage
		if gv.Access == ir.StorageRead {
			entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		}
	case ir.SpaceHandle:
		switch t := typ.Inner.(type) {
		case ir.SamplerType:
			entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
			if t.Comparison {
				entry.Sampler.Type = wgpu.SamplerBindingTypeComparison
			}
		case ir.ImageType:
			nagaImageEntry(t, &entry)
		default:
			return ResourceDeclaration{}, false
		}
	default:
		return ResourceDeclaration{}, false
	}

	if entry.Buffer.Type != wgpu.BufferBindingTypeUndefined {
		decl.TypeName = typ.Name
		if size := ir.TypeSize(module, gv.Type); size > 0 {
			decl.Size = uint64(size)
			entry.Buffer.MinBindingSize = uint64(size)
		}
	}
	decl.Entry = entry
	decl.Kind = kindOfEntry(entry)
	return decl, true
}

func nagaImageEntry(t ir.ImageType, entry *wgpu.BindGroupLayoutEntry) {
	dim := wgpu.TextureViewDimension2D
	switch {
	case t.Dim == ir.Dim1D:
		dim = wgpu.TextureViewDimension1D
	case t.Dim == ir.Dim2D && t.Arrayed:
		dim = wgpu.TextureViewDimension2DArray
	case t.Dim == ir.Dim3D:
		dim = wgpu.TextureViewDimension3D
	case t.Dim == ir.DimCube && t.Arrayed:
		dim = wgpu.TextureViewDimensionCubeArray
	case t.Dim == ir.DimCube:
		dim = wgpu.TextureViewDimensionCube
	}

	switch t.Class {
	case ir.ImageClassStorage:
		entry.StorageTexture.ViewDimension = dim
		entry.StorageTexture.Format = nagaStorageFormats[t.StorageFormat]
		entry.StorageTexture.Access = nagaStorageAccess[t.StorageAccess]
	case ir.ImageClassDepth:
		entry.Texture.ViewDimension = dim
		entry.Texture.Multisampled = t.Multisampled
		entry.Texture.SampleType = wgpu.TextureSampleTypeDepth
	default:
		entry.Texture.ViewDimension = dim
		entry.Texture.Multisampled = t.Multisampled
		switch t.SampledKind {
		case ir.ScalarSint:
			entry.Texture.SampleType = wgpu.TextureSampleTypeSint
		case ir.ScalarUint:
			entry.Texture.SampleType = wgpu.TextureSampleTypeUint
		default:
			entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
		}
	}
}

// nagaValueType maps a 32-bit scalar, vector or square matrix type to a ValueType.
func nagaValueType(inner ir.TypeInner) ValueType {
	scalarOf := func(s ir.ScalarType) ScalarKind {
		switch s.Kind {
		case ir.ScalarSint:
			return ScalarKindSint
		case ir.ScalarUint:
			return ScalarKindUint
		case ir.ScalarFloat:
			return ScalarKindFloat
		default:
			return -1
		}
	}

	var kind ScalarKind
	var components int
	switch t := inner.(type) {
	case ir.ScalarType:
		if t.Width != 4 {
			return ValueTypeUnknown
		}
		kind, components = scalarOf(t), 1
	case ir.VectorType:
		if t.Scalar.Width != 4 {
			return ValueTypeUnknown
		}
		kind, components = scalarOf(t.Scalar), int(t.Size)
	case ir.MatrixType:
		if t.Columns != t.Rows || t.Scalar.Kind != ir.ScalarFloat || t.Scalar.Width != 4 {
			return ValueTypeUnknown
		}
		switch t.Columns {
		case ir.Vec2:
			return ValueTypeMat2x2F32
		case ir.Vec3:
			return ValueTypeMat3x3F32
		default:
			return ValueTypeMat4x4F32
		}
	default:
		return ValueTypeUnknown
	}

	for vt, info := range valueTypeTable {
		if vt.IsMatrix() {
			continue
		}
		if info.scalar == kind && info.components == components {
			return vt
		}
	}
	return ValueTypeUnknown
}

func nagaStage(s ir.ShaderStage) ShaderType {
	switch s {
	case ir.StageVertex:
		return ShaderTypeVertex
	case ir.StageFragment:
		return ShaderTypeFragment
	case ir.StageCompute:
		return ShaderTypeCompute
	default:
		return -1
	}
}

// Verify cross-checks the regex reflection of a WGSL entry point against the compiler IR.
// Stage variables, the clip position flag and the (group, binding, kind, name) of every
// resource must agree, as must uniform buffer sizes.
//
// Parameters:
//   - source: the WGSL source, already pre-processed
//   - stage: the stage of the entry point
//   - entryPoint: the entry point name, or empty for the first of that stage
//
// Returns:
//   - error: nil when both agree, a *ParseError if either side fails, or the differences
//     wrapped with ErrReflectionMismatch
func Verify(source string, stage ShaderType, entryPoint string) error {
	textual, err := ReflectWGSL(source, stage, entryPoint)
	if err != nil {
		return err
	}
	compiled, err := ReflectNaga(source, stage, textual.EntryPoint)
	if err != nil {
		return err
	}

	var diffs []error
	if textual.HasClipPosition != compiled.HasClipPosition {
		diffs = append(diffs, fmt.Errorf("%w: clip position %t vs %t", ErrReflectionMismatch, textual.HasClipPosition, compiled.HasClipPosition))
	}
	diffs = append(diffs, diffStageVariables("input", textual.Inputs, compiled.Inputs)...)
	diffs = append(diffs, diffStageVariables("output", textual.Outputs, compiled.Outputs)...)

	if len(textual.Resources) != len(compiled.Resources) {
		diffs = append(diffs, fmt.Errorf("%w: %d resources vs %d", ErrReflectionMismatch, len(textual.Resources), len(compiled.Resources)))
	} else {
		for i, a := range textual.Resources {
			b := compiled.Resources[i]
			if a.Group != b.Group || a.Binding != b.Binding || a.Kind != b.Kind || a.Name != b.Name {
				diffs = append(diffs, fmt.Errorf("%w: resource %s %s at (%d, %d) vs %s %s at (%d, %d)",
					ErrReflectionMismatch, a.Kind, a.Name, a.Group, a.Binding, b.Kind, b.Name, b.Group, b.Binding))
				continue
			}
			if a.Kind == ResourceKindUniform && a.Size != b.Size {
				diffs = append(diffs, fmt.Errorf("%w: uniform %s is %d bytes vs %d", ErrReflectionMismatch, a.Name, a.Size, b.Size))
			}
		}
	}

	if len(diffs) > 0 {
		common.Logger().Debug("reflection mismatch", "entry", textual.EntryPoint, "differences", len(diffs))
	}
	return errors.Join(diffs...)
}

func diffStageVariables(what string, a, b []StageVariable) []error {
	if len(a) != len(b) {
		return []error{fmt.Errorf("%w: %d %ss vs %d", ErrReflectionMismatch, len(a), what, len(b))}
	}
	var diffs []error
	for i := range a {
		if a[i].Location != b[i].Location || a[i].Type != b[i].Type {
			diffs = append(diffs, fmt.Errorf("%w: %s at location %d is %s vs %s at location %d",
				ErrReflectionMismatch, what, a[i].Location, a[i].Type, b[i].Type, b[i].Location))
		}
	}
	return diffs
}

// CompileSPIRV compiles WGSL to a SPIR-V binary with IR validation enabled.
//
// Parameters:
//   - source: the WGSL source, already pre-processed
//
// Returns:
//   - []byte: the SPIR-V module
//   - error: the compiler's error, wrapped
func CompileSPIRV(source string) ([]byte, error) {
	out, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("shader: compile SPIR-V: %w", err)
	}
	return out, nil
}

// TranslateGLSL translates one WGSL entry point to desktop GLSL 4.30. The output is
// OpenGL-style: naga combines each texture with its sampler, so it is not accepted by
// ReflectGLSL.
//
// Parameters:
//   - source: the WGSL source, already pre-processed
//   - entryPoint: the entry point to translate
//
// Returns:
//   - string: the GLSL source
//   - error: a *ParseError if the source does not compile, or the backend's error
func TranslateGLSL(source, entryPoint string) (string, error) {
	module, err := lowerWGSL(source)
	if err != nil {
		return "", err
	}
	opts := glsl.DefaultOptions()
	opts.LangVersion = glsl.Version430
	opts.EntryPoint = entryPoint
	out, _, err := glsl.Compile(module, opts)
	if err != nil {
		return "", fmt.Errorf("shader: translate %s to GLSL: %w", entryPoint, err)
	}
	return out, nil
}
