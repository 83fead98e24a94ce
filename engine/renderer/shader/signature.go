package shader

import (
	"errors"
	"fmt"
	"slices"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrInvalidSignature is wrapped by every error returned from Signature.Validate.
var ErrInvalidSignature = errors.New("invalid stage signature")

// ResourceKind identifies what a bind group entry holds.
type ResourceKind int

const (
	ResourceKindUniform ResourceKind = iota
	ResourceKindStorage
	ResourceKindSampledTexture
	ResourceKindSampler
	ResourceKindStorageTexture
)

// String returns a lowercase name suitable for error messages and manifests.
func (k ResourceKind) String() string {
	switch k {
	case ResourceKindUniform:
		return "uniform"
	case ResourceKindStorage:
		return "storage"
	case ResourceKindSampledTexture:
		return "texture"
	case ResourceKindSampler:
		return "sampler"
	case ResourceKindStorageTexture:
		return "storage_texture"
	default:
		return fmt.Sprintf("ResourceKind(%d)", int(k))
	}
}

// ParseResourceKind is the inverse of ResourceKind.String.
//
// Parameters:
//   - s: the lowercase kind name
//
// Returns:
//   - ResourceKind: the matching kind
//   - bool: false if s names no kind
func ParseResourceKind(s string) (ResourceKind, bool) {
	for k := ResourceKindUniform; k <= ResourceKindStorageTexture; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// StageVariable is a located input or output of a shader stage.
type StageVariable struct {
	// Name is the variable or struct member name as written in the source.
	Name string

	// Location is the @location / layout(location) index.
	Location uint32

	// Type is the language-neutral value type.
	Type ValueType
}

// Format returns the vertex format that feeds this variable when it is a vertex input.
func (v StageVariable) Format() wgpu.VertexFormat { return v.Type.VertexFormat() }

// BlockMember is one member of a uniform or storage block.
type BlockMember struct {
	Name string
	Type ValueType

	// Count is the fixed array length, or 0 for a plain member.
	Count int
}

// ResourceDeclaration is a (group, binding) resource a stage references.
type ResourceDeclaration struct {
	Group   uint32
	Binding uint32

	// Name is the shader-visible variable name (the instance name for GLSL blocks).
	Name string

	Kind ResourceKind

	// TypeName is the struct or block type name for buffer resources, empty otherwise.
	TypeName string

	// Members lists the block members of buffer resources when every member has a known ValueType.
	Members []BlockMember

	// Size is the byte size of buffer resources under the language's layout rules.
	Size uint64

	// Visibility is the set of stages the declaration is visible to.
	Visibility wgpu.ShaderStage

	// Entry is the bind group layout entry implied by the declaration.
	Entry wgpu.BindGroupLayoutEntry
}

// Signature is the canonical, language-independent interface of one shader entry point.
// WGSL and GLSL sources are two serializations of it.
type Signature struct {
	Stage      ShaderType
	EntryPoint string

	// Inputs are sorted by location.
	Inputs []StageVariable

	// Outputs are sorted by location and exclude the clip position.
	Outputs []StageVariable

	// HasClipPosition is set when a vertex stage writes @builtin(position) / gl_Position.
	HasClipPosition bool

	// Resources are sorted by (group, binding).
	Resources []ResourceDeclaration
}

// Input returns the input declared at location.
//
// Parameters:
//   - location: the input location to look up
//
// Returns:
//   - StageVariable: the declared input
//   - bool: false if the stage declares nothing at location
func (s Signature) Input(location uint32) (StageVariable, bool) {
	for _, in := range s.Inputs {
		if in.Location == location {
			return in, true
		}
	}
	return StageVariable{}, false
}

// Resource returns the resource declared at (group, binding).
//
// Parameters:
//   - group: the bind group index
//   - binding: the binding index within the group
//
// Returns:
//   - ResourceDeclaration: the declared resource
//   - bool: false if nothing is declared there
func (s Signature) Resource(group, binding uint32) (ResourceDeclaration, bool) {
	for _, r := range s.Resources {
		if r.Group == group && r.Binding == binding {
			return r, true
		}
	}
	return ResourceDeclaration{}, false
}

// Clone returns a deep copy so callers may hold the result without sharing slices.
func (s Signature) Clone() Signature {
	out := s
	out.Inputs = slices.Clone(s.Inputs)
	out.Outputs = slices.Clone(s.Outputs)
	out.Resources = make([]ResourceDeclaration, len(s.Resources))
	for i, r := range s.Resources {
		r.Members = slices.Clone(r.Members)
		out.Resources[i] = r
	}
	if s.Resources == nil {
		out.Resources = nil
	}
	return out
}

// Validate checks the stage-level rules every pipeline relies on: a vertex stage writes the
// clip position, a fragment stage writes at least one colour target, locations are unique
// per direction, and no two resources share a (group, binding).
//
// Returns:
//   - error: nil, or an error wrapping ErrInvalidSignature
func (s Signature) Validate() error {
	switch s.Stage {
	case ShaderTypeVertex:
		if !s.HasClipPosition {
			return fmt.Errorf("%w: vertex entry point %q does not write the clip position", ErrInvalidSignature, s.EntryPoint)
		}
	case ShaderTypeFragment:
		if len(s.Outputs) == 0 {
			return fmt.Errorf("%w: fragment entry point %q has no colour output", ErrInvalidSignature, s.EntryPoint)
		}
	}

	if loc, ok := duplicateLocation(s.Inputs); ok {
		return fmt.Errorf("%w: %s input location %d declared twice", ErrInvalidSignature, s.Stage, loc)
	}
	if loc, ok := duplicateLocation(s.Outputs); ok {
		return fmt.Errorf("%w: %s output location %d declared twice", ErrInvalidSignature, s.Stage, loc)
	}
	for _, in := range s.Inputs {
		if in.Type == ValueTypeUnknown {
			return fmt.Errorf("%w: %s input %q at location %d has an unsupported type", ErrInvalidSignature, s.Stage, in.Name, in.Location)
		}
	}

	for i := 1; i < len(s.Resources); i++ {
		a, b := s.Resources[i-1], s.Resources[i]
		if a.Group == b.Group && a.Binding == b.Binding {
			return fmt.Errorf("%w: (group %d, binding %d) declared by both %q and %q", ErrInvalidSignature, a.Group, a.Binding, a.Name, b.Name)
		}
	}
	return nil
}

// sortSignature puts inputs, outputs and resources in their canonical order.
func sortSignature(s *Signature) {
	byLocation := func(a, b StageVariable) int { return int(a.Location) - int(b.Location) }
	slices.SortStableFunc(s.Inputs, byLocation)
	slices.SortStableFunc(s.Outputs, byLocation)
	slices.SortStableFunc(s.Resources, func(a, b ResourceDeclaration) int {
		if a.Group != b.Group {
			return int(a.Group) - int(b.Group)
		}
		return int(a.Binding) - int(b.Binding)
	})
}

func duplicateLocation(vars []StageVariable) (uint32, bool) {
	seen := make(map[uint32]struct{}, len(vars))
	for _, v := range vars {
		if _, ok := seen[v.Location]; ok {
			return v.Location, true
		}
		seen[v.Location] = struct{}{}
	}
	return 0, false
}

// stageVisibility maps a shader type to its wgpu visibility flag.
func stageVisibility(t ShaderType) wgpu.ShaderStage {
	switch t {
	case ShaderTypeVertex:
		return wgpu.ShaderStageVertex
	case ShaderTypeFragment:
		return wgpu.ShaderStageFragment
	case ShaderTypeCompute:
		return wgpu.ShaderStageCompute
	default:
		return wgpu.ShaderStageNone
	}
}

// kindOfEntry derives the ResourceKind from a populated bind group layout entry.
func kindOfEntry(e wgpu.BindGroupLayoutEntry) ResourceKind {
	switch {
	case e.Buffer.Type == wgpu.BufferBindingTypeUniform:
		return ResourceKindUniform
	case e.Buffer.Type != wgpu.BufferBindingTypeUndefined:
		return ResourceKindStorage
	case e.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
		return ResourceKindSampler
	case e.StorageTexture.Format != wgpu.TextureFormatUndefined:
		return ResourceKindStorageTexture
	default:
		return ResourceKindSampledTexture
	}
}
