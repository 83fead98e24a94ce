package pipeline

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/eyengine/common"
	"github.com/Carmen-Shannon/eyengine/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// Assignment binds one vertex shader input to the buffer attribute that feeds it.
type Assignment struct {
	Input     shader.StageVariable
	Buffer    int
	Attribute VertexAttribute
	StepMode  wgpu.VertexStepMode
}

// SuppliedResource is a resource the host will bind at (group, binding).
type SuppliedResource struct {
	Group      uint32
	Binding    uint32
	Kind       shader.ResourceKind
	Visibility wgpu.ShaderStage
}

// CameraBinding is where the view-projection uniform lives.
type CameraBinding struct {
	Group      uint32
	Binding    uint32
	Visibility wgpu.ShaderStage
}

// ValidateVertexLayout matches every input of a vertex stage to exactly one attribute across
// the given buffers. Attributes no input reads are allowed.
//
// Parameters:
//   - sig: the vertex stage signature
//   - buffers: the vertex buffer layouts in slot order
//
// Returns:
//   - []Assignment: one assignment per shader input, in location order
//   - error: nil, or every *LayoutMismatchError found, joined in location order
func ValidateVertexLayout(sig shader.Signature, buffers []VertexBufferLayout) ([]Assignment, error) {
	type source struct {
		buffer int
		attr   VertexAttribute
	}
	byLocation := make(map[uint32]source)
	var errs []*LayoutMismatchError

	for bi, buf := range buffers {
		for _, a := range buf.Attributes {
			if prev, ok := byLocation[a.Location]; ok {
				errs = append(errs, &LayoutMismatchError{
					Location: a.Location,
					Reason:   LayoutReasonDuplicate,
					Detail:   fmt.Sprintf("declared by buffer %d and buffer %d", prev.buffer, bi),
				})
				continue
			}
			byLocation[a.Location] = source{buffer: bi, attr: a}

			if size := FormatSize(a.Format); size == 0 || a.Offset+size > buf.Stride {
				errs = append(errs, &LayoutMismatchError{
					Location: a.Location,
					Reason:   LayoutReasonOverflow,
					Detail:   fmt.Sprintf("%s at offset %d in a %d byte stride", FormatName(a.Format), a.Offset, buf.Stride),
				})
			}
		}
	}

	assignments := make([]Assignment, 0, len(sig.Inputs))
	for _, in := range sig.Inputs {
		src, ok := byLocation[in.Location]
		if !ok {
			errs = append(errs, &LayoutMismatchError{
				Location: in.Location,
				Reason:   LayoutReasonMissing,
				Detail:   fmt.Sprintf("input %q (%s) has no attribute", in.Name, in.Type),
			})
			continue
		}
		if !formatCompatible(src.attr.Format, in.Type) {
			errs = append(errs, &LayoutMismatchError{
				Location: in.Location,
				Reason:   LayoutReasonType,
				Detail:   fmt.Sprintf("input %q is %s, attribute is %s", in.Name, in.Type, FormatName(src.attr.Format)),
			})
			continue
		}
		assignments = append(assignments, Assignment{
			Input:     in,
			Buffer:    src.buffer,
			Attribute: src.attr,
			StepMode:  buffers[src.buffer].StepMode,
		})
	}

	if err := joinLayout(errs); err != nil {
		return nil, err
	}
	if unused := len(byLocation) - len(assignments); unused > 0 {
		common.Logger().Debug("vertex layout has attributes no input reads", "entry", sig.EntryPoint, "unused", unused)
	}
	return assignments, nil
}

// ValidateStageLink checks that every fragment input is written by the vertex stage at the
// same location with the same type.
//
// Parameters:
//   - vs: the vertex stage signature
//   - fs: the fragment stage signature
//
// Returns:
//   - error: nil, or *LayoutMismatchError values with LayoutReasonStageLink, joined
func ValidateStageLink(vs, fs shader.Signature) error {
	outputs := make(map[uint32]shader.StageVariable, len(vs.Outputs))
	for _, out := range vs.Outputs {
		outputs[out.Location] = out
	}
	var errs []*LayoutMismatchError
	for _, in := range fs.Inputs {
		out, ok := outputs[in.Location]
		switch {
		case !ok:
			errs = append(errs, &LayoutMismatchError{
				Location: in.Location,
				Reason:   LayoutReasonStageLink,
				Detail:   fmt.Sprintf("fragment input %q is not written by %s", in.Name, vs.EntryPoint),
			})
		case out.Type != in.Type:
			errs = append(errs, &LayoutMismatchError{
				Location: in.Location,
				Reason:   LayoutReasonStageLink,
				Detail:   fmt.Sprintf("vertex writes %s, fragment reads %s", out.Type, in.Type),
			})
		}
	}
	return joinLayout(errs)
}

// MergeResources combines the resource lists of several stages. A slot declared by more than
// one stage keeps one entry whose visibility is the union of the stages.
//
// Parameters:
//   - sigs: the stage signatures of one pipeline
//
// Returns:
//   - []shader.ResourceDeclaration: the merged declarations in (group, binding) order
//   - error: *BindingMismatchError values with BindingReasonConflict when stages disagree on a slot
func MergeResources(sigs ...shader.Signature) ([]shader.ResourceDeclaration, error) {
	var merged []shader.ResourceDeclaration
	var errs []*BindingMismatchError

	for _, sig := range sigs {
	next:
		for _, r := range sig.Resources {
			for i := range merged {
				m := &merged[i]
				if m.Group != r.Group || m.Binding != r.Binding {
					continue
				}
				if m.Kind != r.Kind || (m.Size != 0 && r.Size != 0 && m.Size != r.Size) {
					errs = append(errs, &BindingMismatchError{
						Group:   r.Group,
						Binding: r.Binding,
						Reason:  BindingReasonConflict,
						Detail:  fmt.Sprintf("%s %q vs %s %q", m.Kind, m.Name, r.Kind, r.Name),
					})
				}
				m.Visibility |= r.Visibility
				m.Entry.Visibility = m.Visibility
				continue next
			}
			r.Members = append([]shader.BlockMember(nil), r.Members...)
			merged = append(merged, r)
		}
	}
	if err := joinBinding(errs); err != nil {
		return nil, err
	}
	sortResources(merged)
	return merged, nil
}

// ValidateBindings checks that every declared resource is supplied with the same kind and at
// least the declared visibility. Within a group that declares both a sampled texture and a
// sampler, the two must be supplied together. Supplied slots nothing declares are ignored.
//
// Parameters:
//   - declared: merged declarations from MergeResources
//   - supplied: the resources the host binds
//
// Returns:
//   - error: nil, or every *BindingMismatchError found, joined in (group, binding) order
func ValidateBindings(declared []shader.ResourceDeclaration, supplied []SuppliedResource) error {
	type slot struct{ group, binding uint32 }
	have := make(map[slot]SuppliedResource, len(supplied))
	for _, s := range supplied {
		have[slot{s.Group, s.Binding}] = s
	}

	// Groups that pair a texture with a sampler, and whether each half was supplied.
	type pair struct{ texture, sampler, textureSupplied, samplerSupplied bool }
	pairs := make(map[uint32]*pair)
	for _, d := range declared {
		if d.Kind != shader.ResourceKindSampledTexture && d.Kind != shader.ResourceKindSampler {
			continue
		}
		p := pairs[d.Group]
		if p == nil {
			p = &pair{}
			pairs[d.Group] = p
		}
		s, ok := have[slot{d.Group, d.Binding}]
		ok = ok && s.Kind == d.Kind
		if d.Kind == shader.ResourceKindSampledTexture {
			p.texture = true
			p.textureSupplied = p.textureSupplied || ok
		} else {
			p.sampler = true
			p.samplerSupplied = p.samplerSupplied || ok
		}
	}

	var errs []*BindingMismatchError
	for _, d := range declared {
		s, ok := have[slot{d.Group, d.Binding}]
		if !ok {
			reason, detail := BindingReasonMissing, fmt.Sprintf("%s %q is not supplied", d.Kind, d.Name)
			if p := pairs[d.Group]; p != nil && p.texture && p.sampler && p.textureSupplied != p.samplerSupplied {
				reason = BindingReasonUnpaired
				if p.textureSupplied {
					detail = fmt.Sprintf("texture supplied without sampler %q", d.Name)
				} else {
					detail = fmt.Sprintf("sampler supplied without texture %q", d.Name)
				}
			}
			errs = append(errs, &BindingMismatchError{Group: d.Group, Binding: d.Binding, Reason: reason, Detail: detail})
			continue
		}
		if s.Kind != d.Kind {
			errs = append(errs, &BindingMismatchError{
				Group:   d.Group,
				Binding: d.Binding,
				Reason:  BindingReasonKind,
				Detail:  fmt.Sprintf("%q is a %s, supplied a %s", d.Name, d.Kind, s.Kind),
			})
			continue
		}
		if s.Visibility&d.Visibility != d.Visibility {
			errs = append(errs, &BindingMismatchError{
				Group:   d.Group,
				Binding: d.Binding,
				Reason:  BindingReasonVisibility,
				Detail:  fmt.Sprintf("%q is used by %s, supplied for %s", d.Name, StageNames(d.Visibility), StageNames(s.Visibility)),
			})
		}
	}
	return joinBinding(errs)
}

// ComposeInstanced checks a per-vertex buffer and a per-instance buffer for use in one
// pipeline: step modes match the roles, locations are disjoint, and any model matrix rows are
// four float32x4 attributes at consecutive locations and 16 byte offsets. Rows may be listed
// in any order.
//
// Parameters:
//   - vertex: the per-vertex buffer layout
//   - instance: the per-instance buffer layout
//
// Returns:
//   - error: nil, or *LayoutMismatchError values joined in location order
func ComposeInstanced(vertex, instance VertexBufferLayout) error {
	var errs []*LayoutMismatchError
	first := func(l VertexBufferLayout) uint32 {
		if locs := l.Locations(); len(locs) > 0 {
			return locs[0]
		}
		return 0
	}

	if vertex.StepMode != wgpu.VertexStepModeVertex {
		errs = append(errs, &LayoutMismatchError{Location: first(vertex), Reason: LayoutReasonStepMode, Detail: "vertex buffer must step per vertex"})
	}
	if instance.StepMode != wgpu.VertexStepModeInstance {
		errs = append(errs, &LayoutMismatchError{Location: first(instance), Reason: LayoutReasonStepMode, Detail: "instance buffer must step per instance"})
	}

	perVertex := make(map[uint32]struct{}, len(vertex.Attributes))
	for _, a := range vertex.Attributes {
		perVertex[a.Location] = struct{}{}
	}
	for _, a := range instance.Attributes {
		if _, ok := perVertex[a.Location]; ok {
			errs = append(errs, &LayoutMismatchError{Location: a.Location, Reason: LayoutReasonDuplicate, Detail: "declared per vertex and per instance"})
		}
	}

	var rows []VertexAttribute
	for _, a := range instance.Attributes {
		if a.Role == VertexRoleInstanceModelRow {
			rows = append(rows, a)
		}
	}
	slices.SortFunc(rows, func(a, b VertexAttribute) int { return cmp.Compare(a.Location, b.Location) })
	if len(rows) > 0 {
		if len(rows) != 4 {
			errs = append(errs, &LayoutMismatchError{
				Location: rows[0].Location,
				Reason:   LayoutReasonTransform,
				Detail:   fmt.Sprintf("%d model rows, want 4", len(rows)),
			})
		} else {
			for i, r := range rows {
				if r.Format != wgpu.VertexFormatFloat32x4 || r.Location != rows[0].Location+uint32(i) || r.Offset != rows[0].Offset+uint64(i)*16 {
					errs = append(errs, &LayoutMismatchError{
						Location: r.Location,
						Reason:   LayoutReasonTransform,
						Detail:   fmt.Sprintf("row %d must be float32x4 at location %d offset %d", i, rows[0].Location+uint32(i), rows[0].Offset+uint64(i)*16),
					})
				}
			}
		}
	}
	return joinLayout(errs)
}

// ResolveCamera finds the view-projection uniform among the declared resources. A camera
// declaration from the pre-processor wins and must be a lone 4x4 matrix uniform in a group
// holding no texture or sampler. Without one, the first lone matrix uniform in such a group is
// taken; a matrix uniform next to a texture is left alone, as it is usually a per-draw model
// matrix.
//
// Parameters:
//   - declared: merged declarations from MergeResources
//   - decls: pre-processor declarations of the pipeline's shaders, may be nil
//
// Returns:
//   - CameraBinding: the camera slot
//   - bool: false if the pipeline has no camera
//   - error: a *BindingMismatchError with BindingReasonCamera if the annotated camera is malformed
func ResolveCamera(declared []shader.ResourceDeclaration, decls []shader.Annotation) (CameraBinding, bool, error) {
	a, annotated := shader.FindDeclaration(decls, shader.AnnotationArgCamera)
	if !annotated {
		for _, d := range declared {
			if isMatrixUniform(d) && groupSharer(declared, d.Group) == nil {
				return CameraBinding{Group: d.Group, Binding: d.Binding, Visibility: d.Visibility}, true, nil
			}
		}
		return CameraBinding{}, false, nil
	}

	group, binding := uint32(*a.Group), uint32(*a.Binding)
	i := slices.IndexFunc(declared, func(d shader.ResourceDeclaration) bool { return d.Group == group && d.Binding == binding })
	if i < 0 {
		return CameraBinding{}, false, &BindingMismatchError{
			Group:   group,
			Binding: binding,
			Reason:  BindingReasonCamera,
			Detail:  "camera is annotated but no entry point uses it",
		}
	}
	cam := declared[i]
	if !isMatrixUniform(cam) {
		return CameraBinding{}, false, &BindingMismatchError{
			Group:   cam.Group,
			Binding: cam.Binding,
			Reason:  BindingReasonCamera,
			Detail:  fmt.Sprintf("%q must be a uniform holding one mat4x4<f32>", cam.Name),
		}
	}
	if d := groupSharer(declared, cam.Group); d != nil {
		return CameraBinding{}, false, &BindingMismatchError{
			Group:   cam.Group,
			Binding: cam.Binding,
			Reason:  BindingReasonCamera,
			Detail:  fmt.Sprintf("shares group %d with %s %q", d.Group, d.Kind, d.Name),
		}
	}
	return CameraBinding{Group: cam.Group, Binding: cam.Binding, Visibility: cam.Visibility}, true, nil
}

// groupSharer returns the first texture or sampler declared in group, nil if none.
func groupSharer(declared []shader.ResourceDeclaration, group uint32) *shader.ResourceDeclaration {
	for i, d := range declared {
		if d.Group == group && (d.Kind == shader.ResourceKindSampledTexture || d.Kind == shader.ResourceKindSampler) {
			return &declared[i]
		}
	}
	return nil
}

// isMatrixUniform reports whether r is a uniform buffer holding a single 4x4 float matrix.
// Blocks whose members could not be typed fall back to the 64 byte size.
func isMatrixUniform(r shader.ResourceDeclaration) bool {
	if r.Kind != shader.ResourceKindUniform {
		return false
	}
	if r.Members != nil {
		return len(r.Members) == 1 && r.Members[0].Type == shader.ValueTypeMat4x4F32 && r.Members[0].Count == 0
	}
	return r.Size == 64
}

// StageNames renders a visibility mask as "vertex|fragment".
func StageNames(v wgpu.ShaderStage) string {
	var out string
	add := func(flag wgpu.ShaderStage, name string) {
		if v&flag == 0 {
			return
		}
		if out != "" {
			out += "|"
		}
		out += name
	}
	add(wgpu.ShaderStageVertex, "vertex")
	add(wgpu.ShaderStageFragment, "fragment")
	add(wgpu.ShaderStageCompute, "compute")
	if out == "" {
		return "none"
	}
	return out
}

func sortResources(rs []shader.ResourceDeclaration) {
	slices.SortStableFunc(rs, func(a, b shader.ResourceDeclaration) int {
		return cmp.Or(cmp.Compare(a.Group, b.Group), cmp.Compare(a.Binding, b.Binding))
	})
}
