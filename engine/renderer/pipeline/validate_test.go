package pipeline

import (
	"slices"
	"testing"

	"github.com/Carmen-Shannon/eyengine/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vertexSig(inputs ...shader.StageVariable) shader.Signature {
	return shader.Signature{Stage: shader.ShaderTypeVertex, EntryPoint: "vs_main", Inputs: inputs, HasClipPosition: true}
}

func in(loc uint32, t shader.ValueType) shader.StageVariable {
	return shader.StageVariable{Name: "in", Location: loc, Type: t}
}

func attr(role VertexRole, f wgpu.VertexFormat, loc uint32) VertexAttribute {
	return VertexAttribute{Role: role, Format: f, Location: loc}
}

func positionTexLayout() VertexBufferLayout {
	return NewVertexBufferLayout(wgpu.VertexStepModeVertex,
		attr(VertexRolePosition, wgpu.VertexFormatFloat32x3, 0),
		attr(VertexRoleTexCoords, wgpu.VertexFormatFloat32x2, 1),
	)
}

func layoutErrors(t *testing.T, err error) []*LayoutMismatchError {
	t.Helper()
	require.ErrorIs(t, err, ErrLayoutMismatch)
	var out []*LayoutMismatchError
	for _, m := range Mismatches(err) {
		lm, ok := m.(*LayoutMismatchError)
		require.True(t, ok, "%T", m)
		out = append(out, lm)
	}
	return out
}

func bindingErrors(t *testing.T, err error) []*BindingMismatchError {
	t.Helper()
	require.ErrorIs(t, err, ErrBindingMismatch)
	var out []*BindingMismatchError
	for _, m := range Mismatches(err) {
		bm, ok := m.(*BindingMismatchError)
		require.True(t, ok, "%T", m)
		out = append(out, bm)
	}
	return out
}

func TestNewVertexBufferLayoutPacks(t *testing.T) {
	l := NewVertexBufferLayout(wgpu.VertexStepModeVertex,
		attr(VertexRolePosition, wgpu.VertexFormatFloat32x3, 0),
		attr(VertexRoleColor, wgpu.VertexFormatUnorm8x4, 1),
		attr(VertexRoleTexCoords, wgpu.VertexFormatFloat32x2, 2),
	)
	assert.Equal(t, uint64(24), l.Stride)
	assert.Equal(t, uint64(0), l.Attributes[0].Offset)
	assert.Equal(t, uint64(12), l.Attributes[1].Offset)
	assert.Equal(t, uint64(16), l.Attributes[2].Offset)

	inst := InstanceTransformLayout(5)
	assert.Equal(t, uint64(64), inst.Stride)
	for i, a := range inst.Attributes {
		assert.Equal(t, uint64(i*16), a.Offset)
		assert.Equal(t, uint32(5+i), a.Location)
	}
}

func TestFormatsAndRoles(t *testing.T) {
	f, err := ParseFormat("float32x3")
	require.NoError(t, err)
	assert.Equal(t, wgpu.VertexFormatFloat32x3, f)
	assert.Equal(t, "float32x3", FormatName(f))
	assert.Equal(t, uint64(12), FormatSize(f))
	_, err = ParseFormat("float64")
	assert.Error(t, err)

	role, err := ParseVertexRole("tex_coords")
	require.NoError(t, err)
	assert.Equal(t, VertexRoleTexCoords, role)
	role, err = ParseVertexRole("")
	require.NoError(t, err)
	assert.Equal(t, VertexRoleGeneric, role)
	_, err = ParseVertexRole("tangent")
	assert.Error(t, err)

	assert.True(t, formatCompatible(wgpu.VertexFormatFloat32x4, shader.ValueTypeVec4F32))
	assert.True(t, formatCompatible(wgpu.VertexFormatUnorm8x4, shader.ValueTypeVec4F32))
	assert.True(t, formatCompatible(wgpu.VertexFormatUint32, shader.ValueTypeU32))
	assert.False(t, formatCompatible(wgpu.VertexFormatFloat32x2, shader.ValueTypeVec3F32))
	assert.False(t, formatCompatible(wgpu.VertexFormatSint32x2, shader.ValueTypeVec2F32))
	assert.False(t, formatCompatible(wgpu.VertexFormatFloat32x4, shader.ValueTypeMat4x4F32))
}

func TestValidateVertexLayoutAssignsEachInput(t *testing.T) {
	sig := vertexSig(in(0, shader.ValueTypeVec3F32), in(1, shader.ValueTypeVec2F32))
	assignments, err := ValidateVertexLayout(sig, []VertexBufferLayout{positionTexLayout()})
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	for i, a := range assignments {
		assert.Equal(t, uint32(i), a.Input.Location)
		assert.Equal(t, uint32(i), a.Attribute.Location)
		assert.Equal(t, 0, a.Buffer)
		assert.Equal(t, wgpu.VertexStepModeVertex, a.StepMode)
	}

	// An attribute no input reads is fine.
	assignments, err = ValidateVertexLayout(vertexSig(in(0, shader.ValueTypeVec3F32)), []VertexBufferLayout{positionTexLayout()})
	require.NoError(t, err)
	assert.Len(t, assignments, 1)

	// No inputs at all.
	assignments, err = ValidateVertexLayout(vertexSig(), nil)
	require.NoError(t, err)
	assert.Empty(t, assignments)
}

func TestValidateVertexLayoutMissing(t *testing.T) {
	for _, loc := range []uint32{1, 3, 15} {
		sig := vertexSig(in(0, shader.ValueTypeVec3F32), in(loc, shader.ValueTypeVec4F32))
		buf := NewVertexBufferLayout(wgpu.VertexStepModeVertex, attr(VertexRolePosition, wgpu.VertexFormatFloat32x3, 0))
		_, err := ValidateVertexLayout(sig, []VertexBufferLayout{buf})
		errs := layoutErrors(t, err)
		require.Len(t, errs, 1)
		assert.Equal(t, loc, errs[0].Location)
		assert.Equal(t, LayoutReasonMissing, errs[0].Reason)
	}
}

func TestValidateVertexLayoutDuplicateAcrossBuffers(t *testing.T) {
	sig := vertexSig(in(0, shader.ValueTypeVec3F32), in(1, shader.ValueTypeVec2F32))
	inst := NewVertexBufferLayout(wgpu.VertexStepModeInstance, attr(VertexRoleGeneric, wgpu.VertexFormatFloat32x4, 1))
	_, err := ValidateVertexLayout(sig, []VertexBufferLayout{positionTexLayout(), inst})
	errs := layoutErrors(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, uint32(1), errs[0].Location)
	assert.Equal(t, LayoutReasonDuplicate, errs[0].Reason)
	assert.Contains(t, errs[0].Error(), "location 1")
}

func TestValidateVertexLayoutTypeAndOverflow(t *testing.T) {
	sig := vertexSig(in(0, shader.ValueTypeVec3F32), in(1, shader.ValueTypeVec3F32))
	buf := positionTexLayout()
	_, err := ValidateVertexLayout(sig, []VertexBufferLayout{buf})
	errs := layoutErrors(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, LayoutReasonType, errs[0].Reason)

	buf.Stride = 16
	_, err = ValidateVertexLayout(vertexSig(in(0, shader.ValueTypeVec3F32)), []VertexBufferLayout{buf})
	errs = layoutErrors(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, uint32(1), errs[0].Location)
	assert.Equal(t, LayoutReasonOverflow, errs[0].Reason)
}

func TestValidateVertexLayoutReportsAllInOrder(t *testing.T) {
	sig := vertexSig(
		in(0, shader.ValueTypeVec3F32),
		in(1, shader.ValueTypeVec4F32),
		in(2, shader.ValueTypeVec2F32),
		in(4, shader.ValueTypeF32),
	)
	_, err := ValidateVertexLayout(sig, []VertexBufferLayout{positionTexLayout()})
	errs := layoutErrors(t, err)
	require.Len(t, errs, 3)
	assert.Equal(t, []uint32{1, 2, 4}, []uint32{errs[0].Location, errs[1].Location, errs[2].Location})
	assert.Equal(t, LayoutReasonType, errs[0].Reason)
	assert.Equal(t, LayoutReasonMissing, errs[1].Reason)
}

func TestValidateStageLink(t *testing.T) {
	vs := shader.Signature{Stage: shader.ShaderTypeVertex, Outputs: []shader.StageVariable{in(0, shader.ValueTypeVec2F32)}}
	fs := shader.Signature{Stage: shader.ShaderTypeFragment, Inputs: []shader.StageVariable{in(0, shader.ValueTypeVec2F32)}}
	assert.NoError(t, ValidateStageLink(vs, fs))

	fs.Inputs = append(fs.Inputs, in(1, shader.ValueTypeVec3F32))
	errs := layoutErrors(t, ValidateStageLink(vs, fs))
	require.Len(t, errs, 1)
	assert.Equal(t, uint32(1), errs[0].Location)
	assert.Equal(t, LayoutReasonStageLink, errs[0].Reason)

	fs.Inputs = []shader.StageVariable{in(0, shader.ValueTypeVec4F32)}
	errs = layoutErrors(t, ValidateStageLink(vs, fs))
	assert.Equal(t, LayoutReasonStageLink, errs[0].Reason)

	// Unread vertex outputs are allowed.
	vs.Outputs = append(vs.Outputs, in(3, shader.ValueTypeF32))
	fs.Inputs = nil
	assert.NoError(t, ValidateStageLink(vs, fs))
}

func TestComposeInstanced(t *testing.T) {
	assert.NoError(t, ComposeInstanced(positionTexLayout(), InstanceTransformLayout(5)))

	errs := layoutErrors(t, ComposeInstanced(positionTexLayout(), InstanceTransformLayout(1)))
	assert.Equal(t, LayoutReasonDuplicate, errs[0].Reason)
	assert.Equal(t, uint32(1), errs[0].Location)

	wrongStep := InstanceTransformLayout(5)
	wrongStep.StepMode = wgpu.VertexStepModeVertex
	errs = layoutErrors(t, ComposeInstanced(positionTexLayout(), wrongStep))
	assert.Equal(t, LayoutReasonStepMode, errs[0].Reason)
	assert.Equal(t, uint32(5), errs[0].Location)

	gap := InstanceTransformLayout(5)
	gap.Attributes[2].Location = 9
	errs = layoutErrors(t, ComposeInstanced(positionTexLayout(), gap))
	assert.Equal(t, LayoutReasonTransform, errs[0].Reason)

	short := InstanceTransformLayout(5)
	short.Attributes = short.Attributes[:3]
	errs = layoutErrors(t, ComposeInstanced(positionTexLayout(), short))
	assert.Equal(t, LayoutReasonTransform, errs[0].Reason)

	reversed := InstanceTransformLayout(5)
	slices.Reverse(reversed.Attributes)
	assert.NoError(t, ComposeInstanced(positionTexLayout(), reversed))

	swapped := InstanceTransformLayout(5)
	swapped.Attributes[0].Offset, swapped.Attributes[3].Offset = swapped.Attributes[3].Offset, swapped.Attributes[0].Offset
	errs = layoutErrors(t, ComposeInstanced(positionTexLayout(), swapped))
	assert.Equal(t, uint32(6), errs[0].Location)

	narrow := InstanceTransformLayout(5)
	narrow.Attributes[1].Format = wgpu.VertexFormatFloat32x3
	errs = layoutErrors(t, ComposeInstanced(positionTexLayout(), narrow))
	assert.Equal(t, uint32(6), errs[0].Location)
}

func uniform(group, binding uint32, vis wgpu.ShaderStage, members ...shader.BlockMember) shader.ResourceDeclaration {
	return shader.ResourceDeclaration{
		Group: group, Binding: binding, Name: "u", Kind: shader.ResourceKindUniform,
		Members: members, Size: 64, Visibility: vis,
	}
}

func handle(group, binding uint32, kind shader.ResourceKind) shader.ResourceDeclaration {
	return shader.ResourceDeclaration{Group: group, Binding: binding, Name: kind.String(), Kind: kind, Visibility: wgpu.ShaderStageFragment}
}

func TestMergeResources(t *testing.T) {
	vs := shader.Signature{Resources: []shader.ResourceDeclaration{uniform(1, 0, wgpu.ShaderStageVertex)}}
	fs := shader.Signature{Resources: []shader.ResourceDeclaration{
		uniform(1, 0, wgpu.ShaderStageFragment),
		handle(0, 0, shader.ResourceKindSampledTexture),
	}}
	merged, err := MergeResources(vs, fs)
	require.NoError(t, err)
	require.Len(t, merged, 2)
	assert.Equal(t, uint32(0), merged[0].Group)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, merged[1].Visibility)
	assert.Equal(t, merged[1].Visibility, merged[1].Entry.Visibility)

	fs.Resources[0] = handle(1, 0, shader.ResourceKindSampler)
	_, err = MergeResources(vs, fs)
	errs := bindingErrors(t, err)
	assert.Equal(t, BindingReasonConflict, errs[0].Reason)
}

func TestValidateBindings(t *testing.T) {
	declared := []shader.ResourceDeclaration{
		handle(0, 0, shader.ResourceKindSampledTexture),
		handle(0, 1, shader.ResourceKindSampler),
		uniform(1, 0, wgpu.ShaderStageVertex),
	}
	full := []SuppliedResource{
		{Group: 0, Binding: 0, Kind: shader.ResourceKindSampledTexture, Visibility: wgpu.ShaderStageFragment},
		{Group: 0, Binding: 1, Kind: shader.ResourceKindSampler, Visibility: wgpu.ShaderStageFragment},
		{Group: 1, Binding: 0, Kind: shader.ResourceKindUniform, Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment},
		{Group: 3, Binding: 7, Kind: shader.ResourceKindStorage, Visibility: wgpu.ShaderStageCompute},
	}
	assert.NoError(t, ValidateBindings(declared, full))

	errs := bindingErrors(t, ValidateBindings(declared, []SuppliedResource{full[1], full[2]}))
	require.Len(t, errs, 1)
	assert.Equal(t, uint32(0), errs[0].Binding)
	assert.Equal(t, BindingReasonUnpaired, errs[0].Reason)

	errs = bindingErrors(t, ValidateBindings(declared, []SuppliedResource{full[2]}))
	require.Len(t, errs, 2)
	assert.Equal(t, BindingReasonMissing, errs[0].Reason)
	assert.Equal(t, BindingReasonMissing, errs[1].Reason)

	wrongKind := full[2]
	wrongKind.Kind = shader.ResourceKindStorage
	errs = bindingErrors(t, ValidateBindings(declared, []SuppliedResource{full[0], full[1], wrongKind}))
	require.Len(t, errs, 1)
	assert.Equal(t, BindingReasonKind, errs[0].Reason)
	assert.Equal(t, uint32(1), errs[0].Group)

	narrow := full[2]
	narrow.Visibility = wgpu.ShaderStageFragment
	errs = bindingErrors(t, ValidateBindings(declared, []SuppliedResource{full[0], full[1], narrow}))
	require.Len(t, errs, 1)
	assert.Equal(t, BindingReasonVisibility, errs[0].Reason)
	assert.Contains(t, errs[0].Detail, "vertex")

	assert.NoError(t, ValidateBindings(nil, full))
}

func TestResolveCamera(t *testing.T) {
	mat := shader.BlockMember{Name: "view_proj", Type: shader.ValueTypeMat4x4F32}
	declared := []shader.ResourceDeclaration{
		handle(0, 0, shader.ResourceKindSampledTexture),
		handle(0, 1, shader.ResourceKindSampler),
		uniform(1, 0, wgpu.ShaderStageVertex, mat),
	}
	cam, ok, err := ResolveCamera(declared, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, CameraBinding{Group: 1, Binding: 0, Visibility: wgpu.ShaderStageVertex}, cam)

	_, ok, err = ResolveCamera(declared[:2], nil)
	require.NoError(t, err)
	assert.False(t, ok)

	// A uniform with more than the matrix is not a camera unless annotated.
	wide := uniform(1, 0, wgpu.ShaderStageVertex, mat, shader.BlockMember{Name: "eye", Type: shader.ValueTypeVec4F32})
	_, ok, err = ResolveCamera([]shader.ResourceDeclaration{wide}, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	g, b := 1, 0
	decls := []shader.Annotation{{
		Type:    shader.AnnotationTypeBindingGroup,
		Args:    []shader.AnnotationArg{"uniform", "camera", shader.AnnotationArgCamera},
		Group:   &g,
		Binding: &b,
	}}
	_, _, err = ResolveCamera([]shader.ResourceDeclaration{wide}, decls)
	errs := bindingErrors(t, err)
	assert.Equal(t, BindingReasonCamera, errs[0].Reason)

	_, _, err = ResolveCamera(declared[:2], decls)
	errs = bindingErrors(t, err)
	assert.Equal(t, BindingReasonCamera, errs[0].Reason)

	// A matrix beside a texture is a per-draw uniform, not the camera.
	shared := []shader.ResourceDeclaration{
		uniform(0, 0, wgpu.ShaderStageVertex, mat),
		handle(0, 1, shader.ResourceKindSampledTexture),
	}
	_, ok, err = ResolveCamera(shared, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	cam, ok, err = ResolveCamera(append(shared, uniform(2, 0, wgpu.ShaderStageVertex, mat)), nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(2), cam.Group)

	g = 0
	_, _, err = ResolveCamera(shared, decls)
	errs = bindingErrors(t, err)
	assert.Equal(t, uint32(0), errs[0].Group)
	assert.Contains(t, errs[0].Detail, "shares group 0")
}

func TestStageNames(t *testing.T) {
	assert.Equal(t, "vertex|fragment", StageNames(wgpu.ShaderStageVertex|wgpu.ShaderStageFragment))
	assert.Equal(t, "none", StageNames(wgpu.ShaderStageNone))
}
