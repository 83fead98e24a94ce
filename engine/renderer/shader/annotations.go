// annotations.go defines the annotation types and parser for the eyengine shader
// pre-processor. Annotations are single-line comments prefixed with @eye: that inject
// registered struct sources and generate resource declarations. They work the same in WGSL
// and GLSL sources because both use // line comments.
package shader

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// annotationPrefix is the marker that identifies an annotation within a comment line.
const annotationPrefix = "@eye:"

// AnnotationType identifies the kind of annotation parsed from a comment line.
type AnnotationType string

const (
	// annotationTypeInclude injects the source of a registered Include at the annotation site.
	// It is consumed entirely during pre-processing and produces no declaration.
	//
	// Syntax: //@eye:include <key>
	//
	// Example: //@eye:include vertex
	annotationTypeInclude AnnotationType = "include"

	// AnnotationTypeBindingGroup generates a buffer declaration at a group and binding using the
	// block type of a registered Include, and records the annotation as a declaration.
	//
	// Syntax: //@eye:group <group> <binding> <address_space> <var_name> <key>
	//
	// Example: //@eye:group 1 0 uniform camera camera
	AnnotationTypeBindingGroup AnnotationType = "group"

	// AnnotationTypeProvider records which host resource feeds a hand-written binding without
	// generating any source. Used for textures and samplers, which have no struct type.
	//
	// Syntax: //@eye:provider <group> <binding> <provider_identity>
	//
	// Example: //@eye:provider 0 0 diffuse_texture
	AnnotationTypeProvider AnnotationType = "provider"
)

// Annotation is a single parsed @eye: annotation.
type Annotation struct {
	// Type identifies which annotation was parsed (include, group, or provider).
	Type AnnotationType

	// Args holds the annotation's arguments. The contents depend on Type:
	//   - include:  [0] = include key (e.g. "camera")
	//   - group:    [0] = address space, [1] = var name, [2] = include key
	//   - provider: [0] = provider identity (e.g. "diffuse_texture")
	Args []AnnotationArg

	// Line is the 1-based line number in the raw source where this annotation was found.
	Line int

	// Group is the group index for group and provider annotations. Nil for include annotations.
	Group *int

	// Binding is the binding index for group and provider annotations. Nil for include annotations.
	Binding *int
}

// Clone returns a copy of a that shares no memory with it.
func (a Annotation) Clone() Annotation {
	a.Args = slices.Clone(a.Args)
	if a.Group != nil {
		g := *a.Group
		a.Group = &g
	}
	if a.Binding != nil {
		b := *a.Binding
		a.Binding = &b
	}
	return a
}

// cloneAnnotations deep-copies annotations, nil when there are none.
func cloneAnnotations(annotations []Annotation) []Annotation {
	if len(annotations) == 0 {
		return nil
	}
	out := make([]Annotation, len(annotations))
	for i, a := range annotations {
		out[i] = a.Clone()
	}
	return out
}

// AnnotationArg is a typed string used as an argument in annotations.
type AnnotationArg string

const (
	// AnnotationArgCamera identifies the camera view-projection uniform, both as an include key
	// and as a provider identity.
	AnnotationArgCamera AnnotationArg = "camera"

	// AnnotationArgDiffuseTexture identifies a diffuse texture binding.
	AnnotationArgDiffuseTexture AnnotationArg = "diffuse_texture"

	// AnnotationArgDiffuseSampler identifies the sampler paired with the diffuse texture.
	AnnotationArgDiffuseSampler AnnotationArg = "diffuse_sampler"
)

// Address spaces accepted by group annotations.
const (
	annotationArgSpaceUniform        AnnotationArg = "uniform"
	annotationArgSpaceStorageRead    AnnotationArg = "storage_read"
	annotationArgSpaceStorageReadWrt AnnotationArg = "storage_read_write"
)

var validAddressSpaces = []AnnotationArg{
	annotationArgSpaceUniform,
	annotationArgSpaceStorageRead,
	annotationArgSpaceStorageReadWrt,
}

var validProviderIdentities = []AnnotationArg{
	AnnotationArgCamera,
	AnnotationArgDiffuseTexture,
	AnnotationArgDiffuseSampler,
}

// parseAnnotation attempts to parse a single source line as an @eye: annotation.
// Include keys are not checked here because the registry belongs to the PreProcessor.
//
// Parameters:
//   - line: the raw source line to parse
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: a *ParseError if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "//") {
		return nil, nil
	}
	_, after, ok := strings.Cut(trimmed, annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, parseErrorf(lineNum, "empty @eye annotation")
	}

	switch AnnotationType(args[0]) {
	case annotationTypeInclude:
		if len(args) != 2 {
			return nil, parseErrorf(lineNum, "@eye:include requires exactly one argument")
		}
		return &Annotation{
			Type: annotationTypeInclude,
			Args: []AnnotationArg{AnnotationArg(args[1])},
			Line: lineNum,
		}, nil
	case AnnotationTypeBindingGroup:
		if len(args) != 6 {
			return nil, parseErrorf(lineNum, "@eye:group requires five arguments (group, binding, address space, var name, key)")
		}
		group, binding, err := parseGroupBinding(args[1], args[2], lineNum)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(validAddressSpaces, AnnotationArg(args[3])) {
			return nil, parseErrorf(lineNum, "unknown address space %q in @eye:group", args[3])
		}
		return &Annotation{
			Type:    AnnotationTypeBindingGroup,
			Args:    []AnnotationArg{AnnotationArg(args[3]), AnnotationArg(args[4]), AnnotationArg(args[5])},
			Line:    lineNum,
			Group:   &group,
			Binding: &binding,
		}, nil
	case AnnotationTypeProvider:
		if len(args) != 4 {
			return nil, parseErrorf(lineNum, "@eye:provider requires three arguments (group, binding, provider identity)")
		}
		group, binding, err := parseGroupBinding(args[1], args[2], lineNum)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(validProviderIdentities, AnnotationArg(args[3])) {
			return nil, parseErrorf(lineNum, "unknown provider identity %q in @eye:provider", args[3])
		}
		return &Annotation{
			Type:    AnnotationTypeProvider,
			Args:    []AnnotationArg{AnnotationArg(args[3])},
			Line:    lineNum,
			Group:   &group,
			Binding: &binding,
		}, nil
	default:
		return nil, parseErrorf(lineNum, "unknown @eye annotation type %q", args[0])
	}
}

func parseGroupBinding(groupArg, bindingArg string, lineNum int) (int, int, error) {
	group, err := strconv.Atoi(groupArg)
	if err != nil || group < 0 {
		return 0, 0, parseErrorf(lineNum, "invalid group number %q", groupArg)
	}
	binding, err := strconv.Atoi(bindingArg)
	if err != nil || binding < 0 {
		return 0, 0, parseErrorf(lineNum, "invalid binding number %q", bindingArg)
	}
	return group, binding, nil
}

// FindDeclaration returns the first group or provider annotation whose key or identity is arg.
//
// Parameters:
//   - decls: declarations from Shader.Declarations
//   - arg: the include key or provider identity to look for
//
// Returns:
//   - Annotation: the matching declaration
//   - bool: false if none matches
func FindDeclaration(decls []Annotation, arg AnnotationArg) (Annotation, bool) {
	for _, d := range decls {
		switch d.Type {
		case AnnotationTypeBindingGroup:
			if d.Args[2] == arg {
				return d, true
			}
		case AnnotationTypeProvider:
			if d.Args[0] == arg {
				return d, true
			}
		}
	}
	return Annotation{}, false
}

// String renders the annotation back into its comment form.
func (a Annotation) String() string {
	parts := []string{"//" + annotationPrefix + string(a.Type)}
	if a.Group != nil && a.Binding != nil {
		parts = append(parts, fmt.Sprint(*a.Group), fmt.Sprint(*a.Binding))
	}
	for _, arg := range a.Args {
		parts = append(parts, string(arg))
	}
	return strings.Join(parts, " ")
}
