// pre_processor.go implements the eyengine shader pre-processor. It scans shader source for
// @eye: annotations, replaces them with injected struct source or generated declarations,
// and collects a declarations list that hosts use to find which binding carries the camera
// or a texture without matching variable names.
//
// The pre-processor owns a registry of Include values. Packages that define GPU-side types
// (camera, model) export their Include so this package never imports them.
package shader

import (
	"fmt"
	"strings"
)

// Include is a registered snippet that @eye:include injects and @eye:group refers to.
type Include struct {
	// Key is the annotation argument naming the include (e.g. "camera").
	Key AnnotationArg

	// Type is the struct or block type name the snippet declares (e.g. "CameraUniform").
	Type string

	// WGSL is the WGSL struct source injected by @eye:include.
	WGSL string

	// GLSL is the GLSL text for this include. For a block include it is the member list
	// placed inside the generated block. Otherwise it is injected as-is.
	GLSL string

	// Block marks includes that describe a uniform or storage buffer layout. WGSL sources
	// still need an @eye:include for the struct before an @eye:group can use it.
	Block bool
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	registry     map[AnnotationArg]Include
	declarations []Annotation
}

// PreProcessor expands @eye: annotations in WGSL or GLSL source and records the group and
// provider annotations it saw.
type PreProcessor interface {
	// Process pre-processes raw shader source. Includes are replaced with the registered
	// source for the language. Group annotations become buffer declarations. Provider
	// annotations produce no output but are recorded.
	//
	// The declarations list is reset at the start of each call.
	//
	// Parameters:
	//   - source: the raw shader source
	//   - lang: the language to generate
	//
	// Returns:
	//   - string: the processed source
	//   - error: a *ParseError if any annotation is malformed or names an unknown include
	Process(source string, lang Language) (string, error)

	// Declarations returns the group and provider annotations collected during the most
	// recent call to Process, in source order.
	//
	// Returns:
	//   - []Annotation: a copy of the declarations collected during the last Process call
	Declarations() []Annotation

	// Register adds or replaces includes in the registry.
	//
	// Parameters:
	//   - includes: the includes to register
	Register(includes ...Include)
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with the given includes registered.
//
// Parameters:
//   - includes: snippets addressable by @eye:include and @eye:group
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor(includes ...Include) PreProcessor {
	p := &preProcessor{registry: make(map[AnnotationArg]Include, len(includes))}
	p.Register(includes...)
	return p
}

func (p *preProcessor) Register(includes ...Include) {
	for _, inc := range includes {
		p.registry[inc.Key] = inc
	}
}

func (p *preProcessor) Process(source string, lang Language) (string, error) {
	p.declarations = p.declarations[:0]

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case annotationTypeInclude:
			inc, ok := p.registry[a.Args[0]]
			if !ok {
				return "", parseErrorf(a.Line, "unknown @eye:include key %q", a.Args[0])
			}
			if lang == LanguageGLSL {
				if inc.Block {
					return "", parseErrorf(a.Line, "%q is a block layout, declare it with @eye:group", a.Args[0])
				}
				out = append(out, inc.GLSL)
			} else {
				out = append(out, inc.WGSL)
			}
		case AnnotationTypeBindingGroup:
			inc, ok := p.registry[a.Args[2]]
			if !ok || !inc.Block {
				return "", parseErrorf(a.Line, "@eye:group key %q is not a registered block include", a.Args[2])
			}
			out = append(out, groupDeclaration(*a, inc, lang))
			p.declarations = append(p.declarations, *a)
		case AnnotationTypeProvider:
			out = append(out, line)
			p.declarations = append(p.declarations, *a)
		}
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return cloneAnnotations(p.declarations)
}

// groupDeclaration renders the buffer declaration for a group annotation.
func groupDeclaration(a Annotation, inc Include, lang Language) string {
	varName := string(a.Args[1])
	if lang == LanguageGLSL {
		storage := "uniform"
		switch a.Args[0] {
		case annotationArgSpaceStorageRead:
			storage = "readonly buffer"
		case annotationArgSpaceStorageReadWrt:
			storage = "buffer"
		}
		return fmt.Sprintf("layout(set = %d, binding = %d) %s %s {\n%s\n} %s;",
			*a.Group, *a.Binding, storage, inc.Type, strings.TrimRight(inc.GLSL, "\n"), varName)
	}

	space := "var<uniform>"
	switch a.Args[0] {
	case annotationArgSpaceStorageRead:
		space = "var<storage, read>"
	case annotationArgSpaceStorageReadWrt:
		space = "var<storage, read_write>"
	}
	return fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;", *a.Group, *a.Binding, space, varName, inc.Type)
}
