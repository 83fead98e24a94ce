package shader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/eyengine/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies the pipeline stage a shader implements.
type ShaderType int

const (
	// ShaderTypeCompute indicates a shader containing a @compute entry point.
	ShaderTypeCompute ShaderType = iota

	// ShaderTypeVertex is the vertex shader type, used for vertex processing in render pipelines.
	ShaderTypeVertex

	// ShaderTypeFragment is the fragment shader type, used for fragment processing in pair with a vertex shader.
	ShaderTypeFragment
)

func (t ShaderType) String() string {
	switch t {
	case ShaderTypeCompute:
		return "compute"
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	default:
		return fmt.Sprintf("ShaderType(%d)", int(t))
	}
}

// Language is the surface syntax a shader is written in.
type Language int

const (
	// LanguageWGSL is the WebGPU shading language.
	LanguageWGSL Language = iota

	// LanguageGLSL is Vulkan-style GLSL with separate textures and samplers.
	LanguageGLSL
)

func (l Language) String() string {
	if l == LanguageGLSL {
		return "glsl"
	}
	return "wgsl"
}

// glslExtensions maps GLSL file extensions to the stage they hold.
var glslExtensions = map[string]ShaderType{
	".vert": ShaderTypeVertex,
	".frag": ShaderTypeFragment,
	".comp": ShaderTypeCompute,
}

// StageFromPath infers the language, and for GLSL the stage, from a file name. A WGSL file can
// hold several stages, so the returned stage is only meaningful for GLSL.
//
// Parameters:
//   - path: the shader file path
//
// Returns:
//   - ShaderType: the stage implied by a .vert, .frag or .comp extension
//   - Language: LanguageWGSL for .wgsl, LanguageGLSL for the GLSL extensions
//   - error: an error for any other extension
func StageFromPath(path string) (ShaderType, Language, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".wgsl" {
		return ShaderTypeVertex, LanguageWGSL, nil
	}
	if stage, ok := glslExtensions[ext]; ok {
		return stage, LanguageGLSL, nil
	}
	return 0, 0, fmt.Errorf("shader: unrecognized shader extension %q", ext)
}

// shader is the implementation of the Shader interface.
// It holds the pre-processed source, the reflected signature and the module descriptor.
type shader struct {
	key        string
	path       string
	source     string
	language   Language
	shaderType ShaderType
	entryPoint string
	signature  Signature
	module     *wgpu.ShaderModuleDescriptor

	pp           PreProcessor
	declarations []Annotation
}

// Shader is one stage of a pipeline: its source, the entry point within it and the reflected
// interface of that entry point.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Path returns the file the shader was read from, empty for in-memory sources.
	//
	// Returns:
	//   - string: the source path
	Path() string

	// Source retrieves the pre-processed shader source code.
	//
	// Returns:
	//   - string: the source code of the shader with annotations expanded
	Source() string

	// Language returns the shading language of the source.
	//
	// Returns:
	//   - Language: LanguageWGSL or LanguageGLSL
	Language() Language

	// ShaderType returns the stage this shader implements.
	//
	// Returns:
	//   - ShaderType: ShaderTypeVertex, ShaderTypeFragment, or ShaderTypeCompute
	ShaderType() ShaderType

	// EntryPoint returns the entry point name for this shader.
	//
	// Returns:
	//   - string: the entry point name (e.g. "vs_main", or "main" for GLSL)
	EntryPoint() string

	// Signature returns a copy of the reflected interface of the entry point.
	//
	// Returns:
	//   - Signature: inputs, outputs and resources of the entry point
	Signature() Signature

	// Module returns the wgpu.ShaderModuleDescriptor for this shader. GLSL shaders are
	// reflected for validation only and return nil.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the shader module descriptor containing the WGSL code and label
	Module() *wgpu.ShaderModuleDescriptor

	// Declarations returns the group and provider annotations found by the pre-processor.
	//
	// Returns:
	//   - []Annotation: a copy of the annotations in source order
	Declarations() []Annotation
}

var _ Shader = &shader{}

// NewShader reads, pre-processes and reflects a shader file. The language is taken from the
// extension unless WithLanguage is given.
//
// Parameters:
//   - key: a unique identifier for the shader, used for caching and lookups
//   - shaderType: the stage to reflect
//   - sourcePath: the file path to read the source from
//   - options: optional ShaderBuilderOption values
//
// Returns:
//   - Shader: the reflected shader
//   - error: a read error, or a *ParseError carrying sourcePath
func NewShader(key string, shaderType ShaderType, sourcePath string, options ...ShaderBuilderOption) (Shader, error) {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("shader: failed to read source file %q: %w", sourcePath, err)
	}
	s := newShader(key, shaderType, options...)
	s.path = sourcePath
	if s.language < 0 {
		_, lang, err := StageFromPath(sourcePath)
		if err != nil {
			return nil, err
		}
		s.language = lang
	}
	if err := s.load(string(data)); err != nil {
		return nil, err
	}
	return s, nil
}

// NewShaderFromSource pre-processes and reflects in-memory shader source. The language comes
// from WithLanguage, then from the extension given to WithSourcePath, and defaults to WGSL.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - shaderType: the stage to reflect
//   - source: the raw shader source
//   - options: optional ShaderBuilderOption values
//
// Returns:
//   - Shader: the reflected shader
//   - error: a *ParseError if the source cannot be reflected
func NewShaderFromSource(key string, shaderType ShaderType, source string, options ...ShaderBuilderOption) (Shader, error) {
	s := newShader(key, shaderType, options...)
	if s.language < 0 {
		s.language = LanguageWGSL
		if s.path != "" {
			if _, lang, err := StageFromPath(s.path); err == nil {
				s.language = lang
			}
		}
	}
	if err := s.load(source); err != nil {
		return nil, err
	}
	return s, nil
}

func newShader(key string, shaderType ShaderType, options ...ShaderBuilderOption) *shader {
	s := &shader{
		key:        key,
		shaderType: shaderType,
		language:   -1,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.pp == nil {
		s.pp = NewPreProcessor()
	}
	return s
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Path() string {
	return s.path
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) Language() Language {
	return s.language
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) Signature() Signature {
	return s.signature.Clone()
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

func (s *shader) Declarations() []Annotation {
	return cloneAnnotations(s.declarations)
}

// load expands annotations, reflects the requested entry point and builds the module
// descriptor. Parse errors are stamped with the shader path.
func (s *shader) load(raw string) error {
	source, err := s.pp.Process(raw, s.language)
	if err != nil {
		return s.withPath(err)
	}
	s.source = source
	s.declarations = s.pp.Declarations()

	var sig Signature
	switch s.language {
	case LanguageGLSL:
		sig, err = ReflectGLSL(source, s.shaderType)
	default:
		sig, err = ReflectWGSL(source, s.shaderType, s.entryPoint)
	}
	if err != nil {
		return s.withPath(err)
	}
	if err := sig.Validate(); err != nil {
		return fmt.Errorf("shader %s: %w", s.key, err)
	}
	s.signature = sig
	s.entryPoint = sig.EntryPoint

	if s.language == LanguageWGSL {
		s.module = &wgpu.ShaderModuleDescriptor{
			Label: s.key,
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
				Code: s.source,
			},
		}
	}
	common.Logger().Debug("shader reflected",
		"key", s.key, "stage", s.shaderType, "entry", s.entryPoint,
		"inputs", len(sig.Inputs), "resources", len(sig.Resources))
	return nil
}

func (s *shader) withPath(err error) error {
	var pe *ParseError
	if errors.As(err, &pe) && pe.Path == "" {
		pe.Path = s.path
		if pe.Path == "" {
			pe.Path = s.key
		}
	}
	return err
}
