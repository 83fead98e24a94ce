package shader

// ShaderBuilderOption is a functional option for configuring a Shader built by NewShader.
type ShaderBuilderOption func(*shader)

// WithPreProcessor sets the pre-processor that expands @eye: annotations. Without it the shader
// uses a pre-processor with no registered includes.
//
// Parameters:
//   - pp: the pre-processor to use
//
// Returns:
//   - ShaderBuilderOption: a function that applies the pre-processor to a shader
func WithPreProcessor(pp PreProcessor) ShaderBuilderOption {
	return func(s *shader) {
		s.pp = pp
	}
}

// WithEntryPoint selects an entry point by name when a WGSL module declares several of the
// same stage. GLSL shaders always use main.
//
// Parameters:
//   - name: the entry point function name
//
// Returns:
//   - ShaderBuilderOption: a function that applies the entry point to a shader
func WithEntryPoint(name string) ShaderBuilderOption {
	return func(s *shader) {
		s.entryPoint = name
	}
}

// WithLanguage overrides the language inferred from the file extension.
//
// Parameters:
//   - lang: LanguageWGSL or LanguageGLSL
//
// Returns:
//   - ShaderBuilderOption: a function that applies the language to a shader
func WithLanguage(lang Language) ShaderBuilderOption {
	return func(s *shader) {
		s.language = lang
	}
}

// WithSourcePath records where in-memory source was read from. The path is stamped on parse
// errors and, unless WithLanguage is given, selects the language by extension.
//
// Parameters:
//   - path: the file the source came from, e.g. a path inside an embedded file system
//
// Returns:
//   - ShaderBuilderOption: a function that applies the path to a shader
func WithSourcePath(path string) ShaderBuilderOption {
	return func(s *shader) {
		s.path = path
	}
}
