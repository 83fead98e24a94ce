package loader

import (
	"github.com/Carmen-Shannon/eyengine/engine/camera"
	"github.com/Carmen-Shannon/eyengine/engine/model"
	"github.com/Carmen-Shannon/eyengine/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/eyengine/engine/renderer/shader"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// DefaultIncludes returns the includes a Loader registers unless WithIncludes is given: the
// vertex and instance inputs and the camera uniform.
//
// Returns:
//   - []shader.Include: the default includes
func DefaultIncludes() []shader.Include {
	return append(model.Includes(), camera.Include())
}

// WithIncludes is an option builder that replaces the includes every reflected shader may use.
//
// Parameters:
//   - includes: the includes to register on each shader's PreProcessor
//
// Returns:
//   - LoaderBuilderOption: a function that applies the includes option to a loader
func WithIncludes(includes ...shader.Include) LoaderBuilderOption {
	return func(l *loader) {
		l.includes = append([]shader.Include(nil), includes...)
	}
}

// WithWorkers is an option builder that sets how many pipelines Validate builds at once.
//
// Parameters:
//   - n: the worker count, at least 1
//
// Returns:
//   - LoaderBuilderOption: a function that applies the worker option to a loader
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		l.workers = max(n, 1)
	}
}

// WithDescriptor is an option builder that pre-populates the descriptor cache.
//
// Parameters:
//   - d: the descriptor to cache under its key
//
// Returns:
//   - LoaderBuilderOption: a function that applies the descriptor option to a loader
func WithDescriptor(d pipeline.Descriptor) LoaderBuilderOption {
	return func(l *loader) {
		l.descriptorCache[d.Key()] = d
	}
}
