package loader

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/eyengine/common"
	"github.com/Carmen-Shannon/eyengine/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/eyengine/engine/renderer/shader"
)

// Result is the outcome of building one pipeline of a manifest.
type Result struct {
	Key        string
	Descriptor pipeline.Descriptor
	Err        error
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	includes []shader.Include
	workers  int
	pool     worker.DynamicWorkerPool

	descriptorCache map[string]pipeline.Descriptor
}

// Loader reads pipeline manifests (TOML or YAML), turns each entry into a validated
// pipeline.Descriptor and caches the descriptors by pipeline key.
type Loader interface {
	// Load reads and decodes a manifest from the OS file system. The format is chosen by
	// extension: .toml, .yaml or .yml.
	//
	// Parameters:
	//   - path: the manifest file path
	//
	// Returns:
	//   - *Manifest: the decoded manifest
	//   - error: a read, decode or duplicate-key error
	Load(path string) (*Manifest, error)

	// LoadFS is Load for a manifest inside fsys, such as assets.FS.
	//
	// Parameters:
	//   - fsys: the file system holding the manifest and its shaders
	//   - name: the slash-separated manifest path inside fsys
	//
	// Returns:
	//   - *Manifest: the decoded manifest
	//   - error: a read, decode or duplicate-key error
	LoadFS(fsys fs.FS, name string) (*Manifest, error)

	// Build returns the descriptor of one pipeline, building and caching it on first use.
	//
	// Parameters:
	//   - m: the manifest holding the pipeline
	//   - key: the pipeline key
	//
	// Returns:
	//   - pipeline.Descriptor: the validated descriptor
	//   - error: the shader, layout or binding errors of that pipeline
	Build(m *Manifest, key string) (pipeline.Descriptor, error)

	// Validate builds every pipeline of m concurrently. Pipelines that validate are cached.
	//
	// Parameters:
	//   - m: the manifest to validate
	//
	// Returns:
	//   - []Result: one result per pipeline, in manifest order
	Validate(m *Manifest) []Result

	// Get retrieves a cached descriptor. Returns nil if not found.
	//
	// Parameters:
	//   - key: the pipeline key
	//
	// Returns:
	//   - pipeline.Descriptor: the cached descriptor or nil
	Get(key string) pipeline.Descriptor

	// Descriptors returns a copy of the descriptor cache.
	//
	// Returns:
	//   - map[string]pipeline.Descriptor: all cached descriptors keyed by pipeline key
	Descriptors() map[string]pipeline.Descriptor

	// Invalidate drops cached descriptors. With no keys the whole cache is dropped.
	//
	// Parameters:
	//   - keys: the pipeline keys to drop
	Invalidate(keys ...string)

	// Close stops the worker pool. The Loader must not be used afterwards.
	Close()
}

var _ Loader = &loader{}

// NewLoader creates a Loader. Shaders it reflects can include the camera, vertex and instance
// declarations unless WithIncludes replaces them.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new Loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:              sync.RWMutex{},
		includes:        DefaultIncludes(),
		workers:         4,
		descriptorCache: make(map[string]pipeline.Descriptor),
	}
	for _, option := range options {
		option(l)
	}
	l.pool = worker.NewDynamicWorkerPool(l.workers, l.workers*4, 30*time.Second)
	return l
}

func (l *loader) Load(path string) (*Manifest, error) {
	backend, err := resolveBackend(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	return decodeManifest(backend, data, path, nil)
}

func (l *loader) LoadFS(fsys fs.FS, name string) (*Manifest, error) {
	backend, err := resolveBackend(name)
	if err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", name, err)
	}
	return decodeManifest(backend, data, name, fsys)
}

func decodeManifest(backend loaderBackend, data []byte, path string, fsys fs.FS) (*Manifest, error) {
	m, err := backend.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", path, err)
	}
	m.path, m.fsys = path, fsys
	if err := m.check(); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	common.Logger().Info("manifest loaded", "path", path, "pipelines", len(m.Pipelines))
	return m, nil
}

func (l *loader) Build(m *Manifest, key string) (pipeline.Descriptor, error) {
	l.mu.RLock()
	if cached, ok := l.descriptorCache[key]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	p, ok := m.Pipeline(key)
	if !ok {
		return nil, fmt.Errorf("manifest %s has no pipeline %q", m.Path(), key)
	}
	d, err := l.buildDescriptor(m, p)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.descriptorCache[key] = d
	l.mu.Unlock()
	return d, nil
}

func (l *loader) Validate(m *Manifest) []Result {
	results := make([]Result, len(m.Pipelines))
	var wg sync.WaitGroup

	for i, p := range m.Pipelines {
		wg.Add(1)
		l.pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				d, err := l.Build(m, p.Key)
				results[i] = Result{Key: p.Key, Descriptor: d, Err: err}
				return nil, err
			},
		})
	}
	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	common.Logger().Info("manifest validated", "path", m.Path(), "pipelines", len(results), "failed", failed)
	return results
}

func (l *loader) Get(key string) pipeline.Descriptor {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.descriptorCache[key]
}

func (l *loader) Descriptors() map[string]pipeline.Descriptor {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]pipeline.Descriptor, len(l.descriptorCache))
	for k, v := range l.descriptorCache {
		result[k] = v
	}
	return result
}

func (l *loader) Invalidate(keys ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(keys) == 0 {
		clear(l.descriptorCache)
		return
	}
	for _, k := range keys {
		delete(l.descriptorCache, k)
	}
}

func (l *loader) Close() {
	l.pool.Stop()
}

// resolveBackend selects a manifest decoder based on the file extension.
func resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml":
		return newTOMLLoaderBackend(), nil
	case ".yaml", ".yml":
		return newYAMLLoaderBackend(), nil
	default:
		return nil, fmt.Errorf("unsupported manifest format: %s", ext)
	}
}
