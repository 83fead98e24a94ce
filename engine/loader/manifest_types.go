package loader

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
)

// Manifest is a decoded pipeline manifest. Shader paths inside it are relative to the
// manifest file.
type Manifest struct {
	Pipelines []PipelineSpec `toml:"pipeline" yaml:"pipelines"`

	path string
	fsys fs.FS
}

// PipelineSpec describes one pipeline: its shader files, vertex buffers in slot order and the
// resources the host binds. A compute pipeline names only Compute.
type PipelineSpec struct {
	Key           string         `toml:"key" yaml:"key"`
	Vertex        string         `toml:"vertex" yaml:"vertex"`
	Fragment      string         `toml:"fragment" yaml:"fragment"`
	Compute       string         `toml:"compute" yaml:"compute"`
	VertexEntry   string         `toml:"vertex_entry" yaml:"vertex_entry"`
	FragmentEntry string         `toml:"fragment_entry" yaml:"fragment_entry"`
	ComputeEntry  string         `toml:"compute_entry" yaml:"compute_entry"`
	Buffers       []BufferSpec   `toml:"buffer" yaml:"buffers"`
	Resources     []ResourceSpec `toml:"resource" yaml:"resources"`
}

// BufferSpec is one vertex buffer. Layout names a built-in layout ("position", "colored",
// "textured" or "instance"); otherwise StepMode and Attributes spell it out.
type BufferSpec struct {
	Layout     string          `toml:"layout" yaml:"layout"`
	StepMode   string          `toml:"step_mode" yaml:"step_mode"`
	Attributes []AttributeSpec `toml:"attribute" yaml:"attributes"`
}

// AttributeSpec is one attribute of an explicit buffer. Offsets follow from the order.
type AttributeSpec struct {
	Location uint32 `toml:"location" yaml:"location"`
	Format   string `toml:"format" yaml:"format"`
	Role     string `toml:"role" yaml:"role"`
}

// ResourceSpec is one resource the host binds at (Group, Binding).
type ResourceSpec struct {
	Group      uint32   `toml:"group" yaml:"group"`
	Binding    uint32   `toml:"binding" yaml:"binding"`
	Kind       string   `toml:"kind" yaml:"kind"`
	Visibility []string `toml:"visibility" yaml:"visibility"`
}

// Path returns where the manifest was read from: an OS path, or a slash path inside the
// file system given to LoadFS.
func (m *Manifest) Path() string {
	return m.path
}

// OnDisk reports whether the manifest was read from the OS file system.
func (m *Manifest) OnDisk() bool {
	return m.fsys == nil
}

// Resolve turns a path relative to the manifest into a path ReadFile accepts.
//
// Parameters:
//   - rel: a path relative to the manifest file
//
// Returns:
//   - string: the resolved path
func (m *Manifest) Resolve(rel string) string {
	if m.fsys != nil {
		return path.Join(path.Dir(m.path), rel)
	}
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(filepath.Dir(m.path), filepath.FromSlash(rel))
}

// ReadFile reads a file named relative to the manifest.
//
// Parameters:
//   - rel: a path relative to the manifest file
//
// Returns:
//   - []byte: the file contents
//   - error: the read error, if any
func (m *Manifest) ReadFile(rel string) ([]byte, error) {
	if m.fsys != nil {
		return fs.ReadFile(m.fsys, m.Resolve(rel))
	}
	return os.ReadFile(m.Resolve(rel))
}

// ReadResolved reads a file already passed through Resolve, such as a ParseError path.
//
// Parameters:
//   - name: a path returned by Resolve or ShaderFiles
//
// Returns:
//   - []byte: the file contents
//   - error: the read error, if any
func (m *Manifest) ReadResolved(name string) ([]byte, error) {
	if m.fsys != nil {
		return fs.ReadFile(m.fsys, name)
	}
	return os.ReadFile(name)
}

// Pipeline looks up a pipeline by key.
//
// Parameters:
//   - key: the pipeline key
//
// Returns:
//   - PipelineSpec: the matching pipeline
//   - bool: false if no pipeline has that key
func (m *Manifest) Pipeline(key string) (PipelineSpec, bool) {
	for _, p := range m.Pipelines {
		if p.Key == key {
			return p, true
		}
	}
	return PipelineSpec{}, false
}

// ShaderFiles returns every shader file the manifest names, resolved and deduplicated.
func (m *Manifest) ShaderFiles() []string {
	var out []string
	for _, p := range m.Pipelines {
		for _, rel := range []string{p.Vertex, p.Fragment, p.Compute} {
			if rel == "" {
				continue
			}
			if f := m.Resolve(rel); !slices.Contains(out, f) {
				out = append(out, f)
			}
		}
	}
	return out
}

func (m *Manifest) check() error {
	seen := make(map[string]bool, len(m.Pipelines))
	for i, p := range m.Pipelines {
		if p.Key == "" {
			return fmt.Errorf("pipeline %d has no key", i)
		}
		if seen[p.Key] {
			return fmt.Errorf("pipeline key %q is used twice", p.Key)
		}
		seen[p.Key] = true
	}
	return nil
}
