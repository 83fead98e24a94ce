package model

import (
	"encoding/binary"
	"sync"

	"github.com/Carmen-Shannon/eyengine/common"
	"github.com/Carmen-Shannon/eyengine/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// model is the implementation of the Model interface.
type model struct {
	mu sync.Mutex

	name       string
	layout     pipeline.VertexBufferLayout
	vertexData []byte
	indexData  []byte
	indexCount int

	vertexBuffer *wgpu.Buffer
	indexBuffer  *wgpu.Buffer
}

// Model is an indexed mesh: CPU-side vertex and 16-bit index data, the buffer layout that
// describes the vertices, and the GPU buffers once the Renderer has uploaded them.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Layout returns the per-vertex buffer layout of VertexData.
	//
	// Returns:
	//   - pipeline.VertexBufferLayout: the layout
	Layout() pipeline.VertexBufferLayout

	// VertexData returns the raw vertex bytes.
	//
	// Returns:
	//   - []byte: the vertex data
	VertexData() []byte

	// IndexData returns the raw uint16 index bytes, padded to a 4 byte multiple.
	//
	// Returns:
	//   - []byte: the index data
	IndexData() []byte

	// IndexCount returns the number of indices, not counting padding.
	//
	// Returns:
	//   - int: the index count
	IndexCount() int

	// VertexCount returns the number of vertices in VertexData.
	//
	// Returns:
	//   - int: the vertex count, 0 if the layout has no stride
	VertexCount() int

	// IndexFormat returns the index format used for drawing.
	//
	// Returns:
	//   - wgpu.IndexFormat: always wgpu.IndexFormatUint16
	IndexFormat() wgpu.IndexFormat

	// VertexBuffer returns the GPU vertex buffer, nil until uploaded.
	//
	// Returns:
	//   - *wgpu.Buffer: the vertex buffer
	VertexBuffer() *wgpu.Buffer

	// IndexBuffer returns the GPU index buffer, nil until uploaded or when the mesh is not indexed.
	//
	// Returns:
	//   - *wgpu.Buffer: the index buffer
	IndexBuffer() *wgpu.Buffer

	// SetBuffers stores the GPU buffers created by the Renderer.
	//
	// Parameters:
	//   - vertex: the vertex buffer
	//   - index: the index buffer, nil for a non-indexed mesh
	SetBuffers(vertex, index *wgpu.Buffer)

	// Release releases the GPU buffers.
	Release()
}

var _ Model = &model{}

// NewModel creates a model from builder options.
//
// Parameters:
//   - options: ModelBuilderOption values
//
// Returns:
//   - Model: the model
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// PackIndices serializes 16-bit indices and pads the result to a multiple of
// common.CopyBufferAlignment, since queue writes must be 4 byte aligned.
//
// Parameters:
//   - indices: the triangle indices
//
// Returns:
//   - []byte: the padded little-endian index bytes
func PackIndices(indices []uint16) []byte {
	buf := make([]byte, common.AlignUp(len(indices)*2, common.CopyBufferAlignment))
	for i, idx := range indices {
		binary.LittleEndian.PutUint16(buf[i*2:], idx)
	}
	return buf
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Layout() pipeline.VertexBufferLayout {
	return m.layout.Clone()
}

func (m *model) VertexData() []byte {
	return m.vertexData
}

func (m *model) IndexData() []byte {
	return m.indexData
}

func (m *model) IndexCount() int {
	return m.indexCount
}

func (m *model) VertexCount() int {
	if m.layout.Stride == 0 {
		return 0
	}
	return len(m.vertexData) / int(m.layout.Stride)
}

func (m *model) IndexFormat() wgpu.IndexFormat {
	return wgpu.IndexFormatUint16
}

func (m *model) VertexBuffer() *wgpu.Buffer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.vertexBuffer
}

func (m *model) IndexBuffer() *wgpu.Buffer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.indexBuffer
}

func (m *model) SetBuffers(vertex, index *wgpu.Buffer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vertexBuffer = vertex
	m.indexBuffer = index
}

func (m *model) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.vertexBuffer != nil {
		m.vertexBuffer.Release()
		m.vertexBuffer = nil
	}
	if m.indexBuffer != nil {
		m.indexBuffer.Release()
		m.indexBuffer = nil
	}
}
