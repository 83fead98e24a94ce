package model

import "github.com/Carmen-Shannon/eyengine/engine/renderer/pipeline"

// ModelBuilderOption is a functional option for configuring a Model.
type ModelBuilderOption func(*model)

// WithName sets the model identifier.
//
// Parameters:
//   - name: the model name
//
// Returns:
//   - ModelBuilderOption: a function that sets the name
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithVertices sets the vertex data and the layout that describes it.
//
// Parameters:
//   - layout: the per-vertex buffer layout
//   - data: the raw vertex bytes
//
// Returns:
//   - ModelBuilderOption: a function that sets the vertices
func WithVertices(layout pipeline.VertexBufferLayout, data []byte) ModelBuilderOption {
	return func(m *model) {
		m.layout = layout.Clone()
		m.vertexData = data
	}
}

// WithIndices sets the 16-bit triangle indices.
//
// Parameters:
//   - indices: the indices, packed with PackIndices
//
// Returns:
//   - ModelBuilderOption: a function that sets the indices
func WithIndices(indices []uint16) ModelBuilderOption {
	return func(m *model) {
		m.indexData = PackIndices(indices)
		m.indexCount = len(indices)
	}
}
