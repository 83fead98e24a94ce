package model

// pentagonPositions are the five corners A to E shared by the sandbox pentagons.
var pentagonPositions = [5][3]float32{
	{-0.0868241, 0.49240386, 0.0},
	{-0.49513406, 0.06958647, 0.0},
	{-0.21918549, -0.44939706, 0.0},
	{0.35966998, -0.3473291, 0.0},
	{0.44147372, 0.2347359, 0.0},
}

var pentagonIndices = []uint16{0, 1, 4, 1, 2, 4, 2, 3, 4}

// Triangle is the three-vertex position-only mesh.
//
// Returns:
//   - Model: a non-indexed triangle in clip space
func Triangle() Model {
	verts := []GPUPositionVertex{
		{Position: [3]float32{0.0, 0.5, 0.0}},
		{Position: [3]float32{-0.5, -0.5, 0.0}},
		{Position: [3]float32{0.5, -0.5, 0.0}},
	}
	var data []byte
	for i := range verts {
		data = append(data, verts[i].Marshal()...)
	}
	return NewModel(WithName("triangle"), WithVertices(GPUPositionVertexLayout(), data))
}

// ColoredPentagon is the indexed pentagon with a per-vertex colour.
//
// Returns:
//   - Model: nine indices over five coloured vertices
func ColoredPentagon() Model {
	var data []byte
	for _, p := range pentagonPositions {
		v := GPUColoredVertex{Position: p, Color: [3]float32{0.5, 0.0, 0.5}}
		data = append(data, v.Marshal()...)
	}
	return NewModel(WithName("colored_pentagon"), WithVertices(GPUColoredVertexLayout(), data), WithIndices(pentagonIndices))
}

// TexturedPentagon is the indexed pentagon with texture coordinates mapping the image onto it.
//
// Returns:
//   - Model: nine indices over five textured vertices
func TexturedPentagon() Model {
	var data []byte
	for _, p := range pentagonPositions {
		v := GPUVertex{Position: p, TexCoords: [2]float32{p[0] + 0.5, 1 - (p[1] + 0.5)}}
		data = append(data, v.Marshal()...)
	}
	return NewModel(WithName("textured_pentagon"), WithVertices(GPUVertexLayout(), data), WithIndices(pentagonIndices))
}
