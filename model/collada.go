package model

import (
	"fmt"

	"github.com/devblok/lumen/util/collada"
	glm "github.com/go-gl/mathgl/mgl32"
)

var cornerColors = [3]glm.Vec3{
	{1.0, 0.0, 0.0},
	{0.0, 1.0, 0.0},
	{0.0, 0.0, 1.0},
}

// ImportCollada reads the first geometry of a Collada (.dae) document
// and flattens its triangles into vertices. Positions are projected onto
// the XY plane, triangle corners are colored red, green and blue in turn.
func ImportCollada(fileContents []byte) ([]Vertex, error) {
	doc, err := collada.Decode(fileContents)
	if err != nil {
		return nil, err
	}

	mesh, err := doc.FirstMesh()
	if err != nil {
		return nil, err
	}

	positions, err := mesh.Positions()
	if err != nil {
		return nil, err
	}

	offset, ok := mesh.Triangles.Offset("VERTEX")
	if !ok {
		return nil, fmt.Errorf("collada mesh %q: triangles have no VERTEX input", doc.Geometries[0].ID)
	}

	stride := mesh.Triangles.Stride()
	vertices := make([]Vertex, 0, mesh.Triangles.Corners())
	for corner := 0; corner < mesh.Triangles.Corners(); corner++ {
		idx := mesh.Triangles.Index[corner*stride+offset]
		pos, ok := positions.Element(idx)
		if !ok || len(pos) < 2 {
			return nil, fmt.Errorf("collada position index %d out of range", idx)
		}
		vertices = append(vertices, Vertex{
			Pos:   glm.Vec2{pos[0], pos[1]},
			Color: cornerColors[corner%3],
		})
	}
	return vertices, nil
}
