package models

import (
	"math"

	"github.com/taigrr/siteview/pkg/math3d"
)

// Unit primitives are centered on the origin and span one unit along each
// used axis, so a node scale equals the shape's extent.

// Box returns a unit cube with outward faces.
func Box() *Mesh {
	const h = 0.5
	m := NewMesh("box")
	p := func(x, y, z float64) math3d.Vec3 { return math3d.V3(x*h, y*h, z*h) }

	addQuad(m, p(1, -1, -1), p(1, 1, -1), p(1, 1, 1), p(1, -1, 1))
	addQuad(m, p(-1, -1, -1), p(-1, -1, 1), p(-1, 1, 1), p(-1, 1, -1))
	addQuad(m, p(-1, 1, -1), p(-1, 1, 1), p(1, 1, 1), p(1, 1, -1))
	addQuad(m, p(-1, -1, -1), p(1, -1, -1), p(1, -1, 1), p(-1, -1, 1))
	addQuad(m, p(-1, -1, 1), p(1, -1, 1), p(1, 1, 1), p(-1, 1, 1))
	addQuad(m, p(-1, -1, -1), p(-1, 1, -1), p(1, 1, -1), p(1, -1, -1))

	m.CalculateBounds()
	return m
}

// Quad returns a unit square in the XY plane facing +Z.
func Quad() *Mesh {
	const h = 0.5
	m := NewMesh("quad")
	addQuad(m,
		math3d.V3(-h, -h, 0), math3d.V3(h, -h, 0),
		math3d.V3(h, h, 0), math3d.V3(-h, h, 0))
	m.CalculateBounds()
	return m
}

// Marker returns a unit-diameter, unit-height cylinder along the Y axis
// with the given number of sides (at least 3).
func Marker(segments int) *Mesh {
	segments = max(segments, 3)
	const h, r = 0.5, 0.5
	m := NewMesh("marker")

	ring := func(i int, y float64) math3d.Vec3 {
		theta := 2 * math.Pi * float64(i%segments) / float64(segments)
		return math3d.V3(r*math.Cos(theta), y, -r*math.Sin(theta))
	}
	top, bottom := math3d.V3(0, h, 0), math3d.V3(0, -h, 0)

	for i := range segments {
		addQuad(m, ring(i, -h), ring(i+1, -h), ring(i+1, h), ring(i, h))
		addTriangle(m, top, ring(i, h), ring(i+1, h))
		addTriangle(m, bottom, ring(i+1, -h), ring(i, -h))
	}

	m.CalculateBounds()
	return m
}

// addQuad appends a flat quad with corners in counter-clockwise order.
func addQuad(m *Mesh, a, b, c, d math3d.Vec3) {
	addTriangle(m, a, b, c)
	addTriangle(m, a, c, d)
}

func addTriangle(m *Mesh, a, b, c math3d.Vec3) {
	n := b.Sub(a).Cross(c.Sub(a)).Normalize()
	base := len(m.Vertices)
	m.Vertices = append(m.Vertices,
		MeshVertex{Position: a, Normal: n},
		MeshVertex{Position: b, Normal: n},
		MeshVertex{Position: c, Normal: n},
	)
	m.Faces = append(m.Faces, Face{V: [3]int{base, base + 1, base + 2}, Material: -1})
}
