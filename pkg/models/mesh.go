// Package models provides triangle meshes for site-map primitives and
// conversion between meshes and glTF documents.
package models

import (
	"github.com/taigrr/siteview/pkg/math3d"
)

// Mesh is an indexed triangle mesh with per-face materials.
type Mesh struct {
	Name      string
	Vertices  []MeshVertex
	Faces     []Face
	Materials []Material

	// Bounding box (calculated on load)
	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3
}

// MeshVertex holds the vertex attributes used by the rasterizer.
type MeshVertex struct {
	Position math3d.Vec3
	Normal   math3d.Vec3
}

// Face is a triangle. Front faces wind counter-clockwise seen from outside.
type Face struct {
	V        [3]int // Indices into Mesh.Vertices
	Material int    // Index into Mesh.Materials (-1 for no material)
}

// Material is a metallic-roughness surface description.
type Material struct {
	Name      string
	BaseColor [4]float64 // RGBA in 0-1 range
	Metallic  float64
	Roughness float64
}

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{Name: name}
}

// CalculateBounds computes the axis-aligned bounding box.
func (m *Mesh) CalculateBounds() {
	if len(m.Vertices) == 0 {
		m.BoundsMin, m.BoundsMax = math3d.Zero3(), math3d.Zero3()
		return
	}

	m.BoundsMin = m.Vertices[0].Position
	m.BoundsMax = m.Vertices[0].Position
	for _, v := range m.Vertices[1:] {
		m.BoundsMin = m.BoundsMin.Min(v.Position)
		m.BoundsMax = m.BoundsMax.Max(v.Position)
	}
}

// Center returns the center of the bounding box.
func (m *Mesh) Center() math3d.Vec3 {
	return m.BoundsMin.Add(m.BoundsMax).Scale(0.5)
}

// Size returns the dimensions of the bounding box.
func (m *Mesh) Size() math3d.Vec3 {
	return m.BoundsMax.Sub(m.BoundsMin)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Faces)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// CalculateNormals assigns each face's normal to its vertices. Meshes that
// share vertices between faces get the normal of the last face written.
func (m *Mesh) CalculateNormals() {
	for _, f := range m.Faces {
		v0 := m.Vertices[f.V[0]].Position
		v1 := m.Vertices[f.V[1]].Position
		v2 := m.Vertices[f.V[2]].Position
		normal := v1.Sub(v0).Cross(v2.Sub(v0)).Normalize()

		for _, i := range f.V {
			m.Vertices[i].Normal = normal
		}
	}
}

// Transform applies mat to every vertex. Normals use the upper 3x3 only,
// which is exact for rotations and uniform scales.
func (m *Mesh) Transform(mat math3d.Mat4) {
	for i := range m.Vertices {
		m.Vertices[i].Position = mat.MulVec3(m.Vertices[i].Position)
		m.Vertices[i].Normal = mat.MulVec3Dir(m.Vertices[i].Normal).Normalize()
	}
	m.CalculateBounds()
}

// Append adds other's geometry transformed by mat. Materials are appended
// and face material indices remapped.
func (m *Mesh) Append(other *Mesh, mat math3d.Mat4) {
	baseVertex := len(m.Vertices)
	baseMaterial := len(m.Materials)

	for _, v := range other.Vertices {
		m.Vertices = append(m.Vertices, MeshVertex{
			Position: mat.MulVec3(v.Position),
			Normal:   mat.MulVec3Dir(v.Normal).Normalize(),
		})
	}
	m.Materials = append(m.Materials, other.Materials...)

	for _, f := range other.Faces {
		nf := Face{
			V:        [3]int{f.V[0] + baseVertex, f.V[1] + baseVertex, f.V[2] + baseVertex},
			Material: -1,
		}
		if f.Material >= 0 {
			nf.Material = f.Material + baseMaterial
		}
		m.Faces = append(m.Faces, nf)
	}
	m.CalculateBounds()
}

// Clone creates a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	clone := &Mesh{
		Name:      m.Name,
		Vertices:  make([]MeshVertex, len(m.Vertices)),
		Faces:     make([]Face, len(m.Faces)),
		Materials: make([]Material, len(m.Materials)),
		BoundsMin: m.BoundsMin,
		BoundsMax: m.BoundsMax,
	}
	copy(clone.Vertices, m.Vertices)
	copy(clone.Faces, m.Faces)
	copy(clone.Materials, m.Materials)
	return clone
}

// FaceMaterial returns the material for face i, or nil.
func (m *Mesh) FaceMaterial(i int) *Material {
	return m.Material(m.Faces[i].Material)
}

// Material returns the material at index i.
// Returns nil if index is out of bounds or -1.
func (m *Mesh) Material(i int) *Material {
	if i < 0 || i >= len(m.Materials) {
		return nil
	}
	return &m.Materials[i]
}
