package models

import (
	"math"
	"testing"

	"github.com/taigrr/siteview/pkg/math3d"
)

const eps = 1e-9

func faceCenter(m *Mesh, f Face) math3d.Vec3 {
	a := m.Vertices[f.V[0]].Position
	b := m.Vertices[f.V[1]].Position
	c := m.Vertices[f.V[2]].Position
	return a.Add(b).Add(c).Scale(1.0 / 3)
}

func TestPrimitivesFaceOutward(t *testing.T) {
	tests := []struct {
		name      string
		mesh      *Mesh
		triangles int
	}{
		{"box", Box(), 12},
		{"marker", Marker(16), 64},
		{"marker minimum sides", Marker(1), 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.mesh.TriangleCount(); got != tt.triangles {
				t.Fatalf("TriangleCount() = %d, want %d", got, tt.triangles)
			}
			for i, f := range tt.mesh.Faces {
				n := tt.mesh.Vertices[f.V[0]].Normal
				if math.Abs(n.Len()-1) > 1e-9 {
					t.Fatalf("face %d normal %v not unit length", i, n)
				}
				if n.Dot(faceCenter(tt.mesh, f)) <= 0 {
					t.Errorf("face %d normal %v points inward", i, n)
				}
				if f.Material != -1 {
					t.Errorf("face %d material = %d, want -1", i, f.Material)
				}
			}
		})
	}
}

func TestPrimitiveBounds(t *testing.T) {
	tests := []struct {
		name string
		mesh *Mesh
		size math3d.Vec3
	}{
		{"box", Box(), math3d.V3(1, 1, 1)},
		{"quad", Quad(), math3d.V3(1, 1, 0)},
		{"marker", Marker(16), math3d.V3(1, 1, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.mesh.Size(); !got.ApproxEqual(tt.size, 1e-12) {
				t.Errorf("Size() = %v, want %v", got, tt.size)
			}
			if got := tt.mesh.Center(); !got.ApproxEqual(math3d.Zero3(), 1e-12) {
				t.Errorf("Center() = %v, want origin", got)
			}
		})
	}
}

func TestQuadFacesUp(t *testing.T) {
	q := Quad()
	for _, v := range q.Vertices {
		if !v.Normal.ApproxEqual(math3d.UnitZ(), eps) {
			t.Fatalf("quad normal = %v, want +Z", v.Normal)
		}
	}
}

func TestTransform(t *testing.T) {
	m := Box()
	m.Transform(math3d.TRS(math3d.V3(1, 2, 3), math3d.QuatIdentity(), math3d.V3(4, 2, 1)))

	if !m.BoundsMin.ApproxEqual(math3d.V3(-1, 1, 2.5), eps) || !m.BoundsMax.ApproxEqual(math3d.V3(3, 3, 3.5), eps) {
		t.Errorf("bounds = %v..%v", m.BoundsMin, m.BoundsMax)
	}
	for _, v := range m.Vertices {
		if math.Abs(v.Normal.Len()-1) > eps {
			t.Fatalf("normal %v not renormalized", v.Normal)
		}
	}
}

func TestAppendRemapsMaterials(t *testing.T) {
	dst := NewMesh("dst")
	dst.Materials = []Material{{Name: "floor"}}
	dst.Append(Quad(), math3d.Identity())

	src := Box()
	src.Materials = []Material{{Name: "wall"}}
	src.Faces[0].Material = 0
	dst.Append(src, math3d.Translate(math3d.V3(0, 0, 5)))

	if got := dst.VertexCount(); got != 6+36 {
		t.Fatalf("VertexCount() = %d, want 42", got)
	}
	if got := dst.FaceMaterial(2); got == nil || got.Name != "wall" {
		t.Errorf("FaceMaterial(2) = %v, want wall", got)
	}
	if got := dst.FaceMaterial(3); got != nil {
		t.Errorf("FaceMaterial(3) = %v, want nil", got)
	}
	if got := dst.Faces[2].V[0]; got != 6 {
		t.Errorf("appended face starts at vertex %d, want 6", got)
	}
	if math.Abs(dst.BoundsMax.Z-5.5) > eps {
		t.Errorf("BoundsMax.Z = %f, want 5.5", dst.BoundsMax.Z)
	}
}

func TestMeshClonePreservesMaterials(t *testing.T) {
	mesh := NewMesh("original")
	mesh.Materials = []Material{
		{Name: "mat1", BaseColor: [4]float64{1, 0, 0, 1}},
		{Name: "mat2", BaseColor: [4]float64{0, 1, 0, 1}},
	}
	mesh.Faces = []Face{
		{V: [3]int{0, 1, 2}, Material: 0},
		{V: [3]int{3, 4, 5}, Material: 1},
	}

	clone := mesh.Clone()

	clone.Materials[0].Name = "modified"
	if mesh.Materials[0].Name == "modified" {
		t.Errorf("Clone should have independent material copy")
	}
	if clone.FaceMaterial(1).Name != "mat2" {
		t.Errorf("Clone should preserve face material indices")
	}
	if mesh.Material(-1) != nil || mesh.Material(99) != nil {
		t.Errorf("Material should return nil out of range")
	}
}

func TestEmptyMeshBounds(t *testing.T) {
	m := NewMesh("empty")
	m.BoundsMax = math3d.V3(1, 1, 1)
	m.CalculateBounds()
	if m.Size() != math3d.Zero3() {
		t.Errorf("empty mesh size = %v", m.Size())
	}
}

func BenchmarkMarker(b *testing.B) {
	for b.Loop() {
		Marker(16)
	}
}
