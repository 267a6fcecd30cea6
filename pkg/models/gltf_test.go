package models

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"

	"github.com/taigrr/siteview/pkg/math3d"
)

func boxDocument(t *testing.T) *gltf.Document {
	t.Helper()
	doc := gltf.NewDocument()
	mat := WriteMaterial(doc, Material{Name: "wall", BaseColor: [4]float64{0.5, 0.25, 1, 1}, Metallic: 0.1, Roughness: 0.8})
	box := WriteMesh(doc, Box(), mat)

	doc.Nodes = []*gltf.Node{
		{Name: "root", Translation: [3]float64{10, 0, 0}, Rotation: [4]float64{0, 0, 0, 1}, Scale: [3]float64{1, 1, 1}, Children: []int{1}},
		{Name: "box", Mesh: gltf.Index(box), Translation: [3]float64{1, 2, 3}, Rotation: [4]float64{0, 0, 0, 1}, Scale: [3]float64{2, 2, 2}},
	}
	doc.Scenes = []*gltf.Scene{{Name: "site", Nodes: []int{0}}}
	doc.Scene = gltf.Index(0)
	return doc
}

func checkBox(t *testing.T, m *Mesh) {
	t.Helper()
	if got := m.TriangleCount(); got != 12 {
		t.Fatalf("TriangleCount() = %d, want 12", got)
	}
	wantMin, wantMax := math3d.V3(10, 1, 2), math3d.V3(12, 3, 4)
	if !m.BoundsMin.ApproxEqual(wantMin, 1e-6) || !m.BoundsMax.ApproxEqual(wantMax, 1e-6) {
		t.Errorf("bounds = %v..%v, want %v..%v", m.BoundsMin, m.BoundsMax, wantMin, wantMax)
	}

	mat := m.FaceMaterial(0)
	if mat == nil {
		t.Fatal("face 0 has no material")
	}
	if mat.Name != "wall" || math.Abs(mat.Roughness-0.8) > 1e-9 || math.Abs(mat.BaseColor[1]-0.25) > 1e-9 {
		t.Errorf("material = %+v", *mat)
	}
	for i, f := range m.Faces {
		n := m.Vertices[f.V[0]].Normal
		if n.Dot(faceCenter(m, f).Sub(m.Center())) <= 0 {
			t.Fatalf("face %d normal %v points inward after transform", i, n)
		}
	}
}

func TestFromDocumentAppliesNodeHierarchy(t *testing.T) {
	m, err := FromDocument(boxDocument(t), "box")
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}
	checkBox(t, m)
}

func TestGLBRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "box.glb")
	if err := gltf.SaveBinary(boxDocument(t), path); err != nil {
		t.Fatalf("SaveBinary: %v", err)
	}

	m, err := LoadGLB(path)
	if err != nil {
		t.Fatalf("LoadGLB: %v", err)
	}
	if m.Name != "box.glb" {
		t.Errorf("Name = %q", m.Name)
	}
	checkBox(t, m)
}

func TestFromDocumentRejectsBadNode(t *testing.T) {
	doc := boxDocument(t)
	doc.Nodes[0].Children = []int{7}
	if _, err := FromDocument(doc, "bad"); err == nil {
		t.Error("expected error for out-of-range child node")
	}
}

func TestLoadGLBInvalidPath(t *testing.T) {
	_, err := LoadGLB("/nonexistent/path.glb")
	if err == nil {
		t.Error("Expected error for nonexistent file")
	}
}
