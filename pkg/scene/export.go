package scene

import (
	"fmt"
	"math"

	"github.com/qmuntal/gltf"

	"github.com/taigrr/siteview/pkg/math3d"
	"github.com/taigrr/siteview/pkg/models"
)

// Document converts s into a glTF document with one node per placement.
// Placements share one glTF mesh per shape and material. A root node turns
// the Z-up world into glTF's Y-up frame.
func Document(s *Scene) *gltf.Document {
	doc := gltf.NewDocument()

	up := math3d.QuatRotationX(-math.Pi / 2)
	root := &gltf.Node{
		Name:     s.Name,
		Rotation: [4]float64{up.X, up.Y, up.Z, up.W},
		Scale:    [3]float64{1, 1, 1},
	}
	doc.Nodes = append(doc.Nodes, root)

	type meshKey struct {
		kind     ShapeKind
		material int
	}
	materials := make(map[models.Material]int)
	meshes := make(map[meshKey]int)

	for _, p := range s.Placements {
		mat, ok := materials[p.Material]
		if !ok {
			mat = models.WriteMaterial(doc, p.Material)
			materials[p.Material] = mat
		}

		key := meshKey{kind: p.Shape.Kind, material: mat}
		mesh, ok := meshes[key]
		if !ok {
			unit := UnitMesh(p.Shape.Kind).Clone()
			unit.Name = fmt.Sprintf("%s_%s", p.Shape.Kind, p.Material.Name)
			mesh = models.WriteMesh(doc, unit, mat)
			meshes[key] = mesh
		}

		t, r, sc := p.Transform.Translation, p.Transform.Rotation, p.Shape.Scale()
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name:        nodeName(p),
			Mesh:        gltf.Index(mesh),
			Translation: [3]float64{t.X, t.Y, t.Z},
			Rotation:    [4]float64{r.X, r.Y, r.Z, r.W},
			Scale:       [3]float64{sc.X, sc.Y, sc.Z},
		})
		root.Children = append(root.Children, len(doc.Nodes)-1)
	}

	doc.Scenes = []*gltf.Scene{{Name: s.Name, Nodes: []int{0}}}
	doc.Scene = gltf.Index(0)
	return doc
}

func nodeName(p Placement) string {
	if p.Label != "" {
		return fmt.Sprintf("%s_%d_%s", p.Shape.Kind, p.Source, p.Label)
	}
	return fmt.Sprintf("%s_%d", p.Shape.Kind, p.Source)
}

// ExportGLB writes s as a binary glTF file.
func ExportGLB(path string, s *Scene) error {
	if err := gltf.SaveBinary(Document(s), path); err != nil {
		return fmt.Errorf("export glb: %w", err)
	}
	return nil
}

// ZUp converts meshes read from a glTF file back into the Z-up world frame.
func ZUp() math3d.Mat4 {
	return math3d.RotateX(math.Pi / 2)
}
