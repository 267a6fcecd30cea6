package models

import (
	"fmt"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/taigrr/siteview/pkg/math3d"
)

// LoadGLB loads a glTF or GLB file and flattens every mesh instance of its
// default scene into one Mesh in the file's own coordinate frame.
func LoadGLB(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	return FromDocument(doc, filepath.Base(path))
}

// FromDocument flattens the node hierarchy of doc's default scene (or its
// first scene) into a Mesh, applying node transforms.
func FromDocument(doc *gltf.Document, name string) (*Mesh, error) {
	mesh := NewMesh(name)
	for _, mat := range doc.Materials {
		mesh.Materials = append(mesh.Materials, readMaterial(mat))
	}

	var roots []int
	switch {
	case doc.Scene != nil && *doc.Scene < len(doc.Scenes):
		roots = doc.Scenes[*doc.Scene].Nodes
	case len(doc.Scenes) > 0:
		roots = doc.Scenes[0].Nodes
	}

	for _, n := range roots {
		if err := walkNode(doc, n, math3d.Identity(), mesh, 0); err != nil {
			return nil, err
		}
	}

	mesh.CalculateBounds()
	return mesh, nil
}

// maxNodeDepth guards against cyclic node graphs.
const maxNodeDepth = 64

func walkNode(doc *gltf.Document, idx int, parent math3d.Mat4, mesh *Mesh, depth int) error {
	if depth > maxNodeDepth {
		return fmt.Errorf("node %d: hierarchy deeper than %d", idx, maxNodeDepth)
	}
	if idx < 0 || idx >= len(doc.Nodes) {
		return fmt.Errorf("node %d out of range", idx)
	}
	node := doc.Nodes[idx]
	world := parent.Mul(nodeMatrix(node))

	if node.Mesh != nil {
		if *node.Mesh >= len(doc.Meshes) {
			return fmt.Errorf("node %d: mesh %d out of range", idx, *node.Mesh)
		}
		m := doc.Meshes[*node.Mesh]
		if err := appendPrimitives(doc, m, world, mesh); err != nil {
			return fmt.Errorf("process mesh %q: %w", m.Name, err)
		}
	}

	for _, child := range node.Children {
		if err := walkNode(doc, child, world, mesh, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func nodeMatrix(n *gltf.Node) math3d.Mat4 {
	var zero [16]float64
	if n.Matrix != zero && n.Matrix != [16]float64(math3d.Identity()) {
		return math3d.Mat4(n.Matrix)
	}

	r := math3d.Quat{X: n.Rotation[0], Y: n.Rotation[1], Z: n.Rotation[2], W: n.Rotation[3]}
	s := math3d.V3(n.Scale[0], n.Scale[1], n.Scale[2])
	if s == math3d.Zero3() {
		s = math3d.V3(1, 1, 1)
	}
	return math3d.TRS(math3d.V3(n.Translation[0], n.Translation[1], n.Translation[2]), r.Normalize(), s)
}

// appendPrimitives adds the triangle primitives of m, transformed by world.
func appendPrimitives(doc *gltf.Document, m *gltf.Mesh, world math3d.Mat4, mesh *Mesh) error {
	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
			// Skip non-triangle primitives (lines, points, etc)
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}

		var normals [][3]float32
		if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			normals, err = modeler.ReadNormal(doc, doc.Accessors[normIdx], nil)
			if err != nil {
				return fmt.Errorf("read normals: %w", err)
			}
		}

		var indices []uint32
		if prim.Indices != nil {
			indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
			if err != nil {
				return fmt.Errorf("read indices: %w", err)
			}
		} else {
			indices = make([]uint32, len(positions))
			for i := range indices {
				indices[i] = uint32(i)
			}
		}

		material := -1
		if prim.Material != nil && *prim.Material < len(mesh.Materials) {
			material = *prim.Material
		}

		part := NewMesh(m.Name)
		for i, p := range positions {
			v := MeshVertex{Position: math3d.V3(float64(p[0]), float64(p[1]), float64(p[2]))}
			if i < len(normals) {
				n := normals[i]
				v.Normal = math3d.V3(float64(n[0]), float64(n[1]), float64(n[2]))
			}
			part.Vertices = append(part.Vertices, v)
		}
		for i := 0; i+2 < len(indices); i += 3 {
			f := Face{V: [3]int{int(indices[i]), int(indices[i+1]), int(indices[i+2])}, Material: material}
			if f.V[0] >= len(positions) || f.V[1] >= len(positions) || f.V[2] >= len(positions) {
				return fmt.Errorf("index out of range for %d vertices", len(positions))
			}
			part.Faces = append(part.Faces, f)
		}
		if len(normals) == 0 {
			part.CalculateNormals()
		}

		// materials already live on mesh; append geometry only
		base := len(mesh.Vertices)
		for _, v := range part.Vertices {
			mesh.Vertices = append(mesh.Vertices, MeshVertex{
				Position: world.MulVec3(v.Position),
				Normal:   world.MulVec3Dir(v.Normal).Normalize(),
			})
		}
		for _, f := range part.Faces {
			f.V = [3]int{f.V[0] + base, f.V[1] + base, f.V[2] + base}
			mesh.Faces = append(mesh.Faces, f)
		}
	}
	return nil
}

func readMaterial(mat *gltf.Material) Material {
	out := Material{
		Name:      mat.Name,
		BaseColor: [4]float64{1, 1, 1, 1},
		Metallic:  1,
		Roughness: 1,
	}
	pbr := mat.PBRMetallicRoughness
	if pbr == nil {
		return out
	}
	if pbr.BaseColorFactor != nil {
		out.BaseColor = *pbr.BaseColorFactor
	}
	if pbr.MetallicFactor != nil {
		out.Metallic = *pbr.MetallicFactor
	}
	if pbr.RoughnessFactor != nil {
		out.Roughness = *pbr.RoughnessFactor
	}
	return out
}

// WriteMaterial adds mat to doc and returns its index.
func WriteMaterial(doc *gltf.Document, mat Material) int {
	color := mat.BaseColor
	doc.Materials = append(doc.Materials, &gltf.Material{
		Name:        mat.Name,
		DoubleSided: true,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &color,
			MetallicFactor:  gltf.Float(mat.Metallic),
			RoughnessFactor: gltf.Float(mat.Roughness),
		},
	})
	return len(doc.Materials) - 1
}

// WriteMesh adds m to doc as a single triangle primitive using the given
// material and returns the glTF mesh index. Face materials are ignored.
func WriteMesh(doc *gltf.Document, m *Mesh, material int) int {
	positions := make([][3]float32, len(m.Vertices))
	normals := make([][3]float32, len(m.Vertices))
	for i, v := range m.Vertices {
		positions[i] = [3]float32{float32(v.Position.X), float32(v.Position.Y), float32(v.Position.Z)}
		normals[i] = [3]float32{float32(v.Normal.X), float32(v.Normal.Y), float32(v.Normal.Z)}
	}
	indices := make([]uint32, 0, 3*len(m.Faces))
	for _, f := range m.Faces {
		indices = append(indices, uint32(f.V[0]), uint32(f.V[1]), uint32(f.V[2]))
	}

	prim := &gltf.Primitive{
		Attributes: map[string]int{
			gltf.POSITION: modeler.WritePosition(doc, positions),
			gltf.NORMAL:   modeler.WriteNormal(doc, normals),
		},
		Indices: gltf.Index(modeler.WriteIndices(doc, indices)),
	}
	if material >= 0 {
		prim.Material = gltf.Index(material)
	}

	doc.Meshes = append(doc.Meshes, &gltf.Mesh{Name: m.Name, Primitives: []*gltf.Primitive{prim}})
	return len(doc.Meshes) - 1
}
