// Package scene turns a site map into placements: one shaped, colored,
// positioned primitive per vertex, lane and wall. World space is Z-up with
// the map's centroid at the origin.
package scene

import (
	"errors"
	"fmt"
	"math"

	"github.com/taigrr/siteview/pkg/math3d"
	"github.com/taigrr/siteview/pkg/models"
)

// ShapeKind identifies the primitive a placement draws.
type ShapeKind int

const (
	ShapeMarker ShapeKind = iota // vertex cylinder, axis along world Z
	ShapeLane                    // flat quad on the ground plane
	ShapeWall                    // box standing on the ground plane
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeMarker:
		return "marker"
	case ShapeLane:
		return "lane"
	case ShapeWall:
		return "wall"
	default:
		return fmt.Sprintf("ShapeKind(%d)", int(k))
	}
}

var unitMeshes = map[ShapeKind]*models.Mesh{
	ShapeMarker: models.Marker(24),
	ShapeLane:   models.Quad(),
	ShapeWall:   models.Box(),
}

// UnitMesh returns the shared unit mesh for k. Callers must not modify it.
func UnitMesh(k ShapeKind) *models.Mesh {
	return unitMeshes[k]
}

// Shape is a primitive and its extent along its local axes. Lanes are flat
// and report zero extent along Z.
type Shape struct {
	Kind ShapeKind
	Size math3d.Vec3
}

// Scale returns the node scale that maps the unit mesh onto the shape.
func (s Shape) Scale() math3d.Vec3 {
	if s.Kind == ShapeLane {
		return math3d.V3(s.Size.X, s.Size.Y, 1)
	}
	return s.Size
}

// Transform places a shape in world space.
type Transform struct {
	Translation math3d.Vec3
	Rotation    math3d.Quat
}

// Placement is one emitted primitive.
type Placement struct {
	Shape     Shape
	Material  models.Material
	Transform Transform

	// Yaw and Length describe edges; markers leave them zero.
	Yaw    float64
	Length float64
	// Source is the vertex, lane or wall index in the site map.
	Source int
	Label  string
}

// Model returns the placement's model matrix.
func (p Placement) Model() math3d.Mat4 {
	return math3d.TRS(p.Transform.Translation, p.Transform.Rotation, p.Shape.Scale())
}

// Options are the layout constants.
type Options struct {
	// Scale converts map units to world units.
	Scale float64

	LaneWidth     float64
	LaneZBase     float64
	LaneZStep     float64
	WallThickness float64
	WallHeight    float64
	MarkerRadius  float64
	MarkerDepth   float64

	MarkerMaterial models.Material
	LaneMaterial   models.Material
	WallMaterial   models.Material
}

// DefaultOptions returns the layout used for site maps drawn in pixel
// coordinates.
func DefaultOptions() Options {
	return Options{
		Scale:         0.01,
		LaneWidth:     0.5,
		LaneZBase:     0.01,
		LaneZStep:     0.001,
		WallThickness: 0.1,
		WallHeight:    1.0,
		MarkerRadius:  0.25,
		MarkerDepth:   0.05,

		MarkerMaterial: models.Material{Name: "vertex", BaseColor: [4]float64{0.9, 0.6, 0.1, 1}, Roughness: 0.6},
		LaneMaterial:   models.Material{Name: "lane", BaseColor: [4]float64{0.2, 0.5, 0.9, 1}, Roughness: 0.8},
		WallMaterial:   models.Material{Name: "wall", BaseColor: [4]float64{0.85, 0.85, 0.8, 1}, Roughness: 0.9},
	}
}

// Validate reports options that would produce degenerate geometry.
func (o Options) Validate() error {
	var errs []error
	for name, v := range map[string]float64{
		"scale":          o.Scale,
		"lane width":     o.LaneWidth,
		"wall thickness": o.WallThickness,
		"wall height":    o.WallHeight,
		"marker radius":  o.MarkerRadius,
		"marker depth":   o.MarkerDepth,
	} {
		if !(v > 0) || math.IsInf(v, 0) {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", name, v))
		}
	}
	if o.LaneZStep < 0 {
		errs = append(errs, fmt.Errorf("lane z step must not be negative, got %v", o.LaneZStep))
	}
	return errors.Join(errs...)
}

// Scene is the result of one Build.
type Scene struct {
	Name       string
	Placements []Placement

	// Centroid is the map-space centering offset.
	Centroid math3d.Vec2
	Scale    float64

	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3
}

// Extent returns the largest horizontal distance from the origin to the
// scene bounds.
func (s *Scene) Extent() float64 {
	return math.Max(
		math.Max(math.Abs(s.BoundsMin.X), math.Abs(s.BoundsMax.X)),
		math.Max(math.Abs(s.BoundsMin.Y), math.Abs(s.BoundsMax.Y)),
	)
}

// Count returns the number of placements of kind k.
func (s *Scene) Count(k ShapeKind) int {
	n := 0
	for _, p := range s.Placements {
		if p.Shape.Kind == k {
			n++
		}
	}
	return n
}
