package scene

import (
	"fmt"
	"math"

	"github.com/taigrr/siteview/pkg/math3d"
	"github.com/taigrr/siteview/pkg/sitemap"
)

// Build lays out m. It never mutates m and returns nothing unless every
// element could be placed.
func Build(m *sitemap.SiteMap, opts Options) (*Scene, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("build scene: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("build scene: %w", err)
	}
	centroid, err := m.Centroid()
	if err != nil {
		return nil, fmt.Errorf("build scene: %w", err)
	}

	s := &Scene{
		Name:       m.Name,
		Centroid:   centroid,
		Scale:      opts.Scale,
		Placements: make([]Placement, 0, len(m.Vertices)+len(m.Lanes)+len(m.Walls)),
	}
	world := func(p math3d.Vec2) math3d.Vec2 {
		return p.Sub(centroid).Scale(opts.Scale)
	}

	// markers lie flat: the cylinder axis turns from local Y to world Z
	flat := math3d.QuatRotationX(math.Pi / 2)
	for i, v := range m.Vertices {
		s.Placements = append(s.Placements, Placement{
			Shape: Shape{
				Kind: ShapeMarker,
				Size: math3d.V3(2*opts.MarkerRadius, opts.MarkerDepth, 2*opts.MarkerRadius),
			},
			Material:  opts.MarkerMaterial,
			Transform: Transform{Translation: world(v.Position).Vec3(0), Rotation: flat},
			Source:    i,
			Label:     v.Name,
		})
	}

	for i, e := range m.Lanes {
		seg := segment(m, e, world)
		z := opts.LaneZBase + opts.LaneZStep*float64(i)
		s.Placements = append(s.Placements, Placement{
			Shape:     Shape{Kind: ShapeLane, Size: math3d.V3(seg.length, opts.LaneWidth, 0)},
			Material:  opts.LaneMaterial,
			Transform: Transform{Translation: seg.mid.Vec3(z), Rotation: math3d.QuatRotationZ(seg.yaw)},
			Yaw:       seg.yaw,
			Length:    seg.length,
			Source:    i,
		})
	}

	for i, e := range m.Walls {
		seg := segment(m, e, world)
		s.Placements = append(s.Placements, Placement{
			Shape:     Shape{Kind: ShapeWall, Size: math3d.V3(seg.length, opts.WallThickness, opts.WallHeight)},
			Material:  opts.WallMaterial,
			Transform: Transform{Translation: seg.mid.Vec3(opts.WallHeight / 2), Rotation: math3d.QuatRotationZ(seg.yaw)},
			Yaw:       seg.yaw,
			Length:    seg.length,
			Source:    i,
		})
	}

	s.BoundsMin, s.BoundsMax = bounds(s.Placements)
	return s, nil
}

type edgeSegment struct {
	mid    math3d.Vec2
	yaw    float64
	length float64
}

func segment(m *sitemap.SiteMap, e sitemap.Edge, world func(math3d.Vec2) math3d.Vec2) edgeSegment {
	a, b := m.Endpoints(e)
	wa, wb := world(a), world(b)
	d := wb.Sub(wa)
	return edgeSegment{
		mid:    wa.Add(wb).Scale(0.5),
		yaw:    math.Atan2(d.Y, d.X),
		length: d.Len(),
	}
}

// bounds returns the world box enclosing every placement's oriented extent.
func bounds(ps []Placement) (math3d.Vec3, math3d.Vec3) {
	if len(ps) == 0 {
		return math3d.Zero3(), math3d.Zero3()
	}
	inf := math.Inf(1)
	lo, hi := math3d.V3(inf, inf, inf), math3d.V3(-inf, -inf, -inf)

	for _, p := range ps {
		h := p.Shape.Size.Scale(0.5)
		for _, sx := range []float64{-1, 1} {
			for _, sy := range []float64{-1, 1} {
				for _, sz := range []float64{-1, 1} {
					corner := p.Transform.Rotation.Rotate(math3d.V3(sx*h.X, sy*h.Y, sz*h.Z))
					w := p.Transform.Translation.Add(corner)
					lo, hi = lo.Min(w), hi.Max(w)
				}
			}
		}
	}
	return lo, hi
}
