package render

import (
	"math"

	"github.com/taigrr/siteview/pkg/math3d"
	"github.com/taigrr/siteview/pkg/models"
)

// Wireframe renders 3D line work: mesh edges, the ground grid, axes and
// markers. Lines are not depth tested.
type Wireframe struct {
	camera *Camera
	fb     *Framebuffer
}

// NewWireframe creates a new wireframe renderer.
func NewWireframe(camera *Camera, fb *Framebuffer) *Wireframe {
	return &Wireframe{camera: camera, fb: fb}
}

// DrawLine3D draws a world-space segment, clipped against the camera plane.
func (w *Wireframe) DrawLine3D(p1, p2 math3d.Vec3, color Color) {
	vp := w.camera.ViewProjectionMatrix()
	a := vp.MulVec4(math3d.V4FromV3(p1, 1))
	b := vp.MulVec4(math3d.V4FromV3(p2, 1))

	if a.W < minClipW && b.W < minClipW {
		return
	}
	// move the end behind the camera up to the clip plane
	if a.W < minClipW {
		a = clipToW(b, a)
	} else if b.W < minClipW {
		b = clipToW(a, b)
	}

	x1, y1 := ndcToScreen(a.PerspectiveDivide(), w.fb.Width, w.fb.Height)
	x2, y2 := ndcToScreen(b.PerspectiveDivide(), w.fb.Width, w.fb.Height)
	x1, y1, x2, y2, ok := w.clipToScreen(x1, y1, x2, y2)
	if !ok {
		return
	}
	w.fb.DrawLine(int(math.Floor(x1)), int(math.Floor(y1)), int(math.Floor(x2)), int(math.Floor(y2)), color)
}

// clipToW returns the point on in→out where w reaches minClipW.
func clipToW(in, out math3d.Vec4) math3d.Vec4 {
	t := (in.W - minClipW) / (in.W - out.W)
	lerp := func(a, b float64) float64 { return a + (b-a)*t }
	return math3d.V4(lerp(in.X, out.X), lerp(in.Y, out.Y), lerp(in.Z, out.Z), minClipW)
}

// clipToScreen trims a screen-space segment to a one-pixel margin around the
// framebuffer (Liang-Barsky). Ends near the camera plane project millions of
// pixels away and would otherwise stall Bresenham.
func (w *Wireframe) clipToScreen(x1, y1, x2, y2 float64) (float64, float64, float64, float64, bool) {
	minX, minY := -1.0, -1.0
	maxX, maxY := float64(w.fb.Width), float64(w.fb.Height)
	dx, dy := x2-x1, y2-y1

	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-dx, x1 - minX},
		{dx, maxX - x1},
		{-dy, y1 - minY},
		{dy, maxY - y1},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return 0, 0, 0, 0, false
			}
			t0 = max(t0, r)
		} else {
			if r < t0 {
				return 0, 0, 0, 0, false
			}
			t1 = min(t1, r)
		}
	}
	return x1 + t0*dx, y1 + t0*dy, x1 + t1*dx, y1 + t1*dy, true
}

// DrawMesh draws every triangle edge of m transformed by model.
func (w *Wireframe) DrawMesh(m *models.Mesh, model math3d.Mat4, color Color) {
	for _, f := range m.Faces {
		a := model.MulVec3(m.Vertices[f.V[0]].Position)
		b := model.MulVec3(m.Vertices[f.V[1]].Position)
		c := model.MulVec3(m.Vertices[f.V[2]].Position)
		w.DrawLine3D(a, b, color)
		w.DrawLine3D(b, c, color)
		w.DrawLine3D(c, a, color)
	}
}

// DrawAxes draws the coordinate axes at the origin.
func (w *Wireframe) DrawAxes(length float64) {
	origin := math3d.Zero3()
	w.DrawLine3D(origin, math3d.V3(length, 0, 0), ColorRed)   // X axis
	w.DrawLine3D(origin, math3d.V3(0, length, 0), ColorGreen) // Y axis
	w.DrawLine3D(origin, math3d.V3(0, 0, length), ColorBlue)  // Z axis
}

// DrawGrid draws a square grid on the ground plane (z = 0).
func (w *Wireframe) DrawGrid(size, step float64, color Color) {
	if step <= 0 {
		return
	}
	half := size / 2
	n := int(math.Floor(size/step + 1e-9))
	for i := 0; i <= n; i++ {
		v := -half + float64(i)*step
		w.DrawLine3D(math3d.V3(v, -half, 0), math3d.V3(v, half, 0), color)
		w.DrawLine3D(math3d.V3(-half, v, 0), math3d.V3(half, v, 0), color)
	}
}

// DrawPoint draws a point as a small cross.
func (w *Wireframe) DrawPoint(pos math3d.Vec3, size float64, color Color) {
	h := size / 2
	w.DrawLine3D(pos.Sub(math3d.V3(h, 0, 0)), pos.Add(math3d.V3(h, 0, 0)), color)
	w.DrawLine3D(pos.Sub(math3d.V3(0, h, 0)), pos.Add(math3d.V3(0, h, 0)), color)
	w.DrawLine3D(pos.Sub(math3d.V3(0, 0, h)), pos.Add(math3d.V3(0, 0, h)), color)
}
