package render

import (
	"math"

	"github.com/taigrr/siteview/pkg/math3d"
	"github.com/taigrr/siteview/pkg/models"
)

// minClipW rejects triangles that touch the camera plane. Orthographic
// projections always produce w = 1.
const minClipW = 1e-6

// Rasterizer fills triangles into a framebuffer with a depth test and flat
// two-sided lighting. Faces are never culled by winding: lanes are single
// quads and must show from below as well.
type Rasterizer struct {
	camera  *Camera
	fb      *Framebuffer
	zbuffer []float64 // Depth buffer (1D array, row-major)

	// Light points toward the light source in world space.
	Light   math3d.Vec3
	Ambient float64

	Stats Stats
}

// Stats counts work done since the last ResetStats.
type Stats struct {
	MeshesDrawn    int
	MeshesCulled   int
	TrianglesDrawn int
}

// NewRasterizer creates a new rasterizer.
func NewRasterizer(camera *Camera, fb *Framebuffer) *Rasterizer {
	r := &Rasterizer{
		camera:  camera,
		fb:      fb,
		Light:   math3d.V3(0.3, 0.5, 1).Normalize(),
		Ambient: 0.35,
	}
	r.Resize()
	return r
}

// Resize resizes the rasterizer's buffer to match the framebuffer.
func (r *Rasterizer) Resize() {
	r.zbuffer = make([]float64, r.fb.Width*r.fb.Height)
	r.ClearDepth()
}

// ClearDepth clears the Z-buffer (call before each frame).
func (r *Rasterizer) ClearDepth() {
	// Use copy-doubling for faster clearing
	n := len(r.zbuffer)
	if n == 0 {
		return
	}
	r.zbuffer[0] = math.MaxFloat64
	for i := 1; i < n; i *= 2 {
		copy(r.zbuffer[i:], r.zbuffer[:i])
	}
}

// ResetStats zeroes the counters (call once per frame).
func (r *Rasterizer) ResetStats() {
	r.Stats = Stats{}
}

// Depth returns the stored depth at (x, y), or MaxFloat64 out of bounds.
func (r *Rasterizer) Depth(x, y int) float64 {
	if x < 0 || x >= r.fb.Width || y < 0 || y >= r.fb.Height {
		return math.MaxFloat64
	}
	return r.zbuffer[y*r.fb.Width+x]
}

// DrawMesh draws m transformed by model. Faces with a material use its base
// color; others use base. It reports false when the mesh was culled.
func (r *Rasterizer) DrawMesh(m *models.Mesh, model math3d.Mat4, base Color) bool {
	bounds := AABB{Min: m.BoundsMin, Max: m.BoundsMax}.Transform(model)
	if !r.camera.Frustum().IntersectAABB(bounds) {
		r.Stats.MeshesCulled++
		return false
	}
	r.Stats.MeshesDrawn++

	for i, f := range m.Faces {
		c := base
		if mat := m.FaceMaterial(i); mat != nil {
			c = MaterialColor(*mat)
		}
		r.DrawTriangle(
			model.MulVec3(m.Vertices[f.V[0]].Position),
			model.MulVec3(m.Vertices[f.V[1]].Position),
			model.MulVec3(m.Vertices[f.V[2]].Position),
			c,
		)
	}
	return true
}

// DrawTriangle rasterizes one world-space triangle.
func (r *Rasterizer) DrawTriangle(p0, p1, p2 math3d.Vec3, c Color) {
	normal := p1.Sub(p0).Cross(p2.Sub(p0))
	if normal.LenSq() == 0 {
		return
	}
	intensity := r.Ambient + (1-r.Ambient)*math.Abs(normal.Normalize().Dot(r.Light))
	lit := MultiplyColor(c, intensity)

	viewProj := r.camera.ViewProjectionMatrix()
	var sv [3]math3d.Vec3
	for i, p := range [3]math3d.Vec3{p0, p1, p2} {
		clip := viewProj.MulVec4(math3d.V4FromV3(p, 1))
		if clip.W < minClipW {
			return
		}
		ndc := clip.PerspectiveDivide()
		sv[i].X, sv[i].Y = ndcToScreen(ndc, r.fb.Width, r.fb.Height)
		sv[i].Z = ndc.Z
	}

	// Find bounding box
	minX := int(math.Max(0, math.Floor(min(sv[0].X, sv[1].X, sv[2].X))))
	maxX := int(math.Min(float64(r.fb.Width-1), math.Ceil(max(sv[0].X, sv[1].X, sv[2].X))))
	minY := int(math.Max(0, math.Floor(min(sv[0].Y, sv[1].Y, sv[2].Y))))
	maxY := int(math.Min(float64(r.fb.Height-1), math.Ceil(max(sv[0].Y, sv[1].Y, sv[2].Y))))
	if minX > maxX || minY > maxY {
		return
	}
	drawn := false

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5
			bc := barycentric(sv[0].X, sv[0].Y, sv[1].X, sv[1].Y, sv[2].X, sv[2].Y, px, py)
			if bc.X < 0 || bc.Y < 0 || bc.Z < 0 {
				continue
			}

			z := bc.X*sv[0].Z + bc.Y*sv[1].Z + bc.Z*sv[2].Z
			if z < -1 || z > 1 {
				continue
			}
			idx := y*r.fb.Width + x
			// equal depth passes, so the later of two coplanar faces wins
			if z > r.zbuffer[idx] {
				continue
			}
			r.zbuffer[idx] = z
			r.fb.Pixels[idx] = lit
			drawn = true
		}
	}
	if drawn {
		r.Stats.TrianglesDrawn++
	}
}

// barycentric returns the barycentric weights of (px, py) in the triangle.
// Degenerate triangles return (-1, -1, -1).
func barycentric(x0, y0, x1, y1, x2, y2, px, py float64) math3d.Vec3 {
	v0x, v0y := x1-x0, y1-y0
	v1x, v1y := x2-x0, y2-y0
	v2x, v2y := px-x0, py-y0

	d00 := v0x*v0x + v0y*v0y
	d01 := v0x*v1x + v0y*v1y
	d11 := v1x*v1x + v1y*v1y
	d20 := v2x*v0x + v2y*v0y
	d21 := v2x*v1x + v2y*v1y

	denom := d00*d11 - d01*d01
	if math.Abs(denom) < 1e-12 {
		return math3d.V3(-1, -1, -1)
	}

	v := (d11*d20 - d01*d21) / denom
	w := (d00*d21 - d01*d20) / denom
	return math3d.V3(1-v-w, v, w)
}
