package render

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/taigrr/siteview/pkg/math3d"
	"github.com/taigrr/siteview/pkg/models"
)

// topDown returns a rasterizer looking down -Z from z=10 at a 10x10 world
// box mapped onto a 20x20 framebuffer.
func topDown(t testing.TB) (*Rasterizer, *Framebuffer, *Camera) {
	t.Helper()
	fb := NewFramebuffer(20, 20)
	cam := NewCamera()
	cam.SetPose(math3d.V3(0, 0, 10), math3d.QuatIdentity())
	cam.SetProjection(math3d.Orthographic(-5, 5, -5, 5, 0.1, 100))
	return NewRasterizer(cam, fb), fb, cam
}

func perspective(t testing.TB) (*Rasterizer, *Framebuffer, *Camera) {
	t.Helper()
	fb := NewFramebuffer(20, 20)
	cam := NewCamera()
	cam.SetPose(math3d.V3(0, 0, 10), math3d.QuatIdentity())
	cam.SetProjection(math3d.Perspective(math.Pi/2, 1, 0.1, 100))
	return NewRasterizer(cam, fb), fb, cam
}

func TestBarycentric(t *testing.T) {
	tests := []struct {
		name     string
		px, py   float64
		expected math3d.Vec3
	}{
		{"vertex 0", 0, 0, math3d.V3(1, 0, 0)},
		{"vertex 1", 1, 0, math3d.V3(0, 1, 0)},
		{"vertex 2", 0, 1, math3d.V3(0, 0, 1)},
		{"centroid", 1.0 / 3, 1.0 / 3, math3d.V3(1.0/3, 1.0/3, 1.0/3)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bc := barycentric(0, 0, 1, 0, 0, 1, tc.px, tc.py)
			if !bc.ApproxEqual(tc.expected, 0.001) {
				t.Errorf("barycentric(%v, %v) = %v, want %v", tc.px, tc.py, bc, tc.expected)
			}
		})
	}

	t.Run("outside triangle", func(t *testing.T) {
		bc := barycentric(0, 0, 1, 0, 0, 1, -1, -1)
		if bc.X >= 0 && bc.Y >= 0 && bc.Z >= 0 {
			t.Error("point outside triangle should have negative barycentric coordinate")
		}
	})

	t.Run("degenerate", func(t *testing.T) {
		bc := barycentric(0, 0, 1, 1, 2, 2, 1, 1)
		if bc.X >= 0 {
			t.Errorf("degenerate triangle gave %v", bc)
		}
	})
}

func TestDrawTriangleBothWindings(t *testing.T) {
	a, b, c := math3d.V3(-4, -4, 0), math3d.V3(4, -4, 0), math3d.V3(0, 4, 0)

	for name, tri := range map[string][3]math3d.Vec3{"ccw": {a, b, c}, "cw": {a, c, b}} {
		t.Run(name, func(t *testing.T) {
			r, fb, _ := topDown(t)
			r.Light = math3d.UnitZ()
			r.DrawTriangle(tri[0], tri[1], tri[2], ColorRed)

			if got := fb.GetPixel(10, 10); got != ColorRed {
				t.Errorf("center pixel = %v, want red", got)
			}
			if got := fb.GetPixel(0, 0); got.A != 0 {
				t.Errorf("corner pixel = %v, want untouched", got)
			}
			if r.Depth(10, 10) == math.MaxFloat64 {
				t.Error("depth not written")
			}
			if r.Stats.TrianglesDrawn != 1 {
				t.Errorf("TrianglesDrawn = %d, want 1", r.Stats.TrianglesDrawn)
			}
		})
	}
}

func TestDepthTest(t *testing.T) {
	near := [3]math3d.Vec3{{X: -4, Y: -4, Z: 1}, {X: 4, Y: -4, Z: 1}, {X: 0, Y: 4, Z: 1}}
	far := [3]math3d.Vec3{{X: -4, Y: -4, Z: -1}, {X: 4, Y: -4, Z: -1}, {X: 0, Y: 4, Z: -1}}

	for _, nearFirst := range []bool{true, false} {
		r, fb, _ := topDown(t)
		r.Light = math3d.UnitZ()
		if nearFirst {
			r.DrawTriangle(near[0], near[1], near[2], ColorGreen)
			r.DrawTriangle(far[0], far[1], far[2], ColorRed)
		} else {
			r.DrawTriangle(far[0], far[1], far[2], ColorRed)
			r.DrawTriangle(near[0], near[1], near[2], ColorGreen)
		}
		if got := fb.GetPixel(10, 10); got != ColorGreen {
			t.Errorf("nearFirst=%v: center pixel = %v, want green", nearFirst, got)
		}
	}
}

func TestLightingIsTwoSidedWithAmbientFloor(t *testing.T) {
	r, fb, _ := topDown(t)
	r.Light = math3d.UnitX()
	r.Ambient = 0.5
	r.DrawTriangle(math3d.V3(-4, -4, 0), math3d.V3(4, -4, 0), math3d.V3(0, 4, 0), RGB(200, 100, 0))

	if got, want := fb.GetPixel(10, 10), RGB(100, 50, 0); got != want {
		t.Errorf("pixel = %v, want %v", got, want)
	}

	r.ClearDepth()
	r.Light = math3d.V3(0, 0, -1)
	r.DrawTriangle(math3d.V3(-4, -4, 0), math3d.V3(4, -4, 0), math3d.V3(0, 4, 0), RGB(200, 100, 0))
	if got, want := fb.GetPixel(10, 10), RGB(200, 100, 0); got != want {
		t.Errorf("light from below: pixel = %v, want %v", got, want)
	}
}

func TestTriangleBehindCameraSkipped(t *testing.T) {
	r, fb, _ := perspective(t)
	r.DrawTriangle(math3d.V3(-4, -4, 20), math3d.V3(4, -4, 20), math3d.V3(0, 4, 20), ColorRed)

	for i, p := range fb.Pixels {
		if p.A != 0 {
			t.Fatalf("pixel %d drawn for triangle behind camera", i)
		}
	}
}

func TestDrawMesh(t *testing.T) {
	r, fb, _ := topDown(t)
	r.Light = math3d.UnitZ()

	box := models.Box()
	box.Materials = []models.Material{{Name: "red", BaseColor: [4]float64{1, 0, 0, 1}}}
	for i := range box.Faces {
		box.Faces[i].Material = 0
	}

	if !r.DrawMesh(box, math3d.Scale(math3d.V3(2, 2, 2)), ColorBlue) {
		t.Fatal("box at origin was culled")
	}
	if got := fb.GetPixel(10, 10); got != ColorRed {
		t.Errorf("center pixel = %v, want material red", got)
	}

	if r.DrawMesh(box, math3d.Translate(math3d.V3(100, 0, 0)), ColorBlue) {
		t.Error("off-screen box was drawn")
	}
	if r.Stats.MeshesDrawn != 1 || r.Stats.MeshesCulled != 1 {
		t.Errorf("Stats = %+v", r.Stats)
	}

	r.ResetStats()
	if r.Stats != (Stats{}) {
		t.Errorf("ResetStats left %+v", r.Stats)
	}
}

func TestDrawMeshFallsBackToBaseColor(t *testing.T) {
	r, fb, _ := topDown(t)
	r.Light = math3d.UnitZ()
	r.DrawMesh(models.Quad(), math3d.Scale(math3d.V3(4, 4, 1)), ColorBlue)

	if got := fb.GetPixel(10, 10); got != ColorBlue {
		t.Errorf("center pixel = %v, want base blue", got)
	}
}

func TestRasterizerClearDepth(t *testing.T) {
	r, _, _ := topDown(t)
	r.DrawTriangle(math3d.V3(-4, -4, 0), math3d.V3(4, -4, 0), math3d.V3(0, 4, 0), ColorRed)
	r.ClearDepth()

	for i, z := range r.zbuffer {
		if z != math.MaxFloat64 {
			t.Fatalf("zbuffer[%d] = %v after clear", i, z)
		}
	}
	if r.Depth(-1, 0) != math.MaxFloat64 || r.Depth(0, 99) != math.MaxFloat64 {
		t.Error("out-of-bounds depth should be MaxFloat64")
	}
}

func TestWorldToScreen(t *testing.T) {
	_, fb, cam := topDown(t)

	x, y, _, ok := cam.WorldToScreen(math3d.V3(0, 0, 0), fb.Width, fb.Height)
	if !ok || math.Abs(x-10) > 1e-9 || math.Abs(y-10) > 1e-9 {
		t.Errorf("origin -> (%v, %v, %v), want (10, 10)", x, y, ok)
	}

	// +Y world is up on screen
	_, y, _, _ = cam.WorldToScreen(math3d.V3(0, 2.5, 0), fb.Width, fb.Height)
	if math.Abs(y-5) > 1e-9 {
		t.Errorf("y = %v, want 5", y)
	}

	if _, _, _, ok := cam.WorldToScreen(math3d.V3(6, 0, 0), fb.Width, fb.Height); ok {
		t.Error("point outside the box reported visible")
	}
}

func TestCameraForward(t *testing.T) {
	cam := NewCamera()
	cam.SetPose(math3d.V3(1, 2, 3), math3d.QuatRotationX(math.Pi/2))
	if !cam.Forward.ApproxEqual(math3d.V3(0, 1, 0), 1e-12) {
		t.Errorf("Forward = %v, want +Y", cam.Forward)
	}
	if eye := cam.ViewMatrix().MulVec3(cam.Eye); !eye.ApproxEqual(math3d.Zero3(), 1e-12) {
		t.Errorf("eye in view space = %v, want origin", eye)
	}

	proj := math3d.Perspective(1, 2, 0.1, 10)
	cam.SetProjection(proj)
	if cam.ProjectionMatrix() != proj {
		t.Error("ProjectionMatrix does not return the set matrix")
	}
}

func TestWireframe(t *testing.T) {
	_, fb, cam := perspective(t)
	w := NewWireframe(cam, fb)

	w.DrawLine3D(math3d.V3(-1, 0, 0), math3d.V3(1, 0, 0), ColorWhite)
	if got := fb.GetPixel(10, 10); got != ColorWhite {
		t.Errorf("center pixel = %v, want white", got)
	}

	// crosses the camera plane: clipped, not dropped or mirrored
	fb.Clear(Color{})
	w.DrawLine3D(math3d.V3(0, -1, 0), math3d.V3(0, -1, 50), ColorYellow)
	drawn := 0
	for _, p := range fb.Pixels {
		if p == ColorYellow {
			drawn++
		}
	}
	if drawn == 0 {
		t.Error("clipped line drew nothing")
	}

	fb.Clear(Color{})
	w.DrawLine3D(math3d.V3(0, 0, 20), math3d.V3(1, 0, 30), ColorYellow)
	for _, p := range fb.Pixels {
		if p.A != 0 {
			t.Fatal("line fully behind camera was drawn")
		}
	}
}

func TestWireframeMeshAndGrid(t *testing.T) {
	_, fb, cam := topDown(t)
	w := NewWireframe(cam, fb)

	w.DrawMesh(models.Quad(), math3d.Scale(math3d.V3(5, 5, 1)), ColorWhite)
	// the bottom edge y = -2.5 lands on row 15, x from 5 to 15
	if got := fb.GetPixel(10, 15); got != ColorWhite {
		t.Errorf("edge pixel = %v, want white", got)
	}

	fb.Clear(Color{})
	w.DrawGrid(8, 2, ColorGray)
	w.DrawAxes(1)
	w.DrawPoint(math3d.V3(2, 2, 0), 1, ColorYellow)
	// the y = 0 grid line runs along row 10
	if got := fb.GetPixel(3, 10); got != ColorGray {
		t.Errorf("grid pixel = %v, want gray", got)
	}
}

func TestFramebuffer(t *testing.T) {
	fb := NewFramebuffer(4, 4)
	fb.SetPixel(-1, 0, ColorRed)
	fb.SetPixel(4, 4, ColorRed)
	fb.DrawLine(0, 0, 3, 3, ColorRed)
	for i := range 4 {
		if fb.GetPixel(i, i) != ColorRed {
			t.Errorf("diagonal pixel %d not set", i)
		}
	}
	fb.DrawRect(0, 2, 2, 2, ColorBlue)
	if fb.GetPixel(1, 3) != ColorBlue {
		t.Error("rect not filled")
	}

	path := filepath.Join(t.TempDir(), "frame.png")
	if err := fb.SavePNG(path); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}
	if err := fb.SavePNG(filepath.Join(t.TempDir(), "missing", "frame.png")); err == nil {
		t.Error("expected error for missing directory")
	}

	fb.Resize(8, 2)
	if len(fb.Pixels) != 16 || fb.GetPixel(0, 0).A != 0 {
		t.Error("Resize should reallocate cleared pixels")
	}
}

func TestColorHelpers(t *testing.T) {
	if got := MultiplyColor(RGB(200, 100, 50), 2); got != RGB(255, 200, 100) {
		t.Errorf("MultiplyColor = %v", got)
	}
	m := models.Material{BaseColor: [4]float64{1, 0.5, -1, 2}}
	if got := MaterialColor(m); got != (Color{R: 255, G: 128, B: 0, A: 255}) {
		t.Errorf("MaterialColor = %v", got)
	}
}

func BenchmarkDrawMesh(b *testing.B) {
	r, _, _ := perspective(b)
	mesh := models.Marker(24)
	model := math3d.Scale(math3d.V3(4, 4, 4))

	for b.Loop() {
		r.ClearDepth()
		r.DrawMesh(mesh, model, ColorGray)
	}
}
