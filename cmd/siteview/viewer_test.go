package main

import (
	"strings"
	"testing"

	"github.com/taigrr/siteview/pkg/camera"
	"github.com/taigrr/siteview/pkg/math3d"
	"github.com/taigrr/siteview/pkg/scene"
)

func TestCellToPixel(t *testing.T) {
	tests := []struct {
		col, row, rows int
		wantX, wantY   float64
	}{
		{0, 0, 10, 0.5, 19},
		{3, 9, 10, 3.5, 1},
		{79, 4, 24, 79.5, 39},
	}

	for _, tc := range tests {
		x, y := cellToPixel(tc.col, tc.row, tc.rows)
		if x != tc.wantX || y != tc.wantY {
			t.Errorf("cellToPixel(%d, %d, %d) = (%v, %v), want (%v, %v)",
				tc.col, tc.row, tc.rows, x, y, tc.wantX, tc.wantY)
		}
	}
}

func TestDrawOrder(t *testing.T) {
	at := func(x, y, z float64) scene.Placement {
		return scene.Placement{Transform: scene.Transform{Translation: math3d.V3(x, y, z)}}
	}
	ps := []scene.Placement{at(0, 0, 0), at(0, 0, 5), at(8, 0, 4), at(0, 0, -2)}
	eye, forward := math3d.V3(0, 0, 10), math3d.V3(0, 0, -1)

	// along the view axis the offset point is nearer than the origin
	got := drawOrder(nil, ps, camera.DepthZDifference, eye, forward)
	want := []int{1, 2, 0, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("z-difference order = %v, want %v", got, want)
		}
	}

	// by distance it is farther
	got = drawOrder(got, ps, camera.DepthDistance, eye, forward)
	want = []int{1, 0, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("distance order = %v, want %v", got, want)
		}
	}

	if n := len(drawOrder(got, ps[:2], camera.DepthDistance, eye, forward)); n != 2 {
		t.Errorf("reused buffer length = %d, want 2", n)
	}
}

func TestHUDCameraLine(t *testing.T) {
	line := hudCameraLine(HUDInfo{Mode: camera.Perspective, Radius: 2, UpsideDown: true, Wireframe: true, Drawn: 3})
	for _, want := range []string{"perspective r=2.00", "upside down", "[✓] X-Ray", "3 drawn"} {
		if !strings.Contains(line, want) {
			t.Errorf("%q missing %q", line, want)
		}
	}

	line = hudCameraLine(HUDInfo{Mode: camera.Orthographic, Scale: 0.5})
	if !strings.Contains(line, "orthographic s=0.50") || !strings.Contains(line, "[ ] X-Ray") {
		t.Errorf("unexpected line %q", line)
	}
}
