package main

import (
	"fmt"
	"time"
	"unicode/utf8"

	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/siteview/pkg/camera"
	"github.com/taigrr/siteview/pkg/render"
)

var (
	hudBg     = render.RGB(0, 0, 0)
	hudText   = render.RGB(230, 230, 230)
	hudGreen  = render.RGB(80, 220, 120)
	hudCyan   = render.RGB(90, 210, 230)
	hudYellow = render.RGB(240, 210, 80)
)

// HUDInfo is what one frame of the overlay shows.
type HUDInfo struct {
	Title  string
	Detail string // map stats or triangle count
	LoadID string

	Mode       camera.Mode
	Scale      float64
	Radius     float64
	UpsideDown bool
	Wireframe  bool

	Drawn, Culled int

	// Status is a one-off message from the last command.
	Status string
	// Full shows the whole overlay; otherwise only Status is drawn.
	Full bool
}

// HUD renders an overlay with map info and camera state
type HUD struct {
	fps       float64
	fpsFrames int
	fpsTime   time.Time
}

// NewHUD creates a new HUD
func NewHUD() *HUD {
	return &HUD{fpsTime: time.Now()}
}

// UpdateFPS updates the FPS counter (call once per frame)
func (h *HUD) UpdateFPS() {
	h.fpsFrames++
	elapsed := time.Since(h.fpsTime)
	if elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = time.Now()
	}
}

// Render draws the overlay on the first and last rows of scr.
func (h *HUD) Render(scr uv.Screen, info HUDInfo) {
	b := scr.Bounds()
	width, bottom := b.Max.X-b.Min.X, b.Max.Y-1
	if width <= 0 || bottom < 0 {
		return
	}

	if !info.Full {
		render.DrawText(scr, 0, bottom, " "+info.Status+" ", hudYellow, hudBg)
		return
	}

	// Top: FPS, title, stats
	render.DrawText(scr, 0, 0, fmt.Sprintf(" %.0f FPS ", h.fps), hudGreen, hudBg)
	title := " " + info.Title + " "
	render.DrawText(scr, max((width-utf8.RuneCountInString(title))/2, 0), 0, title, hudText, hudBg)
	detail := " " + info.Detail
	if info.LoadID != "" {
		detail += " #" + info.LoadID
	}
	detail += " "
	render.DrawText(scr, max(width-utf8.RuneCountInString(detail), 0), 0, detail, hudCyan, hudBg)

	// Bottom: camera and status
	render.DrawText(scr, 0, bottom, hudCameraLine(info), hudText, hudBg)
	if info.Status != "" {
		status := " " + info.Status + " "
		render.DrawText(scr, max(width-utf8.RuneCountInString(status), 0), bottom, status, hudYellow, hudBg)
	}
}

func hudCameraLine(info HUDInfo) string {
	check := func(on bool) string {
		if on {
			return "[✓]"
		}
		return "[ ]"
	}

	var view string
	if info.Mode == camera.Perspective {
		view = fmt.Sprintf("perspective r=%.2f", info.Radius)
		if info.UpsideDown {
			view += " (upside down)"
		}
	} else {
		view = fmt.Sprintf("orthographic s=%.2f", info.Scale)
	}
	return fmt.Sprintf(" %s  %s X-Ray  %d drawn %d culled ", view, check(info.Wireframe), info.Drawn, info.Culled)
}
