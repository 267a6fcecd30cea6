// Package input gathers pointer, wheel and keyboard input between frames and
// hands it to the camera controller as one batch per tick.
package input

import (
	"sync"

	"github.com/taigrr/siteview/pkg/camera"
	"github.com/taigrr/siteview/pkg/math3d"
)

// Frame is what a host drains from a Collector once per tick.
type Frame struct {
	Batch camera.Batch

	// Viewport is the most recent resize, valid when Resized is set.
	Viewport math3d.Vec2
	Resized  bool

	// Mode is the most recent projection request, valid when ModeRequested
	// is set.
	Mode          camera.Mode
	ModeRequested bool
}

// Collector accumulates input from an event goroutine until the frame loop
// drains it. It is safe for concurrent use.
type Collector struct {
	mu sync.Mutex

	pointer  []math3d.Vec2
	scroll   []float64
	held     camera.Buttons
	pressed  camera.Buttons
	released camera.Buttons

	viewport math3d.Vec2
	resized  bool
	mode     camera.Mode
	modeReq  bool
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Move records a pointer sample in viewport pixels.
func (c *Collector) Move(x, y float64) {
	c.mu.Lock()
	c.pointer = append(c.pointer, math3d.V2(x, y))
	c.mu.Unlock()
}

// Press marks b as held. Repeated presses of a held button are ignored.
func (c *Collector) Press(b camera.Button) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.held.Has(b) {
		return
	}
	c.held = c.held.With(b)
	c.pressed = c.pressed.With(b)
}

// Release clears b. Releasing a button that is not held is ignored.
func (c *Collector) Release(b camera.Button) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.held.Has(b) {
		return
	}
	c.held = c.held.Without(b)
	c.released = c.released.With(b)
}

// ReleaseAll clears every held button, as when the terminal loses focus.
func (c *Collector) ReleaseAll() {
	c.mu.Lock()
	c.released |= c.held
	c.held = 0
	c.mu.Unlock()
}

// Scroll records one raw wheel delta. Positive zooms in.
func (c *Collector) Scroll(delta float64) {
	c.mu.Lock()
	c.scroll = append(c.scroll, delta)
	c.mu.Unlock()
}

// Resize records a viewport size. Only the last one per tick is kept.
func (c *Collector) Resize(width, height float64) {
	c.mu.Lock()
	c.viewport = math3d.V2(width, height)
	c.resized = true
	c.mu.Unlock()
}

// RequestMode records a projection switch. Only the last one per tick is
// kept.
func (c *Collector) RequestMode(m camera.Mode) {
	c.mu.Lock()
	c.mode = m
	c.modeReq = true
	c.mu.Unlock()
}

// Held returns the buttons currently down.
func (c *Collector) Held() camera.Buttons {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.held
}

// Drain returns everything gathered since the previous Drain and resets the
// per-tick state. Held buttons carry over.
func (c *Collector) Drain() Frame {
	c.mu.Lock()
	defer c.mu.Unlock()

	f := Frame{
		Batch: camera.Batch{
			Pointer:      c.pointer,
			Scroll:       c.scroll,
			Pressed:      c.held,
			JustPressed:  c.pressed,
			JustReleased: c.released,
		},
		Viewport:      c.viewport,
		Resized:       c.resized,
		Mode:          c.mode,
		ModeRequested: c.modeReq,
	}

	c.pointer, c.scroll = nil, nil
	c.pressed, c.released = 0, 0
	c.resized, c.modeReq = false, false
	return f
}
