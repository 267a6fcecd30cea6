package input

import (
	"math"

	"github.com/charmbracelet/harmonica"
)

// restRate is the zoom rate below which KeyZoom snaps to rest.
const restRate = 1e-3

// KeyZoom turns discrete key presses into a smoothly decaying stream of
// scroll deltas, so holding + or - zooms like a wheel instead of jumping.
type KeyZoom struct {
	spring harmonica.Spring
	rate   float64
	accel  float64 // spring velocity of rate
}

// NewKeyZoom creates a KeyZoom stepped at fps frames per second.
func NewKeyZoom(fps int) *KeyZoom {
	// critically damped: the rate decays without changing sign
	return &KeyZoom{spring: harmonica.NewSpring(harmonica.FPS(max(fps, 1)), 4.0, 1.0)}
}

// Push adds an impulse. Positive zooms in.
func (k *KeyZoom) Push(step float64) {
	k.rate += step
}

// Active reports whether Next would return a non-zero delta.
func (k *KeyZoom) Active() bool {
	return k.rate != 0
}

// Next returns this frame's scroll delta and advances the decay by one
// frame.
func (k *KeyZoom) Next() float64 {
	out := k.rate
	k.rate, k.accel = k.spring.Update(k.rate, k.accel, 0)
	if math.Abs(k.rate) < restRate {
		k.rate, k.accel = 0, 0
	}
	return out
}

// Stop discards any pending zoom.
func (k *KeyZoom) Stop() {
	k.rate, k.accel = 0, 0
}
