package camera

import (
	"math"

	"github.com/taigrr/siteview/pkg/math3d"
)

// Button is a logical pointer button.
type Button uint8

const (
	ButtonPan Button = 1 << iota
	ButtonOrbit
)

// Buttons is a set of logical buttons.
type Buttons uint8

// Has reports whether b is in the set.
func (s Buttons) Has(b Button) bool {
	return s&Buttons(b) != 0
}

// With returns the set with b added.
func (s Buttons) With(b Button) Buttons {
	return s | Buttons(b)
}

// Without returns the set with b removed.
func (s Buttons) Without(b Button) Buttons {
	return s &^ Buttons(b)
}

// Batch is everything the host observed since the previous tick.
type Batch struct {
	// Pointer holds pointer-moved samples in arrival order. Only the last one
	// is used; earlier samples in the same tick are discarded.
	Pointer []math3d.Vec2
	// Scroll holds raw wheel deltas in arrival order.
	Scroll []float64

	Pressed      Buttons // held at the end of the tick
	JustPressed  Buttons // went down during the tick
	JustReleased Buttons // went up during the tick
}

// ScrollNormalizer reduces a tick's raw wheel deltas to one scroll scalar.
// Positive values zoom in.
type ScrollNormalizer func(deltas []float64) float64

// RawScroll sums signed deltas as reported.
func RawScroll(deltas []float64) float64 {
	var sum float64
	for _, d := range deltas {
		sum += d
	}
	return sum
}

const (
	scrollStep    = 4.0
	scrollDamping = 0.1
)

// SteppedScroll is for input surfaces whose delta magnitudes are unreliable:
// each non-zero event counts as a fixed step in its direction, and the total
// is damped.
func SteppedScroll(deltas []float64) float64 {
	var sum float64
	for _, d := range deltas {
		if d == 0 || math.IsNaN(d) {
			continue
		}
		sum += math.Copysign(scrollStep, d)
	}
	return sum * scrollDamping
}
