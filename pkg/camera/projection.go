// Package camera implements the dual-mode (orthographic/perspective) camera
// used to inspect site maps: a projection model with one active mode and a
// tick-driven controller that turns pointer, button and scroll input into
// pan, orbit and zoom.
package camera

import (
	"math"

	"github.com/taigrr/siteview/pkg/math3d"
)

// Mode selects the active projection.
type Mode int

const (
	Orthographic Mode = iota
	Perspective
)

func (m Mode) String() string {
	switch m {
	case Orthographic:
		return "orthographic"
	case Perspective:
		return "perspective"
	default:
		return "unknown"
	}
}

// DepthPolicy is the depth-comparison convention of a projection. Renderers
// use it to order primitives; the two modes do not have to agree.
type DepthPolicy int

const (
	// DepthDistance orders by Euclidean distance from the eye.
	DepthDistance DepthPolicy = iota
	// DepthZDifference orders by distance along the view direction only.
	DepthZDifference
)

func (d DepthPolicy) String() string {
	if d == DepthZDifference {
		return "z-difference"
	}
	return "distance"
}

// SortKey returns the depth of point as seen from eye looking along forward.
// Smaller keys are closer.
func (d DepthPolicy) SortKey(eye, forward, point math3d.Vec3) float64 {
	if d == DepthZDifference {
		return point.Sub(eye).Dot(forward)
	}
	return point.Distance(eye)
}

// ScalingMode controls how the orthographic box follows the viewport size.
type ScalingMode int

const (
	// ScaleNone keeps the box as configured.
	ScaleNone ScalingMode = iota
	// ScaleWindowSize makes one world unit one pixel.
	ScaleWindowSize
	// ScaleFixedVertical keeps the visible half-height at Scale world units.
	ScaleFixedVertical
	// ScaleFixedHorizontal keeps the visible half-width at Scale world units.
	ScaleFixedHorizontal
)

// WindowOrigin is where world (0, 0) lands in the viewport.
type WindowOrigin int

const (
	OriginCenter WindowOrigin = iota
	OriginBottomLeft
)

// OrthographicProjection is the parameterization of the orthographic mode.
type OrthographicProjection struct {
	Left, Right, Bottom, Top float64
	Near, Far                float64

	Origin  WindowOrigin
	Scaling ScalingMode
	// Scale multiplies the box. With ScaleFixedVertical it is the visible half-height.
	Scale float64
	Depth DepthPolicy
}

// DefaultOrthographic returns a centered, fixed-vertical projection showing
// 10 world units above and below the view center.
func DefaultOrthographic() OrthographicProjection {
	return OrthographicProjection{
		Left: -1, Right: 1, Bottom: -1, Top: 1,
		Near:    0,
		Far:     1000,
		Origin:  OriginCenter,
		Scaling: ScaleFixedVertical,
		Scale:   10,
		Depth:   DepthZDifference,
	}
}

// Resize recomputes the box for a viewport of width x height pixels.
func (o *OrthographicProjection) Resize(width, height float64) {
	if width <= 0 || height <= 0 {
		return
	}
	switch o.Scaling {
	case ScaleWindowSize:
		if o.Origin == OriginBottomLeft {
			o.Left, o.Right, o.Bottom, o.Top = 0, width, 0, height
		} else {
			o.Left, o.Right, o.Bottom, o.Top = -width/2, width/2, -height/2, height/2
		}
	case ScaleFixedVertical:
		aspect := width / height
		if o.Origin == OriginBottomLeft {
			o.Left, o.Right, o.Bottom, o.Top = 0, aspect, 0, 1
		} else {
			o.Left, o.Right, o.Bottom, o.Top = -aspect, aspect, -1, 1
		}
	case ScaleFixedHorizontal:
		aspect := height / width
		if o.Origin == OriginBottomLeft {
			o.Left, o.Right, o.Bottom, o.Top = 0, 1, 0, aspect
		} else {
			o.Left, o.Right, o.Bottom, o.Top = -1, 1, -aspect, aspect
		}
	}
}

// Matrix returns the orthographic projection matrix.
func (o OrthographicProjection) Matrix() math3d.Mat4 {
	return math3d.Orthographic(
		o.Left*o.Scale, o.Right*o.Scale,
		o.Bottom*o.Scale, o.Top*o.Scale,
		o.Near, o.Far,
	)
}

// PerspectiveProjection is the parameterization of the perspective mode.
type PerspectiveProjection struct {
	FOV         float64 // vertical field of view in radians
	AspectRatio float64 // width / height
	Near, Far   float64
	Depth       DepthPolicy
}

// DefaultPerspective returns a 45 degree projection.
func DefaultPerspective() PerspectiveProjection {
	return PerspectiveProjection{
		FOV:         math.Pi / 4,
		AspectRatio: 1,
		Near:        0.1,
		Far:         1000,
		Depth:       DepthDistance,
	}
}

// Resize updates the aspect ratio.
func (p *PerspectiveProjection) Resize(width, height float64) {
	if width <= 0 || height <= 0 {
		return
	}
	p.AspectRatio = width / height
}

// Matrix returns the perspective projection matrix.
func (p PerspectiveProjection) Matrix() math3d.Mat4 {
	return math3d.Perspective(p.FOV, p.AspectRatio, p.Near, p.Far)
}

// Projection holds both parameterizations and the active mode. Only the
// active one contributes to the matrix; both follow every resize.
type Projection struct {
	Orthographic OrthographicProjection
	Perspective  PerspectiveProjection

	mode     Mode
	switched bool
}

// NewProjection returns a projection in orthographic mode with the switch
// flag raised, so the first controller update snaps to the home pose.
func NewProjection() *Projection {
	return &Projection{
		Orthographic: DefaultOrthographic(),
		Perspective:  DefaultPerspective(),
		mode:         Orthographic,
		switched:     true,
	}
}

// Mode returns the active mode.
func (p *Projection) Mode() Mode {
	return p.mode
}

// Switched reports whether a mode switch is waiting to be consumed.
func (p *Projection) Switched() bool {
	return p.switched
}

// SetMode activates mode and raises the switch flag, even when mode is
// already active.
func (p *Projection) SetMode(mode Mode) {
	p.mode = mode
	p.switched = true
}

// consumeSwitch clears the switch flag and reports whether it was set.
func (p *Projection) consumeSwitch() bool {
	s := p.switched
	p.switched = false
	return s
}

// Resize forwards the viewport size to both sub-projections.
func (p *Projection) Resize(width, height float64) {
	p.Perspective.Resize(width, height)
	p.Orthographic.Resize(width, height)
}

// ProjectionMatrix returns the matrix of the active mode.
func (p *Projection) ProjectionMatrix() math3d.Mat4 {
	if p.mode == Perspective {
		return p.Perspective.Matrix()
	}
	return p.Orthographic.Matrix()
}

// DepthPolicy returns the depth convention of the active mode.
func (p *Projection) DepthPolicy() DepthPolicy {
	if p.mode == Perspective {
		return p.Perspective.Depth
	}
	return p.Orthographic.Depth
}
