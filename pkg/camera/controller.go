package camera

import (
	"math"

	"github.com/taigrr/siteview/pkg/math3d"
)

// Clamp floors that keep the projection from degenerating.
const (
	MinOrthoScale  = 0.02
	MinOrbitRadius = 0.05
)

const (
	orthoZoomRate = 0.1
	orbitZoomRate = 0.2
	// minZoomOutDivisor bounds a single orthographic zoom-out tick to 100x.
	minZoomOutDivisor = 0.01
)

// Pose is a camera's world transform.
type Pose struct {
	Position math3d.Vec3
	Rotation math3d.Quat
}

// Options configures a Controller.
type Options struct {
	// Home is the position restored on every mode switch. The home
	// orientation is always identity: looking down -Z with +Y up on screen.
	Home        math3d.Vec3
	OrthoScale  float64
	OrbitRadius float64
	// Scroll reduces raw wheel deltas; nil means RawScroll.
	Scroll ScrollNormalizer
}

// DefaultOptions returns the setup used for site maps: a camera 200 units
// above the origin, an orthographic half-height of 100 and an orbit radius
// matching the home height.
func DefaultOptions() Options {
	const startZ = 200
	return Options{
		Home:        math3d.V3(0, 0, startZ),
		OrthoScale:  100,
		OrbitRadius: startZ,
		Scroll:      RawScroll,
	}
}

// Controller owns the camera pose and turns per-tick input into pan, orbit
// and zoom. It is not safe for concurrent use; the host calls Update once per
// tick from its frame loop.
type Controller struct {
	Projection *Projection

	position math3d.Vec3
	rotation math3d.Quat
	home     math3d.Vec3

	orbitCenter math3d.Vec3
	orbitRadius float64
	upsideDown  bool

	prevPointer math3d.Vec2
	viewport    math3d.Vec2
	scroll      ScrollNormalizer
}

// NewController creates a controller in orthographic mode at the home pose.
func NewController(opts Options) *Controller {
	p := NewProjection()
	p.Orthographic.Scale = math.Max(opts.OrthoScale, MinOrthoScale)

	scroll := opts.Scroll
	if scroll == nil {
		scroll = RawScroll
	}

	return &Controller{
		Projection:  p,
		position:    opts.Home,
		rotation:    math3d.QuatIdentity(),
		home:        opts.Home,
		orbitRadius: math.Max(opts.OrbitRadius, MinOrbitRadius),
		scroll:      scroll,
	}
}

// Resize records the viewport size in pixels and forwards it to both
// sub-projections.
func (c *Controller) Resize(width, height float64) {
	c.viewport = math3d.V2(width, height)
	c.Projection.Resize(width, height)
}

// SetMode requests a projection mode. The pose snaps home on the next Update.
func (c *Controller) SetMode(mode Mode) {
	c.Projection.SetMode(mode)
}

// Mode returns the active projection mode.
func (c *Controller) Mode() Mode {
	return c.Projection.Mode()
}

// Pose returns the current camera transform.
func (c *Controller) Pose() Pose {
	return Pose{Position: c.position, Rotation: c.rotation}
}

// Forward returns the world-space view direction.
func (c *Controller) Forward() math3d.Vec3 {
	return c.rotation.Rotate(math3d.V3(0, 0, -1))
}

// ViewMatrix returns the world-to-camera matrix for the current pose.
func (c *Controller) ViewMatrix() math3d.Mat4 {
	return math3d.ViewFromPose(c.position, c.rotation)
}

// ProjectionMatrix returns the matrix of the active mode.
func (c *Controller) ProjectionMatrix() math3d.Mat4 {
	return c.Projection.ProjectionMatrix()
}

// Scale returns the orthographic half-height.
func (c *Controller) Scale() float64 {
	return c.Projection.Orthographic.Scale
}

// OrbitCenter returns the point the perspective camera orbits.
func (c *Controller) OrbitCenter() math3d.Vec3 {
	return c.orbitCenter
}

// OrbitRadius returns the perspective orbit distance.
func (c *Controller) OrbitRadius() float64 {
	return c.orbitRadius
}

// UpsideDown reports the latched upside-down state used to flip horizontal
// orbit input.
func (c *Controller) UpsideDown() bool {
	return c.upsideDown
}

// FitExtent sizes the orthographic box and the orbit distance so that a
// scene reaching halfExtent world units from the origin fits in view. The
// home position moves to the new orbit distance and the camera snaps there on
// the next Update.
func (c *Controller) FitExtent(halfExtent float64) {
	if halfExtent <= 0 || math.IsNaN(halfExtent) || math.IsInf(halfExtent, 0) {
		return
	}
	const margin = 1.1
	c.Projection.Orthographic.Scale = math.Max(halfExtent*margin, MinOrthoScale)

	dist := halfExtent * margin / math.Tan(c.Projection.Perspective.FOV/2)
	c.orbitRadius = math.Max(dist, MinOrbitRadius)
	c.home = math3d.V3(c.home.X, c.home.Y, c.orbitRadius)
	c.Projection.SetMode(c.Projection.Mode())
}

// Update consumes one tick of input.
func (c *Controller) Update(b Batch) {
	last := c.prevPointer
	if n := len(b.Pointer); n > 0 {
		last = b.Pointer[n-1]
	}

	var motion math3d.Vec2
	if b.Pressed.Has(ButtonPan) || b.Pressed.Has(ButtonOrbit) {
		motion = last.Sub(c.prevPointer)
	}
	// Always track the pointer so a drag starting next tick has no jump.
	c.prevPointer = last

	scroll := c.scroll(b.Scroll)
	if math.IsNaN(scroll) || math.IsInf(scroll, 0) {
		scroll = 0
	}

	if c.Projection.consumeSwitch() {
		c.snapHome()
		return
	}

	if c.Projection.Mode() == Perspective {
		c.updatePerspective(b, motion, scroll)
	} else {
		c.updateOrthographic(motion, scroll)
	}
}

func (c *Controller) snapHome() {
	c.position = c.home
	c.rotation = math3d.QuatIdentity()
	c.upsideDown = false
}

func (c *Controller) hasViewport() bool {
	return c.viewport.X > 0 && c.viewport.Y > 0
}

func (c *Controller) updateOrthographic(motion math3d.Vec2, scroll float64) {
	o := &c.Projection.Orthographic

	if motion.LenSq() > 0 && c.hasViewport() {
		aspect := c.viewport.X / c.viewport.Y
		// pixels -> world units; dragging moves the content, not the camera
		d := motion.Scale(2).Div(c.viewport).Mul(math3d.V2(o.Scale*aspect, o.Scale))
		right := c.rotation.Rotate(math3d.UnitX()).Scale(-d.X)
		up := c.rotation.Rotate(math3d.UnitY()).Scale(-d.Y)
		c.position = c.position.Add(right).Add(up)
	}

	if scroll != 0 {
		step := scroll * orthoZoomRate
		if step > 0 {
			o.Scale -= step * o.Scale
		} else {
			o.Scale /= math.Max(1+step, minZoomOutDivisor)
		}
		o.Scale = math.Max(o.Scale, MinOrthoScale)
	}
}

func (c *Controller) updatePerspective(b Batch, motion math3d.Vec2, scroll float64) {
	// Latch only on orbit edges so a drag that passes over the pole keeps
	// its horizontal direction.
	if b.JustPressed.Has(ButtonOrbit) || b.JustReleased.Has(ButtonOrbit) {
		up := c.rotation.Rotate(math3d.UnitZ())
		c.upsideDown = up.Z <= 0
	}

	moving := motion.LenSq() > 0 && c.hasViewport()

	switch {
	case b.Pressed.Has(ButtonOrbit) && moving:
		dx := motion.X / c.viewport.X * 2 * math.Pi
		if c.upsideDown {
			dx = -dx
		}
		dy := -motion.Y / c.viewport.Y * math.Pi

		yaw := math3d.QuatRotationZ(-dx)   // world vertical
		pitch := math3d.QuatRotationX(-dy) // local X
		c.rotation = yaw.Mul(c.rotation).Mul(pitch).Normalize()

	case b.Pressed.Has(ButtonPan) && moving:
		p := c.Projection.Perspective
		d := motion.Mul(math3d.V2(p.FOV*p.AspectRatio, p.FOV)).Div(c.viewport)
		right := c.rotation.Rotate(math3d.UnitX()).Scale(-d.X)
		up := c.rotation.Rotate(math3d.UnitY()).Scale(-d.Y)
		// pan speed follows orbit distance
		c.orbitCenter = c.orbitCenter.Add(right.Add(up).Scale(c.orbitRadius))

	case scroll != 0:
		c.orbitRadius -= scroll * c.orbitRadius * orbitZoomRate
		c.orbitRadius = math.Max(c.orbitRadius, MinOrbitRadius)

	default:
		return
	}

	// turntable: yaw/pitch rotate the rig, the radius is the child offset
	// along the local view axis
	c.position = c.orbitCenter.Add(c.rotation.Rotate(math3d.V3(0, 0, c.orbitRadius)))
}
