package render

import (
	"github.com/taigrr/siteview/pkg/math3d"
)

// Camera caches the matrices a frame is drawn with. It does not move on its
// own; the host copies the controller's pose and projection into it each
// frame.
type Camera struct {
	// Eye is the camera position in world space.
	Eye math3d.Vec3
	// Forward is the world-space view direction.
	Forward math3d.Vec3

	viewMatrix     math3d.Mat4
	projMatrix     math3d.Mat4
	viewProjMatrix math3d.Mat4
	dirty          bool
}

// NewCamera creates a camera at the origin looking down -Z with identity
// projection.
func NewCamera() *Camera {
	return &Camera{
		Forward:    math3d.V3(0, 0, -1),
		viewMatrix: math3d.Identity(),
		projMatrix: math3d.Identity(),
		dirty:      true,
	}
}

// SetPose places the camera at position with the given orientation.
func (c *Camera) SetPose(position math3d.Vec3, rotation math3d.Quat) {
	c.Eye = position
	c.Forward = rotation.Rotate(math3d.V3(0, 0, -1))
	c.viewMatrix = math3d.ViewFromPose(position, rotation)
	c.dirty = true
}

// SetProjection sets the projection matrix.
func (c *Camera) SetProjection(m math3d.Mat4) {
	c.projMatrix = m
	c.dirty = true
}

// ViewMatrix returns the view matrix.
func (c *Camera) ViewMatrix() math3d.Mat4 {
	return c.viewMatrix
}

// ProjectionMatrix returns the projection matrix.
func (c *Camera) ProjectionMatrix() math3d.Mat4 {
	return c.projMatrix
}

// ViewProjectionMatrix returns the combined view-projection matrix.
func (c *Camera) ViewProjectionMatrix() math3d.Mat4 {
	if c.dirty {
		c.viewProjMatrix = c.projMatrix.Mul(c.viewMatrix)
		c.dirty = false
	}
	return c.viewProjMatrix
}

// Frustum returns the current view frustum.
func (c *Camera) Frustum() Frustum {
	return NewFrustumFromMatrix(c.ViewProjectionMatrix())
}

// WorldToScreen transforms a world point to screen coordinates.
// Returns (screenX, screenY, depth, visible).
func (c *Camera) WorldToScreen(worldPos math3d.Vec3, screenWidth, screenHeight int) (x, y, depth float64, visible bool) {
	clipPos := c.ViewProjectionMatrix().MulVec4(math3d.V4FromV3(worldPos, 1))

	// Check if behind camera
	if clipPos.W <= 0 {
		return 0, 0, 0, false
	}

	ndc := clipPos.PerspectiveDivide()
	if ndc.X < -1 || ndc.X > 1 || ndc.Y < -1 || ndc.Y > 1 || ndc.Z < -1 || ndc.Z > 1 {
		return 0, 0, 0, false
	}

	x, y = ndcToScreen(ndc, screenWidth, screenHeight)
	return x, y, ndc.Z, true
}

// ndcToScreen maps NDC to pixel coordinates with Y pointing down.
func ndcToScreen(ndc math3d.Vec3, width, height int) (float64, float64) {
	return (ndc.X + 1) * 0.5 * float64(width), (1 - ndc.Y) * 0.5 * float64(height)
}
