// Package camera provides the orbit camera used to fly over the foliage.
package camera

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-foliage/internal/engine/render"
	"github.com/Faultbox/midgard-foliage/pkg/math"
)

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	// Center point to orbit around
	Center math.Vec3

	// Spherical coordinates
	Distance  float32 // Distance from center
	RotationX float32 // Pitch (vertical angle, radians)
	RotationY float32 // Yaw (horizontal angle, radians)

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32
	// MoveSpeed is the pan speed in distances per second.
	MoveSpeed float32

	FOVy      float32 // radians
	Near, Far float32
}

// NewOrbitCamera creates a new orbit camera with default settings.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        60,
		RotationX:       0.4,
		MinDistance:     5,
		MaxDistance:     1500,
		MinPitch:        -0.2,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
		MoveSpeed:       0.8,
		FOVy:            math.DegToRad(60),
		Near:            0.5,
		Far:             5000,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	sinX, cosX := math32.Sincos(c.RotationX)
	sinY, cosY := math32.Sincos(c.RotationY)
	return c.Center.Add(math.Vec3{
		X: c.Distance * cosX * sinY,
		Y: c.Distance * sinX,
		Z: c.Distance * cosX * cosY,
	})
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Center, math.UnitY)
}

// Camera returns the render camera for a viewport of the given aspect.
func (c *OrbitCamera) Camera(aspect float32) render.Camera {
	cam := render.Camera{
		Position: c.Position(),
		FOVy:     c.FOVy,
		Aspect:   aspect,
		Near:     c.Near,
		Far:      c.Far,
	}
	cam.LookAt(c.Center)
	return cam
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.RotationY -= deltaX * c.DragSensitivity
	c.RotationX = clampf(c.RotationX+deltaY*c.DragSensitivity, c.MinPitch, c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance = clampf(c.Distance-delta*c.Distance*c.ZoomSensitivity, c.MinDistance, c.MaxDistance)
}

// HandleMovement pans the center on the ground plane. forward and right are
// axis values in [-1, 1]; elapsed is in seconds.
func (c *OrbitCamera) HandleMovement(forward, right, elapsed float32) {
	speed := c.Distance * c.MoveSpeed * elapsed
	sinY, cosY := math32.Sincos(c.RotationY)

	// W moves "into" the scene, away from the camera.
	c.Center.X += (-sinY*forward + cosY*right) * speed
	c.Center.Z += (-cosY*forward - sinY*right) * speed
}

// Follow keeps the center on the ground.
func (c *OrbitCamera) Follow(height func(x, z float32) float32) {
	c.Center.Y = height(c.Center.X, c.Center.Z)
}

// FitToBounds centers the camera over a rectangle of the ground.
func (c *OrbitCamera) FitToBounds(r math.Rect) {
	c.Center = r.Center()
	c.Distance = clampf(max(r.Width(), r.Height())*0.1, c.MinDistance, c.MaxDistance)
	c.RotationX = 0.4
	c.RotationY = 0
}

func clampf(v, lo, hi float32) float32 {
	return max(lo, min(v, hi))
}
