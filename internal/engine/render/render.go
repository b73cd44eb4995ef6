// Package render defines the device capabilities the foliage code renders
// through: off-screen targets, texture upload and scoped global state.
package render

import (
	"image"

	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-foliage/internal/engine/scene"
	"github.com/Faultbox/midgard-foliage/pkg/math"
)

// Capabilities describes optional device features.
type Capabilities struct {
	VertexPrograms bool
	MaxTextureSize int
}

// Camera is a perspective camera. Orientation maps camera space to world
// space and the camera looks down its local -Z.
type Camera struct {
	Position    math.Vec3
	Orientation math.Quat
	FOVy        float32 // radians
	Aspect      float32
	Near, Far   float32
}

// Direction returns the world-space view direction.
func (c Camera) Direction() math.Vec3 {
	return c.Orientation.Rotate(math.Vec3{Z: -1})
}

// Right returns the world-space right axis.
func (c Camera) Right() math.Vec3 {
	return c.Orientation.Rotate(math.UnitX)
}

// Up returns the world-space up axis.
func (c Camera) Up() math.Vec3 {
	return c.Orientation.Rotate(math.UnitY)
}

// View returns the world-to-camera matrix.
func (c Camera) View() math.Mat4 {
	inv := math.Quat{X: -c.Orientation.X, Y: -c.Orientation.Y, Z: -c.Orientation.Z, W: c.Orientation.W}
	m := inv.ToMat4()
	t := inv.Rotate(c.Position.Neg())
	m[12], m[13], m[14] = t.X, t.Y, t.Z
	return m
}

// Projection returns the perspective matrix.
func (c Camera) Projection() math.Mat4 {
	return math.Perspective(c.FOVy, c.Aspect, c.Near, c.Far)
}

// LookAt orients the camera toward target with +Y up.
func (c *Camera) LookAt(target math.Vec3) {
	dir := target.Sub(c.Position).Normalize()
	yaw := math32.Atan2(-dir.X, -dir.Z)
	pitch := math32.Asin(dir.Y)
	c.Orientation = math.QuatFromAxisAngle(math.UnitY, yaw).Mul(math.QuatFromAxisAngle(math.UnitX, pitch))
}

// Viewport is a sub-rectangle of a target in relative [0,1] coordinates with
// the origin at the top left.
type Viewport struct {
	Left, Top, Width, Height float32
}

// FullViewport covers the whole target.
var FullViewport = Viewport{Width: 1, Height: 1}

// Pixels converts the viewport to pixel coordinates of a w*h target.
func (v Viewport) Pixels(w, h int) image.Rectangle {
	x0 := int(math32.Round(v.Left * float32(w)))
	y0 := int(math32.Round(v.Top * float32(h)))
	x1 := int(math32.Round((v.Left + v.Width) * float32(w)))
	y1 := int(math32.Round((v.Top + v.Height) * float32(h)))
	return image.Rect(x0, y0, x1, y1)
}

// Pass is one render of a scene into a viewport.
type Pass struct {
	Camera     Camera
	Viewport   Viewport
	Background [4]float32
	Clear      bool
	Overlays   bool
	Shadows    bool
	// Scheme selects material techniques; empty means the default scheme.
	Scheme string
}

// RenderTarget is an off-screen colour buffer that is also usable as a
// texture under its name.
type RenderTarget interface {
	Name() string
	Size() (width, height int)
	Render(s *scene.Manager, p Pass) error
	ReadPixels() (*image.RGBA, error)
	Release()
}

// Device creates device resources.
type Device interface {
	Capabilities() Capabilities
	CreateRenderTarget(name string, width, height int) (RenderTarget, error)
	LoadTexture(name string, img image.Image) error
	RemoveTexture(name string)
}

// Override replaces the scene's global render state and returns a function
// that restores the previous state. Callers defer the restore so it runs on
// panics as well.
func Override(s *scene.Manager, st scene.RenderState) (restore func()) {
	saved := s.State.Clone()
	s.State = st
	return func() {
		s.State = saved
	}
}
