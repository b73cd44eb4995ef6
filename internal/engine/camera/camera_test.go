package camera

import (
	"testing"

	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-foliage/pkg/math"
)

func near(a, b float32) bool {
	return math32.Abs(a-b) < 1e-3
}

func TestPosition(t *testing.T) {
	c := NewOrbitCamera()
	c.Center = math.Vec3{X: 10, Z: 10}
	c.Distance = 100
	c.RotationX = 0
	c.RotationY = math32.Pi / 2

	p := c.Position()
	if !near(p.X, 110) || !near(p.Y, 0) || !near(p.Z, 10) {
		t.Errorf("Position() = %v, want (110, 0, 10)", p)
	}
}

func TestCameraLooksAtCenter(t *testing.T) {
	c := NewOrbitCamera()
	c.Center = math.Vec3{X: 5, Y: 2, Z: -3}
	cam := c.Camera(16.0 / 9)

	want := c.Center.Sub(cam.Position).Normalize()
	got := cam.Direction()
	if !near(got.X, want.X) || !near(got.Y, want.Y) || !near(got.Z, want.Z) {
		t.Errorf("Direction() = %v, want %v", got, want)
	}
	if cam.Aspect != 16.0/9 {
		t.Errorf("Aspect = %v", cam.Aspect)
	}
}

func TestHandleDragClampsPitch(t *testing.T) {
	c := NewOrbitCamera()
	c.HandleDrag(0, 1e6)
	if c.RotationX != c.MaxPitch {
		t.Errorf("RotationX = %v, want %v", c.RotationX, c.MaxPitch)
	}
	c.HandleDrag(0, -1e6)
	if c.RotationX != c.MinPitch {
		t.Errorf("RotationX = %v, want %v", c.RotationX, c.MinPitch)
	}
}

func TestHandleZoomClamps(t *testing.T) {
	c := NewOrbitCamera()
	c.HandleZoom(100)
	if c.Distance != c.MinDistance {
		t.Errorf("Distance = %v, want %v", c.Distance, c.MinDistance)
	}
}

func TestHandleMovementForward(t *testing.T) {
	c := NewOrbitCamera()
	c.Distance = 10
	c.MoveSpeed = 1
	c.HandleMovement(1, 0, 1)
	// Yaw 0 puts the camera on +Z, so forward is -Z.
	if !near(c.Center.X, 0) || !near(c.Center.Z, -10) {
		t.Errorf("Center = %v, want (0, 0, -10)", c.Center)
	}
}

func TestFollow(t *testing.T) {
	c := NewOrbitCamera()
	c.Center = math.Vec3{X: 3, Z: 4}
	c.Follow(func(x, z float32) float32 { return x * z })
	if c.Center.Y != 12 {
		t.Errorf("Center.Y = %v, want 12", c.Center.Y)
	}
}
