package picking

import (
	"testing"

	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-foliage/internal/engine/render"
	"github.com/Faultbox/midgard-foliage/pkg/math"
)

func near(a, b math.Vec3) bool {
	return math32.Abs(a.X-b.X) < 1e-4 && math32.Abs(a.Y-b.Y) < 1e-4 && math32.Abs(a.Z-b.Z) < 1e-4
}

func testCamera() render.Camera {
	return render.Camera{
		Orientation: math.Quat{W: 1},
		FOVy:        math32.Pi / 2,
		Aspect:      1,
		Near:        0.1,
		Far:         100,
	}
}

func TestScreenRay(t *testing.T) {
	cam := testCamera()

	center := ScreenRay(cam, 50, 50, 100, 100)
	if !near(center.Direction, math.Vec3{Z: -1}) {
		t.Errorf("center ray = %+v, want -Z", center.Direction)
	}

	corner := ScreenRay(cam, 0, 0, 100, 100)
	want := math.Vec3{X: -1, Y: 1, Z: -1}.Normalize()
	if !near(corner.Direction, want) {
		t.Errorf("top-left ray = %+v, want %+v", corner.Direction, want)
	}
}

func TestIntersectPlaneY(t *testing.T) {
	r := Ray{Origin: math.Vec3{X: 1, Y: 10, Z: 2}, Direction: math.Vec3{Y: -1}}
	p, ok := r.IntersectPlaneY(4)
	if !ok || !near(p, math.Vec3{X: 1, Y: 4, Z: 2}) {
		t.Errorf("IntersectPlaneY = %+v, %v", p, ok)
	}
	if _, ok := r.IntersectPlaneY(20); ok {
		t.Error("plane behind the ray was hit")
	}
	flat := Ray{Direction: math.Vec3{X: 1}}
	if _, ok := flat.IntersectPlaneY(0); ok {
		t.Error("parallel ray hit the plane")
	}
}

func TestIntersectHeight(t *testing.T) {
	ramp := func(x, z float32) float32 { return x * 0.5 }
	r := Ray{Origin: math.Vec3{X: 0, Y: 10, Z: 0}, Direction: math.Vec3{X: 1}}

	p, ok := r.IntersectHeight(ramp, 100, 1)
	if !ok {
		t.Fatal("expected hit")
	}
	if math32.Abs(p.X-20) > 1e-3 {
		t.Errorf("hit at x=%v, want 20", p.X)
	}

	if _, ok := r.IntersectHeight(ramp, 10, 1); ok {
		t.Error("hit beyond maxDist")
	}
	under := Ray{Origin: math.Vec3{X: 30, Y: 0}, Direction: math.Vec3{X: 1}}
	if p, ok := under.IntersectHeight(ramp, 10, 1); !ok || p != under.Origin {
		t.Errorf("ray starting below ground = %+v, %v", p, ok)
	}
}

func TestIntersectAABB(t *testing.T) {
	box := math.AABB{Min: math.Vec3{X: -1, Y: -1, Z: -1}, Max: math.Vec3{X: 1, Y: 1, Z: 1}}

	r := Ray{Origin: math.Vec3{Z: 5}, Direction: math.Vec3{Z: -1}}
	if d, hit := r.IntersectAABB(box); !hit || math32.Abs(d-4) > 1e-5 {
		t.Errorf("IntersectAABB = %v, %v, want 4, true", d, hit)
	}

	inside := Ray{Direction: math.Vec3{X: 1}}
	if d, hit := inside.IntersectAABB(box); !hit || math32.Abs(d-1) > 1e-5 {
		t.Errorf("inside IntersectAABB = %v, %v, want 1, true", d, hit)
	}

	miss := Ray{Origin: math.Vec3{X: 3, Z: 5}, Direction: math.Vec3{Z: -1}}
	if _, hit := miss.IntersectAABB(box); hit {
		t.Error("expected miss")
	}
}
