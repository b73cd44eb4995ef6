// Package picking casts rays from the screen into the world.
package picking

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-foliage/internal/engine/render"
	"github.com/Faultbox/midgard-foliage/pkg/math"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3 // Normalized direction
}

// ScreenRay returns the ray from the camera through pixel (x, y) of a
// width by height viewport. Pixel coordinates start at the top left.
func ScreenRay(cam render.Camera, x, y, width, height float32) Ray {
	// Convert screen coords to normalized device coords (-1 to 1)
	ndcX := 2*x/width - 1
	ndcY := 1 - 2*y/height

	tanHalf := math32.Tan(cam.FOVy * 0.5)
	dir := cam.Direction().
		Add(cam.Right().Scale(ndcX * tanHalf * cam.Aspect)).
		Add(cam.Up().Scale(ndcY * tanHalf))
	return Ray{Origin: cam.Position, Direction: dir.Normalize()}
}

// At returns the point t units along the ray.
func (r Ray) At(t float32) math.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// IntersectPlaneY intersects a ray with a horizontal plane at the given Y level.
func (r Ray) IntersectPlaneY(planeY float32) (math.Vec3, bool) {
	if math32.Abs(r.Direction.Y) < 0.001 {
		return math.Vec3{}, false // Ray parallel to plane
	}
	t := (planeY - r.Origin.Y) / r.Direction.Y
	if t < 0 {
		return math.Vec3{}, false // Intersection behind ray origin
	}
	return r.At(t), true
}

// IntersectHeight finds where the ray first dips below a height function.
// It marches in steps of step up to maxDist and refines the crossing by
// bisection.
func (r Ray) IntersectHeight(height func(x, z float32) float32, maxDist, step float32) (math.Vec3, bool) {
	if step <= 0 {
		return math.Vec3{}, false
	}
	above := func(t float32) bool {
		p := r.At(t)
		return p.Y > height(p.X, p.Z)
	}
	if !above(0) {
		return r.Origin, true
	}

	lo := float32(0)
	for hi := step; lo < maxDist; hi += step {
		hi = min(hi, maxDist)
		if !above(hi) {
			for i := 0; i < 16; i++ {
				mid := (lo + hi) * 0.5
				if above(mid) {
					lo = mid
				} else {
					hi = mid
				}
			}
			return r.At(hi), true
		}
		lo = hi
	}
	return math.Vec3{}, false
}

// IntersectAABB tests ray intersection with an axis-aligned bounding box.
// Returns the distance to intersection (t) and whether intersection occurred.
// If the ray starts inside the box, returns the exit distance.
func (r Ray) IntersectAABB(box math.AABB) (t float32, hit bool) {
	tmin := math32.Inf(-1)
	tmax := math32.Inf(1)

	origin := [3]float32{r.Origin.X, r.Origin.Y, r.Origin.Z}
	dir := [3]float32{r.Direction.X, r.Direction.Y, r.Direction.Z}
	lo := [3]float32{box.Min.X, box.Min.Y, box.Min.Z}
	hi := [3]float32{box.Max.X, box.Max.Y, box.Max.Z}
	for i := 0; i < 3; i++ {
		if dir[i] == 0 {
			if origin[i] < lo[i] || origin[i] > hi[i] {
				return 0, false
			}
			continue
		}
		t1 := (lo[i] - origin[i]) / dir[i]
		t2 := (hi[i] - origin[i]) / dir[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}

	if tmax < 0 {
		return 0, false // Box behind ray
	}
	if tmin < 0 {
		return tmax, true // Ray starts inside box
	}
	return tmin, true
}
