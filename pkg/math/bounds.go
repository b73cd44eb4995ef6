package math

// Rect is a world-space rectangle on the XZ plane. Top is the minimum Z and
// Bottom the maximum Z, matching the paging grid orientation.
type Rect struct {
	Left, Top, Right, Bottom float32
}

// Width returns the X extent.
func (r Rect) Width() float32 {
	return r.Right - r.Left
}

// Height returns the Z extent.
func (r Rect) Height() float32 {
	return r.Bottom - r.Top
}

// Area returns Width * Height.
func (r Rect) Area() float32 {
	return r.Width() * r.Height()
}

// Center returns the rectangle center as an XZ point with Y = 0.
func (r Rect) Center() Vec3 {
	return Vec3{X: (r.Left + r.Right) * 0.5, Z: (r.Top + r.Bottom) * 0.5}
}

// Contains reports whether (x, z) lies inside the rectangle, edges included.
func (r Rect) Contains(x, z float32) bool {
	return x >= r.Left && x <= r.Right && z >= r.Top && z <= r.Bottom
}

// Intersects reports whether the rectangles overlap or touch.
func (r Rect) Intersects(o Rect) bool {
	return !(r.Right < o.Left || r.Left > o.Right || r.Bottom < o.Top || r.Top > o.Bottom)
}

// IsZero reports whether the rectangle is the zero value.
func (r Rect) IsZero() bool {
	return r == Rect{}
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max Vec3
}

// Center returns the box center.
func (b AABB) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the box extents.
func (b AABB) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// Extend grows the box to include p.
func (b *AABB) Extend(p Vec3) {
	b.Min.X = min(b.Min.X, p.X)
	b.Min.Y = min(b.Min.Y, p.Y)
	b.Min.Z = min(b.Min.Z, p.Z)
	b.Max.X = max(b.Max.X, p.X)
	b.Max.Y = max(b.Max.Y, p.Y)
	b.Max.Z = max(b.Max.Z, p.Z)
}

// EmptyAABB returns an inverted box ready for Extend.
func EmptyAABB() AABB {
	return AABB{
		Min: Vec3{1e30, 1e30, 1e30},
		Max: Vec3{-1e30, -1e30, -1e30},
	}
}
