package propmap

import "github.com/Faultbox/midgard-foliage/pkg/math"

// White is the colour returned outside a colour map.
const White uint32 = 0xFFFFFFFF

// ColorMap is a packed ARGB field.
type ColorMap struct {
	p      *pixels
	Filter Filter
}

// Name returns the map's source name.
func (m *ColorMap) Name() string {
	return m.p.name
}

// Size returns the map dimensions in texels.
func (m *ColorMap) Size() (int, int) {
	return m.p.width, m.p.height
}

// ColorAt samples the map stretched over bounds as packed ARGB.
func (m *ColorMap) ColorAt(x, z float32, bounds math.Rect) uint32 {
	if m.Filter == FilterNone {
		i := m.p.nearest(x, z, bounds)
		if i < 0 {
			return White
		}
		return m.p.argb[i]
	}

	i, rx, rz := m.p.bilinear(x, z, bounds)
	if i < 0 {
		return White
	}
	w := m.p.width
	c := m.p.argb
	top := lerpColor(c[i], c[i+1], rx)
	bottom := lerpColor(c[i+w], c[i+w+1], rx)
	return lerpColor(top, bottom, rz)
}

// lerpColor interpolates each 8-bit component of two ARGB colours.
func lerpColor(a, b uint32, t float32) uint32 {
	var out uint32
	for shift := 0; shift < 32; shift += 8 {
		ca := float32((a >> shift) & 0xFF)
		cb := float32((b >> shift) & 0xFF)
		v := uint32(ca + (cb-ca)*t + 0.5)
		out |= min(v, 0xFF) << shift
	}
	return out
}
