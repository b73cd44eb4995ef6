package propmap

import "github.com/Faultbox/midgard-foliage/pkg/math"

// DensityMap is a scalar field in [0, 1]. The filter belongs to the handle,
// so layers sharing the same pixels can sample them differently.
type DensityMap struct {
	p      *pixels
	Filter Filter
}

// Name returns the map's source name.
func (m *DensityMap) Name() string {
	return m.p.name
}

// Channel returns the image channel the map reads.
func (m *DensityMap) Channel() Channel {
	return m.p.channel
}

// Size returns the map dimensions in texels.
func (m *DensityMap) Size() (int, int) {
	return m.p.width, m.p.height
}

// DensityAt samples the map stretched over bounds. Positions outside the map
// have zero density.
func (m *DensityMap) DensityAt(x, z float32, bounds math.Rect) float32 {
	if m.Filter == FilterNone {
		return m.densityNearest(x, z, bounds)
	}
	return m.densityBilinear(x, z, bounds)
}

func (m *DensityMap) densityNearest(x, z float32, bounds math.Rect) float32 {
	i := m.p.nearest(x, z, bounds)
	if i < 0 {
		return 0
	}
	return float32(m.p.scalar[i]) / 255
}

func (m *DensityMap) densityBilinear(x, z float32, bounds math.Rect) float32 {
	i, rx, rz := m.p.bilinear(x, z, bounds)
	if i < 0 {
		return 0
	}
	w := m.p.width
	d := m.p.scalar
	top := (1-rx)*float32(d[i]) + rx*float32(d[i+1])
	bottom := (1-rx)*float32(d[i+w]) + rx*float32(d[i+w+1])
	return ((1-rz)*top + rz*bottom) / 255
}
