// Package lighting describes the directional light lit materials use.
package lighting

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-foliage/pkg/math"
)

// Sun is a directional light placed by two angles in degrees. Longitude is
// the rotation around Y (0-360) and latitude the elevation above the
// horizon (0-90).
type Sun struct {
	Longitude float32
	Latitude  float32
	Color     math.Vec3
	Ambient   math.Vec3
}

// DefaultSun is a warm afternoon sun.
func DefaultSun() Sun {
	return Sun{
		Longitude: 45,
		Latitude:  55,
		Color:     math.Vec3{X: 0.7, Y: 0.7, Z: 0.65},
		Ambient:   math.Vec3{X: 0.45, Y: 0.45, Z: 0.5},
	}
}

// ToSun returns the normalized vector pointing towards the sun.
func (s Sun) ToSun() math.Vec3 {
	lon := math.DegToRad(s.Longitude)
	lat := math.DegToRad(math32.Max(0, math32.Min(s.Latitude, 90)))
	sinLon, cosLon := math32.Sincos(lon)
	sinLat, cosLat := math32.Sincos(lat)
	return math.Vec3{X: cosLat * sinLon, Y: sinLat, Z: cosLat * cosLon}
}

// Direction returns the direction the light travels in.
func (s Sun) Direction() math.Vec3 {
	return s.ToSun().Neg()
}
