// Package impostor bakes entities into multi-angle atlas textures and draws
// distant instances as billboards showing the matching atlas cell.
package impostor

import (
	"fmt"
	"strings"

	"github.com/Faultbox/midgard-foliage/internal/engine/scene"
)

// BaseMaterial is the template every impostor cell material is cloned from.
const BaseMaterial = "ImpostorBase"

// Scheme is the material scheme capture passes render with.
const Scheme = "impostor_rtt"

// Blend selects how impostor billboards composite.
type Blend uint8

const (
	// BlendAlphaReject cuts out texels with alpha below 128.
	BlendAlphaReject Blend = iota
	// BlendAlpha blends smoothly and disables depth writes.
	BlendAlpha
)

// ParseBlend parses "alpha_reject" or "alpha_blend".
func ParseBlend(s string) (Blend, error) {
	switch strings.ToLower(s) {
	case "", "alpha_reject":
		return BlendAlphaReject, nil
	case "alpha_blend":
		return BlendAlpha, nil
	}
	return 0, fmt.Errorf("unknown impostor blend %q", s)
}

// Origin is the billboard pivot.
type Origin uint8

const (
	OriginCenter Origin = iota
	OriginBottomCenter
)

// ParseOrigin parses "center" or "bottom_center".
func ParseOrigin(s string) (Origin, error) {
	switch strings.ToLower(s) {
	case "", "center":
		return OriginCenter, nil
	case "bottom_center":
		return OriginBottomCenter, nil
	}
	return 0, fmt.Errorf("unknown impostor pivot %q", s)
}

// Settings configures baking for every texture in a cache.
type Settings struct {
	// Resolution is the edge length of one atlas cell in pixels.
	Resolution  int
	PitchAngles int
	YawAngles   int
	// Background clears each capture cell. Defaults to transparent black.
	Background [4]float32
	Pivot      Origin
	Blend      Blend
	// RenderAboveOnly captures pitches from 0 to 90 degrees instead of -90
	// to 90.
	RenderAboveOnly bool
	// RenderQueue is the paging render queue. Captures isolate RenderQueue+1.
	RenderQueue uint8
	// CacheDir stores baked atlases as PNG files when set.
	CacheDir        string
	ForceRegenerate bool
}

// DefaultSettings returns 256 pixel cells on a 4 pitch by 8 yaw grid.
func DefaultSettings() Settings {
	return Settings{
		Resolution:  256,
		PitchAngles: 4,
		YawAngles:   8,
		Pivot:       OriginCenter,
		Blend:       BlendAlphaReject,
		RenderQueue: scene.DefaultRenderQueue,
	}
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.Resolution < 1 {
		s.Resolution = d.Resolution
	}
	if s.PitchAngles < 1 {
		s.PitchAngles = d.PitchAngles
	}
	if s.YawAngles < 1 {
		s.YawAngles = d.YawAngles
	}
	return s
}

// captureQueue is the queue an entity is moved to while it is captured.
func (s Settings) captureQueue() uint8 {
	return s.RenderQueue + 1
}

// CapturePitch returns the camera pitch in degrees of atlas row o.
func (s Settings) CapturePitch(o int) float32 {
	p := float32(s.PitchAngles)
	if s.RenderAboveOnly {
		return 90 * float32(o) / p
	}
	return 180*float32(o)/p - 90
}

// CaptureYaw returns the camera yaw in degrees of atlas column i.
func (s Settings) CaptureYaw(i int) float32 {
	return 360 * float32(i) / float32(s.YawAngles)
}

// PitchIndex returns the atlas row for a viewer pitch in degrees.
func (s Settings) PitchIndex(pitchDeg float32) int {
	p := s.PitchAngles
	var idx int
	if s.RenderAboveOnly {
		if pitchDeg > 0 {
			maxDeg := 90 * float32(p-1) / float32(p)
			idx = int(float32(p) * (pitchDeg / maxDeg))
		}
	} else {
		const minDeg = -90
		maxDeg := 180*float32(p-1)/float32(p) - 90
		idx = int(float32(p) * ((pitchDeg - minDeg) / (maxDeg - minDeg)))
	}
	return max(0, min(idx, p-1))
}

// YawIndex returns the atlas column for a viewer yaw in degrees, rounding to
// the nearest capture angle.
func (s Settings) YawIndex(yawDeg float32) int {
	y := float32(s.YawAngles)
	if yawDeg > 0 {
		return int(y*(yawDeg/360)+0.5) % s.YawAngles
	}
	return int(y+y*(yawDeg/360)+0.5) % s.YawAngles
}

// Sanitize replaces characters that are invalid in file names with '-'.
func Sanitize(key string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		return r
	}, key)
}
