// Package propmap samples 2D property fields (density and colour maps) at
// world coordinates.
package propmap

import (
	"fmt"
	"image"
	"strings"

	"github.com/Faultbox/midgard-foliage/internal/engine/texture"
	"github.com/Faultbox/midgard-foliage/pkg/math"
)

// Channel selects which part of an image a map reads.
type Channel uint8

const (
	ChannelColor Channel = iota
	ChannelRed
	ChannelGreen
	ChannelBlue
	ChannelAlpha
)

// ParseChannel parses "color", "red", "green", "blue" or "alpha".
func ParseChannel(s string) (Channel, error) {
	switch strings.ToLower(s) {
	case "", "color", "colour":
		return ChannelColor, nil
	case "red":
		return ChannelRed, nil
	case "green":
		return ChannelGreen, nil
	case "blue":
		return ChannelBlue, nil
	case "alpha":
		return ChannelAlpha, nil
	}
	return 0, fmt.Errorf("unknown map channel %q", s)
}

func (c Channel) String() string {
	return [...]string{"color", "red", "green", "blue", "alpha"}[c]
}

// Filter is the sampling filter.
type Filter uint8

const (
	// FilterBilinear interpolates the four nearest texels.
	FilterBilinear Filter = iota
	// FilterNone takes the nearest texel.
	FilterNone
)

// ParseFilter parses "none"/"nearest" or "bilinear".
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(s) {
	case "", "bilinear":
		return FilterBilinear, nil
	case "none", "nearest":
		return FilterNone, nil
	}
	return 0, fmt.Errorf("unknown map filter %q", s)
}

// pixels is the shared decoded data behind one or more map handles.
type pixels struct {
	key     string
	name    string
	channel Channel
	width   int
	height  int

	// scalar holds one byte per texel for single-channel maps.
	scalar []uint8
	// argb holds packed colours for colour maps.
	argb []uint32

	refs   int
	file   bool
	colour bool
}

func (p *pixels) fill(img image.Image) {
	colour := p.colour
	rgba := texture.ToRGBA(img)
	p.width, p.height = rgba.Rect.Dx(), rgba.Rect.Dy()
	n := p.width * p.height
	if colour {
		p.argb = make([]uint32, n)
		p.scalar = nil
	} else {
		p.scalar = make([]uint8, n)
		p.argb = nil
	}
	for i := 0; i < n; i++ {
		px := rgba.Pix[i*4 : i*4+4]
		if colour {
			p.argb[i] = uint32(px[3])<<24 | uint32(px[0])<<16 | uint32(px[1])<<8 | uint32(px[2])
			continue
		}
		switch p.channel {
		case ChannelRed:
			p.scalar[i] = px[0]
		case ChannelGreen:
			p.scalar[i] = px[1]
		case ChannelBlue:
			p.scalar[i] = px[2]
		case ChannelAlpha:
			p.scalar[i] = px[3]
		default:
			p.scalar[i] = uint8((uint16(px[0]) + uint16(px[1]) + uint16(px[2])) / 3)
		}
	}
}

// texel converts a world position to continuous texel coordinates.
func (p *pixels) texel(x, z float32, b math.Rect) (float32, float32) {
	return float32(p.width) * (x - b.Left) / b.Width(),
		float32(p.height) * (z - b.Top) / b.Height()
}

// nearest returns the texel index containing (x, z), or -1 outside bounds.
func (p *pixels) nearest(x, z float32, b math.Rect) int {
	if b.Width() <= 0 || b.Height() <= 0 {
		return -1
	}
	fx, fz := p.texel(x, z, b)
	if fx < 0 || fz < 0 {
		return -1
	}
	ix, iz := int(fx), int(fz)
	if ix >= p.width || iz >= p.height {
		return -1
	}
	return iz*p.width + ix
}

// bilinear returns the top-left texel index of the 2x2 footprint around
// (x, z) and the interpolation ratios, or -1 when the footprint leaves the map.
func (p *pixels) bilinear(x, z float32, b math.Rect) (int, float32, float32) {
	if b.Width() <= 0 || b.Height() <= 0 {
		return -1, 0, 0
	}
	fx, fz := p.texel(x, z, b)
	fx -= 0.5
	fz -= 0.5
	if fx <= -1 || fz <= -1 {
		return -1, 0, 0
	}
	ix, iz := int(fx), int(fz)
	if ix >= p.width-1 || iz >= p.height-1 {
		return -1, 0, 0
	}
	return iz*p.width + ix, max(fx-float32(ix), 0), max(fz-float32(iz), 0)
}
