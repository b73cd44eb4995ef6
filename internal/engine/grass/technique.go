package grass

import (
	"fmt"
	"strings"
)

// Technique selects how each grass instance is turned into geometry.
type Technique uint8

const (
	// TechniqueQuad emits one upright quad per instance.
	TechniqueQuad Technique = iota
	// TechniqueCrossQuads emits two perpendicular quads per instance.
	TechniqueCrossQuads
	// TechniqueSprite emits one camera-facing quad whose corner offsets
	// travel in the normal channel.
	TechniqueSprite
)

// ParseTechnique parses "quad", "crossquads" or "sprite".
func ParseTechnique(s string) (Technique, error) {
	switch strings.ToLower(s) {
	case "", "quad":
		return TechniqueQuad, nil
	case "crossquads", "cross_quads":
		return TechniqueCrossQuads, nil
	case "sprite":
		return TechniqueSprite, nil
	}
	return 0, fmt.Errorf("unknown grass technique %q", s)
}

func (t Technique) String() string {
	switch t {
	case TechniqueCrossQuads:
		return "crossquads"
	case TechniqueSprite:
		return "sprite"
	default:
		return "quad"
	}
}

// quadsPerInstance returns how many quads one instance produces.
func (t Technique) quadsPerInstance() int {
	if t == TechniqueCrossQuads {
		return 2
	}
	return 1
}

// FadeTechnique selects how grass disappears at the far range.
type FadeTechnique uint8

const (
	// FadeAlpha fades grass out with transparency.
	FadeAlpha FadeTechnique = iota
	// FadeGrow shrinks grass into the ground.
	FadeGrow
	// FadeAlphaGrow does both.
	FadeAlphaGrow
)

// ParseFade parses "alpha", "grow" or "alphagrow".
func ParseFade(s string) (FadeTechnique, error) {
	switch strings.ToLower(s) {
	case "", "alpha":
		return FadeAlpha, nil
	case "grow":
		return FadeGrow, nil
	case "alphagrow", "alpha_grow":
		return FadeAlphaGrow, nil
	}
	return 0, fmt.Errorf("unknown fade technique %q", s)
}

func (f FadeTechnique) String() string {
	switch f {
	case FadeGrow:
		return "grow"
	case FadeAlphaGrow:
		return "alphagrow"
	default:
		return "alpha"
	}
}
