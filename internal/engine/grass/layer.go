package grass

import (
	"fmt"
	"image"
	"strings"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-foliage/internal/engine/propmap"
	"github.com/Faultbox/midgard-foliage/internal/logger"
	"github.com/Faultbox/midgard-foliage/pkg/math"
)

// fadeRangeDivisor is sqrt(1.5). The far range is measured to page centres,
// and grass must be gone before the nearest corner of a page leaves range.
const fadeRangeDivisor = 1.2247449

// Layer is one grass material with its placement and appearance settings.
// Layers are created by Loader.AddLayer.
type Layer struct {
	loader *Loader

	material    string
	specialized string

	density              float32
	minWidth, maxWidth   float32
	minHeight, maxHeight float32
	minY, maxY           float32
	maxSlope             float32

	technique Technique
	blendBase bool
	fade      FadeTechnique
	lighting  bool

	animate            bool
	animMag, animSpeed float32
	animFreq           float32
	waveCount          float32

	mapBounds     math.Rect
	densityMap    *propmap.DensityMap
	densityFilter propmap.Filter
	colorMap      *propmap.ColorMap
	colorFilter   propmap.Filter

	shaderNeedsUpdate bool
}

func newLayer(ld *Loader) *Layer {
	return &Layer{
		loader:            ld,
		density:           1,
		minWidth:          1,
		maxWidth:          1,
		minHeight:         1,
		maxHeight:         1,
		maxSlope:          1000,
		technique:         TechniqueQuad,
		fade:              FadeAlpha,
		animMag:           1,
		animSpeed:         1,
		animFreq:          1,
		densityFilter:     propmap.FilterBilinear,
		colorFilter:       propmap.FilterBilinear,
		shaderNeedsUpdate: true,
	}
}

// SetMaterial switches the layer to another material. The material must
// exist in the scene's library.
func (l *Layer) SetMaterial(name string) error {
	if name == l.material {
		return nil
	}
	if !l.loader.scene.Materials.Has(name) {
		return fmt.Errorf("%w: %q", ErrMaterialNotFound, name)
	}
	l.material = name
	l.specialized = ""
	l.shaderNeedsUpdate = true
	return nil
}

// Material returns the layer's base material.
func (l *Layer) Material() string { return l.material }

// MeshMaterial returns the material generated meshes are drawn with: the
// shader-specialized clone when one exists, the base material otherwise.
func (l *Layer) MeshMaterial() string {
	if l.specialized != "" {
		return l.specialized
	}
	return l.material
}

// SetDensity sets instances per square world unit.
func (l *Layer) SetDensity(d float32) { l.density = d }

// Density returns instances per square world unit.
func (l *Layer) Density() float32 { return l.density }

// SetMinimumSize sets the smallest blade width and height.
func (l *Layer) SetMinimumSize(width, height float32) {
	l.minWidth, l.minHeight = width, height
}

// SetMaximumSize sets the largest blade width and height.
func (l *Layer) SetMaximumSize(width, height float32) {
	l.maxWidth = width
	if l.maxHeight != height {
		l.maxHeight = height
		l.shaderNeedsUpdate = true
	}
}

// SetHeightRange limits placement to terrain heights in [minY, maxY]. A zero
// bound leaves that side open; both zero disables the check.
func (l *Layer) SetHeightRange(minY, maxY float32) {
	l.minY, l.maxY = minY, maxY
}

// SetMaxSlope sets the steepest height change per unit width a blade may
// span before it collapses.
func (l *Layer) SetMaxSlope(s float32) { l.maxSlope = s }

// SetRenderTechnique selects the geometry technique. blendBase fades the
// bottom of blades into the ground.
func (l *Layer) SetRenderTechnique(t Technique, blendBase bool) {
	if l.technique != t || l.blendBase != blendBase {
		l.technique, l.blendBase = t, blendBase
		l.shaderNeedsUpdate = true
	}
}

// Technique returns the geometry technique.
func (l *Layer) Technique() Technique { return l.technique }

// SetFadeTechnique selects how grass fades at the far range.
func (l *Layer) SetFadeTechnique(f FadeTechnique) {
	if l.fade != f {
		l.fade = f
		l.shaderNeedsUpdate = true
	}
}

// SetAnimationEnabled toggles wind sway.
func (l *Layer) SetAnimationEnabled(enabled bool) {
	if l.animate != enabled {
		l.animate = enabled
		l.shaderNeedsUpdate = true
	}
}

// SetSwayMagnitude sets how far blades bend.
func (l *Layer) SetSwayMagnitude(m float32) { l.animMag = m }

// SetSwaySpeed sets how fast the wave advances.
func (l *Layer) SetSwaySpeed(s float32) { l.animSpeed = s }

// SetSwayFrequency sets the spatial frequency of the wave.
func (l *Layer) SetSwayFrequency(f float32) { l.animFreq = f }

// SetLightingEnabled toggles lighting on the specialized material.
func (l *Layer) SetLightingEnabled(enabled bool) {
	if l.lighting != enabled {
		l.lighting = enabled
		l.shaderNeedsUpdate = true
	}
}

// SetMapBounds sets the world rectangle density and colour maps stretch
// over. Pages outside it get no grass from this layer.
func (l *Layer) SetMapBounds(b math.Rect) { l.mapBounds = b }

// MapBounds returns the map rectangle.
func (l *Layer) MapBounds() math.Rect { return l.mapBounds }

// SetDensityMap loads a density map from an image file, replacing the current
// one. An empty path clears it.
func (l *Layer) SetDensityMap(path string, ch propmap.Channel) error {
	var m *propmap.DensityMap
	if path != "" {
		var err error
		if m, err = l.loader.maps.LoadDensity(path, ch); err != nil {
			return err
		}
	}
	l.replaceDensityMap(m)
	return nil
}

// SetDensityMapImage uses an in-memory image as the density map.
func (l *Layer) SetDensityMapImage(name string, img image.Image, ch propmap.Channel) {
	var m *propmap.DensityMap
	if img != nil {
		m = l.loader.maps.DensityFromImage(name, img, ch)
	}
	l.replaceDensityMap(m)
}

func (l *Layer) replaceDensityMap(m *propmap.DensityMap) {
	l.loader.maps.ReleaseDensity(l.densityMap)
	l.densityMap = m
	if m != nil {
		m.Filter = l.densityFilter
	}
}

// SetDensityMapFilter sets the density map sampling filter.
func (l *Layer) SetDensityMapFilter(f propmap.Filter) {
	l.densityFilter = f
	if l.densityMap != nil {
		l.densityMap.Filter = f
	}
}

// SetColorMap loads a colour map from an image file. An empty path clears it.
func (l *Layer) SetColorMap(path string) error {
	var m *propmap.ColorMap
	if path != "" {
		var err error
		if m, err = l.loader.maps.LoadColor(path); err != nil {
			return err
		}
	}
	l.replaceColorMap(m)
	return nil
}

// SetColorMapImage uses an in-memory image as the colour map.
func (l *Layer) SetColorMapImage(name string, img image.Image) {
	var m *propmap.ColorMap
	if img != nil {
		m = l.loader.maps.ColorFromImage(name, img)
	}
	l.replaceColorMap(m)
}

func (l *Layer) replaceColorMap(m *propmap.ColorMap) {
	l.loader.maps.ReleaseColor(l.colorMap)
	l.colorMap = m
	if m != nil {
		m.Filter = l.colorFilter
	}
}

// SetColorMapFilter sets the colour map sampling filter.
func (l *Layer) SetColorMapFilter(f propmap.Filter) {
	l.colorFilter = f
	if l.colorMap != nil {
		l.colorMap.Filter = f
	}
}

// Close releases the layer's maps.
func (l *Layer) Close() {
	l.replaceDensityMap(nil)
	l.replaceColorMap(nil)
}

// vertexProgram names the grass vertex stage for the layer's options.
func (l *Layer) vertexProgram() string {
	var b strings.Builder
	b.WriteString("GrassVS_")
	if l.animate {
		b.WriteString("anim_")
	}
	if l.blendBase {
		b.WriteString("blend_")
	}
	b.WriteString(l.technique.String())
	b.WriteString("_")
	b.WriteString(l.fade.String())
	return b.String()
}

// updateShaders builds the specialized material when shaders are available.
// Without vertex program support the base material is used unchanged.
func (l *Layer) updateShaders() {
	if !l.shaderNeedsUpdate {
		return
	}
	l.shaderNeedsUpdate = false

	ld := l.loader
	if !ld.caps.VertexPrograms || !ld.shadersEnabled {
		l.specialized = ""
		return
	}

	ld.scene.Materials.SetShared("grassFadeRange", ld.farRange/fadeRangeDivisor)

	name := l.material + "/" + l.vertexProgram()
	m, err := ld.scene.Materials.Clone(l.material, name)
	if err != nil {
		logger.Warn("grass material specialization failed",
			zap.String("material", l.material),
			zap.Error(err))
		l.specialized = ""
		return
	}
	m.Lighting = l.lighting
	m.VertexProgram = l.vertexProgram()
	m.Params = []string{"grassFadeRange"}
	if l.animate {
		m.Params = append(m.Params, "grassTimer", "grassFrequency", "grassDirection")
	}
	l.specialized = name
}

// advance moves the sway wave forward by elapsed seconds.
func (l *Layer) advance(elapsed float32) {
	l.waveCount += elapsed * l.animSpeed * math32.Pi
	if l.waveCount > 2*math32.Pi {
		l.waveCount -= 2 * math32.Pi
	}
}
