// Package grass generates paged grass meshes from per-material layers.
package grass

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-foliage/internal/engine/paging"
	"github.com/Faultbox/midgard-foliage/internal/engine/propmap"
	"github.com/Faultbox/midgard-foliage/internal/engine/random"
	"github.com/Faultbox/midgard-foliage/internal/engine/render"
	"github.com/Faultbox/midgard-foliage/internal/engine/scene"
	"github.com/Faultbox/midgard-foliage/internal/logger"
	"github.com/Faultbox/midgard-foliage/pkg/math"
)

var (
	// ErrCapacity means a page mesh would not fit 16-bit indices.
	ErrCapacity = errors.New("grass page exceeds 16-bit index capacity")
	// ErrMaterialNotFound means a layer names a material the scene lacks.
	ErrMaterialNotFound = errors.New("grass material not found")
)

// Loader builds grass for pages. It owns its layers.
type Loader struct {
	scene   *scene.Manager
	heights HeightSource
	table   *random.Table
	maps    *propmap.Cache

	caps           render.Capabilities
	shadersEnabled bool
	farRange       float32

	renderQueue   uint8
	densityFactor float32
	wind          math.Vec3

	layers []*Layer
}

// Option configures a Loader.
type Option func(*Loader)

// WithRandomTable sets the random table placement draws from.
func WithRandomTable(t *random.Table) Option {
	return func(ld *Loader) { ld.table = t }
}

// WithMapCache shares a property map cache with other loaders.
func WithMapCache(c *propmap.Cache) Option {
	return func(ld *Loader) { ld.maps = c }
}

// WithRenderQueue sets the queue grass entities render in.
func WithRenderQueue(q uint8) Option {
	return func(ld *Loader) { ld.renderQueue = q }
}

// WithDensityFactor scales every layer's density.
func WithDensityFactor(f float32) Option {
	return func(ld *Loader) { ld.densityFactor = f }
}

// WithWind sets the sway direction.
func WithWind(dir math.Vec3) Option {
	return func(ld *Loader) { ld.wind = dir }
}

// WithShaders enables material specialization when caps allow it. farRange is
// the paging far distance the fade is derived from.
func WithShaders(caps render.Capabilities, enabled bool, farRange float32) Option {
	return func(ld *Loader) {
		ld.caps = caps
		ld.shadersEnabled = enabled
		ld.farRange = farRange
	}
}

// NewLoader creates a loader that adds grass to s. heights may be nil for
// flat ground.
func NewLoader(s *scene.Manager, heights HeightSource, opts ...Option) *Loader {
	if heights == nil {
		heights = flat
	}
	ld := &Loader{
		scene:         s,
		heights:       heights,
		renderQueue:   scene.DefaultRenderQueue,
		densityFactor: 1,
		wind:          math.UnitX,
	}
	for _, opt := range opts {
		opt(ld)
	}
	if ld.table == nil {
		ld.table = random.NewDefault()
	}
	if ld.maps == nil {
		ld.maps = propmap.NewCache()
	}
	return ld
}

// AddLayer creates a layer drawn with material.
func (ld *Loader) AddLayer(material string) (*Layer, error) {
	l := newLayer(ld)
	if err := l.SetMaterial(material); err != nil {
		return nil, err
	}
	ld.layers = append(ld.layers, l)
	return l, nil
}

// DeleteLayer removes and closes a layer.
func (ld *Loader) DeleteLayer(l *Layer) {
	if i := slices.Index(ld.layers, l); i >= 0 {
		ld.layers = slices.Delete(ld.layers, i, i+1)
		l.Close()
	}
}

// Layers returns the layers in load order.
func (ld *Loader) Layers() []*Layer {
	return ld.layers
}

// Maps returns the property map cache.
func (ld *Loader) Maps() *propmap.Cache {
	return ld.maps
}

// SetHeightSource replaces the height source.
func (ld *Loader) SetHeightSource(h HeightSource) {
	if h == nil {
		h = flat
	}
	ld.heights = h
}

// SetDensityFactor scales every layer's density on subsequent loads.
func (ld *Loader) SetDensityFactor(f float32) { ld.densityFactor = f }

// SetWind sets the sway direction.
func (ld *Loader) SetWind(dir math.Vec3) { ld.wind = dir }

// Close closes every layer.
func (ld *Loader) Close() {
	for _, l := range ld.layers {
		l.Close()
	}
	ld.layers = nil
}

// LoadPage generates one mesh per layer for the page and hands the resulting
// entities to dst. The random table is rewound once so every layer sees the
// stream from the same point. A layer whose page would overflow the index
// range is logged and skipped.
func (ld *Loader) LoadPage(info *paging.PageInfo, dst paging.Page) error {
	ld.table.Reset()

	for _, l := range ld.layers {
		l.updateShaders()
		if !l.mapBounds.IsZero() && !l.mapBounds.Intersects(info.Bounds) {
			continue
		}

		count := l.instanceCount(info.Bounds, ld.densityFactor)
		p := l.populate(info.Bounds, count, ld.table, ld.heights)
		if len(p.instances) == 0 {
			continue
		}

		mesh, err := ld.buildMesh(info, l, p.instances)
		if errors.Is(err, ErrCapacity) {
			logger.Warn("grass page skipped",
				zap.String("material", l.material),
				zap.Int("page_x", info.XIndex),
				zap.Int("page_z", info.ZIndex),
				zap.Error(err))
			continue
		}
		if err != nil {
			return fmt.Errorf("building grass mesh: %w", err)
		}

		e, err := ld.scene.CreateEntity(ld.scene.UniqueName("grass-"), mesh)
		if err != nil {
			ld.scene.DestroyMesh(mesh.Name)
			return fmt.Errorf("creating grass entity: %w", err)
		}
		e.RenderQueue = ld.renderQueue
		e.VisibilityFlags = scene.VisibilityGrass
		e.CastShadows = false
		dst.AddEntity(e, info.Center, math.QuatIdentity(), math.Vec3{X: 1, Y: 1, Z: 1})

		info.Meshes = append(info.Meshes, mesh)
	}
	return nil
}

// UnloadPage does nothing; pages destroy their own entities.
func (ld *Loader) UnloadPage(*paging.PageInfo) {}

// FrameUpdate advances sway animation by elapsed seconds and publishes the
// shared grass shader parameters.
func (ld *Loader) FrameUpdate(elapsed float32) {
	mats := ld.scene.Materials
	for _, l := range ld.layers {
		l.updateShaders()
		l.advance(elapsed)

		dir := ld.wind.Scale(l.animMag)
		mats.SetShared("grassTimer", l.waveCount)
		mats.SetShared("grassFrequency", l.animFreq)
		mats.SetShared("grassDirection", dir.X, dir.Y, dir.Z, 0)
	}
}
