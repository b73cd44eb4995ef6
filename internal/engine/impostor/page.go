package impostor

import (
	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-foliage/internal/engine/propmap"
	"github.com/Faultbox/midgard-foliage/internal/engine/render"
	"github.com/Faultbox/midgard-foliage/internal/engine/scene"
	"github.com/Faultbox/midgard-foliage/internal/logger"
	"github.com/Faultbox/midgard-foliage/pkg/math"
)

// Page draws the distant instances of one paging grid cell as impostor
// billboards, one batch per entity shape.
type Page struct {
	scene    *scene.Manager
	cache    *Cache
	node     *scene.Node
	pageSize float32

	batches map[string]*Batch
	keys    []string

	// center.Y accumulates instance heights until Build averages them.
	center   math.Vec3
	aveCount int
}

// NewPage creates an empty page sharing textures through cache.
func NewPage(s *scene.Manager, cache *Cache, pageSize float32) *Page {
	return &Page{
		scene:    s,
		cache:    cache,
		node:     s.Root().CreateChild(s.UniqueName("impostor-page-"), math.Vec3{}),
		pageSize: pageSize,
		batches:  make(map[string]*Batch),
	}
}

// SetRegion centres the page on r and restarts the height average.
func (p *Page) SetRegion(r math.Rect) {
	c := r.Center()
	p.center = math.Vec3{X: c.X, Z: c.Z}
	p.aveCount = 0
}

// Center returns the page centre. Y is valid after Build.
func (p *Page) Center() math.Vec3 {
	return p.center
}

// Batch returns the batch for a shape key.
func (p *Page) Batch(key string) (*Batch, bool) {
	b, ok := p.batches[key]
	return b, ok
}

// Batches returns every batch in creation order.
func (p *Page) Batches() []*Batch {
	out := make([]*Batch, 0, len(p.keys))
	for _, k := range p.keys {
		out = append(out, p.batches[k])
	}
	return out
}

// Add adds one instance of e tinted with color, baking its atlas on first
// use of the shape.
func (p *Page) Add(e *scene.Entity, pos math.Vec3, rot math.Quat, scale math.Vec3, color uint32) error {
	key := Key(e)
	b, ok := p.batches[key]
	if !ok {
		var err error
		if b, err = newBatch(p.cache, p.scene, p.node, e); err != nil {
			return err
		}
		p.batches[key] = b
		p.keys = append(p.keys, key)
	}
	b.AddBillboard(pos, rot, scale, color)

	p.center.Y += pos.Y + e.BoundingBox().Center().Y*scale.Y
	p.aveCount++
	return nil
}

// AddEntity adds an untinted instance. Bake failures are logged and the
// instance is dropped.
func (p *Page) AddEntity(e *scene.Entity, pos math.Vec3, rot math.Quat, scale math.Vec3) {
	if err := p.Add(e, pos, rot, scale, propmap.White); err != nil {
		logger.Error("failed to add impostor", zap.String("entity", e.Name), zap.Error(err))
	}
}

// Build averages the page height and builds every batch.
func (p *Page) Build() {
	if p.aveCount != 0 {
		p.center.Y /= float32(p.aveCount)
		p.aveCount = 0
	}
	for _, b := range p.Batches() {
		if err := b.Build(); err != nil {
			logger.Error("failed to build impostor batch", zap.String("key", b.tex.Key()), zap.Error(err))
		}
	}
}

// Update selects the atlas cell each batch shows to viewer. Far away pages
// use the direction to the viewer; near pages use the view direction so
// nearby billboards agree with each other.
func (p *Page) Update(viewer render.Camera) {
	d := viewer.Position.Sub(p.center)
	horizontal := math32.Sqrt(d.X*d.X + d.Z*d.Z)
	pitch := math32.Atan2(d.Y, horizontal)

	var yaw float32
	if horizontal > p.pageSize*3 {
		yaw = math32.Atan2(d.X, d.Z)
	} else {
		dir := viewer.Direction()
		yaw = math32.Atan2(-dir.X, -dir.Z)
	}

	pitchDeg, yawDeg := math.RadToDeg(pitch), math.RadToDeg(yaw)
	for _, b := range p.batches {
		b.SetAngle(pitchDeg, yawDeg)
	}
}

// SetVisible shows or hides the page.
func (p *Page) SetVisible(v bool) {
	for _, b := range p.batches {
		b.SetVisible(v)
	}
}

// SetFade configures distance fading on every batch.
func (p *Page) SetFade(enabled bool, visibleDist, invisibleDist float32) {
	for _, b := range p.batches {
		b.SetFade(enabled, visibleDist, invisibleDist)
	}
}

// RemoveEntities clears every batch. Batches keep their atlases so the page
// can be refilled without rebaking.
func (p *Page) RemoveEntities() {
	for _, b := range p.batches {
		b.Clear()
	}
	p.center.Y = 0
	p.aveCount = 0
}

// Regenerate rebakes the atlas of e's shape.
func (p *Page) Regenerate(e *scene.Entity) error {
	return p.cache.Regenerate(Key(e))
}

// RegenerateAll rebakes every atlas in the cache.
func (p *Page) RegenerateAll() error {
	return p.cache.RegenerateAll()
}

// Close destroys every batch, releasing their atlases.
func (p *Page) Close() {
	for _, k := range p.keys {
		p.batches[k].Close()
	}
	p.batches = make(map[string]*Batch)
	p.keys = nil
	if parent := p.node.Parent(); parent != nil {
		parent.RemoveAndDestroyChild(p.node)
	}
}
