package impostor

import (
	"errors"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-foliage/internal/engine/render"
	"github.com/Faultbox/midgard-foliage/internal/engine/scene"
	"github.com/Faultbox/midgard-foliage/internal/logger"
	"github.com/Faultbox/midgard-foliage/pkg/math"
)

// ErrNoRenderNode is returned when a bake is requested from a closed cache.
var ErrNoRenderNode = errors.New("impostor render node destroyed")

// Handle refers to a texture held by a Cache. The zero Handle is invalid.
type Handle struct {
	slot uint32
	gen  uint32
}

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool {
	return h.gen == 0
}

type slot struct {
	tex *Texture
	gen uint32
}

// Cache owns every baked impostor texture. Textures are shared by shape key
// and reference counted; the last Release destroys the atlas and its
// materials.
type Cache struct {
	mu       sync.Mutex
	scene    *scene.Manager
	device   render.Device
	settings Settings

	slots []slot
	free  []uint32
	index map[string]Handle

	renderNode *scene.Node
}

// NewCache creates a cache rendering through device. BaseMaterial is defined
// with default properties if the scene does not have one yet.
func NewCache(s *scene.Manager, device render.Device, settings Settings) *Cache {
	if !s.Materials.Has(BaseMaterial) {
		s.Materials.Define(&scene.Material{Name: BaseMaterial, CullNone: true})
	}
	return &Cache{
		scene:      s,
		device:     device,
		settings:   settings.withDefaults(),
		index:      make(map[string]Handle),
		renderNode: s.Root().CreateChild("impostor-render-node", math.Vec3{}),
	}
}

// Settings returns the bake settings.
func (c *Cache) Settings() Settings {
	return c.settings
}

// Acquire returns the texture for e's shape, baking it on first use, and
// takes a reference on it.
func (c *Cache) Acquire(e *scene.Entity) (Handle, *Texture, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if h, ok := c.index[Key(e)]; ok {
		t := c.slots[h.slot].tex
		t.refs++
		return h, t, nil
	}
	if c.renderNode == nil {
		return Handle{}, nil, ErrNoRenderNode
	}

	t, err := newTexture(e)
	if err != nil {
		return Handle{}, nil, err
	}
	if err := c.bake(t, false); err != nil {
		return Handle{}, nil, err
	}
	t.refs = 1

	var h Handle
	if n := len(c.free); n > 0 {
		h.slot = c.free[n-1]
		c.free = c.free[:n-1]
	} else {
		h.slot = uint32(len(c.slots))
		c.slots = append(c.slots, slot{})
	}
	s := &c.slots[h.slot]
	s.gen++
	s.tex = t
	h.gen = s.gen
	c.index[t.key] = h
	return h, t, nil
}

func (c *Cache) get(h Handle) (*Texture, bool) {
	if h.IsZero() || int(h.slot) >= len(c.slots) {
		return nil, false
	}
	s := c.slots[h.slot]
	if s.gen != h.gen || s.tex == nil {
		return nil, false
	}
	return s.tex, true
}

// Get resolves a handle. Stale handles report false.
func (c *Cache) Get(h Handle) (*Texture, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.get(h)
}

// Lookup finds the texture for a shape key.
func (c *Cache) Lookup(key string) (*Texture, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.index[key]
	if !ok {
		return nil, false
	}
	return c.slots[h.slot].tex, true
}

// Len returns the number of live textures.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

// Release drops one reference. Stale handles are ignored.
func (c *Cache) Release(h Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.get(h)
	if !ok {
		return
	}
	t.refs--
	if t.refs > 0 {
		return
	}
	c.destroy(h, t)
}

func (c *Cache) destroy(h Handle, t *Texture) {
	c.removeMaterials(t)
	c.releaseAtlas(t.atlas, t.target)
	t.atlas, t.target = "", nil
	t.state = StateUnbuilt

	delete(c.index, t.key)
	c.slots[h.slot].tex = nil
	c.free = append(c.free, h.slot)
	logger.Debug("impostor texture destroyed", zap.String("key", t.key))
}

// Regenerate rebakes the texture for key, bypassing the disk cache. The
// material set is unchanged; only the atlas they sample is replaced.
func (c *Cache) Regenerate(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.index[key]
	if !ok {
		return nil
	}
	return c.bake(c.slots[h.slot].tex, true)
}

// RegenerateAll rebakes every live texture and reports all failures.
func (c *Cache) RegenerateAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var err error
	for _, s := range c.slots {
		if s.tex != nil {
			err = multierr.Append(err, c.bake(s.tex, true))
		}
	}
	return err
}

// Close destroys every texture regardless of references and removes the
// private render node. Later bakes fail with ErrNoRenderNode.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, s := range c.slots {
		if s.tex == nil {
			continue
		}
		if s.tex.refs > 0 {
			logger.Warn("destroying referenced impostor texture",
				zap.String("key", s.tex.key), zap.Int("refs", s.tex.refs))
		}
		c.destroy(Handle{slot: uint32(i), gen: s.gen}, s.tex)
	}
	if c.renderNode != nil {
		c.scene.Root().RemoveAndDestroyChild(c.renderNode)
		c.renderNode = nil
	}
}
