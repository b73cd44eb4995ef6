package propmap

import (
	"fmt"
	"image"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-foliage/internal/engine/texture"
	"github.com/Faultbox/midgard-foliage/internal/logger"
)

// Cache shares decoded map pixels between layers. Each Load or FromImage call
// takes a reference that Release gives back; pixels are dropped when the
// last reference goes.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*pixels
	load    func(path string) (image.Image, error)
}

// NewCache creates a cache that reads files with texture.Load.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]*pixels),
		load:    texture.Load,
	}
}

func cacheKey(name string, ch Channel, colour bool) string {
	if colour {
		return "color:" + name
	}
	return ch.String() + ":" + name
}

func (c *Cache) acquire(name string, ch Channel, colour bool, src func() (image.Image, error), file bool) (*pixels, error) {
	key := cacheKey(name, ch, colour)

	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.entries[key]; ok {
		p.refs++
		return p, nil
	}

	img, err := src()
	if err != nil {
		return nil, err
	}
	p := &pixels{key: key, name: name, channel: ch, refs: 1, file: file, colour: colour}
	p.fill(img)
	c.entries[key] = p
	logger.Debug("map loaded",
		zap.String("name", name),
		zap.String("channel", ch.String()),
		zap.Int("width", p.width),
		zap.Int("height", p.height))
	return p, nil
}

// LoadDensity returns a density map read from the image file at path.
func (c *Cache) LoadDensity(path string, ch Channel) (*DensityMap, error) {
	p, err := c.acquire(path, ch, false, func() (image.Image, error) { return c.load(path) }, true)
	if err != nil {
		return nil, fmt.Errorf("density map: %w", err)
	}
	return &DensityMap{p: p}, nil
}

// DensityFromImage returns a density map for an in-memory image registered
// under name. A name already in the cache reuses the cached pixels.
func (c *Cache) DensityFromImage(name string, img image.Image, ch Channel) *DensityMap {
	p, _ := c.acquire(name, ch, false, func() (image.Image, error) { return img, nil }, false)
	return &DensityMap{p: p}
}

// LoadColor returns a colour map read from the image file at path.
func (c *Cache) LoadColor(path string) (*ColorMap, error) {
	p, err := c.acquire(path, ChannelColor, true, func() (image.Image, error) { return c.load(path) }, true)
	if err != nil {
		return nil, fmt.Errorf("color map: %w", err)
	}
	return &ColorMap{p: p}, nil
}

// ColorFromImage returns a colour map for an in-memory image.
func (c *Cache) ColorFromImage(name string, img image.Image) *ColorMap {
	p, _ := c.acquire(name, ChannelColor, true, func() (image.Image, error) { return img, nil }, false)
	return &ColorMap{p: p}
}

func (c *Cache) release(p *pixels) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p.refs--
	if p.refs <= 0 && c.entries[p.key] == p {
		delete(c.entries, p.key)
		logger.Debug("map released", zap.String("name", p.name))
	}
}

// ReleaseDensity gives back a reference taken by LoadDensity or DensityFromImage.
func (c *Cache) ReleaseDensity(m *DensityMap) {
	if m != nil {
		c.release(m.p)
	}
}

// ReleaseColor gives back a reference taken by LoadColor or ColorFromImage.
func (c *Cache) ReleaseColor(m *ColorMap) {
	if m != nil {
		c.release(m.p)
	}
}

// Refs returns the reference count of a cached density map, 0 if absent.
func (c *Cache) Refs(name string, ch Channel) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.entries[cacheKey(name, ch, false)]; ok {
		return p.refs
	}
	return 0
}

// Len returns the number of cached maps.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Reload re-reads every map loaded from path. Handles keep pointing at the
// same pixels, so layers see the new data on their next page load. It
// reports whether any map used the file.
func (c *Cache) Reload(path string) (bool, error) {
	c.mu.Lock()
	var targets []*pixels
	for _, p := range c.entries {
		if p.file && p.name == path {
			targets = append(targets, p)
		}
	}
	c.mu.Unlock()

	if len(targets) == 0 {
		return false, nil
	}

	img, err := c.load(path)
	if err != nil {
		return true, fmt.Errorf("reloading %s: %w", path, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range targets {
		p.fill(img)
	}
	logger.Info("map reloaded", zap.String("path", path), zap.Int("maps", len(targets)))
	return true, nil
}
