// Package assets resolves the images the viewer draws with. Files in the
// asset directories win over the built-in generators.
package assets

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/Faultbox/midgard-foliage/internal/engine/texture"
)

// ErrNotFound means no directory holds the image and no generator makes it.
var ErrNotFound = errors.New("asset not found")

// Generator produces a built-in image.
type Generator func() image.Image

// Manager looks images up in asset directories, then in generators.
type Manager struct {
	roots      []string
	generators map[string]Generator
	cache      *Cache
	mu         sync.RWMutex
}

// NewManager creates a manager searching roots with the built-in generators
// registered.
func NewManager(roots ...string) *Manager {
	m := &Manager{
		generators: make(map[string]Generator),
		cache:      NewCache(),
	}
	for _, r := range roots {
		m.AddRoot(r)
	}
	m.Register(GrassBladesName, func() image.Image { return GrassBlades(128, 1) })
	m.Register(BarkName, func() image.Image { return Bark(64) })
	m.Register(LeavesName, func() image.Image { return Leaves(128, 2) })
	m.Register(GroundName, func() image.Image { return Ground(128, 3) })
	m.Register(TreeAtlasName, func() image.Image { return TreeAtlas(128) })
	m.Register(WaterName, func() image.Image { return Water(128, 4) })
	return m
}

// AddRoot adds an asset directory. Directories are searched in reverse
// order (last added = highest priority).
func (m *Manager) AddRoot(dir string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roots = append(m.roots, dir)
}

// Register adds or replaces a generator.
func (m *Manager) Register(name string, g Generator) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generators[name] = g
}

// Path returns the file that provides name, if any.
func (m *Manager) Path(name string) (string, bool) {
	if filepath.IsAbs(name) {
		_, err := os.Stat(name)
		return name, err == nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.roots) - 1; i >= 0; i-- {
		p := filepath.Join(m.roots[i], name)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

// Image loads name from disk or a generator.
func (m *Manager) Image(name string) (image.Image, error) {
	if img, ok := m.cache.Get(name); ok {
		return img, nil
	}

	if p, ok := m.Path(name); ok {
		img, err := texture.Load(p)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		if err == nil {
			m.cache.Set(name, img)
			return img, nil
		}
	}

	m.mu.RLock()
	g, ok := m.generators[name]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	img := g()
	m.cache.Set(name, img)
	return img, nil
}

// Invalidate drops the cached copy of name so the next Image call reloads it.
func (m *Manager) Invalidate(name string) {
	m.cache.Delete(name)
}

// Close drops every cached image.
func (m *Manager) Close() {
	m.cache.Clear()
}

// Stats returns cache statistics.
func (m *Manager) Stats() (hits, misses int) {
	return m.cache.Stats()
}

// Cache is a simple in-memory cache for decoded images.
type Cache struct {
	data map[string]image.Image
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]image.Image),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) (image.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	img, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return img, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, img image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = img
}

// Delete removes an item.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]image.Image)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
