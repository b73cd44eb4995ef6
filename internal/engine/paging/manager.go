package paging

import (
	"fmt"
	"sort"

	"github.com/chewxy/math32"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-foliage/internal/engine/impostor"
	"github.com/Faultbox/midgard-foliage/internal/engine/render"
	"github.com/Faultbox/midgard-foliage/internal/engine/scene"
	"github.com/Faultbox/midgard-foliage/internal/logger"
	"github.com/Faultbox/midgard-foliage/pkg/math"
)

// DetailLevel is one kind of page streamed around the viewer.
type DetailLevel struct {
	Name    string
	Loader  Loader
	NewPage func() Page

	// Pages whose centre is within [Near, Far] of the viewer are shown.
	Near, Far float32
	// FadeLength fades pages out over the last FadeLength units before Far.
	// Zero disables fading.
	FadeLength float32
}

// Updater is implemented by pages that follow the viewer every frame.
type Updater interface {
	Update(viewer render.Camera)
}

// Regioner is implemented by pages that need their bounds before loading.
type Regioner interface {
	SetRegion(r math.Rect)
}

type gridKey struct {
	x, z int
}

type loadedPage struct {
	info    *PageInfo
	page    Page
	visible bool
}

type level struct {
	DetailLevel
	pages map[gridKey]*loadedPage
}

// Manager streams pages of every detail level on a square grid.
type Manager struct {
	scene    *scene.Manager
	pageSize float32
	bounds   math.Rect
	cache    *impostor.Cache
	levels   []*level
}

// NewManager creates a manager with square pages of pageSize. cache is
// closed with the manager and may be nil.
func NewManager(s *scene.Manager, pageSize float32, cache *impostor.Cache) *Manager {
	return &Manager{scene: s, pageSize: pageSize, cache: cache}
}

// Cache returns the impostor cache.
func (m *Manager) Cache() *impostor.Cache {
	return m.cache
}

// PageSize returns the page edge length.
func (m *Manager) PageSize() float32 {
	return m.pageSize
}

// SetBounds limits paging to pages touching r. A zero rectangle pages
// without limit.
func (m *Manager) SetBounds(r math.Rect) {
	m.bounds = r
}

// AddDetailLevel registers a detail level.
func (m *Manager) AddDetailLevel(l DetailLevel) error {
	if l.Loader == nil || l.NewPage == nil {
		return fmt.Errorf("detail level %q needs a loader and a page factory", l.Name)
	}
	if l.Far < l.Near {
		return fmt.Errorf("detail level %q: far range %v below near range %v", l.Name, l.Far, l.Near)
	}
	m.levels = append(m.levels, &level{DetailLevel: l, pages: make(map[gridKey]*loadedPage)})
	return nil
}

// Pages returns the loaded pages of a detail level ordered by grid index.
func (m *Manager) Pages(name string) []*PageInfo {
	var out []*PageInfo
	for _, l := range m.levels {
		if l.Name != name {
			continue
		}
		for _, lp := range l.pages {
			out = append(out, lp.info)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ZIndex != out[j].ZIndex {
			return out[i].ZIndex < out[j].ZIndex
		}
		return out[i].XIndex < out[j].XIndex
	})
	return out
}

func (m *Manager) distance(info *PageInfo, viewer math.Vec3) float32 {
	dx := info.Center.X - viewer.X
	dz := info.Center.Z - viewer.Z
	return math32.Sqrt(dx*dx + dz*dz)
}

// Update loads pages that came into range, unloads pages that left it and
// updates the visible ones. Load failures are collected; the failing page
// stays loaded with whatever content it got.
func (m *Manager) Update(viewer render.Camera) error {
	var errs error
	for _, l := range m.levels {
		errs = multierr.Append(errs, m.updateLevel(l, viewer))
	}
	return errs
}

func (m *Manager) updateLevel(l *level, viewer render.Camera) error {
	var errs error
	pos := viewer.Position
	unloadDist := l.Far + m.pageSize

	for key, lp := range l.pages {
		if m.distance(lp.info, pos) > unloadDist {
			m.unload(l, lp)
			delete(l.pages, key)
		}
	}

	x0 := int(math32.Floor((pos.X - l.Far) / m.pageSize))
	x1 := int(math32.Floor((pos.X + l.Far) / m.pageSize))
	z0 := int(math32.Floor((pos.Z - l.Far) / m.pageSize))
	z1 := int(math32.Floor((pos.Z + l.Far) / m.pageSize))
	for z := z0; z <= z1; z++ {
		for x := x0; x <= x1; x++ {
			key := gridKey{x, z}
			if _, ok := l.pages[key]; ok {
				continue
			}
			info := NewPageInfo(x, z, m.pageSize)
			if m.distance(info, pos) > l.Far {
				continue
			}
			if !m.bounds.IsZero() && !m.bounds.Intersects(info.Bounds) {
				continue
			}
			lp, err := m.load(l, info)
			errs = multierr.Append(errs, err)
			l.pages[key] = lp
		}
	}

	for _, lp := range l.pages {
		d := m.distance(lp.info, pos)
		visible := d >= l.Near && d <= l.Far
		if visible != lp.visible {
			lp.page.SetVisible(visible)
			lp.visible = visible
		}
		if u, ok := lp.page.(Updater); ok && visible {
			u.Update(viewer)
		}
	}
	return errs
}

func (m *Manager) load(l *level, info *PageInfo) (*loadedPage, error) {
	page := l.NewPage()
	if r, ok := page.(Regioner); ok {
		r.SetRegion(info.Bounds)
	}
	err := l.Loader.LoadPage(info, page)
	if err != nil {
		logger.Warn("page load failed",
			zap.String("level", l.Name),
			zap.Int("x", info.XIndex),
			zap.Int("z", info.ZIndex),
			zap.Error(err))
		err = fmt.Errorf("%s page (%d, %d): %w", l.Name, info.XIndex, info.ZIndex, err)
	}
	page.Build()
	if l.FadeLength > 0 {
		page.SetFade(true, l.Far-l.FadeLength, l.Far)
	}
	return &loadedPage{info: info, page: page, visible: true}, err
}

func (m *Manager) unload(l *level, lp *loadedPage) {
	l.Loader.UnloadPage(lp.info)
	lp.page.RemoveEntities()
	lp.page.Close()
	for _, mesh := range lp.info.Meshes {
		m.scene.DestroyMesh(mesh.Name)
	}
	lp.info.Meshes = nil
}

// Reload unloads every page of the named level so the next Update
// regenerates them. An empty name reloads every level.
func (m *Manager) Reload(name string) {
	for _, l := range m.levels {
		if name != "" && l.Name != name {
			continue
		}
		for key, lp := range l.pages {
			m.unload(l, lp)
			delete(l.pages, key)
		}
	}
}

// Close unloads every page and closes the impostor cache.
func (m *Manager) Close() {
	m.Reload("")
	m.levels = nil
	if m.cache != nil {
		m.cache.Close()
	}
	logger.Debug("paging manager closed")
}
