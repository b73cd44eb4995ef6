package paging

import (
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-foliage/internal/engine/scene"
	"github.com/Faultbox/midgard-foliage/internal/logger"
	"github.com/Faultbox/midgard-foliage/pkg/math"
)

// GrassPage shows each entity it is given on its own scene node. Entities
// and their meshes are destroyed when the page is cleared.
type GrassPage struct {
	scene    *scene.Manager
	nodes    []*scene.Node
	entities []*scene.Entity
	visible  bool

	// instanced pages draw copies of shared template entities and leave
	// the template meshes alone.
	instanced bool
}

// NewGrassPage creates an empty, visible page.
func NewGrassPage(s *scene.Manager) *GrassPage {
	return &GrassPage{scene: s, visible: true}
}

// NewInstancePage creates a page that places a new entity for every
// template it is given, sharing the template's mesh.
func NewInstancePage(s *scene.Manager) *GrassPage {
	return &GrassPage{scene: s, visible: true, instanced: true}
}

// AddEntity places e at pos under a new node.
func (p *GrassPage) AddEntity(e *scene.Entity, pos math.Vec3, rot math.Quat, scale math.Vec3) {
	if p.instanced {
		inst, err := p.scene.CreateEntity(p.scene.UniqueName(e.Name+"-"), e.Mesh)
		if err != nil {
			logger.Warn("instance skipped", zap.String("entity", e.Name), zap.Error(err))
			return
		}
		inst.Material = e.Material
		inst.RenderQueue = e.RenderQueue
		inst.VisibilityFlags = e.VisibilityFlags
		inst.CastShadows = e.CastShadows
		e = inst
	}
	node := p.scene.Root().CreateChild(p.scene.UniqueName("grass-page-"), pos)
	node.Orientation = rot
	node.Scale = scale
	node.Visible = p.visible
	node.AttachEntity(e)
	p.nodes = append(p.nodes, node)
	p.entities = append(p.entities, e)
}

// Entities returns the attached entities.
func (p *GrassPage) Entities() []*scene.Entity {
	return p.entities
}

// Build is a no-op; entities are drawn as soon as they are added.
func (p *GrassPage) Build() {}

// SetVisible shows or hides every node of the page.
func (p *GrassPage) SetVisible(v bool) {
	p.visible = v
	for _, n := range p.nodes {
		n.SetVisible(v, true)
	}
}

// SetFade fades entities out between visibleDist and invisibleDist.
func (p *GrassPage) SetFade(enabled bool, visibleDist, invisibleDist float32) {
	for _, e := range p.entities {
		if enabled {
			e.FadeStart, e.RenderDistance = visibleDist, invisibleDist
		} else {
			e.FadeStart, e.RenderDistance = 0, 0
		}
	}
}

// RemoveEntities destroys the entities, their meshes and nodes.
func (p *GrassPage) RemoveEntities() {
	for _, e := range p.entities {
		p.scene.DestroyEntity(e)
		if e.Mesh != nil && !p.instanced {
			p.scene.DestroyMesh(e.Mesh.Name)
		}
	}
	root := p.scene.Root()
	for _, n := range p.nodes {
		root.RemoveAndDestroyChild(n)
	}
	p.nodes, p.entities = nil, nil
}

// Close clears the page.
func (p *GrassPage) Close() {
	p.RemoveEntities()
}
