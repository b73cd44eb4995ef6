package scene

import "github.com/Faultbox/midgard-foliage/pkg/math"

// Visibility flags.
const (
	VisibilityDefault  uint32 = 1 << 0
	VisibilityGrass    uint32 = 1 << 1
	VisibilityImpostor uint32 = 1 << 2
	VisibilityTerrain  uint32 = 1 << 3
)

// DefaultRenderQueue is the queue regular geometry renders in.
const DefaultRenderQueue uint8 = 50

// Entity is a renderable instance of a mesh.
type Entity struct {
	Name string
	Mesh *Mesh

	// Material overrides the mesh material when set.
	Material string

	RenderQueue     uint8
	Visible         bool
	CastShadows     bool
	VisibilityFlags uint32

	// RenderDistance culls the entity beyond this camera distance; 0 disables.
	RenderDistance float32
	// FadeStart is the distance where alpha starts falling toward zero at
	// RenderDistance; 0 disables fading.
	FadeStart float32

	node *Node
}

// Node returns the node the entity is attached to, or nil.
func (e *Entity) Node() *Node {
	return e.node
}

// BoundingBox returns the mesh bounds in local space.
func (e *Entity) BoundingBox() math.AABB {
	if e.Mesh == nil {
		return math.AABB{}
	}
	return e.Mesh.Bounds
}

// MaterialName returns the material used to draw the entity.
func (e *Entity) MaterialName() string {
	if e.Material != "" {
		return e.Material
	}
	if e.Mesh != nil {
		return e.Mesh.Material
	}
	return ""
}

// Detach removes the entity from its node.
func (e *Entity) Detach() {
	if e.node != nil {
		e.node.DetachEntity(e)
	}
}
