package scene

import (
	"slices"

	"github.com/Faultbox/midgard-foliage/pkg/math"
)

// Node is a transform in the scene graph.
type Node struct {
	Name        string
	Position    math.Vec3
	Orientation math.Quat
	Scale       math.Vec3
	Visible     bool

	parent   *Node
	children []*Node
	entities []*Entity
}

func newNode(name string, parent *Node) *Node {
	return &Node{
		Name:        name,
		Orientation: math.QuatIdentity(),
		Scale:       math.Vec3{X: 1, Y: 1, Z: 1},
		Visible:     true,
		parent:      parent,
	}
}

// Parent returns the parent node, nil for the root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the child nodes.
func (n *Node) Children() []*Node {
	return n.children
}

// Entities returns the attached entities.
func (n *Node) Entities() []*Entity {
	return n.entities
}

// CreateChild creates a child node at a position relative to n.
func (n *Node) CreateChild(name string, pos math.Vec3) *Node {
	c := newNode(name, n)
	c.Position = pos
	n.children = append(n.children, c)
	return c
}

// RemoveChild unlinks a child without destroying it.
func (n *Node) RemoveChild(c *Node) {
	if i := slices.Index(n.children, c); i >= 0 {
		n.children = slices.Delete(n.children, i, i+1)
		c.parent = nil
	}
}

// AddChild reparents c under n.
func (n *Node) AddChild(c *Node) {
	if c.parent != nil {
		c.parent.RemoveChild(c)
	}
	c.parent = n
	n.children = append(n.children, c)
}

// RemoveAndDestroyChild detaches everything below c and unlinks it.
func (n *Node) RemoveAndDestroyChild(c *Node) {
	c.DetachAll()
	for len(c.children) > 0 {
		c.RemoveAndDestroyChild(c.children[0])
	}
	n.RemoveChild(c)
}

// AttachEntity attaches e, moving it from any previous node.
func (n *Node) AttachEntity(e *Entity) {
	if e.node == n {
		return
	}
	e.Detach()
	e.node = n
	n.entities = append(n.entities, e)
}

// DetachEntity detaches e if it is attached here.
func (n *Node) DetachEntity(e *Entity) {
	if i := slices.Index(n.entities, e); i >= 0 {
		n.entities = slices.Delete(n.entities, i, i+1)
		e.node = nil
	}
}

// DetachAll detaches every entity from n.
func (n *Node) DetachAll() {
	for _, e := range n.entities {
		e.node = nil
	}
	n.entities = nil
}

// Translate moves the node. With local set, d is in the node's own axes.
func (n *Node) Translate(d math.Vec3, local bool) {
	if local {
		d = n.Orientation.Rotate(d)
	}
	n.Position = n.Position.Add(d)
}

// SetVisible sets visibility on n and, if cascade is set, its descendants.
func (n *Node) SetVisible(v, cascade bool) {
	n.Visible = v
	if cascade {
		for _, c := range n.children {
			c.SetVisible(v, true)
		}
	}
}

// LocalTransform returns translate * rotate * scale.
func (n *Node) LocalTransform() math.Mat4 {
	return math.Compose(n.Position, n.Orientation, n.Scale)
}

// WorldTransform concatenates transforms up to the root.
func (n *Node) WorldTransform() math.Mat4 {
	m := n.LocalTransform()
	for p := n.parent; p != nil; p = p.parent {
		m = p.LocalTransform().Mul(m)
	}
	return m
}

// WorldPosition returns the node origin in world space.
func (n *Node) WorldPosition() math.Vec3 {
	return n.WorldTransform().TransformVec3(math.Vec3{})
}

// Walk visits every visible node and its entities depth first with the
// accumulated world transform.
func (n *Node) Walk(fn func(e *Entity, world math.Mat4)) {
	n.walk(math.Identity(), fn)
}

func (n *Node) walk(parent math.Mat4, fn func(*Entity, math.Mat4)) {
	if !n.Visible {
		return
	}
	world := parent.Mul(n.LocalTransform())
	for _, e := range n.entities {
		fn(e, world)
	}
	for _, c := range n.children {
		c.walk(world, fn)
	}
}
