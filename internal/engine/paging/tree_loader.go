package paging

import (
	"github.com/Faultbox/midgard-foliage/internal/engine/scene"
	"github.com/Faultbox/midgard-foliage/pkg/math"
)

// Tree is one placed instance.
type Tree struct {
	Entity   *scene.Entity
	Position math.Vec3
	Yaw      float32 // radians
	Scale    float32
}

// TreeLoader hands each page the instances standing on it. Instance heights
// come from the height function when one is set.
type TreeLoader struct {
	heights func(x, z float32) float32
	trees   []Tree
}

// NewTreeLoader creates an empty loader. heights may be nil.
func NewTreeLoader(heights func(x, z float32) float32) *TreeLoader {
	return &TreeLoader{heights: heights}
}

// AddTree registers an instance of e at (x, z).
func (l *TreeLoader) AddTree(e *scene.Entity, x, z, yaw, scale float32) {
	l.trees = append(l.trees, Tree{Entity: e, Position: math.Vec3{X: x, Z: z}, Yaw: yaw, Scale: scale})
}

// Trees returns every registered instance.
func (l *TreeLoader) Trees() []Tree {
	return l.trees
}

// LoadPage adds the instances inside the page bounds. The right and bottom
// edges belong to the neighbouring page.
func (l *TreeLoader) LoadPage(info *PageInfo, dst Page) error {
	b := info.Bounds
	for _, t := range l.trees {
		p := t.Position
		if p.X < b.Left || p.X >= b.Right || p.Z < b.Top || p.Z >= b.Bottom {
			continue
		}
		if l.heights != nil {
			p.Y = l.heights(p.X, p.Z)
		}
		dst.AddEntity(t.Entity, p,
			math.QuatFromAxisAngle(math.UnitY, t.Yaw),
			math.Vec3{X: t.Scale, Y: t.Scale, Z: t.Scale})
	}
	return nil
}

// UnloadPage is a no-op; instances are kept for the next load.
func (l *TreeLoader) UnloadPage(*PageInfo) {}
