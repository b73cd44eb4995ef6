package viewer

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-foliage/internal/engine/random"
	"github.com/Faultbox/midgard-foliage/internal/engine/scene"
	"github.com/Faultbox/midgard-foliage/internal/engine/terrain"
	"github.com/Faultbox/midgard-foliage/pkg/math"
)

// TreeMaterial draws tree meshes. Its texture holds bark on the left half
// and leaves on the right.
const TreeMaterial = "tree"

// TreeSpec shapes a procedural tree.
type TreeSpec struct {
	Name         string
	Height       float32
	TrunkRadius  float32
	CanopyRadius float32
	CanopyPlanes int
	Bark, Leaves uint32 // ARGB tint
}

// treeBuilder appends terrain-layout vertices and indices.
type treeBuilder struct {
	mesh *scene.Mesh
}

func (b *treeBuilder) quad(corners [4]math.Vec3, normal math.Vec3, color uint32, u0, u1 float32) {
	base := uint16(b.mesh.VertexCount())
	uvs := [4][2]float32{{u0, 0}, {u1, 0}, {u0, 1}, {u1, 1}}
	c := scene.PackColor(color)
	for i, p := range corners {
		b.mesh.Vertices = append(b.mesh.Vertices,
			p.X, p.Y, p.Z,
			normal.X, normal.Y, normal.Z,
			c,
			uvs[i][0], uvs[i][1])
		b.mesh.Bounds.Extend(p)
	}
	b.mesh.Indices = append(b.mesh.Indices, base, base+2, base+1, base+1, base+2, base+3)
}

// BuildTreeMesh registers a trunk prism with crossed canopy planes. The
// base of the trunk sits at the origin.
func BuildTreeMesh(s *scene.Manager, spec TreeSpec) (*scene.Mesh, error) {
	mesh, err := s.CreateMesh(spec.Name)
	if err != nil {
		return nil, err
	}
	mesh.Layout = terrain.Layout
	mesh.Material = TreeMaterial
	mesh.Bounds = math.EmptyAABB()
	b := &treeBuilder{mesh: mesh}

	trunkTop := spec.Height * 0.45
	const sides = 4
	for i := 0; i < sides; i++ {
		a0 := 2 * math32.Pi * float32(i) / sides
		a1 := 2 * math32.Pi * float32(i+1) / sides
		s0, c0 := math32.Sincos(a0)
		s1, c1 := math32.Sincos(a1)
		r := spec.TrunkRadius
		p0 := math.Vec3{X: c0 * r, Z: s0 * r}
		p1 := math.Vec3{X: c1 * r, Z: s1 * r}
		n := p0.Add(p1).Normalize()
		b.quad([4]math.Vec3{
			{X: p0.X, Y: trunkTop, Z: p0.Z},
			{X: p1.X, Y: trunkTop, Z: p1.Z},
			p0,
			p1,
		}, n, spec.Bark, 0, 0.5)
	}

	bottom := spec.Height * 0.3
	for i := 0; i < spec.CanopyPlanes; i++ {
		a := math32.Pi * float32(i) / float32(spec.CanopyPlanes)
		sin, cos := math32.Sincos(a)
		dx, dz := cos*spec.CanopyRadius, sin*spec.CanopyRadius
		b.quad([4]math.Vec3{
			{X: -dx, Y: spec.Height, Z: -dz},
			{X: dx, Y: spec.Height, Z: dz},
			{X: -dx, Y: bottom, Z: -dz},
			{X: dx, Y: bottom, Z: dz},
		}, math.UnitY, spec.Leaves, 0.5, 1)
	}

	mesh.BoundingRadius = mesh.Bounds.Size().Length() * 0.5
	return mesh, nil
}

// DefaultTrees are the tree kinds the viewer plants.
var DefaultTrees = []TreeSpec{
	{Name: "tree-oak", Height: 9, TrunkRadius: 0.35, CanopyRadius: 3.5, CanopyPlanes: 3, Bark: 0xFFFFFFFF, Leaves: 0xFFFFFFFF},
	{Name: "tree-birch", Height: 12, TrunkRadius: 0.25, CanopyRadius: 2.5, CanopyPlanes: 3, Bark: 0xFFE8E8E0, Leaves: 0xFFB8E070},
}

// ScatterTrees places count instances of templates inside bounds, skipping
// spots steeper than maxSlope. Placement is deterministic for a seed.
func ScatterTrees(templates []*scene.Entity, bounds math.Rect, count int, seed uint64, slope func(x, z float32) float32, maxSlope float32) []Placement {
	if len(templates) == 0 {
		return nil
	}
	rt := random.New(random.DefaultSize, seed)
	out := make([]Placement, 0, count)
	for i := 0; i < count; i++ {
		x := rt.Range(bounds.Left, bounds.Right)
		z := rt.Range(bounds.Top, bounds.Bottom)
		yaw := rt.Range(0, 2*math32.Pi)
		scale := rt.Range(0.8, 1.25)
		kind := int(rt.Next() * float32(len(templates)))
		if slope != nil && slope(x, z) > maxSlope {
			continue
		}
		out = append(out, Placement{Entity: templates[min(kind, len(templates)-1)], X: x, Z: z, Yaw: yaw, Scale: scale})
	}
	return out
}

// Placement is one scattered tree.
type Placement struct {
	Entity     *scene.Entity
	X, Z       float32
	Yaw, Scale float32
}
