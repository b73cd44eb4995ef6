package impostor

import (
	"github.com/Faultbox/midgard-foliage/internal/engine/scene"
	"github.com/Faultbox/midgard-foliage/pkg/math"
)

// maxBillboards is the most quads one 16-bit indexed mesh can hold.
const maxBillboards = 65536 / 4

type billboard struct {
	pos           math.Vec3
	width, height float32
	color         uint32
	slice         int
}

// BillboardSet draws camera-facing quads that each show one column of an
// atlas with stacks rows and slices columns. The material's texture scroll
// selects the row and shifts the column.
type BillboardSet struct {
	scene  *scene.Manager
	node   *scene.Node
	stacks int
	slices int
	origin Origin
	queue  uint8

	material   string
	billboards []billboard
	entities   []*scene.Entity

	visible   bool
	fade      bool
	fadeStart float32
	fadeEnd   float32
}

func newBillboardSet(s *scene.Manager, parent *scene.Node, stacks, slices int, origin Origin, queue uint8) *BillboardSet {
	return &BillboardSet{
		scene:   s,
		node:    parent.CreateChild(s.UniqueName("impostor-billboards-"), math.Vec3{}),
		stacks:  stacks,
		slices:  slices,
		origin:  origin,
		queue:   queue,
		visible: true,
	}
}

// Add queues a billboard anchored at pos. It is drawn after the next Build.
func (b *BillboardSet) Add(pos math.Vec3, width, height float32, color uint32, slice int) {
	b.billboards = append(b.billboards, billboard{pos: pos, width: width, height: height, color: color, slice: slice})
}

// Len returns the number of queued billboards.
func (b *BillboardSet) Len() int {
	return len(b.billboards)
}

// SetMaterial rebinds every built mesh to name.
func (b *BillboardSet) SetMaterial(name string) {
	b.material = name
	for _, e := range b.entities {
		e.Material = name
	}
}

// Material returns the bound material.
func (b *BillboardSet) Material() string {
	return b.material
}

// Entities returns the entities created by the last Build.
func (b *BillboardSet) Entities() []*scene.Entity {
	return b.entities
}

// Build replaces the drawn geometry with the queued billboards, splitting
// them over as many meshes as 16-bit indices require.
func (b *BillboardSet) Build() error {
	b.destroyGeometry()
	for start := 0; start < len(b.billboards); start += maxBillboards {
		end := min(start+maxBillboards, len(b.billboards))
		if err := b.buildChunk(b.billboards[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (b *BillboardSet) buildChunk(bbs []billboard) error {
	mesh, err := b.scene.CreateMesh(b.scene.UniqueName("impostor-mesh-"))
	if err != nil {
		return err
	}
	mesh.Layout = scene.BillboardLayout
	mesh.Material = b.material
	mesh.Vertices = make([]float32, 0, len(bbs)*4*scene.BillboardLayout.Floats())
	mesh.Indices = make([]uint16, 0, len(bbs)*6)
	mesh.Bounds = math.EmptyAABB()

	cellV := 1 / float32(b.stacks)
	for n, bb := range bbs {
		hw := bb.width * 0.5
		top, bottom := bb.height*0.5, -bb.height*0.5
		if b.origin == OriginBottomCenter {
			top, bottom = bb.height, 0
		}
		u0 := float32(bb.slice) / float32(b.slices)
		u1 := float32(bb.slice+1) / float32(b.slices)
		color := scene.PackColor(bb.color)
		p := bb.pos

		mesh.Vertices = append(mesh.Vertices,
			p.X, p.Y, p.Z, -hw, top, 0, 0, color, u0, 0,
			p.X, p.Y, p.Z, hw, top, 0, 0, color, u1, 0,
			p.X, p.Y, p.Z, -hw, bottom, 0, 0, color, u0, cellV,
			p.X, p.Y, p.Z, hw, bottom, 0, 0, color, u1, cellV,
		)
		o := uint16(n * 4)
		mesh.Indices = append(mesh.Indices, o, o+2, o+1, o+1, o+2, o+3)

		r := max(hw, top, -bottom)
		mesh.Bounds.Extend(p.Sub(math.Vec3{X: r, Y: r, Z: r}))
		mesh.Bounds.Extend(p.Add(math.Vec3{X: r, Y: r, Z: r}))
	}
	mesh.BoundingRadius = mesh.Bounds.Size().Length() * 0.5

	e, err := b.scene.CreateEntity(b.scene.UniqueName("impostor-entity-"), mesh)
	if err != nil {
		b.scene.DestroyMesh(mesh.Name)
		return err
	}
	e.RenderQueue = b.queue
	e.CastShadows = false
	e.VisibilityFlags = scene.VisibilityImpostor
	e.Visible = b.visible
	b.applyFade(e)
	b.node.AttachEntity(e)
	b.entities = append(b.entities, e)
	return nil
}

func (b *BillboardSet) applyFade(e *scene.Entity) {
	if b.fade {
		e.FadeStart, e.RenderDistance = b.fadeStart, b.fadeEnd
	} else {
		e.FadeStart, e.RenderDistance = 0, 0
	}
}

// SetVisible shows or hides the billboards.
func (b *BillboardSet) SetVisible(v bool) {
	b.visible = v
	for _, e := range b.entities {
		e.Visible = v
	}
}

// SetFade fades billboards out between visibleDist and invisibleDist.
func (b *BillboardSet) SetFade(enabled bool, visibleDist, invisibleDist float32) {
	b.fade, b.fadeStart, b.fadeEnd = enabled, visibleDist, invisibleDist
	for _, e := range b.entities {
		b.applyFade(e)
	}
}

// Clear removes the queued billboards and the drawn geometry.
func (b *BillboardSet) Clear() {
	b.billboards = nil
	b.destroyGeometry()
}

func (b *BillboardSet) destroyGeometry() {
	for _, e := range b.entities {
		b.scene.DestroyEntity(e)
		if e.Mesh != nil {
			b.scene.DestroyMesh(e.Mesh.Name)
		}
	}
	b.entities = nil
}

// Close clears the set and removes its node.
func (b *BillboardSet) Close() {
	b.Clear()
	if parent := b.node.Parent(); parent != nil {
		parent.RemoveAndDestroyChild(b.node)
	}
}
