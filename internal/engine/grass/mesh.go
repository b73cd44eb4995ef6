package grass

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-foliage/internal/engine/paging"
	"github.com/Faultbox/midgard-foliage/internal/engine/propmap"
	"github.com/Faultbox/midgard-foliage/internal/engine/scene"
	"github.com/Faultbox/midgard-foliage/pkg/math"
)

// maxIndex is the largest value a 16-bit index can hold.
const maxIndex = 65535

// QuadLayout is the vertex layout of QUAD and CROSSQUADS meshes.
var QuadLayout = scene.NewVertexLayout(
	scene.VertexElement{Semantic: scene.SemanticPosition, Type: scene.Float3},
	scene.VertexElement{Semantic: scene.SemanticColor, Type: scene.ColorARGB},
	scene.VertexElement{Semantic: scene.SemanticTexCoord, Type: scene.Float2},
)

// SpriteLayout is the vertex layout of SPRITE meshes.
var SpriteLayout = scene.BillboardLayout

// checkCapacity rejects pages whose instances, quads or vertices would not
// fit 16-bit indices.
func checkCapacity(instances int, t Technique) error {
	quads := instances * t.quadsPerInstance()
	switch {
	case instances > maxIndex:
		return fmt.Errorf("%w: %d grass instances on one page, maximum %d", ErrCapacity, instances, maxIndex)
	case quads > maxIndex:
		return fmt.Errorf("%w: %d quads on one page, maximum %d", ErrCapacity, quads, maxIndex)
	case quads*4 > maxIndex+1:
		return fmt.Errorf("%w: %d vertices on one page, maximum %d", ErrCapacity, quads*4, maxIndex+1)
	}
	return nil
}

// meshBuilder accumulates interleaved vertices for one page mesh.
type meshBuilder struct {
	layer   *Layer
	heights HeightSource
	center  math.Vec3
	bounds  math.Rect

	vertices   []float32
	minY, maxY float32
}

func newMeshBuilder(l *Layer, info *paging.PageInfo, heights HeightSource, quads int) *meshBuilder {
	floats := QuadLayout.Floats()
	if l.technique == TechniqueSprite {
		floats = SpriteLayout.Floats()
	}
	return &meshBuilder{
		layer:    l,
		heights:  heights,
		center:   info.Center,
		bounds:   info.Bounds,
		vertices: make([]float32, 0, quads*4*floats),
		minY:     math32.Inf(1),
		maxY:     math32.Inf(-1),
	}
}

func (b *meshBuilder) color(x, z float32) uint32 {
	if b.layer.colorMap == nil {
		return propmap.White
	}
	return b.layer.colorMap.ColorAt(x, z, b.layer.mapBounds)
}

func (b *meshBuilder) extendY(ys ...float32) {
	for _, y := range ys {
		b.minY = min(b.minY, y)
		b.maxY = max(b.maxY, y)
	}
}

// vertex appends one QuadLayout vertex with a world-space position.
func (b *meshBuilder) vertex(x, y, z float32, color uint32, u, v float32) {
	b.vertices = append(b.vertices,
		x-b.center.X, y, z-b.center.Z,
		scene.PackColor(color),
		u, v)
}

// blade appends one upright quad between base corners (x1, z1) and (x2, z2).
// If the terrain between them is steeper than the layer allows, the second
// corner collapses onto the first.
func (b *meshBuilder) blade(x1, z1, x2, z2, halfWidth, height float32, color uint32) {
	y1 := b.heights.HeightAt(x1, z1)
	y2 := b.heights.HeightAt(x2, z2)
	if b.layer.maxSlope < math32.Abs(y1-y2)/(halfWidth*2) {
		x2, y2, z2 = x1, y1, z1
	}

	b.vertex(x1, y1+height, z1, color, 0, 0)
	b.vertex(x2, y2+height, z2, color, 1, 0)
	b.vertex(x1, y1, z1, color, 0, 1)
	b.vertex(x2, y2, z2, color, 1, 1)
	b.extendY(y1, y2, y1+height, y2+height)
}

// size returns the half width and height of an instance. One random drives
// both so blades keep their aspect ratio.
func (b *meshBuilder) size(in instance) (halfWidth, height float32) {
	l := b.layer
	halfWidth = (l.minWidth + (l.maxWidth-l.minWidth)*in.size) * 0.5
	height = l.minHeight + (l.maxHeight-l.minHeight)*in.size
	return halfWidth, height
}

func (b *meshBuilder) addQuad(in instance) {
	halfWidth, height := b.size(in)
	sin, cos := math32.Sincos(in.angle)
	xT, zT := cos*halfWidth, sin*halfWidth
	b.blade(in.x-xT, in.z-zT, in.x+xT, in.z+zT, halfWidth, height, b.color(in.x, in.z))
}

func (b *meshBuilder) addCrossQuads(in instance) {
	halfWidth, height := b.size(in)
	sin, cos := math32.Sincos(in.angle)
	xT, zT := cos*halfWidth, sin*halfWidth
	color := b.color(in.x, in.z)
	b.blade(in.x-xT, in.z-zT, in.x+xT, in.z+zT, halfWidth, height, color)
	b.blade(in.x+zT, in.z-xT, in.x-zT, in.z+xT, halfWidth, height, color)
}

// addSprite appends four vertices at the blade base. The vertex stage pushes
// each one out by its normal along the camera's right and up axes.
func (b *meshBuilder) addSprite(in instance) {
	halfWidth, height := b.size(in)
	y := b.heights.HeightAt(in.x, in.z)
	x, z := in.x-b.center.X, in.z-b.center.Z
	color := scene.PackColor(b.color(in.x, in.z))

	uvLeft, uvRight := float32(1), float32(0)
	if in.angle > math32.Pi {
		uvLeft, uvRight = 0, 1
	}

	b.vertices = append(b.vertices,
		x, y, z, -halfWidth, height, 0, 0, color, uvLeft, 0,
		x, y, z, halfWidth, height, 0, 0, color, uvRight, 0,
		x, y, z, -halfWidth, 0, 0, 0, color, uvLeft, 1,
		x, y, z, halfWidth, 0, 0, 0, color, uvRight, 1,
	)
	b.extendY(y, y+height)
}

// quadIndices returns the index list for quads quads wound (0,2,1),(1,2,3).
func quadIndices(quads int) []uint16 {
	idx := make([]uint16, 0, quads*6)
	for q := 0; q < quads; q++ {
		o := uint16(q * 4)
		idx = append(idx, o, o+2, o+1, o+1, o+2, o+3)
	}
	return idx
}

// buildMesh synthesizes the page mesh for one layer. It returns ErrCapacity
// without touching the scene when the page would overflow 16-bit indices.
func (ld *Loader) buildMesh(info *paging.PageInfo, l *Layer, instances []instance) (*scene.Mesh, error) {
	if err := checkCapacity(len(instances), l.technique); err != nil {
		return nil, err
	}
	quads := len(instances) * l.technique.quadsPerInstance()

	b := newMeshBuilder(l, info, ld.heights, quads)
	layout := QuadLayout
	for _, in := range instances {
		switch l.technique {
		case TechniqueCrossQuads:
			b.addCrossQuads(in)
		case TechniqueSprite:
			b.addSprite(in)
		default:
			b.addQuad(in)
		}
	}
	if l.technique == TechniqueSprite {
		layout = SpriteLayout
	}

	mesh, err := ld.scene.CreateMesh(ld.scene.UniqueName("grass-mesh-"))
	if err != nil {
		return nil, err
	}
	mesh.Layout = layout
	mesh.Vertices = b.vertices
	mesh.Indices = quadIndices(quads)
	mesh.Material = l.MeshMaterial()
	mesh.Bounds = math.AABB{
		Min: math.Vec3{X: info.Bounds.Left - info.Center.X, Y: b.minY, Z: info.Bounds.Top - info.Center.Z},
		Max: math.Vec3{X: info.Bounds.Right - info.Center.X, Y: b.maxY, Z: info.Bounds.Bottom - info.Center.Z},
	}
	mesh.BoundingRadius = mesh.Bounds.Size().Length() * 0.5
	return mesh, nil
}
