package scene

import (
	stdmath "math"

	"github.com/Faultbox/midgard-foliage/pkg/math"
)

// Semantic identifies what a vertex element carries.
type Semantic uint8

const (
	SemanticPosition Semantic = iota
	SemanticNormal
	SemanticColor
	SemanticTexCoord
)

// ElementType is the storage type of a vertex element.
type ElementType uint8

const (
	Float2 ElementType = iota
	Float3
	Float4
	ColorARGB // packed 32-bit colour stored in one float slot
)

// Size returns the element size in bytes.
func (t ElementType) Size() int {
	switch t {
	case Float2:
		return 8
	case Float3:
		return 12
	case Float4:
		return 16
	default:
		return 4
	}
}

// VertexElement is one attribute of an interleaved vertex.
type VertexElement struct {
	Semantic Semantic
	Type     ElementType
	Offset   int
}

// VertexLayout describes an interleaved vertex buffer.
type VertexLayout struct {
	Elements []VertexElement
	Stride   int
}

// NewVertexLayout lays out elements back to back in the given order.
func NewVertexLayout(elems ...VertexElement) VertexLayout {
	var l VertexLayout
	for _, e := range elems {
		e.Offset = l.Stride
		l.Elements = append(l.Elements, e)
		l.Stride += e.Type.Size()
	}
	return l
}

// Element returns the element with the given semantic.
func (l VertexLayout) Element(s Semantic) (VertexElement, bool) {
	for _, e := range l.Elements {
		if e.Semantic == s {
			return e, true
		}
	}
	return VertexElement{}, false
}

// Floats returns the number of float32 slots per vertex.
func (l VertexLayout) Floats() int {
	return l.Stride / 4
}

// BillboardLayout is the layout of camera-facing quads. All four corners of
// a quad share the anchor position and the normal carries the corner offset
// along the camera's right and up axes.
var BillboardLayout = NewVertexLayout(
	VertexElement{Semantic: SemanticPosition, Type: Float3},
	VertexElement{Semantic: SemanticNormal, Type: Float4},
	VertexElement{Semantic: SemanticColor, Type: ColorARGB},
	VertexElement{Semantic: SemanticTexCoord, Type: Float2},
)

// Releaser is implemented by device-side resources attached to a mesh.
type Releaser interface {
	Release()
}

// Mesh is a manually built mesh with a single submesh.
type Mesh struct {
	Name     string
	Material string
	Layout   VertexLayout

	// Vertices holds Layout.Floats() values per vertex. Packed colours are
	// stored bit-for-bit with PackColor.
	Vertices []float32
	Indices  []uint16

	Bounds         math.AABB
	BoundingRadius float32

	// GPU is set by the render device when the mesh is uploaded.
	GPU Releaser
}

// VertexCount returns the number of vertices in the buffer.
func (m *Mesh) VertexCount() int {
	if f := m.Layout.Floats(); f > 0 {
		return len(m.Vertices) / f
	}
	return 0
}

// Invalidate drops any uploaded copy so the device re-uploads it.
func (m *Mesh) Invalidate() {
	if m.GPU != nil {
		m.GPU.Release()
		m.GPU = nil
	}
}

// PackColor stores an ARGB colour in a float slot without conversion.
func PackColor(argb uint32) float32 {
	return stdmath.Float32frombits(argb)
}

// UnpackColor is the inverse of PackColor.
func UnpackColor(f float32) uint32 {
	return stdmath.Float32bits(f)
}
