package renderer

import (
	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/midgard-foliage/internal/engine/scene"
)

// Attribute locations shared with the shader package.
const (
	locPosition = 0
	locNormal   = 1
	locColor    = 2
	locTexCoord = 3
)

// gpuMesh is the uploaded copy of a scene mesh.
type gpuMesh struct {
	vao, vbo, ebo uint32
	indexCount    int32
}

func (g *gpuMesh) Release() {
	if g.vao != 0 {
		gl.DeleteVertexArrays(1, &g.vao)
		g.vao = 0
	}
	if g.vbo != 0 {
		gl.DeleteBuffers(1, &g.vbo)
		g.vbo = 0
	}
	if g.ebo != 0 {
		gl.DeleteBuffers(1, &g.ebo)
		g.ebo = 0
	}
}

// upload creates the buffers for m and stores them in m.GPU.
func upload(m *scene.Mesh) *gpuMesh {
	if g, ok := m.GPU.(*gpuMesh); ok {
		return g
	}
	g := &gpuMesh{indexCount: int32(len(m.Indices))}
	if len(m.Vertices) == 0 || len(m.Indices) == 0 {
		m.GPU = g
		return g
	}

	gl.GenVertexArrays(1, &g.vao)
	gl.BindVertexArray(g.vao)

	gl.GenBuffers(1, &g.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(m.Vertices)*4, gl.Ptr(m.Vertices), gl.STATIC_DRAW)

	gl.GenBuffers(1, &g.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, g.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.Indices)*2, gl.Ptr(m.Indices), gl.STATIC_DRAW)

	stride := int32(m.Layout.Stride)
	for _, e := range m.Layout.Elements {
		offset := gl.PtrOffset(e.Offset)
		switch e.Semantic {
		case scene.SemanticPosition:
			gl.EnableVertexAttribArray(locPosition)
			gl.VertexAttribPointer(locPosition, components(e.Type), gl.FLOAT, false, stride, offset)
		case scene.SemanticNormal:
			gl.EnableVertexAttribArray(locNormal)
			gl.VertexAttribPointer(locNormal, components(e.Type), gl.FLOAT, false, stride, offset)
		case scene.SemanticColor:
			// Packed ARGB read as four normalized bytes in memory order.
			gl.EnableVertexAttribArray(locColor)
			gl.VertexAttribPointer(locColor, 4, gl.UNSIGNED_BYTE, true, stride, offset)
		case scene.SemanticTexCoord:
			gl.EnableVertexAttribArray(locTexCoord)
			gl.VertexAttribPointer(locTexCoord, components(e.Type), gl.FLOAT, false, stride, offset)
		}
	}

	gl.BindVertexArray(0)
	m.GPU = g
	return g
}

func components(t scene.ElementType) int32 {
	switch t {
	case scene.Float2:
		return 2
	case scene.Float3:
		return 3
	case scene.Float4:
		return 4
	default:
		return 1
	}
}
