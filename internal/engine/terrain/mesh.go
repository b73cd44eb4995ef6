package terrain

import (
	"github.com/Faultbox/midgard-foliage/internal/engine/scene"
	"github.com/Faultbox/midgard-foliage/pkg/math"
)

// ChunkCells is the edge length in cells of one terrain mesh. 65*65
// vertices fit 16-bit indices.
const ChunkCells = 64

// Layout is the vertex layout of terrain meshes.
var Layout = scene.NewVertexLayout(
	scene.VertexElement{Semantic: scene.SemanticPosition, Type: scene.Float3},
	scene.VertexElement{Semantic: scene.SemanticNormal, Type: scene.Float3},
	scene.VertexElement{Semantic: scene.SemanticColor, Type: scene.ColorARGB},
	scene.VertexElement{Semantic: scene.SemanticTexCoord, Type: scene.Float2},
)

// BuildMeshes splits the heightfield into chunks and registers one mesh per
// chunk. Texture coordinates repeat once per uvScale world units.
func BuildMeshes(s *scene.Manager, hf *Heightfield, material string, uvScale float32) ([]*scene.Mesh, error) {
	var meshes []*scene.Mesh
	for z0 := 0; z0 < hf.CellsZ; z0 += ChunkCells {
		for x0 := 0; x0 < hf.CellsX; x0 += ChunkCells {
			m, err := buildChunk(s, hf, material, uvScale, x0, z0)
			if err != nil {
				for _, built := range meshes {
					s.DestroyMesh(built.Name)
				}
				return nil, err
			}
			meshes = append(meshes, m)
		}
	}
	return meshes, nil
}

func buildChunk(s *scene.Manager, hf *Heightfield, material string, uvScale float32, x0, z0 int) (*scene.Mesh, error) {
	x1 := min(x0+ChunkCells, hf.CellsX)
	z1 := min(z0+ChunkCells, hf.CellsZ)
	cols := x1 - x0 + 1

	mesh, err := s.CreateMesh(s.UniqueName("terrain-chunk-"))
	if err != nil {
		return nil, err
	}
	mesh.Layout = Layout
	mesh.Material = material
	mesh.Bounds = math.EmptyAABB()
	white := scene.PackColor(0xFFFFFFFF)

	for z := z0; z <= z1; z++ {
		for x := x0; x <= x1; x++ {
			p := math.Vec3{X: float32(x) * hf.CellSize, Y: hf.Sample(x, z), Z: float32(z) * hf.CellSize}
			n := hf.Normal(x, z)
			mesh.Vertices = append(mesh.Vertices,
				p.X, p.Y, p.Z,
				n.X, n.Y, n.Z,
				white,
				p.X/uvScale, p.Z/uvScale)
			mesh.Bounds.Extend(p)
		}
	}

	for z := 0; z < z1-z0; z++ {
		for x := 0; x < x1-x0; x++ {
			tl := uint16(z*cols + x)
			tr := tl + 1
			bl := tl + uint16(cols)
			br := bl + 1
			mesh.Indices = append(mesh.Indices, tl, bl, tr, tr, bl, br)
		}
	}
	mesh.BoundingRadius = mesh.Bounds.Size().Length() * 0.5
	return mesh, nil
}
