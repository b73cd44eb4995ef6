// Package water builds the lake plane that floods low terrain.
package water

import (
	"github.com/Faultbox/midgard-foliage/internal/engine/scene"
	"github.com/Faultbox/midgard-foliage/internal/engine/terrain"
	"github.com/Faultbox/midgard-foliage/pkg/math"
)

// DefaultPadding extends the plane beyond the terrain bounds.
const DefaultPadding = 50.0

// Color tints the water texture.
const Color uint32 = 0xB03070A0

// Plane is a flat textured quad at a fixed height.
type Plane struct {
	Mesh     *scene.Mesh
	Entity   *scene.Entity
	Level    float32
	material string
	speed    [2]float32
	elapsed  float32
}

// BuildPlane registers a plane covering bounds grown by padding, at height
// level. Its texture repeats every tile world units.
func BuildPlane(s *scene.Manager, name, material string, bounds math.Rect, level, padding, tile float32) (*Plane, error) {
	mesh, err := s.CreateMesh(name)
	if err != nil {
		return nil, err
	}
	l, t := bounds.Left-padding, bounds.Top-padding
	r, b := bounds.Right+padding, bounds.Bottom+padding
	c := scene.PackColor(Color)
	uR, vB := (r-l)/tile, (b-t)/tile

	mesh.Layout = terrain.Layout
	mesh.Material = material
	mesh.Vertices = []float32{
		l, level, t, 0, 1, 0, c, 0, 0,
		r, level, t, 0, 1, 0, c, uR, 0,
		l, level, b, 0, 1, 0, c, 0, vB,
		r, level, b, 0, 1, 0, c, uR, vB,
	}
	mesh.Indices = []uint16{0, 2, 1, 1, 2, 3}
	mesh.Bounds = math.AABB{
		Min: math.Vec3{X: l, Y: level, Z: t},
		Max: math.Vec3{X: r, Y: level, Z: b},
	}
	mesh.BoundingRadius = mesh.Bounds.Size().Length() * 0.5

	e, err := s.CreateEntity(name, mesh)
	if err != nil {
		s.DestroyMesh(name)
		return nil, err
	}
	return &Plane{Mesh: mesh, Entity: e, Level: level, material: material, speed: [2]float32{0.02, 0.01}}, nil
}

// Animate scrolls the water texture.
func (p *Plane) Animate(s *scene.Manager, elapsed float32) {
	p.elapsed += elapsed
	m, ok := s.Materials.Get(p.material)
	if !ok {
		return
	}
	m.Scroll = [2]float32{wrap(p.elapsed * p.speed[0]), wrap(p.elapsed * p.speed[1])}
}

func wrap(v float32) float32 {
	return v - float32(int(v))
}
