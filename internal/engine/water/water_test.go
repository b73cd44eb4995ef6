package water

import (
	"testing"

	"github.com/Faultbox/midgard-foliage/internal/engine/scene"
	"github.com/Faultbox/midgard-foliage/pkg/math"
)

func TestBuildPlane(t *testing.T) {
	s := scene.NewManager()
	p, err := BuildPlane(s, "lake", "water", math.Rect{Left: 0, Top: 0, Right: 100, Bottom: 50}, 3, 10, 20)
	if err != nil {
		t.Fatalf("BuildPlane: %v", err)
	}
	if got := p.Mesh.VertexCount(); got != 4 {
		t.Errorf("VertexCount() = %d, want 4", got)
	}
	if p.Mesh.Bounds.Min.X != -10 || p.Mesh.Bounds.Max.Z != 60 {
		t.Errorf("bounds = %+v, want padded by 10", p.Mesh.Bounds)
	}
	if p.Mesh.Bounds.Min.Y != 3 || p.Mesh.Bounds.Max.Y != 3 {
		t.Errorf("plane not flat at level 3: %+v", p.Mesh.Bounds)
	}
	// The last vertex's u spans 120 units of 20-unit tiles.
	stride := p.Mesh.Layout.Floats()
	if u := p.Mesh.Vertices[3*stride+7]; u != 6 {
		t.Errorf("u = %v, want 6", u)
	}

	if _, err := BuildPlane(s, "lake", "water", math.Rect{Right: 1, Bottom: 1}, 0, 0, 1); err == nil {
		t.Error("expected duplicate name error")
	}
	if _, ok := s.Mesh("lake"); !ok {
		t.Error("failed rebuild destroyed the existing mesh")
	}
}

func TestAnimateWraps(t *testing.T) {
	s := scene.NewManager()
	s.Materials.Define(&scene.Material{Name: "water"})
	p, err := BuildPlane(s, "lake", "water", math.Rect{Right: 1, Bottom: 1}, 0, 0, 1)
	if err != nil {
		t.Fatalf("BuildPlane: %v", err)
	}

	p.Animate(s, 10)
	m, _ := s.Materials.Get("water")
	if m.Scroll[0] < 0.199 || m.Scroll[0] > 0.201 {
		t.Errorf("Scroll[0] = %v, want 0.2", m.Scroll[0])
	}
	p.Animate(s, 100)
	if m.Scroll[0] < 0 || m.Scroll[0] >= 1 {
		t.Errorf("Scroll[0] = %v, want wrapped into [0, 1)", m.Scroll[0])
	}
}
