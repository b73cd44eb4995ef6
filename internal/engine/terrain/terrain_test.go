package terrain

import (
	"image"
	"image/color"
	"testing"

	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-foliage/internal/engine/scene"
)

func TestHeightAtInterpolates(t *testing.T) {
	hf := NewHeightfield(2, 2, 10)
	hf.set(1, 0, 10)
	hf.set(1, 1, 20)

	tests := []struct {
		x, z float32
		want float32
	}{
		{0, 0, 0},
		{10, 0, 10},
		{5, 0, 5},
		{10, 5, 15},
		{5, 5, 7.5},
		{-50, 0, 0},  // clamped to the west edge
		{10, -5, 10}, // clamped to the north edge
		{20, 20, 0},  // far corner
	}
	for _, tt := range tests {
		if got := hf.HeightAt(tt.x, tt.z); math32.Abs(got-tt.want) > 1e-4 {
			t.Errorf("HeightAt(%v, %v) = %v, want %v", tt.x, tt.z, got, tt.want)
		}
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	a := Generate(16, 16, 4, 10, 7)
	b := Generate(16, 16, 4, 10, 7)
	for i := range a.Heights {
		if a.Heights[i] != b.Heights[i] {
			t.Fatalf("sample %d differs: %v vs %v", i, a.Heights[i], b.Heights[i])
		}
		if math32.Abs(a.Heights[i]) > 10 {
			t.Fatalf("sample %d = %v exceeds amplitude", i, a.Heights[i])
		}
	}
}

func TestFromImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	img.SetGray(1, 1, color.Gray{Y: 255})
	hf, err := FromImage(img, 5, 8)
	if err != nil {
		t.Fatalf("FromImage() error = %v", err)
	}
	if hf.CellsX != 1 || hf.CellsZ != 1 {
		t.Errorf("cells = %dx%d, want 1x1", hf.CellsX, hf.CellsZ)
	}
	if got := hf.Sample(1, 1); got != 8 {
		t.Errorf("Sample(1, 1) = %v, want 8", got)
	}

	if _, err := FromImage(image.NewGray(image.Rect(0, 0, 1, 4)), 5, 8); err == nil {
		t.Error("expected error for a single column image")
	}
}

func TestNormalFlat(t *testing.T) {
	hf := NewHeightfield(4, 4, 1)
	if n := hf.Normal(2, 2); n.Y != 1 {
		t.Errorf("flat normal = %v, want +Y", n)
	}
}

func TestBuildMeshesChunks(t *testing.T) {
	s := scene.NewManager()
	hf := NewHeightfield(ChunkCells+8, 10, 2)

	meshes, err := BuildMeshes(s, hf, "terrain", 8)
	if err != nil {
		t.Fatalf("BuildMeshes() error = %v", err)
	}
	if len(meshes) != 2 {
		t.Fatalf("got %d chunks, want 2", len(meshes))
	}

	first := meshes[0]
	if got, want := first.VertexCount(), (ChunkCells+1)*11; got != want {
		t.Errorf("first chunk has %d vertices, want %d", got, want)
	}
	if got, want := len(first.Indices), ChunkCells*10*6; got != want {
		t.Errorf("first chunk has %d indices, want %d", got, want)
	}
	if got, want := meshes[1].VertexCount(), 9*11; got != want {
		t.Errorf("second chunk has %d vertices, want %d", got, want)
	}
	if first.Bounds.Max.X != ChunkCells*2 || meshes[1].Bounds.Min.X != ChunkCells*2 {
		t.Errorf("chunks do not share their seam: %v / %v", first.Bounds, meshes[1].Bounds)
	}
	if s.MeshCount() != 2 {
		t.Errorf("MeshCount() = %d, want 2", s.MeshCount())
	}
}
