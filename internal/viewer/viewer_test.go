package viewer

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/midgard-foliage/internal/config"
	"github.com/Faultbox/midgard-foliage/internal/engine/grass"
	"github.com/Faultbox/midgard-foliage/internal/engine/impostor"
	"github.com/Faultbox/midgard-foliage/internal/engine/input"
	"github.com/Faultbox/midgard-foliage/internal/engine/scene"
	"github.com/Faultbox/midgard-foliage/internal/engine/terrain"
	"github.com/Faultbox/midgard-foliage/pkg/math"
)

func TestBuildTreeMesh(t *testing.T) {
	s := scene.NewManager()
	spec := DefaultTrees[0]
	mesh, err := BuildTreeMesh(s, spec)
	require.NoError(t, err)

	quads := 4 + spec.CanopyPlanes
	assert.Equal(t, quads*4, mesh.VertexCount())
	assert.Len(t, mesh.Indices, quads*6)
	assert.Equal(t, TreeMaterial, mesh.Material)
	assert.InDelta(t, 0, mesh.Bounds.Min.Y, 1e-5)
	assert.InDelta(t, spec.Height, mesh.Bounds.Max.Y, 1e-5)
	assert.InDelta(t, spec.CanopyRadius, mesh.Bounds.Max.X, 1e-4)
	assert.Greater(t, mesh.BoundingRadius, spec.Height/2)

	_, err = BuildTreeMesh(s, spec)
	assert.Error(t, err, "duplicate mesh name")
}

func treeTemplates(t *testing.T, s *scene.Manager) []*scene.Entity {
	t.Helper()
	var out []*scene.Entity
	for _, spec := range DefaultTrees {
		mesh, err := BuildTreeMesh(s, spec)
		require.NoError(t, err)
		e, err := s.CreateEntity(spec.Name, mesh)
		require.NoError(t, err)
		out = append(out, e)
	}
	return out
}

func TestScatterTrees(t *testing.T) {
	s := scene.NewManager()
	templates := treeTemplates(t, s)
	bounds := math.Rect{Left: -50, Top: 10, Right: 50, Bottom: 110}

	a := ScatterTrees(templates, bounds, 200, 7, nil, 0)
	b := ScatterTrees(templates, bounds, 200, 7, nil, 0)
	require.Len(t, a, 200)
	assert.Equal(t, a, b)

	kinds := map[*scene.Entity]bool{}
	for _, p := range a {
		assert.True(t, bounds.Contains(p.X, p.Z), "tree at %v,%v", p.X, p.Z)
		assert.GreaterOrEqual(t, p.Scale, float32(0.8))
		kinds[p.Entity] = true
	}
	assert.Len(t, kinds, len(templates))

	c := ScatterTrees(templates, bounds, 200, 8, nil, 0)
	assert.NotEqual(t, a, c)
}

func TestScatterTreesSkipsSteepGround(t *testing.T) {
	s := scene.NewManager()
	templates := treeTemplates(t, s)
	bounds := math.Rect{Left: 0, Top: 0, Right: 100, Bottom: 100}
	steepEast := func(x, z float32) float32 {
		if x > 50 {
			return 1
		}
		return 0
	}

	out := ScatterTrees(templates, bounds, 200, 3, steepEast, 0.5)
	require.NotEmpty(t, out)
	assert.Less(t, len(out), 200)
	for _, p := range out {
		assert.LessOrEqual(t, p.X, float32(50))
	}
	assert.Empty(t, ScatterTrees(nil, bounds, 10, 3, nil, 0))
}

func TestSlopeAt(t *testing.T) {
	flat := slopeAt(func(x, z float32) float32 { return 4 })
	assert.InDelta(t, 0, flat(10, 10), 1e-6)

	ramp := slopeAt(func(x, z float32) float32 { return 0.5 * x })
	assert.InDelta(t, 0.5, ramp(3, -2), 1e-5)
}

func TestAxisAndLevel(t *testing.T) {
	b := DefaultBinder()
	assert.Zero(t, axis(b, ControlForward))
	assert.Zero(t, axis(b, "missing"))
	assert.Equal(t, float32(0.25), level(b, "missing", 0.25))
	assert.Equal(t, float32(1), level(b, ControlGrass, 0))

	c, ok := b.Control(ControlForward)
	require.True(t, ok)
	c.SetValue(1)
	assert.Equal(t, float32(1), axis(b, ControlForward))
	c.SetValue(0)
	assert.Equal(t, float32(-1), axis(b, ControlForward))
}

func TestDefaultBinder(t *testing.T) {
	b := DefaultBinder()
	assert.Len(t, b.Controls(), 6)

	forward, ok := b.Control(ControlForward)
	require.True(t, ok)
	assert.Equal(t, sdl.Keycode(sdl.K_w), b.KeyBinding(forward, input.DirectionIncrease))
	assert.Equal(t, sdl.Keycode(sdl.K_s), b.KeyBinding(forward, input.DirectionDecrease))
	assert.True(t, forward.AutoReverse)

	grassCtl, ok := b.Control(ControlGrass)
	require.True(t, ok)
	assert.True(t, grassCtl.ToggleAtLimits)
	assert.Equal(t, sdl.Keycode(sdl.K_g), b.KeyBinding(grassCtl, input.DirectionDecrease))
}

func TestLoadBinderWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "bindings.xml")

	b := loadBinder(path)
	assert.Len(t, b.Controls(), 6)
	_, err := os.Stat(path)
	require.NoError(t, err, "defaults written")

	forward, _ := b.Control(ControlForward)
	b.Rebind(forward, sdl.K_UP, input.DirectionIncrease)
	require.NoError(t, b.SaveFile(path))

	again := loadBinder(path)
	forward, ok := again.Control(ControlForward)
	require.True(t, ok)
	assert.Equal(t, sdl.Keycode(sdl.K_UP), again.KeyBinding(forward, input.DirectionIncrease))
}

func TestLoadBinderBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bindings.xml")
	require.NoError(t, os.WriteFile(path, []byte("<Controller"), 0644))

	b := loadBinder(path)
	assert.Len(t, b.Controls(), 6)
}

func grassScene(materials ...string) *scene.Manager {
	s := scene.NewManager()
	for _, m := range materials {
		s.Materials.Define(&scene.Material{Name: m})
	}
	return s
}

func writeMap(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}
	img.Set(0, 0, color.RGBA{A: 0xFF})
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestConfigureLayers(t *testing.T) {
	dir := t.TempDir()
	densityPath := writeMap(t, dir, "density.png")
	colorPath := writeMap(t, dir, "colour.png")

	s := grassScene("grass", "flowers")
	ld := grass.NewLoader(s, terrain.NewHeightfield(8, 8, 1))
	paths, err := configureLayers(ld, []config.GrassLayerConfig{
		{
			Material:   "grass",
			Density:    0.5,
			MinSize:    [2]float32{1, 1},
			MaxSize:    [2]float32{2, 2},
			Technique:  "crossquads",
			Fade:       "grow",
			MapBounds:  [4]float32{0, 0, 8, 8},
			DensityMap: densityPath,
			ColorMap:   colorPath,
		},
		{Material: "flowers", Technique: "sprite", Density: 0.1},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{densityPath, colorPath}, paths)

	layers := ld.Layers()
	require.Len(t, layers, 2)
	assert.Equal(t, "grass", layers[0].Material())
	assert.Equal(t, grass.TechniqueCrossQuads, layers[0].Technique())
	assert.Equal(t, float32(0.5), layers[0].Density())
	assert.Equal(t, math.Rect{Right: 8, Bottom: 8}, layers[0].MapBounds())
	assert.Equal(t, grass.TechniqueSprite, layers[1].Technique())
	assert.Equal(t, 1, ld.Maps().Refs(densityPath, 0))
}

func TestConfigureLayersErrors(t *testing.T) {
	s := grassScene("grass")

	ld := grass.NewLoader(s, terrain.NewHeightfield(8, 8, 1))
	_, err := configureLayers(ld, []config.GrassLayerConfig{{Material: "missing"}}, nil)
	assert.ErrorIs(t, err, grass.ErrMaterialNotFound)

	ld = grass.NewLoader(s, terrain.NewHeightfield(8, 8, 1))
	_, err = configureLayers(ld, []config.GrassLayerConfig{
		{Material: "grass", Technique: "billboard", Fade: "melt"},
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "billboard")
	assert.Contains(t, err.Error(), "melt")

	ld = grass.NewLoader(s, terrain.NewHeightfield(8, 8, 1))
	_, err = configureLayers(ld, []config.GrassLayerConfig{
		{Material: "grass", DensityMap: filepath.Join(t.TempDir(), "none.png")},
	}, nil)
	assert.Error(t, err)
}

type mapResolver map[string]string

func (m mapResolver) Path(name string) (string, bool) {
	p, ok := m[name]
	return p, ok
}

func TestResolve(t *testing.T) {
	r := mapResolver{"density.png": "/data/maps/density.png"}
	assert.Equal(t, "/data/maps/density.png", resolve(r, "density.png"))
	assert.Equal(t, "other.png", resolve(r, "other.png"))
	assert.Equal(t, "other.png", resolve(nil, "other.png"))
}

func TestImpostorSettings(t *testing.T) {
	c := config.Default().Impostor
	c.Pivot = "bottom_center"
	c.Blend = "alpha_blend"
	c.Resolution = 64

	st, err := impostorSettings(c, 70)
	require.NoError(t, err)
	assert.Equal(t, impostor.OriginBottomCenter, st.Pivot)
	assert.Equal(t, impostor.BlendAlpha, st.Blend)
	assert.Equal(t, 64, st.Resolution)
	assert.Equal(t, uint8(70), st.RenderQueue)
	assert.Equal(t, c.Background, st.Background)

	c.Pivot = "top"
	_, err = impostorSettings(c, 70)
	assert.Error(t, err)
}

func TestBuildWater(t *testing.T) {
	s := scene.NewManager()
	cfg := config.Default()
	cfg.Paging.WaterLevel = 1
	w := &world{textures: map[string]bool{}, heights: terrain.NewHeightfield(10, 10, 1)}

	require.NoError(t, buildWater(s, cfg, w))
	require.NotNil(t, w.water)
	assert.Equal(t, float32(1), w.water.Level)

	flat := func(x, z float32) float32 { return 0.1 }
	assert.Greater(t, dryGround(w, flat)(5, 5), float32(1e30), "flooded ground")

	w.heights.Heights[5*11+5] = 4
	assert.Equal(t, float32(0.1), dryGround(w, flat)(5, 5))
}

func TestBuildWaterDisabled(t *testing.T) {
	s := scene.NewManager()
	cfg := config.Default()
	cfg.Paging.Water = false
	w := &world{textures: map[string]bool{}, heights: terrain.NewHeightfield(10, 10, 1)}

	require.NoError(t, buildWater(s, cfg, w))
	assert.Nil(t, w.water)
	assert.Zero(t, s.MeshCount())
	assert.Equal(t, float32(0.1), dryGround(w, func(x, z float32) float32 { return 0.1 })(5, 5))
}
