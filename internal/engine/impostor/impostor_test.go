package impostor

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/Faultbox/midgard-foliage/internal/engine/render"
	"github.com/Faultbox/midgard-foliage/internal/engine/scene"
	"github.com/Faultbox/midgard-foliage/pkg/math"
)

// drawn is what a fake pass saw of one entity.
type drawn struct {
	entity *scene.Entity
	world  math.Vec3
}

type fakeTarget struct {
	dev      *fakeDevice
	name     string
	w, h     int
	passes   []render.Pass
	states   []scene.RenderState
	seen     [][]drawn
	released bool
}

func (t *fakeTarget) Name() string { return t.name }
func (t *fakeTarget) Size() (int, int) { return t.w, t.h }
func (t *fakeTarget) Release() { t.released = true }

func (t *fakeTarget) ReadPixels() (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, t.w, t.h))
	img.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	return img, nil
}

func (t *fakeTarget) Render(s *scene.Manager, p render.Pass) error {
	t.passes = append(t.passes, p)
	t.states = append(t.states, s.State.Clone())
	var seen []drawn
	s.Root().Walk(func(e *scene.Entity, world math.Mat4) {
		if e.Visible && s.State.QueueVisible(e.RenderQueue) {
			seen = append(seen, drawn{e, world.TransformVec3(math.Vec3{})})
		}
	})
	t.seen = append(t.seen, seen)
	return t.dev.renderErr
}

type fakeDevice struct {
	targets   []*fakeTarget
	loaded    map[string]image.Image
	removed   []string
	renderErr error
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{loaded: make(map[string]image.Image)}
}

func (d *fakeDevice) Capabilities() render.Capabilities {
	return render.Capabilities{VertexPrograms: true, MaxTextureSize: 8192}
}

func (d *fakeDevice) CreateRenderTarget(name string, w, h int) (render.RenderTarget, error) {
	t := &fakeTarget{dev: d, name: name, w: w, h: h}
	d.targets = append(d.targets, t)
	return t, nil
}

func (d *fakeDevice) LoadTexture(name string, img image.Image) error {
	d.loaded[name] = img
	return nil
}

func (d *fakeDevice) RemoveTexture(name string) {
	d.removed = append(d.removed, name)
}

// newTree creates an entity 2 wide, 4 tall and 4 deep standing on y=0.
func newTree(t *testing.T, s *scene.Manager, name, meshName string) *scene.Entity {
	t.Helper()
	mesh, ok := s.Mesh(meshName)
	if !ok {
		var err error
		mesh, err = s.CreateMesh(meshName)
		require.NoError(t, err)
		mesh.Bounds = math.AABB{Min: math.Vec3{X: -1, Y: 0, Z: -2}, Max: math.Vec3{X: 1, Y: 4, Z: 2}}
	}
	e, err := s.CreateEntity(name, mesh)
	require.NoError(t, err)
	s.Root().CreateChild(name+"-node", math.Vec3{X: 5, Z: 5}).AttachEntity(e)
	return e
}

func newTestCache(settings Settings) (*Cache, *scene.Manager, *fakeDevice) {
	s := scene.NewManager()
	dev := newFakeDevice()
	return NewCache(s, dev, settings), s, dev
}

func TestAngleIndices(t *testing.T) {
	st := DefaultSettings()

	assert.Equal(t, 0, st.YawIndex(0))
	assert.Equal(t, 0, st.YawIndex(360))
	assert.Equal(t, 1, st.YawIndex(44))
	assert.Equal(t, 7, st.YawIndex(-45))
	assert.Equal(t, 2, st.PitchIndex(0), "level view uses the 0 degree row")
	assert.Equal(t, 0, st.PitchIndex(-90))
	assert.Equal(t, 3, st.PitchIndex(90))

	st.RenderAboveOnly = true
	assert.Equal(t, 0, st.PitchIndex(-30))
	assert.Equal(t, 1, st.PitchIndex(30))
	assert.Equal(t, 3, st.PitchIndex(90))
}

func TestCaptureAngles(t *testing.T) {
	st := DefaultSettings()
	assert.Equal(t, float32(-90), st.CapturePitch(0))
	assert.Equal(t, float32(0), st.CapturePitch(2))
	assert.Equal(t, float32(45), st.CaptureYaw(1))

	st.RenderAboveOnly = true
	assert.Equal(t, float32(45), st.CapturePitch(2))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "a-b-c-d-e-f-g-h-i-j.mesh", Sanitize(`a/b\c:d*e?f"g<h>i|j.mesh`))
}

func TestParseSettings(t *testing.T) {
	b, err := ParseBlend("alpha_blend")
	require.NoError(t, err)
	assert.Equal(t, BlendAlpha, b)
	o, err := ParseOrigin("bottom_center")
	require.NoError(t, err)
	assert.Equal(t, OriginBottomCenter, o)
	_, err = ParseOrigin("top")
	assert.Error(t, err)
}

func TestBakeCapturesEveryCell(t *testing.T) {
	c, s, dev := newTestCache(DefaultSettings())
	tree := newTree(t, s, "tree", "pine")
	home := tree.Node()
	tree.RenderDistance = 40
	s.Root().AttachEntity(mustEntity(t, s, "bystander"))

	_, tex, err := c.Acquire(tree)
	require.NoError(t, err)
	assert.Equal(t, StateReady, tex.State())
	assert.Equal(t, float32(2), tex.Radius())
	assert.Equal(t, math.Vec3{Y: 2}, tex.Center())

	require.Len(t, dev.targets, 1)
	rt := dev.targets[0]
	assert.Equal(t, 2048, rt.w)
	assert.Equal(t, 1024, rt.h)
	require.Len(t, rt.passes, 32)

	first := rt.passes[0]
	assert.Equal(t, render.Viewport{Width: 0.125, Height: 0.25}, first.Viewport)
	assert.Equal(t, Scheme, first.Scheme)
	assert.True(t, first.Clear)
	assert.InDelta(t, math32.Atan(4.0/200), first.Camera.FOVy, 1e-6)
	assert.Equal(t, float32(0.1), first.Camera.Near)
	assert.Equal(t, float32(203), first.Camera.Far)
	assert.InDelta(t, -200, first.Camera.Position.Y, 1e-3, "row 0 looks up from below")

	cell := rt.passes[1*8+2].Viewport
	assert.InDelta(t, 0.25, cell.Left, 1e-6)
	assert.InDelta(t, 0.25, cell.Top, 1e-6)

	for i, st := range rt.states {
		assert.Equal(t, scene.QueueInclude, st.QueueMode)
		assert.Equal(t, []uint8{51}, st.SpecialQueues)
		assert.Equal(t, scene.FogNone, st.Fog.Mode)
		assert.Equal(t, scene.Filtering{Min: scene.FilterPoint, Mag: scene.FilterLinear, Mip: scene.FilterNone}, st.Filtering)
		require.Len(t, rt.seen[i], 1, "only the captured entity is drawn")
		assert.Same(t, tree, rt.seen[i][0].entity)
		assert.Equal(t, math.Vec3{Y: -2}, rt.seen[i][0].world, "entity is centred on the render origin")
	}

	assert.Same(t, home, tree.Node())
	assert.Equal(t, scene.DefaultRenderQueue, tree.RenderQueue)
	assert.Equal(t, float32(40), tree.RenderDistance)
	assert.Equal(t, scene.DefaultRenderState(), s.State)
	assert.Empty(t, c.renderNode.Children())
}

func mustEntity(t *testing.T, s *scene.Manager, name string) *scene.Entity {
	t.Helper()
	e, err := s.CreateEntity(name, nil)
	require.NoError(t, err)
	return e
}

func TestMaterialsPerCell(t *testing.T) {
	c, s, _ := newTestCache(DefaultSettings())
	_, tex, err := c.Acquire(newTree(t, s, "tree", "pine"))
	require.NoError(t, err)

	assert.Len(t, tex.Materials(), 32)
	m, ok := s.Materials.Get(tex.Material(1, 2))
	require.True(t, ok)
	assert.Equal(t, tex.Atlas(), m.DiffuseMap)
	assert.Equal(t, [2]float32{0.25, 0.25}, m.Scroll)
	assert.Equal(t, scene.BlendAlphaReject, m.Blend)
	assert.Equal(t, uint8(128), m.AlphaThreshold)

	st := DefaultSettings()
	st.Blend = BlendAlpha
	c2, s2, _ := newTestCache(st)
	_, tex2, err := c2.Acquire(newTree(t, s2, "tree", "pine"))
	require.NoError(t, err)
	m2, _ := s2.Materials.Get(tex2.Material(0, 0))
	assert.Equal(t, scene.BlendAlpha, m2.Blend)
	assert.False(t, m2.DepthWrite)
}

func TestAcquireSharesByKey(t *testing.T) {
	c, s, dev := newTestCache(DefaultSettings())
	a := newTree(t, s, "a", "pine")
	b := newTree(t, s, "b", "pine")

	ha, ta, err := c.Acquire(a)
	require.NoError(t, err)
	hb, tb, err := c.Acquire(b)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)
	assert.Same(t, ta, tb)
	assert.Len(t, dev.targets, 1)
	assert.Equal(t, 1, c.Len())

	found, ok := c.Lookup("pine")
	require.True(t, ok)
	assert.Same(t, ta, found)

	materials := ta.Materials()
	c.Release(ha)
	assert.Equal(t, 1, c.Len())
	c.Release(hb)
	assert.Equal(t, 0, c.Len())
	assert.True(t, dev.targets[0].released)
	assert.False(t, s.Materials.Has(materials[0]))
	_, ok = c.Get(ha)
	assert.False(t, ok, "handle is stale after destruction")

	hc, _, err := c.Acquire(a)
	require.NoError(t, err)
	assert.NotEqual(t, ha, hc)
	c.Release(ha)
	assert.Equal(t, 1, c.Len(), "stale release is ignored")
}

func TestRegenerateKeepsMaterials(t *testing.T) {
	c, s, dev := newTestCache(DefaultSettings())
	_, tex, err := c.Acquire(newTree(t, s, "tree", "pine"))
	require.NoError(t, err)
	before := tex.Materials()
	oldAtlas := tex.Atlas()
	count := len(s.Materials.Names())

	require.NoError(t, c.Regenerate("pine"))

	assert.Equal(t, before, tex.Materials())
	assert.Len(t, s.Materials.Names(), count)
	assert.NotEqual(t, oldAtlas, tex.Atlas())
	require.Len(t, dev.targets, 2)
	assert.True(t, dev.targets[0].released)
	m, _ := s.Materials.Get(before[5])
	assert.Equal(t, tex.Atlas(), m.DiffuseMap)
	assert.Equal(t, 1, c.Len())
}

func TestFailedBakeRestoresState(t *testing.T) {
	c, s, dev := newTestCache(DefaultSettings())
	tree := newTree(t, s, "tree", "pine")
	home := tree.Node()
	dev.renderErr = errors.New("device lost")

	_, _, err := c.Acquire(tree)
	require.Error(t, err)
	assert.Equal(t, scene.DefaultRenderState(), s.State)
	assert.Same(t, home, tree.Node())
	assert.Equal(t, scene.DefaultRenderQueue, tree.RenderQueue)
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, []string{BaseMaterial}, s.Materials.Names())
	assert.True(t, dev.targets[0].released)
}

func TestMaterialFailureReleasesAtlas(t *testing.T) {
	c, s, dev := newTestCache(DefaultSettings())
	tex, err := newTexture(newTree(t, s, "tree", "pine"))
	require.NoError(t, err)
	s.Materials.Remove(BaseMaterial)

	require.Error(t, c.bake(tex, false))
	require.Len(t, dev.targets, 1)
	assert.True(t, dev.targets[0].released)
	assert.Empty(t, tex.Atlas())
	assert.Nil(t, tex.target)
	assert.Equal(t, StateUnbuilt, tex.State())
	assert.Empty(t, s.Materials.Names())
}

func TestRegenerateAllReportsEveryFailure(t *testing.T) {
	c, s, dev := newTestCache(DefaultSettings())
	_, _, err := c.Acquire(newTree(t, s, "a", "pine"))
	require.NoError(t, err)
	_, _, err = c.Acquire(newTree(t, s, "b", "oak"))
	require.NoError(t, err)

	dev.renderErr = errors.New("device lost")
	err = c.RegenerateAll()
	assert.Len(t, multierr.Errors(err), 2)

	tex, _ := c.Lookup("oak")
	assert.Equal(t, StateReady, tex.State(), "a failed rebake keeps the previous atlas")
}

func TestDiskCache(t *testing.T) {
	st := DefaultSettings()
	st.Resolution = 4
	st.CacheDir = t.TempDir()

	c, s, dev := newTestCache(st)
	_, _, err := c.Acquire(newTree(t, s, "tree", "trees/pine.mesh"))
	require.NoError(t, err)
	require.Len(t, dev.targets, 1)
	path := filepath.Join(st.CacheDir, "trees-pine.mesh.png")
	_, err = os.Stat(path)
	require.NoError(t, err)

	c2, s2, dev2 := newTestCache(st)
	_, tex, err := c2.Acquire(newTree(t, s2, "tree", "trees/pine.mesh"))
	require.NoError(t, err)
	assert.Empty(t, dev2.targets, "cached atlas is loaded, not rendered")
	atlas := tex.Atlas()
	assert.Contains(t, dev2.loaded, atlas)

	st.ForceRegenerate = true
	c3, s3, dev3 := newTestCache(st)
	_, _, err = c3.Acquire(newTree(t, s3, "tree", "trees/pine.mesh"))
	require.NoError(t, err)
	assert.Len(t, dev3.targets, 1)

	c2.Close()
	assert.Contains(t, dev2.removed, atlas)
	assert.Empty(t, tex.Atlas())
}

func TestCloseDestroysEverything(t *testing.T) {
	c, s, dev := newTestCache(DefaultSettings())
	tree := newTree(t, s, "tree", "pine")
	_, _, err := c.Acquire(tree)
	require.NoError(t, err)

	c.Close()
	assert.Equal(t, 0, c.Len())
	assert.True(t, dev.targets[0].released)
	for _, n := range s.Root().Children() {
		assert.NotEqual(t, "impostor-render-node", n.Name)
	}
	_, _, err = c.Acquire(newTree(t, s, "other", "oak"))
	assert.ErrorIs(t, err, ErrNoRenderNode)
}

func vertex(m *scene.Mesh, i int) []float32 {
	f := m.Layout.Floats()
	return m.Vertices[i*f : (i+1)*f]
}

func TestBatchAddBillboard(t *testing.T) {
	c, s, _ := newTestCache(DefaultSettings())
	b, err := newBatch(c, s, s.Root(), newTree(t, s, "tree", "pine"))
	require.NoError(t, err)

	rot := math.QuatFromAxisAngle(math.UnitY, math32.Pi/2)
	b.AddBillboard(math.Vec3{X: 10, Z: 10}, rot, math.Vec3{X: 1, Y: 2, Z: 1}, 0xFF00FF00)
	require.NoError(t, b.Build())

	ents := b.Billboards().Entities()
	require.Len(t, ents, 1)
	m := ents[0].Mesh
	assert.Equal(t, scene.BillboardLayout, m.Layout)
	assert.Equal(t, 4, m.VertexCount())
	assert.Equal(t, []uint16{0, 2, 1, 1, 2, 3}, m.Indices)
	assert.Equal(t, scene.VisibilityImpostor, ents[0].VisibilityFlags)
	assert.False(t, ents[0].CastShadows)

	v0 := vertex(m, 0)
	assert.InDelta(t, 10, v0[0], 1e-4)
	assert.InDelta(t, 4, v0[1], 1e-4)
	assert.InDelta(t, 10, v0[2], 1e-4)
	assert.Equal(t, float32(-2), v0[3], "half of the scaled diameter")
	assert.Equal(t, float32(4), v0[4], "centre pivot spans half the height up")
	assert.Equal(t, uint32(0xFF00FF00), scene.UnpackColor(v0[7]))
	assert.Equal(t, float32(0.75), v0[8], "yawed 90 degrees uses column 6")
	assert.Equal(t, float32(0), v0[9])

	v3 := vertex(m, 3)
	assert.Equal(t, float32(-4), v3[4])
	assert.Equal(t, float32(0.875), v3[8])
	assert.Equal(t, float32(0.25), v3[9])
}

func TestBottomCenterPivot(t *testing.T) {
	st := DefaultSettings()
	st.Pivot = OriginBottomCenter
	c, s, _ := newTestCache(st)
	b, err := newBatch(c, s, s.Root(), newTree(t, s, "tree", "pine"))
	require.NoError(t, err)

	b.AddBillboard(math.Vec3{}, math.QuatIdentity(), math.Vec3{X: 1, Y: 1, Z: 1}, 0xFFFFFFFF)
	require.NoError(t, b.Build())
	m := b.Billboards().Entities()[0].Mesh

	assert.Equal(t, float32(0), vertex(m, 0)[1], "anchor is the bottom of the bounding sphere")
	assert.Equal(t, float32(4), vertex(m, 0)[4])
	assert.Equal(t, float32(0), vertex(m, 2)[4])
	assert.Equal(t, float32(0), vertex(m, 0)[8], "unrotated uses column 0")
}

func TestBatchRebindsOnlyOnChange(t *testing.T) {
	c, s, _ := newTestCache(DefaultSettings())
	b, err := newBatch(c, s, s.Root(), newTree(t, s, "tree", "pine"))
	require.NoError(t, err)

	p, y := b.Angles()
	assert.Equal(t, 2, p)
	assert.Equal(t, 0, y)
	assert.Equal(t, b.Texture().Material(2, 0), b.Billboards().Material())

	b.Billboards().SetMaterial("marker")
	b.SetAngle(1, 359)
	assert.Equal(t, "marker", b.Billboards().Material(), "same cell is not rebound")

	b.SetAngle(0, 90)
	assert.Equal(t, b.Texture().Material(2, 2), b.Billboards().Material())
}

func TestPageAveragesHeight(t *testing.T) {
	c, s, _ := newTestCache(DefaultSettings())
	p := NewPage(s, c, 100)
	p.SetRegion(math.Rect{Left: 0, Top: 0, Right: 100, Bottom: 100})

	tree := newTree(t, s, "tree", "pine")
	one := math.Vec3{X: 1, Y: 1, Z: 1}
	require.NoError(t, p.Add(tree, math.Vec3{X: 10, Z: 10}, math.QuatIdentity(), one, 0xFFFFFFFF))
	require.NoError(t, p.Add(tree, math.Vec3{X: 20, Y: 10, Z: 20}, math.QuatIdentity(), one, 0xFFFFFFFF))
	p.Build()

	assert.Equal(t, math.Vec3{X: 50, Y: 7, Z: 50}, p.Center())
	b, ok := p.Batch("pine")
	require.True(t, ok)
	assert.Equal(t, 2, b.Billboards().Len())
}

func TestPageUpdateSelectsCell(t *testing.T) {
	c, s, _ := newTestCache(DefaultSettings())
	p := NewPage(s, c, 100)
	p.SetRegion(math.Rect{Right: 100, Bottom: 100})
	p.AddEntity(newTree(t, s, "tree", "pine"), math.Vec3{X: 50, Z: 50}, math.QuatIdentity(), math.Vec3{X: 1, Y: 1, Z: 1})
	p.Build()
	b := p.Batches()[0]

	far := render.Camera{Position: math.Vec3{X: 1050, Y: 2, Z: 50}, Orientation: math.QuatIdentity()}
	p.Update(far)
	pitch, yaw := b.Angles()
	assert.Equal(t, 2, pitch)
	assert.Equal(t, 2, yaw, "viewer due east is a quarter turn")

	high := render.Camera{Position: math.Vec3{X: 50, Y: 2 + 1000, Z: 1050}, Orientation: math.QuatIdentity()}
	p.Update(high)
	pitch, yaw = b.Angles()
	assert.Equal(t, 3, pitch)
	assert.Equal(t, 0, yaw)

	near := render.Camera{
		Position:    math.Vec3{X: 50, Y: 2, Z: 60},
		Orientation: math.QuatFromAxisAngle(math.UnitY, math32.Pi/2),
	}
	p.Update(near)
	_, yaw = b.Angles()
	assert.Equal(t, 2, yaw, "near pages follow the view direction")
}

func TestPageLifecycle(t *testing.T) {
	c, s, _ := newTestCache(DefaultSettings())
	tree := newTree(t, s, "tree", "pine")
	entities := s.EntityCount()

	p := NewPage(s, c, 100)
	p.SetRegion(math.Rect{Right: 100, Bottom: 100})
	p.AddEntity(tree, math.Vec3{X: 10, Z: 10}, math.QuatIdentity(), math.Vec3{X: 1, Y: 1, Z: 1})
	p.Build()
	assert.Equal(t, entities+1, s.EntityCount())

	p.SetFade(true, 200, 300)
	e := p.Batches()[0].Billboards().Entities()[0]
	assert.Equal(t, float32(200), e.FadeStart)
	assert.Equal(t, float32(300), e.RenderDistance)
	p.SetVisible(false)
	assert.False(t, e.Visible)

	p.RemoveEntities()
	assert.Equal(t, entities, s.EntityCount())
	assert.Equal(t, 1, c.Len(), "atlas survives removal for the next fill")
	require.NoError(t, p.Regenerate(tree))
	require.NoError(t, p.RegenerateAll())

	p.Close()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, entities, s.EntityCount())
}

func TestPageDropsUnbakeableEntity(t *testing.T) {
	c, s, _ := newTestCache(DefaultSettings())
	p := NewPage(s, c, 100)
	empty := mustEntity(t, s, "empty")
	p.AddEntity(empty, math.Vec3{}, math.QuatIdentity(), math.Vec3{X: 1, Y: 1, Z: 1})
	p.Build()
	assert.Empty(t, p.Batches())
}
