package impostor

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-foliage/internal/engine/render"
	"github.com/Faultbox/midgard-foliage/internal/engine/scene"
	"github.com/Faultbox/midgard-foliage/internal/engine/texture"
	"github.com/Faultbox/midgard-foliage/internal/logger"
	"github.com/Faultbox/midgard-foliage/pkg/math"
)

// State is the bake state of a texture.
type State uint8

const (
	StateUnbuilt State = iota
	StateRendering
	StateReady
)

func (s State) String() string {
	switch s {
	case StateRendering:
		return "rendering"
	case StateReady:
		return "ready"
	default:
		return "unbuilt"
	}
}

// Texture is the baked atlas of one entity shape together with one material
// per atlas cell.
type Texture struct {
	key    string
	entity *scene.Entity
	center math.Vec3
	radius float32

	atlas     string
	target    render.RenderTarget
	materials [][]string // [pitch][yaw]
	state     State
	refs      int
}

// Key returns the entity shape key the texture was baked for.
func (t *Texture) Key() string { return t.key }

// Atlas returns the device texture name currently bound to the materials.
func (t *Texture) Atlas() string { return t.atlas }

// State returns the bake state.
func (t *Texture) State() State { return t.state }

// Center returns the centre of the entity bounds in entity space.
func (t *Texture) Center() math.Vec3 { return t.center }

// Radius returns the largest half extent of the entity bounds.
func (t *Texture) Radius() float32 { return t.radius }

// Diameter returns twice the radius.
func (t *Texture) Diameter() float32 { return t.radius * 2 }

// Material returns the material showing the given atlas cell.
func (t *Texture) Material(pitch, yaw int) string {
	return t.materials[pitch][yaw]
}

// Materials returns every cell material, pitch rows first.
func (t *Texture) Materials() []string {
	var names []string
	for _, row := range t.materials {
		names = append(names, row...)
	}
	return names
}

// Key returns the shape key of e. Entities sharing a mesh share an atlas.
func Key(e *scene.Entity) string {
	if e.Mesh != nil {
		return e.Mesh.Name
	}
	return e.Name
}

func newTexture(e *scene.Entity) (*Texture, error) {
	box := e.BoundingBox()
	center := box.Center()
	ext := box.Max.Sub(center)
	radius := max(ext.X, ext.Y, ext.Z)
	if radius <= 0 {
		return nil, fmt.Errorf("impostor %q: entity has empty bounds", Key(e))
	}
	return &Texture{key: Key(e), entity: e, center: center, radius: radius}, nil
}

// captureState is the global state every capture pass runs under.
func captureState(queue uint8) scene.RenderState {
	return scene.RenderState{
		Filtering:     scene.Filtering{Min: scene.FilterPoint, Mag: scene.FilterLinear, Mip: scene.FilterNone},
		Fog:           scene.Fog{Mode: scene.FogNone},
		QueueMode:     scene.QueueInclude,
		SpecialQueues: []uint8{queue},
	}
}

// cachePath returns the disk location of a baked atlas, or "" without a
// cache directory.
func (c *Cache) cachePath(key string) string {
	if c.settings.CacheDir == "" {
		return ""
	}
	return filepath.Join(c.settings.CacheDir, Sanitize(key)+".png")
}

// bake produces a fresh atlas for t and binds it to t's materials. force
// skips the disk cache.
func (c *Cache) bake(t *Texture, force bool) error {
	if t.state == StateRendering {
		return fmt.Errorf("impostor %q: bake already in progress", t.key)
	}
	prev := t.state
	t.state = StateRendering
	start := time.Now()

	name := c.scene.UniqueName("impostor-atlas-")
	target, source, err := c.produce(t, name, force)
	if err != nil {
		t.state = prev
		return err
	}

	oldAtlas, oldTarget := t.atlas, t.target
	t.atlas, t.target = name, target
	if t.materials == nil {
		if err := c.createMaterials(t); err != nil {
			c.releaseAtlas(name, target)
			t.atlas, t.target = oldAtlas, oldTarget
			t.state = prev
			return err
		}
	} else {
		c.updateMaterials(t)
	}
	c.releaseAtlas(oldAtlas, oldTarget)

	t.state = StateReady
	logger.Info("impostor texture ready",
		zap.String("key", t.key),
		zap.String("source", source),
		zap.Duration("took", time.Since(start)))
	return nil
}

// produce loads the atlas from disk or renders it.
func (c *Cache) produce(t *Texture, name string, force bool) (render.RenderTarget, string, error) {
	path := c.cachePath(t.key)
	if path != "" && !force && !c.settings.ForceRegenerate {
		img, err := texture.Load(path)
		switch {
		case err == nil:
			if err := c.device.LoadTexture(name, img); err != nil {
				return nil, "", fmt.Errorf("impostor %q: upload cached atlas: %w", t.key, err)
			}
			return nil, "loaded", nil
		case !errors.Is(err, fs.ErrNotExist):
			logger.Warn("ignoring unreadable impostor cache file", zap.String("path", path), zap.Error(err))
		}
	}

	w := c.settings.Resolution * c.settings.YawAngles
	h := c.settings.Resolution * c.settings.PitchAngles
	target, err := c.device.CreateRenderTarget(name, w, h)
	if err != nil {
		return nil, "", fmt.Errorf("impostor %q: create atlas: %w", t.key, err)
	}
	if err := c.capture(t, target); err != nil {
		target.Release()
		return nil, "", err
	}

	if path != "" {
		img, err := target.ReadPixels()
		if err == nil {
			err = texture.SavePNG(path, img)
		}
		if err != nil {
			logger.Warn("failed to write impostor cache file", zap.String("path", path), zap.Error(err))
		}
	}
	return target, "generated", nil
}

// capture renders every (pitch, yaw) cell of t into target. The entity is
// borrowed for the duration and returned to its node with its render
// settings intact on every exit path.
func (c *Cache) capture(t *Texture, target render.RenderTarget) error {
	if c.renderNode == nil {
		return ErrNoRenderNode
	}
	e := t.entity
	queue := c.settings.captureQueue()

	oldNode := e.Node()
	oldQueue, oldVisible, oldDistance := e.RenderQueue, e.Visible, e.RenderDistance
	node := c.renderNode.CreateChild(c.scene.UniqueName("impostor-capture-"), t.center.Neg())
	node.AttachEntity(e)
	e.RenderQueue, e.Visible, e.RenderDistance = queue, true, 0
	defer func() {
		e.RenderQueue, e.Visible, e.RenderDistance = oldQueue, oldVisible, oldDistance
		if oldNode != nil {
			oldNode.AttachEntity(e)
		} else {
			e.Detach()
		}
		c.renderNode.RemoveAndDestroyChild(node)
	}()

	restore := render.Override(c.scene, captureState(queue))
	defer restore()

	objDist := t.radius * 100
	cam := render.Camera{
		FOVy:   math32.Atan(t.Diameter() / objDist),
		Aspect: 1,
		Near:   0.1,
		Far:    objDist + t.radius + 1,
	}
	origin := c.renderNode.WorldPosition()
	pitches, yaws := float32(c.settings.PitchAngles), float32(c.settings.YawAngles)

	for o := 0; o < c.settings.PitchAngles; o++ {
		for i := 0; i < c.settings.YawAngles; i++ {
			pitch := math.DegToRad(c.settings.CapturePitch(o))
			yaw := math.DegToRad(c.settings.CaptureYaw(i))
			cam.Orientation = math.QuatFromAxisAngle(math.UnitY, yaw).
				Mul(math.QuatFromAxisAngle(math.UnitX, -pitch))
			cam.Position = origin.Add(cam.Orientation.Rotate(math.Vec3{Z: objDist}))

			pass := render.Pass{
				Camera: cam,
				Viewport: render.Viewport{
					Left:   float32(i) / yaws,
					Top:    float32(o) / pitches,
					Width:  1 / yaws,
					Height: 1 / pitches,
				},
				Background: c.settings.Background,
				Clear:      true,
				Scheme:     Scheme,
			}
			if err := target.Render(c.scene, pass); err != nil {
				return fmt.Errorf("impostor %q: render cell (%d, %d): %w", t.key, o, i, err)
			}
		}
	}
	return nil
}

// createMaterials clones one material per atlas cell from BaseMaterial.
func (c *Cache) createMaterials(t *Texture) error {
	lib := c.scene.Materials
	t.materials = make([][]string, c.settings.PitchAngles)
	for o := range t.materials {
		t.materials[o] = make([]string, c.settings.YawAngles)
		for i := range t.materials[o] {
			name := c.scene.UniqueName("impostor-material-")
			m, err := lib.Clone(BaseMaterial, name)
			if err != nil {
				c.removeMaterials(t)
				return fmt.Errorf("impostor %q: %w", t.key, err)
			}
			m.DiffuseMap = t.atlas
			m.Scroll = [2]float32{
				float32(i) / float32(c.settings.YawAngles),
				float32(o) / float32(c.settings.PitchAngles),
			}
			m.Lighting = false
			if c.settings.Blend == BlendAlpha {
				m.Blend = scene.BlendAlpha
				m.DepthWrite = false
			} else {
				m.Blend = scene.BlendAlphaReject
				m.AlphaThreshold = 128
			}
			t.materials[o][i] = name
		}
	}
	return nil
}

// updateMaterials points every cell material at the current atlas.
func (c *Cache) updateMaterials(t *Texture) {
	for _, name := range t.Materials() {
		if m, ok := c.scene.Materials.Get(name); ok {
			m.DiffuseMap = t.atlas
		}
	}
}

func (c *Cache) removeMaterials(t *Texture) {
	for _, name := range t.Materials() {
		if name != "" {
			c.scene.Materials.Remove(name)
		}
	}
	t.materials = nil
}

func (c *Cache) releaseAtlas(name string, target render.RenderTarget) {
	switch {
	case target != nil:
		target.Release()
	case name != "":
		c.device.RemoveTexture(name)
	}
}
