package impostor

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-foliage/internal/engine/scene"
	"github.com/Faultbox/midgard-foliage/pkg/math"
)

// Batch draws every instance of one entity shape on a page with one shared
// atlas.
type Batch struct {
	cache    *Cache
	handle   Handle
	tex      *Texture
	set      *BillboardSet
	settings Settings

	// anchor is the billboard anchor in entity space.
	anchor   math.Vec3
	pitchIdx int
	yawIdx   int
}

func newBatch(c *Cache, s *scene.Manager, parent *scene.Node, e *scene.Entity) (*Batch, error) {
	h, tex, err := c.Acquire(e)
	if err != nil {
		return nil, err
	}
	st := c.Settings()
	b := &Batch{
		cache:    c,
		handle:   h,
		tex:      tex,
		settings: st,
		set:      newBillboardSet(s, parent, st.PitchAngles, st.YawAngles, st.Pivot, st.RenderQueue),
		anchor:   tex.Center(),
		pitchIdx: -1,
		yawIdx:   -1,
	}
	if st.Pivot == OriginBottomCenter {
		b.anchor.Y -= tex.Radius()
	}
	b.SetAngle(0, 0)
	return b, nil
}

// Texture returns the shared atlas.
func (b *Batch) Texture() *Texture {
	return b.tex
}

// Billboards returns the underlying billboard set.
func (b *Batch) Billboards() *BillboardSet {
	return b.set
}

// Angles returns the selected pitch row and yaw column.
func (b *Batch) Angles() (pitch, yaw int) {
	return b.pitchIdx, b.yawIdx
}

// AddBillboard adds one instance. Its yaw picks the atlas column so the
// billboard shows the side facing the viewer.
func (b *Batch) AddBillboard(pos math.Vec3, rot math.Quat, scale math.Vec3, color uint32) {
	z := rot.Rotate(math.UnitZ)
	deg := math.RadToDeg(math32.Atan2(z.X, z.Z))
	if deg < 0 {
		deg += 360
	}
	yaws := b.settings.YawAngles
	n := int(float32(yaws)*(deg/360) + 0.5)
	slice := (yaws - n) % yaws

	p := pos.Add(rot.Rotate(b.anchor).Mul(scale))
	d := b.tex.Diameter()
	b.set.Add(p, d*0.5*(scale.X+scale.Z), d*scale.Y, color, slice)
}

// SetAngle selects the atlas cell for a viewer at pitchDeg above and yawDeg
// around the batch. The material is only rebound when the cell changes.
func (b *Batch) SetAngle(pitchDeg, yawDeg float32) {
	p := b.settings.PitchIndex(pitchDeg)
	y := b.settings.YawIndex(yawDeg)
	if p == b.pitchIdx && y == b.yawIdx {
		return
	}
	b.pitchIdx, b.yawIdx = p, y
	b.set.SetMaterial(b.tex.Material(p, y))
}

// Build rebuilds the billboard geometry.
func (b *Batch) Build() error {
	return b.set.Build()
}

// Clear removes all billboards.
func (b *Batch) Clear() {
	b.set.Clear()
}

// SetVisible shows or hides the batch.
func (b *Batch) SetVisible(v bool) {
	b.set.SetVisible(v)
}

// SetFade configures distance fading.
func (b *Batch) SetFade(enabled bool, visibleDist, invisibleDist float32) {
	b.set.SetFade(enabled, visibleDist, invisibleDist)
}

// Close removes the billboards and releases the atlas.
func (b *Batch) Close() {
	b.set.Close()
	b.cache.Release(b.handle)
}
