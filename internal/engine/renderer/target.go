package renderer

import (
	"errors"
	"image"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/midgard-foliage/internal/engine/framebuffer"
	"github.com/Faultbox/midgard-foliage/internal/engine/render"
	"github.com/Faultbox/midgard-foliage/internal/engine/scene"
)

var errReleased = errors.New("render target released")

// target renders with a vertically flipped projection so that its first row
// holds the top of the view, matching textures uploaded from images.
type target struct {
	r    *Renderer
	name string
	fb   *framebuffer.Framebuffer
}

func (t *target) Name() string {
	return t.name
}

func (t *target) Size() (width, height int) {
	if t.fb == nil {
		return 0, 0
	}
	w, h := t.fb.Size()
	return int(w), int(h)
}

func (t *target) Render(s *scene.Manager, p render.Pass) error {
	if t.fb == nil {
		return errReleased
	}
	restore := t.fb.Bind()
	defer restore()

	w, h := t.Size()
	vp := p.Viewport.Pixels(w, h)
	gl.Viewport(int32(vp.Min.X), int32(vp.Min.Y), int32(vp.Dx()), int32(vp.Dy()))
	gl.Scissor(int32(vp.Min.X), int32(vp.Min.Y), int32(vp.Dx()), int32(vp.Dy()))
	gl.FrontFace(gl.CW)
	defer gl.FrontFace(gl.CCW)

	t.r.drawPass(s, p, true)

	gl.BindTexture(gl.TEXTURE_2D, t.fb.ColorTexture())
	gl.GenerateMipmap(gl.TEXTURE_2D)
	return nil
}

func (t *target) ReadPixels() (*image.RGBA, error) {
	if t.fb == nil {
		return nil, errReleased
	}
	return t.fb.ReadImage(), nil
}

func (t *target) Release() {
	if t.fb == nil {
		return
	}
	t.fb.Destroy()
	t.fb = nil
	delete(t.r.targets, t.name)
	delete(t.r.textures, t.name)
}
