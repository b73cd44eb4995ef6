// Package renderer draws scenes with OpenGL and implements render.Device.
package renderer

import (
	"fmt"
	"image"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-foliage/internal/engine/framebuffer"
	"github.com/Faultbox/midgard-foliage/internal/engine/lighting"
	"github.com/Faultbox/midgard-foliage/internal/engine/render"
	"github.com/Faultbox/midgard-foliage/internal/engine/scene"
	"github.com/Faultbox/midgard-foliage/internal/engine/shader"
	"github.com/Faultbox/midgard-foliage/internal/engine/texture"
	"github.com/Faultbox/midgard-foliage/internal/logger"
)

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
}

// Renderer handles all OpenGL rendering.
type Renderer struct {
	config   Config
	caps     render.Capabilities
	textures map[string]uint32
	targets  map[string]*target
	programs map[shader.Options]*shader.Program

	// Sun lights materials with lighting enabled.
	Sun lighting.Sun
}

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	var maxTex int32
	gl.GetIntegerv(gl.MAX_TEXTURE_SIZE, &maxTex)

	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
		zap.Int32("max_texture_size", maxTex),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)

	return &Renderer{
		config:   cfg,
		caps:     render.Capabilities{VertexPrograms: true, MaxTextureSize: int(maxTex)},
		textures: make(map[string]uint32),
		targets:  make(map[string]*target),
		programs: make(map[shader.Options]*shader.Program),
		Sun:      lighting.DefaultSun(),
	}, nil
}

// Capabilities reports the device features.
func (r *Renderer) Capabilities() render.Capabilities {
	return r.caps
}

// Resize updates the window size used by RenderScreen.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
}

// LoadTexture uploads img under name, replacing any texture of that name.
func (r *Renderer) LoadTexture(name string, img image.Image) error {
	if _, ok := r.targets[name]; ok {
		return fmt.Errorf("texture %q is a render target", name)
	}
	rgba := texture.ToRGBA(img)
	w, h := rgba.Rect.Dx(), rgba.Rect.Dy()
	if w == 0 || h == 0 {
		return fmt.Errorf("texture %q is empty", name)
	}
	if w > r.caps.MaxTextureSize || h > r.caps.MaxTextureSize {
		return fmt.Errorf("texture %q is %dx%d, maximum %d", name, w, h, r.caps.MaxTextureSize)
	}
	r.RemoveTexture(name)

	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(w), int32(h), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(rgba.Pix))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	r.textures[name] = id
	logger.Debug("texture loaded", zap.String("name", name), zap.Int("width", w), zap.Int("height", h))
	return nil
}

// RemoveTexture frees an uploaded texture. Unknown names are ignored.
func (r *Renderer) RemoveTexture(name string) {
	id, ok := r.textures[name]
	if !ok {
		return
	}
	if _, isTarget := r.targets[name]; !isTarget {
		gl.DeleteTextures(1, &id)
	}
	delete(r.textures, name)
}

// CreateRenderTarget creates an off-screen target whose colour buffer is
// also bound as texture name.
func (r *Renderer) CreateRenderTarget(name string, width, height int) (render.RenderTarget, error) {
	if _, ok := r.textures[name]; ok {
		return nil, fmt.Errorf("texture %q already exists", name)
	}
	if width > r.caps.MaxTextureSize || height > r.caps.MaxTextureSize {
		return nil, fmt.Errorf("render target %q is %dx%d, maximum %d", name, width, height, r.caps.MaxTextureSize)
	}
	fb, err := framebuffer.New(int32(width), int32(height))
	if err != nil {
		return nil, fmt.Errorf("render target %q: %w", name, err)
	}
	t := &target{r: r, name: name, fb: fb}
	r.targets[name] = t
	r.textures[name] = fb.ColorTexture()
	return t, nil
}

// RenderScreen draws p to the window.
func (r *Renderer) RenderScreen(s *scene.Manager, p render.Pass) {
	vp := p.Viewport.Pixels(r.config.Width, r.config.Height)
	// The window's origin is at the bottom left.
	y := r.config.Height - vp.Max.Y
	gl.Viewport(int32(vp.Min.X), int32(y), int32(vp.Dx()), int32(vp.Dy()))
	gl.Scissor(int32(vp.Min.X), int32(y), int32(vp.Dx()), int32(vp.Dy()))
	gl.FrontFace(gl.CCW)
	r.drawPass(s, p, false)
}

// ReadScreen returns the window's back buffer as bottom-up RGBA rows.
func (r *Renderer) ReadScreen() (pixels []byte, width, height int) {
	width, height = r.config.Width, r.config.Height
	pixels = make([]byte, width*height*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, width, height
}

// Close frees every device resource.
func (r *Renderer) Close() {
	logger.Info("closing renderer")
	for _, t := range r.targets {
		t.Release()
	}
	for name := range r.textures {
		r.RemoveTexture(name)
	}
	for _, p := range r.programs {
		p.Delete()
	}
	r.programs = make(map[shader.Options]*shader.Program)
}

func (r *Renderer) program(o shader.Options) (*shader.Program, error) {
	if p, ok := r.programs[o]; ok {
		return p, nil
	}
	p, err := shader.Compile(o)
	if err != nil {
		return nil, err
	}
	logger.Debug("program compiled", zap.Stringer("options", o))
	r.programs[o] = p
	return p, nil
}
