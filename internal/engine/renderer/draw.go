package renderer

import (
	"cmp"
	"slices"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-foliage/internal/engine/render"
	"github.com/Faultbox/midgard-foliage/internal/engine/scene"
	"github.com/Faultbox/midgard-foliage/internal/engine/shader"
	"github.com/Faultbox/midgard-foliage/internal/logger"
	"github.com/Faultbox/midgard-foliage/pkg/math"
)

// vec4Params lists shared parameters uploaded as vec4; the rest are floats.
var vec4Params = map[string]bool{"grassDirection": true}

type drawItem struct {
	entity   *scene.Entity
	world    math.Mat4
	material *scene.Material
	blended  bool
	distance float32
}

// collect gathers the entities p draws, opaque first by queue and blended
// ones back to front.
func collect(s *scene.Manager, cam render.Camera) []drawItem {
	var items []drawItem
	s.Root().Walk(func(e *scene.Entity, world math.Mat4) {
		if !e.Visible || e.Mesh == nil || !s.State.QueueVisible(e.RenderQueue) {
			return
		}
		d := world.TransformVec3(e.Mesh.Bounds.Center()).Distance(cam.Position)
		if e.RenderDistance > 0 && d > e.RenderDistance {
			return
		}
		m, _ := s.Materials.Get(e.MaterialName())
		items = append(items, drawItem{
			entity:   e,
			world:    world,
			material: m,
			blended:  (m != nil && m.Blend == scene.BlendAlpha) || e.FadeStart > 0,
			distance: d,
		})
	})
	slices.SortStableFunc(items, func(a, b drawItem) int {
		if c := cmp.Compare(a.entity.RenderQueue, b.entity.RenderQueue); c != 0 {
			return c
		}
		if a.blended != b.blended {
			if a.blended {
				return 1
			}
			return -1
		}
		if a.blended {
			return cmp.Compare(b.distance, a.distance)
		}
		return 0
	})
	return items
}

// drawPass clears and draws one pass into the bound framebuffer and
// viewport. flip mirrors the projection vertically for render targets.
func (r *Renderer) drawPass(s *scene.Manager, p render.Pass, flip bool) {
	gl.Enable(gl.SCISSOR_TEST)
	defer gl.Disable(gl.SCISSOR_TEST)

	if p.Clear {
		bg := p.Background
		gl.ClearColor(bg[0], bg[1], bg[2], bg[3])
		gl.DepthMask(true)
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	}

	cam := p.Camera
	proj := cam.Projection()
	if flip {
		proj[1], proj[5], proj[9], proj[13] = -proj[1], -proj[5], -proj[9], -proj[13]
	}
	viewProj := proj.Mul(cam.View())

	for _, it := range collect(s, cam) {
		r.draw(s, p, &viewProj, it)
	}

	gl.BindVertexArray(0)
	gl.DepthMask(true)
	gl.Disable(gl.BLEND)
}

func (r *Renderer) draw(s *scene.Manager, p render.Pass, viewProj *math.Mat4, it drawItem) {
	e, m := it.entity, it.material
	opts := shader.ForMaterial(m, e.Mesh.Layout)
	if p.Scheme != "" {
		// Specialized stages only apply to the default scheme.
		opts = shader.Options{Billboard: opts.Billboard, Normals: opts.Normals, Lighting: opts.Lighting}
	}
	prog, err := r.program(opts)
	if err != nil {
		logger.Error("program unavailable", zap.String("entity", e.Name), zap.Error(err))
		return
	}
	g := upload(e.Mesh)
	if g.vao == 0 {
		return
	}

	prog.Use()
	cam := p.Camera
	right, up := cam.Right(), cam.Up()
	prog.SetMat4("uModel", it.world.Ptr())
	prog.SetMat4("uViewProj", viewProj.Ptr())
	prog.SetVec3("uCameraPos", cam.Position.X, cam.Position.Y, cam.Position.Z)
	prog.SetVec3("uCameraRight", right.X, right.Y, right.Z)
	prog.SetVec3("uCameraUp", up.X, up.Y, up.Z)
	sun := r.Sun.Direction()
	prog.SetVec3("uSunDir", sun.X, sun.Y, sun.Z)
	prog.SetVec3("uSunColor", r.Sun.Color.X, r.Sun.Color.Y, r.Sun.Color.Z)
	prog.SetVec3("uAmbient", r.Sun.Ambient.X, r.Sun.Ambient.Y, r.Sun.Ambient.Z)

	if e.FadeStart > 0 && e.RenderDistance > e.FadeStart {
		prog.SetVec2("uEntityFade", e.FadeStart, e.RenderDistance)
	} else {
		prog.SetVec2("uEntityFade", 0, 0)
	}

	r.applyFog(prog, s.State.Fog)
	r.applyMaterial(s, prog, m)

	gl.BindVertexArray(g.vao)
	if _, ok := e.Mesh.Layout.Element(scene.SemanticColor); !ok {
		gl.VertexAttrib4f(locColor, 1, 1, 1, 1)
	}
	gl.DrawElements(gl.TRIANGLES, g.indexCount, gl.UNSIGNED_SHORT, nil)
}

func (r *Renderer) applyMaterial(s *scene.Manager, prog *shader.Program, m *scene.Material) {
	prog.SetFloat("grassFadeRange", 0)
	if m == nil {
		prog.SetVec2("uScroll", 0, 0)
		prog.SetInt("uHasTexture", 0)
		prog.SetFloat("uAlphaThreshold", 0)
		gl.Disable(gl.BLEND)
		gl.DepthMask(true)
		gl.Enable(gl.CULL_FACE)
		return
	}

	for _, name := range m.Params {
		v, ok := s.Materials.Shared(name)
		if !ok {
			continue
		}
		if vec4Params[name] {
			prog.SetVec4(name, v)
		} else {
			prog.SetFloat(name, v[0])
		}
	}
	prog.SetVec2("uScroll", m.Scroll[0], m.Scroll[1])

	tex, ok := r.textures[m.DiffuseMap]
	if ok {
		gl.ActiveTexture(gl.TEXTURE0)
		gl.BindTexture(gl.TEXTURE_2D, tex)
		applyFiltering(s.State.Filtering)
		prog.SetInt("uTexture", 0)
		prog.SetInt("uHasTexture", 1)
	} else {
		prog.SetInt("uHasTexture", 0)
	}

	switch m.Blend {
	case scene.BlendAlpha:
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
		prog.SetFloat("uAlphaThreshold", 0)
	case scene.BlendAlphaReject:
		gl.Disable(gl.BLEND)
		prog.SetFloat("uAlphaThreshold", float32(m.AlphaThreshold)/255)
	default:
		gl.Disable(gl.BLEND)
		prog.SetFloat("uAlphaThreshold", 0)
	}
	gl.DepthMask(m.Blend != scene.BlendAlpha || m.DepthWrite)
	if m.CullNone {
		gl.Disable(gl.CULL_FACE)
	} else {
		gl.Enable(gl.CULL_FACE)
	}
}

func (r *Renderer) applyFog(prog *shader.Program, f scene.Fog) {
	prog.SetInt("uFogMode", int32(f.Mode))
	prog.SetVec3("uFogColor", f.Color[0], f.Color[1], f.Color[2])
	prog.SetFloat("uFogDensity", f.Density)
	prog.SetFloat("uFogStart", f.Start)
	prog.SetFloat("uFogEnd", f.End)
}

// applyFiltering sets the sampling of the bound texture.
func applyFiltering(f scene.Filtering) {
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, int32(magFilter(f.Mag)))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, int32(minFilter(f.Min, f.Mip)))
}

func magFilter(f scene.TextureFilter) uint32 {
	if f == scene.FilterNone || f == scene.FilterPoint {
		return gl.NEAREST
	}
	return gl.LINEAR
}

func minFilter(mn, mip scene.TextureFilter) uint32 {
	linear := mn == scene.FilterLinear || mn == scene.FilterAnisotropic
	switch {
	case mip == scene.FilterNone && linear:
		return gl.LINEAR
	case mip == scene.FilterNone:
		return gl.NEAREST
	case linear && mip != scene.FilterPoint:
		return gl.LINEAR_MIPMAP_LINEAR
	case linear:
		return gl.LINEAR_MIPMAP_NEAREST
	case mip == scene.FilterPoint:
		return gl.NEAREST_MIPMAP_NEAREST
	default:
		return gl.NEAREST_MIPMAP_LINEAR
	}
}
