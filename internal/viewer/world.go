package viewer

import (
	"fmt"

	"github.com/chewxy/math32"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-foliage/internal/assets"
	"github.com/Faultbox/midgard-foliage/internal/config"
	"github.com/Faultbox/midgard-foliage/internal/engine/grass"
	"github.com/Faultbox/midgard-foliage/internal/engine/impostor"
	"github.com/Faultbox/midgard-foliage/internal/engine/propmap"
	"github.com/Faultbox/midgard-foliage/internal/engine/render"
	"github.com/Faultbox/midgard-foliage/internal/engine/scene"
	"github.com/Faultbox/midgard-foliage/internal/engine/terrain"
	"github.com/Faultbox/midgard-foliage/internal/engine/water"
	"github.com/Faultbox/midgard-foliage/internal/logger"
	"github.com/Faultbox/midgard-foliage/pkg/math"
)

// Material and texture names of the demo world.
const (
	TerrainMaterial = "terrain"
	WaterMaterial   = "water"
	terrainCellSize = 2
)

// world holds everything placed in the scene.
type world struct {
	heights   *terrain.Heightfield
	terrain   []*scene.Entity
	templates []*scene.Entity
	water     *water.Plane
	mapPaths  []string
	textures  map[string]bool // asset names the materials sample
}

// resolver maps config paths to files.
type resolver interface {
	Path(name string) (string, bool)
}

// defineMaterials registers the terrain, tree and grass materials. Grass
// materials use "<material>.png" when the assets provide it and the built-in
// blades otherwise.
func defineMaterials(s *scene.Manager, a *assets.Manager, cfg *config.Config, w *world) {
	s.Materials.Define(&scene.Material{Name: TerrainMaterial, DiffuseMap: assets.GroundName, Lighting: true, DepthWrite: true})
	s.Materials.Define(&scene.Material{
		Name:           TreeMaterial,
		DiffuseMap:     assets.TreeAtlasName,
		Blend:          scene.BlendAlphaReject,
		AlphaThreshold: 128,
		DepthWrite:     true,
		CullNone:       true,
		Lighting:       true,
	})
	w.textures[assets.TreeAtlasName] = true
	s.Materials.Define(&scene.Material{Name: WaterMaterial, DiffuseMap: assets.WaterName, Blend: scene.BlendAlpha, Lighting: true})
	w.textures[assets.WaterName] = true

	for _, l := range cfg.Grass.Layers {
		if s.Materials.Has(l.Material) {
			continue
		}
		tex := l.Material + ".png"
		if _, err := a.Image(tex); err != nil {
			tex = assets.GrassBladesName
		}
		s.Materials.Define(&scene.Material{
			Name:           l.Material,
			DiffuseMap:     tex,
			Blend:          scene.BlendAlphaReject,
			AlphaThreshold: 128,
			DepthWrite:     true,
			CullNone:       true,
		})
		w.textures[tex] = true
	}
}

// configureLayers adds one grass layer per config entry. Map paths are
// resolved against r and returned so they can be watched.
func configureLayers(ld *grass.Loader, layers []config.GrassLayerConfig, r resolver) ([]string, error) {
	var paths []string
	var errs error
	for i, lc := range layers {
		l, err := ld.AddLayer(lc.Material)
		if err != nil {
			return paths, fmt.Errorf("grass layer %d: %w", i, err)
		}
		tech, err := grass.ParseTechnique(lc.Technique)
		errs = multierr.Append(errs, err)
		fade, err := grass.ParseFade(lc.Fade)
		errs = multierr.Append(errs, err)
		ch, err := propmap.ParseChannel(lc.DensityChannel)
		errs = multierr.Append(errs, err)
		densityFilter, err := propmap.ParseFilter(lc.DensityFilter)
		errs = multierr.Append(errs, err)
		colorFilter, err := propmap.ParseFilter(lc.ColorFilter)
		errs = multierr.Append(errs, err)
		if errs != nil {
			return paths, fmt.Errorf("grass layer %d: %w", i, errs)
		}

		l.SetDensity(lc.Density)
		l.SetMinimumSize(lc.MinSize[0], lc.MinSize[1])
		l.SetMaximumSize(lc.MaxSize[0], lc.MaxSize[1])
		l.SetHeightRange(lc.HeightRange[0], lc.HeightRange[1])
		if lc.MaxSlope > 0 {
			l.SetMaxSlope(lc.MaxSlope)
		}
		l.SetRenderTechnique(tech, lc.BlendBase)
		l.SetFadeTechnique(fade)
		l.SetAnimationEnabled(lc.Animate)
		l.SetSwayMagnitude(lc.SwayMagnitude)
		l.SetSwaySpeed(lc.SwaySpeed)
		l.SetSwayFrequency(lc.SwayFrequency)
		l.SetLightingEnabled(lc.Lighting)
		l.SetMapBounds(math.Rect{Left: lc.MapBounds[0], Top: lc.MapBounds[1], Right: lc.MapBounds[2], Bottom: lc.MapBounds[3]})
		l.SetDensityMapFilter(densityFilter)
		l.SetColorMapFilter(colorFilter)

		if lc.DensityMap != "" {
			p := resolve(r, lc.DensityMap)
			if err := l.SetDensityMap(p, ch); err != nil {
				return paths, fmt.Errorf("grass layer %d density map: %w", i, err)
			}
			paths = append(paths, p)
		}
		if lc.ColorMap != "" {
			p := resolve(r, lc.ColorMap)
			if err := l.SetColorMap(p); err != nil {
				return paths, fmt.Errorf("grass layer %d colour map: %w", i, err)
			}
			paths = append(paths, p)
		}
	}
	return paths, nil
}

func resolve(r resolver, name string) string {
	if r == nil {
		return name
	}
	if p, ok := r.Path(name); ok {
		return p
	}
	return name
}

// impostorSettings converts the config section.
func impostorSettings(c config.ImpostorConfig, queue uint8) (impostor.Settings, error) {
	st := impostor.DefaultSettings()
	pivot, err := impostor.ParseOrigin(c.Pivot)
	if err != nil {
		return st, err
	}
	blend, err := impostor.ParseBlend(c.Blend)
	if err != nil {
		return st, err
	}
	st.Resolution = c.Resolution
	st.PitchAngles = c.PitchAngles
	st.YawAngles = c.YawAngles
	st.Background = c.Background
	st.Pivot = pivot
	st.Blend = blend
	st.RenderAboveOnly = c.RenderAboveOnly
	st.RenderQueue = queue
	st.CacheDir = c.CacheDir
	st.ForceRegenerate = c.ForceRegenerate
	return st, nil
}

// buildTerrain generates the heightfield and its meshes.
func buildTerrain(s *scene.Manager, cfg *config.Config, w *world) error {
	cells := max(int(cfg.Paging.WorldSize/terrainCellSize), 2)
	w.heights = terrain.Generate(cells, cells, terrainCellSize, cfg.Paging.WorldSize/40, cfg.Grass.Seed)
	w.textures[assets.GroundName] = true

	meshes, err := terrain.BuildMeshes(s, w.heights, TerrainMaterial, 8)
	if err != nil {
		return fmt.Errorf("building terrain: %w", err)
	}
	node := s.Root().CreateChild("terrain", math.Vec3{})
	for _, m := range meshes {
		e, err := s.CreateEntity(m.Name, m)
		if err != nil {
			return err
		}
		e.VisibilityFlags = scene.VisibilityTerrain
		node.AttachEntity(e)
		w.terrain = append(w.terrain, e)
	}
	logger.Info("terrain built",
		zap.Int("cells", cells),
		zap.Int("chunks", len(meshes)))
	return nil
}

// buildWater floods terrain below the configured level.
func buildWater(s *scene.Manager, cfg *config.Config, w *world) error {
	if !cfg.Paging.Water {
		return nil
	}
	p, err := water.BuildPlane(s, "water", WaterMaterial, w.heights.Bounds(), cfg.Paging.WaterLevel, water.DefaultPadding, 16)
	if err != nil {
		return fmt.Errorf("building water: %w", err)
	}
	s.Root().CreateChild("water", math.Vec3{}).AttachEntity(p.Entity)
	w.water = p
	return nil
}

// dryGround wraps a slope function so flooded spots count as too steep.
func dryGround(w *world, slope func(x, z float32) float32) func(x, z float32) float32 {
	if w.water == nil {
		return slope
	}
	return func(x, z float32) float32 {
		if w.heights.HeightAt(x, z) < w.water.Level+0.5 {
			return math32.Inf(1)
		}
		return slope(x, z)
	}
}

// buildTreeTemplates registers one unattached entity per tree kind.
func buildTreeTemplates(s *scene.Manager, w *world) error {
	for _, spec := range DefaultTrees {
		mesh, err := BuildTreeMesh(s, spec)
		if err != nil {
			return err
		}
		e, err := s.CreateEntity(spec.Name, mesh)
		if err != nil {
			return err
		}
		w.templates = append(w.templates, e)
	}
	return nil
}

// uploadTextures sends every texture the materials use to the device.
func uploadTextures(dev render.Device, a *assets.Manager, w *world) error {
	for name := range w.textures {
		img, err := a.Image(name)
		if err != nil {
			return fmt.Errorf("texture %s: %w", name, err)
		}
		if err := dev.LoadTexture(name, img); err != nil {
			return err
		}
	}
	return nil
}
