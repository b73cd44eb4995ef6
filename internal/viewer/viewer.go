// Package viewer runs the foliage demo: a generated terrain covered in paged
// grass and trees that turn into impostors with distance.
package viewer

import (
	"fmt"
	"time"

	"github.com/chewxy/math32"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-foliage/internal/assets"
	"github.com/Faultbox/midgard-foliage/internal/config"
	"github.com/Faultbox/midgard-foliage/internal/engine/assetwatch"
	"github.com/Faultbox/midgard-foliage/internal/engine/camera"
	"github.com/Faultbox/midgard-foliage/internal/engine/grass"
	"github.com/Faultbox/midgard-foliage/internal/engine/impostor"
	"github.com/Faultbox/midgard-foliage/internal/engine/input"
	"github.com/Faultbox/midgard-foliage/internal/engine/lighting"
	"github.com/Faultbox/midgard-foliage/internal/engine/paging"
	"github.com/Faultbox/midgard-foliage/internal/engine/picking"
	"github.com/Faultbox/midgard-foliage/internal/engine/random"
	"github.com/Faultbox/midgard-foliage/internal/engine/render"
	"github.com/Faultbox/midgard-foliage/internal/engine/renderer"
	"github.com/Faultbox/midgard-foliage/internal/engine/scene"
	"github.com/Faultbox/midgard-foliage/internal/engine/screenshot"
	"github.com/Faultbox/midgard-foliage/internal/engine/window"
	"github.com/Faultbox/midgard-foliage/internal/logger"
	"github.com/Faultbox/midgard-foliage/pkg/math"
)

// Detail level names.
const (
	LevelGrass     = "grass"
	LevelTrees     = "trees"
	LevelImpostors = "impostors"
)

// Options holds settings that do not live in the config file.
type Options struct {
	// AssetDirs are searched for textures and maps, last first.
	AssetDirs []string
	// BakeOnly bakes every impostor atlas and skips the interactive loop.
	BakeOnly bool
}

// Viewer is the main viewer instance.
type Viewer struct {
	config  *config.Config
	opts    Options
	running bool

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	binder   *input.Binder
	camera   *camera.OrbitCamera
	assets   *assets.Manager
	watcher  *assetwatch.Watcher
	shots    *screenshot.Saver

	scene *scene.Manager
	world *world
	grass *grass.Loader
	trees *paging.TreeLoader
	cache *impostor.Cache
	pages *paging.Manager

	grassDensity float32
	background   [4]float32
}

// New creates the window, renderer and world.
func New(cfg *config.Config, opts Options) (*Viewer, error) {
	logger.Info("initializing viewer",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
		zap.Bool("bake_only", opts.BakeOnly),
	)

	v := &Viewer{
		config:       cfg,
		opts:         opts,
		scene:        scene.NewManager(),
		assets:       assets.NewManager(opts.AssetDirs...),
		camera:       camera.NewOrbitCamera(),
		input:        input.New(),
		shots:        screenshot.NewSaver(cfg.Graphics.ScreenshotDir, "foliage"),
		grassDensity: 1,
		background:   [4]float32{0.55, 0.7, 0.9, 1},
	}

	var err error
	v.window, err = window.New(window.Config{
		Title:      "Midgard Foliage",
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen && !opts.BakeOnly,
		VSync:      cfg.Graphics.VSync,
		Hidden:     opts.BakeOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// The renderer needs the OpenGL context the window created.
	w, h := v.window.Size()
	v.renderer, err = renderer.New(renderer.Config{Width: w, Height: h})
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	sun := lighting.DefaultSun()
	sun.Longitude = cfg.Graphics.SunLongitude
	sun.Latitude = cfg.Graphics.SunLatitude
	v.renderer.Sun = sun

	if err := v.buildWorld(); err != nil {
		v.Close()
		return nil, err
	}

	logger.Info("viewer initialized successfully")
	return v, nil
}

func (v *Viewer) buildWorld() error {
	cfg := v.config
	v.world = &world{textures: make(map[string]bool)}
	v.scene.State.Fog = scene.Fog{
		Mode:  scene.FogLinear,
		Color: [3]float32{v.background[0], v.background[1], v.background[2]},
		Start: cfg.Paging.FarRange * 0.6,
		End:   cfg.Paging.FarRange * 1.1,
	}

	defineMaterials(v.scene, v.assets, cfg, v.world)
	if err := buildTerrain(v.scene, cfg, v.world); err != nil {
		return err
	}
	if err := buildWater(v.scene, cfg, v.world); err != nil {
		return err
	}
	if err := buildTreeTemplates(v.scene, v.world); err != nil {
		return err
	}
	if err := uploadTextures(v.renderer, v.assets, v.world); err != nil {
		return err
	}

	heights := v.world.heights
	v.grass = grass.NewLoader(v.scene, heights,
		grass.WithRandomTable(random.New(random.DefaultSize, cfg.Grass.Seed)),
		grass.WithRenderQueue(cfg.Paging.RenderQueue),
		grass.WithDensityFactor(cfg.Grass.DensityFactor),
		grass.WithWind(math.Vec3{X: cfg.Grass.Wind[0], Y: cfg.Grass.Wind[1], Z: cfg.Grass.Wind[2]}),
		grass.WithShaders(v.renderer.Capabilities(), cfg.Paging.ShadersEnabled, cfg.Paging.GrassRange),
	)
	paths, err := configureLayers(v.grass, cfg.Grass.Layers, v.assets)
	if err != nil {
		return err
	}
	v.world.mapPaths = paths

	st, err := impostorSettings(cfg.Impostor, cfg.Paging.RenderQueue)
	if err != nil {
		return err
	}
	v.cache = impostor.NewCache(v.scene, v.renderer, st)

	bounds := heights.Bounds()
	v.trees = paging.NewTreeLoader(heights.HeightAt)
	pageArea := cfg.Paging.PageSize * cfg.Paging.PageSize
	count := int(bounds.Area() / pageArea * float32(cfg.Impostor.Trees))
	for _, p := range ScatterTrees(v.world.templates, bounds, count, cfg.Grass.Seed+1, dryGround(v.world, slopeAt(heights.HeightAt)), 0.6) {
		v.trees.AddTree(p.Entity, p.X, p.Z, p.Yaw, p.Scale)
	}

	v.pages = paging.NewManager(v.scene, cfg.Paging.PageSize, v.cache)
	v.pages.SetBounds(bounds)
	if err := v.addDetailLevels(); err != nil {
		return err
	}

	v.camera.FitToBounds(bounds)
	v.camera.Follow(heights.HeightAt)
	v.binder = loadBinder(cfg.Input.BindingsFile)
	return v.watchAssets()
}

func (v *Viewer) addDetailLevels() error {
	cfg := v.config.Paging
	s := v.scene
	levels := []paging.DetailLevel{
		{
			Name:    LevelGrass,
			Loader:  v.grass,
			NewPage: func() paging.Page { return paging.NewGrassPage(s) },
			Far:     cfg.GrassRange,
		},
		{
			Name:       LevelTrees,
			Loader:     v.trees,
			NewPage:    func() paging.Page { return paging.NewInstancePage(s) },
			Far:        cfg.TreeRange,
			FadeLength: cfg.PageSize * 0.5,
		},
		{
			Name:    LevelImpostors,
			Loader:  v.trees,
			NewPage: func() paging.Page { return impostor.NewPage(s, v.cache, cfg.PageSize) },
			Near:    cfg.TreeRange,
			Far:     cfg.FarRange,
		},
	}
	var errs error
	for _, l := range levels {
		errs = multierr.Append(errs, v.pages.AddDetailLevel(l))
	}
	return errs
}

func (v *Viewer) watchAssets() error {
	w, err := assetwatch.New()
	if err != nil {
		logger.Warn("asset watching disabled", zap.Error(err))
		return nil
	}
	v.watcher = w
	for _, p := range v.world.mapPaths {
		if err := w.Add(p); err != nil {
			logger.Warn("cannot watch map", zap.String("path", p), zap.Error(err))
		}
	}
	for name := range v.world.textures {
		if p, ok := v.assets.Path(name); ok {
			if err := w.Add(p); err != nil {
				logger.Warn("cannot watch texture", zap.String("path", p), zap.Error(err))
			}
		}
	}
	return nil
}

// slopeAt estimates the terrain gradient from central differences.
func slopeAt(height func(x, z float32) float32) func(x, z float32) float32 {
	const d = 1
	return func(x, z float32) float32 {
		dx := (height(x+d, z) - height(x-d, z)) / (2 * d)
		dz := (height(x, z+d) - height(x, z-d)) / (2 * d)
		return math32.Sqrt(dx*dx + dz*dz)
	}
}

// Bake renders every tree atlas, writing them to the cache directory when
// one is configured.
func (v *Viewer) Bake() error {
	var errs error
	for _, e := range v.world.templates {
		start := time.Now()
		h, t, err := v.cache.Acquire(e)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("baking %s: %w", e.Name, err))
			continue
		}
		logger.Info("impostor baked",
			zap.String("key", t.Key()),
			zap.Stringer("state", t.State()),
			zap.Duration("took", time.Since(start)))
		v.cache.Release(h)
	}
	return errs
}

// Run starts the main loop.
func (v *Viewer) Run() error {
	v.running = true
	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	logger.Info("starting viewer loop")

	for v.running {
		now := time.Now()
		dt := float32(now.Sub(lastTime).Seconds())
		lastTime = now

		if v.input.Update() {
			v.running = false
			break
		}
		v.handleEvents()

		if err := v.update(dt); err != nil {
			return fmt.Errorf("update error: %w", err)
		}
		v.render()
		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			logger.Debug("fps",
				zap.Int("count", frameCount),
				zap.Int("entities", v.scene.EntityCount()),
				zap.Int("meshes", v.scene.MeshCount()))
			v.window.SetTitle(fmt.Sprintf("Midgard Foliage - %d fps", frameCount))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}
	return nil
}

func (v *Viewer) handleEvents() {
	for _, event := range v.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			v.renderer.Resize(v.window.Size())
		case input.EventKeyDown:
			v.handleKey(event)
		case input.EventMouseMove:
			if event.ButtonHeld(sdl.BUTTON_LEFT) {
				v.camera.HandleDrag(float32(event.RelX), float32(event.RelY))
			}
		case input.EventMouseWheel:
			v.camera.HandleZoom(event.WheelY)
		case input.EventMouseDown:
			if event.Button == sdl.BUTTON_RIGHT {
				v.focusAt(float32(event.MouseX), float32(event.MouseY))
			}
		}
	}
	v.input.Dispatch(v.binder)
}

// focusAt moves the orbit center to the ground under a window pixel.
func (v *Viewer) focusAt(x, y float32) {
	w, h := v.window.Size()
	ray := picking.ScreenRay(v.camera.Camera(v.window.Aspect()), x, y, float32(w), float32(h))
	p, ok := ray.IntersectHeight(v.world.heights.HeightAt, v.config.Paging.FarRange, terrainCellSize)
	if !ok {
		return
	}
	v.camera.Center = p
	logger.Debug("camera focused", zap.Float32("x", p.X), zap.Float32("z", p.Z))
}

func (v *Viewer) handleKey(e input.Event) {
	if e.Repeat || v.binder.Detecting() {
		return
	}
	switch e.Key {
	case sdl.K_ESCAPE:
		v.running = false
	case sdl.K_F5:
		v.regenerateImpostors()
	case sdl.K_F6:
		v.pages.Reload("")
	case sdl.K_F12:
		v.screenshot()
	case sdl.K_F8:
		if err := v.binder.SaveFile(v.config.Input.BindingsFile); err != nil {
			logger.Warn("failed to save key bindings", zap.Error(err))
		}
	}
}

func (v *Viewer) screenshot() {
	v.render()
	path, err := v.shots.SavePixels(v.renderer.ReadScreen())
	if err != nil {
		logger.Warn("screenshot failed", zap.Error(err))
		return
	}
	logger.Info("screenshot saved", zap.String("path", path))
}

func (v *Viewer) regenerateImpostors() {
	if err := v.cache.RegenerateAll(); err != nil {
		for _, e := range multierr.Errors(err) {
			logger.Error("impostor regeneration failed", zap.Error(e))
		}
		return
	}
	logger.Info("impostors regenerated", zap.Int("textures", v.cache.Len()))
}

func (v *Viewer) update(dt float32) error {
	v.binder.Update(dt)
	v.camera.HandleMovement(axis(v.binder, ControlForward), axis(v.binder, ControlStrafe), dt)
	v.camera.RotationY += axis(v.binder, ControlTurn) * dt
	v.camera.HandleDrag(0, axis(v.binder, ControlPitch)*dt/v.camera.DragSensitivity)
	v.camera.HandleZoom(axis(v.binder, ControlZoom) * dt * 5)
	v.camera.Follow(v.world.heights.HeightAt)

	v.applyGrassDensity()
	v.reloadChangedAssets()

	if v.world.water != nil {
		v.world.water.Animate(v.scene, dt)
	}
	v.grass.FrameUpdate(dt)
	if err := v.pages.Update(v.camera.Camera(v.window.Aspect())); err != nil {
		// Pages that failed keep whatever they loaded.
		for _, e := range multierr.Errors(err) {
			logger.Warn("page load failed", zap.Error(e))
		}
	}
	return nil
}

// applyGrassDensity reloads grass when the density control moved by a
// tenth or more.
func (v *Viewer) applyGrassDensity() {
	d := math32.Round(level(v.binder, ControlGrass, 1)*10) / 10
	if d == v.grassDensity {
		return
	}
	v.grassDensity = d
	v.grass.SetDensityFactor(v.config.Grass.DensityFactor * d)
	v.pages.Reload(LevelGrass)
	logger.Debug("grass density changed", zap.Float32("factor", d))
}

// reloadChangedAssets picks up edited maps and textures.
func (v *Viewer) reloadChangedAssets() {
	if v.watcher == nil {
		return
	}
	for _, path := range v.watcher.Poll() {
		used, err := v.grass.Maps().Reload(path)
		if err != nil {
			logger.Warn("map reload failed", zap.String("path", path), zap.Error(err))
			continue
		}
		if used {
			logger.Info("map reloaded", zap.String("path", path))
			v.pages.Reload(LevelGrass)
			continue
		}
		v.reloadTexture(path)
	}
}

func (v *Viewer) reloadTexture(path string) {
	for name := range v.world.textures {
		if p, ok := v.assets.Path(name); !ok || p != path {
			continue
		}
		v.assets.Invalidate(name)
		img, err := v.assets.Image(name)
		if err == nil {
			err = v.renderer.LoadTexture(name, img)
		}
		if err != nil {
			logger.Warn("texture reload failed", zap.String("name", name), zap.Error(err))
			continue
		}
		logger.Info("texture reloaded", zap.String("name", name))
	}
}

func (v *Viewer) render() {
	v.renderer.RenderScreen(v.scene, render.Pass{
		Camera:     v.camera.Camera(v.window.Aspect()),
		Viewport:   render.FullViewport,
		Background: v.background,
		Clear:      true,
		Overlays:   true,
		Shadows:    true,
	})
}

// Close cleans up viewer resources.
func (v *Viewer) Close() {
	logger.Info("closing viewer")

	if v.watcher != nil {
		v.watcher.Close()
	}
	if v.pages != nil {
		v.pages.Close()
	} else if v.cache != nil {
		v.cache.Close()
	}
	if v.grass != nil {
		v.grass.Close()
	}
	v.scene.Clear()
	v.assets.Close()
	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}
