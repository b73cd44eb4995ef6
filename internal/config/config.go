// Package config handles foliage viewer configuration loading and management.
package config

// Config holds all settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Paging   PagingConfig   `yaml:"paging"`
	Grass    GrassConfig    `yaml:"grass"`
	Impostor ImpostorConfig `yaml:"impostor"`
	Input    InputConfig    `yaml:"input"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width         int     `yaml:"width"`
	Height        int     `yaml:"height"`
	Fullscreen    bool    `yaml:"fullscreen"`
	VSync         bool    `yaml:"vsync"`
	SunLongitude  float32 `yaml:"sun_longitude"` // Degrees around Y
	SunLatitude   float32 `yaml:"sun_latitude"`  // Degrees above the horizon
	ScreenshotDir string  `yaml:"screenshot_dir"`
}

// PagingConfig controls the page grid foliage is generated on.
type PagingConfig struct {
	PageSize       float32 `yaml:"page_size"`       // Page edge length in world units
	FarRange       float32 `yaml:"far_range"`       // Pages farther than this are unloaded
	GrassRange     float32 `yaml:"grass_range"`     // Grass is shown up to this distance
	TreeRange      float32 `yaml:"tree_range"`      // Trees switch to impostors beyond this
	RenderQueue    uint8   `yaml:"render_queue"`    // Queue generated entities are drawn in
	ShadersEnabled bool    `yaml:"shaders_enabled"` // Allow grass material specialization
	WorldSize      float32 `yaml:"world_size"`      // Edge length of the demo terrain
	Water          bool    `yaml:"water"`           // Flood terrain below water_level
	WaterLevel     float32 `yaml:"water_level"`
}

// GrassConfig holds loader-wide grass settings and the layer list.
type GrassConfig struct {
	DensityFactor float32            `yaml:"density_factor"`
	Seed          uint64             `yaml:"seed"`
	Wind          [3]float32         `yaml:"wind"`
	Layers        []GrassLayerConfig `yaml:"layers"`
}

// GrassLayerConfig describes one grass layer.
type GrassLayerConfig struct {
	Material       string     `yaml:"material"`
	Density        float32    `yaml:"density"`
	MinSize        [2]float32 `yaml:"min_size"`     // width, height
	MaxSize        [2]float32 `yaml:"max_size"`     // width, height
	HeightRange    [2]float32 `yaml:"height_range"` // min, max; zero means unbounded
	MaxSlope       float32    `yaml:"max_slope"`
	Technique      string     `yaml:"technique"` // quad, crossquads, sprite
	BlendBase      bool       `yaml:"blend_base"`
	Fade           string     `yaml:"fade"` // alpha, grow
	Animate        bool       `yaml:"animate"`
	SwayMagnitude  float32    `yaml:"sway_magnitude"`
	SwaySpeed      float32    `yaml:"sway_speed"`
	SwayFrequency  float32    `yaml:"sway_frequency"`
	Lighting       bool       `yaml:"lighting"`
	MapBounds      [4]float32 `yaml:"map_bounds"` // left, top, right, bottom
	DensityMap     string     `yaml:"density_map"`
	DensityChannel string     `yaml:"density_channel"` // red, green, blue, alpha
	DensityFilter  string     `yaml:"density_filter"`  // none, bilinear
	ColorMap       string     `yaml:"color_map"`
	ColorFilter    string     `yaml:"color_filter"`
}

// ImpostorConfig holds impostor atlas settings.
type ImpostorConfig struct {
	Resolution      int        `yaml:"resolution"` // Pixels per atlas cell
	PitchAngles     int        `yaml:"pitch_angles"`
	YawAngles       int        `yaml:"yaw_angles"`
	Background      [4]float32 `yaml:"background"`
	Pivot           string     `yaml:"pivot"` // center, bottom_center
	Blend           string     `yaml:"blend"` // alpha_reject, alpha_blend
	CacheDir        string     `yaml:"cache_dir"`
	RenderAboveOnly bool       `yaml:"render_above_only"`
	ForceRegenerate bool       `yaml:"force_regenerate"`
	Trees           int        `yaml:"trees"` // Demo trees per page
}

// InputConfig holds key binding settings.
type InputConfig struct {
	BindingsFile string `yaml:"bindings_file"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:         1280,
			Height:        720,
			VSync:         true,
			SunLongitude:  45,
			SunLatitude:   55,
			ScreenshotDir: "screenshots",
		},
		Paging: PagingConfig{
			PageSize:       50,
			FarRange:       200,
			GrassRange:     80,
			TreeRange:      60,
			RenderQueue:    50,
			ShadersEnabled: true,
			WorldSize:      1000,
			Water:          true,
			WaterLevel:     -12,
		},
		Grass: GrassConfig{
			DensityFactor: 1,
			Seed:          5489,
			Wind:          [3]float32{1, 0, 0},
			Layers: []GrassLayerConfig{
				{
					Material:      "grass",
					Density:       0.6,
					MinSize:       [2]float32{0.8, 0.6},
					MaxSize:       [2]float32{1.4, 1.2},
					HeightRange:   [2]float32{-11.5, 0},
					MaxSlope:      0.8,
					Technique:     "crossquads",
					Fade:          "alpha",
					Animate:       true,
					SwayMagnitude: 0.2,
					SwaySpeed:     1,
					SwayFrequency: 1,
				},
			},
		},
		Impostor: ImpostorConfig{
			Resolution:  256,
			PitchAngles: 4,
			YawAngles:   8,
			Background:  [4]float32{0, 0.3, 0, 0},
			Pivot:       "center",
			Blend:       "alpha_reject",
			Trees:       6,
		},
		Input: InputConfig{
			BindingsFile: "bindings.xml",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
