package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Graphics.Width != 1280 {
		t.Errorf("expected width 1280, got %d", cfg.Graphics.Width)
	}
	if !cfg.Graphics.VSync {
		t.Error("expected vsync to be true by default")
	}

	if cfg.Paging.PageSize != 50 {
		t.Errorf("expected page size 50, got %v", cfg.Paging.PageSize)
	}
	if !cfg.Paging.ShadersEnabled {
		t.Error("expected shaders enabled by default")
	}

	if cfg.Impostor.Resolution != 256 {
		t.Errorf("expected impostor resolution 256, got %d", cfg.Impostor.Resolution)
	}
	if cfg.Impostor.PitchAngles != 4 || cfg.Impostor.YawAngles != 8 {
		t.Errorf("expected 4x8 impostor grid, got %dx%d", cfg.Impostor.PitchAngles, cfg.Impostor.YawAngles)
	}
	if cfg.Impostor.Blend != "alpha_reject" {
		t.Errorf("expected alpha_reject blend, got %s", cfg.Impostor.Blend)
	}

	if len(cfg.Grass.Layers) != 1 || cfg.Grass.Layers[0].Material != "grass" {
		t.Errorf("expected one default grass layer, got %+v", cfg.Grass.Layers)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
graphics:
  width: 1920
  height: 1080

paging:
  page_size: 80
  far_range: 400

grass:
  density_factor: 0.5
  layers:
    - material: "tall_grass"
      density: 2
      min_size: [1, 1]
      max_size: [2, 3]
      height_range: [0, 40]
      technique: "sprite"
      fade: "grow"
      density_map: "maps/density.png"
      density_channel: "green"
      density_filter: "none"
      map_bounds: [0, 0, 1000, 1000]

impostor:
  resolution: 128
  blend: "alpha_blend"
  pivot: "bottom_center"
  cache_dir: "/tmp/impostors"

logging:
  level: "debug"
  log_file: "foliage.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Graphics.Width != 1920 {
		t.Errorf("expected width 1920, got %d", cfg.Graphics.Width)
	}
	if cfg.Paging.PageSize != 80 || cfg.Paging.FarRange != 400 {
		t.Errorf("unexpected paging %+v", cfg.Paging)
	}
	if cfg.Grass.DensityFactor != 0.5 {
		t.Errorf("expected density factor 0.5, got %v", cfg.Grass.DensityFactor)
	}
	if len(cfg.Grass.Layers) != 1 {
		t.Fatalf("expected file layers to replace defaults, got %d", len(cfg.Grass.Layers))
	}
	layer := cfg.Grass.Layers[0]
	if layer.Material != "tall_grass" || layer.Technique != "sprite" || layer.Fade != "grow" {
		t.Errorf("unexpected layer %+v", layer)
	}
	if layer.MaxSize != [2]float32{2, 3} {
		t.Errorf("expected max size [2 3], got %v", layer.MaxSize)
	}
	if layer.HeightRange != [2]float32{0, 40} {
		t.Errorf("expected height range [0 40], got %v", layer.HeightRange)
	}
	if layer.DensityChannel != "green" || layer.DensityFilter != "none" {
		t.Errorf("unexpected density map settings %+v", layer)
	}
	if layer.MapBounds != [4]float32{0, 0, 1000, 1000} {
		t.Errorf("unexpected map bounds %v", layer.MapBounds)
	}

	if cfg.Impostor.Resolution != 128 || cfg.Impostor.Blend != "alpha_blend" || cfg.Impostor.Pivot != "bottom_center" {
		t.Errorf("unexpected impostor %+v", cfg.Impostor)
	}
	if cfg.Impostor.YawAngles != 8 {
		t.Errorf("unset yaw angles should keep default 8, got %d", cfg.Impostor.YawAngles)
	}

	if cfg.Logging.Level != "debug" || cfg.Logging.LogFile != "foliage.log" {
		t.Errorf("unexpected logging %+v", cfg.Logging)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
paging:
  page_size: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"sun below horizon", func(c *Config) { c.Graphics.SunLatitude = -5 }},
		{"zero page size", func(c *Config) { c.Paging.PageSize = 0 }},
		{"far range below page", func(c *Config) { c.Paging.FarRange = 10 }},
		{"grass beyond far range", func(c *Config) { c.Paging.GrassRange = 500 }},
		{"negative tree range", func(c *Config) { c.Paging.TreeRange = -1 }},
		{"zero resolution", func(c *Config) { c.Impostor.Resolution = 0 }},
		{"empty angle grid", func(c *Config) { c.Impostor.YawAngles = 0 }},
		{"layer without material", func(c *Config) { c.Grass.Layers[0].Material = "" }},
		{"negative density", func(c *Config) { c.Grass.Layers[0].Density = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("graphics:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find config.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "fullscreen flag",
			setup: func() { *flagFullscreen = true },
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Graphics.Fullscreen {
					t.Error("expected fullscreen to be true with fullscreen flag")
				}
			},
			teardown: func() { *flagFullscreen = false },
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Graphics.Width != 2560 || cfg.Graphics.Height != 1440 {
					t.Errorf("expected 2560x1440, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
			},
		},
		{
			name:  "impostor resolution flag",
			setup: func() { *flagImpostor = 64 },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Impostor.Resolution != 64 {
					t.Errorf("expected resolution 64, got %d", cfg.Impostor.Resolution)
				}
			},
			teardown: func() { *flagImpostor = 0 },
		},
		{
			name:  "regen flag",
			setup: func() { *flagRegen = true },
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Impostor.ForceRegenerate {
					t.Error("expected force regenerate")
				}
			},
			teardown: func() { *flagRegen = false },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
graphics:
  width: 1600
  height: 900
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Width from flag, height from file.
	if cfg.Graphics.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Graphics.Height)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("paging:\n  page_size: -5\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	if _, err := Load(); err == nil {
		t.Error("expected Load to reject negative page size")
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Impostor.CacheDir = "cache"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if loaded.Impostor.CacheDir != "cache" {
		t.Errorf("expected cache dir to round trip, got %q", loaded.Impostor.CacheDir)
	}
}

func TestSaveToLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := Default().SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}
	if err := Default().SaveTo(path); err != nil {
		t.Fatalf("second SaveTo failed: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "config.yaml" {
		t.Errorf("expected only config.yaml, got %v", entries)
	}
}

func TestWriteDefaults(t *testing.T) {
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		t.Skip("config directory follows XDG_CONFIG_HOME only on Linux")
	}
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	path, err := WriteDefaults()
	if err != nil {
		t.Fatalf("WriteDefaults failed: %v", err)
	}
	want := filepath.Join(tmpDir, "midgard-foliage", "config.yaml")
	if path != want {
		t.Errorf("expected %s, got %s", want, path)
	}

	loaded := Default()
	loaded.Paging.PageSize = 1
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if loaded.Paging.PageSize != Default().Paging.PageSize {
		t.Errorf("expected default page size, got %v", loaded.Paging.PageSize)
	}

	path, err = WriteDefaults()
	if err != nil {
		t.Fatalf("second WriteDefaults failed: %v", err)
	}
	if path != "" {
		t.Errorf("expected existing config to be kept, got %s", path)
	}
}

func TestWriteDefaultsSkipsExplicitConfig(t *testing.T) {
	*flagConfig = filepath.Join(t.TempDir(), "missing.yaml")
	defer func() { *flagConfig = "" }()

	path, err := WriteDefaults()
	if err != nil || path != "" {
		t.Errorf("expected no write with --config, got %q, %v", path, err)
	}
}
