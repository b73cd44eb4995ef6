package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
	flagImpostor   = flag.Int("impostor-res", 0, "Impostor atlas cell resolution")
	flagRegen      = flag.Bool("regen-impostors", false, "Ignore cached impostor atlases")
	flagBakeOnly   = flag.Bool("bake-only", false, "Bake impostor atlases and exit")
	flagAssets     = flag.String("assets", "", "Directory searched for textures and maps")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// BakeOnly reports whether --bake-only was given.
func BakeOnly() bool {
	return *flagBakeOnly
}

// AssetDir returns the --assets directory, or "" when none was given.
func AssetDir() string {
	return *flagAssets
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagWindowed {
		cfg.Graphics.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Graphics.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Graphics.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Graphics.Height = *flagHeight
	}
	if *flagImpostor > 0 {
		cfg.Impostor.Resolution = *flagImpostor
	}
	if *flagRegen {
		cfg.Impostor.ForceRegenerate = true
	}
}
