// Package main is the entry point for the Midgard foliage viewer.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-foliage/internal/config"
	"github.com/Faultbox/midgard-foliage/internal/logger"
	"github.com/Faultbox/midgard-foliage/internal/viewer"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Midgard Foliage ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if path, err := config.WriteDefaults(); err != nil {
		logger.Warn("failed to write default config", zap.Error(err))
	} else if path != "" {
		logger.Info("default config written", zap.String("path", path))
	}

	opts := viewer.Options{BakeOnly: config.BakeOnly()}
	if dir := config.AssetDir(); dir != "" {
		opts.AssetDirs = append(opts.AssetDirs, dir)
	}

	v, err := viewer.New(cfg, opts)
	if err != nil {
		logger.Error("failed to create viewer", zap.Error(err))
		os.Exit(1)
	}
	defer v.Close()

	if opts.BakeOnly {
		if err := v.Bake(); err != nil {
			logger.Error("bake failed", zap.Error(err))
			v.Close()
			os.Exit(1)
		}
		logger.Info("impostors baked")
		return
	}

	if err := v.Run(); err != nil {
		logger.Error("viewer error", zap.Error(err))
		v.Close()
		os.Exit(1)
	}

	logger.Info("viewer closed normally")
}
