package viewer

import (
	"errors"
	"io/fs"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-foliage/internal/engine/input"
	"github.com/Faultbox/midgard-foliage/internal/logger"
)

// Control names. Axis controls rest at 0.5 and spring back when released.
const (
	ControlForward = "move_forward"
	ControlStrafe  = "move_right"
	ControlTurn    = "turn"
	ControlPitch   = "pitch"
	ControlZoom    = "zoom"
	ControlGrass   = "grass_density"
)

// DefaultBinder returns the built-in controls and key bindings.
func DefaultBinder() *input.Binder {
	b := input.NewBinder()
	addAxis := func(name string, inc, dec sdl.Keycode) {
		c := input.NewControl(name, 0.5, 2)
		c.AutoReverse = true
		b.AddControl(c)
		b.AddKeyBinding(c, inc, input.DirectionIncrease)
		b.AddKeyBinding(c, dec, input.DirectionDecrease)
	}
	addAxis(ControlForward, sdl.K_w, sdl.K_s)
	addAxis(ControlStrafe, sdl.K_d, sdl.K_a)
	addAxis(ControlTurn, sdl.K_e, sdl.K_q)
	addAxis(ControlPitch, sdl.K_r, sdl.K_f)
	addAxis(ControlZoom, sdl.K_z, sdl.K_x)

	grass := input.NewControl(ControlGrass, 1, 0.5)
	grass.ToggleAtLimits = true
	b.AddControl(grass)
	b.AddKeyBinding(grass, sdl.K_g, input.DirectionDecrease)
	return b
}

// loadBinder reads path, falling back to the defaults and writing them out
// when the file does not exist.
func loadBinder(path string) *input.Binder {
	b := DefaultBinder()
	if path == "" {
		return b
	}
	err := b.LoadFile(path)
	switch {
	case err == nil:
		logger.Info("key bindings loaded", zap.String("path", path))
	case errors.Is(err, fs.ErrNotExist):
		if err := b.SaveFile(path); err != nil {
			logger.Warn("failed to save default key bindings", zap.String("path", path), zap.Error(err))
		}
	default:
		logger.Warn("failed to load key bindings, using defaults", zap.String("path", path), zap.Error(err))
		b = DefaultBinder()
	}
	return b
}

// axis maps a resting-at-half control to [-1, 1].
func axis(b *input.Binder, name string) float32 {
	c, ok := b.Control(name)
	if !ok {
		return 0
	}
	return (c.Value() - 0.5) * 2
}

// level returns a control's value, or def when it is missing.
func level(b *input.Binder, name string, def float32) float32 {
	c, ok := b.Control(name)
	if !ok {
		return def
	}
	return c.Value()
}
