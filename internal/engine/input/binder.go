package input

import (
	"slices"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-foliage/internal/logger"
)

type keyBinding struct {
	control   *Control
	direction Direction
}

// Binder maps keys to control directions. A key drives at most one control
// and each (control, direction) pair has at most one key after a Rebind.
type Binder struct {
	controls []*Control
	byName   map[string]*Control
	keys     map[sdl.Keycode]keyBinding
	active   bool

	detecting *keyBinding
}

// NewBinder creates an active binder without controls.
func NewBinder() *Binder {
	return &Binder{
		byName: make(map[string]*Control),
		keys:   make(map[sdl.Keycode]keyBinding),
		active: true,
	}
}

// AddControl registers c. A control with the same name is replaced.
func (b *Binder) AddControl(c *Control) {
	if old, ok := b.byName[c.Name()]; ok {
		for key, kb := range b.keys {
			if kb.control == old {
				delete(b.keys, key)
			}
		}
		for i, existing := range b.controls {
			if existing == old {
				b.controls[i] = c
			}
		}
	} else {
		b.controls = append(b.controls, c)
	}
	b.byName[c.Name()] = c
}

// Control looks up a control by name.
func (b *Binder) Control(name string) (*Control, bool) {
	c, ok := b.byName[name]
	return c, ok
}

// Controls returns the controls in registration order.
func (b *Binder) Controls() []*Control {
	return b.controls
}

// SetActive enables or disables key handling.
func (b *Binder) SetActive(active bool) {
	b.active = active
}

// AddKeyBinding binds key to drive c in dir, replacing whatever key was
// bound to before.
func (b *Binder) AddKeyBinding(c *Control, key sdl.Keycode, dir Direction) {
	logger.Debug("adding key binding",
		zap.String("control", c.Name()),
		zap.String("key", sdl.GetKeyName(key)),
		zap.Stringer("direction", dir))
	b.keys[key] = keyBinding{control: c, direction: dir}
}

// RemoveKeyBinding unbinds key.
func (b *Binder) RemoveKeyBinding(key sdl.Keycode) {
	delete(b.keys, key)
}

// KeyBinding returns the lowest key driving c in dir, or sdl.K_UNKNOWN.
func (b *Binder) KeyBinding(c *Control, dir Direction) sdl.Keycode {
	if keys := b.KeyBindings(c, dir); len(keys) > 0 {
		return keys[0]
	}
	return sdl.K_UNKNOWN
}

// KeyBindings returns every key driving c in dir in ascending order.
func (b *Binder) KeyBindings(c *Control, dir Direction) []sdl.Keycode {
	var keys []sdl.Keycode
	for key, kb := range b.keys {
		if kb.control == c && kb.direction == dir {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys
}

// Rebind binds key to (c, dir) exclusively: key is taken from any other
// control and every key previously bound to (c, dir) is unbound.
func (b *Binder) Rebind(c *Control, key sdl.Keycode, dir Direction) {
	b.RemoveKeyBinding(key)
	for _, old := range b.KeyBindings(c, dir) {
		b.RemoveKeyBinding(old)
	}
	b.AddKeyBinding(c, key, dir)
}

// DetectBinding makes the next key press rebind (c, dir) instead of driving
// a control.
func (b *Binder) DetectBinding(c *Control, dir Direction) {
	b.detecting = &keyBinding{control: c, direction: dir}
}

// CancelDetectBinding leaves detection mode.
func (b *Binder) CancelDetectBinding() {
	b.detecting = nil
}

// Detecting reports whether the binder waits for a key to bind.
func (b *Binder) Detecting() bool {
	return b.detecting != nil
}

// KeyPressed applies a key press. It returns false when the press was
// consumed by binding detection.
func (b *Binder) KeyPressed(key sdl.Keycode) bool {
	if !b.active {
		return true
	}
	if d := b.detecting; d != nil {
		b.Rebind(d.control, key, d.direction)
		b.detecting = nil
		return false
	}
	if kb, ok := b.keys[key]; ok {
		kb.control.press(kb.direction)
	}
	return true
}

// KeyReleased applies a key release.
func (b *Binder) KeyReleased(key sdl.Keycode) {
	if !b.active {
		return
	}
	if kb, ok := b.keys[key]; ok {
		kb.control.release(kb.direction)
	}
}

// Update advances every control by elapsed seconds.
func (b *Binder) Update(elapsed float32) {
	for _, c := range b.controls {
		c.Update(elapsed)
	}
}
