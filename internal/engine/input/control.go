package input

import (
	"fmt"
	"slices"
	"strings"
)

// Direction is the way a control's value is changing.
type Direction int8

const (
	DirectionStop     Direction = 0
	DirectionIncrease Direction = 1
	DirectionDecrease Direction = -1
)

func (d Direction) String() string {
	switch d {
	case DirectionIncrease:
		return "INCREASE"
	case DirectionDecrease:
		return "DECREASE"
	default:
		return "STOP"
	}
}

// ParseDirection parses INCREASE, DECREASE or STOP. Unknown values are STOP.
func ParseDirection(s string) Direction {
	switch strings.ToUpper(s) {
	case "INCREASE":
		return DirectionIncrease
	case "DECREASE":
		return DirectionDecrease
	default:
		return DirectionStop
	}
}

// Control is an analog channel in [0, 1] driven by bound keys.
type Control struct {
	name    string
	value   float32
	initial float32
	// speed is the value change per second while a direction is held.
	speed float32

	// AutoReverse returns the value to its initial value once no direction
	// is held.
	AutoReverse bool
	// ToggleAtLimits makes a key press at 0 or 1 head for the opposite
	// limit regardless of the bound direction.
	ToggleAtLimits bool

	direction Direction
	pending   []Direction
}

// NewControl creates a control resting at initial.
func NewControl(name string, initial, speed float32) *Control {
	c := &Control{name: name, speed: speed}
	c.initial = clamp01(initial)
	c.value = c.initial
	return c
}

func clamp01(v float32) float32 {
	return max(0, min(v, 1))
}

// Name returns the control name.
func (c *Control) Name() string { return c.name }

// Value returns the current value.
func (c *Control) Value() float32 { return c.value }

// SetValue sets the value, clamped to [0, 1].
func (c *Control) SetValue(v float32) { c.value = clamp01(v) }

// InitialValue returns the resting value.
func (c *Control) InitialValue() float32 { return c.initial }

// Speed returns the change per second.
func (c *Control) Speed() float32 { return c.speed }

// Direction returns the direction currently applied.
func (c *Control) Direction() Direction { return c.direction }

// SetChangingDirection starts moving in d. Earlier directions stay pending
// and resume when d is removed.
func (c *Control) SetChangingDirection(d Direction) {
	c.direction = d
	c.pending = append(c.pending, d)
}

// RemoveChangingDirection drops d from the held directions.
func (c *Control) RemoveChangingDirection(d Direction) {
	c.pending = slices.DeleteFunc(c.pending, func(p Direction) bool { return p == d })
	if n := len(c.pending); n > 0 {
		c.direction = c.pending[n-1]
	} else {
		c.direction = DirectionStop
	}
}

// press applies a bound key press.
func (c *Control) press(d Direction) {
	if !c.ToggleAtLimits {
		c.SetChangingDirection(d)
		return
	}
	switch c.value {
	case 1:
		c.SetChangingDirection(DirectionDecrease)
	case 0:
		c.SetChangingDirection(DirectionIncrease)
	}
}

// release applies a bound key release.
func (c *Control) release(d Direction) {
	if c.ToggleAtLimits {
		c.RemoveChangingDirection(DirectionIncrease)
		c.RemoveChangingDirection(DirectionDecrease)
		return
	}
	c.RemoveChangingDirection(d)
}

// Update integrates the value over elapsed seconds.
func (c *Control) Update(elapsed float32) {
	step := c.speed * elapsed
	switch {
	case c.direction != DirectionStop:
		c.SetValue(c.value + float32(c.direction)*step)
		if c.ToggleAtLimits && (c.value == 0 || c.value == 1) {
			c.RemoveChangingDirection(c.direction)
		}
	case c.AutoReverse:
		if c.value > c.initial {
			c.value = max(c.initial, c.value-step)
		} else if c.value < c.initial {
			c.value = min(c.initial, c.value+step)
		}
	}
}

func (c *Control) String() string {
	return fmt.Sprintf("%s=%.3f (%s)", c.name, c.value, c.direction)
}
