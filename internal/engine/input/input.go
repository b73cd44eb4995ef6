// Package input polls SDL2 events and maps keys to analog controls.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// EventType classifies polled events.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventKeyUp
	EventMouseMove
	EventMouseDown
	EventMouseUp
	EventMouseWheel
)

// Event represents a processed input event.
type Event struct {
	Type   EventType
	Key    sdl.Keycode
	Repeat bool
	Width  int
	Height int

	// RelX and RelY are the motion since the last move event and Buttons
	// the button mask held during it.
	MouseX  int
	MouseY  int
	RelX    int
	RelY    int
	Buttons uint32
	Button  uint8
	WheelY  float32
}

// ButtonHeld reports whether mouse button b (sdl.BUTTON_LEFT and so on) was
// held during a motion event.
func (e Event) ButtonHeld(b uint8) bool {
	return b > 0 && e.Buttons&(1<<(b-1)) != 0
}

// Input handles all input processing.
type Input struct {
	events []Event
}

// New creates a new input handler.
func New() *Input {
	return &Input{
		events: make([]Event, 0, 16),
	}
}

// Update polls SDL events. It returns true when the window was asked to
// close.
func (i *Input) Update() bool {
	i.events = i.events[:0] // Clear previous events

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			i.events = append(i.events, Event{Type: EventQuit})
			return true

		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_RESIZED {
				i.events = append(i.events, Event{
					Type:   EventWindowResize,
					Width:  int(e.Data1),
					Height: int(e.Data2),
				})
			}

		case *sdl.KeyboardEvent:
			if e.Type == sdl.KEYDOWN {
				i.events = append(i.events, Event{
					Type:   EventKeyDown,
					Key:    e.Keysym.Sym,
					Repeat: e.Repeat != 0,
				})
			} else if e.Type == sdl.KEYUP {
				i.events = append(i.events, Event{
					Type: EventKeyUp,
					Key:  e.Keysym.Sym,
				})
			}

		case *sdl.MouseMotionEvent:
			i.events = append(i.events, Event{
				Type:    EventMouseMove,
				MouseX:  int(e.X),
				MouseY:  int(e.Y),
				RelX:    int(e.XRel),
				RelY:    int(e.YRel),
				Buttons: e.State,
			})

		case *sdl.MouseWheelEvent:
			i.events = append(i.events, Event{
				Type:   EventMouseWheel,
				WheelY: float32(e.Y),
			})

		case *sdl.MouseButtonEvent:
			if e.Type == sdl.MOUSEBUTTONDOWN {
				i.events = append(i.events, Event{
					Type:   EventMouseDown,
					MouseX: int(e.X),
					MouseY: int(e.Y),
					Button: e.Button,
				})
			} else if e.Type == sdl.MOUSEBUTTONUP {
				i.events = append(i.events, Event{
					Type:   EventMouseUp,
					MouseX: int(e.X),
					MouseY: int(e.Y),
					Button: e.Button,
				})
			}
		}
	}

	return false
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}

// IsKeyPressed checks if a specific key was pressed this frame.
func (i *Input) IsKeyPressed(key sdl.Keycode) bool {
	for _, e := range i.events {
		if e.Type == EventKeyDown && !e.Repeat && e.Key == key {
			return true
		}
	}
	return false
}

// Dispatch feeds the key events of the last Update to b. Auto-repeated
// presses are skipped so held keys push their direction once.
func (i *Input) Dispatch(b *Binder) {
	for _, e := range i.events {
		switch {
		case e.Type == EventKeyDown && !e.Repeat:
			b.KeyPressed(e.Key)
		case e.Type == EventKeyUp:
			b.KeyReleased(e.Key)
		}
	}
}

// Inject appends a synthetic event to the current frame.
func (i *Input) Inject(e Event) {
	i.events = append(i.events, e)
}
