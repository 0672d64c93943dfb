package ui

import (
	"github.com/veandco/go-sdl2/sdl"

	"nitro-vn/internal/input"
)

// EventPump drains the SDL event queue into input snapshots once per
// frame. Edge events (key and button downs) come from the queue; held
// state comes from the live keyboard array.
type EventPump struct {
	quit bool
}

// NewEventPump creates a pump.
func NewEventPump() *EventPump { return &EventPump{} }

// QuitRequested reports whether the window was asked to close.
func (p *EventPump) QuitRequested() bool { return p.quit }

// Poll drains pending events and builds the frame's snapshot.
func (p *EventPump) Poll() input.Snapshot {
	var snap input.Snapshot

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			p.quit = true

		case *sdl.MouseButtonEvent:
			if e.Type == sdl.MOUSEBUTTONDOWN && e.Button == sdl.BUTTON_LEFT {
				snap.MouseClicked = true
			}

		case *sdl.KeyboardEvent:
			if e.Type != sdl.KEYDOWN || e.Repeat != 0 {
				continue
			}
			switch e.Keysym.Sym {
			case sdl.K_ESCAPE:
				snap.EscPressed = true
			case sdl.K_a:
				snap.AutoPressed = true
			case sdl.K_F1:
				snap.DebugPressed = true
			case sdl.K_UP:
				snap.UpPressed = true
			case sdl.K_DOWN:
				snap.DownPressed = true
			case sdl.K_RETURN, sdl.K_SPACE:
				snap.ConfirmPressed = true
			default:
				if e.Keysym.Sym >= sdl.K_1 && e.Keysym.Sym <= sdl.K_9 {
					snap.NumberPressed = int(e.Keysym.Sym-sdl.K_1) + 1
				}
			}
		}
	}

	// MouseClicked stays an edge from the event queue; only the cursor
	// position comes from the live state.
	x, y, _ := sdl.GetMouseState()
	snap.MouseX = float64(x)
	snap.MouseY = float64(y)

	keys := sdl.GetKeyboardState()
	snap.AdvanceHeld = keys[sdl.SCANCODE_SPACE] != 0 || keys[sdl.SCANCODE_RETURN] != 0
	snap.CtrlHeld = keys[sdl.SCANCODE_LCTRL] != 0 || keys[sdl.SCANCODE_RCTRL] != 0

	return snap
}
