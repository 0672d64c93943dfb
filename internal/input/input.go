// Package input turns raw device state into runtime inputs. The platform
// layer latches a Snapshot each frame; the system edge-detects against the
// previous latch, debounces clicks, and synthesizes auto-repeat clicks for
// held advance keys.
package input

import (
	"nitro-vn/internal/runtime"
)

// Click debounce window shared by mouse and keyboard advances.
const clickDebounceSeconds = 0.15

// Holding the advance key this long starts auto-repeat.
const holdInitialDelay = 0.3

// Interval between auto-repeat clicks while held.
const holdRepeatInterval = 0.05

// Snapshot is the raw device state for one frame, latched by the platform
// layer. The system reads the latched state, never the live device, so a
// frame sees one consistent view.
type Snapshot struct {
	MouseClicked bool
	MouseX       float64
	MouseY       float64

	// AdvanceHeld is true while space or enter is down.
	AdvanceHeld bool
	CtrlHeld    bool

	EscPressed   bool
	AutoPressed  bool
	DebugPressed bool

	UpPressed      bool
	DownPressed    bool
	ConfirmPressed bool

	// NumberPressed is 1-9 when a digit row key went down, else 0.
	NumberPressed int
}

// System converts latched snapshots into at most one runtime input per
// frame.
type System struct {
	// Current and previous latched snapshots; edges come from comparing
	// the two.
	current  Snapshot
	previous Snapshot

	clock           float64
	lastClickTime   float64
	holdTimer       float64
	lastHoldTrigger float64

	choiceCount   int
	selectedIndex int
	choiceRects   []Rect

	injected []runtime.Input
}

// Rect is a screen-space hit box for a choice option.
type Rect struct {
	X, Y, W, H float64
}

// NewSystem creates an input system.
func NewSystem() *System {
	return &System{lastClickTime: -clickDebounceSeconds}
}

// Latch stores the frame's raw device state. Call once per frame before
// Update.
func (s *System) Latch(snapshot Snapshot) {
	s.previous = s.current
	s.current = snapshot
}

// Current returns the latched snapshot.
func (s *System) Current() Snapshot { return s.current }

// ResetChoice arms choice navigation for count options.
func (s *System) ResetChoice(count int) {
	s.choiceCount = count
	s.selectedIndex = 0
	s.choiceRects = nil
}

// SetChoiceRects provides the hit boxes the renderer laid the options out
// in, for mouse hover and click selection.
func (s *System) SetChoiceRects(rects []Rect) {
	s.choiceRects = rects
}

// SelectedIndex returns the keyboard-highlighted option.
func (s *System) SelectedIndex() int { return s.selectedIndex }

// HoveredIndex returns the option under the mouse, or -1.
func (s *System) HoveredIndex() int {
	for i, r := range s.choiceRects {
		if s.current.MouseX >= r.X && s.current.MouseX < r.X+r.W &&
			s.current.MouseY >= r.Y && s.current.MouseY < r.Y+r.H {
			return i
		}
	}
	return -1
}

// Inject queues a synthetic input that takes priority over device input on
// the next Update.
func (s *System) Inject(input runtime.Input) {
	s.injected = append(s.injected, input)
}

// Update advances timers by dt and produces at most one input appropriate
// for the given wait state.
func (s *System) Update(waiting runtime.WaitingReason, dt float64) runtime.Input {
	s.clock += dt

	if len(s.injected) > 0 {
		input := s.injected[0]
		s.injected = s.injected[1:]
		return input
	}

	switch waiting.Kind {
	case runtime.WaitForClick:
		return s.updateClick(dt)
	case runtime.WaitForChoice:
		return s.updateChoice()
	default:
		// WaitForTime is the host scheduler's business; signals only
		// arrive via Inject.
		return nil
	}
}

// updateClick handles single clicks, debounced, plus hold-to-repeat.
func (s *System) updateClick(dt float64) runtime.Input {
	clicked := s.current.MouseClicked && !s.previous.MouseClicked
	pressed := s.current.ConfirmPressed && !s.previous.ConfirmPressed

	if clicked || pressed {
		if s.clock-s.lastClickTime >= clickDebounceSeconds {
			s.lastClickTime = s.clock
			s.holdTimer = 0
			return runtime.Click{}
		}
		return nil
	}

	if s.current.AdvanceHeld {
		s.holdTimer += dt
		if s.holdTimer >= holdInitialDelay &&
			s.clock-s.lastHoldTrigger >= holdRepeatInterval {
			s.lastHoldTrigger = s.clock
			return runtime.Click{}
		}
	} else {
		s.holdTimer = 0
	}
	return nil
}

// updateChoice handles arrow navigation, digit shortcuts, confirm, and
// mouse clicks on option hit boxes.
func (s *System) updateChoice() runtime.Input {
	if s.choiceCount == 0 {
		return nil
	}

	if s.current.DownPressed && !s.previous.DownPressed {
		s.selectedIndex = (s.selectedIndex + 1) % s.choiceCount
	}
	if s.current.UpPressed && !s.previous.UpPressed {
		s.selectedIndex = (s.selectedIndex - 1 + s.choiceCount) % s.choiceCount
	}

	if n := s.current.NumberPressed; n > 0 && n <= s.choiceCount &&
		s.previous.NumberPressed != n {
		return runtime.ChoiceSelected{Index: n - 1}
	}

	if s.current.ConfirmPressed && !s.previous.ConfirmPressed {
		if s.clock-s.lastClickTime >= clickDebounceSeconds {
			s.lastClickTime = s.clock
			return runtime.ChoiceSelected{Index: s.selectedIndex}
		}
	}

	if s.current.MouseClicked && !s.previous.MouseClicked {
		if hovered := s.HoveredIndex(); hovered >= 0 &&
			s.clock-s.lastClickTime >= clickDebounceSeconds {
			s.lastClickTime = s.clock
			return runtime.ChoiceSelected{Index: hovered}
		}
	}

	return nil
}
