// Package scene runs full scene transitions: the multi-phase curtain that
// hides the stage, swaps the background at the mid-point, and fades the UI
// back in. It layers a small state machine over its own animation system;
// the renderer only reads the exposed progress, mask alpha and UI alpha.
package scene

import (
	"sync"

	"nitro-vn/internal/anim"
)

// Kind selects the curtain style of a scene transition.
type Kind int

const (
	// FadeBlack dips through a black mask.
	FadeBlack Kind = iota
	// FadeWhite dips through a white mask.
	FadeWhite
	// Rule cross-dissolves through a grayscale mask image.
	Rule
)

func (k Kind) String() string {
	switch k {
	case FadeBlack:
		return "fade"
	case FadeWhite:
		return "fadewhite"
	case Rule:
		return "rule"
	default:
		return "unknown"
	}
}

// Command is emitted by the command executor when a changeScene needs a
// curtain transition. MaskPath and Reversed apply to Rule only.
type Command struct {
	Kind              Kind
	Duration          float64
	PendingBackground string
	MaskPath          string
	Reversed          bool
}

// Phase is the current step of the transition state machine.
type Phase int

const (
	Idle Phase = iota
	// FadeIn raises the curtain mask (or dissolves to black under a rule).
	FadeIn
	// Blackout is the fixed hold between rule phases.
	Blackout
	// FadeOut lowers the mask over the new background.
	FadeOut
	// UIFadeIn restores the dialogue UI.
	UIFadeIn
	Completed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "Idle"
	case FadeIn:
		return "FadeIn"
	case Blackout:
		return "Blackout"
	case FadeOut:
		return "FadeOut"
	case UIFadeIn:
		return "UIFadeIn"
	case Completed:
		return "Completed"
	default:
		return "Unknown"
	}
}

const (
	uiFadeDuration       = 0.2
	ruleBlackoutDuration = 0.2
)

// Transition is the animatable state the manager registers with its
// animation system. The renderer reads it through the manager each frame.
type Transition struct {
	mu        sync.Mutex
	progress  float64
	maskAlpha float64
	uiAlpha   float64
}

// NewTransition creates the state with the UI fully visible.
func NewTransition() *Transition {
	return &Transition{uiAlpha: 1}
}

func (t *Transition) GetProperty(property string) (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch property {
	case "progress":
		return t.progress, true
	case "mask_alpha":
		return t.maskAlpha, true
	case "ui_alpha":
		return t.uiAlpha, true
	default:
		return 0, false
	}
}

func (t *Transition) SetProperty(property string, value float64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch property {
	case "progress":
		t.progress = value
	case "mask_alpha":
		t.maskAlpha = value
	case "ui_alpha":
		t.uiAlpha = value
	default:
		return false
	}
	return true
}

func (t *Transition) PropertyList() []string {
	return []string{"progress", "mask_alpha", "ui_alpha"}
}

// reset puts every property at the transition-start state: stage visible,
// UI hidden.
func (t *Transition) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.progress = 0
	t.maskAlpha = 0
	t.uiAlpha = 0
}

// setCompleted puts every property at the finished state.
func (t *Transition) setCompleted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.progress = 1
	t.maskAlpha = 0
	t.uiAlpha = 1
}

// Manager drives one scene transition at a time through its phases.
type Manager struct {
	system   *anim.System
	state    *Transition
	objectID anim.ObjectID

	kind     Kind
	phase    Phase
	duration float64
	maskPath string
	reversed bool

	pendingBackground string
	hasPending        bool
	phaseTimer        float64
}

// NewManager creates an idle manager with its own animation system.
func NewManager() *Manager {
	system := anim.NewSystem()
	state := NewTransition()
	return &Manager{
		system:   system,
		state:    state,
		objectID: system.Register(state),
		phase:    Idle,
		duration: 0.5,
	}
}

// Start begins the transition described by a command.
func (m *Manager) Start(cmd *Command) {
	m.system.SkipAll()
	m.system.Update(0)

	m.kind = cmd.Kind
	m.duration = cmd.Duration
	if m.duration < 0.01 {
		m.duration = 0.01
	}
	m.maskPath = cmd.MaskPath
	m.reversed = cmd.Reversed
	m.pendingBackground = cmd.PendingBackground
	m.hasPending = true
	m.phaseTimer = 0

	m.state.reset()
	m.phase = FadeIn
	m.startFadeIn()
}

func (m *Manager) startFadeIn() {
	if m.kind == Rule {
		m.animate("progress", 0, 1, m.duration, anim.EaseInOutQuad)
		return
	}
	m.animate("mask_alpha", 0, 1, m.duration, anim.EaseInOutQuad)
}

func (m *Manager) startFadeOut() {
	if m.kind == Rule {
		// A fresh 0 -> 1 sweep; the renderer inverts the mask so the new
		// background dissolves out of black symmetrically.
		m.state.SetProperty("progress", 0)
		m.animate("progress", 0, 1, m.duration, anim.EaseInOutQuad)
		return
	}
	m.animate("mask_alpha", 1, 0, m.duration, anim.EaseInOutQuad)
}

func (m *Manager) startUIFadeIn() {
	m.animate("ui_alpha", 0, 1, uiFadeDuration, anim.EaseOutQuad)
}

func (m *Manager) animate(property string, from, to, duration float64, easing anim.Easing) {
	// The state object always exposes these properties; a failure here is
	// a programming error worth crashing on.
	if _, err := m.system.AnimateObject(m.objectID, property, from, to, duration, easing); err != nil {
		panic(err)
	}
}

// Update advances the transition by dt and reports whether it is still
// running.
func (m *Manager) Update(dt float64) bool {
	if m.phase == Idle || m.phase == Completed {
		return false
	}

	m.system.Update(dt)

	switch m.phase {
	case FadeIn:
		if !m.system.HasActive() {
			if m.kind == Rule {
				m.phase = Blackout
				m.phaseTimer = 0
				m.state.SetProperty("progress", 1)
			} else {
				m.phase = FadeOut
				m.startFadeOut()
			}
		}
	case Blackout:
		m.phaseTimer += dt
		if m.phaseTimer >= ruleBlackoutDuration {
			m.phase = FadeOut
			m.startFadeOut()
		}
	case FadeOut:
		if !m.system.HasActive() {
			m.phase = UIFadeIn
			m.startUIFadeIn()
		}
	case UIFadeIn:
		if !m.system.HasActive() {
			m.phase = Completed
			m.state.setCompleted()
		}
	}

	return m.phase != Completed
}

// SkipCurrentPhase finishes the running phase as if its animation had
// completed naturally and advances one step. A rule FadeIn skip jumps
// straight to FadeOut, skipping the blackout hold, still swap-eligible.
func (m *Manager) SkipCurrentPhase() {
	m.system.SkipAll()
	m.system.Update(0)

	switch m.phase {
	case FadeIn:
		m.phase = FadeOut
		if m.kind == Rule {
			m.state.SetProperty("progress", 0)
		} else {
			m.state.SetProperty("mask_alpha", 1)
		}
		m.startFadeOut()
	case Blackout, FadeOut, UIFadeIn:
		m.phase = Completed
		m.state.setCompleted()
	}
}

// SkipAll drops straight to Completed with final property values.
func (m *Manager) SkipAll() {
	m.system.SkipAll()
	m.system.Update(0)
	if m.phase != Idle {
		m.phase = Completed
	}
	m.state.setCompleted()
}

// Phase returns the current phase.
func (m *Manager) Phase() Phase { return m.phase }

// Kind returns the running transition's kind.
func (m *Manager) Kind() Kind { return m.kind }

// IsActive reports whether a transition is in flight.
func (m *Manager) IsActive() bool {
	return m.phase != Idle && m.phase != Completed
}

// IsAtMidpoint is true from the start of FadeOut until the pending
// background is taken: the moment the new background becomes canonical.
func (m *Manager) IsAtMidpoint() bool {
	return m.phase >= FadeOut && m.hasPending
}

// TakePendingBackground hands over the new background exactly once.
func (m *Manager) TakePendingBackground() (string, bool) {
	if !m.hasPending {
		return "", false
	}
	m.hasPending = false
	path := m.pendingBackground
	m.pendingBackground = ""
	return path, true
}

// PendingBackground peeks at the queued background without taking it.
func (m *Manager) PendingBackground() (string, bool) {
	return m.pendingBackground, m.hasPending
}

// IsUIFadingIn reports whether the UI restore phase is running.
func (m *Manager) IsUIFadingIn() bool { return m.phase == UIFadeIn }

// IsMaskComplete reports whether the curtain no longer needs drawing.
func (m *Manager) IsMaskComplete() bool {
	return m.phase == UIFadeIn || m.phase == Completed
}

// MaskPath returns the rule mask's logical path.
func (m *Manager) MaskPath() string { return m.maskPath }

// Reversed reports whether the rule mask luminance is inverted.
func (m *Manager) Reversed() bool { return m.reversed }

// Progress returns the rule dissolve progress for the shader.
func (m *Manager) Progress() float64 {
	v, _ := m.state.GetProperty("progress")
	return v
}

// MaskAlpha returns the curtain opacity for fade/fadewhite.
func (m *Manager) MaskAlpha() float64 {
	v, _ := m.state.GetProperty("mask_alpha")
	return v
}

// UIAlpha returns the UI opacity applied to the dialogue layer.
func (m *Manager) UIAlpha() float64 {
	v, _ := m.state.GetProperty("ui_alpha")
	return v
}
