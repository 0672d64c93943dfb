// Package effect is the single conversion point from authored transitions
// to resolved presentation effects. Everything that needs to interpret a
// `with ...` clause goes through Resolve; nothing else reads transition
// names or arguments.
package effect

import (
	"strings"

	"nitro-vn/internal/anim"
	"nitro-vn/internal/resource"
	"nitro-vn/internal/script"
)

// Kind is the effect family a transition resolves to.
type Kind int

const (
	// None is an instant cut.
	None Kind = iota
	// Dissolve is an alpha cross-fade.
	Dissolve
	// Fade is a black curtain in scene context, alpha-like on sprites.
	Fade
	// FadeWhite is a white curtain.
	FadeWhite
	// Rule is an image-mask-driven dissolve.
	Rule
	// Move slides a sprite between stage positions.
	Move
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Dissolve:
		return "dissolve"
	case Fade:
		return "fade"
	case FadeWhite:
		return "fadewhite"
	case Rule:
		return "rule"
	case Move:
		return "move"
	default:
		return "unknown"
	}
}

// Context-dependent default durations, in seconds. Callers pick the one
// matching their use via DurationOr.
const (
	DefaultDissolveDuration  = 0.3
	DefaultCharacterDuration = 0.3
	DefaultMoveDuration      = 0.3
	DefaultSceneDuration     = 0.5
)

// Resolved carries everything needed to run an effect: the kind, the
// explicit duration when the script gave one, the easing, and the rule
// mask parameters.
type Resolved struct {
	Kind   Kind
	Easing anim.Easing

	// Duration holds an explicitly authored duration; valid only when
	// HasDuration is set. Use DurationOr.
	Duration    float64
	HasDuration bool

	// MaskPath and Reversed apply to Rule effects. MaskPath is already
	// normalized to a logical path.
	MaskPath string
	Reversed bool

	// Fallback is set when an unknown effect name degraded to Dissolve.
	Fallback bool
}

// NoEffect is the resolved instant cut.
func NoEffect() Resolved {
	return Resolved{Kind: None, HasDuration: true, Easing: anim.Linear}
}

// DurationOr returns the authored duration, or the caller's default.
func (r Resolved) DurationOr(fallback float64) float64 {
	if r.HasDuration {
		return r.Duration
	}
	return fallback
}

// IsAlpha reports whether the effect animates sprite alpha (dissolve, and
// fade when applied to a sprite rather than a scene).
func (r Resolved) IsAlpha() bool { return r.Kind == Dissolve || r.Kind == Fade }

// IsMove reports whether the effect slides a sprite.
func (r Resolved) IsMove() bool { return r.Kind == Move }

// IsSceneMask reports whether the effect is a scene curtain (fade,
// fadewhite or rule).
func (r Resolved) IsSceneMask() bool {
	return r.Kind == Fade || r.Kind == FadeWhite || r.Kind == Rule
}

// Resolve maps a transition to a Resolved effect. Names are matched
// case-insensitively; unknown names degrade to Dissolve with the Fallback
// flag set so callers can log it. Resolve is total over well-formed
// transitions.
func Resolve(t *script.Transition) Resolved {
	if t == nil {
		return NoEffect()
	}

	r := Resolved{Easing: anim.EaseInOut}
	if d, ok := t.Duration(); ok {
		r.Duration = d
		r.HasDuration = true
	}

	switch strings.ToLower(t.Name) {
	case "dissolve":
		r.Kind = Dissolve
	case "fade":
		r.Kind = Fade
	case "fadewhite":
		r.Kind = FadeWhite
	case "rule":
		r.Kind = Rule
		r.Easing = anim.Linear
		if mask, ok := t.Mask(); ok {
			r.MaskPath = resource.Normalize(mask)
		}
		if rev, ok := t.Reversed(); ok {
			r.Reversed = rev
		}
	case "move", "slide":
		r.Kind = Move
	case "none":
		r = NoEffect()
		if d, ok := t.Duration(); ok {
			r.Duration = d
		}
	default:
		r.Kind = Dissolve
		r.Fallback = true
	}
	return r
}

// Target names the render-state object an effect request animates.
type Target interface {
	isTarget()
}

// BackgroundTransition cross-fades from the old background to the current
// one. Old is empty on the very first background.
type BackgroundTransition struct {
	Old string
}

// CharacterShow fades a sprite in.
type CharacterShow struct {
	Alias string
}

// CharacterHide fades a sprite out; the host removes it afterwards.
type CharacterHide struct {
	Alias string
}

// CharacterMove slides a sprite between stage positions.
type CharacterMove struct {
	Alias string
	From  script.Position
	To    script.Position
}

func (BackgroundTransition) isTarget() {}
func (CharacterShow) isTarget()        {}
func (CharacterHide) isTarget()        {}
func (CharacterMove) isTarget()        {}

// Request asks the host to start an animation after command execution has
// finished mutating render state.
type Request struct {
	Target Target
	Effect Resolved
}
