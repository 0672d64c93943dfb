package render

import (
	"nitro-vn/internal/anim"
	"nitro-vn/internal/effect"
)

// Property keys for the background cross-fade in the value-cache animation
// mode.
const (
	keyBackgroundAlpha    = "background.alpha"
	keyOldBackgroundAlpha = "_old_background.alpha"
)

// BackgroundTransition cross-dissolves the old background into the new one.
// It owns a small value-mode animation system driving two alphas: the old
// background fading out while the new fades in.
type BackgroundTransition struct {
	system  *anim.System
	oldPath string
	active  bool
}

// NewBackgroundTransition creates an idle manager.
func NewBackgroundTransition() *BackgroundTransition {
	return &BackgroundTransition{system: anim.NewSystem()}
}

// Start begins a cross-dissolve away from oldPath. The render state already
// holds the new background; the effect only supplies timing.
func (b *BackgroundTransition) Start(oldPath string, resolved effect.Resolved) {
	b.system.SkipAll()
	b.system.Update(0)

	if resolved.Kind == effect.None {
		b.active = false
		b.oldPath = ""
		return
	}

	duration := resolved.DurationOr(effect.DefaultDissolveDuration)
	if duration < 0.01 {
		duration = 0.01
	}
	b.oldPath = oldPath
	b.active = true
	b.system.Animate(keyOldBackgroundAlpha, 1, 0, duration, anim.EaseInOutQuad)
	b.system.Animate(keyBackgroundAlpha, 0, 1, duration, anim.EaseInOutQuad)
}

// Update advances the dissolve and reports whether it is still running.
func (b *BackgroundTransition) Update(dt float64) bool {
	b.system.Update(dt)
	if b.active && !b.system.HasActive() {
		b.active = false
		b.oldPath = ""
	}
	return b.active
}

// Skip jumps both alphas to their final values.
func (b *BackgroundTransition) Skip() {
	b.system.SkipAll()
	b.system.Update(0)
	b.active = false
	b.oldPath = ""
}

// IsActive reports whether a dissolve is in flight.
func (b *BackgroundTransition) IsActive() bool { return b.active }

// OldPath returns the background fading out.
func (b *BackgroundTransition) OldPath() string { return b.oldPath }

// NewAlpha returns the incoming background's opacity.
func (b *BackgroundTransition) NewAlpha() float64 {
	if !b.active {
		return 1
	}
	return b.system.ValueOr(keyBackgroundAlpha, 1)
}

// OldAlpha returns the outgoing background's opacity.
func (b *BackgroundTransition) OldAlpha() float64 {
	if !b.active {
		return 0
	}
	return b.system.ValueOr(keyOldBackgroundAlpha, 0)
}
