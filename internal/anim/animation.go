package anim

// AnimationID identifies a live animation instance.
type AnimationID uint64

// State is the lifecycle state of an animation.
type State int

const (
	Pending State = iota
	Playing
	Paused
	Completed
	Skipped
)

// IsActive reports whether the animation still wants updates.
func (s State) IsActive() bool { return s == Pending || s == Playing }

// IsFinished reports whether the animation reached a terminal state.
func (s State) IsFinished() bool { return s == Completed || s == Skipped }

// Animation tweens one scalar from From to To over Duration seconds.
// Progress is the eased progress in [0,1]; the current value derives from it.
type Animation struct {
	ID       AnimationID
	From     float64
	To       float64
	Duration float64
	Easing   Easing
	Delay    float64
	State    State
	Progress float64
	// Skippable animations respond to Skip; ForceComplete ignores the flag.
	Skippable bool

	elapsed float64
}

// newAnimation builds an animation in its initial state. A non-positive
// duration completes immediately at progress 1.
func newAnimation(id AnimationID, from, to, duration float64, easing Easing) *Animation {
	a := &Animation{
		ID:        id,
		From:      from,
		To:        to,
		Duration:  duration,
		Easing:    easing,
		State:     Pending,
		Skippable: true,
	}
	if duration <= 0 {
		a.Duration = 0
		a.Progress = 1
		a.State = Completed
	}
	return a
}

// Update advances the animation by dt seconds and reports whether it is
// still running.
func (a *Animation) Update(dt float64) bool {
	switch a.State {
	case Pending:
		a.elapsed += dt
		if a.elapsed < a.Delay {
			return true
		}
		a.State = Playing
		a.elapsed -= a.Delay
		return a.advance()
	case Playing:
		a.elapsed += dt
		return a.advance()
	case Paused:
		return true
	default:
		return false
	}
}

func (a *Animation) advance() bool {
	if a.Duration <= 0 {
		a.Progress = 1
		a.State = Completed
		return false
	}
	raw := a.elapsed / a.Duration
	if raw >= 1 {
		a.Progress = 1
		a.State = Completed
		return false
	}
	a.Progress = a.Easing.Apply(raw)
	return true
}

// Skip jumps to the final value if the animation is skippable and active.
func (a *Animation) Skip() {
	if a.Skippable && a.State.IsActive() {
		a.Progress = 1
		a.State = Skipped
	}
}

// ForceComplete jumps to the final value regardless of skippability.
func (a *Animation) ForceComplete() {
	if !a.State.IsFinished() {
		a.Progress = 1
		a.State = Completed
	}
}

// Pause suspends a playing animation.
func (a *Animation) Pause() {
	if a.State == Playing {
		a.State = Paused
	}
}

// Resume continues a paused animation.
func (a *Animation) Resume() {
	if a.State == Paused {
		a.State = Playing
	}
}

// Current returns the interpolated value at the present progress.
func (a *Animation) Current() float64 {
	return a.From + (a.To-a.From)*a.Progress
}
