// Package clock paces the frame loop: it clamps wall-clock deltas into
// simulation steps, tracks a smoothed FPS for the debug overlay, and
// accumulates play time for save metadata.
package clock

import "time"

// maxFrameDelta caps a single simulation step so a stall (window drag,
// debugger pause) does not teleport every animation to its end.
const maxFrameDelta = 0.1

// fpsSmoothing is the exponential moving average weight for FPS display.
const fpsSmoothing = 0.1

// FrameClock converts wall-clock time into bounded per-frame deltas.
type FrameClock struct {
	last    time.Time
	started bool

	fps float64

	playing   bool
	playStart time.Time
	playAccum time.Duration
}

// NewFrameClock creates an unstarted clock; the first Tick returns 0.
func NewFrameClock() *FrameClock {
	return &FrameClock{}
}

// Tick returns the clamped delta since the previous call, in seconds.
func (c *FrameClock) Tick(now time.Time) float64 {
	if !c.started {
		c.started = true
		c.last = now
		return 0
	}
	dt := now.Sub(c.last).Seconds()
	c.last = now
	if dt < 0 {
		dt = 0
	}
	if dt > maxFrameDelta {
		dt = maxFrameDelta
	}
	if dt > 0 {
		c.fps = c.fps*(1-fpsSmoothing) + (1/dt)*fpsSmoothing
	}
	return dt
}

// FPS returns the smoothed frames-per-second estimate.
func (c *FrameClock) FPS() float64 { return c.fps }

// StartPlay begins (or resumes) the play-time counter.
func (c *FrameClock) StartPlay(now time.Time) {
	if !c.playing {
		c.playing = true
		c.playStart = now
	}
}

// PausePlay suspends the counter, banking the elapsed time.
func (c *FrameClock) PausePlay(now time.Time) {
	if c.playing {
		c.playAccum += now.Sub(c.playStart)
		c.playing = false
	}
}

// ResetPlay zeroes the counter, used when a new game begins. Loads seed
// the counter with SetPlayed instead.
func (c *FrameClock) ResetPlay(now time.Time) {
	c.playAccum = 0
	c.playStart = now
	c.playing = true
}

// SetPlayed seeds the counter from a loaded save.
func (c *FrameClock) SetPlayed(seconds uint64, now time.Time) {
	c.playAccum = time.Duration(seconds) * time.Second
	c.playStart = now
	c.playing = true
}

// PlaySeconds reports total play time in whole seconds.
func (c *FrameClock) PlaySeconds(now time.Time) uint64 {
	total := c.playAccum
	if c.playing {
		total += now.Sub(c.playStart)
	}
	if total < 0 {
		return 0
	}
	return uint64(total / time.Second)
}
