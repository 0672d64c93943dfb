package clock

import (
	"testing"
	"time"
)

func TestTickClampsDelta(t *testing.T) {
	c := NewFrameClock()
	base := time.Unix(1000, 0)

	if dt := c.Tick(base); dt != 0 {
		t.Errorf("first tick = %v", dt)
	}
	if dt := c.Tick(base.Add(16 * time.Millisecond)); dt < 0.015 || dt > 0.017 {
		t.Errorf("normal tick = %v", dt)
	}
	// A long stall clamps to the cap.
	if dt := c.Tick(base.Add(5 * time.Second)); dt != maxFrameDelta {
		t.Errorf("stalled tick = %v", dt)
	}
	// Clock going backwards yields zero, not a negative step.
	if dt := c.Tick(base); dt != 0 {
		t.Errorf("backwards tick = %v", dt)
	}
}

func TestFPSEstimate(t *testing.T) {
	c := NewFrameClock()
	now := time.Unix(1000, 0)
	c.Tick(now)
	for i := 0; i < 100; i++ {
		now = now.Add(16666 * time.Microsecond)
		c.Tick(now)
	}
	if fps := c.FPS(); fps < 55 || fps > 65 {
		t.Errorf("fps = %v", fps)
	}
}

func TestPlayTimeAccumulation(t *testing.T) {
	c := NewFrameClock()
	base := time.Unix(2000, 0)

	c.ResetPlay(base)
	if got := c.PlaySeconds(base.Add(90 * time.Second)); got != 90 {
		t.Errorf("play seconds = %d", got)
	}

	// Pausing banks time; paused intervals do not count.
	c.PausePlay(base.Add(100 * time.Second))
	if got := c.PlaySeconds(base.Add(500 * time.Second)); got != 100 {
		t.Errorf("paused play seconds = %d", got)
	}
	c.StartPlay(base.Add(500 * time.Second))
	if got := c.PlaySeconds(base.Add(510 * time.Second)); got != 110 {
		t.Errorf("resumed play seconds = %d", got)
	}
}

func TestSetPlayedSeedsFromSave(t *testing.T) {
	c := NewFrameClock()
	base := time.Unix(3000, 0)
	c.SetPlayed(345, base)
	if got := c.PlaySeconds(base.Add(15 * time.Second)); got != 360 {
		t.Errorf("seeded play seconds = %d", got)
	}
}
