package ui

import (
	"time"

	"nitro-vn/internal/app"
)

// Run drives the frame loop until the window closes: poll events, update
// the app, present, and recycle finished audio buffers. Present blocks on
// vsync, which paces the loop.
func Run(a *app.App, window *Window, player *Player) error {
	pump := NewEventPump()

	for !pump.QuitRequested() {
		snapshot := pump.Poll()
		if err := a.Frame(time.Now(), snapshot); err != nil {
			return err
		}
		window.Present()
		player.Pump()
	}

	// Preserve the session for "continue" before closing, when a game is
	// running.
	if a.Mode == app.ModeInGame || a.Mode == app.ModeInGameMenu {
		if err := a.SaveContinue(); err != nil {
			return err
		}
	}
	return nil
}
