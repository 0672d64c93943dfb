package app

import (
	"nitro-vn/internal/texture"
)

// FrameSnapshot is the read-only per-frame state handed to the debug
// overlay and to any external shell.
type FrameSnapshot struct {
	Mode     Mode
	PlayMode PlayMode
	Debug    bool

	FPS             float64
	CacheStats      texture.Stats
	ActiveAnimCount int

	ScriptID     string
	NodeIndex    int
	Waiting      string
	ChapterTitle string
	Finished     bool
}

// Snapshot captures the frame's diagnostic state.
func (a *App) Snapshot() FrameSnapshot {
	snap := FrameSnapshot{
		Mode:            a.Mode,
		PlayMode:        a.PlayMode,
		Debug:           a.Debug,
		FPS:             a.Clock.FPS(),
		CacheStats:      a.Cache.Stats(),
		ActiveAnimCount: a.Anim.ActiveCount(),
		ChapterTitle:    a.chapterTitle,
		Finished:        a.finished,
	}
	if a.Engine != nil {
		state := a.Engine.State()
		snap.ScriptID = state.Position.ScriptID
		snap.NodeIndex = state.Position.NodeIndex
		snap.Waiting = state.Waiting.String()
	}
	return snap
}
