// Package audio manages BGM and SFX playback policy: one BGM slot, volume
// and mute, and a fade state machine for fade-in, fade-out and cross-fade.
// Decoding and output are the platform Player's problem; the engine only
// decides what plays at which volume.
package audio

import (
	"nitro-vn/internal/logging"
	"nitro-vn/internal/resource"
)

// Track is a live piece of playing music.
type Track interface {
	SetVolume(v float64)
	Stop()
}

// Player is the external collaborator that decodes and outputs audio. It
// receives the logical path plus the raw bytes so implementations can either
// stream from a temp file or decode in memory.
type Player interface {
	StartTrack(path string, data []byte, looping bool, volume float64) (Track, error)
	PlayOneShot(path string, data []byte, volume float64) error
}

// RequestKind classifies audio requests emitted by the command executor.
type RequestKind int

const (
	RequestPlayBGM RequestKind = iota
	RequestStopBGM
	RequestPlaySFX
)

// Request is the executor's audio side-channel payload.
type Request struct {
	Kind    RequestKind
	Path    string
	Looping bool
	// FadeOut seconds for RequestStopBGM; 0 stops immediately.
	FadeOut float64
}

type fadeKind int

const (
	fadeNone fadeKind = iota
	fadeIn
	fadeOut
)

// fadeState tracks an in-flight fade. Rate is volume units per second.
type fadeState struct {
	kind      fadeKind
	target    float64
	current   float64
	rate      float64
	stopAfter bool
	// next queues the BGM a cross-fade starts once the fade-out lands.
	nextPath    string
	nextLooping bool
	hasNext     bool
}

// Engine is the audio policy state machine. Update(dt) advances fades;
// transitions apply at the frame boundary, never mid-callback.
type Engine struct {
	source resource.Source
	player Player
	log    *logging.Logger

	track       Track
	currentPath string
	looping     bool

	bgmVolume float64
	sfxVolume float64
	muted     bool

	fade fadeState
}

// NewEngine wires the engine to its collaborators. The logger may be nil.
func NewEngine(source resource.Source, player Player, log *logging.Logger) *Engine {
	return &Engine{
		source:    source,
		player:    player,
		log:       log,
		bgmVolume: 1,
		sfxVolume: 1,
	}
}

func (e *Engine) warnf(format string, args ...any) {
	if e.log != nil {
		e.log.Logf(logging.ComponentAudio, logging.LevelWarning, format, args...)
	}
}

// effectiveBGMVolume is 0 when muted, else the BGM volume.
func (e *Engine) effectiveBGMVolume() float64 {
	if e.muted {
		return 0
	}
	return e.bgmVolume
}

func (e *Engine) effectiveSFXVolume() float64 {
	if e.muted {
		return 0
	}
	return e.sfxVolume
}

// PlayBGM stops the current track and starts a new one. With fadeInSecs > 0
// the track starts silent and ramps to the effective volume.
func (e *Engine) PlayBGM(path string, looping bool, fadeInSecs float64) {
	logical := resource.Normalize(path)

	if e.track != nil {
		e.track.Stop()
		e.track = nil
	}
	e.fade = fadeState{}

	data, err := e.source.Read(logical)
	if err != nil {
		e.warnf("bgm %s: %v", logical, err)
		e.currentPath = ""
		return
	}

	volume := e.effectiveBGMVolume()
	initial := volume
	if fadeInSecs > 0 {
		initial = 0
	}
	track, err := e.player.StartTrack(logical, data, looping, initial)
	if err != nil {
		e.warnf("bgm %s: %v", logical, err)
		e.currentPath = ""
		return
	}

	e.track = track
	e.currentPath = logical
	e.looping = looping

	if fadeInSecs > 0 && volume > 0 {
		e.fade = fadeState{
			kind:    fadeIn,
			target:  volume,
			current: 0,
			rate:    volume / fadeInSecs,
		}
	}
}

// StopBGM stops the current track, optionally over a fade-out.
func (e *Engine) StopBGM(fadeOutSecs float64) {
	if e.track == nil {
		return
	}
	if fadeOutSecs > 0 {
		current := e.effectiveBGMVolume()
		if e.fade.kind != fadeNone {
			current = e.fade.current
		}
		if current <= 0 {
			current = 0.01
		}
		e.fade = fadeState{
			kind:      fadeOut,
			current:   current,
			rate:      current / fadeOutSecs,
			stopAfter: true,
		}
		return
	}
	e.track.Stop()
	e.track = nil
	e.currentPath = ""
	e.fade = fadeState{}
}

// CrossfadeBGM fades the current track out over the first half of duration,
// then starts the new one with an equal fade-in over the second half.
// Without a current track it plays directly with a fade-in.
func (e *Engine) CrossfadeBGM(path string, looping bool, duration float64) {
	if e.track == nil || duration <= 0 {
		e.PlayBGM(path, looping, duration)
		return
	}
	current := e.effectiveBGMVolume()
	if e.fade.kind != fadeNone {
		current = e.fade.current
	}
	if current <= 0 {
		current = 0.01
	}
	e.fade = fadeState{
		kind:        fadeOut,
		current:     current,
		rate:        current / (duration / 2),
		stopAfter:   true,
		nextPath:    path,
		nextLooping: looping,
		hasNext:     true,
	}
}

// PlaySFX plays a one-shot effect outside the BGM slot.
func (e *Engine) PlaySFX(path string) {
	logical := resource.Normalize(path)
	data, err := e.source.Read(logical)
	if err != nil {
		e.warnf("sfx %s: %v", logical, err)
		return
	}
	if err := e.player.PlayOneShot(logical, data, e.effectiveSFXVolume()); err != nil {
		e.warnf("sfx %s: %v", logical, err)
	}
}

// Apply dispatches an executor audio request.
func (e *Engine) Apply(req *Request) {
	if req == nil {
		return
	}
	switch req.Kind {
	case RequestPlayBGM:
		e.PlayBGM(req.Path, req.Looping, 0.5)
	case RequestStopBGM:
		fade := req.FadeOut
		if fade <= 0 {
			fade = 0.5
		}
		e.StopBGM(fade)
	case RequestPlaySFX:
		e.PlaySFX(req.Path)
	}
}

// Update advances the fade state machine by dt seconds.
func (e *Engine) Update(dt float64) {
	switch e.fade.kind {
	case fadeIn:
		e.fade.current += e.fade.rate * dt
		if e.fade.current >= e.fade.target {
			e.fade.current = e.fade.target
			if e.track != nil {
				e.track.SetVolume(e.fade.current)
			}
			e.fade = fadeState{}
			return
		}
		if e.track != nil {
			e.track.SetVolume(e.fade.current)
		}

	case fadeOut:
		e.fade.current -= e.fade.rate * dt
		if e.fade.current <= 0 {
			if e.track != nil && e.fade.stopAfter {
				e.track.Stop()
				e.track = nil
				e.currentPath = ""
			}
			next := e.fade
			e.fade = fadeState{}
			if next.hasNext {
				// Cross-fade second half: equal ramp up on the new track.
				fadeInDuration := 0.0
				if next.rate > 0 {
					fadeInDuration = e.effectiveBGMVolume() / next.rate
				}
				e.PlayBGM(next.nextPath, next.nextLooping, fadeInDuration)
			}
			return
		}
		if e.track != nil {
			e.track.SetVolume(e.fade.current)
		}
	}
}

// SetBGMVolume clamps and applies the BGM volume.
func (e *Engine) SetBGMVolume(v float64) {
	e.bgmVolume = clamp01(v)
	if e.track != nil && e.fade.kind == fadeNone {
		e.track.SetVolume(e.effectiveBGMVolume())
	}
}

// SetSFXVolume clamps the SFX volume.
func (e *Engine) SetSFXVolume(v float64) {
	e.sfxVolume = clamp01(v)
}

// SetMuted flips the mute flag and applies it to the live track.
func (e *Engine) SetMuted(muted bool) {
	e.muted = muted
	if e.track != nil && e.fade.kind == fadeNone {
		e.track.SetVolume(e.effectiveBGMVolume())
	}
}

// BGMVolume returns the configured BGM volume.
func (e *Engine) BGMVolume() float64 { return e.bgmVolume }

// SFXVolume returns the configured SFX volume.
func (e *Engine) SFXVolume() float64 { return e.sfxVolume }

// Muted reports the mute flag.
func (e *Engine) Muted() bool { return e.muted }

// CurrentBGM reports the playing track for save snapshots.
func (e *Engine) CurrentBGM() (path string, looping bool, ok bool) {
	if e.track == nil {
		return "", false, false
	}
	return e.currentPath, e.looping, true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
