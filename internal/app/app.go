// Package app is the per-frame orchestrator: it owns every subsystem, runs
// the fixed update pipeline (input, runtime tick, command execution, effect
// launch, animation, rendering), and carries the cross-cutting state the
// pipeline needs (modes, timers, history, toasts).
package app

import (
	"fmt"
	"path"
	"strings"

	"nitro-vn/internal/anim"
	"nitro-vn/internal/audio"
	"nitro-vn/internal/clock"
	"nitro-vn/internal/config"
	"nitro-vn/internal/diag"
	"nitro-vn/internal/input"
	"nitro-vn/internal/logging"
	"nitro-vn/internal/manifest"
	"nitro-vn/internal/render"
	"nitro-vn/internal/resource"
	"nitro-vn/internal/runtime"
	"nitro-vn/internal/save"
	"nitro-vn/internal/scene"
	"nitro-vn/internal/script"
	"nitro-vn/internal/texture"
)

// Mode is the top-level screen the app is showing.
type Mode int

const (
	ModeTitle Mode = iota
	ModeInGame
	ModeInGameMenu
	ModeSaveLoad
	ModeSettings
	ModeHistory
)

// PlayMode is the in-game advance behavior.
type PlayMode int

const (
	PlayNormal PlayMode = iota
	PlayAuto
	PlaySkip
)

// Toast is a transient notification line.
type Toast struct {
	Message  string
	TimeLeft float64
}

// App aggregates every subsystem. Update mutates it through a fixed
// pipeline; nothing else holds mutable references.
type App struct {
	Config   config.AppConfig
	Settings config.UserSettings

	Log      *logging.Logger
	Source   resource.Source
	Cache    *texture.Cache
	Manifest *manifest.Manifest
	Store    *save.Store

	Engine   *runtime.Engine
	Executor *render.Executor
	Render   *render.State
	Renderer *render.Renderer

	Background *render.BackgroundTransition
	Scene      *scene.Manager
	Anim       *anim.System
	Audio      *audio.Engine
	Input      *input.System
	Clock      *clock.FrameClock

	History *save.History

	Mode     Mode
	PlayMode PlayMode
	Debug    bool

	script       *script.Script
	scriptPath   string
	chapterTitle string

	typewriterTimer float64
	autoTimer       float64

	// characterObjects maps alias to the animation-system registration of
	// its sprite handle.
	characterObjects map[string]anim.ObjectID

	toasts   []Toast
	finished bool
}

// New assembles an app from its collaborators. surface may be nil in tests
// that never call Draw through a real renderer.
func New(cfg config.AppConfig, settings config.UserSettings, source resource.Source,
	surface render.Surface, player audio.Player, log *logging.Logger) (*App, error) {

	m := manifest.Default()
	if cfg.ManifestPath != "" {
		loaded, err := manifest.Load(cfg.ManifestPath)
		if err != nil {
			if log != nil {
				log.Logf(logging.ComponentApp, logging.LevelWarning, "manifest: %v", err)
			}
		} else {
			m = loaded
			for _, w := range m.Validate() {
				if log != nil {
					log.Logf(logging.ComponentApp, logging.LevelWarning, "manifest: %s", w)
				}
			}
		}
	}

	cache := texture.NewCache(cfg.Resources.TextureCacheSizeMB, log)
	a := &App{
		Config:           cfg,
		Settings:         settings,
		Log:              log,
		Source:           source,
		Cache:            cache,
		Manifest:         m,
		Store:            save.NewStore(cfg.SavesDir),
		Executor:         render.NewExecutor(log),
		Render:           render.NewState(),
		Background:       render.NewBackgroundTransition(),
		Scene:            scene.NewManager(),
		Anim:             anim.NewSystem(),
		Audio:            audio.NewEngine(source, player, log),
		Input:            input.NewSystem(),
		Clock:            clock.NewFrameClock(),
		History:          save.NewHistory(),
		Mode:             ModeTitle,
		characterObjects: make(map[string]anim.ObjectID),
	}
	if surface != nil {
		a.Renderer = render.NewRenderer(surface, cache, source, m, nil, log)
	}

	a.Audio.SetBGMVolume(settings.BGMVolume * cfg.Audio.Master)
	a.Audio.SetSFXVolume(settings.SFXVolume * cfg.Audio.Master)
	a.Audio.SetMuted(settings.Muted || cfg.Audio.Muted)
	return a, nil
}

func (a *App) logf(level logging.Level, format string, args ...any) {
	if a.Log != nil {
		a.Log.Logf(logging.ComponentApp, level, format, args...)
	}
}

// PushToast shows a transient notification.
func (a *App) PushToast(message string) {
	a.toasts = append(a.toasts, Toast{Message: message, TimeLeft: 3})
}

// Toasts returns the live notifications.
func (a *App) Toasts() []Toast { return a.toasts }

// LoadScript parses a script file from the asset source and starts the
// engine at its beginning.
func (a *App) LoadScript(scriptPath string) error {
	logical := resource.Normalize(scriptPath)
	data, err := a.Source.Read(logical)
	if err != nil {
		return fmt.Errorf("app: script %s: %w", logical, err)
	}

	parser := script.NewParser()
	parsed, err := parser.ParseWithBasePath(scriptID(logical), string(data), scriptBase(logical))
	if err != nil {
		return fmt.Errorf("app: script %s: %w", logical, err)
	}
	for _, w := range parsed.Warnings() {
		a.logf(logging.LevelWarning, "%s:%d: %s", logical, w.Line, w.Message)
	}

	if a.Config.Debug.ScriptCheck {
		result := diag.CheckScript(parsed, a.Source)
		for _, d := range result.Diagnostics {
			level := logging.LevelWarning
			if d.Level == diag.LevelError {
				level = logging.LevelError
			}
			a.logf(level, "check: %s", d)
		}
	}

	a.installScript(parsed, logical, runtime.NewEngine(parsed, logical))
	return nil
}

// installScript resets per-script state around a fresh or restored engine.
func (a *App) installScript(parsed *script.Script, logical string, engine *runtime.Engine) {
	a.script = parsed
	a.scriptPath = logical
	a.Engine = engine
	a.finished = false
	a.chapterTitle = ""
	a.typewriterTimer = 0
	a.autoTimer = 0

	a.Render = render.NewState()
	a.Background = render.NewBackgroundTransition()
	a.Scene = scene.NewManager()
	for alias, id := range a.characterObjects {
		a.Anim.Unregister(id)
		delete(a.characterObjects, alias)
	}
	if a.Renderer != nil {
		a.Renderer.SetResolver(func(authored string) string {
			return resource.Normalize(parsed.ResolvePath(authored))
		})
	}
}

// Script returns the running script, or nil.
func (a *App) Script() *script.Script { return a.script }

// ScriptPath returns the running script's logical path.
func (a *App) ScriptPath() string { return a.scriptPath }

// ChapterTitle returns the last seen chapter heading.
func (a *App) ChapterTitle() string { return a.chapterTitle }

// IsFinished reports whether the script ran to its end.
func (a *App) IsFinished() bool { return a.finished }

// resolveAsset maps an authored path through the script base to a logical
// path.
func (a *App) resolveAsset(authored string) string {
	if a.script != nil {
		return resource.Normalize(a.script.ResolvePath(authored))
	}
	return resource.Normalize(authored)
}

// scriptID derives a script's id from its filename.
func scriptID(logical string) string {
	return strings.TrimSuffix(path.Base(logical), path.Ext(logical))
}

// scriptBase is the directory assets resolve against, empty at the root.
func scriptBase(logical string) string {
	base := path.Dir(logical)
	if base == "." {
		return ""
	}
	return base
}
