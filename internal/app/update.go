package app

import (
	"fmt"
	"time"

	"nitro-vn/internal/anim"
	"nitro-vn/internal/effect"
	"nitro-vn/internal/input"
	"nitro-vn/internal/logging"
	"nitro-vn/internal/render"
	"nitro-vn/internal/runtime"
	"nitro-vn/internal/save"
)

// Chapter mark timeline: fade in, hold, fade out, in seconds.
const (
	chapterFadeIn  = 0.5
	chapterHold    = 2.0
	chapterFadeOut = 0.5
)

// Frame runs one whole frame: pacing, update, draw, cache unpinning.
func (a *App) Frame(now time.Time, snapshot input.Snapshot) error {
	dt := a.Clock.Tick(now)
	if err := a.Update(dt, snapshot); err != nil {
		return err
	}
	a.Draw()
	a.Cache.UnpinAll()
	return nil
}

// Update advances all simulation by dt with the frame's latched input.
func (a *App) Update(dt float64, snapshot input.Snapshot) error {
	a.Input.Latch(snapshot)
	a.updateToasts(dt)

	switch a.Mode {
	case ModeInGame:
		return a.updateInGame(dt, snapshot)
	case ModeTitle:
		a.updateTitle(snapshot)
	case ModeInGameMenu, ModeSaveLoad, ModeSettings, ModeHistory:
		// The widget screens are external; the core only honors escape
		// back into the game.
		if snapshot.EscPressed && a.Engine != nil && !a.Engine.IsFinished() {
			a.Mode = ModeInGame
		}
	}
	a.Audio.Update(dt)
	return nil
}

// updateTitle lets confirm start the configured script.
func (a *App) updateTitle(snapshot input.Snapshot) {
	if !snapshot.ConfirmPressed && !snapshot.MouseClicked {
		return
	}
	if err := a.LoadScript(a.Config.StartScriptPath); err != nil {
		a.logf(logging.LevelError, "start: %v", err)
		a.PushToast("script failed to load")
		return
	}
	a.Mode = ModeInGame
	a.Clock.ResetPlay(time.Now())
}

func (a *App) updateInGame(dt float64, snapshot input.Snapshot) error {
	// Global keys first.
	if snapshot.EscPressed {
		a.PlayMode = PlayNormal
		a.Mode = ModeInGameMenu
		return nil
	}
	if snapshot.DebugPressed {
		a.Debug = !a.Debug
	}
	if snapshot.AutoPressed {
		if a.PlayMode == PlayAuto {
			a.PlayMode = PlayNormal
		} else {
			a.PlayMode = PlayAuto
		}
		a.autoTimer = 0
	}

	// Ctrl held is authoritative skip; releasing it restores the previous
	// toggle state.
	effectiveMode := a.PlayMode
	if snapshot.CtrlHeld {
		effectiveMode = PlaySkip
	}

	in := a.collectInput(effectiveMode, dt)

	if in != nil {
		// A click first collapses busy presentation state before it may
		// reach the runtime.
		if a.absorbClick(in) {
			in = nil
		}
	}

	if in != nil || !a.Engine.Waiting().IsWaiting() {
		if err := a.tickRuntime(in); err != nil {
			a.logf(logging.LevelError, "runtime: %v", err)
			a.PushToast("script error, returning to title")
			a.Mode = ModeTitle
			return nil
		}
	}

	// Fixed post-tick order: executor timer, background dissolve, scene
	// transition, animations.
	a.Executor.UpdateTransition(dt)
	a.Background.Update(dt)
	a.Scene.Update(dt)
	a.Anim.Update(dt)

	a.applySceneMidpoint()
	a.updateTypewriter(dt)
	a.cleanupCharacters()
	a.updateChapterMark(dt)
	a.Audio.Update(dt)

	if a.Engine.IsFinished() && !a.finished {
		a.finished = true
		a.logf(logging.LevelInfo, "script %s finished", a.scriptPath)
		a.Mode = ModeTitle
	}
	return nil
}

// collectInput produces this frame's runtime input per the effective mode.
func (a *App) collectInput(mode PlayMode, dt float64) runtime.Input {
	waiting := a.Engine.Waiting()

	switch mode {
	case PlaySkip:
		// Skip collapses everything then advances on every click wait.
		a.Anim.SkipAll()
		if a.Scene.IsActive() {
			a.Scene.SkipCurrentPhase()
		}
		a.Background.Skip()
		a.Executor.SkipTransition()
		if a.Render.Dialogue != nil {
			a.Render.Dialogue.IsComplete = true
			a.Render.Dialogue.VisibleChars = len([]rune(a.Render.Dialogue.Content))
		}
		if waiting.Kind == runtime.WaitForClick {
			return runtime.Click{}
		}
		return a.Input.Update(waiting, dt)

	case PlayAuto:
		if waiting.Kind == runtime.WaitForClick &&
			a.Render.IsDialogueComplete() &&
			!a.presentationBusy() {
			a.autoTimer += dt
			if a.autoTimer >= a.Settings.AutoDelay {
				a.autoTimer = 0
				return runtime.Click{}
			}
			return nil
		}
		a.autoTimer = 0
		return a.Input.Update(waiting, dt)

	default:
		return a.Input.Update(waiting, dt)
	}
}

// presentationBusy reports whether anything time-varying is mid-flight.
func (a *App) presentationBusy() bool {
	return a.Anim.HasActive() ||
		a.Background.IsActive() ||
		a.Scene.IsActive() ||
		a.Executor.IsTransitionActive()
}

// absorbClick spends a click on busy presentation state: skip animations,
// skip the transition phase, or complete the typewriter. Returns true when
// the click was consumed.
func (a *App) absorbClick(in runtime.Input) bool {
	if _, isClick := in.(runtime.Click); !isClick {
		return false
	}

	if a.Scene.IsActive() {
		a.Scene.SkipCurrentPhase()
		return true
	}
	if a.Background.IsActive() || a.Executor.IsTransitionActive() {
		a.Background.Skip()
		a.Executor.SkipTransition()
		return true
	}
	if a.Anim.HasActive() {
		a.Anim.SkipAll()
		return true
	}
	if a.Render.Dialogue != nil && !a.Render.Dialogue.IsComplete {
		a.Render.Dialogue.VisibleChars = len([]rune(a.Render.Dialogue.Content))
		a.Render.Dialogue.IsComplete = true
		return true
	}
	return false
}

// tickRuntime forwards at most one input, executes the emitted commands,
// and launches their side effects.
func (a *App) tickRuntime(in runtime.Input) error {
	commands, _, err := a.Engine.Tick(in)
	if err != nil {
		return err
	}

	if selected, ok := in.(runtime.ChoiceSelected); ok {
		if choices := a.Render.Choices; choices != nil && selected.Index < len(choices.Items) {
			options := make([]string, len(choices.Items))
			for i, item := range choices.Items {
				options[i] = item.Text
			}
			a.History.Push(save.ChoiceEvent(options, selected.Index))
		}
		a.Render.ClearChoices()
	}

	for _, cmd := range commands {
		a.Executor.Execute(cmd, a.Render, a.Source)
		a.recordHistory(cmd)
		a.applyOutput(a.Executor.LastOutput)
	}
	return nil
}

// recordHistory appends the command's history event, when it has one.
func (a *App) recordHistory(cmd runtime.Command) {
	switch c := cmd.(type) {
	case *runtime.ShowText:
		a.History.Push(save.DialogueEvent(c.Speaker, c.Content))
	case *runtime.ChapterMark:
		a.chapterTitle = c.Title
		a.History.Push(save.ChapterEvent(c.Title))
	case *runtime.ShowBackground:
		a.History.Push(save.BackgroundEvent(c.Path))
	case *runtime.ChangeScene:
		a.History.Push(save.BackgroundEvent(c.Path))
	case *runtime.PlayBgm:
		a.History.Push(save.BgmEvent(c.Path))
	case *runtime.StopBgm:
		a.History.Push(save.BgmEvent(""))
	}
}

// applyOutput walks one command's side channel: audio, scene transition,
// then effect requests. Effects start after the command finished mutating
// state, so targets are already in place.
func (a *App) applyOutput(out render.Output) {
	if out.Audio != nil {
		req := *out.Audio
		req.Path = a.resolveAsset(req.Path)
		a.Audio.Apply(&req)
	}
	if out.Scene != nil {
		cmd := *out.Scene
		cmd.MaskPath = a.resolveAsset(cmd.MaskPath)
		a.Scene.Start(&cmd)
	}
	if waiting := a.Engine.Waiting(); waiting.Kind == runtime.WaitForChoice {
		a.Input.ResetChoice(waiting.ChoiceCount)
	}
	for _, req := range out.Effects {
		a.launchEffect(req)
	}
}

// launchEffect starts the animation a request asks for.
func (a *App) launchEffect(req effect.Request) {
	switch target := req.Target.(type) {
	case effect.BackgroundTransition:
		a.Background.Start(target.Old, req.Effect)

	case effect.CharacterShow:
		sprite := a.Render.VisibleCharacters[target.Alias]
		if sprite == nil {
			return
		}
		id := a.ensureRegistered(target.Alias, sprite)
		duration := req.Effect.DurationOr(effect.DefaultCharacterDuration)
		if req.Effect.Kind == effect.None {
			duration = 0
		}
		if _, err := a.Anim.AnimateObject(id, "alpha", 0, 1, duration, req.Effect.Easing); err != nil {
			a.logf(logging.LevelWarning, "show %s: %v", target.Alias, err)
		}

	case effect.CharacterHide:
		sprite := a.Render.VisibleCharacters[target.Alias]
		if sprite == nil {
			return
		}
		id := a.ensureRegistered(target.Alias, sprite)
		duration := req.Effect.DurationOr(effect.DefaultCharacterDuration)
		if _, err := a.Anim.AnimateObject(id, "alpha", sprite.Alpha(), 0, duration, req.Effect.Easing); err != nil {
			a.logf(logging.LevelWarning, "hide %s: %v", target.Alias, err)
		}

	case effect.CharacterMove:
		sprite := a.Render.VisibleCharacters[target.Alias]
		if sprite == nil {
			return
		}
		id := a.ensureRegistered(target.Alias, sprite)
		from := a.Manifest.PresetFor(string(target.From))
		to := a.Manifest.PresetFor(string(target.To))
		duration := req.Effect.DurationOr(effect.DefaultMoveDuration)
		if _, err := a.Anim.AnimateObject(id, "position_x", from.X, to.X, duration, req.Effect.Easing); err != nil {
			a.logf(logging.LevelWarning, "move %s: %v", target.Alias, err)
		}
		if _, err := a.Anim.AnimateObject(id, "position_y", from.Y, to.Y, duration, req.Effect.Easing); err != nil {
			a.logf(logging.LevelWarning, "move %s: %v", target.Alias, err)
		}
	}
}

// ensureRegistered registers a sprite handle with the animation system,
// re-registering when the alias was rebound to a fresh sprite.
func (a *App) ensureRegistered(alias string, sprite *render.CharacterSprite) anim.ObjectID {
	if id, ok := a.characterObjects[alias]; ok {
		if obj, live := a.Anim.Object(id); live {
			if obj == anim.Animatable(sprite) {
				return id
			}
		}
		a.Anim.Unregister(id)
	}
	id := a.Anim.Register(sprite)
	a.characterObjects[alias] = id
	return id
}

// applySceneMidpoint performs the once-per-transition background swap and
// restores the UI when the UI fade-in phase begins.
func (a *App) applySceneMidpoint() {
	if a.Scene.IsAtMidpoint() {
		if pending, ok := a.Scene.TakePendingBackground(); ok {
			a.Render.SetBackground(pending)
		}
	}
	if a.Scene.IsUIFadingIn() && !a.Render.UIVisible {
		a.Render.UIVisible = true
	}
}

// updateTypewriter reveals dialogue text at the configured speed.
func (a *App) updateTypewriter(dt float64) {
	d := a.Render.Dialogue
	if d == nil || d.IsComplete {
		return
	}
	total := len([]rune(d.Content))
	a.typewriterTimer += dt * a.Settings.TextSpeed
	for a.typewriterTimer >= 1 && d.VisibleChars < total {
		d.VisibleChars++
		a.typewriterTimer--
	}
	if d.VisibleChars >= total {
		d.IsComplete = true
		a.typewriterTimer = 0
	}
}

// cleanupCharacters removes sprites whose hide animation bottomed out.
func (a *App) cleanupCharacters() {
	for alias, sprite := range a.Render.VisibleCharacters {
		if sprite.FadingOut && sprite.Alpha() <= 0.01 {
			a.Render.HideCharacter(alias)
			if id, ok := a.characterObjects[alias]; ok {
				a.Anim.Unregister(id)
				delete(a.characterObjects, alias)
			}
		}
	}
}

// updateChapterMark drives the heading overlay's fade-hold-fade timeline.
func (a *App) updateChapterMark(dt float64) {
	mark := a.Render.ChapterMark
	if mark == nil {
		return
	}
	mark.Timer += dt
	switch {
	case mark.Timer < chapterFadeIn:
		mark.Alpha = mark.Timer / chapterFadeIn
	case mark.Timer < chapterFadeIn+chapterHold:
		mark.Alpha = 1
	case mark.Timer < chapterFadeIn+chapterHold+chapterFadeOut:
		mark.Alpha = 1 - (mark.Timer-chapterFadeIn-chapterHold)/chapterFadeOut
	default:
		a.Render.ClearChapterMark()
	}
}

func (a *App) updateToasts(dt float64) {
	kept := a.toasts[:0]
	for _, toast := range a.toasts {
		toast.TimeLeft -= dt
		if toast.TimeLeft > 0 {
			kept = append(kept, toast)
		}
	}
	a.toasts = kept
}

// Draw renders the frame when a renderer is attached.
func (a *App) Draw() {
	if a.Renderer == nil {
		return
	}
	a.Renderer.Draw(a.Render, a.Background, a.Scene)

	messages := make([]string, len(a.toasts))
	for i, toast := range a.toasts {
		messages[i] = toast.Message
	}
	var debugLines []string
	if a.Debug {
		snap := a.Snapshot()
		debugLines = []string{
			fmt.Sprintf("fps %.0f  anims %d", snap.FPS, snap.ActiveAnimCount),
			snap.CacheStats.String(),
			fmt.Sprintf("%s@%d %s", snap.ScriptID, snap.NodeIndex, snap.Waiting),
		}
	}
	a.Renderer.DrawOverlay(messages, debugLines)
}
