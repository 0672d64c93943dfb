package render

import (
	"fmt"

	"nitro-vn/internal/anim"
	"nitro-vn/internal/audio"
	"nitro-vn/internal/effect"
	"nitro-vn/internal/logging"
	"nitro-vn/internal/resource"
	"nitro-vn/internal/runtime"
	"nitro-vn/internal/scene"
)

// ResultKind classifies command execution outcomes.
type ResultKind int

const (
	ResultOk ResultKind = iota
	ResultWaitForClick
	ResultWaitForChoice
	ResultWaitForTime
	ResultError
)

// ExecuteResult is the outcome of executing one command.
type ExecuteResult struct {
	Kind        ResultKind
	ChoiceCount int
	Duration    float64
	Err         error
}

func okResult() ExecuteResult { return ExecuteResult{Kind: ResultOk} }

// Output is the executor's side-channel for one command: at most one audio
// request, at most one scene transition, and any number of effect requests.
type Output struct {
	Result  ExecuteResult
	Audio   *audio.Request
	Scene   *scene.Command
	Effects []effect.Request
}

// Executor translates runtime commands into render-state mutations plus
// effect, audio and scene-transition requests. It is stateless apart from
// its last-output buffer and a coarse transition timer the app polls to
// gate input routing.
type Executor struct {
	transitionActive   bool
	transitionTimer    float64
	transitionDuration float64

	// LastOutput holds the side-channel of the most recent Execute call.
	LastOutput Output

	log *logging.Logger
}

// NewExecutor creates an executor. The logger may be nil.
func NewExecutor(log *logging.Logger) *Executor {
	return &Executor{log: log}
}

func (e *Executor) warnf(format string, args ...any) {
	if e.log != nil {
		e.log.Logf(logging.ComponentExecutor, logging.LevelWarning, format, args...)
	}
}

// Execute applies one command to the render state. Asset existence checks
// use source; missing assets degrade with a warning rather than failing.
func (e *Executor) Execute(cmd runtime.Command, state *State, source resource.Source) ExecuteResult {
	e.LastOutput = Output{}

	var result ExecuteResult
	switch c := cmd.(type) {
	case *runtime.ShowBackground:
		result = e.showBackground(c, state)
	case *runtime.ChangeScene:
		result = e.changeScene(c, state, source)
	case *runtime.ShowCharacter:
		result = e.showCharacter(c, state)
	case *runtime.HideCharacter:
		result = e.hideCharacter(c, state)
	case *runtime.ShowText:
		state.SetDialogue(c.Speaker, c.Content)
		result = ExecuteResult{Kind: ResultWaitForClick}
	case *runtime.PresentChoices:
		items := make([]ChoiceItem, len(c.Choices))
		for i, choice := range c.Choices {
			items[i] = ChoiceItem{Text: choice.Text, TargetLabel: choice.TargetLabel}
		}
		state.SetChoices(items, c.Style)
		result = ExecuteResult{Kind: ResultWaitForChoice, ChoiceCount: len(items)}
	case *runtime.ChapterMark:
		state.SetChapterMark(c.Title, c.Level)
		result = okResult()
	case *runtime.PlayBgm:
		e.LastOutput.Audio = &audio.Request{Kind: audio.RequestPlayBGM, Path: c.Path, Looping: c.Looping}
		result = okResult()
	case *runtime.StopBgm:
		e.LastOutput.Audio = &audio.Request{Kind: audio.RequestStopBGM, FadeOut: c.FadeOut}
		result = okResult()
	case *runtime.PlaySfx:
		e.LastOutput.Audio = &audio.Request{Kind: audio.RequestPlaySFX, Path: c.Path}
		result = okResult()
	case *runtime.TextBoxHide:
		state.UIVisible = false
		result = okResult()
	case *runtime.TextBoxShow:
		state.UIVisible = true
		result = okResult()
	case *runtime.TextBoxClear:
		state.ClearDialogue()
		state.ClearChoices()
		result = okResult()
	case *runtime.ClearCharacters:
		state.HideAllCharacters()
		result = okResult()
	default:
		result = ExecuteResult{Kind: ResultError, Err: fmt.Errorf("render: unknown command %T", cmd)}
	}

	e.LastOutput.Result = result
	return result
}

func (e *Executor) showBackground(cmd *runtime.ShowBackground, state *State) ExecuteResult {
	old := state.CurrentBackground
	state.SetBackground(cmd.Path)

	if cmd.Transition == nil {
		return okResult()
	}
	resolved := effect.Resolve(cmd.Transition)
	if resolved.Fallback {
		e.warnf("unknown background transition %q, using dissolve", cmd.Transition.Name)
	}
	if resolved.Kind == effect.None {
		return okResult()
	}
	e.LastOutput.Effects = append(e.LastOutput.Effects, effect.Request{
		Target: effect.BackgroundTransition{Old: old},
		Effect: resolved,
	})
	e.startTransition(resolved.DurationOr(effect.DefaultDissolveDuration))
	return okResult()
}

// changeScene is the curtain path: UI down, stage cleared, and either a
// scene-transition command (fade/fadewhite/rule) whose mid-point swaps the
// background, or an immediate swap with a dissolve.
func (e *Executor) changeScene(cmd *runtime.ChangeScene, state *State, source resource.Source) ExecuteResult {
	old := state.CurrentBackground

	state.UIVisible = false
	state.HideAllCharacters()

	resolved := effect.Resolve(cmd.Transition)
	duration := resolved.DurationOr(effect.DefaultSceneDuration)

	switch resolved.Kind {
	case effect.Fade:
		e.LastOutput.Scene = &scene.Command{
			Kind:              scene.FadeBlack,
			Duration:          duration,
			PendingBackground: cmd.Path,
		}
	case effect.FadeWhite:
		e.LastOutput.Scene = &scene.Command{
			Kind:              scene.FadeWhite,
			Duration:          duration,
			PendingBackground: cmd.Path,
		}
	case effect.Rule:
		if resolved.MaskPath == "" || (source != nil && !source.Exists(resolved.MaskPath)) {
			e.warnf("rule mask %q missing", resolved.MaskPath)
		}
		e.LastOutput.Scene = &scene.Command{
			Kind:              scene.Rule,
			Duration:          duration,
			PendingBackground: cmd.Path,
			MaskPath:          resolved.MaskPath,
			Reversed:          resolved.Reversed,
		}
	case effect.None:
		state.SetBackground(cmd.Path)
		state.UIVisible = true
	default:
		// Dissolve, and anything that degraded to it: swap now, cross-fade
		// against the old background, restore the UI.
		if resolved.Fallback {
			e.warnf("unknown scene transition %q, using dissolve", cmd.Transition.Name)
		}
		state.SetBackground(cmd.Path)
		state.UIVisible = true
		e.LastOutput.Effects = append(e.LastOutput.Effects, effect.Request{
			Target: effect.BackgroundTransition{Old: old},
			Effect: resolved,
		})
		e.startTransition(resolved.DurationOr(effect.DefaultDissolveDuration))
	}
	return okResult()
}

func (e *Executor) showCharacter(cmd *runtime.ShowCharacter, state *State) ExecuteResult {
	path := cmd.Path
	previous, wasVisible := state.VisibleCharacters[cmd.Alias]
	if path == "" && wasVisible {
		path = previous.TexturePath
	}

	resolved := effect.Resolve(cmd.Transition)

	if wasVisible && previous.Position != cmd.Position && resolved.IsMove() {
		from := previous.Position
		state.ShowCharacter(cmd.Alias, path, cmd.Position)
		e.LastOutput.Effects = append(e.LastOutput.Effects, effect.Request{
			Target: effect.CharacterMove{Alias: cmd.Alias, From: from, To: cmd.Position},
			Effect: resolved,
		})
		return okResult()
	}

	// Repositioning with a dissolve is a teleport: state moves now, the
	// sprite just fades in at the new slot.
	state.ShowCharacter(cmd.Alias, path, cmd.Position)
	show := resolved
	if cmd.Transition == nil || !resolved.IsAlpha() {
		show = dissolveLike(resolved, cmd.Transition != nil)
	}
	e.LastOutput.Effects = append(e.LastOutput.Effects, effect.Request{
		Target: effect.CharacterShow{Alias: cmd.Alias},
		Effect: show,
	})
	return okResult()
}

// dissolveLike rewrites a non-alpha effect as a dissolve, keeping any
// authored duration. keepDuration is false when no transition was authored
// at all, so the consumer's default applies.
func dissolveLike(r effect.Resolved, keepDuration bool) effect.Resolved {
	out := effect.Resolved{Kind: effect.Dissolve, Easing: anim.EaseInOut}
	if keepDuration && r.HasDuration {
		out.HasDuration = true
		out.Duration = r.Duration
	}
	return out
}

func (e *Executor) hideCharacter(cmd *runtime.HideCharacter, state *State) ExecuteResult {
	if state.MarkCharacterFadingOut(cmd.Alias) == nil {
		e.warnf("hide for unknown character %q", cmd.Alias)
		return okResult()
	}
	// An unauthored transition still fades: hides default to dissolve.
	resolved := effect.Resolve(cmd.Transition)
	if cmd.Transition == nil || !resolved.IsAlpha() {
		resolved = dissolveLike(resolved, cmd.Transition != nil)
	}
	e.LastOutput.Effects = append(e.LastOutput.Effects, effect.Request{
		Target: effect.CharacterHide{Alias: cmd.Alias},
		Effect: resolved,
	})
	return okResult()
}

// ExecuteBatch runs commands in order, keeping the last wait result and
// stopping on the first error.
func (e *Executor) ExecuteBatch(cmds []runtime.Command, state *State, source resource.Source) (ExecuteResult, []Output) {
	last := okResult()
	outputs := make([]Output, 0, len(cmds))
	for _, cmd := range cmds {
		result := e.Execute(cmd, state, source)
		outputs = append(outputs, e.LastOutput)
		switch result.Kind {
		case ResultWaitForClick, ResultWaitForChoice, ResultWaitForTime:
			last = result
		case ResultError:
			return result, outputs
		}
	}
	return last, outputs
}

// startTransition arms the coarse background-transition timer the app uses
// for input gating.
func (e *Executor) startTransition(duration float64) {
	e.transitionActive = true
	e.transitionTimer = 0
	e.transitionDuration = duration
}

// UpdateTransition advances the timer and reports whether a background
// transition is still considered active.
func (e *Executor) UpdateTransition(dt float64) bool {
	if !e.transitionActive {
		return false
	}
	e.transitionTimer += dt
	if e.transitionTimer >= e.transitionDuration {
		e.transitionActive = false
		e.transitionTimer = 0
		return false
	}
	return true
}

// IsTransitionActive reports the timer state.
func (e *Executor) IsTransitionActive() bool { return e.transitionActive }

// TransitionProgress returns the timer's progress in [0,1].
func (e *Executor) TransitionProgress() float64 {
	if !e.transitionActive || e.transitionDuration <= 0 {
		return 1
	}
	p := e.transitionTimer / e.transitionDuration
	if p > 1 {
		return 1
	}
	return p
}

// SkipTransition ends the transition timer immediately.
func (e *Executor) SkipTransition() {
	e.transitionActive = false
	e.transitionTimer = 0
}
