package render

import (
	"math"
	"reflect"
	"testing"

	"nitro-vn/internal/audio"
	"nitro-vn/internal/effect"
	"nitro-vn/internal/resource"
	"nitro-vn/internal/runtime"
	"nitro-vn/internal/scene"
	"nitro-vn/internal/script"
)

type stubSource map[string][]byte

func (s stubSource) Read(logical string) ([]byte, error) {
	if data, ok := s[logical]; ok {
		return data, nil
	}
	return nil, resource.ErrNotFound
}

func (s stubSource) Exists(logical string) bool { _, ok := s[logical]; return ok }

func (s stubSource) ListFiles(string) ([]string, error) { return nil, nil }

func (s stubSource) FullPath(logical string) string { return logical }

func transition(name string, args ...script.TransitionArg) *script.Transition {
	return &script.Transition{Name: name, Args: args}
}

func TestShowTextSetsDialogue(t *testing.T) {
	e := NewExecutor(nil)
	state := NewState()

	result := e.Execute(&runtime.ShowText{Speaker: "北风", Content: "你好"}, state, nil)
	if result.Kind != ResultWaitForClick {
		t.Fatalf("result = %+v", result)
	}
	if state.Dialogue == nil || state.Dialogue.Speaker != "北风" || state.Dialogue.Content != "你好" {
		t.Errorf("dialogue = %+v", state.Dialogue)
	}
	if state.Dialogue.VisibleChars != 0 || state.Dialogue.IsComplete {
		t.Errorf("typewriter not reset: %+v", state.Dialogue)
	}
}

func TestPresentChoicesClearsDialogue(t *testing.T) {
	e := NewExecutor(nil)
	state := NewState()
	state.SetDialogue("a", "b")

	cmd := &runtime.PresentChoices{Choices: []runtime.ChoiceItem{
		{Text: "one", TargetLabel: "l1"},
		{Text: "two", TargetLabel: "l2"},
	}}
	result := e.Execute(cmd, state, nil)
	if result.Kind != ResultWaitForChoice || result.ChoiceCount != 2 {
		t.Fatalf("result = %+v", result)
	}
	if state.Dialogue != nil {
		t.Error("dialogue not cleared")
	}
	if len(state.Choices.Items) != 2 {
		t.Errorf("choices = %+v", state.Choices)
	}
}

func TestShowBackgroundEmitsEffect(t *testing.T) {
	e := NewExecutor(nil)
	state := NewState()
	state.SetBackground("bg_a.png")

	cmd := &runtime.ShowBackground{
		Path:       "bg_b.png",
		Transition: transition("Dissolve", script.TransitionArg{Value: script.FloatValue(0.5)}),
	}
	if result := e.Execute(cmd, state, nil); result.Kind != ResultOk {
		t.Fatalf("result = %+v", result)
	}

	if state.CurrentBackground != "bg_b.png" {
		t.Errorf("background = %q", state.CurrentBackground)
	}
	if e.LastOutput.Scene != nil {
		t.Error("changeBG must not emit a scene transition")
	}
	if len(e.LastOutput.Effects) != 1 {
		t.Fatalf("effects = %d", len(e.LastOutput.Effects))
	}
	req := e.LastOutput.Effects[0]
	bt, ok := req.Target.(effect.BackgroundTransition)
	if !ok || bt.Old != "bg_a.png" {
		t.Errorf("target = %#v", req.Target)
	}
	if req.Effect.Kind != effect.Dissolve || req.Effect.DurationOr(0) != 0.5 {
		t.Errorf("effect = %+v", req.Effect)
	}
	if !e.IsTransitionActive() {
		t.Error("transition timer not armed")
	}
}

func TestChangeSceneRule(t *testing.T) {
	e := NewExecutor(nil)
	state := NewState()
	state.SetBackground("old.png")
	state.ShowCharacter("yui", "c.png", script.PosCenter)
	source := stubSource{"mask.png": []byte("m")}

	cmd := &runtime.ChangeScene{
		Path: "new.png",
		Transition: transition("rule",
			script.TransitionArg{Name: "mask", Value: script.StringValue("mask.png")},
			script.TransitionArg{Name: "duration", Value: script.FloatValue(1.0)},
			script.TransitionArg{Name: "reversed", Value: script.BoolValue(false)},
		),
	}
	if result := e.Execute(cmd, state, source); result.Kind != ResultOk {
		t.Fatalf("result = %+v", result)
	}

	if state.UIVisible {
		t.Error("changeScene must hide the UI")
	}
	if len(state.VisibleCharacters) != 0 {
		t.Error("changeScene must clear characters")
	}
	// The background swap is deferred to the transition mid-point.
	if state.CurrentBackground != "old.png" {
		t.Errorf("background swapped early: %q", state.CurrentBackground)
	}
	sc := e.LastOutput.Scene
	if sc == nil || sc.Kind != scene.Rule || sc.PendingBackground != "new.png" {
		t.Fatalf("scene command = %+v", sc)
	}
	if sc.MaskPath != "mask.png" || sc.Reversed || sc.Duration != 1.0 {
		t.Errorf("scene command = %+v", sc)
	}
}

func TestChangeSceneDissolveIsImmediate(t *testing.T) {
	e := NewExecutor(nil)
	state := NewState()
	state.SetBackground("old.png")

	cmd := &runtime.ChangeScene{Path: "new.png", Transition: transition("dissolve")}
	e.Execute(cmd, state, nil)

	if state.CurrentBackground != "new.png" || !state.UIVisible {
		t.Errorf("state = bg %q ui %v", state.CurrentBackground, state.UIVisible)
	}
	if e.LastOutput.Scene != nil {
		t.Error("dissolve must not emit a scene command")
	}
	if len(e.LastOutput.Effects) != 1 {
		t.Errorf("effects = %d", len(e.LastOutput.Effects))
	}
}

func TestChangeSceneUnknownFallsBackToDissolve(t *testing.T) {
	e := NewExecutor(nil)
	state := NewState()
	cmd := &runtime.ChangeScene{Path: "new.png", Transition: transition("sparkle")}
	e.Execute(cmd, state, nil)
	if state.CurrentBackground != "new.png" || e.LastOutput.Scene != nil {
		t.Errorf("fallback mishandled: bg=%q scene=%+v", state.CurrentBackground, e.LastOutput.Scene)
	}
}

func TestShowCharacterMoveVsTeleport(t *testing.T) {
	e := NewExecutor(nil)
	state := NewState()

	// First show: a fade-in.
	e.Execute(&runtime.ShowCharacter{Path: "c.png", Alias: "yui", Position: script.PosCenter}, state, nil)
	if len(e.LastOutput.Effects) != 1 {
		t.Fatalf("effects = %d", len(e.LastOutput.Effects))
	}
	if _, ok := e.LastOutput.Effects[0].Target.(effect.CharacterShow); !ok {
		t.Errorf("target = %#v", e.LastOutput.Effects[0].Target)
	}

	// Repositioning with move slides.
	e.Execute(&runtime.ShowCharacter{Alias: "yui", Position: script.PosLeft, Transition: transition("move")}, state, nil)
	mv, ok := e.LastOutput.Effects[0].Target.(effect.CharacterMove)
	if !ok || mv.From != script.PosCenter || mv.To != script.PosLeft {
		t.Fatalf("move target = %#v", e.LastOutput.Effects[0].Target)
	}
	// Path is reused from the previous binding.
	if state.VisibleCharacters["yui"].TexturePath != "c.png" {
		t.Errorf("path = %q", state.VisibleCharacters["yui"].TexturePath)
	}

	// Repositioning with dissolve teleports (CharacterShow, not Move).
	e.Execute(&runtime.ShowCharacter{Alias: "yui", Position: script.PosRight, Transition: transition("dissolve")}, state, nil)
	if _, ok := e.LastOutput.Effects[0].Target.(effect.CharacterShow); !ok {
		t.Errorf("dissolve reposition = %#v", e.LastOutput.Effects[0].Target)
	}
	if state.VisibleCharacters["yui"].Position != script.PosRight {
		t.Errorf("position = %v", state.VisibleCharacters["yui"].Position)
	}
}

func TestHideCharacterMarksFadingOut(t *testing.T) {
	e := NewExecutor(nil)
	state := NewState()
	state.ShowCharacter("yui", "c.png", script.PosCenter)

	e.Execute(&runtime.HideCharacter{Alias: "yui"}, state, nil)
	sprite := state.VisibleCharacters["yui"]
	if sprite == nil || !sprite.FadingOut {
		t.Fatalf("sprite = %+v", sprite)
	}
	req := e.LastOutput.Effects[0]
	if _, ok := req.Target.(effect.CharacterHide); !ok {
		t.Errorf("target = %#v", req.Target)
	}
	// The unauthored transition defaults to a dissolve.
	if req.Effect.Kind != effect.Dissolve || req.Effect.HasDuration {
		t.Errorf("effect = %+v", req.Effect)
	}
}

func TestAudioRequests(t *testing.T) {
	e := NewExecutor(nil)
	state := NewState()

	e.Execute(&runtime.PlayBgm{Path: "bgm/a.mp3", Looping: true}, state, nil)
	if req := e.LastOutput.Audio; req == nil || req.Kind != audio.RequestPlayBGM || !req.Looping {
		t.Errorf("bgm request = %+v", e.LastOutput.Audio)
	}
	e.Execute(&runtime.StopBgm{}, state, nil)
	if req := e.LastOutput.Audio; req == nil || req.Kind != audio.RequestStopBGM {
		t.Errorf("stop request = %+v", e.LastOutput.Audio)
	}
	e.Execute(&runtime.PlaySfx{Path: "sfx/c.wav"}, state, nil)
	if req := e.LastOutput.Audio; req == nil || req.Kind != audio.RequestPlaySFX {
		t.Errorf("sfx request = %+v", e.LastOutput.Audio)
	}
}

func TestTextBoxAndClearCommands(t *testing.T) {
	e := NewExecutor(nil)
	state := NewState()
	state.SetDialogue("a", "b")
	state.ShowCharacter("x", "x.png", script.PosLeft)

	e.Execute(&runtime.TextBoxHide{}, state, nil)
	if state.UIVisible {
		t.Error("TextBoxHide")
	}
	e.Execute(&runtime.TextBoxShow{}, state, nil)
	if !state.UIVisible {
		t.Error("TextBoxShow")
	}
	e.Execute(&runtime.TextBoxClear{}, state, nil)
	if state.Dialogue != nil {
		t.Error("TextBoxClear")
	}
	e.Execute(&runtime.ClearCharacters{}, state, nil)
	if len(state.VisibleCharacters) != 0 {
		t.Error("ClearCharacters")
	}
}

// Executor purity: the same command sequence over identical initial states
// produces identical states and outputs.
func TestExecutorDeterminism(t *testing.T) {
	cmds := []runtime.Command{
		&runtime.ShowBackground{Path: "bg.png", Transition: transition("dissolve")},
		&runtime.ShowCharacter{Path: "c.png", Alias: "a", Position: script.PosCenter},
		&runtime.ShowText{Speaker: "s", Content: "c"},
		&runtime.ChapterMark{Title: "t", Level: 1},
	}

	run := func() (*State, []Output) {
		e := NewExecutor(nil)
		state := NewState()
		_, outputs := e.ExecuteBatch(cmds, state, nil)
		return state, outputs
	}

	s1, o1 := run()
	s2, o2 := run()

	if s1.CurrentBackground != s2.CurrentBackground ||
		s1.UIVisible != s2.UIVisible ||
		len(s1.VisibleCharacters) != len(s2.VisibleCharacters) ||
		!reflect.DeepEqual(s1.Dialogue, s2.Dialogue) {
		t.Error("states diverged")
	}
	if !reflect.DeepEqual(o1, o2) {
		t.Error("outputs diverged")
	}
}

func TestTransitionTimer(t *testing.T) {
	e := NewExecutor(nil)
	state := NewState()
	e.Execute(&runtime.ShowBackground{
		Path:       "b.png",
		Transition: transition("Dissolve", script.TransitionArg{Value: script.FloatValue(0.5)}),
	}, state, nil)

	if !e.UpdateTransition(0.25) {
		t.Error("transition ended early")
	}
	if p := e.TransitionProgress(); math.Abs(p-0.5) > 1e-9 {
		t.Errorf("progress = %v", p)
	}
	if e.UpdateTransition(0.3) {
		t.Error("transition did not end")
	}
	if e.IsTransitionActive() {
		t.Error("still active")
	}
}

func TestBackgroundDissolveScenario(t *testing.T) {
	// changeBG with Dissolve(0.5): half-way alphas near 0.5/0.5, final 0/1.
	bt := NewBackgroundTransition()
	resolved := effect.Resolve(transition("Dissolve", script.TransitionArg{Value: script.FloatValue(0.5)}))
	bt.Start("bg_a.png", resolved)

	bt.Update(0.25)
	if a := bt.OldAlpha(); math.Abs(a-0.5) > 0.05 {
		t.Errorf("old alpha at midpoint = %v", a)
	}
	if a := bt.NewAlpha(); math.Abs(a-0.5) > 0.05 {
		t.Errorf("new alpha at midpoint = %v", a)
	}
	if s := bt.OldAlpha() + bt.NewAlpha(); math.Abs(s-1) > 0.02 {
		t.Errorf("alpha sum = %v", s)
	}

	bt.Update(0.3)
	if bt.IsActive() {
		t.Error("dissolve still active after duration")
	}
	if bt.OldAlpha() != 0 || bt.NewAlpha() != 1 {
		t.Errorf("final alphas = %v / %v", bt.OldAlpha(), bt.NewAlpha())
	}
}

func TestDissolveFactor(t *testing.T) {
	// Hard edge: mask below progress shows the new image.
	if DissolveFactor(0.3, 0.5, 0, false) != 1 {
		t.Error("mask below progress must be 1")
	}
	if DissolveFactor(0.7, 0.5, 0, false) != 0 {
		t.Error("mask above progress must be 0")
	}
	// Reversed flips the mask.
	if DissolveFactor(0.7, 0.5, 0, true) != 1 {
		t.Error("reversed mask below progress must be 1")
	}
	// Soft edge is monotonic in mask value.
	lo := DissolveFactor(0.40, 0.5, 0.2, false)
	hi := DissolveFactor(0.60, 0.5, 0.2, false)
	if lo <= hi {
		t.Errorf("ramp not monotonic: %v vs %v", lo, hi)
	}
	if mid := DissolveFactor(0.5, 0.5, 0.2, false); math.Abs(mid-0.5) > 1e-9 {
		t.Errorf("ramp midpoint = %v", mid)
	}
}
