package runtime

import (
	"encoding/json"
	"errors"
	"testing"

	"nitro-vn/internal/script"
)

func parseScript(t *testing.T, text string) *script.Script {
	t.Helper()
	s, err := script.NewParser().Parse("test", text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return s
}

func TestMinimalDialogue(t *testing.T) {
	e := NewEngine(parseScript(t, `主角: "hi"`), "scripts/test.md")

	cmds, waiting, err := e.Tick(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(cmds) != 1 {
		t.Fatalf("commands = %d", len(cmds))
	}
	text, ok := cmds[0].(*ShowText)
	if !ok || text.Speaker != "主角" || text.Content != "hi" {
		t.Errorf("cmd = %#v", cmds[0])
	}
	if waiting.Kind != WaitForClick {
		t.Errorf("waiting = %v", waiting)
	}

	cmds, waiting, err = e.Tick(Click{})
	if err != nil {
		t.Fatal(err)
	}
	if len(cmds) != 0 || waiting.IsWaiting() {
		t.Errorf("after click: %d commands, waiting %v", len(cmds), waiting)
	}
	if !e.IsFinished() {
		t.Error("engine should be finished")
	}
}

func TestChoiceBranch(t *testing.T) {
	src := `**start**
A: "choose"

| title |  |
| 是 | yes |
| 否 | no |

**yes**
A: "Y"
**no**
A: "N"`
	e := NewEngine(parseScript(t, src), "")

	_, waiting, err := e.Tick(nil)
	if err != nil {
		t.Fatal(err)
	}
	if waiting.Kind != WaitForClick {
		t.Fatalf("tick1 waiting = %v", waiting)
	}

	cmds, waiting, err := e.Tick(Click{})
	if err != nil {
		t.Fatal(err)
	}
	choices, ok := cmds[0].(*PresentChoices)
	if !ok || len(choices.Choices) != 2 {
		t.Fatalf("tick2 = %#v", cmds)
	}
	if waiting.Kind != WaitForChoice || waiting.ChoiceCount != 2 {
		t.Fatalf("tick2 waiting = %v", waiting)
	}

	cmds, waiting, err = e.Tick(ChoiceSelected{Index: 0})
	if err != nil {
		t.Fatal(err)
	}
	text, ok := cmds[0].(*ShowText)
	if !ok || text.Content != "Y" {
		t.Errorf("tick3 = %#v", cmds)
	}
	if waiting.Kind != WaitForClick {
		t.Errorf("tick3 waiting = %v", waiting)
	}
}

func TestInvalidChoiceIndex(t *testing.T) {
	src := `| h |  |
| a | x |
**x**
A: "done"`
	e := NewEngine(parseScript(t, src), "")
	if _, _, err := e.Tick(nil); err != nil {
		t.Fatal(err)
	}
	_, _, err := e.Tick(ChoiceSelected{Index: 5})
	var rerr *RuntimeError
	if !errors.As(err, &rerr) || rerr.Kind != ErrInvalidChoiceIndex {
		t.Fatalf("err = %v", err)
	}
}

func TestStateMismatch(t *testing.T) {
	e := NewEngine(parseScript(t, `A: "hi"`), "")
	if _, _, err := e.Tick(nil); err != nil {
		t.Fatal(err)
	}
	_, _, err := e.Tick(ChoiceSelected{Index: 0})
	var rerr *RuntimeError
	if !errors.As(err, &rerr) || rerr.Kind != ErrStateMismatch {
		t.Fatalf("err = %v", err)
	}
}

func TestGotoAndLabelNotFound(t *testing.T) {
	src := `goto **end**
A: "skipped"
**end**
A: "done"`
	e := NewEngine(parseScript(t, src), "")
	cmds, _, err := e.Tick(nil)
	if err != nil {
		t.Fatal(err)
	}
	if text := cmds[0].(*ShowText); text.Content != "done" {
		t.Errorf("goto landed on %q", text.Content)
	}

	e = NewEngine(parseScript(t, "goto **missing**"), "")
	_, _, err = e.Tick(nil)
	var rerr *RuntimeError
	if !errors.As(err, &rerr) || rerr.Kind != ErrLabelNotFound {
		t.Fatalf("err = %v", err)
	}
}

func TestSetVarAndConditional(t *testing.T) {
	src := `set $route = "b"
if $route == "a"
A: "route a"
elseif $route == "b"
A: "route b"
else
A: "default"
endif`
	e := NewEngine(parseScript(t, src), "")
	cmds, waiting, err := e.Tick(nil)
	if err != nil {
		t.Fatal(err)
	}
	if text := cmds[0].(*ShowText); text.Content != "route b" {
		t.Errorf("branch = %q", text.Content)
	}
	if waiting.Kind != WaitForClick {
		t.Errorf("dialogue inside branch must wait, got %v", waiting)
	}
}

func TestConditionalElseBranch(t *testing.T) {
	src := `set $n = 1
if $n == 2
A: "two"
else
A: "other"
endif`
	e := NewEngine(parseScript(t, src), "")
	cmds, _, err := e.Tick(nil)
	if err != nil {
		t.Fatal(err)
	}
	if text := cmds[0].(*ShowText); text.Content != "other" {
		t.Errorf("branch = %q", text.Content)
	}
}

func TestConditionalEvalErrorCarriesLine(t *testing.T) {
	src := `if $undefined == 1
A: "x"
endif`
	e := NewEngine(parseScript(t, src), "")
	_, _, err := e.Tick(nil)
	var rerr *RuntimeError
	if !errors.As(err, &rerr) || rerr.Kind != ErrEval {
		t.Fatalf("err = %v", err)
	}
	if rerr.Line != 1 {
		t.Errorf("line = %d", rerr.Line)
	}
}

func TestCharacterStateTracking(t *testing.T) {
	src := `show <img src="c/yui.png"/> as yui at center
show yui at left
hide yui`
	e := NewEngine(parseScript(t, src), "")
	cmds, _, err := e.Tick(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(cmds) != 3 {
		t.Fatalf("commands = %d", len(cmds))
	}
	// Bare-alias show reuses the bound path.
	reshow := cmds[1].(*ShowCharacter)
	if reshow.Path != "c/yui.png" || reshow.Position != script.PosLeft {
		t.Errorf("reshow = %+v", reshow)
	}
	if len(e.State().VisibleCharacters) != 0 {
		t.Errorf("visible after hide = %v", e.State().VisibleCharacters)
	}
}

func TestAudioCommands(t *testing.T) {
	src := `<audio src="bgm/a.mp3"></audio> loop
<audio src="sfx/b.wav"></audio>
stopBGM`
	e := NewEngine(parseScript(t, src), "")
	cmds, _, err := e.Tick(nil)
	if err != nil {
		t.Fatal(err)
	}
	bgm := cmds[0].(*PlayBgm)
	if bgm.Path != "bgm/a.mp3" || !bgm.Looping {
		t.Errorf("bgm = %+v", bgm)
	}
	if _, ok := cmds[1].(*PlaySfx); !ok {
		t.Errorf("cmds[1] = %#v", cmds[1])
	}
	if _, ok := cmds[2].(*StopBgm); !ok {
		t.Errorf("cmds[2] = %#v", cmds[2])
	}
}

func TestNoProgressGuard(t *testing.T) {
	src := `**loop**
goto **loop**`
	e := NewEngine(parseScript(t, src), "")
	_, _, err := e.Tick(nil)
	var rerr *RuntimeError
	if !errors.As(err, &rerr) || rerr.Kind != ErrNoProgress {
		t.Fatalf("err = %v", err)
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	src := `A: "one"
B: "two"
C: "three"`
	s := parseScript(t, src)
	e := NewEngine(s, "scripts/x.md")
	if _, _, err := e.Tick(nil); err != nil {
		t.Fatal(err)
	}
	if _, _, err := e.Tick(Click{}); err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(e.State())
	if err != nil {
		t.Fatal(err)
	}
	var state RuntimeState
	if err := json.Unmarshal(data, &state); err != nil {
		t.Fatal(err)
	}

	restored := Restore(s, &state)
	cmds, _, err := restored.Tick(Click{})
	if err != nil {
		t.Fatal(err)
	}
	want, _, err := e.Tick(Click{})
	if err != nil {
		t.Fatal(err)
	}
	if len(cmds) != len(want) {
		t.Fatalf("restored produced %d commands, original %d", len(cmds), len(want))
	}
	if cmds[0].(*ShowText).Content != want[0].(*ShowText).Content {
		t.Errorf("restored diverged: %#v vs %#v", cmds[0], want[0])
	}
}

func TestWaitingReasonJSON(t *testing.T) {
	reasons := []WaitingReason{NoWait(), ClickWait(), ChoiceWait(3), TimeWait(1.5), SignalWait("cue")}
	for _, w := range reasons {
		data, err := json.Marshal(w)
		if err != nil {
			t.Fatalf("marshal %v: %v", w, err)
		}
		var back WaitingReason
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if back != w {
			t.Errorf("round trip %v -> %s -> %v", w, data, back)
		}
	}
}

func TestTimeWaitIgnoresInput(t *testing.T) {
	e := NewEngine(parseScript(t, `A: "hi"`), "")
	e.State().Waiting = TimeWait(1)
	_, waiting, err := e.Tick(Click{})
	if err != nil {
		t.Fatal(err)
	}
	if waiting.Kind != WaitForTime {
		t.Errorf("WaitForTime must ignore clicks, got %v", waiting)
	}
}
