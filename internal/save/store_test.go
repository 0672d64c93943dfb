package save

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"nitro-vn/internal/runtime"
	"nitro-vn/internal/script"
)

func sampleState() runtime.RuntimeState {
	state := runtime.NewRuntimeState("intro", "scripts/intro.md")
	state.Position.NodeIndex = 7
	state.SetVar("route", script.StringValue("a"))
	state.SetVar("count", script.IntValue(3))
	state.Waiting = runtime.ClickWait()
	state.VisibleCharacters["yui"] = runtime.CharacterBinding{Path: "c/yui.png", Position: script.PosCenter}
	state.CurrentBackground = "bg/room.png"
	return *state
}

func sampleSave(slot int) *SaveData {
	data := NewSaveData(slot, sampleState())
	data.Metadata.ChapterTitle = "第一章"
	data.Metadata.PlayTimeSecs = 345
	data.Audio = AudioState{CurrentBGM: "bgm/theme.mp3", BGMLooping: true}
	data.Render = RenderSnapshot{
		Background: "bg/room.png",
		Characters: []CharacterSnapshot{{Alias: "yui", TexturePath: "c/yui.png", Position: "center"}},
	}
	data.History.Push(DialogueEvent("yui", "hello"))
	return data
}

func TestSaveDataRoundTrip(t *testing.T) {
	original := sampleSave(3)
	encoded, err := original.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := FromJSON(encoded)
	if err != nil {
		t.Fatal(err)
	}

	if loaded.Metadata.Slot != 3 || loaded.Metadata.ChapterTitle != "第一章" {
		t.Errorf("metadata = %+v", loaded.Metadata)
	}
	if loaded.RuntimeState.Position.NodeIndex != 7 ||
		loaded.RuntimeState.Position.ScriptPath != "scripts/intro.md" {
		t.Errorf("position = %+v", loaded.RuntimeState.Position)
	}
	v, _ := loaded.RuntimeState.GetVar("route")
	if v.Str != "a" {
		t.Errorf("variable = %+v", v)
	}
	if loaded.RuntimeState.Waiting.Kind != runtime.WaitForClick {
		t.Errorf("waiting = %v", loaded.RuntimeState.Waiting)
	}
	binding := loaded.RuntimeState.VisibleCharacters["yui"]
	if binding.Path != "c/yui.png" || binding.Position != script.PosCenter {
		t.Errorf("binding = %+v", binding)
	}
	if loaded.Audio.CurrentBGM != "bgm/theme.mp3" || !loaded.Audio.BGMLooping {
		t.Errorf("audio = %+v", loaded.Audio)
	}
	if loaded.History.Len() != 1 {
		t.Errorf("history = %d", loaded.History.Len())
	}
}

func TestIncompatibleVersion(t *testing.T) {
	data := sampleSave(1)
	data.Version.Major = 99
	encoded, err := data.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	_, err = FromJSON(encoded)
	var serr *Error
	if !errors.As(err, &serr) || serr.Kind != ErrIncompatibleVersion {
		t.Fatalf("err = %v", err)
	}
}

func TestMinorVersionForwardCompatible(t *testing.T) {
	data := sampleSave(1)
	data.Version.Minor = 42
	encoded, _ := data.ToJSON()
	if _, err := FromJSON(encoded); err != nil {
		t.Errorf("newer minor rejected: %v", err)
	}
}

func TestStoreSaveLoadDelete(t *testing.T) {
	store := NewStore(t.TempDir())

	if store.Exists(1) {
		t.Error("empty store has slot 1")
	}
	if err := store.Save(sampleSave(1)); err != nil {
		t.Fatal(err)
	}
	if !store.Exists(1) {
		t.Error("slot 1 missing after save")
	}

	loaded, err := store.Load(1)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Metadata.Slot != 1 {
		t.Errorf("slot = %d", loaded.Metadata.Slot)
	}

	if err := store.Delete(1); err != nil {
		t.Fatal(err)
	}
	if store.Exists(1) {
		t.Error("slot survives delete")
	}

	_, err = store.Load(1)
	var serr *Error
	if !errors.As(err, &serr) || serr.Kind != ErrNotFound {
		t.Fatalf("load missing = %v", err)
	}
}

func TestStoreFilenames(t *testing.T) {
	store := NewStore("/saves")
	if got := store.SlotPath(7); got != filepath.Join("/saves", "slot_007.json") {
		t.Errorf("slot path = %q", got)
	}
	if got := store.SlotPath(0); got != filepath.Join("/saves", "continue.json") {
		t.Errorf("continue path = %q", got)
	}
}

func TestListSavesAndNextSlot(t *testing.T) {
	store := NewStore(t.TempDir())
	for _, slot := range []int{3, 1, 5} {
		if err := store.Save(sampleSave(slot)); err != nil {
			t.Fatal(err)
		}
	}
	// The continue slot stays out of the list.
	if err := store.SaveContinue(sampleSave(0)); err != nil {
		t.Fatal(err)
	}

	entries := store.ListSaves()
	if len(entries) != 3 {
		t.Fatalf("entries = %+v", entries)
	}
	for i, want := range []int{1, 3, 5} {
		if entries[i].Slot != want {
			t.Errorf("entries[%d] = %d, want %d", i, entries[i].Slot, want)
		}
	}
	if next := store.NextAvailableSlot(); next != 2 {
		t.Errorf("next slot = %d", next)
	}
}

func TestContinueSlot(t *testing.T) {
	store := NewStore(t.TempDir())
	if store.HasContinue() {
		t.Error("continue present in empty store")
	}
	if err := store.SaveContinue(sampleSave(9)); err != nil {
		t.Fatal(err)
	}
	loaded, err := store.LoadContinue()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Metadata.Slot != 0 {
		t.Errorf("continue slot = %d", loaded.Metadata.Slot)
	}
	if err := store.DeleteContinue(); err != nil {
		t.Fatal(err)
	}
	if store.HasContinue() {
		t.Error("continue survives delete")
	}
}

func TestGetSaveInfo(t *testing.T) {
	store := NewStore(t.TempDir())
	if err := store.Save(sampleSave(2)); err != nil {
		t.Fatal(err)
	}
	info, err := store.GetSaveInfo(2)
	if err != nil {
		t.Fatal(err)
	}
	if info.Slot != 2 || info.ChapterTitle != "第一章" || info.ScriptID != "intro" {
		t.Errorf("info = %+v", info)
	}
}

func TestHistoryBound(t *testing.T) {
	h := NewHistory().WithMax(5)
	for i := 0; i < 10; i++ {
		h.Push(DialogueEvent("", fmt.Sprintf("line %d", i)))
	}
	if h.Len() != 5 {
		t.Fatalf("len = %d", h.Len())
	}
	if h.Events[0].Content != "line 5" {
		t.Errorf("oldest = %q", h.Events[0].Content)
	}
}

func TestHistoryQueries(t *testing.T) {
	h := NewHistory()
	h.Push(DialogueEvent("a", "one"))
	h.Push(ChapterEvent("chapter"))
	h.Push(DialogueEvent("b", "two"))
	h.Push(ChoiceEvent([]string{"x", "y"}, 1))

	if h.DialogueCount() != 2 {
		t.Errorf("dialogue count = %d", h.DialogueCount())
	}
	recent := h.Recent(2)
	if len(recent) != 2 || recent[1].Kind != EventChoiceMade {
		t.Errorf("recent = %+v", recent)
	}
	dialogues := h.ByKind(EventDialogue)
	if len(dialogues) != 2 || dialogues[0].Content != "one" {
		t.Errorf("by kind = %+v", dialogues)
	}
	// Larger n than stored clamps.
	if got := h.Recent(99); len(got) != 4 {
		t.Errorf("recent clamp = %d", len(got))
	}
}
