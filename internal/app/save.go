package app

import (
	"fmt"
	"sort"
	"time"

	"nitro-vn/internal/logging"
	"nitro-vn/internal/runtime"
	"nitro-vn/internal/save"
	"nitro-vn/internal/script"
)

// BuildSaveData assembles a snapshot of the running game for a slot.
func (a *App) BuildSaveData(slot int) (*save.SaveData, error) {
	if a.Engine == nil {
		return nil, fmt.Errorf("app: nothing to save")
	}

	data := save.NewSaveData(slot, *a.Engine.State())
	data.Metadata.ChapterTitle = a.chapterTitle
	data.Metadata.PlayTimeSecs = a.Clock.PlaySeconds(time.Now())

	if path, looping, ok := a.Audio.CurrentBGM(); ok {
		data.Audio = save.AudioState{CurrentBGM: path, BGMLooping: looping}
	}

	snapshot := save.RenderSnapshot{Background: a.Render.CurrentBackground}
	aliases := make([]string, 0, len(a.Render.VisibleCharacters))
	for alias := range a.Render.VisibleCharacters {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	for _, alias := range aliases {
		sprite := a.Render.VisibleCharacters[alias]
		if sprite.FadingOut {
			continue
		}
		snapshot.Characters = append(snapshot.Characters, save.CharacterSnapshot{
			Alias:       alias,
			TexturePath: sprite.TexturePath,
			Position:    string(sprite.Position),
		})
	}
	data.Render = snapshot
	data.History = *a.History
	return data, nil
}

// SaveToSlot writes a snapshot; failures surface as toasts and the error.
func (a *App) SaveToSlot(slot int) error {
	data, err := a.BuildSaveData(slot)
	if err == nil {
		err = a.Store.Save(data)
	}
	if err != nil {
		a.logf(logging.LevelError, "save slot %d: %v", slot, err)
		a.PushToast("save failed")
		return err
	}
	a.PushToast(fmt.Sprintf("saved to slot %d", slot))
	return nil
}

// SaveContinue writes the reserved continue slot, called on return to
// title.
func (a *App) SaveContinue() error {
	data, err := a.BuildSaveData(0)
	if err != nil {
		return err
	}
	return a.Store.SaveContinue(data)
}

// LoadFromSlot restores a snapshot: script, engine position, stage, audio
// and history, in that order. The engine resumes on the next click.
func (a *App) LoadFromSlot(slot int) error {
	data, err := a.Store.Load(slot)
	if err != nil {
		a.logf(logging.LevelError, "load slot %d: %v", slot, err)
		a.PushToast("load failed")
		return err
	}
	return a.restore(data)
}

// LoadContinue restores the continue slot.
func (a *App) LoadContinue() error {
	data, err := a.Store.LoadContinue()
	if err != nil {
		return err
	}
	return a.restore(data)
}

func (a *App) restore(data *save.SaveData) error {
	// 1. Reload the script by path, falling back to scripts/<id>.md when
	// the save carries no path.
	scriptPath := data.RuntimeState.Position.ScriptPath
	if scriptPath == "" {
		scriptPath = "scripts/" + data.RuntimeState.Position.ScriptID + ".md"
	}
	parsed, err := a.parseScriptFile(scriptPath)
	if err != nil {
		return err
	}

	// 2. Rebuild the engine at the saved position.
	state := data.RuntimeState
	engine := runtime.Restore(parsed, &state)

	// 3-4. Reset render state, then apply the snapshot.
	a.installScript(parsed, scriptPath, engine)
	a.Render.SetBackground(data.Render.Background)
	for _, snapshot := range data.Render.Characters {
		position, ok := script.ParsePosition(snapshot.Position)
		if !ok {
			position = script.PosCenter
		}
		a.Render.ShowCharacter(snapshot.Alias, snapshot.TexturePath, position)
	}

	// 5. Audio, with a modest fade-in.
	if data.Audio.CurrentBGM != "" {
		a.Audio.PlayBGM(data.Audio.CurrentBGM, data.Audio.BGMLooping, 0.5)
	} else {
		a.Audio.StopBGM(0)
	}

	// 6. The player re-triggers the next node with a click.
	engine.State().Waiting = runtime.ClickWait()

	// 7. Resume the play-time counter from the saved total.
	a.Clock.SetPlayed(data.Metadata.PlayTimeSecs, time.Now())

	history := data.History
	a.History = &history
	a.chapterTitle = data.Metadata.ChapterTitle
	a.Mode = ModeInGame
	return nil
}

// parseScriptFile parses a script from the asset source without installing
// it.
func (a *App) parseScriptFile(logical string) (*script.Script, error) {
	data, err := a.Source.Read(logical)
	if err != nil {
		return nil, fmt.Errorf("app: script %s: %w", logical, err)
	}
	id := scriptID(logical)
	parser := script.NewParser()
	return parser.ParseWithBasePath(id, string(data), scriptBase(logical))
}
