// Package render holds the presentation state, the command executor that
// applies runtime commands to it, and the compose policy that draws it.
// Rendering reads state and animated properties; it never writes either.
package render

import (
	"nitro-vn/internal/script"
)

// DialogueState is the dialogue box contents with typewriter progress.
type DialogueState struct {
	Speaker string
	Content string
	// VisibleChars counts revealed runes; text is not segmented into
	// grapheme clusters, so a combining mark is revealed on its own step.
	VisibleChars int
	IsComplete   bool
}

// ChoiceItem is one presented option.
type ChoiceItem struct {
	Text        string
	TargetLabel string
}

// ChoicesState is the presented choice list with selection state.
type ChoicesState struct {
	Items    []ChoiceItem
	Style    string
	Selected int
	// Hovered is -1 when the pointer is over no option.
	Hovered int
}

// ChapterMarkState is the chapter heading overlay.
type ChapterMarkState struct {
	Title string
	Level int
	Alpha float64
	Timer float64
}

// State is the render state: what the stage currently shows. Mutated by the
// Executor and by the app's per-frame steps (typewriter, scene mid-point
// swap, character cleanup, load); read by the Renderer.
type State struct {
	CurrentBackground string
	VisibleCharacters map[string]*CharacterSprite
	Dialogue          *DialogueState
	Choices           *ChoicesState
	ChapterMark       *ChapterMarkState
	UIVisible         bool

	nextZOrder int
}

// NewState creates an empty stage with the UI visible.
func NewState() *State {
	return &State{
		VisibleCharacters: make(map[string]*CharacterSprite),
		UIVisible:         true,
	}
}

// SetBackground swaps the background path.
func (s *State) SetBackground(path string) {
	s.CurrentBackground = path
}

// ShowCharacter adds or rebinds a sprite, assigning a fresh z-order on
// first appearance so later characters draw in front.
func (s *State) ShowCharacter(alias, texturePath string, position script.Position) *CharacterSprite {
	if existing, ok := s.VisibleCharacters[alias]; ok {
		existing.TexturePath = texturePath
		existing.Position = position
		existing.FadingOut = false
		return existing
	}
	s.nextZOrder++
	sprite := NewCharacterSprite(alias, texturePath, position, s.nextZOrder)
	s.VisibleCharacters[alias] = sprite
	return sprite
}

// HideCharacter removes a sprite outright.
func (s *State) HideCharacter(alias string) {
	delete(s.VisibleCharacters, alias)
}

// MarkCharacterFadingOut flags a sprite for removal once its fade lands.
func (s *State) MarkCharacterFadingOut(alias string) *CharacterSprite {
	sprite, ok := s.VisibleCharacters[alias]
	if !ok {
		return nil
	}
	sprite.FadingOut = true
	return sprite
}

// HideAllCharacters clears the stage.
func (s *State) HideAllCharacters() {
	s.VisibleCharacters = make(map[string]*CharacterSprite)
}

// SetDialogue replaces the dialogue box contents, starting the typewriter
// from zero.
func (s *State) SetDialogue(speaker, content string) {
	s.Dialogue = &DialogueState{Speaker: speaker, Content: content}
}

// ClearDialogue empties the dialogue box.
func (s *State) ClearDialogue() {
	s.Dialogue = nil
}

// IsDialogueComplete reports whether the typewriter has finished (or no
// dialogue is showing).
func (s *State) IsDialogueComplete() bool {
	return s.Dialogue == nil || s.Dialogue.IsComplete
}

// SetChoices presents a choice list and clears the dialogue box.
func (s *State) SetChoices(items []ChoiceItem, style string) {
	s.Dialogue = nil
	s.Choices = &ChoicesState{Items: items, Style: style, Hovered: -1}
}

// ClearChoices removes the choice list.
func (s *State) ClearChoices() {
	s.Choices = nil
}

// SetChapterMark shows a chapter heading; the app fades it in and times it
// out.
func (s *State) SetChapterMark(title string, level int) {
	s.ChapterMark = &ChapterMarkState{Title: title, Level: level}
}

// ClearChapterMark removes the heading overlay.
func (s *State) ClearChapterMark() {
	s.ChapterMark = nil
}
