// Package save persists versioned JSON snapshots: numbered slots, the
// reserved continue slot, and the bounded play history.
package save

import (
	"encoding/json"
	"fmt"
	"time"

	"nitro-vn/internal/runtime"
)

// Save format version. Major bumps break compatibility; minor bumps add
// optional fields.
const (
	VersionMajor = 1
	VersionMinor = 0
)

// Version tags a save file's format.
type Version struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
}

// CurrentVersion returns the writer's version.
func CurrentVersion() Version {
	return Version{Major: VersionMajor, Minor: VersionMinor}
}

// IsCompatible accepts equal majors; minors may differ.
func (v Version) IsCompatible() bool {
	return v.Major == VersionMajor
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Metadata describes a save for slot lists.
type Metadata struct {
	Slot         int    `json:"slot"`
	Timestamp    string `json:"timestamp"`
	ChapterTitle string `json:"chapter_title,omitempty"`
	PlayTimeSecs uint64 `json:"play_time_secs"`
}

// NewMetadata stamps a metadata record with the current time.
func NewMetadata(slot int) Metadata {
	return Metadata{Slot: slot, Timestamp: time.Now().UTC().Format(time.RFC3339)}
}

// AudioState restores the music after a load.
type AudioState struct {
	CurrentBGM string `json:"current_bgm,omitempty"`
	BGMLooping bool   `json:"bgm_looping"`
}

// CharacterSnapshot freezes one visible character. The position serializes
// as its preset name; the renderer re-derives coordinates on load.
type CharacterSnapshot struct {
	Alias       string `json:"alias"`
	TexturePath string `json:"texture_path"`
	Position    string `json:"position"`
}

// RenderSnapshot freezes what the stage shows, without transient state
// such as transition progress.
type RenderSnapshot struct {
	Background string              `json:"background,omitempty"`
	Characters []CharacterSnapshot `json:"characters"`
}

// SaveData is a full game snapshot.
type SaveData struct {
	Version      Version              `json:"version"`
	Metadata     Metadata             `json:"metadata"`
	RuntimeState runtime.RuntimeState `json:"runtime_state"`
	Audio        AudioState           `json:"audio"`
	Render       RenderSnapshot       `json:"render"`
	History      History              `json:"history"`
}

// NewSaveData assembles a snapshot at the current version.
func NewSaveData(slot int, state runtime.RuntimeState) *SaveData {
	return &SaveData{
		Version:      CurrentVersion(),
		Metadata:     NewMetadata(slot),
		RuntimeState: state,
		History:      *NewHistory(),
	}
}

// ToJSON serializes the snapshot.
func (d *SaveData) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, &Error{Kind: ErrSerialization, Message: err.Error()}
	}
	return data, nil
}

// FromJSON deserializes and checks version compatibility.
func FromJSON(data []byte) (*SaveData, error) {
	var d SaveData
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, &Error{Kind: ErrDeserialization, Message: err.Error()}
	}
	if !d.Version.IsCompatible() {
		return nil, &Error{
			Kind:    ErrIncompatibleVersion,
			Message: fmt.Sprintf("save version %s vs current %s", d.Version, CurrentVersion()),
		}
	}
	return &d, nil
}

// ErrorKind classifies save failures.
type ErrorKind string

const (
	ErrSerialization       ErrorKind = "SerializationFailed"
	ErrDeserialization     ErrorKind = "DeserializationFailed"
	ErrIncompatibleVersion ErrorKind = "IncompatibleVersion"
	ErrIO                  ErrorKind = "IoError"
	ErrNotFound            ErrorKind = "NotFound"
)

// Error is a typed save failure, surfaced to the player as a toast.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("save: %s: %s", e.Kind, e.Message)
}
