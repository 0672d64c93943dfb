package runtime

import (
	"encoding/json"
	"fmt"

	"nitro-vn/internal/script"
)

// WaitKind discriminates WaitingReason variants.
type WaitKind int

const (
	WaitNone WaitKind = iota
	WaitForClick
	WaitForChoice
	WaitForTime
	WaitForSignal
)

// WaitingReason describes why execution is paused and what input resumes it.
// It serializes in the save format's tagged form: the zero-payload variants
// as bare strings, the others as single-key objects.
type WaitingReason struct {
	Kind        WaitKind
	ChoiceCount int
	// Duration in seconds; the host re-ticks after it elapses.
	Duration float64
	SignalID string
}

// NoWait is the non-waiting reason.
func NoWait() WaitingReason { return WaitingReason{Kind: WaitNone} }

// ClickWait waits for a player click.
func ClickWait() WaitingReason { return WaitingReason{Kind: WaitForClick} }

// ChoiceWait waits for a choice among count options.
func ChoiceWait(count int) WaitingReason {
	return WaitingReason{Kind: WaitForChoice, ChoiceCount: count}
}

// TimeWait asks the host to wait duration seconds before re-ticking.
func TimeWait(seconds float64) WaitingReason {
	return WaitingReason{Kind: WaitForTime, Duration: seconds}
}

// SignalWait waits for an external signal with a matching id.
func SignalWait(id string) WaitingReason {
	return WaitingReason{Kind: WaitForSignal, SignalID: id}
}

// IsWaiting reports whether execution is paused.
func (w WaitingReason) IsWaiting() bool { return w.Kind != WaitNone }

func (w WaitingReason) String() string {
	switch w.Kind {
	case WaitNone:
		return "None"
	case WaitForClick:
		return "WaitForClick"
	case WaitForChoice:
		return fmt.Sprintf("WaitForChoice(%d)", w.ChoiceCount)
	case WaitForTime:
		return fmt.Sprintf("WaitForTime(%gs)", w.Duration)
	case WaitForSignal:
		return fmt.Sprintf("WaitForSignal(%s)", w.SignalID)
	default:
		return "Unknown"
	}
}

// MarshalJSON writes "None"/"WaitForClick" as strings and the payload
// variants as single-key objects.
func (w WaitingReason) MarshalJSON() ([]byte, error) {
	switch w.Kind {
	case WaitNone:
		return json.Marshal("None")
	case WaitForClick:
		return json.Marshal("WaitForClick")
	case WaitForChoice:
		return json.Marshal(map[string]map[string]int{
			"WaitForChoice": {"choice_count": w.ChoiceCount},
		})
	case WaitForTime:
		return json.Marshal(map[string]map[string]float64{
			"WaitForTime": {"secs": w.Duration},
		})
	case WaitForSignal:
		return json.Marshal(map[string]string{"WaitForSignal": w.SignalID})
	default:
		return nil, fmt.Errorf("runtime: unknown wait kind %d", w.Kind)
	}
}

// UnmarshalJSON reads both encodings produced by MarshalJSON.
func (w *WaitingReason) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch s {
		case "None":
			*w = NoWait()
			return nil
		case "WaitForClick":
			*w = ClickWait()
			return nil
		default:
			return fmt.Errorf("runtime: unknown waiting reason %q", s)
		}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if payload, ok := raw["WaitForChoice"]; ok {
		var body struct {
			ChoiceCount int `json:"choice_count"`
		}
		if err := json.Unmarshal(payload, &body); err != nil {
			return err
		}
		*w = ChoiceWait(body.ChoiceCount)
		return nil
	}
	if payload, ok := raw["WaitForTime"]; ok {
		var body struct {
			Secs float64 `json:"secs"`
		}
		if err := json.Unmarshal(payload, &body); err != nil {
			return err
		}
		*w = TimeWait(body.Secs)
		return nil
	}
	if payload, ok := raw["WaitForSignal"]; ok {
		var id string
		if err := json.Unmarshal(payload, &id); err != nil {
			return err
		}
		*w = SignalWait(id)
		return nil
	}
	return fmt.Errorf("runtime: unrecognized waiting reason %s", data)
}

// ScriptPosition records where execution stands.
type ScriptPosition struct {
	ScriptID   string `json:"script_id"`
	ScriptPath string `json:"script_path"`
	NodeIndex  int    `json:"node_index"`
}

// CharacterBinding pairs a sprite path with a stage position. It serializes
// as a two-element array to match the save format.
type CharacterBinding struct {
	Path     string
	Position script.Position
}

func (c CharacterBinding) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{c.Path, string(c.Position)})
}

func (c *CharacterBinding) UnmarshalJSON(data []byte) error {
	var pair [2]string
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	c.Path = pair[0]
	c.Position = script.Position(pair[1])
	return nil
}

// RuntimeState is the engine's sole mutable state. Every field serializes,
// so a save can rebuild the engine at the same position.
type RuntimeState struct {
	Position          ScriptPosition              `json:"position"`
	Variables         map[string]script.Value     `json:"variables"`
	Waiting           WaitingReason               `json:"waiting"`
	VisibleCharacters map[string]CharacterBinding `json:"visible_characters"`
	CurrentBackground string                      `json:"current_background,omitempty"`
}

// NewRuntimeState creates the initial state for a script.
func NewRuntimeState(scriptID, scriptPath string) *RuntimeState {
	return &RuntimeState{
		Position:          ScriptPosition{ScriptID: scriptID, ScriptPath: scriptPath},
		Variables:         make(map[string]script.Value),
		Waiting:           NoWait(),
		VisibleCharacters: make(map[string]CharacterBinding),
	}
}

// GetVar satisfies script.VarMap.
func (s *RuntimeState) GetVar(name string) (script.Value, bool) {
	v, ok := s.Variables[name]
	return v, ok
}

// SetVar assigns a variable.
func (s *RuntimeState) SetVar(name string, value script.Value) {
	if s.Variables == nil {
		s.Variables = make(map[string]script.Value)
	}
	s.Variables[name] = value
}
