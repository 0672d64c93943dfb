package runtime

import (
	"nitro-vn/internal/script"
)

// Input is what the host feeds back into the engine to resolve a wait.
type Input interface {
	isInput()
}

// Click resolves WaitForClick.
type Click struct{}

// ChoiceSelected resolves WaitForChoice and jumps to the chosen label.
type ChoiceSelected struct {
	Index int
}

// Signal resolves a WaitForSignal with a matching id.
type Signal struct {
	ID string
}

func (Click) isInput()          {}
func (ChoiceSelected) isInput() {}
func (Signal) isInput()         {}

// maxTickIterations bounds zero-advance work per tick so a label or
// conditional cycle surfaces as an error instead of a hang.
const maxTickIterations = 10000

// Engine executes a script one tick at a time. Each Tick consumes at most
// one input, emits the commands produced while running forward, and reports
// the wait that stopped execution.
type Engine struct {
	script *script.Script
	state  *RuntimeState

	// Inline nodes from the taken branch of a conditional, executed before
	// the next top-level node.
	inline []script.Node

	// Options of the pending choice, kept so ChoiceSelected can resolve a
	// target label even when the choice came from a conditional body.
	pendingChoice []ChoiceItem

	finished bool
}

// NewEngine creates an engine at the start of a script.
func NewEngine(s *script.Script, scriptPath string) *Engine {
	return &Engine{
		script: s,
		state:  NewRuntimeState(s.ID, scriptPath),
	}
}

// Restore rebuilds an engine at a saved position. The script must be the
// same one the state was saved against.
func Restore(s *script.Script, state *RuntimeState) *Engine {
	if state.Variables == nil {
		state.Variables = make(map[string]script.Value)
	}
	if state.VisibleCharacters == nil {
		state.VisibleCharacters = make(map[string]CharacterBinding)
	}
	return &Engine{script: s, state: state}
}

// State returns the engine's serializable state.
func (e *Engine) State() *RuntimeState { return e.state }

// Script returns the script being executed.
func (e *Engine) Script() *script.Script { return e.script }

// Waiting returns the current waiting reason.
func (e *Engine) Waiting() WaitingReason { return e.state.Waiting }

// IsFinished reports whether the script ran to its end.
func (e *Engine) IsFinished() bool {
	return e.finished ||
		(len(e.inline) == 0 &&
			e.state.Position.NodeIndex >= e.script.Len() &&
			!e.state.Waiting.IsWaiting())
}

// Tick advances execution. If input is non-nil it first tries to resolve
// the current wait; if still waiting afterwards the tick is a no-op.
// Otherwise nodes execute forward until one pauses or the script ends.
func (e *Engine) Tick(input Input) ([]Command, WaitingReason, error) {
	if input != nil {
		if err := e.handleInput(input); err != nil {
			return nil, e.state.Waiting, err
		}
	}
	if e.state.Waiting.IsWaiting() {
		return nil, e.state.Waiting, nil
	}

	var commands []Command
	for iter := 0; ; iter++ {
		if iter >= maxTickIterations {
			return commands, e.state.Waiting, &RuntimeError{Kind: ErrNoProgress, Max: maxTickIterations}
		}

		node := e.nextNode()
		if node == nil {
			e.finished = true
			return commands, NoWait(), nil
		}

		cmds, wait, err := e.executeNode(node)
		if err != nil {
			return commands, e.state.Waiting, err
		}
		commands = append(commands, cmds...)

		if wait.IsWaiting() {
			e.state.Waiting = wait
			return commands, wait, nil
		}
	}
}

// nextNode pops the next node to run: inline branch nodes first, then the
// node under the position cursor (which advances past it).
func (e *Engine) nextNode() script.Node {
	if len(e.inline) > 0 {
		node := e.inline[0]
		e.inline = e.inline[1:]
		return node
	}
	node := e.script.Node(e.state.Position.NodeIndex)
	if node == nil {
		return nil
	}
	e.state.Position.NodeIndex++
	return node
}

func (e *Engine) handleInput(input Input) error {
	waiting := e.state.Waiting

	switch in := input.(type) {
	case Click:
		switch waiting.Kind {
		case WaitForClick:
			e.state.Waiting = NoWait()
		case WaitNone, WaitForTime:
			// Ignored: nothing to resolve, or the host owns the timer.
		default:
			return &RuntimeError{Kind: ErrStateMismatch, Message: "Click while " + waiting.String()}
		}

	case ChoiceSelected:
		switch waiting.Kind {
		case WaitForChoice:
			if in.Index < 0 || in.Index >= waiting.ChoiceCount {
				return &RuntimeError{Kind: ErrInvalidChoiceIndex, Index: in.Index, Max: waiting.ChoiceCount}
			}
			if in.Index >= len(e.pendingChoice) {
				return &RuntimeError{Kind: ErrStateMismatch, Message: "no pending choice to resolve"}
			}
			option := e.pendingChoice[in.Index]
			target, ok := e.script.FindLabel(option.TargetLabel)
			if !ok {
				return &RuntimeError{Kind: ErrLabelNotFound, Label: option.TargetLabel}
			}
			e.inline = nil
			e.pendingChoice = nil
			e.state.Position.NodeIndex = target
			e.state.Waiting = NoWait()
		case WaitNone, WaitForTime:
		default:
			return &RuntimeError{Kind: ErrStateMismatch, Message: "ChoiceSelected while " + waiting.String()}
		}

	case Signal:
		switch waiting.Kind {
		case WaitForSignal:
			if in.ID == waiting.SignalID {
				e.state.Waiting = NoWait()
			}
		case WaitNone, WaitForTime:
		default:
			return &RuntimeError{Kind: ErrStateMismatch, Message: "Signal while " + waiting.String()}
		}
	}
	return nil
}

// executeNode produces the commands and optional wait for a single node.
func (e *Engine) executeNode(node script.Node) ([]Command, WaitingReason, error) {
	switch n := node.(type) {
	case *script.Chapter:
		return []Command{&ChapterMark{Title: n.Title, Level: n.Level}}, NoWait(), nil

	case *script.Label:
		return nil, NoWait(), nil

	case *script.Dialogue:
		cmd := &ShowText{Speaker: n.Speaker, Content: n.Content}
		return []Command{cmd}, ClickWait(), nil

	case *script.ChangeBG:
		e.state.CurrentBackground = n.Path
		return []Command{&ShowBackground{Path: n.Path, Transition: n.Transition}}, NoWait(), nil

	case *script.ChangeScene:
		e.state.CurrentBackground = n.Path
		return []Command{&ChangeScene{Path: n.Path, Transition: n.Transition}}, NoWait(), nil

	case *script.ShowCharacter:
		path := n.Path
		if path == "" {
			// Bare alias form: reuse the bound sprite.
			if prev, ok := e.state.VisibleCharacters[n.Alias]; ok {
				path = prev.Path
			}
		}
		e.state.VisibleCharacters[n.Alias] = CharacterBinding{Path: path, Position: n.Position}
		cmd := &ShowCharacter{Path: path, Alias: n.Alias, Position: n.Position, Transition: n.Transition}
		return []Command{cmd}, NoWait(), nil

	case *script.HideCharacter:
		delete(e.state.VisibleCharacters, n.Alias)
		return []Command{&HideCharacter{Alias: n.Alias, Transition: n.Transition}}, NoWait(), nil

	case *script.Choice:
		items := make([]ChoiceItem, len(n.Options))
		for i, opt := range n.Options {
			items[i] = ChoiceItem{Text: opt.Text, TargetLabel: opt.TargetLabel}
		}
		e.pendingChoice = items
		cmd := &PresentChoices{Style: n.Style, Choices: items}
		return []Command{cmd}, ChoiceWait(len(items)), nil

	case *script.PlayAudio:
		if n.IsBGM {
			return []Command{&PlayBgm{Path: n.Path, Looping: true}}, NoWait(), nil
		}
		return []Command{&PlaySfx{Path: n.Path}}, NoWait(), nil

	case *script.StopBgm:
		return []Command{&StopBgm{}}, NoWait(), nil

	case *script.Goto:
		target, ok := e.script.FindLabel(n.TargetLabel)
		if !ok {
			return nil, NoWait(), &RuntimeError{Kind: ErrLabelNotFound, Label: n.TargetLabel}
		}
		e.inline = nil
		e.state.Position.NodeIndex = target
		return nil, NoWait(), nil

	case *script.SetVar:
		value, err := script.Eval(n.Expr, e.state)
		if err != nil {
			return nil, NoWait(), &RuntimeError{Kind: ErrEval, Line: e.currentLine(), Err: err}
		}
		e.state.SetVar(n.Name, value)
		return nil, NoWait(), nil

	case *script.Conditional:
		for _, branch := range n.Branches {
			take := branch.Condition == nil
			if !take {
				ok, err := script.EvalBool(branch.Condition, e.state)
				if err != nil {
					return nil, NoWait(), &RuntimeError{Kind: ErrEval, Line: e.currentLine(), Err: err}
				}
				take = ok
			}
			if take {
				// Branch body runs in place, ahead of the next top-level node.
				e.inline = append(append([]script.Node{}, branch.Body...), e.inline...)
				break
			}
		}
		return nil, NoWait(), nil

	case *script.TextBoxHide:
		return []Command{&TextBoxHide{}}, NoWait(), nil
	case *script.TextBoxShow:
		return []Command{&TextBoxShow{}}, NoWait(), nil
	case *script.TextBoxClear:
		return []Command{&TextBoxClear{}}, NoWait(), nil
	case *script.ClearCharacters:
		return []Command{&ClearCharacters{}}, NoWait(), nil
	}
	return nil, NoWait(), nil
}

// currentLine reports the source line of the node under the cursor, for
// error messages. The cursor has already advanced, hence the -1.
func (e *Engine) currentLine() int {
	return e.script.SourceLine(e.state.Position.NodeIndex - 1)
}
