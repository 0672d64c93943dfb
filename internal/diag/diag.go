// Package diag runs static checks over a parsed script: label integrity,
// asset existence, and transition sanity. Checks are pure functions; the
// only I/O is Exists probes on the injected resource source.
package diag

import (
	"fmt"

	"nitro-vn/internal/effect"
	"nitro-vn/internal/resource"
	"nitro-vn/internal/script"
)

// Level grades a diagnostic.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "?"
	}
}

// Diagnostic is one leveled finding, tied to a source line when the node
// has one.
type Diagnostic struct {
	Level    Level
	ScriptID string
	Line     int
	Message  string
	Detail   string
}

func (d Diagnostic) String() string {
	s := fmt.Sprintf("[%s] %s", d.Level, d.ScriptID)
	if d.Line > 0 {
		s += fmt.Sprintf(":%d", d.Line)
	}
	s += ": " + d.Message
	if d.Detail != "" {
		s += "\n  | " + d.Detail
	}
	return s
}

// Result aggregates findings.
type Result struct {
	Diagnostics []Diagnostic
}

// HasErrors reports whether any finding is an error.
func (r *Result) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Level == LevelError {
			return true
		}
	}
	return false
}

// ErrorCount counts error-level findings.
func (r *Result) ErrorCount() int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Level == LevelError {
			n++
		}
	}
	return n
}

// WarnCount counts warning-level findings.
func (r *Result) WarnCount() int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Level == LevelWarn {
			n++
		}
	}
	return n
}

// CheckScript runs every check. source may be nil to skip asset probes.
func CheckScript(s *script.Script, source resource.Source) *Result {
	result := &Result{}
	checkLabels(s, result)
	if source != nil {
		checkAssets(s, source, result)
	}
	checkTransitions(s, result)
	return result
}

// walk visits every node including conditional branch bodies, carrying the
// owning top-level node's source line.
func walk(s *script.Script, visit func(node script.Node, line int)) {
	var rec func(nodes []script.Node, line int)
	rec = func(nodes []script.Node, line int) {
		for _, node := range nodes {
			visit(node, line)
			if cond, ok := node.(*script.Conditional); ok {
				for _, branch := range cond.Branches {
					rec(branch.Body, line)
				}
			}
		}
	}
	for i, node := range s.Nodes {
		line := s.SourceLine(i)
		visit(node, line)
		if cond, ok := node.(*script.Conditional); ok {
			for _, branch := range cond.Branches {
				rec(branch.Body, line)
			}
		}
	}
}

// checkLabels flags jumps to undefined labels and labels nothing jumps to.
func checkLabels(s *script.Script, result *Result) {
	used := make(map[string]bool)

	report := func(label string, line int, context string) {
		used[label] = true
		if _, ok := s.FindLabel(label); !ok {
			result.Diagnostics = append(result.Diagnostics, Diagnostic{
				Level:    LevelError,
				ScriptID: s.ID,
				Line:     line,
				Message:  fmt.Sprintf("undefined label %q", label),
				Detail:   context,
			})
		}
	}

	walk(s, func(node script.Node, line int) {
		switch n := node.(type) {
		case *script.Goto:
			report(n.TargetLabel, line, "goto target")
		case *script.Choice:
			for _, opt := range n.Options {
				report(opt.TargetLabel, line, fmt.Sprintf("choice option %q", opt.Text))
			}
		}
	})

	for name, index := range s.Labels() {
		if !used[name] {
			result.Diagnostics = append(result.Diagnostics, Diagnostic{
				Level:    LevelWarn,
				ScriptID: s.ID,
				Line:     s.SourceLine(index),
				Message:  fmt.Sprintf("label %q is never jumped to", name),
			})
		}
	}
}

// checkAssets probes every referenced asset path.
func checkAssets(s *script.Script, source resource.Source, result *Result) {
	probe := func(authored, kind string, line int) {
		if authored == "" {
			return
		}
		logical := resource.Normalize(s.ResolvePath(authored))
		if !source.Exists(logical) {
			result.Diagnostics = append(result.Diagnostics, Diagnostic{
				Level:    LevelError,
				ScriptID: s.ID,
				Line:     line,
				Message:  fmt.Sprintf("missing %s asset %q", kind, logical),
			})
		}
	}

	walk(s, func(node script.Node, line int) {
		switch n := node.(type) {
		case *script.ChangeBG:
			probe(n.Path, "background", line)
		case *script.ChangeScene:
			probe(n.Path, "scene", line)
			if n.Transition != nil {
				resolved := effect.Resolve(n.Transition)
				if resolved.Kind == effect.Rule {
					probe(resolved.MaskPath, "rule mask", line)
				}
			}
		case *script.ShowCharacter:
			probe(n.Path, "character", line)
		case *script.PlayAudio:
			probe(n.Path, "audio", line)
		}
	})
}

// checkTransitions flags effect names that would silently degrade.
func checkTransitions(s *script.Script, result *Result) {
	check := func(t *script.Transition, line int, context string) {
		if t == nil {
			return
		}
		if effect.Resolve(t).Fallback {
			result.Diagnostics = append(result.Diagnostics, Diagnostic{
				Level:    LevelWarn,
				ScriptID: s.ID,
				Line:     line,
				Message:  fmt.Sprintf("unknown transition %q degrades to dissolve", t.Name),
				Detail:   context,
			})
		}
	}

	walk(s, func(node script.Node, line int) {
		switch n := node.(type) {
		case *script.ChangeBG:
			check(n.Transition, line, "changeBG")
		case *script.ChangeScene:
			check(n.Transition, line, "changeScene")
		case *script.ShowCharacter:
			check(n.Transition, line, "show")
		case *script.HideCharacter:
			check(n.Transition, line, "hide")
		}
	})
}
