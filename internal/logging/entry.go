package logging

import (
	"fmt"
	"time"
)

// Level represents the severity of a log entry.
type Level int

const (
	LevelNone Level = iota
	LevelError
	LevelWarning
	LevelInfo
	LevelDebug
	LevelTrace
)

func (l Level) String() string {
	switch l {
	case LevelNone:
		return "NONE"
	case LevelError:
		return "ERROR"
	case LevelWarning:
		return "WARNING"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	case LevelTrace:
		return "TRACE"
	default:
		return "UNKNOWN"
	}
}

// Component identifies the subsystem that produced a log entry.
type Component string

const (
	ComponentScript    Component = "Script"
	ComponentRuntime   Component = "Runtime"
	ComponentExecutor  Component = "Executor"
	ComponentAnimation Component = "Animation"
	ComponentAudio     Component = "Audio"
	ComponentRender    Component = "Render"
	ComponentResource  Component = "Resource"
	ComponentSave      Component = "Save"
	ComponentApp       Component = "App"
)

// Entry is a single log record.
type Entry struct {
	Timestamp time.Time
	Component Component
	Level     Level
	Message   string
	Data      map[string]any
}

// Format renders an entry the way a terminal log line is expected to read.
func (e *Entry) Format() string {
	ts := e.Timestamp.Format("15:04:05.000")
	return fmt.Sprintf("[%s] [%s] %s: %s", ts, e.Component, e.Level, e.Message)
}
