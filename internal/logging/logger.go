// Package logging provides a bounded, component-scoped logger shared by
// every subsystem of the narrative runtime.
package logging

import (
	"fmt"
	"sync"
	"time"
)

// Logger is a ring buffer of log entries drained from a buffered channel by
// a background goroutine, so hot frame-loop paths never block on logging.
type Logger struct {
	entries    []Entry
	entriesMu  sync.RWMutex
	maxEntries int
	writeIndex int
	entryCount int

	componentEnabled map[Component]bool
	componentMu      sync.RWMutex

	minLevel Level
	levelMu  sync.RWMutex

	logChan  chan Entry
	shutdown chan struct{}
	wg       sync.WaitGroup
}

// New creates a logger with every component enabled at LevelInfo.
func New(maxEntries int) *Logger {
	if maxEntries < 100 {
		maxEntries = 100
	}

	l := &Logger{
		entries:          make([]Entry, maxEntries),
		maxEntries:       maxEntries,
		componentEnabled: make(map[Component]bool),
		minLevel:         LevelInfo,
		logChan:          make(chan Entry, 1000),
		shutdown:         make(chan struct{}),
	}

	for _, c := range []Component{
		ComponentScript, ComponentRuntime, ComponentExecutor, ComponentAnimation,
		ComponentAudio, ComponentRender, ComponentResource, ComponentSave, ComponentApp,
	} {
		l.componentEnabled[c] = true
	}

	l.wg.Add(1)
	go l.processEntries()

	return l
}

func (l *Logger) processEntries() {
	defer l.wg.Done()
	for {
		select {
		case e := <-l.logChan:
			l.addEntry(e)
		case <-l.shutdown:
			for {
				select {
				case e := <-l.logChan:
					l.addEntry(e)
				default:
					return
				}
			}
		}
	}
}

func (l *Logger) addEntry(e Entry) {
	l.entriesMu.Lock()
	defer l.entriesMu.Unlock()
	l.entries[l.writeIndex] = e
	l.writeIndex = (l.writeIndex + 1) % l.maxEntries
	if l.entryCount < l.maxEntries {
		l.entryCount++
	}
}

// Log records a message for a component at a level, subject to the
// component-enabled and minimum-level filters.
func (l *Logger) Log(component Component, level Level, message string, data map[string]any) {
	l.componentMu.RLock()
	enabled := l.componentEnabled[component]
	l.componentMu.RUnlock()
	if !enabled {
		return
	}

	l.levelMu.RLock()
	minLevel := l.minLevel
	l.levelMu.RUnlock()
	// Lower values are more severe; drop anything more verbose than the
	// configured minimum.
	if level > minLevel {
		return
	}

	select {
	case l.logChan <- Entry{Component: component, Level: level, Message: message, Data: data, Timestamp: time.Now()}:
	default:
		// Buffer full: drop rather than block the frame loop.
	}
}

// Logf is Log with fmt.Sprintf-style formatting.
func (l *Logger) Logf(component Component, level Level, format string, args ...any) {
	l.Log(component, level, fmt.Sprintf(format, args...), nil)
}

// Entries returns a copy of all buffered entries, oldest first.
func (l *Logger) Entries() []Entry {
	l.entriesMu.RLock()
	defer l.entriesMu.RUnlock()

	if l.entryCount == 0 {
		return []Entry{}
	}
	out := make([]Entry, l.entryCount)
	if l.entryCount < l.maxEntries {
		copy(out, l.entries[:l.entryCount])
		return out
	}
	for i := 0; i < l.entryCount; i++ {
		out[i] = l.entries[(l.writeIndex+i)%l.maxEntries]
	}
	return out
}

// Recent returns the most recent n entries (or fewer, if the buffer holds less).
func (l *Logger) Recent(n int) []Entry {
	all := l.Entries()
	if n >= len(all) {
		return all
	}
	return all[len(all)-n:]
}

// Clear empties the buffer without affecting filters.
func (l *Logger) Clear() {
	l.entriesMu.Lock()
	defer l.entriesMu.Unlock()
	l.entryCount = 0
	l.writeIndex = 0
}

// SetComponentEnabled toggles logging for a component.
func (l *Logger) SetComponentEnabled(c Component, enabled bool) {
	l.componentMu.Lock()
	defer l.componentMu.Unlock()
	l.componentEnabled[c] = enabled
}

// SetMinLevel changes the minimum level that is recorded.
func (l *Logger) SetMinLevel(level Level) {
	l.levelMu.Lock()
	defer l.levelMu.Unlock()
	l.minLevel = level
}

// Close stops the background drain goroutine, flushing anything queued.
func (l *Logger) Close() {
	close(l.shutdown)
	l.wg.Wait()
}
