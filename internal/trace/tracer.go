// Package trace provides leveled execution tracing for the engine: symbol
// binding, run lifecycle, and per-call external dispatch.
package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	// LevelOff disables tracing.
	LevelOff Level = iota
	// LevelError passes only error-level events; the engine emits none.
	LevelError
	// LevelPhase emits run begin/end boundaries.
	LevelPhase
	// LevelDetail adds one bind event per symbol bound at construction.
	LevelDetail
	// LevelDebug adds every dispatched external call, quantum and runtime.
	LevelDebug
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelError:
		return "error"
	case LevelPhase:
		return "phase"
	case LevelDetail:
		return "detail"
	case LevelDebug:
		return "debug"
	default:
		return fmt.Sprintf("Level(%d)", uint8(l))
	}
}

// ParseLevel converts a string to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "off", "":
		return LevelOff, nil
	case "error":
		return LevelError, nil
	case "phase":
		return LevelPhase, nil
	case "detail":
		return LevelDetail, nil
	case "debug":
		return LevelDebug, nil
	default:
		return LevelOff, fmt.Errorf("unknown trace level %q", s)
	}
}

// Tracer is the interface for emitting trace events.
type Tracer interface {
	// Emit records a trace event.
	Emit(ev Event)

	// Level returns the current tracing level.
	Level() Level

	// Enabled reports whether events at the given level are recorded.
	Enabled(l Level) bool
}
