// Package event defines the log/alert record model shared by the source
// adapter, the escalation pipeline, and the notifiers.
package event

import "time"

// Level classifies an event's reported severity.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarn    Level = "warn"
	LevelError   Level = "error"
	LevelUnknown Level = "unknown"
)

// ParseLevel maps a source-reported status string onto a Level.
// Unrecognized values map to LevelUnknown, never an error.
func ParseLevel(s string) Level {
	switch s {
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error", "err", "critical", "emergency":
		return LevelError
	default:
		return LevelUnknown
	}
}

// Event is one observed log record from the external source. IDs are
// source-assigned and stable; the pipeline never mutates an Event after
// ingestion.
type Event struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Message   string         `json:"message"`
	Level     Level          `json:"level"`
	Service   string         `json:"service"`
	Tags      []string       `json:"tags,omitempty"`
	Attrs     map[string]any `json:"attributes,omitempty"`
}

// noMessage is substituted when the source record carries no message body.
const noMessage = "No message"

// timestampLayout is the display format for formatted events, 24-hour clock.
const timestampLayout = "2006/01/02 15:04:05"

// Format renders the event as a timestamp-prefixed display line. Events
// without a timestamp render the bare message. The output feeds both human
// notifications and summarization input, so it must be deterministic.
func (e Event) Format() string {
	msg := e.Message
	if msg == "" {
		msg = noMessage
	}
	if e.Timestamp.IsZero() {
		return msg
	}
	return "[" + e.Timestamp.Format(timestampLayout) + "] " + msg
}
