package pipeline

import "time"

// EventType enumerates inbound orchestrator events.
type EventType string

const (
	EventRecordStart  EventType = "record_start"
	EventRecordStop   EventType = "record_stop"
	EventCancel       EventType = "cancel"
	EventModeChange   EventType = "mode_change"
	EventAcknowledge  EventType = "acknowledge"
	EventResetContext EventType = "reset_context"
	EventReload       EventType = "reload"
)

// Event is a trigger or command delivered to the orchestrator.
type Event struct {
	Type     EventType
	Mode     Mode      // EventModeChange
	Settings *Settings // EventReload
	Source   string
	At       time.Time
}

// Submitter accepts events without blocking the caller.
type Submitter interface {
	Submit(ev Event) bool
}

func RecordStart(source string) Event { return Event{Type: EventRecordStart, Source: source} }
func RecordStop(source string) Event  { return Event{Type: EventRecordStop, Source: source} }
func Cancel(source string) Event      { return Event{Type: EventCancel, Source: source} }
func Acknowledge(source string) Event { return Event{Type: EventAcknowledge, Source: source} }

func ModeChange(mode Mode, source string) Event {
	return Event{Type: EventModeChange, Mode: mode, Source: source}
}

func ResetContext(source string) Event { return Event{Type: EventResetContext, Source: source} }

// Reload stages new settings; they take effect at the next Idle.
func Reload(settings Settings, source string) Event {
	return Event{Type: EventReload, Settings: &settings, Source: source}
}
