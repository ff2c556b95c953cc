package protocol

import (
	"strings"
	"time"
)

// Command names accepted on the command subject and the /ws socket.
const (
	CommandRecordStart  = "record_start"
	CommandRecordStop   = "record_stop"
	CommandCancel       = "cancel"
	CommandAcknowledge  = "acknowledge"
	CommandMode         = "mode"
	CommandResetContext = "reset_context"
)

// Command is an external request to drive the pipeline.
type Command struct {
	Command string `json:"command"`
	Mode    string `json:"mode,omitempty"`
	Source  string `json:"source,omitempty"`
}

// StateUpdate mirrors one pipeline status change.
type StateUpdate struct {
	Seq           uint64    `json:"seq"`
	State         string    `json:"state"`
	Mode          string    `json:"mode"`
	UtteranceID   string    `json:"utterance_id,omitempty"`
	Error         string    `json:"error,omitempty"`
	Warning       string    `json:"warning,omitempty"`
	RawText       string    `json:"raw_text,omitempty"`
	CorrectedText string    `json:"corrected_text,omitempty"`
	InjectedText  string    `json:"injected_text,omitempty"`
	InjectError   string    `json:"inject_error,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Utterance is broadcast once per finished push-to-talk cycle.
type Utterance struct {
	ID            string    `json:"id"`
	Mode          string    `json:"mode"`
	Outcome       string    `json:"outcome"`
	RawText       string    `json:"raw_text,omitempty"`
	CorrectedText string    `json:"corrected_text,omitempty"`
	InjectedText  string    `json:"injected_text,omitempty"`
	Warning       string    `json:"warning,omitempty"`
	Error         string    `json:"error,omitempty"`
	AudioSeconds  float64   `json:"audio_seconds,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Presence is the periodic heartbeat a dictation node sends so remote
// controllers can find it.
type Presence struct {
	NodeID    string    `json:"node_id"`
	Name      string    `json:"name"`
	Host      string    `json:"host,omitempty"`
	State     string    `json:"state"`
	Mode      string    `json:"mode"`
	Hotkey    bool      `json:"hotkey"`
	Timestamp time.Time `json:"timestamp"`
}

const DefaultSubjectPrefix = "dictation"

// Subjects are the bus subjects under one prefix.
type Subjects struct {
	State     string
	Command   string
	Utterance string
	// Presence is a prefix; each node publishes on Presence + "." + node ID.
	Presence string
}

func NewSubjects(prefix string) Subjects {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return Subjects{
		State:     prefix + ".state",
		Command:   prefix + ".command",
		Utterance: prefix + ".utterance",
		Presence:  prefix + ".presence",
	}
}
