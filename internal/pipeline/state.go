package pipeline

import (
	"fmt"
	"strings"
)

// State is the externally observable status of the dictation pipeline.
type State string

const (
	StateIdle         State = "idle"
	StateRecording    State = "recording"
	StateTranscribing State = "transcribing"
	StateCorrecting   State = "correcting"
	StateInjecting    State = "injecting"
	StateError        State = "error"
)

// Mode selects how much post-processing a transcript receives.
type Mode string

const (
	ModeFast     Mode = "fast"
	ModeStandard Mode = "standard"
	ModeContext  Mode = "context"
)

// ParseMode accepts a case-insensitive mode name.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeFast:
		return ModeFast, nil
	case ModeStandard:
		return ModeStandard, nil
	case ModeContext:
		return ModeContext, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want fast|standard|context)", value)
	}
}

// Next cycles fast -> standard -> context -> fast.
func (m Mode) Next() Mode {
	switch m {
	case ModeFast:
		return ModeStandard
	case ModeStandard:
		return ModeContext
	default:
		return ModeFast
	}
}

var transitions = map[State][]State{
	StateIdle:         {StateRecording},
	StateRecording:    {StateTranscribing, StateIdle},
	StateTranscribing: {StateCorrecting, StateInjecting, StateError},
	StateCorrecting:   {StateInjecting},
	StateInjecting:    {StateIdle},
	StateError:        {StateIdle},
}

// CanTransition reports whether from -> to is an edge of the state machine.
func CanTransition(from, to State) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Busy reports whether an utterance is in flight.
func (s State) Busy() bool {
	switch s {
	case StateRecording, StateTranscribing, StateCorrecting, StateInjecting:
		return true
	default:
		return false
	}
}
