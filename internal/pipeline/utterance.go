package pipeline

import "time"

// Utterance is one push-to-talk cycle. The orchestrator owns it exclusively;
// the UI only sees the copy carried in Status.
type Utterance struct {
	ID            string
	Mode          Mode
	Audio         []float32
	RawText       string
	CorrectedText string // empty when correction was skipped or failed

	FallbackReason string

	StartedAt     time.Time
	RecordedAt    time.Time
	TranscribedAt time.Time
	CorrectedAt   time.Time
	InjectedAt    time.Time
}

// FinalText is the text handed to the output sink.
func (u *Utterance) FinalText() string {
	if u.CorrectedText != "" {
		return u.CorrectedText
	}
	return u.RawText
}

// Corrected reports whether the correction engine produced the final text.
func (u *Utterance) Corrected() bool {
	return u.CorrectedText != ""
}
