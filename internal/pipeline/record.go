package pipeline

import "time"

// Outcomes a finished utterance can have.
const (
	OutcomeInjected     = "injected"
	OutcomeInjectFailed = "inject_failed"
	OutcomeCancelled    = "cancelled"
	OutcomeError        = "error"
)

// Record summarizes one finished utterance as observed on the status stream.
type Record struct {
	ID            string    `json:"id"`
	Mode          Mode      `json:"mode"`
	Outcome       string    `json:"outcome"`
	RawText       string    `json:"raw_text,omitempty"`
	CorrectedText string    `json:"corrected_text,omitempty"`
	InjectedText  string    `json:"injected_text,omitempty"`
	Warning       string    `json:"warning,omitempty"`
	Error         string    `json:"error,omitempty"`
	AudioSeconds  float64   `json:"audio_seconds,omitempty"`
	FinishedAt    time.Time `json:"finished_at"`
}

// Finished reports whether next closes out the utterance prev was working
// on. Subscribers feed it consecutive statuses from StateCell.Subscribe.
func Finished(prev, next Status) (Record, bool) {
	if !prev.State.Busy() || next.UtteranceID == "" {
		return Record{}, false
	}
	var outcome string
	switch {
	case next.State == StateError:
		outcome = OutcomeError
	case next.State != StateIdle:
		return Record{}, false
	case prev.State == StateRecording:
		outcome = OutcomeCancelled
	case next.InjectError != "":
		outcome = OutcomeInjectFailed
	default:
		outcome = OutcomeInjected
	}
	errText := next.Error
	if outcome == OutcomeInjectFailed {
		errText = next.InjectError
	}
	return Record{
		ID:            next.UtteranceID,
		Mode:          next.Mode,
		Outcome:       outcome,
		RawText:       next.RawText,
		CorrectedText: next.CorrectedText,
		InjectedText:  next.InjectedText,
		Warning:       next.Warning,
		Error:         errText,
		AudioSeconds:  next.AudioSeconds,
		FinishedAt:    next.UpdatedAt,
	}, true
}
