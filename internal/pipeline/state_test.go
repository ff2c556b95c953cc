package pipeline

import "testing"

func TestCanTransition(t *testing.T) {
	t.Parallel()
	allowed := map[[2]State]bool{
		{StateIdle, StateRecording}:           true,
		{StateRecording, StateTranscribing}:   true,
		{StateRecording, StateIdle}:           true,
		{StateTranscribing, StateCorrecting}:  true,
		{StateTranscribing, StateInjecting}:   true,
		{StateTranscribing, StateError}:       true,
		{StateCorrecting, StateInjecting}:     true,
		{StateInjecting, StateIdle}:           true,
		{StateError, StateIdle}:               true,
	}
	for _, from := range allStates {
		for _, to := range allStates {
			if got := CanTransition(from, to); got != allowed[[2]State{from, to}] {
				t.Fatalf("CanTransition(%s, %s) = %v", from, to, got)
			}
		}
	}
}

func TestParseModeAndNext(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]Mode{"fast": ModeFast, " Standard ": ModeStandard, "CONTEXT": ModeContext} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseMode("turbo"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
	if ModeFast.Next() != ModeStandard || ModeStandard.Next() != ModeContext || ModeContext.Next() != ModeFast {
		t.Fatalf("unexpected mode cycle")
	}
}

func TestUtteranceFinalText(t *testing.T) {
	t.Parallel()
	u := &Utterance{RawText: "raw"}
	if u.FinalText() != "raw" || u.Corrected() {
		t.Fatalf("uncorrected utterance should use raw text")
	}
	u.CorrectedText = "fixed"
	if u.FinalText() != "fixed" || !u.Corrected() {
		t.Fatalf("corrected text should win")
	}
}
