package stt

import (
	"context"
)

type mockRecognizer struct {
	text string
}

// NewMockRecognizer returns a recognizer that always hears text.
func NewMockRecognizer(text string) Recognizer {
	return &mockRecognizer{text: text}
}

func (m *mockRecognizer) Transcribe(ctx context.Context, samples []float32, _ int) (TranscriptResult, error) {
	if err := ctx.Err(); err != nil {
		return TranscriptResult{}, err
	}
	if m.text == "" {
		return TranscriptResult{}, nil
	}
	return TranscriptResult{Text: m.text, Confidence: 1}, nil
}
