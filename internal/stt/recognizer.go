package stt

import (
	"context"
)

// TranscriptResult captures recognizer output.
type TranscriptResult struct {
	Text       string
	Confidence float64
	Language   string
}

// Recognizer abstracts STT backends. Samples are mono float32 in [-1, 1].
type Recognizer interface {
	Transcribe(ctx context.Context, samples []float32, sampleRate int) (TranscriptResult, error)
}
