package pipeline

import (
	"context"
	"errors"

	"github.com/loqalabs/loqa-dictate/internal/inject"
	"github.com/loqalabs/loqa-dictate/internal/llm"
	"github.com/loqalabs/loqa-dictate/internal/stt"
)

// Category is how the orchestrator reacts to a collaborator error.
type Category string

const (
	// CategoryFallback: correction failed; inject the raw transcript.
	CategoryFallback Category = "fallback"
	// CategoryReset: injection failed; report and return to idle.
	CategoryReset Category = "reset"
	// CategoryFatal: transcription failed; the utterance ends in error.
	CategoryFatal Category = "fatal"
	// CategoryIgnored: a result for an utterance that is no longer current.
	CategoryIgnored Category = "ignored"
)

var (
	ErrStaleResult = errors.New("stale stage result")
	ErrStagePanic  = errors.New("stage panicked")
)

// Classify maps an error returned by the collaborator behind stage onto a
// category and a short kind label for logs, metrics and status.
func Classify(stage State, err error) (Category, string) {
	if errors.Is(err, ErrStaleResult) {
		return CategoryIgnored, "stale"
	}
	var kind string
	switch {
	case errors.Is(err, ErrStagePanic):
		kind = "panic"
	case stage == StateCorrecting && errors.Is(err, context.DeadlineExceeded):
		kind = "timeout"
	}

	switch stage {
	case StateTranscribing:
		if kind == "" {
			kind = stt.Kind(err)
		}
		return CategoryFatal, kind
	case StateCorrecting:
		if kind == "" {
			kind = llm.Kind(err)
		}
		return CategoryFallback, kind
	case StateInjecting:
		if kind == "" {
			kind = inject.Kind(err)
		}
		return CategoryReset, kind
	default:
		return CategoryIgnored, "unexpected"
	}
}
