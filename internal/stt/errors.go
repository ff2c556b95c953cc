package stt

import (
	"errors"
)

var (
	ErrModelUnavailable = errors.New("speech model unavailable")
	ErrAudioTooShort    = errors.New("recording too short")
	ErrAudioTooLong     = errors.New("recording too long")
	ErrInternal         = errors.New("transcription failed")
)

// Kind returns a short label for a transcription error.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrModelUnavailable):
		return "model_unavailable"
	case errors.Is(err, ErrAudioTooShort):
		return "audio_too_short"
	case errors.Is(err, ErrAudioTooLong):
		return "audio_too_long"
	default:
		return "internal"
	}
}
