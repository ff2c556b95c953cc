package stt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
)

// Options bound what the engine accepts.
type Options struct {
	SampleRate     int
	MinDuration    time.Duration
	MaxDuration    time.Duration
	Timeout        time.Duration
	QuietThreshold float64
}

// Engine validates captured audio and runs it through a Recognizer. It holds
// no per-utterance state and may be called from any goroutine.
type Engine struct {
	recognizer Recognizer
	opts       Options
	logger     *slog.Logger
}

func NewEngine(recognizer Recognizer, opts Options, logger *slog.Logger) *Engine {
	if opts.SampleRate <= 0 {
		opts.SampleRate = 16000
	}
	return &Engine{
		recognizer: recognizer,
		opts:       opts,
		logger:     logger.With(slog.String("component", "stt")),
	}
}

// Validate checks the clip length against the configured bounds.
func (e *Engine) Validate(samples []float32) error {
	if len(samples) == 0 {
		return fmt.Errorf("%w: no audio captured, hold the hotkey longer", ErrAudioTooShort)
	}
	got := float64(len(samples)) / float64(e.opts.SampleRate)
	if minSecs := e.opts.MinDuration.Seconds(); got < minSecs {
		return fmt.Errorf("%w: %.2fs (minimum %.2fs)", ErrAudioTooShort, got, minSecs)
	}
	if maxSecs := e.opts.MaxDuration.Seconds(); maxSecs > 0 && got > maxSecs {
		return fmt.Errorf("%w: %.2fs (maximum %.2fs)", ErrAudioTooLong, got, maxSecs)
	}
	return nil
}

func (e *Engine) Transcribe(ctx context.Context, samples []float32) (string, error) {
	if err := e.Validate(samples); err != nil {
		return "", err
	}
	if e.opts.QuietThreshold > 0 {
		if p := peak(samples); p < e.opts.QuietThreshold {
			e.logger.Warn("audio is very quiet",
				slog.Float64("peak", p),
				slog.Float64("threshold", e.opts.QuietThreshold))
		}
	}
	if e.recognizer == nil {
		return "", fmt.Errorf("%w: no recognizer configured", ErrModelUnavailable)
	}

	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := e.recognizer.Transcribe(ctx, samples, e.opts.SampleRate)
	if err != nil {
		if errors.Is(err, ErrModelUnavailable) || errors.Is(err, ErrInternal) ||
			errors.Is(err, ErrAudioTooShort) || errors.Is(err, ErrAudioTooLong) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrInternal, err)
	}
	text := strings.TrimSpace(result.Text)
	if text == "" {
		return "", fmt.Errorf("%w: no speech recognized", ErrInternal)
	}
	e.logger.Debug("transcription complete",
		slog.Duration("latency", time.Since(start)),
		slog.Int("samples", len(samples)),
		slog.Int("chars", len([]rune(text))))
	return text, nil
}

func peak(samples []float32) float64 {
	var p float64
	for _, s := range samples {
		if v := math.Abs(float64(s)); v > p {
			p = v
		}
	}
	return p
}
