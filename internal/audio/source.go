// Package audio owns microphone capture for the dictation pipeline: a capped
// sample buffer written by the device callback, the arm/disarm gate the
// orchestrator drives, amplitude metering for the UI and silence trimming.
package audio

import (
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

const maxLevels = 4096

// Trimmer removes leading and trailing silence from a finished clip.
type Trimmer interface {
	Trim(samples []float32) []float32
}

// Source collects device blocks while armed. The device callback is the only
// writer; the orchestrator reads with Drain once it has disarmed.
type Source struct {
	mu         sync.Mutex
	buffer     *SampleBuffer
	levels     []float32
	armed      bool
	level      atomic.Uint64
	trimmer    Trimmer
	sampleRate int
	logger     *slog.Logger
}

func NewSource(maxSamples, sampleRate int, trimmer Trimmer, logger *slog.Logger) *Source {
	return &Source{
		buffer:     NewSampleBuffer(maxSamples),
		levels:     make([]float32, 0, 256),
		trimmer:    trimmer,
		sampleRate: sampleRate,
		logger:     logger.With(slog.String("component", "audio")),
	}
}

// Push is the device callback entry point. Blocks that arrive while disarmed
// are ignored.
func (s *Source) Push(block []float32) {
	if len(block) == 0 {
		return
	}
	rms := RMS(block)
	s.mu.Lock()
	if !s.armed {
		s.mu.Unlock()
		return
	}
	s.buffer.Push(block)
	if len(s.levels) == maxLevels {
		copy(s.levels, s.levels[1:])
		s.levels = s.levels[:maxLevels-1]
	}
	s.levels = append(s.levels, float32(rms))
	s.mu.Unlock()
	s.level.Store(math.Float64bits(rms))
}

// Arm clears any stale samples and starts accepting blocks.
func (s *Source) Arm() {
	s.mu.Lock()
	s.buffer.Clear()
	s.levels = s.levels[:0]
	s.armed = true
	s.mu.Unlock()
	s.level.Store(0)
}

func (s *Source) Disarm() {
	s.mu.Lock()
	s.armed = false
	s.mu.Unlock()
	s.level.Store(0)
}

// Drain hands the raw captured clip to the caller and leaves the buffer
// empty. Silence trimming is left to Trim so it can run off the caller's
// goroutine.
func (s *Source) Drain() []float32 {
	s.mu.Lock()
	dropped := s.buffer.Dropped()
	samples := s.buffer.Drain()
	s.levels = s.levels[:0]
	s.mu.Unlock()

	if dropped > 0 {
		s.logger.Warn("recording exceeded buffer capacity; oldest audio dropped",
			slog.Int("dropped_samples", dropped),
			slog.Int("capacity", s.buffer.Cap()))
	}
	return samples
}

// Trim strips leading and trailing silence from a drained clip with the
// configured Trimmer. Without one the clip is returned as is.
func (s *Source) Trim(samples []float32) []float32 {
	if s.trimmer == nil || len(samples) == 0 {
		return samples
	}
	trimmed := s.trimmer.Trim(samples)
	s.logger.Debug("silence trimmed",
		slog.Duration("before", s.duration(len(samples))),
		slog.Duration("after", s.duration(len(trimmed))))
	return trimmed
}

func (s *Source) Clear() {
	s.mu.Lock()
	s.buffer.Clear()
	s.levels = s.levels[:0]
	s.mu.Unlock()
}

// Level is the RMS amplitude of the most recent block, zero when disarmed.
func (s *Source) Level() float64 {
	return math.Float64frombits(s.level.Load())
}

// Waveform summarizes the current recording as n bars in [0, 1].
func (s *Source) Waveform(n int) []float64 {
	s.mu.Lock()
	levels := append([]float32(nil), s.levels...)
	s.mu.Unlock()
	return Bars(levels, n)
}

// Buffered reports how much audio is currently held.
func (s *Source) Buffered() time.Duration {
	s.mu.Lock()
	n := s.buffer.Len()
	s.mu.Unlock()
	return s.duration(n)
}

func (s *Source) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.armed
}

func (s *Source) duration(samples int) time.Duration {
	if s.sampleRate <= 0 {
		return 0
	}
	return time.Duration(samples) * time.Second / time.Duration(s.sampleRate)
}
