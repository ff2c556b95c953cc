package audio

import (
	"io"
	"log/slog"
	"math"
	"testing"
	"time"
)

func newTestSource(maxSamples int, trimmer Trimmer) *Source {
	return NewSource(maxSamples, 16000, trimmer, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func block(n int, v float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestSourceIgnoresBlocksWhileDisarmed(t *testing.T) {
	t.Parallel()
	src := newTestSource(16000, nil)
	src.Push(block(160, 0.5))
	if got := src.Drain(); len(got) != 0 {
		t.Fatalf("expected no samples before arm, got %d", len(got))
	}

	src.Arm()
	src.Push(block(160, 0.5))
	src.Disarm()
	src.Push(block(160, 0.5))
	if got := src.Drain(); len(got) != 160 {
		t.Fatalf("expected 160 samples, got %d", len(got))
	}
}

func TestSourceArmStartsEmpty(t *testing.T) {
	t.Parallel()
	src := newTestSource(16000, nil)
	src.Arm()
	src.Push(block(320, 0.1))
	src.Disarm()
	src.Arm()
	if d := src.Buffered(); d != 0 {
		t.Fatalf("expected empty buffer after re-arm, got %v", d)
	}
}

func TestSourceClearAndDisarmWithoutArm(t *testing.T) {
	t.Parallel()
	src := newTestSource(100, nil)
	src.Disarm()
	src.Clear()
	if src.Armed() {
		t.Fatalf("source should not be armed")
	}
	if got := src.Drain(); len(got) != 0 {
		t.Fatalf("expected empty drain")
	}
}

func TestSourceLevelAndWaveform(t *testing.T) {
	t.Parallel()
	src := newTestSource(16000, nil)
	src.Arm()
	src.Push(block(160, 0.5))
	if lvl := src.Level(); math.Abs(lvl-0.5) > 1e-6 {
		t.Fatalf("expected level 0.5, got %v", lvl)
	}
	src.Push(block(160, 2))
	bars := src.Waveform(4)
	if len(bars) != 4 {
		t.Fatalf("expected 4 bars, got %d", len(bars))
	}
	if math.Abs(bars[0]-0.5) > 1e-6 || bars[1] != 1 || bars[2] != 0 {
		t.Fatalf("unexpected bars %v", bars)
	}
	src.Disarm()
	if src.Level() != 0 {
		t.Fatalf("level should reset on disarm")
	}
	if d := src.Buffered(); d != 20*time.Millisecond {
		t.Fatalf("expected 20ms buffered, got %v", d)
	}
}

type halfTrimmer struct{}

func (halfTrimmer) Trim(s []float32) []float32 { return s[:len(s)/2] }

func TestSourceDrainLeavesTrimToCaller(t *testing.T) {
	t.Parallel()
	src := newTestSource(1000, halfTrimmer{})
	src.Arm()
	src.Push(block(100, 0.3))
	src.Disarm()
	raw := src.Drain()
	if len(raw) != 100 {
		t.Fatalf("expected the raw clip of 100, got %d", len(raw))
	}
	if got := src.Trim(raw); len(got) != 50 {
		t.Fatalf("expected trimmed clip of 50, got %d", len(got))
	}
	if got := newTestSource(1000, nil).Trim(raw); len(got) != 100 {
		t.Fatalf("no trimmer should return the clip unchanged, got %d", len(got))
	}
}

func TestSourceCapsRecording(t *testing.T) {
	t.Parallel()
	src := newTestSource(100, nil)
	src.Arm()
	for i := 0; i < 5; i++ {
		src.Push(block(40, float32(i)/10))
	}
	src.Disarm()
	got := src.Drain()
	if len(got) != 100 {
		t.Fatalf("expected capped clip of 100, got %d", len(got))
	}
	if got[len(got)-1] != 0.4 {
		t.Fatalf("expected newest audio to survive")
	}
}
