package audio

import (
	"math"
	"testing"
)

func TestEnergyTrimmer(t *testing.T) {
	t.Parallel()
	audio := append(block(480, 0), block(480, 0.5)...)
	audio = append(audio, block(480, 0)...)

	trimmer := EnergyTrimmer{Threshold: 0.01, FrameSize: 480}
	got := trimmer.Trim(audio)
	if len(got) != 480 {
		t.Fatalf("expected only the loud frame, got %d samples", len(got))
	}
	if got[0] != 0.5 {
		t.Fatalf("trim kept silence")
	}
}

func TestEnergyTrimmerEdges(t *testing.T) {
	t.Parallel()
	trimmer := EnergyTrimmer{Threshold: 0.01, FrameSize: 480}
	if got := trimmer.Trim(nil); len(got) != 0 {
		t.Fatalf("empty input should stay empty")
	}
	if got := trimmer.Trim(block(1000, 0)); len(got) != 0 {
		t.Fatalf("silence should trim to nothing, got %d", len(got))
	}
	loud := block(1000, 0.2)
	if got := trimmer.Trim(loud); len(got) != len(loud) {
		t.Fatalf("all-voice clip should be kept, got %d", len(got))
	}
}

func TestVADTrimmerSilence(t *testing.T) {
	t.Parallel()
	trimmer, err := NewVADTrimmer(16000, 2)
	if err != nil {
		t.Fatalf("new vad: %v", err)
	}
	if got := trimmer.Trim(block(16000, 0)); len(got) != 0 {
		t.Fatalf("expected digital silence to trim away, got %d samples", len(got))
	}
}

func TestNewVADTrimmerRejectsRate(t *testing.T) {
	t.Parallel()
	if _, err := NewVADTrimmer(44100, 2); err == nil {
		t.Fatalf("expected unsupported rate error")
	}
}

func TestBars(t *testing.T) {
	t.Parallel()
	if Bars(nil, 0) != nil {
		t.Fatalf("zero bars should be nil")
	}
	bars := Bars(nil, 3)
	if len(bars) != 3 || bars[0] != 0 {
		t.Fatalf("expected zero padded bars, got %v", bars)
	}
	wave := make([]float32, 16000)
	for i := range wave {
		wave[i] = float32(math.Sin(float64(i)*0.001) * 0.5)
	}
	for _, b := range Bars(wave, 20) {
		if b < 0 || b > 1 {
			t.Fatalf("bar out of range: %v", b)
		}
	}
}
