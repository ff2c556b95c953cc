package audio

import (
	"fmt"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"
)

// VADTrimmer classifies 10ms frames with the WebRTC voice activity detector
// and keeps the span between the first and last voiced frame, padded on both
// sides. A clip with no voiced frame trims to nothing.
type VADTrimmer struct {
	vad        *webrtcvad.VAD
	sampleRate int
	padFrames  int
}

func NewVADTrimmer(sampleRate, mode int) (*VADTrimmer, error) {
	switch sampleRate {
	case 8000, 16000, 32000, 48000:
	default:
		return nil, fmt.Errorf("vad: unsupported sample rate %d", sampleRate)
	}
	vad, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("create vad: %w", err)
	}
	mode = max(0, min(mode, 3))
	if err := vad.SetMode(mode); err != nil {
		return nil, fmt.Errorf("set vad mode: %w", err)
	}
	return &VADTrimmer{vad: vad, sampleRate: sampleRate, padFrames: 20}, nil
}

func (t *VADTrimmer) Trim(samples []float32) []float32 {
	frame := t.sampleRate / 100
	return trimFrames(samples, frame, t.padFrames, func(chunk []float32) bool {
		if len(chunk) < frame {
			return false
		}
		active, err := t.vad.Process(t.sampleRate, int16Bytes(chunk))
		return err == nil && active
	})
}

// EnergyTrimmer treats 30ms frames whose RMS exceeds Threshold as voice.
// It serves sample rates the WebRTC detector does not accept.
type EnergyTrimmer struct {
	Threshold float64
	FrameSize int
}

func (t EnergyTrimmer) Trim(samples []float32) []float32 {
	frame := t.FrameSize
	if frame <= 0 {
		frame = 480
	}
	return trimFrames(samples, frame, 0, func(chunk []float32) bool {
		return RMS(chunk) > t.Threshold
	})
}

func trimFrames(samples []float32, frame, pad int, voiced func([]float32) bool) []float32 {
	if len(samples) == 0 || frame <= 0 {
		return samples
	}
	total := (len(samples) + frame - 1) / frame
	chunk := func(i int) []float32 {
		return samples[i*frame : min((i+1)*frame, len(samples))]
	}
	first := -1
	for i := 0; i < total; i++ {
		if voiced(chunk(i)) {
			first = i
			break
		}
	}
	if first < 0 {
		return samples[:0]
	}
	last := first
	for i := total - 1; i > first; i-- {
		if voiced(chunk(i)) {
			last = i
			break
		}
	}
	first = max(first-pad, 0)
	last = min(last+pad, total-1)
	return samples[first*frame : min((last+1)*frame, len(samples))]
}

func int16Bytes(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		s = max(-1, min(s, 1))
		v := int16(s * 32767)
		out[i*2] = byte(v)
		out[i*2+1] = byte(v >> 8)
	}
	return out
}
