package stt

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeTempWAV encodes mono float32 samples as 16-bit PCM into a temporary
// WAV file. The caller removes the file.
func writeTempWAV(samples []float32, sampleRate int) (string, error) {
	file, err := os.CreateTemp("", "loqa_stt_*.wav")
	if err != nil {
		return "", fmt.Errorf("temp file: %w", err)
	}
	if err := encodeWAV(file, samples, sampleRate); err != nil {
		file.Close()
		os.Remove(file.Name())
		return "", err
	}
	if err := file.Close(); err != nil {
		os.Remove(file.Name())
		return "", fmt.Errorf("close wav: %w", err)
	}
	return file.Name(), nil
}

func encodeWAV(w io.WriteSeeker, samples []float32, sampleRate int) error {
	buffer := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           pcm16(samples),
		SourceBitDepth: 16,
	}
	enc := wav.NewEncoder(w, sampleRate, 16, 1, 1)
	if err := enc.Write(buffer); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close wav encoder: %w", err)
	}
	return nil
}

func pcm16(samples []float32) []int {
	out := make([]int, len(samples))
	for i, s := range samples {
		v := math.Max(-1, math.Min(1, float64(s)))
		out[i] = int(math.Round(v * math.MaxInt16))
	}
	return out
}
