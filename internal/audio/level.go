package audio

import "math"

// RMS returns the root mean square amplitude of samples.
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// Bars folds values into n equal-width buckets by RMS, clamped to [0, 1].
// Missing buckets are zero.
func Bars(values []float32, n int) []float64 {
	if n <= 0 {
		return nil
	}
	bars := make([]float64, n)
	if len(values) == 0 {
		return bars
	}
	chunk := max(len(values)/n, 1)
	for i := 0; i < n; i++ {
		start := i * chunk
		if start >= len(values) {
			break
		}
		end := min(start+chunk, len(values))
		bars[i] = math.Min(RMS(values[start:end]), 1)
	}
	return bars
}
