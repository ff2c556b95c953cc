package audio

// SampleBuffer is a fixed-capacity ring of samples. When a push would exceed
// the capacity the oldest samples are overwritten and counted as dropped.
// It is not safe for concurrent use; Source guards it.
type SampleBuffer struct {
	buf     []float32
	write   int
	length  int
	dropped int
}

func NewSampleBuffer(capacity int) *SampleBuffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &SampleBuffer{buf: make([]float32, capacity)}
}

func (b *SampleBuffer) Push(data []float32) {
	capacity := len(b.buf)
	if len(data) >= capacity {
		b.dropped += b.length + len(data) - capacity
		copy(b.buf, data[len(data)-capacity:])
		b.write = 0
		b.length = capacity
		return
	}
	for _, s := range data {
		b.buf[b.write] = s
		b.write = (b.write + 1) % capacity
		if b.length < capacity {
			b.length++
		} else {
			b.dropped++
		}
	}
}

// Drain returns the buffered samples in arrival order and empties the buffer.
func (b *SampleBuffer) Drain() []float32 {
	out := make([]float32, b.length)
	start := (b.write - b.length + len(b.buf)) % len(b.buf)
	n := copy(out, b.buf[start:min(start+b.length, len(b.buf))])
	copy(out[n:], b.buf[:b.length-n])
	b.Clear()
	return out
}

func (b *SampleBuffer) Clear() {
	b.write = 0
	b.length = 0
	b.dropped = 0
}

func (b *SampleBuffer) Len() int { return b.length }
func (b *SampleBuffer) Cap() int { return len(b.buf) }
func (b *SampleBuffer) Dropped() int { return b.dropped }
func (b *SampleBuffer) Full() bool { return b.length == len(b.buf) }
