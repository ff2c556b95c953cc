package pipeline

import (
	"sync"
	"time"
)

// Status is the snapshot shared with UI consumers.
type Status struct {
	Seq           uint64    `json:"seq"`
	State         State     `json:"state"`
	Mode          Mode      `json:"mode"`
	Error         string    `json:"error,omitempty"`
	Warning       string    `json:"warning,omitempty"`
	UtteranceID   string    `json:"utterance_id,omitempty"`
	RawText       string    `json:"raw_text,omitempty"`
	CorrectedText string    `json:"corrected_text,omitempty"`
	InjectedText  string    `json:"injected_text,omitempty"`
	InjectError   string    `json:"inject_error,omitempty"`
	AudioSeconds  float64   `json:"audio_seconds,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// StateCell holds the current Status. Only the orchestrator writes to it;
// readers take snapshots or subscribe to the ordered update stream.
type StateCell struct {
	mu      sync.RWMutex
	status  Status
	subs    map[int]chan Status
	nextID  int
	dropped uint64
	clock   func() time.Time
}

func NewStateCell(mode Mode) *StateCell {
	return &StateCell{
		status: Status{State: StateIdle, Mode: mode, UpdatedAt: time.Now().UTC()},
		subs:   make(map[int]chan Status),
		clock:  time.Now,
	}
}

// Snapshot returns a copy of the current status.
func (c *StateCell) Snapshot() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// Subscribe returns a channel that first receives the current status and then
// every subsequent update in publish order. A subscriber that falls behind
// loses its oldest queued updates rather than stalling the pipeline, and
// always ends up holding the latest status. The returned func
// unsubscribes and closes the channel.
func (c *StateCell) Subscribe(buffer int) (<-chan Status, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Status, buffer)

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = ch
	ch <- c.status
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			close(ch)
			c.mu.Unlock()
		})
	}
}

// Dropped reports how many queued updates were discarded for slow subscribers.
func (c *StateCell) Dropped() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dropped
}

func (c *StateCell) update(fn func(*Status)) Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.status
	fn(&next)
	next.Seq = c.status.Seq + 1
	next.UpdatedAt = c.clock().UTC()
	c.status = next

	for _, ch := range c.subs {
		publish(ch, next, &c.dropped)
	}
	return next
}

// publish delivers st without blocking. When the buffer is full the oldest
// queued status is discarded, so the last value a subscriber reads is always
// the current one. Callers hold c.mu, which makes this the only sender.
func publish(ch chan Status, st Status, dropped *uint64) {
	select {
	case ch <- st:
		return
	default:
	}
	select {
	case <-ch:
		*dropped++
	default:
	}
	select {
	case ch <- st:
	default:
		*dropped++
	}
}
