package hotkey

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/loqalabs/loqa-dictate/internal/config"
	"github.com/loqalabs/loqa-dictate/internal/pipeline"
	"golang.design/x/hotkey"
)

type recorder struct {
	mu     sync.Mutex
	events []pipeline.EventType
}

func (r *recorder) Submit(ev pipeline.Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev.Type)
	return true
}

func (r *recorder) snapshot() []pipeline.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]pipeline.EventType(nil), r.events...)
}

func waitEvents(t *testing.T, r *recorder, n int) []pipeline.EventType {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := r.snapshot(); len(got) >= n {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d events, got %v", n, r.snapshot())
	return nil
}

func startLoop(t *testing.T) (*recorder, chan hotkey.Event, chan hotkey.Event, chan hotkey.Event) {
	t.Helper()
	rec := &recorder{}
	l, err := NewListener(config.HotkeyConfig{PushToTalk: "F9", Cancel: "Escape"}, rec, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("new listener: %v", err)
	}
	down, up, cancel := make(chan hotkey.Event), make(chan hotkey.Event), make(chan hotkey.Event)
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		l.loop(ctx, down, up, cancel)
	}()
	t.Cleanup(func() {
		stop()
		<-done
	})
	return rec, down, up, cancel
}

func TestLoopPressAndRelease(t *testing.T) {
	rec, down, up, cancel := startLoop(t)
	down <- hotkey.Event{}
	up <- hotkey.Event{}
	got := waitEvents(t, rec, 2)
	if got[0] != pipeline.EventRecordStart || got[1] != pipeline.EventRecordStop {
		t.Fatalf("unexpected events %v", got)
	}
	cancel <- hotkey.Event{}
	if got := waitEvents(t, rec, 3); got[2] != pipeline.EventCancel {
		t.Fatalf("expected cancel, got %v", got)
	}
}

func TestLoopIgnoresAutorepeat(t *testing.T) {
	rec, down, up, _ := startLoop(t)
	down <- hotkey.Event{}
	for i := 0; i < 5; i++ {
		up <- hotkey.Event{}
		down <- hotkey.Event{}
	}
	up <- hotkey.Event{}
	got := waitEvents(t, rec, 2)
	time.Sleep(2 * releaseGrace)
	got = rec.snapshot()
	if len(got) != 2 || got[0] != pipeline.EventRecordStart || got[1] != pipeline.EventRecordStop {
		t.Fatalf("autorepeat should yield one start and one stop, got %v", got)
	}
}

func TestLoopIgnoresStrayKeyup(t *testing.T) {
	rec, down, up, _ := startLoop(t)
	up <- hotkey.Event{}
	down <- hotkey.Event{}
	if got := waitEvents(t, rec, 1); got[0] != pipeline.EventRecordStart {
		t.Fatalf("unexpected events %v", got)
	}
	time.Sleep(2 * releaseGrace)
	if got := rec.snapshot(); len(got) != 1 {
		t.Fatalf("stray keyup should not stop recording, got %v", got)
	}
}

func TestNewListenerRejectsBadBindings(t *testing.T) {
	t.Parallel()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := NewListener(config.HotkeyConfig{PushToTalk: "Hyper+F9"}, &recorder{}, logger); err == nil {
		t.Fatalf("expected bad push-to-talk error")
	}
	if _, err := NewListener(config.HotkeyConfig{PushToTalk: "F9", Cancel: "Ctrl+"}, &recorder{}, logger); err == nil {
		t.Fatalf("expected bad cancel error")
	}
}
