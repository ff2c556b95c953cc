package eventstore

import (
	"context"
	"log/slog"
	"time"

	"github.com/loqalabs/loqa-dictate/internal/pipeline"
)

const journalBuffer = 256

// StartJournal records every state change published by cell, and one
// utterance row per finished utterance, until ctx is done or the returned
// stop func is called. The subscription is in place when StartJournal
// returns. Write failures are logged and never reach the pipeline.
func (s *Store) StartJournal(ctx context.Context, cell *pipeline.StateCell) (stop func()) {
	if !s.enabled() {
		return func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	updates, unsubscribe := cell.Subscribe(journalBuffer)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer unsubscribe()
		s.journal(ctx, updates)
	}()
	return func() {
		cancel()
		<-done
	}
}

func (s *Store) journal(ctx context.Context, updates <-chan pipeline.Status) {
	prev, ok := <-updates
	if !ok {
		return
	}
	for {
		select {
		case <-ctx.Done():
			s.drain(prev, updates)
			return
		case st, ok := <-updates:
			if !ok {
				return
			}
			s.record(prev, st)
			prev = st
		}
	}
}

// drain writes whatever was already buffered when the journal stops.
func (s *Store) drain(prev pipeline.Status, updates <-chan pipeline.Status) {
	for {
		select {
		case st, ok := <-updates:
			if !ok {
				return
			}
			s.record(prev, st)
			prev = st
		default:
			return
		}
	}
}

func (s *Store) record(prev, next pipeline.Status) {
	// Writes use their own deadline so a shutdown mid-write still lands.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if next.State != prev.State {
		tr := Transition{
			UtteranceID: next.UtteranceID,
			Seq:         next.Seq,
			State:       string(next.State),
			Mode:        string(next.Mode),
			CreatedAt:   next.UpdatedAt,
		}
		if err := s.AppendTransition(ctx, tr); err != nil {
			s.log.Warn("journal transition write failed", slog.String("error", err.Error()))
		}
	}
	if rec, done := pipeline.Finished(prev, next); done {
		if err := s.AppendUtterance(ctx, rec); err != nil {
			s.log.Warn("journal utterance write failed", slog.String("error", err.Error()))
		}
	}
}
