package eventstore

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/loqalabs/loqa-dictate/internal/config"
	"github.com/loqalabs/loqa-dictate/internal/pipeline"
	"github.com/loqalabs/loqa-dictate/internal/rolling"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func openStore(t *testing.T, cfg config.EventStoreConfig) *Store {
	t.Helper()
	if cfg.Path == "" {
		cfg.Path = filepath.Join(t.TempDir(), "journal.db")
	}
	if cfg.RetentionMode == "" {
		cfg.RetentionMode = "session"
	}
	es, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open event store: %v", err)
	}
	t.Cleanup(func() { _ = es.Close() })
	return es
}

func TestOpenEphemeral(t *testing.T) {
	ctx := context.Background()
	es, err := Open(ctx, config.EventStoreConfig{RetentionMode: "ephemeral"}, newLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = es.Close() })
	if err := es.AppendUtterance(ctx, pipeline.Record{ID: "u1"}); err != nil {
		t.Fatalf("ephemeral append should be a no-op: %v", err)
	}
	recs, err := es.ListUtterances(ctx, 10)
	if err != nil || recs != nil {
		t.Fatalf("expected nothing stored, got %v, %v", recs, err)
	}
}

func TestAppendAndListUtterances(t *testing.T) {
	es := openStore(t, config.EventStoreConfig{StoreText: true})
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		rec := pipeline.Record{
			ID:           id,
			Mode:         pipeline.ModeStandard,
			Outcome:      pipeline.OutcomeInjected,
			RawText:      "raw " + id,
			InjectedText: "final " + id,
			AudioSeconds: 1.5,
			FinishedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		if err := es.AppendUtterance(ctx, rec); err != nil {
			t.Fatalf("append %s: %v", id, err)
		}
	}

	recs, err := es.ListUtterances(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 2 || recs[0].ID != "c" || recs[1].ID != "b" {
		t.Fatalf("expected newest first, got %+v", recs)
	}
	if recs[0].InjectedText != "final c" || recs[0].Mode != pipeline.ModeStandard || recs[0].AudioSeconds != 1.5 {
		t.Fatalf("unexpected record %+v", recs[0])
	}
	if !recs[0].FinishedAt.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("unexpected timestamp %v", recs[0].FinishedAt)
	}
}

func TestStoreTextDisabledDropsTexts(t *testing.T) {
	es := openStore(t, config.EventStoreConfig{StoreText: false})
	ctx := context.Background()
	if err := es.AppendUtterance(ctx, pipeline.Record{ID: "u1", Mode: pipeline.ModeFast, Outcome: pipeline.OutcomeInjected, RawText: "secret", InjectedText: "secret"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	recs, err := es.ListUtterances(ctx, 1)
	if err != nil || len(recs) != 1 {
		t.Fatalf("list: %v, %v", recs, err)
	}
	if recs[0].RawText != "" || recs[0].InjectedText != "" {
		t.Fatalf("texts should not be stored: %+v", recs[0])
	}
}

func TestPruneByDaysAndCount(t *testing.T) {
	es := openStore(t, config.EventStoreConfig{RetentionMode: "persistent", RetentionDays: 1, MaxUtterances: 1})
	ctx := context.Background()

	es.clock = func() time.Time { return time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC) }
	old := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := es.AppendUtterance(ctx, pipeline.Record{ID: "old", Mode: "fast", Outcome: "injected", FinishedAt: old}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := es.AppendTransition(ctx, Transition{UtteranceID: "old", Seq: 1, State: "recording", CreatedAt: old}); err != nil {
		t.Fatalf("append transition: %v", err)
	}
	for i, id := range []string{"mid", "new"} {
		at := time.Date(2025, 1, 2, 12, i, 0, 0, time.UTC)
		if err := es.AppendUtterance(ctx, pipeline.Record{ID: id, Mode: "fast", Outcome: "injected", FinishedAt: at}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	if err := es.Prune(ctx); err != nil {
		t.Fatalf("prune: %v", err)
	}
	recs, err := es.ListUtterances(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 1 || recs[0].ID != "new" {
		t.Fatalf("expected only the newest utterance, got %+v", recs)
	}
	trs, err := es.ListTransitions(ctx, "old")
	if err != nil || len(trs) != 0 {
		t.Fatalf("expected old transitions pruned, got %v, %v", trs, err)
	}
}

func TestVocabularyRoundTrip(t *testing.T) {
	es := openStore(t, config.EventStoreConfig{})
	ctx := context.Background()

	store := rolling.NewStore(rolling.Options{})
	store.SetPersister(es)
	for _, pair := range [][2]string{{"ความดันสุง", "ความดันสูง"}, {"กูเกิ้ล", "Google"}, {"ความดันสุง", "ความดันสูง"}} {
		if _, err := store.AddVocabulary(ctx, pair[0], pair[1]); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	entries, err := es.LoadVocabulary(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 2 || entries[0].Error != "ความดันสุง" || entries[0].Frequency != 2 {
		t.Fatalf("unexpected vocabulary %+v", entries)
	}
	if err := es.SaveVocabulary(ctx, rolling.VocabEntry{Correction: "x"}); err == nil {
		t.Fatalf("expected error for empty error form")
	}
}
