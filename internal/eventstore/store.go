// Package eventstore journals finished utterances and their state
// transitions in SQLite, and persists the user vocabulary.
package eventstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/loqalabs/loqa-dictate/internal/config"
	"github.com/loqalabs/loqa-dictate/internal/pipeline"
	"github.com/loqalabs/loqa-dictate/internal/rolling"
	_ "modernc.org/sqlite"
)

// Transition is one recorded state change.
type Transition struct {
	ID          int64
	UtteranceID string
	Seq         uint64
	State       string
	Mode        string
	CreatedAt   time.Time
}

// Store wraps the SQLite journal. In ephemeral mode it holds no database and
// every method is a no-op.
type Store struct {
	db    *sql.DB
	cfg   config.EventStoreConfig
	log   *slog.Logger
	clock func() time.Time
}

// Open initializes the event store according to config.
func Open(ctx context.Context, cfg config.EventStoreConfig, log *slog.Logger) (*Store, error) {
	log = log.With(slog.String("component", "eventstore"))
	if cfg.RetentionMode == "ephemeral" {
		return &Store{cfg: cfg, log: log, clock: time.Now}, nil
	}

	dir := filepath.Dir(cfg.Path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, cfg: cfg, log: log, clock: time.Now}

	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	if cfg.VacuumOnStart {
		if err := s.vacuum(ctx); err != nil {
			log.Warn("event store vacuum failed", slog.String("error", err.Error()))
		}
	}

	if err := s.Prune(ctx); err != nil {
		log.Warn("event store prune on start failed", slog.String("error", err.Error()))
	}

	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS utterances (
    utterance_id TEXT PRIMARY KEY,
    mode TEXT NOT NULL,
    outcome TEXT NOT NULL,
    raw_text TEXT,
    corrected_text TEXT,
    injected_text TEXT,
    warning TEXT,
    error TEXT,
    audio_seconds REAL,
    created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS transitions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    utterance_id TEXT,
    seq INTEGER NOT NULL,
    state TEXT NOT NULL,
    mode TEXT,
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transitions_utterance ON transitions(utterance_id, seq);
CREATE INDEX IF NOT EXISTS idx_utterances_created ON utterances(created_at);
CREATE TABLE IF NOT EXISTS vocabulary (
    error_form TEXT PRIMARY KEY,
    correction TEXT NOT NULL,
    frequency INTEGER NOT NULL DEFAULT 1,
    updated_at INTEGER NOT NULL
);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

func (s *Store) vacuum(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "VACUUM")
	return err
}

func (s *Store) enabled() bool {
	return s != nil && s.db != nil && s.cfg.RetentionMode != "ephemeral"
}

// Close releases underlying resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// AppendTransition writes one state change.
func (s *Store) AppendTransition(ctx context.Context, tr Transition) error {
	if !s.enabled() {
		return nil
	}
	if tr.CreatedAt.IsZero() {
		tr.CreatedAt = s.clock()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transitions(utterance_id, seq, state, mode, created_at) VALUES(?, ?, ?, ?, ?)`,
		tr.UtteranceID, int64(tr.Seq), tr.State, tr.Mode, tr.CreatedAt.UnixNano())
	return err
}

// AppendUtterance writes a finished utterance. Texts are omitted unless
// store_text is set.
func (s *Store) AppendUtterance(ctx context.Context, rec pipeline.Record) error {
	if !s.enabled() {
		return nil
	}
	if rec.FinishedAt.IsZero() {
		rec.FinishedAt = s.clock()
	}
	if !s.cfg.StoreText {
		rec.RawText, rec.CorrectedText, rec.InjectedText = "", "", ""
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO utterances(utterance_id, mode, outcome, raw_text, corrected_text, injected_text, warning, error, audio_seconds, created_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(utterance_id) DO UPDATE SET outcome=excluded.outcome, raw_text=excluded.raw_text,
		   corrected_text=excluded.corrected_text, injected_text=excluded.injected_text,
		   warning=excluded.warning, error=excluded.error, created_at=excluded.created_at`,
		rec.ID, string(rec.Mode), rec.Outcome, rec.RawText, rec.CorrectedText, rec.InjectedText,
		rec.Warning, rec.Error, rec.AudioSeconds, rec.FinishedAt.UnixNano())
	return err
}

// ListUtterances returns up to limit utterances, newest first.
func (s *Store) ListUtterances(ctx context.Context, limit int) ([]pipeline.Record, error) {
	if !s.enabled() {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT utterance_id, mode, outcome, raw_text, corrected_text, injected_text, warning, error, audio_seconds, created_at
		 FROM utterances ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []pipeline.Record
	for rows.Next() {
		var (
			r                              pipeline.Record
			mode                           string
			raw, corrected, injected, warn sql.NullString
			errText                        sql.NullString
			secs                           sql.NullFloat64
			created                        int64
		)
		if err := rows.Scan(&r.ID, &mode, &r.Outcome, &raw, &corrected, &injected, &warn, &errText, &secs, &created); err != nil {
			return nil, err
		}
		r.Mode = pipeline.Mode(mode)
		r.RawText, r.CorrectedText, r.InjectedText = raw.String, corrected.String, injected.String
		r.Warning, r.Error = warn.String, errText.String
		r.AudioSeconds = secs.Float64
		r.FinishedAt = time.Unix(0, created).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListTransitions returns the recorded states of one utterance in order.
func (s *Store) ListTransitions(ctx context.Context, utteranceID string) ([]Transition, error) {
	if !s.enabled() {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, utterance_id, seq, state, mode, created_at FROM transitions
		 WHERE utterance_id = ? ORDER BY seq ASC`, utteranceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transition
	for rows.Next() {
		var (
			tr      Transition
			seq     int64
			mode    sql.NullString
			created int64
		)
		if err := rows.Scan(&tr.ID, &tr.UtteranceID, &seq, &tr.State, &mode, &created); err != nil {
			return nil, err
		}
		tr.Seq = uint64(seq)
		tr.Mode = mode.String
		tr.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, tr)
	}
	return out, rows.Err()
}

// SaveVocabulary upserts a vocabulary entry with its current frequency.
func (s *Store) SaveVocabulary(ctx context.Context, entry rolling.VocabEntry) error {
	if !s.enabled() {
		return nil
	}
	if strings.TrimSpace(entry.Error) == "" {
		return errors.New("vocabulary entry has no error form")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO vocabulary(error_form, correction, frequency, updated_at) VALUES(?, ?, ?, ?)
		 ON CONFLICT(error_form) DO UPDATE SET correction=excluded.correction,
		   frequency=excluded.frequency, updated_at=excluded.updated_at`,
		entry.Error, entry.Correction, entry.Frequency, s.clock().UnixNano())
	return err
}

// LoadVocabulary returns every stored entry by descending frequency.
func (s *Store) LoadVocabulary(ctx context.Context) ([]rolling.VocabEntry, error) {
	if !s.enabled() {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT error_form, correction, frequency FROM vocabulary ORDER BY frequency DESC, updated_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []rolling.VocabEntry
	for rows.Next() {
		var e rolling.VocabEntry
		if err := rows.Scan(&e.Error, &e.Correction, &e.Frequency); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Prune applies configured retention (called on startup and can be scheduled).
// The vocabulary is never pruned.
func (s *Store) Prune(ctx context.Context) (err error) {
	if !s.enabled() {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if s.cfg.RetentionDays > 0 {
		cutoff := s.clock().Add(-time.Duration(s.cfg.RetentionDays) * 24 * time.Hour).UnixNano()
		if _, err = tx.ExecContext(ctx, `DELETE FROM utterances WHERE created_at < ?`, cutoff); err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM transitions WHERE created_at < ?`, cutoff); err != nil {
			return err
		}
	}
	if s.cfg.MaxUtterances > 0 {
		_, err = tx.ExecContext(ctx, `DELETE FROM utterances WHERE utterance_id IN (
			SELECT utterance_id FROM utterances ORDER BY created_at DESC LIMIT -1 OFFSET ?
		)`, s.cfg.MaxUtterances)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM transitions
			WHERE utterance_id != '' AND utterance_id NOT IN (SELECT utterance_id FROM utterances)
			AND created_at < (SELECT COALESCE(MIN(created_at), 0) FROM utterances)`)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}
