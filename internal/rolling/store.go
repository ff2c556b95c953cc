// Package rolling keeps the recent-history signals used to condition
// transcript correction: the last few corrected sentences, the domain they
// suggest, and the user's recurring correction pairs.
package rolling

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

const (
	DefaultWindowSize   = 3
	DefaultSilenceReset = 120 * time.Second
	DefaultTopK         = 5
)

// Options bounds the store.
type Options struct {
	WindowSize   int
	SilenceReset time.Duration
	TopK         int
}

// Snapshot is an immutable view handed to the correction request builder.
type Snapshot struct {
	Sentences  []string
	Domain     string
	Vocabulary []VocabEntry
}

// Empty reports whether the snapshot carries no conditioning at all.
func (s Snapshot) Empty() bool {
	return len(s.Sentences) == 0 && s.Domain == "" && len(s.Vocabulary) == 0
}

// VocabularyPersister stores vocabulary updates outside the process.
type VocabularyPersister interface {
	SaveVocabulary(ctx context.Context, entry VocabEntry) error
}

// Store is the rolling context. All methods are safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	opts      Options
	sentences []string
	last      time.Time
	vocab     *vocabulary
	persist   VocabularyPersister
	clock     func() time.Time
}

func NewStore(opts Options) *Store {
	if opts.WindowSize <= 0 {
		opts.WindowSize = DefaultWindowSize
	}
	if opts.SilenceReset <= 0 {
		opts.SilenceReset = DefaultSilenceReset
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	return &Store{
		opts:      opts,
		sentences: make([]string, 0, opts.WindowSize+1),
		vocab:     newVocabulary(),
		clock:     time.Now,
	}
}

// SetPersister attaches durable storage for AddVocabulary.
func (s *Store) SetPersister(p VocabularyPersister) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persist = p
}

// Configure swaps bounds in place; the window is trimmed if it shrank.
func (s *Store) Configure(opts Options) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if opts.WindowSize > 0 {
		s.opts.WindowSize = opts.WindowSize
	}
	if opts.SilenceReset > 0 {
		s.opts.SilenceReset = opts.SilenceReset
	}
	if opts.TopK > 0 {
		s.opts.TopK = opts.TopK
	}
	s.trimLocked()
}

// Record appends a corrected sentence. A gap longer than the silence reset
// clears the window first.
func (s *Store) Record(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	if s.expiredLocked(now) {
		s.sentences = s.sentences[:0]
	}
	s.sentences = append(s.sentences, text)
	s.trimLocked()
	s.last = now
}

// Snapshot copies the current window with its derived domain and the top
// vocabulary entries.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{Vocabulary: s.vocab.top(s.opts.TopK)}
	if len(s.sentences) == 0 || s.expiredLocked(s.clock()) {
		return snap
	}
	snap.Sentences = append([]string(nil), s.sentences...)
	snap.Domain = DetectDomain(strings.Join(snap.Sentences, " "))
	return snap
}

// Reset clears the sentence window. Vocabulary is user data and is kept.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sentences = s.sentences[:0]
	s.last = time.Time{}
}

// Len is the number of sentences currently held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sentences)
}

// AddVocabulary upserts a correction pair and persists it when a persister is set.
func (s *Store) AddVocabulary(ctx context.Context, errForm, correction string) (VocabEntry, error) {
	if strings.TrimSpace(errForm) == "" || strings.TrimSpace(correction) == "" {
		return VocabEntry{}, errors.New("vocabulary entry needs both error and correction")
	}
	s.mu.Lock()
	entry := s.vocab.add(errForm, correction)
	persist := s.persist
	s.mu.Unlock()

	if persist != nil {
		if err := persist.SaveVocabulary(ctx, entry); err != nil {
			return entry, err
		}
	}
	return entry, nil
}

// LoadVocabulary seeds entries, typically from persistent storage at startup.
func (s *Store) LoadVocabulary(entries []VocabEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vocab.load(entries)
}

// VocabularySize is the number of distinct error forms known.
func (s *Store) VocabularySize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vocab.len()
}

func (s *Store) expiredLocked(now time.Time) bool {
	return !s.last.IsZero() && now.Sub(s.last) > s.opts.SilenceReset
}

func (s *Store) trimLocked() {
	if over := len(s.sentences) - s.opts.WindowSize; over > 0 {
		s.sentences = append(s.sentences[:0], s.sentences[over:]...)
	}
}
