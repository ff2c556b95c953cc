package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/loqalabs/loqa-dictate/internal/inject"
	"github.com/loqalabs/loqa-dictate/internal/llm"
	"github.com/loqalabs/loqa-dictate/internal/rolling"
	"github.com/loqalabs/loqa-dictate/internal/stt"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSource struct {
	mu     sync.Mutex
	armed  bool
	buf    []float32
	clears int
}

func (s *fakeSource) Arm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armed = true
}

func (s *fakeSource) Disarm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armed = false
}

func (s *fakeSource) Drain() []float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.buf
	s.buf = nil
	return out
}

func (s *fakeSource) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = nil
	s.clears++
}

func (s *fakeSource) feed(samples []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.armed {
		s.buf = append(s.buf, samples...)
	}
}

type correctorFunc func(ctx context.Context, raw string, snap rolling.Snapshot) (string, error)

func (f correctorFunc) Correct(ctx context.Context, raw string, snap rolling.Snapshot) (string, error) {
	return f(ctx, raw, snap)
}

type transcriberFunc func(ctx context.Context, samples []float32) (string, error)

func (f transcriberFunc) Transcribe(ctx context.Context, samples []float32) (string, error) {
	return f(ctx, samples)
}

type fakeInjector struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (f *fakeInjector) Inject(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return f.err
}

func (f *fakeInjector) injected() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

func seconds(n float64) []float32 {
	out := make([]float32, int(n*16000))
	for i := range out {
		out[i] = 0.2
	}
	return out
}

func mockEngine(text string) *stt.Engine {
	return stt.NewEngine(stt.NewMockRecognizer(text), stt.Options{
		SampleRate:  16000,
		MinDuration: 500 * time.Millisecond,
		MaxDuration: 60 * time.Second,
	}, testLogger())
}

type harness struct {
	t       *testing.T
	o       *Orchestrator
	src     *fakeSource
	inj     *fakeInjector
	store   *rolling.Store
	updates <-chan Status
	seen    []Status
}

func newHarness(t *testing.T, settings Settings, opts ...func(*Config)) *harness {
	t.Helper()
	h := &harness{t: t, src: &fakeSource{}, inj: &fakeInjector{}}
	if settings.Transcriber == nil {
		settings.Transcriber = mockEngine("สวัสดี")
	}
	if settings.Injector == nil {
		settings.Injector = h.inj
	}
	h.store = rolling.NewStore(rolling.Options{WindowSize: 3})
	cell := NewStateCell(settings.Mode)
	cfg := Config{Source: h.src, Context: h.store, Settings: settings}
	for _, opt := range opts {
		opt(&cfg)
	}
	o, err := NewOrchestrator(cell, cfg, testLogger())
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	h.o = o
	updates, unsubscribe := cell.Subscribe(256)
	h.updates = updates

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = o.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		unsubscribe()
		h.assertEdges()
	})
	return h
}

func (h *harness) send(ev Event) {
	h.t.Helper()
	if !h.o.Submit(ev) {
		h.t.Fatalf("submit %s rejected", ev.Type)
	}
}

func (h *harness) waitFor(desc string, pred func(Status) bool) Status {
	h.t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case st := <-h.updates:
			h.seen = append(h.seen, st)
			if pred(st) {
				return st
			}
		case <-timeout:
			h.t.Fatalf("timed out waiting for %s; last status %+v", desc, h.o.Cell().Snapshot())
		}
	}
}

func (h *harness) waitState(want State) Status {
	h.t.Helper()
	return h.waitFor(string(want), func(st Status) bool { return st.State == want })
}

func (h *harness) waitDone() Status {
	h.t.Helper()
	return h.waitFor("idle or error", func(st Status) bool {
		return st.State == StateIdle || st.State == StateError
	})
}

// dictate runs one push-to-talk cycle feeding samples while recording.
func (h *harness) dictate(samples []float32) Status {
	h.t.Helper()
	h.send(RecordStart("test"))
	h.waitState(StateRecording)
	h.src.feed(samples)
	h.send(RecordStop("test"))
	return h.waitDone()
}

// assertEdges checks every observed state change against the transition table.
func (h *harness) assertEdges() {
	for i := 1; i < len(h.seen); i++ {
		prev, next := h.seen[i-1], h.seen[i]
		if next.Seq <= prev.Seq {
			h.t.Errorf("status seq went backwards: %d then %d", prev.Seq, next.Seq)
		}
		if prev.State != next.State && !CanTransition(prev.State, next.State) {
			h.t.Errorf("illegal transition observed: %s -> %s", prev.State, next.State)
		}
	}
}

func (h *harness) states() []State {
	var out []State
	for _, st := range h.seen {
		if len(out) == 0 || out[len(out)-1] != st.State {
			out = append(out, st.State)
		}
	}
	return out
}

func (h *harness) entered(state State) bool {
	for _, st := range h.seen {
		if st.State == state {
			return true
		}
	}
	return false
}

func TestZeroAudioEndsInError(t *testing.T) {
	h := newHarness(t, Settings{Mode: ModeStandard})
	final := h.dictate(nil)
	if final.State != StateError {
		t.Fatalf("expected error state, got %s", final.State)
	}
	if !strings.Contains(final.Error, "too short") {
		t.Fatalf("expected too short message, got %q", final.Error)
	}
	if !h.entered(StateTranscribing) {
		t.Fatalf("expected a transcription attempt")
	}
	if h.entered(StateInjecting) {
		t.Fatalf("must never reach injecting without a transcript")
	}
}

func TestShortRecordingEndsInError(t *testing.T) {
	h := newHarness(t, Settings{Mode: ModeStandard})
	final := h.dictate(seconds(0.3))
	if final.State != StateError || !strings.Contains(final.Error, "too short") {
		t.Fatalf("expected too short error, got %+v", final)
	}
	if len(h.inj.injected()) != 0 {
		t.Fatalf("nothing should be injected")
	}
}

func TestFastModeNeverCorrects(t *testing.T) {
	var calls atomic.Int32
	corrector := correctorFunc(func(context.Context, string, rolling.Snapshot) (string, error) {
		calls.Add(1)
		return "corrected", nil
	})
	h := newHarness(t, Settings{Mode: ModeFast, Corrector: corrector})
	for i := 0; i < 3; i++ {
		final := h.dictate(seconds(1))
		if final.State != StateIdle {
			t.Fatalf("expected idle, got %+v", final)
		}
		if final.CorrectedText != "" || final.InjectedText != "สวัสดี" {
			t.Fatalf("fast mode must inject the raw text, got %+v", final)
		}
	}
	if calls.Load() != 0 {
		t.Fatalf("corrector called %d times in fast mode", calls.Load())
	}
	if h.entered(StateCorrecting) {
		t.Fatalf("fast mode entered correcting")
	}
}

func TestFailingCorrectorFallsBackToRawText(t *testing.T) {
	corrector := correctorFunc(func(context.Context, string, rolling.Snapshot) (string, error) {
		return "", llm.ErrNetwork
	})
	h := newHarness(t, Settings{Mode: ModeStandard, Corrector: corrector})
	for i := 0; i < 3; i++ {
		final := h.dictate(seconds(1))
		if final.State != StateIdle {
			t.Fatalf("expected idle, got %+v", final)
		}
		if final.CorrectedText != "" || final.InjectedText != "สวัสดี" {
			t.Fatalf("expected raw text fallback, got %+v", final)
		}
		if !strings.Contains(final.Warning, "network") {
			t.Fatalf("expected network warning, got %q", final.Warning)
		}
	}
	if got := h.inj.injected(); len(got) != 3 {
		t.Fatalf("expected 3 injections, got %v", got)
	}
	if h.store.Len() != 0 {
		t.Fatalf("rolling context must not change on fallback")
	}
	if h.o.Stats().Fallbacks != 3 {
		t.Fatalf("expected 3 fallbacks, got %d", h.o.Stats().Fallbacks)
	}
}

func TestCorrectionTimeoutFallsBack(t *testing.T) {
	corrector := correctorFunc(func(ctx context.Context, _ string, _ rolling.Snapshot) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	h := newHarness(t, Settings{Mode: ModeStandard, Corrector: corrector, CorrectionTimeout: 50 * time.Millisecond})
	final := h.dictate(seconds(3))
	if final.State != StateIdle || final.InjectedText != "สวัสดี" {
		t.Fatalf("expected raw text injected and idle, got %+v", final)
	}
	if !strings.Contains(final.Warning, "timeout") {
		t.Fatalf("expected timeout warning, got %q", final.Warning)
	}
	warned := 0
	for i := 1; i < len(h.seen); i++ {
		if h.seen[i].Warning != "" && h.seen[i-1].Warning == "" {
			warned++
		}
	}
	if warned != 1 || h.o.Stats().Fallbacks != 1 {
		t.Fatalf("expected exactly one warning, saw %d (fallbacks %d)", warned, h.o.Stats().Fallbacks)
	}
	want := []State{StateIdle, StateRecording, StateTranscribing, StateCorrecting, StateInjecting, StateIdle}
	if got := h.states(); strings.Join(stateNames(got), ",") != strings.Join(stateNames(want), ",") {
		t.Fatalf("unexpected path %v", got)
	}
}

func stateNames(states []State) []string {
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = string(s)
	}
	return out
}

func TestCorrectionRecordsContext(t *testing.T) {
	var (
		mu    sync.Mutex
		snaps []rolling.Snapshot
	)
	corrector := correctorFunc(func(_ context.Context, raw string, snap rolling.Snapshot) (string, error) {
		mu.Lock()
		snaps = append(snaps, snap)
		mu.Unlock()
		return raw + "ครับ", nil
	})
	h := newHarness(t, Settings{Mode: ModeContext, Corrector: corrector})
	for i := 0; i < 5; i++ {
		final := h.dictate(seconds(1))
		if final.CorrectedText != "สวัสดีครับ" || final.InjectedText != "สวัสดีครับ" {
			t.Fatalf("unexpected final status %+v", final)
		}
	}
	if h.store.Len() != 3 {
		t.Fatalf("rolling window should stay bounded at 3, got %d", h.store.Len())
	}
	mu.Lock()
	defer mu.Unlock()
	if len(snaps[0].Sentences) != 0 || len(snaps[1].Sentences) != 1 || len(snaps[4].Sentences) != 3 {
		t.Fatalf("context mode should see previous sentences: %d %d %d",
			len(snaps[0].Sentences), len(snaps[1].Sentences), len(snaps[4].Sentences))
	}
}

func TestStandardModeOmitsPreviousSentences(t *testing.T) {
	var last rolling.Snapshot
	var mu sync.Mutex
	corrector := correctorFunc(func(_ context.Context, raw string, snap rolling.Snapshot) (string, error) {
		mu.Lock()
		last = snap
		mu.Unlock()
		return raw, nil
	})
	h := newHarness(t, Settings{Mode: ModeStandard, Corrector: corrector})
	if _, err := h.store.AddVocabulary(context.Background(), "สวัสดิ", "สวัสดี"); err != nil {
		t.Fatalf("add vocabulary: %v", err)
	}
	h.dictate(seconds(1))
	h.dictate(seconds(1))
	mu.Lock()
	defer mu.Unlock()
	if len(last.Sentences) != 0 || last.Domain != "" {
		t.Fatalf("standard mode should not send previous sentences: %+v", last)
	}
	if len(last.Vocabulary) != 1 {
		t.Fatalf("standard mode should send user vocabulary")
	}
}

func TestCancelClearsBuffer(t *testing.T) {
	h := newHarness(t, Settings{Mode: ModeFast})
	h.send(RecordStart("test"))
	h.waitState(StateRecording)
	h.src.feed(seconds(2))
	h.send(Cancel("test"))
	h.waitState(StateIdle)
	if len(h.inj.injected()) != 0 {
		t.Fatalf("cancelled recording must not be injected")
	}

	// The next cycle starts from an empty buffer.
	final := h.dictate(nil)
	if final.State != StateError || !strings.Contains(final.Error, "too short") {
		t.Fatalf("expected empty buffer after cancel, got %+v", final)
	}
	if h.o.Stats().Utterances != 2 {
		t.Fatalf("expected 2 finished utterances, got %d", h.o.Stats().Utterances)
	}
}

func TestDoubleRecordStartDropped(t *testing.T) {
	h := newHarness(t, Settings{Mode: ModeFast})
	h.send(RecordStart("test"))
	first := h.waitState(StateRecording)
	h.send(RecordStart("test"))
	h.src.feed(seconds(1))
	h.send(RecordStop("test"))
	final := h.waitDone()
	if final.State != StateIdle || final.UtteranceID != first.UtteranceID {
		t.Fatalf("second start should be dropped, got %+v", final)
	}
	if h.o.Stats().DroppedTriggers != 1 {
		t.Fatalf("expected 1 dropped trigger, got %d", h.o.Stats().DroppedTriggers)
	}
	if got := h.inj.injected(); len(got) != 1 {
		t.Fatalf("expected a single injection, got %v", got)
	}
}

func TestInjectionFailureReturnsToIdle(t *testing.T) {
	h := newHarness(t, Settings{Mode: ModeFast})
	h.inj.err = inject.ErrTargetLost
	final := h.dictate(seconds(1))
	if final.State != StateIdle {
		t.Fatalf("expected idle after injection failure, got %s", final.State)
	}
	if !strings.Contains(final.InjectError, "lost focus") || final.InjectedText != "สวัสดี" {
		t.Fatalf("expected reported injection failure with text kept, got %+v", final)
	}
	if got := h.inj.injected(); len(got) != 1 {
		t.Fatalf("injection must not be retried, got %d attempts", len(got))
	}
}

func TestErrorClearsOnAcknowledgeAndNextTrigger(t *testing.T) {
	h := newHarness(t, Settings{Mode: ModeFast})
	if final := h.dictate(seconds(0.1)); final.State != StateError {
		t.Fatalf("expected error, got %s", final.State)
	}
	h.send(Acknowledge("ui"))
	if st := h.waitState(StateIdle); st.Error != "" {
		t.Fatalf("acknowledge should clear the error, got %q", st.Error)
	}

	if final := h.dictate(seconds(0.1)); final.State != StateError {
		t.Fatalf("expected error, got %s", final.State)
	}
	final := h.dictate(seconds(1))
	if final.State != StateIdle || final.Error != "" || final.InjectedText != "สวัสดี" {
		t.Fatalf("record start from error should recover, got %+v", final)
	}
}

func TestTranscriptionPanicEndsInError(t *testing.T) {
	boom := transcriberFunc(func(context.Context, []float32) (string, error) {
		panic("model crashed")
	})
	h := newHarness(t, Settings{Mode: ModeFast, Transcriber: boom})
	final := h.dictate(seconds(1))
	if final.State != StateError || !strings.Contains(final.Error, "model crashed") {
		t.Fatalf("expected error from panic, got %+v", final)
	}
}

func TestModeChangeStagedWhileBusy(t *testing.T) {
	var calls atomic.Int32
	corrector := correctorFunc(func(_ context.Context, raw string, _ rolling.Snapshot) (string, error) {
		calls.Add(1)
		return raw, nil
	})
	h := newHarness(t, Settings{Mode: ModeStandard, Corrector: corrector})

	h.send(RecordStart("test"))
	h.waitState(StateRecording)
	h.send(ModeChange(ModeFast, "ui"))
	h.src.feed(seconds(1))
	h.send(RecordStop("test"))
	final := h.waitDone()
	if calls.Load() != 1 {
		t.Fatalf("in-flight utterance should keep standard mode")
	}
	if final.Mode != ModeStandard {
		t.Fatalf("mode must not change mid-utterance, got %s", final.Mode)
	}
	h.waitFor("staged mode applied", func(st Status) bool { return st.State == StateIdle && st.Mode == ModeFast })

	h.dictate(seconds(1))
	if calls.Load() != 1 {
		t.Fatalf("fast mode utterance should skip correction")
	}
}

func TestReloadReplacesCollaboratorsAtIdle(t *testing.T) {
	h := newHarness(t, Settings{Mode: ModeFast})
	h.send(Reload(Settings{Mode: ModeFast, Transcriber: mockEngine("ลาก่อน")}, "config"))
	h.waitFor("reload applied", func(st Status) bool { return st.Mode == ModeFast && st.Seq > 1 })
	final := h.dictate(seconds(1))
	if final.InjectedText != "ลาก่อน" {
		t.Fatalf("expected reloaded transcriber, got %q", final.InjectedText)
	}
}

func TestReloadWithoutModeKeepsCurrentMode(t *testing.T) {
	h := newHarness(t, Settings{Mode: ModeStandard})
	h.send(ModeChange(ModeFast, "ui"))
	h.waitFor("mode changed", func(st Status) bool { return st.Mode == ModeFast })

	h.send(Reload(Settings{Transcriber: mockEngine("ลาก่อน")}, "config"))
	final := h.dictate(seconds(1))
	if final.Mode != ModeFast || final.InjectedText != "ลาก่อน" {
		t.Fatalf("expected fast mode with the reloaded transcriber, got %+v", final)
	}
}

func TestReloadStagedWhileRecording(t *testing.T) {
	prefixed := func(prefix string) Corrector {
		return correctorFunc(func(_ context.Context, raw string, _ rolling.Snapshot) (string, error) {
			return prefix + raw, nil
		})
	}
	h := newHarness(t, Settings{Mode: ModeStandard, Corrector: prefixed("old:")})

	h.send(RecordStart("test"))
	h.waitState(StateRecording)
	h.send(Reload(Settings{Mode: ModeStandard, Transcriber: mockEngine("สวัสดี"), Corrector: prefixed("new:")}, "config"))
	h.src.feed(seconds(1))
	h.send(RecordStop("test"))
	first := h.waitDone()
	if first.InjectedText != "old:สวัสดี" {
		t.Fatalf("in-flight utterance should keep the old corrector, got %q", first.InjectedText)
	}

	second := h.dictate(seconds(1))
	if second.InjectedText != "new:สวัสดี" {
		t.Fatalf("next utterance should use the reloaded corrector, got %q", second.InjectedText)
	}
	if got := h.inj.injected(); len(got) != 2 {
		t.Fatalf("expected 2 injections, got %v", got)
	}
}

func TestResetContextEvent(t *testing.T) {
	h := newHarness(t, Settings{Mode: ModeFast})
	h.store.Record("ประโยคเก่า")
	h.send(ResetContext("ui"))
	h.dictate(seconds(1))
	if snap := h.store.Snapshot(); len(snap.Sentences) != 0 || snap.Domain != "" {
		t.Fatalf("expected empty context after reset, got %+v", snap)
	}
}

// gatedTrimSource halves each clip, but only once release is closed.
type gatedTrimSource struct {
	*fakeSource
	entered chan struct{}
	release chan struct{}
}

func (s *gatedTrimSource) Trim(samples []float32) []float32 {
	close(s.entered)
	<-s.release
	return samples[:len(samples)/2]
}

func TestTrimRunsOffTheEventLoop(t *testing.T) {
	var heard atomic.Int64
	transcriber := transcriberFunc(func(_ context.Context, samples []float32) (string, error) {
		heard.Store(int64(len(samples)))
		return "สวัสดี", nil
	})
	gate := &gatedTrimSource{entered: make(chan struct{}), release: make(chan struct{})}
	h := newHarness(t, Settings{Mode: ModeFast, Transcriber: transcriber}, func(c *Config) {
		gate.fakeSource = c.Source.(*fakeSource)
		c.Source = gate
	})

	h.send(RecordStart("test"))
	h.waitState(StateRecording)
	h.src.feed(seconds(2))
	h.send(RecordStop("test"))
	transcribing := h.waitState(StateTranscribing)
	if transcribing.AudioSeconds != 2 {
		t.Fatalf("status should report the raw clip length, got %v", transcribing.AudioSeconds)
	}
	<-gate.entered

	// The loop still handles triggers while the trim is blocked.
	h.send(RecordStart("test"))
	deadline := time.Now().Add(3 * time.Second)
	for h.o.Stats().DroppedTriggers != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("event loop stalled behind silence trimming")
		}
		time.Sleep(5 * time.Millisecond)
	}

	close(gate.release)
	final := h.waitDone()
	if final.State != StateIdle || final.InjectedText != "สวัสดี" {
		t.Fatalf("unexpected final status %+v", final)
	}
	if heard.Load() != 16000 {
		t.Fatalf("transcriber should get the trimmed clip, got %d samples", heard.Load())
	}
}

func TestStaleResultIgnored(t *testing.T) {
	cell := NewStateCell(ModeFast)
	o, err := NewOrchestrator(cell, Config{
		Source:   &fakeSource{},
		Settings: Settings{Transcriber: mockEngine("x"), Injector: &fakeInjector{}},
	}, testLogger())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	o.runCtx = context.Background()
	before := cell.Snapshot()
	o.handleResult(stageResult{id: "gone", stage: StateTranscribing, text: "late"})
	if cell.Snapshot().Seq != before.Seq {
		t.Fatalf("stale result must not publish a transition")
	}
	if o.Stats().StaleResults != 1 {
		t.Fatalf("expected stale result counted")
	}
}

func TestSubmitDropsWhenQueueFull(t *testing.T) {
	cell := NewStateCell(ModeFast)
	o, err := NewOrchestrator(cell, Config{
		Source:    &fakeSource{},
		QueueSize: 1,
		Settings:  Settings{Transcriber: mockEngine("x"), Injector: &fakeInjector{}},
	}, testLogger())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if !o.Submit(RecordStart("a")) {
		t.Fatalf("first submit should fit")
	}
	if o.Submit(RecordStart("b")) {
		t.Fatalf("second submit should be dropped")
	}
	if o.Stats().DroppedEvents != 1 {
		t.Fatalf("expected dropped event counted")
	}
}

func TestNewOrchestratorRequiresCollaborators(t *testing.T) {
	cell := NewStateCell(ModeFast)
	if _, err := NewOrchestrator(cell, Config{Settings: Settings{Transcriber: mockEngine("x"), Injector: &fakeInjector{}}}, testLogger()); err == nil {
		t.Fatalf("expected error without audio source")
	}
	if _, err := NewOrchestrator(cell, Config{Source: &fakeSource{}, Settings: Settings{Injector: &fakeInjector{}}}, testLogger()); err == nil {
		t.Fatalf("expected error without transcriber")
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()
	cases := []struct {
		stage State
		err   error
		cat   Category
		kind  string
	}{
		{StateTranscribing, stt.ErrAudioTooShort, CategoryFatal, "audio_too_short"},
		{StateTranscribing, errors.New("x"), CategoryFatal, "internal"},
		{StateCorrecting, llm.ErrMalformedResponse, CategoryFallback, "malformed_response"},
		{StateCorrecting, context.DeadlineExceeded, CategoryFallback, "timeout"},
		{StateCorrecting, ErrStagePanic, CategoryFallback, "panic"},
		{StateInjecting, inject.ErrClipboardAccess, CategoryReset, "clipboard_access"},
		{StateInjecting, ErrStaleResult, CategoryIgnored, "stale"},
	}
	for _, tc := range cases {
		cat, kind := Classify(tc.stage, tc.err)
		if cat != tc.cat || kind != tc.kind {
			t.Fatalf("Classify(%s, %v) = %s/%s, want %s/%s", tc.stage, tc.err, cat, kind, tc.cat, tc.kind)
		}
	}
}
