// Package pipeline sequences one dictation utterance at a time through
// capture, transcription, correction and injection, and publishes every state
// transition to a StateCell.
//
// A single goroutine (Run) owns the state machine. Trigger and command events
// arrive on a bounded queue; each slow stage runs in its own goroutine and
// reports back on a results channel tagged with the utterance ID, so trigger
// delivery never waits on stage work.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/loqalabs/loqa-dictate/internal/llm"
	"github.com/loqalabs/loqa-dictate/internal/rolling"
	"github.com/loqalabs/loqa-dictate/internal/stt"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultQueueSize         = 32
	DefaultCorrectionTimeout = 10 * time.Second
)

// AudioSource is the microphone gate. Disarm and Clear must be safe to call
// when the source was never armed.
type AudioSource interface {
	Arm()
	Disarm()
	Drain() []float32
	Clear()
}

// ClipTrimmer is implemented by sources that can strip silence from a
// drained clip. The orchestrator calls it on the transcription goroutine.
type ClipTrimmer interface {
	Trim(samples []float32) []float32
}

// Transcriber turns a finished clip into text. It may block for seconds.
type Transcriber interface {
	Transcribe(ctx context.Context, samples []float32) (string, error)
}

// Corrector improves a raw transcript using the rolling context.
type Corrector interface {
	Correct(ctx context.Context, raw string, snap rolling.Snapshot) (string, error)
}

// Injector delivers the final text to the focused application.
type Injector interface {
	Inject(ctx context.Context, text string) error
}

// Settings are the parts of the pipeline a reload may replace. A nil
// Corrector disables correction; a nil Transcriber or Injector in a reload
// keeps the current one, and so does an empty Mode.
type Settings struct {
	Mode              Mode
	CorrectionTimeout time.Duration
	Transcriber       Transcriber
	Corrector         Corrector
	Injector          Injector
	Context           rolling.Options
}

type Config struct {
	Source     AudioSource
	Context    *rolling.Store
	Settings   Settings
	SampleRate int
	QueueSize  int
	Meter      metric.Meter
	Tracer     trace.Tracer
}

type stageResult struct {
	id      string
	stage   State
	text    string
	err     error
	elapsed time.Duration
}

type Orchestrator struct {
	cell       *StateCell
	source     AudioSource
	context    *rolling.Store
	sampleRate int
	logger     *slog.Logger
	tracer     trace.Tracer
	metrics    *instruments
	stats      counters

	events  chan Event
	results chan stageResult
	wg      sync.WaitGroup

	// Owned by the Run goroutine.
	settings   Settings
	pending    *Settings
	current    *Utterance
	span       trace.Span
	stageStart time.Time
	runCtx     context.Context
}

func NewOrchestrator(cell *StateCell, cfg Config, logger *slog.Logger) (*Orchestrator, error) {
	if cell == nil {
		return nil, errors.New("pipeline: state cell is required")
	}
	if cfg.Source == nil {
		return nil, errors.New("pipeline: audio source is required")
	}
	if cfg.Settings.Transcriber == nil {
		return nil, errors.New("pipeline: transcriber is required")
	}
	if cfg.Settings.Injector == nil {
		return nil, errors.New("pipeline: injector is required")
	}
	settings := normalizeSettings(cfg.Settings)
	if cfg.Context == nil {
		cfg.Context = rolling.NewStore(settings.Context)
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.Meter == nil {
		cfg.Meter = otel.Meter("github.com/loqalabs/loqa-dictate/pipeline")
	}
	if cfg.Tracer == nil {
		cfg.Tracer = otel.Tracer("github.com/loqalabs/loqa-dictate/pipeline")
	}

	logger = logger.With(slog.String("component", "pipeline"))
	ins, err := newInstruments(cfg.Meter, cell)
	if err != nil {
		return nil, fmt.Errorf("pipeline metrics: %w", err)
	}
	cell.update(func(s *Status) { s.Mode = settings.Mode })

	return &Orchestrator{
		cell:       cell,
		source:     cfg.Source,
		context:    cfg.Context,
		sampleRate: cfg.SampleRate,
		logger:     logger,
		tracer:     cfg.Tracer,
		metrics:    ins,
		events:     make(chan Event, cfg.QueueSize),
		results:    make(chan stageResult, 4),
		settings:   settings,
	}, nil
}

func normalizeSettings(s Settings) Settings {
	if s.Mode == "" {
		s.Mode = ModeStandard
	}
	if s.CorrectionTimeout <= 0 {
		s.CorrectionTimeout = DefaultCorrectionTimeout
	}
	return s
}

// Submit enqueues ev without blocking. It reports false when the queue is
// full and the event was dropped.
func (o *Orchestrator) Submit(ev Event) bool {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	select {
	case o.events <- ev:
		return true
	default:
		o.stats.droppedEvents.Add(1)
		o.logger.Warn("event queue full; dropping event",
			slog.String("event", string(ev.Type)),
			slog.String("source", ev.Source))
		return false
	}
}

func (o *Orchestrator) Cell() *StateCell { return o.cell }

func (o *Orchestrator) Stats() Stats { return o.stats.snapshot() }

// Run processes events until ctx is cancelled. Stage goroutines still in
// flight are cancelled and awaited before Run returns.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.runCtx = ctx
	o.logger.Info("pipeline started", slog.String("mode", string(o.settings.Mode)))
	for {
		select {
		case <-ctx.Done():
			o.shutdown()
			return nil
		case ev := <-o.events:
			o.handleEvent(ev)
		case res := <-o.results:
			o.handleResult(res)
		}
	}
}

func (o *Orchestrator) shutdown() {
	if o.state() == StateRecording {
		o.source.Disarm()
		o.source.Clear()
	}
	o.endSpan(errors.New("shutdown"))
	o.wg.Wait()
	o.logger.Info("pipeline stopped")
}

func (o *Orchestrator) state() State { return o.cell.Snapshot().State }

func (o *Orchestrator) handleEvent(ev Event) {
	switch ev.Type {
	case EventRecordStart:
		o.startRecording(ev)
	case EventRecordStop:
		o.stopRecording(ev)
	case EventCancel:
		o.cancelRecording(ev)
	case EventAcknowledge:
		if o.state() != StateError {
			o.logger.Debug("acknowledge ignored", slog.String("state", string(o.state())))
			return
		}
		o.transition(StateIdle, func(s *Status) { s.Error = "" })
	case EventModeChange:
		o.changeMode(ev.Mode)
	case EventResetContext:
		o.context.Reset()
		o.logger.Info("rolling context reset", slog.String("source", ev.Source))
	case EventReload:
		if ev.Settings == nil {
			return
		}
		next := *ev.Settings
		if next.Mode == "" {
			next.Mode = o.settings.Mode
			if o.pending != nil {
				next.Mode = o.pending.Mode
			}
		}
		o.pending = &next
		if o.state().Busy() {
			o.logger.Info("settings reload staged until idle")
			return
		}
		o.applyPending()
	default:
		o.logger.Warn("unknown event", slog.String("event", string(ev.Type)))
	}
}

func (o *Orchestrator) dropTrigger(ev Event) {
	o.stats.droppedTriggers.Add(1)
	o.metrics.dropped.Add(o.runCtx, 1, metric.WithAttributes(attribute.String("event", string(ev.Type))))
	o.logger.Debug("trigger dropped",
		slog.String("event", string(ev.Type)),
		slog.String("state", string(o.state())),
		slog.String("source", ev.Source))
}

func (o *Orchestrator) startRecording(ev Event) {
	switch o.state() {
	case StateError:
		o.transition(StateIdle, func(s *Status) { s.Error = "" })
	case StateIdle:
	default:
		o.dropTrigger(ev)
		return
	}
	o.applyPending()

	now := time.Now()
	u := &Utterance{ID: uuid.NewString(), Mode: o.settings.Mode, StartedAt: now}
	o.current = u
	_, o.span = o.tracer.Start(o.runCtx, "dictation.utterance", trace.WithAttributes(
		attribute.String("utterance.id", u.ID),
		attribute.String("mode", string(u.Mode)),
		attribute.String("trigger", ev.Source),
	))

	o.source.Clear()
	o.source.Arm()
	o.transition(StateRecording, func(s *Status) {
		s.UtteranceID = u.ID
		s.Mode = u.Mode
		s.Error = ""
		s.Warning = ""
		s.RawText = ""
		s.CorrectedText = ""
		s.InjectedText = ""
		s.InjectError = ""
		s.AudioSeconds = 0
	})
}

func (o *Orchestrator) stopRecording(ev Event) {
	if o.state() != StateRecording {
		o.dropTrigger(ev)
		return
	}
	u := o.current
	o.source.Disarm()
	u.Audio = o.source.Drain()
	u.RecordedAt = time.Now()
	seconds := float64(len(u.Audio)) / float64(o.sampleRate)
	o.span.SetAttributes(attribute.Float64("audio.seconds", seconds))

	o.transition(StateTranscribing, func(s *Status) { s.AudioSeconds = seconds })

	transcriber := o.settings.Transcriber
	trimmer, _ := o.source.(ClipTrimmer)
	audio := u.Audio
	o.launch(u.ID, StateTranscribing, func(ctx context.Context) (string, error) {
		if trimmer != nil {
			audio = trimmer.Trim(audio)
		}
		return transcriber.Transcribe(ctx, audio)
	})
}

func (o *Orchestrator) cancelRecording(ev Event) {
	if o.state() != StateRecording {
		o.logger.Debug("cancel ignored", slog.String("state", string(o.state())))
		return
	}
	o.source.Disarm()
	o.source.Clear()
	o.logger.Info("recording cancelled", slog.String("utterance_id", o.current.ID), slog.String("source", ev.Source))
	o.finish("cancelled", nil)
	o.transition(StateIdle, func(s *Status) {})
	o.applyPending()
}

func (o *Orchestrator) changeMode(mode Mode) {
	if _, err := ParseMode(string(mode)); err != nil {
		o.logger.Warn("mode change rejected", slog.String("error", err.Error()))
		return
	}
	if o.state().Busy() {
		next := o.settings
		if o.pending != nil {
			next = *o.pending
		}
		next.Mode = mode
		o.pending = &next
		o.logger.Info("mode change staged until idle", slog.String("mode", string(mode)))
		return
	}
	o.settings.Mode = mode
	o.cell.update(func(s *Status) { s.Mode = mode })
	o.logger.Info("mode changed", slog.String("mode", string(mode)))
}

// applyPending installs staged settings. Callers guarantee no utterance is in
// flight.
func (o *Orchestrator) applyPending() {
	if o.pending == nil {
		return
	}
	next := normalizeSettings(*o.pending)
	o.pending = nil
	if next.Transcriber == nil {
		next.Transcriber = o.settings.Transcriber
	}
	if next.Injector == nil {
		next.Injector = o.settings.Injector
	}
	if next.Context.WindowSize > 0 {
		o.context.Configure(next.Context)
	}
	o.settings = next
	o.cell.update(func(s *Status) { s.Mode = next.Mode })
	o.logger.Info("settings applied",
		slog.String("mode", string(next.Mode)),
		slog.Bool("correction", next.Corrector != nil),
		slog.Duration("correction_timeout", next.CorrectionTimeout))
}

// launch runs fn off the event loop and reports its result tagged with id.
func (o *Orchestrator) launch(id string, stage State, fn func(ctx context.Context) (string, error)) {
	ctx := trace.ContextWithSpan(o.runCtx, o.span)
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		start := time.Now()
		text, err := safeCall(ctx, fn)
		res := stageResult{id: id, stage: stage, text: text, err: err, elapsed: time.Since(start)}
		select {
		case o.results <- res:
		case <-o.runCtx.Done():
		}
	}()
}

func safeCall(ctx context.Context, fn func(ctx context.Context) (string, error)) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrStagePanic, r)
		}
	}()
	return fn(ctx)
}

func (o *Orchestrator) handleResult(res stageResult) {
	if o.current == nil || res.id != o.current.ID || res.stage != o.state() {
		o.stats.staleResults.Add(1)
		o.metrics.stale.Add(o.runCtx, 1, metric.WithAttributes(attribute.String("stage", string(res.stage))))
		_, kind := Classify(res.stage, ErrStaleResult)
		o.logger.Debug("discarding stage result",
			slog.String("stage", string(res.stage)),
			slog.String("utterance_id", res.id),
			slog.String("reason", kind))
		return
	}
	switch res.stage {
	case StateTranscribing:
		o.afterTranscription(res)
	case StateCorrecting:
		o.afterCorrection(res)
	case StateInjecting:
		o.afterInjection(res)
	}
}

func (o *Orchestrator) afterTranscription(res stageResult) {
	u := o.current
	if res.err != nil {
		_, kind := Classify(StateTranscribing, res.err)
		if errors.Is(res.err, ErrStagePanic) {
			res.err = fmt.Errorf("%w: %v", stt.ErrInternal, res.err)
		}
		o.stats.errors.Add(1)
		o.logger.Warn("transcription failed",
			slog.String("utterance_id", u.ID),
			slog.String("kind", kind),
			slog.String("error", res.err.Error()))
		o.finish("error", res.err)
		o.transition(StateError, func(s *Status) { s.Error = res.err.Error() })
		return
	}

	u.RawText = res.text
	u.TranscribedAt = time.Now()
	o.logger.Debug("transcribed",
		slog.String("utterance_id", u.ID),
		slog.Duration("latency", res.elapsed))

	corrector := o.settings.Corrector
	if u.Mode == ModeFast || corrector == nil {
		o.inject(func(s *Status) { s.RawText = u.RawText })
		return
	}

	snap := o.correctionContext(u.Mode)
	timeout := o.settings.CorrectionTimeout
	raw := u.RawText
	o.transition(StateCorrecting, func(s *Status) { s.RawText = raw })
	o.launch(u.ID, StateCorrecting, func(ctx context.Context) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return corrector.Correct(ctx, raw, snap)
	})
}

// correctionContext picks what the corrector sees: context mode gets the full
// rolling window, standard mode only the domain-independent user vocabulary.
func (o *Orchestrator) correctionContext(mode Mode) rolling.Snapshot {
	snap := o.context.Snapshot()
	if mode == ModeContext {
		return snap
	}
	return rolling.Snapshot{Vocabulary: snap.Vocabulary}
}

func (o *Orchestrator) afterCorrection(res stageResult) {
	u := o.current
	u.CorrectedAt = time.Now()

	err := res.err
	if err == nil && res.text == "" {
		err = llm.ErrEmptyResponse
	}
	if err != nil {
		_, kind := Classify(StateCorrecting, err)
		u.FallbackReason = kind
		o.stats.fallbacks.Add(1)
		o.metrics.fallback(o.runCtx, kind)
		o.span.AddEvent("correction.fallback", trace.WithAttributes(attribute.String("kind", kind)))
		o.logger.Warn("correction failed; using raw transcript",
			slog.String("utterance_id", u.ID),
			slog.String("kind", kind),
			slog.String("error", err.Error()))
		warning := fmt.Sprintf("correction unavailable (%s); inserted raw transcript", kind)
		o.inject(func(s *Status) { s.Warning = warning })
		return
	}

	u.CorrectedText = res.text
	o.context.Record(res.text)
	o.logger.Debug("corrected",
		slog.String("utterance_id", u.ID),
		slog.Duration("latency", res.elapsed))
	corrected := res.text
	o.inject(func(s *Status) { s.CorrectedText = corrected })
}

func (o *Orchestrator) inject(fn func(*Status)) {
	u := o.current
	text := u.FinalText()
	o.transition(StateInjecting, fn)
	injector := o.settings.Injector
	o.launch(u.ID, StateInjecting, func(ctx context.Context) (string, error) {
		return text, injector.Inject(ctx, text)
	})
}

func (o *Orchestrator) afterInjection(res stageResult) {
	u := o.current
	u.InjectedAt = time.Now()
	var injectErr string
	if res.err != nil {
		_, kind := Classify(StateInjecting, res.err)
		injectErr = res.err.Error()
		o.stats.injectFailures.Add(1)
		o.logger.Warn("injection failed",
			slog.String("utterance_id", u.ID),
			slog.String("kind", kind),
			slog.String("error", injectErr))
		o.finish("inject_failed", res.err)
	} else {
		o.stats.injected.Add(1)
		o.finish("injected", nil)
	}
	o.logger.Info("utterance complete",
		slog.String("utterance_id", u.ID),
		slog.String("mode", string(u.Mode)),
		slog.Bool("corrected", u.Corrected()),
		slog.String("fallback", u.FallbackReason),
		slog.Duration("total", u.InjectedAt.Sub(u.StartedAt)),
		slog.Duration("recording", u.RecordedAt.Sub(u.StartedAt)),
		slog.Duration("processing", u.InjectedAt.Sub(u.RecordedAt)))

	text := res.text
	o.transition(StateIdle, func(s *Status) {
		s.InjectedText = text
		s.InjectError = injectErr
	})
	o.applyPending()
}

// finish closes out the current utterance. The transition that follows still
// publishes its texts; only the in-memory utterance is released.
func (o *Orchestrator) finish(outcome string, err error) {
	o.stats.utterances.Add(1)
	o.metrics.outcome(o.runCtx, outcome)
	o.endSpan(err)
	o.current = nil
}

func (o *Orchestrator) endSpan(err error) {
	if o.span == nil {
		return
	}
	if err != nil {
		o.span.RecordError(err)
		o.span.SetStatus(codes.Error, err.Error())
	}
	o.span.End()
	o.span = nil
}

// transition moves the state machine along a table edge and publishes the new
// status. An edge outside the table is a programming error and is refused.
func (o *Orchestrator) transition(to State, fn func(*Status)) bool {
	from := o.state()
	if !CanTransition(from, to) {
		o.logger.Error("illegal state transition refused",
			slog.String("from", string(from)),
			slog.String("to", string(to)))
		return false
	}
	now := time.Now()
	if !o.stageStart.IsZero() {
		o.metrics.stage(o.runCtx, from, now.Sub(o.stageStart).Seconds())
	}
	o.stageStart = now
	if o.span != nil {
		o.span.AddEvent(string(to))
	}
	st := o.cell.update(func(s *Status) {
		s.State = to
		fn(s)
	})
	o.logger.Debug("state", slog.String("from", string(from)), slog.String("to", string(to)), slog.Uint64("seq", st.Seq))
	return true
}
