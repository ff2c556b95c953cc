package pipeline

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Stats are running totals since start, served on /status.
type Stats struct {
	Utterances      uint64 `json:"utterances"`
	Injected        uint64 `json:"injected"`
	Errors          uint64 `json:"errors"`
	Fallbacks       uint64 `json:"fallbacks"`
	InjectFailures  uint64 `json:"inject_failures"`
	DroppedTriggers uint64 `json:"dropped_triggers"`
	DroppedEvents   uint64 `json:"dropped_events"`
	StaleResults    uint64 `json:"stale_results"`
}

type counters struct {
	utterances      atomic.Uint64
	injected        atomic.Uint64
	errors          atomic.Uint64
	fallbacks       atomic.Uint64
	injectFailures  atomic.Uint64
	droppedTriggers atomic.Uint64
	droppedEvents   atomic.Uint64
	staleResults    atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Utterances:      c.utterances.Load(),
		Injected:        c.injected.Load(),
		Errors:          c.errors.Load(),
		Fallbacks:       c.fallbacks.Load(),
		InjectFailures:  c.injectFailures.Load(),
		DroppedTriggers: c.droppedTriggers.Load(),
		DroppedEvents:   c.droppedEvents.Load(),
		StaleResults:    c.staleResults.Load(),
	}
}

var allStates = []State{StateIdle, StateRecording, StateTranscribing, StateCorrecting, StateInjecting, StateError}

type instruments struct {
	utterances    metric.Int64Counter
	fallbacks     metric.Int64Counter
	dropped       metric.Int64Counter
	stale         metric.Int64Counter
	stageDuration metric.Float64Histogram
	stateGauge    metric.Int64ObservableGauge
}

func newInstruments(meter metric.Meter, cell *StateCell) (*instruments, error) {
	var (
		ins instruments
		err error
	)
	if ins.utterances, err = meter.Int64Counter("dictation.utterances",
		metric.WithDescription("Utterances finished, by outcome")); err != nil {
		return nil, err
	}
	if ins.fallbacks, err = meter.Int64Counter("dictation.fallbacks",
		metric.WithDescription("Corrections that fell back to the raw transcript, by error kind")); err != nil {
		return nil, err
	}
	if ins.dropped, err = meter.Int64Counter("dictation.triggers.dropped",
		metric.WithDescription("Trigger events ignored because the pipeline was busy")); err != nil {
		return nil, err
	}
	if ins.stale, err = meter.Int64Counter("dictation.results.stale",
		metric.WithDescription("Stage results discarded after the utterance moved on")); err != nil {
		return nil, err
	}
	if ins.stageDuration, err = meter.Float64Histogram("dictation.stage.duration",
		metric.WithDescription("Time spent in each pipeline state"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if ins.stateGauge, err = meter.Int64ObservableGauge("dictation.state",
		metric.WithDescription("1 for the current pipeline state, 0 otherwise")); err != nil {
		return nil, err
	}
	_, err = meter.RegisterCallback(func(ctx context.Context, obs metric.Observer) error {
		current := cell.Snapshot().State
		for _, st := range allStates {
			var v int64
			if st == current {
				v = 1
			}
			obs.ObserveInt64(ins.stateGauge, v, metric.WithAttributes(attribute.String("state", string(st))))
		}
		return nil
	}, ins.stateGauge)
	if err != nil {
		return nil, err
	}
	return &ins, nil
}

func (i *instruments) outcome(ctx context.Context, outcome string) {
	i.utterances.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (i *instruments) fallback(ctx context.Context, kind string) {
	i.fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (i *instruments) stage(ctx context.Context, stage State, seconds float64) {
	i.stageDuration.Record(ctx, seconds, metric.WithAttributes(attribute.String("stage", string(stage))))
}
