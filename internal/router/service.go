// Package router bridges the pipeline onto the message bus: commands arrive
// on <prefix>.command, and every status change and finished utterance is
// published on <prefix>.state and <prefix>.utterance.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/loqalabs/loqa-dictate/internal/bus"
	"github.com/loqalabs/loqa-dictate/internal/pipeline"
	"github.com/loqalabs/loqa-dictate/internal/protocol"
	"github.com/nats-io/nats.go"
)

const statusBuffer = 64

type Service struct {
	subjects protocol.Subjects
	bus      *bus.Client
	cell     *pipeline.StateCell
	submit   pipeline.Submitter
	logger   *slog.Logger
	sub      *nats.Subscription
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func NewService(parent context.Context, prefix string, busClient *bus.Client, cell *pipeline.StateCell, submit pipeline.Submitter, logger *slog.Logger) *Service {
	ctx, cancel := context.WithCancel(parent)
	return &Service{
		subjects: protocol.NewSubjects(prefix),
		bus:      busClient,
		cell:     cell,
		submit:   submit,
		logger:   logger.With(slog.String("component", "router")),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *Service) Start() error {
	sub, err := s.bus.Conn().Subscribe(s.subjects.Command, s.handleCommand)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", s.subjects.Command, err)
	}
	s.sub = sub

	updates, unsubscribe := s.cell.Subscribe(statusBuffer)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer unsubscribe()
		s.publishLoop(updates)
	}()
	s.logger.Info("bus bridge started",
		slog.String("command", s.subjects.Command),
		slog.String("state", s.subjects.State))
	return nil
}

func (s *Service) Close() {
	s.cancel()
	if s.sub != nil {
		_ = s.sub.Drain()
	}
	s.wg.Wait()
}

func (s *Service) Healthy() bool {
	return s.sub != nil && s.bus.Healthy()
}

func (s *Service) handleCommand(msg *nats.Msg) {
	var cmd protocol.Command
	if err := json.Unmarshal(msg.Data, &cmd); err != nil {
		s.logger.Warn("router failed to decode command", slogError(err))
		return
	}
	if cmd.Source == "" {
		cmd.Source = "bus"
	}
	ev, err := EventFor(cmd)
	if err != nil {
		s.logger.Warn("router rejected command", slogError(err))
		return
	}
	if !s.submit.Submit(ev) {
		s.logger.Warn("router dropped command; pipeline queue full", slog.String("command", cmd.Command))
	}
}

func (s *Service) publishLoop(updates <-chan pipeline.Status) {
	var prev pipeline.Status
	first := true
	for {
		select {
		case <-s.ctx.Done():
			return
		case st, ok := <-updates:
			if !ok {
				return
			}
			if err := s.publish(s.subjects.State, StateUpdate(st)); err != nil {
				s.logger.Warn("router failed to publish state", slogError(err))
			}
			if !first {
				if rec, done := pipeline.Finished(prev, st); done {
					if err := s.publish(s.subjects.Utterance, UtteranceMessage(rec)); err != nil {
						s.logger.Warn("router failed to publish utterance", slogError(err))
					}
				}
			}
			prev, first = st, false
		}
	}
}

func (s *Service) publish(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.bus.Conn().Publish(subject, data)
}

// EventFor maps an external command onto a pipeline event.
func EventFor(cmd protocol.Command) (pipeline.Event, error) {
	source := cmd.Source
	switch strings.ToLower(strings.TrimSpace(cmd.Command)) {
	case protocol.CommandRecordStart:
		return pipeline.RecordStart(source), nil
	case protocol.CommandRecordStop:
		return pipeline.RecordStop(source), nil
	case protocol.CommandCancel:
		return pipeline.Cancel(source), nil
	case protocol.CommandAcknowledge:
		return pipeline.Acknowledge(source), nil
	case protocol.CommandResetContext:
		return pipeline.ResetContext(source), nil
	case protocol.CommandMode:
		mode, err := pipeline.ParseMode(cmd.Mode)
		if err != nil {
			return pipeline.Event{}, err
		}
		return pipeline.ModeChange(mode, source), nil
	default:
		return pipeline.Event{}, fmt.Errorf("unknown command %q", cmd.Command)
	}
}

func StateUpdate(st pipeline.Status) protocol.StateUpdate {
	return protocol.StateUpdate{
		Seq:           st.Seq,
		State:         string(st.State),
		Mode:          string(st.Mode),
		UtteranceID:   st.UtteranceID,
		Error:         st.Error,
		Warning:       st.Warning,
		RawText:       st.RawText,
		CorrectedText: st.CorrectedText,
		InjectedText:  st.InjectedText,
		InjectError:   st.InjectError,
		Timestamp:     st.UpdatedAt,
	}
}

func UtteranceMessage(rec pipeline.Record) protocol.Utterance {
	return protocol.Utterance{
		ID:            rec.ID,
		Mode:          string(rec.Mode),
		Outcome:       rec.Outcome,
		RawText:       rec.RawText,
		CorrectedText: rec.CorrectedText,
		InjectedText:  rec.InjectedText,
		Warning:       rec.Warning,
		Error:         rec.Error,
		AudioSeconds:  rec.AudioSeconds,
		Timestamp:     rec.FinishedAt,
	}
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
