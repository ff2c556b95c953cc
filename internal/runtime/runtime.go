// Package runtime wires the dictation pipeline to its devices, bus, journal
// and HTTP surface, and owns their lifecycle.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/loqalabs/loqa-dictate/internal/audio"
	"github.com/loqalabs/loqa-dictate/internal/bus"
	"github.com/loqalabs/loqa-dictate/internal/config"
	"github.com/loqalabs/loqa-dictate/internal/eventstore"
	"github.com/loqalabs/loqa-dictate/internal/hotkey"
	"github.com/loqalabs/loqa-dictate/internal/natsserver"
	"github.com/loqalabs/loqa-dictate/internal/pipeline"
	"github.com/loqalabs/loqa-dictate/internal/presence"
	"github.com/loqalabs/loqa-dictate/internal/rolling"
	"github.com/loqalabs/loqa-dictate/internal/router"
	"github.com/loqalabs/loqa-dictate/internal/ui"
)

const pruneInterval = time.Hour

type Options struct {
	// ConfigPath is watched for changes; empty disables reloads.
	ConfigPath string
	// TraceOutput receives spans when tracing is on without an OTLP endpoint.
	TraceOutput io.Writer
}

type Runtime struct {
	cfg         config.Config
	opts        Options
	logger      *slog.Logger
	httpServer  *http.Server
	tracerClose func(context.Context) error
	ready       atomic.Bool
	wg          sync.WaitGroup
	cleanup     []func()

	// applied is the last config handed to the pipeline. Only the config
	// watch goroutine touches it; cfg stays the startup config.
	applied config.Config

	busClient *bus.Client
	bridge    *router.Service
	presence  *presence.Registry
}

func New(cfg config.Config, opts Options, logger *slog.Logger) *Runtime {
	if opts.TraceOutput == nil {
		opts.TraceOutput = os.Stderr
	}
	return &Runtime{
		cfg:     cfg,
		opts:    opts,
		logger:  logger,
		applied: cfg,
	}
}

// Start brings every component up, blocks until ctx is done (or the TUI
// quits), then tears them down in reverse order.
func (r *Runtime) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer r.shutdown(cancel)

	shutdownTelemetry, metricsHandler, err := setupTelemetry(r.cfg, r.opts.TraceOutput, r.logger)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	r.tracerClose = shutdownTelemetry

	store, err := eventstore.Open(ctx, r.cfg.EventStore, r.logger)
	if err != nil {
		return fmt.Errorf("open event store: %w", err)
	}
	r.onClose(func() { _ = store.Close() })

	contextStore := rolling.NewStore(contextOptions(r.cfg.Context))
	if entries, err := store.LoadVocabulary(ctx); err != nil {
		r.logger.Warn("vocabulary load failed", slogError(err))
	} else {
		contextStore.LoadVocabulary(entries)
	}
	contextStore.SetPersister(store)

	settings, err := BuildSettings(r.cfg, r.logger)
	if err != nil {
		return err
	}

	source := audio.NewSource(r.cfg.Audio.MaxSamples(), r.cfg.Audio.SampleRate, audio.NewTrimmer(r.cfg.Audio, r.logger), r.logger)
	if r.cfg.Audio.Enabled {
		device, err := audio.OpenDevice(r.cfg.Audio, source, r.logger)
		if err != nil {
			return fmt.Errorf("open audio device: %w", err)
		}
		r.onClose(func() { _ = device.Close() })
	}

	cell := pipeline.NewStateCell(settings.Mode)
	orch, err := pipeline.NewOrchestrator(cell, pipeline.Config{
		Source:     source,
		Context:    contextStore,
		Settings:   settings,
		SampleRate: r.cfg.Audio.SampleRate,
		QueueSize:  r.cfg.Pipeline.QueueSize,
	}, r.logger)
	if err != nil {
		return err
	}

	stopJournal := store.StartJournal(ctx, cell)
	r.onClose(stopJournal)

	if err := r.startBus(ctx, cell, orch); err != nil {
		return err
	}

	r.goFunc(func() {
		if err := orch.Run(ctx); err != nil {
			r.logger.Error("pipeline stopped", slogError(err))
		}
	})
	r.goFunc(func() { r.pruneLoop(ctx, store) })

	if r.cfg.Hotkey.Enabled {
		listener, err := hotkey.NewListener(r.cfg.Hotkey, orch, r.logger)
		if err != nil {
			return err
		}
		r.goFunc(func() {
			if err := listener.Run(ctx); err != nil {
				r.logger.Warn("global hotkey unavailable; use the TUI, /ws or the bus to trigger dictation", slogError(err))
			}
		})
	}

	if r.opts.ConfigPath != "" {
		r.goFunc(func() {
			err := config.Watch(ctx, r.opts.ConfigPath, r.logger, func(next config.Config) {
				r.reload(orch, next)
			})
			if err != nil {
				r.logger.Warn("config watch stopped", slogError(err))
			}
		})
	}

	if r.cfg.HTTP.Enabled {
		h := &handlers{
			ctrl:    orch,
			healthy: r.healthy,
			ready:   r.ready.Load,
			level:   source.Level,
			nodes:   r.nodes,
			metrics: metricsHandler,
			logger:  r.logger.With(slog.String("component", "http")),
		}
		addr := fmt.Sprintf("%s:%d", r.cfg.HTTP.Bind, r.cfg.HTTP.Port)
		r.httpServer = &http.Server{
			Addr:              addr,
			Handler:           h.mux(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		r.goFunc(func() {
			if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				r.logger.Error("http server failed", slogError(err))
			}
		})
		r.logger.Info("http listening", slog.String("addr", addr))
	}

	r.ready.Store(true)
	r.logger.Info("runtime started",
		slog.String("mode", string(settings.Mode)),
		slog.Bool("hotkey", r.cfg.Hotkey.Enabled),
		slog.Bool("bus", r.cfg.Bus.Enabled))

	if r.cfg.UI.TUI {
		err := ui.Run(ctx, orch, source, ui.Options{
			ShowRawText: r.cfg.UI.ShowRawText,
			Hotkey:      r.cfg.Hotkey.PushToTalk,
		})
		if err != nil {
			r.logger.Error("tui exited", slogError(err))
		}
		cancel()
	}

	<-ctx.Done()
	return nil
}

// shutdown stops the HTTP server, waits for every goroutine, then releases
// components in reverse start order.
func (r *Runtime) shutdown(cancel context.CancelFunc) {
	r.ready.Store(false)
	r.logger.Info("runtime stopping")
	cancel()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if r.httpServer != nil {
		if err := r.httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Error("http shutdown error", slogError(err))
		}
	}
	r.wg.Wait()
	r.runCleanup()

	if r.tracerClose != nil {
		if err := r.tracerClose(shutdownCtx); err != nil {
			r.logger.Error("telemetry shutdown error", slogError(err))
		}
	}
}

func (r *Runtime) startBus(ctx context.Context, cell *pipeline.StateCell, submit pipeline.Submitter) error {
	if !r.cfg.Bus.Enabled {
		return nil
	}
	server, err := natsserver.Start(r.cfg.Bus, r.logger)
	if err != nil {
		return fmt.Errorf("start embedded nats: %w", err)
	}
	r.onClose(server.Shutdown)

	client, err := bus.Connect(ctx, r.cfg.Bus, server.ClientURL(), r.logger)
	if err != nil {
		return err
	}
	r.onClose(client.Close)
	r.busClient = client

	bridge := router.NewService(ctx, r.cfg.Bus.SubjectPrefix, client, cell, submit, r.logger)
	if err := bridge.Start(); err != nil {
		return fmt.Errorf("start bus bridge: %w", err)
	}
	r.onClose(bridge.Close)
	r.bridge = bridge

	host, _ := os.Hostname()
	info := presence.Info{
		ID:     uuid.NewString(),
		Name:   r.cfg.RuntimeName,
		Host:   host,
		Hotkey: r.cfg.Hotkey.Enabled,
	}
	registry, err := presence.NewRegistry(ctx, r.cfg.Bus, info, client, cell, r.logger)
	if err != nil {
		return fmt.Errorf("start presence: %w", err)
	}
	r.onClose(registry.Close)
	r.presence = registry
	return nil
}

func (r *Runtime) nodes() []presence.Node {
	if r.presence == nil {
		return nil
	}
	return r.presence.Nodes()
}

// reload rebuilds the replaceable collaborators and stages them on the
// pipeline. Device, bus and HTTP settings only apply after a restart. The
// active mode is left alone unless pipeline.mode itself was edited, so a
// mode picked in the TUI or over the bus survives unrelated edits.
func (r *Runtime) reload(submit pipeline.Submitter, next config.Config) {
	settings, err := BuildSettings(next, r.logger)
	if err != nil {
		r.logger.Warn("config reload rejected", slogError(err))
		return
	}
	prev := r.applied
	if next.Pipeline.Mode == prev.Pipeline.Mode {
		settings.Mode = ""
	}
	if next.Audio != prev.Audio || next.HTTP != prev.HTTP || next.Hotkey != prev.Hotkey {
		r.logger.Warn("audio, http and hotkey changes take effect after restart")
	}
	if !submit.Submit(pipeline.Reload(settings, "config")) {
		r.logger.Warn("config reload dropped; pipeline queue full")
		return
	}
	r.applied = next
}

func (r *Runtime) pruneLoop(ctx context.Context, store *eventstore.Store) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.Prune(ctx); err != nil {
				r.logger.Warn("event store prune failed", slogError(err))
			}
		}
	}
}

func (r *Runtime) healthy() bool {
	if !r.cfg.Bus.Enabled {
		return true
	}
	return r.busClient.Healthy() && r.bridge != nil && r.bridge.Healthy() &&
		r.presence != nil && r.presence.Healthy()
}

func (r *Runtime) goFunc(fn func()) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		fn()
	}()
}

func (r *Runtime) onClose(fn func()) {
	r.cleanup = append(r.cleanup, fn)
}

func (r *Runtime) runCleanup() {
	for i := len(r.cleanup) - 1; i >= 0; i-- {
		r.cleanup[i]()
	}
	r.cleanup = nil
}
