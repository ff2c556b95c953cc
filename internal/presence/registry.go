// Package presence announces this dictation node on the bus and tracks the
// other nodes heard on the same subject prefix.
package presence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/loqalabs/loqa-dictate/internal/bus"
	"github.com/loqalabs/loqa-dictate/internal/config"
	"github.com/loqalabs/loqa-dictate/internal/pipeline"
	"github.com/loqalabs/loqa-dictate/internal/protocol"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Info identifies the local node. ID must be a valid subject token.
type Info struct {
	ID     string
	Name   string
	Host   string
	Hotkey bool
}

// Node is the last heartbeat seen from a node.
type Node struct {
	protocol.Presence
	LastSeen time.Time `json:"last_seen"`
	Healthy  bool      `json:"healthy"`
}

type Registry struct {
	info     Info
	subjects protocol.Subjects
	interval time.Duration
	timeout  time.Duration
	bus      *bus.Client
	cell     *pipeline.StateCell
	log      *slog.Logger
	now      func() time.Time

	mu    sync.RWMutex
	nodes map[string]*Node

	sub    *nats.Subscription
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRegistry(ctx context.Context, cfg config.BusConfig, info Info, busClient *bus.Client, cell *pipeline.StateCell, log *slog.Logger) (*Registry, error) {
	if info.ID == "" {
		return nil, errors.New("presence: node id must not be empty")
	}
	interval := time.Duration(cfg.HeartbeatInterval) * time.Millisecond
	if interval <= 0 {
		interval = 5 * time.Second
	}
	timeout := time.Duration(cfg.HeartbeatTimeout) * time.Millisecond
	if timeout < interval {
		timeout = 3 * interval
	}

	ctx, cancel := context.WithCancel(ctx)
	r := &Registry{
		info:     info,
		subjects: protocol.NewSubjects(cfg.SubjectPrefix),
		interval: interval,
		timeout:  timeout,
		bus:      busClient,
		cell:     cell,
		log:      log.With(slog.String("component", "presence")),
		now:      time.Now,
		nodes:    make(map[string]*Node),
		cancel:   cancel,
	}

	if err := r.initMetrics(otel.Meter("github.com/loqalabs/loqa-dictate/presence")); err != nil {
		r.log.Warn("failed to initialize metrics", slog.String("error", err.Error()))
	}

	sub, err := busClient.Conn().Subscribe(r.subjects.Presence+".*", r.handleHeartbeat)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe presence: %w", err)
	}
	r.sub = sub

	if err := r.publish(); err != nil {
		r.log.Warn("failed to announce node", slog.String("error", err.Error()))
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(ctx)
	}()
	return r, nil
}

func (r *Registry) Close() {
	r.cancel()
	r.wg.Wait()
	if r.sub != nil {
		_ = r.sub.Drain()
	}
}

func (r *Registry) run(ctx context.Context) {
	heartbeat := time.NewTicker(r.interval)
	defer heartbeat.Stop()
	health := time.NewTicker(time.Second)
	defer health.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if err := r.publish(); err != nil {
				r.log.Warn("failed to publish heartbeat", slog.String("error", err.Error()))
			}
		case <-health.C:
			r.evaluateHealth()
		}
	}
}

func (r *Registry) heartbeat() protocol.Presence {
	status := r.cell.Snapshot()
	return protocol.Presence{
		NodeID:    r.info.ID,
		Name:      r.info.Name,
		Host:      r.info.Host,
		State:     string(status.State),
		Mode:      string(status.Mode),
		Hotkey:    r.info.Hotkey,
		Timestamp: r.now().UTC(),
	}
}

func (r *Registry) publish() error {
	msg := r.heartbeat()
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := r.bus.Conn().Publish(r.subjects.Presence+"."+r.info.ID, payload); err != nil {
		return err
	}
	// The local entry is refreshed from the loopback copy; seed it so
	// Healthy holds before the first round trip.
	r.mu.Lock()
	if _, ok := r.nodes[msg.NodeID]; !ok {
		r.nodes[msg.NodeID] = &Node{Presence: msg, LastSeen: r.now(), Healthy: true}
	}
	r.mu.Unlock()
	return nil
}

func (r *Registry) handleHeartbeat(msg *nats.Msg) {
	var hb protocol.Presence
	if err := json.Unmarshal(msg.Data, &hb); err != nil {
		r.log.Warn("invalid presence message", slog.String("error", err.Error()))
		return
	}
	if hb.NodeID == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	node, ok := r.nodes[hb.NodeID]
	if !ok {
		node = &Node{}
		r.nodes[hb.NodeID] = node
		if hb.NodeID != r.info.ID {
			r.log.Info("dictation node joined", slog.String("node", hb.NodeID), slog.String("name", hb.Name))
		}
	}
	node.Presence = hb
	node.LastSeen = r.now()
	node.Healthy = true
}

func (r *Registry) evaluateHealth() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for id, node := range r.nodes {
		stale := now.Sub(node.LastSeen) > r.timeout
		if stale && node.Healthy && id != r.info.ID {
			r.log.Info("dictation node went silent", slog.String("node", id))
		}
		node.Healthy = !stale
	}
}

// Healthy reports whether this node's own heartbeat is still making the
// round trip through the bus.
func (r *Registry) Healthy() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	node, ok := r.nodes[r.info.ID]
	return ok && node.Healthy
}

// Nodes returns every known node ordered by ID.
func (r *Registry) Nodes() []Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Node, 0, len(r.nodes))
	for _, node := range r.nodes {
		out = append(out, *node)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NodeID < out[j].NodeID })
	return out
}

func (r *Registry) initMetrics(meter metric.Meter) error {
	gauge, err := meter.Int64ObservableGauge("dictation.presence.nodes",
		metric.WithDescription("Dictation nodes with a recent heartbeat"))
	if err != nil {
		return err
	}
	_, err = meter.RegisterCallback(func(_ context.Context, obs metric.Observer) error {
		var healthy int64
		for _, node := range r.Nodes() {
			if node.Healthy {
				healthy++
			}
		}
		obs.ObserveInt64(gauge, healthy)
		return nil
	}, gauge)
	return err
}
