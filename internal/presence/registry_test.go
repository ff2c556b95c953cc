package presence

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/loqalabs/loqa-dictate/internal/bus"
	"github.com/loqalabs/loqa-dictate/internal/config"
	"github.com/loqalabs/loqa-dictate/internal/natsserver"
	"github.com/loqalabs/loqa-dictate/internal/pipeline"
	"github.com/loqalabs/loqa-dictate/internal/protocol"
	"github.com/nats-io/nats.go"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegistriesDiscoverEachOther(t *testing.T) {
	srv, err := natsserver.Start(config.BusConfig{Embedded: true, Host: "127.0.0.1", Port: -1}, newLogger())
	if err != nil {
		t.Fatalf("start nats: %v", err)
	}
	t.Cleanup(srv.Shutdown)
	client, err := bus.Connect(context.Background(), config.BusConfig{ConnectTimeout: 2000}, srv.ClientURL(), newLogger())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(client.Close)

	cfg := config.BusConfig{SubjectPrefix: "test", HeartbeatInterval: 20, HeartbeatTimeout: 1000}
	laptop, err := NewRegistry(context.Background(), cfg, Info{ID: "laptop", Name: "laptop", Hotkey: true},
		client, pipeline.NewStateCell(pipeline.ModeStandard), newLogger())
	if err != nil {
		t.Fatalf("laptop registry: %v", err)
	}
	t.Cleanup(laptop.Close)
	desk, err := NewRegistry(context.Background(), cfg, Info{ID: "desk", Name: "desk"},
		client, pipeline.NewStateCell(pipeline.ModeFast), newLogger())
	if err != nil {
		t.Fatalf("desk registry: %v", err)
	}
	t.Cleanup(desk.Close)

	if !laptop.Healthy() {
		t.Fatalf("expected local node to be healthy after announce")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		nodes := laptop.Nodes()
		if len(nodes) == 2 && nodes[0].NodeID == "desk" && nodes[0].Mode == string(pipeline.ModeFast) {
			if nodes[1].NodeID != "laptop" || !nodes[1].Hotkey {
				t.Fatalf("unexpected local entry %+v", nodes[1])
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("laptop never heard desk: %+v", nodes)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestEvaluateHealthMarksSilentNodes(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := &Registry{
		info:    Info{ID: "self"},
		timeout: 15 * time.Second,
		log:     newLogger(),
		now:     func() time.Time { return now },
		nodes:   make(map[string]*Node),
	}

	for _, id := range []string{"self", "other"} {
		payload, _ := json.Marshal(protocol.Presence{NodeID: id, State: "idle", Mode: "standard"})
		r.handleHeartbeat(&nats.Msg{Data: payload})
	}
	r.handleHeartbeat(&nats.Msg{Data: []byte("not json")})
	if got := len(r.Nodes()); got != 2 {
		t.Fatalf("expected 2 nodes, got %d", got)
	}

	now = now.Add(10 * time.Second)
	payload, _ := json.Marshal(protocol.Presence{NodeID: "self", State: "recording", Mode: "standard"})
	r.handleHeartbeat(&nats.Msg{Data: payload})

	now = now.Add(10 * time.Second)
	r.evaluateHealth()

	if !r.Healthy() {
		t.Fatalf("self heartbeat is 10s old and should still be healthy")
	}
	for _, node := range r.Nodes() {
		switch node.NodeID {
		case "other":
			if node.Healthy {
				t.Fatalf("expected other to be stale")
			}
		case "self":
			if node.State != "recording" {
				t.Fatalf("expected latest state, got %q", node.State)
			}
		}
	}
}
