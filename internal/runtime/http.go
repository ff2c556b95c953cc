package runtime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/loqalabs/loqa-dictate/internal/pipeline"
	"github.com/loqalabs/loqa-dictate/internal/presence"
	"github.com/loqalabs/loqa-dictate/internal/protocol"
	"github.com/loqalabs/loqa-dictate/internal/router"
)

const (
	wsReadTimeout  = 120 * time.Second
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 5 * time.Second
	wsBuffer       = 32
)

// Controller is the part of the orchestrator the HTTP surface drives.
type Controller interface {
	pipeline.Submitter
	Cell() *pipeline.StateCell
	Stats() pipeline.Stats
}

// The socket is bound to loopback by default; any local page may connect.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type handlers struct {
	ctrl    Controller
	healthy func() bool
	ready   func() bool
	level   func() float64
	nodes   func() []presence.Node
	metrics http.Handler
	logger  *slog.Logger
}

// StatusResponse is served on /status.
type StatusResponse struct {
	Status     pipeline.Status `json:"status"`
	Stats      pipeline.Stats  `json:"stats"`
	AudioLevel float64         `json:"audio_level"`
	Nodes      []presence.Node `json:"nodes,omitempty"`
}

// wsMessage is the envelope for everything written to /ws clients.
type wsMessage struct {
	Type    string `json:"type"` // state, error
	Payload any    `json:"payload"`
}

func (h *handlers) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.HandleFunc("/readyz", h.handleReady)
	mux.HandleFunc("/status", h.handleStatus)
	mux.HandleFunc("/command", h.handleCommand)
	mux.HandleFunc("/ws", h.handleWS)
	if h.metrics != nil {
		mux.Handle("/metrics", h.metrics)
	}
	return mux
}

func (h *handlers) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if h.healthy != nil && !h.healthy() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("unhealthy"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *handlers) handleReady(w http.ResponseWriter, _ *http.Request) {
	if h.ready != nil && h.ready() {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("not ready"))
}

func (h *handlers) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := StatusResponse{
		Status: h.ctrl.Cell().Snapshot(),
		Stats:  h.ctrl.Stats(),
	}
	if h.level != nil {
		resp.AudioLevel = h.level()
	}
	if h.nodes != nil {
		resp.Nodes = h.nodes()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var cmd protocol.Command
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&cmd); err != nil {
		http.Error(w, "invalid command: "+err.Error(), http.StatusBadRequest)
		return
	}
	if cmd.Source == "" {
		cmd.Source = "http"
	}
	ev, err := router.EventFor(cmd)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !h.ctrl.Submit(ev) {
		http.Error(w, "pipeline busy", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// handleWS streams every status change to the client and accepts commands
// in the other direction.
func (h *handlers) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slogError(err))
		return
	}
	defer conn.Close()
	h.logger.Debug("websocket client connected", slog.String("remote", conn.RemoteAddr().String()))

	updates, unsubscribe := h.ctrl.Cell().Subscribe(wsBuffer)
	defer unsubscribe()

	replies := make(chan wsMessage, 4)
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.writeLoop(conn, updates, replies, done)
	}()

	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})
	for {
		var cmd protocol.Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read error", slogError(err))
			}
			break
		}
		if cmd.Source == "" {
			cmd.Source = "ws"
		}
		reply := h.submitCommand(cmd)
		if reply == nil {
			continue
		}
		select {
		case replies <- *reply:
		default:
		}
	}
	close(done)
	wg.Wait()
}

func (h *handlers) submitCommand(cmd protocol.Command) *wsMessage {
	ev, err := router.EventFor(cmd)
	if err != nil {
		return &wsMessage{Type: "error", Payload: err.Error()}
	}
	if !h.ctrl.Submit(ev) {
		return &wsMessage{Type: "error", Payload: "pipeline busy"}
	}
	return nil
}

func (h *handlers) writeLoop(conn *websocket.Conn, updates <-chan pipeline.Status, replies <-chan wsMessage, done <-chan struct{}) {
	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()
	write := func(msg wsMessage) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		return conn.WriteJSON(msg) == nil
	}
	for {
		select {
		case <-done:
			return
		case st, ok := <-updates:
			if !ok || !write(wsMessage{Type: "state", Payload: router.StateUpdate(st)}) {
				return
			}
		case msg := <-replies:
			if !write(msg) {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
