package natsserver

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/loqalabs/loqa-dictate/internal/config"
	"github.com/nats-io/nats-server/v2/server"
)

// EmbeddedServer wraps an in-process NATS server so the bus needs no
// separate deployment.
type EmbeddedServer struct {
	ns  *server.Server
	log *slog.Logger
}

// Start launches the server when cfg.Embedded is set; otherwise it returns
// nil. Port -1 picks a free port.
func Start(cfg config.BusConfig, log *slog.Logger) (*EmbeddedServer, error) {
	if !cfg.Embedded {
		return nil, nil
	}
	host := cfg.Host
	if host == "" {
		host = "127.0.0.1"
	}

	opts := &server.Options{
		ServerName: "loqa-dictate",
		Host:       host,
		Port:       cfg.Port,
		NoLog:      true,
		NoSigs:     true,
	}
	// The server requires the same credentials bus.Connect presents.
	switch {
	case cfg.Token != "":
		opts.Authorization = cfg.Token
	case cfg.Username != "":
		opts.Username = cfg.Username
		opts.Password = cfg.Password
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create embedded NATS server: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("embedded NATS server failed to start within 5 seconds")
	}

	log = log.With(slog.String("component", "natsserver"))
	log.Info("embedded NATS server started",
		slog.String("url", ns.ClientURL()),
		slog.Bool("auth", opts.Authorization != "" || opts.Username != ""))

	return &EmbeddedServer{
		ns:  ns,
		log: log,
	}, nil
}

// ClientURL is the address local clients should dial. Empty for a nil server.
func (e *EmbeddedServer) ClientURL() string {
	if e == nil || e.ns == nil {
		return ""
	}
	return e.ns.ClientURL()
}

// Shutdown stops the server and waits for it to exit.
func (e *EmbeddedServer) Shutdown() {
	if e == nil || e.ns == nil {
		return
	}
	e.log.Info("shutting down embedded NATS server")
	e.ns.Shutdown()
	e.ns.WaitForShutdown()
}
