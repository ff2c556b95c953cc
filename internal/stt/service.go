package stt

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/loqalabs/loqa-dictate/internal/config"
)

// NewRecognizer builds the backend selected by cfg.Mode.
func NewRecognizer(cfg config.STTConfig, logger *slog.Logger) (Recognizer, error) {
	var (
		recognizer Recognizer
		err        error
	)
	switch cfg.Mode {
	case "exec":
		recognizer, err = NewExecRecognizer(cfg)
	case "http":
		client := &http.Client{Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			ResponseHeaderTimeout: cfg.Timeout() + 5*time.Second,
		}}
		recognizer = NewHTTPRecognizer(cfg, client)
	case "mock":
		recognizer = NewMockRecognizer(cfg.MockText)
	default:
		return nil, fmt.Errorf("unsupported stt mode %q", cfg.Mode)
	}
	if err != nil {
		return nil, err
	}
	logger.Info("speech recognizer ready",
		slog.String("component", "stt"),
		slog.String("mode", cfg.Mode),
		slog.String("language", cfg.Language))
	return recognizer, nil
}
