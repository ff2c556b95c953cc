package llm

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/loqalabs/loqa-dictate/internal/config"
)

// New builds the corrector selected by cfg.Mode. It returns nil when
// correction is disabled; callers treat a nil corrector as "skip correction".
func New(cfg config.LLMConfig, logger *slog.Logger) (Corrector, error) {
	if !cfg.Enabled {
		logger.Info("correction disabled")
		return nil, nil
	}
	opts := Options{
		Endpoint:    cfg.Endpoint,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Language:    cfg.Language,
	}
	// The caller's context carries the deadline; the client only guards
	// against a connection that never returns headers.
	client := &http.Client{Transport: &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ResponseHeaderTimeout: 2 * cfg.Timeout(),
		MaxIdleConnsPerHost:   2,
	}}

	var (
		corrector Corrector
		err       error
	)
	switch cfg.Mode {
	case "openai":
		corrector = NewOpenAICorrector(opts, client)
	case "ollama":
		corrector = NewOllamaCorrector(opts, client)
	case "exec":
		corrector, err = NewExecCorrector(cfg.Command, opts)
	case "mock":
		corrector = NewMockCorrector()
	default:
		return nil, fmt.Errorf("unsupported llm mode %q", cfg.Mode)
	}
	if err != nil {
		return nil, err
	}
	logger.Info("correction engine ready",
		slog.String("component", "llm"),
		slog.String("mode", cfg.Mode),
		slog.String("model", cfg.Model),
		slog.Bool("auth", cfg.APIKey != ""))
	return corrector, nil
}
