package runtime

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/loqalabs/loqa-dictate/internal/config"
	"github.com/loqalabs/loqa-dictate/internal/inject"
	"github.com/loqalabs/loqa-dictate/internal/llm"
	"github.com/loqalabs/loqa-dictate/internal/pipeline"
	"github.com/loqalabs/loqa-dictate/internal/rolling"
	"github.com/loqalabs/loqa-dictate/internal/stt"
)

// BuildSettings constructs the replaceable pipeline collaborators from cfg.
// It is used at startup and again for every accepted config reload.
func BuildSettings(cfg config.Config, logger *slog.Logger) (pipeline.Settings, error) {
	mode, err := pipeline.ParseMode(cfg.Pipeline.Mode)
	if err != nil {
		return pipeline.Settings{}, err
	}

	recognizer, err := stt.NewRecognizer(cfg.STT, logger)
	if err != nil {
		return pipeline.Settings{}, fmt.Errorf("stt: %w", err)
	}
	engine := stt.NewEngine(recognizer, stt.Options{
		SampleRate:     cfg.Audio.SampleRate,
		MinDuration:    secs(cfg.Audio.MinRecordingSecs),
		MaxDuration:    secs(cfg.Audio.MaxRecordingSecs),
		Timeout:        cfg.STT.Timeout(),
		QuietThreshold: cfg.Audio.QuietThreshold,
	}, logger)

	settings := pipeline.Settings{
		Mode:              mode,
		CorrectionTimeout: cfg.LLM.Timeout(),
		Transcriber:       engine,
		Context:           contextOptions(cfg.Context),
	}

	corrector, err := llm.New(cfg.LLM, logger)
	if err != nil {
		return pipeline.Settings{}, fmt.Errorf("llm: %w", err)
	}
	if corrector != nil {
		settings.Corrector = corrector
	}

	sink, err := inject.New(cfg.Inject, logger)
	if err != nil {
		return pipeline.Settings{}, fmt.Errorf("inject: %w", err)
	}
	settings.Injector = sink
	return settings, nil
}

func contextOptions(cfg config.ContextConfig) rolling.Options {
	return rolling.Options{
		WindowSize:   cfg.WindowSize,
		SilenceReset: cfg.SilenceReset(),
		TopK:         cfg.VocabularyTopK,
	}
}

func secs(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
