package inject

import (
	"context"
	"log/slog"
	"time"

	"github.com/loqalabs/loqa-dictate/internal/config"
)

// Sink is what the pipeline needs from this package.
type Sink interface {
	Inject(ctx context.Context, text string) error
}

// New builds the output sink described by cfg.
func New(cfg config.InjectConfig, logger *slog.Logger) (Sink, error) {
	if !cfg.Enabled {
		return NewLogSink(logger), nil
	}
	cb, err := SystemClipboard()
	if err != nil {
		return nil, err
	}

	var keyboard Keyboard
	if cfg.AutoPaste {
		if cfg.PasteCommand != "" {
			keyboard, err = NewCommandKeyboard(cfg.PasteCommand)
		} else {
			keyboard, err = NewVirtualKeyboard()
		}
		if err != nil {
			return nil, err
		}
	}

	var probe WindowProbe
	if cfg.FocusCommand != "" {
		if probe, err = NewCommandProbe(cfg.FocusCommand); err != nil {
			return nil, err
		}
	}

	logger.Info("output injection ready",
		slog.String("component", "inject"),
		slog.Bool("auto_paste", cfg.AutoPaste),
		slog.Bool("focus_check", probe != nil),
		slog.Bool("require_thai", cfg.RequireThai))

	return NewInjector(cb, keyboard, probe, Options{
		AutoPaste:        cfg.AutoPaste,
		PasteDelay:       time.Duration(cfg.PasteDelayMS) * time.Millisecond,
		RestoreDelay:     time.Duration(cfg.RestoreDelayMS) * time.Millisecond,
		RestoreClipboard: cfg.RestoreClipboard,
		RequireThai:      cfg.RequireThai,
	}, logger), nil
}
