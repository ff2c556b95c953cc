// Package inject delivers dictated text to the focused application by
// swapping it onto the clipboard and sending the paste chord.
package inject

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type Options struct {
	AutoPaste        bool
	PasteDelay       time.Duration
	RestoreDelay     time.Duration
	RestoreClipboard bool
	RequireThai      bool
}

// Injector runs one clipboard swap at a time. The sequence is: remember the
// focused window and the clipboard, write the text, wait PasteDelay, confirm
// focus, paste, wait RestoreDelay, restore the clipboard.
//
// When pasting fails the text is left on the clipboard so the user can paste
// it by hand.
type Injector struct {
	mu        sync.Mutex
	clipboard Clipboard
	keyboard  Keyboard
	probe     WindowProbe
	opts      Options
	logger    *slog.Logger
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewInjector wires the collaborators. keyboard may be nil when AutoPaste is
// off; probe may be nil to skip the focus check.
func NewInjector(cb Clipboard, keyboard Keyboard, probe WindowProbe, opts Options, logger *slog.Logger) *Injector {
	return &Injector{
		clipboard: cb,
		keyboard:  keyboard,
		probe:     probe,
		opts:      opts,
		logger:    logger.With(slog.String("component", "inject")),
		sleep:     sleepContext,
	}
}

func (i *Injector) Inject(ctx context.Context, text string) error {
	if i.opts.RequireThai {
		if err := ValidateThai(text); err != nil {
			return err
		}
	} else if text == "" {
		return fmt.Errorf("%w: text must not be empty", ErrValidation)
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	var target string
	if i.opts.AutoPaste && i.probe != nil {
		w, err := i.probe.Active(ctx)
		if err != nil {
			i.logger.Debug("focus probe failed; skipping focus check", slog.String("error", err.Error()))
		} else {
			target = w
		}
	}

	saved, readErr := i.clipboard.Read()
	if readErr != nil {
		// An empty selection reads as an error on some platforms.
		i.logger.Debug("clipboard read failed; nothing to restore", slog.String("error", readErr.Error()))
	}
	if err := i.clipboard.Write(text); err != nil {
		return fmt.Errorf("%w: %v", ErrClipboardAccess, err)
	}
	if !i.opts.AutoPaste {
		i.logger.Info("text copied to clipboard", slog.Int("chars", len([]rune(text))))
		return nil
	}
	if i.keyboard == nil {
		return fmt.Errorf("%w: no keyboard configured", ErrKeySimulation)
	}

	if err := i.sleep(ctx, i.opts.PasteDelay); err != nil {
		return fmt.Errorf("%w: %v", ErrKeySimulation, err)
	}
	if target != "" {
		now, err := i.probe.Active(ctx)
		if err == nil && now != target {
			return fmt.Errorf("%w: focus moved from %s to %s", ErrTargetLost, target, now)
		}
	}
	if err := i.keyboard.Paste(ctx); err != nil {
		return err
	}

	if !i.opts.RestoreClipboard || readErr != nil {
		return nil
	}
	if err := i.sleep(ctx, i.opts.RestoreDelay); err != nil {
		i.logger.Debug("restore skipped", slog.String("error", err.Error()))
		return nil
	}
	if err := i.clipboard.Write(saved); err != nil {
		// The paste already happened; a failed restore is not an injection failure.
		i.logger.Warn("clipboard restore failed", slog.String("error", err.Error()))
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// LogSink stands in for the injector when injection is disabled; it only
// records what would have been typed.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger.With(slog.String("component", "inject"))}
}

func (s *LogSink) Inject(_ context.Context, text string) error {
	s.logger.Info("injection disabled; dictated text", slog.String("text", text))
	return nil
}
