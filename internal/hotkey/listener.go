// Package hotkey turns a global push-to-talk key into pipeline trigger events.
package hotkey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	goruntime "runtime"
	"time"

	"github.com/loqalabs/loqa-dictate/internal/config"
	"github.com/loqalabs/loqa-dictate/internal/pipeline"
	"golang.design/x/hotkey"
)

const source = "hotkey"

// releaseGrace absorbs the keyup/keydown pairs X11 autorepeat produces while
// a key is held.
const releaseGrace = 60 * time.Millisecond

var ErrUnsupported = errors.New("global hotkeys are not supported on this platform")

type Listener struct {
	pushToTalk Binding
	cancel     *Binding
	submit     pipeline.Submitter
	logger     *slog.Logger
}

func NewListener(cfg config.HotkeyConfig, submit pipeline.Submitter, logger *slog.Logger) (*Listener, error) {
	ptt, err := ParseBinding(cfg.PushToTalk)
	if err != nil {
		return nil, fmt.Errorf("hotkey.push_to_talk: %w", err)
	}
	l := &Listener{
		pushToTalk: ptt,
		submit:     submit,
		logger:     logger.With(slog.String("component", "hotkey")),
	}
	if cfg.Cancel != "" {
		c, err := ParseBinding(cfg.Cancel)
		if err != nil {
			return nil, fmt.Errorf("hotkey.cancel: %w", err)
		}
		l.cancel = &c
	}
	return l, nil
}

// Run registers the bindings and forwards presses until ctx is done. It pins
// its goroutine to one OS thread because the platform event loops are
// thread-affine.
func (l *Listener) Run(ctx context.Context) error {
	if goruntime.GOOS == "darwin" {
		// Registration must happen on the main thread on macOS, which the
		// runtime already hands to the UI loop.
		return ErrUnsupported
	}
	goruntime.LockOSThread()
	defer goruntime.UnlockOSThread()

	ptt := hotkey.New(l.pushToTalk.Mods, l.pushToTalk.Key)
	if err := ptt.Register(); err != nil {
		return fmt.Errorf("register %s: %w", l.pushToTalk, err)
	}
	defer ptt.Unregister()

	var cancelDown <-chan hotkey.Event
	if l.cancel != nil {
		hk := hotkey.New(l.cancel.Mods, l.cancel.Key)
		if err := hk.Register(); err != nil {
			l.logger.Warn("cancel hotkey unavailable", slog.String("binding", l.cancel.String()), slog.String("error", err.Error()))
		} else {
			defer hk.Unregister()
			cancelDown = hk.Keydown()
		}
	}

	l.logger.Info("hotkey listener started", slog.String("push_to_talk", l.pushToTalk.String()))
	l.loop(ctx, ptt.Keydown(), ptt.Keyup(), cancelDown)
	return nil
}

func (l *Listener) loop(ctx context.Context, down, up, cancel <-chan hotkey.Event) {
	var (
		pressed bool
		release <-chan time.Time
		timer   *time.Timer
	)
	stopTimer := func() {
		if timer != nil {
			timer.Stop()
		}
		timer, release = nil, nil
	}
	defer stopTimer()

	for {
		select {
		case <-ctx.Done():
			return
		case <-down:
			if release != nil {
				// Autorepeat: the key never really went up.
				stopTimer()
				continue
			}
			if pressed {
				continue
			}
			pressed = true
			l.send(pipeline.RecordStart(source))
		case <-up:
			if !pressed || release != nil {
				continue
			}
			timer = time.NewTimer(releaseGrace)
			release = timer.C
		case <-release:
			timer, release = nil, nil
			pressed = false
			l.send(pipeline.RecordStop(source))
		case <-cancel:
			l.send(pipeline.Cancel(source))
		}
	}
}

func (l *Listener) send(ev pipeline.Event) {
	if !l.submit.Submit(ev) {
		l.logger.Warn("pipeline queue full; hotkey event dropped", slog.String("event", string(ev.Type)))
	}
}
