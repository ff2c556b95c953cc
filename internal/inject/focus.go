package inject

import (
	"context"
	"fmt"
	"strings"

	"github.com/mattn/go-shellwords"
)

// WindowProbe identifies the window that currently has keyboard focus.
type WindowProbe interface {
	Active(ctx context.Context) (string, error)
}

// CommandProbe runs a command (for example `xdotool getactivewindow`) whose
// trimmed stdout identifies the focused window.
type CommandProbe struct {
	args []string
}

func NewCommandProbe(command string) (*CommandProbe, error) {
	args, err := shellwords.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse focus command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("focus command is empty")
	}
	return &CommandProbe{args: args}, nil
}

func (p *CommandProbe) Active(ctx context.Context) (string, error) {
	out, err := runCommand(ctx, p.args)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
