package inject

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	goruntime "runtime"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-shellwords"
	"github.com/micmonay/keybd_event"
)

// Keyboard sends the platform paste chord to the focused window.
type Keyboard interface {
	Paste(ctx context.Context) error
}

// CommandKeyboard delegates the paste chord to an external tool such as
// xdotool, wtype or osascript.
type CommandKeyboard struct {
	args []string
}

func NewCommandKeyboard(command string) (*CommandKeyboard, error) {
	args, err := shellwords.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse paste command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("paste command is empty")
	}
	return &CommandKeyboard{args: args}, nil
}

func (k *CommandKeyboard) Paste(ctx context.Context) error {
	if _, err := runCommand(ctx, k.args); err != nil {
		return fmt.Errorf("%w: %v", ErrKeySimulation, err)
	}
	return nil
}

// VirtualKeyboard presses Ctrl+V through a virtual input device (uinput on
// Linux, SendInput on Windows).
type VirtualKeyboard struct {
	mu sync.Mutex
	kb keybd_event.KeyBonding
}

// NewVirtualKeyboard creates the device. On Linux the kernel needs a moment
// to register a fresh uinput device before it accepts events.
func NewVirtualKeyboard() (*VirtualKeyboard, error) {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeySimulation, err)
	}
	if goruntime.GOOS == "linux" {
		time.Sleep(2 * time.Second)
	}
	kb.SetKeys(keybd_event.VK_V)
	kb.HasCTRL(true)
	return &VirtualKeyboard{kb: kb}, nil
}

func (k *VirtualKeyboard) Paste(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.kb.Launching(); err != nil {
		return fmt.Errorf("%w: %v", ErrKeySimulation, err)
	}
	return nil
}

func runCommand(ctx context.Context, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s: %w: %s", args[0], err, msg)
		}
		return "", fmt.Errorf("%s: %w", args[0], err)
	}
	return stdout.String(), nil
}
