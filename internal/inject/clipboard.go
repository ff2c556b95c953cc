package inject

import (
	"fmt"

	"github.com/atotto/clipboard"
)

// Clipboard is the system clipboard seen as plain text.
type Clipboard interface {
	Read() (string, error)
	Write(text string) error
}

type systemClipboard struct{}

// SystemClipboard returns the OS clipboard. On Linux it needs xclip, xsel or
// wl-clipboard on PATH.
func SystemClipboard() (Clipboard, error) {
	if clipboard.Unsupported {
		return nil, fmt.Errorf("%w: no clipboard utility found", ErrClipboardAccess)
	}
	return systemClipboard{}, nil
}

func (systemClipboard) Read() (string, error) { return clipboard.ReadAll() }

func (systemClipboard) Write(text string) error { return clipboard.WriteAll(text) }
