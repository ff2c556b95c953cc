package inject

import "errors"

var (
	ErrClipboardAccess = errors.New("clipboard unavailable")
	ErrKeySimulation   = errors.New("paste key simulation failed")
	ErrTargetLost      = errors.New("target window lost focus before paste")
	ErrValidation      = errors.New("text rejected")
)

// Kind returns a short label for an injection error.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrClipboardAccess):
		return "clipboard_access"
	case errors.Is(err, ErrKeySimulation):
		return "key_simulation"
	case errors.Is(err, ErrTargetLost):
		return "target_lost"
	case errors.Is(err, ErrValidation):
		return "validation"
	default:
		return "internal"
	}
}
