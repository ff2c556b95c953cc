package hotkey

import (
	"fmt"
	"strings"

	"golang.design/x/hotkey"
)

// Binding is a parsed key chord such as "F9" or "Ctrl+Shift+Space".
type Binding struct {
	Mods []hotkey.Modifier
	Key  hotkey.Key
	Text string
}

func (b Binding) String() string { return b.Text }

// Only Ctrl and Shift are offered because they are the modifiers every
// platform backend defines.
var modifiers = map[string]hotkey.Modifier{
	"ctrl":    hotkey.ModCtrl,
	"control": hotkey.ModCtrl,
	"shift":   hotkey.ModShift,
}

var keys = map[string]hotkey.Key{
	"space": hotkey.KeySpace, "enter": hotkey.KeyReturn, "return": hotkey.KeyReturn,
	"esc": hotkey.KeyEscape, "escape": hotkey.KeyEscape, "tab": hotkey.KeyTab,
	"delete": hotkey.KeyDelete,
	"left": hotkey.KeyLeft, "right": hotkey.KeyRight, "up": hotkey.KeyUp, "down": hotkey.KeyDown,

	"f1": hotkey.KeyF1, "f2": hotkey.KeyF2, "f3": hotkey.KeyF3, "f4": hotkey.KeyF4,
	"f5": hotkey.KeyF5, "f6": hotkey.KeyF6, "f7": hotkey.KeyF7, "f8": hotkey.KeyF8,
	"f9": hotkey.KeyF9, "f10": hotkey.KeyF10, "f11": hotkey.KeyF11, "f12": hotkey.KeyF12,

	"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2, "3": hotkey.Key3, "4": hotkey.Key4,
	"5": hotkey.Key5, "6": hotkey.Key6, "7": hotkey.Key7, "8": hotkey.Key8, "9": hotkey.Key9,

	"a": hotkey.KeyA, "b": hotkey.KeyB, "c": hotkey.KeyC, "d": hotkey.KeyD, "e": hotkey.KeyE,
	"f": hotkey.KeyF, "g": hotkey.KeyG, "h": hotkey.KeyH, "i": hotkey.KeyI, "j": hotkey.KeyJ,
	"k": hotkey.KeyK, "l": hotkey.KeyL, "m": hotkey.KeyM, "n": hotkey.KeyN, "o": hotkey.KeyO,
	"p": hotkey.KeyP, "q": hotkey.KeyQ, "r": hotkey.KeyR, "s": hotkey.KeyS, "t": hotkey.KeyT,
	"u": hotkey.KeyU, "v": hotkey.KeyV, "w": hotkey.KeyW, "x": hotkey.KeyX, "y": hotkey.KeyY,
	"z": hotkey.KeyZ,
}

// ParseBinding reads a "+"-separated chord. The last part is the key; any
// earlier parts are modifiers.
func ParseBinding(text string) (Binding, error) {
	parts := strings.Split(strings.TrimSpace(text), "+")
	if len(parts) == 0 || strings.TrimSpace(parts[0]) == "" {
		return Binding{}, fmt.Errorf("empty hotkey binding")
	}
	var b Binding
	seen := map[hotkey.Modifier]bool{}
	for _, raw := range parts[:len(parts)-1] {
		name := strings.ToLower(strings.TrimSpace(raw))
		mod, ok := modifiers[name]
		if !ok {
			return Binding{}, fmt.Errorf("unsupported modifier %q in %q (use Ctrl or Shift)", raw, text)
		}
		if !seen[mod] {
			seen[mod] = true
			b.Mods = append(b.Mods, mod)
		}
	}
	last := strings.ToLower(strings.TrimSpace(parts[len(parts)-1]))
	key, ok := keys[last]
	if !ok {
		return Binding{}, fmt.Errorf("unsupported key %q in %q", parts[len(parts)-1], text)
	}
	b.Key = key
	b.Text = strings.TrimSpace(text)
	return b, nil
}
