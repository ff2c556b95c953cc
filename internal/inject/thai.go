package inject

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	thaiFirst = '\u0E01'
	thaiLast  = '\u0E5B'
)

func isThai(r rune) bool { return r >= thaiFirst && r <= thaiLast }

// ValidateThai accepts text that contains at least one Thai character and
// otherwise only ASCII or whitespace.
func ValidateThai(text string) error {
	if text == "" {
		return fmt.Errorf("%w: text must not be empty", ErrValidation)
	}
	if !strings.ContainsFunc(text, isThai) {
		return fmt.Errorf("%w: text must contain at least one Thai character (U+0E01-U+0E5B)", ErrValidation)
	}
	for _, r := range text {
		if r <= unicode.MaxASCII || isThai(r) || unicode.IsSpace(r) {
			continue
		}
		return fmt.Errorf("%w: unsupported character U+%04X (%c)", ErrValidation, r, r)
	}
	return nil
}
