package measure

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnmeasurable is the sentinel behind every UnmeasurableError.
var ErrUnmeasurable = errors.New("measure: unmeasurable content")

// UnmeasurableError reports a font or asset the provider cannot measure.
// Callers treat it as recoverable and substitute a fallback.
type UnmeasurableError struct {
	Font   Font // zero for image assets
	Reason string
	// Missing lists the characters the font has no glyph for; text carrying them can
	// still be measured once they are replaced by Placeholder.
	Missing []rune
	Err     error
}

// Placeholder is drawn in place of characters missing from the font encoding.
const Placeholder = '?'

// Replace returns text with the characters in missing swapped for Placeholder.
func Replace(text string, missing []rune) string {
	return strings.Map(func(r rune) rune {
		for _, m := range missing {
			if r == m {
				return Placeholder
			}
		}
		return r
	}, text)
}

func (e *UnmeasurableError) Error() string {
	subject := "image"
	if e.Font.Family != "" {
		subject = "font " + e.Font.String()
	}
	if e.Err != nil {
		return fmt.Sprintf("measure: %s: %s: %v", subject, e.Reason, e.Err)
	}
	return fmt.Sprintf("measure: %s: %s", subject, e.Reason)
}

func (e *UnmeasurableError) Is(target error) bool { return target == ErrUnmeasurable }

func (e *UnmeasurableError) Unwrap() error { return e.Err }
