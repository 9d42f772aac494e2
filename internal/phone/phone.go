// Package phone canonicalizes free-form phone input into an
// international-format token.
package phone

import (
	"errors"
	"strings"
)

// ErrUnrecognized is returned when input cannot be read as a phone number.
var ErrUnrecognized = errors.New("phone: unrecognized number")

const minDigits = 7

// Normalize strips formatting from raw input and returns a "+"-prefixed
// number, rewriting the domestic 8XXXXXXXXXX prefix to +7XXXXXXXXXX.
// Validation is intentionally permissive: anything with at least seven
// digits passes. The result is stable, Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) (string, error) {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r == '+' || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" {
		return "", ErrUnrecognized
	}

	if strings.HasPrefix(s, "8") && len(s) >= 11 {
		s = "+7" + s[1:]
	}
	if !strings.HasPrefix(s, "+") {
		s = "+" + s
	}

	if countDigits(s) < minDigits {
		return "", ErrUnrecognized
	}
	return s, nil
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
