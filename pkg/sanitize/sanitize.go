// Package sanitize normalises field values before they leave the process.
// Every function is total and idempotent: applying it twice yields the same
// result as applying it once.
package sanitize

import (
	"strings"
	"unicode"

	"github.com/goliatone/go-formguard/pkg/validate"
)

// String trims, drops angle brackets and control characters, then collapses
// every whitespace run into a single space.
func String(input string) string {
	if input == "" {
		return ""
	}
	cleaned := strings.Map(func(r rune) rune {
		if isAngle(r) || isStrippedControl(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(input))
	return strings.Join(strings.Fields(cleaned), " ")
}

// Message keeps line structure: space runs collapse to one space, newline
// runs are capped at two, tabs and newlines survive.
func Message(input string) string {
	if input == "" {
		return ""
	}
	cleaned := strings.Map(func(r rune) rune {
		if isAngle(r) || isStrippedControl(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(input))

	var b strings.Builder
	b.Grow(len(cleaned))
	var prev rune
	newlines := 0
	for _, r := range cleaned {
		switch {
		case r == ' ' && prev == ' ':
			continue
		case r == '\n':
			newlines++
			if newlines > 2 {
				continue
			}
		default:
			newlines = 0
		}
		b.WriteRune(r)
		prev = r
	}
	return strings.TrimSpace(b.String())
}

// Phone keeps digits, whitespace, hyphens, parentheses and plus signs.
func Phone(input string) string {
	if input == "" {
		return ""
	}
	cleaned := strings.Map(func(r rune) rune {
		if validate.IsPhoneRune(r) {
			return r
		}
		return -1
	}, strings.TrimSpace(input))
	return strings.TrimSpace(cleaned)
}

// Email trims, lowercases and drops angle brackets.
func Email(input string) string {
	if input == "" {
		return ""
	}
	cleaned := strings.Map(func(r rune) rune {
		if isAngle(r) {
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(input)))
	return strings.TrimSpace(cleaned)
}

func isAngle(r rune) bool {
	return r == '<' || r == '>'
}

// isStrippedControl matches C0 controls and DEL, except tab, newline and
// carriage return.
func isStrippedControl(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return r == 0x7f || (r < 0x20 && unicode.IsControl(r))
}
