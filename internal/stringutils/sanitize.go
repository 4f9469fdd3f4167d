package stringutils

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SanitizeUnicodeString drops NUL, C0/C1 control characters (except tab,
// newline and carriage return) and invalid UTF-8 sequences.
func SanitizeUnicodeString(s string) string {
	if utf8.ValidString(s) && !strings.ContainsFunc(s, isControl) {
		return s
	}

	var builder strings.Builder
	builder.Grow(len(s))
	for _, r := range s {
		if r == utf8.RuneError || isControl(r) {
			continue
		}
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			builder.WriteRune(r)
		}
	}

	return builder.String()
}

func isControl(r rune) bool {
	switch {
	case r == '\t', r == '\n', r == '\r':
		return false
	case r < 32, r == 127:
		return true
	case r >= 128 && r <= 159:
		return true
	}
	return false
}
