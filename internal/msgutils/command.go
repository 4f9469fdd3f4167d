package msgutils

import "strings"

// ParseCommand splits a REPL line of the form "/name rest of line".
// ok is false for anything that is not a slash command.
func ParseCommand(msg string) (name string, args string, ok bool) {
	msg = strings.TrimSpace(msg)
	if !strings.HasPrefix(msg, "/") || len(msg) == 1 {
		return "", "", false
	}

	name, args, _ = strings.Cut(msg[1:], " ")
	return strings.ToLower(name), strings.TrimSpace(args), true
}

// SplitFirst returns the first whitespace separated word and the remainder.
func SplitFirst(s string) (string, string) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return "", ""
	}
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), fields[0]))
	return fields[0], rest
}
