package reply

import "strings"

// ExtractList parses a flat bracketed list such as "[a, 'b c', d]".
// It locates the first '[' and the last ']'; if either is missing or they are
// out of order the result is empty. Elements are trimmed, lose one matching pair
// of surrounding quotes, and empty elements are dropped. Nested lists are not
// parsed, only tolerated.
func ExtractList(text string) []string {
	open := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if open < 0 || end < 0 || end <= open {
		return []string{}
	}

	inner := text[open+1 : end]
	items := []string{}
	for _, part := range strings.Split(inner, ",") {
		item := unquote(strings.TrimSpace(part))
		if item == "" {
			continue
		}
		items = append(items, item)
	}
	return items
}

// ExtractArgument returns the single argument of the first parenthesized or
// bracketed group in text, e.g. "mover(templo)" or "ok: llegaste a [templo]".
func ExtractArgument(text string) (string, bool) {
	start := strings.IndexAny(text, "([")
	if start < 0 {
		return "", false
	}
	closer := byte(')')
	if text[start] == '[' {
		closer = ']'
	}
	rest := text[start+1:]
	end := strings.IndexByte(rest, closer)
	if end < 0 {
		return "", false
	}
	arg := unquote(strings.TrimSpace(rest[:end]))
	if arg == "" {
		return "", false
	}
	return arg, true
}

// Verb returns the predicate name of a command: "mover(templo)" yields "mover".
func Verb(cmd string) string {
	cmd = strings.TrimSpace(cmd)
	if i := strings.IndexAny(cmd, "( "); i >= 0 {
		cmd = cmd[:i]
	}
	return strings.TrimSuffix(cmd, ".")
}

func unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '\'' || first == '"') {
			return strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}
