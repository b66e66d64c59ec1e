// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import "strings"

// repairJSON attempts a structural repair of a truncated JSON object. The
// accepted grammar of fixes is deliberately small:
//
//   - a dangling escape backslash at the cut point is dropped
//   - an unterminated string is closed
//   - a trailing comma before the cut point is dropped
//   - unclosed objects and arrays are closed in stack order
//
// Anything else (mismatched closers, text that never opens an object)
// fails. The repaired text is not guaranteed to unmarshal; the caller must
// re-parse and treat a second failure as fatal.
func repairJSON(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") {
		return "", false
	}

	var stack []byte
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}':
			if len(stack) == 0 || stack[len(stack)-1] != '{' {
				return "", false
			}
			stack = stack[:len(stack)-1]
		case ']':
			if len(stack) == 0 || stack[len(stack)-1] != '[' {
				return "", false
			}
			stack = stack[:len(stack)-1]
		}
	}

	if len(stack) == 0 && !inString {
		// Already balanced; nothing this grammar can add.
		return s, true
	}

	var b strings.Builder
	b.WriteString(s)

	if inString {
		if escaped {
			// Drop the dangling escape so the closing quote is literal.
			trimmed := b.String()
			b.Reset()
			b.WriteString(trimmed[:len(trimmed)-1])
		}
		b.WriteByte('"')
		inString = false
	}

	// A trailing comma would make the closing brace invalid.
	closed := strings.TrimRight(b.String(), " \t\n\r")
	closed = strings.TrimSuffix(closed, ",")
	b.Reset()
	b.WriteString(closed)

	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			b.WriteByte('}')
		} else {
			b.WriteByte(']')
		}
	}

	return b.String(), true
}
