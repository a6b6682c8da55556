package articulation

import "strings"

// scanBalanced walks s from offset from, locates the first open token and
// returns the [start, end) span of the syntactically balanced literal it
// begins. It maintains a depth counter and an in-string flag with escape
// tracking: a backslash always consumes the following character, and open or
// close tokens inside string literals do not affect depth.
//
// Note: It is safe to iterate bytes for ASCII delimiters ({, }, [, ], ", \)
// because UTF-8 guarantees ASCII bytes never appear inside a multi-byte
// sequence.
func scanBalanced(s string, from int, open, close byte) (int, int, bool) {
	if from < 0 || from >= len(s) {
		return 0, 0, false
	}

	start := -1
	for i := from; i < len(s); i++ {
		if s[i] == open {
			start = i
			break
		}
	}
	if start < 0 {
		return 0, 0, false
	}

	var depth int
	var inString bool
	var escape bool

	for i := start; i < len(s); i++ {
		b := s[i]

		if escape {
			escape = false
			continue
		}

		if inString {
			if b == '\\' {
				escape = true
			} else if b == '"' {
				inString = false
			}
			continue
		}

		switch b {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return start, i + 1, true
			}
		}
	}

	// Unterminated literal.
	return 0, 0, false
}

// stripCodeFences removes triple-backtick fence lines (bare or tagged with
// json/tool_code) from a working copy of the text. Only the fence delimiter
// lines are dropped; fenced content is kept. The result is used solely for
// locating markers the model wrapped in cosmetic fences; redaction spans are
// always computed against the original text.
func stripCodeFences(s string) string {
	if !strings.Contains(s, "```") {
		return s
	}

	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if isFenceLine(trimmed) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func isFenceLine(trimmed string) bool {
	if !strings.HasPrefix(trimmed, "```") {
		return false
	}
	tag := strings.TrimPrefix(trimmed, "```")
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "", "json", "tool_code":
		return true
	}
	return false
}
