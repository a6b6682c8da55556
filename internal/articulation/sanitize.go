package articulation

import (
	"regexp"
	"strings"

	"dayflow/internal/logging"
)

var (
	// Lines left behind when an array or object payload is removed, e.g. a
	// lone "]" or "}]" the model printed on its own line.
	orphanBracketLine = regexp.MustCompile(`^[\s\]\},]+$`)

	// Leaked role prefix some models emit at the start of a response.
	rolePrefix = regexp.MustCompile(`^(?i)(assistant|model)\s*:\s*`)

	multiBlank = regexp.MustCompile(`\n{3,}`)
)

// Sanitize removes every extracted command span from the response and
// applies cleanup passes for the artifacts removal leaves behind. Spans are
// exact recorded locations, not fresh searches, so prose that happens to
// duplicate a marker string elsewhere is never over-deleted.
//
// If the cleaned message ends up empty the raw response is returned instead:
// showing something beats an empty bubble, and the only way this happens is
// a response that was nothing but commands.
//
// Sanitize is idempotent: running it again over its own output (with the
// commands re-extracted, which will find none) removes nothing further.
func Sanitize(raw string, cmds []Command) string {
	display := removeSpans(raw, cmds)
	display = cleanArtifacts(display)
	display = strings.TrimSpace(display)

	if display == "" {
		logging.Articulation("sanitized text empty, failing open to raw response")
		return strings.TrimSpace(raw)
	}
	return display
}

// removeSpans deletes the recorded spans from raw, highest offset first so
// earlier spans stay valid. Overlapping spans (a payload that happens to
// contain another marker's text) are merged so no byte is deleted twice.
func removeSpans(raw string, cmds []Command) string {
	if len(cmds) == 0 {
		return raw
	}

	spans := make([]Span, 0, len(cmds))
	for _, c := range cmds {
		spans = append(spans, c.Span)
	}
	spans = mergeSpans(spans)

	display := raw
	for i := len(spans) - 1; i >= 0; i-- {
		s := spans[i]
		if s.Start < 0 || s.End > len(display) || s.Start >= s.End {
			continue
		}
		display = display[:s.Start] + display[s.End:]
	}
	return display
}

// mergeSpans assumes spans sorted by start (ExtractAll guarantees it) and
// coalesces any that overlap.
func mergeSpans(spans []Span) []Span {
	merged := spans[:0]
	for _, s := range spans {
		if n := len(merged); n > 0 && s.Start <= merged[n-1].End {
			if s.End > merged[n-1].End {
				merged[n-1].End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// cleanArtifacts applies the post-removal cleanup passes: orphaned
// closing-bracket lines, stray fence and tool_code tokens, and a leaked
// leading role prefix.
func cleanArtifacts(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && orphanBracketLine.MatchString(line) {
			continue
		}
		if isFenceLine(trimmed) || trimmed == "tool_code" {
			continue
		}
		kept = append(kept, line)
	}
	s = strings.Join(kept, "\n")

	s = rolePrefix.ReplaceAllString(strings.TrimLeft(s, " \t\n"), "")
	s = multiBlank.ReplaceAllString(s, "\n\n")
	return s
}
