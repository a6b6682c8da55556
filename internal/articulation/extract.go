// Package articulation turns raw model output into structured commands and
// clean display text. It is the boundary between what the model said and
// what the user sees: every recognized command marker is extracted with its
// exact source span, and the sanitizer removes those spans before display.
package articulation

import (
	"encoding/json"
	"sort"
	"strings"

	"dayflow/internal/logging"
)

// Kind identifies which mutation a command requests.
type Kind string

const (
	KindCreateTasks          Kind = "create_tasks"
	KindUpdateTask           Kind = "update_task"
	KindDeleteTask           Kind = "delete_task"
	KindDeleteAllTasks       Kind = "delete_all_tasks"
	KindDeleteCompletedTasks Kind = "delete_completed_tasks"
	KindCreateEvents         Kind = "create_events"
	KindUpdateEvent          Kind = "update_event"
	KindDeleteEvent          Kind = "delete_event"
	KindCreateGoals          Kind = "create_goals"
	KindUpdateGoal           Kind = "update_goal"
	KindDeleteGoal           Kind = "delete_goal"
	KindCreateNote           Kind = "create_note"
)

// Command markers. Each is a fixed literal prefix the model emits before a
// JSON payload. The note command uses a delimiter pair instead because note
// content legitimately contains braces and brackets that would confuse a
// balanced scan anchored on a marker.
const (
	MarkerTasks               = "TASKS_JSON:"
	MarkerTaskUpdate          = "TASK_UPDATE_JSON:"
	MarkerTaskDelete          = "TASK_DELETE_JSON:"
	MarkerTaskDeleteAll       = "TASK_DELETE_ALL_JSON:"
	MarkerTaskDeleteCompleted = "TASK_DELETE_COMPLETED_JSON:"
	MarkerEvents              = "EVENTS_JSON:"
	MarkerEventUpdate         = "EVENT_UPDATE_JSON:"
	MarkerEventDelete         = "EVENT_DELETE_JSON:"
	MarkerGoals               = "GOALS_JSON:"
	MarkerGoalUpdate          = "GOAL_UPDATE_JSON:"
	MarkerGoalDelete          = "GOAL_DELETE_JSON:"
	NoteStart                 = "<<<NOTE_START>>>"
	NoteEnd                   = "<<<NOTE_END>>>"
)

// markerSpec binds a marker literal to its command kind and the token pair
// its payload opens with (array markers scan for brackets, the rest for
// braces).
type markerSpec struct {
	kind   Kind
	marker string
	open   byte
	close  byte
}

var markerTable = []markerSpec{
	{KindCreateTasks, MarkerTasks, '[', ']'},
	{KindUpdateTask, MarkerTaskUpdate, '{', '}'},
	{KindDeleteTask, MarkerTaskDelete, '{', '}'},
	{KindDeleteAllTasks, MarkerTaskDeleteAll, '{', '}'},
	{KindDeleteCompletedTasks, MarkerTaskDeleteCompleted, '{', '}'},
	{KindCreateEvents, MarkerEvents, '[', ']'},
	{KindUpdateEvent, MarkerEventUpdate, '{', '}'},
	{KindDeleteEvent, MarkerEventDelete, '{', '}'},
	{KindCreateGoals, MarkerGoals, '[', ']'},
	{KindUpdateGoal, MarkerGoalUpdate, '{', '}'},
	{KindDeleteGoal, MarkerGoalDelete, '{', '}'},
}

// Span is a [Start, End) byte range in the original response text.
type Span struct {
	Start int
	End   int
}

// Command is one extracted mutation request. Payload is the exact JSON
// substring of the original text; Span covers marker through payload (or the
// full delimiter pair for notes) and is what the sanitizer removes.
type Command struct {
	Kind    Kind
	Payload json.RawMessage
	Span    Span
}

// ExtractAll scans the response for every recognized marker. Each marker
// type is extracted independently against the full text; only the first
// occurrence per type is processed. Malformed or unterminated payloads are
// soft failures: the command is dropped, logged, and nothing is redacted for
// that marker. Results are ordered by span start.
func ExtractAll(text string) []Command {
	var cmds []Command
	for _, spec := range markerTable {
		if cmd, ok := extractMarker(text, spec); ok {
			cmds = append(cmds, cmd)
		}
	}
	if cmd, ok := extractNote(text); ok {
		cmds = append(cmds, cmd)
	}

	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Span.Start < cmds[j].Span.Start })
	return cmds
}

// extractMarker returns the first syntactically complete JSON value
// following the marker, as an exact substring of the original text.
func extractMarker(text string, spec markerSpec) (Command, bool) {
	idx := strings.Index(text, spec.marker)
	if idx < 0 {
		return Command{}, false
	}

	start, end, ok := scanBalanced(text, idx+len(spec.marker), spec.open, spec.close)
	if !ok {
		// The model sometimes wraps payloads in code fences; retry against
		// a fence-stripped working copy and map the literal back onto the
		// original so the redaction span stays exact.
		start, end, ok = extractViaStrippedCopy(text, idx, spec)
		if !ok {
			logging.Extraction("marker %s present but no balanced payload found", spec.marker)
			return Command{}, false
		}
	}

	payload := text[start:end]
	if !json.Valid([]byte(payload)) {
		logging.Extraction("marker %s payload is not valid JSON, command dropped", spec.marker)
		return Command{}, false
	}

	logging.ExtractionDebug("marker %s extracted %d bytes at offset %d", spec.marker, end-start, idx)
	return Command{
		Kind:    spec.kind,
		Payload: json.RawMessage(payload),
		Span:    Span{Start: idx, End: end},
	}, true
}

// extractViaStrippedCopy retries extraction on a copy with fence lines
// removed, then locates the extracted literal in the original text. Fence
// stripping shifts offsets, so the working copy is never used for spans
// directly.
func extractViaStrippedCopy(text string, origIdx int, spec markerSpec) (int, int, bool) {
	working := stripCodeFences(text)
	if working == text {
		return 0, 0, false
	}

	widx := strings.Index(working, spec.marker)
	if widx < 0 {
		return 0, 0, false
	}
	wstart, wend, ok := scanBalanced(working, widx+len(spec.marker), spec.open, spec.close)
	if !ok {
		return 0, 0, false
	}

	literal := working[wstart:wend]
	rel := strings.Index(text[origIdx:], literal)
	if rel < 0 {
		return 0, 0, false
	}
	start := origIdx + rel
	return start, start + len(literal), true
}

// extractNote pulls the payload between the note delimiter pair. Everything
// between the delimiters is trimmed and must parse as JSON; the span covers
// both delimiters so redaction removes the whole block.
func extractNote(text string) (Command, bool) {
	startIdx := strings.Index(text, NoteStart)
	if startIdx < 0 {
		return Command{}, false
	}
	rel := strings.Index(text[startIdx+len(NoteStart):], NoteEnd)
	if rel < 0 {
		logging.Extraction("note start delimiter without end delimiter, command dropped")
		return Command{}, false
	}
	endIdx := startIdx + len(NoteStart) + rel + len(NoteEnd)

	inner := strings.TrimSpace(text[startIdx+len(NoteStart) : endIdx-len(NoteEnd)])
	inner = strings.TrimSpace(stripCodeFences(inner))
	if !json.Valid([]byte(inner)) {
		logging.Extraction("note payload is not valid JSON, command dropped")
		return Command{}, false
	}

	return Command{
		Kind:    KindCreateNote,
		Payload: json.RawMessage(inner),
		Span:    Span{Start: startIdx, End: endIdx},
	}, true
}
