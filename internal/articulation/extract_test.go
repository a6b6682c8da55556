package articulation

import (
	"encoding/json"
	"strings"
	"testing"
)

func findKind(cmds []Command, kind Kind) (Command, bool) {
	for _, c := range cmds {
		if c.Kind == kind {
			return c, true
		}
	}
	return Command{}, false
}

func TestExtractAllSingleMarker(t *testing.T) {
	text := `Done! TASKS_JSON: [{"title":"X"}]`

	cmds := ExtractAll(text)
	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1", len(cmds))
	}
	cmd := cmds[0]
	if cmd.Kind != KindCreateTasks {
		t.Errorf("kind = %s, want %s", cmd.Kind, KindCreateTasks)
	}
	if string(cmd.Payload) != `[{"title":"X"}]` {
		t.Errorf("payload = %s", cmd.Payload)
	}
	if got := text[cmd.Span.Start:cmd.Span.End]; got != `TASKS_JSON: [{"title":"X"}]` {
		t.Errorf("span covers %q", got)
	}
}

func TestExtractAllNestedAndEscaped(t *testing.T) {
	text := `Sure. TASK_UPDATE_JSON: {"taskTitle": "report", "updates": {"title": "Say \"hi\" {now}"}}`

	cmds := ExtractAll(text)
	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1", len(cmds))
	}

	var payload struct {
		TaskTitle string          `json:"taskTitle"`
		Updates   json.RawMessage `json:"updates"`
	}
	if err := json.Unmarshal(cmds[0].Payload, &payload); err != nil {
		t.Fatalf("payload does not parse: %v", err)
	}
	if payload.TaskTitle != "report" {
		t.Errorf("taskTitle = %q", payload.TaskTitle)
	}
	if !strings.Contains(string(payload.Updates), `{now}`) {
		t.Errorf("updates truncated: %s", payload.Updates)
	}
}

func TestExtractAllMultipleMarkerTypes(t *testing.T) {
	text := "Here you go.\n" +
		`TASKS_JSON: [{"title":"buy milk"}]` + "\n" +
		`EVENTS_JSON: [{"title":"standup","startTime":"2026-09-01T09:00"}]` + "\n" +
		`GOAL_UPDATE_JSON: {"goalTitle":"run", "updates":{"status":"done"}}`

	cmds := ExtractAll(text)
	if len(cmds) != 3 {
		t.Fatalf("got %d commands, want 3", len(cmds))
	}
	for _, kind := range []Kind{KindCreateTasks, KindCreateEvents, KindUpdateGoal} {
		if _, ok := findKind(cmds, kind); !ok {
			t.Errorf("missing command kind %s", kind)
		}
	}
	// Results ordered by span start.
	for i := 1; i < len(cmds); i++ {
		if cmds[i].Span.Start < cmds[i-1].Span.Start {
			t.Errorf("commands not ordered by span start")
		}
	}
}

func TestExtractAllFirstOccurrenceWins(t *testing.T) {
	text := `TASK_DELETE_JSON: {"taskTitle":"first"} and again TASK_DELETE_JSON: {"taskTitle":"second"}`

	cmds := ExtractAll(text)
	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1", len(cmds))
	}
	if !strings.Contains(string(cmds[0].Payload), "first") {
		t.Errorf("expected first occurrence, got %s", cmds[0].Payload)
	}
}

func TestExtractAllMalformedPayloadDropped(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"unterminated", `TASKS_JSON: [{"title":"x"`},
		{"invalid_json", `TASK_UPDATE_JSON: {taskTitle: report}`},
		{"marker_without_payload", `TASKS_JSON: and that is all`},
		{"marker_only", `EVENTS_JSON:`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if cmds := ExtractAll(tt.text); len(cmds) != 0 {
				t.Errorf("got %d commands, want 0", len(cmds))
			}
		})
	}
}

func TestExtractAllFencedPayload(t *testing.T) {
	text := "Created.\nTASKS_JSON:\n```json\n[{\"title\":\"wrapped\"}]\n```\nEnjoy."

	cmds := ExtractAll(text)
	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1", len(cmds))
	}
	if string(cmds[0].Payload) != `[{"title":"wrapped"}]` {
		t.Errorf("payload = %s", cmds[0].Payload)
	}
	// The span must reference the original text, not the stripped copy.
	if got := text[cmds[0].Span.Start:cmds[0].Span.End]; !strings.HasSuffix(got, `[{"title":"wrapped"}]`) {
		t.Errorf("span covers %q", got)
	}
}

func TestExtractNote(t *testing.T) {
	text := "Saved your note.\n<<<NOTE_START>>>\n{\"title\": \"Ideas\", \"content\": \"Use {braces} and [brackets] freely\"}\n<<<NOTE_END>>>"

	cmds := ExtractAll(text)
	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1", len(cmds))
	}
	cmd := cmds[0]
	if cmd.Kind != KindCreateNote {
		t.Fatalf("kind = %s", cmd.Kind)
	}

	var note struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(cmd.Payload, &note); err != nil {
		t.Fatalf("note payload does not parse: %v", err)
	}
	if note.Title != "Ideas" || !strings.Contains(note.Content, "{braces}") {
		t.Errorf("note = %+v", note)
	}
	if got := text[cmd.Span.Start:cmd.Span.End]; !strings.HasPrefix(got, NoteStart) || !strings.HasSuffix(got, NoteEnd) {
		t.Errorf("span covers %q", got)
	}
}

func TestExtractNoteMissingEndDelimiter(t *testing.T) {
	text := `<<<NOTE_START>>> {"title": "dangling"}`
	if cmds := ExtractAll(text); len(cmds) != 0 {
		t.Errorf("got %d commands, want 0", len(cmds))
	}
}

func TestExtractDeleteAllVariantsDistinct(t *testing.T) {
	text := `TASK_DELETE_ALL_JSON: {"confirm": true}`

	cmds := ExtractAll(text)
	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1", len(cmds))
	}
	if cmds[0].Kind != KindDeleteAllTasks {
		t.Errorf("kind = %s, want %s", cmds[0].Kind, KindDeleteAllTasks)
	}
}
