// Package prompt assembles the system instruction for the assistant: who it
// is, today's date, which dashboard page the user is on, the command grammar,
// and a snapshot of the user's current data. Sections are concatenated in a
// fixed order, identity first and dynamic data last.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"dayflow/internal/types"
)

const identity = `You are Day, the assistant built into the dayflow productivity dashboard.
You help the user manage tasks, calendar events, notes, goals, and projects.
Be concise and warm. Answer questions about the user's data from the snapshot
below; request changes only through the command markers.`

// pageGuidance gives the model context about the screen the user is on.
var pageGuidance = map[string]string{
	"dashboard": "The user is on the dashboard overview showing today's tasks and events.",
	"tasks":     "The user is on the tasks page. Prefer task operations when the request is ambiguous.",
	"calendar":  "The user is on the calendar page. Prefer event operations when the request is ambiguous.",
	"notes":     "The user is on the notes page.",
	"goals":     "The user is on the goals page.",
	"projects":  "The user is on the projects page. Projects are read-only for you.",
}

// Builder assembles system instructions. Now is injectable for tests.
type Builder struct {
	Page string
	Now  func() time.Time
}

// NewBuilder returns a Builder for the given dashboard page.
func NewBuilder(page string) *Builder {
	return &Builder{Page: page, Now: time.Now}
}

// Build produces the full system instruction for one turn against the given
// entity snapshot.
func (b *Builder) Build(snap types.Snapshot) string {
	sections := []string{
		identity,
		b.contextSection(),
		commandGrammar,
		snapshotSection(snap),
	}
	return strings.Join(sections, "\n\n")
}

func (b *Builder) contextSection() string {
	now := b.Now()
	var sb strings.Builder
	fmt.Fprintf(&sb, "## CONTEXT\n\nToday is %s.", now.Format("Monday, January 2, 2006"))
	if g, ok := pageGuidance[b.Page]; ok {
		sb.WriteString(" ")
		sb.WriteString(g)
	}
	return sb.String()
}

// snapshotSection serializes the user's current entities. JSON keeps the
// field names aligned with the payload shapes the grammar asks for.
func snapshotSection(snap types.Snapshot) string {
	var sb strings.Builder
	sb.WriteString("## USER DATA\n")

	writeGroup(&sb, "Tasks", snap.Tasks)
	writeGroup(&sb, "Events", snap.Events)
	writeGroup(&sb, "Notes", snap.Notes)
	writeGroup(&sb, "Goals", snap.Goals)
	writeGroup(&sb, "Projects", snap.Projects)

	return strings.TrimRight(sb.String(), "\n")
}

func writeGroup[E any](sb *strings.Builder, name string, items []E) {
	fmt.Fprintf(sb, "\n### %s (%d)\n", name, len(items))
	if len(items) == 0 {
		sb.WriteString("none\n")
		return
	}
	data, err := json.Marshal(items)
	if err != nil {
		sb.WriteString("unavailable\n")
		return
	}
	sb.Write(data)
	sb.WriteString("\n")
}
