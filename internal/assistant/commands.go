package assistant

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"dayflow/internal/articulation"
	"dayflow/internal/logging"
	"dayflow/internal/resolve"
	"dayflow/internal/types"
)

const defaultColor = "#6366f1"

// Reference payload shapes. Update carries the fields to overlay on the
// matched entity; delete carries only the reference.
type taskRef struct {
	TaskTitle string          `json:"taskTitle"`
	Updates   json.RawMessage `json:"updates"`
}

type eventRef struct {
	EventTitle string          `json:"eventTitle"`
	Updates    json.RawMessage `json:"updates"`
}

type goalRef struct {
	GoalTitle string          `json:"goalTitle"`
	Updates   json.RawMessage `json:"updates"`
}

type confirmPayload struct {
	Confirm bool `json:"confirm"`
}

type notePayload struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// apply executes one extracted command against the snapshot. Parse and
// resolution failures drop the command: the conversational reply proceeds
// and nothing mutates.
func (a *Assistant) apply(cmd articulation.Command, snap types.Snapshot, result *Result) {
	switch cmd.Kind {
	case articulation.KindCreateTasks:
		a.createTasks(cmd, result)
	case articulation.KindUpdateTask:
		a.updateTask(cmd, snap, result)
	case articulation.KindDeleteTask:
		a.deleteTask(cmd, snap, result)
	case articulation.KindDeleteAllTasks:
		a.gatedBulk(cmd, a.callbacks.OnTaskDeleteAll, result)
	case articulation.KindDeleteCompletedTasks:
		a.gatedBulk(cmd, a.callbacks.OnTaskDeleteCompleted, result)
	case articulation.KindCreateEvents:
		a.createEvents(cmd, result)
	case articulation.KindUpdateEvent:
		a.updateEvent(cmd, snap, result)
	case articulation.KindDeleteEvent:
		a.deleteEvent(cmd, snap, result)
	case articulation.KindCreateGoals:
		a.createGoals(cmd, result)
	case articulation.KindUpdateGoal:
		a.updateGoal(cmd, snap, result)
	case articulation.KindDeleteGoal:
		a.deleteGoal(cmd, snap, result)
	case articulation.KindCreateNote:
		a.createNote(cmd, result)
	}
}

// flexibleSubtask accepts either a bare string or a full subtask object,
// since the model emits both.
type flexibleSubtask types.Subtask

func (s *flexibleSubtask) UnmarshalJSON(data []byte) error {
	var title string
	if err := json.Unmarshal(data, &title); err == nil {
		s.Title = title
		return nil
	}
	var full types.Subtask
	if err := json.Unmarshal(data, &full); err != nil {
		return err
	}
	*s = flexibleSubtask(full)
	return nil
}

type taskPayload struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Urgent      bool              `json:"urgent"`
	Important   bool              `json:"important"`
	Completed   bool              `json:"completed"`
	DueDate     string            `json:"dueDate"`
	DueTime     string            `json:"dueTime"`
	Color       string            `json:"color"`
	ProjectID   string            `json:"projectId"`
	Subtasks    []flexibleSubtask `json:"subtasks"`
}

// createTasks normalizes each element and invokes the create callback once
// per element, preserving array order.
func (a *Assistant) createTasks(cmd articulation.Command, result *Result) {
	var payload []taskPayload
	if err := json.Unmarshal(cmd.Payload, &payload); err != nil {
		logging.Extraction("create tasks payload rejected: %v", err)
		return
	}

	count := 0
	for _, p := range payload {
		task := normalizeTask(p)
		if a.callbacks.OnTaskCreate != nil {
			a.callbacks.OnTaskCreate(task)
		}
		count++
	}
	result.Applied = append(result.Applied, Applied{Kind: cmd.Kind, Count: count})
}

func normalizeTask(p taskPayload) types.Task {
	task := types.Task{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Urgent:      p.Urgent,
		Important:   p.Important,
		Completed:   p.Completed,
		DueDate:     p.DueDate,
		DueTime:     p.DueTime,
		Color:       p.Color,
		ProjectID:   p.ProjectID,
		CreatedAt:   time.Now(),
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Color == "" {
		task.Color = defaultColor
	}
	for _, st := range p.Subtasks {
		sub := types.Subtask(st)
		if sub.ID == "" {
			sub.ID = uuid.NewString()
		}
		sub.Completed = false
		task.Subtasks = append(task.Subtasks, sub)
	}
	return task
}

func (a *Assistant) updateTask(cmd articulation.Command, snap types.Snapshot, result *Result) {
	var ref taskRef
	if err := json.Unmarshal(cmd.Payload, &ref); err != nil || len(ref.Updates) == 0 {
		logging.Extraction("task update payload rejected: %v", err)
		return
	}

	res := resolve.Resolve(ref.TaskTitle, snap.Tasks, func(t types.Task) string { return t.Title })
	switch res.Outcome {
	case resolve.OutcomeResolved:
		merged, err := resolve.MergeJSON(res.Entity, ref.Updates)
		if err != nil {
			logging.Resolution("task update merge failed: %v", err)
			return
		}
		if a.callbacks.OnTaskUpdate != nil {
			a.callbacks.OnTaskUpdate(merged)
		}
		result.Applied = append(result.Applied, Applied{Kind: cmd.Kind, Count: 1})
	case resolve.OutcomeAmbiguous:
		result.Ambiguities = append(result.Ambiguities, Ambiguity{Kind: cmd.Kind, Reference: ref.TaskTitle, Candidates: res.Candidates})
	}
}

func (a *Assistant) deleteTask(cmd articulation.Command, snap types.Snapshot, result *Result) {
	var ref taskRef
	if err := json.Unmarshal(cmd.Payload, &ref); err != nil {
		logging.Extraction("task delete payload rejected: %v", err)
		return
	}

	res := resolve.Resolve(ref.TaskTitle, snap.Tasks, func(t types.Task) string { return t.Title })
	switch res.Outcome {
	case resolve.OutcomeResolved:
		if a.callbacks.OnTaskDelete != nil {
			a.callbacks.OnTaskDelete(res.Entity.ID)
		}
		result.Applied = append(result.Applied, Applied{Kind: cmd.Kind, Count: 1})
	case resolve.OutcomeAmbiguous:
		result.Ambiguities = append(result.Ambiguities, Ambiguity{Kind: cmd.Kind, Reference: ref.TaskTitle, Candidates: res.Candidates})
	}
}

// gatedBulk executes a destructive bulk command only when the payload
// carries confirm: true. A bare marker with {} is ignored outright; the
// model emitting it speculatively must not wipe anything.
func (a *Assistant) gatedBulk(cmd articulation.Command, callback func(), result *Result) {
	var gate confirmPayload
	if err := json.Unmarshal(cmd.Payload, &gate); err != nil {
		logging.Extraction("bulk command payload rejected: %v", err)
		return
	}
	if !gate.Confirm {
		logging.Extraction("bulk command %s missing confirm, ignored", cmd.Kind)
		return
	}
	if callback != nil {
		callback()
	}
	result.Applied = append(result.Applied, Applied{Kind: cmd.Kind, Count: 1})
}

func (a *Assistant) createEvents(cmd articulation.Command, result *Result) {
	var payload []types.Event
	if err := json.Unmarshal(cmd.Payload, &payload); err != nil {
		logging.Extraction("create events payload rejected: %v", err)
		return
	}

	count := 0
	for _, ev := range payload {
		if ev.ID == "" {
			ev.ID = uuid.NewString()
		}
		if ev.Color == "" {
			ev.Color = defaultColor
		}
		if ev.Recurrence == "" {
			ev.Recurrence = "none"
		}
		ev.CreatedAt = time.Now()
		if a.callbacks.OnEventCreate != nil {
			a.callbacks.OnEventCreate(ev)
		}
		count++
	}
	result.Applied = append(result.Applied, Applied{Kind: cmd.Kind, Count: count})
}

func (a *Assistant) updateEvent(cmd articulation.Command, snap types.Snapshot, result *Result) {
	var ref eventRef
	if err := json.Unmarshal(cmd.Payload, &ref); err != nil || len(ref.Updates) == 0 {
		logging.Extraction("event update payload rejected: %v", err)
		return
	}

	res := resolve.Resolve(ref.EventTitle, snap.Events, func(e types.Event) string { return e.Title })
	switch res.Outcome {
	case resolve.OutcomeResolved:
		merged, err := resolve.MergeJSON(res.Entity, ref.Updates)
		if err != nil {
			logging.Resolution("event update merge failed: %v", err)
			return
		}
		if a.callbacks.OnEventUpdate != nil {
			a.callbacks.OnEventUpdate(merged)
		}
		result.Applied = append(result.Applied, Applied{Kind: cmd.Kind, Count: 1})
	case resolve.OutcomeAmbiguous:
		result.Ambiguities = append(result.Ambiguities, Ambiguity{Kind: cmd.Kind, Reference: ref.EventTitle, Candidates: res.Candidates})
	}
}

func (a *Assistant) deleteEvent(cmd articulation.Command, snap types.Snapshot, result *Result) {
	var ref eventRef
	if err := json.Unmarshal(cmd.Payload, &ref); err != nil {
		logging.Extraction("event delete payload rejected: %v", err)
		return
	}

	res := resolve.Resolve(ref.EventTitle, snap.Events, func(e types.Event) string { return e.Title })
	switch res.Outcome {
	case resolve.OutcomeResolved:
		if a.callbacks.OnEventDelete != nil {
			a.callbacks.OnEventDelete(res.Entity.ID)
		}
		result.Applied = append(result.Applied, Applied{Kind: cmd.Kind, Count: 1})
	case resolve.OutcomeAmbiguous:
		result.Ambiguities = append(result.Ambiguities, Ambiguity{Kind: cmd.Kind, Reference: ref.EventTitle, Candidates: res.Candidates})
	}
}

func (a *Assistant) createGoals(cmd articulation.Command, result *Result) {
	var payload []types.Goal
	if err := json.Unmarshal(cmd.Payload, &payload); err != nil {
		logging.Extraction("create goals payload rejected: %v", err)
		return
	}

	count := 0
	for _, g := range payload {
		if g.ID == "" {
			g.ID = uuid.NewString()
		}
		if g.Color == "" {
			g.Color = defaultColor
		}
		if g.Status == "" {
			g.Status = "active"
		}
		g.CreatedAt = time.Now()
		if a.callbacks.OnGoalCreate != nil {
			a.callbacks.OnGoalCreate(g)
		}
		count++
	}
	result.Applied = append(result.Applied, Applied{Kind: cmd.Kind, Count: count})
}

func (a *Assistant) updateGoal(cmd articulation.Command, snap types.Snapshot, result *Result) {
	var ref goalRef
	if err := json.Unmarshal(cmd.Payload, &ref); err != nil || len(ref.Updates) == 0 {
		logging.Extraction("goal update payload rejected: %v", err)
		return
	}

	res := resolve.Resolve(ref.GoalTitle, snap.Goals, func(g types.Goal) string { return g.Title })
	switch res.Outcome {
	case resolve.OutcomeResolved:
		merged, err := resolve.MergeJSON(res.Entity, ref.Updates)
		if err != nil {
			logging.Resolution("goal update merge failed: %v", err)
			return
		}
		if a.callbacks.OnGoalUpdate != nil {
			a.callbacks.OnGoalUpdate(merged)
		}
		result.Applied = append(result.Applied, Applied{Kind: cmd.Kind, Count: 1})
	case resolve.OutcomeAmbiguous:
		result.Ambiguities = append(result.Ambiguities, Ambiguity{Kind: cmd.Kind, Reference: ref.GoalTitle, Candidates: res.Candidates})
	}
}

func (a *Assistant) deleteGoal(cmd articulation.Command, snap types.Snapshot, result *Result) {
	var ref goalRef
	if err := json.Unmarshal(cmd.Payload, &ref); err != nil {
		logging.Extraction("goal delete payload rejected: %v", err)
		return
	}

	res := resolve.Resolve(ref.GoalTitle, snap.Goals, func(g types.Goal) string { return g.Title })
	switch res.Outcome {
	case resolve.OutcomeResolved:
		if a.callbacks.OnGoalDelete != nil {
			a.callbacks.OnGoalDelete(res.Entity.ID)
		}
		result.Applied = append(result.Applied, Applied{Kind: cmd.Kind, Count: 1})
	case resolve.OutcomeAmbiguous:
		result.Ambiguities = append(result.Ambiguities, Ambiguity{Kind: cmd.Kind, Reference: ref.GoalTitle, Candidates: res.Candidates})
	}
}

func (a *Assistant) createNote(cmd articulation.Command, result *Result) {
	var payload notePayload
	if err := json.Unmarshal(cmd.Payload, &payload); err != nil {
		logging.Extraction("note payload rejected: %v", err)
		return
	}
	if payload.Title == "" {
		payload.Title = "Untitled"
	}

	note := types.Note{
		ID:        uuid.NewString(),
		Title:     payload.Title,
		Content:   payload.Content,
		CreatedAt: time.Now(),
	}
	if a.callbacks.OnNoteCreate != nil {
		a.callbacks.OnNoteCreate(note)
	}
	result.Applied = append(result.Applied, Applied{Kind: cmd.Kind, Count: 1})
}
