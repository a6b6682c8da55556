package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dayflow/internal/perception"
	"dayflow/internal/prompt"
	"dayflow/internal/store"
	"dayflow/internal/types"
)

// recorder captures every callback invocation for assertions.
type recorder struct {
	createdTasks   []types.Task
	updatedTasks   []types.Task
	deletedTasks   []string
	deleteAll      int
	deleteComplete int

	createdEvents []types.Event
	updatedEvents []types.Event
	deletedEvents []string

	createdGoals []types.Goal
	updatedGoals []types.Goal
	deletedGoals []string

	createdNotes []types.Note
}

func (r *recorder) callbacks() types.Callbacks {
	return types.Callbacks{
		OnTaskCreate:          func(t types.Task) { r.createdTasks = append(r.createdTasks, t) },
		OnTaskUpdate:          func(t types.Task) { r.updatedTasks = append(r.updatedTasks, t) },
		OnTaskDelete:          func(id string) { r.deletedTasks = append(r.deletedTasks, id) },
		OnTaskDeleteAll:       func() { r.deleteAll++ },
		OnTaskDeleteCompleted: func() { r.deleteComplete++ },
		OnEventCreate:         func(e types.Event) { r.createdEvents = append(r.createdEvents, e) },
		OnEventUpdate:         func(e types.Event) { r.updatedEvents = append(r.updatedEvents, e) },
		OnEventDelete:         func(id string) { r.deletedEvents = append(r.deletedEvents, id) },
		OnGoalCreate:          func(g types.Goal) { r.createdGoals = append(r.createdGoals, g) },
		OnGoalUpdate:          func(g types.Goal) { r.updatedGoals = append(r.updatedGoals, g) },
		OnGoalDelete:          func(id string) { r.deletedGoals = append(r.deletedGoals, id) },
		OnNoteCreate:          func(n types.Note) { r.createdNotes = append(r.createdNotes, n) },
	}
}

func newTestAssistant(t *testing.T, gateway perception.Client) (*Assistant, *recorder) {
	t.Helper()
	rec := &recorder{}
	h := store.NewHistory(store.NewMemoryKV(), "chat")
	a := New(gateway, h, prompt.NewBuilder("dashboard"), rec.callbacks())
	a.Load(context.Background())
	return a, rec
}

func TestCreateTasksOneCallbackPerElementInOrder(t *testing.T) {
	a, rec := newTestAssistant(t, &perception.MockClient{})

	raw := `Added! TASKS_JSON: [{"title":"first"},{"title":"second"},{"title":"third"}]`
	result := a.HandleIncomingResponse(raw, types.Snapshot{})

	require.Len(t, rec.createdTasks, 3)
	assert.Equal(t, "first", rec.createdTasks[0].Title)
	assert.Equal(t, "second", rec.createdTasks[1].Title)
	assert.Equal(t, "third", rec.createdTasks[2].Title)
	assert.Equal(t, 3, result.SideEffects())
	assert.Equal(t, "Added!", result.DisplayText)
}

func TestCreateTaskNormalization(t *testing.T) {
	a, rec := newTestAssistant(t, &perception.MockClient{})

	raw := `TASKS_JSON: [{"title":"pack bags","subtasks":["passport","tickets"]}] Done.`
	a.HandleIncomingResponse(raw, types.Snapshot{})

	require.Len(t, rec.createdTasks, 1)
	task := rec.createdTasks[0]
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, defaultColor, task.Color)
	require.Len(t, task.Subtasks, 2)
	for _, st := range task.Subtasks {
		assert.NotEmpty(t, st.ID)
		assert.False(t, st.Completed)
	}
	assert.Equal(t, "passport", task.Subtasks[0].Title)
}

func TestUpdateTaskScenario(t *testing.T) {
	a, rec := newTestAssistant(t, &perception.MockClient{})

	raw := `Sure! TASK_UPDATE_JSON: {"taskTitle": "review", "updates": {"completed": true}}`
	snap := types.Snapshot{Tasks: []types.Task{{ID: "1", Title: "Review PR", Completed: false}}}

	result := a.HandleIncomingResponse(raw, snap)

	require.Len(t, rec.updatedTasks, 1)
	assert.Equal(t, "1", rec.updatedTasks[0].ID)
	assert.Equal(t, "Review PR", rec.updatedTasks[0].Title)
	assert.True(t, rec.updatedTasks[0].Completed)
	assert.Equal(t, "Sure!", result.DisplayText)
}

func TestDeleteTaskNoMatchIsSilent(t *testing.T) {
	a, rec := newTestAssistant(t, &perception.MockClient{})

	raw := `Removed it. TASK_DELETE_JSON: {"taskTitle": "does not exist"}`
	snap := types.Snapshot{Tasks: []types.Task{{ID: "1", Title: "Water plants"}}}

	result := a.HandleIncomingResponse(raw, snap)

	assert.Empty(t, rec.deletedTasks)
	assert.Equal(t, 0, result.SideEffects())
	// Extraction succeeded, so the command is still redacted.
	assert.Equal(t, "Removed it.", result.DisplayText)
}

func TestDeleteAllRequiresConfirm(t *testing.T) {
	a, rec := newTestAssistant(t, &perception.MockClient{})

	a.HandleIncomingResponse(`TASK_DELETE_ALL_JSON: {}`, types.Snapshot{})
	assert.Equal(t, 0, rec.deleteAll, "missing confirm must be a no-op")

	a.HandleIncomingResponse(`TASK_DELETE_ALL_JSON: {"confirm": true}`, types.Snapshot{})
	assert.Equal(t, 1, rec.deleteAll)

	a.HandleIncomingResponse(`TASK_DELETE_COMPLETED_JSON: {"confirm": false}`, types.Snapshot{})
	assert.Equal(t, 0, rec.deleteComplete)
}

func TestAmbiguousReferenceSkipsMutationAndAsks(t *testing.T) {
	a, rec := newTestAssistant(t, &perception.MockClient{})

	raw := `On it. TASK_UPDATE_JSON: {"taskTitle": "review", "updates": {"completed": true}}`
	snap := types.Snapshot{Tasks: []types.Task{
		{ID: "1", Title: "Review PR 101"},
		{ID: "2", Title: "Write review summary"},
	}}

	result := a.HandleIncomingResponse(raw, snap)

	assert.Empty(t, rec.updatedTasks)
	require.Len(t, result.Ambiguities, 1)
	assert.Contains(t, result.DisplayText, "Which one did you mean?")
	assert.Contains(t, result.DisplayText, "Review PR 101")
}

func TestEventAndGoalCommands(t *testing.T) {
	a, rec := newTestAssistant(t, &perception.MockClient{})

	raw := "Scheduled.\n" +
		`EVENTS_JSON: [{"title":"dentist","startTime":"2026-09-02T10:00"}]` + "\n" +
		`GOAL_UPDATE_JSON: {"goalTitle":"10k", "updates":{"status":"done"}}` + "\n" +
		`EVENT_DELETE_JSON: {"eventTitle":"standup"}`
	snap := types.Snapshot{
		Events: []types.Event{{ID: "e1", Title: "Daily standup"}},
		Goals:  []types.Goal{{ID: "g1", Title: "Run a 10k", Status: "active"}},
	}

	result := a.HandleIncomingResponse(raw, snap)

	require.Len(t, rec.createdEvents, 1)
	assert.Equal(t, "none", rec.createdEvents[0].Recurrence)
	require.Len(t, rec.updatedGoals, 1)
	assert.Equal(t, "done", rec.updatedGoals[0].Status)
	assert.Equal(t, []string{"e1"}, rec.deletedEvents)
	assert.Equal(t, 3, result.SideEffects())
	assert.NotContains(t, result.DisplayText, "_JSON")
}

func TestCreateNote(t *testing.T) {
	a, rec := newTestAssistant(t, &perception.MockClient{})

	raw := "Saved.\n<<<NOTE_START>>>\n{\"title\": \"Trip\", \"content\": \"Pack {light}\"}\n<<<NOTE_END>>>"
	result := a.HandleIncomingResponse(raw, types.Snapshot{})

	require.Len(t, rec.createdNotes, 1)
	assert.Equal(t, "Trip", rec.createdNotes[0].Title)
	assert.Equal(t, "Pack {light}", rec.createdNotes[0].Content)
	assert.NotEmpty(t, rec.createdNotes[0].ID)
	assert.Equal(t, "Saved.", result.DisplayText)
}

func TestMalformedPayloadShowsUnredactedResponse(t *testing.T) {
	a, rec := newTestAssistant(t, &perception.MockClient{})

	raw := `I tried. TASKS_JSON: [{"title": "broken"`
	result := a.HandleIncomingResponse(raw, types.Snapshot{})

	assert.Empty(t, rec.createdTasks)
	// Nothing was extracted, so nothing is redacted for that marker.
	assert.Contains(t, result.DisplayText, "TASKS_JSON")
}

func TestSendPersistsSanitizedTranscript(t *testing.T) {
	gateway := &perception.MockClient{Responses: []string{
		`Done! TASKS_JSON: [{"title":"X"}]`,
	}}
	rec := &recorder{}
	kv := store.NewMemoryKV()
	h := store.NewHistory(kv, "chat")
	a := New(gateway, h, prompt.NewBuilder("tasks"), rec.callbacks())
	a.Load(context.Background())

	reply, err := a.Send(context.Background(), "add task X", types.Snapshot{})
	require.NoError(t, err)
	assert.Equal(t, "Done!", reply.Content)
	require.Len(t, rec.createdTasks, 1)

	// The persisted transcript holds the sanitized text, never the payload.
	persisted := store.NewHistory(kv, "chat").Load(context.Background())
	require.Len(t, persisted, 2)
	assert.Equal(t, types.RoleUser, persisted[0].Role)
	assert.Equal(t, "Done!", persisted[1].Content)
	assert.NotContains(t, persisted[1].Content, "TASKS_JSON")
}

func TestSendPassesHistoryAndSnapshotPrompt(t *testing.T) {
	gateway := &perception.MockClient{Responses: []string{"First.", "Second."}}
	a, _ := newTestAssistant(t, gateway)
	snap := types.Snapshot{Tasks: []types.Task{{ID: "1", Title: "Review PR"}}}

	_, err := a.Send(context.Background(), "hello", snap)
	require.NoError(t, err)
	_, err = a.Send(context.Background(), "again", snap)
	require.NoError(t, err)

	require.Len(t, gateway.Calls, 2)
	assert.Empty(t, gateway.Calls[0].History)
	require.Len(t, gateway.Calls[1].History, 2)
	assert.Equal(t, "hello", gateway.Calls[1].History[0].Content)
	assert.Contains(t, gateway.Calls[0].System, `"Review PR"`)
	assert.Contains(t, gateway.Calls[0].System, "TASKS_JSON:")
}

func TestSendUpstreamFailureApology(t *testing.T) {
	gateway := &perception.MockClient{Err: errors.New("boom")}
	a, _ := newTestAssistant(t, gateway)

	reply, err := a.Send(context.Background(), "hi", types.Snapshot{})
	require.NoError(t, err)
	assert.Equal(t, apologyGeneric, reply.Content)
}

func TestSendCredentialFailureSpecificApology(t *testing.T) {
	gateway := &perception.MockClient{Err: perception.ErrMissingCredentials}
	a, _ := newTestAssistant(t, gateway)

	reply, err := a.Send(context.Background(), "hi", types.Snapshot{})
	require.NoError(t, err)
	assert.Equal(t, apologyCredential, reply.Content)
	assert.True(t, strings.Contains(reply.Content, "API key"))
}

func TestClearHistory(t *testing.T) {
	a, _ := newTestAssistant(t, &perception.MockClient{})

	_, err := a.Send(context.Background(), "hi", types.Snapshot{})
	require.NoError(t, err)
	require.NotEmpty(t, a.Messages())

	require.NoError(t, a.ClearHistory(context.Background()))
	assert.Empty(t, a.Messages())
}
