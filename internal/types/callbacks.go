package types

// Callbacks is the mutation surface the host application supplies. The core
// decides which entity a command denotes and what change to request, then
// hands the result to exactly one of these functions. Nil callbacks are
// treated as no-ops so hosts can wire only the entity kinds they support.
type Callbacks struct {
	OnTaskCreate          func(Task)
	OnTaskUpdate          func(Task)
	OnTaskDelete          func(id string)
	OnTaskDeleteAll       func()
	OnTaskDeleteCompleted func()

	OnEventCreate func(Event)
	OnEventUpdate func(Event)
	OnEventDelete func(id string)

	OnGoalCreate func(Goal)
	OnGoalUpdate func(Goal)
	OnGoalDelete func(id string)

	OnNoteCreate func(Note)
}
