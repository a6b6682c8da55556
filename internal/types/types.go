// Package types defines the shared domain entities for dayflow.
// The entity collections (tasks, events, notes, goals, projects) are owned
// by the host application; this package only defines their shapes and the
// callback surface through which the assistant core requests mutations.
package types

import "time"

// Subtask is a checklist item belonging to a Task.
type Subtask struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Task is a single todo item. Title doubles as the fuzzy-match key when the
// assistant references a task by free text.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Urgent      bool      `json:"urgent"`
	Important   bool      `json:"important"`
	Completed   bool      `json:"completed"`
	DueDate     string    `json:"dueDate,omitempty"` // YYYY-MM-DD
	DueTime     string    `json:"dueTime,omitempty"` // HH:MM
	Color       string    `json:"color,omitempty"`
	ProjectID   string    `json:"projectId,omitempty"`
	Subtasks    []Subtask `json:"subtasks,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// Event is a calendar entry.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	StartTime   string    `json:"startTime,omitempty"` // RFC 3339 or YYYY-MM-DDTHH:MM
	EndTime     string    `json:"endTime,omitempty"`
	Recurrence  string    `json:"recurrence,omitempty"` // none, daily, weekly, monthly
	Color       string    `json:"color,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// Note is a free-form text note.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Goal tracks a longer-horizon objective.
type Goal struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status,omitempty"` // active, paused, done
	TargetDate  string    `json:"targetDate,omitempty"`
	Color       string    `json:"color,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// Project groups tasks. Projects are read-only context for the assistant;
// there are no project mutation commands.
type Project struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// Snapshot is the host-owned entity state captured at call time. The core
// reads it to build prompts and resolve fuzzy references; it never caches or
// mutates the slices.
type Snapshot struct {
	Tasks    []Task
	Events   []Event
	Notes    []Note
	Goals    []Goal
	Projects []Project
}
