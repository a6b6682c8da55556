package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"dayflow/internal/store"
	"dayflow/internal/types"
)

const entitiesKey = "dayflow_entities"

// board is the CLI host's entity state: the tasks, events, notes, and goals
// the assistant operates on. A web host would keep this in its own database;
// here it rides the same KV store as the chat history.
type board struct {
	mu   sync.Mutex
	kv   store.KV
	snap types.Snapshot
}

func newBoard(ctx context.Context, kv store.KV) *board {
	b := &board{kv: kv}
	data, ok, err := kv.Get(ctx, entitiesKey)
	if err == nil && ok {
		// Corrupt state starts empty, same policy as chat history.
		_ = json.Unmarshal(data, &b.snap)
	}
	return b
}

// snapshot returns a copy for prompt assembly.
func (b *board) snapshot() types.Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return types.Snapshot{
		Tasks:    append([]types.Task(nil), b.snap.Tasks...),
		Events:   append([]types.Event(nil), b.snap.Events...),
		Notes:    append([]types.Note(nil), b.snap.Notes...),
		Goals:    append([]types.Goal(nil), b.snap.Goals...),
		Projects: append([]types.Project(nil), b.snap.Projects...),
	}
}

// callbacks returns the mutation hooks the assistant core drives.
func (b *board) callbacks() types.Callbacks {
	return types.Callbacks{
		OnTaskCreate: func(t types.Task) {
			b.mutate(func() { b.snap.Tasks = append(b.snap.Tasks, t) })
		},
		OnTaskUpdate: func(t types.Task) {
			b.mutate(func() {
				for i := range b.snap.Tasks {
					if b.snap.Tasks[i].ID == t.ID {
						b.snap.Tasks[i] = t
						return
					}
				}
			})
		},
		OnTaskDelete: func(id string) {
			b.mutate(func() {
				b.snap.Tasks = deleteByID(b.snap.Tasks, id, func(t types.Task) string { return t.ID })
			})
		},
		OnTaskDeleteAll: func() {
			b.mutate(func() { b.snap.Tasks = nil })
		},
		OnTaskDeleteCompleted: func() {
			b.mutate(func() {
				kept := b.snap.Tasks[:0]
				for _, t := range b.snap.Tasks {
					if !t.Completed {
						kept = append(kept, t)
					}
				}
				b.snap.Tasks = kept
			})
		},
		OnEventCreate: func(e types.Event) {
			b.mutate(func() { b.snap.Events = append(b.snap.Events, e) })
		},
		OnEventUpdate: func(e types.Event) {
			b.mutate(func() {
				for i := range b.snap.Events {
					if b.snap.Events[i].ID == e.ID {
						b.snap.Events[i] = e
						return
					}
				}
			})
		},
		OnEventDelete: func(id string) {
			b.mutate(func() {
				b.snap.Events = deleteByID(b.snap.Events, id, func(e types.Event) string { return e.ID })
			})
		},
		OnGoalCreate: func(g types.Goal) {
			b.mutate(func() { b.snap.Goals = append(b.snap.Goals, g) })
		},
		OnGoalUpdate: func(g types.Goal) {
			b.mutate(func() {
				for i := range b.snap.Goals {
					if b.snap.Goals[i].ID == g.ID {
						b.snap.Goals[i] = g
						return
					}
				}
			})
		},
		OnGoalDelete: func(id string) {
			b.mutate(func() {
				b.snap.Goals = deleteByID(b.snap.Goals, id, func(g types.Goal) string { return g.ID })
			})
		},
		OnNoteCreate: func(n types.Note) {
			b.mutate(func() { b.snap.Notes = append(b.snap.Notes, n) })
		},
	}
}

// mutate applies fn under the lock and persists the result.
func (b *board) mutate(fn func()) {
	b.mu.Lock()
	fn()
	data, err := json.Marshal(b.snap)
	b.mu.Unlock()
	if err != nil {
		return
	}
	if err := b.kv.Set(context.Background(), entitiesKey, data); err != nil && logger != nil {
		logger.Sugar().Warnw("failed to persist entities", "error", err)
	}
}

// summary renders a short one-line count of the board's contents.
func (b *board) summary() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return fmt.Sprintf("%d tasks, %d events, %d notes, %d goals",
		len(b.snap.Tasks), len(b.snap.Events), len(b.snap.Notes), len(b.snap.Goals))
}

func deleteByID[E any](items []E, id string, idOf func(E) string) []E {
	kept := items[:0]
	for _, it := range items {
		if idOf(it) != id {
			kept = append(kept, it)
		}
	}
	return kept
}
