package store

import (
	"context"
	"encoding/json"
	"fmt"

	"dayflow/internal/logging"
	"dayflow/internal/types"
)

// History round-trips the chat transcript through a KV store as one
// JSON-serialized array under a fixed key. A missing or corrupt stored value
// is not an error: the conversation simply starts empty.
type History struct {
	kv  KV
	key string
}

// NewHistory binds history persistence to a KV backend and key.
func NewHistory(kv KV, key string) *History {
	return &History{kv: kv, key: key}
}

// Load returns the persisted transcript, or an empty one when the stored
// value is missing or does not parse.
func (h *History) Load(ctx context.Context) []types.ChatMessage {
	data, ok, err := h.kv.Get(ctx, h.key)
	if err != nil {
		logging.Store("history load failed, starting empty: %v", err)
		return nil
	}
	if !ok {
		return nil
	}

	var msgs []types.ChatMessage
	if err := json.Unmarshal(data, &msgs); err != nil {
		logging.Store("history value corrupt, starting empty: %v", err)
		return nil
	}
	return msgs
}

// Save persists the whole transcript. Called on every change.
func (h *History) Save(ctx context.Context, msgs []types.ChatMessage) error {
	data, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("failed to serialize history: %w", err)
	}
	if err := h.kv.Set(ctx, h.key, data); err != nil {
		return fmt.Errorf("failed to persist history: %w", err)
	}
	logging.StoreDebug("history saved: %d messages", len(msgs))
	return nil
}

// Clear drops the persisted transcript.
func (h *History) Clear(ctx context.Context) error {
	return h.kv.Delete(ctx, h.key)
}
