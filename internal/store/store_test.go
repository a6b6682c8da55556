package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dayflow/internal/types"
)

func openTestKVs(t *testing.T) map[string]KV {
	t.Helper()

	sqlitePath := filepath.Join(t.TempDir(), "test.db")
	sq, err := NewSQLiteKV(sqlitePath)
	require.NoError(t, err)
	t.Cleanup(func() { sq.Close() })

	return map[string]KV{
		"sqlite": sq,
		"memory": NewMemoryKV(),
	}
}

func TestKVRoundTrip(t *testing.T) {
	ctx := context.Background()

	for name, kv := range openTestKVs(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := kv.Get(ctx, "absent")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, kv.Set(ctx, "k", []byte("v1")))
			got, ok, err := kv.Get(ctx, "k")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, []byte("v1"), got)

			// Upsert overwrites.
			require.NoError(t, kv.Set(ctx, "k", []byte("v2")))
			got, _, err = kv.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, []byte("v2"), got)

			require.NoError(t, kv.Delete(ctx, "k"))
			_, ok, err = kv.Get(ctx, "k")
			require.NoError(t, err)
			assert.False(t, ok)

			// Deleting a missing key is fine.
			require.NoError(t, kv.Delete(ctx, "k"))
		})
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	h := NewHistory(NewMemoryKV(), "chat")

	ts := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	msgs := []types.ChatMessage{
		{Role: types.RoleUser, Content: "add a task", Timestamp: ts},
		{Role: types.RoleAssistant, Content: "Done!", Timestamp: ts.Add(time.Second)},
	}

	require.NoError(t, h.Save(ctx, msgs))
	loaded := h.Load(ctx)
	if diff := cmp.Diff(msgs, loaded); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestHistoryMissingValueStartsEmpty(t *testing.T) {
	h := NewHistory(NewMemoryKV(), "chat")
	assert.Empty(t, h.Load(context.Background()))
}

func TestHistoryCorruptValueStartsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(ctx, "chat", []byte("{not json")))

	h := NewHistory(kv, "chat")
	assert.Empty(t, h.Load(ctx))
}

func TestHistoryClear(t *testing.T) {
	ctx := context.Background()
	h := NewHistory(NewMemoryKV(), "chat")

	require.NoError(t, h.Save(ctx, []types.ChatMessage{{Role: types.RoleUser, Content: "hi"}}))
	require.NoError(t, h.Clear(ctx))
	assert.Empty(t, h.Load(ctx))
}

func TestSQLiteKVPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "persist.db")

	kv, err := NewSQLiteKV(path)
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, "k", []byte("survives")))
	require.NoError(t, kv.Close())

	kv, err = NewSQLiteKV(path)
	require.NoError(t, err)
	defer kv.Close()

	got, ok, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("survives"), got)
}
