// Package store provides the durable key-value storage the assistant
// round-trips its conversation history through. Backends are interchangeable;
// the assistant only ever sees the KV interface.
package store

import (
	"context"
	"fmt"

	"dayflow/internal/config"
	"dayflow/internal/logging"
)

// KV is a minimal durable key-value store.
type KV interface {
	// Get returns the stored value and whether the key existed.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// NewKV builds the backend the config names. dbPath is the resolved sqlite
// file location for the default backend.
func NewKV(cfg config.StoreConfig, dbPath string) (KV, error) {
	switch cfg.Backend {
	case "sqlite", "":
		logging.Store("opening sqlite kv store at %s", dbPath)
		return NewSQLiteKV(dbPath)
	case "redis":
		logging.Store("connecting redis kv store at %s", cfg.RedisAddr)
		return NewRedisKV(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB), nil
	case "memory":
		return NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
