package config

import "fmt"

// StoreConfig configures conversation-history persistence.
type StoreConfig struct {
	Backend string `yaml:"backend"` // sqlite, redis, memory

	// DatabasePath is the sqlite file; empty resolves into StateDir.
	DatabasePath string `yaml:"database_path"`

	// Redis connection settings (backend: redis).
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	// HistoryKey is the fixed key the chat transcript is stored under.
	HistoryKey string `yaml:"history_key"`
}

// Validate checks the store section.
func (c *StoreConfig) Validate() error {
	switch c.Backend {
	case "sqlite", "memory", "":
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("store.redis_addr required for redis backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Backend)
	}
	if c.HistoryKey == "" {
		return fmt.Errorf("store.history_key must not be empty")
	}
	return nil
}
