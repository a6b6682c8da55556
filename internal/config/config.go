// Package config loads and validates dayflow configuration from a YAML file
// with environment-variable overrides for secrets.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all dayflow configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// StateDir holds logs and the default sqlite database.
	StateDir string `yaml:"state_dir"`

	// Page is the dashboard page the assistant believes the user is on.
	// The CLI host sets this per session; web hosts set it per request.
	Page string `yaml:"page"`

	// LLM configures the text-generation gateway.
	LLM LLMConfig `yaml:"llm"`

	// Speech configures recognition and synthesis.
	Speech SpeechConfig `yaml:"speech"`

	// Store configures conversation-history persistence.
	Store StoreConfig `yaml:"store"`

	// Logging configures category file logging.
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"` // debug, info, warn, error
	Categories map[string]bool `yaml:"categories"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Name:     "dayflow",
		Version:  "0.3.0",
		StateDir: filepath.Join(home, ".dayflow"),
		Page:     "dashboard",

		LLM: LLMConfig{
			Provider: "gemini",
			Model:    "gemini-2.5-flash",
			Timeout:  "120s",
		},

		Speech: SpeechConfig{
			Enabled:     false,
			Voice:       "Kore",
			Model:       "gemini-2.5-flash-preview-tts",
			ResumeDelay: "1s",
		},

		Store: StoreConfig{
			Backend:      "sqlite",
			DatabasePath: "", // resolved against StateDir when empty
			HistoryKey:   "dayflow_chat_history",
		},

		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// Load reads configuration from the given path, falling back to defaults
// when the file does not exist. Environment variables override API keys.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".dayflow", "config.yaml")
}

// applyEnvOverrides lets environment variables win over file values for
// credentials, so keys never need to live in the config file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DAYFLOW_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if c.LLM.APIKey == "" {
		switch c.LLM.Provider {
		case "gemini":
			c.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
		case "openai":
			c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	if v := os.Getenv("DAYFLOW_REDIS_ADDR"); v != "" {
		c.Store.Backend = "redis"
		c.Store.RedisAddr = v
	}
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if c.Speech.ResumeDelay != "" {
		if _, err := time.ParseDuration(c.Speech.ResumeDelay); err != nil {
			return fmt.Errorf("invalid speech.resume_delay: %w", err)
		}
	}
	return nil
}

// DatabasePath resolves the sqlite path, defaulting into the state dir.
func (c *Config) DatabasePath() string {
	if c.Store.DatabasePath != "" {
		return c.Store.DatabasePath
	}
	return filepath.Join(c.StateDir, "dayflow.db")
}
