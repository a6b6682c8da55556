package config

import (
	"fmt"
	"time"
)

// LLMConfig configures the text-generation gateway.
type LLMConfig struct {
	Provider string `yaml:"provider"` // gemini, openai, mock
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"` // openai-compatible endpoints only
	Timeout  string `yaml:"timeout"`
}

// Validate checks the LLM section. An empty API key is allowed here; the
// gateway reports a credential error at call time so the host can show the
// specific "missing key" message instead of failing boot.
func (c *LLMConfig) Validate() error {
	switch c.Provider {
	case "gemini", "openai", "mock", "":
	default:
		return fmt.Errorf("unknown llm provider %q", c.Provider)
	}
	if c.Timeout != "" {
		if _, err := time.ParseDuration(c.Timeout); err != nil {
			return fmt.Errorf("invalid llm.timeout: %w", err)
		}
	}
	return nil
}

// TimeoutDuration returns the parsed timeout with a sane default.
func (c *LLMConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 120 * time.Second
	}
	return d
}
