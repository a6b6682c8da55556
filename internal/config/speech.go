package config

import "time"

// SpeechConfig configures the voice loop's recognition and synthesis.
type SpeechConfig struct {
	// Enabled turns the voice loop on at startup. The loop can still be
	// toggled at runtime.
	Enabled bool `yaml:"enabled"`

	// Voice is the prebuilt synthesis voice name.
	Voice string `yaml:"voice"`

	// Model is the TTS-capable model used for synthesis.
	Model string `yaml:"model"`

	// ResumeDelay is the pause between playback finishing and the next
	// listening session. It keeps the synthesized audio tail out of the
	// microphone capture.
	ResumeDelay string `yaml:"resume_delay"`
}

// ResumeDelayDuration returns the parsed resume delay with a default.
func (c *SpeechConfig) ResumeDelayDuration() time.Duration {
	d, err := time.ParseDuration(c.ResumeDelay)
	if err != nil || d < 0 {
		return time.Second
	}
	return d
}
