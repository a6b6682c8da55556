package speech

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"dayflow/internal/logging"
)

// GenAISynthesizer implements Synthesizer on a TTS-capable Gemini model.
type GenAISynthesizer struct {
	client *genai.Client
	model  string
}

// NewGenAISynthesizer creates a Gemini-backed synthesizer.
func NewGenAISynthesizer(ctx context.Context, apiKey, model string) (*GenAISynthesizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("synthesizer API key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash-preview-tts"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GenAISynthesizer{client: client, model: model}, nil
}

// Synthesize renders text to audio bytes using the configured voice.
func (s *GenAISynthesizer) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("nothing to synthesize")
	}
	if voice == "" {
		voice = "Kore"
	}

	start := time.Now()
	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("speech synthesis failed: %w", err)
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				logging.APIDebug("[tts] synthesized %d bytes in %s", len(part.InlineData.Data), time.Since(start))
				return part.InlineData.Data, nil
			}
		}
	}
	return nil, fmt.Errorf("synthesis response contained no audio")
}
