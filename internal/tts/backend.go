package tts

import (
	"fmt"

	"github.com/nikhilbhutani/openmobiletts/internal/config"
)

// New builds the configured backend and wraps it in the concurrency limit.
func New(cfg config.TTSConfig) (Synthesizer, error) {
	var s Synthesizer
	switch cfg.Backend {
	case "exec", "":
		local, err := NewLocalTTS(LocalTTSConfig{Command: cfg.ExecCommand, LangCode: cfg.LangCode})
		if err != nil {
			return nil, err
		}
		s = local
	case "openai":
		s = NewOpenAITTS(OpenAITTSConfig{
			APIKey:  cfg.OpenAIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		})
	case "tone":
		s = NewToneTTS()
	default:
		return nil, fmt.Errorf("unknown tts backend %q", cfg.Backend)
	}
	return Limit(s, int64(cfg.MaxConcurrent)), nil
}
