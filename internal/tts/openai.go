package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/api/iterator"

	"github.com/nikhilbhutani/openmobiletts/pkg/chunker"
)

// openAISampleRate is the fixed rate of the API's raw "pcm" format
// (signed 16-bit little-endian mono).
const openAISampleRate = 24000

// OpenAITTSConfig holds configuration for the OpenAI TTS backend.
type OpenAITTSConfig struct {
	APIKey  string
	BaseURL string // default: "https://api.openai.com/v1"
	Model   string // default: "tts-1"
}

// OpenAITTS synthesizes speech using OpenAI's speech endpoint, one request
// per sentence so that sub-chunks arrive incrementally.
type OpenAITTS struct {
	client *openai.Client
	model  openai.SpeechModel
}

// NewOpenAITTS creates an OpenAITTS with sensible defaults applied.
func NewOpenAITTS(cfg OpenAITTSConfig) *OpenAITTS {
	if cfg.Model == "" {
		cfg.Model = string(openai.TTSModel1)
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	oc.HTTPClient = &http.Client{Timeout: 120 * time.Second}

	return &OpenAITTS{
		client: openai.NewClientWithConfig(oc),
		model:  openai.SpeechModel(cfg.Model),
	}
}

func (o *OpenAITTS) Name() string { return "openai-tts" }

func (o *OpenAITTS) Voices() []Voice {
	return []Voice{
		{Name: string(openai.VoiceAlloy), Language: "en"},
		{Name: string(openai.VoiceEcho), Language: "en"},
		{Name: string(openai.VoiceFable), Language: "en"},
		{Name: string(openai.VoiceOnyx), Language: "en"},
		{Name: string(openai.VoiceNova), Language: "en"},
		{Name: string(openai.VoiceShimmer), Language: "en"},
	}
}

func (o *OpenAITTS) Synthesize(ctx context.Context, req SynthesisRequest) (Stream, error) {
	voice := req.Voice
	if voice == "" {
		voice = string(openai.VoiceAlloy)
	}
	return &openAIStream{
		ctx:       ctx,
		tts:       o,
		voice:     openai.SpeechVoice(voice),
		speed:     req.Speed,
		sentences: chunker.SplitSentences(req.Input),
	}, nil
}

type openAIStream struct {
	ctx       context.Context
	tts       *OpenAITTS
	voice     openai.SpeechVoice
	speed     float64
	sentences []string
}

func (s *openAIStream) Next() (*SubChunk, error) {
	if len(s.sentences) == 0 {
		return nil, iterator.Done
	}
	sentence := s.sentences[0]
	s.sentences = s.sentences[1:]

	resp, err := s.tts.client.CreateSpeech(s.ctx, openai.CreateSpeechRequest{
		Model:          s.tts.model,
		Input:          sentence,
		Voice:          s.voice,
		ResponseFormat: openai.SpeechResponseFormatPcm,
		Speed:          s.speed,
	})
	if err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Close()

	raw, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}

	return &SubChunk{
		Graphemes:  sentence,
		Samples:    pcm16ToFloat(raw),
		SampleRate: openAISampleRate,
		Channels:   1,
	}, nil
}

func (s *openAIStream) Close() error {
	s.sentences = nil
	return nil
}
