package tts

import (
	"context"
	"math"
	"unicode/utf8"

	"google.golang.org/api/iterator"

	"github.com/nikhilbhutani/openmobiletts/pkg/chunker"
)

const (
	toneSampleRate     = 24000
	toneSecondsPerRune = 0.06
)

// ToneTTS is a dependency-free backend that renders every sentence as a
// short sine tone whose length follows the sentence length. It exists for
// development without a model and for exercising the pipeline end to end.
type ToneTTS struct{}

func NewToneTTS() *ToneTTS { return &ToneTTS{} }

func (t *ToneTTS) Name() string { return "tone" }

func (t *ToneTTS) Voices() []Voice {
	return []Voice{
		{Name: "tone_low", Language: "en"},
		{Name: "tone_high", Language: "en"},
	}
}

func (t *ToneTTS) Synthesize(ctx context.Context, req SynthesisRequest) (Stream, error) {
	freq := 220.0
	if req.Voice == "tone_high" {
		freq = 440.0
	}
	speed := req.Speed
	if speed <= 0 {
		speed = 1
	}
	return &toneStream{
		ctx:       ctx,
		freq:      freq,
		speed:     speed,
		sentences: chunker.SplitSentences(req.Input),
	}, nil
}

type toneStream struct {
	ctx       context.Context
	freq      float64
	speed     float64
	sentences []string
}

func (s *toneStream) Next() (*SubChunk, error) {
	if err := s.ctx.Err(); err != nil {
		return nil, err
	}
	if len(s.sentences) == 0 {
		return nil, iterator.Done
	}
	sentence := s.sentences[0]
	s.sentences = s.sentences[1:]

	seconds := float64(utf8.RuneCountInString(sentence)) * toneSecondsPerRune / s.speed
	n := int(seconds * toneSampleRate)
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(0.3 * math.Sin(2*math.Pi*s.freq*float64(i)/toneSampleRate))
	}

	return &SubChunk{
		Graphemes:  sentence,
		Samples:    samples,
		SampleRate: toneSampleRate,
		Channels:   1,
	}, nil
}

func (s *toneStream) Close() error {
	s.sentences = nil
	return nil
}
