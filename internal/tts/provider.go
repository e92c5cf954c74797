package tts

import (
	"context"
	"encoding/binary"
)

// SynthesisRequest holds the parameters for text-to-speech generation.
type SynthesisRequest struct {
	Input string  `json:"input"`
	Voice string  `json:"voice,omitempty"`
	Speed float64 `json:"speed,omitempty"`
}

// SubChunk is one unit of synthesized speech: the text it covers, its
// phonemes when the backend reports them, and mono float PCM in [-1, 1].
type SubChunk struct {
	Graphemes  string
	Phonemes   string
	Samples    []float32
	SampleRate int
	Channels   int
}

// Stream yields sub-chunks lazily. Next returns iterator.Done once the
// input is exhausted. Work for the following sub-chunk starts only when
// Next is called.
type Stream interface {
	Next() (*SubChunk, error)
	Close() error
}

// Synthesizer is the interface for text-to-speech backends. Implementations
// are not assumed to be reentrant; wrap them with Limit when shared.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SynthesisRequest) (Stream, error)
	Voices() []Voice
	Name() string
}

// pcm16ToFloat decodes little-endian signed 16-bit samples.
func pcm16ToFloat(raw []byte) []float32 {
	samples := make([]float32, len(raw)/2)
	for i := range samples {
		samples[i] = float32(int16(binary.LittleEndian.Uint16(raw[i*2:]))) / 32768
	}
	return samples
}
