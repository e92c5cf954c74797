// Package audio turns raw synthesized PCM into independently playable,
// concatenable MP3 segments and accounts for their playback duration.
package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Format describes interleaved PCM.
type Format struct {
	SampleRate int
	Channels   int
}

// PCM is a block of interleaved float samples in [-1, 1].
type PCM struct {
	Samples []float32
	Format  Format
}

// Frame is one compressed audio segment and the duration a decoder will
// derive from its byte length.
type Frame struct {
	Data     []byte
	Duration float64 // seconds
}

// EncodingError reports corrupt input or a codec failure.
type EncodingError struct {
	Op  string
	Err error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("audio %s: %v", e.Op, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// Compressor turns a 16-bit WAV container into a headerless constant
// bitrate stream at the given output format.
type Compressor interface {
	Compress(ctx context.Context, wav []byte, out Format, bitrate int) ([]byte, error)
}

// Config holds the target stream parameters.
type Config struct {
	SampleRate int // Hz
	Channels   int // 1 = mono, 2 = stereo
	Bitrate    int // bits per second
}

// Encoder is safe for concurrent use if its Compressor is.
type Encoder struct {
	cfg  Config
	comp Compressor
}

func NewEncoder(cfg Config, comp Compressor) (*Encoder, error) {
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid output sample rate %d", cfg.SampleRate)
	}
	if cfg.Channels != 1 && cfg.Channels != 2 {
		return nil, fmt.Errorf("invalid output channel count %d", cfg.Channels)
	}
	if cfg.Bitrate <= 0 {
		return nil, fmt.Errorf("invalid bitrate %d", cfg.Bitrate)
	}
	if comp == nil {
		return nil, errors.New("compressor is required")
	}
	return &Encoder{cfg: cfg, comp: comp}, nil
}

// Output returns the format of produced frames.
func (e *Encoder) Output() Format {
	return Format{SampleRate: e.cfg.SampleRate, Channels: e.cfg.Channels}
}

// Encode compresses mono samples recorded at sourceRate.
func (e *Encoder) Encode(ctx context.Context, samples []float32, sourceRate int) (Frame, error) {
	return e.EncodePCM(ctx, PCM{Samples: samples, Format: Format{SampleRate: sourceRate, Channels: 1}})
}

// EncodePCM converts pcm to the configured rate and channel layout and
// compresses it. An empty input yields an empty, zero-length frame.
func (e *Encoder) EncodePCM(ctx context.Context, pcm PCM) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	if err := pcm.validate(); err != nil {
		return Frame{}, &EncodingError{Op: "validate", Err: err}
	}
	if len(pcm.Samples) == 0 {
		return Frame{}, nil
	}

	out := e.Output()
	samples := remix(toInt16(pcm.Samples), pcm.Format.Channels, out.Channels)

	if pcm.Format.SampleRate != out.SampleRate {
		var err error
		samples, err = resample(samples, pcm.Format.SampleRate, out)
		if err != nil {
			return Frame{}, &EncodingError{Op: "resample", Err: err}
		}
		if len(samples) == 0 {
			return Frame{}, nil
		}
	}

	wav, err := encodeWAV(samples, out)
	if err != nil {
		return Frame{}, &EncodingError{Op: "wav", Err: err}
	}

	data, err := e.comp.Compress(ctx, wav, out, e.cfg.Bitrate)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Frame{}, ctxErr
		}
		return Frame{}, &EncodingError{Op: "compress", Err: err}
	}

	return Frame{Data: data, Duration: DurationFromBytes(len(data), e.cfg.Bitrate)}, nil
}

// DurationFromBytes is the playback time of n bytes of a constant bitrate
// stream. Deriving it from sample counts would drift, because every
// independently encoded segment carries frame padding.
func DurationFromBytes(n, bitrate int) float64 {
	return float64(n) * 8 / float64(bitrate)
}

func (p PCM) validate() error {
	if p.Format.SampleRate <= 0 {
		return fmt.Errorf("invalid source sample rate %d", p.Format.SampleRate)
	}
	if p.Format.Channels < 1 || p.Format.Channels > 8 {
		return fmt.Errorf("invalid source channel count %d", p.Format.Channels)
	}
	if len(p.Samples)%p.Format.Channels != 0 {
		return fmt.Errorf("%d samples do not divide into %d channels", len(p.Samples), p.Format.Channels)
	}
	for i, s := range p.Samples {
		if math.IsNaN(float64(s)) || math.IsInf(float64(s), 0) {
			return fmt.Errorf("non-finite sample at index %d", i)
		}
	}
	return nil
}
