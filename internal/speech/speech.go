// Package speech turns ordered text segments into a lazily produced
// sequence of MP3 frames, each paired with its position on the stream
// timeline.
package speech

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/iterator"

	"github.com/nikhilbhutani/openmobiletts/internal/audio"
	"github.com/nikhilbhutani/openmobiletts/internal/tts"
)

// TimingRecord places one frame on the stream timeline. Text is the
// grapheme form reported by the backend.
type TimingRecord struct {
	Text         string  `json:"text"`
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	SegmentIndex int     `json:"segment_index"`
}

// Frame is one unit of the output stream.
type Frame struct {
	Audio  []byte
	Timing TimingRecord
}

// SynthesisError aborts a stream when the backend fails on a segment.
type SynthesisError struct {
	SegmentIndex int
	Err          error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis failed for segment %d: %v", e.SegmentIndex, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// Encoder compresses one block of PCM into a frame.
type Encoder interface {
	EncodePCM(ctx context.Context, pcm audio.PCM) (audio.Frame, error)
}

type Service struct {
	synth tts.Synthesizer
	enc   Encoder
}

func NewService(synth tts.Synthesizer, enc Encoder) *Service {
	return &Service{synth: synth, enc: enc}
}

// Voices lists the voices of the underlying backend.
func (s *Service) Voices() []tts.Voice {
	return s.synth.Voices()
}

// HasVoice reports whether the backend offers name.
func (s *Service) HasVoice(name string) bool {
	return tts.HasVoice(s.synth, name)
}

// Generate returns a stream over segments. Nothing is synthesized until
// Next is called, and each call produces at most one frame.
func (s *Service) Generate(ctx context.Context, segments []string, voice string, speed float64) *Stream {
	return &Stream{
		ctx:      ctx,
		svc:      s,
		segments: segments,
		voice:    voice,
		speed:    speed,
	}
}

// Stream is a single forward pass over one request's audio. It is not
// safe for concurrent use.
type Stream struct {
	ctx      context.Context
	svc      *Service
	segments []string
	voice    string
	speed    float64

	idx     int
	cur     tts.Stream
	elapsed float64
	done    bool
}

// Next returns the next frame, iterator.Done at the end of the input, or
// the error that ended the stream. After any error the stream is finished.
func (st *Stream) Next() (*Frame, error) {
	if st.done {
		return nil, iterator.Done
	}

	for {
		if err := st.ctx.Err(); err != nil {
			st.finish()
			return nil, err
		}

		if st.cur == nil {
			if st.idx >= len(st.segments) {
				st.finish()
				return nil, iterator.Done
			}
			sub, err := st.svc.synth.Synthesize(st.ctx, tts.SynthesisRequest{
				Input: st.segments[st.idx],
				Voice: st.voice,
				Speed: st.speed,
			})
			if err != nil {
				return nil, st.fail(err)
			}
			st.cur = sub
		}

		chunk, err := st.cur.Next()
		if errors.Is(err, iterator.Done) {
			st.cur.Close()
			st.cur = nil
			st.idx++
			continue
		}
		if err != nil {
			return nil, st.fail(err)
		}

		frame, err := st.svc.enc.EncodePCM(st.ctx, audio.PCM{
			Samples: chunk.Samples,
			Format:  audio.Format{SampleRate: chunk.SampleRate, Channels: chunk.Channels},
		})
		if err != nil {
			st.finish()
			return nil, err
		}
		if len(frame.Data) == 0 {
			continue
		}

		start := st.elapsed
		st.elapsed = start + frame.Duration
		return &Frame{
			Audio: frame.Data,
			Timing: TimingRecord{
				Text:         chunk.Graphemes,
				Start:        start,
				End:          st.elapsed,
				SegmentIndex: st.idx,
			},
		}, nil
	}
}

// Elapsed is the audio time emitted so far, in seconds.
func (st *Stream) Elapsed() float64 { return st.elapsed }

// Close releases the backend stream. It is safe to call more than once.
func (st *Stream) Close() error {
	st.finish()
	return nil
}

func (st *Stream) fail(err error) error {
	st.finish()
	if ctxErr := st.ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &SynthesisError{SegmentIndex: st.idx, Err: err}
}

func (st *Stream) finish() {
	st.done = true
	if st.cur != nil {
		st.cur.Close()
		st.cur = nil
	}
}
