package tts

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Limited bounds how many streams of the wrapped backend may be open at
// once. A slot is held from Synthesize until the stream is closed.
type Limited struct {
	Synthesizer
	sem *semaphore.Weighted
}

// Limit wraps s so that at most n streams run concurrently. n <= 0
// disables the limit.
func Limit(s Synthesizer, n int64) Synthesizer {
	if n <= 0 {
		return s
	}
	return &Limited{Synthesizer: s, sem: semaphore.NewWeighted(n)}
}

// Synthesize waits for a free slot or for ctx to be done.
func (l *Limited) Synthesize(ctx context.Context, req SynthesisRequest) (Stream, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	st, err := l.Synthesizer.Synthesize(ctx, req)
	if err != nil {
		l.sem.Release(1)
		return nil, err
	}
	return &limitedStream{Stream: st, release: sync.OnceFunc(func() { l.sem.Release(1) })}, nil
}

type limitedStream struct {
	Stream
	release func()
}

func (s *limitedStream) Close() error {
	defer s.release()
	return s.Stream.Close()
}
