package speech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"google.golang.org/api/iterator"
)

// TimingPrefix starts the metadata line that precedes every audio payload.
const TimingPrefix = "TIMING:"

// ErrorPrefix starts the optional trailer line written when a stream is
// cut short after the response has been committed.
const ErrorPrefix = "ERROR:"

// FrameSource is anything that yields frames the way Stream does.
type FrameSource interface {
	Next() (*Frame, error)
}

type WriteOptions struct {
	// ErrorTrailer appends "ERROR:<message>\n" when the source fails
	// mid-stream. Off by default so the framing stays two-part.
	ErrorTrailer bool
}

// Stats summarises what reached the client.
type Stats struct {
	Frames       int
	Bytes        int64
	AudioSeconds float64
}

// SetStreamHeaders marks the response as an unbuffered, uncached MP3 body.
func SetStreamHeaders(h http.Header) {
	h.Set("Content-Type", "audio/mpeg")
	h.Set("Cache-Control", "no-cache")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Accel-Buffering", "no")
}

// WriteStream commits a 200 response and copies frames from src to w as
//
//	TIMING:<json>\n<mp3 bytes>
//
// flushing after each one, so the next frame is only requested once the
// previous one has been handed to the network. The returned error is the
// one that ended the stream early, or nil when src was exhausted.
func WriteStream(ctx context.Context, w http.ResponseWriter, src FrameSource, opts WriteOptions) (Stats, error) {
	SetStreamHeaders(w.Header())
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	var stats Stats

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		frame, err := src.Next()
		if errors.Is(err, iterator.Done) {
			return stats, nil
		}
		if err != nil {
			if opts.ErrorTrailer && ctx.Err() == nil {
				writeTrailer(w, rc, err)
			}
			return stats, err
		}

		meta, err := json.Marshal(frame.Timing)
		if err != nil {
			return stats, fmt.Errorf("encode timing: %w", err)
		}

		line := make([]byte, 0, len(TimingPrefix)+len(meta)+1)
		line = append(line, TimingPrefix...)
		line = append(line, meta...)
		line = append(line, '\n')

		n, err := w.Write(line)
		stats.Bytes += int64(n)
		if err != nil {
			return stats, fmt.Errorf("write timing: %w", err)
		}
		n, err = w.Write(frame.Audio)
		stats.Bytes += int64(n)
		if err != nil {
			return stats, fmt.Errorf("write audio: %w", err)
		}
		if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			return stats, fmt.Errorf("flush: %w", err)
		}

		stats.Frames++
		stats.AudioSeconds = frame.Timing.End
	}
}

func writeTrailer(w http.ResponseWriter, rc *http.ResponseController, cause error) {
	msg, _ := json.Marshal(cause.Error())
	if _, err := fmt.Fprintf(w, "%s%s\n", ErrorPrefix, msg); err != nil {
		slog.Debug("error trailer not delivered", "error", err)
		return
	}
	_ = rc.Flush()
}

// Prime pulls the first frame from src so that a failure to start can
// still be reported with an error status. The returned source replays
// that frame before continuing with src. A src that is already exhausted
// yields a nil first frame and iterator.Done from the returned source.
func Prime(src FrameSource) (FrameSource, error) {
	first, err := src.Next()
	if errors.Is(err, iterator.Done) {
		return &primed{src: src, done: true}, nil
	}
	if err != nil {
		return nil, err
	}
	return &primed{src: src, first: first}, nil
}

type primed struct {
	src   FrameSource
	first *Frame
	done  bool
}

func (p *primed) Next() (*Frame, error) {
	if p.done {
		return nil, iterator.Done
	}
	if f := p.first; f != nil {
		p.first = nil
		return f, nil
	}
	return p.src.Next()
}
