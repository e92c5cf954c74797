package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nikhilbhutani/openmobiletts/internal/audio"
	"github.com/nikhilbhutani/openmobiletts/internal/metrics"
	"github.com/nikhilbhutani/openmobiletts/internal/speech"
	"github.com/nikhilbhutani/openmobiletts/internal/textproc"
)

// MaxSpeed is the fastest accepted speech rate multiplier.
const MaxSpeed = 4.0

type StreamDefaults struct {
	Voice string
	Speed float64
}

type TTSHandler struct {
	speech   *speech.Service
	pre      *textproc.Preprocessor
	defaults StreamDefaults
	opts     speech.WriteOptions
	metrics  *metrics.Metrics
}

func NewTTSHandler(svc *speech.Service, pre *textproc.Preprocessor, defaults StreamDefaults, opts speech.WriteOptions, m *metrics.Metrics) *TTSHandler {
	return &TTSHandler{speech: svc, pre: pre, defaults: defaults, opts: opts, metrics: m}
}

// Stream speaks the text query parameter.
func (h *TTSHandler) Stream(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	text := q.Get("text")
	if strings.TrimSpace(text) == "" {
		writeError(w, http.StatusBadRequest, "Text cannot be empty")
		return
	}

	voice, speed, err := h.voiceParams(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	segments := h.pre.Process(text)
	if len(segments) == 0 {
		writeError(w, http.StatusBadRequest, "Text contains nothing to speak")
		return
	}

	h.stream(w, r, "text", segments, voice, speed)
}

// voiceParams resolves voice and speed, falling back to the configured
// defaults. When the default voice is not offered by the backend, its
// first voice is used.
func (h *TTSHandler) voiceParams(q url.Values) (string, float64, error) {
	voice := q.Get("voice")
	if voice == "" {
		voice = h.defaults.Voice
		if !h.speech.HasVoice(voice) {
			if vs := h.speech.Voices(); len(vs) > 0 {
				voice = vs[0].Name
			}
		}
	} else if !h.speech.HasVoice(voice) {
		return "", 0, fmt.Errorf("unknown voice %q", voice)
	}

	speed := h.defaults.Speed
	if s := q.Get("speed"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(v) || v <= 0 || v > MaxSpeed {
			return "", 0, fmt.Errorf("speed must be a number in (0, %g]", MaxSpeed)
		}
		speed = v
	}
	return voice, speed, nil
}

func (h *TTSHandler) stream(w http.ResponseWriter, r *http.Request, source string, segments []string, voice string, speed float64) {
	ctx := r.Context()
	logger := slog.With(
		"source", source,
		"segments", len(segments),
		"voice", voice,
		"request_id", chimiddleware.GetReqID(ctx),
	)

	st := h.speech.Generate(ctx, segments, voice, speed)
	defer st.Close()

	h.metrics.StreamStarted()

	src, err := speech.Prime(st)
	if err != nil {
		outcome := h.logOutcome(ctx, logger, speech.Stats{}, err)
		h.metrics.ObserveStream(source, outcome, 0, 0, 0)
		if outcome == metrics.OutcomeFailed {
			writeStartError(w, err)
		}
		return
	}

	stats, err := speech.WriteStream(ctx, w, src, h.opts)
	outcome := h.logOutcome(ctx, logger, stats, err)
	h.metrics.ObserveStream(source, outcome, stats.Frames, stats.Bytes, stats.AudioSeconds)
}

func (h *TTSHandler) logOutcome(ctx context.Context, logger *slog.Logger, stats speech.Stats, err error) string {
	attrs := []any{"frames", stats.Frames, "audio_seconds", stats.AudioSeconds, "bytes", stats.Bytes}
	switch {
	case err == nil:
		logger.Info("stream completed", attrs...)
		return metrics.OutcomeCompleted
	case ctx.Err() != nil:
		logger.Info("stream cancelled by client", attrs...)
		return metrics.OutcomeCancelled
	default:
		logger.Error("stream truncated", append(attrs, "error", err)...)
		return metrics.OutcomeFailed
	}
}

// writeStartError reports a failure that happened before any audio was
// committed.
func writeStartError(w http.ResponseWriter, err error) {
	var synthErr *speech.SynthesisError
	var encErr *audio.EncodingError
	switch {
	case errors.As(err, &synthErr):
		writeError(w, http.StatusBadGateway, "speech synthesis failed")
	case errors.As(err, &encErr):
		writeError(w, http.StatusInternalServerError, "audio encoding failed")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
