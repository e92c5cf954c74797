// Package metrics exposes Prometheus instruments for the streaming
// pipeline and the HTTP surface.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Stream outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeCancelled = "cancelled"
	OutcomeFailed    = "failed"
)

type Metrics struct {
	registry *prometheus.Registry

	Requests      *prometheus.CounterVec
	Streams       *prometheus.CounterVec
	ActiveStreams prometheus.Gauge
	Frames        prometheus.Counter
	AudioSeconds  prometheus.Counter
	StreamBytes   prometheus.Counter
	UploadBytes   prometheus.Histogram
	LoginFailures prometheus.Counter
}

// New registers all instruments on a private registry, together with the
// Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "openmobiletts",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status code.",
		}, []string{"route", "method", "code"}),
		Streams: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "openmobiletts",
			Name:      "streams_total",
			Help:      "Speech streams by source and outcome.",
		}, []string{"source", "outcome"}),
		ActiveStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "openmobiletts",
			Name:      "active_streams",
			Help:      "Speech streams currently being written.",
		}),
		Frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "openmobiletts",
			Name:      "frames_total",
			Help:      "Audio frames delivered to clients.",
		}),
		AudioSeconds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "openmobiletts",
			Name:      "audio_seconds_total",
			Help:      "Seconds of audio delivered to clients.",
		}),
		StreamBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "openmobiletts",
			Name:      "stream_bytes_total",
			Help:      "Bytes written to speech stream bodies.",
		}),
		UploadBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "openmobiletts",
			Name:      "upload_bytes",
			Help:      "Size of accepted document uploads.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		}),
		LoginFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "openmobiletts",
			Name:      "login_failures_total",
			Help:      "Rejected login attempts.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Requests, m.Streams, m.ActiveStreams, m.Frames,
		m.AudioSeconds, m.StreamBytes, m.UploadBytes, m.LoginFailures,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StreamStarted marks a stream as active until ObserveStream is called.
func (m *Metrics) StreamStarted() {
	if m == nil {
		return
	}
	m.ActiveStreams.Inc()
}

// ObserveStream records the result of one finished stream.
func (m *Metrics) ObserveStream(source, outcome string, frames int, bytes int64, audioSeconds float64) {
	if m == nil {
		return
	}
	m.ActiveStreams.Dec()
	m.Streams.WithLabelValues(source, outcome).Inc()
	m.Frames.Add(float64(frames))
	m.StreamBytes.Add(float64(bytes))
	m.AudioSeconds.Add(audioSeconds)
}

func (m *Metrics) ObserveUpload(n int64) {
	if m == nil {
		return
	}
	m.UploadBytes.Observe(float64(n))
}

func (m *Metrics) LoginFailed() {
	if m == nil {
		return
	}
	m.LoginFailures.Inc()
}
