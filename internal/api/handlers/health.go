package handlers

import (
	"context"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
)

// Pinger is an optional dependency checked by Readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	version string
	backend string
	redis   Pinger
}

// NewHealthHandler reports version and backend; redis may be nil.
func NewHealthHandler(version, backend string, redis Pinger) *HealthHandler {
	return &HealthHandler{version: version, backend: backend, redis: redis}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "version": h.version})
}

func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}

	if h.redis != nil {
		if err := h.redis.Ping(r.Context()); err != nil {
			checks["redis"] = "unhealthy: " + err.Error()
		} else {
			checks["redis"] = "ok"
		}
	}

	status := http.StatusOK
	for _, v := range checks {
		if v != "ok" {
			status = http.StatusServiceUnavailable
			break
		}
	}

	writeJSON(w, status, map[string]interface{}{"status": statusStr(status), "checks": checks})
}

func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":        "Open Mobile TTS",
		"version":     h.version,
		"description": "Private text-to-speech server with streaming support",
		"endpoints": map[string]string{
			"auth":            "/token",
			"voices":          "/api/voices",
			"stream_tts":      "/api/tts/stream",
			"upload_document": "/api/documents/upload",
			"stream_document": "/api/documents/stream",
		},
	})
}

var statusPage = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html>
<head><title>Open Mobile TTS - Status</title></head>
<body>
<h1>Open Mobile TTS</h1>
<p>Version {{.Version}}, synthesis backend <code>{{.Backend}}</code>.</p>
<ul>
<li>POST /token</li>
<li>GET /api/voices</li>
<li>GET /api/tts/stream</li>
<li>POST /api/documents/upload</li>
<li>POST /api/documents/stream</li>
<li>GET /health</li>
</ul>
</body>
</html>
`))

// Status renders a small HTML page for checking a deployment by hand.
func (h *HealthHandler) Status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := statusPage.Execute(w, struct{ Version, Backend string }{h.version, h.backend})
	if err != nil {
		slog.Error("render status page", "error", err)
	}
}

func statusStr(code int) string {
	if code == http.StatusOK {
		return "ok"
	}
	return "unhealthy"
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
