package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nikhilbhutani/openmobiletts/internal/api/handlers"
	"github.com/nikhilbhutani/openmobiletts/internal/api/middleware"
	"github.com/nikhilbhutani/openmobiletts/internal/auth"
	"github.com/nikhilbhutani/openmobiletts/internal/config"
	"github.com/nikhilbhutani/openmobiletts/internal/document"
	"github.com/nikhilbhutani/openmobiletts/internal/metrics"
	"github.com/nikhilbhutani/openmobiletts/internal/speech"
	"github.com/nikhilbhutani/openmobiletts/internal/textproc"
)

// Deps are the long-lived services the HTTP layer is built on.
type Deps struct {
	Auth    *auth.Authenticator
	Tokens  *auth.TokenIssuer
	Speech  *speech.Service
	Docs    *document.Service
	Metrics *metrics.Metrics // nil disables /metrics
	Redis   handlers.Pinger  // nil when Redis is not configured
	Backend string
}

type Router struct {
	mux  *chi.Mux
	cfg  *config.Config
	deps Deps
	jwt  *auth.JWTMiddleware
}

func NewRouter(cfg *config.Config, deps Deps) *Router {
	return &Router{
		mux:  chi.NewRouter(),
		cfg:  cfg,
		deps: deps,
		jwt:  auth.NewJWTMiddleware(deps.Tokens),
	}
}

// Setup wires routes; ctx bounds background work such as the rate
// limiter's janitor.
func (rt *Router) Setup(ctx context.Context) http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	if rt.deps.Metrics != nil {
		r.Use(middleware.Instrument(rt.deps.Metrics))
	}
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(rt.cfg.CORS.Origins))

	rl := middleware.NewRateLimiter(ctx, rt.cfg.Auth.RateLimitRPS, rt.cfg.Auth.RateLimitBurst)

	// Public endpoints
	health := handlers.NewHealthHandler(rt.cfg.Version, rt.deps.Backend, rt.deps.Redis)
	r.Get("/", health.Root)
	r.Get("/health", health.Health)
	r.Get("/readyz", health.Readyz)
	r.Get("/status", health.Status)
	if rt.deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", rt.deps.Metrics.Handler())
	}

	authH := handlers.NewAuthHandler(rt.deps.Auth, rt.deps.Metrics)
	r.With(rl.Limit).Post("/token", authH.Token)

	pre := textproc.NewPreprocessor(rt.cfg.Text.MaxChunkTokens)
	ttsH := handlers.NewTTSHandler(rt.deps.Speech, pre,
		handlers.StreamDefaults{Voice: rt.cfg.TTS.DefaultVoice, Speed: rt.cfg.TTS.DefaultSpeed},
		speech.WriteOptions{ErrorTrailer: rt.cfg.Stream.ErrorTrailer},
		rt.deps.Metrics,
	)
	docH := handlers.NewDocumentHandler(rt.deps.Docs, pre, ttsH, rt.deps.Metrics)
	voicesH := handlers.NewVoicesHandler(rt.deps.Speech)

	r.Route("/api", func(r chi.Router) {
		r.Use(rl.Limit)
		r.Use(rt.jwt.Authenticate)

		r.Get("/voices", voicesH.List)
		r.Get("/tts/stream", ttsH.Stream)

		r.Route("/documents", func(r chi.Router) {
			r.Post("/upload", docH.Upload)
			r.Post("/stream", docH.Stream)
		})
	})

	return r
}
