package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/openmobiletts/internal/api"
	"github.com/nikhilbhutani/openmobiletts/internal/audio"
	"github.com/nikhilbhutani/openmobiletts/internal/auth"
	"github.com/nikhilbhutani/openmobiletts/internal/cache"
	"github.com/nikhilbhutani/openmobiletts/internal/config"
	"github.com/nikhilbhutani/openmobiletts/internal/document"
	"github.com/nikhilbhutani/openmobiletts/internal/metrics"
	"github.com/nikhilbhutani/openmobiletts/internal/speech"
	"github.com/nikhilbhutani/openmobiletts/internal/tts"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.Log.Level)}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Synthesis and encoding
	synth, err := tts.New(cfg.TTS)
	if err != nil {
		slog.Error("failed to initialise tts backend", "error", err)
		os.Exit(1)
	}
	bitrate, err := audio.ParseBitrate(cfg.Audio.Bitrate)
	if err != nil {
		slog.Error("invalid MP3_BITRATE", "error", err)
		os.Exit(1)
	}
	ffmpeg, err := audio.NewFFmpeg(cfg.Audio.FFmpegPath)
	if err != nil {
		slog.Error("invalid FFMPEG_PATH", "error", err)
		os.Exit(1)
	}
	encoder, err := audio.NewEncoder(audio.Config{
		SampleRate: cfg.Audio.SampleRate,
		Channels:   cfg.Audio.Channels,
		Bitrate:    bitrate,
	}, ffmpeg)
	if err != nil {
		slog.Error("failed to create audio encoder", "error", err)
		os.Exit(1)
	}

	docs, err := document.NewService(cfg.Upload.Dir, cfg.Upload.MaxSizeBytes)
	if err != nil {
		slog.Error("failed to prepare upload dir", "error", err)
		os.Exit(1)
	}

	// Redis connection (optional)
	var (
		failures cache.Counter = cache.NewMemory()
		pinger   *cache.Cache
	)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		c := cache.NewCache(rdb, "openmobiletts:")
		if err := c.Ping(ctx); err != nil {
			slog.Warn("redis unavailable, login throttle is per-process", "error", err)
		} else {
			failures = c
		}
		pinger = c
	}

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authenticator := auth.NewAuthenticator(auth.LoginConfig{
		Username:     cfg.Auth.AdminUsername,
		PasswordHash: cfg.Auth.AdminPasswordHash,
		MaxAttempts:  cfg.Auth.MaxLoginAttempts,
		Lockout:      cfg.Auth.LockoutDuration,
	}, tokens, failures)

	deps := api.Deps{
		Auth:    authenticator,
		Tokens:  tokens,
		Speech:  speech.NewService(synth, encoder),
		Docs:    docs,
		Backend: synth.Name(),
	}
	if cfg.Metrics.Enabled {
		deps.Metrics = metrics.New()
	}
	if pinger != nil {
		deps.Redis = pinger
	}

	// Setup router
	router := api.NewRouter(cfg, deps)
	handler := router.Setup(ctx)

	// No WriteTimeout: speech streams last as long as the document.
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr(), "tts_backend", synth.Name(), "version", cfg.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
