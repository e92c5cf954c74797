package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrInvalidConfig is returned by Validate when the environment cannot
// produce a usable server.
var ErrInvalidConfig = errors.New("invalid configuration")

// MinJWTSecretLength is the shortest HMAC secret accepted at startup.
const MinJWTSecretLength = 32

// LangCodes are the exec backend language codes with a voice catalogue.
var LangCodes = []string{"a", "b"}

type Config struct {
	Server  ServerConfig
	Log     LogConfig
	Redis   RedisConfig
	Auth    AuthConfig
	TTS     TTSConfig
	Audio   AudioConfig
	Text    TextConfig
	Upload  UploadConfig
	CORS    CORSConfig
	Stream  StreamConfig
	Metrics MetricsConfig
	Version string
}

type ServerConfig struct {
	Host string
	Port int
}

type LogConfig struct {
	Level string
}

type RedisConfig struct {
	Addr     string // empty disables Redis
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret         string
	AdminUsername     string
	AdminPasswordHash string
	TokenTTL          time.Duration
	MaxLoginAttempts  int
	LockoutDuration   time.Duration
	RateLimitRPS      float64
	RateLimitBurst    int
}

type TTSConfig struct {
	Backend       string // "exec", "openai" or "tone"
	ExecCommand   string
	LangCode      string
	MaxConcurrent int
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
	DefaultVoice  string
	DefaultSpeed  float64
}

type AudioConfig struct {
	Bitrate    string // e.g. "64k"
	SampleRate int
	Channels   int
	FFmpegPath string
}

type TextConfig struct {
	MaxChunkTokens int
}

type UploadConfig struct {
	MaxSizeBytes int64
	Dir          string
}

type CORSConfig struct {
	Origins []string
}

type StreamConfig struct {
	ErrorTrailer bool
}

type MetricsConfig struct {
	Enabled bool
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first when present; real environment
// variables take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := getEnvInt("SERVER_PORT", 8000)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	ttlHours, err := getEnvInt("JWT_EXPIRATION_HOURS", 24)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION_HOURS: %w", err)
	}

	maxAttempts, err := getEnvInt("LOGIN_MAX_ATTEMPTS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid LOGIN_MAX_ATTEMPTS: %w", err)
	}

	lockoutMinutes, err := getEnvInt("LOGIN_LOCKOUT_MINUTES", 15)
	if err != nil {
		return nil, fmt.Errorf("invalid LOGIN_LOCKOUT_MINUTES: %w", err)
	}

	rps, err := getEnvFloat("RATE_LIMIT_RPS", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}

	burst, err := getEnvInt("RATE_LIMIT_BURST", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	maxConcurrent, err := getEnvInt("TTS_MAX_CONCURRENT", 1)
	if err != nil {
		return nil, fmt.Errorf("invalid TTS_MAX_CONCURRENT: %w", err)
	}

	speed, err := getEnvFloat("DEFAULT_SPEED", 1.0)
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_SPEED: %w", err)
	}

	maxTokens, err := getEnvInt("MAX_CHUNK_TOKENS", 250)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_CHUNK_TOKENS: %w", err)
	}

	sampleRate, err := getEnvInt("MP3_SAMPLE_RATE", 22050)
	if err != nil {
		return nil, fmt.Errorf("invalid MP3_SAMPLE_RATE: %w", err)
	}

	channels, err := getEnvInt("MP3_CHANNELS", 1)
	if err != nil {
		return nil, fmt.Errorf("invalid MP3_CHANNELS: %w", err)
	}

	uploadMB, err := getEnvInt("MAX_UPLOAD_SIZE_MB", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_SIZE_MB: %w", err)
	}

	trailer, err := getEnvBool("STREAM_ERROR_TRAILER", false)
	if err != nil {
		return nil, fmt.Errorf("invalid STREAM_ERROR_TRAILER: %w", err)
	}

	metricsEnabled, err := getEnvBool("METRICS_ENABLED", true)
	if err != nil {
		return nil, fmt.Errorf("invalid METRICS_ENABLED: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			JWTSecret:         getEnv("JWT_SECRET", ""),
			AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
			AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
			TokenTTL:          time.Duration(ttlHours) * time.Hour,
			MaxLoginAttempts:  maxAttempts,
			LockoutDuration:   time.Duration(lockoutMinutes) * time.Minute,
			RateLimitRPS:      rps,
			RateLimitBurst:    burst,
		},
		TTS: TTSConfig{
			Backend:       getEnv("TTS_BACKEND", "exec"),
			ExecCommand:   getEnv("TTS_EXEC_COMMAND", "kokoro-sidecar"),
			LangCode:      getEnv("TTS_LANG_CODE", "a"),
			MaxConcurrent: maxConcurrent,
			OpenAIKey:     getEnv("TTS_OPENAI_API_KEY", getEnv("OPENAI_API_KEY", "")),
			OpenAIBaseURL: getEnv("TTS_OPENAI_BASE_URL", ""),
			OpenAIModel:   getEnv("TTS_OPENAI_MODEL", "tts-1"),
			DefaultVoice:  getEnv("DEFAULT_VOICE", "af_heart"),
			DefaultSpeed:  speed,
		},
		Audio: AudioConfig{
			Bitrate:    getEnv("MP3_BITRATE", "64k"),
			SampleRate: sampleRate,
			Channels:   channels,
			FFmpegPath: getEnv("FFMPEG_PATH", "ffmpeg"),
		},
		Text: TextConfig{
			MaxChunkTokens: maxTokens,
		},
		Upload: UploadConfig{
			MaxSizeBytes: int64(uploadMB) << 20,
			Dir:          getEnv("UPLOAD_DIR", filepath.Join(os.TempDir(), "openmobiletts_uploads")),
		},
		CORS: CORSConfig{
			Origins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		},
		Stream: StreamConfig{
			ErrorTrailer: trailer,
		},
		Metrics: MetricsConfig{
			Enabled: metricsEnabled,
		},
		Version: Version,
	}

	return cfg, nil
}

// Version is the server version reported by /health and /.
var Version = "0.1.0"

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate reports every problem at once, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	var problems []string

	if c.Auth.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required")
	} else if len(c.Auth.JWTSecret) < MinJWTSecretLength {
		problems = append(problems, fmt.Sprintf("JWT_SECRET must be at least %d characters", MinJWTSecretLength))
	}
	if c.Auth.AdminUsername == "" {
		problems = append(problems, "ADMIN_USERNAME is required")
	}
	if c.Auth.AdminPasswordHash == "" {
		problems = append(problems, "ADMIN_PASSWORD_HASH is required")
	} else if !strings.HasPrefix(c.Auth.AdminPasswordHash, "$argon2id$") {
		problems = append(problems, "ADMIN_PASSWORD_HASH must be an argon2id hash")
	}
	if c.Auth.TokenTTL <= 0 {
		problems = append(problems, "JWT_EXPIRATION_HOURS must be positive")
	}

	switch c.TTS.Backend {
	case "exec":
		if c.TTS.ExecCommand == "" {
			problems = append(problems, "TTS_EXEC_COMMAND is required for the exec backend")
		}
		if !slices.Contains(LangCodes, c.TTS.LangCode) {
			problems = append(problems, fmt.Sprintf("TTS_LANG_CODE %q has no voices; use one of %s", c.TTS.LangCode, strings.Join(LangCodes, ", ")))
		}
	case "openai":
		if c.TTS.OpenAIKey == "" {
			problems = append(problems, "TTS_OPENAI_API_KEY is required for the openai backend")
		}
	case "tone":
	default:
		problems = append(problems, fmt.Sprintf("unknown TTS_BACKEND %q", c.TTS.Backend))
	}
	if c.TTS.DefaultSpeed <= 0 || c.TTS.DefaultSpeed > 4 {
		problems = append(problems, "DEFAULT_SPEED must be in (0, 4]")
	}

	if c.Audio.SampleRate <= 0 {
		problems = append(problems, "MP3_SAMPLE_RATE must be positive")
	}
	if c.Audio.Channels != 1 && c.Audio.Channels != 2 {
		problems = append(problems, "MP3_CHANNELS must be 1 or 2")
	}
	if c.Text.MaxChunkTokens <= 0 {
		problems = append(problems, "MAX_CHUNK_TOKENS must be positive")
	}
	if c.Upload.MaxSizeBytes <= 0 {
		problems = append(problems, "MAX_UPLOAD_SIZE_MB must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseBool(v)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
