package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nikhilbhutani/openmobiletts/internal/cache"
)

var (
	// ErrInvalidCredentials is deliberately the same for a wrong username
	// and a wrong password.
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")
)

type LoginConfig struct {
	Username     string
	PasswordHash string
	MaxAttempts  int           // failed attempts per client before lockout; 0 disables
	Lockout      time.Duration // window the failures are counted in
}

// Authenticator checks the single admin account and issues tokens.
type Authenticator struct {
	cfg      LoginConfig
	tokens   *TokenIssuer
	failures cache.Counter
}

func NewAuthenticator(cfg LoginConfig, tokens *TokenIssuer, failures cache.Counter) *Authenticator {
	if failures == nil {
		failures = cache.NewMemory()
	}
	return &Authenticator{cfg: cfg, tokens: tokens, failures: failures}
}

// Login returns an access token for valid credentials. client identifies
// the caller for the failed-attempt throttle (normally the remote IP).
func (a *Authenticator) Login(ctx context.Context, username, password, client string) (string, error) {
	key := "login_failures:" + client

	if a.cfg.MaxAttempts > 0 {
		n, err := a.failures.Count(ctx, key)
		if err != nil {
			slog.Warn("login throttle unavailable", "error", err)
		} else if n >= int64(a.cfg.MaxAttempts) {
			return "", ErrTooManyAttempts
		}
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.cfg.Username)) == 1
	passOK, err := VerifyPassword(password, a.cfg.PasswordHash)
	if err != nil {
		return "", err
	}
	if !userOK || !passOK {
		a.recordFailure(ctx, key)
		return "", ErrInvalidCredentials
	}

	if a.cfg.MaxAttempts > 0 {
		if err := a.failures.Delete(ctx, key); err != nil {
			slog.Warn("failed to reset login throttle", "error", err)
		}
	}

	token, err := a.tokens.CreateAccessToken(a.cfg.Username)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// RetryAfter is how long a locked-out client waits at most. The window
// starts with the first failure, so the real wait is never longer.
func (a *Authenticator) RetryAfter() time.Duration {
	return a.cfg.Lockout
}

func (a *Authenticator) recordFailure(ctx context.Context, key string) {
	if a.cfg.MaxAttempts <= 0 {
		return
	}
	n, err := a.failures.Increment(ctx, key, a.cfg.Lockout)
	if err != nil {
		slog.Warn("login throttle unavailable", "error", err)
		return
	}
	if n >= int64(a.cfg.MaxAttempts) {
		slog.Warn("login locked out", "client", key, "attempts", n)
	}
}
