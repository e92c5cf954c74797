package handlers

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/nikhilbhutani/openmobiletts/internal/api/middleware"
	"github.com/nikhilbhutani/openmobiletts/internal/auth"
	"github.com/nikhilbhutani/openmobiletts/internal/metrics"
)

type AuthHandler struct {
	auth    *auth.Authenticator
	metrics *metrics.Metrics
}

func NewAuthHandler(a *auth.Authenticator, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{auth: a, metrics: m}
}

// Token implements the OAuth2 password grant: form fields username and
// password in, bearer token out.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	token, err := h.auth.Login(r.Context(), username, password, middleware.ClientIP(r))
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		h.metrics.LoginFailed()
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	case errors.Is(err, auth.ErrTooManyAttempts):
		h.metrics.LoginFailed()
		w.Header().Set("Retry-After", retryAfterSeconds(h.auth.RetryAfter()))
		writeError(w, http.StatusTooManyRequests, "too many failed login attempts, try again later")
		return
	case err != nil:
		slog.Error("login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func retryAfterSeconds(d time.Duration) string {
	return strconv.Itoa(max(1, int(math.Ceil(d.Seconds()))))
}
