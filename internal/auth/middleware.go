package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type JWTMiddleware struct {
	tokens *TokenIssuer
}

func NewJWTMiddleware(tokens *TokenIssuer) *JWTMiddleware {
	return &JWTMiddleware{tokens: tokens}
}

// Authenticate rejects requests without a valid bearer token with 401 and
// a WWW-Authenticate challenge.
func (m *JWTMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := extractBearerToken(r)
		if tokenStr == "" {
			writeUnauthorized(w, "not authenticated")
			return
		}

		claims, err := m.tokens.ParseToken(tokenStr)
		if err != nil {
			writeUnauthorized(w, "could not validate credentials")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type ctxKey string

const claimsKey ctxKey = "claims"

func ClaimsFromContext(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsKey).(*Claims)
	return c
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, msg)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
