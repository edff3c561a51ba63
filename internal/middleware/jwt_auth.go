package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"postboard/internal/auth"
)

type ctxKey string

const CtxEmail ctxKey = "email"

type SessionVerifier interface {
	VerifySession(token string) (*auth.SessionClaims, error)
}

// BearerSession verifies an "Authorization: Bearer" session token when one is
// sent and stores its email claim in the request context. Requests without
// the header pass through untouched so handlers can read the token from the
// body instead.
func BearerSession(verifier SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				writeUnauthorized(w, "Invalid Authorization header")
				return
			}

			claims, err := verifier.VerifySession(strings.TrimSpace(parts[1]))
			if err != nil {
				writeUnauthorized(w, "Invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), CtxEmail, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func EmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(CtxEmail).(string)
	return email, ok && email != ""
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "error",
		"error":   "invalid_token",
		"message": message,
	})
}
