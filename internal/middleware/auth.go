package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/taskpad/taskpad-go/internal/crypto"
)

type contextKey string

const (
	userIDKey contextKey = "userID"
	guestKey  contextKey = "guest"
)

// JWTAuth returns middleware that validates a Bearer token from the Authorization header.
func JWTAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSONError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			scheme, token, found := strings.Cut(authHeader, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				writeJSONError(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}

			claims, err := crypto.ValidateToken(strings.TrimSpace(token), secret)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GuestResolver returns the id of the account guest requests act as.
type GuestResolver func(ctx context.Context) (int64, bool, error)

// GuestIdentity returns middleware that runs every request as the demo
// account. It is only mounted on the guest routes, so the guest identity
// is chosen by the route and never inferred from a missing token.
func GuestIdentity(resolve GuestResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, found, err := resolve(r.Context())
			if err != nil {
				slog.Error("resolve guest identity", "error", err)
				writeJSONError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			if !found {
				writeJSONError(w, http.StatusServiceUnavailable, "guest mode unavailable")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, id)
			ctx = context.WithValue(ctx, guestKey, true)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext extracts the authenticated user ID from the request context.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// IsGuest reports whether the request runs under the guest identity.
func IsGuest(ctx context.Context) bool {
	guest, _ := ctx.Value(guestKey).(bool)
	return guest
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
