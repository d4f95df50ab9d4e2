package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/reelkit/reels/internal/auth"
)

const userIDKey contextKey = "user_id"

// RequireAuth validates the bearer token and stores the authenticated user
// id in the request context. Routes without it (webhook, health, metrics)
// stay open.
func RequireAuth(jwtSecret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				writeUnauthorized(w, r)
				return
			}
			userID, err := auth.GetUserIDFromToken(token, jwtSecret)
			if err != nil {
				writeUnauthorized(w, r)
				return
			}
			id, err := uuid.Parse(userID)
			if err != nil {
				writeUnauthorized(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID returns the authenticated user id, or uuid.Nil outside
// RequireAuth-wrapped handlers.
func GetUserID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(userIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

func extractBearerToken(r *http.Request) string {
	const prefix = "Bearer "
	if s := r.Header.Get("Authorization"); strings.HasPrefix(s, prefix) {
		return strings.TrimSpace(s[len(prefix):])
	}
	return ""
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":       "UNAUTHORIZED",
			"message":    "missing or invalid bearer token",
			"request_id": GetRequestID(r.Context()),
		},
	})
}
