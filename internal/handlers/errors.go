package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/reelkit/reels/internal/posts"
	"github.com/reelkit/reels/internal/users"
)

type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string, details map[string]string) {
	writeJSON(w, status, map[string]any{
		"error": APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// writeServiceError maps the domain sentinels onto HTTP responses; anything
// unrecognized is logged and becomes a 500.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, posts.ErrNotFound), errors.Is(err, users.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "not found", nil)
	case errors.Is(err, posts.ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "post belongs to another user", nil)
	case errors.Is(err, posts.ErrQuotaExceeded):
		writeError(w, http.StatusTooManyRequests, "QUOTA_EXCEEDED", "daily post limit reached", nil)
	case errors.Is(err, posts.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error(), nil)
	case errors.Is(err, posts.ErrProviderUnavailable):
		logger.Error("media provider unavailable", "error", err)
		writeError(w, http.StatusBadGateway, "PROVIDER_UNAVAILABLE", "media provider unavailable", nil)
	case errors.Is(err, users.ErrEmailTaken):
		writeError(w, http.StatusConflict, "CONFLICT", "email already used", nil)
	case errors.Is(err, users.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "CONFLICT", "username already taken", nil)
	case errors.Is(err, users.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password", nil)
	default:
		logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", nil)
	}
}
