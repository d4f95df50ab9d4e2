package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/reelkit/reels/internal/middleware"
	"github.com/reelkit/reels/internal/users"
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

type AuthHandler struct {
	svc    *users.Service
	logger *slog.Logger
}

func NewAuthHandler(svc *users.Service, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		logger: logger,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
			return
		}

		errs := make(map[string]string)
		if !strings.Contains(req.Email, "@") {
			errs["email"] = "must be a valid email address"
		}
		if n := utf8.RuneCountInString(req.Username); n < 3 || n > 30 || !usernameRe.MatchString(req.Username) {
			errs["username"] = "3-30 characters: letters, numbers, underscore only"
		}
		if len(req.Password) < 6 {
			errs["password"] = "must be at least 6 characters"
		}
		if len(errs) > 0 {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "validation failed", errs)
			return
		}

		result, err := h.svc.Register(r.Context(), req.Email, req.Username, req.Password)
		if err != nil {
			writeServiceError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, result)
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
			return
		}

		result, err := h.svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeServiceError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func (h *AuthHandler) Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := h.svc.GetByID(r.Context(), middleware.GetUserID(r.Context()))
		if err != nil {
			writeServiceError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}
