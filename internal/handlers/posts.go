package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/reelkit/reels/internal/archive"
	"github.com/reelkit/reels/internal/middleware"
	"github.com/reelkit/reels/internal/posts"
)

type PostsHandler struct {
	svc     *posts.Service
	archive archive.Store
	logger  *slog.Logger
}

func NewPostsHandler(svc *posts.Service, archiveStore archive.Store, logger *slog.Logger) *PostsHandler {
	return &PostsHandler{
		svc:     svc,
		archive: archiveStore,
		logger:  logger,
	}
}

type uploadURLRequest struct {
	CorsOrigin string `json:"cors_origin"`
}

// UploadURL starts an upload session: quota check, provider upload slot,
// uploading post row. The client pushes the media bytes to the returned
// URL itself.
func (h *PostsHandler) UploadURL() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req uploadURLRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
				return
			}
		}

		session, err := h.svc.StartUpload(r.Context(), middleware.GetUserID(r.Context()), req.CorsOrigin)
		if err != nil {
			writeServiceError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, session)
	}
}

type completeRequest struct {
	Caption     *string `json:"caption"`
	DurationSec *int    `json:"duration_sec"`
}

func (h *PostsHandler) Complete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid post id", nil)
			return
		}
		var req completeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
			return
		}

		post, err := h.svc.CompleteMetadata(r.Context(), postID, middleware.GetUserID(r.Context()), req.Caption, req.DurationSec)
		if err != nil {
			writeServiceError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, post)
	}
}

func (h *PostsHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid post id", nil)
			return
		}
		item, err := h.svc.GetPost(r.Context(), postID)
		if err != nil {
			writeServiceError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

func (h *PostsHandler) Feed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "BAD_REQUEST", "limit must be an integer", nil)
				return
			}
			limit = n
		}

		page, err := h.svc.GetFeed(r.Context(), limit, r.URL.Query().Get("cursor"))
		if err != nil {
			writeServiceError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

type webhookPayload struct {
	Type string `json:"type"`
	Data struct {
		ID          string `json:"id"`
		AssetID     string `json:"asset_id"`
		PlaybackIDs []struct {
			ID string `json:"id"`
		} `json:"playback_ids"`
	} `json:"data"`
}

// Webhook ingests provider events. It always acknowledges with 200: the
// provider retries non-2xx responses forever, and a malformed event will
// never become deliverable.
func (h *PostsHandler) Webhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
			return
		}
		h.archiveEvent(r, body)

		var payload webhookPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			h.logger.Warn("webhook body not JSON, dropping", "error", err)
			writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
			return
		}

		evt := posts.ProviderEvent{
			Type:     payload.Type,
			UploadID: payload.Data.ID,
			AssetID:  payload.Data.AssetID,
		}
		if len(payload.Data.PlaybackIDs) > 0 {
			evt.PlaybackID = payload.Data.PlaybackIDs[0].ID
		}

		if err := h.svc.HandleProviderEvent(r.Context(), evt); err != nil {
			// Still acknowledged; the poll reconciler converges the post later.
			h.logger.Error("webhook handling failed", "type", payload.Type, "error", err)
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

func (h *PostsHandler) archiveEvent(r *http.Request, body []byte) {
	key := "webhooks/mux/" + time.Now().UTC().Format("2006/01/02") + "/" + uuid.NewString() + ".json"
	if err := h.archive.Put(r.Context(), key, bytes.NewReader(body), "application/json"); err != nil {
		h.logger.Warn("webhook archive failed", "key", key, "error", err)
	}
}
