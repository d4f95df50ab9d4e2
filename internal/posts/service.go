package posts

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/reelkit/reels/internal/events"
	"github.com/reelkit/reels/internal/metrics"
	"github.com/reelkit/reels/internal/mux"
)

// eventAssetReady is the only provider webhook type that advances a post.
const eventAssetReady = "video.upload.asset_ready"

const (
	defaultFeedLimit = 50
	maxFeedLimit     = 100
)

type Service struct {
	repo       Repository
	provider   mux.API
	publisher  events.Publisher
	logger     *slog.Logger
	dailyLimit int
	now        func() time.Time
}

func NewService(repo Repository, provider mux.API, publisher events.Publisher, logger *slog.Logger, dailyLimit int) *Service {
	if dailyLimit < 1 {
		dailyLimit = 1
	}
	return &Service{
		repo:       repo,
		provider:   provider,
		publisher:  publisher,
		logger:     logger,
		dailyLimit: dailyLimit,
		now:        time.Now,
	}
}

// CheckDailyQuota rejects when the user already created dailyLimit posts
// since local midnight. Count-then-insert is racy under concurrent requests
// from the same user; the limit is best-effort and the worst case is one
// extra post, so no locking is done here.
func (s *Service) CheckDailyQuota(ctx context.Context, userID uuid.UUID) error {
	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	n, err := s.repo.CountByUserSince(ctx, userID, midnight)
	if err != nil {
		return fmt.Errorf("count posts since midnight: %w", err)
	}
	if n >= int64(s.dailyLimit) {
		return ErrQuotaExceeded
	}
	return nil
}

// StartUpload creates a direct upload slot at the provider and records the
// post as uploading. The slot is created before the row on purpose: a
// provider failure must not leave an uploading row with no valid slot.
func (s *Service) StartUpload(ctx context.Context, userID uuid.UUID, corsOrigin string) (*UploadSession, error) {
	if err := s.CheckDailyQuota(ctx, userID); err != nil {
		return nil, err
	}

	if corsOrigin == "" {
		corsOrigin = "*"
	}
	slot, err := s.provider.CreateDirectUpload(ctx, corsOrigin)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	post, err := s.repo.Create(ctx, userID, slot.UploadID)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	s.logger.Info("upload session created",
		"post_id", post.ID,
		"user_id", userID,
		"mux_upload_id", slot.UploadID,
	)
	return &UploadSession{PostID: post.ID, UploadURL: slot.URL, MuxUploadID: slot.UploadID}, nil
}

// CompleteMetadata sets caption and/or duration on an owned post. It never
// touches status; the reconcilers own that field.
func (s *Service) CompleteMetadata(ctx context.Context, postID, userID uuid.UUID, caption *string, durationSec *int) (*Post, error) {
	post, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != userID {
		return nil, ErrForbidden
	}
	if durationSec != nil && (*durationSec < 1 || *durationSec > MaxDurationSec) {
		return nil, fmt.Errorf("%w: duration must be 1-%d seconds", ErrInvalidInput, MaxDurationSec)
	}
	if caption != nil && utf8.RuneCountInString(*caption) > MaxCaptionLen {
		return nil, fmt.Errorf("%w: caption longer than %d characters", ErrInvalidInput, MaxCaptionLen)
	}
	return s.repo.UpdateMetadata(ctx, postID, caption, durationSec)
}

// ProviderEvent is the distilled form of a provider webhook delivery.
type ProviderEvent struct {
	Type       string
	UploadID   string
	AssetID    string
	PlaybackID string
}

// HandleProviderEvent advances matching posts to ready. Irrelevant types,
// incomplete payloads and unresolvable playback ids are all silent no-ops:
// the provider delivers at least once and retries on non-2xx, so dropping
// is the only response that terminates redelivery. The update writes
// identical values on every delivery, which makes duplicates harmless.
func (s *Service) HandleProviderEvent(ctx context.Context, evt ProviderEvent) error {
	if evt.Type != eventAssetReady {
		metrics.WebhookEventsIgnoredTotal.WithLabelValues("type").Inc()
		return nil
	}
	if evt.UploadID == "" || evt.AssetID == "" {
		metrics.WebhookEventsIgnoredTotal.WithLabelValues("incomplete").Inc()
		s.logger.Warn("webhook ignored, upload or asset id missing", "type", evt.Type)
		return nil
	}

	playbackID := evt.PlaybackID
	if playbackID == "" {
		playbackID = s.provider.GetPlaybackID(ctx, evt.AssetID)
	}
	if playbackID == "" {
		metrics.WebhookEventsIgnoredTotal.WithLabelValues("no_playback_id").Inc()
		s.logger.Warn("webhook ignored, playback id unresolved", "mux_asset_id", evt.AssetID)
		return nil
	}

	n, err := s.repo.MarkReadyByUploadID(ctx, evt.UploadID, evt.AssetID, playbackID)
	if err != nil {
		return fmt.Errorf("mark ready by upload id: %w", err)
	}
	if n > 0 {
		metrics.PostsReadyTotal.WithLabelValues("webhook").Add(float64(n))
		s.logger.Info("post ready via webhook",
			"mux_upload_id", evt.UploadID,
			"mux_asset_id", evt.AssetID,
			"mux_playback_id", playbackID,
			"posts_updated", n,
		)
		s.announceReady(ctx, evt.UploadID, playbackID)
	}
	return nil
}

// ReconcilePending pulls provider state for every post stuck uploading and
// applies the same mark-ready path the webhook uses. It covers lost
// webhooks and environments without a reachable webhook endpoint. One
// post failing never stops the rest of the pass; unresolved posts are
// retried on the next pass.
func (s *Service) ReconcilePending(ctx context.Context) error {
	pending, err := s.repo.ListUploading(ctx)
	if err != nil {
		return fmt.Errorf("list uploading posts: %w", err)
	}
	metrics.ReconcilePassesTotal.Inc()

	for _, post := range pending {
		st := s.provider.GetUploadStatus(ctx, post.MuxUploadID)
		if st.Status == mux.UploadStatusError {
			metrics.ProviderPollErrorsTotal.Inc()
			continue
		}
		if st.Status != mux.UploadStatusAssetCreated || st.AssetID == "" {
			continue
		}
		playbackID := s.provider.GetPlaybackID(ctx, st.AssetID)
		if playbackID == "" {
			continue
		}

		n, err := s.repo.MarkReadyByUploadID(ctx, post.MuxUploadID, st.AssetID, playbackID)
		if err != nil {
			s.logger.Error("mark ready failed", "post_id", post.ID, "error", err)
			continue
		}
		if n > 0 {
			metrics.PostsReadyTotal.WithLabelValues("poll").Add(float64(n))
			s.logger.Info("post ready via poll",
				"post_id", post.ID,
				"mux_upload_id", post.MuxUploadID,
				"mux_playback_id", playbackID,
			)
			s.announceReady(ctx, post.MuxUploadID, playbackID)
		}
	}
	return nil
}

// announceReady publishes post.ready for every post behind the upload id.
// Best-effort: a broken broker must not fail reconciliation.
func (s *Service) announceReady(ctx context.Context, muxUploadID, playbackID string) {
	ready, err := s.repo.FindByUploadID(ctx, muxUploadID)
	if err != nil {
		s.logger.Warn("lookup after mark ready failed", "mux_upload_id", muxUploadID, "error", err)
		return
	}
	for _, post := range ready {
		e := events.NewPostReady(post.ID, post.UserID, playbackID)
		if err := s.publisher.PublishPostReady(ctx, e); err != nil {
			s.logger.Warn("publish post.ready failed", "post_id", post.ID, "error", err)
		}
	}
}

// GetFeed returns ready posts newest first. It reconciles pending uploads
// first so feed staleness is bounded by one pass, then pages with an
// opaque id cursor over (created_at, id) descending.
func (s *Service) GetFeed(ctx context.Context, limit int, cursor string) (*FeedPage, error) {
	if limit < 1 {
		limit = defaultFeedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}

	if err := s.ReconcilePending(ctx); err != nil {
		s.logger.Warn("reconcile before feed failed", "error", err)
	}

	var cursorID *uuid.UUID
	if cursor != "" {
		id, err := uuid.Parse(cursor)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed cursor", ErrInvalidInput)
		}
		cursorID = &id
	}

	items, err := s.repo.ListReadyPage(ctx, limit+1, cursorID)
	if err != nil {
		return nil, fmt.Errorf("list ready posts: %w", err)
	}

	page := &FeedPage{Posts: items}
	if len(items) > limit {
		page.Posts = items[:limit]
		next := page.Posts[limit-1].ID.String()
		page.NextCursor = &next
	}
	if page.Posts == nil {
		page.Posts = []*FeedItem{}
	}
	return page, nil
}

func (s *Service) GetPost(ctx context.Context, id uuid.UUID) (*FeedItem, error) {
	return s.repo.GetWithAuthor(ctx, id)
}
