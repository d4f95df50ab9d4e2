package posts

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, userID uuid.UUID, muxUploadID string) (*Post, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Post, error)
	GetWithAuthor(ctx context.Context, id uuid.UUID) (*FeedItem, error)
	CountByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error)
	UpdateMetadata(ctx context.Context, id uuid.UUID, caption *string, durationSec *int) (*Post, error)
	ListUploading(ctx context.Context) ([]*Post, error)
	FindByUploadID(ctx context.Context, muxUploadID string) ([]*Post, error)

	// MarkReadyByUploadID sets asset id, playback id and the ready status on
	// every post carrying the given upload id, in a single statement. The
	// written values are the same for any caller resolving the same upload,
	// so webhook and poll reconcilers can race on it safely.
	MarkReadyByUploadID(ctx context.Context, muxUploadID, muxAssetID, muxPlaybackID string) (int64, error)

	// ListReadyPage returns up to limit ready posts with authors, newest
	// first, id as tiebreaker, seeking strictly past the cursor row.
	ListReadyPage(ctx context.Context, limit int, cursor *uuid.UUID) ([]*FeedItem, error)
}
