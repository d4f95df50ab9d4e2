package posts

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	Uploading Status = "uploading"
	Ready     Status = "ready"
)

const (
	MaxCaptionLen  = 500
	MaxDurationSec = 60
)

// Post is one short-video entry. MuxAssetID and MuxPlaybackID are empty
// until the post transitions to Ready; the transition sets both at once and
// is never reversed.
type Post struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	Status        Status    `json:"status"`
	MuxUploadID   string    `json:"mux_upload_id"`
	MuxAssetID    *string   `json:"mux_asset_id"`
	MuxPlaybackID *string   `json:"mux_playback_id"`
	Caption       *string   `json:"caption"`
	DurationSec   *int      `json:"duration_sec"`
	CreatedAt     time.Time `json:"created_at"`
}

// UploadSession is what a client needs to push media bytes straight to the
// provider; the service itself never proxies the upload.
type UploadSession struct {
	PostID      uuid.UUID `json:"post_id"`
	UploadURL   string    `json:"upload_url"`
	MuxUploadID string    `json:"mux_upload_id"`
}

type Author struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	AvatarURL *string   `json:"avatar_url"`
}

type FeedItem struct {
	Post
	Author Author `json:"user"`
}

type FeedPage struct {
	Posts      []*FeedItem `json:"posts"`
	NextCursor *string     `json:"next_cursor,omitempty"`
}
