package events

import (
	"time"

	"github.com/google/uuid"
)

const TypePostReady = "post.ready"

type PostReadyPayload struct {
	PostID        uuid.UUID `json:"post_id"`
	UserID        uuid.UUID `json:"user_id"`
	MuxPlaybackID string    `json:"mux_playback_id"`
}

type PostReady struct {
	Type      string           `json:"type"`
	Timestamp time.Time        `json:"timestamp"`
	Payload   PostReadyPayload `json:"payload"`
}

func NewPostReady(postID, userID uuid.UUID, muxPlaybackID string) PostReady {
	return PostReady{
		Type:      TypePostReady,
		Timestamp: time.Now().UTC(),
		Payload: PostReadyPayload{
			PostID:        postID,
			UserID:        userID,
			MuxPlaybackID: muxPlaybackID,
		},
	}
}
