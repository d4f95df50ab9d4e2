package events

import "context"

type Publisher interface {
	PublishPostReady(ctx context.Context, e PostReady) error
}
