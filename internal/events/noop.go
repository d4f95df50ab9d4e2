package events

import "context"

type NoopPublisher struct{}

func (NoopPublisher) PublishPostReady(context.Context, PostReady) error {
	return nil
}

var _ Publisher = (*NoopPublisher)(nil)
