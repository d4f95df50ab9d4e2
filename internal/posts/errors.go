package posts

import "errors"

var (
	ErrNotFound            = errors.New("post not found")
	ErrForbidden           = errors.New("post owned by another user")
	ErrQuotaExceeded       = errors.New("daily post limit reached")
	ErrInvalidInput        = errors.New("invalid input")
	ErrProviderUnavailable = errors.New("media provider unavailable")
)
