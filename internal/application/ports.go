package application

import (
	"context"
	"io"
)

// MediaStorage is the external object-storage collaborator. Objects are
// addressed by an opaque path which doubles as the deletion id.
type MediaStorage interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (url string, err error)
	Delete(ctx context.Context, objectPath string) error
}

// EmailPublisher enqueues email jobs for the worker to deliver.
type EmailPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}
