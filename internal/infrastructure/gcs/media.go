package gcs

import (
	"context"
	"io"

	"cloud.google.com/go/storage"

	"travelog/pkg/helpers"
)

// Storage adapts a GCS bucket to the application's MediaStorage contract.
// The object path doubles as the opaque deletion id kept on photo records.
type Storage struct {
	Client *storage.Client
	Bucket string
}

func New(client *storage.Client, bucket string) *Storage {
	return &Storage{Client: client, Bucket: bucket}
}

func (s *Storage) Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	return helpers.UploadObject(ctx, s.Client, s.Bucket, objectPath, contentType, r)
}

func (s *Storage) Delete(ctx context.Context, objectPath string) error {
	return helpers.DeleteObject(ctx, s.Client, s.Bucket, objectPath)
}
