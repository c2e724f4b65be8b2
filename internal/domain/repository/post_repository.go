package repository

import (
	"context"

	"travelog/internal/domain/entity"
)

// PostRepository exposes the read-only community feed.
type PostRepository interface {
	List(ctx context.Context) ([]*entity.Post, error)
}
