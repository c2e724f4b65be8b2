package repository

import (
	"context"

	"travelog/internal/domain/entity"
)

// TripRepository defines the interface for trip-store operations.
// Listing variants join the owner identity (password excluded).
type TripRepository interface {
	Create(ctx context.Context, t *entity.Trip) error
	GetByID(ctx context.Context, id string) (*entity.Trip, error)
	ListRandom(ctx context.Context, limit int) ([]*entity.Trip, error)
	ListAll(ctx context.Context) ([]*entity.Trip, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.Trip, error)
	Update(ctx context.Context, t *entity.Trip) error
	Delete(ctx context.Context, id string) error
}
