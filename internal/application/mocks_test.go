package application

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"travelog/internal/domain/entity"
)

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *entity.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) GetByResetToken(ctx context.Context, token string) (*entity.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, u *entity.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	args := m.Called(ctx, id, hash)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockTripRepository is a mock implementation of repository.TripRepository.
type MockTripRepository struct {
	mock.Mock
}

func (m *MockTripRepository) Create(ctx context.Context, t *entity.Trip) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTripRepository) GetByID(ctx context.Context, id string) (*entity.Trip, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Trip), args.Error(1)
}

func (m *MockTripRepository) ListRandom(ctx context.Context, limit int) ([]*entity.Trip, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Trip), args.Error(1)
}

func (m *MockTripRepository) ListAll(ctx context.Context) ([]*entity.Trip, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Trip), args.Error(1)
}

func (m *MockTripRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Trip, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Trip), args.Error(1)
}

func (m *MockTripRepository) Update(ctx context.Context, t *entity.Trip) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTripRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockMediaStorage is a mock implementation of MediaStorage.
type MockMediaStorage struct {
	mock.Mock
}

func (m *MockMediaStorage) Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	args := m.Called(ctx, objectPath, contentType, r)
	return args.String(0), args.Error(1)
}

func (m *MockMediaStorage) Delete(ctx context.Context, objectPath string) error {
	args := m.Called(ctx, objectPath)
	return args.Error(0)
}

// MockEmailPublisher is a mock implementation of EmailPublisher.
type MockEmailPublisher struct {
	mock.Mock
}

func (m *MockEmailPublisher) PublishJSON(ctx context.Context, body any) error {
	args := m.Called(ctx, body)
	return args.Error(0)
}
