package application

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"travelog/config"
	"travelog/internal/domain/entity"
	repo "travelog/internal/domain/repository"
	"travelog/pkg/helpers"
	"travelog/pkg/mailer"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testConfig() *config.Config {
	return &config.Config{
		AppName:          "travelog",
		CompanyName:      "Travelog",
		OTPTTL:           10 * time.Minute,
		ResetTTL:         15 * time.Minute,
		ResetPasswordURL: "https://travelog.app/reset-password",
		MailSendEnabled:  true,
	}
}

func newAuthService(users *MockUserRepository, trips *MockTripRepository, media *MockMediaStorage, pub *MockEmailPublisher) *AuthService {
	jwt := helpers.NewJWTManager("test-access", "test-refresh", time.Hour, 24*time.Hour)
	return NewAuthService(users, trips, media, jwt, nil, pub, testLogger(), testConfig())
}

func newAuthServiceWithRedis(t *testing.T, users *MockUserRepository, trips *MockTripRepository) (*AuthService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	jwt := helpers.NewJWTManager("test-access", "test-refresh", time.Hour, 24*time.Hour)
	svc := NewAuthService(users, trips, new(MockMediaStorage), jwt, rdb, new(MockEmailPublisher), testLogger(), testConfig())
	return svc, mr
}

func hashOf(t *testing.T, plain string) string {
	t.Helper()
	h, err := helpers.HashPassword(plain)
	require.NoError(t, err)
	return h
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("success issues otp and enqueues email", func(t *testing.T) {
		users := new(MockUserRepository)
		pub := new(MockEmailPublisher)
		svc := newAuthService(users, new(MockTripRepository), new(MockMediaStorage), pub)

		users.On("GetByEmail", ctx, "maya@example.com").Return(nil, repo.ErrNotFound)
		users.On("GetByUsername", ctx, "maya").Return(nil, repo.ErrNotFound)
		users.On("Create", ctx, mock.AnythingOfType("*entity.User")).
			Run(func(args mock.Arguments) {
				args.Get(1).(*entity.User).ID = "user-1"
			}).Return(nil)
		pub.On("PublishJSON", ctx, mock.AnythingOfType("mailer.EmailJob")).Return(nil)

		u, err := svc.Register(ctx, "maya", "Maya@Example.com ", "strongpass")
		require.NoError(t, err)

		assert.Equal(t, "user-1", u.ID)
		assert.Equal(t, "maya@example.com", u.Email)
		assert.False(t, u.VerifiedEmail)
		assert.Len(t, u.VerifyEmailOTP, 6)
		require.NotNil(t, u.VerifyEmailOTPExpires)
		assert.WithinDuration(t, time.Now().Add(10*time.Minute), *u.VerifyEmailOTPExpires, time.Second)
		assert.NotEqual(t, "strongpass", u.Password)

		pub.AssertCalled(t, "PublishJSON", ctx, mock.MatchedBy(func(body any) bool {
			job, ok := body.(mailer.EmailJob)
			return ok && job.To == "maya@example.com" && job.Template == "verify_otp"
		}))
		users.AssertExpectations(t)
	})

	t.Run("email already taken", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := newAuthService(users, new(MockTripRepository), new(MockMediaStorage), new(MockEmailPublisher))

		users.On("GetByEmail", ctx, "maya@example.com").Return(&entity.User{ID: "other"}, nil)

		_, err := svc.Register(ctx, "maya", "maya@example.com", "strongpass")
		assert.ErrorIs(t, err, ErrEmailTaken)
		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("username already taken", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := newAuthService(users, new(MockTripRepository), new(MockMediaStorage), new(MockEmailPublisher))

		users.On("GetByEmail", ctx, "maya@example.com").Return(nil, repo.ErrNotFound)
		users.On("GetByUsername", ctx, "maya").Return(&entity.User{ID: "other"}, nil)

		_, err := svc.Register(ctx, "maya", "maya@example.com", "strongpass")
		assert.ErrorIs(t, err, ErrUsernameTaken)
	})

	t.Run("create race reports the violated column", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := newAuthService(users, new(MockTripRepository), new(MockMediaStorage), new(MockEmailPublisher))

		users.On("GetByEmail", ctx, "maya@example.com").Return(nil, repo.ErrNotFound)
		users.On("GetByUsername", ctx, "maya").Return(nil, repo.ErrNotFound)
		users.On("Create", ctx, mock.AnythingOfType("*entity.User")).Return(repo.ErrDuplicateUsername).Once()
		users.On("Create", ctx, mock.AnythingOfType("*entity.User")).Return(repo.ErrDuplicateEmail).Once()
		users.On("Create", ctx, mock.AnythingOfType("*entity.User")).Return(repo.ErrDuplicate).Once()

		_, err := svc.Register(ctx, "maya", "maya@example.com", "strongpass")
		assert.ErrorIs(t, err, ErrUsernameTaken)

		_, err = svc.Register(ctx, "maya", "maya@example.com", "strongpass")
		assert.ErrorIs(t, err, ErrEmailTaken)

		_, err = svc.Register(ctx, "maya", "maya@example.com", "strongpass")
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("rejects weak input", func(t *testing.T) {
		svc := newAuthService(new(MockUserRepository), new(MockTripRepository), new(MockMediaStorage), new(MockEmailPublisher))

		_, err := svc.Register(ctx, "ab", "maya@example.com", "strongpass")
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = svc.Register(ctx, "maya", "maya@example.com", "short")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestAuthService_VerifyEmailOTP(t *testing.T) {
	ctx := context.Background()
	future := time.Now().Add(5 * time.Minute)
	past := time.Now().Add(-5 * time.Minute)

	t.Run("success verifies, clears otp and signs in", func(t *testing.T) {
		users := new(MockUserRepository)
		pub := new(MockEmailPublisher)
		svc := newAuthService(users, new(MockTripRepository), new(MockMediaStorage), pub)

		u := &entity.User{
			ID: "user-1", Username: "maya", Email: "maya@example.com",
			VerifyEmailOTP: "123456", VerifyEmailOTPExpires: &future,
		}
		users.On("GetByEmail", ctx, "maya@example.com").Return(u, nil)
		users.On("Update", ctx, u).Return(nil)
		pub.On("PublishJSON", ctx, mock.Anything).Return(nil)

		got, pair, err := svc.VerifyEmailOTP(ctx, "maya@example.com", "123456")
		require.NoError(t, err)

		assert.True(t, got.VerifiedEmail)
		assert.Empty(t, got.VerifyEmailOTP)
		assert.Nil(t, got.VerifyEmailOTPExpires)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
	})

	t.Run("wrong code", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := newAuthService(users, new(MockTripRepository), new(MockMediaStorage), new(MockEmailPublisher))

		u := &entity.User{ID: "user-1", Email: "maya@example.com", VerifyEmailOTP: "123456", VerifyEmailOTPExpires: &future}
		users.On("GetByEmail", ctx, "maya@example.com").Return(u, nil)

		_, _, err := svc.VerifyEmailOTP(ctx, "maya@example.com", "654321")
		assert.ErrorIs(t, err, ErrInvalidOTP)
		users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("expired code", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := newAuthService(users, new(MockTripRepository), new(MockMediaStorage), new(MockEmailPublisher))

		u := &entity.User{ID: "user-1", Email: "maya@example.com", VerifyEmailOTP: "123456", VerifyEmailOTPExpires: &past}
		users.On("GetByEmail", ctx, "maya@example.com").Return(u, nil)

		_, _, err := svc.VerifyEmailOTP(ctx, "maya@example.com", "123456")
		assert.ErrorIs(t, err, ErrOTPExpired)
	})

	t.Run("already verified", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := newAuthService(users, new(MockTripRepository), new(MockMediaStorage), new(MockEmailPublisher))

		u := &entity.User{ID: "user-1", Email: "maya@example.com", VerifiedEmail: true}
		users.On("GetByEmail", ctx, "maya@example.com").Return(u, nil)

		_, _, err := svc.VerifyEmailOTP(ctx, "maya@example.com", "123456")
		assert.ErrorIs(t, err, ErrAlreadyVerified)
	})

	t.Run("spent otp cannot be replayed", func(t *testing.T) {
		// After a successful verify the stored code is empty, so even the
		// correct code no longer matches.
		users := new(MockUserRepository)
		svc := newAuthService(users, new(MockTripRepository), new(MockMediaStorage), new(MockEmailPublisher))

		u := &entity.User{ID: "user-1", Email: "maya@example.com", VerifyEmailOTP: ""}
		users.On("GetByEmail", ctx, "maya@example.com").Return(u, nil)

		_, _, err := svc.VerifyEmailOTP(ctx, "maya@example.com", "123456")
		assert.ErrorIs(t, err, ErrInvalidOTP)
	})
}

func TestAuthService_SignIn(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := newAuthService(users, new(MockTripRepository), new(MockMediaStorage), new(MockEmailPublisher))

		u := &entity.User{ID: "user-1", Username: "maya", Email: "maya@example.com",
			Password: hashOf(t, "strongpass"), VerifiedEmail: true}
		users.On("GetByEmail", ctx, "maya@example.com").Return(u, nil)

		got, pair, err := svc.SignIn(ctx, "maya@example.com", "strongpass")
		require.NoError(t, err)
		assert.Equal(t, "user-1", got.ID)
		assert.NotEmpty(t, pair.AccessToken)
	})

	t.Run("unknown email and wrong password fail identically", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := newAuthService(users, new(MockTripRepository), new(MockMediaStorage), new(MockEmailPublisher))

		users.On("GetByEmail", ctx, "ghost@example.com").Return(nil, repo.ErrNotFound)
		u := &entity.User{ID: "user-1", Email: "maya@example.com", Password: hashOf(t, "strongpass"), VerifiedEmail: true}
		users.On("GetByEmail", ctx, "maya@example.com").Return(u, nil)

		_, _, errUnknown := svc.SignIn(ctx, "ghost@example.com", "whatever")
		_, _, errWrong := svc.SignIn(ctx, "maya@example.com", "wrongpass")
		assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
		assert.ErrorIs(t, errWrong, ErrInvalidCredentials)
	})

	t.Run("unverified account rejected even with correct password", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := newAuthService(users, new(MockTripRepository), new(MockMediaStorage), new(MockEmailPublisher))

		u := &entity.User{ID: "user-1", Email: "maya@example.com", Password: hashOf(t, "strongpass")}
		users.On("GetByEmail", ctx, "maya@example.com").Return(u, nil)

		_, _, err := svc.SignIn(ctx, "maya@example.com", "strongpass")
		assert.ErrorIs(t, err, ErrEmailNotVerified)
	})
}

func TestAuthService_Refresh(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	svc := newAuthService(users, new(MockTripRepository), new(MockMediaStorage), new(MockEmailPublisher))

	u := &entity.User{ID: "user-1", Username: "maya", Email: "maya@example.com", VerifiedEmail: true}
	users.On("GetByID", ctx, "user-1").Return(u, nil)

	refresh, _, err := svc.JWT.GenerateRefreshToken("user-1", "maya")
	require.NoError(t, err)

	got, pair, err := svc.Refresh(ctx, refresh)
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.ID)
	assert.NotEmpty(t, pair.AccessToken)

	_, _, err = svc.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_ForgotPassword(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	pub := new(MockEmailPublisher)
	svc := newAuthService(users, new(MockTripRepository), new(MockMediaStorage), pub)

	u := &entity.User{ID: "user-1", Username: "maya", Email: "maya@example.com"}
	users.On("GetByEmail", ctx, "maya@example.com").Return(u, nil)
	users.On("Update", ctx, u).Return(nil)
	pub.On("PublishJSON", ctx, mock.Anything).Return(nil)

	require.NoError(t, svc.ForgotPassword(ctx, "maya@example.com"))

	assert.Len(t, u.ResetPasswordToken, 2*helpers.ResetTokenBytes)
	require.NotNil(t, u.ResetPasswordExpires)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), *u.ResetPasswordExpires, time.Second)

	// Re-requesting replaces the token.
	old := u.ResetPasswordToken
	require.NoError(t, svc.ForgotPassword(ctx, "maya@example.com"))
	assert.NotEqual(t, old, u.ResetPasswordToken)
}

func TestAuthService_ResetPassword(t *testing.T) {
	ctx := context.Background()
	future := time.Now().Add(5 * time.Minute)
	past := time.Now().Add(-5 * time.Minute)

	t.Run("success consumes token", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := newAuthService(users, new(MockTripRepository), new(MockMediaStorage), new(MockEmailPublisher))

		u := &entity.User{ID: "user-1", Password: hashOf(t, "oldpass99"),
			ResetPasswordToken: "tok", ResetPasswordExpires: &future}
		users.On("GetByResetToken", ctx, "tok").Return(u, nil)
		users.On("Update", ctx, u).Return(nil)

		require.NoError(t, svc.ResetPassword(ctx, "tok", "brandnewpass"))
		assert.True(t, helpers.CompareHashAndPassword(u.Password, "brandnewpass"))
		assert.Empty(t, u.ResetPasswordToken)
		assert.Nil(t, u.ResetPasswordExpires)
	})

	t.Run("expired token", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := newAuthService(users, new(MockTripRepository), new(MockMediaStorage), new(MockEmailPublisher))

		u := &entity.User{ID: "user-1", ResetPasswordToken: "tok", ResetPasswordExpires: &past}
		users.On("GetByResetToken", ctx, "tok").Return(u, nil)

		assert.ErrorIs(t, svc.ResetPassword(ctx, "tok", "brandnewpass"), ErrInvalidResetToken)
	})

	t.Run("unknown token", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := newAuthService(users, new(MockTripRepository), new(MockMediaStorage), new(MockEmailPublisher))

		users.On("GetByResetToken", ctx, "nope").Return(nil, repo.ErrNotFound)
		assert.ErrorIs(t, svc.ResetPassword(ctx, "nope", "brandnewpass"), ErrInvalidResetToken)
	})

	t.Run("weak password rejected before lookup", func(t *testing.T) {
		svc := newAuthService(new(MockUserRepository), new(MockTripRepository), new(MockMediaStorage), new(MockEmailPublisher))
		assert.ErrorIs(t, svc.ResetPassword(ctx, "tok", "short"), ErrInvalidInput)
	})
}

func TestAuthService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	svc := newAuthService(users, new(MockTripRepository), new(MockMediaStorage), new(MockEmailPublisher))

	u := &entity.User{ID: "user-1", Password: hashOf(t, "oldpass99")}
	users.On("GetByID", ctx, "user-1").Return(u, nil)
	users.On("UpdatePassword", ctx, "user-1", mock.AnythingOfType("string")).Return(nil)

	assert.ErrorIs(t, svc.ChangePassword(ctx, "user-1", "wrongold", "brandnewpass"), ErrIncorrectPassword)
	require.NoError(t, svc.ChangePassword(ctx, "user-1", "oldpass99", "brandnewpass"))
	users.AssertCalled(t, "UpdatePassword", ctx, "user-1", mock.AnythingOfType("string"))
}

func TestAuthService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	svc := newAuthService(users, new(MockTripRepository), new(MockMediaStorage), new(MockEmailPublisher))

	u := &entity.User{ID: "user-1", Username: "maya", Email: "maya@example.com", Name: "Maya"}
	users.On("GetByID", ctx, "user-1").Return(u, nil)
	users.On("Update", ctx, u).Return(nil)

	got, err := svc.UpdateProfile(ctx, "user-1", UpdateProfileInput{
		Name:   "Maya L.",
		Gender: entity.GenderFemale,
		City:   "Lisbon",
	})
	require.NoError(t, err)
	assert.Equal(t, "Maya L.", got.Name)
	assert.Equal(t, entity.GenderFemale, got.Gender)
	assert.Equal(t, "Lisbon", got.City)
	// Untouched fields keep their values.
	assert.Equal(t, "maya@example.com", got.Email)

	_, err = svc.UpdateProfile(ctx, "user-1", UpdateProfileInput{Gender: "other"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAuthService_DeleteAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("destroy failures do not block deletion", func(t *testing.T) {
		users := new(MockUserRepository)
		trips := new(MockTripRepository)
		media := new(MockMediaStorage)
		svc := newAuthService(users, trips, media, new(MockEmailPublisher))

		u := &entity.User{ID: "user-1"}
		owned := []*entity.Trip{
			{ID: "trip-1", UserID: "user-1", Photos: []entity.Photo{
				{URL: "https://cdn/a.jpg", ObjectID: "trips/user-1/a.jpg"},
				{URL: "https://cdn/b.jpg", ObjectID: "trips/user-1/b.jpg"},
			}},
		}
		users.On("GetByID", ctx, "user-1").Return(u, nil)
		trips.On("ListByUser", ctx, "user-1").Return(owned, nil)
		media.On("Delete", ctx, "trips/user-1/a.jpg").Return(errors.New("gcs down"))
		media.On("Delete", ctx, "trips/user-1/b.jpg").Return(nil)
		users.On("Delete", ctx, "user-1").Return(nil)

		require.NoError(t, svc.DeleteAccount(ctx, "user-1"))
		users.AssertCalled(t, "Delete", ctx, "user-1")
		media.AssertNumberOfCalls(t, "Delete", 2)
	})

	t.Run("unknown user", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := newAuthService(users, new(MockTripRepository), new(MockMediaStorage), new(MockEmailPublisher))

		users.On("GetByID", ctx, "ghost").Return(nil, repo.ErrNotFound)
		assert.ErrorIs(t, svc.DeleteAccount(ctx, "ghost"), ErrUserNotFound)
	})
}

func cachedUser() *entity.User {
	return &entity.User{
		ID:            "user-1",
		Username:      "maya",
		Email:         "maya@example.com",
		Name:          "Maya",
		VerifiedEmail: true,
	}
}

func TestAuthService_ProfileCache(t *testing.T) {
	ctx := context.Background()

	t.Run("second lookup is served from redis", func(t *testing.T) {
		users := new(MockUserRepository)
		svc, _ := newAuthServiceWithRedis(t, users, new(MockTripRepository))

		users.On("GetByID", ctx, "user-1").Return(cachedUser(), nil).Once()

		first, err := svc.GetProfile(ctx, "user-1")
		require.NoError(t, err)
		second, err := svc.GetProfile(ctx, "user-1")
		require.NoError(t, err)

		assert.Equal(t, first, second)
		users.AssertNumberOfCalls(t, "GetByID", 1)
	})

	t.Run("public lookup shares the cached entry", func(t *testing.T) {
		users := new(MockUserRepository)
		svc, mr := newAuthServiceWithRedis(t, users, new(MockTripRepository))

		users.On("GetByUsername", ctx, "maya").Return(cachedUser(), nil).Once()

		pub, err := svc.GetPublicProfile(ctx, "maya")
		require.NoError(t, err)
		assert.Equal(t, "user-1", pub.ID)
		assert.True(t, mr.Exists("user:profile:user-1"))
		assert.True(t, mr.Exists("user:profile:name:maya"))

		again, err := svc.GetProfile(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, "maya", again.Username)
		users.AssertNotCalled(t, "GetByID", ctx, "user-1")
	})

	t.Run("cached payload holds no credential material", func(t *testing.T) {
		users := new(MockUserRepository)
		svc, mr := newAuthServiceWithRedis(t, users, new(MockTripRepository))

		u := cachedUser()
		u.Password = hashOf(t, "strongpass")
		u.VerifyEmailOTP = "123456"
		u.ResetPasswordToken = "deadbeef"
		users.On("GetByID", ctx, "user-1").Return(u, nil).Once()

		_, err := svc.GetProfile(ctx, "user-1")
		require.NoError(t, err)

		raw, err := mr.Get("user:profile:user-1")
		require.NoError(t, err)
		assert.NotContains(t, raw, u.Password)
		assert.NotContains(t, raw, "123456")
		assert.NotContains(t, raw, "deadbeef")
	})

	t.Run("profile update drops both keys", func(t *testing.T) {
		users := new(MockUserRepository)
		svc, mr := newAuthServiceWithRedis(t, users, new(MockTripRepository))

		users.On("GetByID", ctx, "user-1").Return(cachedUser(), nil)
		users.On("Update", ctx, mock.AnythingOfType("*entity.User")).Return(nil)

		_, err := svc.GetProfile(ctx, "user-1")
		require.NoError(t, err)
		require.True(t, mr.Exists("user:profile:user-1"))

		_, err = svc.UpdateProfile(ctx, "user-1", UpdateProfileInput{City: "Kyoto"})
		require.NoError(t, err)
		assert.False(t, mr.Exists("user:profile:user-1"))
		assert.False(t, mr.Exists("user:profile:name:maya"))
	})

	t.Run("account deletion drops the cache", func(t *testing.T) {
		users := new(MockUserRepository)
		trips := new(MockTripRepository)
		svc, mr := newAuthServiceWithRedis(t, users, trips)

		users.On("GetByID", ctx, "user-1").Return(cachedUser(), nil)
		trips.On("ListByUser", ctx, "user-1").Return([]*entity.Trip{}, nil)
		users.On("Delete", ctx, "user-1").Return(nil)

		_, err := svc.GetProfile(ctx, "user-1")
		require.NoError(t, err)
		require.True(t, mr.Exists("user:profile:user-1"))

		require.NoError(t, svc.DeleteAccount(ctx, "user-1"))
		assert.False(t, mr.Exists("user:profile:user-1"))
		assert.False(t, mr.Exists("user:profile:name:maya"))
	})
}
