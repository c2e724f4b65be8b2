package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"travelog/config"
	"travelog/internal/domain/entity"
	repo "travelog/internal/domain/repository"
	"travelog/pkg/helpers"
	"travelog/pkg/mailer"
	tpl "travelog/pkg/mailer/templates"
)

// AuthService owns the credential lifecycle: registration, email OTP
// verification, sign-in, token issuance, password reset and profile access.
type AuthService struct {
	Repo   repo.UserRepository
	Trips  repo.TripRepository
	Media  MediaStorage
	JWT    *helpers.JWTManager
	Redis  *redis.Client
	Pub    EmailPublisher
	Logger *logrus.Logger
	Cfg    *config.Config
}

func NewAuthService(r repo.UserRepository, trips repo.TripRepository, media MediaStorage, jwt *helpers.JWTManager, rdb *redis.Client, pub EmailPublisher, logger *logrus.Logger, cfg *config.Config) *AuthService {
	return &AuthService{Repo: r, Trips: trips, Media: media, JWT: jwt, Redis: rdb, Pub: pub, Logger: logger, Cfg: cfg}
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

func sessionKey(userID string) string {
	return "user:session:" + userID
}

// Sanitized profiles are cached under both keys so the authenticated and the
// public lookup share one entry per user. Mutations drop the keys.
const profileCacheTTL = 10 * time.Minute

func profileCacheKey(userID string) string {
	return "user:profile:" + userID
}

func publicProfileCacheKey(username string) string {
	return "user:profile:name:" + username
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Register creates an unverified user with a fresh OTP and emails the code.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*entity.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if len(username) < 3 || email == "" || len(password) < 8 {
		return nil, ErrInvalidInput
	}
	if existing, err := s.Repo.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, ErrEmailTaken
	}
	if existing, err := s.Repo.GetByUsername(ctx, username); err == nil && existing != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := helpers.HashPassword(password)
	if err != nil {
		return nil, err
	}
	otp, err := helpers.GenOTPCode()
	if err != nil {
		return nil, err
	}
	expires := time.Now().Add(s.Cfg.OTPTTL)

	u := &entity.User{
		Username:              username,
		Email:                 email,
		Password:              hash,
		VerifyEmailOTP:        otp,
		VerifyEmailOTPExpires: &expires,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		// A duplicate here means a concurrent signup won the race after the
		// pre-checks passed.
		switch {
		case errors.Is(err, repo.ErrDuplicateUsername):
			return nil, ErrUsernameTaken
		case errors.Is(err, repo.ErrDuplicate):
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.enqueueEmail(ctx, tpl.VerifyOTP, u.Email, tpl.EmailData{
		Name:      u.Username,
		Code:      otp,
		ExpiresAt: expires,
	})
	return u, nil
}

// VerifyEmailOTP marks the user verified, clears OTP material and signs the
// user in. Reusing a spent OTP fails because the stored code is cleared.
func (s *AuthService) VerifyEmailOTP(ctx context.Context, email, otp string) (*entity.User, TokenPair, error) {
	u, err := s.Repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil || u == nil {
		return nil, TokenPair{}, ErrUserNotFound
	}
	if u.VerifiedEmail {
		return nil, TokenPair{}, ErrAlreadyVerified
	}
	if u.VerifyEmailOTP == "" || u.VerifyEmailOTP != otp {
		return nil, TokenPair{}, ErrInvalidOTP
	}
	if u.VerifyEmailOTPExpires == nil || time.Now().After(*u.VerifyEmailOTPExpires) {
		return nil, TokenPair{}, ErrOTPExpired
	}

	u.VerifiedEmail = true
	u.ClearVerifyOTP()
	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, TokenPair{}, err
	}
	s.dropCachedProfile(ctx, u.ID, u.Username)

	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	s.enqueueEmail(ctx, tpl.Welcome, u.Email, tpl.EmailData{Name: u.Username})
	return u, pair, nil
}

// SignIn validates credentials. Unknown email and wrong password fail
// identically; unverified accounts are rejected regardless of the password.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*entity.User, TokenPair, error) {
	u, err := s.Repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil || u == nil {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	if !u.VerifiedEmail {
		return nil, TokenPair{}, ErrEmailNotVerified
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// IssueTokens generates the access/refresh pair and records a session in Redis.
func (s *AuthService) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, u.Username)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate access token failed")
		}
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, u.Username)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate refresh token failed")
		}
		return TokenPair{}, err
	}

	if s.Redis != nil {
		fields := map[string]any{
			"user_id":    u.ID,
			"username":   u.Username,
			"email":      u.Email,
			"logged_in":  true,
			"created_at": nowRFC3339(),
		}
		key := sessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, 24*time.Hour)
		if _, rErr := pipe.Exec(ctx); rErr != nil && s.Logger != nil {
			s.Logger.WithError(rErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}

	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

// Refresh rotates the token pair when the refresh token is still valid and
// the Redis session has not been dropped by a logout or account deletion.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*entity.User, TokenPair, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	if s.Redis != nil {
		if n, rErr := s.Redis.Exists(ctx, sessionKey(claims.UserID)).Result(); rErr == nil && n == 0 {
			return nil, TokenPair{}, ErrInvalidCredentials
		}
	}
	u, err := s.Repo.GetByID(ctx, claims.UserID)
	if err != nil || u == nil {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// ForgotPassword issues a fresh reset token, invalidating any previous one,
// and emails a reset link.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ErrInvalidInput
	}
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil || u == nil {
		return ErrUserNotFound
	}
	token, err := helpers.GenResetToken()
	if err != nil {
		return err
	}
	expires := time.Now().Add(s.Cfg.ResetTTL)
	u.ResetPasswordToken = token
	u.ResetPasswordExpires = &expires
	if err := s.Repo.Update(ctx, u); err != nil {
		return err
	}

	s.enqueueEmail(ctx, tpl.ResetPassword, u.Email, tpl.EmailData{
		Name:      u.Username,
		ResetURL:  s.Cfg.ResetPasswordURL + "?token=" + token,
		ExpiresAt: expires,
	})
	return nil
}

// ResetPassword consumes a reset token and stores the re-hashed password.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || len(newPassword) < 8 {
		return ErrInvalidInput
	}
	u, err := s.Repo.GetByResetToken(ctx, token)
	if err != nil || u == nil {
		return ErrInvalidResetToken
	}
	if u.ResetPasswordExpires == nil || time.Now().After(*u.ResetPasswordExpires) {
		return ErrInvalidResetToken
	}
	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return err
	}
	u.Password = hash
	u.ClearResetToken()
	return s.Repo.Update(ctx, u)
}

// ChangePassword re-hashes after checking the old password.
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword == "" || len(newPassword) < 8 {
		return ErrInvalidInput
	}
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return ErrUserNotFound
	}
	if !helpers.CompareHashAndPassword(u.Password, oldPassword) {
		return ErrIncorrectPassword
	}
	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.Repo.UpdatePassword(ctx, u.ID, hash)
}

// GetProfile returns the sanitized profile, served from the Redis cache when
// a fresh entry exists.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*entity.PublicUser, error) {
	if s.Redis != nil {
		var cached entity.PublicUser
		if ok, err := helpers.RedisGetJSON(ctx, s.Redis, profileCacheKey(userID), &cached); err == nil && ok {
			return &cached, nil
		}
	}
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}
	pub := u.Sanitized()
	s.cacheProfile(ctx, pub)
	return pub, nil
}

func (s *AuthService) GetPublicProfile(ctx context.Context, username string) (*entity.PublicUser, error) {
	if s.Redis != nil {
		var cached entity.PublicUser
		if ok, err := helpers.RedisGetJSON(ctx, s.Redis, publicProfileCacheKey(username), &cached); err == nil && ok {
			return &cached, nil
		}
	}
	u, err := s.Repo.GetByUsername(ctx, username)
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}
	pub := u.Sanitized()
	s.cacheProfile(ctx, pub)
	return pub, nil
}

func (s *AuthService) cacheProfile(ctx context.Context, pub *entity.PublicUser) {
	if s.Redis == nil {
		return
	}
	for _, key := range []string{profileCacheKey(pub.ID), publicProfileCacheKey(pub.Username)} {
		if err := helpers.RedisSetJSON(ctx, s.Redis, key, pub, profileCacheTTL); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("key", key).Warn("profile cache write failed")
		}
	}
}

func (s *AuthService) dropCachedProfile(ctx context.Context, userID, username string) {
	if s.Redis == nil {
		return
	}
	for _, key := range []string{profileCacheKey(userID), publicProfileCacheKey(username)} {
		if err := helpers.RedisDel(ctx, s.Redis, key); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("key", key).Warn("profile cache drop failed")
		}
	}
}

// UpdateProfileInput carries the allow-listed profile fields. Identity and
// credential fields are never updatable through this path.
type UpdateProfileInput struct {
	Name        string
	Gender      string
	Language    string
	Country     string
	City        string
	DOB         *time.Time
	Phone       string
	SocialLinks map[string]string
	AvatarURL   string
	CoverURL    string
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}
	if in.Gender != "" && in.Gender != entity.GenderMale && in.Gender != entity.GenderFemale && in.Gender != entity.GenderNA {
		return nil, ErrInvalidInput
	}
	if in.Name != "" {
		u.Name = in.Name
	}
	if in.Gender != "" {
		u.Gender = in.Gender
	}
	if in.Language != "" {
		u.Language = in.Language
	}
	if in.Country != "" {
		u.Country = in.Country
	}
	if in.City != "" {
		u.City = in.City
	}
	if in.DOB != nil {
		u.DOB = in.DOB
	}
	if in.Phone != "" {
		u.Phone = in.Phone
	}
	if in.SocialLinks != nil {
		u.SocialLinks = in.SocialLinks
	}
	if in.AvatarURL != "" {
		u.AvatarURL = in.AvatarURL
	}
	if in.CoverURL != "" {
		u.CoverURL = in.CoverURL
	}
	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, err
	}
	s.dropCachedProfile(ctx, u.ID, u.Username)
	return u, nil
}

// DeleteAccount removes the user, their trips (FK cascade) and, best-effort,
// every photo object the trips reference. A failed destroy is logged and must
// not block the deletion.
func (s *AuthService) DeleteAccount(ctx context.Context, userID string) error {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return ErrUserNotFound
	}

	trips, err := s.Trips.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, t := range trips {
		for _, p := range t.Photos {
			if dErr := s.Media.Delete(ctx, p.ObjectID); dErr != nil && s.Logger != nil {
				s.Logger.WithError(dErr).WithFields(logrus.Fields{
					"user_id": userID,
					"trip_id": t.ID,
					"object":  p.ObjectID,
				}).Warn("photo destroy failed, continuing account deletion")
			}
		}
	}

	if err := s.Repo.Delete(ctx, userID); err != nil {
		return err
	}
	s.dropCachedProfile(ctx, u.ID, u.Username)
	if s.Redis != nil {
		_ = s.Redis.Del(ctx, sessionKey(userID)).Err()
	}
	return nil
}

// Logout drops the Redis session. Tokens themselves stay stateless.
func (s *AuthService) Logout(ctx context.Context, userID string) {
	if s.Redis != nil {
		_ = s.Redis.Del(ctx, sessionKey(userID)).Err()
	}
}

func (s *AuthService) enqueueEmail(ctx context.Context, template, to string, data tpl.EmailData) {
	if s.Pub == nil || s.Cfg == nil || !s.Cfg.MailSendEnabled {
		return
	}
	data.Email = to
	data.Type = template
	data.AppName = s.Cfg.AppName
	data.CompanyName = s.Cfg.CompanyName
	job := mailer.EmailJob{To: to, Template: template, Data: tpl.ToMap(data)}
	if err := s.Pub.PublishJSON(ctx, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithFields(logrus.Fields{"to": to, "template": template}).Warn("failed to enqueue email")
	}
}
