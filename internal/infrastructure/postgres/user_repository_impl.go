package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"travelog/internal/domain/entity"
	"travelog/internal/domain/repository"
)

const userColumns = `id, username, email, password_hash, name, gender, language, country, city,
	dob, phone, social_links, avatar_url, cover_url,
	verified_email, verify_email_otp, verify_email_otp_expires,
	reset_password_token, reset_password_expires, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	links, err := json.Marshal(orEmptyLinks(u.SocialLinks))
	if err != nil {
		return err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, name, gender, language, country, city,
			dob, phone, social_links, avatar_url, cover_url,
			verified_email, verify_email_otp, verify_email_otp_expires)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at, updated_at
	`, u.Username, u.Email, u.Password, u.Name, u.Gender, u.Language, u.Country, u.City,
		u.DOB, u.Phone, links, u.AvatarURL, u.CoverURL,
		u.VerifiedEmail, u.VerifyEmailOTP, u.VerifyEmailOTPExpires)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return mapPgError(err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getBy(ctx, "id = $1", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getBy(ctx, "email = $1", email)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.getBy(ctx, "username = $1", username)
}

func (r *UserRepository) GetByResetToken(ctx context.Context, token string) (*entity.User, error) {
	return r.getBy(ctx, "reset_password_token = $1 AND reset_password_token <> ''", token)
}

func (r *UserRepository) getBy(ctx context.Context, where string, arg any) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg)
	return scanUser(row)
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	links, err := json.Marshal(orEmptyLinks(u.SocialLinks))
	if err != nil {
		return err
	}
	u.UpdatedAt = time.Now()
	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET username = $1, email = $2, password_hash = $3, name = $4, gender = $5,
			language = $6, country = $7, city = $8, dob = $9, phone = $10,
			social_links = $11, avatar_url = $12, cover_url = $13,
			verified_email = $14, verify_email_otp = $15, verify_email_otp_expires = $16,
			reset_password_token = $17, reset_password_expires = $18, updated_at = $19
		WHERE id = $20
	`, u.Username, u.Email, u.Password, u.Name, u.Gender,
		u.Language, u.Country, u.City, u.DOB, u.Phone,
		links, u.AvatarURL, u.CoverURL,
		u.VerifiedEmail, u.VerifyEmailOTP, u.VerifyEmailOTPExpires,
		u.ResetPasswordToken, u.ResetPasswordExpires, u.UpdatedAt, u.ID)
	if err != nil {
		return mapPgError(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2
	`, hash, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	var links []byte
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.Name, &u.Gender,
		&u.Language, &u.Country, &u.City, &u.DOB, &u.Phone, &links,
		&u.AvatarURL, &u.CoverURL,
		&u.VerifiedEmail, &u.VerifyEmailOTP, &u.VerifyEmailOTPExpires,
		&u.ResetPasswordToken, &u.ResetPasswordExpires,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if len(links) > 0 {
		if err := json.Unmarshal(links, &u.SocialLinks); err != nil {
			return nil, err
		}
	}
	return u, nil
}

func orEmptyLinks(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch {
		case strings.Contains(pgErr.ConstraintName, "username"):
			return repository.ErrDuplicateUsername
		case strings.Contains(pgErr.ConstraintName, "email"):
			return repository.ErrDuplicateEmail
		}
		return repository.ErrDuplicate
	}
	return err
}

var _ repository.UserRepository = (*UserRepository)(nil)
