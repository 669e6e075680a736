package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"aleyauth/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*models.User, error)
	MarkVerified(ctx context.Context, id string) error
	SetVerificationToken(ctx context.Context, id string, token string, expiresAt sql.NullTime) error
	UpdatePasswordHash(ctx context.Context, id string, passwordHash string) error
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, email, fullname, password_hash, is_verified, verification_token, verification_expires_at, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, fullname, password_hash, is_verified, verification_token, verification_expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, nullString(user.Fullname), user.PasswordHash, user.IsVerified,
		user.VerificationToken, user.VerificationExpires, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		// The unique index is the authoritative guard against concurrent
		// registrations with the same email.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *userRepository) GetByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE verification_token = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, token))
}

func (r *userRepository) MarkVerified(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET is_verified = TRUE,
			verification_token = NULL,
			verification_expires_at = NULL,
			updated_at = NOW()
		WHERE id = $1
	`
	return r.execOne(ctx, query, id)
}

func (r *userRepository) SetVerificationToken(ctx context.Context, id string, token string, expiresAt sql.NullTime) error {
	query := `
		UPDATE users
		SET verification_token = $1,
			verification_expires_at = $2,
			updated_at = NOW()
		WHERE id = $3
	`
	return r.execOne(ctx, query, token, expiresAt, id)
}

func (r *userRepository) UpdatePasswordHash(ctx context.Context, id string, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`
	return r.execOne(ctx, query, passwordHash, id)
}

func (r *userRepository) scanOne(row *sql.Row) (*models.User, error) {
	var u models.User
	var fullname sql.NullString
	var token sql.NullString
	var tokenExpires sql.NullTime
	err := row.Scan(&u.ID, &u.Email, &fullname, &u.PasswordHash, &u.IsVerified, &token, &tokenExpires, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.Fullname = fullname.String
	if token.Valid {
		u.VerificationToken = &token.String
	}
	if tokenExpires.Valid {
		u.VerificationExpires = &tokenExpires.Time
	}
	return &u, nil
}

func (r *userRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
