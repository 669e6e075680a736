package repository

import (
	"context"
	"database/sql"
	"time"

	"aleyauth/internal/models"
)

type PasswordResetRepository interface {
	Upsert(ctx context.Context, userID string, token string, expiresAt time.Time) error
	GetLive(ctx context.Context, token string) (*models.PasswordReset, error)
	Delete(ctx context.Context, token string) error
}

type passwordResetRepository struct {
	db *sql.DB
}

func NewPasswordResetRepository(db *sql.DB) PasswordResetRepository {
	return &passwordResetRepository{db: db}
}

// Upsert keeps at most one live reset request per user. Concurrent requests
// race on the same row; last write wins and only the latest token is valid.
func (r *passwordResetRepository) Upsert(ctx context.Context, userID string, token string, expiresAt time.Time) error {
	query := `
		INSERT INTO password_resets (user_id, token, expires_at, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET token = EXCLUDED.token, expires_at = EXCLUDED.expires_at
	`
	_, err := r.db.ExecContext(ctx, query, userID, token, expiresAt)
	return err
}

func (r *passwordResetRepository) GetLive(ctx context.Context, token string) (*models.PasswordReset, error) {
	// Both sides must stay timestamptz: NOW() AT TIME ZONE 'UTC' drops the
	// zone and gets re-read in the session timezone, shifting the cutoff.
	query := `
		SELECT user_id, token, expires_at, created_at
		FROM password_resets
		WHERE token = $1
		AND expires_at > NOW()
	`

	var pr models.PasswordReset
	err := r.db.QueryRowContext(ctx, query, token).Scan(&pr.UserID, &pr.Token, &pr.ExpiresAt, &pr.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &pr, nil
}

func (r *passwordResetRepository) Delete(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM password_resets WHERE token = $1`, token)
	return err
}
