package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"aleyauth/internal/models"
)

var userCols = []string{"id", "email", "fullname", "password_hash", "is_verified", "verification_token", "verification_expires_at", "created_at", "updated_at"}

func newUser() *models.User {
	token := "tok-123"
	expiry := time.Now().UTC().Add(24 * time.Hour)
	now := time.Now().UTC()
	return &models.User{
		ID:                  "u1",
		Email:               "a@b.com",
		Fullname:            "A B",
		PasswordHash:        "hash",
		VerificationToken:   &token,
		VerificationExpires: &expiry,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

func TestCreateUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewUserRepository(db)
	if err := repo.Create(context.Background(), newUser()); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

	repo := NewUserRepository(db)
	err = repo.Create(context.Background(), newUser())
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByEmailNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
		WithArgs("missing@b.com").
		WillReturnError(sql.ErrNoRows)

	repo := NewUserRepository(db)
	_, err = repo.GetByEmail(context.Background(), "missing@b.com")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetByVerificationToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	expiry := time.Now().UTC().Add(time.Hour)
	mock.ExpectQuery(`SELECT .+ FROM users WHERE verification_token = \$1`).
		WithArgs("tok-123").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u1", "a@b.com", nil, "hash", false, "tok-123", expiry, time.Now().UTC(), time.Now().UTC()))

	repo := NewUserRepository(db)
	u, err := repo.GetByVerificationToken(context.Background(), "tok-123")
	if err != nil {
		t.Fatalf("GetByVerificationToken: %v", err)
	}
	if u.Email != "a@b.com" {
		t.Fatalf("expected a@b.com, got %s", u.Email)
	}
	if u.Fullname != "" {
		t.Fatalf("expected empty fullname for NULL column, got %q", u.Fullname)
	}
	if u.VerificationToken == nil || *u.VerificationToken != "tok-123" {
		t.Fatalf("expected verification token, got %v", u.VerificationToken)
	}
}

func TestMarkVerified(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("UPDATE users").WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewUserRepository(db)
	if err := repo.MarkVerified(context.Background(), "u1"); err != nil {
		t.Fatalf("MarkVerified: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdatePasswordHashMissingUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("UPDATE users SET password_hash").WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewUserRepository(db)
	err = repo.UpdatePasswordHash(context.Background(), "missing", "newhash")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
