package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"aleyauth/internal/auth"
	"aleyauth/internal/config"
	"aleyauth/internal/middleware"
	"aleyauth/internal/models"
	"aleyauth/internal/repository"
	"aleyauth/internal/services"
)

const (
	verificationTokenLifetime = 24 * time.Hour
	resetTokenLifetime        = 1 * time.Hour

	verificationSuccessPath = "/verification-success.html"
	verificationFailedPath  = "/verification-failed.html"

	// Anti-enumeration endpoints always answer with these bodies, whether or
	// not the account exists and whatever happens internally.
	genericResendMessage = "If the email exists and is not verified, a new verification link will be sent!"
	genericForgotMessage = "If the email exists, a password reset link will be sent!"
)

type AuthHandler struct {
	users  repository.UserRepository
	resets repository.PasswordResetRepository
	tokens *auth.TokenService
	mailer *services.Mailer
	cfg    *config.Config
	v      *validator.Validate
}

func NewAuthHandler(db *sql.DB, cfg *config.Config, tokens *auth.TokenService, mailer *services.Mailer) *AuthHandler {
	return &AuthHandler{
		users:  repository.NewUserRepository(db),
		resets: repository.NewPasswordResetRepository(db),
		tokens: tokens,
		mailer: mailer,
		cfg:    cfg,
		v:      validator.New(),
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if missing := missingFields(map[string]string{
		"email":            req.Email,
		"password":         req.Password,
		"confirm_password": req.ConfirmPassword,
	}); len(missing) > 0 {
		writeJSONError(w, http.StatusBadRequest, "Missing required fields: "+strings.Join(missing, ", "))
		return
	}

	if req.Password != req.ConfirmPassword {
		writeJSONError(w, http.StatusBadRequest, "Passwords do not match")
		return
	}

	if err := h.v.Struct(req); err != nil {
		writeJSONError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	verificationToken := uuid.NewString()
	tokenExpiry := time.Now().UTC().Add(verificationTokenLifetime)
	now := time.Now().UTC()

	u := &models.User{
		ID:                  uuid.NewString(),
		Email:               req.Email,
		Fullname:            req.Fullname,
		PasswordHash:        string(hash),
		IsVerified:          false,
		VerificationToken:   &verificationToken,
		VerificationExpires: &tokenExpiry,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := h.users.Create(r.Context(), u); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			writeJSONError(w, http.StatusBadRequest, "Email already registered")
			return
		}
		log.Error().Err(err).Msg("failed to create user")
		writeJSONError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	// Best effort: the account exists either way, and resend-verification
	// provides recovery if the email never arrives.
	message := "User registered successfully!"
	if err := h.mailer.SendVerificationEmail(u.Email, verificationToken); err != nil {
		log.Warn().Err(err).Str("user_id", u.ID).Msg("failed to send verification email")
		message += " However, the verification email could not be sent. You can request a new one later."
	} else {
		message += " A verification email has been sent. Please check your inbox."
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": message,
		"user_id": u.ID,
		"email":   u.Email,
	})
}

// VerifyEmail is link-clicked from the verification email, so it answers with
// redirects instead of JSON.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	u, err := h.users.GetByVerificationToken(r.Context(), token)
	if err != nil {
		http.Redirect(w, r, verificationFailedPath, http.StatusFound)
		return
	}

	if u.VerificationExpires != nil && u.VerificationExpires.Before(time.Now().UTC()) {
		http.Redirect(w, r, verificationFailedPath, http.StatusFound)
		return
	}

	// Idempotent: re-clicking the link after verification still succeeds.
	if u.IsVerified {
		http.Redirect(w, r, verificationSuccessPath, http.StatusFound)
		return
	}

	if err := h.users.MarkVerified(r.Context(), u.ID); err != nil {
		log.Error().Err(err).Str("user_id", u.ID).Msg("failed to mark user verified")
		http.Redirect(w, r, verificationFailedPath, http.StatusFound)
		return
	}

	http.Redirect(w, r, verificationSuccessPath, http.StatusFound)
}

func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req models.ResendVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeJSONError(w, http.StatusBadRequest, "Missing email")
		return
	}

	u, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		// Do not reveal whether the account exists, nor internal failures.
		if !errors.Is(err, repository.ErrNotFound) {
			log.Error().Err(err).Msg("failed to look up user for resend-verification")
		}
		writeJSONMessage(w, http.StatusOK, genericResendMessage)
		return
	}

	if u.IsVerified {
		writeJSONError(w, http.StatusBadRequest, "Email is already verified")
		return
	}

	token := uuid.NewString()
	expiry := sql.NullTime{Time: time.Now().UTC().Add(verificationTokenLifetime), Valid: true}
	if err := h.users.SetVerificationToken(r.Context(), u.ID, token, expiry); err != nil {
		log.Error().Err(err).Str("user_id", u.ID).Msg("failed to rotate verification token")
		writeJSONMessage(w, http.StatusOK, genericResendMessage)
		return
	}

	if err := h.mailer.SendVerificationEmail(u.Email, token); err != nil {
		log.Warn().Err(err).Str("user_id", u.ID).Msg("failed to send verification email")
	}

	writeJSONMessage(w, http.StatusOK, genericResendMessage)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if missing := missingFields(map[string]string{
		"email":    req.Email,
		"password": req.Password,
	}); len(missing) > 0 {
		writeJSONError(w, http.StatusBadRequest, "Missing required fields: "+strings.Join(missing, ", "))
		return
	}

	u, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSONError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		log.Error().Err(err).Msg("failed to look up user for login")
		writeJSONError(w, http.StatusInternalServerError, "Failed to verify credentials. Please try again later.")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		writeJSONError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if !u.IsVerified {
		writeJSON(w, http.StatusForbidden, map[string]any{
			"error":    "Email not verified. Please verify your email to continue.",
			"verified": false,
			"email":    u.Email,
		})
		return
	}

	signed, err := h.tokens.Issue(u.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", u.ID).Msg("failed to sign bearer token")
		writeJSONError(w, http.StatusInternalServerError, "Failed to generate authentication token")
		return
	}

	writeJSON(w, http.StatusOK, models.LoginResponse{
		Message: "Login successful!",
		Token:   signed,
		User: models.UserSummary{
			ID:         u.ID,
			Email:      u.Email,
			IsVerified: u.IsVerified,
			Fullname:   u.Fullname,
		},
	})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeJSONError(w, http.StatusBadRequest, "Missing required field: email")
		return
	}

	u, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Error().Err(err).Msg("failed to look up user for forgot-password")
		}
		writeJSONMessage(w, http.StatusOK, genericForgotMessage)
		return
	}

	resetToken := uuid.NewString()
	expiresAt := time.Now().UTC().Add(resetTokenLifetime)
	if err := h.resets.Upsert(r.Context(), u.ID, resetToken, expiresAt); err != nil {
		log.Error().Err(err).Str("user_id", u.ID).Msg("failed to store password reset request")
		writeJSONMessage(w, http.StatusOK, genericForgotMessage)
		return
	}

	if err := h.mailer.SendPasswordResetEmail(u.Email, resetToken); err != nil {
		log.Warn().Err(err).Str("user_id", u.ID).Msg("failed to send password reset email")
	}

	writeJSONMessage(w, http.StatusOK, genericForgotMessage)
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if missing := missingFields(map[string]string{
		"token":            req.Token,
		"password":         req.Password,
		"confirm_password": req.ConfirmPassword,
	}); len(missing) > 0 {
		writeJSONError(w, http.StatusBadRequest, "Missing required fields: "+strings.Join(missing, ", "))
		return
	}

	if req.Password != req.ConfirmPassword {
		writeJSONError(w, http.StatusBadRequest, "Passwords do not match")
		return
	}

	if err := h.v.Struct(req); err != nil {
		writeJSONError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	reset, err := h.resets.GetLive(r.Context(), req.Token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSONError(w, http.StatusBadRequest, "Invalid or expired reset token")
			return
		}
		log.Error().Err(err).Msg("failed to look up password reset request")
		writeJSONError(w, http.StatusInternalServerError, "Failed to reset password")
		return
	}

	u, err := h.users.GetByID(r.Context(), reset.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Error().Err(err).Msg("failed to resolve user for password reset")
		writeJSONError(w, http.StatusInternalServerError, "Failed to reset password")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to reset password")
		return
	}

	if err := h.users.UpdatePasswordHash(r.Context(), u.ID, string(hash)); err != nil {
		log.Error().Err(err).Str("user_id", u.ID).Msg("failed to update password hash")
		writeJSONError(w, http.StatusInternalServerError, "Failed to reset password")
		return
	}

	// Consume the token so a replayed reset fails as invalid-or-expired.
	if err := h.resets.Delete(r.Context(), req.Token); err != nil {
		log.Error().Err(err).Str("user_id", u.ID).Msg("failed to delete consumed reset token")
	}

	writeJSONMessage(w, http.StatusOK, "Password reset successful!")
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "Token not provided")
		return
	}

	writeJSON(w, http.StatusOK, models.ProfileResponse{
		ID:         u.ID,
		Fullname:   u.Fullname,
		Email:      u.Email,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	})
}

func missingFields(fields map[string]string) []string {
	var missing []string
	for _, name := range []string{"email", "password", "confirm_password", "token"} {
		if v, ok := fields[name]; ok && v == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			switch {
			case fe.Tag() == "email":
				return "Invalid email format"
			case fe.Tag() == "min" && fe.Field() == "Password":
				return "Password must be at least 6 characters long"
			}
		}
	}
	return "Invalid request"
}
