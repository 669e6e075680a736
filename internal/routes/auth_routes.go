package routes

import (
	"database/sql"

	"github.com/go-chi/chi/v5"

	"aleyauth/internal/auth"
	"aleyauth/internal/config"
	"aleyauth/internal/handlers"
	"aleyauth/internal/middleware"
	"aleyauth/internal/repository"
	"aleyauth/internal/services"
)

func RegisterAuthRoutes(router chi.Router, db *sql.DB, cfg *config.Config) {
	sender := &services.SMTPSender{
		Host:   cfg.SMTPHost,
		Port:   cfg.SMTPPort,
		User:   cfg.SMTPUser,
		Pass:   cfg.SMTPPassword,
		From:   cfg.SMTPFrom,
		UseTLS: cfg.SMTPUseTLS,
	}
	mailer := services.NewMailer(sender, cfg.AppBaseURL)
	tokens := auth.NewTokenService(cfg.JWTSecret)
	authHandler := handlers.NewAuthHandler(db, cfg, tokens, mailer)

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Get("/verify-email/{token}", authHandler.VerifyEmail)
		r.Post("/resend-verification", authHandler.ResendVerification)
		r.Post("/login", authHandler.Login)
		r.Post("/forgot-password", authHandler.ForgotPassword)
		r.Post("/reset-password", authHandler.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(tokens, repository.NewUserRepository(db)))
			r.Get("/profile", authHandler.Profile)
		})
	})
}
