// internal/config/config.go
package config

import (
	"errors"
	"net/url"
	"os"
	"strings"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string

	// JWTSecret signs bearer tokens. Required in production.
	JWTSecret string

	// AppBaseURL is the externally reachable base for links embedded in
	// verification and password reset emails.
	AppBaseURL string

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	SMTPUseTLS   bool
}

var (
	ErrMissingSecret      = errors.New("JWT_SECRET is required in production")
	ErrMissingDatabaseURL = errors.New("DATABASE_URL is required in production")
)

// Load reads configuration from the environment. In a production posture the
// signing secret and database connection string must be present; development
// falls back to local defaults.
func Load() (*Config, error) {
	env := getEnv("ENVIRONMENT", "development")

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		if env == "production" {
			return nil, ErrMissingDatabaseURL
		}
		host := getEnv("PSQL_HOST", "localhost")
		port := getEnv("PSQL_PORT", "5432")
		user := getEnv("PSQL_USER", "postgres")
		password := getEnv("PSQL_PASSWORD", "postgres")
		dbName := getEnv("PSQL_DB_NAME", "aley_auth")

		u := &url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(user, password),
			Host:   host + ":" + port,
			Path:   dbName,
		}
		q := u.Query()
		q.Set("sslmode", "disable")
		u.RawQuery = q.Encode()
		databaseURL = u.String()
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if env == "production" {
			return nil, ErrMissingSecret
		}
		secret = "dev_secret_key"
	}

	smtpFrom := os.Getenv("SMTP_FROM")
	if smtpFrom == "" {
		smtpFrom = os.Getenv("SMTP_USER")
	}

	return &Config{
		Port:         getEnv("PORT", "8080"),
		Environment:  env,
		DatabaseURL:  databaseURL,
		JWTSecret:    secret,
		AppBaseURL:   strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:8080"), "/"),
		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     smtpFrom,
		SMTPUseTLS:   parseBool(getEnv("SMTP_USE_TLS", "false")),
	}, nil
}

// IsProduction reports whether the service runs in a production posture.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "true", "1", "t", "yes":
		return true
	}
	return false
}
