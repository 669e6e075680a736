package models

import "time"

// PasswordReset is the single live reset request for a user. A new
// forgot-password call overwrites it; a successful reset deletes it.
type PasswordReset struct {
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}
