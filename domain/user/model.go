package user

import (
	"database/sql"
	"time"
)

type User struct {
	ID               int64          `db:"id"`
	Email            string         `db:"email"`
	Password         string         `db:"password"`
	TokenVersion     int64          `db:"token_version"`
	GmailAccessToken sql.NullString `db:"gmail_access_token"`
	GmailTokenExpiry sql.NullTime   `db:"gmail_token_expiry"`
	LastLogin        sql.NullTime   `db:"last_login"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type UpdateGmailTokenRequest struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"` // seconds, as delivered by the OAuth flow
}
