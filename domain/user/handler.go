package user

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/echomail/echomail/config"
	"github.com/echomail/echomail/pkg/apperrors"
	"github.com/echomail/echomail/pkg/logger"
	"github.com/echomail/echomail/utils"
	"github.com/labstack/echo/v4"
)

func LoginHandler(c echo.Context) error {
	log := logger.Get().WithComponent("user")

	req := new(LoginRequest)
	if err := c.Bind(req); err != nil {
		return apperrors.RespondWithError(c, apperrors.NewBadRequest(
			apperrors.ErrCodeValidationFailed,
			"Invalid request payload.",
		))
	}

	var u User
	err := config.DB.Get(&u, `
		SELECT id, email, password, token_version
		FROM users
		WHERE email = ?`, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return apperrors.RespondWithError(c, apperrors.NewUnauthorized(
				apperrors.ErrCodeInvalidCredentials,
				"Invalid email or password.",
			))
		}
		log.Error("Failed to fetch user", err, logger.Email(req.Email))
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}

	if !utils.CheckPasswordHash(req.Password, u.Password) {
		return apperrors.RespondWithError(c, apperrors.NewUnauthorized(
			apperrors.ErrCodeInvalidCredentials,
			"Invalid email or password.",
		))
	}

	token, err := utils.GenerateJWT(u.ID, u.Email, u.TokenVersion)
	if err != nil {
		log.Error("Failed to generate token", err, logger.UserID(u.ID))
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeUnexpectedError,
			"Internal server error.",
			err,
		))
	}

	if _, err := config.DB.Exec("UPDATE users SET last_login = NOW() WHERE id = ?", u.ID); err != nil {
		log.Warn("Failed to update last login", logger.Err(err), logger.UserID(u.ID))
	}

	log.Info("User logged in", logger.UserID(u.ID))
	return c.JSON(http.StatusOK, LoginResponse{Token: token, Email: u.Email})
}

// LogoutHandler bumps token_version so every outstanding session token for
// the user stops validating.
func LogoutHandler(c echo.Context) error {
	userID := c.Get("user_id").(int64)

	_, err := config.DB.Exec("UPDATE users SET token_version = token_version + 1, updated_at = NOW() WHERE id = ?", userID)
	if err != nil {
		logger.Get().Error("Failed to revoke sessions", err, logger.UserID(userID))
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out."})
}

func ChangePasswordHandler(c echo.Context) error {
	log := logger.Get().WithComponent("user")
	userID := c.Get("user_id").(int64)
	log = log.WithUserID(userID)

	req := new(ChangePasswordRequest)
	if err := c.Bind(req); err != nil {
		return apperrors.RespondWithError(c, apperrors.NewBadRequest(
			apperrors.ErrCodeValidationFailed,
			"Invalid request payload.",
		))
	}

	if req.NewPassword == "" {
		return apperrors.RespondWithError(c, apperrors.NewBadRequest(
			apperrors.ErrCodeValidationFailed,
			"New password cannot be empty.",
		))
	}

	var hashedPassword string
	err := config.DB.Get(&hashedPassword, "SELECT password FROM users WHERE id = ?", userID)
	if err != nil {
		log.Error("Failed to fetch user password", err)
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}

	if !utils.CheckPasswordHash(req.OldPassword, hashedPassword) {
		return apperrors.RespondWithError(c, apperrors.NewUnauthorized(
			apperrors.ErrCodeInvalidCredentials,
			"The password you entered is incorrect.",
		))
	}

	newHashedPassword, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		log.Error("Failed to hash new password", err)
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeUnexpectedError,
			"Internal server error.",
			err,
		))
	}

	// Bumping token_version forces re-login on all other devices.
	_, err = config.DB.Exec("UPDATE users SET password = ?, token_version = token_version + 1, updated_at = NOW() WHERE id = ?", newHashedPassword, userID)
	if err != nil {
		log.Error("Failed to update password", err)
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}

	log.Info("Password changed successfully")
	return c.JSON(http.StatusOK, map[string]string{"message": "Password updated successfully."})
}

// UpdateGmailTokenHandler stores the Gmail OAuth access token obtained by
// the browser's OAuth flow. The send orchestrator reads it back per
// campaign.
func UpdateGmailTokenHandler(c echo.Context) error {
	log := logger.Get().WithComponent("user")
	userID := c.Get("user_id").(int64)

	req := new(UpdateGmailTokenRequest)
	if err := c.Bind(req); err != nil {
		return apperrors.RespondWithError(c, apperrors.NewBadRequest(
			apperrors.ErrCodeValidationFailed,
			"Invalid request payload.",
		))
	}

	if req.AccessToken == "" {
		return apperrors.RespondWithError(c, apperrors.NewBadRequest(
			apperrors.ErrCodeValidationFailed,
			"access_token is required.",
		))
	}

	expiry := time.Now().Add(time.Duration(req.ExpiresIn) * time.Second)
	_, err := config.DB.Exec(`
		UPDATE users
		SET gmail_access_token = ?, gmail_token_expiry = ?, updated_at = NOW()
		WHERE id = ?`, req.AccessToken, expiry, userID)
	if err != nil {
		log.Error("Failed to store gmail token", err, logger.UserID(userID))
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Gmail token updated."})
}

// GetUserMeHandler returns the signed-in user's profile including whether a
// usable Gmail token is on file.
func GetUserMeHandler(c echo.Context) error {
	userID := c.Get("user_id").(int64)

	var u User
	err := config.DB.Get(&u, `
		SELECT id, email, gmail_access_token, gmail_token_expiry, last_login, created_at, updated_at
		FROM users
		WHERE id = ?`, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return apperrors.RespondWithError(c, apperrors.NewNotFound(
				apperrors.ErrCodeUserNotFound,
				"User not found.",
			))
		}
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}

	gmailConnected := u.GmailAccessToken.Valid && u.GmailAccessToken.String != "" &&
		u.GmailTokenExpiry.Valid && u.GmailTokenExpiry.Time.After(time.Now())

	return c.JSON(http.StatusOK, map[string]interface{}{
		"id":              u.ID,
		"email":           u.Email,
		"gmail_connected": gmailConnected,
		"last_login":      u.LastLogin.Time,
		"created_at":      u.CreatedAt,
	})
}

// GmailToken returns the stored Gmail access token for userID, or an empty
// string when none is on file or the token has expired.
func GmailToken(userID int64) (string, error) {
	var u User
	err := config.DB.Get(&u, `
		SELECT id, email, gmail_access_token, gmail_token_expiry
		FROM users
		WHERE id = ?`, userID)
	if err != nil {
		return "", err
	}
	if !u.GmailAccessToken.Valid || u.GmailAccessToken.String == "" {
		return "", nil
	}
	if u.GmailTokenExpiry.Valid && !u.GmailTokenExpiry.Time.After(time.Now()) {
		return "", nil
	}
	return u.GmailAccessToken.String, nil
}
