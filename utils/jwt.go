package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
)

// GenerateJWT issues a 24h HS256 session token. token_version is checked
// against the users table on every request so a logout invalidates all
// outstanding tokens at once.
func GenerateJWT(userID int64, email string, tokenVersion int64) (string, error) {
	jwtSecret := viper.GetString("JWT_SECRET")

	claims := jwt.MapClaims{
		"user_id":       userID,
		"email":         email,
		"token_version": tokenVersion,
		"exp":           time.Now().Add(time.Hour * 24).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}
