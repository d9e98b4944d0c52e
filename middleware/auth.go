package middleware

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/echomail/echomail/config"
	"github.com/echomail/echomail/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/spf13/viper"
)

// JWTMiddleware validates the session token and puts user claims on the
// echo context for downstream handlers.
func JWTMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		jwtSecret := viper.GetString("JWT_SECRET")

		authHeader := c.Request().Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing or invalid token"})
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		segments := strings.Split(tokenString, ".")
		if len(segments) != 3 {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Malformed token"})
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(jwtSecret), nil
		})

		if err != nil || !token.Valid {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or expired token"})
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid token claims"})
		}

		userID := int64(claims["user_id"].(float64))
		c.Set("user_id", userID)
		c.Set("email", claims["email"].(string))

		// token_version must match the database so logout revokes every
		// outstanding session token at once.
		if tokenVersionClaim, ok := claims["token_version"]; ok {
			claimVersion := int64(tokenVersionClaim.(float64))
			var dbVersion int64
			err := config.DB.QueryRow("SELECT token_version FROM users WHERE id = ?", userID).Scan(&dbVersion)
			if err != nil {
				if err == sql.ErrNoRows {
					return c.JSON(http.StatusUnauthorized, map[string]string{"error": "User not found."})
				}
				logger.Get().Error("Failed to check token version", err, logger.UserID(userID))
				return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error."})
			}
			if claimVersion != dbVersion {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Session revoked. Please login again."})
			}
		}

		return next(c)
	}
}
