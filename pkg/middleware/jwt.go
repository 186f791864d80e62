package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// CookieName is the cookie carrying the JWT issued at login
const CookieName = "auth_token"

var errNoUser = errors.New("token has no user_id claim")

// UserID parses a signed auth token and returns the user it was issued to
func UserID(secret []byte, tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errNoUser
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", errNoUser
	}

	return userID, nil
}

// NewJWTMiddleware rejects requests without a valid auth_token cookie and
// sets userID for the handlers
func NewJWTMiddleware(secret []byte) gin.HandlerFunc {
	return jwtMiddleware(secret, true)
}

// NewOptionalJWTMiddleware lets anonymous requests through. A cookie that is
// present still has to be valid
func NewOptionalJWTMiddleware(secret []byte) gin.HandlerFunc {
	return jwtMiddleware(secret, false)
}

func jwtMiddleware(secret []byte, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.MustGet("requestID").(string)

		tokenStr, err := c.Cookie(CookieName)
		if err != nil {
			if !required {
				c.Next()
				return
			}

			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "No auth_token cookie",
				"requestID": requestID,
			})
			return
		}

		userID, err := UserID(secret, tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Authorization token invalid",
				"requestID": requestID,
			})

			zap.L().Debug("Failed to parse token", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}
