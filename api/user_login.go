package api

import (
	"bitwise74/docs-api/pkg/middleware"
	"bitwise74/docs-api/pkg/security"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type loginBody struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

func (a *API) UserLogin(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data loginBody
	if err := c.ShouldBind(&data); err != nil {
		abortBadRequest(c, "Invalid request body")
		return
	}

	if data.Username == "" {
		abortBadRequest(c, "Username field can't be empty")
		return
	}

	if data.Password == "" {
		abortBadRequest(c, "Password field can't be empty")
		return
	}

	user, err := a.Auth.Authenticate(c.Request.Context(), data.Username, data.Password)
	if err != nil {
		if errors.Is(err, security.ErrInvalidCredentials) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Invalid credentials",
				"requestID": requestID,
			})
			return
		}

		abortWithError(c, err, "Failed to authenticate user")
		return
	}

	ttl := a.Config.JWT.TTL
	authToken, err := a.makeToken(jwt.MapClaims{
		"user_id": user.ID,
		"type":    "auth",
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(ttl).Unix(),
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to generate JWT auth token", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	secure := c.Request.TLS != nil
	c.SetCookie(middleware.CookieName, authToken, int(ttl.Seconds()), "/", "", secure, true)
	c.SetCookie("logged_in", "1", int(ttl.Seconds()), "/", "", secure, false)
	c.JSON(http.StatusOK, gin.H{
		"userID": user.ID,
	})
}

func (a *API) makeToken(claims jwt.MapClaims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(a.Config.JWT.Secret))
}
