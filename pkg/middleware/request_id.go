// Package middleware contains any custom middleware used in the app
package middleware

import (
	"bitwise74/docs-api/pkg/util"
	"regexp"

	"github.com/gin-gonic/gin"
)

const RequestIDHeader = "X-Request-ID"

var validRequestID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// NewRequestIDMiddleware sets requestID for every request and echoes it in the
// X-Request-ID response header. A well formed ID sent by a proxy is kept so
// log lines can be matched across services
func NewRequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if !validRequestID.MatchString(id) {
			id = util.RandStr(10)
		}

		c.Set("requestID", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
