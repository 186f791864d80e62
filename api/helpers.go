package api

import (
	"bitwise74/docs-api/internal/access"
	"bitwise74/docs-api/internal/apperr"
	"bitwise74/docs-api/internal/model"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// abortWithError answers with the status matching err. Messages of internal
// errors are never shown to the client
func abortWithError(c *gin.Context, err error, logMsg string) {
	requestID := c.MustGet("requestID").(string)
	code := apperr.Status(err)

	msg := err.Error()
	switch {
	case code == http.StatusServiceUnavailable:
		msg = "Service unavailable, try again later"
	case !apperr.Public(err):
		msg = "Internal server error"
	}

	if code >= http.StatusInternalServerError {
		zap.L().Error(logMsg, zap.Error(err), zap.String("requestID", requestID))
	}

	c.AbortWithStatusJSON(code, gin.H{
		"error":     msg,
		"requestID": requestID,
	})
}

func abortBadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error":     msg,
		"requestID": c.MustGet("requestID").(string),
	})
}

// caller resolves who issued the request, including the share token of
// anonymous requests
func (a *API) caller(c *gin.Context) (access.Caller, error) {
	return a.Gate.Caller(c.Request.Context(), c.GetString("userID"), c.Query("share"))
}

// findFile loads a file and checks that the caller holds perm on it
func (a *API) findFile(c *gin.Context, perm model.PermType) (*model.File, access.Caller, bool) {
	caller, err := a.caller(c)
	if err != nil {
		abortWithError(c, err, "Failed to resolve caller")
		return nil, caller, false
	}

	f, err := a.Store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err, "Failed to fetch file")
		return nil, caller, false
	}

	if err := a.Gate.CheckFile(c.Request.Context(), f, caller, perm); err != nil {
		abortWithError(c, err, "Failed to check file access")
		return nil, caller, false
	}

	return f, caller, true
}

type fileJSON struct {
	*model.File
	Processing bool `json:"processing"`
}

func (a *API) fileJSON(f *model.File) fileJSON {
	return fileJSON{File: f, Processing: a.Pipeline.Processing().IsProcessing(f.ID)}
}
