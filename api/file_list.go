package api

import (
	"bitwise74/docs-api/internal/model"
	"net/http"

	"github.com/gin-gonic/gin"
)

// FileList returns the latest version of every file in the document given in
// id, or the orphan files of the caller when no document is given
func (a *API) FileList(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	ctx := c.Request.Context()

	caller, err := a.caller(c)
	if err != nil {
		abortWithError(c, err, "Failed to resolve caller")
		return
	}

	var documentID *string
	if id := c.Query("id"); id != "" {
		if err := a.Gate.CheckDocument(ctx, id, caller, model.PermRead); err != nil {
			abortWithError(c, err, "Failed to check document access")
			return
		}
		documentID = &id
	} else if !caller.Authenticated() {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":     "Authentication required to list orphan files",
			"requestID": requestID,
		})
		return
	}

	files, err := a.Store.ListByDocument(ctx, caller.UserID, documentID)
	if err != nil {
		abortWithError(c, err, "Failed to list files")
		return
	}

	out := make([]fileJSON, 0, len(files))
	for _, f := range files {
		out = append(out, a.fileJSON(f))
	}

	c.JSON(http.StatusOK, gin.H{
		"files": out,
	})
}
