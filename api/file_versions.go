package api

import (
	"bitwise74/docs-api/internal/model"
	"net/http"

	"github.com/gin-gonic/gin"
)

// FileVersions lists every version of the lineage of a file, newest first
func (a *API) FileVersions(c *gin.Context) {
	f, _, ok := a.findFile(c, model.PermRead)
	if !ok {
		return
	}

	versions, err := a.Store.ListVersions(c.Request.Context(), f.LineageID())
	if err != nil {
		abortWithError(c, err, "Failed to list versions")
		return
	}

	out := make([]fileJSON, 0, len(versions))
	for _, v := range versions {
		out = append(out, a.fileJSON(v))
	}

	c.JSON(http.StatusOK, gin.H{
		"versions": out,
	})
}
