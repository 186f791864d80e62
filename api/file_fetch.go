package api

import (
	"bitwise74/docs-api/internal/model"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *API) FileFetch(c *gin.Context) {
	f, _, ok := a.findFile(c, model.PermRead)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, a.fileJSON(f))
}
