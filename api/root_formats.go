package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Formats lists the mime types the content pipeline extracts text from
func (a *API) Formats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"mimetypes": a.Deps.Formats.Mimes(),
	})
}
