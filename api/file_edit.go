package api

import (
	"bitwise74/docs-api/internal/model"
	"bitwise74/docs-api/pkg/validators"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type fileEditOpts struct {
	Name string `json:"name" form:"name"`
}

// FileEdit renames a file
func (a *API) FileEdit(c *gin.Context) {
	var data fileEditOpts
	if err := c.ShouldBind(&data); err != nil {
		abortBadRequest(c, "Malformed or invalid request body")
		return
	}

	data.Name = strings.TrimSpace(data.Name)
	if data.Name == "" {
		abortBadRequest(c, "No new name provided")
		return
	}

	if err := validators.FileNameValidator(data.Name); err != nil {
		abortBadRequest(c, err.Error())
		return
	}

	f, _, ok := a.findFile(c, model.PermWrite)
	if !ok {
		return
	}

	f.Name = &data.Name
	if err := a.Store.Update(c.Request.Context(), f); err != nil {
		abortWithError(c, err, "Failed to update file entry")
		return
	}

	c.JSON(http.StatusOK, a.fileJSON(f))
}
