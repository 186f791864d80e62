package api

import (
	"bitwise74/docs-api/internal/event"
	"bitwise74/docs-api/internal/model"
	"net/http"

	"github.com/gin-gonic/gin"
)

// FileDelete removes a file with every one of its versions
func (a *API) FileDelete(c *gin.Context) {
	userID := c.MustGet("userID").(string)

	f, _, ok := a.findFile(c, model.PermWrite)
	if !ok {
		return
	}

	outbox := event.NewOutbox()
	if err := a.Store.Delete(c.Request.Context(), f.ID, userID, outbox); err != nil {
		outbox.Discard()
		abortWithError(c, err, "Failed to delete file")
		return
	}

	a.Bus.Flush(outbox)

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}
