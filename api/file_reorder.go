package api

import (
	"bitwise74/docs-api/internal/event"
	"bitwise74/docs-api/internal/model"
	"net/http"

	"github.com/gin-gonic/gin"
)

// FileReorder sets the order of the files of a document to their position in
// the order list
func (a *API) FileReorder(c *gin.Context) {
	userID := c.MustGet("userID").(string)
	ctx := c.Request.Context()

	documentID := c.PostForm("id")
	if documentID == "" {
		abortBadRequest(c, "No document ID provided")
		return
	}

	order := c.PostFormArray("order")
	if len(order) == 0 {
		abortBadRequest(c, "No order provided")
		return
	}

	caller, err := a.caller(c)
	if err != nil {
		abortWithError(c, err, "Failed to resolve caller")
		return
	}

	if err := a.Gate.CheckDocument(ctx, documentID, caller, model.PermWrite); err != nil {
		abortWithError(c, err, "Failed to check document access")
		return
	}

	outbox := event.NewOutbox()
	if err := a.Store.Reorder(ctx, userID, documentID, order, outbox); err != nil {
		outbox.Discard()
		abortWithError(c, err, "Failed to reorder files")
		return
	}

	a.Bus.Flush(outbox)

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}
