package api

import (
	"bitwise74/docs-api/internal/event"
	"bitwise74/docs-api/internal/model"
	"net/http"

	"github.com/gin-gonic/gin"
)

// FileAttach moves an orphan file of the caller into a document
func (a *API) FileAttach(c *gin.Context) {
	userID := c.MustGet("userID").(string)
	ctx := c.Request.Context()

	documentID := c.PostForm("id")
	if documentID == "" {
		abortBadRequest(c, "No document ID provided")
		return
	}

	f, caller, ok := a.findFile(c, model.PermWrite)
	if !ok {
		return
	}

	if err := a.Gate.CheckDocument(ctx, documentID, caller, model.PermWrite); err != nil {
		abortWithError(c, err, "Failed to check document access")
		return
	}

	doc, err := a.Repo.Documents.Get(ctx, documentID)
	if err != nil {
		abortWithError(c, err, "Failed to fetch document")
		return
	}

	outbox := event.NewOutbox()
	if _, err := a.Store.Attach(ctx, f.ID, userID, doc.ID, doc.Language, outbox); err != nil {
		outbox.Discard()
		abortWithError(c, err, "Failed to attach file")
		return
	}

	a.Bus.Flush(outbox)

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}
