package api

import (
	"bitwise74/docs-api/internal/event"
	"bitwise74/docs-api/internal/model"
	"net/http"

	"github.com/gin-gonic/gin"
)

// FileProcess sends a file through the content pipeline again
func (a *API) FileProcess(c *gin.Context) {
	userID := c.MustGet("userID").(string)
	ctx := c.Request.Context()

	f, _, ok := a.findFile(c, model.PermWrite)
	if !ok {
		return
	}

	language := "eng"
	if f.DocumentID != nil {
		doc, err := a.Repo.Documents.Get(ctx, *f.DocumentID)
		if err != nil {
			abortWithError(c, err, "Failed to fetch document")
			return
		}
		language = doc.Language
	}

	outbox := event.NewOutbox()
	if err := a.Store.Reprocess(ctx, f, userID, language, outbox); err != nil {
		outbox.Discard()
		abortWithError(c, err, "Failed to process file")
		return
	}

	a.Bus.Flush(outbox)

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}
