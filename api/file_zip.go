package api

import (
	"bitwise74/docs-api/internal/archive"
	"bitwise74/docs-api/internal/model"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FileZipDocument streams every file of the document given in id as a zip
// archive named after the document title
func (a *API) FileZipDocument(c *gin.Context) {
	ctx := c.Request.Context()

	documentID := c.Query("id")
	if documentID == "" {
		abortBadRequest(c, "No document ID provided")
		return
	}

	caller, err := a.caller(c)
	if err != nil {
		abortWithError(c, err, "Failed to resolve caller")
		return
	}

	if err := a.Gate.CheckDocument(ctx, documentID, caller, model.PermRead); err != nil {
		abortWithError(c, err, "Failed to check document access")
		return
	}

	doc, err := a.Repo.Documents.Get(ctx, documentID)
	if err != nil {
		abortWithError(c, err, "Failed to fetch document")
		return
	}

	files, err := a.Store.ListByDocument(ctx, caller.UserID, &doc.ID)
	if err != nil {
		abortWithError(c, err, "Failed to list files")
		return
	}

	a.streamZip(c, archive.Name(doc.Title), files)
}

type fileZipOpts struct {
	Files []string `json:"files" form:"files"`
}

// FileZipList streams the files given in the files list as a zip archive.
// The caller needs read access to every one of them
func (a *API) FileZipList(c *gin.Context) {
	ctx := c.Request.Context()

	var data fileZipOpts
	if err := c.ShouldBind(&data); err != nil {
		abortBadRequest(c, "Malformed or invalid request body")
		return
	}

	if len(data.Files) == 0 {
		abortBadRequest(c, "No files provided")
		return
	}

	caller, err := a.caller(c)
	if err != nil {
		abortWithError(c, err, "Failed to resolve caller")
		return
	}

	files, err := a.Store.GetMany(ctx, data.Files)
	if err != nil {
		abortWithError(c, err, "Failed to fetch files")
		return
	}

	for _, f := range files {
		if err := a.Gate.CheckFile(ctx, f, caller, model.PermRead); err != nil {
			abortWithError(c, err, "Failed to check file access")
			return
		}
	}

	a.streamZip(c, "files", files)
}

func (a *API) streamZip(c *gin.Context, name string, files []*model.File) {
	requestID := c.MustGet("requestID").(string)

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", disposition("attachment", name+".zip"))
	c.Status(http.StatusOK)

	// Headers are already sent, a failure can only cut the archive short
	if err := archive.Stream(c.Request.Context(), c.Writer, files, a.Store.Open); err != nil {
		zap.L().Error("Failed to stream zip archive", zap.Error(err), zap.String("requestID", requestID))
		c.Abort()
	}
}
