package api

import (
	"bitwise74/docs-api/internal/event"
	"bitwise74/docs-api/internal/model"
	"bitwise74/docs-api/internal/storage"
	"bitwise74/docs-api/pkg/validators"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FileUpload stores a new file. The file is attached to the document given in
// id, or becomes an orphan, and replaces previousFileId when given
func (a *API) FileUpload(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)
	ctx := c.Request.Context()

	fh, err := c.FormFile("file")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error":     validators.ErrFileTooLarge.Error(),
				"requestID": requestID,
			})
			return
		}

		abortBadRequest(c, "Invalid multipart form")
		return
	}

	if err := validators.FileValidator(fh, a.Config.Upload.MaxSize); err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, validators.ErrFileTooLarge) {
			code = http.StatusRequestEntityTooLarge
		}

		c.AbortWithStatusJSON(code, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	caller, err := a.caller(c)
	if err != nil {
		abortWithError(c, err, "Failed to resolve caller")
		return
	}

	var documentID *string
	language := "eng"

	if id := c.PostForm("id"); id != "" {
		if err := a.Gate.CheckDocument(ctx, id, caller, model.PermWrite); err != nil {
			abortWithError(c, err, "Failed to check document access")
			return
		}

		doc, err := a.Repo.Documents.Get(ctx, id)
		if err != nil {
			abortWithError(c, err, "Failed to fetch document")
			return
		}

		documentID = &doc.ID
		language = doc.Language
	}

	previousID := c.PostForm("previousFileId")
	if previousID != "" {
		prev, err := a.Store.Get(ctx, previousID)
		if err != nil {
			abortWithError(c, err, "Failed to fetch previous file")
			return
		}

		if err := a.Gate.CheckFile(ctx, prev, caller, model.PermWrite); err != nil {
			abortWithError(c, err, "Failed to check file access")
			return
		}

		if documentID == nil && prev.DocumentID != nil {
			if doc, err := a.Repo.Documents.Get(ctx, *prev.DocumentID); err == nil {
				language = doc.Language
			}
		}
	}

	staged, size, err := stage(fh)
	if err != nil {
		abortWithError(c, err, "Failed to stage upload")
		return
	}

	outbox := event.NewOutbox()
	f, err := a.Store.Create(ctx, storage.CreateParams{
		Name:           fh.Filename,
		PreviousFileID: previousID,
		StagedPath:     staged,
		Size:           size,
		OwnerID:        userID,
		DocumentID:     documentID,
		Language:       language,
	}, outbox)
	if err != nil {
		outbox.Discard()
		os.Remove(staged)

		abortWithError(c, err, "Failed to store file")
		return
	}

	a.Bus.Flush(outbox)

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"id":     f.ID,
		"size":   f.Size,
	})
}

// stage copies an upload into a plaintext temp file owned by the caller
func stage(fh *multipart.FileHeader) (string, int64, error) {
	src, err := fh.Open()
	if err != nil {
		return "", 0, fmt.Errorf("failed to open upload, %w", err)
	}
	defer src.Close()

	temp, err := os.CreateTemp("", "upload-*")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temporary file, %w", err)
	}
	defer temp.Close()

	size, err := io.Copy(temp, src)
	if err != nil {
		os.Remove(temp.Name())
		return "", 0, fmt.Errorf("failed to copy data to temporary file, %w", err)
	}

	zap.L().Debug("Upload staged", zap.String("path", temp.Name()), zap.Int64("size", size))
	return temp.Name(), size, nil
}
