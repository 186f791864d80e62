package api

import (
	"bitwise74/docs-api/internal/model"
	"bitwise74/docs-api/internal/storage"
	"io"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
)

// FileData returns the decrypted content of a file. The size query selects a
// rendered variant of an image or the extracted text with "content"
func (a *API) FileData(c *gin.Context) {
	size := c.Query("size")

	var variant storage.Variant
	if size != "" && size != "content" {
		v, ok := storage.ParseVariant(size)
		if !ok {
			abortBadRequest(c, "Invalid size, use web, thumb or content")
			return
		}
		variant = v
	}

	f, _, ok := a.findFile(c, model.PermRead)
	if !ok {
		return
	}

	if size == "content" {
		c.Header("Content-Disposition", disposition("inline", f.FullName("data")+".txt"))
		var content string
		if f.Content != nil {
			content = *f.Content
		}

		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(content))
		return
	}

	var (
		rc          io.ReadCloser
		contentType = f.MimeType
		length      = f.Size
		err         error
	)

	if variant != "" {
		rc, contentType, err = a.Store.OpenVariant(c.Request.Context(), f, variant)
		length = -1
	} else {
		rc, err = a.Store.Open(c.Request.Context(), f)
	}
	if err != nil {
		abortWithError(c, err, "Failed to open file")
		return
	}
	defer rc.Close()

	headers := map[string]string{
		"Content-Disposition": disposition("inline", f.FullName("data")),
	}
	if variant != "" && contentType != "image/jpeg" {
		headers["Cache-Control"] = "no-store"
	}

	c.DataFromReader(http.StatusOK, length, contentType, rc, headers)
}

// disposition quotes or RFC 2231 encodes the filename as needed
func disposition(kind, name string) string {
	if v := mime.FormatMediaType(kind, map[string]string{"filename": name}); v != "" {
		return v
	}
	return kind
}
