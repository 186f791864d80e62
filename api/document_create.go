package api

import (
	"bitwise74/docs-api/internal/model"
	"bitwise74/docs-api/internal/repository"
	"bitwise74/docs-api/pkg/validators"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type documentBody struct {
	Title    string `json:"title" form:"title"`
	Language string `json:"language" form:"language"`
}

// DocumentCreate creates an empty document and grants its creator READ and
// WRITE on it
func (a *API) DocumentCreate(c *gin.Context) {
	userID := c.MustGet("userID").(string)

	var data documentBody
	if err := c.ShouldBind(&data); err != nil {
		abortBadRequest(c, "Invalid request body")
		return
	}

	if data.Language == "" {
		data.Language = "eng"
	}

	if err := validators.TitleValidator(data.Title); err != nil {
		abortBadRequest(c, err.Error())
		return
	}
	if err := validators.LanguageValidator(data.Language); err != nil {
		abortBadRequest(c, err.Error())
		return
	}

	now := time.Now()
	doc := &model.Document{
		ID:         uuid.NewString(),
		UserID:     userID,
		Title:      data.Title,
		Language:   data.Language,
		CreateDate: now,
		UpdateDate: now,
	}

	err := a.Repo.Transaction(c.Request.Context(), func(tx *repository.Repository) error {
		if err := tx.Documents.Create(c.Request.Context(), doc); err != nil {
			return err
		}

		return tx.ACL.Create(c.Request.Context(),
			model.ACL{Perm: model.PermRead, TargetID: userID, DocumentID: doc.ID},
			model.ACL{Perm: model.PermWrite, TargetID: userID, DocumentID: doc.ID},
		)
	})
	if err != nil {
		abortWithError(c, err, "Failed to create document")
		return
	}

	c.JSON(http.StatusOK, doc)
}
