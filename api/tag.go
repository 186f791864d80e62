package api

import (
	"bitwise74/docs-api/internal/model"
	"bitwise74/docs-api/pkg/validators"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type tagBody struct {
	Name  string `json:"name" form:"name"`
	Color string `json:"color" form:"color"`
}

func (a *API) TagList(c *gin.Context) {
	userID := c.MustGet("userID").(string)

	tags, err := a.Repo.Tags.ListByUser(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, err, "Failed to list tags")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tags": tags,
	})
}

func (a *API) TagCreate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data tagBody
	if err := c.ShouldBind(&data); err != nil {
		abortBadRequest(c, "Invalid request body")
		return
	}

	if data.Color == "" {
		data.Color = a.Config.Tagging.DefaultColor
	}

	if err := validators.TagNameValidator(data.Name); err != nil {
		abortBadRequest(c, err.Error())
		return
	}
	if err := validators.ColorValidator(data.Color); err != nil {
		abortBadRequest(c, err.Error())
		return
	}

	existing, err := a.Repo.Tags.ListByUser(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, err, "Failed to list tags")
		return
	}

	for _, t := range existing {
		if strings.EqualFold(t.Name, data.Name) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"error":     "Tag already exists",
				"id":        t.ID,
				"requestID": requestID,
			})
			return
		}
	}

	tag := &model.Tag{
		ID:         uuid.NewString(),
		Name:       data.Name,
		Color:      data.Color,
		UserID:     userID,
		CreateDate: time.Now(),
	}

	if err := a.Repo.Tags.Create(c.Request.Context(), tag); err != nil {
		abortWithError(c, err, "Failed to create tag")
		return
	}

	c.JSON(http.StatusOK, tag)
}

// TagDelete deletes a tag of the caller and detaches it from every document
func (a *API) TagDelete(c *gin.Context) {
	userID := c.MustGet("userID").(string)

	if err := a.Repo.Tags.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		abortWithError(c, err, "Failed to delete tag")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}
