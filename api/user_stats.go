package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *API) UserStats(c *gin.Context) {
	userID := c.MustGet("userID").(string)

	stats, err := a.Repo.Stats.Get(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, err, "Failed to load user stats")
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, stats)
}
