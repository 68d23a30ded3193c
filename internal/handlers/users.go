package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SearchUsers is the admin filter typeahead: at most 20 matches ordered by
// display name.
func (h *Handler) SearchUsers(c *gin.Context) {
	matches, err := h.directory.Typeahead(c.Query("q"), 20)
	if err != nil {
		h.logger.Error("Failed to search users", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": matches})
}
