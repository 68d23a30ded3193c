package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/msibtain/wp-user-activity/internal/services"

	"github.com/gin-gonic/gin"
)

func parseIDList(raw string) []uint {
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.ParseUint(part, 10, 32); err == nil && id > 0 {
			ids = append(ids, uint(id))
		}
	}
	return ids
}

func setCSVHeaders(c *gin.Context, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
}

// ExportLogs streams the filtered raw log as CSV. An ids parameter exports
// exactly those rows instead.
func (h *Handler) ExportLogs(c *gin.Context) {
	f, err := h.parseFilters(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	ids := parseIDList(c.Query("ids"))

	setCSVHeaders(c, services.Filename("activity-logs", f))
	if err := h.exporter.ExportLogs(c.Writer, f, ids); err != nil {
		h.logger.Error("Failed to export activity logs", "error", err)
	}
}

// ExportActiveUsers streams the per-user rollup as CSV. A user_ids
// parameter narrows the rollup to the selected users, overriding the role
// and search filters.
func (h *Handler) ExportActiveUsers(c *gin.Context) {
	f, err := h.parseFilters(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if ids := parseIDList(c.Query("user_ids")); len(ids) > 0 {
		f.RoleUserIDs = nil
		f.SearchUserIDs = nil
		f.MemberUserIDs = services.IDSet(ids)
	}

	setCSVHeaders(c, services.Filename("active-users", f))
	if err := h.exporter.ExportActiveUsers(c.Writer, f); err != nil {
		h.logger.Error("Failed to export active users", "error", err)
	}
}
