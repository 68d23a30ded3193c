package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/msibtain/wp-user-activity/internal/services"

	"github.com/gin-gonic/gin"
)

const glanceCacheTTL = 60 * time.Second

// parseFilters builds the query filters shared by the reporting endpoints.
// The role and user-search parameters resolve to id sets up front; a term
// matching nobody must yield an empty result, not an unfiltered one.
func (h *Handler) parseFilters(c *gin.Context) (services.Filters, error) {
	f := services.Filters{
		DateFrom:     c.Query("date_from"),
		DateTo:       c.Query("date_to"),
		ActivityType: c.Query("activity_type"),
		Search:       c.Query("search"),
	}
	if v := c.Query("user_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err == nil {
			f.UserID = uint(id)
		}
	}
	if role := c.Query("role"); role != "" {
		ids, err := h.directory.RoleMemberIDs(role)
		if err != nil {
			return f, err
		}
		f.RoleUserIDs = services.IDSet(ids)
	}
	if q := c.Query("user_search"); q != "" {
		ids, err := h.directory.SearchIDs(q)
		if err != nil {
			return f, err
		}
		f.SearchUserIDs = services.IDSet(ids)
	}
	return f, nil
}

func pageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// dateRange defaults to the trailing 30 days when the query names none.
func dateRange(c *gin.Context) (string, string) {
	from, to := c.Query("date_from"), c.Query("date_to")
	if to == "" {
		to = time.Now().Format("2006-01-02")
	}
	if from == "" {
		from = time.Now().AddDate(0, 0, -29).Format("2006-01-02")
	}
	return from, to
}

func (h *Handler) ListLogs(c *gin.Context) {
	f, err := h.parseFilters(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	page := pageParam(c)
	rows, total, err := h.reports.ListLogs(f, page)
	if err != nil {
		h.logger.Error("Failed to list activity logs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	types, err := h.reports.ActivityTypes()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":           rows,
		"total":          total,
		"page":           page,
		"per_page":       services.PageSize,
		"activity_types": types,
	})
}

type DeleteLogsRequest struct {
	IDs []uint `json:"ids" binding:"required"`
}

func (h *Handler) DeleteLogs(c *gin.Context) {
	var req DeleteLogsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deleted, err := h.activity.BulkDelete(req.IDs)
	if err != nil {
		h.logger.Error("Failed to delete activity logs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func (h *Handler) ClearLogs(c *gin.Context) {
	if err := h.activity.ClearAll(); err != nil {
		h.logger.Error("Failed to clear activity logs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Activity log cleared"})
}

// Glance serves the at-a-glance dashboard: 30-day trend plus the top-ten
// rankings. Administrators and staff are excluded so the numbers reflect
// real readers. Results cache in Redis for a minute.
func (h *Handler) Glance(c *gin.Context) {
	from, to := dateRange(c)

	cacheKey := "glance:" + from + ":" + to
	ctx := context.Background()
	if h.rdb != nil {
		if val, err := h.rdb.Get(ctx, cacheKey).Result(); err == nil {
			c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(val))
			return
		}
	}

	f := services.Filters{
		DateFrom:         from,
		DateTo:           to,
		ExcludeAdmins:    true,
		StaffEmailDomain: h.cfg.StaffEmailDomain,
	}

	trend, err := h.reports.Trend(f, from, to)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	topUsers, err := h.reports.TopUsers(f)
	if err != nil {
		h.logger.Error("Failed to build top users", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	catFilters := f
	for _, name := range h.cfg.ExcludeCategoryList() {
		catFilters.ExcludeCategories = append(catFilters.ExcludeCategories,
			"Category: "+name, "Video Category: "+name)
	}
	topCategories, err := h.reports.TopCategories(catFilters)
	if err != nil {
		h.logger.Error("Failed to build top categories", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	topVideos, err := h.reports.TopVideos(f)
	if err != nil {
		h.logger.Error("Failed to build top videos", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	payload := gin.H{
		"date_from":      from,
		"date_to":        to,
		"trend":          trend,
		"top_users":      topUsers,
		"top_categories": topCategories,
		"top_videos":     topVideos,
	}

	if h.rdb != nil {
		if data, err := json.Marshal(payload); err == nil {
			h.rdb.Set(ctx, cacheKey, data, glanceCacheTTL)
		}
	}

	c.JSON(http.StatusOK, payload)
}

// ActiveUsers serves the per-user rollup page with its trend series and
// overall stat boxes.
func (h *Handler) ActiveUsers(c *gin.Context) {
	f, err := h.parseFilters(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	from, to := dateRange(c)
	f.DateFrom, f.DateTo = from, to

	page := pageParam(c)
	rollups, total, err := h.reports.ActiveUsers(f, page)
	if err != nil {
		h.logger.Error("Failed to build active users rollup", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	trend, err := h.reports.Trend(f, from, to)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	overall, err := h.reports.Overall(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users":    rollups,
		"total":    total,
		"page":     page,
		"per_page": services.PageSize,
		"trend":    trend,
		"stats":    overall,
	})
}
