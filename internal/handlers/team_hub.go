package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/msibtain/wp-user-activity/internal/models"
	"github.com/msibtain/wp-user-activity/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const teamRecentLimit = 50

// TeamHub serves the manager dashboard. Without hub_id it lists the
// available hubs; with one it returns the hub's members, team stats, a
// 30-day trend and the recent activity feed.
func (h *Handler) TeamHub(c *gin.Context) {
	raw := c.Query("hub_id")
	if raw == "" {
		// Managers only see the hubs they belong to.
		var user models.User
		err := h.db.
			Preload("TeamHubs", func(tx *gorm.DB) *gorm.DB { return tx.Order("name asc") }).
			First(&user, sessionUserID(c)).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		hubs := user.TeamHubs
		if hubs == nil {
			hubs = []models.TeamHub{}
		}
		c.JSON(http.StatusOK, gin.H{"hubs": hubs})
		return
	}

	hubID, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid hub id"})
		return
	}

	var hub models.TeamHub
	if err := h.db.Preload("Members").First(&hub, uint(hubID)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Team hub not found"})
		return
	}

	memberIDs := make([]uint, 0, len(hub.Members))
	for _, m := range hub.Members {
		memberIDs = append(memberIDs, m.ID)
	}

	stats, err := h.reports.Team(memberIDs)
	if err != nil {
		h.logger.Error("Failed to build team stats", "hub_id", hub.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	to := time.Now().Format("2006-01-02")
	from := time.Now().AddDate(0, 0, -29).Format("2006-01-02")
	trend, err := h.reports.Trend(services.Filters{MemberUserIDs: services.IDSet(memberIDs)}, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	recent, err := h.reports.Recent(memberIDs, teamRecentLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"hub":    gin.H{"id": hub.ID, "name": hub.Name},
		"members": hub.Members,
		"stats":  stats,
		"trend":  trend,
		"recent": recent,
	})
}
