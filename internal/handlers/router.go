package handlers

import (
	"github.com/msibtain/wp-user-activity/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

func (h *Handler) SetupRouter(rateLimiter *services.IPRateLimiter) *gin.Engine {
	r := gin.Default()

	store := cookie.NewStore([]byte(h.cfg.SessionSecret))
	r.Use(sessions.Sessions("activity_session", store))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})

	// Public Routes
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)

	// Tracking Routes
	tracked := r.Group("/")
	tracked.Use(h.AuthRequired())
	if rateLimiter != nil {
		tracked.Use(h.RateLimitMiddleware(rateLimiter))
	}
	{
		tracked.POST("/track/view", h.TrackView)
		tracked.POST("/api/track/duration", h.TrackDuration)
	}

	// Admin Routes
	admin := r.Group("/")
	admin.Use(h.AuthRequired(), h.AdminRequired())
	{
		admin.GET("/admin/logs", h.ListLogs)
		admin.POST("/admin/logs/delete", h.DeleteLogs)
		admin.POST("/admin/logs/clear", h.ClearLogs)
		admin.GET("/admin/active-users", h.ActiveUsers)
		admin.GET("/admin/glance", h.Glance)

		gated := admin.Group("/")
		gated.Use(h.TokenRequired())
		{
			gated.GET("/admin/logs/export", h.ExportLogs)
			gated.GET("/admin/active-users/export", h.ExportActiveUsers)
			gated.GET("/api/users/search", h.SearchUsers)
		}
	}

	// Manager Routes
	manager := r.Group("/")
	manager.Use(h.AuthRequired(), h.ManagerRequired())
	{
		manager.GET("/team-hub", h.TeamHub)
	}

	return r
}
