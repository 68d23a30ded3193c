package handlers

import (
	"net/http"

	"github.com/msibtain/wp-user-activity/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// Session keys. current_log_id is the per-session duration slot: the last
// qualifying view record of this session, overwritten on every view.
const (
	sessionUserKey  = "user_id"
	sessionTokenKey = "token"
	sessionLogKey   = "current_log_id"
)

func sessionUserID(c *gin.Context) uint {
	session := sessions.Default(c)
	if v, ok := session.Get(sessionUserKey).(uint); ok {
		return v
	}
	return 0
}

func sessionToken(c *gin.Context) string {
	session := sessions.Default(c)
	if v, ok := session.Get(sessionTokenKey).(string); ok {
		return v
	}
	return ""
}

func (h *Handler) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if sessionUserID(c) == 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func (h *Handler) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := h.directory.ByID(sessionUserID(c))
		if err != nil || !user.IsAdmin() {
			c.JSON(http.StatusForbidden, gin.H{"error": "Administrator access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// ManagerRequired admits managers and administrators.
func (h *Handler) ManagerRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := h.directory.ByID(sessionUserID(c))
		if err != nil || (!user.IsManager && !user.IsAdmin()) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Manager access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// TokenRequired matches the request's replay token against the session's.
// The token travels as a query parameter or the X-Activity-Token header.
func (h *Handler) TokenRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			token = c.GetHeader("X-Activity-Token")
		}
		want := sessionToken(c)
		if want == "" || token != want {
			c.JSON(http.StatusForbidden, gin.H{"error": "Invalid request token"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func (h *Handler) RateLimitMiddleware(limiter *services.IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		l := limiter.GetLimiter(ip)
		if !l.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			return
		}
		c.Next()
	}
}
