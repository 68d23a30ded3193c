package handlers

import (
	"net/http"

	"github.com/msibtain/wp-user-activity/internal/services"
	"github.com/msibtain/wp-user-activity/pkg/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.directory.ByEmail(req.Email)
	if err != nil {
		if services.IsNotFound(err) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		}
		return
	}

	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token := utils.GenerateRequestToken()
	session := sessions.Default(c)
	session.Set(sessionUserKey, user.ID)
	session.Set(sessionTokenKey, token)
	session.Delete(sessionLogKey)
	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save session"})
		return
	}

	h.activity.LogLogin(h.requestMeta(c, user.ID), user.Email)

	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "token": token})
}

func (h *Handler) Logout(c *gin.Context) {
	if userID := sessionUserID(c); userID != 0 {
		if user, err := h.directory.ByID(userID); err == nil {
			h.activity.LogLogout(h.requestMeta(c, userID), user.Email)
		}
	}

	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
