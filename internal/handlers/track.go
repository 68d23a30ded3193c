package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/msibtain/wp-user-activity/internal/models"
	"github.com/msibtain/wp-user-activity/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var monthNames = map[string]string{
	"01": "January", "02": "February", "03": "March", "04": "April",
	"05": "May", "06": "June", "07": "July", "08": "August",
	"09": "September", "10": "October", "11": "November", "12": "December",
}

func (h *Handler) requestMeta(c *gin.Context, userID uint) services.RequestMeta {
	return services.RequestMeta{
		UserID:    userID,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Referer:   c.Request.Referer(),
	}
}

type TrackViewRequest struct {
	URL string `json:"url" binding:"required"`
}

// TrackView records the page-lifecycle events for one rendered page and
// seeds the session's duration slot with the resulting record id. The
// response is always 204: tracking failures must not surface to the page.
func (h *Handler) TrackView(c *gin.Context) {
	var req TrackViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := sessionUserID(c)
	meta := h.requestMeta(c, userID)
	meta.URL = req.URL

	view := h.buildViewContext(req.URL)
	if id := h.activity.LogView(meta, view); id != 0 {
		session := sessions.Default(c)
		session.Set(sessionLogKey, id)
		if err := session.Save(); err != nil {
			h.logger.Error("Failed to save duration slot", "error", err)
		}
	}

	c.Status(http.StatusNoContent)
}

// buildViewContext classifies a page URL the way the site routes it:
// admin screens, search, category/tag/author/date archives, then content
// lookup by slug.
func (h *Handler) buildViewContext(pageURL string) services.ViewContext {
	view := services.ViewContext{ICatTermID: services.ICatTermID(pageURL)}

	u, err := url.Parse(pageURL)
	if err != nil {
		view.PageTitle = "Page not found"
		return view
	}

	path := strings.Trim(u.Path, "/")
	if strings.HasPrefix(path, "admin") || strings.HasPrefix(path, "wp-admin") {
		view.AdminScreen = true
		return view
	}

	if q := u.Query().Get("s"); q != "" {
		view.PageTitle = "Search results for: " + q
		return view
	}

	if path == "" {
		view.PageTitle = h.cfg.SiteName
		return view
	}

	segments := strings.Split(path, "/")
	switch segments[0] {
	case "category":
		if len(segments) > 1 {
			name := h.categoryName(segments[len(segments)-1])
			view.CategoryName = name
			view.PageTitle = name
			return view
		}
	case "tag":
		if len(segments) > 1 {
			view.ArchiveTitle = "Tag: " + titleize(segments[1])
			view.PageTitle = view.ArchiveTitle
			return view
		}
	case "author":
		if len(segments) > 1 {
			view.ArchiveTitle = "Author: " + titleize(segments[1])
			view.PageTitle = view.ArchiveTitle
			return view
		}
	case "date":
		view.ArchiveTitle = dateArchiveTitle(segments[1:])
		view.PageTitle = view.ArchiveTitle
		return view
	}

	content, err := h.resolver.ResolveURL(pageURL)
	switch {
	case err == nil:
		view.Content = content
		view.PageTitle = content.Title
	case errors.Is(err, gorm.ErrRecordNotFound):
		view.PageTitle = "Page not found"
	default:
		h.logger.Error("Failed to resolve page URL", "url", pageURL, "error", err)
		view.PageTitle = "Page not found"
	}
	return view
}

func (h *Handler) categoryName(slug string) string {
	var term models.Term
	err := h.db.Where("slug = ? AND taxonomy = ?", slug, models.TaxonomyCategory).First(&term).Error
	if err == nil {
		return term.Name
	}
	return titleize(slug)
}

func titleize(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func dateArchiveTitle(segments []string) string {
	switch {
	case len(segments) >= 2:
		if month, ok := monthNames[segments[1]]; ok {
			return "Archives: " + month + " " + segments[0]
		}
		return "Archives: " + segments[0]
	case len(segments) == 1 && segments[0] != "":
		return "Archives: " + segments[0]
	}
	return "Archives"
}

type TrackDurationRequest struct {
	LogID    uint   `json:"log_id"`
	Duration *int   `json:"duration" binding:"required"`
	Token    string `json:"token" binding:"required"`
}

// TrackDuration overwrites the duration of the session's tracked record.
// The body may name the record explicitly; otherwise the session's duration
// slot supplies it.
func (h *Handler) TrackDuration(c *gin.Context) {
	var req TrackDurationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	want := sessionToken(c)
	if want == "" || req.Token != want {
		c.JSON(http.StatusForbidden, gin.H{"error": "Invalid request token"})
		return
	}

	logID := req.LogID
	if logID == 0 {
		session := sessions.Default(c)
		if v, ok := session.Get(sessionLogKey).(uint); ok {
			logID = v
		}
	}

	err := h.activity.UpdateDuration(logID, *req.Duration)
	switch {
	case errors.Is(err, services.ErrInvalidDuration):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid log id or duration"})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Log entry not found"})
	case err != nil:
		h.logger.Error("Failed to update duration", "log_id", logID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
	default:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
