package services

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/msibtain/wp-user-activity/internal/models"

	"gorm.io/gorm"
)

// RequestMeta carries the request context the recorder needs. Handlers
// build it from the HTTP request so the service stays free of gin state.
type RequestMeta struct {
	UserID    uint
	IP        string
	UserAgent string
	Referer   string
	URL       string
}

// ViewContext describes one rendered page for the view triggers. Handlers
// fill in whatever routing already resolved; the service applies the
// recording rules.
type ViewContext struct {
	AdminScreen  bool
	ICatTermID   uint            // ?icat= parameter, 0 when absent
	Content      *models.Content // resolved content item, nil when none
	CategoryName string          // native category archive
	ArchiveTitle string          // non-category archive
	PageTitle    string          // derived title for plain page views
}

type ActivityService struct {
	db            *gorm.DB
	logger        *slog.Logger
	bots          BotDetector
	resolver      ContentResolver
	internalPaths []string
}

func NewActivityService(db *gorm.DB, logger *slog.Logger, bots BotDetector, resolver ContentResolver, internalPaths []string) *ActivityService {
	return &ActivityService{
		db:            db,
		logger:        logger,
		bots:          bots,
		resolver:      resolver,
		internalPaths: internalPaths,
	}
}

// Record writes one activity row and returns its id, or 0 when the event is
// suppressed by policy or the insert fails. Recording must never break the
// action that triggered it, so failures are logged and swallowed.
func (s *ActivityService) Record(meta RequestMeta, activityType, details, explicitURL string) uint {
	pageURL := explicitURL
	if pageURL == "" {
		pageURL = meta.URL
	}

	for _, p := range s.internalPaths {
		if strings.Contains(pageURL, p) {
			return 0
		}
	}
	if meta.UserID == 0 {
		return 0
	}
	if s.bots != nil && s.bots.IsBot(meta.UserAgent) {
		return 0
	}

	entry := models.ActivityLog{
		UserID:          meta.UserID,
		UserIP:          meta.IP,
		UserAgent:       meta.UserAgent,
		ActivityType:    activityType,
		ActivityDetails: details,
		PageURL:         pageURL,
		RefererURL:      meta.Referer,
		Duration:        0,
		CreatedAt:       time.Now(),
	}

	if err := s.db.Create(&entry).Error; err != nil {
		s.logger.Error("Failed to record activity", "type", activityType, "error", err)
		return 0
	}
	return entry.ID
}

// LogLogin records a successful authentication.
func (s *ActivityService) LogLogin(meta RequestMeta, email string) uint {
	return s.Record(meta, models.TypeLogin, fmt.Sprintf("User %s logged in", email), "")
}

// LogLogout records a session termination.
func (s *ActivityService) LogLogout(meta RequestMeta, email string) uint {
	return s.Record(meta, models.TypeLogout, fmt.Sprintf("User %s logged out", email), "")
}

// LogView runs the page-lifecycle triggers for one rendered page and
// returns the id of the last record created, which seeds the session's
// duration association. A page can legitimately produce more than one
// record (a category archive is both a page view and a category view); the
// icat and video branches suppress the plain page view to avoid double
// counting.
func (s *ActivityService) LogView(meta RequestMeta, view ViewContext) uint {
	if view.AdminScreen {
		return 0
	}

	var current uint

	isVideo := view.Content != nil && view.Content.Type == models.ContentVideo
	if !isVideo && view.ICatTermID == 0 {
		if id := s.Record(meta, models.TypePageView, view.PageTitle, ""); id != 0 {
			current = id
		}
	}

	if view.ICatTermID != 0 {
		if term, err := s.resolver.TermByID(view.ICatTermID, models.TaxonomyVideoCategory); err == nil {
			details := fmt.Sprintf("Video Category: %s", term.Name)
			if id := s.Record(meta, models.TypeCategoryView, details, ""); id != 0 {
				current = id
			}
		}
	} else if view.CategoryName != "" {
		details := fmt.Sprintf("Category: %s", view.CategoryName)
		if id := s.Record(meta, models.TypeCategoryView, details, ""); id != 0 {
			current = id
		}
	}

	if view.ArchiveTitle != "" && view.CategoryName == "" {
		details := fmt.Sprintf("Archive: %s", view.ArchiveTitle)
		if id := s.Record(meta, models.TypeArchiveView, details, ""); id != 0 {
			current = id
		}
	}

	if isVideo {
		details := fmt.Sprintf("Video View: %s", view.Content.Title)
		if id := s.Record(meta, models.TypeVideoView, details, ""); id != 0 {
			current = id
		}
	}

	return current
}

var ErrInvalidDuration = errors.New("invalid duration update parameters")

// UpdateDuration overwrites the duration of the record logID. The write is
// a blind overwrite: a stale smaller value replaces a larger one, last
// writer wins. Duration is advisory telemetry, not a correctness value.
func (s *ActivityService) UpdateDuration(logID uint, seconds int) error {
	if logID == 0 || seconds < 0 {
		return ErrInvalidDuration
	}

	res := s.db.Model(&models.ActivityLog{}).Where("id = ?", logID).Update("duration", seconds)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// BulkDelete removes the selected rows. Admin only; the handler gates it.
func (s *ActivityService) BulkDelete(ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := s.db.Where("id IN ?", ids).Delete(&models.ActivityLog{})
	return res.RowsAffected, res.Error
}

// ClearAll empties the activity table.
func (s *ActivityService) ClearAll() error {
	return s.db.Where("1 = 1").Delete(&models.ActivityLog{}).Error
}
