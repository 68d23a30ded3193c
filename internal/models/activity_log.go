package models

import (
	"time"
)

// Activity types form a closed set. Unknown values are accepted at write
// time but excluded from type-specific reports.
const (
	TypeLogin        = "login"
	TypeLogout       = "logout"
	TypePageView     = "page_view"
	TypeCategoryView = "category_view"
	TypeArchiveView  = "archive_view"
	TypeVideoView    = "video_view"
)

// KnownActivityTypes lists every type the reporting filters recognize.
var KnownActivityTypes = []string{
	TypeLogin, TypeLogout, TypePageView, TypeCategoryView, TypeArchiveView, TypeVideoView,
}

// IsKnownActivityType reports whether t belongs to the closed set.
func IsKnownActivityType(t string) bool {
	for _, k := range KnownActivityTypes {
		if k == t {
			return true
		}
	}
	return false
}

// ActivityLog is one tracked user action. Immutable after insert except
// Duration, which the duration tracker overwrites.
type ActivityLog struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"index" json:"user_id"` // 0 = unattributed, excluded from all reports
	UserIP          string    `gorm:"size:45" json:"user_ip"`
	UserAgent       string    `gorm:"type:text" json:"user_agent"`
	ActivityType    string    `gorm:"size:50;not null;index" json:"activity_type"`
	ActivityDetails string    `gorm:"type:text" json:"activity_details"`
	PageURL         string    `gorm:"size:500" json:"page_url"`
	RefererURL      string    `gorm:"size:500" json:"referer_url"`
	Duration        int64     `gorm:"default:0" json:"duration"`
	CreatedAt       time.Time `gorm:"index;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "activity_log"
}
