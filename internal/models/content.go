package models

import (
	"time"
)

// Content types the view triggers care about.
const (
	ContentPost  = "post"
	ContentPage  = "page"
	ContentVideo = "video"
)

// Content is a minimal projection of the platform's content table, enough
// to resolve a URL back to an item and its type.
type Content struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Slug      string    `gorm:"unique;not null;size:200" json:"slug"`
	Title     string    `gorm:"size:255" json:"title"`
	Type      string    `gorm:"size:50;index" json:"type"`
	Terms     []Term    `gorm:"many2many:content_terms" json:"terms,omitempty"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Content) TableName() string {
	return "contents"
}
