package services

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/msibtain/wp-user-activity/internal/models"

	"gorm.io/gorm"
)

// ContentResolver is the host platform's content/taxonomy lookup surface.
type ContentResolver interface {
	ResolveURL(pageURL string) (*models.Content, error)
	TermByID(id uint, taxonomy string) (*models.Term, error)
	ContentTerms(contentID uint, taxonomy string) ([]models.Term, error)
	TopAncestor(term *models.Term) (*models.Term, error)
}

// GormResolver resolves content and terms from the platform tables.
type GormResolver struct {
	db *gorm.DB
}

func NewGormResolver(db *gorm.DB) *GormResolver {
	return &GormResolver{db: db}
}

// ResolveURL maps a stored page URL back to a content item by its trailing
// path segment.
func (r *GormResolver) ResolveURL(pageURL string) (*models.Content, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	slug := lastPathSegment(u.Path)
	if slug == "" {
		return nil, gorm.ErrRecordNotFound
	}

	var content models.Content
	if err := r.db.Where("slug = ?", slug).First(&content).Error; err != nil {
		return nil, err
	}
	return &content, nil
}

func (r *GormResolver) TermByID(id uint, taxonomy string) (*models.Term, error) {
	var term models.Term
	if err := r.db.Where("id = ? AND taxonomy = ?", id, taxonomy).First(&term).Error; err != nil {
		return nil, err
	}
	return &term, nil
}

func (r *GormResolver) ContentTerms(contentID uint, taxonomy string) ([]models.Term, error) {
	var terms []models.Term
	err := r.db.
		Joins("JOIN content_terms ct ON ct.term_id = terms.id").
		Where("ct.content_id = ? AND terms.taxonomy = ?", contentID, taxonomy).
		Find(&terms).Error
	return terms, err
}

// TopAncestor walks the parent chain to the top-level term. The depth guard
// stops on cyclic data.
func (r *GormResolver) TopAncestor(term *models.Term) (*models.Term, error) {
	current := term
	for depth := 0; current.ParentID != 0 && depth < 32; depth++ {
		var parent models.Term
		if err := r.db.Where("id = ? AND taxonomy = ?", current.ParentID, current.Taxonomy).First(&parent).Error; err != nil {
			return nil, err
		}
		current = &parent
	}
	return current, nil
}

// ICatTermID extracts the ?icat= parameter from a stored page URL. Some
// recorded URLs carry a second query string glued into the value
// ("?icat=26?foo=bar"), so everything after an embedded '?' is dropped.
func ICatTermID(pageURL string) uint {
	u, err := url.Parse(pageURL)
	if err != nil {
		return 0
	}
	raw := u.Query().Get("icat")
	if raw == "" {
		return 0
	}
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[:i]
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0
	}
	return uint(id)
}

func lastPathSegment(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) == 0 {
		return ""
	}
	return segments[len(segments)-1]
}
