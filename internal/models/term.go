package models

// Taxonomies recognized by the view triggers.
const (
	TaxonomyCategory      = "category"
	TaxonomyVideoCategory = "video-category"
)

// Term is a taxonomy term with an optional parent, forming a tree.
type Term struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"not null;size:200" json:"name"`
	Slug     string `gorm:"size:200;index" json:"slug"`
	Taxonomy string `gorm:"size:50;index" json:"taxonomy"`
	ParentID uint   `gorm:"index;default:0" json:"parent_id"`
}

func (Term) TableName() string {
	return "terms"
}
