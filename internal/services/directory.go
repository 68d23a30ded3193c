package services

import (
	"errors"
	"fmt"

	"github.com/msibtain/wp-user-activity/internal/models"

	"gorm.io/gorm"
)

// UserMatch is one typeahead hit.
type UserMatch struct {
	ID          uint   `json:"id"`
	Text        string `json:"text"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// UserDirectory is the host platform's user lookup surface. Reports resolve
// display data per row through it and never join user management logic in.
type UserDirectory interface {
	ByID(id uint) (*models.User, error)
	ByEmail(email string) (*models.User, error)
	RoleMemberIDs(role string) ([]uint, error)
	SearchIDs(query string) ([]uint, error)
	Typeahead(query string, limit int) ([]UserMatch, error)
}

// GormDirectory reads the platform's user table directly.
type GormDirectory struct {
	db *gorm.DB
}

func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

func (d *GormDirectory) ByID(id uint) (*models.User, error) {
	var user models.User
	if err := d.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *GormDirectory) ByEmail(email string) (*models.User, error) {
	var user models.User
	if err := d.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *GormDirectory) RoleMemberIDs(role string) ([]uint, error) {
	ids := []uint{}
	err := d.db.Model(&models.User{}).Where("role = ?", role).Pluck("id", &ids).Error
	return ids, err
}

// SearchIDs matches login, email and display name, like the platform's own
// wildcard user search.
func (d *GormDirectory) SearchIDs(query string) ([]uint, error) {
	ids := []uint{}
	pattern := "%" + EscapeLike(query) + "%"
	err := d.db.Model(&models.User{}).
		Where(
			fmt.Sprintf(`login %[1]s ? ESCAPE '\' OR email %[1]s ? ESCAPE '\' OR display_name %[1]s ? ESCAPE '\'`, likeOp(d.db)),
			pattern, pattern, pattern,
		).
		Pluck("id", &ids).Error
	return ids, err
}

func (d *GormDirectory) Typeahead(query string, limit int) ([]UserMatch, error) {
	if query == "" {
		return []UserMatch{}, nil
	}
	if limit <= 0 || limit > 20 {
		limit = 20
	}

	var users []models.User
	pattern := "%" + EscapeLike(query) + "%"
	err := d.db.
		Where(
			fmt.Sprintf(`login %[1]s ? ESCAPE '\' OR email %[1]s ? ESCAPE '\' OR display_name %[1]s ? ESCAPE '\'`, likeOp(d.db)),
			pattern, pattern, pattern,
		).
		Order("display_name asc").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	matches := make([]UserMatch, 0, len(users))
	for _, u := range users {
		matches = append(matches, UserMatch{
			ID:          u.ID,
			Text:        u.DisplayName + " (" + u.Email + ")",
			DisplayName: u.DisplayName,
			Email:       u.Email,
		})
	}
	return matches, nil
}

// IsNotFound reports whether err means the user no longer exists, which the
// reporting views tolerate per row instead of aborting.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
