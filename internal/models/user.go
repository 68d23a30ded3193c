package models

import (
	"strings"
	"time"
)

const RoleAdministrator = "administrator"

// User mirrors the host platform's user table. This service only reads it;
// account management stays with the platform.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Login        string    `gorm:"unique;not null;size:80" json:"login"`
	DisplayName  string    `gorm:"size:120" json:"display_name"`
	Email        string    `gorm:"unique;not null;size:120" json:"email"`
	PasswordHash string    `gorm:"not null;size:255" json:"-"`
	Role         string    `gorm:"size:50;index" json:"role"`
	IsManager    bool      `gorm:"default:false" json:"is_manager"`
	CreatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	TeamHubs     []TeamHub `gorm:"many2many:team_hub_members" json:"team_hubs,omitempty"`
}

func (User) TableName() string {
	return "users"
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdministrator
}

// RoleName renders the role slug for display ("video_editor" -> "Video editor").
func (u User) RoleName() string {
	if u.Role == "" {
		return ""
	}
	name := strings.ReplaceAll(u.Role, "_", " ")
	return strings.ToUpper(name[:1]) + name[1:]
}
