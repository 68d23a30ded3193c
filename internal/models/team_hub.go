package models

// TeamHub groups users for the manager-facing team dashboard.
type TeamHub struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"not null;size:200" json:"name"`
	Members []User `gorm:"many2many:team_hub_members" json:"members,omitempty"`
}

func (TeamHub) TableName() string {
	return "team_hubs"
}
