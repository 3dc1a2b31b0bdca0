package models

import (
	"time"

	"github.com/google/uuid"
)

type ClientProfile struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`

	CompanyName string `gorm:"type:varchar(150)" json:"company_name"`
	PhotoURL    string `gorm:"type:text" json:"photo_url"`

	ProjectsPosted int     `gorm:"default:0" json:"projects_posted"`
	Ratings        float64 `gorm:"default:0" json:"ratings"`
	IsVerified     bool    `gorm:"default:false" json:"is_verified"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
