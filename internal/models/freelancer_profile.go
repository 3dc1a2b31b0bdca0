package models

import (
	"time"

	"github.com/google/uuid"
)

type FreelancerProfile struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`

	SystemName string `gorm:"type:varchar(120)" json:"system_name"`
	PhotoURL   string `gorm:"type:text" json:"photo_url"`
	About      string `gorm:"type:text" json:"about"`
	Skills     string `gorm:"type:text" json:"skills"`

	// Availability gates new applications. A freelancer with
	// availability=false cannot apply and cannot be assigned.
	Availability bool `gorm:"default:true" json:"availability"`

	// Ratings holds the running average of CLIENT_TO_FREELANCER ratings,
	// recomputed by the rating workflow on every submit/update.
	Ratings           float64 `gorm:"default:0" json:"ratings"`
	ProjectsCompleted int     `gorm:"default:0" json:"projects_completed"`
	IsVerified        bool    `gorm:"default:false" json:"is_verified"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
