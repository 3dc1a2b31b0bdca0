package models

import (
	"time"

	"github.com/google/uuid"
)

type RatingDirection string

const (
	DirectionClientToFreelancer RatingDirection = "CLIENT_TO_FREELANCER"
	DirectionFreelancerToClient RatingDirection = "FREELANCER_TO_CLIENT"
)

// Rating is unique per (project, rater, rated): the same counterpart can
// only be rated once per project.
type Rating struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_ratings_project_rater_rated" json:"project_id"`
	RaterID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_ratings_project_rater_rated" json:"rater_id"`
	RatedID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_ratings_project_rater_rated;index" json:"rated_id"`

	Direction RatingDirection `gorm:"type:varchar(30);not null;index" json:"direction"`
	Rating    int             `gorm:"not null" json:"rating"` // 1-5
	Review    string          `gorm:"type:text" json:"review"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Project *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Rater   *User    `gorm:"foreignKey:RaterID" json:"rater,omitempty"`
	Rated   *User    `gorm:"foreignKey:RatedID" json:"rated,omitempty"`
}
