package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type MeetingRequestStatus string

const (
	MeetingRequestStatusPending   MeetingRequestStatus = "PENDING"
	MeetingRequestStatusApproved  MeetingRequestStatus = "APPROVED"
	MeetingRequestStatusRejected  MeetingRequestStatus = "REJECTED"
	MeetingRequestStatusCancelled MeetingRequestStatus = "CANCELLED"
)

type MeetingStatus string

const (
	MeetingStatusScheduled   MeetingStatus = "SCHEDULED"
	MeetingStatusRescheduled MeetingStatus = "RESCHEDULED"
	MeetingStatusCompleted   MeetingStatus = "COMPLETED"
	MeetingStatusCancelled   MeetingStatus = "CANCELLED"
	MeetingStatusNoShow      MeetingStatus = "NO_SHOW"
)

// RequesterType identifies which side of the application asked to meet.
type RequesterType string

const (
	RequesterClient     RequesterType = "CLIENT"
	RequesterFreelancer RequesterType = "FREELANCER"
)

type MeetingRequest struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID     uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	ApplicationID uuid.UUID `gorm:"type:uuid;not null;index" json:"application_id"`

	RequesterID   uuid.UUID     `gorm:"type:uuid;not null" json:"requester_id"`
	RequesterType RequesterType `gorm:"type:varchar(20);not null" json:"requester_type"`

	Reason         string         `gorm:"type:text" json:"reason"`
	SuggestedDates datatypes.JSON `json:"suggested_dates"` // ["2026-09-01", ...]

	Status       MeetingRequestStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	ResponseNote string               `gorm:"type:text" json:"response_note"`

	// CreatedMeetingID is written exactly once, on the approval transition.
	CreatedMeetingID *uuid.UUID `gorm:"type:uuid" json:"created_meeting_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Project     *Project     `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Application *Application `gorm:"foreignKey:ApplicationID" json:"application,omitempty"`
	Meeting     *Meeting     `gorm:"foreignKey:CreatedMeetingID" json:"meeting,omitempty"`
}

type Meeting struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID     uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	ApplicationID uuid.UUID `gorm:"type:uuid;not null;index" json:"application_id"`

	ScheduledDate  time.Time     `gorm:"not null" json:"scheduled_date"`
	ScheduledTime  string        `gorm:"type:varchar(20)" json:"scheduled_time"` // "14:30"
	GoogleMeetLink string        `gorm:"type:text" json:"google_meet_link"`
	Status         MeetingStatus `gorm:"type:varchar(20);not null;default:'SCHEDULED';index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
