package models

import (
	"time"

	"github.com/google/uuid"
)

type ProjectStatus string

const (
	ProjectStatusAdminVerification  ProjectStatus = "ADMIN_VERIFICATION" // waiting for admin review
	ProjectStatusOpen               ProjectStatus = "OPEN"               // accepting applications
	ProjectStatusAssigned           ProjectStatus = "ASSIGNED"           // freelancer working
	ProjectStatusPendingCompletion  ProjectStatus = "PENDING_COMPLETION" // freelancer requested sign-off
	ProjectStatusCompleted          ProjectStatus = "COMPLETED"          // client approved
	ProjectStatusRejectedCompletion ProjectStatus = "REJECTED_COMPLETION"
	ProjectStatusCancelled          ProjectStatus = "CANCELLED"
)

type Project struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ClientID uuid.UUID `gorm:"type:uuid;index;not null" json:"client_id"`

	Title       string     `gorm:"type:varchar(200);not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Category    string     `gorm:"type:varchar(100);index" json:"category"`
	Budget      int64      `json:"budget"`
	Deadline    *time.Time `json:"deadline,omitempty"`

	Status ProjectStatus `gorm:"type:varchar(30);not null;default:'ADMIN_VERIFICATION';index" json:"status"`

	// AssignedTo is non-nil only while status is ASSIGNED or later.
	// References the freelancer's user id.
	AssignedTo *uuid.UUID `gorm:"type:uuid;index" json:"assigned_to,omitempty"`

	// Audit trail for completion review
	CompletionNote  string `gorm:"type:text" json:"completion_note"`
	RejectionReason string `gorm:"type:text" json:"rejection_reason"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Client       *User         `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Freelancer   *User         `gorm:"foreignKey:AssignedTo" json:"freelancer,omitempty"`
	Applications []Application `gorm:"foreignKey:ProjectID" json:"applications,omitempty"`
}
