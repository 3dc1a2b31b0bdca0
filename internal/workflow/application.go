package workflow

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freelancehub/backend/internal/cache"
	"github.com/freelancehub/backend/internal/models"
)

// ApplicationWorkflow governs application submission and the single-winner
// approval: approving one application assigns the project and implicitly
// rejects every competing PENDING application, as one atomic unit.
type ApplicationWorkflow struct {
	DB    *gorm.DB
	Cache *cache.Cache
}

func NewApplicationWorkflow(db *gorm.DB, c *cache.Cache) *ApplicationWorkflow {
	return &ApplicationWorkflow{DB: db, Cache: c}
}

// Apply submits a PENDING application. Duplicate (project, freelancer)
// pairs fail with ErrConflict — the composite unique index backs this up
// when two identical applies race.
func (w *ApplicationWorkflow) Apply(ctx context.Context, projectID, freelancerID uuid.UUID, proposal string) (*models.Application, error) {
	app := models.Application{
		ID:           uuid.New(),
		ProjectID:    projectID,
		FreelancerID: freelancerID,
		Proposal:     proposal,
		Status:       models.ApplicationStatusPending,
	}

	err := w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project models.Project
		err := tx.First(&project, "id = ?", projectID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if project.Status != models.ProjectStatusOpen || project.AssignedTo != nil {
			return ErrInvalidState
		}

		var profile models.FreelancerProfile
		err = tx.Where("user_id = ?", freelancerID).First(&profile).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if !profile.Availability {
			return ErrNotAvailable
		}

		var existing models.Application
		err = tx.Where("project_id = ? AND freelancer_id = ?", projectID, freelancerID).
			First(&existing).Error
		if err == nil {
			return ErrConflict
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Create(&app).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrConflict // concurrent apply won the insert
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.Cache.InvalidateTags(ctx, cache.ProjectTag(projectID), cache.UserTag(freelancerID))
	return &app, nil
}

// Approve picks the winning application. One transaction covers all five
// writes: verify the application, verify the project, approve the winner,
// reject every other PENDING application, assign the project. When two
// approvals race on the same project, the loser re-reads a non-OPEN status
// and fails with ErrConflict.
func (w *ApplicationWorkflow) Approve(ctx context.Context, projectID, applicationID, clientID uuid.UUID) (*models.Application, error) {
	var app models.Application
	var rejectedIDs []uuid.UUID

	err := w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := lockProject(tx, projectID)
		if err != nil {
			return err
		}
		if project.ClientID != clientID {
			return ErrForbidden
		}
		if project.Status != models.ProjectStatusOpen {
			return ErrConflict // another approval already committed
		}

		err = tx.First(&app, "id = ?", applicationID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if app.ProjectID != projectID {
			return ErrNotFound
		}
		if app.Status != models.ApplicationStatusPending {
			return ErrInvalidState
		}

		res := tx.Model(&models.Application{}).
			Where("id = ? AND status = ?", app.ID, models.ApplicationStatusPending).
			Update("status", models.ApplicationStatusApproved)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		// Everyone else still PENDING on this project loses.
		var losers []models.Application
		if err := tx.Where("project_id = ? AND status = ? AND id != ?",
			projectID, models.ApplicationStatusPending, app.ID).
			Find(&losers).Error; err != nil {
			return err
		}
		for _, l := range losers {
			rejectedIDs = append(rejectedIDs, l.ID)
		}
		if len(losers) > 0 {
			if err := tx.Model(&models.Application{}).
				Where("project_id = ? AND status = ? AND id != ?",
					projectID, models.ApplicationStatusPending, app.ID).
				Update("status", models.ApplicationStatusRejected).Error; err != nil {
				return err
			}
		}

		if err := assign(tx, project, app.FreelancerID); err != nil {
			return err
		}

		app.Status = models.ApplicationStatusApproved
		return nil
	})
	if err != nil {
		return nil, err
	}

	tags := []string{
		cache.ProjectTag(projectID),
		cache.ApplicationTag(app.ID),
		cache.UserTag(clientID),
		cache.UserTag(app.FreelancerID),
		cache.ProjectListTag,
	}
	for _, id := range rejectedIDs {
		tags = append(tags, cache.ApplicationTag(id))
	}
	w.Cache.InvalidateTags(ctx, tags...)

	return &app, nil
}

// Reject declines a single PENDING application. No cascade.
func (w *ApplicationWorkflow) Reject(ctx context.Context, projectID, applicationID, clientID uuid.UUID) (*models.Application, error) {
	var app models.Application

	err := w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project models.Project
		err := tx.First(&project, "id = ?", projectID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if project.ClientID != clientID {
			return ErrForbidden
		}

		err = tx.First(&app, "id = ?", applicationID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if app.ProjectID != projectID {
			return ErrNotFound
		}
		if app.Status != models.ApplicationStatusPending {
			return ErrInvalidState
		}

		res := tx.Model(&models.Application{}).
			Where("id = ? AND status = ?", app.ID, models.ApplicationStatusPending).
			Update("status", models.ApplicationStatusRejected)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		app.Status = models.ApplicationStatusRejected
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.Cache.InvalidateTags(ctx, cache.ApplicationTag(app.ID), cache.UserTag(app.FreelancerID))
	return &app, nil
}
