package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/freelancehub/backend/internal/cache"
	"github.com/freelancehub/backend/internal/models"
)

// ProjectWorkflow owns every project status transition. All multi-write
// groups run inside one DB transaction; cache invalidation runs after
// commit and is best-effort.
type ProjectWorkflow struct {
	DB    *gorm.DB
	Cache *cache.Cache
}

func NewProjectWorkflow(db *gorm.DB, c *cache.Cache) *ProjectWorkflow {
	return &ProjectWorkflow{DB: db, Cache: c}
}

type SubmitProjectInput struct {
	Title       string
	Description string
	Category    string
	Budget      int64
	Deadline    *time.Time
}

// lockProject loads a project row FOR UPDATE inside tx.
func lockProject(tx *gorm.DB, id uuid.UUID) (*models.Project, error) {
	var p models.Project
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// transitionProject applies a guarded status update. The WHERE clause
// re-checks the status the caller read, so a competing transaction that
// slipped in first turns into RowsAffected == 0 instead of a silent
// overwrite.
func transitionProject(tx *gorm.DB, p *models.Project, to models.ProjectStatus, updates map[string]interface{}) error {
	if !CanTransition(p.Status, to) {
		return ErrInvalidState
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = to
	res := tx.Model(&models.Project{}).
		Where("id = ? AND status = ?", p.ID, p.Status).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict // lost race
	}
	p.Status = to
	return nil
}

// Submit creates a project in ADMIN_VERIFICATION and bumps the client's
// posted counter in the same transaction.
func (w *ProjectWorkflow) Submit(ctx context.Context, clientID uuid.UUID, in SubmitProjectInput) (*models.Project, error) {
	if in.Title == "" {
		return nil, ErrValidation
	}

	project := models.Project{
		ID:          uuid.New(),
		ClientID:    clientID,
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Budget:      in.Budget,
		Deadline:    in.Deadline,
		Status:      models.ProjectStatusAdminVerification,
	}

	err := w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}

		res := tx.Model(&models.ClientProfile{}).
			Where("user_id = ?", clientID).
			Update("projects_posted", gorm.Expr("projects_posted + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound // no client profile for this user
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.Cache.InvalidateTags(ctx, cache.UserTag(clientID), cache.ProjectListTag)
	return &project, nil
}

// AdminApprove publishes a verified project: ADMIN_VERIFICATION -> OPEN.
func (w *ProjectWorkflow) AdminApprove(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	var project *models.Project
	err := w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := lockProject(tx, projectID)
		if err != nil {
			return err
		}
		if err := transitionProject(tx, p, models.ProjectStatusOpen, nil); err != nil {
			return err
		}
		project = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.Cache.InvalidateTags(ctx, cache.ProjectTag(projectID), cache.ProjectListTag)
	return project, nil
}

// AdminReject declines a submitted project: ADMIN_VERIFICATION -> CANCELLED.
// The reason is persisted for audit.
func (w *ProjectWorkflow) AdminReject(ctx context.Context, projectID uuid.UUID, reason string) (*models.Project, error) {
	var project *models.Project
	err := w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := lockProject(tx, projectID)
		if err != nil {
			return err
		}
		updates := map[string]interface{}{"rejection_reason": reason}
		if err := transitionProject(tx, p, models.ProjectStatusCancelled, updates); err != nil {
			return err
		}
		project = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.Cache.InvalidateTags(ctx, cache.ProjectTag(projectID), cache.ProjectListTag)
	return project, nil
}

// Cancel lets the owning client withdraw a project that has no freelancer
// yet: OPEN -> CANCELLED (also allowed from ADMIN_VERIFICATION).
func (w *ProjectWorkflow) Cancel(ctx context.Context, projectID, clientID uuid.UUID) (*models.Project, error) {
	var project *models.Project
	err := w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := lockProject(tx, projectID)
		if err != nil {
			return err
		}
		if p.ClientID != clientID {
			return ErrForbidden
		}
		if err := transitionProject(tx, p, models.ProjectStatusCancelled, nil); err != nil {
			return err
		}
		project = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.Cache.InvalidateTags(ctx, cache.ProjectTag(projectID), cache.UserTag(clientID), cache.ProjectListTag)
	return project, nil
}

// assign moves an OPEN, unassigned project to ASSIGNED inside the caller's
// transaction. The application workflow is the only caller; it holds the
// project row lock already.
func assign(tx *gorm.DB, p *models.Project, freelancerID uuid.UUID) error {
	if p.Status != models.ProjectStatusOpen || p.AssignedTo != nil {
		return ErrInvalidState
	}

	var profile models.FreelancerProfile
	err := tx.Where("user_id = ?", freelancerID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if !profile.Availability {
		return ErrNotAvailable
	}

	updates := map[string]interface{}{"assigned_to": freelancerID}
	if err := transitionProject(tx, p, models.ProjectStatusAssigned, updates); err != nil {
		return err
	}
	p.AssignedTo = &freelancerID
	return nil
}

// RequestCompletion is the assigned freelancer asking for sign-off:
// ASSIGNED -> PENDING_COMPLETION.
func (w *ProjectWorkflow) RequestCompletion(ctx context.Context, projectID, freelancerID uuid.UUID, note string) (*models.Project, error) {
	var project *models.Project
	err := w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := lockProject(tx, projectID)
		if err != nil {
			return err
		}
		if p.AssignedTo == nil || *p.AssignedTo != freelancerID {
			return ErrForbidden
		}
		updates := map[string]interface{}{"completion_note": note}
		if err := transitionProject(tx, p, models.ProjectStatusPendingCompletion, updates); err != nil {
			return err
		}
		project = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.Cache.InvalidateTags(ctx, cache.ProjectTag(projectID), cache.UserTag(freelancerID))
	return project, nil
}

// ApproveCompletion is the client accepting delivered work:
// PENDING_COMPLETION -> COMPLETED. The freelancer's completed counter is
// incremented in the same transaction as the status write.
func (w *ProjectWorkflow) ApproveCompletion(ctx context.Context, projectID, clientID uuid.UUID) (*models.Project, error) {
	var project *models.Project
	var freelancerID uuid.UUID

	err := w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := lockProject(tx, projectID)
		if err != nil {
			return err
		}
		if p.ClientID != clientID {
			return ErrForbidden
		}
		if p.AssignedTo == nil {
			return ErrInvalidState
		}
		freelancerID = *p.AssignedTo

		if err := transitionProject(tx, p, models.ProjectStatusCompleted, nil); err != nil {
			return err
		}

		res := tx.Model(&models.FreelancerProfile{}).
			Where("user_id = ?", freelancerID).
			Update("projects_completed", gorm.Expr("projects_completed + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		project = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.Cache.InvalidateTags(ctx,
		cache.ProjectTag(projectID),
		cache.UserTag(clientID),
		cache.UserTag(freelancerID),
		cache.ProjectListTag,
	)
	return project, nil
}

// RejectCompletion sends the project back to work:
// PENDING_COMPLETION -> ASSIGNED. Assignment is untouched; the reason is
// kept for audit.
func (w *ProjectWorkflow) RejectCompletion(ctx context.Context, projectID, clientID uuid.UUID, reason string) (*models.Project, error) {
	if reason == "" {
		return nil, ErrValidation
	}

	var project *models.Project
	err := w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := lockProject(tx, projectID)
		if err != nil {
			return err
		}
		if p.ClientID != clientID {
			return ErrForbidden
		}
		updates := map[string]interface{}{"rejection_reason": reason}
		if err := transitionProject(tx, p, models.ProjectStatusAssigned, updates); err != nil {
			return err
		}
		project = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.Cache.InvalidateTags(ctx, cache.ProjectTag(projectID), cache.UserTag(clientID))
	return project, nil
}
