package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/freelancehub/backend/internal/cache"
	"github.com/freelancehub/backend/internal/models"
)

// MeetingWorkflow governs meeting requests and their promotion into
// confirmed meetings. Approval and meeting creation are one atomic unit: a
// request can never end APPROVED without exactly one meeting.
type MeetingWorkflow struct {
	DB    *gorm.DB
	Cache *cache.Cache
}

func NewMeetingWorkflow(db *gorm.DB, c *cache.Cache) *MeetingWorkflow {
	return &MeetingWorkflow{DB: db, Cache: c}
}

type MeetingRequestInput struct {
	ProjectID      uuid.UUID
	ApplicationID  uuid.UUID
	Reason         string
	SuggestedDates []string // "2006-01-02"
}

type MeetingScheduleInput struct {
	ScheduledDate  time.Time
	ScheduledTime  string
	GoogleMeetLink string
}

// lockMeetingRequest loads a meeting request row FOR UPDATE inside tx.
func lockMeetingRequest(tx *gorm.DB, id uuid.UUID) (*models.MeetingRequest, error) {
	var mr models.MeetingRequest
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&mr, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &mr, nil
}

// requestCounterpart resolves who is allowed to answer a request: the other
// side of the application relative to the requester.
func requestCounterpart(tx *gorm.DB, req *models.MeetingRequest) (uuid.UUID, error) {
	if req.RequesterType == models.RequesterClient {
		var app models.Application
		err := tx.First(&app, "id = ?", req.ApplicationID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, ErrNotFound
		}
		if err != nil {
			return uuid.Nil, err
		}
		return app.FreelancerID, nil
	}

	var project models.Project
	err := tx.First(&project, "id = ?", req.ProjectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, ErrNotFound
	}
	if err != nil {
		return uuid.Nil, err
	}
	return project.ClientID, nil
}

// Request files a PENDING meeting request. The requester must be the
// project's client or the application's freelancer; the stored
// requester_type records which side asked.
func (w *MeetingWorkflow) Request(ctx context.Context, requesterID uuid.UUID, in MeetingRequestInput) (*models.MeetingRequest, error) {
	var mr models.MeetingRequest

	err := w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var app models.Application
		err := tx.First(&app, "id = ?", in.ApplicationID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if app.ProjectID != in.ProjectID {
			return ErrNotFound
		}

		var project models.Project
		if err := tx.First(&project, "id = ?", in.ProjectID).Error; err != nil {
			return err
		}

		var requesterType models.RequesterType
		switch requesterID {
		case project.ClientID:
			requesterType = models.RequesterClient
		case app.FreelancerID:
			requesterType = models.RequesterFreelancer
		default:
			return ErrForbidden
		}

		dates, err := json.Marshal(in.SuggestedDates)
		if err != nil {
			return ErrValidation
		}

		mr = models.MeetingRequest{
			ID:             uuid.New(),
			ProjectID:      in.ProjectID,
			ApplicationID:  in.ApplicationID,
			RequesterID:    requesterID,
			RequesterType:  requesterType,
			Reason:         in.Reason,
			SuggestedDates: dates,
			Status:         models.MeetingRequestStatusPending,
		}
		return tx.Create(&mr).Error
	})
	if err != nil {
		return nil, err
	}

	w.Cache.InvalidateTags(ctx, cache.ProjectTag(in.ProjectID), cache.ApplicationTag(in.ApplicationID))
	return &mr, nil
}

// Approve promotes a PENDING request into a scheduled meeting. The meeting
// row and the APPROVED status (with created_meeting_id) commit together;
// created_meeting_id is written exactly once because only the
// PENDING -> APPROVED edge writes it, and the guarded update makes that
// edge fire at most once.
func (w *MeetingWorkflow) Approve(ctx context.Context, requestID, approverID uuid.UUID, in MeetingScheduleInput) (*models.MeetingRequest, *models.Meeting, error) {
	var mr *models.MeetingRequest
	var meeting models.Meeting

	err := w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := lockMeetingRequest(tx, requestID)
		if err != nil {
			return err
		}
		if req.Status != models.MeetingRequestStatusPending {
			return ErrInvalidState
		}
		allowed, err := requestCounterpart(tx, req)
		if err != nil {
			return err
		}
		if approverID != allowed {
			return ErrForbidden // only the counterpart answers, never the requester or a third party
		}

		meeting = models.Meeting{
			ID:             uuid.New(),
			ProjectID:      req.ProjectID,
			ApplicationID:  req.ApplicationID,
			ScheduledDate:  in.ScheduledDate,
			ScheduledTime:  in.ScheduledTime,
			GoogleMeetLink: in.GoogleMeetLink,
			Status:         models.MeetingStatusScheduled,
		}
		if err := tx.Create(&meeting).Error; err != nil {
			return err
		}

		res := tx.Model(&models.MeetingRequest{}).
			Where("id = ? AND status = ?", req.ID, models.MeetingRequestStatusPending).
			Updates(map[string]interface{}{
				"status":             models.MeetingRequestStatusApproved,
				"created_meeting_id": meeting.ID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		req.Status = models.MeetingRequestStatusApproved
		req.CreatedMeetingID = &meeting.ID
		mr = req
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	w.Cache.InvalidateTags(ctx,
		cache.MeetingRequestTag(requestID),
		cache.ProjectTag(mr.ProjectID),
		cache.ApplicationTag(mr.ApplicationID),
	)
	return mr, &meeting, nil
}

// Reject declines a PENDING request. No meeting is created.
func (w *MeetingWorkflow) Reject(ctx context.Context, requestID, approverID uuid.UUID, responseNote string) (*models.MeetingRequest, error) {
	var mr *models.MeetingRequest

	err := w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := lockMeetingRequest(tx, requestID)
		if err != nil {
			return err
		}
		if req.Status != models.MeetingRequestStatusPending {
			return ErrInvalidState
		}
		allowed, err := requestCounterpart(tx, req)
		if err != nil {
			return err
		}
		if approverID != allowed {
			return ErrForbidden
		}

		res := tx.Model(&models.MeetingRequest{}).
			Where("id = ? AND status = ?", req.ID, models.MeetingRequestStatusPending).
			Updates(map[string]interface{}{
				"status":        models.MeetingRequestStatusRejected,
				"response_note": responseNote,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		req.Status = models.MeetingRequestStatusRejected
		req.ResponseNote = responseNote
		mr = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.Cache.InvalidateTags(ctx, cache.MeetingRequestTag(requestID), cache.ProjectTag(mr.ProjectID))
	return mr, nil
}

// Cancel withdraws a PENDING request. Only the original requester may
// cancel.
func (w *MeetingWorkflow) Cancel(ctx context.Context, requestID, requesterID uuid.UUID) (*models.MeetingRequest, error) {
	var mr *models.MeetingRequest

	err := w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := lockMeetingRequest(tx, requestID)
		if err != nil {
			return err
		}
		if req.RequesterID != requesterID {
			return ErrForbidden
		}
		if req.Status != models.MeetingRequestStatusPending {
			return ErrInvalidState
		}

		res := tx.Model(&models.MeetingRequest{}).
			Where("id = ? AND status = ?", req.ID, models.MeetingRequestStatusPending).
			Update("status", models.MeetingRequestStatusCancelled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		req.Status = models.MeetingRequestStatusCancelled
		mr = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.Cache.InvalidateTags(ctx, cache.MeetingRequestTag(requestID), cache.ProjectTag(mr.ProjectID))
	return mr, nil
}
