package handlers

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freelancehub/backend/internal/cache"
	"github.com/freelancehub/backend/internal/models"
	"github.com/freelancehub/backend/internal/realtime"
	"github.com/freelancehub/backend/internal/workflow"
)

type MeetingHandler struct {
	DB       *gorm.DB
	Cache    *cache.Cache
	Hub      *realtime.Hub
	Meetings *workflow.MeetingWorkflow
}

func NewMeetingHandler(db *gorm.DB, c *cache.Cache, hub *realtime.Hub) *MeetingHandler {
	return &MeetingHandler{
		DB:       db,
		Cache:    c,
		Hub:      hub,
		Meetings: workflow.NewMeetingWorkflow(db, c),
	}
}

// Routes mounts the meeting-request surface. Either side of an application
// can file a request, so the routes are role-agnostic; the workflow checks
// that the caller actually belongs to the application.
func (h *MeetingHandler) Routes(protected fiber.Router) {
	protected.Post("/meeting-requests", h.Request)
	protected.Get("/meeting-requests", h.ListMine)
	protected.Post("/meeting-requests/:id/approve", h.Approve)
	protected.Post("/meeting-requests/:id/reject", h.Reject)
	protected.Post("/meeting-requests/:id/cancel", h.Cancel)
}

type MeetingRequestResponse struct {
	ID               string    `json:"id"`
	ProjectID        string    `json:"project_id"`
	ApplicationID    string    `json:"application_id"`
	RequesterID      string    `json:"requester_id"`
	RequesterType    string    `json:"requester_type"`
	Reason           string    `json:"reason"`
	SuggestedDates   []string  `json:"suggested_dates"`
	Status           string    `json:"status"`
	ResponseNote     string    `json:"response_note,omitempty"`
	CreatedMeetingID *string   `json:"created_meeting_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`

	Meeting *MeetingResponse `json:"meeting,omitempty"`
}

type MeetingResponse struct {
	ID             string    `json:"id"`
	ProjectID      string    `json:"project_id"`
	ScheduledDate  string    `json:"scheduled_date"`
	ScheduledTime  string    `json:"scheduled_time"`
	GoogleMeetLink string    `json:"google_meet_link"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

func toMeetingResponse(m *models.Meeting) MeetingResponse {
	return MeetingResponse{
		ID:             m.ID.String(),
		ProjectID:      m.ProjectID.String(),
		ScheduledDate:  m.ScheduledDate.Format("2006-01-02"),
		ScheduledTime:  m.ScheduledTime,
		GoogleMeetLink: m.GoogleMeetLink,
		Status:         string(m.Status),
		CreatedAt:      m.CreatedAt,
	}
}

func toMeetingRequestResponse(mr *models.MeetingRequest) MeetingRequestResponse {
	resp := MeetingRequestResponse{
		ID:            mr.ID.String(),
		ProjectID:     mr.ProjectID.String(),
		ApplicationID: mr.ApplicationID.String(),
		RequesterID:   mr.RequesterID.String(),
		RequesterType: string(mr.RequesterType),
		Reason:        mr.Reason,
		Status:        string(mr.Status),
		ResponseNote:  mr.ResponseNote,
		CreatedAt:     mr.CreatedAt,
	}
	if len(mr.SuggestedDates) > 0 {
		if err := json.Unmarshal(mr.SuggestedDates, &resp.SuggestedDates); err != nil {
			resp.SuggestedDates = nil
		}
	}
	if mr.CreatedMeetingID != nil {
		id := mr.CreatedMeetingID.String()
		resp.CreatedMeetingID = &id
	}
	if mr.Meeting != nil {
		m := toMeetingResponse(mr.Meeting)
		resp.Meeting = &m
	}
	return resp
}

// counterpartOf resolves who should be notified about a request event: the
// other side of the application relative to the requester.
func (h *MeetingHandler) counterpartOf(mr *models.MeetingRequest) uuid.UUID {
	var app models.Application
	if err := h.DB.First(&app, "id = ?", mr.ApplicationID).Error; err != nil {
		return uuid.Nil
	}
	if mr.RequesterType == models.RequesterClient {
		return app.FreelancerID
	}
	var project models.Project
	if err := h.DB.First(&project, "id = ?", mr.ProjectID).Error; err != nil {
		return uuid.Nil
	}
	return project.ClientID
}

func (h *MeetingHandler) Request(c *fiber.Ctx) error {
	requesterID, err := getAuth(c)
	if err != nil {
		return err
	}

	var req struct {
		ProjectID      string   `json:"project_id"`
		ApplicationID  string   `json:"application_id"`
		Reason         string   `json:"reason"`
		SuggestedDates []string `json:"suggested_dates"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid project ID",
		})
	}
	appID, err := uuid.Parse(req.ApplicationID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid application ID",
		})
	}

	mr, err := h.Meetings.Request(c.UserContext(), requesterID, workflow.MeetingRequestInput{
		ProjectID:      projectID,
		ApplicationID:  appID,
		Reason:         req.Reason,
		SuggestedDates: req.SuggestedDates,
	})
	if err != nil {
		return respondWorkflowError(c, err)
	}

	if other := h.counterpartOf(mr); other != uuid.Nil {
		h.Hub.SendToUser(other, realtime.Event{
			Type: "meeting_request_status",
			Data: toMeetingRequestResponse(mr),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    toMeetingRequestResponse(mr),
	})
}

// Approve schedules the meeting and marks the request APPROVED in one step.
func (h *MeetingHandler) Approve(c *fiber.Ctx) error {
	approverID, err := getAuth(c)
	if err != nil {
		return err
	}
	requestID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid meeting request ID",
		})
	}

	var req struct {
		ScheduledDate  string `json:"scheduled_date"` // "2026-09-01"
		ScheduledTime  string `json:"scheduled_time"` // "14:30"
		GoogleMeetLink string `json:"google_meet_link"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	date, err := time.Parse("2006-01-02", req.ScheduledDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid scheduled date, expected YYYY-MM-DD",
		})
	}

	mr, meeting, err := h.Meetings.Approve(c.UserContext(), requestID, approverID, workflow.MeetingScheduleInput{
		ScheduledDate:  date,
		ScheduledTime:  req.ScheduledTime,
		GoogleMeetLink: req.GoogleMeetLink,
	})
	if err != nil {
		return respondWorkflowError(c, err)
	}

	mr.Meeting = meeting
	h.Hub.SendToUser(mr.RequesterID, realtime.Event{
		Type: "meeting_request_status",
		Data: toMeetingRequestResponse(mr),
	})
	return c.JSON(fiber.Map{
		"success": true,
		"data":    toMeetingRequestResponse(mr),
	})
}

func (h *MeetingHandler) Reject(c *fiber.Ctx) error {
	approverID, err := getAuth(c)
	if err != nil {
		return err
	}
	requestID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid meeting request ID",
		})
	}

	var req struct {
		ResponseNote string `json:"response_note"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	mr, err := h.Meetings.Reject(c.UserContext(), requestID, approverID, req.ResponseNote)
	if err != nil {
		return respondWorkflowError(c, err)
	}

	h.Hub.SendToUser(mr.RequesterID, realtime.Event{
		Type: "meeting_request_status",
		Data: toMeetingRequestResponse(mr),
	})
	return c.JSON(fiber.Map{"success": true, "data": toMeetingRequestResponse(mr)})
}

func (h *MeetingHandler) Cancel(c *fiber.Ctx) error {
	requesterID, err := getAuth(c)
	if err != nil {
		return err
	}
	requestID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid meeting request ID",
		})
	}

	mr, err := h.Meetings.Cancel(c.UserContext(), requestID, requesterID)
	if err != nil {
		return respondWorkflowError(c, err)
	}

	if other := h.counterpartOf(mr); other != uuid.Nil {
		h.Hub.SendToUser(other, realtime.Event{
			Type: "meeting_request_status",
			Data: toMeetingRequestResponse(mr),
		})
	}
	return c.JSON(fiber.Map{"success": true, "data": toMeetingRequestResponse(mr)})
}

// ListMine returns requests the caller filed plus requests awaiting their
// answer (requests on their projects or applications filed by the other
// side).
func (h *MeetingHandler) ListMine(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	var requests []models.MeetingRequest
	err = h.DB.Preload("Meeting").
		Where("requester_id = ?", userID).
		Or("project_id IN (?)",
			h.DB.Model(&models.Project{}).Select("id").Where("client_id = ?", userID)).
		Or("application_id IN (?)",
			h.DB.Model(&models.Application{}).Select("id").Where("freelancer_id = ?", userID)).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		log.Println("Error fetching meeting requests:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch meeting requests",
		})
	}

	out := make([]MeetingRequestResponse, 0, len(requests))
	for i := range requests {
		out = append(out, toMeetingRequestResponse(&requests[i]))
	}
	return c.JSON(fiber.Map{"success": true, "data": out})
}
