package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freelancehub/backend/internal/cache"
	"github.com/freelancehub/backend/internal/middleware"
	"github.com/freelancehub/backend/internal/models"
	"github.com/freelancehub/backend/internal/realtime"
	"github.com/freelancehub/backend/internal/workflow"
)

type ApplicationHandler struct {
	DB           *gorm.DB
	Cache        *cache.Cache
	Hub          *realtime.Hub
	Applications *workflow.ApplicationWorkflow
}

func NewApplicationHandler(db *gorm.DB, c *cache.Cache, hub *realtime.Hub) *ApplicationHandler {
	return &ApplicationHandler{
		DB:           db,
		Cache:        c,
		Hub:          hub,
		Applications: workflow.NewApplicationWorkflow(db, c),
	}
}

func (h *ApplicationHandler) Routes(protected fiber.Router) {
	protected.Post("/freelancer/projects/:id/apply",
		middleware.RequireRoles("freelancer"), h.Apply)
	protected.Get("/freelancer/applications",
		middleware.RequireRoles("freelancer"), h.ListMine)

	protected.Get("/client/projects/:id/applications",
		middleware.RequireRoles("client"), h.ListByProject)
	protected.Post("/client/projects/:id/applications/:appId/approve",
		middleware.RequireRoles("client"), h.Approve)
	protected.Post("/client/projects/:id/applications/:appId/reject",
		middleware.RequireRoles("client"), h.Reject)
}

type ApplicationResponse struct {
	ID           string    `json:"id"`
	ProjectID    string    `json:"project_id"`
	FreelancerID string    `json:"freelancer_id"`
	Proposal     string    `json:"proposal"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`

	Freelancer *UserMini        `json:"freelancer,omitempty"`
	Project    *ProjectResponse `json:"project,omitempty"`
}

func toApplicationResponse(a *models.Application) ApplicationResponse {
	resp := ApplicationResponse{
		ID:           a.ID.String(),
		ProjectID:    a.ProjectID.String(),
		FreelancerID: a.FreelancerID.String(),
		Proposal:     a.Proposal,
		Status:       string(a.Status),
		CreatedAt:    a.CreatedAt,
	}
	if a.Freelancer != nil {
		resp.Freelancer = &UserMini{ID: a.Freelancer.ID.String(), Name: a.Freelancer.Name}
	}
	if a.Project != nil {
		p := toProjectResponse(a.Project)
		resp.Project = &p
	}
	return resp
}

// Apply submits an application for an OPEN project.
func (h *ApplicationHandler) Apply(c *fiber.Ctx) error {
	freelancerID, err := getAuth(c)
	if err != nil {
		return err
	}
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid project ID",
		})
	}

	var req struct {
		Proposal string `json:"proposal"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	app, err := h.Applications.Apply(c.UserContext(), projectID, freelancerID, req.Proposal)
	if err != nil {
		return respondWorkflowError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    toApplicationResponse(app),
	})
}

// Approve picks the winning application; every other PENDING application
// on the project is rejected and the project becomes ASSIGNED.
func (h *ApplicationHandler) Approve(c *fiber.Ctx) error {
	clientID, err := getAuth(c)
	if err != nil {
		return err
	}
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid project ID",
		})
	}
	appID, err := uuid.Parse(c.Params("appId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid application ID",
		})
	}

	app, err := h.Applications.Approve(c.UserContext(), projectID, appID, clientID)
	if err != nil {
		return respondWorkflowError(c, err)
	}

	h.Hub.SendToParties(clientID, app.FreelancerID, realtime.Event{
		Type: "application_status",
		Data: toApplicationResponse(app),
	})
	return c.JSON(fiber.Map{"success": true, "data": toApplicationResponse(app)})
}

func (h *ApplicationHandler) Reject(c *fiber.Ctx) error {
	clientID, err := getAuth(c)
	if err != nil {
		return err
	}
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid project ID",
		})
	}
	appID, err := uuid.Parse(c.Params("appId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid application ID",
		})
	}

	app, err := h.Applications.Reject(c.UserContext(), projectID, appID, clientID)
	if err != nil {
		return respondWorkflowError(c, err)
	}

	h.Hub.SendToUser(app.FreelancerID, realtime.Event{
		Type: "application_status",
		Data: toApplicationResponse(app),
	})
	return c.JSON(fiber.Map{"success": true, "data": toApplicationResponse(app)})
}

// ListByProject lets the owning client review applications.
func (h *ApplicationHandler) ListByProject(c *fiber.Ctx) error {
	clientID, err := getAuth(c)
	if err != nil {
		return err
	}
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid project ID",
		})
	}

	var project models.Project
	if err := h.DB.First(&project, "id = ?", projectID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Project not found",
		})
	}
	if project.ClientID != clientID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Access denied",
		})
	}

	var apps []models.Application
	if err := h.DB.Preload("Freelancer").
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&apps).Error; err != nil {
		log.Println("Error fetching applications:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch applications",
		})
	}

	out := make([]ApplicationResponse, 0, len(apps))
	for i := range apps {
		out = append(out, toApplicationResponse(&apps[i]))
	}
	return c.JSON(fiber.Map{"success": true, "data": out})
}

// ListMine returns the caller's applications with their projects.
func (h *ApplicationHandler) ListMine(c *fiber.Ctx) error {
	freelancerID, err := getAuth(c)
	if err != nil {
		return err
	}

	var apps []models.Application
	if err := h.DB.Preload("Project").
		Where("freelancer_id = ?", freelancerID).
		Order("created_at DESC").
		Find(&apps).Error; err != nil {
		log.Println("Error fetching applications:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch applications",
		})
	}

	out := make([]ApplicationResponse, 0, len(apps))
	for i := range apps {
		out = append(out, toApplicationResponse(&apps[i]))
	}
	return c.JSON(fiber.Map{"success": true, "data": out})
}
