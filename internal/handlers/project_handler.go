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

type ProjectHandler struct {
	DB       *gorm.DB
	Cache    *cache.Cache
	Hub      *realtime.Hub
	Projects *workflow.ProjectWorkflow
	CacheTTL time.Duration
}

func NewProjectHandler(db *gorm.DB, c *cache.Cache, hub *realtime.Hub, ttl time.Duration) *ProjectHandler {
	return &ProjectHandler{
		DB:       db,
		Cache:    c,
		Hub:      hub,
		Projects: workflow.NewProjectWorkflow(db, c),
		CacheTTL: ttl,
	}
}

func (h *ProjectHandler) Routes(public fiber.Router, protected fiber.Router) {
	public.Get("/projects", h.ListPublic)
	public.Get("/projects/:id", h.GetDetail)

	protected.Post("/client/projects",
		middleware.RequireRoles("client"), h.Create)
	protected.Post("/client/projects/:id/cancel",
		middleware.RequireRoles("client"), h.Cancel)
	protected.Post("/client/projects/:id/completion/approve",
		middleware.RequireRoles("client"), h.ApproveCompletion)
	protected.Post("/client/projects/:id/completion/reject",
		middleware.RequireRoles("client"), h.RejectCompletion)

	protected.Post("/freelancer/projects/:id/completion/request",
		middleware.RequireRoles("freelancer"), h.RequestCompletion)

	protected.Post("/admin/projects/:id/approve",
		middleware.RequireRoles("admin"), h.AdminApprove)
	protected.Post("/admin/projects/:id/reject",
		middleware.RequireRoles("admin"), h.AdminReject)
	protected.Get("/admin/projects/pending",
		middleware.RequireRoles("admin"), h.ListPendingVerification)
}

// ==== REQUEST / RESPONSE STRUCTS ====

type CreateProjectRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Budget      int64  `json:"budget"`
	Deadline    string `json:"deadline"` // ISO format: 2026-01-03
}

type ProjectResponse struct {
	ID              string     `json:"id"`
	ClientID        string     `json:"client_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Category        string     `json:"category"`
	Budget          int64      `json:"budget"`
	Deadline        *time.Time `json:"deadline,omitempty"`
	Status          string     `json:"status"`
	AssignedTo      *string    `json:"assigned_to,omitempty"`
	CompletionNote  string     `json:"completion_note,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`

	Client     *UserMini `json:"client,omitempty"`
	Freelancer *UserMini `json:"freelancer,omitempty"`
}

type UserMini struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func toProjectResponse(p *models.Project) ProjectResponse {
	resp := ProjectResponse{
		ID:              p.ID.String(),
		ClientID:        p.ClientID.String(),
		Title:           p.Title,
		Description:     p.Description,
		Category:        p.Category,
		Budget:          p.Budget,
		Deadline:        p.Deadline,
		Status:          string(p.Status),
		CompletionNote:  p.CompletionNote,
		RejectionReason: p.RejectionReason,
		CreatedAt:       p.CreatedAt,
	}
	if p.AssignedTo != nil {
		s := p.AssignedTo.String()
		resp.AssignedTo = &s
	}
	if p.Client != nil {
		resp.Client = &UserMini{ID: p.Client.ID.String(), Name: p.Client.Name}
	}
	if p.Freelancer != nil {
		resp.Freelancer = &UserMini{ID: p.Freelancer.ID.String(), Name: p.Freelancer.Name}
	}
	return resp
}

// ==== HANDLERS ====

// Create submits a new project for admin verification.
func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	clientID, err := getAuth(c)
	if err != nil {
		return err
	}

	var req CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Title is required",
		})
	}

	in := workflow.SubmitProjectInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Budget:      req.Budget,
	}
	if req.Deadline != "" {
		if d, err := time.Parse("2006-01-02", req.Deadline); err == nil {
			in.Deadline = &d
		}
	}

	project, err := h.Projects.Submit(c.UserContext(), clientID, in)
	if err != nil {
		return respondWorkflowError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    toProjectResponse(project),
	})
}

// ListPublic returns OPEN projects, read-through cached and registered
// under the list tag plus each project's own tag.
func (h *ProjectHandler) ListPublic(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	category := c.Query("category")

	key := cache.ProjectListKey(category, page, limit)
	var cached []ProjectResponse
	if h.Cache.GetJSON(c.UserContext(), key, &cached) {
		return c.JSON(fiber.Map{"success": true, "data": cached})
	}

	q := h.DB.Preload("Client").
		Where("status = ?", models.ProjectStatusOpen).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit)
	if category != "" {
		q = q.Where("category = ?", category)
	}

	var projects []models.Project
	if err := q.Find(&projects).Error; err != nil {
		log.Println("Error fetching projects:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch projects",
		})
	}

	out := make([]ProjectResponse, 0, len(projects))
	tags := []string{cache.ProjectListTag}
	for i := range projects {
		out = append(out, toProjectResponse(&projects[i]))
		tags = append(tags, cache.ProjectTag(projects[i].ID))
	}
	h.Cache.SetJSON(c.UserContext(), key, out, h.CacheTTL, tags...)

	return c.JSON(fiber.Map{"success": true, "data": out})
}

// GetDetail returns one project, cached under its entity tag.
func (h *ProjectHandler) GetDetail(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid project ID",
		})
	}

	key := cache.ProjectKey(projectID)
	var cached ProjectResponse
	if h.Cache.GetJSON(c.UserContext(), key, &cached) {
		return c.JSON(fiber.Map{"success": true, "data": cached})
	}

	var project models.Project
	if err := h.DB.Preload("Client").Preload("Freelancer").
		First(&project, "id = ?", projectID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Project not found",
		})
	}

	resp := toProjectResponse(&project)
	h.Cache.SetJSON(c.UserContext(), key, resp, h.CacheTTL,
		cache.ProjectTag(project.ID), cache.UserTag(project.ClientID))

	return c.JSON(fiber.Map{"success": true, "data": resp})
}

// ListPendingVerification is the admin review queue.
func (h *ProjectHandler) ListPendingVerification(c *fiber.Ctx) error {
	var projects []models.Project
	if err := h.DB.Preload("Client").
		Where("status = ?", models.ProjectStatusAdminVerification).
		Order("created_at ASC").
		Find(&projects).Error; err != nil {
		log.Println("Error fetching verification queue:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch projects",
		})
	}

	out := make([]ProjectResponse, 0, len(projects))
	for i := range projects {
		out = append(out, toProjectResponse(&projects[i]))
	}
	return c.JSON(fiber.Map{"success": true, "data": out})
}

func (h *ProjectHandler) AdminApprove(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid project ID",
		})
	}

	project, err := h.Projects.AdminApprove(c.UserContext(), projectID)
	if err != nil {
		return respondWorkflowError(c, err)
	}

	h.Hub.SendToUser(project.ClientID, realtime.Event{
		Type: "project_status",
		Data: toProjectResponse(project),
	})
	return c.JSON(fiber.Map{"success": true, "data": toProjectResponse(project)})
}

func (h *ProjectHandler) AdminReject(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid project ID",
		})
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil || req.Reason == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Rejection reason is required",
		})
	}

	project, err := h.Projects.AdminReject(c.UserContext(), projectID, req.Reason)
	if err != nil {
		return respondWorkflowError(c, err)
	}

	h.Hub.SendToUser(project.ClientID, realtime.Event{
		Type: "project_status",
		Data: toProjectResponse(project),
	})
	return c.JSON(fiber.Map{"success": true, "data": toProjectResponse(project)})
}

func (h *ProjectHandler) Cancel(c *fiber.Ctx) error {
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

	project, err := h.Projects.Cancel(c.UserContext(), projectID, clientID)
	if err != nil {
		return respondWorkflowError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": toProjectResponse(project)})
}

// RequestCompletion is called by the assigned freelancer when the work is
// ready for client sign-off.
func (h *ProjectHandler) RequestCompletion(c *fiber.Ctx) error {
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
		Note string `json:"note"`
	}
	_ = c.BodyParser(&req)

	project, err := h.Projects.RequestCompletion(c.UserContext(), projectID, freelancerID, req.Note)
	if err != nil {
		return respondWorkflowError(c, err)
	}

	h.Hub.SendToParties(project.ClientID, freelancerID, realtime.Event{
		Type: "project_status",
		Data: toProjectResponse(project),
	})
	return c.JSON(fiber.Map{"success": true, "data": toProjectResponse(project)})
}

func (h *ProjectHandler) ApproveCompletion(c *fiber.Ctx) error {
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

	project, err := h.Projects.ApproveCompletion(c.UserContext(), projectID, clientID)
	if err != nil {
		return respondWorkflowError(c, err)
	}

	if project.AssignedTo != nil {
		h.Hub.SendToParties(project.ClientID, *project.AssignedTo, realtime.Event{
			Type: "project_status",
			Data: toProjectResponse(project),
		})
	}
	return c.JSON(fiber.Map{"success": true, "data": toProjectResponse(project)})
}

func (h *ProjectHandler) RejectCompletion(c *fiber.Ctx) error {
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

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil || req.Reason == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Rejection reason is required",
		})
	}

	project, err := h.Projects.RejectCompletion(c.UserContext(), projectID, clientID, req.Reason)
	if err != nil {
		return respondWorkflowError(c, err)
	}

	if project.AssignedTo != nil {
		h.Hub.SendToParties(project.ClientID, *project.AssignedTo, realtime.Event{
			Type: "project_status",
			Data: toProjectResponse(project),
		})
	}
	return c.JSON(fiber.Map{"success": true, "data": toProjectResponse(project)})
}
