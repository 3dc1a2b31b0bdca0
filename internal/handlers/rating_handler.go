package handlers

import (
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

type RatingHandler struct {
	DB      *gorm.DB
	Cache   *cache.Cache
	Hub     *realtime.Hub
	Ratings *workflow.RatingWorkflow
}

func NewRatingHandler(db *gorm.DB, c *cache.Cache, hub *realtime.Hub) *RatingHandler {
	return &RatingHandler{
		DB:      db,
		Cache:   c,
		Hub:     hub,
		Ratings: workflow.NewRatingWorkflow(db, c),
	}
}

func (h *RatingHandler) Routes(public, protected fiber.Router) {
	public.Get("/users/:id/ratings", h.ListForUser)

	protected.Post("/projects/:id/ratings", h.Submit)
	protected.Put("/ratings/:id", h.Update)
}

type RatingResponse struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	RaterID   string    `json:"rater_id"`
	RatedID   string    `json:"rated_id"`
	Direction string    `json:"direction"`
	Rating    int       `json:"rating"`
	Review    string    `json:"review,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	Rater *UserMini `json:"rater,omitempty"`
}

func toRatingResponse(r *models.Rating) RatingResponse {
	resp := RatingResponse{
		ID:        r.ID.String(),
		ProjectID: r.ProjectID.String(),
		RaterID:   r.RaterID.String(),
		RatedID:   r.RatedID.String(),
		Direction: string(r.Direction),
		Rating:    r.Rating,
		Review:    r.Review,
		CreatedAt: r.CreatedAt,
	}
	if r.Rater != nil {
		resp.Rater = &UserMini{ID: r.Rater.ID.String(), Name: r.Rater.Name}
	}
	return resp
}

// Submit rates the counterpart on a COMPLETED project. The direction is
// derived from the caller's side rather than trusted from the body.
func (h *RatingHandler) Submit(c *fiber.Ctx) error {
	raterID, err := getAuth(c)
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
		Rating int    `json:"rating"`
		Review string `json:"review"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	var project models.Project
	if err := h.DB.First(&project, "id = ?", projectID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Project not found",
		})
	}

	var in workflow.SubmitRatingInput
	switch {
	case raterID == project.ClientID && project.AssignedTo != nil:
		in = workflow.SubmitRatingInput{
			ProjectID: projectID,
			RatedID:   *project.AssignedTo,
			Direction: models.DirectionClientToFreelancer,
			Score:     req.Rating,
			Review:    req.Review,
		}
	case project.AssignedTo != nil && raterID == *project.AssignedTo:
		in = workflow.SubmitRatingInput{
			ProjectID: projectID,
			RatedID:   project.ClientID,
			Direction: models.DirectionFreelancerToClient,
			Score:     req.Rating,
			Review:    req.Review,
		}
	default:
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Access denied",
		})
	}

	rating, err := h.Ratings.Submit(c.UserContext(), raterID, in)
	if err != nil {
		return respondWorkflowError(c, err)
	}

	h.Hub.SendToUser(rating.RatedID, realtime.Event{
		Type: "rating",
		Data: toRatingResponse(rating),
	})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    toRatingResponse(rating),
	})
}

func (h *RatingHandler) Update(c *fiber.Ctx) error {
	raterID, err := getAuth(c)
	if err != nil {
		return err
	}
	ratingID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid rating ID",
		})
	}

	var req struct {
		Rating int    `json:"rating"`
		Review string `json:"review"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	rating, err := h.Ratings.Update(c.UserContext(), ratingID, raterID, req.Rating, req.Review)
	if err != nil {
		return respondWorkflowError(c, err)
	}

	h.Hub.SendToUser(rating.RatedID, realtime.Event{
		Type: "rating",
		Data: toRatingResponse(rating),
	})
	return c.JSON(fiber.Map{"success": true, "data": toRatingResponse(rating)})
}

// ListForUser is the public review feed for a profile page.
func (h *RatingHandler) ListForUser(c *fiber.Ctx) error {
	ratedID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid user ID",
		})
	}

	var ratings []models.Rating
	if err := h.DB.Preload("Rater").
		Where("rated_id = ?", ratedID).
		Order("created_at DESC").
		Limit(50).
		Find(&ratings).Error; err != nil {
		log.Println("Error fetching ratings:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch ratings",
		})
	}

	out := make([]RatingResponse, 0, len(ratings))
	for i := range ratings {
		out = append(out, toRatingResponse(&ratings[i]))
	}
	return c.JSON(fiber.Map{"success": true, "data": out})
}
