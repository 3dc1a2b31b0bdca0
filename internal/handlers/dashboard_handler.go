package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/freelancehub/backend/internal/cache"
	"github.com/freelancehub/backend/internal/middleware"
	"github.com/freelancehub/backend/internal/models"
)

type DashboardHandler struct {
	DB       *gorm.DB
	Cache    *cache.Cache
	CacheTTL time.Duration
}

func NewDashboardHandler(db *gorm.DB, c *cache.Cache, ttl time.Duration) *DashboardHandler {
	return &DashboardHandler{DB: db, Cache: c, CacheTTL: ttl}
}

func (h *DashboardHandler) Routes(protected fiber.Router) {
	protected.Get("/freelancer/dashboard/stats",
		middleware.RequireRoles("freelancer"), h.FreelancerStats)
	protected.Get("/client/dashboard/stats",
		middleware.RequireRoles("client"), h.ClientStats)

	protected.Get("/users/:id/profile", h.GetProfile)
	protected.Put("/freelancer/availability",
		middleware.RequireRoles("freelancer"), h.SetAvailability)
}

type FreelancerStats struct {
	ActiveProjects      int64   `json:"active_projects"`
	PendingApplications int64   `json:"pending_applications"`
	ProjectsCompleted   int     `json:"projects_completed"`
	Rating              float64 `json:"rating"`
	Availability        bool    `json:"availability"`
}

type ClientStats struct {
	OpenProjects      int64   `json:"open_projects"`
	ActiveProjects    int64   `json:"active_projects"`
	AwaitingSignOff   int64   `json:"awaiting_sign_off"`
	ProjectsPosted    int     `json:"projects_posted"`
	CompletedProjects int64   `json:"completed_projects"`
	Rating            float64 `json:"rating"`
}

// FreelancerStats is cached under the user's entity tag, so any workflow
// mutation touching this freelancer drops it.
func (h *DashboardHandler) FreelancerStats(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	key := cache.DashboardKey(userID)
	var cached FreelancerStats
	if h.Cache.GetJSON(c.UserContext(), key, &cached) {
		return c.JSON(fiber.Map{"success": true, "data": cached})
	}

	var stats FreelancerStats

	if err := h.DB.Model(&models.Project{}).
		Where("assigned_to = ?", userID).
		Where("status IN ?", []models.ProjectStatus{
			models.ProjectStatusAssigned,
			models.ProjectStatusPendingCompletion,
		}).
		Count(&stats.ActiveProjects).Error; err != nil {
		log.Printf("[DashboardStats] counting active projects for %s: %v", userID, err)
	}

	if err := h.DB.Model(&models.Application{}).
		Where("freelancer_id = ? AND status = ?", userID, models.ApplicationStatusPending).
		Count(&stats.PendingApplications).Error; err != nil {
		log.Printf("[DashboardStats] counting applications for %s: %v", userID, err)
	}

	var profile models.FreelancerProfile
	if err := h.DB.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Profile not found",
		})
	}
	stats.ProjectsCompleted = profile.ProjectsCompleted
	stats.Rating = profile.Ratings
	stats.Availability = profile.Availability

	h.Cache.SetJSON(c.UserContext(), key, stats, h.CacheTTL, cache.UserTag(userID))

	return c.JSON(fiber.Map{"success": true, "data": stats})
}

func (h *DashboardHandler) ClientStats(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	key := cache.DashboardKey(userID)
	var cached ClientStats
	if h.Cache.GetJSON(c.UserContext(), key, &cached) {
		return c.JSON(fiber.Map{"success": true, "data": cached})
	}

	var stats ClientStats

	countByStatus := func(dst *int64, statuses ...models.ProjectStatus) {
		if err := h.DB.Model(&models.Project{}).
			Where("client_id = ?", userID).
			Where("status IN ?", statuses).
			Count(dst).Error; err != nil {
			log.Printf("[DashboardStats] counting projects for %s: %v", userID, err)
		}
	}
	countByStatus(&stats.OpenProjects, models.ProjectStatusOpen)
	countByStatus(&stats.ActiveProjects, models.ProjectStatusAssigned)
	countByStatus(&stats.AwaitingSignOff, models.ProjectStatusPendingCompletion)
	countByStatus(&stats.CompletedProjects, models.ProjectStatusCompleted)

	var profile models.ClientProfile
	if err := h.DB.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Profile not found",
		})
	}
	stats.ProjectsPosted = profile.ProjectsPosted
	stats.Rating = profile.Ratings

	h.Cache.SetJSON(c.UserContext(), key, stats, h.CacheTTL, cache.UserTag(userID))

	return c.JSON(fiber.Map{"success": true, "data": stats})
}

// GetProfile returns a user's public profile with the role-appropriate
// aggregate block, cached under the user tag.
func (h *DashboardHandler) GetProfile(c *fiber.Ctx) error {
	userID, err := parseUUIDParam(c, "id", "Invalid user ID")
	if err != nil {
		return err
	}

	key := cache.UserProfileKey(userID)
	var cached map[string]interface{}
	if h.Cache.GetJSON(c.UserContext(), key, &cached) {
		return c.JSON(fiber.Map{"success": true, "data": cached})
	}

	var u models.User
	if err := h.DB.Preload("FreelancerProfile").Preload("ClientProfile").
		First(&u, "id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "User not found",
		})
	}

	data := fiber.Map{
		"id":   u.ID,
		"name": u.Name,
		"role": u.Role,
	}
	if u.FreelancerProfile != nil {
		data["freelancer_profile"] = u.FreelancerProfile
	}
	if u.ClientProfile != nil {
		data["client_profile"] = u.ClientProfile
	}

	h.Cache.SetJSON(c.UserContext(), key, data, h.CacheTTL, cache.UserTag(userID))

	return c.JSON(fiber.Map{"success": true, "data": data})
}

// SetAvailability toggles whether the freelancer accepts new work.
func (h *DashboardHandler) SetAvailability(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	var req struct {
		Availability bool `json:"availability"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	res := h.DB.Model(&models.FreelancerProfile{}).
		Where("user_id = ?", userID).
		Update("availability", req.Availability)
	if res.Error != nil {
		log.Println("Error updating availability:", res.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to update availability",
		})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Profile not found",
		})
	}

	h.Cache.InvalidateTags(c.UserContext(), cache.UserTag(userID))

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Availability updated",
		"data":    fiber.Map{"availability": req.Availability},
	})
}
