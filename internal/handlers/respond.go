package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/freelancehub/backend/internal/workflow"
)

func getAuth(c *fiber.Ctx) (uuid.UUID, error) {
	rawID, ok := c.Locals("userId").(string)
	if !ok || rawID == "" {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	uID, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "invalid user id")
	}
	return uID, nil
}

func parseUUIDParam(c *fiber.Ctx, name, msg string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, msg)
	}
	return id, nil
}

// respondWorkflowError translates the workflow failure classes to HTTP.
func respondWorkflowError(c *fiber.Ctx, err error) error {
	var code int
	var msg string
	switch {
	case errors.Is(err, workflow.ErrNotFound):
		code, msg = fiber.StatusNotFound, "Not found"
	case errors.Is(err, workflow.ErrInvalidState):
		code, msg = fiber.StatusConflict, "Action not allowed in the current status"
	case errors.Is(err, workflow.ErrConflict):
		code, msg = fiber.StatusConflict, "Conflicting request, please refresh and retry"
	case errors.Is(err, workflow.ErrForbidden):
		code, msg = fiber.StatusForbidden, "Access denied"
	case errors.Is(err, workflow.ErrNotAvailable):
		code, msg = fiber.StatusUnprocessableEntity, "Freelancer is not available"
	case errors.Is(err, workflow.ErrValidation):
		code, msg = fiber.StatusBadRequest, "Invalid input"
	default:
		log.Printf("workflow error: %v", err)
		code, msg = fiber.StatusInternalServerError, "Internal server error"
	}
	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"message": msg,
	})
}
