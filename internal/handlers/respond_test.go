package handlers

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freelancehub/backend/internal/workflow"
)

func TestRespondWorkflowErrorStatusCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"not found", workflow.ErrNotFound, fiber.StatusNotFound},
		{"invalid state", workflow.ErrInvalidState, fiber.StatusConflict},
		{"conflict", workflow.ErrConflict, fiber.StatusConflict},
		{"forbidden", workflow.ErrForbidden, fiber.StatusForbidden},
		{"not available", workflow.ErrNotAvailable, fiber.StatusUnprocessableEntity},
		{"validation", workflow.ErrValidation, fiber.StatusBadRequest},
		{"unknown", fmt.Errorf("boom"), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				return respondWorkflowError(c, tc.err)
			})

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tc.code, resp.StatusCode)

			var body struct {
				Success bool   `json:"success"`
				Message string `json:"message"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.False(t, body.Success)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestGetAuthRejectsMissingAndMalformedIDs(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		if raw := c.Get("X-Test-User"); raw != "" {
			c.Locals("userId", raw)
		}
		_, err := getAuth(c)
		if err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusOK)
	})

	t.Run("missing", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("malformed", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Test-User", "not-a-uuid")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Test-User", "7d3a2f7e-9a0b-4a5c-8f2d-1b6c9d0e4f11")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}
