package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"

	"hbnb/internal/middleware"
	"hbnb/internal/models"

	"github.com/gofiber/fiber/v2"
)

// fail writes err with the status its code maps to. Only server faults are
// logged; rejections of client input are expected outcomes.
func (s *Server) fail(c *fiber.Ctx, err error) error {
	status := models.StatusCode(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("path", c.Path()), slog.String("error", err.Error()))
		var appErr *models.AppError
		if !errors.As(err, &appErr) {
			err = models.NewInternalError(err)
		}
	}
	return models.RespondWithError(c, status, err)
}

// parseBody decodes a JSON body into dest.
func parseBody(c *fiber.Ctx, dest any) error {
	if len(c.Body()) == 0 {
		return models.NewValidationError("Request body is required")
	}
	if err := json.Unmarshal(c.Body(), dest); err != nil {
		return models.NewValidationError("Invalid request body")
	}
	return nil
}

// parseChanges decodes an update payload. Numbers are kept as json.Number
// so integral ratings are not confused with fractional ones.
func parseChanges(c *fiber.Ctx) (map[string]any, error) {
	if len(c.Body()) == 0 {
		return nil, models.NewValidationError("Request body is required")
	}
	var changes map[string]any
	dec := json.NewDecoder(bytes.NewReader(c.Body()))
	dec.UseNumber()
	if err := dec.Decode(&changes); err != nil || changes == nil {
		return nil, models.NewValidationError("Invalid request body")
	}
	return changes, nil
}
