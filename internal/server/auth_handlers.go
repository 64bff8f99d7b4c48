package server

import (
	"hbnb/internal/middleware"
	"hbnb/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Login handles POST /api/v1/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := parseBody(c, &req); err != nil {
		return s.fail(c, err)
	}
	if req.Email == "" || req.Password == "" {
		return s.fail(c, models.NewValidationError("Email and password are required"))
	}

	user, err := s.users.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return s.fail(c, err)
	}

	token, err := middleware.IssueToken(s.secret, user.ID, user.IsAdmin, s.tokenTTL, uuid.NewString())
	if err != nil {
		return s.fail(c, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int(s.tokenTTL.Seconds()),
	})
}

// Me handles GET /api/v1/auth/me
func (s *Server) Me(c *fiber.Ctx) error {
	p := principal(c)
	user, err := s.users.GetUser(c.UserContext(), p, p.UserID)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(toUser(user))
}
