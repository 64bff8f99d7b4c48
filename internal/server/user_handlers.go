package server

import (
	"hbnb/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateUser handles POST /api/v1/users (registration)
func (s *Server) CreateUser(c *fiber.Ctx) error {
	var req struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		IsAdmin   bool   `json:"is_admin"`
	}
	if err := parseBody(c, &req); err != nil {
		return s.fail(c, err)
	}

	user, err := s.users.Register(c.UserContext(), principal(c), service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		IsAdmin:   req.IsAdmin,
	})
	if err != nil {
		return s.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toUser(user))
}

// ListUsers handles GET /api/v1/users
func (s *Server) ListUsers(c *fiber.Ctx) error {
	users, err := s.users.ListUsers(c.UserContext(), principal(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(mapAll(users, toUser))
}

// GetUser handles GET /api/v1/users/:id
func (s *Server) GetUser(c *fiber.Ctx) error {
	user, err := s.users.GetUser(c.UserContext(), principal(c), c.Params("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(toUser(user))
}

// UpdateUser handles PUT /api/v1/users/:id
func (s *Server) UpdateUser(c *fiber.Ctx) error {
	changes, err := parseChanges(c)
	if err != nil {
		return s.fail(c, err)
	}
	user, err := s.users.UpdateUser(c.UserContext(), principal(c), c.Params("id"), changes)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(toUser(user))
}

// DeleteUser handles DELETE /api/v1/users/:id
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	if err := s.users.DeleteUser(c.UserContext(), principal(c), c.Params("id")); err != nil {
		return s.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
