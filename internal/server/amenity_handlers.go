package server

import (
	"hbnb/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ListAmenities handles GET /api/v1/amenities
func (s *Server) ListAmenities(c *fiber.Ctx) error {
	amenities, err := s.amenities.ListAmenities(c.UserContext())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(mapAll(amenities, toAmenity))
}

// CreateAmenity handles POST /api/v1/amenities
func (s *Server) CreateAmenity(c *fiber.Ctx) error {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := parseBody(c, &req); err != nil {
		return s.fail(c, err)
	}
	amenity, err := s.amenities.CreateAmenity(c.UserContext(), principal(c), models.AmenityInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return s.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toAmenity(amenity))
}

// GetAmenity handles GET /api/v1/amenities/:id
func (s *Server) GetAmenity(c *fiber.Ctx) error {
	amenity, err := s.amenities.GetAmenity(c.UserContext(), c.Params("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(toAmenity(amenity))
}

// UpdateAmenity handles PUT /api/v1/amenities/:id
func (s *Server) UpdateAmenity(c *fiber.Ctx) error {
	changes, err := parseChanges(c)
	if err != nil {
		return s.fail(c, err)
	}
	amenity, err := s.amenities.UpdateAmenity(c.UserContext(), principal(c), c.Params("id"), changes)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(toAmenity(amenity))
}

// DeleteAmenity handles DELETE /api/v1/amenities/:id
func (s *Server) DeleteAmenity(c *fiber.Ctx) error {
	if err := s.amenities.DeleteAmenity(c.UserContext(), principal(c), c.Params("id")); err != nil {
		return s.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
