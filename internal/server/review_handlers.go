package server

import (
	"hbnb/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListReviews handles GET /api/v1/reviews
func (s *Server) ListReviews(c *fiber.Ctx) error {
	reviews, err := s.reviews.ListReviews(c.UserContext())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(mapAll(reviews, toReview))
}

// CreateReview handles POST /api/v1/reviews
func (s *Server) CreateReview(c *fiber.Ctx) error {
	var req struct {
		Text    string `json:"text"`
		Rating  *int   `json:"rating"`
		UserID  string `json:"user_id"`
		PlaceID string `json:"place_id"`
	}
	if err := parseBody(c, &req); err != nil {
		return s.fail(c, err)
	}

	review, err := s.reviews.CreateReview(c.UserContext(), principal(c), service.CreateReviewInput{
		Text:    req.Text,
		Rating:  req.Rating,
		UserID:  req.UserID,
		PlaceID: req.PlaceID,
	})
	if err != nil {
		return s.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toReview(review))
}

// GetReview handles GET /api/v1/reviews/:id
func (s *Server) GetReview(c *fiber.Ctx) error {
	review, err := s.reviews.GetReview(c.UserContext(), c.Params("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(toReview(review))
}

// UpdateReview handles PUT /api/v1/reviews/:id
func (s *Server) UpdateReview(c *fiber.Ctx) error {
	changes, err := parseChanges(c)
	if err != nil {
		return s.fail(c, err)
	}
	review, err := s.reviews.UpdateReview(c.UserContext(), principal(c), c.Params("id"), changes)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(toReview(review))
}

// DeleteReview handles DELETE /api/v1/reviews/:id
func (s *Server) DeleteReview(c *fiber.Ctx) error {
	if err := s.reviews.DeleteReview(c.UserContext(), principal(c), c.Params("id")); err != nil {
		return s.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
