package server

import (
	"hbnb/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListPlaces handles GET /api/v1/places
func (s *Server) ListPlaces(c *fiber.Ctx) error {
	places, err := s.places.ListPlaces(c.UserContext())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(mapAll(places, toPlace))
}

// CreatePlace handles POST /api/v1/places. The caller becomes the owner.
func (s *Server) CreatePlace(c *fiber.Ctx) error {
	var req struct {
		Name          string   `json:"name"`
		Title         string   `json:"title"`
		Description   string   `json:"description"`
		City          string   `json:"city"`
		PricePerNight *float64 `json:"price_per_night"`
		Price         *float64 `json:"price"`
		Latitude      *float64 `json:"latitude"`
		Longitude     *float64 `json:"longitude"`
		Amenities     []string `json:"amenities"`
	}
	if err := parseBody(c, &req); err != nil {
		return s.fail(c, err)
	}
	// title and price are accepted as aliases of name and price_per_night.
	if req.Name == "" {
		req.Name = req.Title
	}
	if req.PricePerNight == nil {
		req.PricePerNight = req.Price
	}

	place, err := s.places.CreatePlace(c.UserContext(), principal(c), service.CreatePlaceInput{
		Name:          req.Name,
		Description:   req.Description,
		City:          req.City,
		PricePerNight: req.PricePerNight,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		AmenityIDs:    req.Amenities,
	})
	if err != nil {
		return s.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toPlace(place))
}

// GetPlace handles GET /api/v1/places/:id
func (s *Server) GetPlace(c *fiber.Ctx) error {
	place, err := s.places.GetPlace(c.UserContext(), c.Params("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(toPlace(place))
}

// UpdatePlace handles PUT /api/v1/places/:id
func (s *Server) UpdatePlace(c *fiber.Ctx) error {
	changes, err := parseChanges(c)
	if err != nil {
		return s.fail(c, err)
	}
	place, err := s.places.UpdatePlace(c.UserContext(), principal(c), c.Params("id"), changes)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(toPlace(place))
}

// DeletePlace handles DELETE /api/v1/places/:id
func (s *Server) DeletePlace(c *fiber.Ctx) error {
	if err := s.places.DeletePlace(c.UserContext(), principal(c), c.Params("id")); err != nil {
		return s.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetPlaceReviews handles GET /api/v1/places/:id/reviews
func (s *Server) GetPlaceReviews(c *fiber.Ctx) error {
	reviews, err := s.places.PlaceReviews(c.UserContext(), c.Params("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(mapAll(reviews, toReview))
}

// AddPlaceAmenity handles POST /api/v1/places/:id/amenities/:amenityId
func (s *Server) AddPlaceAmenity(c *fiber.Ctx) error {
	place, err := s.places.AddAmenity(c.UserContext(), principal(c), c.Params("id"), c.Params("amenityId"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(toPlace(place))
}
