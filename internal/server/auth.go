package server

import (
	"context"

	"hbnb/internal/middleware"
	"hbnb/internal/models"
	"hbnb/internal/policy"

	"github.com/gofiber/fiber/v2"
)

const localPrincipal = "principal"

// protected prepends token verification and principal resolution to h.
func (s *Server) protected(h fiber.Handler) []fiber.Handler {
	return []fiber.Handler{s.authenticate, s.AuthRequired(), h}
}

// AuthRequired resolves the verified token subject to a Principal. The
// admin flag comes from storage, not from the token, so a demotion applies
// to tokens issued before it. Must run after middleware.Authenticate.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals(middleware.LocalUserID).(string)
		if !ok || userID == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}
		return s.resolve(c, userID)
	}
}

// OptionalAuth resolves a principal when a bearer token is present and lets
// anonymous requests through. A present but invalid token is rejected.
func (s *Server) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get(fiber.HeaderAuthorization) == "" {
			return c.Next()
		}
		raw, err := middleware.BearerToken(c)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError(err.Error()))
		}
		claims, err := middleware.ParseToken(s.secret, raw)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError(err.Error()))
		}
		c.Locals(middleware.LocalUserID, claims.Subject)
		return s.resolve(c, claims.Subject)
	}
}

func (s *Server) resolve(c *fiber.Ctx, userID string) error {
	p, err := s.users.Principal(c.UserContext(), userID)
	if err != nil {
		return s.fail(c, err)
	}
	c.Locals(localPrincipal, p)
	c.Locals(middleware.LocalIsAdmin, p.IsAdmin)
	// Sync to UserContext for logging and downstream services
	c.SetUserContext(context.WithValue(c.UserContext(), middleware.UserIDKey, p.UserID))
	return c.Next()
}

// principal returns the caller resolved by AuthRequired or OptionalAuth.
func principal(c *fiber.Ctx) policy.Principal {
	if p, ok := c.Locals(localPrincipal).(policy.Principal); ok {
		return p
	}
	return policy.Anonymous()
}
