// Package middleware provides the Fiber middleware shared by the HTTP server.
package middleware

import (
	"errors"
	"strings"
	"time"

	"hbnb/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Fiber locals set by Authenticate.
const (
	LocalUserID  = "userID"
	LocalIsAdmin = "isAdmin"
)

const (
	TokenIssuer   = "hbnb-api"
	TokenAudience = "hbnb-client"
)

var (
	ErrMissingToken = errors.New("Authorization header required")
	ErrMalformed    = errors.New("Invalid authorization header format")
	ErrInvalidToken = errors.New("Invalid or expired token")
)

// Claims is the access token payload. Subject carries the user id.
type Claims struct {
	IsAdmin bool `json:"is_admin"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 access token for userID.
func IssueToken(secret []byte, userID string, isAdmin bool, ttl time.Duration, jti string) (string, error) {
	now := time.Now()
	claims := Claims{
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    TokenIssuer,
			Audience:  jwt.ClaimStrings{TokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        jti,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken validates the signature, issuer, audience and time claims.
func ParseToken(secret []byte, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *fiber.Ctx) (string, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", ErrMissingToken
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrMalformed
	}
	return parts[1], nil
}

// Authenticate verifies the bearer token and stores the subject and the
// is_admin claim in Fiber locals. Requests without a valid token get 401.
func Authenticate(secret []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, err := BearerToken(c)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError(err.Error()))
		}
		claims, err := ParseToken(secret, raw)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError(err.Error()))
		}
		c.Locals(LocalUserID, claims.Subject)
		c.Locals(LocalIsAdmin, claims.IsAdmin)
		return c.Next()
	}
}
