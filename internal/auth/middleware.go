package auth

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/rambosorn/khadimy/internal/engine"
	"github.com/rambosorn/khadimy/internal/metadata"
)

// OptionalAuth returns a Fiber middleware that sets the UserContext from a
// bearer token. Requests without an Authorization header continue as the
// public role; a malformed or invalid token is rejected.
func OptionalAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return c.Next()
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return engine.UnauthorizedError("Missing or invalid credentials")
		}

		claims, err := ParseToken(strings.TrimSpace(token), secret)
		if err != nil {
			return engine.UnauthorizedError("Missing or invalid credentials")
		}
		id, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil || claims.Role == "" {
			return engine.UnauthorizedError("Missing or invalid credentials")
		}

		c.Locals(metadata.UserLocalsKey, &metadata.UserContext{ID: id, Role: claims.Role})
		return c.Next()
	}
}

// GetUser extracts the UserContext from a Fiber context, falling back to the
// anonymous caller.
func GetUser(c *fiber.Ctx) *metadata.UserContext {
	return engine.GetUser(c)
}
