package httpapi

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const localUserID = "userID"

// requireBearer enforces the token contract: a missing or malformed header
// is a bad request, a token that fails verification is unauthorized.
func (s *Server) requireBearer(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing authorization header"})
	}

	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed authorization header"})
	}

	claims, err := s.auth.Verify(token)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
	}

	c.Locals(localUserID, claims.UserID)
	return c.Next()
}

func callerID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}
