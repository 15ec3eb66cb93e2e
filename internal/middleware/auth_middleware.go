package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/mediamorph/mediamorph-backend/internal/models"
	jwtPkg "github.com/mediamorph/mediamorph-backend/pkg/jwt"
)

const IdentityKey = "identity"

// AuthMiddleware verifies the identity provider's bearer token and stashes
// the caller's identity in the request context. It does not touch the
// database; user rows are created lazily by the handlers.
func AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("Authorization header is required"))
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("Invalid authorization header format"))
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := jwtPkg.ValidateToken(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("Invalid token"))
		}

		providerID, ok := claims["sub"].(string)
		if !ok || providerID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("Invalid subject in token"))
		}

		identity := models.UserIdentity{
			ProviderID: providerID,
		}
		if email, ok := claims["email"].(string); ok {
			identity.Email = email
		}
		if v, ok := claims["first_name"].(string); ok {
			identity.FirstName = v
		}
		if v, ok := claims["last_name"].(string); ok {
			identity.LastName = v
		}
		if v, ok := claims["avatar"].(string); ok {
			identity.Avatar = v
		}

		c.Locals(IdentityKey, identity)

		return c.Next()
	}
}
