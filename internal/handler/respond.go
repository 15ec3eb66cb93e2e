package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mediamorph/mediamorph-backend/internal/apperr"
	"github.com/mediamorph/mediamorph-backend/internal/middleware"
	"github.com/mediamorph/mediamorph-backend/internal/models"
)

// respondError converts any service error into the API's JSON envelope.
// Insufficient-credit rejections additionally carry the balance and the
// required amount so the client can prompt a purchase.
func respondError(c *fiber.Ctx, err error) error {
	appErr := apperr.As(err)
	if appErr.Status == fiber.StatusPaymentRequired {
		return c.Status(appErr.Status).JSON(
			models.InsufficientCreditsResponse(appErr.Message, appErr.Balance, appErr.Required))
	}
	return c.Status(appErr.Status).JSON(models.ErrorResponse(appErr.Message))
}

// callerIdentity pulls the authenticated identity set by the auth
// middleware. A missing identity means the route was mounted outside the
// middleware; treat it as unauthenticated.
func callerIdentity(c *fiber.Ctx) (models.UserIdentity, bool) {
	identity, ok := c.Locals(middleware.IdentityKey).(models.UserIdentity)
	return identity, ok && identity.ProviderID != ""
}
