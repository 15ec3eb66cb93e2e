package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mediamorph/mediamorph-backend/internal/models"
	"github.com/mediamorph/mediamorph-backend/internal/service"
)

type UserHandler struct {
	userService *service.UserService
	txnService  *service.TransactionService
}

func NewUserHandler(userService *service.UserService, txnService *service.TransactionService) *UserHandler {
	return &UserHandler{
		userService: userService,
		txnService:  txnService,
	}
}

// SyncUser is the explicit lazy-signup endpoint: the client calls it after
// sign-in and gets the (possibly brand new) account row back.
func (h *UserHandler) SyncUser(c *fiber.Ctx) error {
	identity, ok := callerIdentity(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("Unauthorized"))
	}

	user, err := h.userService.CreateOrGetUser(identity)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(models.SuccessResponse(models.NewUserProfileResponse(user), "User synced"))
}

func (h *UserHandler) GetMyProfile(c *fiber.Ctx) error {
	identity, ok := callerIdentity(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("Unauthorized"))
	}

	user, err := h.userService.GetUserByProviderID(identity.ProviderID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(models.SuccessResponse(models.NewUserProfileResponse(user), ""))
}

func (h *UserHandler) GetCredits(c *fiber.Ctx) error {
	identity, ok := callerIdentity(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("Unauthorized"))
	}

	user, err := h.userService.GetUserByProviderID(identity.ProviderID)
	if err != nil {
		return respondError(c, err)
	}

	history, err := h.userService.GetCreditHistory(user.ID, c.QueryInt("limit", 20))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(models.SuccessResponse(fiber.Map{
		"credits":        user.Credits,
		"credit_history": history,
	}, ""))
}

func (h *UserHandler) GetDashboard(c *fiber.Ctx) error {
	identity, ok := callerIdentity(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("Unauthorized"))
	}

	user, err := h.userService.GetUserByProviderID(identity.ProviderID)
	if err != nil {
		return respondError(c, err)
	}

	dashboard, err := h.userService.GetDashboardData(user)
	if err != nil {
		return respondError(c, err)
	}

	stats, err := h.txnService.GetUserTransactionStats(user.ID)
	if err != nil {
		return respondError(c, err)
	}
	dashboard.Stats.TotalSpent = stats.TotalSpent
	dashboard.Stats.CompletedTransactions = stats.CompletedTransactions
	dashboard.Stats.PendingTransactions = stats.PendingTransactions

	return c.JSON(models.SuccessResponse(dashboard, ""))
}
