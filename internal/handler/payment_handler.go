package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mediamorph/mediamorph-backend/internal/models"
	"github.com/mediamorph/mediamorph-backend/internal/service"
	"github.com/mediamorph/mediamorph-backend/pkg/utils"
	"github.com/stripe/stripe-go/v74/webhook"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	paymentService *service.PaymentService
	userService    *service.UserService
	validator      *utils.Validator
	webhookSecret  string
	logger         *zap.Logger
}

func NewPaymentHandler(
	paymentService *service.PaymentService,
	userService *service.UserService,
	validator *utils.Validator,
	webhookSecret string,
	logger *zap.Logger,
) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		userService:    userService,
		validator:      validator,
		webhookSecret:  webhookSecret,
		logger:         logger,
	}
}

func (h *PaymentHandler) CreateCheckoutSession(c *fiber.Ctx) error {
	identity, ok := callerIdentity(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("Unauthorized"))
	}

	var req models.CreateCheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Package ID is required"))
	}

	user, err := h.userService.GetUserByProviderID(identity.ProviderID)
	if err != nil {
		return respondError(c, err)
	}

	session, err := h.paymentService.CreateCheckoutSession(user.ID, req.PackageID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(models.SuccessResponse(session, "Checkout session created"))
}

func (h *PaymentHandler) GetCreditPackages(c *fiber.Ctx) error {
	packages, err := h.paymentService.GetCreditPackages()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(models.SuccessResponse(packages, ""))
}

// HandleStripeWebhook verifies the event signature and hands the event to
// the payment service. An invalid signature is the only 4xx path; once the
// event is authentic we always return 200 so Stripe does not retry events
// that fail for reasons a retry cannot fix.
func (h *PaymentHandler) HandleStripeWebhook(c *fiber.Ctx) error {
	payload := c.Body()
	signature := c.Get("Stripe-Signature")

	event, err := webhook.ConstructEventWithOptions(payload, signature, h.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		h.logger.Warn("webhook signature verification failed", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid signature"))
	}

	if err := h.paymentService.HandleWebhookEvent(&event); err != nil {
		h.logger.Error("webhook processing failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}

	return c.JSON(models.SuccessResponse(nil, "Webhook received"))
}
