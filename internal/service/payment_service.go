package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/mediamorph/mediamorph-backend/internal/apperr"
	"github.com/mediamorph/mediamorph-backend/internal/models"
	"github.com/mediamorph/mediamorph-backend/pkg/payment"
	"github.com/stripe/stripe-go/v74"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type PaymentService struct {
	stripeService *payment.StripeService
	users         *UserService
	txns          *TransactionService
	txnRepo       TransactionStore
	packageRepo   PackageStore
	mailer        Mailer
	logger        *zap.Logger
}

func NewPaymentService(
	stripeService *payment.StripeService,
	users *UserService,
	txns *TransactionService,
	txnRepo TransactionStore,
	packageRepo PackageStore,
	mailer Mailer,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		stripeService: stripeService,
		users:         users,
		txns:          txns,
		txnRepo:       txnRepo,
		packageRepo:   packageRepo,
		mailer:        mailer,
		logger:        logger,
	}
}

// CreateCheckoutSession resolves the package server-side (the client only
// names it) and opens a Stripe session carrying the metadata the webhook
// needs to credit the right account.
func (s *PaymentService) CreateCheckoutSession(userID uint, packageKey string) (*models.CheckoutSessionResponse, error) {
	pkg, err := s.packageRepo.GetByKey(packageKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Credit package not found")
		}
		return nil, err
	}

	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	session, err := s.stripeService.CreateCheckoutSession(
		user.Email,
		pkg.Name,
		fmt.Sprintf("%d credits for MediaMorph", pkg.Credits),
		pkg.Price,
		map[string]string{
			"user_id":     fmt.Sprintf("%d", user.ID),
			"provider_id": user.ProviderID,
			"package_id":  pkg.Key,
			"credits":     strconv.Itoa(pkg.Credits),
		},
	)
	if err != nil {
		return nil, apperr.External("Failed to create checkout session", err)
	}

	_, err = s.txns.CreateTransaction(
		user.ID,
		pkg.Price,
		"usd",
		fmt.Sprintf("Credit purchase - %s", pkg.Name),
		session.ID,
		map[string]interface{}{
			"package_id": pkg.Key,
			"credits":    pkg.Credits,
		},
	)
	if err != nil {
		return nil, err
	}

	return &models.CheckoutSessionResponse{
		SessionID: session.ID,
		URL:       session.URL,
	}, nil
}

func (s *PaymentService) GetCreditPackages() ([]models.CreditPackage, error) {
	return s.packageRepo.GetAll()
}

// HandleWebhookEvent processes a signature-verified Stripe event. Unknown
// event types are acknowledged and ignored.
func (s *PaymentService) HandleWebhookEvent(event *stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return fmt.Errorf("failed to parse checkout session: %w", err)
		}
		return s.handleCheckoutCompleted(&session)

	case "checkout.session.expired", "checkout.session.async_payment_failed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return fmt.Errorf("failed to parse checkout session: %w", err)
		}
		if err := s.txns.MarkFailed(session.ID); err != nil {
			return fmt.Errorf("failed to mark transaction failed: %w", err)
		}
		return nil

	case "payment_intent.succeeded":
		s.logger.Info("payment intent succeeded", zap.String("event_id", event.ID))
		return nil

	default:
		s.logger.Debug("unhandled webhook event type", zap.String("type", string(event.Type)))
		return nil
	}
}

func (s *PaymentService) handleCheckoutCompleted(session *stripe.CheckoutSession) error {
	credits, err := strconv.Atoi(session.Metadata["credits"])
	if err != nil || credits <= 0 {
		return fmt.Errorf("missing or invalid credits metadata on session %s", session.ID)
	}

	txn, err := s.txns.GetBySessionID(session.ID)
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) && appErr.Status == 404 {
			// Session created outside this service (e.g. a dashboard test
			// checkout); fall back to the metadata identity and grant
			// directly through the same ledger path.
			return s.grantFromMetadata(session, credits)
		}
		return err
	}

	if txn.Status == models.TransactionStatusCompleted {
		s.logger.Info("webhook replay for completed transaction",
			zap.Uint("transaction_id", txn.ID), zap.String("session_id", session.ID))
		return nil
	}

	if session.PaymentIntent != nil {
		if err := s.txnRepo.SetPaymentIntent(txn.ID, session.PaymentIntent.ID); err != nil {
			s.logger.Warn("failed to record payment intent",
				zap.Uint("transaction_id", txn.ID), zap.Error(err))
		}
	}

	_, user, err := s.txns.ProcessSuccessfulPayment(txn.ID, credits)
	if err != nil {
		return fmt.Errorf("failed to process payment for transaction %d: %w", txn.ID, err)
	}

	s.sendReceipt(user, credits, txn.Amount, txn.Currency)
	return nil
}

func (s *PaymentService) grantFromMetadata(session *stripe.CheckoutSession, credits int) error {
	providerID := session.Metadata["provider_id"]
	if providerID == "" {
		providerID = session.Metadata["user_id"]
	}
	if providerID == "" {
		return fmt.Errorf("no user reference in metadata for session %s", session.ID)
	}

	user, err := s.users.GetUserByProviderID(providerID)
	if err != nil {
		return fmt.Errorf("user not found for session %s: %w", session.ID, err)
	}

	_, _, err = s.users.GrantCredits(user.ID, credits,
		fmt.Sprintf("Credit purchase - %d credits", credits),
		map[string]interface{}{
			"session_id": session.ID,
			"package_id": session.Metadata["package_id"],
			"amount":     session.AmountTotal,
			"currency":   string(session.Currency),
		},
	)
	if err != nil {
		return err
	}

	s.sendReceipt(user, credits, session.AmountTotal, string(session.Currency))
	return nil
}

func (s *PaymentService) sendReceipt(user *models.User, credits int, amount int64, currency string) {
	if s.mailer == nil || user.Email == "" {
		return
	}
	if err := s.mailer.SendPurchaseReceipt(user.Email, credits, amount, currency); err != nil {
		s.logger.Warn("failed to send purchase receipt",
			zap.Uint("user_id", user.ID), zap.Error(err))
	}
}
