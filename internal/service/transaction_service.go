package service

import (
	"errors"

	"github.com/mediamorph/mediamorph-backend/internal/apperr"
	"github.com/mediamorph/mediamorph-backend/internal/models"
	"gorm.io/gorm"
)

type TransactionService struct {
	txnRepo TransactionStore
	ledger  CreditLedger
}

func NewTransactionService(txnRepo TransactionStore, ledger CreditLedger) *TransactionService {
	return &TransactionService{
		txnRepo: txnRepo,
		ledger:  ledger,
	}
}

// CreateTransaction records an initiated purchase as pending, keyed by the
// Stripe checkout session so the webhook can find it later.
func (s *TransactionService) CreateTransaction(userID uint, amount int64, currency, description, sessionID string, metadata map[string]interface{}) (*models.Transaction, error) {
	if currency == "" {
		currency = "usd"
	}
	txn := &models.Transaction{
		UserID:          userID,
		Amount:          amount,
		Currency:        currency,
		Status:          models.TransactionStatusPending,
		Description:     description,
		StripeSessionID: sessionID,
		Metadata:        models.MetadataJSON(metadata),
	}
	if err := s.txnRepo.Create(txn); err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *TransactionService) GetBySessionID(sessionID string) (*models.Transaction, error) {
	txn, err := s.txnRepo.GetBySessionID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Transaction not found")
		}
		return nil, err
	}
	return txn, nil
}

func (s *TransactionService) MarkFailed(sessionID string) error {
	txn, err := s.GetBySessionID(sessionID)
	if err != nil {
		return err
	}
	return s.txnRepo.UpdateStatus(txn.ID, models.TransactionStatusFailed)
}

// ProcessSuccessfulPayment is the canonical purchase grant: one database
// transaction flips the row to completed, increments the balance, and writes
// the ledger entry referencing the transaction.
func (s *TransactionService) ProcessSuccessfulPayment(transactionID uint, creditsToAdd int) (*models.Transaction, *models.User, error) {
	return s.ledger.CompletePurchase(transactionID, creditsToAdd)
}

func (s *TransactionService) GetUserTransactions(userID uint, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.txnRepo.ListByUser(userID, limit)
}

// GetUserTransactionStats folds the full transaction list into totals. Only
// completed transactions count toward spend.
func (s *TransactionService) GetUserTransactionStats(userID uint) (*models.TransactionStats, error) {
	txns, err := s.txnRepo.ListByUser(userID, 0)
	if err != nil {
		return nil, err
	}

	stats := &models.TransactionStats{
		TotalTransactions: len(txns),
	}
	for _, t := range txns {
		switch t.Status {
		case models.TransactionStatusCompleted:
			stats.TotalSpent += t.Amount
			stats.CompletedTransactions++
		case models.TransactionStatusPending:
			stats.PendingTransactions++
		}
	}
	return stats, nil
}
