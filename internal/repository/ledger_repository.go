package repository

import (
	"errors"
	"fmt"

	"github.com/mediamorph/mediamorph-backend/internal/apperr"
	"github.com/mediamorph/mediamorph-backend/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LedgerRepository owns every credit balance mutation. Each mutation is one
// database transaction pairing the atomic balance update with exactly one
// CreditLog row carrying the same delta, which keeps the ledger sum equal to
// the stored balance.
type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{
		db: db,
	}
}

// grant runs inside an open transaction. It is the single grant primitive
// behind both ad-hoc grants and completed purchases.
func grant(tx *gorm.DB, userID uint, amount int, description string, metadata datatypes.JSON) (*models.CreditLog, error) {
	res := tx.Model(&models.User{}).Where("id = ?", userID).
		Update("credits", gorm.Expr("credits + ?", amount))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("User not found")
	}

	entry := &models.CreditLog{
		UserID:      userID,
		Amount:      amount,
		Type:        models.CreditLogPurchase,
		Description: description,
		Metadata:    metadata,
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *LedgerRepository) Grant(userID uint, amount int, description string, metadata datatypes.JSON) (*models.User, *models.CreditLog, error) {
	if amount <= 0 {
		return nil, nil, apperr.Validation("grant amount must be positive")
	}

	var user models.User
	var entry *models.CreditLog
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var err error
		if entry, err = grant(tx, userID, amount, description, metadata); err != nil {
			return err
		}
		return tx.First(&user, userID).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &user, entry, nil
}

// Debit re-reads the balance inside the transaction and rejects the debit if
// it would overdraw. Any earlier balance check is advisory; this is the only
// authoritative one.
func (r *LedgerRepository) Debit(userID uint, amount int, description string, metadata datatypes.JSON) (*models.User, *models.CreditLog, error) {
	if amount <= 0 {
		return nil, nil, apperr.Validation("debit amount must be positive")
	}

	var user models.User
	var entry models.CreditLog
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("User not found")
			}
			return err
		}

		if user.Credits < amount {
			return apperr.InsufficientCredits(user.Credits, amount)
		}

		if err := tx.Model(&models.User{}).Where("id = ?", userID).
			Update("credits", gorm.Expr("credits - ?", amount)).Error; err != nil {
			return err
		}

		entry = models.CreditLog{
			UserID:      userID,
			Amount:      -amount,
			Type:        models.CreditLogUsage,
			Description: description,
			Metadata:    metadata,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		user.Credits -= amount
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &user, &entry, nil
}

// CompletePurchase flips the transaction to completed and grants its credits
// in the same database transaction, so a webhook replay after a crash can
// never leave a completed purchase without its ledger entry.
func (r *LedgerRepository) CompletePurchase(transactionID uint, credits int) (*models.Transaction, *models.User, error) {
	if credits <= 0 {
		return nil, nil, apperr.Validation("credit amount must be positive")
	}

	var txn models.Transaction
	var user models.User
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&txn, transactionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Transaction not found")
			}
			return err
		}

		if err := tx.Model(&txn).Update("status", models.TransactionStatusCompleted).Error; err != nil {
			return err
		}
		txn.Status = models.TransactionStatusCompleted

		metadata := models.MetadataJSON(map[string]interface{}{
			"transaction_id": txn.ID,
			"amount":         txn.Amount,
			"currency":       txn.Currency,
		})
		description := fmt.Sprintf("Credit purchase - %d credits", credits)
		if _, err := grant(tx, txn.UserID, credits, description, metadata); err != nil {
			return err
		}

		return tx.First(&user, txn.UserID).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &txn, &user, nil
}

func (r *LedgerRepository) History(userID uint, limit int) ([]models.CreditLog, error) {
	var logs []models.CreditLog
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
