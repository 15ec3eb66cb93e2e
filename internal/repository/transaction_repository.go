package repository

import (
	"github.com/mediamorph/mediamorph-backend/internal/models"
	"gorm.io/gorm"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{
		db: db,
	}
}

func (r *TransactionRepository) Create(txn *models.Transaction) error {
	return r.db.Create(txn).Error
}

func (r *TransactionRepository) GetByID(id uint) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.First(&txn, id).Error
	return &txn, err
}

func (r *TransactionRepository) GetBySessionID(sessionID string) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.Where("stripe_session_id = ?", sessionID).First(&txn).Error
	return &txn, err
}

func (r *TransactionRepository) UpdateStatus(id uint, status string) error {
	return r.db.Model(&models.Transaction{}).Where("id = ?", id).
		Update("status", status).Error
}

func (r *TransactionRepository) SetPaymentIntent(id uint, paymentIntentID string) error {
	return r.db.Model(&models.Transaction{}).Where("id = ?", id).
		Update("stripe_payment_intent_id", paymentIntentID).Error
}

func (r *TransactionRepository) ListByUser(userID uint, limit int) ([]models.Transaction, error) {
	var txns []models.Transaction
	q := r.db.Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&txns).Error
	return txns, err
}

func (r *TransactionRepository) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Transaction{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
