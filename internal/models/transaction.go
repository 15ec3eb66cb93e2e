package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
	TransactionStatusCancelled = "cancelled"
)

// Transaction records one purchase attempt against Stripe. Amount is in
// minor currency units (cents).
type Transaction struct {
	ID                    uint           `json:"id" gorm:"primaryKey"`
	UserID                uint           `json:"user_id" gorm:"not null;index"`
	Amount                int64          `json:"amount" gorm:"not null"`
	Currency              string         `json:"currency" gorm:"not null;default:'usd'"`
	Status                string         `json:"status" gorm:"not null;default:'pending'"`
	Description           string         `json:"description"`
	StripeSessionID       string         `json:"stripe_session_id" gorm:"uniqueIndex;not null"`
	StripePaymentIntentID string         `json:"stripe_payment_intent_id,omitempty"`
	Metadata              datatypes.JSON `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

type TransactionStats struct {
	TotalSpent            int64 `json:"total_spent"`
	CompletedTransactions int   `json:"completed_transactions"`
	PendingTransactions   int   `json:"pending_transactions"`
	TotalTransactions     int   `json:"total_transactions"`
}
