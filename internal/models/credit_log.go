package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type CreditLogType string

const (
	CreditLogPurchase CreditLogType = "PURCHASE"
	CreditLogUsage    CreditLogType = "USAGE"
)

// CreditLog is an append-only ledger entry. Amount is signed: positive for
// grants, negative for usage. Rows are never updated or deleted, so for any
// user the sum of Amount reconciles with User.Credits.
type CreditLog struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	UserID      uint           `json:"user_id" gorm:"not null;index"`
	Amount      int            `json:"amount" gorm:"not null"`
	Type        CreditLogType  `json:"type" gorm:"not null"`
	Description string         `json:"description"`
	Metadata    datatypes.JSON `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt   time.Time      `json:"created_at"`
}

func (CreditLog) TableName() string {
	return "credit_logs"
}

// MetadataJSON packs operation context into a jsonb column value. A nil
// return stores SQL NULL rather than an empty object.
func MetadataJSON(m map[string]interface{}) datatypes.JSON {
	if len(m) == 0 {
		return nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}
