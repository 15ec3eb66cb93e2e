package models

import (
	"time"
)

const (
	VideoStatusProcessing = "PROCESSING"
	VideoStatusCompleted  = "COMPLETED"
	VideoStatusFailed     = "FAILED"
	VideoStatusCancelled  = "CANCELLED"
)

type Video struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	UserID         uint      `json:"user_id" gorm:"not null;index"`
	Title          string    `json:"title" gorm:"not null"`
	Description    string    `json:"description"`
	PublicID       string    `json:"public_id" gorm:"not null"`
	OriginalSize   string    `json:"original_size"`
	CompressedSize string    `json:"compressed_size"`
	Duration       float64   `json:"duration"`
	Status         string    `json:"status" gorm:"not null;default:'PROCESSING'"`
	ArchiveKey     string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
