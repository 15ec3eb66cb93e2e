package models

import (
	"time"

	"gorm.io/datatypes"
)

type ImageType string

const (
	ImageUploaded          ImageType = "UPLOADED"
	ImageGenerated         ImageType = "GENERATED"
	ImageTransformed       ImageType = "TRANSFORMED"
	ImageBackgroundRemoved ImageType = "BACKGROUND_REMOVED"
	ImageReplaced          ImageType = "REPLACED"
	ImageExtended          ImageType = "EXTENDED"
)

// Image is a write-once result row for a finished image operation. PublicID
// and SecureURL reference the media host; TransformedURL carries the derived
// asset when the operation was a named transformation.
type Image struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	UserID         uint           `json:"user_id" gorm:"not null;index"`
	Title          string         `json:"title,omitempty"`
	Description    string         `json:"description,omitempty"`
	PublicID       string         `json:"public_id" gorm:"not null"`
	SecureURL      string         `json:"secure_url"`
	TransformedURL string         `json:"transformed_url,omitempty"`
	Type           ImageType      `json:"type" gorm:"not null"`
	ArchiveKey     string         `json:"-"`
	Metadata       datatypes.JSON `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

type GenerateImageRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}
