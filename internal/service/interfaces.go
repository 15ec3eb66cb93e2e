package service

import (
	"context"
	"io"

	"github.com/mediamorph/mediamorph-backend/internal/models"
	"github.com/mediamorph/mediamorph-backend/pkg/media"
	"gorm.io/datatypes"
)

// Store interfaces are satisfied by the repository structs; services accept
// them so tests can swap in fakes without a database.

type UserStore interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByProviderID(providerID string) (*models.User, error)
	Update(user *models.User) error
}

type CreditLedger interface {
	Grant(userID uint, amount int, description string, metadata datatypes.JSON) (*models.User, *models.CreditLog, error)
	Debit(userID uint, amount int, description string, metadata datatypes.JSON) (*models.User, *models.CreditLog, error)
	CompletePurchase(transactionID uint, credits int) (*models.Transaction, *models.User, error)
	History(userID uint, limit int) ([]models.CreditLog, error)
}

type TransactionStore interface {
	Create(txn *models.Transaction) error
	GetByID(id uint) (*models.Transaction, error)
	GetBySessionID(sessionID string) (*models.Transaction, error)
	UpdateStatus(id uint, status string) error
	SetPaymentIntent(id uint, paymentIntentID string) error
	ListByUser(userID uint, limit int) ([]models.Transaction, error)
	CountByUser(userID uint) (int64, error)
}

type ImageStore interface {
	Create(image *models.Image) error
	Delete(id uint) error
	ListByUser(userID uint, limit int) ([]models.Image, error)
	CountByUser(userID uint) (int64, error)
}

type VideoStore interface {
	Create(video *models.Video) error
	Delete(id uint) error
	ListByUser(userID uint, limit int) ([]models.Video, error)
	CountByUser(userID uint) (int64, error)
}

type PackageStore interface {
	GetByKey(key string) (*models.CreditPackage, error)
	GetAll() ([]models.CreditPackage, error)
}

// MediaUploader is the media host (Cloudinary).
type MediaUploader interface {
	UploadImage(ctx context.Context, src io.Reader, filename, folder string) (*media.UploadResult, error)
	UploadVideo(ctx context.Context, src io.Reader, filename, folder string) (*media.UploadResult, error)
	Destroy(ctx context.Context, publicID, resourceType string) error
	DeliveryURL(publicID string) string
	BackgroundReplaceURL(publicID, prompt string) string
	GenerativeReplaceURL(publicID, from, to string) string
	GenerativeFillURL(publicID, prompt string, width, height int) string
	BackgroundRemovalURL(publicID string) string
}

// ImageGenerator is the text-to-image model host (Gradio).
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ArchiveStore keeps a copy of original uploads (R2).
type ArchiveStore interface {
	Put(ctx context.Context, key string, src io.Reader, size int64) error
	Delete(ctx context.Context, key string) error
}

type Mailer interface {
	SendPurchaseReceipt(to string, credits int, amount int64, currency string) error
}
