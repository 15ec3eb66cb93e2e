package repository

import (
	"github.com/mediamorph/mediamorph-backend/internal/models"
	"gorm.io/gorm"
)

type ImageRepository struct {
	db *gorm.DB
}

func NewImageRepository(db *gorm.DB) *ImageRepository {
	return &ImageRepository{
		db: db,
	}
}

func (r *ImageRepository) Create(image *models.Image) error {
	return r.db.Create(image).Error
}

// Delete removes a result row. Only used by the debit-failure compensation
// path; images are otherwise write-once.
func (r *ImageRepository) Delete(id uint) error {
	return r.db.Delete(&models.Image{}, id).Error
}

func (r *ImageRepository) ListByUser(userID uint, limit int) ([]models.Image, error) {
	var images []models.Image
	q := r.db.Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&images).Error
	return images, err
}

func (r *ImageRepository) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Image{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
