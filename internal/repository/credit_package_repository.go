package repository

import (
	"github.com/mediamorph/mediamorph-backend/internal/models"
	"gorm.io/gorm"
)

type CreditPackageRepository struct {
	db *gorm.DB
}

func NewCreditPackageRepository(db *gorm.DB) *CreditPackageRepository {
	return &CreditPackageRepository{
		db: db,
	}
}

func (r *CreditPackageRepository) GetByKey(key string) (*models.CreditPackage, error) {
	var pkg models.CreditPackage
	err := r.db.Where("key = ? AND is_active = ?", key, true).First(&pkg).Error
	return &pkg, err
}

func (r *CreditPackageRepository) GetAll() ([]models.CreditPackage, error) {
	var packages []models.CreditPackage
	err := r.db.Where("is_active = ?", true).Order("credits ASC").Find(&packages).Error
	return packages, err
}
