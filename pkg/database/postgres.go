package database

import (
	"log"

	"github.com/mediamorph/mediamorph-backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func NewDatabase(databaseURL string) *gorm.DB {
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	// TranslateError turns driver unique-violation errors into
	// gorm.ErrDuplicatedKey, which the user service relies on for its
	// create-or-get retry.
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	return db
}

func RunMigrations(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.CreditLog{},
		&models.Transaction{},
		&models.CreditPackage{},
		&models.Image{},
		&models.Video{},
	)
	if err != nil {
		return err
	}

	return seedCreditPackages(db)
}

func seedCreditPackages(db *gorm.DB) error {
	packages := []models.CreditPackage{
		{
			Key:         "basic",
			Name:        "Starter",
			Description: "Perfect for small projects and testing",
			Credits:     100,
			Price:       0,
			IsActive:    true,
		},
		{
			Key:         "pro",
			Name:        "Professional",
			Description: "Ideal for growing businesses",
			Credits:     1000,
			Price:       4900,
			IsActive:    true,
		},
		{
			Key:         "premium",
			Name:        "Premium",
			Description: "For large-scale applications",
			Credits:     10000,
			Price:       9900,
			IsActive:    true,
		},
	}

	for _, pkg := range packages {
		var count int64
		db.Model(&models.CreditPackage{}).Where("key = ?", pkg.Key).Count(&count)
		if count == 0 {
			if err := db.Create(&pkg).Error; err != nil {
				return err
			}
		}
	}

	return nil
}
