package database

import (
	"errors"

	"github.com/spectra-metals/spectra-server/internal/config"
	"github.com/spectra-metals/spectra-server/internal/domain/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migrate runs database migrations
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	err := db.AutoMigrate(
		&model.Submission{},
		&model.Order{},
		&model.Subscription{},
		&model.Claim{},
		&model.PricePoint{},
		&model.AdminUser{},
		&model.EmailOTP{},
	)
	if err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return err
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// SeedAdmin ensures the configured dashboard account exists. The password
// hash comes from config; this never stores a plaintext password.
func SeedAdmin(db *gorm.DB, cfg *config.AdminConfig, logger *zap.Logger) error {
	if cfg.Username == "" || cfg.PasswordHash == "" {
		logger.Warn("No admin account configured; dashboard login disabled")
		return nil
	}

	var existing model.AdminUser
	err := db.Where("username = ?", cfg.Username).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	admin := model.AdminUser{
		Username:     cfg.Username,
		PasswordHash: cfg.PasswordHash,
	}
	if err := db.Create(&admin).Error; err != nil {
		logger.Error("Failed to seed admin account", zap.Error(err))
		return err
	}

	logger.Info("Seeded admin account", zap.String("username", cfg.Username))
	return nil
}
