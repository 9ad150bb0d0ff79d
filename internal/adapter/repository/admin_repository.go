package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainErrors "github.com/spectra-metals/spectra-server/internal/domain/errors"
	"github.com/spectra-metals/spectra-server/internal/domain/model"
	"github.com/spectra-metals/spectra-server/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type adminRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewAdminRepository creates a new admin repository
func NewAdminRepository(db *gorm.DB, logger *zap.Logger) repository.AdminRepository {
	return &adminRepository{db: db, logger: logger}
}

func (r *adminRepository) GetByUsername(ctx context.Context, username string) (*model.AdminUser, error) {
	var admin model.AdminUser

	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		First(&admin).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.ErrInvalidCredentials
		}
		r.logger.Error("Failed to get admin user",
			zap.String("username", username),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get admin user: %w", err)
	}

	return &admin, nil
}

func (r *adminRepository) TouchLogin(ctx context.Context, username string) error {
	now := time.Now()
	err := r.db.WithContext(ctx).
		Model(&model.AdminUser{}).
		Where("username = ?", username).
		Updates(map[string]interface{}{
			"last_login_at": &now,
			"updated_at":    now,
		}).Error

	if err != nil {
		return fmt.Errorf("failed to touch admin login: %w", err)
	}
	return nil
}
