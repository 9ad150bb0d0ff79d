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

type otpRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewOTPRepository creates a new OTP repository
func NewOTPRepository(db *gorm.DB, logger *zap.Logger) repository.OTPRepository {
	return &otpRepository{db: db, logger: logger}
}

func (r *otpRepository) Create(ctx context.Context, otp *model.EmailOTP) error {
	if err := r.db.WithContext(ctx).Create(otp).Error; err != nil {
		r.logger.Error("Failed to create otp",
			zap.String("email", otp.Email),
			zap.Error(err))
		return fmt.Errorf("failed to create otp: %w", err)
	}
	return nil
}

func (r *otpRepository) GetLatest(ctx context.Context, email, sku string) (*model.EmailOTP, error) {
	var otp model.EmailOTP

	err := r.db.WithContext(ctx).
		Where("email = ? AND sku = ? AND consumed = false", email, sku).
		Order("created_at DESC").
		First(&otp).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.ErrOTPInvalid
		}
		return nil, fmt.Errorf("failed to get otp: %w", err)
	}

	return &otp, nil
}

func (r *otpRepository) MarkConsumed(ctx context.Context, id int64) error {
	err := r.db.WithContext(ctx).
		Model(&model.EmailOTP{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"consumed":   true,
			"expires_at": time.Now(),
		}).Error

	if err != nil {
		return fmt.Errorf("failed to consume otp: %w", err)
	}
	return nil
}
