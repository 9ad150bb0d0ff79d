package repository

import (
	"context"
	"errors"
	"fmt"

	domainErrors "github.com/spectra-metals/spectra-server/internal/domain/errors"
	"github.com/spectra-metals/spectra-server/internal/domain/model"
	"github.com/spectra-metals/spectra-server/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type claimRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewClaimRepository creates a new claim repository
func NewClaimRepository(db *gorm.DB, logger *zap.Logger) repository.ClaimRepository {
	return &claimRepository{db: db, logger: logger}
}

func (r *claimRepository) Create(ctx context.Context, claim *model.Claim) error {
	if err := r.db.WithContext(ctx).Create(claim).Error; err != nil {
		r.logger.Error("Failed to create claim",
			zap.String("subscription_id", claim.SubscriptionID),
			zap.Error(err))
		return fmt.Errorf("failed to create claim: %w", err)
	}
	return nil
}

func (r *claimRepository) GetByExternalID(ctx context.Context, externalID string) (*model.Claim, error) {
	var claim model.Claim

	err := r.db.WithContext(ctx).
		Where("external_id = ?", externalID).
		First(&claim).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.ErrClaimNotFound
		}
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}

	return &claim, nil
}

func (r *claimRepository) ListByEmail(ctx context.Context, email string) ([]*model.Claim, error) {
	var claims []*model.Claim

	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		Order("created_at DESC").
		Find(&claims).Error

	if err != nil {
		r.logger.Error("Failed to list claims by email",
			zap.String("email", email),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}

	return claims, nil
}

func (r *claimRepository) List(ctx context.Context) ([]*model.Claim, error) {
	var claims []*model.Claim

	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&claims).Error

	if err != nil {
		r.logger.Error("Failed to list claims", zap.Error(err))
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}

	return claims, nil
}
