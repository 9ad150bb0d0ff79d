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

type submissionRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(db *gorm.DB, logger *zap.Logger) repository.SubmissionRepository {
	return &submissionRepository{db: db, logger: logger}
}

func (r *submissionRepository) Create(ctx context.Context, submission *model.Submission) error {
	if err := r.db.WithContext(ctx).Create(submission).Error; err != nil {
		r.logger.Error("Failed to create submission",
			zap.String("sku", submission.SKU),
			zap.Error(err))
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id int64) (*model.Submission, error) {
	var submission model.Submission

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&submission).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.ErrSubmissionNotFound
		}
		r.logger.Error("Failed to get submission by id",
			zap.Int64("id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	return &submission, nil
}

func (r *submissionRepository) GetBySKU(ctx context.Context, sku string) (*model.Submission, error) {
	var submission model.Submission

	err := r.db.WithContext(ctx).
		Where("sku = ?", sku).
		First(&submission).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.ErrSubmissionNotFound
		}
		r.logger.Error("Failed to get submission by sku",
			zap.String("sku", sku),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	return &submission, nil
}

func (r *submissionRepository) SearchSKUs(ctx context.Context, term string, limit int) ([]string, error) {
	var skus []string

	err := r.db.WithContext(ctx).
		Model(&model.Submission{}).
		Where("sku ILIKE ?", term+"%").
		Order("sku").
		Limit(limit).
		Pluck("sku", &skus).Error

	if err != nil {
		r.logger.Error("Failed to search skus",
			zap.String("term", term),
			zap.Error(err))
		return nil, fmt.Errorf("failed to search skus: %w", err)
	}

	return skus, nil
}

func (r *submissionRepository) List(ctx context.Context) ([]*model.Submission, error) {
	var submissions []*model.Submission

	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&submissions).Error

	if err != nil {
		r.logger.Error("Failed to list submissions", zap.Error(err))
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	return submissions, nil
}
