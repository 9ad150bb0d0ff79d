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

type subscriptionRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *gorm.DB, logger *zap.Logger) repository.SubscriptionRepository {
	return &subscriptionRepository{db: db, logger: logger}
}

func (r *subscriptionRepository) Create(ctx context.Context, subscription *model.Subscription) error {
	if err := r.db.WithContext(ctx).Create(subscription).Error; err != nil {
		r.logger.Error("Failed to create subscription",
			zap.String("email", subscription.Email),
			zap.String("sku", subscription.SKU),
			zap.Error(err))
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

func (r *subscriptionRepository) GetByStripeID(ctx context.Context, stripeSubscriptionID string) (*model.Subscription, error) {
	var sub model.Subscription

	err := r.db.WithContext(ctx).
		Where("stripe_subscription_id = ?", stripeSubscriptionID).
		First(&sub).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.ErrSubscriptionNotFound
		}
		r.logger.Error("Failed to get subscription by stripe id",
			zap.String("stripe_subscription_id", stripeSubscriptionID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return &sub, nil
}

func (r *subscriptionRepository) GetByExternalID(ctx context.Context, externalID string) (*model.Subscription, error) {
	var sub model.Subscription

	err := r.db.WithContext(ctx).
		Where("external_id = ?", externalID).
		First(&sub).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return &sub, nil
}

func (r *subscriptionRepository) GetByEmailAndSKU(ctx context.Context, email, sku string) (*model.Subscription, error) {
	var sub model.Subscription

	// The newest subscription wins; earlier incomplete attempts for the
	// same item stay behind it.
	err := r.db.WithContext(ctx).
		Where("email = ? AND sku = ?", email, sku).
		Order("created_at DESC").
		First(&sub).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return &sub, nil
}

func (r *subscriptionRepository) ListByEmail(ctx context.Context, email string) ([]*model.Subscription, error) {
	var subs []*model.Subscription

	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		Order("created_at DESC").
		Find(&subs).Error

	if err != nil {
		r.logger.Error("Failed to list subscriptions by email",
			zap.String("email", email),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	return subs, nil
}

func (r *subscriptionRepository) UpdateStatus(ctx context.Context, stripeSubscriptionID string, status model.SubscriptionStatus) error {
	result := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("stripe_subscription_id = ?", stripeSubscriptionID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		r.logger.Error("Failed to update subscription status",
			zap.String("stripe_subscription_id", stripeSubscriptionID),
			zap.Error(result.Error))
		return fmt.Errorf("failed to update subscription status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainErrors.ErrSubscriptionNotFound
	}

	return nil
}

func (r *subscriptionRepository) Update(ctx context.Context, subscription *model.Subscription) error {
	updates := map[string]interface{}{
		"status":             subscription.Status,
		"current_period_end": subscription.CurrentPeriodEnd,
		"updated_at":         time.Now(),
	}
	if subscription.LastPaymentDate != nil {
		updates["last_payment_date"] = subscription.LastPaymentDate
	}
	if subscription.Product != nil {
		updates["product"] = subscription.Product
	}

	result := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("stripe_subscription_id = ?", subscription.StripeSubscriptionID).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update subscription: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainErrors.ErrSubscriptionNotFound
	}

	return nil
}

func (r *subscriptionRepository) List(ctx context.Context) ([]*model.Subscription, error) {
	var subs []*model.Subscription

	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&subs).Error

	if err != nil {
		r.logger.Error("Failed to list subscriptions", zap.Error(err))
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	return subs, nil
}
