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

type orderRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB, logger *zap.Logger) repository.OrderRepository {
	return &orderRepository{db: db, logger: logger}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		r.logger.Error("Failed to create order",
			zap.String("order_number", order.OrderNumber),
			zap.Error(err))
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *orderRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	var order model.Order

	err := r.db.WithContext(ctx).
		Where("order_number = ?", orderNumber).
		First(&order).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.ErrOrderNotFound
		}
		r.logger.Error("Failed to get order by order number",
			zap.String("order_number", orderNumber),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return &order, nil
}

func (r *orderRepository) GetByExternalID(ctx context.Context, externalID string) (*model.Order, error) {
	var order model.Order

	err := r.db.WithContext(ctx).
		Where("external_id = ?", externalID).
		First(&order).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.ErrOrderNotFound
		}
		r.logger.Error("Failed to get order by external id",
			zap.String("external_id", externalID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return &order, nil
}

func (r *orderRepository) GetPaidBySubmissionID(ctx context.Context, submissionID int64) (*model.Order, error) {
	var order model.Order

	err := r.db.WithContext(ctx).
		Where("submission_id = ? AND payment_status = ?", submissionID, model.PaymentStatusPaid).
		First(&order).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get paid order: %w", err)
	}

	return &order, nil
}

func (r *orderRepository) MarkPaid(ctx context.Context, orderNumber, paymentIntentID, receiptURL string) error {
	updates := map[string]interface{}{
		"payment_status": model.PaymentStatusPaid,
		"status":         model.OrderStatusPaid,
		"updated_at":     time.Now(),
	}
	if paymentIntentID != "" {
		updates["stripe_payment_intent_id"] = paymentIntentID
	}
	if receiptURL != "" {
		updates["receipt_url"] = receiptURL
	}

	result := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("order_number = ? AND payment_status <> ?", orderNumber, model.PaymentStatusPaid).
		Updates(updates)

	if result.Error != nil {
		r.logger.Error("Failed to mark order paid",
			zap.String("order_number", orderNumber),
			zap.Error(result.Error))
		return fmt.Errorf("failed to mark order paid: %w", result.Error)
	}

	return nil
}

func (r *orderRepository) MarkPaymentFailed(ctx context.Context, orderNumber string) error {
	err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("order_number = ? AND payment_status <> ?", orderNumber, model.PaymentStatusPaid).
		Updates(map[string]interface{}{
			"payment_status": model.PaymentStatusFailed,
			"updated_at":     time.Now(),
		}).Error

	if err != nil {
		return fmt.Errorf("failed to mark payment failed: %w", err)
	}
	return nil
}

func (r *orderRepository) SetPaymentIntent(ctx context.Context, orderNumber, paymentIntentID string) error {
	err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("order_number = ?", orderNumber).
		Updates(map[string]interface{}{
			"stripe_payment_intent_id": paymentIntentID,
			"updated_at":               time.Now(),
		}).Error

	if err != nil {
		return fmt.Errorf("failed to set payment intent: %w", err)
	}
	return nil
}

func (r *orderRepository) List(ctx context.Context) ([]*model.Order, error) {
	var orders []*model.Order

	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&orders).Error

	if err != nil {
		r.logger.Error("Failed to list orders", zap.Error(err))
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return orders, nil
}
