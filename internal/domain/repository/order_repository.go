package repository

import (
	"context"

	"github.com/spectra-metals/spectra-server/internal/domain/model"
)

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	GetByOrderNumber(ctx context.Context, orderNumber string) (*model.Order, error)
	GetByExternalID(ctx context.Context, externalID string) (*model.Order, error)
	GetPaidBySubmissionID(ctx context.Context, submissionID int64) (*model.Order, error)
	// MarkPaid records settlement and the backing payment intent; a no-op
	// if the order is already paid.
	MarkPaid(ctx context.Context, orderNumber, paymentIntentID, receiptURL string) error
	MarkPaymentFailed(ctx context.Context, orderNumber string) error
	SetPaymentIntent(ctx context.Context, orderNumber, paymentIntentID string) error
	List(ctx context.Context) ([]*model.Order, error)
}
