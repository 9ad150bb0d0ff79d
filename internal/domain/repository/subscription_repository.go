package repository

import (
	"context"

	"github.com/spectra-metals/spectra-server/internal/domain/model"
)

type SubscriptionRepository interface {
	Create(ctx context.Context, subscription *model.Subscription) error
	GetByStripeID(ctx context.Context, stripeSubscriptionID string) (*model.Subscription, error)
	GetByExternalID(ctx context.Context, externalID string) (*model.Subscription, error)
	GetByEmailAndSKU(ctx context.Context, email, sku string) (*model.Subscription, error)
	ListByEmail(ctx context.Context, email string) ([]*model.Subscription, error)
	UpdateStatus(ctx context.Context, stripeSubscriptionID string, status model.SubscriptionStatus) error
	Update(ctx context.Context, subscription *model.Subscription) error
	List(ctx context.Context) ([]*model.Subscription, error)
}
