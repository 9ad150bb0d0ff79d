package repository

import (
	"context"

	"github.com/spectra-metals/spectra-server/internal/domain/model"
)

type OTPRepository interface {
	Create(ctx context.Context, otp *model.EmailOTP) error
	// GetLatest returns the newest unconsumed code for the email/SKU pair.
	GetLatest(ctx context.Context, email, sku string) (*model.EmailOTP, error)
	MarkConsumed(ctx context.Context, id int64) error
}
