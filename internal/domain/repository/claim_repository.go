package repository

import (
	"context"

	"github.com/spectra-metals/spectra-server/internal/domain/model"
)

type ClaimRepository interface {
	Create(ctx context.Context, claim *model.Claim) error
	GetByExternalID(ctx context.Context, externalID string) (*model.Claim, error)
	ListByEmail(ctx context.Context, email string) ([]*model.Claim, error)
	List(ctx context.Context) ([]*model.Claim, error)
}
