package repository

import (
	"context"

	"github.com/spectra-metals/spectra-server/internal/domain/model"
)

type SubmissionRepository interface {
	Create(ctx context.Context, submission *model.Submission) error
	GetByID(ctx context.Context, id int64) (*model.Submission, error)
	GetBySKU(ctx context.Context, sku string) (*model.Submission, error)
	SearchSKUs(ctx context.Context, term string, limit int) ([]string, error)
	List(ctx context.Context) ([]*model.Submission, error)
}
