package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spectra-metals/spectra-server/internal/domain/model"
)

type PriceRepository interface {
	// Upsert records the day's price for a metal, replacing an existing
	// row for the same metal and date.
	Upsert(ctx context.Context, point *model.PricePoint) error
	SeriesSince(ctx context.Context, metal string, from time.Time) ([]*model.PricePoint, error)
	// Latest returns the most recent price per metal.
	Latest(ctx context.Context) (map[string]decimal.Decimal, error)
}
