package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spectra-metals/spectra-server/internal/domain/model"
	"github.com/spectra-metals/spectra-server/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type priceRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(db *gorm.DB, logger *zap.Logger) repository.PriceRepository {
	return &priceRepository{db: db, logger: logger}
}

func (r *priceRepository) Upsert(ctx context.Context, point *model.PricePoint) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "metal"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"price"}),
		}).
		Create(point).Error

	if err != nil {
		r.logger.Error("Failed to upsert price point",
			zap.String("metal", point.Metal),
			zap.Error(err))
		return fmt.Errorf("failed to upsert price point: %w", err)
	}
	return nil
}

func (r *priceRepository) SeriesSince(ctx context.Context, metal string, from time.Time) ([]*model.PricePoint, error) {
	var points []*model.PricePoint

	err := r.db.WithContext(ctx).
		Where("metal = ? AND date >= ?", metal, from).
		Order("date ASC").
		Find(&points).Error

	if err != nil {
		r.logger.Error("Failed to load price series",
			zap.String("metal", metal),
			zap.Error(err))
		return nil, fmt.Errorf("failed to load price series: %w", err)
	}

	return points, nil
}

func (r *priceRepository) Latest(ctx context.Context) (map[string]decimal.Decimal, error) {
	var points []*model.PricePoint

	// One row per metal, newest date wins.
	err := r.db.WithContext(ctx).
		Raw(`SELECT DISTINCT ON (metal) * FROM price_points ORDER BY metal, date DESC`).
		Scan(&points).Error

	if err != nil {
		r.logger.Error("Failed to load latest prices", zap.Error(err))
		return nil, fmt.Errorf("failed to load latest prices: %w", err)
	}

	latest := make(map[string]decimal.Decimal, len(points))
	for _, p := range points {
		latest[p.Metal] = p.Price
	}
	return latest, nil
}
