package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spectra-metals/spectra-server/internal/domain/model"
	"github.com/spectra-metals/spectra-server/internal/domain/repository"
	"go.uber.org/zap"
)

// PriceSource exposes the in-memory spot price snapshot kept by the feed.
type PriceSource interface {
	Snapshot() map[string]decimal.Decimal
}

// HistoryPoint is one day of the chart series.
type HistoryPoint struct {
	Date  string          `json:"date"`
	Price decimal.Decimal `json:"price"`
}

// MarketData is the /data payload: current prices plus a 30-day series
// per metal.
type MarketData struct {
	Prices  map[string]decimal.Decimal `json:"prices"`
	History map[string][]HistoryPoint  `json:"history"`
}

type MarketService struct {
	priceRepo repository.PriceRepository
	source    PriceSource
	logger    *zap.Logger
}

func NewMarketService(priceRepo repository.PriceRepository, source PriceSource, logger *zap.Logger) *MarketService {
	return &MarketService{
		priceRepo: priceRepo,
		source:    source,
		logger:    logger,
	}
}

// GetMarketData returns current prices and the trailing 30-day series.
func (s *MarketService) GetMarketData(ctx context.Context) (*MarketData, error) {
	prices := s.source.Snapshot()

	from := time.Now().UTC().AddDate(0, 0, -30)
	history := make(map[string][]HistoryPoint, len(model.Metals))
	for _, metal := range model.Metals {
		points, err := s.priceRepo.SeriesSince(ctx, metal, from)
		if err != nil {
			s.logger.Error("failed to load price series",
				zap.String("metal", metal),
				zap.Error(err))
			return nil, fmt.Errorf("failed to load price series: %w", err)
		}

		series := make([]HistoryPoint, 0, len(points))
		for _, p := range points {
			series = append(series, HistoryPoint{
				Date:  p.Date.Format("2006-01-02"),
				Price: p.Price,
			})
		}
		history[metal] = series
	}

	return &MarketData{
		Prices:  prices,
		History: history,
	}, nil
}
