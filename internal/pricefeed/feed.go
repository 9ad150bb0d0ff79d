package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spectra-metals/spectra-server/internal/config"
	"github.com/spectra-metals/spectra-server/internal/domain/model"
	"github.com/spectra-metals/spectra-server/internal/domain/repository"
	"github.com/spectra-metals/spectra-server/internal/infrastructure/messaging"
	"go.uber.org/zap"
)

// Feed polls the upstream spot price source, persists daily closes and
// fans updates out over the price channel. A bad upstream tick never
// replaces a good quote: unknown metals and non-positive prices are
// dropped and the prior value stays current.
type Feed struct {
	cfg        *config.PriceFeedConfig
	repo       repository.PriceRepository
	publisher  messaging.RedisClient
	channel    string
	httpClient *http.Client
	logger     *zap.Logger

	mu      sync.RWMutex
	current map[string]decimal.Decimal
}

// NewFeed builds the feed. publisher may be nil when running without redis.
func NewFeed(cfg *config.PriceFeedConfig, repo repository.PriceRepository, publisher messaging.RedisClient, channel string, logger *zap.Logger) *Feed {
	return &Feed{
		cfg:        cfg,
		repo:       repo,
		publisher:  publisher,
		channel:    channel,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
		current:    make(map[string]decimal.Decimal),
	}
}

// Start seeds the in-memory snapshot from storage and begins polling.
// It returns after launching the poll loop; cancel ctx to stop it.
func (f *Feed) Start(ctx context.Context) error {
	latest, err := f.repo.Latest(ctx)
	if err != nil {
		return fmt.Errorf("failed to load latest prices: %w", err)
	}
	f.mu.Lock()
	for metal, price := range latest {
		f.current[metal] = price
	}
	f.mu.Unlock()

	interval := f.cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		f.poll(ctx)
		for {
			select {
			case <-ticker.C:
				f.poll(ctx)
			case <-ctx.Done():
				f.logger.Info("Price feed stopped")
				return
			}
		}
	}()

	return nil
}

// Snapshot returns the current price per metal.
func (f *Feed) Snapshot() map[string]decimal.Decimal {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make(map[string]decimal.Decimal, len(f.current))
	for metal, price := range f.current {
		out[metal] = price
	}
	return out
}

func (f *Feed) poll(ctx context.Context) {
	if f.cfg.UpstreamURL == "" {
		return
	}

	raw, err := f.fetch(ctx)
	if err != nil {
		f.logger.Warn("Price fetch failed; keeping previous prices", zap.Error(err))
		return
	}

	changed := f.Apply(raw)
	if len(changed) == 0 {
		return
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	for metal, price := range changed {
		point := &model.PricePoint{
			Metal: metal,
			Date:  today,
			Price: price,
		}
		if err := f.repo.Upsert(ctx, point); err != nil {
			f.logger.Error("Failed to persist price",
				zap.String("metal", metal),
				zap.Error(err))
		}
	}

	f.publish(ctx)
}

// Apply merges one upstream tick into the snapshot and returns the
// accepted updates. Unknown metals and non-positive prices are skipped
// with a warning so the last good quote stays in place.
func (f *Feed) Apply(raw map[string]float64) map[string]decimal.Decimal {
	accepted := make(map[string]decimal.Decimal)

	f.mu.Lock()
	defer f.mu.Unlock()

	for metal, value := range raw {
		if !model.KnownMetal(metal) {
			f.logger.Warn("Ignoring unknown metal in price feed", zap.String("metal", metal))
			continue
		}
		if value <= 0 {
			f.logger.Warn("Ignoring non-positive price; keeping previous value",
				zap.String("metal", metal),
				zap.Float64("price", value))
			continue
		}
		price := decimal.NewFromFloat(value)
		f.current[metal] = price
		accepted[metal] = price
	}

	return accepted
}

func (f *Feed) fetch(ctx context.Context) (map[string]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.UpstreamURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	var raw map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode price payload: %w", err)
	}
	return raw, nil
}

func (f *Feed) publish(ctx context.Context) {
	if f.publisher == nil {
		return
	}
	if err := f.publisher.Publish(ctx, f.channel, f.Snapshot()); err != nil {
		f.logger.Error("Failed to publish price update", zap.Error(err))
	}
}
