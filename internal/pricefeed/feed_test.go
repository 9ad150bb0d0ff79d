package pricefeed

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/spectra-metals/spectra-server/internal/config"
	"github.com/spectra-metals/spectra-server/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestFeed() *Feed {
	return NewFeed(&config.PriceFeedConfig{}, nil, nil, "prices", zap.NewNop())
}

func TestFeedApply(t *testing.T) {
	t.Run("accepts positive prices for known metals", func(t *testing.T) {
		feed := newTestFeed()

		accepted := feed.Apply(map[string]float64{
			model.MetalGold:   65.40,
			model.MetalSilver: 0.82,
		})

		assert.Len(t, accepted, 2)
		snapshot := feed.Snapshot()
		assert.True(t, snapshot[model.MetalGold].Equal(decimal.NewFromFloat(65.40)))
		assert.True(t, snapshot[model.MetalSilver].Equal(decimal.NewFromFloat(0.82)))
	})

	t.Run("keeps previous value when price is non-positive", func(t *testing.T) {
		feed := newTestFeed()
		feed.Apply(map[string]float64{model.MetalGold: 65.40})

		accepted := feed.Apply(map[string]float64{
			model.MetalGold:   0,
			model.MetalSilver: -1.5,
		})

		assert.Empty(t, accepted)
		snapshot := feed.Snapshot()
		assert.True(t, snapshot[model.MetalGold].Equal(decimal.NewFromFloat(65.40)))
		_, ok := snapshot[model.MetalSilver]
		assert.False(t, ok)
	})

	t.Run("ignores unknown metals", func(t *testing.T) {
		feed := newTestFeed()

		accepted := feed.Apply(map[string]float64{
			"Copper":        4.2,
			model.MetalGold: 65.40,
		})

		assert.Len(t, accepted, 1)
		_, ok := feed.Snapshot()["Copper"]
		assert.False(t, ok)
	})

	t.Run("partial bad tick only updates good quotes", func(t *testing.T) {
		feed := newTestFeed()
		feed.Apply(map[string]float64{
			model.MetalGold:   65.40,
			model.MetalSilver: 0.82,
		})

		feed.Apply(map[string]float64{
			model.MetalGold:   66.10,
			model.MetalSilver: 0,
		})

		snapshot := feed.Snapshot()
		assert.True(t, snapshot[model.MetalGold].Equal(decimal.NewFromFloat(66.10)))
		assert.True(t, snapshot[model.MetalSilver].Equal(decimal.NewFromFloat(0.82)))
	})
}
