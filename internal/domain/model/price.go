package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Metal names, as exposed on the wire.
const (
	MetalGold      = "Gold"
	MetalSilver    = "Silver"
	MetalPlatinum  = "Platinum"
	MetalPalladium = "Palladium"
)

// Metals lists every metal the service quotes, in display order.
var Metals = []string{MetalGold, MetalSilver, MetalPlatinum, MetalPalladium}

// KnownMetal reports whether name is a quoted metal.
func KnownMetal(name string) bool {
	for _, m := range Metals {
		if m == name {
			return true
		}
	}
	return false
}

// PricePoint is one day's closing price per gram for a metal. The 30-day
// chart series is read from these rows.
type PricePoint struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"-"`
	Metal     string          `gorm:"uniqueIndex:idx_metal_date;size:20;not null" json:"metal"`
	Date      time.Time       `gorm:"uniqueIndex:idx_metal_date;type:date;not null" json:"date"`
	Price     decimal.Decimal `gorm:"type:numeric(14,4);not null" json:"price"`
	CreatedAt time.Time       `gorm:"default:now()" json:"-"`
}

// TableName specifies the table name for GORM
func (PricePoint) TableName() string {
	return "price_points"
}
