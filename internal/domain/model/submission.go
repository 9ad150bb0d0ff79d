package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionAction is what the customer wants done with the item.
type TransactionAction string

const (
	ActionBuy    TransactionAction = "buy"
	ActionSell   TransactionAction = "sell"
	ActionInvest TransactionAction = "invest"
)

// Submission is a transaction request filed through the public form.
type Submission struct {
	ID              int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	ExternalID      string            `gorm:"uniqueIndex;size:36;not null" json:"_id"`
	Name            string            `gorm:"size:200;not null" json:"name"`
	Email           string            `gorm:"index;size:320;not null" json:"email"`
	SKU             string            `gorm:"uniqueIndex;size:100;not null" json:"sku"`
	Description     string            `gorm:"type:text" json:"description"`
	Metal           string            `gorm:"size:20;not null" json:"metal"`
	Grams           decimal.Decimal   `gorm:"type:numeric(12,3);not null" json:"grams"`
	CalculatedPrice string            `gorm:"size:40;not null" json:"calculatedPrice"`
	PriceNumeric    decimal.Decimal   `gorm:"type:numeric(14,2);not null" json:"priceNumeric"`
	Action          TransactionAction `gorm:"size:10;not null" json:"action"`
	ImagePath       string            `gorm:"size:500" json:"imagePath,omitempty"`
	CreatedAt       time.Time         `gorm:"default:now()" json:"timestamp"`
	UpdatedAt       time.Time         `gorm:"default:now()" json:"updatedAt"`
}

// TableName specifies the table name for GORM
func (Submission) TableName() string {
	return "submissions"
}
