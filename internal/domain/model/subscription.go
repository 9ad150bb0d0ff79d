package model

import (
	"database/sql/driver"
	"time"
)

// SubscriptionStatus mirrors the processor's subscription lifecycle.
type SubscriptionStatus string

const (
	SubscriptionStatusIncomplete        SubscriptionStatus = "incomplete"
	SubscriptionStatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	SubscriptionStatusActive            SubscriptionStatus = "active"
	SubscriptionStatusPastDue           SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled          SubscriptionStatus = "canceled"
	SubscriptionStatusUnpaid            SubscriptionStatus = "unpaid"
)

// Scan implements sql.Scanner interface
func (s *SubscriptionStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = SubscriptionStatus(v)
	case []byte:
		*s = SubscriptionStatus(v)
	default:
		*s = SubscriptionStatusIncomplete
	}
	return nil
}

// Value implements driver.Valuer interface
func (s SubscriptionStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// PlanTier is the protection plan billing cadence.
type PlanTier string

const (
	PlanMonthly PlanTier = "monthly"
	PlanYearly  PlanTier = "yearly"
)

// Valid reports whether the tier is one the service sells.
func (p PlanTier) Valid() bool {
	return p == PlanMonthly || p == PlanYearly
}

// Subscription is a recurring protection plan over a submitted item. It is
// created incomplete and becomes active only after the payment confirmation
// workflow succeeds.
type Subscription struct {
	ID                   int64              `gorm:"primaryKey;autoIncrement" json:"-"`
	ExternalID           string             `gorm:"uniqueIndex;size:36;not null" json:"_id"`
	CustomerID           string             `gorm:"size:100;not null" json:"customerId"`
	Email                string             `gorm:"index;size:320;not null" json:"email"`
	SKU                  string             `gorm:"index;size:100;not null" json:"sku"`
	Plan                 PlanTier           `gorm:"size:10;not null" json:"plan"`
	StripeSubscriptionID string             `gorm:"uniqueIndex;size:100;not null" json:"stripeSubscriptionId"`
	Status               SubscriptionStatus `gorm:"size:30;not null;default:'incomplete'" json:"status"`
	CurrentPeriodEnd     time.Time          `json:"currentPeriodEnd"`
	LastPaymentDate      *time.Time         `json:"lastPaymentDate,omitempty"`
	Product              JSONB              `gorm:"type:jsonb" json:"product,omitempty"`
	CreatedAt            time.Time          `gorm:"default:now()" json:"createdAt"`
	UpdatedAt            time.Time          `gorm:"default:now()" json:"updatedAt"`
}

// TableName specifies the table name for GORM
func (Subscription) TableName() string {
	return "subscriptions"
}

// RequiresPayment reports whether the confirmation workflow must be repeated.
func (s *Subscription) RequiresPayment() bool {
	return s.Status == SubscriptionStatusIncomplete || s.Status == SubscriptionStatusPastDue || s.Status == SubscriptionStatusUnpaid
}
