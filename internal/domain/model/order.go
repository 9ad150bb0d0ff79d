package model

import (
	"database/sql/driver"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus tracks fulfillment of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Scan implements sql.Scanner interface
func (s *OrderStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = OrderStatus(v)
	case []byte:
		*s = OrderStatus(v)
	default:
		*s = OrderStatusPending
	}
	return nil
}

// Value implements driver.Valuer interface
func (s OrderStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// PaymentStatus tracks settlement of an order.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Scan implements sql.Scanner interface
func (s *PaymentStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = PaymentStatus(v)
	case []byte:
		*s = PaymentStatus(v)
	default:
		*s = PaymentStatusPending
	}
	return nil
}

// Value implements driver.Valuer interface
func (s PaymentStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// DeliveryAddress is stored denormalized on the order.
type DeliveryAddress struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// Order is a one-time purchase created by checkout submission. Once the
// payment status reaches paid the order is immutable except for fulfillment
// status and admin notes.
type Order struct {
	ID                    int64             `gorm:"primaryKey;autoIncrement" json:"-"`
	ExternalID            string            `gorm:"uniqueIndex;size:36;not null" json:"_id"`
	SubmissionID          int64             `gorm:"index;not null" json:"submissionId"`
	CustomerID            string            `gorm:"size:100" json:"customerId,omitempty"`
	OrderNumber           string            `gorm:"uniqueIndex;size:40;not null" json:"orderNumber"`
	Name                  string            `gorm:"size:200;not null" json:"name"`
	Email                 string            `gorm:"index;size:320;not null" json:"email"`
	Phone                 string            `gorm:"size:40" json:"phone,omitempty"`
	DeliveryAddress       JSONB             `gorm:"type:jsonb" json:"deliveryAddress,omitempty"`
	Metal                 string            `gorm:"size:20;not null" json:"metal"`
	Grams                 decimal.Decimal   `gorm:"type:numeric(12,3);not null" json:"grams"`
	CalculatedPrice       string            `gorm:"size:40;not null" json:"calculatedPrice"`
	PriceNumeric          decimal.Decimal   `gorm:"type:numeric(14,2);not null" json:"priceNumeric"`
	Action                TransactionAction `gorm:"size:10;not null" json:"action"`
	Status                OrderStatus       `gorm:"size:20;not null;default:'pending'" json:"status"`
	PaymentStatus         PaymentStatus     `gorm:"size:20;not null;default:'pending'" json:"paymentStatus"`
	StripeSessionID       string            `gorm:"size:100" json:"stripeSessionId,omitempty"`
	StripePaymentIntentID string            `gorm:"size:100" json:"stripePaymentIntentId,omitempty"`
	InvoiceURL            string            `gorm:"size:500" json:"invoiceUrl,omitempty"`
	ReceiptURL            string            `gorm:"size:500" json:"receiptUrl,omitempty"`
	Notes                 string            `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt             time.Time         `gorm:"default:now()" json:"createdAt"`
	UpdatedAt             time.Time         `gorm:"default:now()" json:"updatedAt"`
}

// TableName specifies the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// IsPaid reports whether the order has settled.
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}
