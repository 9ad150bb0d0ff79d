package provider

import (
	"context"
	"time"
)

// IntentStatus is the provider-agnostic view of a payment intent's state.
type IntentStatus string

const (
	IntentStatusSucceeded      IntentStatus = "succeeded"
	IntentStatusRequiresAction IntentStatus = "requires_action"
	IntentStatusProcessing     IntentStatus = "processing"
	IntentStatusFailed         IntentStatus = "failed"
)

// IntentResult is the outcome of creating or confirming a payment intent.
type IntentResult struct {
	ID           string       `json:"id"`
	Status       IntentStatus `json:"status"`
	ClientSecret string       `json:"client_secret,omitempty"`
	ReceiptURL   string       `json:"receipt_url,omitempty"`
}

// CreateIntentRequest starts a one-time charge for an order.
type CreateIntentRequest struct {
	AmountCents     int64  `json:"amount_cents"`
	Currency        string `json:"currency"`
	PaymentMethodID string `json:"payment_method_id"`
	OrderNumber     string `json:"order_number"`
	Email           string `json:"email"`
	Description     string `json:"description,omitempty"`
}

// CreateSubscriptionRequest starts a recurring protection plan. The
// subscription is created incomplete; the caller completes it through the
// confirmation workflow with the returned client secret.
type CreateSubscriptionRequest struct {
	CustomerID  string `json:"customer_id"`
	ProductID   string `json:"product_id"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	// Interval is month or year.
	Interval string `json:"interval"`
	SKU      string `json:"sku"`
}

// SubscriptionHandle is the provider's view of a subscription.
type SubscriptionHandle struct {
	ID               string    `json:"id"`
	Status           string    `json:"status"`
	ClientSecret     string    `json:"client_secret,omitempty"`
	CurrentPeriodEnd time.Time `json:"current_period_end"`
	CancelAtEnd      bool      `json:"cancel_at_period_end"`
}

// DeclinedError is a card decline or validation failure reported by the
// provider. Its message is safe to surface verbatim.
type DeclinedError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DeclinedError) Error() string {
	return e.Message
}

// PaymentProvider is the processor-facing boundary. Implementations own
// every call to the payment processor's API.
type PaymentProvider interface {
	CreateCustomer(ctx context.Context, email string) (string, error)

	// CreateAndConfirmIntent creates a payment intent from a payment
	// method and confirms it server-side (manual confirmation, so a
	// step-up challenge comes back as IntentStatusRequiresAction).
	CreateAndConfirmIntent(ctx context.Context, req *CreateIntentRequest) (*IntentResult, error)

	// ConfirmIntent re-confirms an intent after the client completed a
	// step-up challenge.
	ConfirmIntent(ctx context.Context, intentID string) (*IntentResult, error)

	CreateSubscription(ctx context.Context, req *CreateSubscriptionRequest) (*SubscriptionHandle, error)

	// RetrievePaymentClientSecret re-issues the client secret backing an
	// incomplete subscription's pending invoice.
	RetrievePaymentClientSecret(ctx context.Context, subscriptionID string) (string, error)

	CancelAtPeriodEnd(ctx context.Context, subscriptionID string) (*SubscriptionHandle, error)

	GetProviderName() string
}
