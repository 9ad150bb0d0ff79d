package stripe

import (
	"context"
	"errors"
	"time"

	"github.com/spectra-metals/spectra-server/internal/domain/provider"
	stripego "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/customer"
	"github.com/stripe/stripe-go/v79/paymentintent"
	"github.com/stripe/stripe-go/v79/subscription"
	"go.uber.org/zap"
)

// Provider implements provider.PaymentProvider against Stripe.
type Provider struct {
	logger *zap.Logger
}

// NewProvider creates the Stripe provider. The package-level API key is set
// once by the HTTP server during startup.
func NewProvider(logger *zap.Logger) *Provider {
	return &Provider{logger: logger}
}

// GetProviderName returns the provider name
func (p *Provider) GetProviderName() string {
	return "stripe"
}

func (p *Provider) CreateCustomer(ctx context.Context, email string) (string, error) {
	params := &stripego.CustomerParams{
		Email: stripego.String(email),
	}
	params.Context = ctx

	cust, err := customer.New(params)
	if err != nil {
		return "", wrapStripeErr(err)
	}
	return cust.ID, nil
}

func (p *Provider) CreateAndConfirmIntent(ctx context.Context, req *provider.CreateIntentRequest) (*provider.IntentResult, error) {
	params := &stripego.PaymentIntentParams{
		Amount:             stripego.Int64(req.AmountCents),
		Currency:           stripego.String(req.Currency),
		PaymentMethod:      stripego.String(req.PaymentMethodID),
		Confirm:            stripego.Bool(true),
		ConfirmationMethod: stripego.String(string(stripego.PaymentIntentConfirmationMethodManual)),
		ReceiptEmail:       stripego.String(req.Email),
	}
	if req.Description != "" {
		params.Description = stripego.String(req.Description)
	}
	params.Context = ctx
	params.AddMetadata("order_number", req.OrderNumber)
	params.AddExpand("latest_charge")

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, wrapStripeErr(err)
	}

	p.logger.Info("Payment intent created",
		zap.String("intent_id", pi.ID),
		zap.String("order_number", req.OrderNumber),
		zap.String("status", string(pi.Status)),
	)

	return intentResult(pi), nil
}

func (p *Provider) ConfirmIntent(ctx context.Context, intentID string) (*provider.IntentResult, error) {
	params := &stripego.PaymentIntentConfirmParams{}
	params.Context = ctx
	params.AddExpand("latest_charge")

	pi, err := paymentintent.Confirm(intentID, params)
	if err != nil {
		return nil, wrapStripeErr(err)
	}

	return intentResult(pi), nil
}

func (p *Provider) CreateSubscription(ctx context.Context, req *provider.CreateSubscriptionRequest) (*provider.SubscriptionHandle, error) {
	params := &stripego.SubscriptionParams{
		Customer: stripego.String(req.CustomerID),
		Items: []*stripego.SubscriptionItemsParams{
			{
				PriceData: &stripego.SubscriptionItemPriceDataParams{
					Currency:   stripego.String(req.Currency),
					Product:    stripego.String(req.ProductID),
					UnitAmount: stripego.Int64(req.AmountCents),
					Recurring: &stripego.SubscriptionItemPriceDataRecurringParams{
						Interval: stripego.String(req.Interval),
					},
				},
			},
		},
		PaymentBehavior: stripego.String("default_incomplete"),
		PaymentSettings: &stripego.SubscriptionPaymentSettingsParams{
			SaveDefaultPaymentMethod: stripego.String("on_subscription"),
		},
	}
	params.Context = ctx
	params.AddMetadata("sku", req.SKU)
	params.AddExpand("latest_invoice.payment_intent")

	sub, err := subscription.New(params)
	if err != nil {
		return nil, wrapStripeErr(err)
	}

	handle := subscriptionHandle(sub)
	if handle.ClientSecret == "" {
		p.logger.Error("Subscription created without payable invoice",
			zap.String("subscription_id", sub.ID))
		return nil, errors.New("subscription has no pending payment intent")
	}

	p.logger.Info("Subscription created",
		zap.String("subscription_id", sub.ID),
		zap.String("status", string(sub.Status)),
	)

	return handle, nil
}

func (p *Provider) RetrievePaymentClientSecret(ctx context.Context, subscriptionID string) (string, error) {
	params := &stripego.SubscriptionParams{}
	params.Context = ctx
	params.AddExpand("latest_invoice.payment_intent")

	sub, err := subscription.Get(subscriptionID, params)
	if err != nil {
		return "", wrapStripeErr(err)
	}

	handle := subscriptionHandle(sub)
	if handle.ClientSecret == "" {
		return "", errors.New("subscription has no pending payment intent")
	}
	return handle.ClientSecret, nil
}

func (p *Provider) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) (*provider.SubscriptionHandle, error) {
	params := &stripego.SubscriptionParams{
		CancelAtPeriodEnd: stripego.Bool(true),
	}
	params.Context = ctx

	sub, err := subscription.Update(subscriptionID, params)
	if err != nil {
		return nil, wrapStripeErr(err)
	}

	p.logger.Info("Subscription canceled at period end",
		zap.String("subscription_id", sub.ID))

	return subscriptionHandle(sub), nil
}

func intentResult(pi *stripego.PaymentIntent) *provider.IntentResult {
	result := &provider.IntentResult{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
	}

	switch pi.Status {
	case stripego.PaymentIntentStatusSucceeded:
		result.Status = provider.IntentStatusSucceeded
	case stripego.PaymentIntentStatusRequiresAction, stripego.PaymentIntentStatusRequiresConfirmation:
		result.Status = provider.IntentStatusRequiresAction
	case stripego.PaymentIntentStatusProcessing:
		result.Status = provider.IntentStatusProcessing
	default:
		result.Status = provider.IntentStatusFailed
	}

	if pi.LatestCharge != nil {
		result.ReceiptURL = pi.LatestCharge.ReceiptURL
	}

	return result
}

func subscriptionHandle(sub *stripego.Subscription) *provider.SubscriptionHandle {
	handle := &provider.SubscriptionHandle{
		ID:               sub.ID,
		Status:           string(sub.Status),
		CurrentPeriodEnd: time.Unix(sub.CurrentPeriodEnd, 0),
		CancelAtEnd:      sub.CancelAtPeriodEnd,
	}
	if sub.LatestInvoice != nil && sub.LatestInvoice.PaymentIntent != nil {
		handle.ClientSecret = sub.LatestInvoice.PaymentIntent.ClientSecret
	}
	return handle
}

// wrapStripeErr converts card declines into DeclinedError so handlers can
// surface the message verbatim; everything else passes through.
func wrapStripeErr(err error) error {
	var stripeErr *stripego.Error
	if errors.As(err, &stripeErr) {
		switch stripeErr.Type {
		case stripego.ErrorTypeCard, stripego.ErrorTypeInvalidRequest:
			msg := stripeErr.Msg
			if msg == "" {
				msg = "Your card was declined"
			}
			return &provider.DeclinedError{
				Code:    string(stripeErr.Code),
				Message: msg,
			}
		}
	}
	return err
}
