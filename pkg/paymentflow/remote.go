package paymentflow

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/spectra-metals/spectra-server/pkg/client"
)

// ErrAlreadyPaid means the payment context was settled before this flow
// started; there is nothing left to confirm.
var ErrAlreadyPaid = errors.New("payment was already completed")

// SubscriptionInitiator starts a new protection plan. The backend creates
// the subscription in incomplete status and hands back the first invoice's
// client secret.
type SubscriptionInitiator struct {
	Client *client.Client
	Email  string
	SKU    string
	Plan   string
}

func (i *SubscriptionInitiator) CreateIntent(ctx context.Context) (Intent, error) {
	payment, err := i.Client.CreateSubscription(ctx, i.Email, i.SKU, i.Plan)
	if err != nil {
		return Intent{}, err
	}
	return Intent{
		ClientSecret:  payment.ClientSecret,
		CorrelationID: payment.SubscriptionID,
	}, nil
}

// ResumeSubscriptionInitiator picks up an incomplete subscription without
// creating a duplicate. The correlation id is the subscription being
// resumed.
type ResumeSubscriptionInitiator struct {
	Client         *client.Client
	SubscriptionID string
}

func (i *ResumeSubscriptionInitiator) CreateIntent(ctx context.Context) (Intent, error) {
	secret, err := i.Client.RetrieveSubscriptionPayment(ctx, i.SubscriptionID)
	if err != nil {
		return Intent{}, err
	}
	return Intent{
		ClientSecret:  secret,
		CorrelationID: i.SubscriptionID,
	}, nil
}

// OrderPaymentInitiator loads the payment context for a checkout order.
// Order intents are created lazily by the backend on the first confirmation
// round, so the mount credential stands in as the handle's secret here; the
// order number is the correlation id throughout.
type OrderPaymentInitiator struct {
	Client      *client.Client
	OrderNumber string
}

func (i *OrderPaymentInitiator) CreateIntent(ctx context.Context) (Intent, error) {
	page, err := i.Client.GetPaymentPage(ctx, i.OrderNumber)
	if err != nil {
		return Intent{}, err
	}
	if page.AlreadyPaid {
		return Intent{}, ErrAlreadyPaid
	}
	if !page.Success || page.StripePublicKey == "" {
		return Intent{}, errors.New("payment context unavailable for order " + i.OrderNumber)
	}
	return Intent{
		ClientSecret:  page.StripePublicKey,
		CorrelationID: i.OrderNumber,
	}, nil
}

// OrderConfirmer runs order confirmation rounds against the backend's
// process-payment endpoint. Tokenize turns the widget's card input into a
// payment method id; Challenge completes a step-up against the given
// intent. After a completed challenge the next round re-confirms that same
// intent instead of tokenizing again.
type OrderConfirmer struct {
	Client      *client.Client
	OrderNumber string
	Tokenize    func(ctx context.Context) (string, error)
	Challenge   func(ctx context.Context, intentID string) error

	mu              sync.Mutex
	pendingIntentID string
}

func (c *OrderConfirmer) Confirm(ctx context.Context, intent Intent, returnURL string) (ConfirmResult, error) {
	c.mu.Lock()
	pending := c.pendingIntentID
	c.pendingIntentID = ""
	c.mu.Unlock()

	req := &client.ProcessPaymentRequest{OrderNumber: c.OrderNumber}
	if pending != "" {
		req.PaymentIntentID = pending
	} else {
		methodID, err := c.Tokenize(ctx)
		if err != nil {
			return ConfirmResult{}, err
		}
		req.PaymentMethodID = methodID
	}

	result, err := c.Client.ProcessPayment(ctx, req)
	if err != nil {
		return ConfirmResult{}, err
	}

	switch {
	case result.ErrorMessage != "":
		return ConfirmResult{Status: ConfirmDeclined, DeclineMessage: result.ErrorMessage}, nil
	case result.RequiresAction:
		return ConfirmResult{
			Status:       ConfirmStepUp,
			IntentID:     intentIDFromSecret(result.ClientSecret),
			ClientSecret: result.ClientSecret,
		}, nil
	case result.Success:
		return ConfirmResult{Status: ConfirmSucceeded}, nil
	}
	return ConfirmResult{Status: ConfirmDeclined, DeclineMessage: "Your payment could not be processed."}, nil
}

func (c *OrderConfirmer) HandleStepUp(ctx context.Context, intentID string) error {
	if err := c.Challenge(ctx, intentID); err != nil {
		return err
	}
	c.mu.Lock()
	c.pendingIntentID = intentID
	c.mu.Unlock()
	return nil
}

// intentIDFromSecret extracts "pi_123" from "pi_123_secret_abc".
func intentIDFromSecret(secret string) string {
	if idx := strings.Index(secret, "_secret"); idx > 0 {
		return secret[:idx]
	}
	return secret
}
