package http

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spectra-metals/spectra-server/internal/usecase"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.uber.org/zap"
)

type WebhookHandler struct {
	logger              *zap.Logger
	webhookSecret       string
	paymentService      *usecase.PaymentService
	subscriptionService *usecase.SubscriptionService
}

func NewWebhookHandler(
	logger *zap.Logger,
	webhookSecret string,
	paymentService *usecase.PaymentService,
	subscriptionService *usecase.SubscriptionService,
) *WebhookHandler {
	return &WebhookHandler{
		logger:              logger,
		webhookSecret:       webhookSecret,
		paymentService:      paymentService,
		subscriptionService: subscriptionService,
	}
}

func (h *WebhookHandler) HandleWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		h.logger.Error("Error reading request body", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Error reading request body"})
	}

	sig := c.Request().Header.Get("Stripe-Signature")

	event, err := webhook.ConstructEventWithOptions(
		body,
		sig,
		h.webhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		h.logger.Error("Webhook signature verification failed",
			zap.Error(err),
			zap.String("signature", sig),
		)
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Webhook signature verification failed: " + err.Error(),
		})
	}

	h.logger.Info("Webhook Event Received",
		zap.String("type", string(event.Type)),
		zap.String("id", event.ID),
		zap.Time("created", time.Unix(event.Created, 0)),
	)

	ctx := c.Request().Context()

	switch event.Type {
	case stripe.EventTypeInvoicePaymentSucceeded:
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			h.logger.Error("Error parsing invoice", zap.Error(err))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Error parsing webhook"})
		}
		if invoice.Subscription == nil {
			break
		}

		periodEnd := time.Time{}
		if len(invoice.Lines.Data) > 0 && invoice.Lines.Data[0].Period != nil {
			periodEnd = time.Unix(invoice.Lines.Data[0].Period.End, 0)
		}

		if err := h.subscriptionService.ActivateFromInvoice(ctx, invoice.Subscription.ID, periodEnd); err != nil {
			h.logger.Error("Failed to activate subscription from invoice",
				zap.String("subscription_id", invoice.Subscription.ID),
				zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to process invoice"})
		}

	case stripe.EventTypeInvoicePaymentFailed:
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			h.logger.Error("Error parsing invoice", zap.Error(err))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Error parsing webhook"})
		}
		if invoice.Subscription == nil {
			break
		}

		if err := h.subscriptionService.MarkPastDue(ctx, invoice.Subscription.ID); err != nil {
			h.logger.Error("Failed to mark subscription past due",
				zap.String("subscription_id", invoice.Subscription.ID),
				zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to process invoice"})
		}

	case stripe.EventTypeCustomerSubscriptionUpdated, stripe.EventTypeCustomerSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			h.logger.Error("Error parsing subscription", zap.Error(err))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Error parsing webhook"})
		}

		if err := h.subscriptionService.SyncStatus(ctx, sub.ID, string(sub.Status), time.Unix(sub.CurrentPeriodEnd, 0)); err != nil {
			h.logger.Error("Failed to sync subscription status",
				zap.String("subscription_id", sub.ID),
				zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to sync subscription"})
		}

	case stripe.EventTypePaymentIntentSucceeded:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			h.logger.Error("Error parsing payment intent", zap.Error(err))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Error parsing webhook"})
		}

		orderNumber := intent.Metadata["order_number"]
		if orderNumber == "" {
			// Subscription invoices settle through their own events.
			break
		}

		receiptURL := ""
		if intent.LatestCharge != nil {
			receiptURL = intent.LatestCharge.ReceiptURL
		}

		if err := h.paymentService.MarkOrderPaidByIntent(ctx, orderNumber, intent.ID, receiptURL); err != nil {
			h.logger.Error("Failed to settle order from webhook",
				zap.String("order_number", orderNumber),
				zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to settle order"})
		}

	default:
		h.logger.Debug("Unhandled webhook event", zap.String("type", string(event.Type)))
	}

	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
