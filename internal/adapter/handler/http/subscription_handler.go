package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	domainErrors "github.com/spectra-metals/spectra-server/internal/domain/errors"
	"github.com/spectra-metals/spectra-server/internal/domain/model"
	"github.com/spectra-metals/spectra-server/internal/usecase"
	"go.uber.org/zap"
)

type SubscriptionHandler struct {
	logger              *zap.Logger
	subscriptionService *usecase.SubscriptionService
	publishableKey      string
}

func NewSubscriptionHandler(logger *zap.Logger, subscriptionService *usecase.SubscriptionService, publishableKey string) *SubscriptionHandler {
	return &SubscriptionHandler{
		logger:              logger,
		subscriptionService: subscriptionService,
		publishableKey:      publishableKey,
	}
}

// GetClaimPolicy serves the protection plan offer for an item.
func (h *SubscriptionHandler) GetClaimPolicy(c echo.Context) error {
	email := c.Param("email")
	sku := c.Param("sku")

	view, err := h.subscriptionService.GetClaimPolicy(c.Request().Context(), email, sku)
	if err != nil {
		if errors.Is(err, domainErrors.ErrSubmissionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "SKU not found"})
		}
		h.logger.Error("Failed to load claim policy",
			zap.String("sku", sku),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load policy"})
	}

	resp := echo.Map{
		"email":           view.Email,
		"sku":             view.SKU,
		"submission":      view.Submission,
		"monthlyPrice":    view.MonthlyPrice,
		"yearlyPrice":     view.YearlyPrice,
		"stripePublicKey": h.publishableKey,
	}
	if view.ExistingSubscription != nil {
		resp["existingSubscription"] = view.ExistingSubscription
	}
	return c.JSON(http.StatusOK, resp)
}

type createSubscriptionRequest struct {
	Email string `json:"email" validate:"required,email"`
	SKU   string `json:"sku" validate:"required"`
	Plan  string `json:"plan" validate:"required"`
}

// CreateSubscription starts an incomplete subscription and returns the
// client secret the confirmation workflow needs.
func (h *SubscriptionHandler) CreateSubscription(c echo.Context) error {
	var req createSubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email, sku and plan are required"})
	}

	result, err := h.subscriptionService.CreateSubscription(c.Request().Context(), req.Email, req.SKU, model.PlanTier(req.Plan))
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrInvalidPlan):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "plan must be monthly or yearly"})
		case errors.Is(err, domainErrors.ErrSubmissionNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "SKU not found"})
		}
		h.logger.Error("Failed to create subscription",
			zap.String("sku", req.SKU),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create subscription"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"subscriptionId": result.SubscriptionID,
		"clientSecret":   result.ClientSecret,
	})
}

type retrievePaymentRequest struct {
	SubscriptionID string `json:"subscriptionId" validate:"required"`
}

// RetrieveSubscriptionPayment re-issues the client secret for resuming an
// incomplete subscription.
func (h *SubscriptionHandler) RetrieveSubscriptionPayment(c echo.Context) error {
	var req retrievePaymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "subscriptionId is required"})
	}

	secret, err := h.subscriptionService.RetrievePaymentSecret(c.Request().Context(), req.SubscriptionID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrSubscriptionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Subscription not found"})
		}
		h.logger.Error("Failed to retrieve payment secret",
			zap.String("subscription_id", req.SubscriptionID),
			zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, echo.Map{"clientSecret": secret})
}

// CancelSubscription schedules cancellation at the period boundary.
func (h *SubscriptionHandler) CancelSubscription(c echo.Context) error {
	id := c.Param("id")

	if err := h.subscriptionService.Cancel(c.Request().Context(), id); err != nil {
		if errors.Is(err, domainErrors.ErrSubscriptionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Subscription not found"})
		}
		h.logger.Error("Failed to cancel subscription",
			zap.String("subscription_id", id),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to cancel subscription"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Subscription will end at the close of the current billing period",
	})
}

// GetMySubscriptions lists a user's subscriptions with product snapshots.
func (h *SubscriptionHandler) GetMySubscriptions(c echo.Context) error {
	email := c.QueryParam("email")
	if email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required"})
	}

	subscriptions, err := h.subscriptionService.ListByEmail(c.Request().Context(), email)
	if err != nil {
		h.logger.Error("Failed to list subscriptions",
			zap.String("email", email),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to list subscriptions"})
	}

	return c.JSON(http.StatusOK, echo.Map{"subscriptions": subscriptions})
}
