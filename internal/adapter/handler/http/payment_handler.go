package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	domainErrors "github.com/spectra-metals/spectra-server/internal/domain/errors"
	"github.com/spectra-metals/spectra-server/internal/usecase"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	logger         *zap.Logger
	paymentService *usecase.PaymentService
	publishableKey string
}

func NewPaymentHandler(logger *zap.Logger, paymentService *usecase.PaymentService, publishableKey string) *PaymentHandler {
	return &PaymentHandler{
		logger:         logger,
		paymentService: paymentService,
		publishableKey: publishableKey,
	}
}

// GetPaymentPage serves the order and the publishable key for mounting
// the card widget. An already-paid order redirects instead.
func (h *PaymentHandler) GetPaymentPage(c echo.Context) error {
	orderNumber := c.Param("orderNumber")

	order, err := h.paymentService.GetPaymentOrder(c.Request().Context(), orderNumber)
	if err != nil {
		if errors.Is(err, domainErrors.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Order not found"})
		}
		h.logger.Error("Failed to load payment page",
			zap.String("order_number", orderNumber),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load order"})
	}

	if order.IsPaid() {
		return c.JSON(http.StatusOK, echo.Map{
			"success":      true,
			"already_paid": true,
			"orderNumber":  order.OrderNumber,
			"redirectUrl":  "/orders/payment-already-paid/" + order.OrderNumber,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":         true,
		"order":           order,
		"stripePublicKey": h.publishableKey,
	})
}

// ProcessPayment runs one confirmation pass. Declines come back as HTTP
// 200 with an error payload; the message is surfaced verbatim.
func (h *PaymentHandler) ProcessPayment(c echo.Context) error {
	var req usecase.ProcessPaymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": echo.Map{"message": "Invalid request body"},
		})
	}

	result, err := h.paymentService.ProcessPayment(c.Request().Context(), &req)
	if err != nil {
		if errors.Is(err, domainErrors.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{
				"error": echo.Map{"message": "Order not found"},
			})
		}
		h.logger.Error("Payment processing failed",
			zap.String("order_number", req.OrderNumber),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": echo.Map{"message": "Payment processing failed. Please try again."},
		})
	}

	if result.DeclineMessage != "" {
		return c.JSON(http.StatusOK, echo.Map{
			"error": echo.Map{"message": result.DeclineMessage},
		})
	}

	if result.RequiresAction {
		return c.JSON(http.StatusOK, echo.Map{
			"requires_action":              true,
			"payment_intent_client_secret": result.ClientSecret,
		})
	}

	resp := echo.Map{"success": true}
	if result.AlreadyPaid {
		resp["already_paid"] = true
	}
	return c.JSON(http.StatusOK, resp)
}

// GetPaymentSuccess verifies the success outcome from storage; the caller
// landing here does not make the order paid.
func (h *PaymentHandler) GetPaymentSuccess(c echo.Context) error {
	orderNumber := c.Param("orderNumber")

	order, err := h.paymentService.VerifyOutcome(c.Request().Context(), orderNumber)
	if err != nil {
		if errors.Is(err, domainErrors.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Order not found"})
		}
		h.logger.Error("Failed to verify outcome", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load order"})
	}

	if !order.IsPaid() {
		return c.JSON(http.StatusOK, echo.Map{
			"success":     false,
			"orderNumber": order.OrderNumber,
			"message":     "Payment has not completed for this order",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"order":   order,
	})
}

// GetPaymentAlreadyPaid serves the already-processed outcome variant.
func (h *PaymentHandler) GetPaymentAlreadyPaid(c echo.Context) error {
	order, err := h.paymentService.VerifyOutcome(c.Request().Context(), c.Param("orderNumber"))
	if err != nil {
		if errors.Is(err, domainErrors.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Order not found"})
		}
		h.logger.Error("Failed to verify outcome", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load order"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":      true,
		"already_paid": order.IsPaid(),
		"order":        order,
	})
}

// GetPaymentCancel acknowledges an abandoned payment. Nothing changes on
// the order; it stays pending.
func (h *PaymentHandler) GetPaymentCancel(c echo.Context) error {
	orderNumber := c.QueryParam("order")
	if orderNumber == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order is required"})
	}

	order, err := h.paymentService.VerifyOutcome(c.Request().Context(), orderNumber)
	if err != nil {
		if errors.Is(err, domainErrors.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Order not found"})
		}
		h.logger.Error("Failed to load cancelled order", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load order"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"cancelled":   true,
		"orderNumber": order.OrderNumber,
		"message":     "Payment was cancelled. Your order is still pending.",
	})
}
