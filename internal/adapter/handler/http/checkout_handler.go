package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	domainErrors "github.com/spectra-metals/spectra-server/internal/domain/errors"
	"github.com/spectra-metals/spectra-server/internal/usecase"
	"go.uber.org/zap"
)

type CheckoutHandler struct {
	logger          *zap.Logger
	checkoutService *usecase.CheckoutService
}

func NewCheckoutHandler(logger *zap.Logger, checkoutService *usecase.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		logger:          logger,
		checkoutService: checkoutService,
	}
}

// GetCheckout serves the checkout page data for a submission.
func (h *CheckoutHandler) GetCheckout(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid submission id"})
	}

	view, err := h.checkoutService.GetCheckout(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, domainErrors.ErrSubmissionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Submission not found"})
		}
		h.logger.Error("Failed to load checkout", zap.Int64("submission_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load checkout"})
	}

	if view.AlreadyPaid {
		return c.JSON(http.StatusOK, echo.Map{
			"already_paid": true,
			"orderNumber":  view.OrderNumber,
		})
	}
	return c.JSON(http.StatusOK, view.Submission)
}

// CreateOrder validates the checkout form and creates a pending order.
// Validation happens before anything is persisted: a missing field means
// no order and no network traffic.
func (h *CheckoutHandler) CreateOrder(c echo.Context) error {
	var form usecase.CheckoutForm
	if err := c.Bind(&form); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}
	if err := c.Validate(&form); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"error":   "All delivery fields are required",
		})
	}

	order, err := h.checkoutService.CreateOrder(c.Request().Context(), &form)
	if err != nil {
		if errors.Is(err, domainErrors.ErrAlreadyPaid) {
			return c.JSON(http.StatusOK, echo.Map{
				"success":      true,
				"already_paid": true,
				"orderNumber":  order.OrderNumber,
				"redirectUrl":  "/orders/payment-already-paid/" + order.OrderNumber,
			})
		}
		if errors.Is(err, domainErrors.ErrSubmissionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{
				"success": false,
				"error":   "Submission not found",
			})
		}
		h.logger.Error("Failed to create order", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"error":   "Failed to create order",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"orderNumber": order.OrderNumber,
		"redirectUrl": "/orders/payment/" + order.OrderNumber,
	})
}

// GetOrder serves one order by its order number.
func (h *CheckoutHandler) GetOrder(c echo.Context) error {
	order, err := h.checkoutService.GetOrder(c.Request().Context(), c.Param("orderNumber"))
	if err != nil {
		if errors.Is(err, domainErrors.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Order not found"})
		}
		h.logger.Error("Failed to load order", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load order"})
	}

	return c.JSON(http.StatusOK, order)
}

// GetOrderStatus serves the fulfillment and payment status only.
func (h *CheckoutHandler) GetOrderStatus(c echo.Context) error {
	order, err := h.checkoutService.GetOrder(c.Request().Context(), c.Param("orderNumber"))
	if err != nil {
		if errors.Is(err, domainErrors.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Order not found"})
		}
		h.logger.Error("Failed to load order status", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load order"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"orderNumber":   order.OrderNumber,
		"status":        order.Status,
		"paymentStatus": order.PaymentStatus,
	})
}

// GetSellConfirmation serves the confirmation page for a sell order.
func (h *CheckoutHandler) GetSellConfirmation(c echo.Context) error {
	order, err := h.checkoutService.GetOrder(c.Request().Context(), c.Param("orderNumber"))
	if err != nil {
		if errors.Is(err, domainErrors.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Order not found"})
		}
		h.logger.Error("Failed to load sell confirmation", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load order"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"order":   order,
	})
}

type sellConfirmationRequest struct {
	SubmissionID int64 `json:"submissionId" validate:"required"`
}

// ConfirmSell records a sell request as a confirmed order.
func (h *CheckoutHandler) ConfirmSell(c echo.Context) error {
	var req sellConfirmationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "submissionId is required"})
	}

	order, err := h.checkoutService.ConfirmSell(c.Request().Context(), req.SubmissionID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrSubmissionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Submission not found"})
		}
		h.logger.Error("Failed to confirm sell",
			zap.Int64("submission_id", req.SubmissionID),
			zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"orderNumber": order.OrderNumber,
		"redirectUrl": "/orders/sell-confirmation/" + order.OrderNumber,
	})
}
