package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	domainErrors "github.com/spectra-metals/spectra-server/internal/domain/errors"
	"github.com/spectra-metals/spectra-server/internal/domain/model"
	"github.com/spectra-metals/spectra-server/internal/domain/provider"
	"github.com/spectra-metals/spectra-server/internal/domain/repository"
	"go.uber.org/zap"
)

// ProcessPaymentRequest is the two-phase confirmation payload. Exactly one
// of PaymentMethodID (first pass) or PaymentIntentID (after the client
// completed a step-up challenge) is set.
type ProcessPaymentRequest struct {
	PaymentMethodID string `json:"payment_method_id,omitempty"`
	PaymentIntentID string `json:"payment_intent_id,omitempty"`
	OrderID         string `json:"order_id,omitempty"`
	OrderNumber     string `json:"order_number"`
}

// PaymentResult is the business outcome of a confirmation attempt. A card
// decline is a result, not an error; the transport wraps DeclineMessage
// for the caller verbatim.
type PaymentResult struct {
	Success        bool   `json:"success"`
	AlreadyPaid    bool   `json:"already_paid,omitempty"`
	RequiresAction bool   `json:"requires_action,omitempty"`
	ClientSecret   string `json:"payment_intent_client_secret,omitempty"`
	DeclineMessage string `json:"-"`
}

type PaymentService struct {
	orderRepo repository.OrderRepository
	payments  provider.PaymentProvider
	logger    *zap.Logger
}

func NewPaymentService(orderRepo repository.OrderRepository, payments provider.PaymentProvider, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		orderRepo: orderRepo,
		payments:  payments,
		logger:    logger,
	}
}

// ProcessPayment runs one confirmation pass for an order. Already-paid
// orders short-circuit without touching the processor; the payment either
// settles, demands a step-up challenge, or declines.
func (s *PaymentService) ProcessPayment(ctx context.Context, req *ProcessPaymentRequest) (*PaymentResult, error) {
	if req.OrderNumber == "" {
		return nil, errors.New("order number is required")
	}
	if req.PaymentMethodID == "" && req.PaymentIntentID == "" {
		return nil, errors.New("payment method or payment intent is required")
	}

	order, err := s.orderRepo.GetByOrderNumber(ctx, req.OrderNumber)
	if err != nil {
		return nil, err
	}

	if order.IsPaid() {
		s.logger.Info("payment skipped, order already paid",
			zap.String("order_number", order.OrderNumber))
		return &PaymentResult{Success: true, AlreadyPaid: true}, nil
	}

	var result *provider.IntentResult
	if req.PaymentMethodID != "" {
		result, err = s.payments.CreateAndConfirmIntent(ctx, &provider.CreateIntentRequest{
			AmountCents:     amountCents(order.PriceNumeric),
			Currency:        "usd",
			PaymentMethodID: req.PaymentMethodID,
			OrderNumber:     order.OrderNumber,
			Email:           order.Email,
			Description:     fmt.Sprintf("Order %s: %s %s", order.OrderNumber, order.Grams.String(), order.Metal),
		})
	} else {
		result, err = s.payments.ConfirmIntent(ctx, req.PaymentIntentID)
	}
	if err != nil {
		var declined *provider.DeclinedError
		if errors.As(err, &declined) {
			s.logger.Info("payment declined",
				zap.String("order_number", order.OrderNumber),
				zap.String("code", declined.Code))
			if markErr := s.orderRepo.MarkPaymentFailed(ctx, order.OrderNumber); markErr != nil {
				s.logger.Error("failed to record declined payment", zap.Error(markErr))
			}
			return &PaymentResult{DeclineMessage: declined.Message}, nil
		}
		return nil, fmt.Errorf("payment confirmation failed: %w", err)
	}

	switch result.Status {
	case provider.IntentStatusSucceeded:
		if err := s.orderRepo.MarkPaid(ctx, order.OrderNumber, result.ID, result.ReceiptURL); err != nil {
			return nil, fmt.Errorf("failed to mark order paid: %w", err)
		}
		s.logger.Info("payment succeeded",
			zap.String("order_number", order.OrderNumber),
			zap.String("intent_id", result.ID))
		return &PaymentResult{Success: true}, nil

	case provider.IntentStatusRequiresAction:
		if err := s.orderRepo.SetPaymentIntent(ctx, order.OrderNumber, result.ID); err != nil {
			s.logger.Error("failed to record pending intent", zap.Error(err))
		}
		return &PaymentResult{
			RequiresAction: true,
			ClientSecret:   result.ClientSecret,
		}, nil

	case provider.IntentStatusProcessing:
		if err := s.orderRepo.SetPaymentIntent(ctx, order.OrderNumber, result.ID); err != nil {
			s.logger.Error("failed to record pending intent", zap.Error(err))
		}
		return &PaymentResult{Success: true}, nil

	default:
		if err := s.orderRepo.MarkPaymentFailed(ctx, order.OrderNumber); err != nil {
			s.logger.Error("failed to record failed payment", zap.Error(err))
		}
		return &PaymentResult{DeclineMessage: "Your payment could not be processed. Please try a different card."}, nil
	}
}

// GetPaymentOrder loads the order backing the payment page.
func (s *PaymentService) GetPaymentOrder(ctx context.Context, orderNumber string) (*model.Order, error) {
	return s.orderRepo.GetByOrderNumber(ctx, orderNumber)
}

// VerifyOutcome loads the order for an outcome route. State comes from
// storage, never from the caller's query string.
func (s *PaymentService) VerifyOutcome(ctx context.Context, orderNumber string) (*model.Order, error) {
	return s.orderRepo.GetByOrderNumber(ctx, orderNumber)
}

// MarkOrderPaidByIntent settles the order named in the intent's metadata.
// Used by the webhook path.
func (s *PaymentService) MarkOrderPaidByIntent(ctx context.Context, orderNumber, intentID, receiptURL string) error {
	if orderNumber == "" {
		return errors.New("order number is required")
	}
	if err := s.orderRepo.MarkPaid(ctx, orderNumber, intentID, receiptURL); err != nil {
		if errors.Is(err, domainErrors.ErrOrderNotFound) {
			s.logger.Warn("webhook settlement for unknown order",
				zap.String("order_number", orderNumber))
			return nil
		}
		return err
	}
	return nil
}

func amountCents(price decimal.Decimal) int64 {
	return price.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
