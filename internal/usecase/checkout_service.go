package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	domainErrors "github.com/spectra-metals/spectra-server/internal/domain/errors"
	"github.com/spectra-metals/spectra-server/internal/domain/model"
	"github.com/spectra-metals/spectra-server/internal/domain/repository"
	"go.uber.org/zap"
)

const orderNumberAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// CheckoutForm is the validated checkout payload. Every field is required;
// the handler rejects the request before any order is created otherwise.
type CheckoutForm struct {
	SubmissionID int64  `json:"submissionId" validate:"required"`
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone" validate:"required"`
	Street       string `json:"street" validate:"required"`
	City         string `json:"city" validate:"required"`
	State        string `json:"state" validate:"required"`
	ZipCode      string `json:"zipCode" validate:"required"`
	Country      string `json:"country" validate:"required"`
}

// CheckoutView is what the checkout page renders: either the submission
// to buy, or a notice that it has already been paid for.
type CheckoutView struct {
	Submission  *model.Submission `json:"submission,omitempty"`
	AlreadyPaid bool              `json:"already_paid"`
	OrderNumber string            `json:"orderNumber,omitempty"`
}

type CheckoutService struct {
	submissionRepo repository.SubmissionRepository
	orderRepo      repository.OrderRepository
	logger         *zap.Logger
}

func NewCheckoutService(submissionRepo repository.SubmissionRepository, orderRepo repository.OrderRepository, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{
		submissionRepo: submissionRepo,
		orderRepo:      orderRepo,
		logger:         logger,
	}
}

// GetCheckout loads the submission for the checkout page. A submission
// whose order already settled short-circuits to the already-paid notice.
func (s *CheckoutService) GetCheckout(ctx context.Context, submissionID int64) (*CheckoutView, error) {
	submission, err := s.submissionRepo.GetByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	paid, err := s.orderRepo.GetPaidBySubmissionID(ctx, submissionID)
	if err != nil && !errors.Is(err, domainErrors.ErrOrderNotFound) {
		return nil, fmt.Errorf("failed to check paid orders: %w", err)
	}
	if paid != nil {
		return &CheckoutView{
			AlreadyPaid: true,
			OrderNumber: paid.OrderNumber,
		}, nil
	}

	return &CheckoutView{Submission: submission}, nil
}

// CreateOrder turns a validated checkout form into a pending order with a
// freshly generated order number.
func (s *CheckoutService) CreateOrder(ctx context.Context, form *CheckoutForm) (*model.Order, error) {
	submission, err := s.submissionRepo.GetByID(ctx, form.SubmissionID)
	if err != nil {
		return nil, err
	}

	paid, err := s.orderRepo.GetPaidBySubmissionID(ctx, form.SubmissionID)
	if err != nil && !errors.Is(err, domainErrors.ErrOrderNotFound) {
		return nil, fmt.Errorf("failed to check paid orders: %w", err)
	}
	if paid != nil {
		return paid, domainErrors.ErrAlreadyPaid
	}

	suffix, err := gonanoid.Generate(orderNumberAlphabet, 10)
	if err != nil {
		return nil, fmt.Errorf("failed to generate order number: %w", err)
	}

	order := &model.Order{
		ExternalID:   uuid.New().String(),
		SubmissionID: submission.ID,
		OrderNumber:  "ORD-" + suffix,
		Name:         form.Name,
		Email:        form.Email,
		Phone:        form.Phone,
		DeliveryAddress: model.JSONB{
			"street":  form.Street,
			"city":    form.City,
			"state":   form.State,
			"zipCode": form.ZipCode,
			"country": form.Country,
		},
		Metal:           submission.Metal,
		Grams:           submission.Grams,
		CalculatedPrice: submission.CalculatedPrice,
		PriceNumeric:    submission.PriceNumeric,
		Action:          submission.Action,
		Status:          model.OrderStatusPending,
		PaymentStatus:   model.PaymentStatusPending,
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		s.logger.Error("failed to create order",
			zap.Int64("submission_id", form.SubmissionID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info("order created",
		zap.String("order_number", order.OrderNumber),
		zap.Int64("submission_id", submission.ID))

	return order, nil
}

func (s *CheckoutService) GetOrder(ctx context.Context, orderNumber string) (*model.Order, error) {
	return s.orderRepo.GetByOrderNumber(ctx, orderNumber)
}

// ConfirmSell marks a sell submission's order as confirmed. Sell flows
// settle out-of-band (the store pays the customer), so there is no payment
// confirmation workflow; the order records intent.
func (s *CheckoutService) ConfirmSell(ctx context.Context, submissionID int64) (*model.Order, error) {
	submission, err := s.submissionRepo.GetByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if submission.Action != model.ActionSell {
		return nil, fmt.Errorf("submission %d is not a sell request", submissionID)
	}

	suffix, err := gonanoid.Generate(orderNumberAlphabet, 10)
	if err != nil {
		return nil, fmt.Errorf("failed to generate order number: %w", err)
	}

	order := &model.Order{
		ExternalID:      uuid.New().String(),
		SubmissionID:    submission.ID,
		OrderNumber:     "ORD-" + suffix,
		Name:            submission.Name,
		Email:           submission.Email,
		Metal:           submission.Metal,
		Grams:           submission.Grams,
		CalculatedPrice: submission.CalculatedPrice,
		PriceNumeric:    submission.PriceNumeric,
		Action:          model.ActionSell,
		Status:          model.OrderStatusProcessing,
		PaymentStatus:   model.PaymentStatusPending,
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create sell order: %w", err)
	}

	s.logger.Info("sell confirmed",
		zap.String("order_number", order.OrderNumber),
		zap.Int64("submission_id", submission.ID))

	return order, nil
}
