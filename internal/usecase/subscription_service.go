package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spectra-metals/spectra-server/internal/config"
	domainErrors "github.com/spectra-metals/spectra-server/internal/domain/errors"
	"github.com/spectra-metals/spectra-server/internal/domain/model"
	"github.com/spectra-metals/spectra-server/internal/domain/provider"
	"github.com/spectra-metals/spectra-server/internal/domain/repository"
	"go.uber.org/zap"
)

// ClaimPolicyView is the protection plan offer for one insured item.
type ClaimPolicyView struct {
	Email                string              `json:"email"`
	SKU                  string              `json:"sku"`
	Submission           *model.Submission   `json:"submission"`
	MonthlyPrice         decimal.Decimal     `json:"monthlyPrice"`
	YearlyPrice          decimal.Decimal     `json:"yearlyPrice"`
	ExistingSubscription *model.Subscription `json:"existingSubscription,omitempty"`
}

// CreateSubscriptionResult hands the confirmation workflow what it needs:
// the subscription id and the client secret of the pending invoice.
type CreateSubscriptionResult struct {
	SubscriptionID string `json:"subscriptionId"`
	ClientSecret   string `json:"clientSecret"`
}

type SubscriptionService struct {
	subscriptionRepo repository.SubscriptionRepository
	submissionRepo   repository.SubmissionRepository
	payments         provider.PaymentProvider
	plans            *config.PlanConfig
	productID        string
	logger           *zap.Logger
}

func NewSubscriptionService(
	subscriptionRepo repository.SubscriptionRepository,
	submissionRepo repository.SubmissionRepository,
	payments provider.PaymentProvider,
	plans *config.PlanConfig,
	productID string,
	logger *zap.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		subscriptionRepo: subscriptionRepo,
		submissionRepo:   submissionRepo,
		payments:         payments,
		plans:            plans,
		productID:        productID,
		logger:           logger,
	}
}

// GetClaimPolicy prices both plan tiers for the item and reports any
// subscription already covering it.
func (s *SubscriptionService) GetClaimPolicy(ctx context.Context, email, sku string) (*ClaimPolicyView, error) {
	submission, err := s.submissionRepo.GetBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}

	view := &ClaimPolicyView{
		Email:        email,
		SKU:          sku,
		Submission:   submission,
		MonthlyPrice: s.planPrice(submission.PriceNumeric, model.PlanMonthly),
		YearlyPrice:  s.planPrice(submission.PriceNumeric, model.PlanYearly),
	}

	existing, err := s.subscriptionRepo.GetByEmailAndSKU(ctx, email, sku)
	if err != nil && !errors.Is(err, domainErrors.ErrSubscriptionNotFound) {
		return nil, fmt.Errorf("failed to check existing subscription: %w", err)
	}
	if existing != nil {
		view.ExistingSubscription = existing
	}

	return view, nil
}

// CreateSubscription starts an incomplete subscription for the plan. An
// existing incomplete subscription is resumed instead of duplicated; an
// active one is refused.
func (s *SubscriptionService) CreateSubscription(ctx context.Context, email, sku string, plan model.PlanTier) (*CreateSubscriptionResult, error) {
	if !plan.Valid() {
		return nil, domainErrors.ErrInvalidPlan
	}

	submission, err := s.submissionRepo.GetBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}

	existing, err := s.subscriptionRepo.GetByEmailAndSKU(ctx, email, sku)
	if err != nil && !errors.Is(err, domainErrors.ErrSubscriptionNotFound) {
		return nil, fmt.Errorf("failed to check existing subscription: %w", err)
	}
	if existing != nil {
		if existing.Status == model.SubscriptionStatusActive {
			return nil, fmt.Errorf("item %s already has an active subscription", sku)
		}
		if existing.RequiresPayment() {
			secret, err := s.payments.RetrievePaymentClientSecret(ctx, existing.StripeSubscriptionID)
			if err == nil {
				s.logger.Info("resuming incomplete subscription",
					zap.String("subscription_id", existing.StripeSubscriptionID))
				return &CreateSubscriptionResult{
					SubscriptionID: existing.StripeSubscriptionID,
					ClientSecret:   secret,
				}, nil
			}
			s.logger.Warn("could not resume incomplete subscription; creating a new one",
				zap.String("subscription_id", existing.StripeSubscriptionID),
				zap.Error(err))
		}
	}

	customerID, err := s.payments.CreateCustomer(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	interval := "month"
	if plan == model.PlanYearly {
		interval = "year"
	}

	handle, err := s.payments.CreateSubscription(ctx, &provider.CreateSubscriptionRequest{
		CustomerID:  customerID,
		ProductID:   s.productID,
		AmountCents: amountCents(s.planPrice(submission.PriceNumeric, plan)),
		Currency:    "usd",
		Interval:    interval,
		SKU:         sku,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	subscription := &model.Subscription{
		ExternalID:           uuid.New().String(),
		CustomerID:           customerID,
		Email:                email,
		SKU:                  sku,
		Plan:                 plan,
		StripeSubscriptionID: handle.ID,
		Status:               model.SubscriptionStatus(handle.Status),
		CurrentPeriodEnd:     handle.CurrentPeriodEnd,
		Product: model.JSONB{
			"sku":         submission.SKU,
			"description": submission.Description,
			"metal":       submission.Metal,
			"grams":       submission.Grams.String(),
			"value":       submission.PriceNumeric.String(),
			"imagePath":   submission.ImagePath,
		},
	}

	if err := s.subscriptionRepo.Create(ctx, subscription); err != nil {
		s.logger.Error("failed to store subscription",
			zap.String("subscription_id", handle.ID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to store subscription: %w", err)
	}

	s.logger.Info("subscription created",
		zap.String("subscription_id", handle.ID),
		zap.String("sku", sku),
		zap.String("plan", string(plan)))

	return &CreateSubscriptionResult{
		SubscriptionID: handle.ID,
		ClientSecret:   handle.ClientSecret,
	}, nil
}

// RetrievePaymentSecret re-issues the client secret for an incomplete
// subscription so the confirmation workflow can resume.
func (s *SubscriptionService) RetrievePaymentSecret(ctx context.Context, subscriptionID string) (string, error) {
	subscription, err := s.find(ctx, subscriptionID)
	if err != nil {
		return "", err
	}
	if !subscription.RequiresPayment() {
		return "", fmt.Errorf("subscription %s has no pending payment", subscriptionID)
	}
	return s.payments.RetrievePaymentClientSecret(ctx, subscription.StripeSubscriptionID)
}

// Cancel schedules the subscription to end at the period boundary.
func (s *SubscriptionService) Cancel(ctx context.Context, subscriptionID string) error {
	subscription, err := s.find(ctx, subscriptionID)
	if err != nil {
		return err
	}

	if _, err := s.payments.CancelAtPeriodEnd(ctx, subscription.StripeSubscriptionID); err != nil {
		return fmt.Errorf("failed to cancel subscription: %w", err)
	}

	s.logger.Info("subscription cancellation scheduled",
		zap.String("subscription_id", subscription.StripeSubscriptionID))
	return nil
}

func (s *SubscriptionService) ListByEmail(ctx context.Context, email string) ([]*model.Subscription, error) {
	if email == "" {
		return nil, errors.New("email is required")
	}
	return s.subscriptionRepo.ListByEmail(ctx, email)
}

// ActivateFromInvoice flips the subscription active after a paid invoice
// and stamps the payment date and new period end.
func (s *SubscriptionService) ActivateFromInvoice(ctx context.Context, stripeSubscriptionID string, periodEnd time.Time) error {
	subscription, err := s.subscriptionRepo.GetByStripeID(ctx, stripeSubscriptionID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrSubscriptionNotFound) {
			s.logger.Warn("invoice for unknown subscription",
				zap.String("subscription_id", stripeSubscriptionID))
			return nil
		}
		return err
	}

	now := time.Now()
	subscription.Status = model.SubscriptionStatusActive
	subscription.LastPaymentDate = &now
	if !periodEnd.IsZero() {
		subscription.CurrentPeriodEnd = periodEnd
	}

	if err := s.subscriptionRepo.Update(ctx, subscription); err != nil {
		return fmt.Errorf("failed to activate subscription: %w", err)
	}

	s.logger.Info("subscription activated",
		zap.String("subscription_id", stripeSubscriptionID))
	return nil
}

// MarkPastDue records a failed renewal.
func (s *SubscriptionService) MarkPastDue(ctx context.Context, stripeSubscriptionID string) error {
	err := s.subscriptionRepo.UpdateStatus(ctx, stripeSubscriptionID, model.SubscriptionStatusPastDue)
	if errors.Is(err, domainErrors.ErrSubscriptionNotFound) {
		return nil
	}
	return err
}

// SyncStatus mirrors a processor-side status change.
func (s *SubscriptionService) SyncStatus(ctx context.Context, stripeSubscriptionID, status string, periodEnd time.Time) error {
	subscription, err := s.subscriptionRepo.GetByStripeID(ctx, stripeSubscriptionID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrSubscriptionNotFound) {
			return nil
		}
		return err
	}

	subscription.Status = model.SubscriptionStatus(status)
	if !periodEnd.IsZero() {
		subscription.CurrentPeriodEnd = periodEnd
	}
	return s.subscriptionRepo.Update(ctx, subscription)
}

func (s *SubscriptionService) find(ctx context.Context, subscriptionID string) (*model.Subscription, error) {
	subscription, err := s.subscriptionRepo.GetByStripeID(ctx, subscriptionID)
	if err == nil {
		return subscription, nil
	}
	if !errors.Is(err, domainErrors.ErrSubscriptionNotFound) {
		return nil, err
	}
	return s.subscriptionRepo.GetByExternalID(ctx, subscriptionID)
}

func (s *SubscriptionService) planPrice(itemValue decimal.Decimal, plan model.PlanTier) decimal.Decimal {
	rate := decimal.NewFromFloat(s.plans.MonthlyRate)
	if plan == model.PlanYearly {
		rate = decimal.NewFromFloat(s.plans.YearlyRate)
	}
	return itemValue.Mul(rate).Round(2)
}
