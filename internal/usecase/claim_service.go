package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	domainErrors "github.com/spectra-metals/spectra-server/internal/domain/errors"
	"github.com/spectra-metals/spectra-server/internal/domain/model"
	"github.com/spectra-metals/spectra-server/internal/domain/repository"
	"go.uber.org/zap"
)

// CreateClaimInput carries a filed claim. Images have already been stored;
// zero image paths is allowed.
type CreateClaimInput struct {
	SubscriptionID     string
	ProductDescription string
	ClaimType          model.ClaimType
	Notes              string
	ImagePaths         []string
}

type ClaimService struct {
	claimRepo        repository.ClaimRepository
	subscriptionRepo repository.SubscriptionRepository
	logger           *zap.Logger
}

func NewClaimService(claimRepo repository.ClaimRepository, subscriptionRepo repository.SubscriptionRepository, logger *zap.Logger) *ClaimService {
	return &ClaimService{
		claimRepo:        claimRepo,
		subscriptionRepo: subscriptionRepo,
		logger:           logger,
	}
}

// CreateClaim files a claim against a subscription. The subscription must
// exist and be active; the claim inherits its email and SKU.
func (s *ClaimService) CreateClaim(ctx context.Context, input *CreateClaimInput) (*model.Claim, error) {
	if input.ProductDescription == "" {
		return nil, errors.New("product description is required")
	}
	if !input.ClaimType.Valid() {
		return nil, fmt.Errorf("unknown claim type %q", input.ClaimType)
	}

	subscription, err := s.findSubscription(ctx, input.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if subscription.Status != model.SubscriptionStatusActive {
		return nil, domainErrors.ErrNoActiveSubscription
	}

	claim := &model.Claim{
		ExternalID:         uuid.New().String(),
		SubscriptionID:     subscription.ExternalID,
		Email:              subscription.Email,
		SKU:                subscription.SKU,
		ProductDescription: input.ProductDescription,
		ClaimType:          input.ClaimType,
		Notes:              input.Notes,
		ImagePaths:         model.StringList(input.ImagePaths),
		Status:             model.ClaimStatusSubmitted,
	}

	if err := s.claimRepo.Create(ctx, claim); err != nil {
		s.logger.Error("failed to create claim",
			zap.String("subscription_id", input.SubscriptionID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create claim: %w", err)
	}

	s.logger.Info("claim filed",
		zap.String("claim_id", claim.ExternalID),
		zap.String("sku", claim.SKU),
		zap.String("type", string(claim.ClaimType)))

	return claim, nil
}

func (s *ClaimService) ListByEmail(ctx context.Context, email string) ([]*model.Claim, error) {
	if email == "" {
		return nil, errors.New("email is required")
	}
	return s.claimRepo.ListByEmail(ctx, email)
}

func (s *ClaimService) findSubscription(ctx context.Context, id string) (*model.Subscription, error) {
	subscription, err := s.subscriptionRepo.GetByExternalID(ctx, id)
	if err == nil {
		return subscription, nil
	}
	if !errors.Is(err, domainErrors.ErrSubscriptionNotFound) {
		return nil, err
	}
	return s.subscriptionRepo.GetByStripeID(ctx, id)
}
