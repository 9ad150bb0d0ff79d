package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	domainErrors "github.com/spectra-metals/spectra-server/internal/domain/errors"
	"github.com/spectra-metals/spectra-server/internal/domain/model"
	"github.com/spectra-metals/spectra-server/internal/domain/repository"
	"go.uber.org/zap"
)

// CreateSubmissionInput carries the public form fields. The image has
// already been stored when this is called; ImagePath may be empty.
type CreateSubmissionInput struct {
	Name        string
	Email       string
	SKU         string
	Description string
	Metal       string
	Grams       decimal.Decimal
	Action      model.TransactionAction
	ImagePath   string
}

// SKUData is the prior-submission lookup result. When the SKU belongs to
// a different email the submission is withheld until the caller verifies
// ownership by OTP.
type SKUData struct {
	Submission           *model.Submission `json:"submission,omitempty"`
	RequiresVerification bool              `json:"requiresVerification"`
}

type SubmissionService struct {
	submissionRepo repository.SubmissionRepository
	source         PriceSource
	logger         *zap.Logger
}

func NewSubmissionService(submissionRepo repository.SubmissionRepository, source PriceSource, logger *zap.Logger) *SubmissionService {
	return &SubmissionService{
		submissionRepo: submissionRepo,
		source:         source,
		logger:         logger,
	}
}

// CreateSubmission prices the item server-side (grams times the current
// price per gram) and stores it.
func (s *SubmissionService) CreateSubmission(ctx context.Context, input *CreateSubmissionInput) (*model.Submission, error) {
	if !model.KnownMetal(input.Metal) {
		return nil, fmt.Errorf("unknown metal %q", input.Metal)
	}
	if input.Grams.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("grams must be positive")
	}

	perGram, ok := s.source.Snapshot()[input.Metal]
	if !ok || perGram.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("no current price for %s", input.Metal)
	}

	price := input.Grams.Mul(perGram).Round(2)
	submission := &model.Submission{
		ExternalID:      uuid.New().String(),
		Name:            input.Name,
		Email:           input.Email,
		SKU:             input.SKU,
		Description:     input.Description,
		Metal:           input.Metal,
		Grams:           input.Grams,
		CalculatedPrice: "$" + price.StringFixed(2),
		PriceNumeric:    price,
		Action:          input.Action,
		ImagePath:       input.ImagePath,
	}

	if err := s.submissionRepo.Create(ctx, submission); err != nil {
		s.logger.Error("failed to create submission",
			zap.String("sku", input.SKU),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}

	s.logger.Info("submission created",
		zap.Int64("id", submission.ID),
		zap.String("sku", submission.SKU),
		zap.String("action", string(submission.Action)))

	return submission, nil
}

func (s *SubmissionService) GetSubmission(ctx context.Context, id int64) (*model.Submission, error) {
	return s.submissionRepo.GetByID(ctx, id)
}

// SearchSKUs returns autocomplete suggestions for a partial SKU.
func (s *SubmissionService) SearchSKUs(ctx context.Context, term string) ([]string, error) {
	if term == "" {
		return []string{}, nil
	}
	return s.submissionRepo.SearchSKUs(ctx, term, 10)
}

// GetSKUData looks up a prior submission by SKU. Ownership matters: when
// the stored email differs from the requester's, only a verification
// demand comes back.
func (s *SubmissionService) GetSKUData(ctx context.Context, sku, email string) (*SKUData, error) {
	submission, err := s.submissionRepo.GetBySKU(ctx, sku)
	if err != nil {
		if errors.Is(err, domainErrors.ErrSubmissionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to look up sku: %w", err)
	}

	if email == "" || submission.Email != email {
		return &SKUData{RequiresVerification: true}, nil
	}

	return &SKUData{Submission: submission}, nil
}
