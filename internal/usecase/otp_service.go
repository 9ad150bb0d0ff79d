package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	domainErrors "github.com/spectra-metals/spectra-server/internal/domain/errors"
	"github.com/spectra-metals/spectra-server/internal/domain/model"
	"github.com/spectra-metals/spectra-server/internal/domain/repository"
	"go.uber.org/zap"
)

const otpTTL = 10 * time.Minute

// OTPMailer delivers verification codes.
type OTPMailer interface {
	SendOTP(to, code string) error
}

type OTPService struct {
	otpRepo        repository.OTPRepository
	submissionRepo repository.SubmissionRepository
	mailer         OTPMailer
	logger         *zap.Logger
}

func NewOTPService(otpRepo repository.OTPRepository, submissionRepo repository.SubmissionRepository, mailer OTPMailer, logger *zap.Logger) *OTPService {
	return &OTPService{
		otpRepo:        otpRepo,
		submissionRepo: submissionRepo,
		mailer:         mailer,
		logger:         logger,
	}
}

// SendOTP mails a fresh code to the email on record for the SKU. The code
// goes to the stored address, never to the requester's claimed one.
func (s *OTPService) SendOTP(ctx context.Context, email, sku string) error {
	submission, err := s.submissionRepo.GetBySKU(ctx, sku)
	if err != nil {
		return err
	}

	code, err := gonanoid.Generate("0123456789", 6)
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	otp := &model.EmailOTP{
		Email:     email,
		SKU:       sku,
		Code:      code,
		ExpiresAt: time.Now().Add(otpTTL),
	}
	if err := s.otpRepo.Create(ctx, otp); err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}

	if err := s.mailer.SendOTP(submission.Email, code); err != nil {
		return fmt.Errorf("failed to send code: %w", err)
	}

	s.logger.Info("verification code sent", zap.String("sku", sku))
	return nil
}

// VerifyOTP checks the latest unconsumed code for the email/SKU pair and
// returns the submission on success.
func (s *OTPService) VerifyOTP(ctx context.Context, email, sku, code string) (*model.Submission, error) {
	otp, err := s.otpRepo.GetLatest(ctx, email, sku)
	if err != nil {
		if errors.Is(err, domainErrors.ErrOTPInvalid) {
			return nil, domainErrors.ErrOTPInvalid
		}
		return nil, fmt.Errorf("failed to look up code: %w", err)
	}

	if otp.Expired(time.Now()) {
		return nil, domainErrors.ErrOTPExpired
	}
	if otp.Code != code {
		return nil, domainErrors.ErrOTPInvalid
	}

	if err := s.otpRepo.MarkConsumed(ctx, otp.ID); err != nil {
		return nil, fmt.Errorf("failed to consume code: %w", err)
	}

	return s.submissionRepo.GetBySKU(ctx, sku)
}
