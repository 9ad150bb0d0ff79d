package database

import (
	"github.com/spectra-metals/spectra-server/internal/adapter/repository"
	domainRepo "github.com/spectra-metals/spectra-server/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Submission   domainRepo.SubmissionRepository
	Order        domainRepo.OrderRepository
	Subscription domainRepo.SubscriptionRepository
	Claim        domainRepo.ClaimRepository
	Price        domainRepo.PriceRepository
	Admin        domainRepo.AdminRepository
	OTP          domainRepo.OTPRepository
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		Submission:   repository.NewSubmissionRepository(db, logger),
		Order:        repository.NewOrderRepository(db, logger),
		Subscription: repository.NewSubscriptionRepository(db, logger),
		Claim:        repository.NewClaimRepository(db, logger),
		Price:        repository.NewPriceRepository(db, logger),
		Admin:        repository.NewAdminRepository(db, logger),
		OTP:          repository.NewOTPRepository(db, logger),
	}
}
