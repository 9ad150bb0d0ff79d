package usecase

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/spectra-metals/spectra-server/internal/config"
	domainErrors "github.com/spectra-metals/spectra-server/internal/domain/errors"
	"github.com/spectra-metals/spectra-server/internal/domain/model"
	"github.com/spectra-metals/spectra-server/internal/domain/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockSubscriptionRepository is a mock implementation
type MockSubscriptionRepository struct {
	mock.Mock
}

func (m *MockSubscriptionRepository) Create(ctx context.Context, subscription *model.Subscription) error {
	args := m.Called(ctx, subscription)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) GetByStripeID(ctx context.Context, stripeSubscriptionID string) (*model.Subscription, error) {
	args := m.Called(ctx, stripeSubscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) GetByExternalID(ctx context.Context, externalID string) (*model.Subscription, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) GetByEmailAndSKU(ctx context.Context, email, sku string) (*model.Subscription, error) {
	args := m.Called(ctx, email, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) ListByEmail(ctx context.Context, email string) ([]*model.Subscription, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) UpdateStatus(ctx context.Context, stripeSubscriptionID string, status model.SubscriptionStatus) error {
	args := m.Called(ctx, stripeSubscriptionID, status)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) Update(ctx context.Context, subscription *model.Subscription) error {
	args := m.Called(ctx, subscription)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) List(ctx context.Context) ([]*model.Subscription, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Subscription), args.Error(1)
}

// MockSubmissionRepository is a mock implementation
type MockSubmissionRepository struct {
	mock.Mock
}

func (m *MockSubmissionRepository) Create(ctx context.Context, submission *model.Submission) error {
	args := m.Called(ctx, submission)
	return args.Error(0)
}

func (m *MockSubmissionRepository) GetByID(ctx context.Context, id int64) (*model.Submission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Submission), args.Error(1)
}

func (m *MockSubmissionRepository) GetBySKU(ctx context.Context, sku string) (*model.Submission, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Submission), args.Error(1)
}

func (m *MockSubmissionRepository) SearchSKUs(ctx context.Context, term string, limit int) ([]string, error) {
	args := m.Called(ctx, term, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockSubmissionRepository) List(ctx context.Context) ([]*model.Submission, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Submission), args.Error(1)
}

func testPlans() *config.PlanConfig {
	return &config.PlanConfig{MonthlyRate: 0.02, YearlyRate: 0.20}
}

func insuredItem() *model.Submission {
	return &model.Submission{
		ID:           1,
		SKU:          "GOLD-001",
		Email:        "owner@example.com",
		Metal:        model.MetalGold,
		Grams:        decimal.NewFromFloat(15),
		PriceNumeric: decimal.NewFromFloat(1000),
	}
}

func TestGetClaimPolicy_PricesBothTiers(t *testing.T) {
	subscriptionRepo := new(MockSubscriptionRepository)
	submissionRepo := new(MockSubmissionRepository)
	payments := new(MockPaymentProvider)
	service := NewSubscriptionService(subscriptionRepo, submissionRepo, payments, testPlans(), "prod_1", zap.NewNop())

	submissionRepo.On("GetBySKU", mock.Anything, "GOLD-001").Return(insuredItem(), nil)
	subscriptionRepo.On("GetByEmailAndSKU", mock.Anything, "owner@example.com", "GOLD-001").
		Return(nil, domainErrors.ErrSubscriptionNotFound)

	view, err := service.GetClaimPolicy(context.Background(), "owner@example.com", "GOLD-001")

	require.NoError(t, err)
	assert.Equal(t, "20", view.MonthlyPrice.String())
	assert.Equal(t, "200", view.YearlyPrice.String())
	assert.Nil(t, view.ExistingSubscription)
}

func TestCreateSubscription_NewMonthlyPlan(t *testing.T) {
	subscriptionRepo := new(MockSubscriptionRepository)
	submissionRepo := new(MockSubmissionRepository)
	payments := new(MockPaymentProvider)
	service := NewSubscriptionService(subscriptionRepo, submissionRepo, payments, testPlans(), "prod_1", zap.NewNop())

	submissionRepo.On("GetBySKU", mock.Anything, "GOLD-001").Return(insuredItem(), nil)
	subscriptionRepo.On("GetByEmailAndSKU", mock.Anything, "owner@example.com", "GOLD-001").
		Return(nil, domainErrors.ErrSubscriptionNotFound)
	payments.On("CreateCustomer", mock.Anything, "owner@example.com").Return("cus_1", nil)
	payments.On("CreateSubscription", mock.Anything, mock.MatchedBy(func(req *provider.CreateSubscriptionRequest) bool {
		return req.CustomerID == "cus_1" &&
			req.ProductID == "prod_1" &&
			req.AmountCents == 2000 &&
			req.Interval == "month"
	})).Return(&provider.SubscriptionHandle{
		ID:           "sub_1",
		Status:       "incomplete",
		ClientSecret: "pi_1_secret",
	}, nil)
	subscriptionRepo.On("Create", mock.Anything, mock.MatchedBy(func(sub *model.Subscription) bool {
		return sub.StripeSubscriptionID == "sub_1" &&
			sub.Plan == model.PlanMonthly &&
			sub.Status == model.SubscriptionStatusIncomplete
	})).Return(nil)

	result, err := service.CreateSubscription(context.Background(), "owner@example.com", "GOLD-001", model.PlanMonthly)

	require.NoError(t, err)
	assert.Equal(t, "sub_1", result.SubscriptionID)
	assert.Equal(t, "pi_1_secret", result.ClientSecret)
	subscriptionRepo.AssertExpectations(t)
	payments.AssertExpectations(t)
}

func TestCreateSubscription_ActiveRefused(t *testing.T) {
	subscriptionRepo := new(MockSubscriptionRepository)
	submissionRepo := new(MockSubmissionRepository)
	payments := new(MockPaymentProvider)
	service := NewSubscriptionService(subscriptionRepo, submissionRepo, payments, testPlans(), "prod_1", zap.NewNop())

	submissionRepo.On("GetBySKU", mock.Anything, "GOLD-001").Return(insuredItem(), nil)
	subscriptionRepo.On("GetByEmailAndSKU", mock.Anything, "owner@example.com", "GOLD-001").
		Return(&model.Subscription{
			StripeSubscriptionID: "sub_1",
			Status:               model.SubscriptionStatusActive,
		}, nil)

	_, err := service.CreateSubscription(context.Background(), "owner@example.com", "GOLD-001", model.PlanMonthly)

	assert.Error(t, err)
	payments.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything)
	payments.AssertNotCalled(t, "CreateSubscription", mock.Anything, mock.Anything)
}

func TestCreateSubscription_IncompleteResumed(t *testing.T) {
	subscriptionRepo := new(MockSubscriptionRepository)
	submissionRepo := new(MockSubmissionRepository)
	payments := new(MockPaymentProvider)
	service := NewSubscriptionService(subscriptionRepo, submissionRepo, payments, testPlans(), "prod_1", zap.NewNop())

	submissionRepo.On("GetBySKU", mock.Anything, "GOLD-001").Return(insuredItem(), nil)
	subscriptionRepo.On("GetByEmailAndSKU", mock.Anything, "owner@example.com", "GOLD-001").
		Return(&model.Subscription{
			StripeSubscriptionID: "sub_1",
			Status:               model.SubscriptionStatusIncomplete,
		}, nil)
	payments.On("RetrievePaymentClientSecret", mock.Anything, "sub_1").Return("pi_1_secret", nil)

	result, err := service.CreateSubscription(context.Background(), "owner@example.com", "GOLD-001", model.PlanMonthly)

	require.NoError(t, err)
	assert.Equal(t, "sub_1", result.SubscriptionID)
	assert.Equal(t, "pi_1_secret", result.ClientSecret)
	payments.AssertNotCalled(t, "CreateSubscription", mock.Anything, mock.Anything)
	subscriptionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateSubscription_InvalidPlan(t *testing.T) {
	service := NewSubscriptionService(
		new(MockSubscriptionRepository),
		new(MockSubmissionRepository),
		new(MockPaymentProvider),
		testPlans(),
		"prod_1",
		zap.NewNop(),
	)

	_, err := service.CreateSubscription(context.Background(), "owner@example.com", "GOLD-001", model.PlanTier("weekly"))

	assert.ErrorIs(t, err, domainErrors.ErrInvalidPlan)
}
