package usecase

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	domainErrors "github.com/spectra-metals/spectra-server/internal/domain/errors"
	"github.com/spectra-metals/spectra-server/internal/domain/model"
	"github.com/spectra-metals/spectra-server/internal/domain/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockOrderRepository is a mock implementation
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *model.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByExternalID(ctx context.Context, externalID string) (*model.Order, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetPaidBySubmissionID(ctx context.Context, submissionID int64) (*model.Order, error) {
	args := m.Called(ctx, submissionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) MarkPaid(ctx context.Context, orderNumber, paymentIntentID, receiptURL string) error {
	args := m.Called(ctx, orderNumber, paymentIntentID, receiptURL)
	return args.Error(0)
}

func (m *MockOrderRepository) MarkPaymentFailed(ctx context.Context, orderNumber string) error {
	args := m.Called(ctx, orderNumber)
	return args.Error(0)
}

func (m *MockOrderRepository) SetPaymentIntent(ctx context.Context, orderNumber, paymentIntentID string) error {
	args := m.Called(ctx, orderNumber, paymentIntentID)
	return args.Error(0)
}

func (m *MockOrderRepository) List(ctx context.Context) ([]*model.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Order), args.Error(1)
}

// MockPaymentProvider is a mock implementation
type MockPaymentProvider struct {
	mock.Mock
}

func (m *MockPaymentProvider) CreateCustomer(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

func (m *MockPaymentProvider) CreateAndConfirmIntent(ctx context.Context, req *provider.CreateIntentRequest) (*provider.IntentResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.IntentResult), args.Error(1)
}

func (m *MockPaymentProvider) ConfirmIntent(ctx context.Context, intentID string) (*provider.IntentResult, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.IntentResult), args.Error(1)
}

func (m *MockPaymentProvider) CreateSubscription(ctx context.Context, req *provider.CreateSubscriptionRequest) (*provider.SubscriptionHandle, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.SubscriptionHandle), args.Error(1)
}

func (m *MockPaymentProvider) RetrievePaymentClientSecret(ctx context.Context, subscriptionID string) (string, error) {
	args := m.Called(ctx, subscriptionID)
	return args.String(0), args.Error(1)
}

func (m *MockPaymentProvider) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) (*provider.SubscriptionHandle, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.SubscriptionHandle), args.Error(1)
}

func (m *MockPaymentProvider) GetProviderName() string {
	return "mock"
}

func pendingOrder() *model.Order {
	return &model.Order{
		ID:            1,
		OrderNumber:   "ORD-TEST123456",
		Email:         "buyer@example.com",
		Metal:         model.MetalGold,
		Grams:         decimal.NewFromFloat(10),
		PriceNumeric:  decimal.NewFromFloat(654.00),
		Status:        model.OrderStatusPending,
		PaymentStatus: model.PaymentStatusPending,
	}
}

func TestProcessPayment_Success(t *testing.T) {
	orderRepo := new(MockOrderRepository)
	payments := new(MockPaymentProvider)
	service := NewPaymentService(orderRepo, payments, zap.NewNop())

	order := pendingOrder()
	orderRepo.On("GetByOrderNumber", mock.Anything, order.OrderNumber).Return(order, nil)
	payments.On("CreateAndConfirmIntent", mock.Anything, mock.MatchedBy(func(req *provider.CreateIntentRequest) bool {
		return req.OrderNumber == order.OrderNumber && req.AmountCents == 65400
	})).Return(&provider.IntentResult{
		ID:         "pi_1",
		Status:     provider.IntentStatusSucceeded,
		ReceiptURL: "https://receipts.example/pi_1",
	}, nil)
	orderRepo.On("MarkPaid", mock.Anything, order.OrderNumber, "pi_1", "https://receipts.example/pi_1").Return(nil)

	result, err := service.ProcessPayment(context.Background(), &ProcessPaymentRequest{
		PaymentMethodID: "pm_card",
		OrderNumber:     order.OrderNumber,
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.False(t, result.RequiresAction)
	orderRepo.AssertExpectations(t)
	payments.AssertExpectations(t)
}

func TestProcessPayment_RequiresAction(t *testing.T) {
	orderRepo := new(MockOrderRepository)
	payments := new(MockPaymentProvider)
	service := NewPaymentService(orderRepo, payments, zap.NewNop())

	order := pendingOrder()
	orderRepo.On("GetByOrderNumber", mock.Anything, order.OrderNumber).Return(order, nil)
	payments.On("CreateAndConfirmIntent", mock.Anything, mock.Anything).Return(&provider.IntentResult{
		ID:           "pi_1",
		Status:       provider.IntentStatusRequiresAction,
		ClientSecret: "pi_1_secret",
	}, nil)
	orderRepo.On("SetPaymentIntent", mock.Anything, order.OrderNumber, "pi_1").Return(nil)

	result, err := service.ProcessPayment(context.Background(), &ProcessPaymentRequest{
		PaymentMethodID: "pm_card",
		OrderNumber:     order.OrderNumber,
	})

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.True(t, result.RequiresAction)
	assert.Equal(t, "pi_1_secret", result.ClientSecret)
	orderRepo.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessPayment_SecondPassConfirmsSameIntent(t *testing.T) {
	orderRepo := new(MockOrderRepository)
	payments := new(MockPaymentProvider)
	service := NewPaymentService(orderRepo, payments, zap.NewNop())

	order := pendingOrder()
	orderRepo.On("GetByOrderNumber", mock.Anything, order.OrderNumber).Return(order, nil)
	payments.On("ConfirmIntent", mock.Anything, "pi_1").Return(&provider.IntentResult{
		ID:     "pi_1",
		Status: provider.IntentStatusSucceeded,
	}, nil)
	orderRepo.On("MarkPaid", mock.Anything, order.OrderNumber, "pi_1", "").Return(nil)

	result, err := service.ProcessPayment(context.Background(), &ProcessPaymentRequest{
		PaymentIntentID: "pi_1",
		OrderNumber:     order.OrderNumber,
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	payments.AssertNotCalled(t, "CreateAndConfirmIntent", mock.Anything, mock.Anything)
}

func TestProcessPayment_Declined(t *testing.T) {
	orderRepo := new(MockOrderRepository)
	payments := new(MockPaymentProvider)
	service := NewPaymentService(orderRepo, payments, zap.NewNop())

	order := pendingOrder()
	orderRepo.On("GetByOrderNumber", mock.Anything, order.OrderNumber).Return(order, nil)
	payments.On("CreateAndConfirmIntent", mock.Anything, mock.Anything).Return(nil, &provider.DeclinedError{
		Code:    "card_declined",
		Message: "Your card was declined.",
	})
	orderRepo.On("MarkPaymentFailed", mock.Anything, order.OrderNumber).Return(nil)

	result, err := service.ProcessPayment(context.Background(), &ProcessPaymentRequest{
		PaymentMethodID: "pm_card",
		OrderNumber:     order.OrderNumber,
	})

	// A decline is a business outcome, not a transport error.
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Your card was declined.", result.DeclineMessage)
	orderRepo.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessPayment_AlreadyPaidShortCircuits(t *testing.T) {
	orderRepo := new(MockOrderRepository)
	payments := new(MockPaymentProvider)
	service := NewPaymentService(orderRepo, payments, zap.NewNop())

	order := pendingOrder()
	order.PaymentStatus = model.PaymentStatusPaid
	orderRepo.On("GetByOrderNumber", mock.Anything, order.OrderNumber).Return(order, nil)

	result, err := service.ProcessPayment(context.Background(), &ProcessPaymentRequest{
		PaymentMethodID: "pm_card",
		OrderNumber:     order.OrderNumber,
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, result.AlreadyPaid)
	payments.AssertNotCalled(t, "CreateAndConfirmIntent", mock.Anything, mock.Anything)
	payments.AssertNotCalled(t, "ConfirmIntent", mock.Anything, mock.Anything)
}

func TestProcessPayment_UnknownOrder(t *testing.T) {
	orderRepo := new(MockOrderRepository)
	payments := new(MockPaymentProvider)
	service := NewPaymentService(orderRepo, payments, zap.NewNop())

	orderRepo.On("GetByOrderNumber", mock.Anything, "ORD-MISSING").Return(nil, domainErrors.ErrOrderNotFound)

	result, err := service.ProcessPayment(context.Background(), &ProcessPaymentRequest{
		PaymentMethodID: "pm_card",
		OrderNumber:     "ORD-MISSING",
	})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domainErrors.ErrOrderNotFound)
}

func TestProcessPayment_MissingInputs(t *testing.T) {
	service := NewPaymentService(new(MockOrderRepository), new(MockPaymentProvider), zap.NewNop())

	_, err := service.ProcessPayment(context.Background(), &ProcessPaymentRequest{OrderNumber: "ORD-1"})
	assert.Error(t, err)

	_, err = service.ProcessPayment(context.Background(), &ProcessPaymentRequest{PaymentMethodID: "pm_card"})
	assert.Error(t, err)
}
