package testhelpers

import (
	"context"

	"wingo/domain/entities"
	"wingo/domain/interfaces"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockPaymentProvider is a mock implementation of PaymentProvider
type MockPaymentProvider struct {
	mock.Mock
}

func (m *MockPaymentProvider) CreateDepositIntent(ctx context.Context, amount decimal.Decimal, receipt string) (string, error) {
	args := m.Called(ctx, amount, receipt)
	return args.String(0), args.Error(1)
}

func (m *MockPaymentProvider) VerifyDepositSignature(orderID, paymentID, signature string) bool {
	args := m.Called(orderID, paymentID, signature)
	return args.Bool(0)
}

// MockPayoutProvider is a mock implementation of PayoutProvider
type MockPayoutProvider struct {
	mock.Mock
}

func (m *MockPayoutProvider) InitiatePayout(ctx context.Context, req interfaces.PayoutRequest) (*interfaces.PayoutResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.PayoutResult), args.Error(1)
}

func (m *MockPayoutProvider) GetPayoutStatus(ctx context.Context, payoutID string) (interfaces.PayoutStatus, error) {
	args := m.Called(ctx, payoutID)
	return args.Get(0).(interfaces.PayoutStatus), args.Error(1)
}

// MockOutcomeResolver is a mock implementation of OutcomeResolver
type MockOutcomeResolver struct {
	mock.Mock
}

func (m *MockOutcomeResolver) Resolve(exposure entities.Exposure) (*interfaces.Outcome, error) {
	args := m.Called(exposure)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.Outcome), args.Error(1)
}
