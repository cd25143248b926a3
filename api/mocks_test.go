package api

import (
	"context"
	"time"

	"wingo/application"
	"wingo/domain/entities"
	"wingo/domain/interfaces"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type mockGame struct {
	mock.Mock
}

func (m *mockGame) PlaceBet(ctx context.Context, req interfaces.PlaceBetRequest) (*entities.Bet, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Bet), args.Error(1)
}

func (m *mockGame) CurrentRound(ctx context.Context, now time.Time) (*application.RoundSnapshot, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.RoundSnapshot), args.Error(1)
}

func (m *mockGame) History(ctx context.Context, limit int) ([]*entities.Round, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Round), args.Error(1)
}

func (m *mockGame) MyBets(ctx context.Context, accountID int64) ([]*entities.BetWithRound, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.BetWithRound), args.Error(1)
}

func (m *mockGame) RecentResult(ctx context.Context, accountID int64, now time.Time) (*application.RecentResult, error) {
	args := m.Called(ctx, accountID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.RecentResult), args.Error(1)
}

func (m *mockGame) ProcessResult(ctx context.Context, now time.Time) (*application.SettlementResult, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.SettlementResult), args.Error(1)
}

type mockWallet struct {
	mock.Mock
}

func (m *mockWallet) CreateDepositOrder(ctx context.Context, accountID int64, amount decimal.Decimal) (*entities.DepositOrder, error) {
	args := m.Called(ctx, accountID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DepositOrder), args.Error(1)
}

func (m *mockWallet) ConfirmDeposit(ctx context.Context, accountID int64, orderID, paymentID, signature string) (*entities.Account, error) {
	args := m.Called(ctx, accountID, orderID, paymentID, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *mockWallet) RequestWithdrawal(ctx context.Context, req interfaces.WithdrawalRequest) (*entities.Withdrawal, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Withdrawal), args.Error(1)
}

func (m *mockWallet) Withdrawals(ctx context.Context, accountID int64) ([]*entities.Withdrawal, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Withdrawal), args.Error(1)
}

func (m *mockWallet) Transactions(ctx context.Context, accountID int64) ([]*entities.Transaction, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Transaction), args.Error(1)
}

type mockAdmin struct {
	mock.Mock
}

func (m *mockAdmin) withdrawal(args mock.Arguments) (*entities.Withdrawal, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Withdrawal), args.Error(1)
}

func (m *mockAdmin) ListWithdrawals(ctx context.Context, statuses []entities.WithdrawalStatus) ([]*entities.Withdrawal, error) {
	args := m.Called(ctx, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Withdrawal), args.Error(1)
}

func (m *mockAdmin) ProcessWithdrawal(ctx context.Context, id int64) (*entities.Withdrawal, error) {
	return m.withdrawal(m.Called(ctx, id))
}

func (m *mockAdmin) ApproveWithdrawal(ctx context.Context, id int64) (*entities.Withdrawal, error) {
	return m.withdrawal(m.Called(ctx, id))
}

func (m *mockAdmin) RejectWithdrawal(ctx context.Context, id int64, reason string) (*entities.Withdrawal, error) {
	return m.withdrawal(m.Called(ctx, id, reason))
}

func (m *mockAdmin) RefreshPayoutStatus(ctx context.Context, id int64) (*entities.Withdrawal, error) {
	return m.withdrawal(m.Called(ctx, id))
}

func (m *mockAdmin) HandlePayoutUpdate(ctx context.Context, payoutID string, status interfaces.PayoutStatus, reason string) (*entities.Withdrawal, error) {
	return m.withdrawal(m.Called(ctx, payoutID, status, reason))
}

func (m *mockAdmin) Stats(ctx context.Context) (*interfaces.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.Stats), args.Error(1)
}

type mockAccounts struct {
	mock.Mock
}

func (m *mockAccounts) Register(ctx context.Context, username, referralCode string) (*entities.Account, error) {
	args := m.Called(ctx, username, referralCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *mockAccounts) GetAccount(ctx context.Context, id int64) (*entities.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}
