package services

import (
	"context"
	"testing"

	"wingo/domain/entities"
	"wingo/domain/interfaces"
	"wingo/domain/testhelpers"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type withdrawalMocks struct {
	accountRepo     *testhelpers.MockAccountRepository
	transactionRepo *testhelpers.MockTransactionRepository
	withdrawalRepo  *testhelpers.MockWithdrawalRepository
	publisher       *testhelpers.MockEventPublisher
}

func newWithdrawalMocks() *withdrawalMocks {
	return &withdrawalMocks{
		accountRepo:     new(testhelpers.MockAccountRepository),
		transactionRepo: new(testhelpers.MockTransactionRepository),
		withdrawalRepo:  new(testhelpers.MockWithdrawalRepository),
		publisher:       new(testhelpers.MockEventPublisher),
	}
}

func (m *withdrawalMocks) service() interfaces.WithdrawalService {
	return NewWithdrawalService(m.accountRepo, m.transactionRepo, m.withdrawalRepo, m.publisher, AmountRange{
		Min: decimal.NewFromInt(110),
		Max: decimal.NewFromInt(50000),
	})
}

func (m *withdrawalMocks) assertExpectations(t *testing.T) {
	m.accountRepo.AssertExpectations(t)
	m.transactionRepo.AssertExpectations(t)
	m.withdrawalRepo.AssertExpectations(t)
	m.publisher.AssertExpectations(t)
}

// expectRefund registers the calls a single refund makes
func (m *withdrawalMocks) expectRefund(ctx context.Context, w *entities.Withdrawal) {
	m.transactionRepo.On("UpdateStatus", ctx, w.TransactionID, entities.TransactionStatusCancelled).Return(nil).Once()
	m.accountRepo.On("ApplyDelta", ctx, w.AccountID, testhelpers.DeltaAmount(w.Amount.String())).
		Return(testhelpers.NewAccount(w.AccountID, "1500"), nil).Once()
	m.transactionRepo.On("Create", ctx, mock.MatchedBy(func(tx *entities.Transaction) bool {
		return tx.Type == entities.TransactionTypeWithdrawal && tx.Amount.Equal(w.Amount) &&
			tx.Status == entities.TransactionStatusCompleted && tx.Reference == "withdrawal:42"
	})).Return(nil).Once()
	m.publisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return(nil).Once()
}

func pendingWithdrawal() *entities.Withdrawal {
	return &entities.Withdrawal{
		ID:               42,
		AccountID:        1,
		TransactionID:    900,
		Amount:           decimal.NewFromInt(1500),
		Destination:      entities.UPIDestination{UPIID: "player@okbank"},
		Status:           entities.WithdrawalStatusPending,
		MinBetAmount:     decimal.NewFromInt(150),
		CommissionEarned: decimal.Zero,
		CommissionStatus: entities.CommissionStatusPending,
	}
}

func TestWithdrawalService_Request(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	upi := entities.UPIDestination{UPIID: "player@okbank"}

	t.Run("debits and creates hold", func(t *testing.T) {
		t.Parallel()
		m := newWithdrawalMocks()

		m.withdrawalRepo.On("GetByIdempotencyKey", ctx, int64(1), "wd-1").Return(nil, nil)
		m.accountRepo.On("ApplyDelta", ctx, int64(1), testhelpers.DeltaAmount("-1500")).Return(testhelpers.NewAccount(1, "500"), nil)
		m.transactionRepo.On("Create", ctx, mock.MatchedBy(func(tx *entities.Transaction) bool {
			return tx.Type == entities.TransactionTypeWithdrawal && tx.Status == entities.TransactionStatusPending &&
				tx.Amount.Equal(decimal.NewFromInt(-1500))
		})).Return(nil).Run(func(args mock.Arguments) {
			args.Get(1).(*entities.Transaction).ID = 900
		})
		m.withdrawalRepo.On("Create", ctx, mock.MatchedBy(func(w *entities.Withdrawal) bool {
			return w.TransactionID == 900 && w.MinBetAmount.Equal(decimal.NewFromInt(150)) &&
				w.Status == entities.WithdrawalStatusPending && w.CommissionStatus == entities.CommissionStatusPending
		})).Return(nil)
		m.publisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return(nil)
		m.publisher.On("Publish", mock.AnythingOfType("events.WithdrawalStatusChangedEvent")).Return(nil)

		w, err := m.service().Request(ctx, interfaces.WithdrawalRequest{
			AccountID: 1, Amount: decimal.NewFromInt(1500), Destination: upi, IdempotencyKey: "wd-1",
		})
		require.NoError(t, err)
		assert.Equal(t, entities.WithdrawalStatusPending, w.Status)
		m.assertExpectations(t)
	})

	t.Run("replays idempotent request", func(t *testing.T) {
		t.Parallel()
		m := newWithdrawalMocks()
		existing := pendingWithdrawal()
		m.withdrawalRepo.On("GetByIdempotencyKey", ctx, int64(1), "wd-1").Return(existing, nil)

		w, err := m.service().Request(ctx, interfaces.WithdrawalRequest{
			AccountID: 1, Amount: decimal.NewFromInt(1500), Destination: upi, IdempotencyKey: "wd-1",
		})
		require.NoError(t, err)
		assert.Same(t, existing, w)
		m.accountRepo.AssertNotCalled(t, "ApplyDelta", mock.Anything, mock.Anything, mock.Anything)
	})

	validation := []struct {
		name        string
		amount      string
		destination entities.WithdrawalDestination
		wantErr     error
	}{
		{"below minimum", "109", upi, entities.ErrInvalidAmount},
		{"above maximum", "50001", upi, entities.ErrInvalidAmount},
		{"sub-cent amount", "110.005", upi, entities.ErrInvalidAmount},
		{"missing destination", "500", nil, entities.ErrInvalidDestination},
		{"invalid upi", "500", entities.UPIDestination{UPIID: "nope"}, entities.ErrInvalidDestination},
	}
	for _, tt := range validation {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := newWithdrawalMocks()
			_, err := m.service().Request(ctx, interfaces.WithdrawalRequest{
				AccountID: 1, Amount: decimal.RequireFromString(tt.amount), Destination: tt.destination,
			})
			assert.ErrorIs(t, err, tt.wantErr)
			m.assertExpectations(t)
		})
	}

	t.Run("insufficient funds leaves no hold", func(t *testing.T) {
		t.Parallel()
		m := newWithdrawalMocks()
		m.accountRepo.On("ApplyDelta", ctx, int64(1), testhelpers.DeltaAmount("-1500")).Return(nil, entities.ErrInsufficientFunds)

		_, err := m.service().Request(ctx, interfaces.WithdrawalRequest{AccountID: 1, Amount: decimal.NewFromInt(1500), Destination: upi})
		assert.ErrorIs(t, err, entities.ErrInsufficientFunds)
		m.withdrawalRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestWithdrawalService_RejectRefundsExactlyOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newWithdrawalMocks()
	w := pendingWithdrawal()

	m.withdrawalRepo.On("GetByID", ctx, int64(42)).Return(w, nil)
	m.withdrawalRepo.On("TransitionStatus", ctx, int64(42), adminActionable, entities.WithdrawalStatusRejected,
		mock.AnythingOfType("*string"), mock.AnythingOfType("time.Time")).Return(true, nil).Once()
	m.publisher.On("Publish", mock.AnythingOfType("events.WithdrawalStatusChangedEvent")).Return(nil).Once()
	m.expectRefund(ctx, w)

	svc := m.service()
	rejected, err := svc.Reject(ctx, 42, "invalid bank details")
	require.NoError(t, err)
	assert.Equal(t, entities.WithdrawalStatusRejected, rejected.Status)
	require.NotNil(t, rejected.FailureReason)
	assert.Equal(t, "invalid bank details", *rejected.FailureReason)

	// The second rejection loses the conditional update and must not refund
	m.withdrawalRepo.On("TransitionStatus", ctx, int64(42), adminActionable, entities.WithdrawalStatusRejected,
		mock.AnythingOfType("*string"), mock.AnythingOfType("time.Time")).Return(false, nil).Once()

	_, err = svc.Reject(ctx, 42, "again")
	assert.ErrorIs(t, err, entities.ErrWithdrawalFinalized)

	m.assertExpectations(t)
	m.accountRepo.AssertNumberOfCalls(t, "ApplyDelta", 1)
}

func TestWithdrawalService_Approve(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newWithdrawalMocks()
	w := pendingWithdrawal()

	m.withdrawalRepo.On("GetByID", ctx, int64(42)).Return(w, nil)
	m.withdrawalRepo.On("TransitionStatus", ctx, int64(42), adminActionable, entities.WithdrawalStatusCompleted,
		(*string)(nil), mock.AnythingOfType("time.Time")).Return(true, nil)
	m.transactionRepo.On("UpdateStatus", ctx, int64(900), entities.TransactionStatusCompleted).Return(nil)
	m.accountRepo.On("ApplyDelta", ctx, int64(1), mock.MatchedBy(func(d entities.BalanceDelta) bool {
		return d.Amount.IsZero() && d.TotalWithdrawals.Equal(decimal.NewFromInt(1500))
	})).Return(testhelpers.NewAccount(1, "0"), nil)
	m.publisher.On("Publish", mock.AnythingOfType("events.WithdrawalStatusChangedEvent")).Return(nil)

	approved, err := m.service().Approve(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, entities.WithdrawalStatusCompleted, approved.Status)
	assert.NotNil(t, approved.ProcessedAt)
	m.assertExpectations(t)
}

func TestWithdrawalService_NotFound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newWithdrawalMocks()
	m.withdrawalRepo.On("GetByID", ctx, int64(404)).Return(nil, nil)

	_, err := m.service().Approve(ctx, 404)
	assert.ErrorIs(t, err, entities.ErrWithdrawalNotFound)
}

func TestWithdrawalService_MarkProcessing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("pending becomes processing", func(t *testing.T) {
		t.Parallel()
		m := newWithdrawalMocks()
		m.withdrawalRepo.On("GetByID", ctx, int64(42)).Return(pendingWithdrawal(), nil)
		m.withdrawalRepo.On("TransitionStatus", ctx, int64(42), []entities.WithdrawalStatus{entities.WithdrawalStatusPending},
			entities.WithdrawalStatusProcessing, (*string)(nil), mock.AnythingOfType("time.Time")).Return(true, nil)
		m.publisher.On("Publish", mock.AnythingOfType("events.WithdrawalStatusChangedEvent")).Return(nil)

		w, err := m.service().MarkProcessing(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, entities.WithdrawalStatusProcessing, w.Status)
		assert.Nil(t, w.ProcessedAt)
		m.assertExpectations(t)
	})

	t.Run("final withdrawal is refused", func(t *testing.T) {
		t.Parallel()
		m := newWithdrawalMocks()
		w := pendingWithdrawal()
		w.Status = entities.WithdrawalStatusRejected
		m.withdrawalRepo.On("GetByID", ctx, int64(42)).Return(w, nil)
		m.withdrawalRepo.On("TransitionStatus", ctx, int64(42), mock.Anything, entities.WithdrawalStatusProcessing,
			mock.Anything, mock.Anything).Return(false, nil)

		_, err := m.service().MarkProcessing(ctx, 42)
		assert.ErrorIs(t, err, entities.ErrWithdrawalFinalized)
	})
}

func TestWithdrawalService_ApplyPayoutStatus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	tests := []struct {
		name       string
		status     entities.WithdrawalStatus
		payout     interfaces.PayoutStatus
		setupMocks func(m *withdrawalMocks, w *entities.Withdrawal)
		wantStatus entities.WithdrawalStatus
	}{
		{
			name:   "processed completes withdrawal",
			status: entities.WithdrawalStatusProcessing,
			payout: interfaces.PayoutStatusProcessed,
			setupMocks: func(m *withdrawalMocks, w *entities.Withdrawal) {
				m.withdrawalRepo.On("TransitionStatus", ctx, int64(42), payoutSettleable, entities.WithdrawalStatusCompleted,
					(*string)(nil), mock.AnythingOfType("time.Time")).Return(true, nil)
				m.transactionRepo.On("UpdateStatus", ctx, int64(900), entities.TransactionStatusCompleted).Return(nil)
				m.accountRepo.On("ApplyDelta", ctx, int64(1), mock.AnythingOfType("entities.BalanceDelta")).Return(testhelpers.NewAccount(1, "0"), nil)
				m.publisher.On("Publish", mock.AnythingOfType("events.WithdrawalStatusChangedEvent")).Return(nil)
			},
			wantStatus: entities.WithdrawalStatusCompleted,
		},
		{
			name:   "reversed refunds and rejects",
			status: entities.WithdrawalStatusProcessing,
			payout: interfaces.PayoutStatusReversed,
			setupMocks: func(m *withdrawalMocks, w *entities.Withdrawal) {
				m.withdrawalRepo.On("TransitionStatus", ctx, int64(42), payoutSettleable, entities.WithdrawalStatusRejected,
					mock.MatchedBy(func(r *string) bool { return r != nil && *r == "beneficiary bank offline" }),
					mock.AnythingOfType("time.Time")).Return(true, nil)
				m.publisher.On("Publish", mock.AnythingOfType("events.WithdrawalStatusChangedEvent")).Return(nil)
				m.expectRefund(ctx, w)
			},
			wantStatus: entities.WithdrawalStatusRejected,
		},
		{
			name:   "queued moves pending to processing",
			status: entities.WithdrawalStatusPending,
			payout: interfaces.PayoutStatusQueued,
			setupMocks: func(m *withdrawalMocks, w *entities.Withdrawal) {
				m.withdrawalRepo.On("TransitionStatus", ctx, int64(42), []entities.WithdrawalStatus{entities.WithdrawalStatusPending},
					entities.WithdrawalStatusProcessing, (*string)(nil), mock.AnythingOfType("time.Time")).Return(true, nil)
				m.publisher.On("Publish", mock.AnythingOfType("events.WithdrawalStatusChangedEvent")).Return(nil)
			},
			wantStatus: entities.WithdrawalStatusProcessing,
		},
		{
			name:       "processing update on processing withdrawal is a no-op",
			status:     entities.WithdrawalStatusProcessing,
			payout:     interfaces.PayoutStatusProcessing,
			setupMocks: func(m *withdrawalMocks, w *entities.Withdrawal) {},
			wantStatus: entities.WithdrawalStatusProcessing,
		},
		{
			name:       "final withdrawal ignores failure",
			status:     entities.WithdrawalStatusCompleted,
			payout:     interfaces.PayoutStatusFailed,
			setupMocks: func(m *withdrawalMocks, w *entities.Withdrawal) {},
			wantStatus: entities.WithdrawalStatusCompleted,
		},
		{
			name:       "unknown status is ignored",
			status:     entities.WithdrawalStatusProcessing,
			payout:     interfaces.PayoutStatus("on_hold"),
			setupMocks: func(m *withdrawalMocks, w *entities.Withdrawal) {},
			wantStatus: entities.WithdrawalStatusProcessing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := newWithdrawalMocks()
			w := pendingWithdrawal()
			w.Status = tt.status
			tt.setupMocks(m, w)

			reason := ""
			if tt.payout.IsFailure() {
				reason = "beneficiary bank offline"
			}
			updated, err := m.service().ApplyPayoutStatus(ctx, w, tt.payout, reason)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, updated.Status)
			m.assertExpectations(t)
		})
	}
}
