package services

import (
	"context"
	"testing"

	"wingo/domain/entities"
	"wingo/domain/testhelpers"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAccountService_Register(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	bonus := decimal.NewFromInt(25)

	referrer := testhelpers.NewAccount(9, "0")
	referrer.ReferralCode = "ABCD1234"

	tests := []struct {
		name       string
		username   string
		code       string
		setupMocks func(a *testhelpers.MockAccountRepository, tx *testhelpers.MockTransactionRepository, p *testhelpers.MockEventPublisher)
		wantErr    error
		check      func(t *testing.T, account *entities.Account)
	}{
		{
			name:     "registers without referral",
			username: "lucky_7",
			setupMocks: func(a *testhelpers.MockAccountRepository, tx *testhelpers.MockTransactionRepository, p *testhelpers.MockEventPublisher) {
				a.On("GetByUsername", ctx, "lucky_7").Return(nil, nil)
				a.On("GetByReferralCode", ctx, mock.AnythingOfType("string")).Return(nil, nil)
				a.On("Create", ctx, mock.AnythingOfType("*entities.Account")).Return(nil).Run(func(args mock.Arguments) {
					args.Get(1).(*entities.Account).ID = 1
				})
			},
			check: func(t *testing.T, account *entities.Account) {
				assert.Len(t, account.ReferralCode, 8)
				assert.Nil(t, account.ReferredBy)
				assert.True(t, account.Balance.IsZero())
			},
		},
		{
			name:     "credits referrer",
			username: "newbie",
			code:     "abcd1234",
			setupMocks: func(a *testhelpers.MockAccountRepository, tx *testhelpers.MockTransactionRepository, p *testhelpers.MockEventPublisher) {
				a.On("GetByUsername", ctx, "newbie").Return(nil, nil)
				a.On("GetByReferralCode", ctx, "ABCD1234").Return(referrer, nil)
				a.On("GetByReferralCode", ctx, mock.AnythingOfType("string")).Return(nil, nil)
				a.On("Create", ctx, mock.AnythingOfType("*entities.Account")).Return(nil).Run(func(args mock.Arguments) {
					args.Get(1).(*entities.Account).ID = 2
				})
				a.On("ApplyDelta", ctx, int64(9), testhelpers.DeltaAmount("25")).Return(testhelpers.NewAccount(9, "25"), nil).Once()
				tx.On("Create", ctx, mock.MatchedBy(func(entry *entities.Transaction) bool {
					return entry.Type == entities.TransactionTypeReferral && entry.AccountID == 9 &&
						entry.Amount.Equal(bonus) && entry.Reference == "account:2"
				})).Return(nil).Once()
				p.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return(nil)
			},
			check: func(t *testing.T, account *entities.Account) {
				require.NotNil(t, account.ReferredBy)
				assert.Equal(t, int64(9), *account.ReferredBy)
			},
		},
		{
			name:     "ignores unknown referral code",
			username: "newbie",
			code:     "ZZZZ0000",
			setupMocks: func(a *testhelpers.MockAccountRepository, tx *testhelpers.MockTransactionRepository, p *testhelpers.MockEventPublisher) {
				a.On("GetByUsername", ctx, "newbie").Return(nil, nil)
				a.On("GetByReferralCode", ctx, mock.AnythingOfType("string")).Return(nil, nil)
				a.On("Create", ctx, mock.AnythingOfType("*entities.Account")).Return(nil)
			},
			check: func(t *testing.T, account *entities.Account) {
				assert.Nil(t, account.ReferredBy)
			},
		},
		{
			name:     "username taken",
			username: "lucky_7",
			setupMocks: func(a *testhelpers.MockAccountRepository, tx *testhelpers.MockTransactionRepository, p *testhelpers.MockEventPublisher) {
				a.On("GetByUsername", ctx, "lucky_7").Return(testhelpers.NewAccount(1, "0"), nil)
			},
			wantErr: entities.ErrUsernameTaken,
		},
		{
			name:       "invalid username",
			username:   "a b",
			setupMocks: func(a *testhelpers.MockAccountRepository, tx *testhelpers.MockTransactionRepository, p *testhelpers.MockEventPublisher) {},
			wantErr:    entities.ErrInvalidUsername,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			accountRepo := new(testhelpers.MockAccountRepository)
			transactionRepo := new(testhelpers.MockTransactionRepository)
			publisher := new(testhelpers.MockEventPublisher)
			tt.setupMocks(accountRepo, transactionRepo, publisher)

			svc := NewAccountService(accountRepo, transactionRepo, publisher, bonus)
			account, err := svc.Register(ctx, tt.username, tt.code)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, account)

			accountRepo.AssertExpectations(t)
			transactionRepo.AssertExpectations(t)
			publisher.AssertExpectations(t)
		})
	}
}

func TestAccountService_GetAccount(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	accountRepo := new(testhelpers.MockAccountRepository)
	accountRepo.On("GetByID", ctx, int64(1)).Return(testhelpers.NewAccount(1, "10"), nil)
	accountRepo.On("GetByID", ctx, int64(2)).Return(nil, nil)

	svc := NewAccountService(accountRepo, new(testhelpers.MockTransactionRepository), new(testhelpers.MockEventPublisher), decimal.NewFromInt(25))

	account, err := svc.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), account.ID)

	_, err = svc.GetAccount(ctx, 2)
	assert.ErrorIs(t, err, entities.ErrAccountNotFound)
}
