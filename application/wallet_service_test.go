package application_test

import (
	"context"
	"testing"

	"wingo/domain/entities"
	"wingo/domain/events"
	"wingo/infrastructure"
	"wingo/repository/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletService_DepositFlow(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	player := testutil.SeedAccount(t, env.db, "depositor", decimal.Zero)

	order, err := env.wallet.CreateDepositOrder(ctx, player.ID, decimal.NewFromInt(500))
	require.NoError(t, err)
	assert.Equal(t, entities.DepositOrderStatusPending, order.Status)

	signature := infrastructure.NewHMACSigner(env.cfg.PaymentKeySecret).Sign(infrastructure.DepositSignaturePayload(order.ID, "pay_1"))

	t.Run("bad signature is rejected", func(t *testing.T) {
		_, err := env.wallet.ConfirmDeposit(ctx, player.ID, order.ID, "pay_1", "deadbeef")
		assert.ErrorIs(t, err, entities.ErrInvalidSignature)
	})

	t.Run("another account cannot confirm the order", func(t *testing.T) {
		other := testutil.SeedAccount(t, env.db, "order_thief", decimal.Zero)
		_, err := env.wallet.ConfirmDeposit(ctx, other.ID, order.ID, "pay_1", signature)
		assert.ErrorIs(t, err, entities.ErrOrderNotFound)
	})

	t.Run("confirmation credits exactly once", func(t *testing.T) {
		account, err := env.wallet.ConfirmDeposit(ctx, player.ID, order.ID, "pay_1", signature)
		require.NoError(t, err)
		assert.Equal(t, "500.00", account.Balance.StringFixed(2))

		replay, err := env.wallet.ConfirmDeposit(ctx, player.ID, order.ID, "pay_1", signature)
		require.NoError(t, err)
		assert.Equal(t, "500.00", replay.Balance.StringFixed(2))
		assert.Equal(t, "500.00", replay.TotalDeposits.StringFixed(2))
		assert.Len(t, env.sink.ofType(events.EventTypeDepositCompleted), 1)
	})

	env.requireConserved(t, player)
}

func TestWalletService_DepositLimits(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	tests := []struct {
		name   string
		amount int64
		valid  bool
	}{
		{name: "below minimum", amount: 69, valid: false},
		{name: "minimum", amount: 70, valid: true},
		{name: "maximum", amount: 50000, valid: true},
		{name: "above maximum", amount: 50001, valid: false},
	}

	player := testutil.SeedAccount(t, env.db, "limit_depositor", decimal.Zero)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.wallet.CreateDepositOrder(context.Background(), player.ID, decimal.NewFromInt(tt.amount))
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, entities.ErrInvalidAmount)
			}
		})
	}
}

func TestWalletService_RequestWithdrawal(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	player := testutil.SeedAccount(t, env.db, "withdrawer", decimal.NewFromInt(500))

	t.Run("amount outside limits", func(t *testing.T) {
		_, err := env.wallet.RequestWithdrawal(ctx, withdrawalRequest(player.ID, 100, ""))
		assert.ErrorIs(t, err, entities.ErrInvalidAmount)
	})

	t.Run("insufficient balance", func(t *testing.T) {
		_, err := env.wallet.RequestWithdrawal(ctx, withdrawalRequest(player.ID, 600, ""))
		assert.ErrorIs(t, err, entities.ErrInsufficientFunds)
	})

	t.Run("invalid destination", func(t *testing.T) {
		req := withdrawalRequest(player.ID, 200, "")
		req.Destination = entities.UPIDestination{UPIID: "not-a-vpa"}
		_, err := env.wallet.RequestWithdrawal(ctx, req)
		assert.ErrorIs(t, err, entities.ErrInvalidDestination)
	})

	t.Run("idempotent request holds once", func(t *testing.T) {
		first, err := env.wallet.RequestWithdrawal(ctx, withdrawalRequest(player.ID, 200, "wd-key"))
		require.NoError(t, err)
		second, err := env.wallet.RequestWithdrawal(ctx, withdrawalRequest(player.ID, 200, "wd-key"))
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, entities.WithdrawalStatusPending, first.Status)
		assert.Equal(t, "100.00", first.MinBetAmount.StringFixed(2))
		assert.Equal(t, "300.00", testutil.Balance(t, env.db, player.ID).StringFixed(2))
	})

	withdrawals, err := env.wallet.Withdrawals(ctx, player.ID)
	require.NoError(t, err)
	require.Len(t, withdrawals, 1)
	assert.Equal(t, entities.WithdrawalMethodUPI, withdrawals[0].Destination.Method())

	transactions, err := env.wallet.Transactions(ctx, player.ID)
	require.NoError(t, err)
	require.Len(t, transactions, 2)
	assert.Equal(t, entities.TransactionTypeWithdrawal, transactions[0].Type)
	assert.Equal(t, entities.TransactionStatusPending, transactions[0].Status)

	env.requireConserved(t, player)
}
