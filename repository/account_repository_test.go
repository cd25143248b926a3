package repository

import (
	"context"
	"sync"
	"testing"

	"wingo/domain/entities"
	"wingo/repository/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepository_GetByID(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	t.Run("account not found", func(t *testing.T) {
		account, err := repo.GetByID(ctx, 999999)
		require.NoError(t, err)
		assert.Nil(t, account)
	})

	t.Run("account found", func(t *testing.T) {
		seeded := testutil.SeedAccount(t, testDB.DB, "lookup_user", decimal.NewFromInt(250))

		account, err := repo.GetByID(ctx, seeded.ID)
		require.NoError(t, err)
		require.NotNil(t, account)
		assert.Equal(t, "lookup_user", account.Username)
		assert.Equal(t, "250.00", account.Balance.StringFixed(2))

		byCode, err := repo.GetByReferralCode(ctx, seeded.ReferralCode)
		require.NoError(t, err)
		require.NotNil(t, byCode)
		assert.Equal(t, seeded.ID, byCode.ID)
	})
}

func TestAccountRepository_Create(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	t.Run("successful creation", func(t *testing.T) {
		account := testutil.CreateTestAccount("new_player")
		require.NoError(t, repo.Create(ctx, account))

		assert.NotZero(t, account.ID)
		assert.True(t, account.Balance.IsZero())
		assert.False(t, account.CreatedAt.IsZero())
		assert.Nil(t, account.ReferredBy)
	})

	t.Run("referred account", func(t *testing.T) {
		referrer := testutil.SeedAccount(t, testDB.DB, "referrer", decimal.Zero)
		account := testutil.CreateTestAccount("referred")
		account.ReferredBy = &referrer.ID

		require.NoError(t, repo.Create(ctx, account))
		require.NotNil(t, account.ReferredBy)
		assert.Equal(t, referrer.ID, *account.ReferredBy)
	})

	t.Run("duplicate username", func(t *testing.T) {
		first := testutil.CreateTestAccount("taken_name")
		require.NoError(t, repo.Create(ctx, first))

		second := testutil.CreateTestAccount("taken_name")
		second.ReferralCode = "ZZZZ9999"
		err := repo.Create(ctx, second)
		assert.ErrorIs(t, err, entities.ErrUsernameTaken)
	})
}

func TestAccountRepository_ApplyDelta(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	t.Run("credit updates running totals", func(t *testing.T) {
		seeded := testutil.SeedAccount(t, testDB.DB, "winner", decimal.NewFromInt(100))

		account, err := repo.ApplyDelta(ctx, seeded.ID, entities.BalanceDelta{
			Amount:        decimal.NewFromInt(200),
			TotalWinnings: decimal.NewFromInt(200),
		})
		require.NoError(t, err)
		assert.Equal(t, "300.00", account.Balance.StringFixed(2))
		assert.Equal(t, "200.00", account.TotalWinnings.StringFixed(2))
		assert.Equal(t, "100.00", account.TotalDeposits.StringFixed(2))
	})

	t.Run("overdraw is rejected without partial apply", func(t *testing.T) {
		seeded := testutil.SeedAccount(t, testDB.DB, "short", decimal.NewFromInt(50))

		_, err := repo.ApplyDelta(ctx, seeded.ID, entities.BalanceDelta{Amount: decimal.NewFromInt(-51)})
		assert.ErrorIs(t, err, entities.ErrInsufficientFunds)
		assert.Equal(t, "50.00", testutil.Balance(t, testDB.DB, seeded.ID).StringFixed(2))
	})

	t.Run("unknown account", func(t *testing.T) {
		_, err := repo.ApplyDelta(ctx, 424242, entities.BalanceDelta{Amount: decimal.NewFromInt(1)})
		assert.ErrorIs(t, err, entities.ErrAccountNotFound)
	})

	t.Run("concurrent debits never overdraw", func(t *testing.T) {
		seeded := testutil.SeedAccount(t, testDB.DB, "racer", decimal.NewFromInt(100))

		var wg sync.WaitGroup
		var mu sync.Mutex
		succeeded, rejected := 0, 0
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.ApplyDelta(ctx, seeded.ID, entities.BalanceDelta{Amount: decimal.NewFromInt(-20)})
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					succeeded++
				} else if assert.ErrorIs(t, err, entities.ErrInsufficientFunds) {
					rejected++
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 5, succeeded)
		assert.Equal(t, 5, rejected)
		assert.True(t, testutil.Balance(t, testDB.DB, seeded.ID).IsZero())
	})
}
