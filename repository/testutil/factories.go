package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"wingo/database"
	"wingo/domain/entities"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// CreateTestAccount builds an unsaved account with a referral code derived from the username
func CreateTestAccount(username string) *entities.Account {
	return &entities.Account{
		Username:     username,
		ReferralCode: fmt.Sprintf("T%07X", hashCode(username)),
		Balance:      decimal.Zero,
	}
}

// SeedAccount inserts an account funded through a completed deposit entry, so the ledger sums to the balance
func SeedAccount(t *testing.T, db *database.DB, username string, balance decimal.Decimal) *entities.Account {
	t.Helper()
	ctx := context.Background()
	account := CreateTestAccount(username)

	err := db.QueryRow(ctx, `
		INSERT INTO accounts (username, referral_code, balance, total_deposits)
		VALUES ($1, $2, $3::NUMERIC, $3::NUMERIC)
		RETURNING id, created_at, updated_at`,
		account.Username, account.ReferralCode, balance.String(),
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	require.NoError(t, err)

	if balance.IsPositive() {
		_, err = db.Exec(ctx, `
			INSERT INTO transactions (account_id, type, amount, status, description)
			VALUES ($1, 'deposit', $2::NUMERIC, 'completed', 'Seed deposit')`,
			account.ID, balance.String())
		require.NoError(t, err)
	}

	account.Balance = balance
	account.TotalDeposits = balance
	return account
}

// SeedLiveRound inserts a live round ending duration from now
func SeedLiveRound(t *testing.T, db *database.DB, duration time.Duration) *entities.Round {
	t.Helper()
	round, err := entities.NewRound(time.Now().UTC(), duration)
	require.NoError(t, err)

	_, err = db.Exec(context.Background(),
		`INSERT INTO rounds (id, start_time, end_time, status) VALUES ($1, $2, $3, 'live')`,
		round.ID, round.StartTime, round.EndTime)
	require.NoError(t, err)
	return round
}

// SeedExpiredRound inserts a live round whose end time has already passed
func SeedExpiredRound(t *testing.T, db *database.DB) *entities.Round {
	t.Helper()
	start := time.Now().UTC().Add(-2 * time.Minute)
	round, err := entities.NewRound(start, time.Minute)
	require.NoError(t, err)

	_, err = db.Exec(context.Background(),
		`INSERT INTO rounds (id, start_time, end_time, status) VALUES ($1, $2, $3, 'live')`,
		round.ID, round.StartTime, round.EndTime)
	require.NoError(t, err)
	return round
}

// LedgerSum returns the signed sum of an account's ledger entries
func LedgerSum(t *testing.T, db *database.DB, accountID int64) decimal.Decimal {
	t.Helper()
	var text string
	err := db.QueryRow(context.Background(),
		`SELECT COALESCE(SUM(amount), 0)::TEXT FROM transactions WHERE account_id = $1`, accountID).Scan(&text)
	require.NoError(t, err)
	sum, err := decimal.NewFromString(text)
	require.NoError(t, err)
	return sum
}

// Balance returns the stored balance of an account
func Balance(t *testing.T, db *database.DB, accountID int64) decimal.Decimal {
	t.Helper()
	var text string
	err := db.QueryRow(context.Background(), `SELECT balance::TEXT FROM accounts WHERE id = $1`, accountID).Scan(&text)
	require.NoError(t, err)
	balance, err := decimal.NewFromString(text)
	require.NoError(t, err)
	return balance
}

func hashCode(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h & 0xFFFFFFF
}
