package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Account is a player wallet. Balance only moves through atomic deltas in the ledger store.
type Account struct {
	ID               int64           `json:"id"`
	Username         string          `json:"username"`
	ReferralCode     string          `json:"referralCode"`
	ReferredBy       *int64          `json:"referredBy,omitempty"`
	Balance          decimal.Decimal `json:"balance"`
	TotalWinnings    decimal.Decimal `json:"totalWinnings"`
	TotalDeposits    decimal.Decimal `json:"totalDeposits"`
	TotalWithdrawals decimal.Decimal `json:"totalWithdrawals"`
	IsAdmin          bool            `json:"isAdmin"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// CanAfford returns true if the balance covers the amount
func (a *Account) CanAfford(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

// BalanceDelta describes a signed change to an account balance and its running totals
type BalanceDelta struct {
	Amount           decimal.Decimal
	TotalWinnings    decimal.Decimal
	TotalDeposits    decimal.Decimal
	TotalWithdrawals decimal.Decimal
}

// MoneyPlaces is the number of fractional digits every money column stores
const MoneyPlaces = 2

// CheckMoneyPrecision rejects amounts the ledger cannot store exactly. Postgres would round
// each NUMERIC(14,2) column on its own, letting the balance drift from the transaction log.
func CheckMoneyPrecision(amount decimal.Decimal) error {
	if !amount.Equal(amount.Round(MoneyPlaces)) {
		return fmt.Errorf("%w: at most %d decimal places allowed, got %s", ErrInvalidAmount, MoneyPlaces, amount)
	}
	return nil
}
