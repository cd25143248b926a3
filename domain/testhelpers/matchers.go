package testhelpers

import (
	"wingo/domain/entities"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// DecimalEq matches a decimal argument by numeric value rather than by representation
func DecimalEq(value string) interface{} {
	want := decimal.RequireFromString(value)
	return mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(want)
	})
}

// DeltaAmount matches a BalanceDelta by its signed balance change
func DeltaAmount(value string) interface{} {
	want := decimal.RequireFromString(value)
	return mock.MatchedBy(func(d entities.BalanceDelta) bool {
		return d.Amount.Equal(want)
	})
}

// TransactionOf matches a ledger entry by type and signed amount
func TransactionOf(transactionType entities.TransactionType, amount string) interface{} {
	want := decimal.RequireFromString(amount)
	return mock.MatchedBy(func(tx *entities.Transaction) bool {
		return tx.Type == transactionType && tx.Amount.Equal(want)
	})
}

// NewAccount builds an account with the given balance for tests
func NewAccount(id int64, balance string) *entities.Account {
	return &entities.Account{
		ID:               id,
		Username:         "player",
		ReferralCode:     "REF0001",
		Balance:          decimal.RequireFromString(balance),
		TotalWinnings:    decimal.Zero,
		TotalDeposits:    decimal.Zero,
		TotalWithdrawals: decimal.Zero,
	}
}
