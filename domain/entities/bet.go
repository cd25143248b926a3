package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// BetStatus represents the settlement state of a bet
type BetStatus string

const (
	BetStatusPending BetStatus = "pending"
	BetStatusWon     BetStatus = "won"
	BetStatusLost    BetStatus = "lost"
)

// PayoutMultiplier is the fixed return on a winning stake
var PayoutMultiplier = decimal.NewFromInt(2)

// MinBetAmount is the smallest accepted stake
var MinBetAmount = decimal.NewFromInt(1)

// Bet is one account's wager on one round
type Bet struct {
	ID             int64           `json:"id"`
	AccountID      int64           `json:"accountId"`
	RoundID        string          `json:"roundId"`
	Color          Color           `json:"color"`
	Amount         decimal.Decimal `json:"amount"`
	Status         BetStatus       `json:"status"`
	WinAmount      decimal.Decimal `json:"winAmount"`
	Payout         decimal.Decimal `json:"payout"`
	IdempotencyKey *string         `json:"-"`
	CreatedAt      time.Time       `json:"createdAt"`
	SettledAt      *time.Time      `json:"settledAt,omitempty"`
}

// IsPending returns true if the bet has not been settled
func (b *Bet) IsPending() bool {
	return b.Status == BetStatusPending
}

// Resolve computes the bet outcome against the winning color
func (b *Bet) Resolve(winner Color) BetOutcome {
	if b.Color == winner {
		win := b.Amount.Mul(PayoutMultiplier)
		return BetOutcome{Status: BetStatusWon, WinAmount: win, Payout: win}
	}
	return BetOutcome{Status: BetStatusLost, WinAmount: decimal.Zero, Payout: decimal.Zero}
}

// BetOutcome is the settled result applied to a pending bet
type BetOutcome struct {
	Status    BetStatus
	WinAmount decimal.Decimal
	Payout    decimal.Decimal
}

// BetWithRound pairs a bet with the outcome of its round for history views
type BetWithRound struct {
	Bet
	WinningColor  *Color `json:"winningColor"`
	WinningNumber *int   `json:"winningNumber"`
}
