package services

import (
	"fmt"
	"time"

	"wingo/domain/entities"

	"github.com/shopspring/decimal"
)

// BetAdmission is everything the betting window needs to decide on a bet
type BetAdmission struct {
	Round          *entities.Round // nil when no round is live
	Account        *entities.Account
	HasExistingBet bool
	Color          entities.Color
	Amount         decimal.Decimal
	Now            time.Time
}

// BettingWindow decides whether a new bet may be accepted. It has no side effects.
type BettingWindow struct {
	closeBeforeEnd time.Duration
}

// NewBettingWindow creates a betting window that closes closeBeforeEnd before a round ends
func NewBettingWindow(closeBeforeEnd time.Duration) *BettingWindow {
	return &BettingWindow{closeBeforeEnd: closeBeforeEnd}
}

// CloseBeforeEnd returns how long before the round end betting closes
func (w *BettingWindow) CloseBeforeEnd() time.Duration {
	return w.closeBeforeEnd
}

// Admit returns nil if the bet may be placed, or the reason it is rejected
func (w *BettingWindow) Admit(a BetAdmission) error {
	if !a.Color.IsValid() {
		return fmt.Errorf("%w: %q", entities.ErrInvalidColor, a.Color)
	}
	if a.Amount.LessThan(entities.MinBetAmount) {
		return fmt.Errorf("%w: minimum bet is %s", entities.ErrInvalidAmount, entities.MinBetAmount)
	}
	if err := entities.CheckMoneyPrecision(a.Amount); err != nil {
		return err
	}
	if a.Round == nil || !a.Round.IsLive() {
		return entities.ErrNoLiveRound
	}
	if !a.Round.AcceptsBets(a.Now, w.closeBeforeEnd) {
		return entities.ErrBettingClosed
	}
	if a.HasExistingBet {
		return entities.ErrDuplicateBet
	}
	if a.Account == nil || !a.Account.CanAfford(a.Amount) {
		return entities.ErrInsufficientFunds
	}
	return nil
}
