package events

import (
	"time"

	"wingo/domain/entities"

	"github.com/shopspring/decimal"
)

// EventType identifies a domain event
type EventType string

const (
	EventTypeRoundCreated            EventType = "round_created"
	EventTypeRoundSettled            EventType = "round_settled"
	EventTypeBetPlaced               EventType = "bet_placed"
	EventTypeBalanceChange           EventType = "balance_change"
	EventTypeWithdrawalStatusChanged EventType = "withdrawal_status_changed"
	EventTypeDepositCompleted        EventType = "deposit_completed"
)

// Event is implemented by every domain event
type Event interface {
	Type() EventType
}

// RoundCreatedEvent is emitted when a new live round opens
type RoundCreatedEvent struct {
	RoundID   string    `json:"round_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

func (e RoundCreatedEvent) Type() EventType { return EventTypeRoundCreated }

// RoundSettledEvent is emitted once per round when it transitions to completed
type RoundSettledEvent struct {
	RoundID         string          `json:"round_id"`
	WinningColor    entities.Color  `json:"winning_color"`
	WinningNumber   int             `json:"winning_number"`
	TotalStaked     decimal.Decimal `json:"total_staked"`
	AdminCommission decimal.Decimal `json:"admin_commission"`
	NextRoundID     string          `json:"next_round_id,omitempty"`
}

func (e RoundSettledEvent) Type() EventType { return EventTypeRoundSettled }

// BetPlacedEvent is emitted after a bet commits
type BetPlacedEvent struct {
	BetID     int64           `json:"bet_id"`
	AccountID int64           `json:"account_id"`
	RoundID   string          `json:"round_id"`
	Color     entities.Color  `json:"color"`
	Amount    decimal.Decimal `json:"amount"`
}

func (e BetPlacedEvent) Type() EventType { return EventTypeBetPlaced }

// BalanceChangeEvent is emitted for every ledger entry
type BalanceChangeEvent struct {
	AccountID       int64                    `json:"account_id"`
	NewBalance      decimal.Decimal          `json:"new_balance"`
	ChangeAmount    decimal.Decimal          `json:"change_amount"`
	TransactionType entities.TransactionType `json:"transaction_type"`
	TransactionID   int64                    `json:"transaction_id"`
}

func (e BalanceChangeEvent) Type() EventType { return EventTypeBalanceChange }

// WithdrawalStatusChangedEvent is emitted when a withdrawal moves between statuses
type WithdrawalStatusChangedEvent struct {
	WithdrawalID int64                     `json:"withdrawal_id"`
	AccountID    int64                     `json:"account_id"`
	OldStatus    entities.WithdrawalStatus `json:"old_status"`
	NewStatus    entities.WithdrawalStatus `json:"new_status"`
	Refunded     bool                      `json:"refunded"`
	Reason       string                    `json:"reason,omitempty"`
}

func (e WithdrawalStatusChangedEvent) Type() EventType { return EventTypeWithdrawalStatusChanged }

// DepositCompletedEvent is emitted when a deposit order is confirmed
type DepositCompletedEvent struct {
	OrderID   string          `json:"order_id"`
	AccountID int64           `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
}

func (e DepositCompletedEvent) Type() EventType { return EventTypeDepositCompleted }
