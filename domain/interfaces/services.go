package interfaces

import (
	"context"
	"time"

	"wingo/domain/entities"

	"github.com/shopspring/decimal"
)

// Outcome is the resolved result of a round
type Outcome struct {
	WinningColor    entities.Color
	WinningNumber   int
	TotalStaked     decimal.Decimal
	AdminCommission decimal.Decimal
}

// OutcomeResolver computes the winning outcome of a round from its exposure
type OutcomeResolver interface {
	Resolve(exposure entities.Exposure) (*Outcome, error)
}

// PlaceBetRequest carries a bet placement
type PlaceBetRequest struct {
	AccountID      int64
	Color          entities.Color
	Amount         decimal.Decimal
	IdempotencyKey string
	Now            time.Time
}

// BetService defines the interface for bet placement
type BetService interface {
	// PlaceBet debits the stake, records the bet and updates the round exposure as one unit
	PlaceBet(ctx context.Context, req PlaceBetRequest) (*entities.Bet, error)
}

// RoundClosure describes the result of closing a round
type RoundClosure struct {
	Round     *entities.Round
	Outcome   *Outcome
	NextRound *entities.Round
	// Settled is false when the round was not eligible or another settler already closed it
	Settled bool
}

// BetSettlement describes the result of settling one bet
type BetSettlement struct {
	Bet        *entities.Bet
	Outcome    entities.BetOutcome
	NewBalance *decimal.Decimal
	// Applied is false when the bet had already been settled
	Applied bool
}

// SettlementService defines the interface for round closure and bet settlement
type SettlementService interface {
	// EnsureLiveRound returns the live round, creating one if none is open
	EnsureLiveRound(ctx context.Context, now time.Time) (*entities.Round, bool, error)

	// CloseRound resolves and completes a live round and opens the next one.
	// Without force the round must have reached its end time.
	CloseRound(ctx context.Context, roundID string, now time.Time, force bool) (*RoundClosure, error)

	// SettleBet applies a completed round's outcome to one pending bet
	SettleBet(ctx context.Context, bet *entities.Bet, winner entities.Color, now time.Time) (*BetSettlement, error)
}

// CommissionService defines the interface for withdrawal commission reconciliation
type CommissionService interface {
	// Reconcile unlocks commission on every hold whose wagering requirement is met and returns how many unlocked
	Reconcile(ctx context.Context) (int, error)
}

// WithdrawalRequest carries a withdrawal request
type WithdrawalRequest struct {
	AccountID      int64
	Amount         decimal.Decimal
	Destination    entities.WithdrawalDestination
	IdempotencyKey string
}

// WithdrawalService defines the interface for withdrawal holds
type WithdrawalService interface {
	// Request debits the amount and creates a pending withdrawal hold
	Request(ctx context.Context, req WithdrawalRequest) (*entities.Withdrawal, error)

	// MarkProcessing moves a pending withdrawal to processing
	MarkProcessing(ctx context.Context, id int64) (*entities.Withdrawal, error)

	// AttachPayout records the provider payout for a withdrawal
	AttachPayout(ctx context.Context, id int64, payoutID string) error

	// Approve completes a pending or processing withdrawal
	Approve(ctx context.Context, id int64) (*entities.Withdrawal, error)

	// Reject rejects a pending or processing withdrawal and refunds it exactly once
	Reject(ctx context.Context, id int64, reason string) (*entities.Withdrawal, error)

	// ApplyPayoutStatus maps a provider payout status onto the withdrawal
	ApplyPayoutStatus(ctx context.Context, w *entities.Withdrawal, status PayoutStatus, reason string) (*entities.Withdrawal, error)
}

// DepositService defines the interface for deposits
type DepositService interface {
	// ValidateAmount checks the deposit limits
	ValidateAmount(amount decimal.Decimal) error

	// CreateOrder stores a pending deposit order for a provider intent
	CreateOrder(ctx context.Context, accountID int64, amount decimal.Decimal, intentID string) (*entities.DepositOrder, error)

	// Confirm verifies the payment signature and credits the order exactly once
	Confirm(ctx context.Context, accountID int64, orderID, paymentID, signature string) (*entities.Account, error)
}

// AccountService defines the interface for account registration and lookup
type AccountService interface {
	// Register creates an account and credits the referrer, if any
	Register(ctx context.Context, username, referralCode string) (*entities.Account, error)

	// GetAccount returns an account or ErrAccountNotFound
	GetAccount(ctx context.Context, id int64) (*entities.Account, error)
}

// Stats is the admin dashboard aggregate
type Stats struct {
	TotalUsers       int64           `json:"totalUsers"`
	TotalDeposits    decimal.Decimal `json:"totalDeposits"`
	TotalWithdrawals decimal.Decimal `json:"totalWithdrawals"`
	TotalGames       int64           `json:"totalGames"`
	TotalBets        int64           `json:"totalBets"`
	TotalCommission  decimal.Decimal `json:"totalCommission"`
}

// StatsService defines the interface for admin statistics
type StatsService interface {
	GetStats(ctx context.Context) (*Stats, error)
}
