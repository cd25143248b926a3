package interfaces

import (
	"context"
	"time"

	"wingo/domain/entities"
	"wingo/domain/events"

	"github.com/shopspring/decimal"
)

// AccountRepository defines the interface for account data access.
// Getters return (nil, nil) when the account does not exist.
type AccountRepository interface {
	// GetByID retrieves an account by its ID
	GetByID(ctx context.Context, id int64) (*entities.Account, error)

	// GetByUsername retrieves an account by its username
	GetByUsername(ctx context.Context, username string) (*entities.Account, error)

	// GetByReferralCode retrieves the account that owns a referral code
	GetByReferralCode(ctx context.Context, code string) (*entities.Account, error)

	// Create inserts a new account and fills its ID and timestamps
	Create(ctx context.Context, account *entities.Account) error

	// ApplyDelta atomically applies a signed balance change and running-total increments.
	// It fails with ErrInsufficientFunds if the balance would go negative and never partially applies.
	ApplyDelta(ctx context.Context, accountID int64, delta entities.BalanceDelta) (*entities.Account, error)

	// Count returns the number of non-admin accounts
	Count(ctx context.Context) (int64, error)
}

// TransactionRepository defines the interface for the append-only ledger
type TransactionRepository interface {
	// Create appends a ledger entry and fills its ID and timestamp
	Create(ctx context.Context, transaction *entities.Transaction) error

	// GetByID retrieves a ledger entry
	GetByID(ctx context.Context, id int64) (*entities.Transaction, error)

	// UpdateStatus relabels a ledger entry; the amount is never changed
	UpdateStatus(ctx context.Context, id int64, status entities.TransactionStatus) error

	// GetByAccount returns the most recent ledger entries for an account
	GetByAccount(ctx context.Context, accountID int64, limit int) ([]*entities.Transaction, error)

	// SumByAccount returns the signed sum of all ledger entries for an account
	SumByAccount(ctx context.Context, accountID int64) (decimal.Decimal, error)

	// SumCompletedByType returns the sum of completed entries of a type
	SumCompletedByType(ctx context.Context, transactionType entities.TransactionType) (decimal.Decimal, error)
}

// RoundRepository defines the interface for round data access
type RoundRepository interface {
	// Create inserts a new open round. It returns false without error if another open round already exists.
	Create(ctx context.Context, round *entities.Round) (bool, error)

	// GetByID retrieves a round by its ID
	GetByID(ctx context.Context, id string) (*entities.Round, error)

	// GetByIDForUpdate retrieves a round and locks its row for the rest of the transaction
	GetByIDForUpdate(ctx context.Context, id string) (*entities.Round, error)

	// GetLive returns the round currently in live status
	GetLive(ctx context.Context) (*entities.Round, error)

	// IncrementExposure atomically adds one bet of amount on color. Fails with ErrNoLiveRound if the round is not live.
	IncrementExposure(ctx context.Context, roundID string, color entities.Color, amount decimal.Decimal) error

	// Complete transitions a live round to completed with its outcome.
	// It returns false if the round was not live, meaning another settler won the race.
	Complete(ctx context.Context, roundID string, color entities.Color, number int, commission decimal.Decimal, completedAt time.Time) (bool, error)

	// GetCompleted returns completed rounds, newest first
	GetCompleted(ctx context.Context, limit int) ([]*entities.Round, error)

	// GetLastCompleted returns the most recently completed round
	GetLastCompleted(ctx context.Context) (*entities.Round, error)

	// GetCompletedWithPendingBets returns completed rounds that still have unsettled bets
	GetCompletedWithPendingBets(ctx context.Context, limit int) ([]*entities.Round, error)

	// CountCompleted returns the number of completed rounds
	CountCompleted(ctx context.Context) (int64, error)

	// SumAdminCommission returns the total admin commission recorded on completed rounds
	SumAdminCommission(ctx context.Context) (decimal.Decimal, error)
}

// BetRepository defines the interface for bet data access
type BetRepository interface {
	// Create inserts a pending bet. Fails with ErrDuplicateBet if the account already bet on the round.
	Create(ctx context.Context, bet *entities.Bet) error

	// GetByAccountAndRound returns the account's bet on a round
	GetByAccountAndRound(ctx context.Context, accountID int64, roundID string) (*entities.Bet, error)

	// GetByIdempotencyKey returns the bet placed by the account with the key
	GetByIdempotencyKey(ctx context.Context, accountID int64, key string) (*entities.Bet, error)

	// GetPendingByRound returns all unsettled bets of a round
	GetPendingByRound(ctx context.Context, roundID string) ([]*entities.Bet, error)

	// Settle transitions a pending bet to its outcome. It returns false if the bet was already settled.
	Settle(ctx context.Context, betID int64, outcome entities.BetOutcome, settledAt time.Time) (bool, error)

	// GetByAccount returns the account's bets with their round outcome, newest first
	GetByAccount(ctx context.Context, accountID int64, limit int) ([]*entities.BetWithRound, error)

	// SumWageredSince returns the total stake placed by the account at or after since
	SumWageredSince(ctx context.Context, accountID int64, since time.Time) (decimal.Decimal, error)

	// Count returns the total number of bets
	Count(ctx context.Context) (int64, error)
}

// WithdrawalRepository defines the interface for withdrawal hold data access
type WithdrawalRepository interface {
	// Create inserts a withdrawal hold and fills its ID and timestamp
	Create(ctx context.Context, withdrawal *entities.Withdrawal) error

	// GetByID retrieves a withdrawal by its ID
	GetByID(ctx context.Context, id int64) (*entities.Withdrawal, error)

	// GetByPayoutID retrieves the withdrawal paid out under a provider payout ID
	GetByPayoutID(ctx context.Context, payoutID string) (*entities.Withdrawal, error)

	// GetByIdempotencyKey returns the withdrawal requested by the account with the key
	GetByIdempotencyKey(ctx context.Context, accountID int64, key string) (*entities.Withdrawal, error)

	// GetByAccount returns the account's withdrawals, newest first
	GetByAccount(ctx context.Context, accountID int64, limit int) ([]*entities.Withdrawal, error)

	// List returns withdrawals in any of the statuses, newest first. An empty list means all statuses.
	List(ctx context.Context, statuses []entities.WithdrawalStatus, limit int) ([]*entities.Withdrawal, error)

	// TransitionStatus moves a withdrawal to status if its current status is one of from.
	// It returns false if the withdrawal was in another status.
	TransitionStatus(ctx context.Context, id int64, from []entities.WithdrawalStatus, to entities.WithdrawalStatus, failureReason *string, at time.Time) (bool, error)

	// SetPayoutID records the provider payout reference
	SetPayoutID(ctx context.Context, id int64, payoutID string) error

	// GetCommissionPending returns holds whose commission can still unlock
	GetCommissionPending(ctx context.Context) ([]*entities.Withdrawal, error)

	// CompleteCommission marks the commission earned. It returns false if it was already completed.
	CompleteCommission(ctx context.Context, id int64, earned decimal.Decimal) (bool, error)

	// SumCompleted returns the total amount of completed withdrawals
	SumCompleted(ctx context.Context) (decimal.Decimal, error)
}

// DepositOrderRepository defines the interface for deposit intent data access
type DepositOrderRepository interface {
	// Create stores a pending deposit order
	Create(ctx context.Context, order *entities.DepositOrder) error

	// GetByID retrieves a deposit order
	GetByID(ctx context.Context, id string) (*entities.DepositOrder, error)

	// Complete marks a pending order completed. It returns false if it was not pending.
	Complete(ctx context.Context, id string, paymentID string, completedAt time.Time) (bool, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher holds events until the surrounding transaction commits
type TransactionalEventPublisher interface {
	EventPublisher
	Flush(ctx context.Context) error
	Discard()
}
