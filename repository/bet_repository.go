package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wingo/database"
	"wingo/domain/entities"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const betColumns = `
	b.id, b.account_id, b.round_id, b.color, b.amount::TEXT, b.status,
	b.win_amount::TEXT, b.payout::TEXT, b.idempotency_key, b.created_at, b.settled_at`

// BetRepository implements bet storage over Postgres
type BetRepository struct {
	q Queryable
}

// NewBetRepository creates a new bet repository on the pool
func NewBetRepository(db *database.DB) *BetRepository {
	return &BetRepository{q: db.Pool}
}

// NewBetRepositoryScoped creates a new bet repository bound to a transaction
func NewBetRepositoryScoped(tx Queryable) *BetRepository {
	return &BetRepository{q: tx}
}

func scanBet(row rowScanner, extra ...any) (*entities.Bet, error) {
	var b entities.Bet
	var amount, winAmount, payout string
	dest := []any{
		&b.ID, &b.AccountID, &b.RoundID, &b.Color, &amount, &b.Status,
		&winAmount, &payout, &b.IdempotencyKey, &b.CreatedAt, &b.SettledAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	b.Amount = numeric(amount)
	b.WinAmount = numeric(winAmount)
	b.Payout = numeric(payout)
	return &b, nil
}

func (r *BetRepository) queryBet(ctx context.Context, query string, args ...any) (*entities.Bet, error) {
	bet, err := scanBet(r.q.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return bet, err
}

// Create inserts a pending bet
func (r *BetRepository) Create(ctx context.Context, bet *entities.Bet) error {
	query := `
		INSERT INTO bets (account_id, round_id, color, amount, status, idempotency_key)
		VALUES ($1, $2, $3, $4::NUMERIC, $5, $6)
		RETURNING id, created_at`

	err := r.q.QueryRow(ctx, query,
		bet.AccountID, bet.RoundID, string(bet.Color), bet.Amount.String(), string(bet.Status), bet.IdempotencyKey,
	).Scan(&bet.ID, &bet.CreatedAt)
	if isUniqueViolation(err, "") {
		return entities.ErrDuplicateBet
	}
	if err != nil {
		return fmt.Errorf("failed to create bet: %w", err)
	}
	return nil
}

// GetByAccountAndRound returns the account's bet on a round
func (r *BetRepository) GetByAccountAndRound(ctx context.Context, accountID int64, roundID string) (*entities.Bet, error) {
	bet, err := r.queryBet(ctx, `SELECT `+betColumns+` FROM bets b WHERE b.account_id = $1 AND b.round_id = $2`, accountID, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	return bet, nil
}

// GetByIdempotencyKey returns the bet placed by the account under key
func (r *BetRepository) GetByIdempotencyKey(ctx context.Context, accountID int64, key string) (*entities.Bet, error) {
	bet, err := r.queryBet(ctx, `SELECT `+betColumns+` FROM bets b WHERE b.account_id = $1 AND b.idempotency_key = $2`, accountID, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet by idempotency key: %w", err)
	}
	return bet, nil
}

// GetPendingByRound returns the unsettled bets of a round in placement order
func (r *BetRepository) GetPendingByRound(ctx context.Context, roundID string) ([]*entities.Bet, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+betColumns+`
		FROM bets b
		WHERE b.round_id = $1 AND b.status = 'pending'
		ORDER BY b.id`, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending bets for round %s: %w", roundID, err)
	}
	defer rows.Close()

	var bets []*entities.Bet
	for rows.Next() {
		bet, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, bet)
	}
	return bets, rows.Err()
}

// Settle moves a pending bet to its outcome
func (r *BetRepository) Settle(ctx context.Context, betID int64, outcome entities.BetOutcome, settledAt time.Time) (bool, error) {
	query := `
		UPDATE bets
		SET status = $2, win_amount = $3::NUMERIC, payout = $4::NUMERIC, settled_at = $5
		WHERE id = $1 AND status = 'pending'`

	tag, err := r.q.Exec(ctx, query, betID, string(outcome.Status), outcome.WinAmount.String(), outcome.Payout.String(), settledAt)
	if err != nil {
		return false, fmt.Errorf("failed to settle bet %d: %w", betID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// GetByAccount returns the account's bets joined with their round outcome, newest first
func (r *BetRepository) GetByAccount(ctx context.Context, accountID int64, limit int) ([]*entities.BetWithRound, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+betColumns+`, r.winning_color, r.winning_number
		FROM bets b
		JOIN rounds r ON r.id = b.round_id
		WHERE b.account_id = $1
		ORDER BY b.created_at DESC, b.id DESC
		LIMIT $2`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets for account %d: %w", accountID, err)
	}
	defer rows.Close()

	var bets []*entities.BetWithRound
	for rows.Next() {
		var winningColor *string
		var winningNumber *int
		bet, err := scanBet(rows, &winningColor, &winningNumber)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		item := &entities.BetWithRound{Bet: *bet, WinningNumber: winningNumber}
		if winningColor != nil {
			c := entities.Color(*winningColor)
			item.WinningColor = &c
		}
		bets = append(bets, item)
	}
	return bets, rows.Err()
}

// SumWageredSince returns the stake the account placed at or after since
func (r *BetRepository) SumWageredSince(ctx context.Context, accountID int64, since time.Time) (decimal.Decimal, error) {
	sum, err := scanDecimal(r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)::TEXT
		FROM bets
		WHERE account_id = $1 AND created_at >= $2 AND status IN ('pending', 'won', 'lost')`, accountID, since))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum wagers for account %d: %w", accountID, err)
	}
	return sum, nil
}

// Count returns the total number of bets
func (r *BetRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM bets`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count bets: %w", err)
	}
	return count, nil
}
