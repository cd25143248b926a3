package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wingo/database"
	"wingo/domain/entities"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const withdrawalColumns = `
	id, account_id, transaction_id, amount::TEXT, method, destination, status,
	min_bet_amount::TEXT, commission_earned::TEXT, commission_status,
	payout_id, failure_reason, idempotency_key, created_at, processed_at`

// WithdrawalRepository implements withdrawal hold storage over Postgres
type WithdrawalRepository struct {
	q Queryable
}

// NewWithdrawalRepository creates a new withdrawal repository on the pool
func NewWithdrawalRepository(db *database.DB) *WithdrawalRepository {
	return &WithdrawalRepository{q: db.Pool}
}

// NewWithdrawalRepositoryScoped creates a new withdrawal repository bound to a transaction
func NewWithdrawalRepositoryScoped(tx Queryable) *WithdrawalRepository {
	return &WithdrawalRepository{q: tx}
}

func scanWithdrawal(row rowScanner) (*entities.Withdrawal, error) {
	var w entities.Withdrawal
	var amount, minBet, commission, method string
	var destination []byte
	if err := row.Scan(
		&w.ID, &w.AccountID, &w.TransactionID, &amount, &method, &destination, &w.Status,
		&minBet, &commission, &w.CommissionStatus,
		&w.PayoutID, &w.FailureReason, &w.IdempotencyKey, &w.CreatedAt, &w.ProcessedAt,
	); err != nil {
		return nil, err
	}

	dest, err := entities.ParseDestination(method, destination)
	if err != nil {
		return nil, fmt.Errorf("withdrawal %d has an unreadable destination: %w", w.ID, err)
	}
	w.Destination = dest
	w.Amount = numeric(amount)
	w.MinBetAmount = numeric(minBet)
	w.CommissionEarned = numeric(commission)
	return &w, nil
}

func (r *WithdrawalRepository) queryWithdrawal(ctx context.Context, query string, args ...any) (*entities.Withdrawal, error) {
	w, err := scanWithdrawal(r.q.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return w, err
}

func (r *WithdrawalRepository) queryWithdrawals(ctx context.Context, query string, args ...any) ([]*entities.Withdrawal, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var withdrawals []*entities.Withdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		withdrawals = append(withdrawals, w)
	}
	return withdrawals, rows.Err()
}

// Create inserts a withdrawal hold
func (r *WithdrawalRepository) Create(ctx context.Context, w *entities.Withdrawal) error {
	if w.Destination == nil {
		return entities.ErrInvalidDestination
	}
	destination, err := json.Marshal(w.Destination)
	if err != nil {
		return fmt.Errorf("failed to encode withdrawal destination: %w", err)
	}

	query := `
		INSERT INTO withdrawals (
			account_id, transaction_id, amount, method, destination, status,
			min_bet_amount, commission_earned, commission_status, idempotency_key
		) VALUES ($1, $2, $3::NUMERIC, $4, $5, $6, $7::NUMERIC, $8::NUMERIC, $9, $10)
		RETURNING id, created_at`

	err = r.q.QueryRow(ctx, query,
		w.AccountID,
		w.TransactionID,
		w.Amount.String(),
		string(w.Destination.Method()),
		destination,
		string(w.Status),
		w.MinBetAmount.String(),
		w.CommissionEarned.String(),
		string(w.CommissionStatus),
		w.IdempotencyKey,
	).Scan(&w.ID, &w.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create withdrawal: %w", err)
	}
	return nil
}

// GetByID retrieves a withdrawal by its ID
func (r *WithdrawalRepository) GetByID(ctx context.Context, id int64) (*entities.Withdrawal, error) {
	w, err := r.queryWithdrawal(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal %d: %w", id, err)
	}
	return w, nil
}

// GetByPayoutID retrieves the withdrawal paid out under payoutID
func (r *WithdrawalRepository) GetByPayoutID(ctx context.Context, payoutID string) (*entities.Withdrawal, error) {
	w, err := r.queryWithdrawal(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE payout_id = $1`, payoutID)
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal by payout %s: %w", payoutID, err)
	}
	return w, nil
}

// GetByIdempotencyKey returns the withdrawal requested by the account under key
func (r *WithdrawalRepository) GetByIdempotencyKey(ctx context.Context, accountID int64, key string) (*entities.Withdrawal, error) {
	w, err := r.queryWithdrawal(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawals WHERE account_id = $1 AND idempotency_key = $2`, accountID, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal by idempotency key: %w", err)
	}
	return w, nil
}

// GetByAccount returns the account's withdrawals, newest first
func (r *WithdrawalRepository) GetByAccount(ctx context.Context, accountID int64, limit int) ([]*entities.Withdrawal, error) {
	withdrawals, err := r.queryWithdrawals(ctx, `
		SELECT `+withdrawalColumns+`
		FROM withdrawals
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawals for account %d: %w", accountID, err)
	}
	return withdrawals, nil
}

// List returns withdrawals in any of statuses, newest first
func (r *WithdrawalRepository) List(ctx context.Context, statuses []entities.WithdrawalStatus, limit int) ([]*entities.Withdrawal, error) {
	withdrawals, err := r.queryWithdrawals(ctx, `
		SELECT `+withdrawalColumns+`
		FROM withdrawals
		WHERE cardinality($1::TEXT[]) = 0 OR status = ANY($1::TEXT[])
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, statusStrings(statuses), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawals: %w", err)
	}
	return withdrawals, nil
}

// TransitionStatus moves a withdrawal from one of from to to.
// A nil failureReason keeps the stored reason. processed_at is stamped on final statuses.
func (r *WithdrawalRepository) TransitionStatus(ctx context.Context, id int64, from []entities.WithdrawalStatus, to entities.WithdrawalStatus, failureReason *string, at time.Time) (bool, error) {
	query := `
		UPDATE withdrawals
		SET status = $2,
		    failure_reason = COALESCE($3::TEXT, failure_reason),
		    processed_at = CASE WHEN $4::BOOLEAN THEN $6::TIMESTAMPTZ ELSE processed_at END
		WHERE id = $1 AND status = ANY($5::TEXT[])`

	tag, err := r.q.Exec(ctx, query, id, string(to), failureReason, to.IsFinal(), statusStrings(from), at)
	if err != nil {
		return false, fmt.Errorf("failed to transition withdrawal %d to %s: %w", id, to, err)
	}
	return tag.RowsAffected() == 1, nil
}

// SetPayoutID records the provider payout reference
func (r *WithdrawalRepository) SetPayoutID(ctx context.Context, id int64, payoutID string) error {
	tag, err := r.q.Exec(ctx, `UPDATE withdrawals SET payout_id = $2 WHERE id = $1`, id, payoutID)
	if err != nil {
		return fmt.Errorf("failed to set payout id on withdrawal %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return entities.ErrWithdrawalNotFound
	}
	return nil
}

// GetCommissionPending returns holds whose commission may still unlock, oldest first
func (r *WithdrawalRepository) GetCommissionPending(ctx context.Context) ([]*entities.Withdrawal, error) {
	withdrawals, err := r.queryWithdrawals(ctx, `
		SELECT `+withdrawalColumns+`
		FROM withdrawals
		WHERE commission_status = 'pending' AND status = ANY($1::TEXT[])
		ORDER BY created_at, id`, statusStrings(entities.CommissionEligibleStatuses))
	if err != nil {
		return nil, fmt.Errorf("failed to get commission-pending withdrawals: %w", err)
	}
	return withdrawals, nil
}

// CompleteCommission marks the commission earned once
func (r *WithdrawalRepository) CompleteCommission(ctx context.Context, id int64, earned decimal.Decimal) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE withdrawals
		SET commission_status = 'completed', commission_earned = $2::NUMERIC
		WHERE id = $1 AND commission_status = 'pending'`, id, earned.String())
	if err != nil {
		return false, fmt.Errorf("failed to complete commission on withdrawal %d: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

// SumCompleted returns the total amount of completed withdrawals
func (r *WithdrawalRepository) SumCompleted(ctx context.Context) (decimal.Decimal, error) {
	sum, err := scanDecimal(r.q.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0)::TEXT FROM withdrawals WHERE status = 'completed'`))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum completed withdrawals: %w", err)
	}
	return sum, nil
}

func statusStrings(statuses []entities.WithdrawalStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
