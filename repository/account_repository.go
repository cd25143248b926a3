package repository

import (
	"context"
	"errors"
	"fmt"

	"wingo/database"
	"wingo/domain/entities"

	"github.com/jackc/pgx/v5"
)

const accountColumns = `
	id, username, referral_code, referred_by,
	balance::TEXT, total_winnings::TEXT, total_deposits::TEXT, total_withdrawals::TEXT,
	is_admin, created_at, updated_at`

// AccountRepository implements the account store over Postgres
type AccountRepository struct {
	q Queryable
}

// NewAccountRepository creates a new account repository on the pool
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// NewAccountRepositoryScoped creates a new account repository bound to a transaction
func NewAccountRepositoryScoped(tx Queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

func scanAccount(row rowScanner) (*entities.Account, error) {
	var a entities.Account
	var balance, winnings, deposits, withdrawals string
	if err := row.Scan(
		&a.ID, &a.Username, &a.ReferralCode, &a.ReferredBy,
		&balance, &winnings, &deposits, &withdrawals,
		&a.IsAdmin, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	a.Balance = numeric(balance)
	a.TotalWinnings = numeric(winnings)
	a.TotalDeposits = numeric(deposits)
	a.TotalWithdrawals = numeric(withdrawals)
	return &a, nil
}

func (r *AccountRepository) getOne(ctx context.Context, where string, arg any) (*entities.Account, error) {
	account, err := scanAccount(r.q.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE `+where, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return account, err
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*entities.Account, error) {
	account, err := r.getOne(ctx, "id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", id, err)
	}
	return account, nil
}

// GetByUsername retrieves an account by its username
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*entities.Account, error) {
	account, err := r.getOne(ctx, "username = $1", username)
	if err != nil {
		return nil, fmt.Errorf("failed to get account by username: %w", err)
	}
	return account, nil
}

// GetByReferralCode retrieves the account owning a referral code
func (r *AccountRepository) GetByReferralCode(ctx context.Context, code string) (*entities.Account, error) {
	account, err := r.getOne(ctx, "referral_code = $1", code)
	if err != nil {
		return nil, fmt.Errorf("failed to get account by referral code: %w", err)
	}
	return account, nil
}

// Create inserts a new zero-balance account
func (r *AccountRepository) Create(ctx context.Context, account *entities.Account) error {
	query := `
		INSERT INTO accounts (username, referral_code, referred_by, is_admin)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + accountColumns

	created, err := scanAccount(r.q.QueryRow(ctx, query,
		account.Username, account.ReferralCode, account.ReferredBy, account.IsAdmin,
	))
	if isUniqueViolation(err, "accounts_username_key") {
		return entities.ErrUsernameTaken
	}
	if err != nil {
		return fmt.Errorf("failed to create account %s: %w", account.Username, err)
	}

	*account = *created
	return nil
}

// ApplyDelta atomically adds the delta to the balance and running totals.
// The balance guard is part of the UPDATE so concurrent debits can never overdraw.
func (r *AccountRepository) ApplyDelta(ctx context.Context, accountID int64, delta entities.BalanceDelta) (*entities.Account, error) {
	query := `
		UPDATE accounts
		SET balance           = balance + $2::NUMERIC,
		    total_winnings    = total_winnings + $3::NUMERIC,
		    total_deposits    = total_deposits + $4::NUMERIC,
		    total_withdrawals = total_withdrawals + $5::NUMERIC,
		    updated_at        = NOW()
		WHERE id = $1 AND balance + $2::NUMERIC >= 0
		RETURNING ` + accountColumns

	account, err := scanAccount(r.q.QueryRow(ctx, query,
		accountID,
		delta.Amount.String(),
		delta.TotalWinnings.String(),
		delta.TotalDeposits.String(),
		delta.TotalWithdrawals.String(),
	))
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to apply balance delta to account %d: %w", accountID, err)
	}

	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, accountID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check account %d: %w", accountID, err)
	}
	if !exists {
		return nil, entities.ErrAccountNotFound
	}
	return nil, entities.ErrInsufficientFunds
}

// Count returns the number of player accounts
func (r *AccountRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM accounts WHERE NOT is_admin`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return count, nil
}
