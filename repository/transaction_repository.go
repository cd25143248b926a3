package repository

import (
	"context"
	"errors"
	"fmt"

	"wingo/database"
	"wingo/domain/entities"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const transactionColumns = `id, account_id, type, amount::TEXT, status, description, reference, created_at`

// TransactionRepository implements the append-only ledger over Postgres
type TransactionRepository struct {
	q Queryable
}

// NewTransactionRepository creates a new ledger repository on the pool
func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{q: db.Pool}
}

// NewTransactionRepositoryScoped creates a new ledger repository bound to a transaction
func NewTransactionRepositoryScoped(tx Queryable) *TransactionRepository {
	return &TransactionRepository{q: tx}
}

func scanTransaction(row rowScanner) (*entities.Transaction, error) {
	var t entities.Transaction
	var amount string
	if err := row.Scan(&t.ID, &t.AccountID, &t.Type, &amount, &t.Status, &t.Description, &t.Reference, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Amount = numeric(amount)
	return &t, nil
}

// Create appends a ledger entry
func (r *TransactionRepository) Create(ctx context.Context, transaction *entities.Transaction) error {
	query := `
		INSERT INTO transactions (account_id, type, amount, status, description, reference)
		VALUES ($1, $2, $3::NUMERIC, $4, $5, $6)
		RETURNING id, created_at`

	err := r.q.QueryRow(ctx, query,
		transaction.AccountID,
		transaction.Type,
		transaction.Amount.String(),
		transaction.Status,
		transaction.Description,
		transaction.Reference,
	).Scan(&transaction.ID, &transaction.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create %s transaction for account %d: %w", transaction.Type, transaction.AccountID, err)
	}
	return nil
}

// GetByID retrieves a ledger entry
func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*entities.Transaction, error) {
	t, err := scanTransaction(r.q.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction %d: %w", id, err)
	}
	return t, nil
}

// UpdateStatus relabels a ledger entry
func (r *TransactionRepository) UpdateStatus(ctx context.Context, id int64, status entities.TransactionStatus) error {
	tag, err := r.q.Exec(ctx, `UPDATE transactions SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update transaction %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %d not found", id)
	}
	return nil
}

// GetByAccount returns the account's most recent ledger entries
func (r *TransactionRepository) GetByAccount(ctx context.Context, accountID int64, limit int) ([]*entities.Transaction, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions for account %d: %w", accountID, err)
	}
	defer rows.Close()

	var transactions []*entities.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// SumByAccount returns the signed sum of the account's ledger
func (r *TransactionRepository) SumByAccount(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	sum, err := scanDecimal(r.q.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0)::TEXT FROM transactions WHERE account_id = $1`, accountID))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum transactions for account %d: %w", accountID, err)
	}
	return sum, nil
}

// SumCompletedByType returns the total of completed entries of a type
func (r *TransactionRepository) SumCompletedByType(ctx context.Context, transactionType entities.TransactionType) (decimal.Decimal, error) {
	sum, err := scanDecimal(r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)::TEXT
		FROM transactions
		WHERE type = $1 AND status = 'completed'`, transactionType))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum %s transactions: %w", transactionType, err)
	}
	return sum, nil
}
