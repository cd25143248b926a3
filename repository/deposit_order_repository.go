package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wingo/database"
	"wingo/domain/entities"

	"github.com/jackc/pgx/v5"
)

// DepositOrderRepository implements deposit intent storage over Postgres
type DepositOrderRepository struct {
	q Queryable
}

// NewDepositOrderRepository creates a new deposit order repository on the pool
func NewDepositOrderRepository(db *database.DB) *DepositOrderRepository {
	return &DepositOrderRepository{q: db.Pool}
}

// NewDepositOrderRepositoryScoped creates a new deposit order repository bound to a transaction
func NewDepositOrderRepositoryScoped(tx Queryable) *DepositOrderRepository {
	return &DepositOrderRepository{q: tx}
}

// Create stores a pending deposit order
func (r *DepositOrderRepository) Create(ctx context.Context, order *entities.DepositOrder) error {
	query := `
		INSERT INTO deposit_orders (id, account_id, amount, status)
		VALUES ($1, $2, $3::NUMERIC, $4)
		RETURNING created_at`

	err := r.q.QueryRow(ctx, query, order.ID, order.AccountID, order.Amount.String(), string(order.Status)).Scan(&order.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create deposit order %s: %w", order.ID, err)
	}
	return nil
}

// GetByID retrieves a deposit order
func (r *DepositOrderRepository) GetByID(ctx context.Context, id string) (*entities.DepositOrder, error) {
	query := `
		SELECT id, account_id, amount::TEXT, status, payment_id, created_at, completed_at
		FROM deposit_orders
		WHERE id = $1`

	var order entities.DepositOrder
	var amount string
	err := r.q.QueryRow(ctx, query, id).Scan(
		&order.ID, &order.AccountID, &amount, &order.Status, &order.PaymentID, &order.CreatedAt, &order.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deposit order %s: %w", id, err)
	}
	order.Amount = numeric(amount)
	return &order, nil
}

// Complete marks a pending order completed with the provider payment reference
func (r *DepositOrderRepository) Complete(ctx context.Context, id string, paymentID string, completedAt time.Time) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE deposit_orders
		SET status = 'completed', payment_id = $2, completed_at = $3
		WHERE id = $1 AND status = 'pending'`, id, paymentID, completedAt)
	if err != nil {
		return false, fmt.Errorf("failed to complete deposit order %s: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}
