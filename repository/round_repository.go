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

const roundColumns = `
	id, start_time, end_time, status,
	green_count, green_amount::TEXT, red_count, red_amount::TEXT, violet_count, violet_amount::TEXT,
	winning_color, winning_number, admin_commission::TEXT, completed_at, created_at`

// RoundRepository implements round storage over Postgres
type RoundRepository struct {
	q Queryable
}

// NewRoundRepository creates a new round repository on the pool
func NewRoundRepository(db *database.DB) *RoundRepository {
	return &RoundRepository{q: db.Pool}
}

// NewRoundRepositoryScoped creates a new round repository bound to a transaction
func NewRoundRepositoryScoped(tx Queryable) *RoundRepository {
	return &RoundRepository{q: tx}
}

func scanRound(row rowScanner) (*entities.Round, error) {
	var r entities.Round
	var green, red, violet entities.ColorExposure
	var greenAmount, redAmount, violetAmount, commission string
	var winningColor *string
	if err := row.Scan(
		&r.ID, &r.StartTime, &r.EndTime, &r.Status,
		&green.Count, &greenAmount, &red.Count, &redAmount, &violet.Count, &violetAmount,
		&winningColor, &r.WinningNumber, &commission, &r.CompletedAt, &r.CreatedAt,
	); err != nil {
		return nil, err
	}

	green.TotalAmount = numeric(greenAmount)
	red.TotalAmount = numeric(redAmount)
	violet.TotalAmount = numeric(violetAmount)
	r.Exposure = entities.Exposure{
		entities.ColorGreen:  green,
		entities.ColorRed:    red,
		entities.ColorViolet: violet,
	}
	r.AdminCommission = numeric(commission)
	if winningColor != nil {
		c := entities.Color(*winningColor)
		r.WinningColor = &c
	}
	return &r, nil
}

func (r *RoundRepository) queryRounds(ctx context.Context, query string, args ...any) ([]*entities.Round, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rounds []*entities.Round
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		rounds = append(rounds, round)
	}
	return rounds, rows.Err()
}

func (r *RoundRepository) queryRound(ctx context.Context, query string, args ...any) (*entities.Round, error) {
	round, err := scanRound(r.q.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return round, err
}

// Create inserts an open round; the single-open-round index turns a concurrent second insert into a no-op
func (r *RoundRepository) Create(ctx context.Context, round *entities.Round) (bool, error) {
	query := `
		INSERT INTO rounds (id, start_time, end_time, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING
		RETURNING created_at`

	err := r.q.QueryRow(ctx, query, round.ID, round.StartTime, round.EndTime, round.Status).Scan(&round.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create round %s: %w", round.ID, err)
	}
	return true, nil
}

// GetByID retrieves a round by its ID
func (r *RoundRepository) GetByID(ctx context.Context, id string) (*entities.Round, error) {
	round, err := r.queryRound(ctx, `SELECT `+roundColumns+` FROM rounds WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get round %s: %w", id, err)
	}
	return round, nil
}

// GetByIDForUpdate retrieves a round and holds its row lock until the transaction ends
func (r *RoundRepository) GetByIDForUpdate(ctx context.Context, id string) (*entities.Round, error) {
	round, err := r.queryRound(ctx, `SELECT `+roundColumns+` FROM rounds WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to lock round %s: %w", id, err)
	}
	return round, nil
}

// GetLive returns the live round, if any
func (r *RoundRepository) GetLive(ctx context.Context) (*entities.Round, error) {
	round, err := r.queryRound(ctx, `
		SELECT `+roundColumns+`
		FROM rounds
		WHERE status = 'live'
		ORDER BY start_time DESC
		LIMIT 1`)
	if err != nil {
		return nil, fmt.Errorf("failed to get live round: %w", err)
	}
	return round, nil
}

// IncrementExposure adds one bet of amount on color while the round is live
func (r *RoundRepository) IncrementExposure(ctx context.Context, roundID string, color entities.Color, amount decimal.Decimal) error {
	var query string
	switch color {
	case entities.ColorGreen:
		query = `UPDATE rounds SET green_count = green_count + 1, green_amount = green_amount + $2::NUMERIC WHERE id = $1 AND status = 'live'`
	case entities.ColorRed:
		query = `UPDATE rounds SET red_count = red_count + 1, red_amount = red_amount + $2::NUMERIC WHERE id = $1 AND status = 'live'`
	case entities.ColorViolet:
		query = `UPDATE rounds SET violet_count = violet_count + 1, violet_amount = violet_amount + $2::NUMERIC WHERE id = $1 AND status = 'live'`
	default:
		return fmt.Errorf("%w: %q", entities.ErrInvalidColor, color)
	}

	tag, err := r.q.Exec(ctx, query, roundID, amount.String())
	if err != nil {
		return fmt.Errorf("failed to increment exposure on round %s: %w", roundID, err)
	}
	if tag.RowsAffected() == 0 {
		return entities.ErrNoLiveRound
	}
	return nil
}

// Complete moves a live round to completed with its outcome. False means the round was no longer live.
func (r *RoundRepository) Complete(ctx context.Context, roundID string, color entities.Color, number int, commission decimal.Decimal, completedAt time.Time) (bool, error) {
	query := `
		UPDATE rounds
		SET status = 'completed',
		    winning_color = $2,
		    winning_number = $3,
		    admin_commission = $4::NUMERIC,
		    completed_at = $5
		WHERE id = $1 AND status = 'live'`

	tag, err := r.q.Exec(ctx, query, roundID, string(color), number, commission.String(), completedAt)
	if err != nil {
		return false, fmt.Errorf("failed to complete round %s: %w", roundID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// GetCompleted returns completed rounds, newest first
func (r *RoundRepository) GetCompleted(ctx context.Context, limit int) ([]*entities.Round, error) {
	rounds, err := r.queryRounds(ctx, `
		SELECT `+roundColumns+`
		FROM rounds
		WHERE status = 'completed'
		ORDER BY completed_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get completed rounds: %w", err)
	}
	return rounds, nil
}

// GetLastCompleted returns the most recently completed round
func (r *RoundRepository) GetLastCompleted(ctx context.Context) (*entities.Round, error) {
	round, err := r.queryRound(ctx, `
		SELECT `+roundColumns+`
		FROM rounds
		WHERE status = 'completed'
		ORDER BY completed_at DESC
		LIMIT 1`)
	if err != nil {
		return nil, fmt.Errorf("failed to get last completed round: %w", err)
	}
	return round, nil
}

// GetCompletedWithPendingBets returns completed rounds that still have unsettled bets, oldest first
func (r *RoundRepository) GetCompletedWithPendingBets(ctx context.Context, limit int) ([]*entities.Round, error) {
	rounds, err := r.queryRounds(ctx, `
		SELECT `+roundColumns+`
		FROM rounds
		WHERE status = 'completed'
		  AND id IN (SELECT DISTINCT round_id FROM bets WHERE status = 'pending')
		ORDER BY completed_at ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get rounds with pending bets: %w", err)
	}
	return rounds, nil
}

// CountCompleted returns the number of completed rounds
func (r *RoundRepository) CountCompleted(ctx context.Context) (int64, error) {
	var count int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM rounds WHERE status = 'completed'`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count completed rounds: %w", err)
	}
	return count, nil
}

// SumAdminCommission returns the recorded admin commission across completed rounds
func (r *RoundRepository) SumAdminCommission(ctx context.Context) (decimal.Decimal, error) {
	sum, err := scanDecimal(r.q.QueryRow(ctx, `SELECT COALESCE(SUM(admin_commission), 0)::TEXT FROM rounds WHERE status = 'completed'`))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum admin commission: %w", err)
	}
	return sum, nil
}
