package services

import (
	"context"
	"fmt"
	"time"

	"wingo/domain/entities"
	"wingo/domain/events"
	"wingo/domain/interfaces"
	"wingo/domain/utils"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// settlementService implements round closure and per-bet settlement
type settlementService struct {
	roundRepo       interfaces.RoundRepository
	betRepo         interfaces.BetRepository
	accountRepo     interfaces.AccountRepository
	transactionRepo interfaces.TransactionRepository
	eventPublisher  interfaces.EventPublisher
	resolver        interfaces.OutcomeResolver
	roundDuration   time.Duration
}

// NewSettlementService creates a new settlement service
func NewSettlementService(
	roundRepo interfaces.RoundRepository,
	betRepo interfaces.BetRepository,
	accountRepo interfaces.AccountRepository,
	transactionRepo interfaces.TransactionRepository,
	eventPublisher interfaces.EventPublisher,
	resolver interfaces.OutcomeResolver,
	roundDuration time.Duration,
) interfaces.SettlementService {
	return &settlementService{
		roundRepo:       roundRepo,
		betRepo:         betRepo,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		eventPublisher:  eventPublisher,
		resolver:        resolver,
		roundDuration:   roundDuration,
	}
}

// EnsureLiveRound returns the live round, opening one if none exists.
// Concurrent callers converge on a single round through the single-open-round constraint.
func (s *settlementService) EnsureLiveRound(ctx context.Context, now time.Time) (*entities.Round, bool, error) {
	live, err := s.roundRepo.GetLive(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get live round: %w", err)
	}
	if live != nil {
		return live, false, nil
	}

	round, created, err := s.openRound(ctx, now)
	if err != nil {
		return nil, false, err
	}
	return round, created, nil
}

// CloseRound completes a live round and opens the next one. The compare-and-set on the round
// status is the linearization point: only the caller that flips live to completed gets Settled=true.
func (s *settlementService) CloseRound(ctx context.Context, roundID string, now time.Time, force bool) (*interfaces.RoundClosure, error) {
	round, err := s.roundRepo.GetByIDForUpdate(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock round: %w", err)
	}
	if round == nil {
		return nil, fmt.Errorf("%w: %s", entities.ErrRoundNotFound, roundID)
	}

	if !round.IsLive() {
		log.WithFields(log.Fields{
			"roundID": roundID,
			"status":  round.Status,
		}).Debug("Round already settled, skipping")
		return &interfaces.RoundClosure{Round: round}, nil
	}
	if !force && !round.IsExpired(now) {
		return &interfaces.RoundClosure{Round: round}, nil
	}

	outcome, err := s.resolver.Resolve(round.Exposure)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve outcome: %w", err)
	}

	completed, err := s.roundRepo.Complete(ctx, round.ID, outcome.WinningColor, outcome.WinningNumber, outcome.AdminCommission, now)
	if err != nil {
		return nil, fmt.Errorf("failed to complete round: %w", err)
	}
	if !completed {
		log.WithField("roundID", roundID).Info("Lost settlement race, round already completed")
		return &interfaces.RoundClosure{Round: round}, nil
	}
	round.Complete(outcome.WinningColor, outcome.WinningNumber, outcome.AdminCommission, now)

	next, _, err := s.openRound(ctx, now)
	if err != nil {
		return nil, err
	}

	if err := s.eventPublisher.Publish(events.RoundSettledEvent{
		RoundID:         round.ID,
		WinningColor:    outcome.WinningColor,
		WinningNumber:   outcome.WinningNumber,
		TotalStaked:     outcome.TotalStaked,
		AdminCommission: outcome.AdminCommission,
		NextRoundID:     next.ID,
	}); err != nil {
		log.WithError(err).Error("Failed to publish round settled event")
	}

	log.WithFields(log.Fields{
		"roundID":         round.ID,
		"winningColor":    outcome.WinningColor,
		"winningNumber":   outcome.WinningNumber,
		"totalStaked":     outcome.TotalStaked.String(),
		"adminCommission": outcome.AdminCommission.String(),
		"nextRoundID":     next.ID,
	}).Info("Round completed")

	return &interfaces.RoundClosure{
		Round:     round,
		Outcome:   outcome,
		NextRound: next,
		Settled:   true,
	}, nil
}

// SettleBet moves one pending bet to won or lost and credits winnings.
// The conditional bet update makes repeated calls for the same bet a no-op.
func (s *settlementService) SettleBet(ctx context.Context, bet *entities.Bet, winner entities.Color, now time.Time) (*interfaces.BetSettlement, error) {
	outcome := bet.Resolve(winner)

	applied, err := s.betRepo.Settle(ctx, bet.ID, outcome, now)
	if err != nil {
		return nil, fmt.Errorf("failed to settle bet %d: %w", bet.ID, err)
	}
	result := &interfaces.BetSettlement{Bet: bet, Outcome: outcome, Applied: applied}
	if !applied {
		return result, nil
	}

	bet.Status = outcome.Status
	bet.WinAmount = outcome.WinAmount
	bet.Payout = outcome.Payout
	bet.SettledAt = &now

	if outcome.Status != entities.BetStatusWon {
		return result, nil
	}

	account, _, err := utils.ApplyLedgerChange(ctx, s.accountRepo, s.transactionRepo, s.eventPublisher, utils.LedgerChange{
		AccountID: bet.AccountID,
		Delta: entities.BalanceDelta{
			Amount:        outcome.WinAmount,
			TotalWinnings: outcome.WinAmount,
		},
		Type:        entities.TransactionTypeWin,
		Status:      entities.TransactionStatusCompleted,
		Description: fmt.Sprintf("Won on %s", bet.Color),
		Reference:   bet.RoundID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to credit winnings for bet %d: %w", bet.ID, err)
	}

	balance := account.Balance
	result.NewBalance = &balance
	return result, nil
}

// openRound inserts a fresh live round, falling back to the existing one if another writer opened it first
func (s *settlementService) openRound(ctx context.Context, now time.Time) (*entities.Round, bool, error) {
	round, err := entities.NewRound(now, s.roundDuration)
	if err != nil {
		return nil, false, err
	}

	created, err := s.roundRepo.Create(ctx, round)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create round: %w", err)
	}
	if !created {
		existing, err := s.roundRepo.GetLive(ctx)
		if err != nil {
			return nil, false, fmt.Errorf("failed to get live round: %w", err)
		}
		if existing == nil {
			return nil, false, fmt.Errorf("round creation conflicted but no live round exists")
		}
		return existing, false, nil
	}

	if err := s.eventPublisher.Publish(events.RoundCreatedEvent{
		RoundID:   round.ID,
		StartTime: round.StartTime,
		EndTime:   round.EndTime,
	}); err != nil {
		log.WithError(err).Error("Failed to publish round created event")
	}

	log.WithFields(log.Fields{
		"roundID": round.ID,
		"endTime": round.EndTime,
	}).Info("New round started")

	return round, true, nil
}

// TotalPayout sums the winnings of a set of settlements
func TotalPayout(settlements []*interfaces.BetSettlement) decimal.Decimal {
	total := decimal.Zero
	for _, s := range settlements {
		if s != nil && s.Applied {
			total = total.Add(s.Outcome.Payout)
		}
	}
	return total
}
