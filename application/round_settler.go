package application

import (
	"context"
	"fmt"
	"time"

	"wingo/domain/entities"
	"wingo/domain/interfaces"
	"wingo/domain/services"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const recoveryBatchSize = 50

// SettlementResult summarizes one SettleRound call
type SettlementResult struct {
	RoundID             string          `json:"roundId"`
	Settled             bool            `json:"settled"`
	WinningColor        *entities.Color `json:"winningColor,omitempty"`
	WinningNumber       *int            `json:"winningNumber,omitempty"`
	TotalStaked         decimal.Decimal `json:"totalStaked"`
	AdminCommission     decimal.Decimal `json:"adminCommission"`
	TotalPayout         decimal.Decimal `json:"totalPayout"`
	NextRoundID         string          `json:"nextRoundId,omitempty"`
	BetsSettled         int             `json:"betsSettled"`
	BetsFailed          int             `json:"betsFailed"`
	CommissionsUnlocked int             `json:"commissionsUnlocked"`
}

// RecoveryResult summarizes one recovery pass
type RecoveryResult struct {
	Rounds      int
	BetsSettled int
	BetsFailed  int
}

// RoundSettler drives round closure and bet settlement across units of work.
// Closing a round is one transaction; every bet then settles in its own transaction.
type RoundSettler struct {
	uowFactory    UnitOfWorkFactory
	resolver      interfaces.OutcomeResolver
	roundDuration time.Duration
	cache         RoundCache
	metrics       Metrics
}

// NewRoundSettler creates a new round settler
func NewRoundSettler(
	uowFactory UnitOfWorkFactory,
	resolver interfaces.OutcomeResolver,
	roundDuration time.Duration,
	cache RoundCache,
	metrics Metrics,
) *RoundSettler {
	return &RoundSettler{
		uowFactory:    uowFactory,
		resolver:      resolver,
		roundDuration: roundDuration,
		cache:         cache,
		metrics:       metricsOrNoop(metrics),
	}
}

func (s *RoundSettler) settlementService(uow UnitOfWork) interfaces.SettlementService {
	return services.NewSettlementService(
		uow.RoundRepository(),
		uow.BetRepository(),
		uow.AccountRepository(),
		uow.TransactionRepository(),
		uow.EventBus(),
		s.resolver,
		s.roundDuration,
	)
}

// EnsureLiveRound returns the live round, opening one if there is none
func (s *RoundSettler) EnsureLiveRound(ctx context.Context, now time.Time) (*entities.Round, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	round, created, err := s.settlementService(uow).EnsureLiveRound(ctx, now)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	if created {
		s.cache.Invalidate(ctx)
	}
	return round, nil
}

// SettleRound closes the round, settles its bets and reconciles withdrawal commissions.
// A round that is not due, or that another settler already closed, returns Settled=false.
func (s *RoundSettler) SettleRound(ctx context.Context, roundID string, now time.Time, force bool, trigger string) (*SettlementResult, error) {
	started := time.Now()

	closure, err := s.closeRound(ctx, roundID, now, force)
	if err != nil {
		return nil, err
	}

	result := &SettlementResult{
		RoundID:         roundID,
		Settled:         closure.Settled,
		TotalStaked:     decimal.Zero,
		AdminCommission: decimal.Zero,
		TotalPayout:     decimal.Zero,
	}
	if !closure.Settled {
		return result, nil
	}

	winner := closure.Outcome.WinningColor
	number := closure.Outcome.WinningNumber
	result.WinningColor = &winner
	result.WinningNumber = &number
	result.TotalStaked = closure.Outcome.TotalStaked
	result.AdminCommission = closure.Outcome.AdminCommission
	if closure.NextRound != nil {
		result.NextRoundID = closure.NextRound.ID
	}

	settlements, failed, err := s.settlePendingBets(ctx, roundID, winner, now)
	if err != nil {
		// The round is already completed; the recovery pass picks up its bets
		log.WithError(err).WithField("roundID", roundID).Error("Failed to load pending bets for settlement")
	}
	result.BetsSettled = len(settlements)
	result.BetsFailed = failed
	result.TotalPayout = services.TotalPayout(settlements)

	unlocked, err := s.ReconcileCommissions(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to reconcile withdrawal commissions")
	}
	result.CommissionsUnlocked = unlocked

	s.cache.Invalidate(ctx)

	s.metrics.RecordRoundSettled(trigger, string(winner), time.Since(started))
	s.metrics.RecordSettlementFailures(trigger, failed)
	s.metrics.RecordPayout(result.TotalPayout.InexactFloat64())

	log.WithFields(log.Fields{
		"roundID":      roundID,
		"trigger":      trigger,
		"winningColor": winner,
		"betsSettled":  result.BetsSettled,
		"betsFailed":   result.BetsFailed,
		"totalPayout":  result.TotalPayout.String(),
		"duration":     time.Since(started),
	}).Info("Round settled")

	return result, nil
}

// ResumePendingBets settles bets left pending on completed rounds.
// Repeating it is safe because each bet settles through a conditional update.
func (s *RoundSettler) ResumePendingBets(ctx context.Context, now time.Time) (*RecoveryResult, error) {
	rounds, err := s.strandedRounds(ctx)
	if err != nil {
		return nil, err
	}

	result := &RecoveryResult{Rounds: len(rounds)}
	for _, round := range rounds {
		if round.WinningColor == nil {
			log.WithField("roundID", round.ID).Warn("Completed round has no winning color, skipping recovery")
			continue
		}
		settlements, failed, err := s.settlePendingBets(ctx, round.ID, *round.WinningColor, now)
		if err != nil {
			log.WithError(err).WithField("roundID", round.ID).Error("Failed to load stranded bets")
			continue
		}
		result.BetsSettled += len(settlements)
		result.BetsFailed += failed
	}

	if result.Rounds > 0 {
		s.metrics.RecordSettlementFailures(TriggerRecovery, result.BetsFailed)
		log.WithFields(log.Fields{
			"rounds":      result.Rounds,
			"betsSettled": result.BetsSettled,
			"betsFailed":  result.BetsFailed,
		}).Info("Recovered stranded bets")
	}
	return result, nil
}

// ReconcileCommissions unlocks withdrawal commissions whose wagering requirement is met
func (s *RoundSettler) ReconcileCommissions(ctx context.Context) (int, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	unlocked, err := services.NewCommissionService(uow.WithdrawalRepository(), uow.BetRepository()).Reconcile(ctx)
	if err != nil {
		return 0, err
	}
	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return unlocked, nil
}

func (s *RoundSettler) closeRound(ctx context.Context, roundID string, now time.Time, force bool) (*interfaces.RoundClosure, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	closure, err := s.settlementService(uow).CloseRound(ctx, roundID, now, force)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit round closure: %w", err)
	}
	return closure, nil
}

func (s *RoundSettler) strandedRounds(ctx context.Context) ([]*entities.Round, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	rounds, err := uow.RoundRepository().GetCompletedWithPendingBets(ctx, recoveryBatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to find rounds with pending bets: %w", err)
	}
	return rounds, nil
}

func (s *RoundSettler) pendingBets(ctx context.Context, roundID string) ([]*entities.Bet, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bets, err := uow.BetRepository().GetPendingByRound(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending bets: %w", err)
	}
	return bets, nil
}

// settlePendingBets settles every pending bet of a round. One bet failing does not stop the batch.
func (s *RoundSettler) settlePendingBets(ctx context.Context, roundID string, winner entities.Color, now time.Time) ([]*interfaces.BetSettlement, int, error) {
	bets, err := s.pendingBets(ctx, roundID)
	if err != nil {
		return nil, 0, err
	}

	var settlements []*interfaces.BetSettlement
	failed := 0
	for _, bet := range bets {
		settlement, err := s.settleBet(ctx, bet, winner, now)
		if err != nil {
			failed++
			log.WithFields(log.Fields{
				"roundID":   roundID,
				"betID":     bet.ID,
				"accountID": bet.AccountID,
				"error":     err,
			}).Error("Failed to settle bet")
			continue
		}
		if settlement.Applied {
			settlements = append(settlements, settlement)
		}
	}
	return settlements, failed, nil
}

func (s *RoundSettler) settleBet(ctx context.Context, bet *entities.Bet, winner entities.Color, now time.Time) (*interfaces.BetSettlement, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	settlement, err := s.settlementService(uow).SettleBet(ctx, bet, winner, now)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit bet settlement: %w", err)
	}
	return settlement, nil
}
