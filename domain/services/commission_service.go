package services

import (
	"context"
	"fmt"

	"wingo/domain/entities"
	"wingo/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

type commissionService struct {
	withdrawalRepo interfaces.WithdrawalRepository
	betRepo        interfaces.BetRepository
}

// NewCommissionService creates a new commission reconciliation service
func NewCommissionService(withdrawalRepo interfaces.WithdrawalRepository, betRepo interfaces.BetRepository) interfaces.CommissionService {
	return &commissionService{
		withdrawalRepo: withdrawalRepo,
		betRepo:        betRepo,
	}
}

// Reconcile unlocks the commission of every hold whose owner has wagered at least its
// minimum bet amount since the hold was created. Bookkeeping only, balances are untouched.
func (s *commissionService) Reconcile(ctx context.Context) (int, error) {
	holds, err := s.withdrawalRepo.GetCommissionPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get pending commissions: %w", err)
	}

	unlocked := 0
	for _, hold := range holds {
		if !hold.IsCommissionPending() {
			continue
		}

		wagered, err := s.betRepo.SumWageredSince(ctx, hold.AccountID, hold.CreatedAt)
		if err != nil {
			return unlocked, fmt.Errorf("failed to sum wagers for account %d: %w", hold.AccountID, err)
		}
		if wagered.LessThan(hold.MinBetAmount) {
			continue
		}

		earned := entities.CommissionFor(hold.MinBetAmount)
		completed, err := s.withdrawalRepo.CompleteCommission(ctx, hold.ID, earned)
		if err != nil {
			return unlocked, fmt.Errorf("failed to complete commission for withdrawal %d: %w", hold.ID, err)
		}
		if !completed {
			continue
		}

		hold.CommissionStatus = entities.CommissionStatusCompleted
		hold.CommissionEarned = earned
		unlocked++

		log.WithFields(log.Fields{
			"withdrawalID": hold.ID,
			"accountID":    hold.AccountID,
			"wagered":      wagered.String(),
			"minBetAmount": hold.MinBetAmount.String(),
			"commission":   earned.String(),
		}).Info("Withdrawal commission unlocked")
	}

	return unlocked, nil
}
