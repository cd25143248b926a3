package services

import (
	"context"
	"fmt"

	"wingo/domain/entities"
	"wingo/domain/interfaces"
)

type statsService struct {
	accountRepo     interfaces.AccountRepository
	transactionRepo interfaces.TransactionRepository
	withdrawalRepo  interfaces.WithdrawalRepository
	roundRepo       interfaces.RoundRepository
	betRepo         interfaces.BetRepository
}

// NewStatsService creates a new admin stats service
func NewStatsService(
	accountRepo interfaces.AccountRepository,
	transactionRepo interfaces.TransactionRepository,
	withdrawalRepo interfaces.WithdrawalRepository,
	roundRepo interfaces.RoundRepository,
	betRepo interfaces.BetRepository,
) interfaces.StatsService {
	return &statsService{
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		withdrawalRepo:  withdrawalRepo,
		roundRepo:       roundRepo,
		betRepo:         betRepo,
	}
}

func (s *statsService) GetStats(ctx context.Context) (*interfaces.Stats, error) {
	stats := &interfaces.Stats{}
	var err error

	if stats.TotalUsers, err = s.accountRepo.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count accounts: %w", err)
	}
	if stats.TotalDeposits, err = s.transactionRepo.SumCompletedByType(ctx, entities.TransactionTypeDeposit); err != nil {
		return nil, fmt.Errorf("failed to sum deposits: %w", err)
	}
	if stats.TotalWithdrawals, err = s.withdrawalRepo.SumCompleted(ctx); err != nil {
		return nil, fmt.Errorf("failed to sum withdrawals: %w", err)
	}
	if stats.TotalGames, err = s.roundRepo.CountCompleted(ctx); err != nil {
		return nil, fmt.Errorf("failed to count rounds: %w", err)
	}
	if stats.TotalBets, err = s.betRepo.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count bets: %w", err)
	}
	if stats.TotalCommission, err = s.roundRepo.SumAdminCommission(ctx); err != nil {
		return nil, fmt.Errorf("failed to sum commission: %w", err)
	}

	return stats, nil
}
